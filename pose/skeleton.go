package pose

// NumEdges is the number of edges in the part tree.
const NumEdges = NumParts - 1

// Edge connects two parts.
type Edge struct {
	Parent Part
	Child  Part
}

// ParentChildEdges is the part tree followed by multi-pose decoding, rooted at the nose.
// The index of an edge is its channel in the displacement fields.
var ParentChildEdges = [NumEdges]Edge{
	{Nose, LeftEye},
	{LeftEye, LeftEar},
	{Nose, RightEye},
	{RightEye, RightEar},
	{Nose, LeftShoulder},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{LeftShoulder, LeftHip},
	{LeftHip, LeftKnee},
	{LeftKnee, LeftAnkle},
	{Nose, RightShoulder},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},
	{RightShoulder, RightHip},
	{RightHip, RightKnee},
	{RightKnee, RightAnkle},
}

// JointPairs lists the part pairs a skeleton is drawn with. It is not a tree and plays no
// part in decoding.
var JointPairs = [18]Edge{
	{Nose, LeftEye},
	{Nose, RightEye},
	{LeftEye, LeftEar},
	{RightEye, RightEar},
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftHip},
	{RightShoulder, RightHip},
	{LeftShoulder, RightHip},
	{RightShoulder, LeftHip},
	{LeftHip, RightHip},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},
	{LeftHip, LeftKnee},
	{LeftKnee, LeftAnkle},
	{RightHip, RightKnee},
	{RightKnee, RightAnkle},
}
