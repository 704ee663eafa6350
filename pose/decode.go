package pose

import (
	"github.com/pkg/errors"
)

// Direction selects the displacement field followed along a tree edge.
type Direction int

const (
	// Backward follows an edge from child to parent.
	Backward Direction = iota
	// Forward follows an edge from parent to child.
	Forward
)

func (m *Maps) displacements(dir Direction) *grid {
	if dir == Forward {
		return m.fwd
	}
	return m.bwd
}

// Traverse finds the part targetID connected to source by edgeID.
//
// The displacement read at the source's cell is added to source.Position as is, in the frame
// source.Position is already in; the displaced point is then snapped back to the grid and
// refined with the target part's offset.
//
// Arguments:
//   - edgeID: The edge joining the source and target parts.
//   - source: A placed keypoint in image pixels.
//   - targetID: The part to locate.
//   - stride: The grid to pixel scale.
//   - dir: Which displacement field to follow.
//
// Returns:
//   - Keypoint: The target part in image pixels, scored from the heatmap at the landing cell.
func (m *Maps) Traverse(edgeID int, source Keypoint, targetID, stride int, dir Direction) Keypoint {
	h, w := m.heatmaps.height, m.heatmaps.width
	field := m.displacements(dir)

	src := NearestGridIndex(source.Position, stride, h, w)
	displacement := Vec2{
		X: field.at(src.Y, src.X, NumEdges+edgeID),
		Y: field.at(src.Y, src.X, edgeID),
	}
	displaced := NearestGridIndex(source.Position.Add(displacement), stride, h, w)

	offset := m.OffsetVector(displaced.Y, displaced.X, targetID)
	position := Vec2{X: float32(displaced.X), Y: float32(displaced.Y)}.Scale(float32(stride)).Add(offset)

	return Keypoint{
		Score:    m.heatmaps.at(displaced.Y, displaced.X, targetID),
		Position: position,
		ID:       targetID,
	}
}

// DecodePose grows a full pose from a root candidate by walking the part tree, first towards
// the root of the tree with the backward displacements, then away from it with the forward
// displacements.
//
// Arguments:
//   - root: A candidate in grid units with a positive score.
//   - stride: The grid to pixel scale.
//
// Returns:
//   - Pose: Every slot reachable from root, in image pixels.
//   - error: ErrInvalidOutputs when the maps carry no displacements.
func (m *Maps) DecodePose(root Keypoint, stride int) (Pose, error) {
	var p Pose
	if !m.HasDisplacements() {
		return p, errors.Wrap(ErrInvalidOutputs, "multi-pose decoding needs displacements")
	}

	p.fill(Keypoint{Score: root.Score, Position: m.ImageCoords(root, stride), ID: root.ID})

	for edge := NumEdges - 1; edge >= 0; edge-- {
		parent, child := int(ParentChildEdges[edge].Parent), int(ParentChildEdges[edge].Child)
		if p[child].Score > 0 && p[parent].Score == 0 {
			p.fill(m.Traverse(edge, p[child], parent, stride, Backward))
		}
	}

	for edge := 0; edge < NumEdges; edge++ {
		parent, child := int(ParentChildEdges[edge].Parent), int(ParentChildEdges[edge].Child)
		if p[parent].Score > 0 && p[child].Score == 0 {
			p.fill(m.Traverse(edge, p[parent], child, stride, Forward))
		}
	}

	return p, nil
}

// DecodeSinglePose picks the strongest cell of every heatmap channel and maps it to image
// pixels. A channel with no positive score yields a zero scored keypoint at cell (0, 0).
func (m *Maps) DecodeSinglePose(stride int) Pose {
	var p Pose
	for c := 0; c < NumParts; c++ {
		part := Keypoint{ID: c}
		for y := 0; y < m.heatmaps.height; y++ {
			for x := 0; x < m.heatmaps.width; x++ {
				if score := m.heatmaps.at(y, x, c); score > part.Score {
					part.Score = score
					part.Position = Vec2{X: float32(x), Y: float32(y)}
				}
			}
		}
		part.Position = m.ImageCoords(part, stride)
		p[c] = part
	}
	return p
}

// WithinNMSRadius reports whether any pose already places partID within sqrt(squaredRadius)
// pixels of point.
func WithinNMSRadius(poses []Pose, squaredRadius float32, point Vec2, partID int) bool {
	for i := range poses {
		if point.Sub(poses[i][partID].Position).SquaredNorm() <= squaredRadius {
			return true
		}
	}
	return false
}

// MultiPoseParams controls multi-pose decoding.
type MultiPoseParams struct {
	// MaxPoseDetections caps the number of returned poses.
	MaxPoseDetections int `json:"max_pose_detections" yaml:"max_pose_detections"`
	// ScoreThreshold is the minimum heatmap score of a root candidate.
	ScoreThreshold float32 `json:"score_threshold" yaml:"score_threshold"`
	// NMSRadius is the minimum pixel distance between same-part keypoints of two poses.
	NMSRadius int `json:"nms_radius" yaml:"nms_radius"`
}

// DefaultMultiPoseParams returns the parameters the estimator starts from.
func DefaultMultiPoseParams() MultiPoseParams {
	return MultiPoseParams{
		MaxPoseDetections: 20,
		ScoreThreshold:    0.25,
		NMSRadius:         100,
	}
}

// Validate checks that the parameters are usable.
func (p MultiPoseParams) Validate() error {
	if p.MaxPoseDetections < 0 {
		return errors.Wrapf(ErrInvalidParams, "max pose detections %d is negative", p.MaxPoseDetections)
	}
	if p.NMSRadius < 0 {
		return errors.Wrapf(ErrInvalidParams, "nms radius %d is negative", p.NMSRadius)
	}
	return nil
}

// DecodeMultiplePoses detects up to params.MaxPoseDetections poses.
//
// Candidates are visited strongest first. A candidate whose image position lies within the NMS
// radius of the same part in an accepted pose is dropped; otherwise a pose is grown from it.
//
// Arguments:
//   - stride: The grid to pixel scale.
//   - params: The decoding parameters.
//
// Returns:
//   - []Pose: Accepted poses in discovery order.
//   - error: ErrInvalidParams, ErrInvalidStride or ErrInvalidOutputs on bad input.
func (m *Maps) DecodeMultiplePoses(stride int, params MultiPoseParams) ([]Pose, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if err := checkStride(stride); err != nil {
		return nil, err
	}
	if !m.HasDisplacements() {
		return nil, errors.Wrap(ErrInvalidOutputs, "multi-pose decoding needs displacements")
	}

	poses := make([]Pose, 0, params.MaxPoseDetections)
	if params.MaxPoseDetections == 0 {
		return poses, nil
	}

	squaredRadius := float32(params.NMSRadius) * float32(params.NMSRadius)

	candidates := m.BuildPartList(params.ScoreThreshold, LocalMaximumRadius)
	SortCandidates(candidates)

	for _, root := range candidates {
		if len(poses) >= params.MaxPoseDetections {
			break
		}
		if WithinNMSRadius(poses, squaredRadius, m.ImageCoords(root, stride), root.ID) {
			continue
		}
		p, err := m.DecodePose(root, stride)
		if err != nil {
			return nil, err
		}
		poses = append(poses, p)
	}

	return poses, nil
}

// DecodeSinglePose validates out and decodes one pose from it.
func DecodeSinglePose(out Outputs, stride int) (Pose, error) {
	if err := checkStride(stride); err != nil {
		return Pose{}, err
	}
	m, err := NewMaps(out)
	if err != nil {
		return Pose{}, err
	}
	return m.DecodeSinglePose(stride), nil
}

// DecodeMultiplePoses validates out and decodes every pose in it.
func DecodeMultiplePoses(out Outputs, stride int, params MultiPoseParams) ([]Pose, error) {
	m, err := NewMaps(out)
	if err != nil {
		return nil, err
	}
	return m.DecodeMultiplePoses(stride, params)
}

func checkStride(stride int) error {
	if stride <= 0 {
		return errors.Wrapf(ErrInvalidStride, "stride %d must be positive", stride)
	}
	return nil
}
