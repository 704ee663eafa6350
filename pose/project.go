package pose

import "github.com/chewxy/math32"

// ProjectionParams describes how decoded poses map onto the captured frame.
type ProjectionParams struct {
	// SourceWidth and SourceHeight are the captured frame size in pixels.
	SourceWidth  int `json:"source_width" yaml:"source_width"`
	SourceHeight int `json:"source_height" yaml:"source_height"`
	// InputWidth and InputHeight are the model input size in pixels.
	InputWidth  int `json:"input_width" yaml:"input_width"`
	InputHeight int `json:"input_height" yaml:"input_height"`
	// FlipVertical puts the origin at the bottom left corner.
	FlipVertical bool `json:"flip_vertical" yaml:"flip_vertical"`
	// Mirror flips the x axis, for front facing cameras.
	Mirror bool `json:"mirror" yaml:"mirror"`
	// MinConfidence is the percentage score (0-100) a keypoint needs to be visible.
	MinConfidence int `json:"min_confidence" yaml:"min_confidence"`
}

// ProjectedKeypoint is a keypoint in source frame pixels.
type ProjectedKeypoint struct {
	Keypoint
	// Visible is true when the score reaches the minimum confidence.
	Visible bool `json:"visible" yaml:"visible"`
}

// ProjectedPose is a pose in source frame pixels.
type ProjectedPose [NumParts]ProjectedKeypoint

// Scale returns the factor between model input pixels and source frame pixels.
func (p ProjectionParams) Scale() float32 {
	inputMin := min(p.InputWidth, p.InputHeight)
	if inputMin <= 0 {
		return 1
	}
	return math32.Min(float32(p.SourceWidth), float32(p.SourceHeight)) / float32(inputMin)
}

// Project maps poses decoded in model input pixels onto the source frame.
func Project(poses []Pose, params ProjectionParams) []ProjectedPose {
	scale := params.Scale()
	threshold := float32(params.MinConfidence) / 100

	out := make([]ProjectedPose, len(poses))
	for i := range poses {
		for k, kp := range poses[i] {
			pos := kp.Position.Scale(scale)
			if params.FlipVertical {
				pos.Y = float32(params.SourceHeight) - pos.Y
			}
			if params.Mirror {
				pos.X = float32(params.SourceWidth) - pos.X
			}
			out[i][k] = ProjectedKeypoint{
				Keypoint: Keypoint{Score: kp.Score, Position: pos, ID: k},
				Visible:  kp.Score >= threshold,
			}
		}
	}
	return out
}

// VisibleEdges returns the joint pairs of p whose ends are both visible.
func (p *ProjectedPose) VisibleEdges() []Edge {
	var edges []Edge
	for _, e := range JointPairs {
		if p[e.Parent].Visible && p[e.Child].Visible {
			edges = append(edges, e)
		}
	}
	return edges
}
