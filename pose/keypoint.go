// Package pose - Keypoint decoding for PoseNet heatmap, offset and displacement outputs.
package pose

import (
	"fmt"

	"github.com/chewxy/math32"
)

// NumParts is the number of body parts a pose is made of.
const NumParts = 17

// Part identifies a body part. The value doubles as the heatmap channel index.
type Part int

// Body parts in heatmap channel order.
const (
	Nose Part = iota
	LeftEye
	RightEye
	LeftEar
	RightEar
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
)

var partNames = [NumParts]string{
	"nose",
	"leftEye",
	"rightEye",
	"leftEar",
	"rightEar",
	"leftShoulder",
	"rightShoulder",
	"leftElbow",
	"rightElbow",
	"leftWrist",
	"rightWrist",
	"leftHip",
	"rightHip",
	"leftKnee",
	"rightKnee",
	"leftAnkle",
	"rightAnkle",
}

// String returns the camelCase name of the part.
func (p Part) String() string {
	if p < 0 || int(p) >= NumParts {
		return fmt.Sprintf("part(%d)", int(p))
	}
	return partNames[p]
}

// Vec2 is a 2D point or vector.
type Vec2 struct {
	X float32 `json:"x" yaml:"x"`
	Y float32 `json:"y" yaml:"y"`
}

// Add returns v + o.
func (v Vec2) Add(o Vec2) Vec2 {
	return Vec2{X: v.X + o.X, Y: v.Y + o.Y}
}

// Sub returns v - o.
func (v Vec2) Sub(o Vec2) Vec2 {
	return Vec2{X: v.X - o.X, Y: v.Y - o.Y}
}

// Scale returns v multiplied by s.
func (v Vec2) Scale(s float32) Vec2 {
	return Vec2{X: v.X * s, Y: v.Y * s}
}

// SquaredNorm returns the squared euclidean length of v.
func (v Vec2) SquaredNorm() float32 {
	return v.X*v.X + v.Y*v.Y
}

// Norm returns the euclidean length of v.
func (v Vec2) Norm() float32 {
	return math32.Sqrt(v.SquaredNorm())
}

// Keypoint is a single detected body part.
//
// Position is in heatmap grid units for candidates coming out of BuildPartList and in
// input image pixels for everything placed into a Pose.
type Keypoint struct {
	// Score is the heatmap confidence of the part.
	Score float32 `json:"score" yaml:"score"`
	// Position is the location of the part.
	Position Vec2 `json:"position" yaml:"position"`
	// ID is the part type.
	ID int `json:"id" yaml:"id"`
}

// IsSet reports whether the keypoint holds a detection.
func (k Keypoint) IsSet() bool {
	return k.Score != 0
}

// Part returns the typed part id.
func (k Keypoint) Part() Part {
	return Part(k.ID)
}

// Pose is one person instance. Slot i holds the keypoint for part i; a slot with a zero score
// is unset.
type Pose [NumParts]Keypoint

// fill writes slot id exactly once. A second write is a decoder bug.
func (p *Pose) fill(kp Keypoint) {
	if p[kp.ID].IsSet() {
		panic(fmt.Sprintf("pose: slot %s written twice", Part(kp.ID)))
	}
	p[kp.ID] = kp
}

// Count returns the number of set slots.
func (p *Pose) Count() int {
	n := 0
	for _, kp := range p {
		if kp.IsSet() {
			n++
		}
	}
	return n
}

// Score returns the mean score of the set slots, or 0 for an empty pose.
func (p *Pose) Score() float32 {
	var sum float32
	n := 0
	for _, kp := range p {
		if kp.IsSet() {
			sum += kp.Score
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float32(n)
}

// Keypoints returns the slots as a slice, in part id order.
func (p *Pose) Keypoints() []Keypoint {
	out := make([]Keypoint, NumParts)
	copy(out, p[:])
	return out
}
