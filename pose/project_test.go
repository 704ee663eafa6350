package pose

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProjectionScale(t *testing.T) {
	p := ProjectionParams{SourceWidth: 1280, SourceHeight: 720, InputWidth: 455, InputHeight: 256}
	assert.InDelta(t, 720.0/256.0, p.Scale(), 1e-6)

	assert.Equal(t, float32(1), ProjectionParams{SourceWidth: 10, SourceHeight: 10}.Scale())
}

func TestProject(t *testing.T) {
	var p Pose
	p[Nose] = Keypoint{Score: 0.8, Position: Vec2{X: 100, Y: 50}, ID: int(Nose)}
	p[LeftEye] = Keypoint{Score: 0.6, Position: Vec2{X: 110, Y: 40}, ID: int(LeftEye)}

	params := ProjectionParams{
		SourceWidth:   1280,
		SourceHeight:  720,
		InputWidth:    512,
		InputHeight:   288,
		MinConfidence: 70,
	}

	out := Project([]Pose{p}, params)
	require.Len(t, out, 1)

	assert.InDelta(t, 250, out[0][Nose].Position.X, 1e-4)
	assert.InDelta(t, 125, out[0][Nose].Position.Y, 1e-4)
	assert.True(t, out[0][Nose].Visible)
	assert.False(t, out[0][LeftEye].Visible)
	assert.Equal(t, int(RightAnkle), out[0][RightAnkle].ID)
	assert.False(t, out[0][RightAnkle].Visible)

	params.FlipVertical = true
	params.Mirror = true
	out = Project([]Pose{p}, params)
	assert.InDelta(t, 1280-250, out[0][Nose].Position.X, 1e-4)
	assert.InDelta(t, 720-125, out[0][Nose].Position.Y, 1e-4)
	assert.Equal(t, float32(0.8), out[0][Nose].Score)
}

func TestProjectedPoseVisibleEdges(t *testing.T) {
	var p ProjectedPose
	for _, part := range []Part{Nose, LeftEye, LeftEar, LeftShoulder} {
		p[part].Visible = true
	}

	assert.Equal(t, []Edge{{Nose, LeftEye}, {LeftEye, LeftEar}}, p.VisibleEdges())
}
