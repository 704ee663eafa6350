package pose

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

func TestDecodeSinglePoseZeroHeatmaps(t *testing.T) {
	f := newFixture(9, 9)
	for part := Part(0); part < NumParts; part++ {
		f.offset(0, 0, part, Vec2{X: float32(part), Y: -float32(part)})
	}
	m := f.maps(t)

	p, err := DecodeSinglePose(f.outputs(), 16)
	require.NoError(t, err)

	for id, kp := range p {
		assert.Equal(t, id, kp.ID)
		assert.Equal(t, float32(0), kp.Score)
		assert.Equal(t, m.ImageCoords(Keypoint{ID: id}, 16), kp.Position)
		assert.Equal(t, Vec2{X: float32(id), Y: -float32(id)}, kp.Position)
	}
}

func TestDecodeSinglePosePicksStrongestCell(t *testing.T) {
	f := newFixture(8, 8).
		heat(2, 5, Nose, 0.4).
		heat(6, 1, Nose, 0.9).
		heat(7, 7, Nose, 0.9).
		heat(3, 3, LeftShoulder, 0.2).
		offset(6, 1, Nose, Vec2{X: 2, Y: 3})

	p, err := DecodeSinglePose(f.outputs(), 8)
	require.NoError(t, err)

	// The first strictly highest cell wins; the later tie does not replace it.
	assert.Equal(t, Keypoint{Score: 0.9, Position: Vec2{X: 1*8 + 2, Y: 6*8 + 3}, ID: int(Nose)}, p[Nose])
	assert.Equal(t, Keypoint{Score: 0.2, Position: Vec2{X: 24, Y: 24}, ID: int(LeftShoulder)}, p[LeftShoulder])
	assert.Equal(t, Keypoint{Score: 0, Position: Vec2{}, ID: int(RightAnkle)}, p[RightAnkle])
}

func TestTraverse(t *testing.T) {
	edge := edgeID(t, Nose, LeftEye)
	m := newFixture(5, 5).
		displace(Forward, 2, 2, edge, Vec2{X: 16, Y: 8}).
		displace(Backward, 2, 2, edge, Vec2{X: -100, Y: -100}).
		heat(3, 4, LeftEye, 0.7).
		offset(3, 4, LeftEye, Vec2{X: -2, Y: 1.5}).
		maps(t)

	source := Keypoint{Score: 0.9, Position: Vec2{X: 16, Y: 16}, ID: int(Nose)}

	got := m.Traverse(edge, source, int(LeftEye), 8, Forward)
	assert.Equal(t, Keypoint{Score: 0.7, Position: Vec2{X: 4*8 - 2, Y: 3*8 + 1.5}, ID: int(LeftEye)}, got)

	// The backward field pushes the point off the grid; it clamps to cell (0, 0).
	got = m.Traverse(edge, source, int(LeftEye), 8, Backward)
	assert.Equal(t, Keypoint{Score: 0, Position: Vec2{}, ID: int(LeftEye)}, got)
}

func TestTraverseAddsDisplacementInSourceFrame(t *testing.T) {
	edge := edgeID(t, LeftShoulder, LeftElbow)
	// The source sits at pixel (20, 4), nearest cell (x=2, y=0) at stride 8. The displacement
	// is added to the pixel position unscaled: (20+3, 4+9) = (23, 13) -> cell (x=3, y=2).
	m := newFixture(4, 4).
		displace(Forward, 0, 2, edge, Vec2{X: 3, Y: 9}).
		heat(2, 3, LeftElbow, 0.5).
		maps(t)

	got := m.Traverse(edge, Keypoint{Score: 1, Position: Vec2{X: 20, Y: 4}, ID: int(LeftShoulder)}, int(LeftElbow), 8, Forward)
	assert.Equal(t, Keypoint{Score: 0.5, Position: Vec2{X: 24, Y: 16}, ID: int(LeftElbow)}, got)
}

func TestDecodePoseFollowsBothDirections(t *testing.T) {
	const stride = 8
	eyeEdge := edgeID(t, Nose, LeftEye)
	earEdge := edgeID(t, LeftEye, LeftEar)

	f := newFixture(6, 6).
		heat(2, 3, LeftEye, 0.95).
		heat(2, 2, Nose, 0.9).
		heat(1, 4, LeftEar, 0.6).
		// From the eye back to the nose, one cell left.
		displace(Backward, 2, 3, eyeEdge, Vec2{X: -stride}).
		// From the eye forward to the ear, one cell up and right.
		displace(Forward, 2, 3, earEdge, Vec2{X: stride, Y: -stride})
	m := f.maps(t)

	root := Keypoint{Score: 0.95, Position: Vec2{X: 3, Y: 2}, ID: int(LeftEye)}
	p, err := m.DecodePose(root, stride)
	require.NoError(t, err)

	assert.Equal(t, Keypoint{Score: 0.95, Position: Vec2{X: 24, Y: 16}, ID: int(LeftEye)}, p[LeftEye])
	assert.Equal(t, Keypoint{Score: 0.9, Position: Vec2{X: 16, Y: 16}, ID: int(Nose)}, p[Nose])
	assert.Equal(t, Keypoint{Score: 0.6, Position: Vec2{X: 32, Y: 8}, ID: int(LeftEar)}, p[LeftEar])
	// Parts whose landing cell has no score stay unset.
	assert.False(t, p[RightAnkle].IsSet())
}

func TestDecodePoseReachesEveryPart(t *testing.T) {
	m := newFixture(4, 4).fill(0.5).maps(t)

	for root := Part(0); root < NumParts; root++ {
		p, err := m.DecodePose(Keypoint{Score: 0.5, Position: Vec2{X: 1, Y: 1}, ID: int(root)}, 8)
		require.NoError(t, err)
		assert.Equal(t, NumParts, p.Count(), "root %s", root)
		for id, kp := range p {
			assert.Equal(t, id, kp.ID)
		}
	}
}

func TestDecodePoseIsDeterministic(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	f := newFixture(10, 10)
	for _, field := range [][]float32{f.heatmaps, f.offsets, f.fwd, f.bwd} {
		for i := range field {
			field[i] = rng.Float32() * 8
		}
	}
	for i := range f.heatmaps {
		f.heatmaps[i] /= 8
	}
	m := f.maps(t)

	root := Keypoint{Score: 0.9, Position: Vec2{X: 4, Y: 6}, ID: int(RightShoulder)}
	first, err := m.DecodePose(root, 16)
	require.NoError(t, err)
	second, err := m.DecodePose(root, 16)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestWithinNMSRadius(t *testing.T) {
	var a, b Pose
	a[Nose] = Keypoint{Score: 0.9, Position: Vec2{X: 10, Y: 10}}
	b[Nose] = Keypoint{Score: 0.9, Position: Vec2{X: 100, Y: 100}}
	poses := []Pose{a, b}

	assert.True(t, WithinNMSRadius(poses, 25, Vec2{X: 13, Y: 14}, int(Nose)), "distance 5 is within radius 5")
	assert.False(t, WithinNMSRadius(poses, 24.9, Vec2{X: 13, Y: 14}, int(Nose)))
	assert.True(t, WithinNMSRadius(poses, 1, Vec2{X: 100, Y: 100}, int(Nose)))
	assert.False(t, WithinNMSRadius(nil, 1e9, Vec2{}, int(Nose)))
	assert.True(t, WithinNMSRadius(poses, 0, Vec2{X: 10, Y: 10}, int(Nose)), "exact coincidence is rejected at radius 0")
}

func TestDecodeMultiplePosesSuppression(t *testing.T) {
	// Two nose peaks at pixels (16, 16) and (40, 16): 24 pixels apart.
	f := newFixture(6, 8).
		heat(2, 2, Nose, 0.9).
		heat(2, 5, Nose, 0.8)

	tests := []struct {
		radius int
		want   int
	}{
		{radius: 0, want: 2},
		{radius: 20, want: 2},
		{radius: 23, want: 2},
		{radius: 24, want: 1},
		{radius: 30, want: 1},
	}

	for _, tt := range tests {
		poses, err := DecodeMultiplePoses(f.outputs(), 8, MultiPoseParams{
			MaxPoseDetections: 10,
			ScoreThreshold:    0.5,
			NMSRadius:         tt.radius,
		})
		require.NoError(t, err)
		require.Len(t, poses, tt.want, "radius %d", tt.radius)
		assert.Equal(t, Vec2{X: 16, Y: 16}, poses[0][Nose].Position)
		assert.Equal(t, float32(0.9), poses[0][Nose].Score)
		if tt.want == 2 {
			assert.Equal(t, Vec2{X: 40, Y: 16}, poses[1][Nose].Position)
		}
	}
}

func TestDecodeMultiplePosesSuppressesPartOfAcceptedPose(t *testing.T) {
	const stride = 8
	eyeEdge := edgeID(t, Nose, LeftEye)

	// The eye is the strongest root; its pose reaches the nose peak through the backward field,
	// so the nose candidate is suppressed.
	f := newFixture(6, 6).
		heat(2, 3, LeftEye, 0.95).
		heat(2, 2, Nose, 0.9).
		displace(Backward, 2, 3, eyeEdge, Vec2{X: -stride})

	poses, err := DecodeMultiplePoses(f.outputs(), stride, MultiPoseParams{
		MaxPoseDetections: 5,
		ScoreThreshold:    0.5,
		NMSRadius:         4,
	})
	require.NoError(t, err)
	require.Len(t, poses, 1)
	assert.Equal(t, float32(0.95), poses[0][LeftEye].Score)
	assert.Equal(t, float32(0.9), poses[0][Nose].Score)
}

func TestDecodeMultiplePosesLimits(t *testing.T) {
	f := newFixture(9, 9)
	// Four isolated wrist peaks.
	for i, cell := range [][2]int{{0, 0}, {0, 8}, {8, 0}, {8, 8}} {
		f.heat(cell[0], cell[1], LeftWrist, 0.9-float32(i)*0.1)
	}

	params := MultiPoseParams{MaxPoseDetections: 2, ScoreThreshold: 0.5, NMSRadius: 1}
	poses, err := DecodeMultiplePoses(f.outputs(), 8, params)
	require.NoError(t, err)
	require.Len(t, poses, 2)
	assert.Equal(t, float32(0.9), poses[0][LeftWrist].Score)
	assert.InDelta(t, 0.8, poses[1][LeftWrist].Score, 1e-6)

	params.MaxPoseDetections = 50
	poses, err = DecodeMultiplePoses(f.outputs(), 8, params)
	require.NoError(t, err)
	assert.Len(t, poses, 4, "never more poses than candidates")

	params.MaxPoseDetections = 0
	poses, err = DecodeMultiplePoses(f.outputs(), 8, params)
	require.NoError(t, err)
	assert.Empty(t, poses)

	params.MaxPoseDetections = 5
	params.ScoreThreshold = 0.95
	poses, err = DecodeMultiplePoses(f.outputs(), 8, params)
	require.NoError(t, err)
	assert.Empty(t, poses)
}

func TestDecodeMultiplePosesRejectsBadParams(t *testing.T) {
	f := newFixture(3, 3)

	_, err := DecodeMultiplePoses(f.outputs(), 8, MultiPoseParams{MaxPoseDetections: -1})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = DecodeMultiplePoses(f.outputs(), 8, MultiPoseParams{MaxPoseDetections: 1, NMSRadius: -1})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

func TestDecodeMultiplePosesSingleCellGrid(t *testing.T) {
	heat := make([]float32, NumParts)
	for i := range heat {
		heat[i] = 0.1
	}
	heat[RightKnee] = 0.9

	out := Outputs{
		Heatmaps:         tensor.New(tensor.WithShape(1, 1, 1, NumParts), tensor.WithBacking(heat)),
		Offsets:          tensor.New(tensor.WithShape(1, 1, 1, 2*NumParts), tensor.WithBacking(make([]float32, 2*NumParts))),
		DisplacementsFwd: tensor.New(tensor.WithShape(1, 1, 1, 2*NumEdges), tensor.WithBacking(make([]float32, 2*NumEdges))),
		DisplacementsBwd: tensor.New(tensor.WithShape(1, 1, 1, 2*NumEdges), tensor.WithBacking(make([]float32, 2*NumEdges))),
	}

	m, err := NewMaps(out)
	require.NoError(t, err)
	candidates := m.BuildPartList(0.5, LocalMaximumRadius)
	require.Equal(t, []Keypoint{{Score: 0.9, Position: Vec2{}, ID: int(RightKnee)}}, candidates)

	poses, err := DecodeMultiplePoses(out, 8, MultiPoseParams{MaxPoseDetections: 3, ScoreThreshold: 0.5, NMSRadius: 20})
	require.NoError(t, err)
	require.Len(t, poses, 1)

	p := poses[0]
	assert.Equal(t, Keypoint{Score: 0.9, Position: Vec2{}, ID: int(RightKnee)}, p[RightKnee])
	// Every other part lands on the only cell and takes its score there.
	for id, kp := range p {
		if id == int(RightKnee) {
			continue
		}
		assert.Equal(t, Keypoint{Score: 0.1, Position: Vec2{}, ID: id}, kp)
	}
}

func BenchmarkDecodeMultiplePoses(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	f := newFixture(33, 33)
	for i := range f.heatmaps {
		f.heatmaps[i] = rng.Float32()
	}
	for _, field := range [][]float32{f.offsets, f.fwd, f.bwd} {
		for i := range field {
			field[i] = (rng.Float32() - 0.5) * 32
		}
	}
	m := f.maps(b)
	params := DefaultMultiPoseParams()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := m.DecodeMultiplePoses(16, params); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkDecodeSinglePose(b *testing.B) {
	rng := rand.New(rand.NewSource(1))
	f := newFixture(33, 33)
	for i := range f.heatmaps {
		f.heatmaps[i] = rng.Float32()
	}
	m := f.maps(b)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = m.DecodeSinglePose(16)
	}
}
