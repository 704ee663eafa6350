package pose

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorgonia.org/tensor"
)

// fixture builds PoseNet style outputs cell by cell.
type fixture struct {
	height, width int
	heatmaps      []float32
	offsets       []float32
	fwd           []float32
	bwd           []float32
}

func newFixture(height, width int) *fixture {
	cells := height * width
	return &fixture{
		height:   height,
		width:    width,
		heatmaps: make([]float32, cells*NumParts),
		offsets:  make([]float32, cells*2*NumParts),
		fwd:      make([]float32, cells*2*NumEdges),
		bwd:      make([]float32, cells*2*NumEdges),
	}
}

func (f *fixture) heat(y, x int, part Part, score float32) *fixture {
	f.heatmaps[(y*f.width+x)*NumParts+int(part)] = score
	return f
}

func (f *fixture) fill(score float32) *fixture {
	for i := range f.heatmaps {
		f.heatmaps[i] = score
	}
	return f
}

func (f *fixture) offset(y, x int, part Part, off Vec2) *fixture {
	base := (y*f.width + x) * 2 * NumParts
	f.offsets[base+int(part)] = off.Y
	f.offsets[base+NumParts+int(part)] = off.X
	return f
}

func (f *fixture) displace(dir Direction, y, x, edge int, d Vec2) *fixture {
	field := f.bwd
	if dir == Forward {
		field = f.fwd
	}
	base := (y*f.width + x) * 2 * NumEdges
	field[base+edge] = d.Y
	field[base+NumEdges+edge] = d.X
	return f
}

func (f *fixture) dense(backing []float32, channels int) *tensor.Dense {
	return tensor.New(tensor.WithShape(1, f.height, f.width, channels), tensor.WithBacking(backing))
}

func (f *fixture) outputs() Outputs {
	return Outputs{
		Heatmaps:         f.dense(f.heatmaps, NumParts),
		Offsets:          f.dense(f.offsets, 2*NumParts),
		DisplacementsFwd: f.dense(f.fwd, 2*NumEdges),
		DisplacementsBwd: f.dense(f.bwd, 2*NumEdges),
	}
}

func (f *fixture) maps(t testing.TB) *Maps {
	t.Helper()
	m, err := NewMaps(f.outputs())
	require.NoError(t, err)
	return m
}

func edgeID(t testing.TB, parent, child Part) int {
	t.Helper()
	for i, e := range ParentChildEdges {
		if e.Parent == parent && e.Child == child {
			return i
		}
	}
	t.Fatalf("no edge %s -> %s", parent, child)
	return -1
}
