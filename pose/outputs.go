package pose

import (
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

var (
	// ErrInvalidOutputs is returned when the model outputs do not share the expected layout.
	ErrInvalidOutputs = errors.New("invalid pose model outputs")
	// ErrInvalidStride is returned for a stride that cannot map grid cells to pixels.
	ErrInvalidStride = errors.New("invalid output stride")
	// ErrInvalidParams is returned for out of range decoding parameters.
	ErrInvalidParams = errors.New("invalid decoding parameters")
)

// Outputs holds the four PoseNet output arrays, each laid out as [1, height, width, channels].
//
//   - Heatmaps: NumParts channels of part confidence.
//   - Offsets: 2*NumParts channels, Y offsets first then X offsets.
//   - DisplacementsFwd, DisplacementsBwd: 2*NumEdges channels, Y first then X. Only multi-pose
//     decoding reads them.
//
// The arrays are only read.
type Outputs struct {
	Heatmaps         *tensor.Dense
	Offsets          *tensor.Dense
	DisplacementsFwd *tensor.Dense
	DisplacementsBwd *tensor.Dense
}

// grid is a row-major float32 view over one [1, h, w, c] output.
type grid struct {
	data     []float32
	height   int
	width    int
	channels int
}

func (g *grid) at(y, x, c int) float32 {
	return g.data[(y*g.width+x)*g.channels+c]
}

// Maps is a validated set of outputs ready for decoding. Building one checks every shape once;
// the decoding primitives on it index the arrays without further checks.
type Maps struct {
	heatmaps grid
	offsets  grid
	fwd      *grid
	bwd      *grid
}

// NewMaps validates the outputs and returns a decodable view over them.
//
// Arguments:
//   - out: The model outputs. Displacements may be nil when only single-pose decoding is used.
//
// Returns:
//   - *Maps: The decodable view.
//   - error: ErrInvalidOutputs when any array is missing, not float32, or disagrees on shape.
func NewMaps(out Outputs) (*Maps, error) {
	heatmaps, err := newGrid("heatmaps", out.Heatmaps, NumParts)
	if err != nil {
		return nil, err
	}
	offsets, err := newGrid("offsets", out.Offsets, 2*NumParts)
	if err != nil {
		return nil, err
	}
	if err := sameGrid("offsets", heatmaps, offsets); err != nil {
		return nil, err
	}

	m := &Maps{heatmaps: *heatmaps, offsets: *offsets}

	if (out.DisplacementsFwd == nil) != (out.DisplacementsBwd == nil) {
		return nil, errors.Wrap(ErrInvalidOutputs, "forward and backward displacements must be given together")
	}
	if out.DisplacementsFwd != nil {
		if m.fwd, err = newGrid("displacements_fwd", out.DisplacementsFwd, 2*NumEdges); err != nil {
			return nil, err
		}
		if err := sameGrid("displacements_fwd", heatmaps, m.fwd); err != nil {
			return nil, err
		}
		if m.bwd, err = newGrid("displacements_bwd", out.DisplacementsBwd, 2*NumEdges); err != nil {
			return nil, err
		}
		if err := sameGrid("displacements_bwd", heatmaps, m.bwd); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// Height returns the number of grid rows.
func (m *Maps) Height() int { return m.heatmaps.height }

// Width returns the number of grid columns.
func (m *Maps) Width() int { return m.heatmaps.width }

// HasDisplacements reports whether multi-pose decoding is possible.
func (m *Maps) HasDisplacements() bool { return m.fwd != nil && m.bwd != nil }

// Score returns the heatmap value of partID at grid cell (y, x).
func (m *Maps) Score(partID, y, x int) float32 {
	return m.heatmaps.at(y, x, partID)
}

func newGrid(name string, t *tensor.Dense, channels int) (*grid, error) {
	if t == nil {
		return nil, errors.Wrapf(ErrInvalidOutputs, "%s is missing", name)
	}
	if t.Dtype() != tensor.Float32 {
		return nil, errors.Wrapf(ErrInvalidOutputs, "%s has dtype %v, want float32", name, t.Dtype())
	}

	shape := t.Shape()
	if len(shape) != 4 {
		return nil, errors.Wrapf(ErrInvalidOutputs, "%s has shape %v, want [1 h w c]", name, shape)
	}
	if shape[0] != 1 {
		return nil, errors.Wrapf(ErrInvalidOutputs, "%s has batch %d, want 1", name, shape[0])
	}
	if shape[1] < 1 || shape[2] < 1 {
		return nil, errors.Wrapf(ErrInvalidOutputs, "%s has empty grid %dx%d", name, shape[2], shape[1])
	}
	if shape[3] != channels {
		return nil, errors.Wrapf(ErrInvalidOutputs, "%s has %d channels, want %d", name, shape[3], channels)
	}

	if t.IsMaterializable() {
		t = t.Materialize().(*tensor.Dense)
	}

	var data []float32
	switch d := t.Data().(type) {
	case []float32:
		data = d
	case float32:
		data = []float32{d}
	default:
		return nil, errors.Wrapf(ErrInvalidOutputs, "%s has unexpected backing %T", name, d)
	}
	if len(data) != shape[1]*shape[2]*shape[3] {
		return nil, errors.Wrapf(ErrInvalidOutputs, "%s holds %d values, want %d", name, len(data), shape[1]*shape[2]*shape[3])
	}

	return &grid{data: data, height: shape[1], width: shape[2], channels: shape[3]}, nil
}

func sameGrid(name string, want, got *grid) error {
	if want.height != got.height || want.width != got.width {
		return errors.Wrapf(ErrInvalidOutputs, "%s grid %dx%d does not match heatmaps %dx%d",
			name, got.width, got.height, want.width, want.height)
	}
	return nil
}
