package posenet

import (
	"github.com/pkg/errors"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Sigmoid applies the logistic function element-wise and returns a new tensor of the same shape.
// The input is left untouched.
func Sigmoid(t *tensor.Dense) (*tensor.Dense, error) {
	if t == nil {
		return nil, errors.New("sigmoid input is nil")
	}
	if t.Dtype() != tensor.Float32 {
		return nil, errors.Errorf("sigmoid input must be float32, got %v", t.Dtype())
	}

	g := G.NewGraph()
	x := G.NewTensor(g, tensor.Float32, t.Dims(),
		G.WithShape(t.Shape().Clone()...), G.WithName("heatmaps"), G.WithValue(t.Clone()))

	y, err := G.Sigmoid(x)
	if err != nil {
		return nil, errors.Wrap(err, "sigmoid node")
	}

	tm := G.NewTapeMachine(g)
	defer tm.Close()

	if err := tm.RunAll(); err != nil {
		return nil, errors.Wrap(err, "sigmoid graph")
	}

	out, ok := y.Value().(*tensor.Dense)
	if !ok {
		return nil, errors.Errorf("sigmoid produced %T", y.Value())
	}
	return out, nil
}
