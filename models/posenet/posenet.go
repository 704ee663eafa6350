// Package posenet - PoseNet backbones: output layout, heatmap activation and keypoint decoding.
package posenet

import (
	"fmt"
	"image"

	"github.com/nvr-ai/go-posenet/models/model"
	"github.com/nvr-ai/go-posenet/models/model/preprocess"
	"github.com/nvr-ai/go-posenet/pose"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// Layout returns the session output order of a PoseNet backbone. Both backbones emit heatmaps and
// offsets first; they disagree on the order of the displacement fields.
//
// Arguments:
//   - name: The backbone.
//
// Returns:
//   - model.OutputLayout: The output indices.
//   - error: An error if the backbone is unknown.
func Layout(name model.Name) (model.OutputLayout, error) {
	switch name {
	case model.ModelNameMobileNet:
		return model.OutputLayout{Heatmaps: 0, Offsets: 1, DisplacementsFwd: 2, DisplacementsBwd: 3}, nil
	case model.ModelNameResNet50:
		return model.OutputLayout{Heatmaps: 0, Offsets: 1, DisplacementsFwd: 3, DisplacementsBwd: 2}, nil
	}
	return model.OutputLayout{}, fmt.Errorf("unsupported PoseNet backbone: %q", name)
}

// PoseNet is the instance of a PoseNet model.
type PoseNet struct {
	options model.BaseModel
	// rawHeatmaps is set when the graph emits heatmap logits that still need a sigmoid.
	rawHeatmaps bool
}

// NewModel creates a new PoseNet model.
//
// Arguments:
//   - args: The arguments for creating a new model.
//
// Returns:
//   - The model.
//   - An error if the backbone is unknown or the output names do not fit its layout.
func NewModel(args model.NewModelArgs) (*PoseNet, error) {
	layout, err := Layout(args.Name)
	if err != nil {
		return nil, err
	}
	if args.Path == "" {
		return nil, errors.New("NewModel requires path to be set")
	}
	if len(args.OutputNames) != 0 && len(args.OutputNames) != layout.Count() {
		return nil, fmt.Errorf("NewModel requires %d outputs, got %d", layout.Count(), len(args.OutputNames))
	}
	if len(args.InputNames) > 1 {
		return nil, fmt.Errorf("NewModel requires a single input, got %d", len(args.InputNames))
	}

	return &PoseNet{
		options: model.BaseModel{
			Name:        args.Name,
			Family:      model.ModelFamilyPoseNet,
			Path:        args.Path,
			InputNames:  args.InputNames,
			OutputNames: args.OutputNames,
			Layout:      layout,
		},
		rawHeatmaps: !args.ActivatedHeatmaps,
	}, nil
}

// Options returns the options for the PoseNet model.
func (m *PoseNet) Options() model.BaseModel {
	return m.options
}

// PreProcess resizes and normalizes a frame the way the backbone was trained.
//
// Arguments:
//   - img: The decoded frame.
//   - width, height: The model input size.
//
// Returns:
//   - The preprocessed input tensor.
//   - An error if preprocessing fails.
func (m *PoseNet) PreProcess(img image.Image, width, height int) (*preprocess.PreprocessingResult, error) {
	var config *preprocess.ModelConfig
	switch m.options.Name {
	case model.ModelNameResNet50:
		config = preprocess.GetResNet50Config(width, height)
	default:
		config = preprocess.GetMobileNetConfig(width, height)
	}

	p, err := preprocess.NewPreprocessor(config)
	if err != nil {
		return nil, errors.Wrap(err, "posenet preprocessor")
	}
	return p.Preprocess(img)
}

// Outputs arranges raw session outputs into decoder inputs, applying the heatmap sigmoid.
//
// Arguments:
//   - raw: The session outputs in session order.
//
// Returns:
//   - pose.Outputs: The four arrays.
//   - error: An error if outputs are missing or the activation fails.
func (m *PoseNet) Outputs(raw []*tensor.Dense) (pose.Outputs, error) {
	layout := m.options.Layout
	if len(raw) < layout.Count() {
		return pose.Outputs{}, errors.Wrapf(pose.ErrInvalidOutputs, "expected %d outputs, got %d", layout.Count(), len(raw))
	}

	for i, t := range raw[:layout.Count()] {
		if t == nil {
			return pose.Outputs{}, errors.Wrapf(pose.ErrInvalidOutputs, "output %d is nil", i)
		}
	}

	heatmaps := raw[layout.Heatmaps]
	if m.rawHeatmaps {
		activated, err := Sigmoid(heatmaps)
		if err != nil {
			return pose.Outputs{}, errors.Wrap(err, "heatmap activation")
		}
		heatmaps = activated
	}

	return pose.Outputs{
		Heatmaps:         heatmaps,
		Offsets:          raw[layout.Offsets],
		DisplacementsFwd: raw[layout.DisplacementsFwd],
		DisplacementsBwd: raw[layout.DisplacementsBwd],
	}, nil
}

// PostProcess decodes poses from raw session outputs.
//
// Arguments:
//   - raw: The session outputs in session order.
//   - inputHeight: The height of the model input the outputs were computed from.
//   - config: The decoding configuration.
//
// Returns:
//   - The decoded poses with the stride used, in model input coordinates.
//   - An error if the outputs or the configuration are invalid.
func (m *PoseNet) PostProcess(raw []*tensor.Dense, inputHeight int, config model.DecodeConfig) (*model.Decoded, error) {
	out, err := m.Outputs(raw)
	if err != nil {
		return nil, err
	}

	if out.Heatmaps.Dims() != 4 {
		return nil, errors.Wrapf(pose.ErrInvalidOutputs, "heatmaps rank %d", out.Heatmaps.Dims())
	}

	stride, err := pose.ComputeStride(inputHeight, out.Heatmaps.Shape()[1])
	if err != nil {
		return nil, err
	}

	if config.Estimation == model.EstimationSingle {
		p, err := pose.DecodeSinglePose(out, stride)
		if err != nil {
			return nil, err
		}
		return &model.Decoded{Poses: []pose.Pose{p}, Stride: stride}, nil
	}

	poses, err := pose.DecodeMultiplePoses(out, stride, config.MultiPoseParams())
	if err != nil {
		return nil, err
	}
	return &model.Decoded{Poses: poses, Stride: stride}, nil
}
