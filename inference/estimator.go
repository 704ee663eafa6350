package inference

import (
	"context"
	"image"
	"sync"
	"time"

	"github.com/nvr-ai/go-posenet/images"
	"github.com/nvr-ai/go-posenet/models/model"
	"github.com/nvr-ai/go-posenet/pose"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Options controls how frames are sized, decoded and projected.
type Options struct {
	// InputHeight is the model input height. The width follows each frame's aspect ratio.
	InputHeight int `json:"inputHeight" yaml:"inputHeight"`
	// InputWidth fixes the model input width when positive.
	InputWidth int `json:"inputWidth" yaml:"inputWidth"`
	// Decode selects single or multi-pose decoding and its parameters.
	Decode model.DecodeConfig `json:"decode" yaml:"decode"`
	// Mirror flips keypoints horizontally when projecting to the frame.
	Mirror bool `json:"mirror" yaml:"mirror"`
	// FlipVertical flips keypoints vertically when projecting to the frame.
	FlipVertical bool `json:"flipVertical" yaml:"flipVertical"`
	// MinConfidence is the visibility threshold in percent.
	MinConfidence int `json:"minConfidence" yaml:"minConfidence"`
}

// DefaultOptions returns multi-pose decoding on a 256 pixel high input.
func DefaultOptions() Options {
	params := pose.DefaultMultiPoseParams()
	return Options{
		InputHeight: 256,
		Decode: model.DecodeConfig{
			Estimation:     model.EstimationMultiple,
			MaxPoses:       params.MaxPoseDetections,
			ScoreThreshold: params.ScoreThreshold,
			NMSRadius:      params.NMSRadius,
		},
		MinConfidence: 70,
	}
}

// Result is the outcome of one estimation.
type Result struct {
	// Poses are in model input coordinates.
	Poses []pose.Pose `json:"poses"`
	// Projected are the poses mapped onto the source frame.
	Projected []pose.ProjectedPose `json:"projected"`
	// Stride is the grid to pixel scale used for decoding.
	Stride int `json:"stride"`
	// InputWidth and InputHeight are the model input size used for the frame.
	InputWidth  int `json:"inputWidth"`
	InputHeight int `json:"inputHeight"`
	// Elapsed is the wall time spent on the frame.
	Elapsed time.Duration `json:"elapsed"`
}

// Estimator turns frames into poses with a model and a runner. It is safe for concurrent use; runs
// on the shared runner are serialized.
type Estimator struct {
	model  model.Model
	runner Runner
	opts   Options
	logger *zap.Logger
	mu     sync.Mutex
}

// NewEstimator creates an estimator.
//
// Arguments:
//   - m: The model used for pre and post processing.
//   - runner: The runner executing the model graph.
//   - opts: Sizing, decoding and projection options.
//   - logger: The logger. nil disables logging.
//
// Returns:
//   - *Estimator: The estimator.
//   - error: An error if the options are out of range.
func NewEstimator(m model.Model, runner Runner, opts Options, logger *zap.Logger) (*Estimator, error) {
	if m == nil || runner == nil {
		return nil, errors.New("estimator requires a model and a runner")
	}
	if opts.InputHeight < images.MinInputDim {
		return nil, errors.Errorf("input height %d is below %d", opts.InputHeight, images.MinInputDim)
	}
	if opts.InputWidth != 0 && opts.InputWidth < images.MinInputDim {
		return nil, errors.Errorf("input width %d is below %d", opts.InputWidth, images.MinInputDim)
	}
	if err := opts.Decode.MultiPoseParams().Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Estimator{model: m, runner: runner, opts: opts, logger: logger}, nil
}

// Estimate detects the poses in a frame.
//
// Arguments:
//   - ctx: Cancels the estimation before inference or decoding starts.
//   - frame: The decoded frame.
//
// Returns:
//   - *Result: The decoded and projected poses.
//   - error: An error if the context is done or any stage fails.
func (e *Estimator) Estimate(ctx context.Context, frame image.Image) (*Result, error) {
	start := time.Now()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if frame == nil {
		return nil, errors.New("frame is nil")
	}

	bounds := frame.Bounds()
	width, height := images.InputSize(bounds.Dx(), bounds.Dy(), e.opts.InputHeight)
	if e.opts.InputWidth > 0 {
		width = e.opts.InputWidth
	}

	input, err := e.model.PreProcess(frame, width, height)
	if err != nil {
		return nil, errors.Wrap(err, "preprocess")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.mu.Lock()
	outputs, err := e.runner.Run(input.Tensor)
	e.mu.Unlock()
	if err != nil {
		return nil, errors.Wrap(err, "inference")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	decoded, err := e.model.PostProcess(outputs, height, e.opts.Decode)
	if err != nil {
		return nil, errors.Wrap(err, "decode")
	}

	projected := pose.Project(decoded.Poses, pose.ProjectionParams{
		SourceWidth:   bounds.Dx(),
		SourceHeight:  bounds.Dy(),
		InputWidth:    width,
		InputHeight:   height,
		FlipVertical:  e.opts.FlipVertical,
		Mirror:        e.opts.Mirror,
		MinConfidence: e.opts.MinConfidence,
	})

	result := &Result{
		Poses:       decoded.Poses,
		Projected:   projected,
		Stride:      decoded.Stride,
		InputWidth:  width,
		InputHeight: height,
		Elapsed:     time.Since(start),
	}

	e.logger.Debug("estimated poses",
		zap.Int("poses", len(result.Poses)),
		zap.Int("stride", result.Stride),
		zap.Int("input_width", width),
		zap.Int("input_height", height),
		zap.Duration("elapsed", result.Elapsed))

	return result, nil
}

// Close releases the runner.
func (e *Estimator) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.runner.Close()
}
