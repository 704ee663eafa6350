// Package inference - Pose estimation over ONNX Runtime sessions.
package inference

import (
	"fmt"
	"sync"
	"time"

	"github.com/nvr-ai/go-posenet/inference/providers"
	"github.com/nvr-ai/go-posenet/models/model"
	ort "github.com/yalue/onnxruntime_go"
	"gorgonia.org/tensor"
)

// Runner executes a model on one input tensor and returns its outputs in session order.
type Runner interface {
	Run(input *tensor.Dense) ([]*tensor.Dense, error)
	Close() error
}

// Session runs a PoseNet graph with one input and the four decoder outputs. Output tensors are
// allocated by the runtime per run, so the input size may change between frames.
type Session struct {
	session     *ort.DynamicAdvancedSession
	inputNames  []string
	outputNames []string

	mu             sync.Mutex
	inferenceCount int64
	totalTime      time.Duration
}

// NewSession creates a new ONNX Runtime session for a pose model.
//
// Input and output names default to the ones declared by the model file.
//
// Arguments:
//   - opts: The model options carrying the path and optional tensor names.
//   - cfg: The execution provider configuration.
//
// Returns:
//   - *Session: The session.
//   - error: An error if the runtime or the model cannot be loaded.
func NewSession(opts model.BaseModel, cfg providers.Config) (*Session, error) {
	if err := providers.InitializeEnvironment(cfg); err != nil {
		return nil, err
	}

	inputNames, outputNames := opts.InputNames, opts.OutputNames
	if len(inputNames) == 0 || len(outputNames) == 0 {
		inputs, outputs, err := ort.GetInputOutputInfo(opts.Path)
		if err != nil {
			return nil, fmt.Errorf("error reading model inputs and outputs: %w", err)
		}
		if len(inputNames) == 0 {
			inputNames = tensorNames(inputs)
		}
		if len(outputNames) == 0 {
			outputNames = tensorNames(outputs)
		}
	}
	if len(inputNames) != 1 {
		return nil, fmt.Errorf("model must have one input, got %d", len(inputNames))
	}
	if len(outputNames) < opts.Layout.Count() {
		return nil, fmt.Errorf("model must have at least %d outputs, got %d", opts.Layout.Count(), len(outputNames))
	}

	options, err := providers.NewSessionOptions(cfg)
	if err != nil {
		return nil, err
	}
	defer options.Destroy()

	session, err := ort.NewDynamicAdvancedSession(opts.Path, inputNames, outputNames, options)
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session: %w", err)
	}

	return &Session{
		session:     session,
		inputNames:  inputNames,
		outputNames: outputNames,
	}, nil
}

// Run executes the model on input.
//
// Arguments:
//   - input: The float32 input tensor.
//
// Returns:
//   - []*tensor.Dense: Copies of the outputs in session order.
//   - error: An error if the input is not float32 or the run fails.
func (s *Session) Run(input *tensor.Dense) ([]*tensor.Dense, error) {
	data, ok := input.Data().([]float32)
	if !ok {
		return nil, fmt.Errorf("input must be float32, got %v", input.Dtype())
	}

	in, err := ort.NewTensor(toShape(input.Shape()), data)
	if err != nil {
		return nil, fmt.Errorf("error creating input tensor: %w", err)
	}
	defer in.Destroy()

	s.mu.Lock()
	defer s.mu.Unlock()

	outputs := make([]ort.Value, len(s.outputNames))
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	start := time.Now()
	if err := s.session.Run([]ort.Value{in}, outputs); err != nil {
		return nil, fmt.Errorf("error running ORT session: %w", err)
	}
	s.inferenceCount++
	s.totalTime += time.Since(start)

	result := make([]*tensor.Dense, len(outputs))
	for i, o := range outputs {
		t, ok := o.(*ort.Tensor[float32])
		if !ok {
			return nil, fmt.Errorf("output %s is %T, want float32 tensor", s.outputNames[i], o)
		}
		result[i] = toDense(t.GetShape(), t.GetData())
	}
	return result, nil
}

// Stats returns the number of completed runs and their mean duration.
func (s *Session) Stats() (count int64, mean time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.inferenceCount == 0 {
		return 0, 0
	}
	return s.inferenceCount, s.totalTime / time.Duration(s.inferenceCount)
}

// Close releases the resources associated with the Session.
func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.session == nil {
		return nil
	}
	err := s.session.Destroy()
	s.session = nil
	if err != nil {
		return fmt.Errorf("error destroying ORT session: %w", err)
	}
	return nil
}

func tensorNames(infos []ort.InputOutputInfo) []string {
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

func toShape(shape tensor.Shape) ort.Shape {
	out := make(ort.Shape, len(shape))
	for i, d := range shape {
		out[i] = int64(d)
	}
	return out
}

// toDense copies runtime-owned data into a tensor the caller may keep after the run.
func toDense(shape ort.Shape, data []float32) *tensor.Dense {
	dims := make([]int, len(shape))
	for i, d := range shape {
		dims[i] = int(d)
	}
	backing := make([]float32, len(data))
	copy(backing, data)
	return tensor.New(tensor.WithShape(dims...), tensor.WithBacking(backing))
}
