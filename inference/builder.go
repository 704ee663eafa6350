package inference

import (
	"errors"

	"github.com/nvr-ai/go-posenet/inference/providers"
	"github.com/nvr-ai/go-posenet/models"
	"github.com/nvr-ai/go-posenet/models/model"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// openFunc opens the runner for a model when the builder was not given one.
type openFunc func(opts model.BaseModel, cfg providers.Config) (Runner, error)

func openSession(opts model.BaseModel, cfg providers.Config) (Runner, error) {
	session, err := NewSession(opts, cfg)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// EstimatorBuilder assembles an Estimator with a fluent API.
type EstimatorBuilder struct {
	provider *providers.Config
	model    model.Model
	runner   Runner
	opts     Options
	logger   *zap.Logger
	open     openFunc
	err      error
}

// NewEstimatorBuilder creates a new estimator builder with default options.
//
// Returns:
//   - *EstimatorBuilder: The estimator builder.
func NewEstimatorBuilder() *EstimatorBuilder {
	return &EstimatorBuilder{opts: DefaultOptions(), open: openSession}
}

// WithProvider sets the execution provider used when the builder opens the ONNX session.
//
// Arguments:
//   - cfg: The provider configuration.
//
// Returns:
//   - *EstimatorBuilder: The estimator builder.
func (b *EstimatorBuilder) WithProvider(cfg providers.Config) *EstimatorBuilder {
	if b.HasError() {
		return b
	}
	cfg, err := cfg.Normalize()
	if err != nil {
		b.err = err
		return b
	}
	b.provider = &cfg
	return b
}

// WithModel sets the model for the estimator.
//
// Arguments:
//   - args: The model arguments.
//
// Returns:
//   - *EstimatorBuilder: The estimator builder.
func (b *EstimatorBuilder) WithModel(args model.NewModelArgs) *EstimatorBuilder {
	if b.HasError() {
		return b
	}
	m, err := models.NewModel(args)
	if err != nil {
		b.err = err
		return b
	}
	b.model = m
	return b
}

// WithRunner sets the runner directly instead of opening an ONNX session.
//
// Arguments:
//   - runner: The runner.
//
// Returns:
//   - *EstimatorBuilder: The estimator builder.
func (b *EstimatorBuilder) WithRunner(runner Runner) *EstimatorBuilder {
	b.runner = runner
	return b
}

// WithOptions sets sizing, decoding and projection options.
func (b *EstimatorBuilder) WithOptions(opts Options) *EstimatorBuilder {
	b.opts = opts
	return b
}

// WithLogger sets the logger.
func (b *EstimatorBuilder) WithLogger(logger *zap.Logger) *EstimatorBuilder {
	b.logger = logger
	return b
}

// HasError checks if the estimator builder has errors.
//
// Returns:
//   - bool: True if there are errors, false otherwise.
func (b *EstimatorBuilder) HasError() bool {
	return b.err != nil
}

// MustBuild builds the estimator and panics if there is an error.
func (b *EstimatorBuilder) MustBuild() *Estimator {
	e, err := b.Build()
	if err != nil {
		panic(err)
	}
	return e
}

// Build builds the estimator, opening an ONNX session when no runner was given.
//
// Returns:
//   - *Estimator: The estimator.
//   - error: The error if any.
func (b *EstimatorBuilder) Build() (*Estimator, error) {
	if b.HasError() {
		return nil, b.err
	}
	if b.model == nil {
		return nil, errors.New("model not configured")
	}

	runner := b.runner
	if runner == nil {
		if b.provider == nil {
			return nil, errors.New("provider not configured")
		}
		opened, err := b.open(b.model.Options(), *b.provider)
		if err != nil {
			return nil, err
		}
		runner = opened
	}

	e, err := NewEstimator(b.model, runner, b.opts, b.logger)
	if err != nil {
		if b.runner == nil {
			err = multierr.Append(err, runner.Close())
		}
		return nil, err
	}
	return e, nil
}
