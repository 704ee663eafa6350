// Package preprocess - Converts frames into PoseNet input tensors.
package preprocess

import (
	"fmt"
	"image"

	"github.com/nfnt/resize"
	"github.com/nvr-ai/go-posenet/images"
	"github.com/pkg/errors"
	"gorgonia.org/tensor"
)

// ModelConfig defines preprocessing configuration for a specific model.
type ModelConfig struct {
	// Name of the model for debugging purposes.
	Name string
	// InputWidth is the expected width of the model input.
	InputWidth int
	// InputHeight is the expected height of the model input.
	InputHeight int
	// InputChannels is the number of channels. PoseNet backbones take 3 (RGB).
	InputChannels int
	// NormalizationType defines how to normalize pixel values.
	NormalizationType NormalizationType
	// MeanValues for standardization (if NormalizationType is Standardize).
	MeanValues []float32
	// StdValues for standardization (if NormalizationType is Standardize).
	StdValues []float32
	// Interpolation is the resampling function used when resizing.
	Interpolation resize.InterpolationFunction
}

// NormalizationType defines how pixel values are normalized.
type NormalizationType int

const (
	// NormalizeMinusOneToOne scales pixel values to [-1, 1].
	NormalizeMinusOneToOne NormalizationType = iota + 1
	// NormalizeStandardize applies per-channel (x - mean) / std on 0-255 values.
	NormalizeStandardize
)

// PreprocessingResult contains the preprocessed image data and metadata.
type PreprocessingResult struct {
	// Tensor is the [1, ...] input tensor backed by Data.
	Tensor *tensor.Dense
	// Data is the preprocessed float32 tensor data.
	Data []float32
	// OriginalWidth is the original image width before preprocessing.
	OriginalWidth int
	// OriginalHeight is the original image height before preprocessing.
	OriginalHeight int
	// ScaleX is the horizontal scaling factor applied.
	ScaleX float64
	// ScaleY is the vertical scaling factor applied.
	ScaleY float64
	// Shape contains the tensor shape [1, H, W, C].
	Shape []int
}

// Preprocessor resizes and normalizes frames for a PoseNet backbone.
type Preprocessor struct {
	config *ModelConfig
}

// NewPreprocessor creates a new preprocessor with the given configuration.
//
// Arguments:
// - config: The model-specific preprocessing configuration.
//
// Returns:
// - A configured Preprocessor instance.
// - error if the configuration is unusable.
//
// @example
//
//	preprocessor, err := NewPreprocessor(GetMobileNetConfig(455, 256))
func NewPreprocessor(config *ModelConfig) (*Preprocessor, error) {
	if config == nil {
		return nil, errors.New("preprocess config is nil")
	}
	if config.InputWidth <= 0 || config.InputHeight <= 0 {
		return nil, fmt.Errorf("invalid input dimensions: %dx%d", config.InputWidth, config.InputHeight)
	}
	if config.InputChannels != 3 {
		return nil, fmt.Errorf("unsupported channel count: %d", config.InputChannels)
	}
	switch config.NormalizationType {
	case NormalizeMinusOneToOne:
	case NormalizeStandardize:
		if len(config.MeanValues) != config.InputChannels || len(config.StdValues) != config.InputChannels {
			return nil, errors.New("standardization needs one mean and one std per channel")
		}
	default:
		return nil, fmt.Errorf("unsupported normalization type: %d", config.NormalizationType)
	}
	for _, std := range config.StdValues {
		if std == 0 {
			return nil, errors.New("standardization std must not be zero")
		}
	}
	return &Preprocessor{config: config}, nil
}

// Config returns the preprocessing configuration.
func (p *Preprocessor) Config() ModelConfig {
	return *p.config
}

// Preprocess resizes the frame to the model input and converts it into a normalized tensor.
//
// Arguments:
// - img: The decoded frame.
//
// Returns:
// - PreprocessingResult containing the preprocessed tensor and metadata.
// - error if preprocessing fails.
func (p *Preprocessor) Preprocess(img image.Image) (*PreprocessingResult, error) {
	if img == nil {
		return nil, errors.New("image is nil")
	}

	bounds := img.Bounds()
	originalWidth, originalHeight := bounds.Dx(), bounds.Dy()
	if originalWidth <= 0 || originalHeight <= 0 {
		return nil, fmt.Errorf("invalid image dimensions: %dx%d", originalWidth, originalHeight)
	}

	resized := img
	if originalWidth != p.config.InputWidth || originalHeight != p.config.InputHeight {
		resized = resize.Resize(uint(p.config.InputWidth), uint(p.config.InputHeight), img, p.config.Interpolation)
	}

	data := p.imageToTensor(resized)
	p.normalize(data)

	shape := []int{1, p.config.InputHeight, p.config.InputWidth, p.config.InputChannels}

	return &PreprocessingResult{
		Tensor:         tensor.New(tensor.WithShape(shape...), tensor.WithBacking(data)),
		Data:           data,
		OriginalWidth:  originalWidth,
		OriginalHeight: originalHeight,
		ScaleX:         float64(p.config.InputWidth) / float64(originalWidth),
		ScaleY:         float64(p.config.InputHeight) / float64(originalHeight),
		Shape:          shape,
	}, nil
}

// imageToTensor converts an image to HWC 0-255 float32 values, one goroutine partition per row
// band.
func (p *Preprocessor) imageToTensor(img image.Image) []float32 {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	data := make([]float32, width*height*p.config.InputChannels)

	images.Parallel(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				r, g, b, _ := img.At(bounds.Min.X+x, bounds.Min.Y+y).RGBA()
				i := (y*width + x) * 3
				data[i] = float32(r >> 8)
				data[i+1] = float32(g >> 8)
				data[i+2] = float32(b >> 8)
			}
		}
	})

	return data
}

// normalize applies normalization to the tensor in place.
func (p *Preprocessor) normalize(data []float32) {
	channels := p.config.InputChannels

	switch p.config.NormalizationType {
	case NormalizeMinusOneToOne:
		images.Parallel(len(data), func(start, end int) {
			for i := start; i < end; i++ {
				data[i] = 2*(data[i]/255.0) - 1
			}
		})
	case NormalizeStandardize:
		images.Parallel(len(data), func(start, end int) {
			for i := start; i < end; i++ {
				c := i % channels
				data[i] = (data[i] - p.config.MeanValues[c]) / p.config.StdValues[c]
			}
		})
	}
}

// GetMobileNetConfig returns the configuration for PoseNet MobileNet backbones, which take
// [-1, 1] inputs.
//
// Arguments:
// - width: The model input width.
// - height: The model input height.
//
// Returns:
// - A configured ModelConfig for MobileNet.
func GetMobileNetConfig(width, height int) *ModelConfig {
	return &ModelConfig{
		Name:              "mobilenet",
		InputWidth:        width,
		InputHeight:       height,
		InputChannels:     3,
		NormalizationType: NormalizeMinusOneToOne,
		Interpolation:     resize.Bilinear,
	}
}

// GetResNet50Config returns the configuration for PoseNet ResNet50 backbones, which take 0-255
// inputs with the per-channel ImageNet mean subtracted.
//
// Arguments:
// - width: The model input width.
// - height: The model input height.
//
// Returns:
// - A configured ModelConfig for ResNet50.
func GetResNet50Config(width, height int) *ModelConfig {
	return &ModelConfig{
		Name:              "resnet50",
		InputWidth:        width,
		InputHeight:       height,
		InputChannels:     3,
		NormalizationType: NormalizeStandardize,
		MeanValues:        []float32{123.15, 115.90, 103.06},
		StdValues:         []float32{1, 1, 1},
		Interpolation:     resize.Bilinear,
	}
}
