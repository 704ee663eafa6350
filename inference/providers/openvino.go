package providers

import (
	"fmt"
	"strconv"
)

// Precision represents the inference precision requested from OpenVINO.
//
// See:
// https://onnxruntime.ai/docs/execution-providers/OpenVINO-ExecutionProvider.html#summary-of-options
type Precision string

const (
	// PrecisionAccuracy executes with the model's default input precision.
	PrecisionAccuracy Precision = "ACCURACY"
	// PrecisionFP32 represents 32-bit floating point precision.
	PrecisionFP32 Precision = "FP32"
	// PrecisionFP16 represents 16-bit floating point precision.
	PrecisionFP16 Precision = "FP16"
)

// Validate reports whether the precision is one OpenVINO accepts. Empty means the device default.
func (p Precision) Validate() error {
	switch p {
	case "", PrecisionAccuracy, PrecisionFP32, PrecisionFP16:
		return nil
	}
	return fmt.Errorf("unsupported OpenVINO precision: %q", string(p))
}

// OpenVINOOptions contains arguments for the OpenVINO provider.
type OpenVINOOptions struct {
	// Overrides the accelerator hardware type (CPU, GPU, NPU).
	DeviceType string `json:"deviceType" yaml:"deviceType" koanf:"devicetype"`
	// Supported precisions for HW {CPU:FP32, GPU:[FP32, FP16, ACCURACY], NPU:FP16}.
	Precision Precision `json:"precision" yaml:"precision" koanf:"precision"`
	// Overrides the accelerator default number of threads. 0 keeps the default.
	NumOfThreads int `json:"numOfThreads" yaml:"numOfThreads" koanf:"numofthreads"`
	// Overrides the accelerator default streams. 0 keeps the default.
	NumStreams int `json:"numStreams" yaml:"numStreams" koanf:"numstreams"`
	// Rewrites dynamic shaped models to static shape at runtime.
	DisableDynamicShapes bool `json:"disableDynamicShapes" yaml:"disableDynamicShapes" koanf:"disabledynamicshapes"`
}

// ProviderOptions returns the key/value options passed to the OpenVINO provider. Unset values are
// omitted so the provider keeps its defaults.
func (o OpenVINOOptions) ProviderOptions() map[string]string {
	opts := map[string]string{
		"disable_dynamic_shapes": strconv.FormatBool(o.DisableDynamicShapes),
	}
	if o.DeviceType != "" {
		opts["device_type"] = o.DeviceType
	}
	if o.Precision != "" {
		opts["precision"] = string(o.Precision)
	}
	if o.NumOfThreads > 0 {
		opts["num_of_threads"] = strconv.Itoa(o.NumOfThreads)
	}
	if o.NumStreams > 0 {
		opts["num_streams"] = strconv.Itoa(o.NumStreams)
	}
	return opts
}
