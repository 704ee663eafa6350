package providers

import (
	"strconv"
)

// CUDAOptions contains arguments for the CUDA provider.
// See:
// https://onnxruntime.ai/docs/execution-providers/CUDA-ExecutionProvider.html#configuration-options
type CUDAOptions struct {
	// The device ID.
	DeviceID int `json:"deviceID" yaml:"deviceID" koanf:"deviceid"`
	// The size limit of the device memory arena in bytes. 0 leaves it unlimited.
	GPUMemLimit int64 `json:"gpuMemLimit" yaml:"gpuMemLimit" koanf:"gpumemlimit"`
	// The type of search done for cuDNN convolution algorithms (EXHAUSTIVE, HEURISTIC, DEFAULT).
	CudnnConvAlgoSearch string `json:"cudnnConvAlgoSearch" yaml:"cudnnConvAlgoSearch" koanf:"cudnnconvalgosearch"`
	// Whether to do copies in the default stream or use separate streams.
	DoCopyInDefaultStream bool `json:"doCopyInDefaultStream" yaml:"doCopyInDefaultStream" koanf:"docopyindefaultstream"`
	// Prefer NHWC operators over NCHW.
	PreferNHWC bool `json:"preferNHWC" yaml:"preferNHWC" koanf:"prefernhwc"`
}

// ProviderOptions returns the key/value options passed to the CUDA provider.
func (o CUDAOptions) ProviderOptions() map[string]string {
	opts := map[string]string{
		"device_id":                 strconv.Itoa(o.DeviceID),
		"do_copy_in_default_stream": boolFlag(o.DoCopyInDefaultStream),
		"prefer_nhwc":               boolFlag(o.PreferNHWC),
	}
	if o.GPUMemLimit > 0 {
		opts["gpu_mem_limit"] = strconv.FormatInt(o.GPUMemLimit, 10)
	}
	if o.CudnnConvAlgoSearch != "" {
		opts["cudnn_conv_algo_search"] = o.CudnnConvAlgoSearch
	}
	return opts
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
