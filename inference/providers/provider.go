// Package providers - Execution provider selection for ONNX Runtime sessions.
package providers

import (
	"fmt"
	"strings"
)

// ProviderBackend represents different ONNX Runtime execution providers.
type ProviderBackend string

const (
	// CPUProviderBackend runs on the default CPU execution provider.
	CPUProviderBackend ProviderBackend = "cpu"
	// CoreMLProviderBackend uses Apple CoreML for macOS/iOS acceleration.
	CoreMLProviderBackend ProviderBackend = "coreml"
	// OpenVINOProviderBackend uses Intel OpenVINO for inference optimization.
	OpenVINOProviderBackend ProviderBackend = "openvino"
	// CUDAProviderBackend uses NVIDIA CUDA for inference optimization.
	CUDAProviderBackend ProviderBackend = "cuda"
)

// ParseBackend resolves a backend name, case-insensitively. An empty name selects the CPU.
//
// Arguments:
//   - name: The backend name.
//
// Returns:
//   - ProviderBackend: The matching backend.
//   - error: An error if the name is not a known backend.
func ParseBackend(name string) (ProviderBackend, error) {
	switch b := ProviderBackend(strings.ToLower(strings.TrimSpace(name))); b {
	case "":
		return CPUProviderBackend, nil
	case CPUProviderBackend, CoreMLProviderBackend, OpenVINOProviderBackend, CUDAProviderBackend:
		return b, nil
	default:
		return "", fmt.Errorf("unsupported provider backend: %q", name)
	}
}

// Config selects the execution provider and the session threading for a model session.
type Config struct {
	// Backend specifies the backend to use.
	Backend ProviderBackend `json:"backend" yaml:"backend" koanf:"backend"`
	// IntraOpThreads is the thread count used inside a graph node. 0 lets the runtime decide.
	IntraOpThreads int `json:"intraopthreads" yaml:"intraopthreads" koanf:"intraopthreads"`
	// InterOpThreads is the thread count used across independent graph nodes. 0 lets the runtime
	// decide.
	InterOpThreads int `json:"interopthreads" yaml:"interopthreads" koanf:"interopthreads"`
	// SharedLibrary overrides the platform default path of the onnxruntime shared library.
	SharedLibrary string `json:"sharedlibrary" yaml:"sharedlibrary" koanf:"sharedlibrary"`
	// CoreML holds the CoreML provider options.
	CoreML CoreMLOptions `json:"coreml" yaml:"coreml" koanf:"coreml"`
	// OpenVINO holds the OpenVINO provider options.
	OpenVINO OpenVINOOptions `json:"openvino" yaml:"openvino" koanf:"openvino"`
	// CUDA holds the CUDA provider options.
	CUDA CUDAOptions `json:"cuda" yaml:"cuda" koanf:"cuda"`
}

// DefaultConfig returns a CPU configuration with runtime-chosen threading.
func DefaultConfig() Config {
	return Config{
		Backend: CPUProviderBackend,
		OpenVINO: OpenVINOOptions{
			DeviceType: "CPU",
			Precision:  PrecisionFP32,
		},
	}
}

// Normalize returns a copy of c with the backend resolved to its canonical name.
//
// Returns:
//   - Config: The configuration with a canonical backend.
//   - error: An error if the backend is unknown or a value is out of range.
func (c Config) Normalize() (Config, error) {
	backend, err := ParseBackend(string(c.Backend))
	if err != nil {
		return c, err
	}
	c.Backend = backend
	if c.IntraOpThreads < 0 || c.InterOpThreads < 0 {
		return c, fmt.Errorf("thread counts must not be negative: intra=%d inter=%d",
			c.IntraOpThreads, c.InterOpThreads)
	}
	if c.Backend == OpenVINOProviderBackend {
		if err := c.OpenVINO.Precision.Validate(); err != nil {
			return c, err
		}
	}
	return c, nil
}

// Validate checks the backend and thread counts.
func (c Config) Validate() error {
	_, err := c.Normalize()
	return err
}
