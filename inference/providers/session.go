package providers

import (
	"fmt"
	"os"
	"runtime"

	ort "github.com/yalue/onnxruntime_go"
)

// SharedLibraryPath returns the onnxruntime shared library for the current platform, or override
// when it is set.
//
// Arguments:
//   - override: An explicit path that takes precedence over the platform default.
//
// Returns:
//   - string: The path to the shared library.
//   - error: An error if the platform has no known library.
func SharedLibraryPath(override string) (string, error) {
	if override != "" {
		return override, nil
	}
	switch runtime.GOOS {
	case "windows":
		return "./third_party/onnxruntime.dll", nil
	case "darwin":
		return "./third_party/libonnxruntime.1.23.0.dylib", nil
	case "linux":
		if runtime.GOARCH == "arm64" {
			return "./third_party/onnxruntime_arm64.so", nil
		}
		return "./third_party/onnxruntime.so", nil
	}
	return "", fmt.Errorf("no onnxruntime library known for %s/%s", runtime.GOOS, runtime.GOARCH)
}

// InitializeEnvironment points ONNX Runtime at its shared library and initializes the process-wide
// environment. Calling it again after a successful initialization is a no-op.
//
// Arguments:
//   - cfg: The provider configuration carrying the library override.
//
// Returns:
//   - error: An error if the library is missing or the environment fails to initialize.
func InitializeEnvironment(cfg Config) error {
	if ort.IsInitialized() {
		return nil
	}

	libPath, err := SharedLibraryPath(cfg.SharedLibrary)
	if err != nil {
		return err
	}
	if _, err := os.Stat(libPath); err != nil {
		return fmt.Errorf("ONNX Runtime library not found at %s: %w", libPath, err)
	}

	ort.SetSharedLibraryPath(libPath)
	if err := ort.InitializeEnvironment(); err != nil {
		return fmt.Errorf("error initializing ORT environment: %w", err)
	}
	return nil
}

// NewSessionOptions creates session options with threading, graph optimizations and the configured
// execution provider. The caller must destroy the returned options.
//
// Arguments:
//   - cfg: The provider configuration.
//
// Returns:
//   - *ort.SessionOptions: The configured session options.
//   - error: An error if the options or the execution provider cannot be set up.
func NewSessionOptions(cfg Config) (*ort.SessionOptions, error) {
	cfg, err := cfg.Normalize()
	if err != nil {
		return nil, err
	}

	options, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("error creating ORT session options: %w", err)
	}

	if err := configure(options, cfg); err != nil {
		options.Destroy()
		return nil, err
	}
	return options, nil
}

func configure(options *ort.SessionOptions, cfg Config) error {
	if err := options.SetIntraOpNumThreads(cfg.IntraOpThreads); err != nil {
		return fmt.Errorf("error setting intra-op threads: %w", err)
	}
	if err := options.SetInterOpNumThreads(cfg.InterOpThreads); err != nil {
		return fmt.Errorf("error setting inter-op threads: %w", err)
	}
	if err := options.SetGraphOptimizationLevel(ort.GraphOptimizationLevelEnableExtended); err != nil {
		return fmt.Errorf("error setting graph optimization level: %w", err)
	}

	switch cfg.Backend {
	case CoreMLProviderBackend:
		if err := options.AppendExecutionProviderCoreML(cfg.CoreML.Flags()); err != nil {
			return fmt.Errorf("error enabling CoreML: %w", err)
		}
	case OpenVINOProviderBackend:
		if err := options.AppendExecutionProviderOpenVINO(cfg.OpenVINO.ProviderOptions()); err != nil {
			return fmt.Errorf("error enabling OpenVINO: %w", err)
		}
	case CUDAProviderBackend:
		cuda, err := ort.NewCUDAProviderOptions()
		if err != nil {
			return fmt.Errorf("error creating CUDA options: %w", err)
		}
		defer cuda.Destroy()
		if err := cuda.Update(cfg.CUDA.ProviderOptions()); err != nil {
			return fmt.Errorf("error converting CUDA options: %w", err)
		}
		if err := options.AppendExecutionProviderCUDA(cuda); err != nil {
			return fmt.Errorf("error enabling CUDA: %w", err)
		}
	}
	return nil
}
