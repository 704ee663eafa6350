package providers

// CoreML flags accepted by the CoreML execution provider.
// See: https://onnxruntime.ai/docs/execution-providers/CoreML-ExecutionProvider.html
const (
	CoreMLFlagUseCPUOnly              uint32 = 0x001
	CoreMLFlagEnableOnSubgraph        uint32 = 0x002
	CoreMLFlagOnlyEnableDeviceWithANE uint32 = 0x004
	CoreMLFlagOnlyAllowStaticInputs   uint32 = 0x008
	CoreMLFlagCreateMLProgram         uint32 = 0x010
)

// CoreMLOptions contains arguments for the CoreML provider.
type CoreMLOptions struct {
	// Limit CoreML to running on CPU only.
	CPUOnly bool `json:"cpuOnly" yaml:"cpuOnly" koanf:"cpuonly"`
	// Enable CoreML EP to run on a subgraph in the body of a control flow operator.
	EnableOnSubgraphs bool `json:"enableOnSubgraphs" yaml:"enableOnSubgraphs" koanf:"enableonsubgraphs"`
	// Only enable CoreML on devices with an Apple Neural Engine.
	ANEOnly bool `json:"aneOnly" yaml:"aneOnly" koanf:"aneonly"`
	// Only allow the CoreML EP to take nodes with inputs that have static shapes.
	RequireStaticInputShapes bool `json:"requireStaticInputShapes" yaml:"requireStaticInputShapes" koanf:"requirestaticinputshapes"`
	// Create an MLProgram format model. Requires Core ML 5 or later (iOS 15+ or macOS 12+).
	MLProgram bool `json:"mlProgram" yaml:"mlProgram" koanf:"mlprogram"`
}

// Flags packs the options into the CoreML provider bit set.
func (o CoreMLOptions) Flags() uint32 {
	var flags uint32
	if o.CPUOnly {
		flags |= CoreMLFlagUseCPUOnly
	}
	if o.EnableOnSubgraphs {
		flags |= CoreMLFlagEnableOnSubgraph
	}
	if o.ANEOnly {
		flags |= CoreMLFlagOnlyEnableDeviceWithANE
	}
	if o.RequireStaticInputShapes {
		flags |= CoreMLFlagOnlyAllowStaticInputs
	}
	if o.MLProgram {
		flags |= CoreMLFlagCreateMLProgram
	}
	return flags
}
