// Package config - Layered configuration: defaults, an optional YAML file, then environment.
package config

import (
	"fmt"
	"strings"

	"github.com/knadh/koanf"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-posenet/images"
	"github.com/nvr-ai/go-posenet/inference"
	"github.com/nvr-ai/go-posenet/inference/providers"
	"github.com/nvr-ai/go-posenet/models/model"
)

// EnvPrefix prefixes every environment override, e.g. POSENET_DECODER_MAXPOSES.
const EnvPrefix = "POSENET_"

// ModelConfig selects the backbone and its input size.
type ModelConfig struct {
	Name        string   `koanf:"name"`
	Path        string   `koanf:"path"`
	InputHeight int      `koanf:"inputheight"`
	InputWidth  int      `koanf:"inputwidth"` // 0 derives the width from each frame
	InputNames  []string `koanf:"inputnames"`
	OutputNames []string `koanf:"outputnames"`
	// ActivatedHeatmaps skips the heatmap sigmoid for graphs that already apply it.
	ActivatedHeatmaps bool `koanf:"activatedheatmaps"`
}

// DecoderConfig controls keypoint decoding and visibility.
type DecoderConfig struct {
	Estimation     string  `koanf:"estimation"`
	MaxPoses       int     `koanf:"maxposes"`
	ScoreThreshold float32 `koanf:"scorethreshold"`
	NMSRadius      int     `koanf:"nmsradius"`
	MinConfidence  int     `koanf:"minconfidence"`
}

// ServerConfig defines process wide settings.
type ServerConfig struct {
	Debug bool `koanf:"debug"`
}

// InputConfig selects the frame source.
type InputConfig struct {
	DeviceID     int    `koanf:"deviceid"`
	Directory    string `koanf:"directory"`
	Mirror       bool   `koanf:"mirror"`
	FlipVertical bool   `koanf:"flipvertical"`
}

// AppConfig defines the whole configuration.
type AppConfig struct {
	Model    ModelConfig      `koanf:"model"`
	Decoder  DecoderConfig    `koanf:"decoder"`
	Provider providers.Config `koanf:"provider"`
	Server   ServerConfig     `koanf:"server"`
	Input    InputConfig      `koanf:"input"`
}

func defaults() map[string]any {
	return map[string]any{
		"model.name":                   string(model.ModelNameMobileNet),
		"model.inputheight":            256,
		"model.inputwidth":             0,
		"model.activatedheatmaps":      false,
		"decoder.estimation":           string(model.EstimationMultiple),
		"decoder.maxposes":             20,
		"decoder.scorethreshold":       0.25,
		"decoder.nmsradius":            100,
		"decoder.minconfidence":        70,
		"provider.backend":             string(providers.CPUProviderBackend),
		"provider.openvino.devicetype": "CPU",
		"provider.openvino.precision":  string(providers.PrecisionFP32),
		"server.debug":                 false,
		"input.deviceid":               0,
		"input.mirror":                 true,
	}
}

// Load reads the configuration. filePath may be empty to skip the YAML layer.
//
// Arguments:
//   - filePath: Path to a YAML configuration file.
//
// Returns:
//   - *AppConfig: The validated configuration.
//   - error: An error if a layer fails to load or a value is out of range.
func Load(filePath string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, errors.Wrap(err, "loading defaults")
	}

	if filePath != "" {
		if err := k.Load(file.Provider(filePath), yaml.Parser()); err != nil {
			return nil, errors.Wrapf(err, "loading %s", filePath)
		}
	}

	if err := k.Load(env.ProviderWithValue(EnvPrefix, ".", func(s string, v string) (string, any) {
		key := strings.ReplaceAll(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".")
		if strings.Contains(v, ",") {
			return key, strings.Split(strings.TrimSpace(v), ",")
		}
		return key, v
	}), nil); err != nil {
		return nil, errors.Wrap(err, "loading environment")
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, errors.Wrap(err, "decoding configuration")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	provider, err := cfg.Provider.Normalize()
	if err != nil {
		return nil, errors.Wrap(err, "provider")
	}
	cfg.Provider = provider
	return &cfg, nil
}

// Validate checks every value range.
func (c *AppConfig) Validate() error {
	if _, err := model.ParseName(c.Model.Name); err != nil {
		return err
	}
	if c.Model.InputHeight < images.MinInputDim {
		return fmt.Errorf("model.inputheight must be at least %d, got %d", images.MinInputDim, c.Model.InputHeight)
	}
	if c.Model.InputWidth != 0 && c.Model.InputWidth < images.MinInputDim {
		return fmt.Errorf("model.inputwidth must be 0 or at least %d, got %d", images.MinInputDim, c.Model.InputWidth)
	}
	switch model.Estimation(c.Decoder.Estimation) {
	case model.EstimationSingle, model.EstimationMultiple:
	default:
		return fmt.Errorf("decoder.estimation must be single or multiple, got %q", c.Decoder.Estimation)
	}
	if c.Decoder.MaxPoses < 0 {
		return fmt.Errorf("decoder.maxposes must not be negative, got %d", c.Decoder.MaxPoses)
	}
	if c.Decoder.ScoreThreshold < 0 || c.Decoder.ScoreThreshold > 1 {
		return fmt.Errorf("decoder.scorethreshold must be in [0, 1], got %v", c.Decoder.ScoreThreshold)
	}
	if c.Decoder.NMSRadius < 0 {
		return fmt.Errorf("decoder.nmsradius must not be negative, got %d", c.Decoder.NMSRadius)
	}
	if c.Decoder.MinConfidence < 0 || c.Decoder.MinConfidence > 100 {
		return fmt.Errorf("decoder.minconfidence must be in [0, 100], got %d", c.Decoder.MinConfidence)
	}
	if c.Input.DeviceID < 0 {
		return fmt.Errorf("input.deviceid must not be negative, got %d", c.Input.DeviceID)
	}
	return errors.Wrap(c.Provider.Validate(), "provider")
}

// ModelArgs returns the arguments for the model registry.
func (c *AppConfig) ModelArgs() model.NewModelArgs {
	name, _ := model.ParseName(c.Model.Name)
	return model.NewModelArgs{
		Name:              name,
		Path:              c.Model.Path,
		InputNames:        c.Model.InputNames,
		OutputNames:       c.Model.OutputNames,
		ActivatedHeatmaps: c.Model.ActivatedHeatmaps,
	}
}

// EstimatorOptions returns the sizing, decoding and projection options.
func (c *AppConfig) EstimatorOptions() inference.Options {
	return inference.Options{
		InputHeight: c.Model.InputHeight,
		InputWidth:  c.Model.InputWidth,
		Decode: model.DecodeConfig{
			Estimation:     model.Estimation(c.Decoder.Estimation),
			MaxPoses:       c.Decoder.MaxPoses,
			ScoreThreshold: c.Decoder.ScoreThreshold,
			NMSRadius:      c.Decoder.NMSRadius,
		},
		Mirror:        c.Input.Mirror,
		FlipVertical:  c.Input.FlipVertical,
		MinConfidence: c.Decoder.MinConfidence,
	}
}
