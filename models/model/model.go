// Package model - Definitions shared by the pose estimation models.
package model

import (
	"fmt"
	"image"
	"strings"

	"github.com/nvr-ai/go-posenet/models/model/preprocess"
	"github.com/nvr-ai/go-posenet/pose"
	"gorgonia.org/tensor"
)

// Family is the family of models.
type Family string

const (
	// ModelFamilyPoseNet is the PoseNet family: heatmaps, offsets and displacement fields.
	ModelFamilyPoseNet Family = "posenet"
)

// Name is the unique identifier of a model.
type Name string

const (
	// ModelNameMobileNet is the PoseNet MobileNetV1 backbone.
	ModelNameMobileNet Name = "mobilenet"
	// ModelNameResNet50 is the PoseNet ResNet50 backbone.
	ModelNameResNet50 Name = "resnet50"
)

// ParseName resolves a model name, case-insensitively.
func ParseName(name string) (Name, error) {
	switch n := Name(strings.ToLower(strings.TrimSpace(name))); n {
	case ModelNameMobileNet, ModelNameResNet50:
		return n, nil
	}
	return "", fmt.Errorf("unsupported model name: %q", name)
}

// Estimation selects how many poses a model decodes per frame.
type Estimation string

const (
	// EstimationSingle decodes exactly one pose.
	EstimationSingle Estimation = "single"
	// EstimationMultiple decodes up to DecodeConfig.MaxPoses poses.
	EstimationMultiple Estimation = "multiple"
)

// OutputLayout maps each PoseNet array to its index among the session outputs.
type OutputLayout struct {
	Heatmaps         int `json:"heatmaps" yaml:"heatmaps"`
	Offsets          int `json:"offsets" yaml:"offsets"`
	DisplacementsFwd int `json:"displacementsFwd" yaml:"displacementsFwd"`
	DisplacementsBwd int `json:"displacementsBwd" yaml:"displacementsBwd"`
}

// Count is the number of session outputs the layout addresses.
func (l OutputLayout) Count() int {
	return max(l.Heatmaps, l.Offsets, l.DisplacementsFwd, l.DisplacementsBwd) + 1
}

// DecodeConfig controls keypoint decoding.
type DecodeConfig struct {
	Estimation     Estimation `json:"estimation" yaml:"estimation"`
	MaxPoses       int        `json:"maxPoses" yaml:"maxPoses"`
	ScoreThreshold float32    `json:"scoreThreshold" yaml:"scoreThreshold"`
	NMSRadius      int        `json:"nmsRadius" yaml:"nmsRadius"`
}

// MultiPoseParams converts the configuration into decoder parameters. Single estimation keeps one
// pose.
func (c DecodeConfig) MultiPoseParams() pose.MultiPoseParams {
	maxPoses := c.MaxPoses
	if c.Estimation == EstimationSingle {
		maxPoses = 1
	}
	return pose.MultiPoseParams{
		MaxPoseDetections: maxPoses,
		ScoreThreshold:    c.ScoreThreshold,
		NMSRadius:         c.NMSRadius,
	}
}

// Decoded is the result of post-processing one inference.
type Decoded struct {
	Poses  []pose.Pose
	Stride int
}

// BaseModel describes a loaded model.
type BaseModel struct {
	Name        Name
	Family      Family
	Path        string
	InputNames  []string
	OutputNames []string
	Layout      OutputLayout
}

// Model turns frames into input tensors and raw session outputs into poses.
type Model interface {
	Options() BaseModel
	PreProcess(img image.Image, width, height int) (*preprocess.PreprocessingResult, error)
	PostProcess(outputs []*tensor.Dense, inputHeight int, config DecodeConfig) (*Decoded, error)
}

// NewModelArgs is the arguments for creating a new model.
type NewModelArgs struct {
	Name        Name     `json:"name" yaml:"name"`
	Path        string   `json:"path" yaml:"path"`
	InputNames  []string `json:"inputs" yaml:"inputs"`
	OutputNames []string `json:"outputs" yaml:"outputs"`
	// ActivatedHeatmaps is set for graphs whose heatmap output already ends in a sigmoid.
	ActivatedHeatmaps bool `json:"activatedHeatmaps" yaml:"activatedHeatmaps"`
}
