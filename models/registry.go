// Package models - registry for models.
package models

import (
	"fmt"

	"github.com/nvr-ai/go-posenet/models/model"
	"github.com/nvr-ai/go-posenet/models/posenet"
)

// NewModel creates a new pose estimation model instance based on the specified model name.
//
// Arguments:
//   - args: Configuration parameters specifying the backbone and its location.
//
// Returns:
//   - model.Model: A configured model instance implementing the Model interface.
//   - error: An error if the model name is unsupported or validation fails.
//
// Example:
//
//	m, err := NewModel(model.NewModelArgs{
//	    Name: model.ModelNameMobileNet,
//	    Path: "/models/posenet_mobilenet.onnx",
//	})
func NewModel(args model.NewModelArgs) (model.Model, error) {
	switch args.Name {
	case model.ModelNameMobileNet, model.ModelNameResNet50:
		m, err := posenet.NewModel(args)
		if err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("unsupported model name: %s", args.Name)
	}
}
