// Package images - Frame definitions and helpers shared by the pose pipeline.
package images

import (
	"path/filepath"
	"strings"
)

// MinInputDim is the smallest edge, in pixels, a model input may have.
const MinInputDim = 64

// Image represents an encoded frame with a format, data, width, and height.
type Image struct {
	// The format of the image.
	Format ImageFormat `json:"format" yaml:"format"`
	// The data of the image.
	Data []byte `json:"data" yaml:"data"`
	// The width of the image.
	Width int `json:"width" yaml:"width"`
	// The height of the image.
	Height int `json:"height" yaml:"height"`
}

// ImageFormat represents supported image formats
type ImageFormat string

// ImageFormat constants
const (
	// FormatJPEG is the JPEG image format.
	FormatJPEG ImageFormat = "jpeg"
	// FormatWebP is the WebP image format.
	FormatWebP ImageFormat = "webp"
	// FormatPNG is the PNG image format.
	FormatPNG ImageFormat = "png"
)

// FormatFromPath returns the image format implied by a file extension.
//
// Arguments:
// - path: File name or path.
//
// Returns:
// - ImageFormat: The matching format.
// - bool: False when the extension is not a supported frame format.
func FormatFromPath(path string) (ImageFormat, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		return FormatJPEG, true
	case ".png":
		return FormatPNG, true
	case ".webp":
		return FormatWebP, true
	}
	return "", false
}

// InputSize derives the model input dimensions for a frame.
//
// The height is fixed by the caller and the width follows the frame's
// aspect ratio. Both edges are raised to MinInputDim.
//
// Arguments:
// - frameWidth: Width of the captured frame.
// - frameHeight: Height of the captured frame.
// - inputHeight: Requested model input height.
//
// Returns:
// - width, height: The model input dimensions.
func InputSize(frameWidth, frameHeight, inputHeight int) (width, height int) {
	height = max(inputHeight, MinInputDim)
	if frameWidth <= 0 || frameHeight <= 0 {
		return height, height
	}
	width = int(float32(height) * float32(frameWidth) / float32(frameHeight))
	return max(width, MinInputDim), height
}
