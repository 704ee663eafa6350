// Package util - Frame loading helpers.
package util

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/pkg/errors"

	"github.com/nvr-ai/go-posenet/images"
)

// ImageFile represents an image file.
type ImageFile struct {
	// Path is the path to the image file.
	Path string
	// Data is the raw bytes of the image file.
	Data []byte
	// Frame is the frame number of the image file.
	Frame int
	// Format is the encoding implied by the file extension.
	Format images.ImageFormat
}

// LoadDirectoryImageFiles reads all frame files from a directory, ordered by frame number.
//
// Files are named <prefix><number>.<ext>, e.g. frame-12.jpg. Only jpeg, png and webp files are
// read; everything else is skipped.
//
// Arguments:
// - dir: Directory path containing image files.
//
// Returns:
// - []ImageFile: Slice of ImageFile, each containing the raw bytes of an image file.
// - error: Error if loading fails or a frame file carries no number.
func LoadDirectoryImageFiles(dir string) ([]ImageFile, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var frames []ImageFile
	for _, file := range files {
		if file.IsDir() {
			continue
		}

		format, ok := images.FormatFromPath(file.Name())
		if !ok {
			continue
		}

		frame, err := frameNumber(file.Name())
		if err != nil {
			return nil, err
		}

		imgPath := filepath.Join(dir, file.Name())
		data, err := os.ReadFile(imgPath)
		if err != nil {
			return nil, err
		}

		frames = append(frames, ImageFile{
			Path:   imgPath,
			Data:   data,
			Frame:  frame,
			Format: format,
		})
	}

	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Frame < frames[j].Frame
	})

	return frames, nil
}

// frameNumber returns the trailing decimal number of a file name without its extension.
func frameNumber(name string) (int, error) {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	i := len(stem)
	for i > 0 && stem[i-1] >= '0' && stem[i-1] <= '9' {
		i--
	}
	if i == len(stem) {
		return 0, fmt.Errorf("file %s has no frame number", name)
	}
	return strconv.Atoi(stem[i:])
}

// DecodeFrame decodes an image file.
//
// Arguments:
// - file: The loaded file.
//
// Returns:
// - image.Image: The decoded frame.
// - error: Error if the data does not decode as the file's format.
func DecodeFrame(file ImageFile) (image.Image, error) {
	r := bytes.NewReader(file.Data)

	var (
		img image.Image
		err error
	)
	switch file.Format {
	case images.FormatJPEG:
		img, err = jpeg.Decode(r)
	case images.FormatPNG:
		img, err = png.Decode(r)
	case images.FormatWebP:
		img, err = webp.Decode(r)
	default:
		return nil, fmt.Errorf("unsupported image format %q for %s", file.Format, file.Path)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", file.Path)
	}
	return img, nil
}

// Frame converts a decoded image into the frame descriptor carried through the pipeline.
func Frame(file ImageFile, img image.Image) images.Image {
	b := img.Bounds()
	return images.Image{
		Format: file.Format,
		Data:   file.Data,
		Width:  b.Dx(),
		Height: b.Dy(),
	}
}

// LoadFrame decodes a file and describes it as a frame.
//
// Arguments:
// - file: The loaded file.
//
// Returns:
// - images.Image: The frame descriptor with the decoded size.
// - image.Image: The decoded frame.
// - error: Error if the data does not decode as the file's format.
func LoadFrame(file ImageFile) (images.Image, image.Image, error) {
	img, err := DecodeFrame(file)
	if err != nil {
		return images.Image{}, nil, err
	}
	return Frame(file, img), img, nil
}
