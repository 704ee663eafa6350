package pose

import "github.com/pkg/errors"

// ComputeStride derives the output stride from the model input height and the heatmap height.
//
// The stride is (imageHeight-1)/(heatmapHeight-1) rounded down to a multiple of 8.
//
// Arguments:
//   - imageHeight: The height in pixels of the image fed to the model.
//   - heatmapHeight: The number of heatmap rows the model produced.
//
// Returns:
//   - int: The stride.
//   - error: ErrInvalidStride when the heights cannot produce a positive stride.
func ComputeStride(imageHeight, heatmapHeight int) (int, error) {
	if heatmapHeight < 2 {
		return 0, errors.Wrapf(ErrInvalidStride, "heatmap height %d cannot derive a stride", heatmapHeight)
	}
	stride := (imageHeight - 1) / (heatmapHeight - 1)
	stride -= stride % 8
	if stride <= 0 {
		return 0, errors.Wrapf(ErrInvalidStride, "image height %d over heatmap height %d gives stride %d",
			imageHeight, heatmapHeight, stride)
	}
	return stride, nil
}
