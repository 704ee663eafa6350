package pose

import "math"

// GridIndex is an integer cell in the output grid.
type GridIndex struct {
	X int
	Y int
}

// OffsetVector returns the sub-cell refinement for partID at grid cell (y, x), X then Y.
func (m *Maps) OffsetVector(y, x, partID int) Vec2 {
	return Vec2{
		X: m.offsets.at(y, x, partID+NumParts),
		Y: m.offsets.at(y, x, partID),
	}
}

// ImageCoords maps a keypoint in grid units to input image pixels.
//
// The grid position is truncated to a cell and must lie inside the grid.
//
// Arguments:
//   - part: A keypoint whose position is a grid cell.
//   - stride: The grid to pixel scale.
//
// Returns:
//   - Vec2: part.Position*stride refined by the offset field.
func (m *Maps) ImageCoords(part Keypoint, stride int) Vec2 {
	offset := m.OffsetVector(int(part.Position.Y), int(part.Position.X), part.ID)
	return part.Position.Scale(float32(stride)).Add(offset)
}

// NearestGridIndex maps an image point to the closest grid cell, clamped to the grid.
//
// Arguments:
//   - point: A point in image pixels.
//   - stride: The grid to pixel scale.
//   - height: The number of grid rows.
//   - width: The number of grid columns.
//
// Returns:
//   - GridIndex: round(point/stride), each axis clamped to [0, dim-1]. Halves round to even.
func NearestGridIndex(point Vec2, stride, height, width int) GridIndex {
	s := float32(stride)
	return GridIndex{
		X: clampIndex(math.RoundToEven(float64(point.X/s)), width),
		Y: clampIndex(math.RoundToEven(float64(point.Y/s)), height),
	}
}

func clampIndex(v float64, dim int) int {
	if v < 0 {
		return 0
	}
	if v > float64(dim-1) {
		return dim - 1
	}
	return int(v)
}
