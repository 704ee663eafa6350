package pose

import (
	"sort"

	"github.com/nvr-ai/go-posenet/images"
)

// LocalMaximumRadius is the window radius used when collecting candidate parts.
const LocalMaximumRadius = 1

// IsLocalMaximum reports whether no heatmap cell within radius of (y, x) scores strictly
// higher than score for partID. The window is clipped to the grid; ties do not count.
func (m *Maps) IsLocalMaximum(partID int, score float32, y, x, radius int) bool {
	yStart := max(y-radius, 0)
	yEnd := min(y+radius+1, m.heatmaps.height)
	xStart := max(x-radius, 0)
	xEnd := min(x+radius+1, m.heatmaps.width)

	for yc := yStart; yc < yEnd; yc++ {
		for xc := xStart; xc < xEnd; xc++ {
			if m.heatmaps.at(yc, xc, partID) > score {
				return false
			}
		}
	}
	return true
}

// BuildPartList collects every heatmap cell that scores at least scoreThreshold and is a local
// maximum within radius. Candidates carry grid positions.
//
// Channels are scanned in parallel; the result is always in channel, row, column order.
//
// Arguments:
//   - scoreThreshold: The minimum heatmap score of a candidate.
//   - radius: The local maximum window radius.
//
// Returns:
//   - []Keypoint: The candidates, unsorted.
func (m *Maps) BuildPartList(scoreThreshold float32, radius int) []Keypoint {
	buckets := make([][]Keypoint, NumParts)

	images.Parallel(NumParts, func(start, end int) {
		for c := start; c < end; c++ {
			var found []Keypoint
			for y := 0; y < m.heatmaps.height; y++ {
				for x := 0; x < m.heatmaps.width; x++ {
					score := m.heatmaps.at(y, x, c)
					if score < scoreThreshold {
						continue
					}
					if m.IsLocalMaximum(c, score, y, x, radius) {
						found = append(found, Keypoint{
							Score:    score,
							Position: Vec2{X: float32(x), Y: float32(y)},
							ID:       c,
						})
					}
				}
			}
			buckets[c] = found
		}
	})

	total := 0
	for _, b := range buckets {
		total += len(b)
	}
	list := make([]Keypoint, 0, total)
	for _, b := range buckets {
		list = append(list, b...)
	}
	return list
}

// SortCandidates orders candidates by descending score. Equal scores keep their order.
func SortCandidates(candidates []Keypoint) {
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Score > candidates[j].Score
	})
}
