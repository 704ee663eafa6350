package images

import (
	"runtime"
	"sync"
)

// Parallel splits [0, dataSize) into contiguous partitions and runs fn on each
// partition in its own goroutine, returning once all partitions are done.
//
// Small inputs (fewer than two items per CPU) are processed serially on the
// calling goroutine.
//
// Arguments:
// - dataSize: The number of items to process.
// - fn: Called with the half-open range [partStart, partEnd) of each partition.
func Parallel(dataSize int, fn func(partStart, partEnd int)) {
	if dataSize <= 0 {
		return
	}

	numGoroutines := runtime.NumCPU()
	if dataSize < numGoroutines*2 {
		fn(0, dataSize)
		return
	}

	partSize := dataSize / numGoroutines

	var wg sync.WaitGroup
	wg.Add(numGoroutines)

	for i := 0; i < numGoroutines; i++ {
		partStart := i * partSize
		partEnd := partStart + partSize

		// Last partition takes the remainder.
		if i == numGoroutines-1 {
			partEnd = dataSize
		}

		go func(start, end int) {
			defer wg.Done()
			fn(start, end)
		}(partStart, partEnd)
	}

	wg.Wait()
}
