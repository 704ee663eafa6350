package images

import (
	"runtime"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParallelCoversEveryIndexOnce(t *testing.T) {
	sizes := []int{1, 3, runtime.NumCPU()*2 - 1, runtime.NumCPU() * 2, 1000, 1001}

	for _, size := range sizes {
		hits := make([]int32, size)
		var mu sync.Mutex
		Parallel(size, func(start, end int) {
			mu.Lock()
			defer mu.Unlock()
			for i := start; i < end; i++ {
				hits[i]++
			}
		})

		for i, h := range hits {
			assert.Equalf(t, int32(1), h, "size=%d index=%d", size, i)
		}
	}
}

func TestParallelEmpty(t *testing.T) {
	called := false
	Parallel(0, func(int, int) { called = true })
	assert.False(t, called)
}

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path string
		want ImageFormat
		ok   bool
	}{
		{path: "frame-1.jpg", want: FormatJPEG, ok: true},
		{path: "/tmp/frame-2.JPEG", want: FormatJPEG, ok: true},
		{path: "frame-3.png", want: FormatPNG, ok: true},
		{path: "frame-4.webp", want: FormatWebP, ok: true},
		{path: "frame-5.bmp"},
		{path: "notes"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, ok := FormatFromPath(tt.path)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestInputSize(t *testing.T) {
	tests := []struct {
		name                  string
		frameW, frameH, input int
		wantW, wantH          int
	}{
		{name: "landscape 720p", frameW: 1280, frameH: 720, input: 256, wantW: 455, wantH: 256},
		{name: "square", frameW: 640, frameH: 640, input: 257, wantW: 257, wantH: 257},
		{name: "tall frame clamps width", frameW: 100, frameH: 1000, input: 256, wantW: 64, wantH: 256},
		{name: "tiny height raised", frameW: 640, frameH: 480, input: 10, wantW: 85, wantH: 64},
		{name: "unknown frame", frameW: 0, frameH: 0, input: 256, wantW: 256, wantH: 256},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := InputSize(tt.frameW, tt.frameH, tt.input)
			assert.Equal(t, tt.wantW, w)
			assert.Equal(t, tt.wantH, h)
		})
	}
}

func BenchmarkParallel(b *testing.B) {
	data := make([]float32, 1<<16)
	for i := 0; i < b.N; i++ {
		Parallel(len(data), func(start, end int) {
			for j := start; j < end; j++ {
				data[j] = data[j]*0.5 + 1
			}
		})
	}
}
