// Package rimage holds the depth images the search renders and compares, their on-disk codec and
// the pinhole camera model that moves between depth pixels and 3D points.
package rimage

import (
	"image"

	"github.com/pkg/errors"

	"go.viam.com/posesearch/utils"
)

// DepthMap is a row-major depth image in meters. A zero value means no return at that pixel.
type DepthMap struct {
	width  int
	height int

	data []float32
}

// NewEmptyDepthMap returns an all-zero depth map of the given size.
func NewEmptyDepthMap(width, height int) *DepthMap {
	return &DepthMap{
		width:  width,
		height: height,
		data:   make([]float32, width*height),
	}
}

// NewDepthMapFromData wraps row-major data of the given size.
func NewDepthMapFromData(width, height int, data []float32) (*DepthMap, error) {
	if len(data) != width*height {
		return nil, errors.Errorf("depth data has %d values, want %dx%d", len(data), width, height)
	}
	return &DepthMap{width: width, height: height, data: data}, nil
}

// Width returns the horizontal size of the depth map.
func (dm *DepthMap) Width() int {
	return dm.width
}

// Height returns the vertical size of the depth map.
func (dm *DepthMap) Height() int {
	return dm.height
}

// Bounds returns the rectangle dimensions of the image.
func (dm *DepthMap) Bounds() image.Rectangle {
	return image.Rect(0, 0, dm.width, dm.height)
}

func (dm *DepthMap) kxy(x, y int) int {
	return (y * dm.width) + x
}

// GetDepth returns the depth at column x, row y.
func (dm *DepthMap) GetDepth(x, y int) float32 {
	return dm.data[dm.kxy(x, y)]
}

// Get returns the depth at the given point.
func (dm *DepthMap) Get(p image.Point) float32 {
	return dm.GetDepth(p.X, p.Y)
}

// Set sets the depth at column x, row y.
func (dm *DepthMap) Set(x, y int, val float32) {
	dm.data[dm.kxy(x, y)] = val
}

// Contains reports whether the pixel lies inside the map.
func (dm *DepthMap) Contains(x, y int) bool {
	return x >= 0 && y >= 0 && x < dm.width && y < dm.height
}

// Clone makes a copy of the depth map.
func (dm *DepthMap) Clone() *DepthMap {
	data := make([]float32, len(dm.data))
	copy(data, dm.data)
	return &DepthMap{width: dm.width, height: dm.height, data: data}
}

// SameSize reports whether both maps have the same dimensions.
func (dm *DepthMap) SameSize(other *DepthMap) bool {
	return dm.width == other.width && dm.height == other.height
}

// Scale multiplies every pixel by factor in place.
func (dm *DepthMap) Scale(factor float32) {
	for i := range dm.data {
		dm.data[i] *= factor
	}
}

// CompositeNearest overlays other onto dm in place. A pixel of other wins when it has a return
// and dm has none there or other is strictly closer.
func (dm *DepthMap) CompositeNearest(other *DepthMap) error {
	if !dm.SameSize(other) {
		return errors.Errorf("cannot composite %dx%d depth onto %dx%d", other.width, other.height, dm.width, dm.height)
	}
	utils.ParallelForEachPixel(image.Point{X: dm.width, Y: dm.height}, func(x, y int) {
		k := dm.kxy(x, y)
		d := other.data[k]
		if d > 0 && (dm.data[k] == 0 || d < dm.data[k]) {
			dm.data[k] = d
		}
	})
	return nil
}

// NonZeroCount returns the number of pixels with a return.
func (dm *DepthMap) NonZeroCount() int {
	n := 0
	for _, d := range dm.data {
		if d > 0 {
			n++
		}
	}
	return n
}

// MinMax returns the smallest and largest non-zero depth. Both are zero for an empty map.
func (dm *DepthMap) MinMax() (float32, float32) {
	var lo, hi float32
	for _, d := range dm.data {
		if d <= 0 {
			continue
		}
		if lo == 0 || d < lo {
			lo = d
		}
		if d > hi {
			hi = d
		}
	}
	return lo, hi
}
