// Package pointcloud defines the point clouds used for canonical object models and observed
// scene segments, the spatial index over them and the closest-point alignment engine.
//
// Clouds are ordered and may contain duplicate points: segments come straight from depth
// pixels and the alignment code addresses points by index.
package pointcloud

import (
	"math"

	"github.com/golang/geo/r3"
)

// MetaData is data about what's stored in the point cloud.
type MetaData struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64

	totalX, totalY, totalZ float64
	count                  int
}

// NewMetaData creates a new MetaData whose bounds are empty.
func NewMetaData() MetaData {
	return MetaData{
		MinX: math.MaxFloat64,
		MinY: math.MaxFloat64,
		MinZ: math.MaxFloat64,
		MaxX: -math.MaxFloat64,
		MaxY: -math.MaxFloat64,
		MaxZ: -math.MaxFloat64,
	}
}

// Merge updates the bounds and running totals with the given point.
func (meta *MetaData) Merge(v r3.Vector) {
	if v.X > meta.MaxX {
		meta.MaxX = v.X
	}
	if v.Y > meta.MaxY {
		meta.MaxY = v.Y
	}
	if v.Z > meta.MaxZ {
		meta.MaxZ = v.Z
	}

	if v.X < meta.MinX {
		meta.MinX = v.X
	}
	if v.Y < meta.MinY {
		meta.MinY = v.Y
	}
	if v.Z < meta.MinZ {
		meta.MinZ = v.Z
	}

	meta.totalX += v.X
	meta.totalY += v.Y
	meta.totalZ += v.Z
	meta.count++
}

// Center returns the mean of all merged points.
func (meta *MetaData) Center() r3.Vector {
	if meta.count == 0 {
		return r3.Vector{}
	}
	n := float64(meta.count)
	return r3.Vector{X: meta.totalX / n, Y: meta.totalY / n, Z: meta.totalZ / n}
}

// PointCloud is a general purpose, ordered container of points.
type PointCloud interface {
	// Size returns the number of points in the cloud.
	Size() int

	// MetaData returns meta data
	MetaData() MetaData

	// Append adds a point to the end of the cloud.
	Append(p r3.Vector)

	// At returns the i'th point.
	At(i int) r3.Vector

	// Iterate iterates over all points in the cloud and calls the given
	// function for each point. If the supplied function returns false,
	// iteration will stop after the function returns.
	// numBatches lets you divide up he work. 0 means don't divide
	// myBatch is used iff numBatches > 0 and is which batch you want
	Iterate(numBatches, myBatch int, fn func(i int, p r3.Vector) bool)
}
