package pointcloud

import (
	"github.com/golang/geo/r3"

	"go.viam.com/posesearch/spatialmath"
)

// Transform returns a new cloud with every point moved by the pose.
func Transform(pc PointCloud, pose spatialmath.Pose) PointCloud {
	out := NewWithPrealloc(pc.Size())
	pc.Iterate(0, 0, func(_ int, p r3.Vector) bool {
		out.Append(spatialmath.TransformPoint(pose, p))
		return true
	})
	return out
}

// Merge concatenates clouds in order.
func Merge(clouds ...PointCloud) PointCloud {
	total := 0
	for _, pc := range clouds {
		total += pc.Size()
	}
	out := NewWithPrealloc(total)
	for _, pc := range clouds {
		pc.Iterate(0, 0, func(_ int, p r3.Vector) bool {
			out.Append(p)
			return true
		})
	}
	return out
}

// Filter returns a new cloud holding the points for which keep returns true, in order.
func Filter(pc PointCloud, keep func(i int, p r3.Vector) bool) PointCloud {
	out := NewWithPrealloc(pc.Size())
	pc.Iterate(0, 0, func(i int, p r3.Vector) bool {
		if keep(i, p) {
			out.Append(p)
		}
		return true
	})
	return out
}

// Points returns a copy of the points in the cloud.
func Points(pc PointCloud) []r3.Vector {
	out := make([]r3.Vector, 0, pc.Size())
	pc.Iterate(0, 0, func(_ int, p r3.Vector) bool {
		out = append(out, p)
		return true
	})
	return out
}
