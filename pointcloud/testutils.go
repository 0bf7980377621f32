package pointcloud

import (
	"math/rand"

	"github.com/golang/geo/r3"
)

// MakeTestPointCloud creates a cloud with points on the three axes and at the origin.
func MakeTestPointCloud() PointCloud {
	return NewFromPoints([]r3.Vector{
		{X: 0, Y: 0, Z: 0},
		{X: 1, Y: 0, Z: 0},
		{X: 0, Y: 1, Z: 0},
		{X: 0, Y: 0, Z: 1},
	})
}

// MakeRandomBox creates a cloud of n points sampled uniformly in an axis-aligned box of the given
// dimensions centered at the origin. The generator is seeded so results are reproducible.
func MakeRandomBox(n int, dims r3.Vector, seed int64) PointCloud {
	//nolint:gosec
	rnd := rand.New(rand.NewSource(seed))
	pc := NewWithPrealloc(n)
	for i := 0; i < n; i++ {
		pc.Append(r3.Vector{
			X: (rnd.Float64() - 0.5) * dims.X,
			Y: (rnd.Float64() - 0.5) * dims.Y,
			Z: (rnd.Float64() - 0.5) * dims.Z,
		})
	}
	return pc
}
