package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Ordered list of box vertices.
var boxVertices = [8]r3.Vector{
	{X: 1, Y: 1, Z: 1},
	{X: 1, Y: 1, Z: -1},
	{X: 1, Y: -1, Z: 1},
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: 1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: -1, Z: -1},
}

// The sets of indices of the box vertices that tile the box exterior.
var boxTriangles = [12][3]int{
	{0, 1, 3},
	{0, 2, 3},
	{0, 1, 5},
	{0, 4, 5},
	{0, 2, 6},
	{0, 4, 6},
	{7, 1, 3},
	{7, 2, 3},
	{7, 1, 5},
	{7, 4, 5},
	{7, 2, 6},
	{7, 4, 6},
}

// NewBoxMesh returns a 12-triangle mesh of an axis-aligned box with the given full dimensions,
// centered on the mesh origin.
func NewBoxMesh(dims r3.Vector) *Mesh {
	half := dims.Mul(0.5)
	verts := make([]r3.Vector, 0, 8)
	for _, v := range boxVertices {
		verts = append(verts, r3.Vector{X: v.X * half.X, Y: v.Y * half.Y, Z: v.Z * half.Z})
	}
	triangles := make([]*Triangle, 0, 12)
	for _, tri := range boxTriangles {
		triangles = append(triangles, NewTriangle(verts[tri[0]], verts[tri[1]], verts[tri[2]]))
	}
	return NewMesh(NewZeroPose(), triangles)
}

// SampleSurface returns points covering every triangle of the mesh, in the mesh frame, with at
// most spacing between neighbours. Points on shared edges repeat.
func SampleSurface(m *Mesh, spacing float64) []r3.Vector {
	var out []r3.Vector
	for _, tri := range m.Triangles() {
		out = append(out, tri.SamplePoints(spacing)...)
	}
	return out
}
