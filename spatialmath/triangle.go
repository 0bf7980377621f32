package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
)

// Triangle is a single face of a Mesh.
type Triangle struct {
	p0 r3.Vector
	p1 r3.Vector
	p2 r3.Vector

	normal r3.Vector
}

// NewTriangle makes a triangle from three vertices, wound counter-clockwise around its normal.
func NewTriangle(p0, p1, p2 r3.Vector) *Triangle {
	return &Triangle{
		p0:     p0,
		p1:     p1,
		p2:     p2,
		normal: PlaneNormal(p0, p1, p2),
	}
}

// Points returns the three vertices.
func (t *Triangle) Points() []r3.Vector {
	return []r3.Vector{t.p0, t.p1, t.p2}
}

// Normal returns the unit face normal.
func (t *Triangle) Normal() r3.Vector {
	return t.normal
}

// Area returns the surface area of the triangle.
func (t *Triangle) Area() float64 {
	return 0.5 * t.p1.Sub(t.p0).Cross(t.p2.Sub(t.p0)).Norm()
}

// Transform returns a copy of the triangle with every vertex moved by the pose.
func (t *Triangle) Transform(p Pose) *Triangle {
	return NewTriangle(TransformPoint(p, t.p0), TransformPoint(p, t.p1), TransformPoint(p, t.p2))
}

// SamplePoints returns points covering the triangle on a barycentric grid whose spacing along
// the longest edge is at most spacing. The vertices are always included.
func (t *Triangle) SamplePoints(spacing float64) []r3.Vector {
	longest := math.Max(t.p1.Sub(t.p0).Norm(), math.Max(t.p2.Sub(t.p1).Norm(), t.p0.Sub(t.p2).Norm()))
	steps := 1
	if spacing > 0 {
		steps = int(math.Ceil(longest / spacing))
	}
	if steps < 1 {
		steps = 1
	}
	pts := make([]r3.Vector, 0, (steps+1)*(steps+2)/2)
	e0 := t.p1.Sub(t.p0)
	e1 := t.p2.Sub(t.p0)
	for i := 0; i <= steps; i++ {
		for j := 0; j <= steps-i; j++ {
			u := float64(i) / float64(steps)
			v := float64(j) / float64(steps)
			pts = append(pts, t.p0.Add(e0.Mul(u)).Add(e1.Mul(v)))
		}
	}
	return pts
}

// PlaneNormal returns the plane normal of the triangle defined by p0, p1, p2.
func PlaneNormal(p0, p1, p2 r3.Vector) r3.Vector {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}
