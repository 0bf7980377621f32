package spatialmath

import (
	"github.com/golang/geo/r3"
)

// Mesh is a set of triangles placed in some frame by a pose. Triangle points are expressed in
// the frame of the mesh, like the corners of a box, so moving a mesh only changes its pose.
type Mesh struct {
	pose      Pose
	triangles []*Triangle
}

// NewMesh creates a mesh whose triangles are expressed relative to pose.
func NewMesh(pose Pose, triangles []*Triangle) *Mesh {
	if pose == nil {
		pose = NewZeroPose()
	}
	return &Mesh{
		pose:      pose,
		triangles: triangles,
	}
}

// Pose returns the pose of the mesh frame.
func (m *Mesh) Pose() Pose {
	return m.pose
}

// Triangles returns the triangles in the mesh frame.
func (m *Mesh) Triangles() []*Triangle {
	return m.triangles
}

// Transform returns a new mesh sharing the same triangles, moved by pose.
func (m *Mesh) Transform(pose Pose) *Mesh {
	return &Mesh{
		pose:      Compose(pose, m.pose),
		triangles: m.triangles,
	}
}

// WorldTriangles returns the triangles with the mesh pose applied.
func (m *Mesh) WorldTriangles() []*Triangle {
	out := make([]*Triangle, 0, len(m.triangles))
	for _, tri := range m.triangles {
		out = append(out, tri.Transform(m.pose))
	}
	return out
}

// Vertices returns every triangle vertex with the mesh pose applied. Shared vertices repeat.
func (m *Mesh) Vertices() []r3.Vector {
	out := make([]r3.Vector, 0, 3*len(m.triangles))
	for _, tri := range m.triangles {
		for _, pt := range tri.Points() {
			out = append(out, TransformPoint(m.pose, pt))
		}
	}
	return out
}
