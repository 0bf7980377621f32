// Package state implements the hypothesis states searched over when placing several known rigid
// objects in an observed scene: the batch State scored against a full render, and the UCTState
// tree node that renders incrementally and carries Monte Carlo tree search bookkeeping.
//
// Object poses are stored in the camera frame. The renderer and the physics simulator work in
// the world frame, so every call that reaches them takes the camera pose in the world.
package state

import (
	"sync"

	"go.viam.com/posesearch/pointcloud"
	"go.viam.com/posesearch/spatialmath"
)

// Object is a catalog entry for one known object in the current scene. It is shared read-only by
// every state that places it.
type Object struct {
	Name string
	// Mesh is the canonical mesh in the object's own frame.
	Mesh *spatialmath.Mesh
	// Model is the canonical point cloud in the object's own frame.
	Model pointcloud.PointCloud
	// Segment is the observed point cloud attributed to this object, in the camera frame.
	Segment pointcloud.PointCloud

	modelOnce sync.Once
	modelKD   *pointcloud.KDTree
	segOnce   sync.Once
	segKD     *pointcloud.KDTree
}

// NewObject returns a catalog entry.
func NewObject(name string, mesh *spatialmath.Mesh, model, segment pointcloud.PointCloud) *Object {
	return &Object{Name: name, Mesh: mesh, Model: model, Segment: segment}
}

// ModelKDTree returns the spatial index over the canonical model, built on first use.
func (o *Object) ModelKDTree() *pointcloud.KDTree {
	o.modelOnce.Do(func() { o.modelKD = pointcloud.ToKDTree(o.Model) })
	return o.modelKD
}

// SegmentKDTree returns the spatial index over the observed segment, built on first use.
func (o *Object) SegmentKDTree() *pointcloud.KDTree {
	o.segOnce.Do(func() { o.segKD = pointcloud.ToKDTree(o.Segment) })
	return o.segKD
}

// PlacedObject is an object at a pose in the camera frame.
type PlacedObject struct {
	Object *Object
	Pose   spatialmath.Pose
}

// Hypothesis is a candidate pose for an object with the generator's confidence in it.
type Hypothesis struct {
	Pose       spatialmath.Pose
	Confidence float64
}
