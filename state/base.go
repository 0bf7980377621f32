package state

import (
	"fmt"

	"go.viam.com/posesearch/logging"
	"go.viam.com/posesearch/spatialmath"
)

// base is the ordered partial placement shared by both state kinds.
type base struct {
	objects          []PlacedObject
	totalObjectCount int
	stateID          string
	opts             Options
	logger           logging.Logger
}

func newBase(totalObjectCount int, opts Options) base {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewBlankLogger("state")
		opts.Logger = logger
	}
	return base{
		totalObjectCount: totalObjectCount,
		opts:             opts,
		logger:           logger,
	}
}

// Objects returns a copy of the placed objects in placement order.
func (b *base) Objects() []PlacedObject {
	return append([]PlacedObject(nil), b.objects...)
}

// NumObjects returns how many objects have been placed.
func (b *base) NumObjects() int {
	return len(b.objects)
}

// TotalObjectCount returns how many objects the search places in total.
func (b *base) TotalObjectCount() int {
	return b.totalObjectCount
}

// StateID returns the path of child indices leading from the root to this state.
func (b *base) StateID() string {
	return b.stateID
}

// UpdateStateID appends a child index to the state id.
func (b *base) UpdateStateID(childIndex int) {
	b.stateID = fmt.Sprintf("%s_%d", b.stateID, childIndex)
}

// copyFrom takes the placed objects and id of parent without sharing storage with it.
func (b *base) copyFrom(parent *base) {
	b.objects = append(make([]PlacedObject, 0, len(parent.objects)+1), parent.objects...)
	b.stateID = parent.stateID
}

func (b *base) appendObject(obj *Object, pose spatialmath.Pose) {
	b.objects = append(b.objects, PlacedObject{Object: obj, Pose: pose})
}

// empty reports whether refinement and correction have nothing to act on.
func (b *base) empty() bool {
	return len(b.objects) == 0 || b.totalObjectCount == 0
}

func (b *base) worldMesh(po PlacedObject, cameraPose spatialmath.Pose) *spatialmath.Mesh {
	return po.Object.Mesh.Transform(spatialmath.CameraToWorld(po.Pose, cameraPose))
}
