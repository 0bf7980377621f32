// Package physics defines the rigid-body simulator used to settle hypothesised object placements.
package physics

import (
	"context"
	"sync"

	"github.com/pkg/errors"

	"go.viam.com/posesearch/spatialmath"
)

var (
	// ErrObjectExists is returned when an object is added under a name already in the simulation.
	ErrObjectExists = errors.New("object already exists in simulation")
	// ErrObjectNotFound is returned when an operation names an object that is not in the simulation.
	ErrObjectNotFound = errors.New("object not found in simulation")
)

// NewObjectExistsError wraps ErrObjectExists with the object name.
func NewObjectExistsError(name string) error {
	return errors.Wrapf(ErrObjectExists, "%q", name)
}

// NewObjectNotFoundError wraps ErrObjectNotFound with the object name.
func NewObjectNotFoundError(name string) error {
	return errors.Wrapf(ErrObjectNotFound, "%q", name)
}

// Simulator is a stateful rigid-body world. Objects are registered by name; a body with zero mass
// is static and never moves.
type Simulator interface {
	// AddObject registers a body with the given mesh, expressed in its own frame, at worldPose.
	AddObject(name string, mesh *spatialmath.Mesh, worldPose spatialmath.Pose, mass float64) error

	// Simulate advances the world by the given number of fixed steps.
	Simulate(steps int) error

	// Transform returns the current world pose of a body.
	Transform(name string) (spatialmath.Pose, error)

	// RemoveObject unregisters a body.
	RemoveObject(name string) error
}

// Handle provides exclusive access to a single Simulator.
type Handle struct {
	mu  sync.Mutex
	sim Simulator
}

// NewHandle wraps a simulator.
func NewHandle(sim Simulator) *Handle {
	return &Handle{sim: sim}
}

// Do runs fn with the simulator held. No other caller can touch the simulator until fn returns.
func (h *Handle) Do(ctx context.Context, fn func(Simulator) error) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(h.sim)
}
