// Package fake implements an in-memory Simulator that settles bodies straight down under gravity.
package fake

import (
	"math"
	"sort"
	"sync"

	"github.com/golang/geo/r3"
	"github.com/samber/lo"

	"go.viam.com/posesearch/physics"
	"go.viam.com/posesearch/spatialmath"
)

// Body is a registered object.
type Body struct {
	Name string
	Mesh *spatialmath.Mesh
	Pose spatialmath.Pose
	Mass float64
}

// Static reports whether the body never moves.
func (b *Body) Static() bool {
	return b.Mass <= 0
}

// SettleFunc moves the dynamic bodies for the given number of steps. Bodies are in name order.
type SettleFunc func(bodies []*Body, steps int)

// Simulator is a fake physics.Simulator. Its exported fields may be set before use to change
// behavior or inject failures.
type Simulator struct {
	mu     sync.Mutex
	bodies map[string]*Body

	// Settle replaces the default gravity drop when set.
	Settle SettleFunc
	// FloorZ is the height of the ground plane in the world frame.
	FloorZ float64

	// Failures returned by the matching operation when non-nil.
	AddErr       error
	SimulateErr  error
	TransformErr error
	RemoveErr    error
	// AddErrAfter delays AddErr until this many bodies have been added.
	AddErrAfter int

	AddCount      int
	SimulateCount int
	StepCount     int
	RemoveCount   int
}

// NewSimulator returns an empty simulator with its floor at z = 0.
func NewSimulator() *Simulator {
	return &Simulator{bodies: map[string]*Body{}}
}

// AddObject registers a body.
func (s *Simulator) AddObject(name string, mesh *spatialmath.Mesh, worldPose spatialmath.Pose, mass float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.AddErr != nil && s.AddCount >= s.AddErrAfter {
		return s.AddErr
	}
	if _, ok := s.bodies[name]; ok {
		return physics.NewObjectExistsError(name)
	}
	s.bodies[name] = &Body{Name: name, Mesh: mesh, Pose: worldPose, Mass: mass}
	s.AddCount++
	return nil
}

// Simulate runs the settle function over every body.
func (s *Simulator) Simulate(steps int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SimulateErr != nil {
		return s.SimulateErr
	}
	s.SimulateCount++
	s.StepCount += steps
	if steps <= 0 {
		return nil
	}
	bodies := s.sortedBodies()
	if s.Settle != nil {
		s.Settle(bodies, steps)
		return nil
	}
	s.dropToRest(bodies)
	return nil
}

// Transform returns the current world pose of a body.
func (s *Simulator) Transform(name string) (spatialmath.Pose, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.TransformErr != nil {
		return nil, s.TransformErr
	}
	b, ok := s.bodies[name]
	if !ok {
		return nil, physics.NewObjectNotFoundError(name)
	}
	return b.Pose, nil
}

// RemoveObject unregisters a body.
func (s *Simulator) RemoveObject(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.RemoveErr != nil {
		return s.RemoveErr
	}
	if _, ok := s.bodies[name]; !ok {
		return physics.NewObjectNotFoundError(name)
	}
	delete(s.bodies, name)
	s.RemoveCount++
	return nil
}

// Names returns the registered body names in sorted order.
func (s *Simulator) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	names := lo.Keys(s.bodies)
	sort.Strings(names)
	return names
}

// Len returns the number of registered bodies.
func (s *Simulator) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

func (s *Simulator) sortedBodies() []*Body {
	names := lo.Keys(s.bodies)
	sort.Strings(names)
	return lo.Map(names, func(n string, _ int) *Body { return s.bodies[n] })
}

type bounds struct {
	min, max r3.Vector
}

func worldBounds(b *Body) bounds {
	out := bounds{
		min: r3.Vector{X: math.Inf(1), Y: math.Inf(1), Z: math.Inf(1)},
		max: r3.Vector{X: math.Inf(-1), Y: math.Inf(-1), Z: math.Inf(-1)},
	}
	if b.Mesh == nil {
		p := b.Pose.Point()
		return bounds{min: p, max: p}
	}
	for _, v := range b.Mesh.Transform(b.Pose).Vertices() {
		out.min = r3.Vector{X: math.Min(out.min.X, v.X), Y: math.Min(out.min.Y, v.Y), Z: math.Min(out.min.Z, v.Z)}
		out.max = r3.Vector{X: math.Max(out.max.X, v.X), Y: math.Max(out.max.Y, v.Y), Z: math.Max(out.max.Z, v.Z)}
	}
	return out
}

func overlapsXY(a, b bounds) bool {
	return a.min.X < b.max.X && b.min.X < a.max.X && a.min.Y < b.max.Y && b.min.Y < a.max.Y
}

// dropToRest translates each dynamic body vertically, keeping its orientation, until its lowest
// point rests on the floor or on the highest body below it that it overlaps in x and y. Bodies
// are settled lowest first so stacks resolve bottom up.
func (s *Simulator) dropToRest(bodies []*Body) {
	dynamic := lo.Filter(bodies, func(b *Body, _ int) bool { return !b.Static() })
	sort.SliceStable(dynamic, func(i, j int) bool {
		return worldBounds(dynamic[i]).min.Z < worldBounds(dynamic[j]).min.Z
	})
	settled := lo.Filter(bodies, func(b *Body, _ int) bool { return b.Static() })

	for _, b := range dynamic {
		bb := worldBounds(b)
		rest := s.FloorZ
		for _, other := range settled {
			ob := worldBounds(other)
			if overlapsXY(bb, ob) && ob.max.Z <= bb.max.Z && ob.max.Z > rest {
				rest = ob.max.Z
			}
		}
		shift := spatialmath.NewPoseFromPoint(r3.Vector{Z: rest - bb.min.Z})
		b.Pose = spatialmath.Compose(shift, b.Pose)
		settled = append(settled, b)
	}
}
