package physics_test

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/posesearch/physics"
	"go.viam.com/posesearch/physics/fake"
	"go.viam.com/posesearch/spatialmath"
)

func TestHandleDo(t *testing.T) {
	sim := fake.NewSimulator()
	h := physics.NewHandle(sim)

	err := h.Do(context.Background(), func(s physics.Simulator) error {
		return s.AddObject("a", nil, spatialmath.NewZeroPose(), 0)
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, sim.Len(), test.ShouldEqual, 1)

	bad := errors.New("bad")
	err = h.Do(context.Background(), func(s physics.Simulator) error { return bad })
	test.That(t, err, test.ShouldEqual, bad)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err = h.Do(ctx, func(s physics.Simulator) error {
		called = true
		return nil
	})
	test.That(t, err, test.ShouldBeError, context.Canceled)
	test.That(t, called, test.ShouldBeFalse)
}

func TestErrors(t *testing.T) {
	test.That(t, errors.Is(physics.NewObjectExistsError("x"), physics.ErrObjectExists), test.ShouldBeTrue)
	test.That(t, errors.Is(physics.NewObjectNotFoundError("x"), physics.ErrObjectNotFound), test.ShouldBeTrue)
	test.That(t, physics.NewObjectNotFoundError("x").Error(), test.ShouldContainSubstring, `"x"`)
}

func TestFakeSimulatorRegistry(t *testing.T) {
	sim := fake.NewSimulator()
	box := spatialmath.NewBoxMesh(r3.Vector{X: 0.1, Y: 0.1, Z: 0.1})

	test.That(t, sim.AddObject("b", box, spatialmath.NewZeroPose(), 10), test.ShouldBeNil)
	test.That(t, sim.AddObject("a", box, spatialmath.NewZeroPose(), 0), test.ShouldBeNil)
	err := sim.AddObject("a", box, spatialmath.NewZeroPose(), 0)
	test.That(t, errors.Is(err, physics.ErrObjectExists), test.ShouldBeTrue)
	test.That(t, sim.Names(), test.ShouldResemble, []string{"a", "b"})

	_, err = sim.Transform("missing")
	test.That(t, errors.Is(err, physics.ErrObjectNotFound), test.ShouldBeTrue)
	err = sim.RemoveObject("missing")
	test.That(t, errors.Is(err, physics.ErrObjectNotFound), test.ShouldBeTrue)

	test.That(t, sim.RemoveObject("a"), test.ShouldBeNil)
	test.That(t, sim.RemoveObject("b"), test.ShouldBeNil)
	test.That(t, sim.Len(), test.ShouldEqual, 0)
	test.That(t, sim.AddCount, test.ShouldEqual, 2)
	test.That(t, sim.RemoveCount, test.ShouldEqual, 2)
}

func TestFakeSimulatorDrop(t *testing.T) {
	sim := fake.NewSimulator()
	box := spatialmath.NewBoxMesh(r3.Vector{X: 0.1, Y: 0.1, Z: 0.1})
	table := spatialmath.NewBoxMesh(r3.Vector{X: 1, Y: 1, Z: 0.2})
	tilt := &spatialmath.R4AA{Theta: 0.3, RX: 0, RY: 0, RZ: 1}

	test.That(t, sim.AddObject("table", table, spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.1}), 0), test.ShouldBeNil)
	test.That(t, sim.AddObject("onTable", box, spatialmath.NewPose(r3.Vector{Z: 0.5}, tilt), 10), test.ShouldBeNil)
	test.That(t, sim.AddObject("offTable", box, spatialmath.NewPoseFromPoint(r3.Vector{X: 2, Z: 0.3}), 10), test.ShouldBeNil)
	test.That(t, sim.AddObject("stacked", box, spatialmath.NewPoseFromPoint(r3.Vector{Z: 0.9}), 10), test.ShouldBeNil)

	// zero steps leaves everything in place
	test.That(t, sim.Simulate(0), test.ShouldBeNil)
	p, err := sim.Transform("onTable")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Point().Z, test.ShouldAlmostEqual, 0.5)

	test.That(t, sim.Simulate(60), test.ShouldBeNil)
	test.That(t, sim.SimulateCount, test.ShouldEqual, 2)
	test.That(t, sim.StepCount, test.ShouldEqual, 60)

	p, err = sim.Transform("table")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Point().Z, test.ShouldAlmostEqual, 0.1)

	p, err = sim.Transform("onTable")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Point().Z, test.ShouldAlmostEqual, 0.25)
	test.That(t, spatialmath.OrientationAlmostEqual(p.Orientation(), tilt), test.ShouldBeTrue)

	p, err = sim.Transform("offTable")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Point().Z, test.ShouldAlmostEqual, 0.05)
	test.That(t, p.Point().X, test.ShouldAlmostEqual, 2)

	p, err = sim.Transform("stacked")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, p.Point().Z, test.ShouldAlmostEqual, 0.35)
}

func TestFakeSimulatorInjectedFailures(t *testing.T) {
	sim := fake.NewSimulator()
	bad := errors.New("bad")
	sim.SimulateErr = bad
	test.That(t, sim.Simulate(10), test.ShouldEqual, bad)
	sim.AddErr = bad
	test.That(t, sim.AddObject("a", nil, spatialmath.NewZeroPose(), 1), test.ShouldEqual, bad)
	test.That(t, sim.Len(), test.ShouldEqual, 0)
}

func TestFakeSimulatorCustomSettle(t *testing.T) {
	sim := fake.NewSimulator()
	var seen []string
	sim.Settle = func(bodies []*fake.Body, steps int) {
		for _, b := range bodies {
			seen = append(seen, b.Name)
		}
	}
	test.That(t, sim.AddObject("z", nil, spatialmath.NewZeroPose(), 1), test.ShouldBeNil)
	test.That(t, sim.AddObject("y", nil, spatialmath.NewZeroPose(), 0), test.ShouldBeNil)
	test.That(t, sim.Simulate(5), test.ShouldBeNil)
	test.That(t, seen, test.ShouldResemble, []string{"y", "z"})
}
