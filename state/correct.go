package state

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/multierr"

	"go.viam.com/posesearch/physics"
	"go.viam.com/posesearch/spatialmath"
)

// correctPhysics settles the last placed object on top of the others, which are held static, and
// stores its resting pose. Every body added here is removed again before returning.
func (b *base) correctPhysics(ctx context.Context, ph *physics.Handle, cameraPose spatialmath.Pose, steps int) error {
	if b.empty() {
		return nil
	}
	lastIdx := len(b.objects) - 1
	last := b.objects[lastIdx]

	var corrected spatialmath.Pose
	err := ph.Do(ctx, func(sim physics.Simulator) (err error) {
		added := make([]string, 0, len(b.objects))
		defer func() {
			for _, name := range added {
				if rmErr := sim.RemoveObject(name); rmErr != nil {
					err = multierr.Combine(err, simulatorError("remove", rmErr))
				}
			}
		}()

		for i, po := range b.objects {
			mass := 0.0
			if i == lastIdx {
				mass = b.opts.DynamicMass
			}
			worldPose := spatialmath.CameraToWorld(po.Pose, cameraPose)
			if err := sim.AddObject(po.Object.Name, po.Object.Mesh, worldPose, mass); err != nil {
				return simulatorError("add", err)
			}
			added = append(added, po.Object.Name)
		}

		if err := sim.Simulate(steps); err != nil {
			return errors.Wrapf(err, "simulating %d steps", steps)
		}
		worldPose, err := sim.Transform(last.Object.Name)
		if err != nil {
			return simulatorError("transform", err)
		}
		corrected = spatialmath.WorldToCamera(worldPose, cameraPose)
		return nil
	})
	if err != nil {
		return err
	}

	b.logger.Debugw("physics correction",
		"state", b.stateID,
		"object", last.Object.Name,
		"steps", steps,
		"in", spatialmath.PoseToMatrix(last.Pose),
		"out", spatialmath.PoseToMatrix(corrected),
	)
	b.objects[lastIdx].Pose = corrected
	return nil
}

// simulatorError marks registry failures as a desync and wraps anything else.
func simulatorError(op string, err error) error {
	if errors.Is(err, physics.ErrObjectExists) || errors.Is(err, physics.ErrObjectNotFound) {
		return newSimulatorDesyncError(op, err)
	}
	return errors.Wrap(err, op)
}
