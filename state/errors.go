package state

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	// ErrRefinementSkipped is returned when too few segment points remain to align against.
	ErrRefinementSkipped = errors.New("refinement skipped: not enough unexplained segment points")
	// ErrSimulatorDesync is returned when the simulator already holds, or has lost, a body this
	// call manages. It means an earlier caller did not clean up.
	ErrSimulatorDesync = errors.New("physics simulator out of sync")
	// ErrNoChildren is returned by best-child selection when no child can be selected.
	ErrNoChildren = errors.New("no selectable child")
)

// simulatorDesyncError is both an ErrSimulatorDesync and the simulator's own error.
type simulatorDesyncError struct {
	op  string
	err error
}

func newSimulatorDesyncError(op string, err error) error {
	return &simulatorDesyncError{op: op, err: err}
}

func (e *simulatorDesyncError) Error() string {
	return fmt.Sprintf("%s: %s: %s", ErrSimulatorDesync, e.op, e.err)
}

func (e *simulatorDesyncError) Unwrap() error {
	return e.err
}

func (e *simulatorDesyncError) Is(target error) bool {
	return target == ErrSimulatorDesync
}
