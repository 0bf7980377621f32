package state

import (
	"context"

	"github.com/pkg/errors"
	"go.uber.org/atomic"
	"golang.org/x/sync/errgroup"

	"go.viam.com/posesearch/utils"
)

// RefineChildren runs trimmed refinement on every existing child at once and returns how many
// were refined. A child that skips refinement keeps its pose and is not counted. Any other
// failure cancels the remaining work.
//
// Children own their placements, so they can be refined concurrently; rendering and physics
// still go through their handles one at a time.
func (u *UCTState) RefineChildren(ctx context.Context) (int, error) {
	var refined atomic.Int64
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(utils.ParallelFactor)
	for _, child := range u.children {
		if child == nil {
			continue
		}
		group.Go(func() error {
			err := child.PerformTrimmedICP(groupCtx)
			switch {
			case err == nil:
				refined.Inc()
				return nil
			case errors.Is(err, ErrRefinementSkipped):
				child.logger.Debugw("refinement skipped", "state", child.stateID)
				return nil
			default:
				return err
			}
		})
	}
	err := group.Wait()
	return int(refined.Load()), err
}
