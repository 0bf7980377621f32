package state

import (
	"context"
	"math"

	"github.com/pkg/errors"

	"go.viam.com/posesearch/physics"
	"go.viam.com/posesearch/render"
	"go.viam.com/posesearch/rimage"
	"go.viam.com/posesearch/spatialmath"
)

// State is a hypothesis scored by rendering the whole scene from scratch. Lower scores are better.
type State struct {
	base

	HeuristicValue float64
	Score          float64

	scorer *AbsDiffScorer
}

// NewState returns an empty root state of a search placing numObjects objects.
func NewState(numObjects int, opts Options) *State {
	s := &State{
		base:           newBase(numObjects, opts),
		HeuristicValue: math.MaxInt32,
		Score:          math.MaxInt32,
	}
	s.scorer = NewAbsDiffScorer(s.opts.RenderedDepthScale)
	return s
}

// Scorer returns the scorer ComputeCost uses.
func (s *State) Scorer() Scorer {
	return s.scorer
}

// CopyParent takes the placed objects and id of parent. The parent is left untouched.
func (s *State) CopyParent(parent *State) {
	s.copyFrom(&parent.base)
}

// UpdateNewObject places obj at the hypothesised pose and sets the heuristic value from the
// hypothesis confidence and how far searchDepthBound lies beyond the object count.
func (s *State) UpdateNewObject(obj *Object, hyp Hypothesis, searchDepthBound int) {
	s.appendObject(obj, hyp.Pose)
	s.HeuristicValue = (1 - hyp.Confidence) * float64(searchDepthBound-s.totalObjectCount)
}

// Render draws every placed object from cameraPose. The returned depth is in the units ComputeCost
// expects for its rendered input, i.e. meters divided by the rendered depth scale.
func (s *State) Render(ctx context.Context, rh *render.Handle, cameraPose spatialmath.Pose) (*rimage.DepthMap, error) {
	meshes := make([]*spatialmath.Mesh, 0, len(s.objects))
	for _, po := range s.objects {
		meshes = append(meshes, s.worldMesh(po, cameraPose))
	}
	dm, err := rh.Render(ctx, cameraPose, meshes)
	if err != nil {
		return nil, errors.Wrapf(err, "rendering state %q", s.stateID)
	}
	s.writeDebugDepth(dm, batchDebugDir)
	if s.opts.RenderedDepthScale > 0 {
		dm.Scale(float32(1 / s.opts.RenderedDepthScale))
	}
	return dm, nil
}

// ComputeCost scores rendered against observed, stores the result in Score and returns it.
func (s *State) ComputeCost(rendered, observed *rimage.DepthMap) (float64, error) {
	score, err := s.scorer.Score(rendered, observed)
	if err != nil {
		return 0, err
	}
	s.Score = score
	s.logger.Debugw("computed cost", "state", s.stateID, "score", score)
	return score, nil
}

// PerformICP refines the pose of the last placed object against its whole observed segment.
func (s *State) PerformICP(ctx context.Context) error {
	return s.refineExhaustive(ctx)
}

// PerformTrimmedICP refines the pose of the last placed object using the closest fraction of its
// observed segment.
func (s *State) PerformTrimmedICP(ctx context.Context) error {
	return s.refineTrimmed(ctx, false)
}

// CorrectPhysics settles the last placed object under gravity for the batch number of steps.
func (s *State) CorrectPhysics(ctx context.Context, ph *physics.Handle, cameraPose spatialmath.Pose) error {
	return s.correctPhysics(ctx, ph, cameraPose, s.opts.BatchSimulationSteps)
}
