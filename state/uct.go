package state

import (
	"context"
	"math"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"go.viam.com/posesearch/config"
	"go.viam.com/posesearch/physics"
	"go.viam.com/posesearch/render"
	"go.viam.com/posesearch/rimage"
	"go.viam.com/posesearch/spatialmath"
)

// UCTState is a node of the Monte Carlo search tree. It keeps the depth composite of every object
// placed along its path, updated only with the newest object, and scores it by counting pixels that
// agree with the observation. Higher scores are better.
//
// A node owns its children. The parent link is a back reference only.
type UCTState struct {
	base

	// QValue is the reward accumulated over all visits.
	QValue float64
	// Visits counts how often the node was visited.
	Visits      int
	RenderScore float64

	depth     *rimage.DepthMap
	branching int
	expanded  []bool
	priors    []float64
	children  []*UCTState
	parent    *UCTState
	scorer    *MatchCountScorer
}

// Selection is the outcome of best-child selection.
type Selection struct {
	Child *UCTState
	Index int
	// Value is the UCB1 value of the child, +Inf when it was picked for having no visits.
	Value float64
	// Unvisited is set when the child was picked because it has never been visited.
	Unvisited bool
}

// NewUCTState returns a node with room for branching children below parent, which may be nil for
// the root. Its depth composite starts empty at the configured image size.
func NewUCTState(numObjects, branching int, parent *UCTState, opts Options) *UCTState {
	if branching < 0 {
		branching = 0
	}
	u := &UCTState{
		base:        newBase(numObjects, opts),
		RenderScore: math.MaxInt32,
		branching:   branching,
		expanded:    make([]bool, branching),
		priors:      make([]float64, branching),
		children:    make([]*UCTState, branching),
		parent:      parent,
	}
	u.depth = rimage.NewEmptyDepthMap(u.opts.ImageWidth, u.opts.ImageHeight)
	u.scorer = NewMatchCountScorer(u.opts.ExplanationThreshold)
	return u
}

// Scorer returns the scorer ComputeCost uses.
func (u *UCTState) Scorer() Scorer {
	return u.scorer
}

// CopyParent takes the placed objects, id and depth composite of parent. The parent is left
// untouched.
func (u *UCTState) CopyParent(parent *UCTState) {
	u.copyFrom(&parent.base)
	u.depth = parent.depth.Clone()
}

// UpdateNewObject places obj at pose.
func (u *UCTState) UpdateNewObject(obj *Object, pose spatialmath.Pose) {
	u.appendObject(obj, pose)
}

// Depth returns the node's depth composite in meters.
func (u *UCTState) Depth() *rimage.DepthMap {
	return u.depth
}

// Render draws only the last placed object and composites it into the node's depth, keeping the
// nearer return wherever the new render hits.
func (u *UCTState) Render(ctx context.Context, rh *render.Handle, cameraPose spatialmath.Pose) error {
	if len(u.objects) == 0 {
		return nil
	}
	last := u.objects[len(u.objects)-1]
	dm, err := rh.Render(ctx, cameraPose, []*spatialmath.Mesh{u.worldMesh(last, cameraPose)})
	if err != nil {
		return errors.Wrapf(err, "rendering state %q", u.stateID)
	}
	if err := u.depth.CompositeNearest(dm); err != nil {
		return err
	}
	u.writeDebugDepth(u.depth, treeDebugDir)
	return nil
}

// ComputeCost scores the depth composite against observed, stores the result in RenderScore and
// returns it.
func (u *UCTState) ComputeCost(observed *rimage.DepthMap) (float64, error) {
	score, err := u.scorer.Score(u.depth, observed)
	if err != nil {
		return 0, err
	}
	u.RenderScore = score
	u.logger.Debugw("computed render score", "state", u.stateID, "score", score)
	return score, nil
}

// PerformTrimmedICP refines the pose of the last placed object against the part of its segment
// not already explained by the objects placed before it.
func (u *UCTState) PerformTrimmedICP(ctx context.Context) error {
	return u.refineTrimmed(ctx, true)
}

// CorrectPhysics settles the last placed object under gravity for the tree number of steps.
func (u *UCTState) CorrectPhysics(ctx context.Context, ph *physics.Handle, cameraPose spatialmath.Pose) error {
	return u.correctPhysics(ctx, ph, cameraPose, u.opts.TreeSimulationSteps)
}

// BranchingFactor returns the fixed number of child slots.
func (u *UCTState) BranchingFactor() int {
	return u.branching
}

// Parent returns the node this one was expanded from, or nil for the root.
func (u *UCTState) Parent() *UCTState {
	return u.parent
}

// Children returns the child slots. Slots not yet expanded are nil.
func (u *UCTState) Children() []*UCTState {
	return append([]*UCTState(nil), u.children...)
}

func (u *UCTState) checkIndex(i int) error {
	if i < 0 || i >= u.branching {
		return errors.Errorf("child index %d out of range [0, %d)", i, u.branching)
	}
	return nil
}

// IsFullyExpanded reports whether every child slot has been expanded.
func (u *UCTState) IsFullyExpanded() bool {
	return lo.EveryBy(u.expanded, func(e bool) bool { return e })
}

// IsExpanded reports whether child slot i has been expanded.
func (u *UCTState) IsExpanded(i int) bool {
	return u.checkIndex(i) == nil && u.expanded[i]
}

// MarkExpanded flags child slot i as expanded.
func (u *UCTState) MarkExpanded(i int) error {
	if err := u.checkIndex(i); err != nil {
		return err
	}
	u.expanded[i] = true
	return nil
}

// AddChild stores child in slot i and flags the slot as expanded.
func (u *UCTState) AddChild(i int, child *UCTState) error {
	if err := u.checkIndex(i); err != nil {
		return err
	}
	if child == nil {
		return errors.New("cannot add a nil child")
	}
	if u.children[i] != nil {
		return errors.Errorf("child slot %d already holds state %q", i, u.children[i].stateID)
	}
	child.parent = u
	u.children[i] = child
	u.expanded[i] = true
	return nil
}

// Expand creates the child in slot i placing obj at pose, with room for childBranching children
// of its own.
func (u *UCTState) Expand(i int, obj *Object, pose spatialmath.Pose, childBranching int) (*UCTState, error) {
	if err := u.checkIndex(i); err != nil {
		return nil, err
	}
	child := NewUCTState(u.totalObjectCount, childBranching, u, u.opts)
	child.CopyParent(u)
	child.UpdateStateID(i)
	child.UpdateNewObject(obj, pose)
	if err := u.AddChild(i, child); err != nil {
		return nil, err
	}
	return child, nil
}

// UpdateChildHeuristicPriors stores the confidence of each candidate as the prior of the child slot
// with the same index. Candidates beyond the branching factor are ignored.
func (u *UCTState) UpdateChildHeuristicPriors(candidates []Hypothesis) {
	if len(u.priors) == 0 {
		return
	}
	if len(candidates) > len(u.priors) {
		u.logger.Warnw("more candidates than child slots",
			"state", u.stateID, "candidates", len(candidates), "slots", len(u.priors))
		candidates = candidates[:len(u.priors)]
	}
	for i, c := range candidates {
		u.priors[i] = c.Confidence
	}
}

// HeuristicPriors returns a copy of the per child priors.
func (u *UCTState) HeuristicPriors() []float64 {
	return append([]float64(nil), u.priors...)
}

// RecordVisit counts a visit and accumulates its reward.
func (u *UCTState) RecordVisit(reward float64) {
	u.Visits++
	u.QValue += reward
}

// MeanReward returns the average reward per visit, zero before the first visit.
func (u *UCTState) MeanReward() float64 {
	if u.Visits == 0 {
		return 0
	}
	return u.QValue / float64(u.Visits)
}

// ucb returns the UCB1 value of a visited child under a parent visited parentVisits times.
func (u *UCTState) ucb(parentVisits int, exploration float64) float64 {
	explore := 0.0
	if parentVisits > 0 {
		explore = exploration * math.Sqrt(2*math.Log(float64(parentVisits))/float64(u.Visits))
	}
	return u.MeanReward() + explore
}

// BestChild selects a child by UCB1 using this node's visit count as the parent count. The
// highest value wins, the first child on ties. Children that were never visited are taken first
// under the prefer policy and skipped under the ignore policy.
func (u *UCTState) BestChild() (Selection, error) {
	best := Selection{Index: -1, Value: math.Inf(-1)}
	for i, child := range u.children {
		if child == nil {
			continue
		}
		if child.Visits == 0 {
			if u.opts.UnvisitedPolicy == config.UnvisitedIgnore {
				continue
			}
			best = Selection{Child: child, Index: i, Value: math.Inf(1), Unvisited: true}
			break
		}
		if v := child.ucb(u.Visits, u.opts.ExplorationConstant); v > best.Value {
			best = Selection{Child: child, Index: i, Value: v}
		}
	}
	if best.Child == nil {
		return Selection{Index: -1}, ErrNoChildren
	}
	u.logger.Debugw("best child", "state", u.stateID, "index", best.Index, "value", best.Value,
		"unvisited", best.Unvisited)
	return best, nil
}
