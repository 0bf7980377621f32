package state

import (
	"context"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"go.viam.com/posesearch/pointcloud"
	"go.viam.com/posesearch/spatialmath"
	"go.viam.com/posesearch/utils"
)

// RemoveExplainedPoints returns the points of segment farther than radius from every model point
// of the placed objects. Models are moved into the camera frame by each object's pose first.
// With nothing placed the result holds exactly the points of segment.
func RemoveExplainedPoints(
	ctx context.Context,
	segment pointcloud.PointCloud,
	placed []PlacedObject,
	radius float64,
) (pointcloud.PointCloud, error) {
	if len(placed) == 0 || segment.Size() == 0 {
		return pointcloud.Merge(segment), nil
	}
	models := make([]pointcloud.PointCloud, 0, len(placed))
	for _, po := range placed {
		models = append(models, pointcloud.Transform(po.Object.Model, po.Pose))
	}
	explainers := pointcloud.ToKDTree(pointcloud.Merge(models...))

	explained := make([]bool, segment.Size())
	err := utils.GroupWorkParallel(
		ctx,
		segment.Size(),
		nil,
		func(groupNum, groupSize, from, to int) (utils.MemberWorkFunc, utils.GroupWorkDoneFunc) {
			return func(memberNum, workNum int) {
				explained[workNum] = explainers.HasNeighborWithin(segment.At(workNum), radius)
			}, nil
		},
	)
	if err != nil {
		return nil, err
	}
	return pointcloud.Filter(segment, func(i int, _ r3.Vector) bool {
		return !explained[i]
	}), nil
}

// refineExhaustive aligns the last placed object's model, posed in the camera frame, to its whole
// observed segment and composes the correction onto its pose.
func (b *base) refineExhaustive(ctx context.Context) error {
	if b.empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	last := &b.objects[len(b.objects)-1]
	segment := last.Object.Segment
	if segment == nil || segment.Size() < b.minUnexplained() {
		return ErrRefinementSkipped
	}

	source := pointcloud.Transform(last.Object.Model, last.Pose)
	correction, result, err := pointcloud.RegisterICP(source, last.Object.SegmentKDTree(), nil, b.opts.ICP)
	if err != nil {
		return errors.Wrapf(err, "aligning %q", last.Object.Name)
	}
	b.logger.Debugw("exhaustive alignment done",
		"state", b.stateID,
		"object", last.Object.Name,
		"iterations", result.Iterations,
		"converged", result.Converged,
		"residual", result.MeanResidual,
	)
	b.writeDebugCloud(source, last.Object.Name+"_Premodel")
	last.Pose = spatialmath.Compose(correction, last.Pose)
	b.writeDebugCloud(pointcloud.Transform(last.Object.Model, last.Pose), last.Object.Name+"_Postmodel")
	return nil
}

// refineTrimmed aligns the last placed object's observed segment to its model using only the
// closest fraction of points. When excludeExplained is set, segment points already explained by
// the earlier placed objects are dropped first.
func (b *base) refineTrimmed(ctx context.Context, excludeExplained bool) error {
	if b.empty() {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	lastIdx := len(b.objects) - 1
	last := &b.objects[lastIdx]
	segment := last.Object.Segment
	if segment == nil {
		return ErrRefinementSkipped
	}

	unexplained := segment
	if excludeExplained && lastIdx > 0 {
		var err error
		unexplained, err = RemoveExplainedPoints(ctx, segment, b.objects[:lastIdx], b.opts.PointRemovalRadius)
		if err != nil {
			return err
		}
		b.logger.Debugw("removed explained points",
			"state", b.stateID,
			"object", last.Object.Name,
			"segment", segment.Size(),
			"unexplained", unexplained.Size(),
		)
	}
	if unexplained.Size() < b.minUnexplained() {
		return ErrRefinementSkipped
	}
	numPoints := int(b.opts.TrimFraction * float64(unexplained.Size()))
	if numPoints < b.minUnexplained() {
		return ErrRefinementSkipped
	}

	b.writeDebugCloud(unexplained, last.Object.Name+"_segment")
	b.writeDebugCloud(pointcloud.Transform(unexplained, spatialmath.PoseInverse(last.Pose)), last.Object.Name+"_Presegment")

	toModel, result, err := pointcloud.RegisterTrimmedICP(
		unexplained,
		last.Object.ModelKDTree(),
		numPoints,
		spatialmath.PoseInverse(last.Pose),
		b.opts.TrimmedICP,
	)
	if err != nil {
		return errors.Wrapf(err, "trimmed alignment of %q", last.Object.Name)
	}
	b.logger.Debugw("trimmed alignment done",
		"state", b.stateID,
		"object", last.Object.Name,
		"points", numPoints,
		"iterations", result.Iterations,
		"converged", result.Converged,
		"residual", result.MeanResidual,
	)
	last.Pose = spatialmath.PoseInverse(toModel)
	b.writeDebugCloud(pointcloud.Transform(unexplained, toModel), last.Object.Name+"_Postsegment")
	return nil
}

// minAlignmentPoints is the fewest points that fix a rigid transform.
const minAlignmentPoints = 3

func (b *base) minUnexplained() int {
	if b.opts.MinUnexplainedPoints < minAlignmentPoints {
		return minAlignmentPoints
	}
	return b.opts.MinUnexplainedPoints
}
