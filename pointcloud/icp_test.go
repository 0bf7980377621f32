package pointcloud

import (
	"testing"

	"github.com/golang/geo/r3"
	"go.viam.com/test"

	"go.viam.com/posesearch/spatialmath"
)

func TestRegisterICPEmpty(t *testing.T) {
	_, _, err := RegisterICP(New(), ToKDTree(MakeTestPointCloud()), nil, ICPConfig{MaxIterations: 5})
	test.That(t, err, test.ShouldBeError, ErrEmptyCloud)
	_, _, err = RegisterTrimmedICP(MakeTestPointCloud(), ToKDTree(New()), 3, nil, TrimmedICPConfig{MaxIterations: 5})
	test.That(t, err, test.ShouldBeError, ErrEmptyCloud)
}

func TestEstimateRigidTransform(t *testing.T) {
	truth := spatialmath.NewPose(
		r3.Vector{X: 0.1, Y: -0.2, Z: 0.05},
		&spatialmath.R4AA{Theta: 0.7, RX: 0.2, RY: 1, RZ: 0.3},
	)
	src := MakeRandomBox(50, r3.Vector{X: 0.2, Y: 0.1, Z: 0.3}, 3)
	pairs := make([]correspondence, 0, src.Size())
	src.Iterate(0, 0, func(_ int, p r3.Vector) bool {
		pairs = append(pairs, correspondence{source: p, target: spatialmath.TransformPoint(truth, p)})
		return true
	})
	got, err := estimateRigidTransform(pairs)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, spatialmath.PoseAlmostEqualEps(got, truth, 1e-6), test.ShouldBeTrue)
}

func TestRegisterICPRecoversOffset(t *testing.T) {
	target := MakeRandomBox(400, r3.Vector{X: 0.2, Y: 0.12, Z: 0.08}, 11)
	offset := spatialmath.NewPose(
		r3.Vector{X: 0.004, Y: -0.003, Z: 0.002},
		&spatialmath.R4AA{Theta: 0.03, RX: 0, RY: 0, RZ: 1},
	)
	source := Transform(target, spatialmath.PoseInverse(offset))

	pose, result, err := RegisterICP(source, ToKDTree(target), nil, ICPConfig{
		MaxCorrespondenceDistance: 0.05,
		MaxIterations:             100,
		TransformationEpsilon:     1e-10,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Iterations, test.ShouldBeGreaterThan, 0)
	test.That(t, result.Correspondences, test.ShouldEqual, 400)
	test.That(t, result.MeanResidual, test.ShouldBeLessThan, 1e-3)
	test.That(t, spatialmath.PoseAlmostEqualEps(pose, offset, 1e-3), test.ShouldBeTrue)
}

func TestRegisterICPZeroIterations(t *testing.T) {
	pc := MakeTestPointCloud()
	guess := spatialmath.NewPoseFromPoint(r3.Vector{X: 1})
	pose, result, err := RegisterICP(pc, ToKDTree(pc), guess, ICPConfig{})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Iterations, test.ShouldEqual, 0)
	test.That(t, spatialmath.PoseAlmostEqual(pose, guess), test.ShouldBeTrue)
}

func TestRegisterTrimmedICPIgnoresOutliers(t *testing.T) {
	model := MakeRandomBox(400, r3.Vector{X: 0.2, Y: 0.12, Z: 0.08}, 5)
	offset := spatialmath.NewPoseFromPoint(r3.Vector{X: 0.003, Y: 0.002, Z: -0.002})
	segment := Transform(model, offset)
	// points that belong to something else entirely
	outliers := Transform(MakeRandomBox(40, r3.Vector{X: 0.05, Y: 0.05, Z: 0.05}, 6),
		spatialmath.NewPoseFromPoint(r3.Vector{X: 1, Y: 1, Z: 1}))
	source := Merge(segment, outliers)

	// align segment onto model; the inverse of the result is the offset
	pose, result, err := RegisterTrimmedICP(source, ToKDTree(model), segment.Size(), nil, TrimmedICPConfig{
		MaxIterations:         100,
		EnergyRatio:           1,
		TransformationEpsilon: 1e-10,
	})
	test.That(t, err, test.ShouldBeNil)
	test.That(t, result.Correspondences, test.ShouldEqual, segment.Size())
	test.That(t, spatialmath.PoseAlmostEqualEps(spatialmath.PoseInverse(pose), offset, 1e-3), test.ShouldBeTrue)
}

func TestRegisterTrimmedICPTooFewPoints(t *testing.T) {
	pc := MakeTestPointCloud()
	_, _, err := RegisterTrimmedICP(pc, ToKDTree(pc), 2, nil, TrimmedICPConfig{MaxIterations: 5})
	test.That(t, err, test.ShouldNotBeNil)
}
