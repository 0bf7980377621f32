package pointcloud

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/montanaflynn/stats"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"

	"go.viam.com/posesearch/spatialmath"
)

// ErrEmptyCloud is returned when a registration is asked to align an empty cloud.
var ErrEmptyCloud = errors.New("cannot register an empty point cloud")

// minCorrespondences is the smallest number of point pairs a rigid fit is attempted with.
const minCorrespondences = 3

// ICPConfig holds the stopping criteria of point-to-point ICP.
type ICPConfig struct {
	// Pairs further apart than this are ignored. Zero or less keeps every pair.
	MaxCorrespondenceDistance float64
	MaxIterations             int
	// Iteration stops once an incremental update moves less than this, measured as translation
	// norm plus rotation angle.
	TransformationEpsilon float64
}

// TrimmedICPConfig holds the stopping criteria of trimmed ICP.
type TrimmedICPConfig struct {
	MaxIterations int
	// Iteration stops once the trimmed energy exceeds EnergyRatio times the previous energy.
	EnergyRatio           float64
	TransformationEpsilon float64
}

// ICPResult describes how a registration run ended.
type ICPResult struct {
	Iterations      int
	Converged       bool
	Correspondences int
	// MeanResidual is the mean distance between matched pairs under the final pose.
	MeanResidual float64
}

type correspondence struct {
	source r3.Vector
	target r3.Vector
	dist   float64
}

// RegisterICP aligns source to the indexed target starting from guess and returns the pose
// that maps source points onto the target.
func RegisterICP(
	source PointCloud,
	target *KDTree,
	guess spatialmath.Pose,
	cfg ICPConfig,
) (spatialmath.Pose, *ICPResult, error) {
	if source.Size() == 0 || target.Size() == 0 {
		return nil, nil, ErrEmptyCloud
	}
	if guess == nil {
		guess = spatialmath.NewZeroPose()
	}

	current := guess
	result := &ICPResult{}
	for result.Iterations < cfg.MaxIterations {
		pairs := findCorrespondences(source, target, current)
		if cfg.MaxCorrespondenceDistance > 0 {
			pairs = withinDistance(pairs, cfg.MaxCorrespondenceDistance)
		}
		if len(pairs) < minCorrespondences {
			break
		}
		increment, err := estimateRigidTransform(pairs)
		if err != nil {
			return nil, nil, err
		}
		current = spatialmath.Compose(increment, current)
		result.Iterations++
		if transformDelta(increment) < cfg.TransformationEpsilon {
			result.Converged = true
			break
		}
	}

	pairs := findCorrespondences(source, target, current)
	if cfg.MaxCorrespondenceDistance > 0 {
		pairs = withinDistance(pairs, cfg.MaxCorrespondenceDistance)
	}
	result.Correspondences = len(pairs)
	result.MeanResidual = meanDistance(pairs)
	return current, result, nil
}

// RegisterTrimmedICP aligns source to the indexed target using only the numPointsToUse closest
// correspondences at every iteration, which lets a partial overlap or outliers go unmatched.
func RegisterTrimmedICP(
	source PointCloud,
	target *KDTree,
	numPointsToUse int,
	guess spatialmath.Pose,
	cfg TrimmedICPConfig,
) (spatialmath.Pose, *ICPResult, error) {
	if source.Size() == 0 || target.Size() == 0 {
		return nil, nil, ErrEmptyCloud
	}
	if numPointsToUse > source.Size() {
		numPointsToUse = source.Size()
	}
	if numPointsToUse < minCorrespondences {
		return nil, nil, errors.Errorf("trimmed registration needs at least %d points, got %d",
			minCorrespondences, numPointsToUse)
	}
	if guess == nil {
		guess = spatialmath.NewZeroPose()
	}
	ratio := cfg.EnergyRatio
	if ratio <= 0 {
		ratio = 1
	}

	current := guess
	oldEnergy := math.Inf(1)
	result := &ICPResult{}
	for result.Iterations < cfg.MaxIterations {
		pairs := trim(findCorrespondences(source, target, current), numPointsToUse)
		energy := meanSquaredDistance(pairs)
		if energy > ratio*oldEnergy {
			result.Converged = true
			break
		}
		oldEnergy = energy

		increment, err := estimateRigidTransform(pairs)
		if err != nil {
			return nil, nil, err
		}
		current = spatialmath.Compose(increment, current)
		result.Iterations++
		if transformDelta(increment) < cfg.TransformationEpsilon {
			result.Converged = true
			break
		}
	}

	pairs := trim(findCorrespondences(source, target, current), numPointsToUse)
	result.Correspondences = len(pairs)
	result.MeanResidual = meanDistance(pairs)
	return current, result, nil
}

// findCorrespondences pairs every source point, moved by pose, with its nearest target point.
func findCorrespondences(source PointCloud, target *KDTree, pose spatialmath.Pose) []correspondence {
	pairs := make([]correspondence, 0, source.Size())
	source.Iterate(0, 0, func(_ int, p r3.Vector) bool {
		moved := spatialmath.TransformPoint(pose, p)
		_, nearest, dist, ok := target.NearestNeighbor(moved)
		if ok {
			pairs = append(pairs, correspondence{source: moved, target: nearest, dist: dist})
		}
		return true
	})
	return pairs
}

func withinDistance(pairs []correspondence, maxDist float64) []correspondence {
	kept := pairs[:0]
	for _, c := range pairs {
		if c.dist <= maxDist {
			kept = append(kept, c)
		}
	}
	return kept
}

func trim(pairs []correspondence, n int) []correspondence {
	sort.SliceStable(pairs, func(i, j int) bool { return pairs[i].dist < pairs[j].dist })
	if len(pairs) > n {
		return pairs[:n]
	}
	return pairs
}

func meanDistance(pairs []correspondence) float64 {
	dists := make(stats.Float64Data, 0, len(pairs))
	for _, c := range pairs {
		dists = append(dists, c.dist)
	}
	m, err := stats.Mean(dists)
	if err != nil {
		return 0
	}
	return m
}

func meanSquaredDistance(pairs []correspondence) float64 {
	sq := make(stats.Float64Data, 0, len(pairs))
	for _, c := range pairs {
		sq = append(sq, c.dist*c.dist)
	}
	m, err := stats.Mean(sq)
	if err != nil {
		return math.Inf(1)
	}
	return m
}

// transformDelta is the size of a rigid update: translation norm plus rotation angle.
func transformDelta(p spatialmath.Pose) float64 {
	return p.Point().Norm() + math.Abs(p.Orientation().AxisAngles().Theta)
}

// estimateRigidTransform returns the rotation and translation minimising the squared distance
// between the paired points (Kabsch).
func estimateRigidTransform(pairs []correspondence) (spatialmath.Pose, error) {
	var srcCentroid, tgtCentroid r3.Vector
	for _, c := range pairs {
		srcCentroid = srcCentroid.Add(c.source)
		tgtCentroid = tgtCentroid.Add(c.target)
	}
	n := float64(len(pairs))
	srcCentroid = srcCentroid.Mul(1 / n)
	tgtCentroid = tgtCentroid.Mul(1 / n)

	h := mat.NewDense(3, 3, nil)
	for _, c := range pairs {
		s := c.source.Sub(srcCentroid)
		t := c.target.Sub(tgtCentroid)
		sv := [3]float64{s.X, s.Y, s.Z}
		tv := [3]float64{t.X, t.Y, t.Z}
		for i := 0; i < 3; i++ {
			for j := 0; j < 3; j++ {
				h.Set(i, j, h.At(i, j)+sv[i]*tv[j])
			}
		}
	}

	var svd mat.SVD
	if ok := svd.Factorize(h, mat.SVDFull); !ok {
		return nil, errors.New("failed to factorize cross-covariance matrix")
	}
	var u, v mat.Dense
	svd.UTo(&u)
	svd.VTo(&v)

	var rot mat.Dense
	rot.Mul(&v, u.T())
	if mat.Det(&rot) < 0 {
		for i := 0; i < 3; i++ {
			v.Set(i, 2, -v.At(i, 2))
		}
		rot.Mul(&v, u.T())
	}

	rotated := r3.Vector{
		X: rot.At(0, 0)*srcCentroid.X + rot.At(0, 1)*srcCentroid.Y + rot.At(0, 2)*srcCentroid.Z,
		Y: rot.At(1, 0)*srcCentroid.X + rot.At(1, 1)*srcCentroid.Y + rot.At(1, 2)*srcCentroid.Z,
		Z: rot.At(2, 0)*srcCentroid.X + rot.At(2, 1)*srcCentroid.Y + rot.At(2, 2)*srcCentroid.Z,
	}
	return spatialmath.NewPoseFromRotationTranslation(&rot, tgtCentroid.Sub(rotated)), nil
}
