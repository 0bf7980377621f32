package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/quat"
)

// Pose represents a 6dof pose, position and orientation, with respect to some reference frame.
// For example, an object pose in the camera frame or the camera pose in the world frame.
type Pose interface {
	Point() r3.Vector
	Orientation() Orientation
}

// NewZeroPose returns a pose at (0,0,0) with same orientation as whatever frame it is placed in.
func NewZeroPose() Pose {
	return newDualQuaternion()
}

// NewPose takes in a position and orientation and returns a Pose.
func NewPose(p r3.Vector, o Orientation) Pose {
	if o == nil {
		return NewPoseFromPoint(p)
	}
	q := newDualQuaternion()
	q.Real = o.Quaternion()
	q.SetTranslation(p)
	return q
}

// NewPoseFromOrientation takes in an orientation and returns a Pose with no translation.
func NewPoseFromOrientation(o Orientation) Pose {
	return NewPose(r3.Vector{}, o)
}

// NewPoseFromPoint takes in a cartesian (x,y,z) and stores it as a vector.
// It will have the same orientation as the frame it is in.
func NewPoseFromPoint(point r3.Vector) Pose {
	q := newDualQuaternion()
	q.SetTranslation(point)
	return q
}

// Compose treats Poses as functions A(x) and B(x), and produces a new function C(x) = A(B(x)).
// It calculates this by multiplying two dual quaternions representing the two poses.
func Compose(a, b Pose) Pose {
	return &dualQuaternion{newDualQuaternionFromPose(a).transformation(newDualQuaternionFromPose(b).Number)}
}

// PoseBetween returns the difference between two dualQuaternions, that is, the dq which if multiplied by one will give the other.
// Example: if PoseBetween(a, b) = c, then Compose(a, c) = b.
func PoseBetween(a, b Pose) Pose {
	return Compose(PoseInverse(a), b)
}

// PoseInverse will return the inverse of a pose. So if a given pose p is the pose of A relative to B, PoseInverse(p) will give
// the pose of B relative to A.
func PoseInverse(p Pose) Pose {
	return newDualQuaternionFromPose(p).Invert()
}

// TransformPoint applies the pose to a point expressed in the pose's local frame.
func TransformPoint(p Pose, pt r3.Vector) r3.Vector {
	q := p.Orientation().Quaternion()
	rotated := quat.Mul(quat.Mul(q, quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}), quat.Conj(q))
	return r3.Vector{X: rotated.Imag, Y: rotated.Jmag, Z: rotated.Kmag}.Add(p.Point())
}

// PoseAlmostEqual will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqual(a, b Pose) bool {
	return PoseAlmostEqualEps(a, b, 1e-8)
}

// PoseAlmostEqualEps will return a bool describing whether 2 poses are approximately the same.
func PoseAlmostEqualEps(a, b Pose, epsilon float64) bool {
	return R3VectorAlmostEqual(a.Point(), b.Point(), epsilon) &&
		QuaternionAlmostEqual(a.Orientation().Quaternion(), b.Orientation().Quaternion(), math.Max(epsilon, 1e-5))
}

// R3VectorAlmostEqual compares two r3.Vector objects and returns if the all elementwise differences are less than epsilon.
func R3VectorAlmostEqual(a, b r3.Vector, epsilon float64) bool {
	return math.Abs(a.X-b.X) < epsilon && math.Abs(a.Y-b.Y) < epsilon && math.Abs(a.Z-b.Z) < epsilon
}
