package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// Orientation is an interface used to express the different parameterizations of the orientation
// of a rigid object or a frame of reference in 3D Euclidean space.
type Orientation interface {
	Quaternion() quat.Number
	AxisAngles() *R4AA
}

type quaternion quat.Number

// NewZeroOrientation returns an orientation which signifies no rotation.
func NewZeroOrientation() Orientation {
	return &quaternion{1, 0, 0, 0}
}

// NewOrientationFromQuaternion wraps a (possibly unnormalized) quaternion as an Orientation.
func NewOrientationFromQuaternion(q quat.Number) Orientation {
	n := quat.Abs(q)
	if n == 0 {
		return NewZeroOrientation()
	}
	normed := quaternion(quat.Scale(1/n, q))
	return &normed
}

// Quaternion returns orientation in quaternion representation.
func (q *quaternion) Quaternion() quat.Number {
	return quat.Number(*q)
}

// AxisAngles returns the orientation in axis angle representation.
func (q *quaternion) AxisAngles() *R4AA {
	aa := QuatToR4AA(q.Quaternion())
	return &aa
}

// OrientationAlmostEqual will return a bool describing whether 2 poses have approximately the same orientation.
func OrientationAlmostEqual(o1, o2 Orientation) bool {
	return QuaternionAlmostEqual(o1.Quaternion(), o2.Quaternion(), 1e-5)
}

// QuaternionAlmostEqual is an equality test for all the float components of a quaternion. Quaternions have double coverage,
// so q and -q represent the same orientation.
func QuaternionAlmostEqual(a, b quat.Number, tol float64) bool {
	almost := func(x, y quat.Number) bool {
		return math.Abs(x.Real-y.Real) < tol &&
			math.Abs(x.Imag-y.Imag) < tol &&
			math.Abs(x.Jmag-y.Jmag) < tol &&
			math.Abs(x.Kmag-y.Kmag) < tol
	}
	return almost(a, b) || almost(a, Flip(b))
}

// Flip will multiply a quaternion by -1, returning a quaternion representing the same orientation but in the opposing octant.
func Flip(q quat.Number) quat.Number {
	return quat.Number{Real: -q.Real, Imag: -q.Imag, Jmag: -q.Jmag, Kmag: -q.Kmag}
}
