// Package spatialmath defines the rigid transforms used to place objects in a scene and the
// conversions between their matrix, quaternion and camera/world representations.
package spatialmath

import (
	"math"

	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/num/dualquat"
	"gonum.org/v1/gonum/num/quat"
)

// dualQuaternion defines functions to perform rigid transformations in 3D.
// If you find yourself importing gonum.org/v1/gonum/num/dualquat in some other package, you should probably be
// using these instead.
type dualQuaternion struct {
	dualquat.Number
}

// newDualQuaternion returns a pointer to a new dualQuaternion object whose Quaternion is an identity Quaternion.
// Since the real part of a dual quaternion should be a unit quaternion, not all zeroes, this should be used
// instead of &dualQuaternion{}.
func newDualQuaternion() *dualQuaternion {
	return &dualQuaternion{dualquat.Number{
		Real: quat.Number{Real: 1},
		Dual: quat.Number{},
	}}
}

// newDualQuaternionFromPose takes any pose, checks if it is already a DQ and returns that if so, otherwise creates a
// new one.
func newDualQuaternionFromPose(p Pose) *dualQuaternion {
	if q, ok := p.(*dualQuaternion); ok {
		return q.clone()
	}
	q := newDualQuaternion()
	q.Real = p.Orientation().Quaternion()
	q.SetTranslation(p.Point())
	return q
}

// Point multiplies the dual quaternion by its own conjugate to give a dq where the real is the identity quat,
// and the dual is the translation.
func (q *dualQuaternion) Point() r3.Vector {
	tQuat := quat.Scale(2, quat.Mul(q.Dual, quat.Conj(q.Real)))
	return r3.Vector{X: tQuat.Imag, Y: tQuat.Jmag, Z: tQuat.Kmag}
}

// Orientation returns the rotation quaternion as an Orientation.
func (q *dualQuaternion) Orientation() Orientation {
	return (*quaternion)(&q.Real)
}

// SetTranslation correctly sets the translation quaternion against the rotation.
func (q *dualQuaternion) SetTranslation(pt r3.Vector) {
	q.Dual = quat.Number{Real: 0, Imag: pt.X / 2, Jmag: pt.Y / 2, Kmag: pt.Z / 2}
	q.rotate()
}

// rotate multiplies the dual part of the quaternion by the real part give the correct rotation.
func (q *dualQuaternion) rotate() {
	q.Dual = quat.Mul(q.Dual, q.Real)
}

// Invert returns a dualQuaternion representing the opposite transformation. So if the input q would transform a -> b,
// then Invert(p) will transform b -> a.
func (q *dualQuaternion) Invert() Pose {
	conj := quat.Conj(q.Real)
	pt := q.Point()
	inv := &dualQuaternion{dualquat.Number{Real: conj}}
	rotated := quat.Mul(quat.Mul(conj, quat.Number{Imag: pt.X, Jmag: pt.Y, Kmag: pt.Z}), q.Real)
	inv.SetTranslation(r3.Vector{X: -rotated.Imag, Y: -rotated.Jmag, Z: -rotated.Kmag})
	return inv
}

// transformation multiplies the dual quat contained in this dualQuaternion by another dual quat.
func (q *dualQuaternion) transformation(by dualquat.Number) dualquat.Number {
	// Ensure we are multiplying by a unit dual quaternion
	if vecLen := quat.Abs(by.Real); math.Abs(vecLen-1) > 1e-12 && vecLen > 0 {
		by.Real = quat.Scale(1/vecLen, by.Real)
	}

	return dualquat.Mul(q.Number, by)
}

func (q *dualQuaternion) clone() *dualQuaternion {
	// No need for deep copies here, dualquats are primitives all the way down
	return &dualQuaternion{q.Number}
}
