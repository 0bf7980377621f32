package spatialmath

import (
	"math"

	"gonum.org/v1/gonum/num/quat"
)

// axisEpsilon is the vector-part norm below which a rotation is treated as having no axis.
const axisEpsilon = 1e-6

// R4AA is a rotation of Theta radians about the axis (RX, RY, RZ). The axis need not be unit
// length; a zero axis means the z axis.
type R4AA struct {
	Theta float64 `json:"th"`
	RX    float64 `json:"x"`
	RY    float64 `json:"y"`
	RZ    float64 `json:"z"`
}

// NewR4AA returns the identity rotation about the z axis.
func NewR4AA() *R4AA {
	return &R4AA{RZ: 1}
}

// AxisAngles returns r4 itself.
func (r4 *R4AA) AxisAngles() *R4AA {
	return r4
}

// Quaternion returns the unit quaternion of the rotation.
func (r4 *R4AA) Quaternion() quat.Number {
	return r4.ToQuat()
}

// ToQuat normalizes the axis and returns the unit quaternion of the rotation.
func (r4 *R4AA) ToQuat() quat.Number {
	if r4.Theta == 0 {
		return quat.Number{Real: 1}
	}
	r4.Normalize()
	half := r4.Theta / 2
	s := math.Sin(half)
	return quat.Number{Real: math.Cos(half), Imag: s * r4.RX, Jmag: s * r4.RY, Kmag: s * r4.RZ}
}

// Normalize scales the axis to unit length.
func (r4 *R4AA) Normalize() {
	n := math.Hypot(math.Hypot(r4.RX, r4.RY), r4.RZ)
	if n == 0 {
		r4.RX, r4.RY, r4.RZ = 0, 0, 1
		return
	}
	r4.RX, r4.RY, r4.RZ = r4.RX/n, r4.RY/n, r4.RZ/n
}

// QuatToR4AA returns the axis angle of a unit quaternion with |Theta| <= pi. The sign of Theta
// follows the sign of the real part.
func QuatToR4AA(q quat.Number) R4AA {
	vec := math.Hypot(math.Hypot(q.Imag, q.Jmag), q.Kmag)
	theta := 2 * math.Atan2(vec, math.Abs(q.Real))
	if q.Real < 0 {
		theta = -theta
	}
	if vec < axisEpsilon {
		return R4AA{Theta: theta, RZ: 1}
	}
	return R4AA{Theta: theta, RX: q.Imag / vec, RY: q.Jmag / vec, RZ: q.Kmag / vec}
}
