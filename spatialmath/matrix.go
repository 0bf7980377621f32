package spatialmath

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/num/quat"
)

// PoseToMatrix returns the 4x4 homogeneous transform of a pose.
func PoseToMatrix(p Pose) mgl64.Mat4 {
	q := p.Orientation().Quaternion()
	m := mgl64.Quat{W: q.Real, V: mgl64.Vec3{q.Imag, q.Jmag, q.Kmag}}.Normalize().Mat4()
	pt := p.Point()
	m.Set(0, 3, pt.X)
	m.Set(1, 3, pt.Y)
	m.Set(2, 3, pt.Z)
	return m
}

// NewPoseFromMatrix builds a pose from a 4x4 homogeneous transform. The upper-left 3x3 block must
// be a rotation; small numerical drift is absorbed by renormalising the quaternion.
func NewPoseFromMatrix(m mgl64.Mat4) Pose {
	mq := mgl64.Mat4ToQuat(m).Normalize()
	o := NewOrientationFromQuaternion(quat.Number{Real: mq.W, Imag: mq.V[0], Jmag: mq.V[1], Kmag: mq.V[2]})
	return NewPose(r3.Vector{X: m.At(0, 3), Y: m.At(1, 3), Z: m.At(2, 3)}, o)
}

// NewPoseFromRotationTranslation builds a pose from a 3x3 rotation matrix and a translation.
func NewPoseFromRotationTranslation(rot mat.Matrix, t r3.Vector) Pose {
	m := mgl64.Ident4()
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			m.Set(i, j, rot.At(i, j))
		}
	}
	m.Set(0, 3, t.X)
	m.Set(1, 3, t.Y)
	m.Set(2, 3, t.Z)
	return NewPoseFromMatrix(m)
}

// RotationMatrix returns the 3x3 rotation block of a pose as a gonum matrix.
func RotationMatrix(p Pose) *mat.Dense {
	m := PoseToMatrix(p)
	rot := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			rot.Set(i, j, m.At(i, j))
		}
	}
	return rot
}
