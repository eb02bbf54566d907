package nodegraph

import (
	"github.com/go-gl/mathgl/mgl32"
)

// matrixEpsilon is the per-element tolerance used by MatricesEqual.
const matrixEpsilon = 1e-4

// ComposeMatrix builds a column-major T * R * S matrix from its components.
func ComposeMatrix(translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) mgl32.Mat4 {
	m := rotation.Normalize().Mat4()
	for col := 0; col < 3; col++ {
		s := scale[col]
		m[col*4+0] *= s
		m[col*4+1] *= s
		m[col*4+2] *= s
	}
	m[12], m[13], m[14] = translation[0], translation[1], translation[2]
	return m
}

// DecomposeMatrix splits an affine, column-major matrix into translation, rotation, and scale.
// A negative determinant is folded into the X scale. Shear is not representable and is lost.
func DecomposeMatrix(m mgl32.Mat4) (translation mgl32.Vec3, rotation mgl32.Quat, scale mgl32.Vec3) {

	translation = mgl32.Vec3{m[12], m[13], m[14]}

	x := mgl32.Vec3{m[0], m[1], m[2]}
	y := mgl32.Vec3{m[4], m[5], m[6]}
	z := mgl32.Vec3{m[8], m[9], m[10]}

	scale = mgl32.Vec3{x.Len(), y.Len(), z.Len()}
	if x.Cross(y).Dot(z) < 0 {
		scale[0] = -scale[0]
	}

	rot := mgl32.Ident4()
	for col, axis := range [3]mgl32.Vec3{x, y, z} {
		if scale[col] == 0 {
			continue
		}
		axis = axis.Mul(1 / scale[col])
		rot[col*4+0], rot[col*4+1], rot[col*4+2] = axis[0], axis[1], axis[2]
	}

	rotation = mgl32.Mat4ToQuat(rot).Normalize()
	return translation, rotation, scale

}

// MatricesEqual reports whether every element of a and b is within a small tolerance of each other.
func MatricesEqual(a, b mgl32.Mat4) bool {
	return a.ApproxEqualThreshold(b, matrixEpsilon)
}
