package nodegraph

import (
	"github.com/go-gl/mathgl/mgl32"
)

// QuatFromXYZW builds a quaternion from glTF component order (x, y, z, w).
func QuatFromXYZW(v mgl32.Vec4) mgl32.Quat {
	return mgl32.Quat{W: v[3], V: mgl32.Vec3{v[0], v[1], v[2]}}
}

// QuatToXYZW flattens a quaternion into glTF component order (x, y, z, w).
func QuatToXYZW(q mgl32.Quat) mgl32.Vec4 {
	return mgl32.Vec4{q.V[0], q.V[1], q.V[2], q.W}
}

// slerpShortest interpolates along the shorter arc between two rotations. mgl32.QuatSlerp
// doesn't flip hemispheres on its own, so other is negated first when the two disagree.
func slerpShortest(quat, other mgl32.Quat, percent float32) mgl32.Quat {

	if quat.Dot(other) < 0 {
		other = other.Scale(-1)
	}

	return mgl32.QuatSlerp(quat, other, percent).Normalize()

}
