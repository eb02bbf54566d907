package nodegraph

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/tanema/gween/ease"
)

// Property is the local transform property a Channel animates.
type Property int

const (
	PropertyTranslation Property = iota // PropertyTranslation animates a Node's local translation
	PropertyRotation                    // PropertyRotation animates a Node's local rotation
	PropertyScale                       // PropertyScale animates a Node's local scale
)

func (p Property) String() string {
	switch p {
	case PropertyTranslation:
		return "translation"
	case PropertyRotation:
		return "rotation"
	case PropertyScale:
		return "scale"
	}
	return fmt.Sprintf("Property(%d)", int(p))
}

// Interpolation is the method used to sample values between two keyframes.
type Interpolation int

const (
	InterpolationStep        Interpolation = iota // Holds the previous keyframe's value for the whole segment
	InterpolationLinear                           // Linear for vectors, spherical-linear for rotations
	InterpolationCubicSpline                      // Hermite spline with per-keyframe in and out tangents
)

func (i Interpolation) String() string {
	switch i {
	case InterpolationStep:
		return "step"
	case InterpolationLinear:
		return "linear"
	case InterpolationCubicSpline:
		return "cubic-spline"
	}
	return fmt.Sprintf("Interpolation(%d)", int(i))
}

// valuesPerStep is how many entries a channel stores for each time step.
func (i Interpolation) valuesPerStep() int {
	if i == InterpolationCubicSpline {
		return 3
	}
	return 1
}

// StepVec3 holds p0 for the whole segment, switching to p1 only once t reaches 1.
func StepVec3(p0, p1 mgl32.Vec3, t float32) mgl32.Vec3 {
	if t >= 1 {
		return p1
	}
	return p0
}

// StepQuat holds p0 for the whole segment, switching to p1 only once t reaches 1.
func StepQuat(p0, p1 mgl32.Quat, t float32) mgl32.Quat {
	if t >= 1 {
		return p1
	}
	return p0
}

// LerpVec3 returns p0 + (p1 - p0) * t, componentwise.
func LerpVec3(p0, p1 mgl32.Vec3, t float32) mgl32.Vec3 {
	if t <= 0 {
		return p0
	} else if t >= 1 {
		return p1
	}
	var out mgl32.Vec3
	for i := range out {
		out[i] = ease.Linear(t, p0[i], p1[i]-p0[i], 1)
	}
	return out
}

// SlerpQuat spherically interpolates between two rotations along the shorter arc.
func SlerpQuat(p0, p1 mgl32.Quat, t float32) mgl32.Quat {
	if t <= 0 {
		return p0
	} else if t >= 1 {
		return p1
	}
	return slerpShortest(p0, p1, t)
}

// hermite returns the four cubic Hermite basis weights for t.
func hermite(t float32) (h00, h10, h01, h11 float32) {
	t2 := t * t
	t3 := t2 * t
	h00 = 2*t3 - 3*t2 + 1
	h10 = t3 - 2*t2 + t
	h01 = -2*t3 + 3*t2
	h11 = t3 - t2
	return
}

// CubicSplineVec3 evaluates the glTF cubic-spline form between (p0, out-tangent m0) and (p1, in-tangent m1).
// Tangents are stored per unit of time, so they're scaled by timeRange, the segment's duration.
func CubicSplineVec3(p0, m0, p1, m1 mgl32.Vec3, t, timeRange float32) mgl32.Vec3 {
	if t <= 0 {
		return p0
	} else if t >= 1 {
		return p1
	}
	h00, h10, h01, h11 := hermite(t)
	return p0.Mul(h00).
		Add(m0.Mul(h10 * timeRange)).
		Add(p1.Mul(h01)).
		Add(m1.Mul(h11 * timeRange))
}

// CubicSplineQuat is CubicSplineVec3 applied to the four quaternion components, renormalized afterwards.
func CubicSplineQuat(p0, m0, p1, m1 mgl32.Quat, t, timeRange float32) mgl32.Quat {
	if t <= 0 {
		return p0
	} else if t >= 1 {
		return p1
	}
	h00, h10, h01, h11 := hermite(t)
	v := QuatToXYZW(p0).Mul(h00).
		Add(QuatToXYZW(m0).Mul(h10 * timeRange)).
		Add(QuatToXYZW(p1).Mul(h01)).
		Add(QuatToXYZW(m1).Mul(h11 * timeRange))
	return QuatFromXYZW(v).Normalize()
}

// Sample dispatches to the interpolator for a property and interpolation pair. Values are in the flattened
// channel layout: XYZ for vectors, XYZW for rotations. m0 and m1 are only read for cubic-spline.
func Sample(property Property, interpolation Interpolation, p0, m0, p1, m1 mgl32.Vec4, t, timeRange float32) mgl32.Vec4 {

	if property == PropertyRotation {

		q0, q1 := QuatFromXYZW(p0), QuatFromXYZW(p1)

		switch interpolation {
		case InterpolationStep:
			return QuatToXYZW(StepQuat(q0, q1, t))
		case InterpolationLinear:
			return QuatToXYZW(SlerpQuat(q0, q1, t))
		case InterpolationCubicSpline:
			return QuatToXYZW(CubicSplineQuat(q0, QuatFromXYZW(m0), q1, QuatFromXYZW(m1), t, timeRange))
		}

	} else {

		v0, v1 := p0.Vec3(), p1.Vec3()

		switch interpolation {
		case InterpolationStep:
			return StepVec3(v0, v1, t).Vec4(0)
		case InterpolationLinear:
			return LerpVec3(v0, v1, t).Vec4(0)
		case InterpolationCubicSpline:
			return CubicSplineVec3(v0, m0.Vec3(), v1, m1.Vec3(), t, timeRange).Vec4(0)
		}

	}

	panic(fmt.Sprintf("nodegraph: unsupported interpolation %s for %s", interpolation, property))

}
