package common

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Up and Forward follow the scene convention: +Y is up, +Z is forward.
var (
	Up      = mgl64.Vec3{0, 1, 0}
	Forward = mgl64.Vec3{0, 0, 1}
	Right   = mgl64.Vec3{1, 0, 0}
)

func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Clamp01(v float64) float64 {
	return Clamp(v, 0, 1)
}

// Lerp interpolates with t clamped to [0, 1].
func Lerp(a, b, t float64) float64 {
	return a + Clamp01(t)*(b-a)
}

// MoveTowards moves current toward target by at most maxDelta without overshooting.
func MoveTowards(current, target, maxDelta float64) float64 {
	if math.Abs(target-current) <= maxDelta {
		return target
	}
	if target > current {
		return current + maxDelta
	}
	return current - maxDelta
}

// AngleBetween returns the unsigned angle between a and b in degrees.
// Zero-length vectors yield 0.
func AngleBetween(a, b mgl64.Vec3) float64 {
	la, lb := a.Len(), b.Len()
	if la < 1e-12 || lb < 1e-12 {
		return 0
	}
	cos := Clamp(a.Dot(b)/(la*lb), -1, 1)
	return mgl64.RadToDeg(math.Acos(cos))
}

// Euler builds the rotation for pitch about +X followed by yaw about +Y, in degrees.
func Euler(pitch, yaw float64) mgl64.Quat {
	qy := mgl64.QuatRotate(mgl64.DegToRad(yaw), Up)
	qx := mgl64.QuatRotate(mgl64.DegToRad(pitch), Right)
	return qy.Mul(qx)
}

// Slerp interpolates rotations with t clamped to [0, 1].
func Slerp(from, to mgl64.Quat, t float64) mgl64.Quat {
	t = Clamp01(t)
	if t == 0 {
		return from
	}
	if t == 1 {
		return to
	}
	if from.Dot(to) < 0 {
		to = to.Scale(-1)
	}
	return mgl64.QuatSlerp(from, to, t)
}
