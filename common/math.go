package common

import (
	"math"

	"golang.org/x/image/math/f64"
)

func Lerp(a, b, t float64) float64 {
	return a + t*(b-a)
}

func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// EaseInOutSine maps linear progress t in [0,1] onto a sine ease curve.
func EaseInOutSine(t float64) float64 {
	t = Clamp01(t)
	return -(math.Cos(math.Pi*t) - 1) / 2
}

func Vec3(x, y, z float64) f64.Vec3 {
	return f64.Vec3{x, y, z}
}

func AddVec3(a, b f64.Vec3) f64.Vec3 {
	return f64.Vec3{a[0] + b[0], a[1] + b[1], a[2] + b[2]}
}

func SubVec3(a, b f64.Vec3) f64.Vec3 {
	return f64.Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func ScaleVec3(v f64.Vec3, s float64) f64.Vec3 {
	return f64.Vec3{v[0] * s, v[1] * s, v[2] * s}
}

func LengthVec3(v f64.Vec3) float64 {
	return math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
}
