package common

import "golang.org/x/image/math/f64"

// Bounds is an axis-aligned box described by its center and full size, the
// way mesh bounds are authored. Y is up.
type Bounds struct {
	Center f64.Vec3
	Size   f64.Vec3
}

func (b Bounds) Min() f64.Vec3 {
	return SubVec3(b.Center, ScaleVec3(b.Size, 0.5))
}

func (b Bounds) Max() f64.Vec3 {
	return AddVec3(b.Center, ScaleVec3(b.Size, 0.5))
}

// Translate returns b moved by offset.
func (b Bounds) Translate(offset f64.Vec3) Bounds {
	return Bounds{Center: AddVec3(b.Center, offset), Size: b.Size}
}

// Top is the height of the upper face, where an actor stands.
func (b Bounds) Top() float64 {
	return b.Center[1] + b.Size[1]/2
}

func (b Bounds) Empty() bool {
	return b.Size[0] <= 0 || b.Size[1] <= 0 || b.Size[2] <= 0
}

// ContainsXZ reports whether p lies inside the horizontal footprint of b.
func (b Bounds) ContainsXZ(p f64.Vec3) bool {
	lo, hi := b.Min(), b.Max()
	return p[0] >= lo[0] && p[0] <= hi[0] && p[2] >= lo[2] && p[2] <= hi[2]
}
