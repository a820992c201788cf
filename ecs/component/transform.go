package component

import "golang.org/x/image/math/f64"

// Transform places an entity in the world. Y is up.
type Transform struct {
	Position f64.Vec3
	Yaw      float64
}

var TransformComponent = NewComponent[Transform]()
