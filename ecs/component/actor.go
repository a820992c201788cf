package component

import "golang.org/x/image/math/f64"

// ActorBody is the foot collider of an actor: a circle in the horizontal
// plane on one scene layer. Speed is the walking speed used for player input.
type ActorBody struct {
	Radius     float64
	LayerIndex int
	Speed      float64
}

// ActorMove asks MovementSystem to carry an actor to Target in a straight
// line. Speed is in world units per second; zero or less places the actor on
// the next update.
type ActorMove struct {
	Seq    uint64
	Target f64.Vec3
	Speed  float64
}

var ActorBodyComponent = NewComponent[ActorBody]()
var ActorMoveComponent = NewComponent[ActorMove]()
