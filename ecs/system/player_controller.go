package system

import (
	"math"

	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
)

// PlayerControllerSystem walks the player from its Input. Outside gameplay
// the player is driven by scene objects and input is ignored.
type PlayerControllerSystem struct {
	modes ModeReader
	dt    float64
}

func NewPlayerControllerSystem(modes ModeReader, tick float64) *PlayerControllerSystem {
	if tick <= 0 {
		tick = 1.0 / 60.0
	}
	return &PlayerControllerSystem{modes: modes, dt: tick}
}

func (p *PlayerControllerSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	if p.modes != nil && p.modes.CurrentMode() != component.ModeGameplay {
		return
	}

	for _, e := range ecs.Query(w, component.PlayerTagComponent.Kind()) {
		input, ok := ecs.Get(w, e, component.InputComponent.Kind())
		if !ok {
			continue
		}
		tf, ok := ecs.Get(w, e, component.TransformComponent.Kind())
		if !ok {
			continue
		}
		if ecs.Has(w, e, component.ActorMoveComponent.Kind()) {
			continue
		}

		mx, mz := input.MoveX, input.MoveZ
		l := math.Hypot(mx, mz)
		if l == 0 {
			continue
		}
		if l > 1 {
			mx, mz = mx/l, mz/l
		}

		speed := 4.0
		if body, ok := ecs.Get(w, e, component.ActorBodyComponent.Kind()); ok && body.Speed > 0 {
			speed = body.Speed
		}
		tf.Position[0] += mx * speed * p.dt
		tf.Position[2] += mz * speed * p.dt
		tf.Yaw = math.Atan2(mx, mz)
	}
}
