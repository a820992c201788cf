package system

import (
	"math"

	"github.com/milk9111/pedalswitch/common"
	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
	"golang.org/x/image/math/f64"
)

// MovementSystem carries actors along straight lines. It is the ActorMover
// handed to scene objects.
type MovementSystem struct {
	w   *ecs.World
	dt  float64
	seq uint64
}

func NewMovementSystem(w *ecs.World, tick float64) *MovementSystem {
	if tick <= 0 {
		tick = 1.0 / 60.0
	}
	return &MovementSystem{w: w, dt: tick}
}

// MoveActorTo replaces any move in progress. The returned Pending is done once
// the actor arrives, the move is cancelled or superseded, or the actor is gone.
func (m *MovementSystem) MoveActorTo(actor ecs.Entity, pos f64.Vec3, speed float64) component.Pending {
	m.seq++
	seq := m.seq
	if err := ecs.Add(m.w, actor, component.ActorMoveComponent.Kind(), &component.ActorMove{Seq: seq, Target: pos, Speed: speed}); err != nil {
		return component.Completed
	}
	return component.PendingFunc(func() bool {
		mv, ok := ecs.Get(m.w, actor, component.ActorMoveComponent.Kind())
		return !ok || mv.Seq != seq
	})
}

func (m *MovementSystem) Cancel(actor ecs.Entity) {
	_ = ecs.Remove(m.w, actor, component.ActorMoveComponent.Kind())
}

func (m *MovementSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}
	ecs.ForEach2(w, component.ActorMoveComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, mv *component.ActorMove, tf *component.Transform) {
		delta := common.SubVec3(mv.Target, tf.Position)
		dist := common.LengthVec3(delta)
		if delta[0] != 0 || delta[2] != 0 {
			tf.Yaw = math.Atan2(delta[0], delta[2])
		}

		step := mv.Speed * m.dt
		if mv.Speed <= 0 || dist <= step {
			tf.Position = mv.Target
			_ = ecs.Remove(w, e, component.ActorMoveComponent.Kind())
			return
		}
		tf.Position = common.AddVec3(tf.Position, common.ScaleVec3(delta, step/dist))
	})
}
