package system

import (
	"fmt"
	"log"

	"github.com/milk9111/pedalswitch/common"
	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
)

const GateType = "gate"

// GateSystem raises gates over Gate.OpenTicks updates once something
// interacts with them. An opened gate is recorded as switched so it loads
// open next time.
type GateSystem struct {
	ctx *SceneContext
}

func NewGateSystem(ctx *SceneContext) *GateSystem { return &GateSystem{ctx: ctx} }

func (s *GateSystem) Activate(w *ecs.World, e ecs.Entity) error {
	gate, ok := ecs.Get(w, e, component.GateComponent.Kind())
	if !ok {
		return fmt.Errorf("gate: %w", ErrMissingComponent)
	}
	tf, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return fmt.Errorf("gate: transform: %w", ErrMissingComponent)
	}
	gate.BaseY = tf.Position[1]
	if obj, ok := ecs.Get(w, e, component.SceneObjectComponent.Kind()); ok && obj.SwitchState == 1 {
		gate.Open = true
	}
	if gate.Open {
		gate.Opening = false
		gate.Progress = gate.OpenTicks
		tf.Position[1] = gate.BaseY + gate.Lift
	}
	return nil
}

func (s *GateSystem) Interact(w *ecs.World, e ecs.Entity, _ bool) component.Pending {
	gate, ok := ecs.Get(w, e, component.GateComponent.Kind())
	if !ok || gate.Open {
		return component.Completed
	}
	gate.Opening = true
	return component.PendingFunc(func() bool {
		g, ok := ecs.Get(w, e, component.GateComponent.Kind())
		return !ok || !g.Opening
	})
}

func (s *GateSystem) Deactivate(w *ecs.World, e ecs.Entity) {
	if gate, ok := ecs.Get(w, e, component.GateComponent.Kind()); ok {
		gate.Opening = false
	}
}

func (s *GateSystem) Update(w *ecs.World) {
	if w == nil {
		return
	}

	ecs.ForEach2(w, component.GateComponent.Kind(), component.TransformComponent.Kind(), func(e ecs.Entity, gate *component.Gate, tf *component.Transform) {
		if !gate.Opening {
			return
		}

		gate.Progress++
		t := 1.0
		if gate.OpenTicks > 0 {
			t = common.Clamp01(float64(gate.Progress) / float64(gate.OpenTicks))
		}
		tf.Position[1] = gate.BaseY + gate.Lift*common.EaseInOutSine(t)
		if t < 1 {
			return
		}

		gate.Opening = false
		gate.Open = true
		tf.Position[1] = gate.BaseY + gate.Lift
		if obj, ok := ecs.Get(w, e, component.SceneObjectComponent.Kind()); ok {
			if s.ctx != nil && s.ctx.Switches != nil {
				s.ctx.Switches.RecordActivation(obj)
			}
			log.Printf("gate: %s open", obj.ID)
		}
	})
}
