package system

import (
	"fmt"
	"log"

	"github.com/milk9111/pedalswitch/common"
	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
)

const PedalSwitchType = "pedal_switch"

type pedalRuntime struct {
	volume *TriggerVolume
	sub    *Subscription
}

// PedalSwitchSystem is both the pedal_switch object type and the sequencer
// that drives its interaction runs: the player steps on the platform, is
// placed at its center, the platform sinks, the attached script runs, the
// linked object is activated and control returns to the player.
//
// Each update handles one step of a run, so every step starts on a later tick
// than the one before it.
type PedalSwitchSystem struct {
	ctx      *SceneContext
	runtimes map[ecs.Entity]*pedalRuntime
}

func NewPedalSwitchSystem(ctx *SceneContext) *PedalSwitchSystem {
	return &PedalSwitchSystem{ctx: ctx, runtimes: make(map[ecs.Entity]*pedalRuntime)}
}

func (s *PedalSwitchSystem) Activate(w *ecs.World, e ecs.Entity) error {
	if _, ok := s.runtimes[e]; ok {
		return nil
	}
	obj, ok := ecs.Get(w, e, component.SceneObjectComponent.Kind())
	if !ok {
		return fmt.Errorf("pedal switch: scene object: %w", ErrMissingComponent)
	}
	tf, ok := ecs.Get(w, e, component.TransformComponent.Kind())
	if !ok {
		return fmt.Errorf("pedal switch %q: transform: %w", obj.ID, ErrMissingComponent)
	}
	pedal, ok := ecs.Get(w, e, component.PedalSwitchComponent.Kind())
	if !ok {
		return fmt.Errorf("pedal switch %q: pedal: %w", obj.ID, ErrMissingComponent)
	}

	// Exhausted switches load already pressed down.
	if obj.TimesRemaining == 0 {
		tf.Position[1] -= pedal.DescendingHeight
	}

	bounds, err := ActivateTriggerVolume(w, e)
	if err != nil {
		return err
	}
	vol := s.ctx.Triggers.CreateVolume(e, bounds, obj.LayerIndex)
	if err := ecs.Add(w, e, component.TriggerVolumeComponent.Kind(), &component.TriggerVolume{Bounds: bounds, LayerIndex: obj.LayerIndex}); err != nil {
		vol.Release()
		return err
	}
	rt := &pedalRuntime{volume: vol}
	rt.sub = vol.Subscribe(func(actor ecs.Entity) {
		s.onActorEntered(w, e, actor)
	})
	s.runtimes[e] = rt
	return nil
}

func (s *PedalSwitchSystem) onActorEntered(w *ecs.World, e ecs.Entity, actor ecs.Entity) {
	if !ecs.IsAlive(w, e) || ecs.Has(w, e, component.InteractionRunComponent.Kind()) {
		return
	}
	if s.ctx.Modes.CurrentMode() != component.ModeGameplay {
		return
	}
	obj, ok := ecs.Get(w, e, component.SceneObjectComponent.Kind())
	if !ok || obj.SwitchState == 1 || !IsInteractable(obj) {
		return
	}

	s.ctx.Switches.RecordActivation(obj)
	s.ctx.RequestMode(component.ModeCutscene)
	if s.ctx.Debug {
		log.Printf("pedal: %s pressed by %v", obj.ID, actor)
	}
	_ = s.start(w, e, true)
}

// start attaches a new run. If that fails a run that took the cutscene hands
// gameplay straight back.
func (s *PedalSwitchSystem) start(w *ecs.World, e ecs.Entity, ownsMode bool) error {
	err := ecs.Add(w, e, component.InteractionRunComponent.Kind(), &component.InteractionRun{
		Phase:    component.PhaseApproaching,
		OwnsMode: ownsMode,
	})
	if err != nil {
		log.Printf("pedal: start run on %v: %v", e, err)
		if ownsMode {
			s.ctx.RequestMode(component.ModeGameplay)
		}
	}
	return err
}

// Interact starts a run. Player-triggered calls go through the same checks as
// stepping on the platform; chained calls skip them and leave the game mode to
// the run that chained in.
//
// A switch already running is left alone and reported done, so switches
// linked in a loop cannot wait on each other.
func (s *PedalSwitchSystem) Interact(w *ecs.World, e ecs.Entity, byPlayer bool) component.Pending {
	if ecs.Has(w, e, component.InteractionRunComponent.Kind()) {
		return component.Completed
	}
	if byPlayer {
		player, _ := playerEntity(w)
		s.onActorEntered(w, e, player)
	} else if err := s.start(w, e, false); err != nil {
		return component.Completed
	}
	return component.PendingFunc(func() bool {
		return !ecs.Has(w, e, component.InteractionRunComponent.Kind())
	})
}

// Deactivate tears the switch down. A run in flight is cancelled and, if it
// holds the cutscene, gameplay is handed back.
func (s *PedalSwitchSystem) Deactivate(w *ecs.World, e ecs.Entity) {
	rt := s.runtimes[e]
	delete(s.runtimes, e)
	if rt != nil {
		rt.sub.Close()
		defer rt.volume.Release()
	}

	if run, ok := ecs.Get(w, e, component.InteractionRunComponent.Kind()); ok {
		if run.Phase == component.PhaseApproaching {
			if player, ok := playerEntity(w); ok {
				s.ctx.Mover.Cancel(player)
			}
		}
		if run.OwnsMode {
			s.ctx.RequestMode(component.ModeGameplay)
		}
		_ = ecs.Remove(w, e, component.InteractionRunComponent.Kind())
	}
	_ = ecs.Remove(w, e, component.TriggerVolumeComponent.Kind())
}

// Volume returns the trigger volume of an active switch.
func (s *PedalSwitchSystem) Volume(e ecs.Entity) (*TriggerVolume, bool) {
	rt, ok := s.runtimes[e]
	if !ok {
		return nil, false
	}
	return rt.volume, true
}

func (s *PedalSwitchSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}
	ecs.ForEach(w, component.InteractionRunComponent.Kind(), func(e ecs.Entity, run *component.InteractionRun) {
		s.step(w, e, run)
	})
}

func (s *PedalSwitchSystem) step(w *ecs.World, e ecs.Entity, run *component.InteractionRun) {
	if !run.Entered {
		run.Entered = true
		w.Events().Push(ecs.Event{Type: ecs.EventPhaseEntered, Data: ecs.PhaseEntered{Entity: e, Phase: int(run.Phase)}})
		s.enter(w, e, run)
		return
	}

	switch run.Phase {
	case component.PhaseApproaching, component.PhaseLinkedActivating:
		if run.Wait == nil || run.Wait.Done() {
			s.advance(run)
		}
	case component.PhaseDescending:
		s.descend(w, e, run)
	case component.PhaseScriptExecuting:
		s.advance(run)
	default:
		_ = ecs.Remove(w, e, component.InteractionRunComponent.Kind())
	}
}

func (s *PedalSwitchSystem) advance(run *component.InteractionRun) {
	run.Phase++
	run.Entered = false
	run.Wait = nil
}

func (s *PedalSwitchSystem) enter(w *ecs.World, e ecs.Entity, run *component.InteractionRun) {
	obj, ok := ecs.Get(w, e, component.SceneObjectComponent.Kind())
	if !ok {
		_ = ecs.Remove(w, e, component.InteractionRunComponent.Kind())
		return
	}

	switch run.Phase {
	case component.PhaseApproaching:
		run.Wait = component.Completed
		player, ok := playerEntity(w)
		rt := s.runtimes[e]
		if !ok || rt == nil {
			return
		}
		center := rt.volume.Bounds.Center
		run.Anchor = common.Vec3(center[0], rt.volume.GroundHeight(), center[2])
		run.Wait = s.ctx.Mover.MoveActorTo(player, run.Anchor, 0)

	case component.PhaseDescending:
		tf, ok := ecs.Get(w, e, component.TransformComponent.Kind())
		if !ok {
			run.StartY, run.FinalY = 0, 0
			return
		}
		height := component.DefaultDescendingHeight
		if pedal, ok := ecs.Get(w, e, component.PedalSwitchComponent.Kind()); ok {
			height = pedal.DescendingHeight
		}
		run.StartY = tf.Position[1]
		run.FinalY = run.StartY - height
		run.Elapsed = 0

	case component.PhaseScriptExecuting:
		if obj.ScriptID != "" && s.ctx.Scripts != nil {
			s.ctx.Scripts.ExecuteIfPresent(ScriptRef{ID: obj.ScriptID, Object: obj.ID})
		}

	case component.PhaseLinkedActivating:
		run.Wait = s.ctx.Linked.ActivateLinked(obj.LinkedObjectID)

	case component.PhaseRestoring:
		if run.OwnsMode {
			s.ctx.RequestMode(component.ModeGameplay)
			run.OwnsMode = false
		}
		_ = ecs.Remove(w, e, component.InteractionRunComponent.Kind())
		w.Events().Push(ecs.Event{Type: ecs.EventSwitchPressed, Data: obj.ID})
		if s.ctx.Debug {
			log.Printf("pedal: %s done", obj.ID)
		}
	}
}

func (s *PedalSwitchSystem) descend(w *ecs.World, e ecs.Entity, run *component.InteractionRun) {
	duration := component.DefaultDescendingDuration
	if pedal, ok := ecs.Get(w, e, component.PedalSwitchComponent.Kind()); ok && pedal.DescendingDuration > 0 {
		duration = pedal.DescendingDuration
	}
	run.Elapsed += s.ctx.tickDuration()

	t := common.Clamp01(float64(run.Elapsed) / float64(duration))
	y := common.Lerp(run.StartY, run.FinalY, common.EaseInOutSine(t))
	if t >= 1 {
		y = run.FinalY
	}
	if tf, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
		tf.Position[1] = y
	}
	if t >= 1 {
		s.advance(run)
	}
}
