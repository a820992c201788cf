package system

import (
	"errors"
	"time"

	"github.com/milk9111/pedalswitch/command"
	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
	"github.com/milk9111/pedalswitch/storage"
	"golang.org/x/image/math/f64"
)

var (
	ErrMissingComponent  = errors.New("system: required component missing")
	ErrUnknownObjectType = errors.New("system: unknown object type")
)

// ModeReader reads the authoritative game mode.
type ModeReader interface {
	CurrentMode() component.GameMode
}

// ActorMover moves actors. speed <= 0 places the actor directly.
type ActorMover interface {
	MoveActorTo(actor ecs.Entity, pos f64.Vec3, speed float64) component.Pending
	Cancel(actor ecs.Entity)
}

// ObjectResolver looks up scene objects by their scene id.
type ObjectResolver interface {
	ResolveObject(id string) (ecs.Entity, bool)
}

// ScriptRef names a script and the object it runs for.
type ScriptRef struct {
	ID     string
	Object string
}

// ScriptExecutor runs attached scripts to completion.
type ScriptExecutor interface {
	ExecuteIfPresent(ref ScriptRef)
}

// SceneContext carries everything scene objects depend on. It is built once
// and handed to the systems that need it.
type SceneContext struct {
	// Scene is the name of the loaded scene, used as the persistence key.
	Scene string
	// Tick is the game time covered by one update.
	Tick time.Duration

	Modes      ModeReader
	Dispatcher command.Dispatcher
	Mover      ActorMover
	Objects    ObjectResolver
	Scripts    ScriptExecutor
	Store      storage.Store
	Switches   *SwitchStateStore
	Triggers   *TriggerSystem
	Types      *ObjectTypes
	Linked     *LinkedObjectActivator

	Debug bool
}

// RequestMode publishes a mode change through the dispatcher.
func (c *SceneContext) RequestMode(mode component.GameMode) {
	if c == nil || c.Dispatcher == nil {
		return
	}
	c.Dispatcher.Dispatch(command.GameStateChangeRequest{Mode: mode})
}

func (c *SceneContext) tickDuration() time.Duration {
	if c == nil || c.Tick <= 0 {
		return time.Second / 60
	}
	return c.Tick
}

func playerEntity(w *ecs.World) (ecs.Entity, bool) {
	return ecs.First(w, component.PlayerTagComponent.Kind())
}

// Options configures NewRuntime.
type Options struct {
	Scene string
	Tick  time.Duration
	// InitialMode is the mode before any request is applied.
	InitialMode component.GameMode

	Store   storage.Store
	Scenes  SceneSource
	Scripts ScriptSource
	// Dispatcher receives every published command. Nil publishes straight to
	// the world; wrappers should forward to NewWorldDispatcher.
	Dispatcher command.Dispatcher

	Debug bool
}

// Runtime is the scene object stack wired onto one world.
type Runtime struct {
	Context   *SceneContext
	Scheduler *ecs.Scheduler

	Scenes   *SceneSystem
	Player   *PlayerControllerSystem
	Triggers *TriggerSystem
	Pedals   *PedalSwitchSystem
	Movement *MovementSystem
	Gates    *GateSystem
	Modes    *ModeSystem
	Scripts  *ScriptRunner
}

func NewRuntime(w *ecs.World, opts Options) *Runtime {
	ctx := &SceneContext{
		Scene: opts.Scene,
		Tick:  opts.Tick,
		Store: opts.Store,
		Debug: opts.Debug,
	}
	tick := ctx.tickDuration().Seconds()

	modes := NewModeSystem(w, opts.InitialMode)
	ctx.Modes = WorldModes{W: w}
	ctx.Dispatcher = opts.Dispatcher
	if ctx.Dispatcher == nil {
		ctx.Dispatcher = NewWorldDispatcher(w)
	}

	movement := NewMovementSystem(w, tick)
	ctx.Mover = movement
	ctx.Objects = WorldObjectResolver{W: w}
	ctx.Switches = NewSwitchStateStore(opts.Store, func() string { return ctx.Scene })
	ctx.Triggers = NewTriggerSystem(tick)
	ctx.Types = NewObjectTypes()
	ctx.Linked = &LinkedObjectActivator{W: w, Objects: ctx.Objects, Types: ctx.Types}

	var scripts *ScriptRunner
	if opts.Scripts != nil {
		scripts = NewScriptRunner(w, opts.Scripts)
		ctx.Scripts = scripts
	}

	pedals := NewPedalSwitchSystem(ctx)
	gates := NewGateSystem(ctx)
	ctx.Types.Register(PedalSwitchType, pedals)
	ctx.Types.Register(GateType, gates)
	ctx.Types.Register(PropType{}.Name(), PropType{})

	sceneSys := NewSceneSystem(ctx, opts.Scenes)
	player := NewPlayerControllerSystem(ctx.Modes, tick)

	return &Runtime{
		Context:   ctx,
		Scheduler: ecs.NewScheduler(sceneSys, player, ctx.Triggers, pedals, movement, gates, modes),
		Scenes:    sceneSys,
		Player:    player,
		Triggers:  ctx.Triggers,
		Pedals:    pedals,
		Movement:  movement,
		Gates:     gates,
		Modes:     modes,
		Scripts:   scripts,
	}
}

func (r *Runtime) Update(w *ecs.World) {
	r.Scheduler.Update(w)
}
