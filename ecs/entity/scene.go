package entity

import (
	"fmt"
	"sort"

	"github.com/milk9111/pedalswitch/common"
	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
	"github.com/milk9111/pedalswitch/scenes"
	"github.com/milk9111/pedalswitch/storage"
)

// BuiltObject is one scene object created by LoadSceneToWorld.
type BuiltObject struct {
	Entity ecs.Entity
	ID     string
	Active bool
}

type componentBuildFn func(w *ecs.World, e ecs.Entity, raw any, obj scenes.ObjectSpec) error

var componentRegistry = map[string]componentBuildFn{
	"gate": addGate,
}

// typeDefaults attaches the components every object of a type needs, before
// any authored components are applied.
var typeDefaults = map[string]componentBuildFn{
	"pedal_switch": addPedalSwitch,
	"gate":         addGate,
}

// LoadSceneToWorld creates one entity per scene object. Persisted records
// override the authored activation budget and switch state.
func LoadSceneToWorld(w *ecs.World, spec scenes.SceneSpec, records []storage.ObjectRecord) ([]BuiltObject, error) {
	byID := make(map[string]storage.ObjectRecord, len(records))
	for _, rec := range records {
		byID[rec.ID] = rec
	}

	built := make([]BuiltObject, 0, len(spec.Objects))
	for _, obj := range spec.Objects {
		var rec *storage.ObjectRecord
		if r, ok := byID[obj.ID]; ok {
			rec = &r
		}
		e, err := BuildObject(w, spec.Name, obj, rec)
		if err != nil {
			return built, err
		}
		built = append(built, BuiltObject{Entity: e, ID: obj.ID, Active: obj.ActiveOrDefault()})
	}
	return built, nil
}

// BuildObject creates the entity for one object. The entity is destroyed
// again if any component fails to build.
func BuildObject(w *ecs.World, scene string, obj scenes.ObjectSpec, rec *storage.ObjectRecord) (ecs.Entity, error) {
	e := ecs.CreateEntity(w)
	if err := buildObject(w, e, scene, obj, rec); err != nil {
		ecs.DestroyEntity(w, e)
		return 0, fmt.Errorf("entity: object %q: %w", obj.ID, err)
	}
	return e, nil
}

func buildObject(w *ecs.World, e ecs.Entity, scene string, obj scenes.ObjectSpec, rec *storage.ObjectRecord) error {
	so := &component.SceneObject{
		ID:             obj.ID,
		Type:           obj.Type,
		Name:           obj.Name,
		LayerIndex:     obj.LayerIndex,
		TimesRemaining: obj.TimesOrDefault(),
		SwitchState:    obj.SwitchState,
		LinkedObjectID: obj.LinkedObject,
		ScriptID:       obj.Script,
	}
	if rec != nil {
		so.TimesRemaining = rec.TimesRemaining
		so.SwitchState = rec.SwitchState
	}
	if err := ecs.Add(w, e, component.SceneObjectComponent.Kind(), so); err != nil {
		return err
	}
	if err := ecs.Add(w, e, component.SceneMemberComponent.Kind(), &component.SceneMember{Scene: scene}); err != nil {
		return err
	}
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{
		Position: common.Vec3(obj.Position[0], obj.Position[1], obj.Position[2]),
		Yaw:      obj.Yaw,
	}); err != nil {
		return err
	}
	if obj.Model != nil {
		if err := ecs.Add(w, e, component.ModelComponent.Kind(), &component.Model{Bounds: common.Bounds{
			Center: common.Vec3(obj.Model.Center[0], obj.Model.Center[1], obj.Model.Center[2]),
			Size:   common.Vec3(obj.Model.Size[0], obj.Model.Size[1], obj.Model.Size[2]),
		}}); err != nil {
			return err
		}
	}

	if fn, ok := typeDefaults[obj.Type]; ok {
		if err := fn(w, e, nil, obj); err != nil {
			return err
		}
	}

	names := make([]string, 0, len(obj.Components))
	for name := range obj.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fn, ok := componentRegistry[name]
		if !ok {
			return fmt.Errorf("unknown component %q", name)
		}
		if err := fn(w, e, obj.Components[name], obj); err != nil {
			return fmt.Errorf("component %q: %w", name, err)
		}
	}
	return nil
}

func addPedalSwitch(w *ecs.World, e ecs.Entity, _ any, _ scenes.ObjectSpec) error {
	return ecs.Add(w, e, component.PedalSwitchComponent.Kind(), &component.PedalSwitch{
		DescendingHeight:   component.DefaultDescendingHeight,
		DescendingDuration: component.DefaultDescendingDuration,
	})
}

const defaultGateOpenTicks = 60

func addGate(w *ecs.World, e ecs.Entity, raw any, obj scenes.ObjectSpec) error {
	spec, err := scenes.DecodeComponentSpec[scenes.GateComponentSpec](raw)
	if err != nil {
		return err
	}
	gate, ok := ecs.Get(w, e, component.GateComponent.Kind())
	if !ok {
		gate = &component.Gate{OpenTicks: defaultGateOpenTicks, Lift: 2}
		if obj.Model != nil && obj.Model.Size[1] > 0 {
			gate.Lift = obj.Model.Size[1]
		}
	}
	if spec.OpenTicks > 0 {
		gate.OpenTicks = spec.OpenTicks
	}
	if spec.Open {
		gate.Open = true
	}
	return ecs.Add(w, e, component.GateComponent.Kind(), gate)
}

// EnsurePlayer places the player at the scene's spawn point, creating it on
// first use. The player outlives scene loads.
func EnsurePlayer(w *ecs.World, spec scenes.PlayerSpec) (ecs.Entity, error) {
	pos := common.Vec3(spec.Position[0], spec.Position[1], spec.Position[2])
	radius := spec.Radius
	if radius <= 0 {
		radius = 0.3
	}
	speed := spec.Speed
	if speed <= 0 {
		speed = 4
	}

	if e, ok := ecs.First(w, component.PlayerTagComponent.Kind()); ok {
		if tf, ok := ecs.Get(w, e, component.TransformComponent.Kind()); ok {
			tf.Position = pos
		}
		_ = ecs.Remove(w, e, component.ActorMoveComponent.Kind())
		return e, ecs.Add(w, e, component.ActorBodyComponent.Kind(), &component.ActorBody{Radius: radius, LayerIndex: spec.LayerIndex, Speed: speed})
	}

	e := ecs.CreateEntity(w)
	if err := ecs.Add(w, e, component.PlayerTagComponent.Kind(), &component.PlayerTag{}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{Position: pos}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.ActorBodyComponent.Kind(), &component.ActorBody{Radius: radius, LayerIndex: spec.LayerIndex, Speed: speed}); err != nil {
		return 0, err
	}
	if err := ecs.Add(w, e, component.InputComponent.Kind(), &component.Input{}); err != nil {
		return 0, err
	}
	return e, nil
}
