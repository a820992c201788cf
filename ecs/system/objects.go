package system

import (
	"fmt"
	"log"
	"sort"

	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
)

// ObjectType is the behaviour shared by every object of one scene type.
type ObjectType interface {
	// Activate creates the runtime pieces of e. It is called at most once
	// between deactivations.
	Activate(w *ecs.World, e ecs.Entity) error
	// Interact runs the object's interaction; byPlayer is false when another
	// object chained into it.
	Interact(w *ecs.World, e ecs.Entity, byPlayer bool) component.Pending
	Deactivate(w *ecs.World, e ecs.Entity)
}

// ObjectTypes maps scene object types to their behaviour.
type ObjectTypes struct {
	types map[string]ObjectType
}

func NewObjectTypes() *ObjectTypes {
	return &ObjectTypes{types: make(map[string]ObjectType)}
}

func (r *ObjectTypes) Register(name string, t ObjectType) {
	if t == nil {
		delete(r.types, name)
		return
	}
	r.types[name] = t
}

func (r *ObjectTypes) Lookup(name string) (ObjectType, bool) {
	t, ok := r.types[name]
	return t, ok
}

func (r *ObjectTypes) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *ObjectTypes) typeOf(w *ecs.World, e ecs.Entity) (*component.SceneObject, ObjectType, error) {
	obj, ok := ecs.Get(w, e, component.SceneObjectComponent.Kind())
	if !ok {
		return nil, nil, fmt.Errorf("object %v: scene object: %w", e, ErrMissingComponent)
	}
	t, ok := r.types[obj.Type]
	if !ok {
		return obj, nil, fmt.Errorf("object %q: type %q: %w", obj.ID, obj.Type, ErrUnknownObjectType)
	}
	return obj, t, nil
}

// ActivateObject activates e unless it already is.
func (r *ObjectTypes) ActivateObject(w *ecs.World, e ecs.Entity) error {
	obj, t, err := r.typeOf(w, e)
	if err != nil {
		return err
	}
	if obj.Activated {
		return nil
	}
	if err := t.Activate(w, e); err != nil {
		return fmt.Errorf("activate %q: %w", obj.ID, err)
	}
	obj.Activated = true
	return nil
}

func (r *ObjectTypes) InteractObject(w *ecs.World, e ecs.Entity, byPlayer bool) component.Pending {
	obj, t, err := r.typeOf(w, e)
	if err != nil {
		log.Printf("interact: %v", err)
		return component.Completed
	}
	if !obj.Activated {
		return component.Completed
	}
	return t.Interact(w, e, byPlayer)
}

func (r *ObjectTypes) DeactivateObject(w *ecs.World, e ecs.Entity) {
	obj, t, err := r.typeOf(w, e)
	if err != nil {
		if obj != nil {
			obj.Activated = false
		}
		return
	}
	if !obj.Activated {
		return
	}
	t.Deactivate(w, e)
	obj.Activated = false
}

// WorldObjectResolver finds scene objects by id among the world's entities.
type WorldObjectResolver struct {
	W *ecs.World
}

func (r WorldObjectResolver) ResolveObject(id string) (ecs.Entity, bool) {
	if id == "" {
		return 0, false
	}
	for _, e := range ecs.Query(r.W, component.SceneObjectComponent.Kind()) {
		obj, ok := ecs.Get(r.W, e, component.SceneObjectComponent.Kind())
		if ok && obj.ID == id {
			return e, true
		}
	}
	return 0, false
}

// PropType is a passive object. Activation is all it does.
type PropType struct{}

func (PropType) Name() string { return "prop" }

func (PropType) Activate(*ecs.World, ecs.Entity) error { return nil }

func (PropType) Interact(*ecs.World, ecs.Entity, bool) component.Pending {
	return component.Completed
}

func (PropType) Deactivate(*ecs.World, ecs.Entity) {}
