package system

import (
	"log"

	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
)

// LinkedObjectActivator chains an interaction into the object an object is
// linked to: objects that are not active yet get activated, active ones get
// an interaction.
type LinkedObjectActivator struct {
	W       *ecs.World
	Objects ObjectResolver
	Types   *ObjectTypes
}

func (l *LinkedObjectActivator) ActivateLinked(id string) component.Pending {
	if l == nil || id == "" {
		return component.Completed
	}
	e, ok := l.Objects.ResolveObject(id)
	if !ok {
		log.Printf("linked: object %q not in scene", id)
		return component.Completed
	}
	obj, ok := ecs.Get(l.W, e, component.SceneObjectComponent.Kind())
	if !ok {
		return component.Completed
	}
	if obj.Activated {
		return l.Types.InteractObject(l.W, e, false)
	}
	if err := l.Types.ActivateObject(l.W, e); err != nil {
		log.Printf("linked: %v", err)
	}
	return component.Completed
}
