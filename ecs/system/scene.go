package system

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
	"github.com/milk9111/pedalswitch/ecs/entity"
	"github.com/milk9111/pedalswitch/scenes"
	"github.com/milk9111/pedalswitch/storage"
)

const loadTimeout = 5 * time.Second

// SceneSource reads scene descriptions by name.
type SceneSource interface {
	LoadSceneSpec(name string) (scenes.SceneSpec, error)
}

// SceneSystem loads scenes into the world. The first update loads the
// context's scene; afterwards it serves SceneChangeRequests.
type SceneSystem struct {
	ctx          *SceneContext
	source       SceneSource
	initialized  bool
	loadSequence uint64
	current      *scenes.SceneSpec
}

func NewSceneSystem(ctx *SceneContext, source SceneSource) *SceneSystem {
	return &SceneSystem{ctx: ctx, source: source}
}

func (s *SceneSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}

	if !s.initialized {
		if err := s.Load(w, s.ctx.Scene); err != nil {
			panic("scene system: initial load failed: " + err.Error())
		}
		return
	}

	req, ok := s.firstSceneChangeRequest(w)
	if !ok {
		return
	}
	ecs.ForEach(w, component.SceneChangeRequestComponent.Kind(), func(e ecs.Entity, _ *component.SceneChangeRequest) {
		ecs.DestroyEntity(w, e)
	})

	name := req.Scene
	if name == "" {
		name = s.ctx.Scene
	}
	if err := s.Load(w, name); err != nil {
		log.Printf("scene: load %s: %v", name, err)
	}
}

func (s *SceneSystem) firstSceneChangeRequest(w *ecs.World) (component.SceneChangeRequest, bool) {
	var out component.SceneChangeRequest
	found := false
	ecs.ForEach(w, component.SceneChangeRequestComponent.Kind(), func(_ ecs.Entity, req *component.SceneChangeRequest) {
		if !found {
			out = *req
			found = true
		}
	})
	return out, found
}

// Load replaces the current scene with name. The scene is read before
// anything is torn down. If building it fails, the partial build is removed
// and the previous scene is rebuilt from its in-world state.
func (s *SceneSystem) Load(w *ecs.World, name string) error {
	spec, err := s.source.LoadSceneSpec(name)
	if err != nil {
		return err
	}

	records := s.loadRecords(spec.Name)
	prev, prevRecords := s.current, s.snapshot(w)

	s.Unload(w)
	built, err := s.build(w, spec, records)
	if err != nil {
		s.Unload(w)
		if prev != nil {
			if _, rerr := s.build(w, *prev, prevRecords); rerr != nil {
				return fmt.Errorf("%w (restoring %q: %v)", err, prev.Name, rerr)
			}
		}
		return err
	}
	s.current = &spec
	s.initialized = true

	if _, err := entity.EnsurePlayer(w, spec.Player); err != nil {
		return fmt.Errorf("scene %q: player: %w", spec.Name, err)
	}

	s.loadSequence++
	ent, ok := ecs.First(w, component.SceneLoadedComponent.Kind())
	if !ok {
		ent = ecs.CreateEntity(w)
	}
	_ = ecs.Add(w, ent, component.SceneLoadedComponent.Kind(), &component.SceneLoaded{Scene: spec.Name, Sequence: s.loadSequence})
	w.Events().Push(ecs.Event{Type: ecs.EventSceneLoaded, Data: spec.Name})
	log.Printf("scene: loaded %s (%d objects, %d saved)", spec.Name, len(built), len(records))
	return nil
}

// build creates and activates the objects of spec. ctx.Scene is set first so
// activation persists under the right key.
func (s *SceneSystem) build(w *ecs.World, spec scenes.SceneSpec, records []storage.ObjectRecord) ([]entity.BuiltObject, error) {
	s.ctx.Scene = spec.Name

	built, err := entity.LoadSceneToWorld(w, spec, records)
	if err != nil {
		return built, fmt.Errorf("scene %q: %w", spec.Name, err)
	}
	for _, obj := range built {
		if !obj.Active {
			continue
		}
		if err := s.ctx.Types.ActivateObject(w, obj.Entity); err != nil {
			return built, fmt.Errorf("scene %q: %w", spec.Name, err)
		}
	}
	return built, nil
}

// snapshot records the live state of the current scene's objects.
func (s *SceneSystem) snapshot(w *ecs.World) []storage.ObjectRecord {
	var out []storage.ObjectRecord
	ecs.ForEach(w, component.SceneObjectComponent.Kind(), func(_ ecs.Entity, obj *component.SceneObject) {
		out = append(out, RecordOf(obj))
	})
	return out
}

func (s *SceneSystem) loadRecords(scene string) []storage.ObjectRecord {
	if s.ctx.Store == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	records, err := s.ctx.Store.LoadScene(ctx, scene)
	if err != nil {
		log.Printf("scene: load saved state for %s: %v", scene, err)
		return nil
	}
	return records
}

// Unload deactivates and destroys every entity of the current scene.
func (s *SceneSystem) Unload(w *ecs.World) {
	members := ecs.Query(w, component.SceneMemberComponent.Kind())
	for _, e := range members {
		if ecs.Has(w, e, component.SceneObjectComponent.Kind()) {
			s.ctx.Types.DeactivateObject(w, e)
		}
	}
	for _, e := range members {
		ecs.DestroyEntity(w, e)
	}
}

// RequestSceneChange queues a load of scene; an empty name reloads the
// current scene.
func RequestSceneChange(w *ecs.World, scene string) {
	e := ecs.CreateEntity(w)
	_ = ecs.Add(w, e, component.SceneChangeRequestComponent.Kind(), &component.SceneChangeRequest{Scene: scene})
}
