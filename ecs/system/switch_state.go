package system

import (
	"context"
	"log"
	"time"

	"github.com/milk9111/pedalswitch/ecs/component"
	"github.com/milk9111/pedalswitch/storage"
)

const saveTimeout = 2 * time.Second

// IsInteractable reports whether obj has activations left. A negative budget
// never runs out.
func IsInteractable(obj *component.SceneObject) bool {
	return obj != nil && obj.TimesRemaining != 0
}

// SwitchStateStore applies activations to scene objects and persists them.
type SwitchStateStore struct {
	Store storage.Store
	// Scene names the record namespace; it is read on every save so it follows
	// scene loads.
	Scene func() string
}

func NewSwitchStateStore(store storage.Store, scene func() string) *SwitchStateStore {
	return &SwitchStateStore{Store: store, Scene: scene}
}

// RecordActivation consumes one activation and marks obj switched. Save
// failures are logged; the in-memory state is authoritative for this session.
func (s *SwitchStateStore) RecordActivation(obj *component.SceneObject) {
	if obj == nil {
		return
	}
	if obj.TimesRemaining > 0 {
		obj.TimesRemaining--
	}
	obj.SwitchState = 1
	s.save(obj)
}

func (s *SwitchStateStore) save(obj *component.SceneObject) {
	if s == nil || s.Store == nil {
		return
	}
	scene := ""
	if s.Scene != nil {
		scene = s.Scene()
	}
	ctx, cancel := context.WithTimeout(context.Background(), saveTimeout)
	defer cancel()
	if err := s.Store.SaveObject(ctx, scene, RecordOf(obj)); err != nil {
		log.Printf("switch: save %s/%s: %v", scene, obj.ID, err)
	}
}

// RecordOf is the persisted form of obj.
func RecordOf(obj *component.SceneObject) storage.ObjectRecord {
	return storage.ObjectRecord{
		ID:             obj.ID,
		Name:           obj.Name,
		LayerIndex:     obj.LayerIndex,
		TimesRemaining: obj.TimesRemaining,
		SwitchState:    obj.SwitchState,
		LinkedObjectID: obj.LinkedObjectID,
	}
}
