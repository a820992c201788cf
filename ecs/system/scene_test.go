package system

import (
	"context"
	"errors"
	"testing"

	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
	"github.com/milk9111/pedalswitch/scenes"
	"github.com/milk9111/pedalswitch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSceneLoadActivatesActiveObjects(t *testing.T) {
	lamp := scenes.ObjectSpec{ID: "lamp", Type: "prop", Active: boolPtr(false)}
	h := newHarness(t, testScene(pedalSpec("p1", "_h1.pol", 0, 0), lamp), nil)

	_, pedal := h.object("p1")
	_, prop := h.object("lamp")
	assert.True(t, pedal.Activated)
	assert.False(t, prop.Activated)
	assert.Len(t, h.rt.Triggers.Volumes(), 1)
	assert.Equal(t, 1, h.countEvents(ecs.EventSceneLoaded))

	e, ok := ecs.First(h.w, component.SceneLoadedComponent.Kind())
	require.True(t, ok)
	loaded, _ := ecs.Get(h.w, e, component.SceneLoadedComponent.Kind())
	assert.Equal(t, "test", loaded.Scene)
	assert.Equal(t, uint64(1), loaded.Sequence)
}

func TestSceneReloadKeepsPlayerAndState(t *testing.T) {
	h := newHarness(t, h1Scene(), nil)
	player := h.player()
	modes := len(ecs.Query(h.w, component.GameStateComponent.Kind()))

	h.placePlayer(0, 0)
	h.step()
	h.runUntilIdle(200)

	RequestSceneChange(h.w, "")
	h.step()

	assert.Equal(t, player, h.player())
	assert.Equal(t, modes, len(ecs.Query(h.w, component.GameStateComponent.Kind())))
	assert.InDelta(t, -6.0, h.transform(player).Position[2], 1e-9)
	assert.Len(t, ecs.Query(h.w, component.SceneObjectComponent.Kind()), 2)
	assert.Len(t, h.rt.Triggers.Volumes(), 1)

	_, pedal := h.object("p1")
	assert.Equal(t, 1, pedal.SwitchState)
	gate, _ := h.object("g1")
	g, ok := ecs.Get(h.w, gate, component.GateComponent.Kind())
	require.True(t, ok)
	assert.True(t, g.Open)
	assert.InDelta(t, 2.0, h.transform(gate).Position[1], 1e-9)
}

func TestSceneLoadFailureKeepsCurrentScene(t *testing.T) {
	h := newHarness(t, h1Scene(), nil)

	err := h.rt.Scenes.Load(h.w, "missing")
	require.Error(t, err)
	assert.Len(t, ecs.Query(h.w, component.SceneObjectComponent.Kind()), 2)

	RequestSceneChange(h.w, "missing")
	require.NotPanics(t, h.step)
	assert.Len(t, ecs.Query(h.w, component.SceneObjectComponent.Kind()), 2)
	assert.Equal(t, "test", h.rt.Context.Scene)
}

func TestSceneBuildFailureRestoresCurrentScene(t *testing.T) {
	h := newHarness(t, h1Scene(), nil)
	h.placePlayer(0, 0)
	h.step()
	h.runUntilIdle(200)

	broken := pedalSpec("p9", "broken.pol", 4, 4)
	broken.Model = nil
	bad := h1Scene()
	bad.Objects = append(bad.Objects, broken)
	h.rt.Scenes.source.(fakeScenes)["test"] = bad

	RequestSceneChange(h.w, "")
	require.NotPanics(t, h.step)

	assert.Len(t, ecs.Query(h.w, component.SceneObjectComponent.Kind()), 2)
	assert.Len(t, h.rt.Triggers.Volumes(), 1)
	_, ok := WorldObjectResolver{W: h.w}.ResolveObject("p9")
	assert.False(t, ok)
	assert.Equal(t, "test", h.rt.Context.Scene)

	e, pedal := h.object("p1")
	assert.True(t, pedal.Activated)
	assert.Equal(t, 1, pedal.SwitchState)
	assert.Equal(t, 0, pedal.TimesRemaining)
	assert.InDelta(t, 0.0, h.transform(e).Position[1], 1e-9)

	gate, g := h.object("g1")
	assert.True(t, g.Activated)
	gs, ok := ecs.Get(h.w, gate, component.GateComponent.Kind())
	require.True(t, ok)
	assert.True(t, gs.Open)

	err := h.rt.Scenes.Load(h.w, "test")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingComponent))
	assert.Len(t, ecs.Query(h.w, component.SceneObjectComponent.Kind()), 2)
}

func TestSceneUnknownObjectType(t *testing.T) {
	spec := testScene(scenes.ObjectSpec{ID: "x", Type: "teapot"})
	w := ecs.NewWorld()
	rt := NewRuntime(w, Options{Scene: "test", Scenes: fakeScenes{"test": spec}})

	err := rt.Scenes.Load(w, "test")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownObjectType))

	// A scene that cannot load at startup is fatal.
	w2 := ecs.NewWorld()
	rt2 := NewRuntime(w2, Options{Scene: "test", Scenes: fakeScenes{"test": spec}})
	assert.Panics(t, func() { rt2.Update(w2) })
}

func TestSceneIgnoresStoreFailures(t *testing.T) {
	store := &failingStore{}
	w := ecs.NewWorld()
	rt := NewRuntime(w, Options{Scene: "test", Tick: testTick, InitialMode: component.ModeGameplay, Store: store, Scenes: fakeScenes{"test": h1Scene()}})
	rt.Update(w)

	e, ok := WorldObjectResolver{W: w}.ResolveObject("p1")
	require.True(t, ok)
	obj, _ := ecs.Get(w, e, component.SceneObjectComponent.Kind())
	rt.Context.Switches.RecordActivation(obj)
	assert.Equal(t, 1, obj.SwitchState)
	assert.Equal(t, 1, store.saves)
}

type failingStore struct {
	saves int
}

func (s *failingStore) LoadScene(_ context.Context, _ string) ([]storage.ObjectRecord, error) {
	return nil, errors.New("disk on fire")
}

func (s *failingStore) SaveObject(_ context.Context, _ string, _ storage.ObjectRecord) error {
	s.saves++
	return errors.New("disk on fire")
}

func (s *failingStore) Close() error { return nil }
