package system

import (
	"fmt"
	"testing"
	"time"

	"github.com/milk9111/pedalswitch/command"
	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
	"github.com/milk9111/pedalswitch/scenes"
	"github.com/milk9111/pedalswitch/storage"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/math/f64"
)

const testTick = 100 * time.Millisecond

// descendTicks is DefaultDescendingDuration at testTick.
const descendTicks = int(component.DefaultDescendingDuration / testTick)

type fakeScenes map[string]scenes.SceneSpec

func (f fakeScenes) LoadSceneSpec(name string) (scenes.SceneSpec, error) {
	spec, ok := f[name]
	if !ok {
		return scenes.SceneSpec{}, fmt.Errorf("scene %q not found", name)
	}
	if spec.Name == "" {
		spec.Name = name
	}
	return spec, nil
}

type fakeScripts map[string]string

func (f fakeScripts) LoadScript(name string) ([]byte, error) {
	src, ok := f[name]
	if !ok {
		return nil, fmt.Errorf("script %q not found", name)
	}
	return []byte(src), nil
}

type phaseAt struct {
	tick   int
	entity ecs.Entity
	phase  component.InteractionPhase
}

type harness struct {
	t      *testing.T
	w      *ecs.World
	rt     *Runtime
	rec    *command.Recorder
	store  *storage.MemoryStore
	tick   int
	phases []phaseAt
	events []ecs.Event
}

func intPtr(v int) *int    { return &v }
func boolPtr(v bool) *bool { return &v }

func pedalSpec(id, name string, x, z float64) scenes.ObjectSpec {
	return scenes.ObjectSpec{
		ID:       id,
		Type:     PedalSwitchType,
		Name:     name,
		Position: [3]float64{x, 0.25, z},
		Model:    &scenes.BoundsSpec{Size: [3]float64{2, 0.5, 2}},
		Times:    intPtr(1),
	}
}

func gateSpec(id string, x, z float64, openTicks int) scenes.ObjectSpec {
	return scenes.ObjectSpec{
		ID:       id,
		Type:     GateType,
		Name:     "gate.pol",
		Position: [3]float64{x, 0, z},
		Model:    &scenes.BoundsSpec{Center: [3]float64{0, 1, 0}, Size: [3]float64{4, 2, 0.5}},
		Times:    intPtr(-1),
		Components: map[string]any{
			"gate": map[string]any{"open_ticks": openTicks},
		},
	}
}

func testScene(objects ...scenes.ObjectSpec) scenes.SceneSpec {
	return scenes.SceneSpec{
		Name:    "test",
		Player:  scenes.PlayerSpec{Position: [3]float64{0, 0, -6}, Radius: 0.3, Speed: 4},
		Objects: objects,
	}
}

func newHarness(t *testing.T, spec scenes.SceneSpec, scripts fakeScripts, setup ...func(*Runtime)) *harness {
	return newHarnessWithStore(t, spec, scripts, storage.NewMemoryStore(), setup...)
}

// newHarnessWithStore builds the runtime, runs setup and steps once so the
// scene is loaded.
func newHarnessWithStore(t *testing.T, spec scenes.SceneSpec, scripts fakeScripts, store *storage.MemoryStore, setup ...func(*Runtime)) *harness {
	t.Helper()
	w := ecs.NewWorld()
	rec := &command.Recorder{Next: NewWorldDispatcher(w)}
	opts := Options{
		Scene:       spec.Name,
		Tick:        testTick,
		InitialMode: component.ModeGameplay,
		Store:       store,
		Scenes:      fakeScenes{spec.Name: spec},
		Dispatcher:  rec,
	}
	if scripts != nil {
		opts.Scripts = scripts
	}
	h := &harness{
		t:     t,
		w:     w,
		rt:    NewRuntime(w, opts),
		rec:   rec,
		store: store,
	}
	for _, fn := range setup {
		fn(h.rt)
	}
	h.step()
	return h
}

func (h *harness) step() {
	h.tick++
	h.rt.Update(h.w)
	for _, ev := range h.w.Events().Drain() {
		h.events = append(h.events, ev)
		if pe, ok := ev.Data.(ecs.PhaseEntered); ok && ev.Type == ecs.EventPhaseEntered {
			h.phases = append(h.phases, phaseAt{tick: h.tick, entity: pe.Entity, phase: component.InteractionPhase(pe.Phase)})
		}
	}
}

func (h *harness) steps(n int) {
	for i := 0; i < n; i++ {
		h.step()
	}
}

// runUntilIdle steps until no interaction run is left, failing after max
// ticks.
func (h *harness) runUntilIdle(max int) {
	h.t.Helper()
	for i := 0; i < max; i++ {
		if len(ecs.Query(h.w, component.InteractionRunComponent.Kind())) == 0 {
			return
		}
		h.step()
	}
	require.FailNow(h.t, "interaction still running", "after %d ticks", max)
}

func (h *harness) object(id string) (ecs.Entity, *component.SceneObject) {
	h.t.Helper()
	e, ok := WorldObjectResolver{W: h.w}.ResolveObject(id)
	require.True(h.t, ok, "object %q", id)
	obj, ok := ecs.Get(h.w, e, component.SceneObjectComponent.Kind())
	require.True(h.t, ok)
	return e, obj
}

func (h *harness) transform(e ecs.Entity) *component.Transform {
	h.t.Helper()
	tf, ok := ecs.Get(h.w, e, component.TransformComponent.Kind())
	require.True(h.t, ok)
	return tf
}

func (h *harness) player() ecs.Entity {
	h.t.Helper()
	e, ok := playerEntity(h.w)
	require.True(h.t, ok)
	return e
}

func (h *harness) placePlayer(x, z float64) {
	h.transform(h.player()).Position = f64.Vec3{x, 0, z}
}

func (h *harness) mode() component.GameMode {
	return WorldModes{W: h.w}.CurrentMode()
}

func (h *harness) running(e ecs.Entity) bool {
	return ecs.Has(h.w, e, component.InteractionRunComponent.Kind())
}

func (h *harness) phasesOf(e ecs.Entity) []phaseAt {
	var out []phaseAt
	for _, p := range h.phases {
		if p.entity == e {
			out = append(out, p)
		}
	}
	return out
}

// countingType records calls made to it.
type countingType struct {
	activated   int
	interacted  int
	deactivated int
	byPlayer    []bool
}

func (c *countingType) Activate(*ecs.World, ecs.Entity) error {
	c.activated++
	return nil
}

func (c *countingType) Interact(_ *ecs.World, _ ecs.Entity, byPlayer bool) component.Pending {
	c.interacted++
	c.byPlayer = append(c.byPlayer, byPlayer)
	return component.Completed
}

func (c *countingType) Deactivate(*ecs.World, ecs.Entity) {
	c.deactivated++
}

func (h *harness) countEvents(typ string) int {
	n := 0
	for _, ev := range h.events {
		if ev.Type == typ {
			n++
		}
	}
	return n
}

func commandMode(mode component.GameMode) command.GameStateChangeRequest {
	return command.GameStateChangeRequest{Mode: mode}
}
