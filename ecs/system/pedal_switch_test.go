package system

import (
	"errors"
	"testing"

	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
	"github.com/milk9111/pedalswitch/scenes"
	"github.com/milk9111/pedalswitch/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const pressScript = `
engine.set_flag("pressed", engine.get_flag("pressed") + 1)
engine.set_flag("by_" + object, 1)
`

func h1Scene() scenes.SceneSpec {
	pedal := pedalSpec("p1", "_h1.pol", 0, 0)
	pedal.LinkedObject = "g1"
	pedal.Script = "press"
	return testScene(pedal, gateSpec("g1", 0, 8, 3))
}

func TestPedalSwitchH1Sequence(t *testing.T) {
	h := newHarness(t, h1Scene(), fakeScripts{"press": pressScript})
	pedal, obj := h.object("p1")
	gateEnt, _ := h.object("g1")
	require.Equal(t, component.ModeGameplay, h.mode())

	vol, ok := h.rt.Pedals.Volume(pedal)
	require.True(t, ok)
	assert.InDelta(t, 0.05, vol.Bounds.Center[1], 1e-9)
	assert.InDelta(t, 3.0, vol.Bounds.Size[0], 1e-9)
	assert.InDelta(t, 0.30, vol.GroundHeight(), 1e-9)

	h.placePlayer(1, 1)
	h.step()

	require.True(t, h.running(pedal))
	assert.Equal(t, []component.GameMode{component.ModeCutscene}, h.rec.Modes())
	assert.Equal(t, component.ModeCutscene, h.mode())
	assert.Equal(t, 1, obj.SwitchState)
	assert.Equal(t, 0, obj.TimesRemaining)

	saved, err := h.store.Object("test", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, saved.SwitchState)
	assert.Equal(t, 0, saved.TimesRemaining)
	assert.Equal(t, "g1", saved.LinkedObjectID)

	h.runUntilIdle(200)

	assert.Equal(t, []component.GameMode{component.ModeCutscene, component.ModeGameplay}, h.rec.Modes())
	assert.Equal(t, component.ModeGameplay, h.mode())

	ptf := h.transform(h.player())
	assert.InDelta(t, 0.0, ptf.Position[0], 1e-9)
	assert.InDelta(t, 0.30, ptf.Position[1], 1e-9)
	assert.InDelta(t, 0.0, ptf.Position[2], 1e-9)

	assert.InDelta(t, 0.0, h.transform(pedal).Position[1], 1e-9)

	gate, ok := ecs.Get(h.w, gateEnt, component.GateComponent.Kind())
	require.True(t, ok)
	assert.True(t, gate.Open)
	assert.InDelta(t, 2.0, h.transform(gateEnt).Position[1], 1e-9)

	flags := h.rt.Scripts.Flags()
	assert.Equal(t, int64(1), flags["pressed"])
	assert.Equal(t, int64(1), flags["by_p1"])
	assert.Equal(t, 1, h.countEvents(ecs.EventSwitchPressed))
}

func TestPedalSwitchStepsAreOrdered(t *testing.T) {
	h := newHarness(t, h1Scene(), fakeScripts{"press": pressScript})
	pedal, _ := h.object("p1")

	h.placePlayer(0, 0)
	h.step()
	h.runUntilIdle(200)

	phases := h.phasesOf(pedal)
	require.Len(t, phases, 5)
	want := []component.InteractionPhase{
		component.PhaseApproaching,
		component.PhaseDescending,
		component.PhaseScriptExecuting,
		component.PhaseLinkedActivating,
		component.PhaseRestoring,
	}
	for i, p := range phases {
		assert.Equal(t, want[i], p.phase)
		if i > 0 {
			assert.Greater(t, p.tick, phases[i-1].tick, "%s must start after %s", p.phase, phases[i-1].phase)
		}
	}
	assert.GreaterOrEqual(t, phases[2].tick-phases[1].tick, descendTicks)
	// The gate takes three ticks to open and the linked step waits for it.
	assert.GreaterOrEqual(t, phases[4].tick-phases[3].tick, 3)
}

func TestPedalSwitchDescentIsEased(t *testing.T) {
	h := newHarness(t, testScene(pedalSpec("p1", "_h1.pol", 0, 0)), nil)
	pedal, _ := h.object("p1")
	tf := h.transform(pedal)

	h.placePlayer(0, 0)
	h.step()
	for len(h.phasesOf(pedal)) < 2 {
		h.step()
	}
	require.InDelta(t, 0.25, tf.Position[1], 1e-9)

	var ys []float64
	for i := 0; i < descendTicks; i++ {
		h.step()
		ys = append(ys, tf.Position[1])
	}
	for i := 1; i < len(ys); i++ {
		assert.Less(t, ys[i], ys[i-1])
	}
	assert.InDelta(t, 0.0, ys[len(ys)-1], 1e-12)
	// Sine easing moves less in the first step than linear would.
	assert.Less(t, 0.25-ys[0], 0.25/float64(descendTicks))
}

func TestPedalSwitchReentryIsNoop(t *testing.T) {
	h := newHarness(t, h1Scene(), nil)
	pedal, _ := h.object("p1")

	h.placePlayer(0, 0)
	h.step()
	require.True(t, h.running(pedal))

	// Stepping off and back on while the run is in flight.
	h.step()
	h.placePlayer(0, -6)
	h.step()
	h.placePlayer(0, 0)
	h.step()
	assert.Equal(t, []component.GameMode{component.ModeCutscene}, h.rec.Modes())

	h.runUntilIdle(200)
	phases := len(h.phasesOf(pedal))

	// And again after it finished.
	h.placePlayer(0, -6)
	h.step()
	h.placePlayer(0, 0)
	h.steps(3)
	assert.False(t, h.running(pedal))
	assert.Len(t, h.phasesOf(pedal), phases)
	assert.Equal(t, []component.GameMode{component.ModeCutscene, component.ModeGameplay}, h.rec.Modes())
}

func TestPedalSwitchIgnoresTriggersOutsideGameplay(t *testing.T) {
	h := newHarness(t, h1Scene(), nil)
	pedal, obj := h.object("p1")

	h.rt.Context.RequestMode(component.ModeUI)
	h.step()
	require.Equal(t, component.ModeUI, h.mode())

	h.placePlayer(0, 0)
	h.steps(3)
	assert.False(t, h.running(pedal))
	assert.Equal(t, 0, obj.SwitchState)
	assert.Equal(t, 1, obj.TimesRemaining)
	_, err := h.store.Object("test", "p1")
	assert.True(t, errors.Is(err, storage.ErrNotFound))

	// Standing on the platform when gameplay resumes does not count as
	// entering it.
	h.rt.Context.RequestMode(component.ModeGameplay)
	h.steps(3)
	assert.False(t, h.running(pedal))

	h.placePlayer(0, -6)
	h.step()
	h.placePlayer(0, 0)
	h.step()
	assert.True(t, h.running(pedal))
}

func TestPedalSwitchGuards(t *testing.T) {
	cases := []struct {
		name  string
		times int
		state int
		wantY float64
	}{
		{"switched", 1, 1, 0.25},
		{"exhausted", 0, 0, 0.0},
		{"exhausted_and_switched", 0, 1, 0.0},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			spec := pedalSpec("p1", "_h1.pol", 0, 0)
			spec.Times = intPtr(c.times)
			spec.SwitchState = c.state
			h := newHarness(t, testScene(spec), nil)
			pedal, obj := h.object("p1")

			assert.InDelta(t, c.wantY, h.transform(pedal).Position[1], 1e-9)

			h.placePlayer(0, 0)
			h.steps(3)
			assert.False(t, h.running(pedal))
			assert.Empty(t, h.rec.Modes())
			assert.Equal(t, c.times, obj.TimesRemaining)
			assert.Equal(t, c.state, obj.SwitchState)
		})
	}
}

func TestPedalSwitchUnlimitedBudget(t *testing.T) {
	spec := pedalSpec("p1", "_c.pol", 0, 0)
	spec.Times = intPtr(-1)
	h := newHarness(t, testScene(spec), nil)
	pedal, obj := h.object("p1")

	vol, ok := h.rt.Pedals.Volume(pedal)
	require.True(t, ok)
	assert.InDelta(t, -0.5, vol.Bounds.Center[2], 1e-9)
	assert.InDelta(t, 6.0, vol.Bounds.Size[2], 1e-9)

	h.placePlayer(0, 2)
	h.step()
	require.True(t, h.running(pedal))
	assert.Equal(t, -1, obj.TimesRemaining)
	assert.Equal(t, 1, obj.SwitchState)
	h.runUntilIdle(200)

	ptf := h.transform(h.player())
	assert.InDelta(t, -0.5, ptf.Position[2], 1e-9)
}

func TestPedalSwitchSnapsWhenLoadedFromSave(t *testing.T) {
	store := storage.NewMemoryStore()
	require.NoError(t, store.SaveObject(t.Context(), "test", storage.ObjectRecord{ID: "p1", TimesRemaining: 0, SwitchState: 1}))

	h := newHarnessWithStore(t, h1Scene(), nil, store)
	pedal, obj := h.object("p1")
	assert.Equal(t, 0, obj.TimesRemaining)
	assert.Equal(t, 1, obj.SwitchState)
	assert.Equal(t, "g1", obj.LinkedObjectID)
	assert.InDelta(t, 0.0, h.transform(pedal).Position[1], 1e-9)

	h.placePlayer(0, 0)
	h.steps(3)
	assert.False(t, h.running(pedal))
}

func TestLinkedObjectActivatedOnce(t *testing.T) {
	counter := &countingType{}
	register := func(rt *Runtime) { rt.Context.Types.Register("counter", counter) }

	pedal := pedalSpec("p1", "_h1.pol", 0, 0)
	pedal.LinkedObject = "c1"
	target := scenes.ObjectSpec{ID: "c1", Type: "counter", Active: boolPtr(false)}

	h := newHarness(t, testScene(pedal, target), nil, register)
	_, obj := h.object("c1")
	require.False(t, obj.Activated)

	h.placePlayer(0, 0)
	h.step()
	h.runUntilIdle(200)

	assert.True(t, obj.Activated)
	assert.Equal(t, 1, counter.activated)
	assert.Equal(t, 0, counter.interacted)
}

func TestLinkedObjectInteractedOnce(t *testing.T) {
	counter := &countingType{}
	register := func(rt *Runtime) { rt.Context.Types.Register("counter", counter) }

	pedal := pedalSpec("p1", "_h1.pol", 0, 0)
	pedal.LinkedObject = "c1"
	target := scenes.ObjectSpec{ID: "c1", Type: "counter"}

	h := newHarness(t, testScene(pedal, target), nil, register)
	require.Equal(t, 1, counter.activated)

	h.placePlayer(0, 0)
	h.step()
	h.runUntilIdle(200)

	assert.Equal(t, 1, counter.activated)
	assert.Equal(t, 1, counter.interacted)
	assert.Equal(t, []bool{false}, counter.byPlayer)
}

func TestLinkedObjectMissing(t *testing.T) {
	pedal := pedalSpec("p1", "_h1.pol", 0, 0)
	pedal.LinkedObject = "nowhere"
	h := newHarness(t, testScene(pedal), nil)

	h.placePlayer(0, 0)
	h.step()
	h.runUntilIdle(200)
	assert.Equal(t, []component.GameMode{component.ModeCutscene, component.ModeGameplay}, h.rec.Modes())
}

func TestChainedPedalKeepsSingleCutscene(t *testing.T) {
	first := pedalSpec("p1", "_h1.pol", 0, 0)
	first.LinkedObject = "p2"
	second := pedalSpec("p2", "_h1.pol", 10, 0)
	h := newHarness(t, testScene(first, second), nil)
	p1, _ := h.object("p1")
	p2, obj2 := h.object("p2")

	h.placePlayer(0, 0)
	h.step()
	h.runUntilIdle(400)

	assert.Equal(t, []component.GameMode{component.ModeCutscene, component.ModeGameplay}, h.rec.Modes())
	outer := h.phasesOf(p1)
	inner := h.phasesOf(p2)
	require.Len(t, outer, 5)
	require.Len(t, inner, 5)
	assert.Greater(t, inner[0].tick, outer[3].tick)
	assert.Greater(t, outer[4].tick, inner[4].tick)

	// The chained switch sinks but its state is left to its own trigger.
	assert.InDelta(t, 0.0, h.transform(p2).Position[1], 1e-9)
	assert.Equal(t, 0, obj2.SwitchState)
	assert.InDelta(t, 10.0, h.transform(h.player()).Position[0], 1e-9)
}

func TestPedalsLinkedInALoopFinish(t *testing.T) {
	first := pedalSpec("p1", "_h1.pol", 0, 0)
	first.LinkedObject = "p2"
	second := pedalSpec("p2", "_h1.pol", 10, 0)
	second.LinkedObject = "p1"
	h := newHarness(t, testScene(first, second), nil)

	h.placePlayer(0, 0)
	h.step()
	h.runUntilIdle(400)
	assert.Equal(t, []component.GameMode{component.ModeCutscene, component.ModeGameplay}, h.rec.Modes())
}

func TestPedalSwitchDeactivateCancelsRun(t *testing.T) {
	h := newHarness(t, h1Scene(), nil)
	pedal, _ := h.object("p1")
	vol, ok := h.rt.Pedals.Volume(pedal)
	require.True(t, ok)

	h.placePlayer(0, 0)
	h.steps(5)
	require.True(t, h.running(pedal))
	before := len(h.phasesOf(pedal))

	h.rt.Context.Types.DeactivateObject(h.w, pedal)
	assert.False(t, h.running(pedal))
	assert.True(t, vol.Released())
	assert.False(t, ecs.Has(h.w, pedal, component.TriggerVolumeComponent.Kind()))
	assert.Empty(t, h.rt.Triggers.Volumes())

	h.steps(5)
	assert.Len(t, h.phasesOf(pedal), before)
	assert.Equal(t, []component.GameMode{component.ModeCutscene, component.ModeGameplay}, h.rec.Modes())
	assert.Equal(t, component.ModeGameplay, h.mode())
}

func TestSceneReloadDuringRunRestoresGameplay(t *testing.T) {
	h := newHarness(t, h1Scene(), nil)

	h.placePlayer(0, 0)
	h.steps(5)
	RequestSceneChange(h.w, "")
	h.step()

	assert.Equal(t, component.ModeGameplay, h.mode())
	assert.Equal(t, []component.GameMode{component.ModeCutscene, component.ModeGameplay}, h.rec.Modes())
	assert.Empty(t, ecs.Query(h.w, component.InteractionRunComponent.Kind()))
	assert.Len(t, h.rt.Triggers.Volumes(), 1)

	// The press was saved before the reload, so the switch comes back down.
	pedal, obj := h.object("p1")
	assert.Equal(t, 1, obj.SwitchState)
	assert.InDelta(t, 0.0, h.transform(pedal).Position[1], 1e-9)
}

func TestPedalSwitchInteractByPlayerUsesGuards(t *testing.T) {
	h := newHarness(t, h1Scene(), nil)
	pedal, obj := h.object("p1")

	h.rt.Context.RequestMode(component.ModeCutscene)
	h.step()
	pending := h.rt.Pedals.Interact(h.w, pedal, true)
	assert.True(t, pending.Done())
	assert.Equal(t, 0, obj.SwitchState)

	h.rt.Context.RequestMode(component.ModeGameplay)
	h.step()
	pending = h.rt.Pedals.Interact(h.w, pedal, true)
	assert.False(t, pending.Done())
	assert.Equal(t, 1, obj.SwitchState)
	h.runUntilIdle(200)
	assert.True(t, pending.Done())
}

func TestPedalSwitchActivateRequiresModel(t *testing.T) {
	spec := pedalSpec("p1", "_unknown.pol", 0, 0)
	spec.Model = nil

	w := ecs.NewWorld()
	rt := NewRuntime(w, Options{Scene: "test", Tick: testTick, Scenes: fakeScenes{"test": testScene(spec)}})
	err := rt.Scenes.Load(w, "test")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingComponent))
}

func TestPedalSwitchStartFailureReturnsGameplay(t *testing.T) {
	h := newHarness(t, h1Scene(), nil)
	dead := ecs.CreateEntity(h.w)
	ecs.DestroyEntity(h.w, dead)

	err := h.rt.Pedals.start(h.w, dead, true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, component.ErrEntityNotAlive))
	assert.Equal(t, []component.GameMode{component.ModeGameplay}, h.rec.Modes())

	// Chained runs never took the cutscene, so there is nothing to hand back.
	err = h.rt.Pedals.start(h.w, dead, false)
	require.Error(t, err)
	assert.Len(t, h.rec.Modes(), 1)
}
