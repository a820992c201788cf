package system

import (
	"math"
	"testing"

	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPlayerControllerOnlyInGameplay(t *testing.T) {
	w := ecs.NewWorld()
	modes := NewModeSystem(w, component.ModeCutscene)
	p := NewPlayerControllerSystem(WorldModes{W: w}, 0.5)

	e := ecs.CreateEntity(w)
	require.NoError(t, ecs.Add(w, e, component.PlayerTagComponent.Kind(), &component.PlayerTag{}))
	require.NoError(t, ecs.Add(w, e, component.TransformComponent.Kind(), &component.Transform{}))
	require.NoError(t, ecs.Add(w, e, component.ActorBodyComponent.Kind(), &component.ActorBody{Speed: 2}))
	input := &component.Input{MoveX: 1, MoveZ: 1}
	require.NoError(t, ecs.Add(w, e, component.InputComponent.Kind(), input))
	tf, _ := ecs.Get(w, e, component.TransformComponent.Kind())

	p.Update(w)
	assert.Equal(t, 0.0, tf.Position[0])

	NewWorldDispatcher(w).Dispatch(commandMode(component.ModeGameplay))
	modes.Update(w)
	p.Update(w)

	// Diagonals are normalised: one unit of travel per update at speed 2.
	assert.InDelta(t, math.Sqrt2/2, tf.Position[0], 1e-9)
	assert.InDelta(t, math.Sqrt2/2, tf.Position[2], 1e-9)
	assert.InDelta(t, math.Pi/4, tf.Yaw, 1e-9)
}
