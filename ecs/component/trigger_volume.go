package component

import "github.com/milk9111/pedalswitch/common"

// TriggerVolume is the world-space region an object reacts to. The sensor
// itself is owned by TriggerSystem.
type TriggerVolume struct {
	Bounds     common.Bounds
	LayerIndex int
}

// GroundHeight is the height an actor stands at on top of the volume.
func (t TriggerVolume) GroundHeight() float64 {
	return t.Bounds.Top()
}

var TriggerVolumeComponent = NewComponent[TriggerVolume]()
