package component

import "github.com/milk9111/pedalswitch/common"

// SceneObject is the authored and persisted description of an interactive
// object in a scene.
type SceneObject struct {
	// ID is unique within a scene and is the key linked objects refer to.
	ID   string
	Type string
	// Name is the model name, e.g. "_h1.pol"; some shapes carry trigger
	// overrides keyed by it.
	Name       string
	LayerIndex int
	// TimesRemaining is the activation budget: 0 is exhausted, negative is
	// unlimited.
	TimesRemaining int
	// SwitchState is 1 once the object has been switched.
	SwitchState    int
	LinkedObjectID string
	ScriptID       string
	// Activated is set once the object's runtime pieces exist in the world.
	Activated bool
}

// Model carries the mesh bounds of an object's visual, in object space.
type Model struct {
	Bounds common.Bounds
}

var SceneObjectComponent = NewComponent[SceneObject]()
var ModelComponent = NewComponent[Model]()
