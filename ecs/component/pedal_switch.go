package component

import (
	"time"

	"golang.org/x/image/math/f64"
)

// PedalSwitch marks a pressure switch. The numbers are fixed per switch kind
// and filled in at build time.
type PedalSwitch struct {
	DescendingHeight   float64
	DescendingDuration time.Duration
}

type InteractionPhase int

const (
	PhaseIdle InteractionPhase = iota
	PhaseApproaching
	PhaseDescending
	PhaseScriptExecuting
	PhaseLinkedActivating
	PhaseRestoring
)

func (p InteractionPhase) String() string {
	switch p {
	case PhaseIdle:
		return "idle"
	case PhaseApproaching:
		return "approaching"
	case PhaseDescending:
		return "descending"
	case PhaseScriptExecuting:
		return "script"
	case PhaseLinkedActivating:
		return "linked"
	case PhaseRestoring:
		return "restoring"
	default:
		return "unknown"
	}
}

// InteractionRun is the context of one in-flight interaction sequence. It
// exists only while the sequence runs and is never persisted.
type InteractionRun struct {
	Phase InteractionPhase
	// Entered is false on the first tick of a phase, before its work has been
	// issued.
	Entered bool
	Wait    Pending

	Anchor  f64.Vec3
	StartY  float64
	FinalY  float64
	Elapsed time.Duration

	// OwnsMode is set when this run requested Cutscene and must hand control
	// back.
	OwnsMode bool
}

var PedalSwitchComponent = NewComponent[PedalSwitch]()
var InteractionRunComponent = NewComponent[InteractionRun]()

const (
	DefaultDescendingHeight   = 0.25
	DefaultDescendingDuration = 2 * time.Second
)
