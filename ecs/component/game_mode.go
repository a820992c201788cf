package component

// GameMode is the process-wide interaction mode.
type GameMode int

const (
	ModeUI GameMode = iota
	ModeGameplay
	ModeCutscene
)

func (m GameMode) String() string {
	switch m {
	case ModeUI:
		return "ui"
	case ModeGameplay:
		return "gameplay"
	case ModeCutscene:
		return "cutscene"
	default:
		return "unknown"
	}
}

// GameState is the singleton holding the authoritative mode.
type GameState struct {
	Mode GameMode
}

// ModeChangeRequest is a one-shot request consumed by ModeSystem. Requests
// are applied in Seq order; the last one wins.
type ModeChangeRequest struct {
	Mode GameMode
	Seq  uint64
}

var GameStateComponent = NewComponent[GameState]()
var ModeChangeRequestComponent = NewComponent[ModeChangeRequest]()
