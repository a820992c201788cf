// Package command holds the requests gameplay code publishes to the rest of
// the game. Publishing is fire-and-forget: a dispatcher never reports whether
// or when a request was acted upon.
package command

import "github.com/milk9111/pedalswitch/ecs/component"

// Command is any request value.
type Command any

// GameStateChangeRequest asks the mode controller to switch modes.
type GameStateChangeRequest struct {
	Mode component.GameMode
}

// Dispatcher publishes commands.
type Dispatcher interface {
	Dispatch(cmd Command)
}

// DispatcherFunc adapts a function to Dispatcher.
type DispatcherFunc func(cmd Command)

func (f DispatcherFunc) Dispatch(cmd Command) {
	if f != nil {
		f(cmd)
	}
}

// Recorder is a Dispatcher that keeps every command it receives and forwards
// it to Next, if set.
type Recorder struct {
	Next     Dispatcher
	Commands []Command
}

func (r *Recorder) Dispatch(cmd Command) {
	r.Commands = append(r.Commands, cmd)
	if r.Next != nil {
		r.Next.Dispatch(cmd)
	}
}

// Modes returns the modes of the recorded GameStateChangeRequests, in order.
func (r *Recorder) Modes() []component.GameMode {
	var out []component.GameMode
	for _, cmd := range r.Commands {
		if req, ok := cmd.(GameStateChangeRequest); ok {
			out = append(out, req.Mode)
		}
	}
	return out
}
