package system

import (
	"log"
	"sort"

	"github.com/milk9111/pedalswitch/command"
	"github.com/milk9111/pedalswitch/ecs"
	"github.com/milk9111/pedalswitch/ecs/component"
)

// ModeSystem owns the GameState singleton. Other code never writes the mode
// directly; it publishes requests that this system applies on its next
// update, last writer wins.
type ModeSystem struct {
	initial component.GameMode
	// History records every applied request, in order.
	History []component.GameMode
}

func NewModeSystem(w *ecs.World, initial component.GameMode) *ModeSystem {
	s := &ModeSystem{initial: initial}
	s.ensureState(w)
	return s
}

func (s *ModeSystem) ensureState(w *ecs.World) *component.GameState {
	if ent, ok := ecs.First(w, component.GameStateComponent.Kind()); ok {
		st, _ := ecs.Get(w, ent, component.GameStateComponent.Kind())
		return st
	}
	ent := ecs.CreateEntity(w)
	st := &component.GameState{Mode: s.initial}
	_ = ecs.Add(w, ent, component.GameStateComponent.Kind(), st)
	return st
}

func (s *ModeSystem) Update(w *ecs.World) {
	if s == nil || w == nil {
		return
	}

	type pending struct {
		ent ecs.Entity
		req component.ModeChangeRequest
	}
	var reqs []pending
	ecs.ForEach(w, component.ModeChangeRequestComponent.Kind(), func(e ecs.Entity, req *component.ModeChangeRequest) {
		reqs = append(reqs, pending{ent: e, req: *req})
	})
	if len(reqs) == 0 {
		return
	}
	sort.Slice(reqs, func(i, j int) bool { return reqs[i].req.Seq < reqs[j].req.Seq })

	st := s.ensureState(w)
	for _, p := range reqs {
		ecs.DestroyEntity(w, p.ent)
		s.History = append(s.History, p.req.Mode)
		if st.Mode == p.req.Mode {
			continue
		}
		log.Printf("mode: %s -> %s", st.Mode, p.req.Mode)
		w.Events().Push(ecs.Event{Type: ecs.EventModeChanged, Data: p.req.Mode})
		st.Mode = p.req.Mode
	}
}

// WorldModes reads the mode from the GameState singleton.
type WorldModes struct {
	W *ecs.World
}

func (m WorldModes) CurrentMode() component.GameMode {
	ent, ok := ecs.First(m.W, component.GameStateComponent.Kind())
	if !ok {
		return component.ModeUI
	}
	st, ok := ecs.Get(m.W, ent, component.GameStateComponent.Kind())
	if !ok {
		return component.ModeUI
	}
	return st.Mode
}

// WorldDispatcher turns published commands into request entities.
type WorldDispatcher struct {
	w   *ecs.World
	seq uint64
}

func NewWorldDispatcher(w *ecs.World) *WorldDispatcher {
	return &WorldDispatcher{w: w}
}

func (d *WorldDispatcher) Dispatch(cmd command.Command) {
	switch c := cmd.(type) {
	case command.GameStateChangeRequest:
		d.seq++
		ent := ecs.CreateEntity(d.w)
		_ = ecs.Add(d.w, ent, component.ModeChangeRequestComponent.Kind(), &component.ModeChangeRequest{Mode: c.Mode, Seq: d.seq})
	default:
		log.Printf("dispatch: no handler for %T", cmd)
	}
}
