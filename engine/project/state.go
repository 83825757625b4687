package project

import (
	"sync"
	"sync/atomic"

	"github.com/mcphackers/mcpctl/engine/task"
)

// State is the mutable record of one working project. Only the executor
// mutates it; everyone else reads through Snapshot.
type State struct {
	mu        sync.RWMutex
	installed *Version
	flags     map[task.Side]task.Flags
	active    atomic.Bool
}

// NewState creates a state with the given installed version and per-side flags.
// Both may be nil.
func NewState(installed *Version, flags map[task.Side]task.Flags) *State {
	s := &State{
		installed: installed,
		flags:     make(map[task.Side]task.Flags, len(task.ConcreteSides)),
	}
	for _, side := range task.ConcreteSides {
		s.flags[side] = flags[side]
	}
	return s
}

// Snapshot is an immutable copy of the state at one instant.
type Snapshot struct {
	Version  *Version   `json:"version,omitempty"`
	Client   task.Flags `json:"client"`
	Server   task.Flags `json:"server"`
	IsActive bool       `json:"active"`
}

// Flags implements task.View. SideAny reports the union of both sides.
func (s Snapshot) Flags(side task.Side) task.Flags {
	switch side {
	case task.SideClient:
		return s.Client
	case task.SideServer:
		return s.Server
	default:
		return task.Flags{
			Sources:      s.Client.Sources || s.Server.Sources,
			Recompiled:   s.Client.Recompiled || s.Server.Recompiled,
			Reobfuscated: s.Client.Reobfuscated || s.Server.Reobfuscated,
			Built:        s.Client.Built || s.Server.Built,
		}
	}
}

// Active implements task.View.
func (s Snapshot) Active() bool {
	return s.IsActive
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var installed *Version
	if s.installed != nil {
		v := *s.installed
		installed = &v
	}
	return Snapshot{
		Version:  installed,
		Client:   s.flags[task.SideClient],
		Server:   s.flags[task.SideServer],
		IsActive: s.active.Load(),
	}
}

// Installed returns the currently installed version, or nil.
func (s *State) Installed() *Version {
	return s.Snapshot().Version
}

// TryActivate closes the activation gate. It returns false if a run already
// holds it. Intended for the executor only.
func (s *State) TryActivate() bool {
	return s.active.CompareAndSwap(false, true)
}

// Deactivate reopens the activation gate. Intended for the executor only.
func (s *State) Deactivate() {
	s.active.Store(false)
}

// Advance records a successful run of mode on each of sides.
func (s *State) Advance(mode task.Mode, sides []task.Side) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, side := range sides {
		if !side.IsConcrete() {
			continue
		}
		s.flags[side] = mode.Advance(s.flags[side])
	}
}

// Install records v as the installed version.
func (s *State) Install(v *Version) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v == nil {
		s.installed = nil
		return
	}
	copied := *v
	s.installed = &copied
}
