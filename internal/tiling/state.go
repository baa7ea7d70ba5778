package tiling

import (
	"sync"

	"github.com/1broseidon/wallboard/internal/config"
)

// State is the daemon's single owned cell for the active config and the
// visibility toggle flag. Readers receive copies.
type State struct {
	mu        sync.RWMutex
	cfg       *config.Config
	concealed bool
}

// NewState creates a state cell holding cfg.
func NewState(cfg *config.Config) *State {
	return &State{cfg: cfg.Clone()}
}

// Config returns a snapshot of the active config.
func (s *State) Config() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg.Clone()
}

// SetConfig replaces the active config wholesale.
func (s *State) SetConfig(cfg *config.Config) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cfg = cfg.Clone()
}

// Concealed reports whether views are currently concealed by the toggle.
func (s *State) Concealed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.concealed
}

func (s *State) setConcealed(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.concealed = v
}
