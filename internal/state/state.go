// Package state owns the live vessel snapshot. All mutation funnels
// through one mutex so the trigger engine and the scheduler never write
// fields concurrently.
package state

import (
	"sync"
	"time"

	"github.com/meri-imperiumi/signalk-logbook/internal/model"
)

// State is the single owner of the mutable current-state snapshot.
type State struct {
	mu   sync.RWMutex
	snap model.Snapshot
}

// New returns an empty state.
func New() *State {
	return &State{snap: model.Snapshot{}}
}

// Apply records a single path update.
func (s *State) Apply(path string, value model.Value) {
	s.mu.Lock()
	s.snap[path] = value
	s.mu.Unlock()
}

// Merge applies derived-state updates produced by a trigger evaluation.
func (s *State) Merge(updates model.Snapshot) {
	if len(updates) == 0 {
		return
	}
	s.mu.Lock()
	for path, value := range updates {
		s.snap[path] = value
	}
	s.mu.Unlock()
}

// Snapshot returns a copy of the current state.
func (s *State) Snapshot() model.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap.Clone()
}

// CycleSnapshot closes one sampling cycle: it stamps the snapshot with
// now when no update established a datetime during the cycle, returns a
// copy for the history buffer, and clears the datetime field so the next
// cycle's first update re-establishes it.
func (s *State) CycleSnapshot(now time.Time) model.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.snap.Text(model.DatetimeKey); !ok {
		s.snap[model.DatetimeKey] = model.Str(now.UTC().Format(time.RFC3339))
	}
	out := s.snap.Clone()
	delete(s.snap, model.DatetimeKey)
	return out
}
