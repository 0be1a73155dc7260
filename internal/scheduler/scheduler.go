// Package scheduler drives the sampling clock: once per minute the live
// state is snapshotted into the history buffer, and on the top of each
// hour an automatic entry is emitted when the vessel is under way.
package scheduler

import (
	"context"
	"time"

	"github.com/meri-imperiumi/signalk-logbook/internal/history"
	"github.com/meri-imperiumi/signalk-logbook/internal/state"
	"github.com/meri-imperiumi/signalk-logbook/internal/trigger"
)

// DefaultInterval is the sampling tick. The history buffer's
// "minutes ago" indexing depends on it staying at one minute.
const DefaultInterval = time.Minute

// Scheduler owns the periodic tick.
type Scheduler struct {
	state    *state.State
	buffer   *history.Buffer
	engine   *trigger.Engine
	interval time.Duration
	lastHour int
}

// New creates a scheduler. A non-positive interval falls back to the
// default one-minute tick.
func New(st *state.State, buf *history.Buffer, eng *trigger.Engine, interval time.Duration) *Scheduler {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Scheduler{
		state:    st,
		buffer:   buf,
		engine:   eng,
		interval: interval,
		lastHour: -1,
	}
}

// Run ticks until the context is cancelled. Any in-flight entry write
// completes before the loop returns.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.lastHour = time.Now().UTC().Hour()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			s.Tick(now.UTC())
		}
	}
}

// Tick performs one sampling cycle: snapshot to the buffer, reset the
// per-cycle datetime, and fire the hourly entry on an hour change.
func (s *Scheduler) Tick(now time.Time) {
	snap := s.state.CycleSnapshot(now)
	s.buffer.Push(snap)
	if hour := now.Hour(); hour != s.lastHour {
		s.lastHour = hour
		s.engine.Hourly(snap)
	}
}
