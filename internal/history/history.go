// Package history keeps a short rolling window of past state snapshots
// for backdating manual entries.
package history

import "github.com/meri-imperiumi/signalk-logbook/internal/model"

// DefaultCapacity matches the scheduler's one-minute sampling tick:
// fifteen slots cover fifteen minutes of history.
const DefaultCapacity = 15

// Buffer is a fixed-capacity ring of snapshots, oldest overwritten
// first. Index 0 is the most recent push.
//
// The backdating flow interprets an index as "minutes ago", which holds
// only under the fixed one-push-per-minute sampling contract. Changing
// the sampling interval changes the meaning of every index.
type Buffer struct {
	slots []model.Snapshot
	head  int
	count int
}

// New allocates a buffer with the given capacity.
func New(capacity int) *Buffer {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer{slots: make([]model.Snapshot, capacity)}
}

// Push records a snapshot, overwriting the oldest when full.
func (b *Buffer) Push(snap model.Snapshot) {
	b.slots[b.head] = snap
	b.head = (b.head + 1) % len(b.slots)
	if b.count < len(b.slots) {
		b.count++
	}
}

// Get returns the snapshot pushed ago slots back, 0 being the most
// recent. The second return distinguishes "no history that far back"
// from a legitimately empty snapshot.
func (b *Buffer) Get(ago int) (model.Snapshot, bool) {
	if ago < 0 || ago >= b.count {
		return nil, false
	}
	idx := (b.head - 1 - ago + 2*len(b.slots)) % len(b.slots)
	return b.slots[idx], true
}

// Len returns the current fill count.
func (b *Buffer) Len() int {
	return b.count
}

// Cap returns the buffer capacity.
func (b *Buffer) Cap() int {
	return len(b.slots)
}
