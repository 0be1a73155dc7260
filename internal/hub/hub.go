// Package hub broadcasts logbook changes to stream subscribers.
package hub

import (
	"log"
	"sync"
	"time"

	"github.com/meri-imperiumi/signalk-logbook/internal/model"
)

const subscriberBuffer = 64

// selfWriteWindow is how long a disk notice for a date stays redundant
// after this process wrote the date's file itself.
const selfWriteWindow = 2 * time.Second

// Message is one stream notification: either a newly persisted entry or
// a notice that a date-file changed on disk.
type Message struct {
	Type  string       `json:"type"` // "entry" or "date"
	Date  string       `json:"date,omitempty"`
	Entry *model.Entry `json:"entry,omitempty"`
}

// Hub fans messages out to all subscribers.
type Hub struct {
	mu          sync.RWMutex
	subscribers map[chan Message]bool
	selfWrites  map[string]time.Time
	now         func() time.Time
	dropped     int64
	closed      bool
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{
		subscribers: make(map[chan Message]bool),
		selfWrites:  make(map[string]time.Time),
		now:         time.Now,
	}
}

// Subscribe returns a buffered channel that will receive messages.
// Multiple consumers can subscribe; each gets a copy of every message.
func (h *Hub) Subscribe() chan Message {
	ch := make(chan Message, subscriberBuffer)
	h.mu.Lock()
	if h.closed {
		close(ch)
	} else {
		h.subscribers[ch] = true
	}
	h.mu.Unlock()
	return ch
}

// Unsubscribe removes and closes a subscriber channel.
func (h *Hub) Unsubscribe(ch chan Message) {
	h.mu.Lock()
	if h.subscribers[ch] {
		delete(h.subscribers, ch)
		close(ch)
	}
	h.mu.Unlock()
}

// PublishEntry broadcasts a newly persisted entry.
func (h *Hub) PublishEntry(entry model.Entry) {
	date := entry.DateString()
	h.markSelfWrite(date)
	h.broadcast(Message{Type: "entry", Date: date, Entry: &entry})
}

// PublishDate broadcasts a date-file change notice for a write made by
// this process.
func (h *Hub) PublishDate(date string) {
	h.markSelfWrite(date)
	h.broadcast(Message{Type: "date", Date: date})
}

// PublishDateChange broadcasts a date-file change noticed on disk. The
// store's own atomic replace triggers filesystem events too; a notice
// arriving right after this process wrote the date is suppressed, since
// subscribers already got the authoritative message.
func (h *Hub) PublishDateChange(date string) {
	h.mu.RLock()
	written, ok := h.selfWrites[date]
	h.mu.RUnlock()
	if ok && h.now().Sub(written) < selfWriteWindow {
		return
	}
	h.broadcast(Message{Type: "date", Date: date})
}

func (h *Hub) markSelfWrite(date string) {
	h.mu.Lock()
	h.selfWrites[date] = h.now()
	h.mu.Unlock()
}

// Dropped returns the total number of messages dropped due to slow
// consumers.
func (h *Hub) Dropped() int64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.dropped
}

// Close closes all subscriber channels. Further publishes are ignored.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for ch := range h.subscribers {
		close(ch)
		delete(h.subscribers, ch)
	}
}

// broadcast sends a message to all subscribers. If a subscriber's
// channel is full, the message is dropped for that subscriber.
func (h *Hub) broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	for ch := range h.subscribers {
		select {
		case ch <- msg:
		default:
			h.dropped++
			log.Printf("hub: dropped message for slow consumer (total dropped: %d)", h.dropped)
		}
	}
}
