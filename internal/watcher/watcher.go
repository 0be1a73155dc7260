// Package watcher monitors the logbook directory for date-file changes
// using OS-level notifications, so edits made outside the process (a
// hand-edited YAML file, a sync tool) reach stream subscribers too.
package watcher

import (
	"context"
	"log"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/fsnotify/fsnotify"
)

var dateFileRe = regexp.MustCompile(`^\d{4}-(0\d|1[0-2])-([0-2]\d|3[01])\.yml$`)

// Event reports that a date's log file changed on disk.
type Event struct {
	Date string
}

// Watcher monitors a single logbook directory.
type Watcher struct {
	fsw    *fsnotify.Watcher
	Events chan Event
}

// New creates a Watcher for the given directory.
func New(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(dir); err != nil {
		fsw.Close()
		return nil, err
	}
	return &Watcher{
		fsw:    fsw,
		Events: make(chan Event, 64),
	}, nil
}

// Start begins listening for file events. It blocks until the context
// is cancelled.
func (w *Watcher) Start(ctx context.Context) {
	defer w.fsw.Close()
	defer close(w.Events)

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			name := filepath.Base(ev.Name)
			if !dateFileRe.MatchString(name) {
				// Temp files from atomic replaces, editor droppings.
				continue
			}
			w.Events <- Event{Date: strings.TrimSuffix(name, filepath.Ext(name))}
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			log.Printf("watcher error: %v", err)
		}
	}
}
