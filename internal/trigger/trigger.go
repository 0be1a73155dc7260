// Package trigger watches per-path state transitions and turns the
// log-worthy ones into automatic logbook entries.
package trigger

import (
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/meri-imperiumi/signalk-logbook/internal/compose"
	"github.com/meri-imperiumi/signalk-logbook/internal/model"
	"github.com/meri-imperiumi/signalk-logbook/internal/state"
)

// Appender persists automatic entries. Satisfied by *logbook.Store.
type Appender interface {
	AppendEntry(date string, entry model.Entry) error
}

// StatusFunc receives fire-and-forget status strings for the host
// status mechanism.
type StatusFunc func(status string)

var (
	propulsionStateRe = regexp.MustCompile(`^propulsion\.([A-Za-z0-9]+)\.state$`)
	sailInventoryRe   = regexp.MustCompile(`^sails\.inventory\.([A-Za-z0-9]+)$`)
)

// Engine evaluates one path update at a time against the previous state
// and owns the live snapshot. Store failures are reported through the
// status channel and never stop update processing.
type Engine struct {
	store   Appender
	state   *state.State
	status  StatusFunc
	onEntry func(model.Entry)
}

// New creates an engine writing through the given store.
func New(store Appender, st *state.State, status StatusFunc) *Engine {
	if status == nil {
		status = func(string) {}
	}
	return &Engine{store: store, state: st, status: status}
}

// OnEntry registers a callback invoked after every successfully
// persisted automatic entry.
func (e *Engine) OnEntry(fn func(model.Entry)) {
	e.onEntry = fn
}

// State returns the engine's live state owner.
func (e *Engine) State() *state.State {
	return e.state
}

// HandleUpdate processes a single path update: evaluates triggers
// against the state as it stood before the update, then applies the new
// value and any derived keys so the next evaluation sees a consistent
// world. Updates within a batch must be handed over in arrival order.
func (e *Engine) HandleUpdate(path string, value model.Value) {
	old := e.state.Snapshot()
	updates := e.evaluate(path, value, old)
	e.state.Apply(path, value)
	if path == "navigation.datetime" {
		// Mirror into the distinguished per-cycle timestamp field.
		if s, ok := value.Text(); ok {
			e.state.Apply(model.DatetimeKey, model.Str(s))
		}
	}
	e.state.Merge(updates)
}

// Hourly emits the periodic under-way entry from the given snapshot.
func (e *Engine) Hourly(snap model.Snapshot) {
	if !underWay(snap) {
		return
	}
	entry := compose.Compose(snap, "", "")
	entry.Category = model.CategoryNavigation
	if err := e.store.AppendEntry(entry.DateString(), entry); err != nil {
		log.Printf("trigger: hourly entry failed: %v", err)
		e.status(fmt.Sprintf("Automatic hourly log entry failed: %v", err))
		return
	}
	e.status("Automatic hourly log entry")
	if e.onEntry != nil {
		e.onEntry(entry)
	}
}

// evaluate applies the transition rules and returns derived-state keys
// to merge, if any.
func (e *Engine) evaluate(path string, value model.Value, old model.Snapshot) model.Snapshot {
	switch path {
	case "navigation.state":
		e.navigationState(value, old)
		return nil
	case "steering.autopilot.state":
		e.autopilotState(value, old)
		return nil
	case "communication.crewNames":
		e.crewNames(value, old)
		return nil
	}
	if m := propulsionStateRe.FindStringSubmatch(path); m != nil {
		e.propulsionState(path, m[1], value, old)
		return nil
	}
	if sailInventoryRe.MatchString(path) {
		return e.sailInventory(path, value, old)
	}
	return nil
}

func (e *Engine) navigationState(value model.Value, old model.Snapshot) {
	next, ok := value.Text()
	if !ok {
		return
	}
	prev, _ := old.Text("navigation.state")
	if prev == "" || prev == next {
		// First observation or no change.
		return
	}
	switch next {
	case "anchored":
		e.appendLog(old, "Anchored", func(entry *model.Entry) {
			entry.End = true
		})
	case "moored":
		e.appendLog(old, "Stopped", func(entry *model.Entry) {
			entry.End = true
		})
	case "sailing":
		text := "Sailing"
		if prev == "motoring" {
			text = "Motor stopped, sailing"
		}
		if sails, _ := old.Text(model.SailSummaryKey); sails != "" {
			text = text + " with " + sails
		}
		e.appendLog(old, text, nil)
	case "motoring":
		switch prev {
		case "anchored":
			e.appendLog(old, "Anchor up, motoring", nil)
		case "sailing":
			e.appendLog(old, "Sails down, motoring", nil)
		default:
			e.appendLog(old, "Motoring", nil)
		}
	}
}

func (e *Engine) autopilotState(value model.Value, old model.Snapshot) {
	next, ok := value.Text()
	if !ok {
		return
	}
	prev, _ := old.Text("steering.autopilot.state")
	if prev == "" || prev == next {
		return
	}
	if !underWay(old) {
		// Autopilot changes are not interesting when not under way.
		return
	}
	switch next {
	case "auto":
		e.appendLog(old, "Autopilot activated", nil)
	case "wind":
		e.appendLog(old, "Autopilot set to wind mode", nil)
	case "route":
		e.appendLog(old, "Autopilot set to route mode", nil)
	case "standby":
		e.appendLog(old, "Autopilot deactivated", nil)
	}
}

func (e *Engine) propulsionState(path, name string, value model.Value, old model.Snapshot) {
	next, ok := value.Text()
	if !ok {
		return
	}
	prev, _ := old.Text(path)
	if prev == "" || prev == next {
		return
	}
	switch next {
	case "started":
		e.appendLog(old, fmt.Sprintf("Started %s engine", name), engineCategory)
	case "stopped":
		e.appendLog(old, fmt.Sprintf("Stopped %s engine", name), engineCategory)
	}
}

func engineCategory(entry *model.Entry) {
	entry.Category = model.CategoryEngine
}

// crewNames logs roster changes when both the old and new lists are
// non-empty and actually differ.
func (e *Engine) crewNames(value model.Value, old model.Snapshot) {
	next, ok := value.StringList()
	if !ok || len(next) == 0 {
		return
	}
	prev, ok := oldCrew(old)
	if !ok || len(prev) == 0 {
		return
	}
	added := diff(next, prev)
	removed := diff(prev, next)
	switch {
	case len(added) > 0 && len(removed) > 0:
		e.appendLog(old, "Crew changed to "+strings.Join(next, ", "), nil)
	case len(added) > 0:
		e.appendLog(old, strings.Join(added, ", ")+" joined the crew", nil)
	case len(removed) > 0:
		e.appendLog(old, strings.Join(removed, ", ")+" left the crew", nil)
	}
}

func oldCrew(old model.Snapshot) ([]string, bool) {
	v, ok := old["communication.crewNames"]
	if !ok {
		return nil, false
	}
	return v.StringList()
}

// diff returns the members of a not present in b, preserving order.
func diff(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, s := range b {
		in[s] = true
	}
	out := []string{}
	for _, s := range a {
		if !in[s] {
			out = append(out, s)
		}
	}
	return out
}

// sailInventory recomputes the active-sails summary. The derived key is
// always returned so live state stays current; an entry fires only when
// the summary changed from a previously known one while sailing.
func (e *Engine) sailInventory(path string, value model.Value, old model.Snapshot) model.Snapshot {
	merged := old.Clone()
	merged[path] = value
	summary := SailSummary(merged)
	updates := model.Snapshot{model.SailSummaryKey: model.Str(summary)}

	prev, _ := old.Text(model.SailSummaryKey)
	if prev == "" || prev == summary {
		// No entry on first derivation or on no change.
		return updates
	}
	if nav, _ := old.Text("navigation.state"); nav == "sailing" {
		e.appendLog(old, "Sails set: "+summary, nil)
	}
	return updates
}

// appendLog composes an entry from the pre-update snapshot and persists
// it. Failures are reported and swallowed; ingestion continues.
func (e *Engine) appendLog(old model.Snapshot, text string, mutate func(*model.Entry)) {
	entry := compose.Compose(old, text, "")
	if mutate != nil {
		mutate(&entry)
	}
	if entry.Category == "" {
		entry.Category = model.CategoryNavigation
	}
	if err := e.store.AppendEntry(entry.DateString(), entry); err != nil {
		log.Printf("trigger: append entry failed: %v", err)
		e.status(fmt.Sprintf("Automatic log entry failed: %v", err))
		return
	}
	e.status("Automatic log entry: " + text)
	if e.onEntry != nil {
		e.onEntry(entry)
	}
}

func underWay(snap model.Snapshot) bool {
	nav, _ := snap.Text("navigation.state")
	return nav == "sailing" || nav == "motoring"
}
