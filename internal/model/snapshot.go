package model

// DatetimeKey is the distinguished snapshot field holding the nominal
// timestamp of the current sampling cycle. The scheduler clears it at the
// start of each cycle so the first real update re-establishes it.
const DatetimeKey = "datetime"

// SailSummaryKey is the derived-state key under which the trigger engine
// publishes the human-readable summary of currently active sails.
const SailSummaryKey = "custom.logbook.sails"

// Snapshot maps dotted Signal K paths to their last-known values. Once a
// path has been observed it stays in the snapshot until explicitly
// cleared; a missing key means "unknown".
type Snapshot map[string]Value

// Clone returns a shallow copy. Values are immutable from the snapshot's
// point of view, so sharing them between copies is safe.
func (s Snapshot) Clone() Snapshot {
	out := make(Snapshot, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Float returns the numeric value at path, if present.
func (s Snapshot) Float(path string) (float64, bool) {
	v, ok := s[path]
	if !ok {
		return 0, false
	}
	return v.Float()
}

// Text returns the string value at path, if present.
func (s Snapshot) Text(path string) (string, bool) {
	v, ok := s[path]
	if !ok {
		return "", false
	}
	return v.Text()
}
