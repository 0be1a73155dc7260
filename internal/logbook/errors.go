package logbook

import "errors"

var (
	// ErrNotFound marks a missing date-file or entry so callers can map
	// it to a "missing resource" response.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDate marks a date string that does not satisfy the
	// strict YYYY-MM-DD pattern. Rejected before any filesystem access.
	ErrInvalidDate = errors.New("invalid date format")
)

// ValidationError reports content that failed schema validation, on read
// or before write. The cause carries the descriptive detail.
type ValidationError struct {
	Cause error
}

func (e *ValidationError) Error() string {
	return "log validation failed: " + e.Cause.Error()
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}
