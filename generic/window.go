package generic

import (
	"fmt"
	"time"
)

// =============================================================================
// WINDOW - The range every query is asked over
// =============================================================================

// Window is a half-open query range [Start, End).
//
// Examples:
//   - One work week as seen by a resource: Mon 00:00 - Sat 00:00 in its zone
//   - A single instant: Start == End (valid, covers nothing)
//
// The location of Start is meaningful to some queries: it frames "local
// day" boundaries when no viewer zone is given.
type Window struct {
	Start time.Time
	End   time.Time
}

func NewWindow(start, end time.Time) Window {
	return Window{Start: start, End: end}
}

// Validate rejects inverted windows. An empty window (Start == End) is valid.
func (w Window) Validate() error {
	if w.Start.IsZero() || w.End.IsZero() {
		return &InputError{Field: "window", Reason: "start and end are required", Err: ErrInvalidWindow}
	}
	if w.End.Before(w.Start) {
		return &InputError{
			Field:  "window",
			Reason: fmt.Sprintf("end %s is before start %s", w.End.Format(time.RFC3339), w.Start.Format(time.RFC3339)),
			Err:    ErrInvalidWindow,
		}
	}
	return nil
}

// Contains returns true if t is within [Start, End).
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ContainsClosed returns true if t is within [Start, End].
func (w Window) ContainsClosed(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

func (w Window) Duration() time.Duration {
	if w.End.Before(w.Start) {
		return 0
	}
	return w.End.Sub(w.Start)
}

// In returns the same window expressed in loc.
func (w Window) In(loc *time.Location) Window {
	return Window{Start: w.Start.In(loc), End: w.End.In(loc)}
}

// String returns a string representation of the window.
func (w Window) String() string {
	return "[" + w.Start.Format(time.RFC3339) + ", " + w.End.Format(time.RFC3339) + ")"
}
