/*
errors.go - Centralized error types for the working-time engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Configuration errors - Missing or invalid calendar reference, bad timezone
  2. Input errors - Inverted windows, malformed leaves or attendances
  3. Not found - Referenced calendar or resource does not exist

  Degenerate inputs (zero-length leaves, windows without working time) are
  NOT errors; they produce empty or zero results.

USAGE:
  Callers branch on the category, not on the message:

    if generic.IsConfigError(err) {
        return http.StatusUnprocessableEntity
    }

SEE ALSO:
  - calendar/validate.go: Produces input errors
  - api/handlers.go: Maps categories to HTTP status codes
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidTimezone is returned when a zone name cannot be resolved.
	ErrInvalidTimezone = errors.New("invalid timezone")

	// ErrCalendarRequired is returned when a resource resolves to no calendar.
	ErrCalendarRequired = errors.New("calendar required")

	// ErrCalendarNotFound is returned when a referenced calendar doesn't exist.
	ErrCalendarNotFound = errors.New("calendar not found")

	// ErrResourceNotFound is returned when a referenced resource doesn't exist.
	ErrResourceNotFound = errors.New("resource not found")

	// ErrInvalidWindow is returned when a query window ends before it starts.
	ErrInvalidWindow = errors.New("invalid window: end before start")

	// ErrInvalidLeave is returned when a leave ends before it starts.
	ErrInvalidLeave = errors.New("invalid leave")

	// ErrInvalidAttendance is returned for hours outside [0, 24] or from >= to.
	ErrInvalidAttendance = errors.New("invalid attendance")

	// ErrAttendanceOverlap is returned when two attendances of the same weekday overlap.
	ErrAttendanceOverlap = errors.New("attendances overlap")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ConfigError reports a configuration problem: a calendar reference or zone
// the engine cannot work with. Never retried.
type ConfigError struct {
	Field  string
	Reason string
	Err    error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// InputError reports a malformed request, detected before any computation.
type InputError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid input: %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsConfigError returns true if the error is a configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce) ||
		errors.Is(err, ErrInvalidTimezone) ||
		errors.Is(err, ErrCalendarRequired)
}

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie) ||
		errors.Is(err, ErrInvalidWindow) ||
		errors.Is(err, ErrInvalidLeave) ||
		errors.Is(err, ErrInvalidAttendance) ||
		errors.Is(err, ErrAttendanceOverlap)
}

// IsNotFound returns true if the error indicates a missing calendar or resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCalendarNotFound) ||
		errors.Is(err, ErrResourceNotFound)
}
