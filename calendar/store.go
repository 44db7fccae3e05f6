/*
store.go - Read interface between the engine and persisted calendar data

PURPOSE:
  The engine never owns calendar data. It reads plain records through this
  interface on every call and computes from scratch, so deleting a leave
  never leaves a stale aggregate behind.

CONTRACT:
  - Get* lookups return (nil, nil) when the record does not exist
  - GetLeaves returns leaves of the calendar (plus calendar-less leaves) for
    the resource (plus global leaves) that touch [from, to]; the engine
    filters again, so a store may return more than asked
  - Implementations must give each call a consistent view; the engine takes
    no locks of its own

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Persistent store behind the HTTP API
  - store/memory/memory.go: In-memory for tests and embedding

SEE ALSO:
  - engine.go: The only consumer
*/
package calendar

import (
	"context"
	"time"
)

// =============================================================================
// STORE - Interface for calendar data (read side)
// =============================================================================

type Store interface {
	GetResource(ctx context.Context, id ResourceID) (*Resource, error)
	GetCalendar(ctx context.Context, id CalendarID) (*Calendar, error)

	// GetAttendances returns every attendance of the calendar, resource
	// specific ones included.
	GetAttendances(ctx context.Context, calendarID CalendarID) ([]Attendance, error)

	// GetLeaves returns leaves touching [from, to]. An empty resourceID
	// asks for global leaves only.
	GetLeaves(ctx context.Context, calendarID CalendarID, resourceID ResourceID, from, to time.Time) ([]LeaveException, error)
}
