/*
engine.go - Resolving who is asking, on which calendar, in which zone

PURPOSE:
  Every work-time query starts the same way: find the resource, find the
  calendar that applies to it, load both zones, fetch attendances and
  leaves, validate everything. Only then is interval arithmetic run. The
  Engine does that resolution once per call and hands a scope to the
  query functions.

ZONES:
  ┌──────────────┬──────────────────────────────────────────────────────┐
  │ calendar tz  │ fallback for the resource; frames calendar-level     │
  │              │ queries (no resource)                                │
  │ resource tz  │ wall clock of attendance hours; defaults to calendar │
  │ viewer tz    │ midnights used for per-day results; defaults to the  │
  │              │ resource tz                                          │
  └──────────────┴──────────────────────────────────────────────────────┘

  The query window itself is a pair of absolute instants. A window given
  in a distant zone covers different working hours than the "same" dates
  in the resource zone; that difference is real and preserved.

CALENDAR RESOLUTION:
  Subject.CalendarID overrides the resource's own calendar. The resolved
  calendar is also the reference for converting hours to days. A resource
  with no calendar and no override is a configuration error.

ERRORS:
  All errors are raised before any interval is computed. Callers never get
  a partial result together with an error.

SEE ALSO:
  - query.go: Work-time queries built on the scope
  - planning.go: Hour counting and planning
*/
package calendar

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// ENGINE
// =============================================================================

// Engine answers work-time questions. It is stateless apart from its
// collaborators and safe for concurrent use.
type Engine struct {
	Store  Store
	Logger *zap.Logger
}

func NewEngine(store Store, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{Store: store, Logger: logger}
}

func (e *Engine) logger() *zap.Logger {
	if e.Logger == nil {
		return zap.NewNop()
	}
	return e.Logger
}

// Subject names who a query is about. With only a CalendarID the query is
// asked of the calendar itself (shared attendances, global leaves).
type Subject struct {
	ResourceID ResourceID
	CalendarID CalendarID
}

// Query is a window over a subject.
type Query struct {
	Subject
	Start time.Time
	End   time.Time

	// Viewer is the IANA zone framing per-day results. Empty = resource zone.
	Viewer string

	// LeaveTypes selects which leaves remove work time. Nil = leave only.
	LeaveTypes []TimeType
}

func (q Query) Window() generic.Window { return generic.NewWindow(q.Start, q.End) }

// =============================================================================
// SCOPE - Resolved inputs of one query
// =============================================================================

type scope struct {
	resource    *Resource
	calendar    Calendar
	attendances []Attendance
	zone        *time.Location // attendance wall clock
	viewer      *time.Location // per-day framing
}

func (s *scope) resourceID() ResourceID {
	if s.resource == nil {
		return ""
	}
	return s.resource.ID
}

// resolve loads and validates the resource, calendar and zones of subj.
func (e *Engine) resolve(ctx context.Context, subj Subject, viewer string) (*scope, error) {
	if e.Store == nil {
		return nil, fmt.Errorf("calendar engine has no store")
	}
	sc := &scope{}

	calendarID := subj.CalendarID
	if subj.ResourceID != "" {
		res, err := e.Store.GetResource(ctx, subj.ResourceID)
		if err != nil {
			return nil, fmt.Errorf("get resource %s: %w", subj.ResourceID, err)
		}
		if res == nil {
			return nil, fmt.Errorf("resource %s: %w", subj.ResourceID, generic.ErrResourceNotFound)
		}
		sc.resource = res
		if calendarID == "" {
			calendarID = res.CalendarID
		}
	}
	if calendarID == "" {
		return nil, &generic.ConfigError{Field: "calendar", Reason: fmt.Sprintf("resource %s has no calendar", subj.ResourceID), Err: generic.ErrCalendarRequired}
	}

	cal, err := e.Store.GetCalendar(ctx, calendarID)
	if err != nil {
		return nil, fmt.Errorf("get calendar %s: %w", calendarID, err)
	}
	if cal == nil {
		return nil, &generic.ConfigError{Field: "calendar", Reason: fmt.Sprintf("calendar %s does not exist", calendarID), Err: generic.ErrCalendarNotFound}
	}
	sc.calendar = *cal

	calZone, err := generic.LoadZone(cal.Timezone)
	if err != nil {
		return nil, fmt.Errorf("calendar %s: %w", cal.ID, err)
	}
	sc.zone = calZone
	if sc.resource != nil && sc.resource.Timezone != "" {
		if sc.zone, err = generic.LoadZone(sc.resource.Timezone); err != nil {
			return nil, fmt.Errorf("resource %s: %w", sc.resource.ID, err)
		}
	}
	sc.viewer = sc.zone
	if viewer != "" {
		if sc.viewer, err = generic.LoadZone(viewer); err != nil {
			return nil, fmt.Errorf("viewer: %w", err)
		}
	}

	sc.attendances, err = e.Store.GetAttendances(ctx, cal.ID)
	if err != nil {
		return nil, fmt.Errorf("get attendances of %s: %w", cal.ID, err)
	}
	for _, a := range sc.attendances {
		if err := ValidateAttendance(a); err != nil {
			return nil, fmt.Errorf("calendar %s attendance %s: %w", cal.ID, a.ID, err)
		}
	}

	e.logger().Debug("resolved calendar scope",
		zap.String("resource_id", string(sc.resourceID())),
		zap.String("calendar_id", string(cal.ID)),
		zap.String("zone", sc.zone.String()),
		zap.String("viewer", sc.viewer.String()),
		zap.Int("attendances", len(sc.attendances)),
	)
	return sc, nil
}

// =============================================================================
// INTERVAL SETS
// =============================================================================

func (e *Engine) attendanceIntervals(sc *scope, w generic.Window) (generic.Intervals, error) {
	return ExpandAttendances(sc.calendar, sc.attendances, sc.resourceID(), w, sc.zone)
}

func (e *Engine) selectLeaves(ctx context.Context, sc *scope, w generic.Window, types []TimeType) ([]LeaveException, error) {
	raw, err := e.Store.GetLeaves(ctx, sc.calendar.ID, sc.resourceID(), w.Start, w.End)
	if err != nil {
		return nil, fmt.Errorf("get leaves of %s: %w", sc.calendar.ID, err)
	}
	return SelectLeaves(raw, sc.calendar.ID, sc.resourceID(), types)
}

// intervalSets computes attendance, leave and work (attendance - leave) sets.
type intervalSets struct {
	attendance generic.Intervals
	leaves     []LeaveException
	leave      generic.Intervals
	work       generic.Intervals
}

func (e *Engine) intervalSets(ctx context.Context, sc *scope, w generic.Window, types []TimeType) (*intervalSets, error) {
	att, err := e.attendanceIntervals(sc, w)
	if err != nil {
		return nil, err
	}
	leaves, err := e.selectLeaves(ctx, sc, w, types)
	if err != nil {
		return nil, err
	}
	leave := LeaveIntervals(leaves, w)
	return &intervalSets{
		attendance: att,
		leaves:     leaves,
		leave:      leave,
		work:       generic.Subtract(att, leave),
	}, nil
}

// prepare validates the window and resolves the scope of q.
func (e *Engine) prepare(ctx context.Context, q Query) (*scope, generic.Window, error) {
	w := q.Window()
	if err := w.Validate(); err != nil {
		return nil, w, err
	}
	sc, err := e.resolve(ctx, q.Subject, q.Viewer)
	if err != nil {
		return nil, w, err
	}
	return sc, w, nil
}

// =============================================================================
// RAW INTERVAL QUERIES
// =============================================================================

// AttendanceIntervals returns the scheduled time of the subject in the window,
// ignoring leaves. Boundaries are in UTC.
func (e *Engine) AttendanceIntervals(ctx context.Context, q Query) (generic.Intervals, error) {
	sc, w, err := e.prepare(ctx, q)
	if err != nil {
		return nil, err
	}
	att, err := e.attendanceIntervals(sc, w)
	if err != nil {
		return nil, err
	}
	return att.UTC(), nil
}

// LeaveIntervals returns the leave time of the subject in the window, whether
// or not it falls on scheduled time.
func (e *Engine) LeaveIntervals(ctx context.Context, q Query) (generic.Intervals, error) {
	sc, w, err := e.prepare(ctx, q)
	if err != nil {
		return nil, err
	}
	leaves, err := e.selectLeaves(ctx, sc, w, q.LeaveTypes)
	if err != nil {
		return nil, err
	}
	return LeaveIntervals(leaves, w).UTC(), nil
}

// WorkIntervals returns attendance minus leaves in the window.
func (e *Engine) WorkIntervals(ctx context.Context, q Query) (generic.Intervals, error) {
	sc, w, err := e.prepare(ctx, q)
	if err != nil {
		return nil, err
	}
	sets, err := e.intervalSets(ctx, sc, w, q.LeaveTypes)
	if err != nil {
		return nil, err
	}
	return sets.work.UTC(), nil
}

// UnavailableIntervals returns the gaps between work intervals in the window.
func (e *Engine) UnavailableIntervals(ctx context.Context, q Query) (generic.Intervals, error) {
	sc, w, err := e.prepare(ctx, q)
	if err != nil {
		return nil, err
	}
	sets, err := e.intervalSets(ctx, sc, w, q.LeaveTypes)
	if err != nil {
		return nil, err
	}
	return generic.Complement(sets.work, w).UTC(), nil
}
