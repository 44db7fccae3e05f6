/*
query.go - The work-time query surface

PURPOSE:
  Five questions asked of a resource over a window:

  ┌──────────────────────┬─────────────────────────────────────────────────┐
  │ AdjustToCalendar     │ snap a window to the closest attendance start   │
  │                      │ and end                                         │
  │ ListWorkTimePerDay   │ work hours per viewer-local day, lazily         │
  │ WorkDaysData         │ total work as hours and days                    │
  │ LeaveDaysData        │ total leave (on scheduled time) as hours, days  │
  │ ListLeaves           │ leave hours per day per leave record            │
  └──────────────────────┴─────────────────────────────────────────────────┘

ROUNDING:
  Hours keep full precision (decimal). Days are hours divided by the
  reference calendar's hours per day, rounded to 3 decimals. The rounded
  whole-hour figure is only a display helper (Duration.RoundedHours).

  Example (40h calendar, 8h/day, one half-day leave):
    WorkDaysData  -> {days: 4.5, hours: 36}
    LeaveDaysData -> {days: 0.5, hours: 4}

SEE ALSO:
  - engine.go: Scope resolution and interval sets
  - planning.go: Counting and planning helpers
*/
package calendar

import (
	"context"
	"iter"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// RESULT TYPES
// =============================================================================

// AdjustmentKind tells which boundaries an Adjustment carries.
type AdjustmentKind int

const (
	AdjustmentNotFound AdjustmentKind = iota
	AdjustmentStartOnly
	AdjustmentEndOnly
	AdjustmentFound
)

func (k AdjustmentKind) String() string {
	switch k {
	case AdjustmentFound:
		return "found"
	case AdjustmentStartOnly:
		return "start_only"
	case AdjustmentEndOnly:
		return "end_only"
	default:
		return "not_found"
	}
}

// Adjustment is the result of AdjustToCalendar. A nil boundary was not
// found. One boundary alone happens when only one end of the window lies
// on a working day.
type Adjustment struct {
	Start *time.Time
	End   *time.Time
}

// Kind classifies the adjustment by the boundaries it carries.
func (a Adjustment) Kind() AdjustmentKind {
	switch {
	case a.Start != nil && a.End != nil:
		return AdjustmentFound
	case a.Start != nil:
		return AdjustmentStartOnly
	case a.End != nil:
		return AdjustmentEndOnly
	default:
		return AdjustmentNotFound
	}
}

func (a Adjustment) Found() bool    { return a.Kind() == AdjustmentFound }
func (a Adjustment) NotFound() bool { return a.Kind() == AdjustmentNotFound }

// DayHours is the work time falling on one viewer-local day.
type DayHours struct {
	Date  generic.Date
	Hours generic.Amount
}

// Duration expresses a quantity of time both in days and in hours.
type Duration struct {
	Days  generic.Amount
	Hours generic.Amount
}

// RoundedHours is Hours rounded to the nearest whole hour, for display.
func (d Duration) RoundedHours() generic.Amount { return d.Hours.Round(0) }

// LeaveDay is the part of one leave record falling on one viewer-local day.
type LeaveDay struct {
	Date  generic.Date
	Hours generic.Amount
	Leave LeaveException
}

// =============================================================================
// ADJUST TO CALENDAR
// =============================================================================

// AdjustToCalendar snaps start to the closest attendance start on start's
// local day, and end to the closest attendance end on end's local day. When
// both fall on the same local day and a start was found, the end is searched
// after start only, up to the next midnight. Results keep the location of
// the respective input. A CalendarID on the subject replaces the resource's
// calendar.
func (e *Engine) AdjustToCalendar(ctx context.Context, subj Subject, start, end time.Time) (Adjustment, error) {
	if err := generic.NewWindow(start, end).Validate(); err != nil {
		return Adjustment{}, err
	}
	sc, err := e.resolve(ctx, subj, "")
	if err != nil {
		return Adjustment{}, err
	}

	var result Adjustment
	calStart, ok, err := e.closestWorkTime(ctx, sc, start, false, nil)
	if err != nil {
		return Adjustment{}, err
	}
	if ok {
		t := calStart.In(start.Location())
		result.Start = &t
	}

	var searchRange *generic.Window
	endDay := generic.DateOf(end.In(sc.zone))
	if ok && generic.DateOf(start.In(sc.zone)) == endDay {
		r := generic.NewWindow(start, endDay.Next().Midnight(sc.zone))
		searchRange = &r
	}
	calEnd, ok, err := e.closestWorkTime(ctx, sc, end, true, searchRange)
	if err != nil {
		return Adjustment{}, err
	}
	if ok {
		t := calEnd.In(end.Location())
		result.End = &t
	}
	return result, nil
}

// closestWorkTime returns the work interval boundary (start, or end when
// matchEnd) closest to dt within searchRange, which defaults to the local
// day of dt in the scope zone.
func (e *Engine) closestWorkTime(ctx context.Context, sc *scope, dt time.Time, matchEnd bool, searchRange *generic.Window) (time.Time, bool, error) {
	var r generic.Window
	if searchRange != nil {
		r = *searchRange
	} else {
		day := generic.DateOf(dt.In(sc.zone))
		r = generic.NewWindow(day.Midnight(sc.zone), day.Next().Midnight(sc.zone))
	}
	if !r.ContainsClosed(dt) {
		return time.Time{}, false, nil
	}

	sets, err := e.intervalSets(ctx, sc, r, nil)
	if err != nil {
		return time.Time{}, false, err
	}

	var best time.Time
	var bestGap time.Duration
	found := false
	for _, iv := range sets.work {
		candidate := iv.Start
		if matchEnd {
			candidate = iv.End
		}
		gap := absDuration(candidate.Sub(dt))
		// Strict comparison: on a tie the earlier interval wins.
		if !found || gap < bestGap {
			best, bestGap, found = candidate, gap, true
		}
	}
	return best, found, nil
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

// =============================================================================
// PER-DAY WORK TIME
// =============================================================================

// ListWorkTimePerDay returns the work hours of each viewer-local day touched
// by the window, in date order, omitting days without work. Inputs are
// resolved and validated immediately; the per-day split runs on iteration
// and can be repeated.
func (e *Engine) ListWorkTimePerDay(ctx context.Context, q Query) (iter.Seq[DayHours], error) {
	sc, w, err := e.prepare(ctx, q)
	if err != nil {
		return nil, err
	}
	sets, err := e.intervalSets(ctx, sc, w, q.LeaveTypes)
	if err != nil {
		return nil, err
	}
	work, viewer := sets.work, sc.viewer

	return func(yield func(DayHours) bool) {
		for _, day := range work.SplitByDay(viewer) {
			hours := day.Intervals.Hours()
			if hours.IsZero() {
				continue
			}
			if !yield(DayHours{Date: day.Date, Hours: hours}) {
				return
			}
		}
	}, nil
}

// =============================================================================
// DAYS / HOURS AGGREGATES
// =============================================================================

// WorkDaysData returns the work time (attendance minus leaves) in the window.
func (e *Engine) WorkDaysData(ctx context.Context, q Query) (Duration, error) {
	sc, w, err := e.prepare(ctx, q)
	if err != nil {
		return Duration{}, err
	}
	sets, err := e.intervalSets(ctx, sc, w, q.LeaveTypes)
	if err != nil {
		return Duration{}, err
	}
	return e.duration(sc, sets.work.Hours()), nil
}

// LeaveDaysData returns the leave time in the window that falls on the
// subject's attendances. Leave outside scheduled time counts for nothing.
func (e *Engine) LeaveDaysData(ctx context.Context, q Query) (Duration, error) {
	sc, w, err := e.prepare(ctx, q)
	if err != nil {
		return Duration{}, err
	}
	sets, err := e.intervalSets(ctx, sc, w, q.LeaveTypes)
	if err != nil {
		return Duration{}, err
	}
	return e.duration(sc, generic.Intersect(sets.leave, sets.attendance).Hours()), nil
}

func (e *Engine) duration(sc *scope, hours generic.Amount) Duration {
	perDay := HoursPerDay(sc.calendar, sc.attendances)
	days := hours.Div(perDay).Round(3).As(generic.UnitDays)
	return Duration{Days: days, Hours: hours}
}

// =============================================================================
// LEAVE LISTING
// =============================================================================

// ListLeaves returns, for every leave in the window, the hours it removes on
// each viewer-local day. Entries with no hours are left out. Ordered by
// date, then leave start.
func (e *Engine) ListLeaves(ctx context.Context, q Query) ([]LeaveDay, error) {
	sc, w, err := e.prepare(ctx, q)
	if err != nil {
		return nil, err
	}
	sets, err := e.intervalSets(ctx, sc, w, q.LeaveTypes)
	if err != nil {
		return nil, err
	}

	var out []LeaveDay
	for _, leave := range sets.leaves {
		// Per leave, so overlapping leaves each keep their own hours.
		own := generic.Clip(generic.Intervals{leave.Interval()}, w)
		onSchedule := generic.Intersect(own, sets.attendance)
		for _, day := range onSchedule.SplitByDay(sc.viewer) {
			hours := day.Intervals.Hours()
			if !hours.IsPositive() {
				continue
			}
			out = append(out, LeaveDay{Date: day.Date, Hours: hours, Leave: leave})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date.Before(out[j].Date)
		}
		return out[i].Leave.Start.Before(out[j].Leave.Start)
	})
	return out, nil
}

// HoursPerDay returns the hours-per-day ratio the subject's days are
// computed with.
func (e *Engine) HoursPerDay(ctx context.Context, subj Subject) (decimal.Decimal, error) {
	sc, err := e.resolve(ctx, subj, "")
	if err != nil {
		return decimal.Zero, err
	}
	return HoursPerDay(sc.calendar, sc.attendances), nil
}
