package calendar

import (
	"context"
	"math"
	"time"

	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// PLANNING - Walking the calendar forward or backward
// =============================================================================

const (
	// planStep is the span fetched per iteration when planning.
	planStep = 14 * 24 * time.Hour

	// planMaxSteps bounds the search to roughly four years.
	planMaxSteps = 100
)

// WorkHoursCount returns the number of hours the subject works between start
// and end. With computeLeaves false, leaves are ignored.
func (e *Engine) WorkHoursCount(ctx context.Context, subj Subject, start, end time.Time, computeLeaves bool) (float64, error) {
	w := generic.NewWindow(start, end)
	if err := w.Validate(); err != nil {
		return 0, err
	}
	sc, err := e.resolve(ctx, subj, "")
	if err != nil {
		return 0, err
	}
	intervals, err := e.planningIntervals(ctx, sc, w, computeLeaves)
	if err != nil {
		return 0, err
	}
	return intervals.Hours().Float64(), nil
}

// ClosestWorkTime returns the work interval start (or end, with matchEnd)
// closest to dt. The search covers searchRange, or the local day of dt in
// the subject's zone when searchRange is nil. ok is false when nothing is
// found or dt lies outside the range.
func (e *Engine) ClosestWorkTime(ctx context.Context, subj Subject, dt time.Time, matchEnd bool, searchRange *generic.Window) (time.Time, bool, error) {
	if searchRange != nil {
		if err := searchRange.Validate(); err != nil {
			return time.Time{}, false, err
		}
	}
	sc, err := e.resolve(ctx, subj, "")
	if err != nil {
		return time.Time{}, false, err
	}
	found, ok, err := e.closestWorkTime(ctx, sc, dt, matchEnd, searchRange)
	if err != nil || !ok {
		return time.Time{}, false, err
	}
	return found.In(dt.Location()), true, nil
}

// PlanHours returns the instant at which `hours` of work, counted from
// `from`, are done. Negative hours plan backward. ok is false when the
// calendar does not provide enough time within the search horizon.
func (e *Engine) PlanHours(ctx context.Context, subj Subject, hours float64, from time.Time, computeLeaves bool) (time.Time, bool, error) {
	if math.IsNaN(hours) || math.IsInf(hours, 0) {
		return time.Time{}, false, &generic.InputError{Field: "hours", Reason: "must be a finite number"}
	}
	sc, err := e.resolve(ctx, subj, "")
	if err != nil {
		return time.Time{}, false, err
	}
	// More hours than the horizon holds; also keeps the Duration below overflow.
	if math.Abs(hours) > planMaxSteps*planStep.Hours() {
		return time.Time{}, false, nil
	}
	remaining := time.Duration(math.Round(math.Abs(hours) * float64(time.Hour)))
	loc := from.Location()

	if hours >= 0 {
		for n := 0; n < planMaxSteps; n++ {
			lo := from.Add(time.Duration(n) * planStep)
			intervals, err := e.planningIntervals(ctx, sc, generic.NewWindow(lo, lo.Add(planStep)), computeLeaves)
			if err != nil {
				return time.Time{}, false, err
			}
			for _, iv := range intervals {
				if remaining <= iv.Duration() {
					return iv.Start.Add(remaining).In(loc), true, nil
				}
				remaining -= iv.Duration()
			}
		}
		return time.Time{}, false, nil
	}

	for n := 0; n < planMaxSteps; n++ {
		hi := from.Add(-time.Duration(n) * planStep)
		intervals, err := e.planningIntervals(ctx, sc, generic.NewWindow(hi.Add(-planStep), hi), computeLeaves)
		if err != nil {
			return time.Time{}, false, err
		}
		for i := len(intervals) - 1; i >= 0; i-- {
			iv := intervals[i]
			if remaining <= iv.Duration() {
				return iv.End.Add(-remaining).In(loc), true, nil
			}
			remaining -= iv.Duration()
		}
	}
	return time.Time{}, false, nil
}

// PlanDays returns the end of the days-th working day starting at from (or
// the start of it, counting backward, for negative days). A working day is a
// local date of the subject's zone with at least one work interval. Zero days
// returns from unchanged.
func (e *Engine) PlanDays(ctx context.Context, subj Subject, days int, from time.Time, computeLeaves bool) (time.Time, bool, error) {
	sc, err := e.resolve(ctx, subj, "")
	if err != nil {
		return time.Time{}, false, err
	}
	if days == 0 {
		return from, true, nil
	}
	loc := from.Location()
	found := map[generic.Date]bool{}

	if days > 0 {
		for n := 0; n < planMaxSteps; n++ {
			lo := from.Add(time.Duration(n) * planStep)
			intervals, err := e.planningIntervals(ctx, sc, generic.NewWindow(lo, lo.Add(planStep)), computeLeaves)
			if err != nil {
				return time.Time{}, false, err
			}
			for _, iv := range intervals {
				found[generic.DateOf(iv.Start.In(sc.zone))] = true
				if len(found) == days {
					return iv.End.In(loc), true, nil
				}
			}
		}
		return time.Time{}, false, nil
	}

	days = -days
	for n := 0; n < planMaxSteps; n++ {
		hi := from.Add(-time.Duration(n) * planStep)
		intervals, err := e.planningIntervals(ctx, sc, generic.NewWindow(hi.Add(-planStep), hi), computeLeaves)
		if err != nil {
			return time.Time{}, false, err
		}
		for i := len(intervals) - 1; i >= 0; i-- {
			iv := intervals[i]
			found[generic.DateOf(iv.Start.In(sc.zone))] = true
			if len(found) == days {
				return iv.Start.In(loc), true, nil
			}
		}
	}
	return time.Time{}, false, nil
}

func (e *Engine) planningIntervals(ctx context.Context, sc *scope, w generic.Window, computeLeaves bool) (generic.Intervals, error) {
	if !computeLeaves {
		return e.attendanceIntervals(sc, w)
	}
	sets, err := e.intervalSets(ctx, sc, w, nil)
	if err != nil {
		return nil, err
	}
	return sets.work, nil
}
