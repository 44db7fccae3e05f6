/*
attendance.go - Expanding recurring attendances into concrete intervals

PURPOSE:
  An Attendance says "every Tuesday 08:00-16:00". Queries need the actual
  instants: Tuesday 2018-04-03 08:00 Europe/Brussels to 16:00, and so on
  for every Tuesday of the window.

HOW IT WORKS:
  1. The window is converted to the attendance zone and reduced to the range
     of local dates it touches, narrowed by the attendance validity bounds.
  2. A weekly recurrence rule produces the matching dates. Two-week
     calendars step two weeks at a time from a week of the right parity.
  3. Each date becomes [date at HourFrom, date at HourTo) in the zone, and
     the union of everything is clipped to the window.

  The zone is the resource's (or the calendar's when there is no resource).
  The same attendance therefore lands on different instants for a resource
  in Los Angeles and one in Brussels.

SEE ALSO:
  - leaves.go: The intervals subtracted from these
  - generic/zone.go: Date.At, WeekParity
*/
package calendar

import (
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/warp/workcalendar/generic"
)

var rruleWeekdays = [...]rrule.Weekday{rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA, rrule.SU}

// ExpandAttendances returns the attendance intervals of resource within w,
// reading attendance hours on the wall clock of loc. An empty resource
// selects the attendances shared by everyone on the calendar.
func ExpandAttendances(cal Calendar, attendances []Attendance, resource ResourceID, w generic.Window, loc *time.Location) (generic.Intervals, error) {
	if !w.End.After(w.Start) {
		return generic.Intervals{}, nil
	}
	// One extra day on each side: an attendance ending at 24:00 on the day
	// before the window can still reach into it after zone conversion.
	first := generic.DateOf(w.Start.In(loc)).Prev()
	last := generic.DateOf(w.End.In(loc)).Next()

	var items []generic.Interval
	for _, a := range attendances {
		if a.ResourceID != "" && a.ResourceID != resource {
			continue
		}
		dates, err := occurrences(a, first, last, cal.TwoWeeks)
		if err != nil {
			return nil, fmt.Errorf("expand attendance %q: %w", a.Name, err)
		}
		for _, d := range dates {
			if !a.AppliesTo(resource, d, cal.TwoWeeks) {
				continue
			}
			items = append(items, generic.NewInterval(d.At(a.HourFrom, loc), d.At(a.HourTo, loc), string(a.ID)))
		}
	}
	return generic.Clip(generic.NewIntervals(items...), w), nil
}

// occurrences lists the dates in [first, last] on which a recurs.
func occurrences(a Attendance, first, last generic.Date, twoWeeks bool) ([]generic.Date, error) {
	if a.DateFrom != nil && first.Before(*a.DateFrom) {
		first = *a.DateFrom
	}
	if a.DateTo != nil && last.After(*a.DateTo) {
		last = *a.DateTo
	}
	if first.After(last) {
		return nil, nil
	}
	if !a.Weekday.Valid() {
		return nil, &generic.InputError{Field: "weekday", Reason: a.Weekday.String(), Err: generic.ErrInvalidAttendance}
	}

	opt := rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   first.Midnight(time.UTC),
		Until:     last.Midnight(time.UTC),
		Wkst:      rrule.MO,
		Byweekday: []rrule.Weekday{rruleWeekdays[a.Weekday]},
	}
	if twoWeeks && (a.WeekType == WeekEven || a.WeekType == WeekOdd) {
		start := first
		if !a.WeekType.Matches(start) {
			start = start.AddDays(-7)
		}
		opt.Dtstart = start.Midnight(time.UTC)
		opt.Interval = 2
	}
	return expandRule(opt, first)
}

func expandRule(opt rrule.ROption, first generic.Date) ([]generic.Date, error) {
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, err
	}
	var dates []generic.Date
	for _, t := range r.All() {
		d := generic.DateOf(t)
		// A two-week rule may start one week early to land on the right parity.
		if d.Before(first) {
			continue
		}
		dates = append(dates, d)
	}
	return dates, nil
}
