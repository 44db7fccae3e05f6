package calendar

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// RECORD VALIDATION
// =============================================================================

// ValidateAttendance checks 0 <= HourFrom < HourTo <= 24 and a known weekday.
func ValidateAttendance(a Attendance) error {
	if !a.Weekday.Valid() {
		return &generic.InputError{Field: "weekday", Reason: fmt.Sprintf("%d is not in 0..6", int(a.Weekday)), Err: generic.ErrInvalidAttendance}
	}
	if a.HourFrom < 0 || a.HourTo > 24 {
		return &generic.InputError{Field: "hours", Reason: fmt.Sprintf("%.2f-%.2f is outside 0-24", a.HourFrom, a.HourTo), Err: generic.ErrInvalidAttendance}
	}
	if a.HourFrom >= a.HourTo {
		return &generic.InputError{Field: "hours", Reason: fmt.Sprintf("from %.2f must be before to %.2f", a.HourFrom, a.HourTo), Err: generic.ErrInvalidAttendance}
	}
	switch a.WeekType {
	case "", WeekEvery, WeekEven, WeekOdd:
	default:
		return &generic.InputError{Field: "week_type", Reason: fmt.Sprintf("unknown week type %q", a.WeekType), Err: generic.ErrInvalidAttendance}
	}
	if a.DateFrom != nil && a.DateTo != nil && a.DateTo.Before(*a.DateFrom) {
		return &generic.InputError{Field: "date_to", Reason: "validity ends before it starts", Err: generic.ErrInvalidAttendance}
	}
	return nil
}

// ValidateLeave rejects leaves ending before they start. A zero-length leave
// is valid and simply removes nothing.
func ValidateLeave(l LeaveException) error {
	if l.Start.IsZero() || l.End.IsZero() {
		return &generic.InputError{Field: "leave", Reason: "start and end are required", Err: generic.ErrInvalidLeave}
	}
	if l.End.Before(l.Start) {
		return &generic.InputError{Field: "leave", Reason: "the start of the time off must be earlier than its end", Err: generic.ErrInvalidLeave}
	}
	switch l.TimeType {
	case "", TimeTypeLeave, TimeTypeOther:
	default:
		return &generic.InputError{Field: "time_type", Reason: fmt.Sprintf("unknown time type %q", l.TimeType), Err: generic.ErrInvalidLeave}
	}
	return nil
}

// ValidateResource checks the resource timezone when one is set.
func ValidateResource(r Resource) error {
	if r.Timezone == "" {
		return nil
	}
	_, err := generic.LoadZone(r.Timezone)
	return err
}

// ValidateCalendar checks the calendar zone, every attendance, and that no two
// global attendances of the same weekday overlap. Touching is allowed.
func ValidateCalendar(cal Calendar, attendances []Attendance) error {
	if _, err := generic.LoadZone(cal.Timezone); err != nil {
		return err
	}
	if cal.HoursPerDay < 0 || cal.HoursPerDay > 24 {
		return &generic.InputError{Field: "hours_per_day", Reason: "must be within 0-24", Err: generic.ErrInvalidAttendance}
	}
	for _, a := range attendances {
		if err := ValidateAttendance(a); err != nil {
			return fmt.Errorf("attendance %q: %w", a.Name, err)
		}
	}

	var shared []Attendance
	for _, a := range attendances {
		if a.IsGlobal() {
			shared = append(shared, a)
		}
	}
	if !cal.TwoWeeks {
		return checkOverlap(shared)
	}
	for _, wt := range []WeekType{WeekEven, WeekOdd} {
		if err := checkOverlap(weekOf(shared, wt)); err != nil {
			return fmt.Errorf("%s weeks: %w", wt, err)
		}
	}
	return nil
}

func checkOverlap(attendances []Attendance) error {
	sorted := append([]Attendance(nil), attendances...)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Weekday != sorted[j].Weekday {
			return sorted[i].Weekday < sorted[j].Weekday
		}
		return sorted[i].HourFrom < sorted[j].HourFrom
	})
	for i := 1; i < len(sorted); i++ {
		prev, cur := sorted[i-1], sorted[i]
		if prev.Weekday == cur.Weekday && cur.HourFrom < prev.HourTo {
			return &generic.InputError{
				Field:  "attendances",
				Reason: fmt.Sprintf("%s %s overlaps %s", cur.Weekday, hourRange(cur), hourRange(prev)),
				Err:    generic.ErrAttendanceOverlap,
			}
		}
	}
	return nil
}

// weekOf returns the attendances in effect on weeks of type wt: the ones
// tagged wt plus the untagged ones.
func weekOf(attendances []Attendance, wt WeekType) []Attendance {
	var out []Attendance
	for _, a := range attendances {
		if a.WeekType == wt || a.WeekType == "" || a.WeekType == WeekEvery {
			out = append(out, a)
		}
	}
	return out
}

func hourRange(a Attendance) string {
	return fmt.Sprintf("%05.2f-%05.2f", a.HourFrom, a.HourTo)
}

// =============================================================================
// HOURS PER DAY
// =============================================================================

// HoursPerDay returns the calendar's configured value, or derives it from the
// global attendances: total hours / number of attended weekdays, rounded to 2
// decimals. Two-week calendars average over both weeks. Returns zero when the
// calendar has no global attendance.
func HoursPerDay(cal Calendar, attendances []Attendance) decimal.Decimal {
	if cal.HoursPerDay > 0 {
		return decimal.NewFromFloat(cal.HoursPerDay)
	}

	var global []Attendance
	for _, a := range attendances {
		if a.IsGlobal() {
			global = append(global, a)
		}
	}
	if len(global) == 0 {
		return decimal.Zero
	}

	weeks := [][]Attendance{global}
	if cal.TwoWeeks {
		weeks = [][]Attendance{weekOf(global, WeekEven), weekOf(global, WeekOdd)}
	}

	hours := decimal.Zero
	days := 0
	for _, week := range weeks {
		seen := map[Weekday]bool{}
		for _, a := range week {
			hours = hours.Add(decimal.NewFromFloat(a.Hours()))
			seen[a.Weekday] = true
		}
		days += len(seen)
	}
	if days == 0 {
		return decimal.Zero
	}
	return hours.Div(decimal.NewFromInt(int64(days))).Round(2)
}
