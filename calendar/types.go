// Package calendar implements working-time calendars on top of the generic
// interval engine: recurring attendances, leave exceptions, resources and the
// work-time queries asked about them.
package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// IDENTIFIERS
// =============================================================================

type (
	CalendarID   string
	ResourceID   string
	AttendanceID string
	LeaveID      string
)

// =============================================================================
// CALENDAR
// =============================================================================

// Calendar is a named working schedule. Its attendances and leaves are owned
// by it and deleted with it; resources only reference it.
type Calendar struct {
	ID       CalendarID
	Name     string
	Timezone string

	// HoursPerDay converts hours to days. Zero means "derive from the
	// global attendances" (see HoursPerDay in validate.go).
	HoursPerDay float64

	// TwoWeeks enables even/odd week attendances.
	TwoWeeks bool
}

// =============================================================================
// ATTENDANCE - One recurring working block
// =============================================================================

// Weekday numbers days Monday=0 to Sunday=6.
type Weekday int

const (
	Monday Weekday = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

var weekdayNames = [...]string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}

func (w Weekday) Valid() bool { return w >= Monday && w <= Sunday }

func (w Weekday) String() string {
	if !w.Valid() {
		return fmt.Sprintf("weekday(%d)", int(w))
	}
	return weekdayNames[w]
}

// ParseWeekday accepts full or three-letter English names in any case.
func ParseWeekday(s string) (Weekday, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range weekdayNames {
		if s == name || s == name[:3] {
			return Weekday(i), nil
		}
	}
	return 0, fmt.Errorf("unknown weekday %q", s)
}

// WeekdayOf returns the Weekday of a civil date.
func WeekdayOf(d generic.Date) Weekday { return Weekday(d.WeekdayIndex()) }

type DayPeriod string

const (
	PeriodMorning   DayPeriod = "morning"
	PeriodAfternoon DayPeriod = "afternoon"
)

// WeekType restricts an attendance to even or odd weeks of a two-week calendar.
type WeekType string

const (
	WeekEvery WeekType = "every"
	WeekEven  WeekType = "even" // generic.Date.WeekParity() == 0
	WeekOdd   WeekType = "odd"  // generic.Date.WeekParity() == 1
)

// Matches reports whether the attendance week type applies to d.
func (wt WeekType) Matches(d generic.Date) bool {
	switch wt {
	case WeekEven:
		return d.WeekParity() == 0
	case WeekOdd:
		return d.WeekParity() == 1
	default:
		return true
	}
}

// Attendance is one recurring working window. Hours are fractional
// wall-clock hours (8.5 = 08:30) in the zone of the resource the calendar is
// applied to.
type Attendance struct {
	ID         AttendanceID
	CalendarID CalendarID
	Name       string
	Weekday    Weekday
	HourFrom   float64
	HourTo     float64
	DayPeriod  DayPeriod
	WeekType   WeekType

	// Optional validity bounds, inclusive.
	DateFrom *generic.Date
	DateTo   *generic.Date

	// ResourceID restricts the attendance to one resource. Empty = everyone.
	ResourceID ResourceID
}

func (a Attendance) Hours() float64 { return a.HourTo - a.HourFrom }

// IsGlobal is true for attendances that define the calendar's regular week:
// no resource restriction and no validity bounds.
func (a Attendance) IsGlobal() bool {
	return a.ResourceID == "" && a.DateFrom == nil && a.DateTo == nil
}

// AppliesTo reports whether the attendance is in effect for resource on d.
// An empty resource selects global attendances only.
func (a Attendance) AppliesTo(resource ResourceID, d generic.Date, twoWeeks bool) bool {
	if a.ResourceID != "" && a.ResourceID != resource {
		return false
	}
	if a.DateFrom != nil && d.Before(*a.DateFrom) {
		return false
	}
	if a.DateTo != nil && d.After(*a.DateTo) {
		return false
	}
	if twoWeeks && !a.WeekType.Matches(d) {
		return false
	}
	return WeekdayOf(d) == a.Weekday
}

// =============================================================================
// RESOURCE
// =============================================================================

type ResourceKind string

const (
	KindHuman    ResourceKind = "human"
	KindMaterial ResourceKind = "material"
)

// Resource works according to a calendar. An empty Timezone falls back to
// the calendar's.
type Resource struct {
	ID         ResourceID
	Name       string
	Kind       ResourceKind
	Timezone   string
	CalendarID CalendarID
}

// =============================================================================
// LEAVE EXCEPTION
// =============================================================================

// TimeType tells whether a leave removes working time.
type TimeType string

const (
	TimeTypeLeave TimeType = "leave" // time off
	TimeTypeOther TimeType = "other" // e.g. training, counted as work by default
)

// LeaveException removes [Start, End) from the working time of one resource,
// or of every resource of the calendar when ResourceID is empty. A leave with
// no CalendarID applies to every calendar.
type LeaveException struct {
	ID         LeaveID
	CalendarID CalendarID
	ResourceID ResourceID
	Name       string
	Start      time.Time
	End        time.Time
	TimeType   TimeType
}

func (l LeaveException) IsGlobal() bool { return l.ResourceID == "" }

// Interval returns the leave as an attributed interval.
func (l LeaveException) Interval() generic.Interval {
	return generic.NewInterval(l.Start, l.End, string(l.ID))
}

// AppliesTo reports whether the leave is relevant to resource on calendar.
func (l LeaveException) AppliesTo(calendarID CalendarID, resource ResourceID) bool {
	if l.CalendarID != "" && l.CalendarID != calendarID {
		return false
	}
	return l.ResourceID == "" || l.ResourceID == resource
}
