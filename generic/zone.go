/*
zone.go - Timezones and civil dates

PURPOSE:
  Three zones take part in every query: the calendar's, the resource's and
  the viewer's. Attendance hours are wall-clock hours of one zone; "days" are
  midnights of another. This file holds the conversions between absolute
  instants and those wall clocks.

KEY CONCEPTS:
  - Date: a civil date with no zone attached (2018-04-10)
  - Date.At: the instant at which a fractional hour of that date occurs in a zone
  - WeekParity: the even/odd week counter used by two-week calendars

DAYLIGHT SAVING:
  Wall-clock times that do not exist (spring forward) or exist twice (fall
  back) are resolved by time.Date: a skipped time is pushed forward by the
  gap, a repeated time takes the first occurrence.

SEE ALSO:
  - interval.go: SplitByDay cuts at Date.Midnight boundaries
  - calendar/attendance.go: Expands weekly attendances with Date.At
*/
package generic

import (
	"fmt"
	"math"
	"strings"
	"time"

	// Embedded zoneinfo: a host without /usr/share/zoneinfo still resolves zones.
	_ "time/tzdata"
)

// =============================================================================
// ZONES
// =============================================================================

// LoadZone resolves an IANA zone name. Unlike time.LoadLocation, the empty
// name is rejected rather than read as UTC.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &ConfigError{Field: "timezone", Reason: "timezone is required", Err: ErrInvalidTimezone}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, &ConfigError{Field: "timezone", Reason: fmt.Sprintf("unknown timezone %q", name), Err: ErrInvalidTimezone}
	}
	return loc, nil
}

// MustLoadZone is LoadZone for fixtures and constants; it panics on error.
func MustLoadZone(name string) *time.Location {
	loc, err := LoadZone(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// localLayouts are accepted for instants written without an offset.
var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseInstant reads an RFC3339 instant, or a wall-clock time in loc when the
// text carries no offset. A nil loc makes the offset mandatory.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	for _, layout := range localLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err != nil {
			continue
		}
		if loc == nil {
			return time.Time{}, &InputError{Field: "datetime", Reason: fmt.Sprintf("%q has no offset and no timezone was given", s)}
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, loc), nil
	}
	return time.Time{}, &InputError{Field: "datetime", Reason: fmt.Sprintf("cannot parse %q", s)}
}

// =============================================================================
// DATE - Civil date
// =============================================================================

type Date struct {
	Year  int
	Month time.Month
	Day   int
}

const dateLayout = "2006-01-02"

func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the date of t on the wall clock of t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) utc() time.Time { return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC) }

func (d Date) IsZero() bool           { return d == (Date{}) }
func (d Date) AddDays(n int) Date     { return DateOf(d.utc().AddDate(0, 0, n)) }
func (d Date) Next() Date             { return d.AddDays(1) }
func (d Date) Prev() Date             { return d.AddDays(-1) }
func (d Date) Before(other Date) bool { return d.utc().Before(other.utc()) }
func (d Date) After(other Date) bool  { return d.utc().After(other.utc()) }
func (d Date) Weekday() time.Weekday  { return d.utc().Weekday() }
func (d Date) String() string         { return d.utc().Format(dateLayout) }

// Midnight returns the first instant of d in loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// WeekdayIndex numbers days from Monday=0 to Sunday=6.
func (d Date) WeekdayIndex() int {
	return (int(d.Weekday()) + 6) % 7
}

// At returns the instant at which the wall clock of loc reads `hours` on d.
// Fractional hours are rounded to the nearest minute. 24 is the next midnight.
func (d Date) At(hours float64, loc *time.Location) time.Time {
	if hours >= 24 {
		return d.Next().Midnight(loc)
	}
	h, frac := math.Modf(hours)
	minute := int(math.Round(frac * 60))
	return time.Date(d.Year, d.Month, d.Day, int(h), minute, 0, 0, loc)
}

// WeekParity returns 0 or 1, alternating every seven days counted from
// 0001-01-01 (a Monday). Unlike ISO week numbers it never repeats across
// a year boundary.
func (d Date) WeekParity() int {
	// Days between 0001-01-01 and 1970-01-01.
	const epochOffset = 719162
	days := floorDiv(d.utc().Unix(), 86400) + epochOffset
	return int(floorDiv(days, 7) % 2)
}

func (d Date) MarshalText() ([]byte, error) {
	if d.IsZero() {
		return []byte{}, nil
	}
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	if len(b) == 0 {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func floorDiv(a, b int64) int64 {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
