/*
presets.go - Pre-built calendar definitions

PURPOSE:
  Ready-to-use working weeks for common schedules. They return the
  serialized form so that callers can tweak them (add leaves, resources)
  before running them through CalendarFactory.FromJSON.

AVAILABLE PRESETS:
  StandardWeek:    Monday to Friday, 08:00-12:00 and 13:00-17:00 (40h)
  ContinuousWeek:  Monday to Friday, one block per day
  TwoWeekRotation: Alternating odd/even weeks (30h then 16h)

EXAMPLE:
  cj := factory.StandardWeek("cal-hq", "HQ", "Europe/Brussels")
  cj.Resources = append(cj.Resources, factory.ResourceJSON{ID: "jean", Name: "Jean"})
  def, err := factory.NewCalendarFactory().FromJSON(cj)

SEE ALSO:
  - calendar.go: Conversion and validation
*/
package factory

import "fmt"

var workdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday"}

// StandardWeek returns a 40 hours week with a lunch break.
func StandardWeek(id, name, timezone string) CalendarJSON {
	cj := CalendarJSON{ID: id, Name: name, Timezone: timezone, HoursPerDay: 8}
	for _, day := range workdays {
		cj.Attendances = append(cj.Attendances,
			AttendanceJSON{ID: fmt.Sprintf("%s-%s-am", id, day), Weekday: day, HourFrom: 8, HourTo: 12, DayPeriod: "morning"},
			AttendanceJSON{ID: fmt.Sprintf("%s-%s-pm", id, day), Weekday: day, HourFrom: 13, HourTo: 17, DayPeriod: "afternoon"},
		)
	}
	return cj
}

// ContinuousWeek returns Monday to Friday with one block from hourFrom to hourTo.
// Hours per day are left to be derived.
func ContinuousWeek(id, name, timezone string, hourFrom, hourTo float64) CalendarJSON {
	cj := CalendarJSON{ID: id, Name: name, Timezone: timezone}
	for _, day := range workdays {
		cj.Attendances = append(cj.Attendances, AttendanceJSON{
			ID:       fmt.Sprintf("%s-%s", id, day),
			Weekday:  day,
			HourFrom: hourFrom,
			HourTo:   hourTo,
		})
	}
	return cj
}

// TwoWeekRotation returns an alternating schedule: odd weeks Monday to
// Wednesday 08:00-16:00 and Thursday 08:00-14:00, even weeks Monday and
// Tuesday 08:00-16:00.
func TwoWeekRotation(id, name, timezone string) CalendarJSON {
	cj := CalendarJSON{ID: id, Name: name, Timezone: timezone, TwoWeeks: true}
	add := func(week, day string, from, to float64) {
		cj.Attendances = append(cj.Attendances, AttendanceJSON{
			ID:       fmt.Sprintf("%s-%s-%s", id, week, day),
			Weekday:  day,
			HourFrom: from,
			HourTo:   to,
			WeekType: week,
		})
	}
	for _, day := range workdays[:3] {
		add("odd", day, 8, 16)
	}
	add("odd", "thursday", 8, 14)
	for _, day := range workdays[:2] {
		add("even", day, 8, 16)
	}
	return cj
}
