package calendar_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/warp/workcalendar/calendar"
	"github.com/warp/workcalendar/generic"
	"github.com/warp/workcalendar/store/memory"
)

// =============================================================================
// TEST FIXTURES
// =============================================================================
//
// Four people in four zones, each with their own calendar:
//
//   jean   Europe/Brussels      Mon-Fri 08-16
//   patel  Etc/GMT-6 (UTC+6)    Mon-Fri 09-12, 13-17
//   john   America/Los_Angeles  Tue 08-16, Fri 08-13 and 16-23
//   paul   America/Noronha      Mon-Fri 02-07, 10-16
//
// plus a two-week calendar (jules, Europe/Brussels):
//
//   odd weeks   Mon-Wed 08-16, Thu 08-14  (30h)
//   even weeks  Mon-Tue 08-16             (16h)

const (
	tzJean  = "Europe/Brussels"
	tzPatel = "Etc/GMT-6"
	tzJohn  = "America/Los_Angeles"
	tzPaul  = "America/Noronha"
)

type fixture struct {
	store  *memory.Memory
	engine *calendar.Engine
}

func week(prefix string, days []calendar.Weekday, from, to float64) []calendar.Attendance {
	var out []calendar.Attendance
	for _, d := range days {
		out = append(out, calendar.Attendance{
			ID:       calendar.AttendanceID(prefix + "-" + d.String()),
			Name:     prefix + " " + d.String(),
			Weekday:  d,
			HourFrom: from,
			HourTo:   to,
		})
	}
	return out
}

var workweek = []calendar.Weekday{calendar.Monday, calendar.Tuesday, calendar.Wednesday, calendar.Thursday, calendar.Friday}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	s := memory.New()

	s.PutCalendar(calendar.Calendar{ID: "cal-jean", Name: "Jean", Timezone: tzJean},
		week("jean", workweek, 8, 16)...)

	patel := append(week("patel-am", workweek, 9, 12), week("patel-pm", workweek, 13, 17)...)
	s.PutCalendar(calendar.Calendar{ID: "cal-patel", Name: "Patel", Timezone: tzPatel}, patel...)

	john := []calendar.Attendance{
		{ID: "john-tue", Name: "Tuesday", Weekday: calendar.Tuesday, HourFrom: 8, HourTo: 16},
		{ID: "john-fri-am", Name: "Friday morning", Weekday: calendar.Friday, HourFrom: 8, HourTo: 13, DayPeriod: calendar.PeriodMorning},
		{ID: "john-fri-pm", Name: "Friday evening", Weekday: calendar.Friday, HourFrom: 16, HourTo: 23, DayPeriod: calendar.PeriodAfternoon},
	}
	s.PutCalendar(calendar.Calendar{ID: "cal-john", Name: "John", Timezone: tzJohn}, john...)

	paul := append(week("paul-am", workweek, 2, 7), week("paul-pm", workweek, 10, 16)...)
	s.PutCalendar(calendar.Calendar{ID: "cal-paul", Name: "Paul", Timezone: tzPaul}, paul...)

	var jules []calendar.Attendance
	for _, a := range week("jules-odd", []calendar.Weekday{calendar.Monday, calendar.Tuesday, calendar.Wednesday}, 8, 16) {
		a.WeekType = calendar.WeekOdd
		jules = append(jules, a)
	}
	jules = append(jules, calendar.Attendance{ID: "jules-odd-thu", Name: "Thursday", Weekday: calendar.Thursday, HourFrom: 8, HourTo: 14, WeekType: calendar.WeekOdd})
	for _, a := range week("jules-even", []calendar.Weekday{calendar.Monday, calendar.Tuesday}, 8, 16) {
		a.WeekType = calendar.WeekEven
		jules = append(jules, a)
	}
	s.PutCalendar(calendar.Calendar{ID: "cal-jules", Name: "Jules", Timezone: tzJean, TwoWeeks: true}, jules...)

	s.PutResource(calendar.Resource{ID: "jean", Name: "Jean", Kind: calendar.KindHuman, Timezone: tzJean, CalendarID: "cal-jean"})
	s.PutResource(calendar.Resource{ID: "patel", Name: "Patel", Kind: calendar.KindHuman, Timezone: tzPatel, CalendarID: "cal-patel"})
	s.PutResource(calendar.Resource{ID: "john", Name: "John", Kind: calendar.KindHuman, Timezone: tzJohn, CalendarID: "cal-john"})
	s.PutResource(calendar.Resource{ID: "paul", Name: "Paul", Kind: calendar.KindHuman, Timezone: tzPaul, CalendarID: "cal-paul"})
	s.PutResource(calendar.Resource{ID: "jules", Name: "Jules", Kind: calendar.KindHuman, CalendarID: "cal-jules"})

	return &fixture{store: s, engine: calendar.NewEngine(s, nil)}
}

// dt builds a wall-clock time in the named zone.
func dt(year int, month time.Month, day, hour, min, sec int, zone string) time.Time {
	return time.Date(year, month, day, hour, min, sec, 0, generic.MustLoadZone(zone))
}

func (f *fixture) leave(id, cal, resource string, start, end time.Time) calendar.LeaveException {
	l := calendar.LeaveException{
		ID:         calendar.LeaveID(id),
		CalendarID: calendar.CalendarID(cal),
		ResourceID: calendar.ResourceID(resource),
		Name:       id,
		Start:      start,
		End:        end,
		TimeType:   calendar.TimeTypeLeave,
	}
	f.store.PutLeave(l)
	return l
}

func query(resource string, start, end time.Time) calendar.Query {
	return calendar.Query{Subject: calendar.Subject{ResourceID: calendar.ResourceID(resource)}, Start: start, End: end}
}

// assertAmount compares a decimal quantity against a float with 4 decimals of tolerance.
func assertAmount(t *testing.T, want float64, got generic.Amount, msgAndArgs ...interface{}) {
	t.Helper()
	diff := got.Value.Sub(decimal.NewFromFloat(want)).Abs()
	assert.True(t, diff.LessThan(decimal.NewFromFloat(0.0001)), append([]interface{}{"want %v, got %v", want, got.Value}, msgAndArgs...)...)
}

// assertTime compares instants, ignoring location and encoding.
func assertTime(t *testing.T, want, got time.Time, msgAndArgs ...interface{}) {
	t.Helper()
	assert.True(t, want.Equal(got), append([]interface{}{"want %v, got %v", want, got}, msgAndArgs...)...)
}
