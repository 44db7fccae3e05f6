package calendar_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/workcalendar/calendar"
	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// RECORD VALIDATION
// =============================================================================

func TestValidateAttendance(t *testing.T) {
	ok := calendar.Attendance{Name: "ok", Weekday: calendar.Monday, HourFrom: 8, HourTo: 16}
	require.NoError(t, calendar.ValidateAttendance(ok))

	full := ok
	full.HourFrom, full.HourTo = 0, 24
	require.NoError(t, calendar.ValidateAttendance(full))

	from, to := generic.NewDate(2018, time.April, 10), generic.NewDate(2018, time.April, 1)
	bad := map[string]calendar.Attendance{
		"inverted":     {Weekday: calendar.Monday, HourFrom: 16, HourTo: 8},
		"empty":        {Weekday: calendar.Monday, HourFrom: 8, HourTo: 8},
		"past 24":      {Weekday: calendar.Monday, HourFrom: 20, HourTo: 25},
		"negative":     {Weekday: calendar.Monday, HourFrom: -1, HourTo: 8},
		"weekday":      {Weekday: calendar.Weekday(7), HourFrom: 8, HourTo: 16},
		"week type":    {Weekday: calendar.Monday, HourFrom: 8, HourTo: 16, WeekType: "third"},
		"bad validity": {Weekday: calendar.Monday, HourFrom: 8, HourTo: 16, DateFrom: &from, DateTo: &to},
	}
	for name, a := range bad {
		t.Run(name, func(t *testing.T) {
			err := calendar.ValidateAttendance(a)
			assert.ErrorIs(t, err, generic.ErrInvalidAttendance)
			assert.True(t, generic.IsClientError(err))
		})
	}
}

func TestValidateLeave(t *testing.T) {
	at := dt(2018, 4, 2, 10, 0, 0, tzJean)

	assert.NoError(t, calendar.ValidateLeave(calendar.LeaveException{Start: at, End: at.Add(time.Hour)}))
	assert.NoError(t, calendar.ValidateLeave(calendar.LeaveException{Start: at, End: at}), "zero-length leaves are allowed")

	err := calendar.ValidateLeave(calendar.LeaveException{Start: at, End: at.Add(-time.Second)})
	assert.ErrorIs(t, err, generic.ErrInvalidLeave)

	err = calendar.ValidateLeave(calendar.LeaveException{Start: at})
	assert.ErrorIs(t, err, generic.ErrInvalidLeave)

	err = calendar.ValidateLeave(calendar.LeaveException{Start: at, End: at, TimeType: "holiday"})
	assert.ErrorIs(t, err, generic.ErrInvalidLeave)
}

func TestValidateResource(t *testing.T) {
	assert.NoError(t, calendar.ValidateResource(calendar.Resource{ID: "r"}))
	assert.NoError(t, calendar.ValidateResource(calendar.Resource{ID: "r", Timezone: tzJohn}))

	err := calendar.ValidateResource(calendar.Resource{ID: "r", Timezone: "Atlantis/Capital"})
	assert.ErrorIs(t, err, generic.ErrInvalidTimezone)
	assert.True(t, generic.IsConfigError(err))
}

// =============================================================================
// CALENDAR VALIDATION
// =============================================================================

func TestValidateCalendar_Overlap(t *testing.T) {
	cal := calendar.Calendar{ID: "c", Name: "c", Timezone: "UTC"}

	touching := []calendar.Attendance{
		{Name: "am", Weekday: calendar.Monday, HourFrom: 8, HourTo: 12},
		{Name: "pm", Weekday: calendar.Monday, HourFrom: 12, HourTo: 16},
	}
	assert.NoError(t, calendar.ValidateCalendar(cal, touching))

	overlapping := []calendar.Attendance{
		{Name: "am", Weekday: calendar.Monday, HourFrom: 8, HourTo: 13},
		{Name: "pm", Weekday: calendar.Monday, HourFrom: 12, HourTo: 16},
	}
	err := calendar.ValidateCalendar(cal, overlapping)
	assert.ErrorIs(t, err, generic.ErrAttendanceOverlap)

	// Different days never overlap.
	otherDay := append([]calendar.Attendance(nil), overlapping...)
	otherDay[1].Weekday = calendar.Tuesday
	assert.NoError(t, calendar.ValidateCalendar(cal, otherDay))

	// Resource-specific attendances are not part of the shared week.
	personal := append([]calendar.Attendance(nil), overlapping...)
	personal[1].ResourceID = "john"
	assert.NoError(t, calendar.ValidateCalendar(cal, personal))
}

func TestValidateCalendar_TwoWeeks(t *testing.T) {
	cal := calendar.Calendar{ID: "c", Name: "c", Timezone: tzJean, TwoWeeks: true}
	atts := []calendar.Attendance{
		{Name: "odd", Weekday: calendar.Monday, HourFrom: 8, HourTo: 16, WeekType: calendar.WeekOdd},
		{Name: "even", Weekday: calendar.Monday, HourFrom: 10, HourTo: 18, WeekType: calendar.WeekEven},
	}
	assert.NoError(t, calendar.ValidateCalendar(cal, atts))

	atts = append(atts, calendar.Attendance{Name: "every", Weekday: calendar.Monday, HourFrom: 17, HourTo: 19, WeekType: calendar.WeekEvery})
	assert.ErrorIs(t, calendar.ValidateCalendar(cal, atts), generic.ErrAttendanceOverlap)
}

func TestValidateCalendar_Zone(t *testing.T) {
	err := calendar.ValidateCalendar(calendar.Calendar{ID: "c", Name: "c"}, nil)
	assert.ErrorIs(t, err, generic.ErrInvalidTimezone)

	err = calendar.ValidateCalendar(calendar.Calendar{ID: "c", Name: "c", Timezone: "UTC", HoursPerDay: 25}, nil)
	assert.True(t, generic.IsClientError(err))
}

// =============================================================================
// HOURS PER DAY
// =============================================================================

func TestHoursPerDay_Derived(t *testing.T) {
	cal := calendar.Calendar{ID: "c", Timezone: "UTC"}
	split := append(week("am", workweek, 9, 12), week("pm", workweek, 13, 17)...)
	assert.Equal(t, "7", calendar.HoursPerDay(cal, split).String())

	// Bounded and personal attendances do not count.
	from := generic.NewDate(2018, time.January, 1)
	extra := append(split,
		calendar.Attendance{Name: "temp", Weekday: calendar.Saturday, HourFrom: 8, HourTo: 12, DateFrom: &from},
		calendar.Attendance{Name: "own", Weekday: calendar.Sunday, HourFrom: 8, HourTo: 12, ResourceID: "john"},
	)
	assert.Equal(t, "7", calendar.HoursPerDay(cal, extra).String())

	assert.True(t, calendar.HoursPerDay(cal, nil).IsZero())
}

// =============================================================================
// ATTENDANCE EXPANSION
// =============================================================================

func TestExpandAttendances_ValidityBounds(t *testing.T) {
	// GIVEN: A Monday attendance valid from 2018-04-09 to 2018-04-16
	// THEN: Only those two Mondays are produced

	from, to := generic.NewDate(2018, time.April, 9), generic.NewDate(2018, time.April, 16)
	cal := calendar.Calendar{ID: "c", Timezone: "UTC"}
	atts := []calendar.Attendance{{ID: "mon", Name: "mon", Weekday: calendar.Monday, HourFrom: 8, HourTo: 12, DateFrom: &from, DateTo: &to}}
	w := generic.NewWindow(dt(2018, 4, 1, 0, 0, 0, "UTC"), dt(2018, 5, 1, 0, 0, 0, "UTC"))

	got, err := calendar.ExpandAttendances(cal, atts, "", w, time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assertTime(t, dt(2018, 4, 9, 8, 0, 0, "UTC"), got[0].Start)
	assertTime(t, dt(2018, 4, 16, 8, 0, 0, "UTC"), got[1].Start)
	assert.Equal(t, []string{"mon"}, got[0].Refs)
}

func TestExpandAttendances_TwoWeeks(t *testing.T) {
	// 2018-04-02 falls in an odd week, 2018-04-09 in an even one.
	cal := calendar.Calendar{ID: "c", Timezone: "UTC", TwoWeeks: true}
	atts := []calendar.Attendance{
		{ID: "odd", Name: "odd", Weekday: calendar.Monday, HourFrom: 8, HourTo: 12, WeekType: calendar.WeekOdd},
		{ID: "even", Name: "even", Weekday: calendar.Monday, HourFrom: 13, HourTo: 17, WeekType: calendar.WeekEven},
	}
	// Starting mid-week: the first Monday is in an even week.
	w := generic.NewWindow(dt(2018, 4, 4, 0, 0, 0, "UTC"), dt(2018, 4, 30, 0, 0, 0, "UTC"))

	got, err := calendar.ExpandAttendances(cal, atts, "", w, time.UTC)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assertTime(t, dt(2018, 4, 9, 13, 0, 0, "UTC"), got[0].Start)
	assertTime(t, dt(2018, 4, 16, 8, 0, 0, "UTC"), got[1].Start)
	assertTime(t, dt(2018, 4, 23, 13, 0, 0, "UTC"), got[2].Start)

	// The same attendances on a one-week calendar ignore week types.
	cal.TwoWeeks = false
	got, err = calendar.ExpandAttendances(cal, atts, "", w, time.UTC)
	require.NoError(t, err)
	assert.Len(t, got, 6)
}

func TestExpandAttendances_WallClock(t *testing.T) {
	// The same attendance lands on different instants in different zones.
	cal := calendar.Calendar{ID: "c", Timezone: "UTC"}
	atts := week("day", []calendar.Weekday{calendar.Tuesday}, 8, 16)
	w := generic.NewWindow(dt(2018, 4, 2, 0, 0, 0, "UTC"), dt(2018, 4, 5, 0, 0, 0, "UTC"))

	brussels, err := calendar.ExpandAttendances(cal, atts, "", w, generic.MustLoadZone(tzJean))
	require.NoError(t, err)
	la, err := calendar.ExpandAttendances(cal, atts, "", w, generic.MustLoadZone(tzJohn))
	require.NoError(t, err)

	require.Len(t, brussels, 1)
	require.Len(t, la, 1)
	assertTime(t, dt(2018, 4, 3, 6, 0, 0, "UTC"), brussels[0].Start)
	assertTime(t, dt(2018, 4, 3, 15, 0, 0, "UTC"), la[0].Start)
}

func TestSelectLeaves(t *testing.T) {
	at := dt(2018, 4, 2, 10, 0, 0, tzJean)
	leaves := []calendar.LeaveException{
		{ID: "late", CalendarID: "cal-jean", Start: at.Add(2 * time.Hour), End: at.Add(3 * time.Hour)},
		{ID: "mine", CalendarID: "cal-jean", ResourceID: "jean", Start: at, End: at.Add(time.Hour)},
		{ID: "theirs", CalendarID: "cal-jean", ResourceID: "john", Start: at, End: at.Add(time.Hour)},
		{ID: "elsewhere", CalendarID: "cal-john", Start: at, End: at.Add(time.Hour)},
		{ID: "company", Start: at, End: at.Add(time.Hour)},
		{ID: "training", CalendarID: "cal-jean", Start: at, End: at.Add(time.Hour), TimeType: calendar.TimeTypeOther},
	}

	got, err := calendar.SelectLeaves(leaves, "cal-jean", "jean", nil)
	require.NoError(t, err)
	var ids []calendar.LeaveID
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []calendar.LeaveID{"mine", "company", "late"}, ids)

	got, err = calendar.SelectLeaves(leaves, "cal-jean", "", []calendar.TimeType{calendar.TimeTypeOther})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, calendar.LeaveID("training"), got[0].ID)
}
