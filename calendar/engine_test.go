package calendar_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/workcalendar/calendar"
	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// SCOPE RESOLUTION ERRORS
// =============================================================================

func TestEngine_ResolutionErrors(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	start, end := dt(2018, 4, 2, 0, 0, 0, tzJean), dt(2018, 4, 7, 0, 0, 0, tzJean)

	f.store.PutResource(calendar.Resource{ID: "drifter", Name: "No calendar", Kind: calendar.KindHuman, Timezone: tzJean})
	f.store.PutResource(calendar.Resource{ID: "martian", Name: "Bad zone", Kind: calendar.KindHuman, Timezone: "Mars/Olympus_Mons", CalendarID: "cal-jean"})

	tests := []struct {
		name     string
		q        calendar.Query
		sentinel error
		config   bool
		client   bool
		notFound bool
	}{
		{
			name:     "unknown resource",
			q:        query("nobody", start, end),
			sentinel: generic.ErrResourceNotFound,
			notFound: true,
		},
		{
			name:     "resource without calendar",
			q:        query("drifter", start, end),
			sentinel: generic.ErrCalendarRequired,
			config:   true,
		},
		{
			name:     "unknown calendar",
			q:        calendar.Query{Subject: onCalendar("cal-nowhere"), Start: start, End: end},
			sentinel: generic.ErrCalendarNotFound,
			config:   true,
			notFound: true,
		},
		{
			name:     "unknown resource zone",
			q:        query("martian", start, end),
			sentinel: generic.ErrInvalidTimezone,
			config:   true,
		},
		{
			name:     "unknown viewer zone",
			q:        calendar.Query{Subject: calendar.Subject{ResourceID: "jean"}, Start: start, End: end, Viewer: "Nowhere/Land"},
			sentinel: generic.ErrInvalidTimezone,
			config:   true,
		},
		{
			name:     "inverted window",
			q:        query("jean", end, start),
			sentinel: generic.ErrInvalidWindow,
			client:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.engine.WorkDaysData(ctx, tt.q)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.sentinel)
			assert.Equal(t, tt.config, generic.IsConfigError(err), "config error")
			assert.Equal(t, tt.client, generic.IsClientError(err), "client error")
			assert.Equal(t, tt.notFound, generic.IsNotFound(err), "not found")
		})
	}
}

func TestEngine_MalformedRecordsFailTheQuery(t *testing.T) {
	// GIVEN: A stored leave ending before it starts
	// WHEN: Any query touches it
	// THEN: The whole query fails rather than skipping the record

	f := newFixture(t)
	ctx := context.Background()
	f.store.PutLeave(calendar.LeaveException{
		ID: "backwards", CalendarID: "cal-jean", Name: "Backwards",
		Start: dt(2018, 4, 3, 10, 0, 0, tzJean), End: dt(2018, 4, 3, 9, 0, 0, tzJean),
	})

	q := query("jean", dt(2018, 4, 2, 0, 0, 0, tzJean), dt(2018, 4, 7, 0, 0, 0, tzJean))
	_, err := f.engine.WorkDaysData(ctx, q)
	assert.ErrorIs(t, err, generic.ErrInvalidLeave)
	_, err = f.engine.ListLeaves(ctx, q)
	assert.ErrorIs(t, err, generic.ErrInvalidLeave)

	f.store.DeleteLeave("backwards")
	f.store.AddAttendance(calendar.Attendance{ID: "bad", CalendarID: "cal-jean", Name: "Bad", Weekday: calendar.Monday, HourFrom: 10, HourTo: 9})
	_, err = f.engine.WorkDaysData(ctx, q)
	assert.ErrorIs(t, err, generic.ErrInvalidAttendance)
	assert.True(t, generic.IsClientError(err))
}

func TestEngine_NoAttendances(t *testing.T) {
	// A calendar without attendances is valid and yields nothing.
	f := newFixture(t)
	f.store.PutCalendar(calendar.Calendar{ID: "cal-empty", Name: "Empty", Timezone: "UTC"})
	q := calendar.Query{Subject: onCalendar("cal-empty"), Start: dt(2018, 4, 2, 0, 0, 0, "UTC"), End: dt(2018, 4, 9, 0, 0, 0, "UTC")}

	got, err := f.engine.WorkDaysData(context.Background(), q)
	require.NoError(t, err)
	assert.True(t, got.Hours.IsZero())
	assert.True(t, got.Days.IsZero())

	seq, err := f.engine.ListWorkTimePerDay(context.Background(), q)
	require.NoError(t, err)
	for range seq {
		t.Fatal("expected no days")
	}
}

func TestEngine_EmptyWindow(t *testing.T) {
	f := newFixture(t)
	at := dt(2018, 4, 3, 10, 0, 0, tzJean)

	got, err := f.engine.WorkDaysData(context.Background(), query("jean", at, at))
	require.NoError(t, err)
	assert.True(t, got.Hours.IsZero())
}

// =============================================================================
// RAW INTERVALS
// =============================================================================

func TestEngine_IntervalQueries(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.leave("lunch-off", "cal-jean", "jean", dt(2018, 4, 2, 12, 0, 0, tzJean), dt(2018, 4, 2, 18, 0, 0, tzJean))
	q := query("jean", dt(2018, 4, 2, 0, 0, 0, tzJean), dt(2018, 4, 3, 0, 0, 0, tzJean))

	att, err := f.engine.AttendanceIntervals(ctx, q)
	require.NoError(t, err)
	require.Len(t, att, 1)
	assertTime(t, dt(2018, 4, 2, 6, 0, 0, "UTC"), att[0].Start)
	assertTime(t, dt(2018, 4, 2, 14, 0, 0, "UTC"), att[0].End)

	// Leave intervals are not cut to the schedule.
	leave, err := f.engine.LeaveIntervals(ctx, q)
	require.NoError(t, err)
	require.Len(t, leave, 1)
	assert.InDelta(t, 6, leave.Hours().Float64(), 1e-9)
	assert.Equal(t, []string{"lunch-off"}, leave[0].Refs)

	work, err := f.engine.WorkIntervals(ctx, q)
	require.NoError(t, err)
	require.Len(t, work, 1)
	assertTime(t, dt(2018, 4, 2, 6, 0, 0, "UTC"), work[0].Start)
	assertTime(t, dt(2018, 4, 2, 10, 0, 0, "UTC"), work[0].End)

	gaps, err := f.engine.UnavailableIntervals(ctx, q)
	require.NoError(t, err)
	require.Len(t, gaps, 2)
	assertTime(t, dt(2018, 4, 1, 22, 0, 0, "UTC"), gaps[0].Start)
	assertTime(t, dt(2018, 4, 2, 6, 0, 0, "UTC"), gaps[0].End)
	assertTime(t, dt(2018, 4, 2, 10, 0, 0, "UTC"), gaps[1].Start)
	assertTime(t, dt(2018, 4, 2, 22, 0, 0, "UTC"), gaps[1].End)

	// Work and gaps partition the window.
	assert.Equal(t, q.Window().Duration(), work.Duration()+gaps.Duration())
}

func TestEngine_ResourceFallsBackToCalendarZone(t *testing.T) {
	// Jules has no zone of his own: Brussels hours from his calendar.
	f := newFixture(t)
	att, err := f.engine.AttendanceIntervals(context.Background(),
		query("jules", dt(2018, 4, 2, 0, 0, 0, tzJean), dt(2018, 4, 3, 0, 0, 0, tzJean)))
	require.NoError(t, err)
	require.Len(t, att, 1)
	assertTime(t, dt(2018, 4, 2, 8, 0, 0, tzJean), att[0].Start)
}

// =============================================================================
// HOURS PER DAY
// =============================================================================

func TestEngine_HoursPerDay(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		subject calendar.Subject
		want    string
	}{
		{onCalendar("cal-jean"), "8"},
		{onCalendar("cal-patel"), "7"},
		{onCalendar("cal-john"), "10"},
		{calendar.Subject{ResourceID: "paul"}, "11"},
		{calendar.Subject{ResourceID: "jules"}, "7.67"},
	}
	for _, tt := range tests {
		got, err := f.engine.HoursPerDay(ctx, tt.subject)
		require.NoError(t, err)
		assert.True(t, got.Equal(decimal.RequireFromString(tt.want)), "%+v: got %s", tt.subject, got)
	}

	// A configured value wins over the derived one.
	f.store.PutCalendar(calendar.Calendar{ID: "cal-fixed", Name: "Fixed", Timezone: "UTC", HoursPerDay: 7.6},
		week("fixed", workweek, 9, 17)...)
	got, err := f.engine.HoursPerDay(ctx, onCalendar("cal-fixed"))
	require.NoError(t, err)
	assert.True(t, got.Equal(decimal.RequireFromString("7.6")))
}
