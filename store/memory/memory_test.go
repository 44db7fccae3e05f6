package memory_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/workcalendar/calendar"
	"github.com/warp/workcalendar/store/memory"
)

func day(d int) time.Time { return time.Date(2018, time.April, d, 0, 0, 0, 0, time.UTC) }

func leave(id string, cal calendar.CalendarID, res calendar.ResourceID, start, end time.Time) calendar.LeaveException {
	return calendar.LeaveException{ID: calendar.LeaveID(id), CalendarID: cal, ResourceID: res, Name: id, Start: start, End: end}
}

func TestMemory_MissingRecords(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	r, err := m.GetResource(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, r)

	c, err := m.GetCalendar(ctx, "nothing")
	require.NoError(t, err)
	assert.Nil(t, c)

	atts, err := m.GetAttendances(ctx, "nothing")
	require.NoError(t, err)
	assert.Empty(t, atts)
}

func TestMemory_CalendarOwnsAttendances(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	m.PutCalendar(calendar.Calendar{ID: "c", Name: "c", Timezone: "UTC"},
		calendar.Attendance{ID: "a1", Weekday: calendar.Monday, HourFrom: 8, HourTo: 12},
		calendar.Attendance{ID: "a2", Weekday: calendar.Monday, HourFrom: 13, HourTo: 17},
	)

	atts, err := m.GetAttendances(ctx, "c")
	require.NoError(t, err)
	require.Len(t, atts, 2)
	assert.Equal(t, calendar.CalendarID("c"), atts[0].CalendarID)

	// Returned slices are copies.
	atts[0].HourFrom = 0
	again, _ := m.GetAttendances(ctx, "c")
	assert.Equal(t, 8.0, again[0].HourFrom)

	m.AddAttendance(calendar.Attendance{ID: "a3", CalendarID: "c", Weekday: calendar.Tuesday, HourFrom: 8, HourTo: 12})
	again, _ = m.GetAttendances(ctx, "c")
	assert.Len(t, again, 3)
}

func TestMemory_GetLeaves(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	m.PutLeave(leave("late", "c", "", day(20), day(21)))
	m.PutLeave(leave("early", "c", "", day(1), day(2)))
	m.PutLeave(leave("mine", "c", "jean", day(5), day(6)))
	m.PutLeave(leave("theirs", "c", "john", day(5), day(6)))
	m.PutLeave(leave("company", "", "", day(7), day(8)))
	m.PutLeave(leave("other-cal", "d", "", day(5), day(6)))

	got, err := m.GetLeaves(ctx, "c", "jean", day(3), day(10))
	require.NoError(t, err)
	var ids []calendar.LeaveID
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []calendar.LeaveID{"mine", "company"}, ids)

	// No resource: global leaves only.
	got, err = m.GetLeaves(ctx, "c", "", day(1), day(30))
	require.NoError(t, err)
	ids = ids[:0]
	for _, l := range got {
		ids = append(ids, l.ID)
	}
	assert.Equal(t, []calendar.LeaveID{"early", "company", "late"}, ids)
}

func TestMemory_PutLeaveReplaces(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	m.PutLeave(leave("x", "c", "", day(1), day(2)))
	m.PutLeave(leave("x", "c", "", day(10), day(11)))

	got, err := m.GetLeaves(ctx, "c", "", day(1), day(30))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, day(10), got[0].Start)

	assert.True(t, m.DeleteLeave("x"))
	assert.False(t, m.DeleteLeave("x"))
}

func TestMemory_DeleteCalendarCascades(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	m.PutCalendar(calendar.Calendar{ID: "c", Timezone: "UTC"}, calendar.Attendance{ID: "a", Weekday: calendar.Monday, HourFrom: 8, HourTo: 12})
	m.PutResource(calendar.Resource{ID: "r", CalendarID: "c"})
	m.PutLeave(leave("l", "c", "", day(1), day(2)))
	m.PutLeave(leave("kept", "", "", day(1), day(2)))

	assert.True(t, m.DeleteCalendar("c"))
	assert.False(t, m.DeleteCalendar("c"))

	cal, _ := m.GetCalendar(ctx, "c")
	assert.Nil(t, cal)
	atts, _ := m.GetAttendances(ctx, "c")
	assert.Empty(t, atts)
	leaves, _ := m.GetLeaves(ctx, "c", "", day(1), day(30))
	require.Len(t, leaves, 1)
	assert.Equal(t, calendar.LeaveID("kept"), leaves[0].ID)

	// The resource keeps its dangling reference.
	r, _ := m.GetResource(ctx, "r")
	require.NotNil(t, r)
	assert.Equal(t, calendar.CalendarID("c"), r.CalendarID)
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	m := memory.New()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func(i int) {
			defer wg.Done()
			m.PutLeave(leave(string(rune('a'+i)), "c", "", day(1+i), day(2+i)))
		}(i)
		go func() {
			defer wg.Done()
			_, _ = m.GetLeaves(ctx, "c", "", day(1), day(30))
		}()
	}
	wg.Wait()

	got, err := m.GetLeaves(ctx, "c", "", day(1), day(30))
	require.NoError(t, err)
	require.Len(t, got, 20)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].Start.Before(got[i-1].Start), "leaves must stay ordered by start")
	}
}
