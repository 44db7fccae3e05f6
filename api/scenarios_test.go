/*
scenarios_test.go - Tests for demo scenarios

PURPOSE:

	Tests that each scenario sets up the expected state and that the
	engine answers the questions each scenario was built to show:
	- Calendars, resources and leaves are created
	- Zones, week parity and time types behave as described

These tests double as integration tests of the whole stack.
*/
package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/workcalendar/calendar"
)

func TestScenario_LoadAll(t *testing.T) {
	// GIVEN: Every registered scenario
	// WHEN: Loading each one in turn on the same store
	// THEN: Each load replaces the previous data

	s := newTestServer(t)
	ctx := context.Background()

	for _, sc := range scenarios {
		t.Run(sc.ID, func(t *testing.T) {
			require.NoError(t, s.handler.LoadScenarioByID(ctx, sc.ID))

			cals, err := s.handler.Store.ListCalendars(ctx)
			require.NoError(t, err)
			assert.Len(t, cals, len(scenarioBuilders[sc.ID]()))

			current := decode[ScenarioDTO](t, s.get(t, "/api/scenarios/current", nil))
			assert.Equal(t, sc.ID, current.ID)
		})
	}
}

func TestScenario_Endpoints(t *testing.T) {
	s := newTestServer(t)

	listed := decode[[]ScenarioDTO](t, s.get(t, "/api/scenarios", nil))
	assert.Len(t, listed, len(scenarioBuilders))

	rec := s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "bogus"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/api/scenarios/load", LoadScenarioRequest{ScenarioID: "timezones"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[[]ResourceDTO](t, s.get(t, "/api/resources", nil)), 4)

	rec = s.do(t, http.MethodPost, "/api/scenarios/reset", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[[]CalendarDTO](t, s.get(t, "/api/calendars", nil)))
	assert.Equal(t, "null\n", s.get(t, "/api/scenarios/current", nil).Body.String())
}

func TestScenario_Timezones(t *testing.T) {
	// GIVEN: The timezones scenario
	// WHEN: Reading Jean's Tuesday from Jean's and John's zones
	// THEN: The same work interval is framed on different dates

	s := newScenarioServer(t, "timezones")
	ctx := context.Background()

	jean, err := s.handler.Store.GetResource(ctx, "jean")
	require.NoError(t, err)
	require.NotNil(t, jean)
	assert.Equal(t, calendar.CalendarID("cal-jean"), jean.CalendarID)

	tuesday := map[string]string{"start": "2018-04-03T00:00:00", "end": "2018-04-04T00:00:00"}
	days := decode[[]DayHoursDTO](t, s.get(t, "/api/resources/jean/work-time", tuesday))
	require.Len(t, days, 1)
	assert.Equal(t, "2018-04-03", days[0].Date)

	// 12:00-16:00 Brussels is 03:00-07:00 in Los Angeles.
	tuesday["viewer"] = "America/Los_Angeles"
	work := decode[[]IntervalDTO](t, s.get(t, "/api/resources/jean/work-intervals", tuesday))
	require.Len(t, work, 1)
	assert.Equal(t, "2018-04-03T03:00:00-07:00", work[0].Start)

	// John only works Tuesday and Friday: 8h + 12h.
	john := decode[DurationDTO](t, s.get(t, "/api/resources/john/work-days", jeanWeek))
	assert.InDelta(t, 20, john.Hours, 1e-9)
}

func TestScenario_TwoWeeks(t *testing.T) {
	// GIVEN: Jules on an alternating schedule
	// WHEN: Counting two consecutive weeks
	// THEN: Odd and even weeks differ

	s := newScenarioServer(t, "two-weeks")

	odd := decode[DurationDTO](t, s.get(t, "/api/resources/jules/work-days", jeanWeek))
	even := decode[DurationDTO](t, s.get(t, "/api/resources/jules/work-days", map[string]string{
		"start": "2018-04-09T00:00:00", "end": "2018-04-14T00:00:00",
	}))
	assert.InDelta(t, 30, odd.Hours, 1e-9)
	assert.InDelta(t, 16, even.Hours, 1e-9)

	cal := decode[CalendarDTO](t, s.get(t, "/api/calendars/cal-jules", nil))
	assert.True(t, cal.TwoWeeks)
}

func TestScenario_StandardOffice(t *testing.T) {
	// GIVEN: An office week with Easter Monday off and a training for Alice
	// WHEN: Counting work with and without "other" time removing work
	// THEN: Easter Monday always counts as leave, the training only on request

	s := newScenarioServer(t, "standard-office")

	alice := decode[DurationDTO](t, s.get(t, "/api/resources/alice/work-days", jeanWeek))
	assert.InDelta(t, 32, alice.Hours, 1e-9)
	assert.InDelta(t, 4, alice.Days, 1e-9)

	params := map[string]string{"start": "2018-04-02T00:00:00", "end": "2018-04-07T00:00:00", "leave_types": "leave,other"}
	strict := decode[DurationDTO](t, s.get(t, "/api/resources/alice/work-days", params))
	assert.InDelta(t, 24, strict.Hours, 1e-9)
	assert.InDelta(t, 3, strict.Days, 1e-9)

	// The projector has no zone of its own and follows the calendar.
	projector := decode[DurationDTO](t, s.get(t, "/api/resources/projector/work-days", jeanWeek))
	assert.InDelta(t, 32, projector.Hours, 1e-9)
}
