/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:

	Provides pre-built scenarios that populate the database with realistic
	calendars for testing and demos. Each scenario creates calendars,
	resources and leaves that demonstrate specific features.

AVAILABLE SCENARIOS:

	timezones:       Four people in four zones (Brussels, UTC+6, Los Angeles, Noronha)
	two-weeks:       Alternating odd/even week schedule
	standard-office: 40h office week with a public holiday, a training and equipment

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Build calendar definitions from factory presets
 3. Store calendars, resources and leaves

USAGE VIA API:

	POST /api/scenarios/load
	{"scenario_id": "timezones"}

ADDING NEW SCENARIOS:
 1. Add to 'scenarios' slice with ID, name, description
 2. Create a builder returning factory.CalendarJSON values
 3. Register it in scenarioBuilders

NOTE:

	Scenarios reset the database. Only use in development/demo environments.

SEE ALSO:
  - handlers.go: SaveDefinition
  - factory/presets.go: Calendar presets
*/
package api

import (
	"context"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/warp/workcalendar/factory"
	"github.com/warp/workcalendar/internal/logging"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "timezones",
		Name:        "Time Zones",
		Description: "Jean (Brussels), Patel (UTC+6), John (Los Angeles) and Paul (Noronha) on their own calendars",
		Category:    "zones",
	},
	{
		ID:          "two-weeks",
		Name:        "Two-Week Rotation",
		Description: "Odd weeks Monday to Thursday, even weeks Monday and Tuesday",
		Category:    "schedules",
	},
	{
		ID:          "standard-office",
		Name:        "Standard Office",
		Description: "40h week with lunch break, Easter Monday off, a training day and a projector",
		Category:    "schedules",
	},
}

var scenarioBuilders = map[string]func() []factory.CalendarJSON{
	"timezones":       timezonesScenario,
	"two-weeks":       twoWeeksScenario,
	"standard-office": standardOfficeScenario,
}

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario loads a predefined scenario.
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, r, "Invalid request body", err)
		return
	}
	if _, ok := scenarioBuilders[req.ScenarioID]; !ok {
		writeError(w, http.StatusBadRequest, "Unknown scenario", nil)
		return
	}

	if err := h.LoadScenarioByID(r.Context(), req.ScenarioID); err != nil {
		h.writeDomainError(w, r, fmt.Sprintf("Failed to load scenario: %v", err), err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "loaded", "scenario": req.ScenarioID})
}

// LoadScenarioByID resets the store and loads the scenario.
func (h *Handler) LoadScenarioByID(ctx context.Context, id string) error {
	build, ok := scenarioBuilders[id]
	if !ok {
		return fmt.Errorf("unknown scenario %q", id)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if err := h.Store.Reset(ctx); err != nil {
		return err
	}
	h.currentScenario = ""

	for _, cj := range build() {
		def, err := h.Factory.FromJSON(cj)
		if err != nil {
			return fmt.Errorf("calendar %s: %w", cj.ID, err)
		}
		if err := h.SaveDefinition(ctx, def); err != nil {
			return err
		}
	}

	h.currentScenario = id
	logging.FromContext(ctx, h.Logger).Info("scenario loaded", zap.String("scenario", id))
	return nil
}

// =============================================================================
// SCENARIO BUILDERS
// =============================================================================

func splitWeek(id, name, timezone string, blocks ...[2]float64) factory.CalendarJSON {
	cj := factory.CalendarJSON{ID: id, Name: name, Timezone: timezone}
	for _, day := range []string{"monday", "tuesday", "wednesday", "thursday", "friday"} {
		for i, b := range blocks {
			cj.Attendances = append(cj.Attendances, factory.AttendanceJSON{
				ID:       fmt.Sprintf("%s-%s-%d", id, day, i+1),
				Weekday:  day,
				HourFrom: b[0],
				HourTo:   b[1],
			})
		}
	}
	return cj
}

func timezonesScenario() []factory.CalendarJSON {
	jean := factory.ContinuousWeek("cal-jean", "Jean", "Europe/Brussels", 8, 16)
	jean.Resources = []factory.ResourceJSON{{ID: "jean", Name: "Jean", Timezone: "Europe/Brussels"}}
	jean.Leaves = []factory.LeaveJSON{{
		ID: "jean-half-day", Name: "Dentist", ResourceID: "jean",
		Start: "2018-04-03T08:00:00", End: "2018-04-03T12:00:00",
	}}

	patel := splitWeek("cal-patel", "Patel", "Etc/GMT-6", [2]float64{9, 12}, [2]float64{13, 17})
	patel.Resources = []factory.ResourceJSON{{ID: "patel", Name: "Patel", Timezone: "Etc/GMT-6"}}

	john := factory.CalendarJSON{
		ID: "cal-john", Name: "John", Timezone: "America/Los_Angeles",
		Attendances: []factory.AttendanceJSON{
			{ID: "john-tue", Name: "Tuesday", Weekday: "tuesday", HourFrom: 8, HourTo: 16},
			{ID: "john-fri-am", Name: "Friday morning", Weekday: "friday", HourFrom: 8, HourTo: 13},
			{ID: "john-fri-pm", Name: "Friday evening", Weekday: "friday", HourFrom: 16, HourTo: 23},
		},
		Resources: []factory.ResourceJSON{{ID: "john", Name: "John", Timezone: "America/Los_Angeles"}},
	}

	paul := splitWeek("cal-paul", "Paul", "America/Noronha", [2]float64{2, 7}, [2]float64{10, 16})
	paul.Resources = []factory.ResourceJSON{{ID: "paul", Name: "Paul", Timezone: "America/Noronha"}}

	return []factory.CalendarJSON{jean, patel, john, paul}
}

func twoWeeksScenario() []factory.CalendarJSON {
	jules := factory.TwoWeekRotation("cal-jules", "Jules", "Europe/Brussels")
	jules.Resources = []factory.ResourceJSON{{ID: "jules", Name: "Jules"}}
	return []factory.CalendarJSON{jules}
}

func standardOfficeScenario() []factory.CalendarJSON {
	hq := factory.StandardWeek("cal-hq", "Headquarters", "Europe/Brussels")
	hq.Resources = []factory.ResourceJSON{
		{ID: "alice", Name: "Alice", Timezone: "Europe/Brussels"},
		{ID: "projector", Name: "Projector", Kind: "material"},
	}
	hq.Leaves = []factory.LeaveJSON{
		{ID: "easter-monday", Name: "Easter Monday", Start: "2018-04-02", End: "2018-04-03"},
		{ID: "alice-training", Name: "Go training", ResourceID: "alice", TimeType: "other",
			Start: "2018-04-05T08:00:00", End: "2018-04-05T17:00:00"},
	}
	return []factory.CalendarJSON{hq}
}
