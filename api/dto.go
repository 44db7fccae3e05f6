/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the calendar model from the external API contract, allowing:
  - Field renaming without breaking clients
  - API-specific validation
  - Version evolution

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Params: Query string parameters

TYPES:
  Calendars:   CalendarDTO (requests use factory.CalendarJSON)
  Attendances: AttendanceRequest, AttendanceDTO
  Leaves:      LeaveRequest, LeaveDTO
  Resources:   ResourceRequest, ResourceDTO
  Queries:     WindowParams, PlanParams, DurationDTO, DayHoursDTO, LeaveDayDTO,
               IntervalDTO, AdjustmentDTO, PlanDTO
  Scenarios:   ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Struct tags are checked with go-playground/validator. The "timezone" tag
  is replaced by one resolving zones the way the engine does.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/calendar.go: CalendarJSON type
*/
package api

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/warp/workcalendar/calendar"
	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// VALIDATION
// =============================================================================

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("timezone", validateTimezone)
	return v
}

func validateTimezone(fl validator.FieldLevel) bool {
	_, err := generic.LoadZone(fl.Field().String())
	return err == nil
}

// =============================================================================
// CALENDARS AND ATTENDANCES
// =============================================================================

// CalendarDTO represents a calendar in API responses.
type CalendarDTO struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Timezone    string          `json:"timezone"`
	HoursPerDay float64         `json:"hours_per_day"`
	TwoWeeks    bool            `json:"two_weeks"`
	Attendances []AttendanceDTO `json:"attendances"`
}

// AttendanceRequest adds or replaces one attendance of a calendar.
type AttendanceRequest struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Weekday    string  `json:"weekday" validate:"required"`
	HourFrom   float64 `json:"hour_from" validate:"gte=0,lte=24"`
	HourTo     float64 `json:"hour_to" validate:"gt=0,lte=24,gtfield=HourFrom"`
	DayPeriod  string  `json:"day_period" validate:"omitempty,oneof=morning afternoon"`
	WeekType   string  `json:"week_type" validate:"omitempty,oneof=every even odd"`
	DateFrom   string  `json:"date_from" validate:"omitempty,datetime=2006-01-02"`
	DateTo     string  `json:"date_to" validate:"omitempty,datetime=2006-01-02"`
	ResourceID string  `json:"resource_id"`
}

// AttendanceDTO represents an attendance in API responses.
type AttendanceDTO struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Weekday    string  `json:"weekday"`
	HourFrom   float64 `json:"hour_from"`
	HourTo     float64 `json:"hour_to"`
	DayPeriod  string  `json:"day_period,omitempty"`
	WeekType   string  `json:"week_type,omitempty"`
	DateFrom   string  `json:"date_from,omitempty"`
	DateTo     string  `json:"date_to,omitempty"`
	ResourceID string  `json:"resource_id,omitempty"`
}

func toAttendanceDTO(a calendar.Attendance) AttendanceDTO {
	dto := AttendanceDTO{
		ID:         string(a.ID),
		Name:       a.Name,
		Weekday:    a.Weekday.String(),
		HourFrom:   a.HourFrom,
		HourTo:     a.HourTo,
		DayPeriod:  string(a.DayPeriod),
		WeekType:   string(a.WeekType),
		ResourceID: string(a.ResourceID),
	}
	if a.DateFrom != nil {
		dto.DateFrom = a.DateFrom.String()
	}
	if a.DateTo != nil {
		dto.DateTo = a.DateTo.String()
	}
	return dto
}

// =============================================================================
// LEAVES
// =============================================================================

// LeaveRequest creates a leave. Start and End are RFC3339, or wall-clock
// times in Timezone (defaulting to the calendar zone).
type LeaveRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	CalendarID string `json:"calendar_id"`
	ResourceID string `json:"resource_id"`
	Start      string `json:"start" validate:"required"`
	End        string `json:"end" validate:"required"`
	Timezone   string `json:"timezone" validate:"omitempty,timezone"`
	TimeType   string `json:"time_type" validate:"omitempty,oneof=leave other"`
}

// LeaveDTO represents a leave in API responses.
type LeaveDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CalendarID string `json:"calendar_id,omitempty"`
	ResourceID string `json:"resource_id,omitempty"`
	Start      string `json:"start"`
	End        string `json:"end"`
	TimeType   string `json:"time_type"`
}

func toLeaveDTO(l calendar.LeaveException) LeaveDTO {
	return LeaveDTO{
		ID:         string(l.ID),
		Name:       l.Name,
		CalendarID: string(l.CalendarID),
		ResourceID: string(l.ResourceID),
		Start:      l.Start.UTC().Format(time.RFC3339),
		End:        l.End.UTC().Format(time.RFC3339),
		TimeType:   string(l.TimeType),
	}
}

// =============================================================================
// RESOURCES
// =============================================================================

// ResourceRequest creates or updates a resource.
type ResourceRequest struct {
	ID         string `json:"id"`
	Name       string `json:"name" validate:"required"`
	Kind       string `json:"kind" validate:"omitempty,oneof=human material"`
	Timezone   string `json:"timezone" validate:"omitempty,timezone"`
	CalendarID string `json:"calendar_id"`
}

// ResourceDTO represents a resource in API responses.
type ResourceDTO struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Kind       string `json:"kind"`
	Timezone   string `json:"timezone,omitempty"`
	CalendarID string `json:"calendar_id,omitempty"`
}

func toResourceDTO(r calendar.Resource) ResourceDTO {
	return ResourceDTO{
		ID:         string(r.ID),
		Name:       r.Name,
		Kind:       string(r.Kind),
		Timezone:   r.Timezone,
		CalendarID: string(r.CalendarID),
	}
}

// =============================================================================
// QUERIES
// =============================================================================

// WindowParams are the query string parameters of window queries.
type WindowParams struct {
	Start      string `validate:"required"`
	End        string `validate:"required"`
	TZ         string `validate:"omitempty,timezone"` // zone of start/end without offset
	Viewer     string `validate:"omitempty,timezone"`
	CalendarID string
	LeaveTypes []string `validate:"dive,oneof=leave other"`
}

// PlanParams are the query string parameters of planning queries.
type PlanParams struct {
	From          string `validate:"required"`
	TZ            string `validate:"omitempty,timezone"`
	Amount        string `validate:"required,numeric"`
	CalendarID    string
	ComputeLeaves bool
}

// DurationDTO is an amount of work time in days and hours.
type DurationDTO struct {
	Days         float64 `json:"days"`
	Hours        float64 `json:"hours"`
	RoundedHours float64 `json:"rounded_hours"`
}

func toDurationDTO(d calendar.Duration) DurationDTO {
	return DurationDTO{
		Days:         d.Days.Float64(),
		Hours:        d.Hours.Float64(),
		RoundedHours: d.RoundedHours().Float64(),
	}
}

// DayHoursDTO is the work time of one date.
type DayHoursDTO struct {
	Date  string  `json:"date"`
	Hours float64 `json:"hours"`
}

// LeaveDayDTO is the share of a leave falling on one date.
type LeaveDayDTO struct {
	Date    string  `json:"date"`
	Hours   float64 `json:"hours"`
	LeaveID string  `json:"leave_id"`
	Name    string  `json:"name"`
}

// IntervalDTO is one interval, written in the viewer zone.
type IntervalDTO struct {
	Start string   `json:"start"`
	End   string   `json:"end"`
	Hours float64  `json:"hours"`
	Refs  []string `json:"refs,omitempty"`
}

func toIntervalDTOs(ivs generic.Intervals, loc *time.Location) []IntervalDTO {
	dtos := make([]IntervalDTO, len(ivs))
	for i, iv := range ivs {
		dtos[i] = IntervalDTO{
			Start: iv.Start.In(loc).Format(time.RFC3339),
			End:   iv.End.In(loc).Format(time.RFC3339),
			Hours: iv.Hours().Float64(),
			Refs:  iv.Refs,
		}
	}
	return dtos
}

// AdjustmentDTO is a window snapped to working time. Missing bounds are null;
// Kind is found, start_only, end_only or not_found.
type AdjustmentDTO struct {
	Start *string `json:"start"`
	End   *string `json:"end"`
	Kind  string  `json:"kind"`
	Found bool    `json:"found"`
}

// PlanDTO is the outcome of a planning query.
type PlanDTO struct {
	Result *string `json:"result"`
	Found  bool    `json:"found"`
}

// WorkHoursDTO is a plain hour count.
type WorkHoursDTO struct {
	Hours float64 `json:"hours"`
}

func formatBound(t *time.Time, loc *time.Location) *string {
	if t == nil {
		return nil
	}
	return formatOptional(*t, loc)
}

func formatOptional(t time.Time, loc *time.Location) *string {
	if t.IsZero() {
		return nil
	}
	s := t.In(loc).Format(time.RFC3339)
	return &s
}

// =============================================================================
// SCENARIOS AND ERRORS
// =============================================================================

// ScenarioDTO describes a demo scenario.
type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// LoadScenarioRequest selects a scenario to load.
type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}

// ErrorResponse is the body of every error.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
