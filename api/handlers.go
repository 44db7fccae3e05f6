/*
handlers.go - HTTP API handlers for the working-time engine

PURPOSE:
  Exposes calendars, resources, leaves and the calendar engine via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to the
  store and the engine.

ENDPOINTS:
  Calendars:
    GET    /api/calendars                      List calendars with attendances
    POST   /api/calendars                      Create from a calendar definition
    GET    /api/calendars/{id}                 Get one calendar
    PUT    /api/calendars/{id}                 Replace a calendar definition
    DELETE /api/calendars/{id}                 Delete (attendances and leaves too)
    GET    /api/calendars/{id}/export          Definition as JSON or YAML
    POST   /api/calendars/{id}/attendances     Add or replace an attendance
    DELETE /api/calendars/{id}/attendances/{a} Remove an attendance
    GET    /api/calendars/{id}/work-hours      Work hours of the calendar alone

  Resources:
    GET    /api/resources                      List resources
    POST   /api/resources                      Create resource
    GET    /api/resources/{id}                 Get resource
    PUT    /api/resources/{id}                 Update resource
    DELETE /api/resources/{id}                 Delete resource and personal leaves
    GET    /api/resources/{id}/...             Engine queries (see queries.go)

  Leaves:
    GET    /api/leaves                         List (calendar_id, resource_id filters)
    POST   /api/leaves                         Create leave
    GET    /api/leaves/{id}                    Get leave
    DELETE /api/leaves/{id}                    Delete leave

  Scenarios:
    GET    /api/scenarios                      List demo scenarios
    POST   /api/scenarios/load                 Load a demo scenario

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Malformed input (bad window, leave or attendance, bad JSON)
  - 404: Calendar or resource not found
  - 409: Store constraint violated
  - 422: Configuration the engine cannot work with (bad zone, no calendar)
  - 500: Internal errors

SECURITY NOTE:
  Currently NO authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - queries.go: Engine query handlers
  - scenarios.go: Demo scenario loaders
  - server.go: Router setup and middleware
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/warp/workcalendar/calendar"
	"github.com/warp/workcalendar/factory"
	"github.com/warp/workcalendar/generic"
	"github.com/warp/workcalendar/internal/logging"
	"github.com/warp/workcalendar/store/sqlite"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store   *sqlite.Store
	Engine  *calendar.Engine
	Factory *factory.CalendarFactory
	Logger  *zap.Logger

	validate *validator.Validate

	// Track currently loaded scenario
	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler with the given store.
func NewHandler(store *sqlite.Store, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{
		Store:    store,
		Engine:   calendar.NewEngine(store, logger.Named("engine")),
		Factory:  factory.NewCalendarFactory(),
		Logger:   logger,
		validate: newValidator(),
	}
}

// SaveDefinition stores a calendar with its attendances, resources and leaves.
func (h *Handler) SaveDefinition(ctx context.Context, def *factory.Definition) error {
	if err := h.Store.SaveCalendarWithAttendances(ctx, def.Calendar, def.Attendances); err != nil {
		return err
	}
	for _, res := range def.Resources {
		if err := h.Store.SaveResource(ctx, res); err != nil {
			return err
		}
	}
	for _, l := range def.Leaves {
		if err := h.Store.SaveLeave(ctx, l); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// CALENDAR HANDLERS
// =============================================================================

// ListCalendars returns all calendars.
func (h *Handler) ListCalendars(w http.ResponseWriter, r *http.Request) {
	cals, err := h.Store.ListCalendars(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list calendars", err)
		return
	}

	dtos := make([]CalendarDTO, 0, len(cals))
	for _, cal := range cals {
		dto, err := h.calendarDTO(r.Context(), cal)
		if err != nil {
			h.writeDomainError(w, r, "Failed to list calendars", err)
			return
		}
		dtos = append(dtos, dto)
	}

	writeJSON(w, http.StatusOK, dtos)
}

// GetCalendar returns a single calendar.
func (h *Handler) GetCalendar(w http.ResponseWriter, r *http.Request) {
	cal, ok := h.loadCalendar(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}
	dto, err := h.calendarDTO(r.Context(), *cal)
	if err != nil {
		h.writeDomainError(w, r, "Failed to get calendar", err)
		return
	}
	writeJSON(w, http.StatusOK, dto)
}

// CreateCalendar creates a calendar from a definition.
func (h *Handler) CreateCalendar(w http.ResponseWriter, r *http.Request) {
	var req factory.CalendarJSON
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, r, "Invalid request body", err)
		return
	}
	if req.ID != "" {
		existing, err := h.Store.GetCalendar(r.Context(), calendar.CalendarID(req.ID))
		if err != nil {
			h.writeDomainError(w, r, "Failed to create calendar", err)
			return
		}
		if existing != nil {
			writeError(w, http.StatusConflict, "Calendar already exists", nil)
			return
		}
	}
	h.storeCalendar(w, r, req, http.StatusCreated)
}

// ReplaceCalendar replaces a calendar and its attendances. Leaves and
// resources of the body are added or updated.
func (h *Handler) ReplaceCalendar(w http.ResponseWriter, r *http.Request) {
	if _, ok := h.loadCalendar(w, r, chi.URLParam(r, "id")); !ok {
		return
	}
	var req factory.CalendarJSON
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, r, "Invalid request body", err)
		return
	}
	req.ID = chi.URLParam(r, "id")
	h.storeCalendar(w, r, req, http.StatusOK)
}

func (h *Handler) storeCalendar(w http.ResponseWriter, r *http.Request, req factory.CalendarJSON, status int) {
	def, err := h.Factory.FromJSON(req)
	if err != nil {
		h.writeDomainError(w, r, "Invalid calendar", err)
		return
	}
	if err := h.SaveDefinition(r.Context(), def); err != nil {
		h.writeDomainError(w, r, "Failed to save calendar", err)
		return
	}

	logging.FromContext(r.Context(), h.Logger).Info("calendar saved",
		zap.String("calendar_id", string(def.Calendar.ID)),
		zap.Int("attendances", len(def.Attendances)),
	)

	dto, err := h.calendarDTO(r.Context(), def.Calendar)
	if err != nil {
		h.writeDomainError(w, r, "Failed to save calendar", err)
		return
	}
	writeJSON(w, status, dto)
}

// DeleteCalendar removes a calendar with its attendances and leaves.
func (h *Handler) DeleteCalendar(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.DeleteCalendar(r.Context(), calendar.CalendarID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, "Failed to delete calendar", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Calendar not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ExportCalendar returns the calendar definition, with its leaves and
// resources, as JSON (default) or YAML (?format=yaml).
func (h *Handler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cal, ok := h.loadCalendar(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	def := &factory.Definition{Calendar: *cal}
	var err error
	if def.Attendances, err = h.Store.GetAttendances(ctx, cal.ID); err != nil {
		h.writeDomainError(w, r, "Failed to export calendar", err)
		return
	}
	if def.Leaves, err = h.Store.ListLeaves(ctx, sqlite.LeaveFilter{CalendarID: cal.ID}); err != nil {
		h.writeDomainError(w, r, "Failed to export calendar", err)
		return
	}
	resources, err := h.Store.ListResources(ctx)
	if err != nil {
		h.writeDomainError(w, r, "Failed to export calendar", err)
		return
	}
	for _, res := range resources {
		if res.CalendarID == cal.ID {
			def.Resources = append(def.Resources, res)
		}
	}

	out := h.Factory.ToJSON(def)
	if r.URL.Query().Get("format") == "yaml" {
		data, err := yaml.Marshal(out)
		if err != nil {
			h.writeDomainError(w, r, "Failed to export calendar", err)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// =============================================================================
// ATTENDANCE HANDLERS
// =============================================================================

// SaveAttendance adds or replaces one attendance of a calendar. The whole
// calendar is validated with the change applied.
func (h *Handler) SaveAttendance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	cal, ok := h.loadCalendar(w, r, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	var req AttendanceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, r, "Invalid request body", err)
		return
	}
	att, err := toAttendance(req, cal.ID)
	if err != nil {
		h.writeDomainError(w, r, "Invalid attendance", err)
		return
	}

	existing, err := h.Store.GetAttendances(ctx, cal.ID)
	if err != nil {
		h.writeDomainError(w, r, "Failed to save attendance", err)
		return
	}
	next := []calendar.Attendance{att}
	for _, a := range existing {
		if a.ID != att.ID {
			next = append(next, a)
		}
	}
	if err := calendar.ValidateCalendar(*cal, next); err != nil {
		h.writeDomainError(w, r, "Invalid attendance", err)
		return
	}

	if err := h.Store.SaveAttendance(ctx, att); err != nil {
		h.writeDomainError(w, r, "Failed to save attendance", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAttendanceDTO(att))
}

// DeleteAttendance removes one attendance.
func (h *Handler) DeleteAttendance(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.DeleteAttendance(r.Context(), calendar.AttendanceID(chi.URLParam(r, "attendanceID")))
	if err != nil {
		h.writeDomainError(w, r, "Failed to delete attendance", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Attendance not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func toAttendance(req AttendanceRequest, calID calendar.CalendarID) (calendar.Attendance, error) {
	wd, err := calendar.ParseWeekday(req.Weekday)
	if err != nil {
		return calendar.Attendance{}, &generic.InputError{Field: "weekday", Reason: err.Error(), Err: generic.ErrInvalidAttendance}
	}
	a := calendar.Attendance{
		ID:         calendar.AttendanceID(req.ID),
		CalendarID: calID,
		Name:       req.Name,
		Weekday:    wd,
		HourFrom:   req.HourFrom,
		HourTo:     req.HourTo,
		DayPeriod:  calendar.DayPeriod(req.DayPeriod),
		WeekType:   calendar.WeekType(req.WeekType),
		ResourceID: calendar.ResourceID(req.ResourceID),
	}
	if a.ID == "" {
		a.ID = calendar.AttendanceID(uuid.NewString())
	}
	if a.Name == "" {
		a.Name = wd.String()
	}
	if a.WeekType == "" {
		a.WeekType = calendar.WeekEvery
	}
	if req.DateFrom != "" {
		d, err := generic.ParseDate(req.DateFrom)
		if err != nil {
			return a, &generic.InputError{Field: "date_from", Reason: err.Error(), Err: generic.ErrInvalidAttendance}
		}
		a.DateFrom = &d
	}
	if req.DateTo != "" {
		d, err := generic.ParseDate(req.DateTo)
		if err != nil {
			return a, &generic.InputError{Field: "date_to", Reason: err.Error(), Err: generic.ErrInvalidAttendance}
		}
		a.DateTo = &d
	}
	return a, calendar.ValidateAttendance(a)
}

// =============================================================================
// RESOURCE HANDLERS
// =============================================================================

// ListResources returns all resources.
func (h *Handler) ListResources(w http.ResponseWriter, r *http.Request) {
	resources, err := h.Store.ListResources(r.Context())
	if err != nil {
		h.writeDomainError(w, r, "Failed to list resources", err)
		return
	}
	dtos := make([]ResourceDTO, len(resources))
	for i, res := range resources {
		dtos[i] = toResourceDTO(res)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetResource returns a single resource.
func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	res, err := h.Store.GetResource(r.Context(), calendar.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get resource", err)
		return
	}
	if res == nil {
		writeError(w, http.StatusNotFound, "Resource not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toResourceDTO(*res))
}

// CreateResource creates a new resource.
func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req ResourceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, r, "Invalid request body", err)
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	h.storeResource(w, r, req, http.StatusCreated)
}

// UpdateResource replaces a resource.
func (h *Handler) UpdateResource(w http.ResponseWriter, r *http.Request) {
	existing, err := h.Store.GetResource(r.Context(), calendar.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, "Failed to update resource", err)
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "Resource not found", nil)
		return
	}

	var req ResourceRequest
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, r, "Invalid request body", err)
		return
	}
	req.ID = chi.URLParam(r, "id")
	h.storeResource(w, r, req, http.StatusOK)
}

func (h *Handler) storeResource(w http.ResponseWriter, r *http.Request, req ResourceRequest, status int) {
	if req.CalendarID != "" {
		if _, ok := h.loadCalendar(w, r, req.CalendarID); !ok {
			return
		}
	}

	res := calendar.Resource{
		ID:         calendar.ResourceID(req.ID),
		Name:       req.Name,
		Kind:       calendar.ResourceKind(req.Kind),
		Timezone:   req.Timezone,
		CalendarID: calendar.CalendarID(req.CalendarID),
	}
	if res.Kind == "" {
		res.Kind = calendar.KindHuman
	}
	if err := h.Store.SaveResource(r.Context(), res); err != nil {
		h.writeDomainError(w, r, "Failed to save resource", err)
		return
	}
	writeJSON(w, status, toResourceDTO(res))
}

// DeleteResource removes a resource and its personal leaves.
func (h *Handler) DeleteResource(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.DeleteResource(r.Context(), calendar.ResourceID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, "Failed to delete resource", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Resource not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// LEAVE HANDLERS
// =============================================================================

// ListLeaves returns stored leaves, optionally filtered.
func (h *Handler) ListLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	leaves, err := h.Store.ListLeaves(r.Context(), sqlite.LeaveFilter{
		CalendarID: calendar.CalendarID(q.Get("calendar_id")),
		ResourceID: calendar.ResourceID(q.Get("resource_id")),
	})
	if err != nil {
		h.writeDomainError(w, r, "Failed to list leaves", err)
		return
	}
	dtos := make([]LeaveDTO, len(leaves))
	for i, l := range leaves {
		dtos[i] = toLeaveDTO(l)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetLeave returns a single leave.
func (h *Handler) GetLeave(w http.ResponseWriter, r *http.Request) {
	l, err := h.Store.GetLeave(r.Context(), calendar.LeaveID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get leave", err)
		return
	}
	if l == nil {
		writeError(w, http.StatusNotFound, "Leave not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveDTO(*l))
}

// CreateLeave records a leave. Wall-clock bounds are read in the request
// zone, then the calendar's, then the resource's.
func (h *Handler) CreateLeave(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req LeaveRequest
	if err := h.decode(r, &req); err != nil {
		h.writeDomainError(w, r, "Invalid request body", err)
		return
	}

	zone := req.Timezone
	if req.CalendarID != "" {
		cal, ok := h.loadCalendar(w, r, req.CalendarID)
		if !ok {
			return
		}
		if zone == "" {
			zone = cal.Timezone
		}
	}
	if req.ResourceID != "" {
		res, err := h.Store.GetResource(ctx, calendar.ResourceID(req.ResourceID))
		if err != nil {
			h.writeDomainError(w, r, "Failed to create leave", err)
			return
		}
		if res == nil {
			writeError(w, http.StatusNotFound, "Resource not found", nil)
			return
		}
		if zone == "" {
			zone = res.Timezone
		}
	}

	loc, err := optionalZone(zone)
	if err != nil {
		h.writeDomainError(w, r, "Invalid timezone", err)
		return
	}
	start, err := generic.ParseInstant(req.Start, loc)
	if err != nil {
		h.writeDomainError(w, r, "Invalid start", err)
		return
	}
	end, err := generic.ParseInstant(req.End, loc)
	if err != nil {
		h.writeDomainError(w, r, "Invalid end", err)
		return
	}

	l := calendar.LeaveException{
		ID:         calendar.LeaveID(req.ID),
		CalendarID: calendar.CalendarID(req.CalendarID),
		ResourceID: calendar.ResourceID(req.ResourceID),
		Name:       req.Name,
		Start:      start,
		End:        end,
		TimeType:   calendar.TimeType(req.TimeType),
	}
	if l.ID == "" {
		l.ID = calendar.LeaveID(uuid.NewString())
	}
	if l.TimeType == "" {
		l.TimeType = calendar.TimeTypeLeave
	}
	if err := calendar.ValidateLeave(l); err != nil {
		h.writeDomainError(w, r, "Invalid leave", err)
		return
	}

	if err := h.Store.SaveLeave(ctx, l); err != nil {
		h.writeDomainError(w, r, "Failed to create leave", err)
		return
	}
	writeJSON(w, http.StatusCreated, toLeaveDTO(l))
}

// DeleteLeave removes a leave.
func (h *Handler) DeleteLeave(w http.ResponseWriter, r *http.Request) {
	ok, err := h.Store.DeleteLeave(r.Context(), calendar.LeaveID(chi.URLParam(r, "id")))
	if err != nil {
		h.writeDomainError(w, r, "Failed to delete leave", err)
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "Leave not found", nil)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetDatabase clears all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		h.writeDomainError(w, r, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

func (h *Handler) loadCalendar(w http.ResponseWriter, r *http.Request, id string) (*calendar.Calendar, bool) {
	cal, err := h.Store.GetCalendar(r.Context(), calendar.CalendarID(id))
	if err != nil {
		h.writeDomainError(w, r, "Failed to get calendar", err)
		return nil, false
	}
	if cal == nil {
		writeError(w, http.StatusNotFound, "Calendar not found", nil)
		return nil, false
	}
	return cal, true
}

func (h *Handler) calendarDTO(ctx context.Context, cal calendar.Calendar) (CalendarDTO, error) {
	atts, err := h.Store.GetAttendances(ctx, cal.ID)
	if err != nil {
		return CalendarDTO{}, err
	}
	dto := CalendarDTO{
		ID:          string(cal.ID),
		Name:        cal.Name,
		Timezone:    cal.Timezone,
		HoursPerDay: calendar.HoursPerDay(cal, atts).InexactFloat64(),
		TwoWeeks:    cal.TwoWeeks,
		Attendances: make([]AttendanceDTO, len(atts)),
	}
	for i, a := range atts {
		dto.Attendances[i] = toAttendanceDTO(a)
	}
	return dto, nil
}

// decode reads a JSON body and validates its struct tags.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &generic.InputError{Field: "body", Reason: err.Error()}
	}
	return h.check(dst)
}

func (h *Handler) check(v any) error {
	if err := h.validate.Struct(v); err != nil {
		return &generic.InputError{Field: "body", Reason: formatValidationErrors(err)}
	}
	return nil
}

func formatValidationErrors(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.ToLower(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, field+" is required")
		case "timezone":
			msgs = append(msgs, fmt.Sprintf("%s: unknown timezone %q", field, fe.Value()))
		case "oneof":
			msgs = append(msgs, fmt.Sprintf("%s must be one of %s", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%s is invalid (%s)", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, ", ")
}

// statusFor maps an error to its HTTP status. Not found wins over the
// category a wrapping ConfigError would give.
func statusFor(err error) int {
	switch {
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsClientError(err):
		return http.StatusBadRequest
	case generic.IsConfigError(err):
		return http.StatusUnprocessableEntity
	case sqlite.IsConstraintError(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeDomainError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.FromContext(r.Context(), h.Logger).Error(message, zap.Error(err))
	}
	writeError(w, status, message, err)
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

func optionalZone(name string) (*time.Location, error) {
	if name == "" {
		return nil, nil
	}
	return generic.LoadZone(name)
}
