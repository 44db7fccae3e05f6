/*
queries.go - Engine query handlers

PURPOSE:
  Read-only endpoints answering working-time questions about a resource
  (or a bare calendar) over a window.

ENDPOINTS:
  GET /api/resources/{id}/adjust          Snap [start, end] to working time
  GET /api/resources/{id}/work-time       Work hours per viewer date
  GET /api/resources/{id}/work-days       Work time in days and hours
  GET /api/resources/{id}/leave-days      Leave time in days and hours
  GET /api/resources/{id}/leaves          Leaves split per viewer date
  GET /api/resources/{id}/work-intervals  Effective work intervals
  GET /api/resources/{id}/unavailable     Gaps in the work intervals
  GET /api/resources/{id}/closest         Nearest attendance boundary
  GET /api/resources/{id}/plan-hours      Instant after N work hours
  GET /api/resources/{id}/plan-days       Instant ending the Nth work day
  GET /api/calendars/{id}/work-hours      Hours of the calendar alone

PARAMETERS:
  start, end   RFC3339, or wall-clock times read in tz
  tz           Zone of offset-less datetimes (defaults to the resource zone)
  viewer       Zone framing per-day results (defaults to the resource zone)
  calendar_id  Evaluate the resource against another calendar
  leave_types  Comma-separated time types removing work (default: leave)

  Planning takes from, hours or days, and compute_leaves (default true).

SEE ALSO:
  - calendar/query.go, calendar/planning.go: The operations behind these
*/
package api

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/warp/workcalendar/calendar"
	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// PARAMETER PARSING
// =============================================================================

// subjectZone returns the zone a subject's wall clocks are read in, or "" when
// it cannot be resolved. Resolution errors surface later, from the engine.
func (h *Handler) subjectZone(ctx context.Context, subj calendar.Subject) string {
	if subj.ResourceID != "" {
		res, err := h.Store.GetResource(ctx, subj.ResourceID)
		if err == nil && res != nil {
			if res.Timezone != "" {
				return res.Timezone
			}
			if subj.CalendarID == "" {
				subj.CalendarID = res.CalendarID
			}
		}
	}
	if subj.CalendarID != "" {
		cal, err := h.Store.GetCalendar(ctx, subj.CalendarID)
		if err == nil && cal != nil {
			return cal.Timezone
		}
	}
	return ""
}

func resourceSubject(r *http.Request) calendar.Subject {
	return calendar.Subject{
		ResourceID: calendar.ResourceID(chi.URLParam(r, "id")),
		CalendarID: calendar.CalendarID(r.URL.Query().Get("calendar_id")),
	}
}

// parseQuery builds an engine query from the request. The returned location
// frames the response datetimes.
func (h *Handler) parseQuery(r *http.Request, subj calendar.Subject) (calendar.Query, *time.Location, error) {
	q := r.URL.Query()
	params := WindowParams{
		Start:      q.Get("start"),
		End:        q.Get("end"),
		TZ:         q.Get("tz"),
		Viewer:     q.Get("viewer"),
		CalendarID: string(subj.CalendarID),
	}
	if lt := q.Get("leave_types"); lt != "" {
		params.LeaveTypes = strings.Split(lt, ",")
	}
	if err := h.check(&params); err != nil {
		return calendar.Query{}, nil, err
	}

	home := h.subjectZone(r.Context(), subj)
	inputZone := params.TZ
	if inputZone == "" {
		inputZone = home
	}
	loc, err := optionalZone(inputZone)
	if err != nil {
		return calendar.Query{}, nil, err
	}
	start, err := generic.ParseInstant(params.Start, loc)
	if err != nil {
		return calendar.Query{}, nil, err
	}
	end, err := generic.ParseInstant(params.End, loc)
	if err != nil {
		return calendar.Query{}, nil, err
	}

	query := calendar.Query{Subject: subj, Start: start, End: end, Viewer: params.Viewer}
	for _, t := range params.LeaveTypes {
		query.LeaveTypes = append(query.LeaveTypes, calendar.TimeType(t))
	}

	out := time.UTC
	viewer := params.Viewer
	if viewer == "" {
		viewer = home
	}
	if viewer != "" {
		if vloc, err := generic.LoadZone(viewer); err == nil {
			out = vloc
		}
	}
	return query, out, nil
}

func (h *Handler) parsePlan(r *http.Request, amountKey string) (PlanParams, time.Time, error) {
	q := r.URL.Query()
	params := PlanParams{
		From:          q.Get("from"),
		TZ:            q.Get("tz"),
		Amount:        q.Get(amountKey),
		CalendarID:    q.Get("calendar_id"),
		ComputeLeaves: q.Get("compute_leaves") != "false",
	}
	if err := h.check(&params); err != nil {
		return params, time.Time{}, err
	}

	zone := params.TZ
	if zone == "" {
		zone = h.subjectZone(r.Context(), resourceSubject(r))
	}
	loc, err := optionalZone(zone)
	if err != nil {
		return params, time.Time{}, err
	}
	from, err := generic.ParseInstant(params.From, loc)
	return params, from, err
}

// =============================================================================
// WINDOW QUERIES
// =============================================================================

// AdjustToCalendar snaps a window to the resource's working time, or to the
// calendar named by calendar_id.
func (h *Handler) AdjustToCalendar(w http.ResponseWriter, r *http.Request) {
	subj := resourceSubject(r)
	query, loc, err := h.parseQuery(r, subj)
	if err != nil {
		h.writeDomainError(w, r, "Invalid query", err)
		return
	}

	adj, err := h.Engine.AdjustToCalendar(r.Context(), subj, query.Start, query.End)
	if err != nil {
		h.writeDomainError(w, r, "Failed to adjust window", err)
		return
	}
	writeJSON(w, http.StatusOK, AdjustmentDTO{
		Start: formatBound(adj.Start, loc),
		End:   formatBound(adj.End, loc),
		Kind:  adj.Kind().String(),
		Found: adj.Found(),
	})
}

// WorkTimePerDay returns work hours per viewer date.
func (h *Handler) WorkTimePerDay(w http.ResponseWriter, r *http.Request) {
	query, _, err := h.parseQuery(r, resourceSubject(r))
	if err != nil {
		h.writeDomainError(w, r, "Invalid query", err)
		return
	}

	days, err := h.Engine.ListWorkTimePerDay(r.Context(), query)
	if err != nil {
		h.writeDomainError(w, r, "Failed to compute work time", err)
		return
	}
	dtos := []DayHoursDTO{}
	for d := range days {
		dtos = append(dtos, DayHoursDTO{Date: d.Date.String(), Hours: d.Hours.Float64()})
	}
	writeJSON(w, http.StatusOK, dtos)
}

// WorkDays returns the work time of the window in days and hours.
func (h *Handler) WorkDays(w http.ResponseWriter, r *http.Request) {
	h.durationQuery(w, r, h.Engine.WorkDaysData)
}

// LeaveDays returns the leave time of the window in days and hours.
func (h *Handler) LeaveDays(w http.ResponseWriter, r *http.Request) {
	h.durationQuery(w, r, h.Engine.LeaveDaysData)
}

func (h *Handler) durationQuery(w http.ResponseWriter, r *http.Request, op func(context.Context, calendar.Query) (calendar.Duration, error)) {
	query, _, err := h.parseQuery(r, resourceSubject(r))
	if err != nil {
		h.writeDomainError(w, r, "Invalid query", err)
		return
	}
	d, err := op(r.Context(), query)
	if err != nil {
		h.writeDomainError(w, r, "Failed to compute duration", err)
		return
	}
	writeJSON(w, http.StatusOK, toDurationDTO(d))
}

// LeavesPerDay returns the leaves of the window split per viewer date.
func (h *Handler) LeavesPerDay(w http.ResponseWriter, r *http.Request) {
	query, _, err := h.parseQuery(r, resourceSubject(r))
	if err != nil {
		h.writeDomainError(w, r, "Invalid query", err)
		return
	}

	days, err := h.Engine.ListLeaves(r.Context(), query)
	if err != nil {
		h.writeDomainError(w, r, "Failed to list leaves", err)
		return
	}
	dtos := make([]LeaveDayDTO, len(days))
	for i, d := range days {
		dtos[i] = LeaveDayDTO{
			Date:    d.Date.String(),
			Hours:   d.Hours.Float64(),
			LeaveID: string(d.Leave.ID),
			Name:    d.Leave.Name,
		}
	}
	writeJSON(w, http.StatusOK, dtos)
}

// WorkIntervals returns the effective work intervals.
func (h *Handler) WorkIntervals(w http.ResponseWriter, r *http.Request) {
	h.intervalQuery(w, r, h.Engine.WorkIntervals)
}

// UnavailableIntervals returns the gaps between work intervals.
func (h *Handler) UnavailableIntervals(w http.ResponseWriter, r *http.Request) {
	h.intervalQuery(w, r, h.Engine.UnavailableIntervals)
}

func (h *Handler) intervalQuery(w http.ResponseWriter, r *http.Request, op func(context.Context, calendar.Query) (generic.Intervals, error)) {
	query, loc, err := h.parseQuery(r, resourceSubject(r))
	if err != nil {
		h.writeDomainError(w, r, "Invalid query", err)
		return
	}
	ivs, err := op(r.Context(), query)
	if err != nil {
		h.writeDomainError(w, r, "Failed to compute intervals", err)
		return
	}
	writeJSON(w, http.StatusOK, toIntervalDTOs(ivs, loc))
}

// CalendarWorkHours counts the hours of a calendar alone, without resource.
func (h *Handler) CalendarWorkHours(w http.ResponseWriter, r *http.Request) {
	subj := calendar.Subject{CalendarID: calendar.CalendarID(chi.URLParam(r, "id"))}
	query, _, err := h.parseQuery(r, subj)
	if err != nil {
		h.writeDomainError(w, r, "Invalid query", err)
		return
	}
	computeLeaves := r.URL.Query().Get("compute_leaves") != "false"

	hours, err := h.Engine.WorkHoursCount(r.Context(), subj, query.Start, query.End, computeLeaves)
	if err != nil {
		h.writeDomainError(w, r, "Failed to count hours", err)
		return
	}
	writeJSON(w, http.StatusOK, WorkHoursDTO{Hours: hours})
}

// =============================================================================
// PLANNING
// =============================================================================

// ClosestWorkTime returns the attendance start (or end, with match_end=true)
// nearest to the given instant.
func (h *Handler) ClosestWorkTime(w http.ResponseWriter, r *http.Request) {
	subj := resourceSubject(r)
	q := r.URL.Query()
	if q.Get("at") == "" {
		writeError(w, http.StatusBadRequest, "Invalid query", &generic.InputError{Field: "at", Reason: "at is required"})
		return
	}

	zone := q.Get("tz")
	if zone == "" {
		zone = h.subjectZone(r.Context(), subj)
	}
	loc, err := optionalZone(zone)
	if err != nil {
		h.writeDomainError(w, r, "Invalid timezone", err)
		return
	}
	at, err := generic.ParseInstant(q.Get("at"), loc)
	if err != nil {
		h.writeDomainError(w, r, "Invalid query", err)
		return
	}

	got, ok, err := h.Engine.ClosestWorkTime(r.Context(), subj, at, q.Get("match_end") == "true", nil)
	if err != nil {
		h.writeDomainError(w, r, "Failed to find work time", err)
		return
	}
	h.writePlan(w, got, ok, loc)
}

// PlanHours returns the instant at which the given work hours are done.
func (h *Handler) PlanHours(w http.ResponseWriter, r *http.Request) {
	params, from, err := h.parsePlan(r, "hours")
	if err != nil {
		h.writeDomainError(w, r, "Invalid query", err)
		return
	}
	hours, err := strconv.ParseFloat(params.Amount, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid hours", err)
		return
	}

	subj := resourceSubject(r)
	got, ok, err := h.Engine.PlanHours(r.Context(), subj, hours, from, params.ComputeLeaves)
	if err != nil {
		h.writeDomainError(w, r, "Failed to plan hours", err)
		return
	}
	h.writePlan(w, got, ok, from.Location())
}

// PlanDays returns the end of the last attendance of the Nth work day.
func (h *Handler) PlanDays(w http.ResponseWriter, r *http.Request) {
	params, from, err := h.parsePlan(r, "days")
	if err != nil {
		h.writeDomainError(w, r, "Invalid query", err)
		return
	}
	days, err := strconv.Atoi(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid days: a whole number is required", err)
		return
	}

	subj := resourceSubject(r)
	got, ok, err := h.Engine.PlanDays(r.Context(), subj, days, from, params.ComputeLeaves)
	if err != nil {
		h.writeDomainError(w, r, "Failed to plan days", err)
		return
	}
	h.writePlan(w, got, ok, from.Location())
}

func (h *Handler) writePlan(w http.ResponseWriter, t time.Time, ok bool, loc *time.Location) {
	if loc == nil {
		loc = time.UTC
	}
	dto := PlanDTO{Found: ok}
	if ok {
		dto.Result = formatOptional(t, loc)
	}
	writeJSON(w, http.StatusOK, dto)
}
