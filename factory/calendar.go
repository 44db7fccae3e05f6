/*
Package factory provides JSON/YAML to Go calendar conversion.

PURPOSE:
  Converts calendar definitions (a calendar with its attendances, leaves and
  the resources working on it) into calendar package values. This enables
  schedule configuration without code changes: a seed file or an admin UI
  describes the working week, the factory creates the proper Go structs.

SCHEMA (JSON; YAML uses the same keys):
  {
    "id": "cal-brussels",
    "name": "Brussels office",
    "timezone": "Europe/Brussels",
    "hours_per_day": 8,
    "two_weeks": false,
    "attendances": [
      {"weekday": "monday", "hour_from": 8, "hour_to": 12, "day_period": "morning"},
      {"weekday": "monday", "hour_from": 13, "hour_to": 17, "day_period": "afternoon"}
    ],
    "leaves": [
      {"name": "Easter Monday", "start": "2018-04-02", "end": "2018-04-03"}
    ],
    "resources": [
      {"id": "jean", "name": "Jean", "timezone": "Europe/Brussels"}
    ]
  }

  A seed file holds several definitions under "calendars".

KEY FEATURES:
  - Leave datetimes without an offset are wall-clock times of the calendar zone
  - Missing IDs are generated (UUIDs), attendance IDs derive from the calendar
  - Everything is validated before it is returned
  - hours_per_day may be omitted; it is then derived from the attendances

USAGE:
  f := factory.NewCalendarFactory()
  def, err := f.ParseJSON(data)
  defs, err := f.LoadFile("seed.yaml")

  // From a preset
  def, err := f.FromJSON(factory.StandardWeek("cal-hq", "HQ", "Europe/Brussels"))

SEE ALSO:
  - calendar/types.go: The produced types
  - calendar/validate.go: Validation applied to every definition
  - api/scenarios.go: Demo scenarios built from presets
*/
package factory

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/warp/workcalendar/calendar"
	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// SCHEMA TYPES
// =============================================================================

// CalendarJSON is the serialized form of a calendar definition.
type CalendarJSON struct {
	ID          string           `json:"id,omitempty" yaml:"id,omitempty"`
	Name        string           `json:"name" yaml:"name"`
	Timezone    string           `json:"timezone" yaml:"timezone"`
	HoursPerDay float64          `json:"hours_per_day,omitempty" yaml:"hours_per_day,omitempty"`
	TwoWeeks    bool             `json:"two_weeks,omitempty" yaml:"two_weeks,omitempty"`
	Attendances []AttendanceJSON `json:"attendances" yaml:"attendances"`
	Leaves      []LeaveJSON      `json:"leaves,omitempty" yaml:"leaves,omitempty"`
	Resources   []ResourceJSON   `json:"resources,omitempty" yaml:"resources,omitempty"`
}

// AttendanceJSON represents one weekly working block.
type AttendanceJSON struct {
	ID         string  `json:"id,omitempty" yaml:"id,omitempty"`
	Name       string  `json:"name,omitempty" yaml:"name,omitempty"`
	Weekday    string  `json:"weekday" yaml:"weekday"` // monday..sunday
	HourFrom   float64 `json:"hour_from" yaml:"hour_from"`
	HourTo     float64 `json:"hour_to" yaml:"hour_to"`
	DayPeriod  string  `json:"day_period,omitempty" yaml:"day_period,omitempty"`
	WeekType   string  `json:"week_type,omitempty" yaml:"week_type,omitempty"` // every, even, odd
	DateFrom   string  `json:"date_from,omitempty" yaml:"date_from,omitempty"`
	DateTo     string  `json:"date_to,omitempty" yaml:"date_to,omitempty"`
	ResourceID string  `json:"resource_id,omitempty" yaml:"resource_id,omitempty"`
}

// LeaveJSON represents a leave exception.
type LeaveJSON struct {
	ID           string `json:"id,omitempty" yaml:"id,omitempty"`
	Name         string `json:"name" yaml:"name"`
	Start        string `json:"start" yaml:"start"`
	End          string `json:"end" yaml:"end"`
	ResourceID   string `json:"resource_id,omitempty" yaml:"resource_id,omitempty"`
	TimeType     string `json:"time_type,omitempty" yaml:"time_type,omitempty"`
	AllCalendars bool   `json:"all_calendars,omitempty" yaml:"all_calendars,omitempty"`
}

// ResourceJSON represents a resource working on the calendar.
type ResourceJSON struct {
	ID       string `json:"id,omitempty" yaml:"id,omitempty"`
	Name     string `json:"name" yaml:"name"`
	Kind     string `json:"kind,omitempty" yaml:"kind,omitempty"`
	Timezone string `json:"timezone,omitempty" yaml:"timezone,omitempty"`
}

// SeedJSON is the top-level document of a seed file.
type SeedJSON struct {
	Calendars []CalendarJSON `json:"calendars" yaml:"calendars"`
}

// Definition is a calendar with everything attached to it, ready to store.
type Definition struct {
	Calendar    calendar.Calendar
	Attendances []calendar.Attendance
	Leaves      []calendar.LeaveException
	Resources   []calendar.Resource
}

// =============================================================================
// CALENDAR FACTORY
// =============================================================================

// CalendarFactory converts serialized definitions to calendar values.
type CalendarFactory struct {
	newID func() string
}

// NewCalendarFactory creates a factory generating random UUIDs for missing IDs.
func NewCalendarFactory() *CalendarFactory {
	return &CalendarFactory{newID: uuid.NewString}
}

// ParseJSON parses one calendar definition.
func (f *CalendarFactory) ParseJSON(data []byte) (*Definition, error) {
	var cj CalendarJSON
	if err := json.Unmarshal(data, &cj); err != nil {
		return nil, fmt.Errorf("failed to parse calendar JSON: %w", err)
	}
	return f.FromJSON(cj)
}

// ParseYAML parses one calendar definition.
func (f *CalendarFactory) ParseYAML(data []byte) (*Definition, error) {
	var cj CalendarJSON
	if err := yaml.Unmarshal(data, &cj); err != nil {
		return nil, fmt.Errorf("failed to parse calendar YAML: %w", err)
	}
	return f.FromJSON(cj)
}

// LoadFile reads a seed file. The format follows the extension: .yaml/.yml
// or JSON otherwise.
func (f *CalendarFactory) LoadFile(path string) ([]*Definition, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed file: %w", err)
	}

	var seed SeedJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &seed)
	default:
		err = json.Unmarshal(data, &seed)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}

	defs := make([]*Definition, 0, len(seed.Calendars))
	for i, cj := range seed.Calendars {
		def, err := f.FromJSON(cj)
		if err != nil {
			return nil, fmt.Errorf("calendar #%d (%s): %w", i+1, cj.Name, err)
		}
		defs = append(defs, def)
	}
	return defs, nil
}

// FromJSON converts and validates a definition.
func (f *CalendarFactory) FromJSON(cj CalendarJSON) (*Definition, error) {
	loc, err := generic.LoadZone(cj.Timezone)
	if err != nil {
		return nil, err
	}

	cal := calendar.Calendar{
		ID:          calendar.CalendarID(cj.ID),
		Name:        cj.Name,
		Timezone:    cj.Timezone,
		HoursPerDay: cj.HoursPerDay,
		TwoWeeks:    cj.TwoWeeks,
	}
	if cal.ID == "" {
		cal.ID = calendar.CalendarID(f.newID())
	}
	def := &Definition{Calendar: cal}

	for i, aj := range cj.Attendances {
		a, err := parseAttendance(aj, cal.ID, i)
		if err != nil {
			return nil, err
		}
		def.Attendances = append(def.Attendances, a)
	}
	if err := calendar.ValidateCalendar(cal, def.Attendances); err != nil {
		return nil, err
	}

	for _, rj := range cj.Resources {
		r := calendar.Resource{
			ID:         calendar.ResourceID(rj.ID),
			Name:       rj.Name,
			Kind:       parseKind(rj.Kind),
			Timezone:   rj.Timezone,
			CalendarID: cal.ID,
		}
		if r.ID == "" {
			r.ID = calendar.ResourceID(f.newID())
		}
		if err := calendar.ValidateResource(r); err != nil {
			return nil, fmt.Errorf("resource %q: %w", rj.Name, err)
		}
		def.Resources = append(def.Resources, r)
	}

	for _, lj := range cj.Leaves {
		l, err := f.parseLeave(lj, cal.ID, loc)
		if err != nil {
			return nil, fmt.Errorf("leave %q: %w", lj.Name, err)
		}
		def.Leaves = append(def.Leaves, l)
	}

	return def, nil
}

// ToJSON converts a definition back to its serialized form. Leave instants
// are written in RFC3339 with the calendar zone offset.
func (f *CalendarFactory) ToJSON(def *Definition) CalendarJSON {
	cal := def.Calendar
	cj := CalendarJSON{
		ID:          string(cal.ID),
		Name:        cal.Name,
		Timezone:    cal.Timezone,
		HoursPerDay: cal.HoursPerDay,
		TwoWeeks:    cal.TwoWeeks,
	}
	loc, err := generic.LoadZone(cal.Timezone)
	if err != nil {
		loc = time.UTC
	}

	for _, a := range def.Attendances {
		aj := AttendanceJSON{
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
			aj.DateFrom = a.DateFrom.String()
		}
		if a.DateTo != nil {
			aj.DateTo = a.DateTo.String()
		}
		cj.Attendances = append(cj.Attendances, aj)
	}

	for _, l := range def.Leaves {
		cj.Leaves = append(cj.Leaves, LeaveJSON{
			ID:           string(l.ID),
			Name:         l.Name,
			Start:        l.Start.In(loc).Format(time.RFC3339),
			End:          l.End.In(loc).Format(time.RFC3339),
			ResourceID:   string(l.ResourceID),
			TimeType:     string(l.TimeType),
			AllCalendars: l.CalendarID == "",
		})
	}

	for _, r := range def.Resources {
		cj.Resources = append(cj.Resources, ResourceJSON{
			ID:       string(r.ID),
			Name:     r.Name,
			Kind:     string(r.Kind),
			Timezone: r.Timezone,
		})
	}

	return cj
}

// =============================================================================
// PARSING HELPERS
// =============================================================================

func parseAttendance(aj AttendanceJSON, calID calendar.CalendarID, index int) (calendar.Attendance, error) {
	wd, err := calendar.ParseWeekday(aj.Weekday)
	if err != nil {
		return calendar.Attendance{}, err
	}

	a := calendar.Attendance{
		ID:         calendar.AttendanceID(aj.ID),
		CalendarID: calID,
		Name:       aj.Name,
		Weekday:    wd,
		HourFrom:   aj.HourFrom,
		HourTo:     aj.HourTo,
		DayPeriod:  calendar.DayPeriod(aj.DayPeriod),
		WeekType:   calendar.WeekType(aj.WeekType),
		ResourceID: calendar.ResourceID(aj.ResourceID),
	}
	if a.ID == "" {
		a.ID = calendar.AttendanceID(fmt.Sprintf("%s-%d", calID, index+1))
	}
	if a.Name == "" {
		a.Name = defaultAttendanceName(wd, a.HourFrom)
	}
	if a.DayPeriod == "" {
		a.DayPeriod = calendar.PeriodMorning
		if a.HourFrom >= 12 {
			a.DayPeriod = calendar.PeriodAfternoon
		}
	}
	if a.WeekType == "" {
		a.WeekType = calendar.WeekEvery
	}

	if aj.DateFrom != "" {
		d, err := generic.ParseDate(aj.DateFrom)
		if err != nil {
			return a, fmt.Errorf("attendance %q date_from: %w", a.Name, err)
		}
		a.DateFrom = &d
	}
	if aj.DateTo != "" {
		d, err := generic.ParseDate(aj.DateTo)
		if err != nil {
			return a, fmt.Errorf("attendance %q date_to: %w", a.Name, err)
		}
		a.DateTo = &d
	}
	return a, nil
}

func defaultAttendanceName(wd calendar.Weekday, from float64) string {
	name := wd.String()
	name = strings.ToUpper(name[:1]) + name[1:]
	if from >= 12 {
		return name + " Afternoon"
	}
	return name + " Morning"
}

func (f *CalendarFactory) parseLeave(lj LeaveJSON, calID calendar.CalendarID, loc *time.Location) (calendar.LeaveException, error) {
	start, err := generic.ParseInstant(lj.Start, loc)
	if err != nil {
		return calendar.LeaveException{}, err
	}
	end, err := generic.ParseInstant(lj.End, loc)
	if err != nil {
		return calendar.LeaveException{}, err
	}

	l := calendar.LeaveException{
		ID:         calendar.LeaveID(lj.ID),
		CalendarID: calID,
		ResourceID: calendar.ResourceID(lj.ResourceID),
		Name:       lj.Name,
		Start:      start,
		End:        end,
		TimeType:   calendar.TimeType(lj.TimeType),
	}
	if lj.AllCalendars {
		l.CalendarID = ""
	}
	if l.ID == "" {
		l.ID = calendar.LeaveID(f.newID())
	}
	if l.TimeType == "" {
		l.TimeType = calendar.TimeTypeLeave
	}
	return l, calendar.ValidateLeave(l)
}

func parseKind(s string) calendar.ResourceKind {
	switch s {
	case "material":
		return calendar.KindMaterial
	default:
		return calendar.KindHuman
	}
}
