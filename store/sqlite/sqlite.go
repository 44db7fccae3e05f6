/*
Package sqlite provides a SQLite-backed calendar.Store with CRUD for the
records behind it.

PURPOSE:
  Persists calendars, their attendances and leaves, and the resources that
  work on them. The engine reads through calendar.Store; the HTTP API writes
  through the Save/Delete methods below.

KEY TABLES:
  calendars:   Named schedules with zone and hours-per-day
  attendances: Recurring working blocks, owned by a calendar
  leaves:      Leave exceptions, owned by a calendar (or by none: company-wide)
  resources:   People or equipment referencing a calendar

OWNERSHIP:
  Attendances and leaves are deleted with their calendar (ON DELETE CASCADE).
  Resources are not: a resource whose calendar is gone resolves to a
  configuration error at query time, which is what the caller needs to see.

TIME STORAGE:
  Instants are stored in UTC with a fixed-width layout so that text
  comparison in SQL orders them correctly:

    2018-04-10T06:00:00.000000000Z

  Civil dates (attendance validity) are stored as 2006-01-02.

INDEXES:
  - idx_attendances_calendar: Attendance fetch per query (hot path)
  - idx_leaves_calendar_range: Leave overlap lookups (hot path)
  - idx_leaves_resource: Per-resource listings

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging) and foreign keys on:
  - Multiple readers don't block
  - Single writer at a time
  - Cascading deletes are enforced by the database

USAGE:
  store, err := sqlite.New("./data/workcal.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  engine := calendar.NewEngine(store, logger)

MIGRATION:
  Schema is auto-migrated on New(). For production, use a proper
  migration tool (golang-migrate, goose) with versioned migrations.

SEE ALSO:
  - calendar/store.go: The read interface implemented here
  - store/memory/memory.go: In-memory implementation for tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/warp/workcalendar/calendar"
	"github.com/warp/workcalendar/generic"
)

// instantLayout is fixed-width so stored instants sort as text.
const instantLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store implements calendar.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Compile-time check that Store implements calendar.Store
var _ calendar.Store = (*Store)(nil)

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// An in-memory database lives as long as its connection.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS calendars (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		timezone TEXT NOT NULL,
		hours_per_day REAL NOT NULL DEFAULT 0,
		two_weeks INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS attendances (
		id TEXT PRIMARY KEY,
		calendar_id TEXT NOT NULL REFERENCES calendars(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		weekday INTEGER NOT NULL,
		hour_from REAL NOT NULL,
		hour_to REAL NOT NULL,
		day_period TEXT NOT NULL DEFAULT '',
		week_type TEXT NOT NULL DEFAULT '',
		date_from TEXT,
		date_to TEXT,
		resource_id TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_attendances_calendar
		ON attendances(calendar_id, weekday, hour_from);

	-- calendar_id NULL: the leave applies to every calendar
	CREATE TABLE IF NOT EXISTS leaves (
		id TEXT PRIMARY KEY,
		calendar_id TEXT REFERENCES calendars(id) ON DELETE CASCADE,
		resource_id TEXT,
		name TEXT NOT NULL,
		start_at TEXT NOT NULL,
		end_at TEXT NOT NULL,
		time_type TEXT NOT NULL DEFAULT 'leave',
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_leaves_calendar_range
		ON leaves(calendar_id, start_at, end_at);
	CREATE INDEX IF NOT EXISTS idx_leaves_resource
		ON leaves(resource_id) WHERE resource_id IS NOT NULL;

	CREATE TABLE IF NOT EXISTS resources (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		kind TEXT NOT NULL DEFAULT 'human',
		timezone TEXT NOT NULL DEFAULT '',
		calendar_id TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_resources_calendar
		ON resources(calendar_id);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// CALENDARS
// =============================================================================

// SaveCalendar inserts or updates a calendar. Attendances are untouched.
func (s *Store) SaveCalendar(ctx context.Context, cal calendar.Calendar) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveCalendar(ctx, s.db, cal)
}

// SaveCalendarWithAttendances stores the calendar and replaces its attendance
// set in one transaction.
func (s *Store) SaveCalendarWithAttendances(ctx context.Context, cal calendar.Calendar, attendances []calendar.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	if err := saveCalendar(ctx, sqlTx, cal); err != nil {
		return err
	}
	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM attendances WHERE calendar_id = ?", cal.ID); err != nil {
		return fmt.Errorf("failed to clear attendances: %w", err)
	}
	for _, a := range attendances {
		a.CalendarID = cal.ID
		if err := saveAttendance(ctx, sqlTx, a); err != nil {
			return err
		}
	}
	return sqlTx.Commit()
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func saveCalendar(ctx context.Context, db execer, cal calendar.Calendar) error {
	query := `
		INSERT INTO calendars (id, name, timezone, hours_per_day, two_weeks, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			timezone = excluded.timezone,
			hours_per_day = excluded.hours_per_day,
			two_weeks = excluded.two_weeks,
			updated_at = excluded.updated_at
	`
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, query, cal.ID, cal.Name, cal.Timezone, cal.HoursPerDay, cal.TwoWeeks, now, now)
	if err != nil {
		return fmt.Errorf("failed to save calendar %s: %w", cal.ID, err)
	}
	return nil
}

// GetCalendar retrieves a calendar by ID. Returns (nil, nil) when missing.
func (s *Store) GetCalendar(ctx context.Context, id calendar.CalendarID) (*calendar.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c calendar.Calendar
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, timezone, hours_per_day, two_weeks FROM calendars WHERE id = ?",
		id,
	).Scan(&c.ID, &c.Name, &c.Timezone, &c.HoursPerDay, &c.TwoWeeks)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCalendars returns all calendars ordered by name.
func (s *Store) ListCalendars(ctx context.Context) ([]calendar.Calendar, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, timezone, hours_per_day, two_weeks FROM calendars ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var calendars []calendar.Calendar
	for rows.Next() {
		var c calendar.Calendar
		if err := rows.Scan(&c.ID, &c.Name, &c.Timezone, &c.HoursPerDay, &c.TwoWeeks); err != nil {
			return nil, err
		}
		calendars = append(calendars, c)
	}
	return calendars, rows.Err()
}

// DeleteCalendar removes a calendar with its attendances and leaves.
// Returns false when nothing was deleted.
func (s *Store) DeleteCalendar(ctx context.Context, id calendar.CalendarID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleted(s.db.ExecContext(ctx, "DELETE FROM calendars WHERE id = ?", id))
}

// =============================================================================
// ATTENDANCES
// =============================================================================

// SaveAttendance inserts or updates one attendance. Its calendar must exist.
func (s *Store) SaveAttendance(ctx context.Context, a calendar.Attendance) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveAttendance(ctx, s.db, a)
}

func saveAttendance(ctx context.Context, db execer, a calendar.Attendance) error {
	query := `
		INSERT INTO attendances
			(id, calendar_id, name, weekday, hour_from, hour_to, day_period, week_type, date_from, date_to, resource_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			calendar_id = excluded.calendar_id,
			name = excluded.name,
			weekday = excluded.weekday,
			hour_from = excluded.hour_from,
			hour_to = excluded.hour_to,
			day_period = excluded.day_period,
			week_type = excluded.week_type,
			date_from = excluded.date_from,
			date_to = excluded.date_to,
			resource_id = excluded.resource_id
	`
	_, err := db.ExecContext(ctx, query,
		a.ID, a.CalendarID, a.Name, int(a.Weekday), a.HourFrom, a.HourTo,
		string(a.DayPeriod), string(a.WeekType),
		nullDate(a.DateFrom), nullDate(a.DateTo),
		nullString(string(a.ResourceID)),
	)
	if err != nil {
		return fmt.Errorf("failed to save attendance %s: %w", a.ID, err)
	}
	return nil
}

// GetAttendances returns every attendance of the calendar, ordered by
// weekday and start hour.
func (s *Store) GetAttendances(ctx context.Context, calendarID calendar.CalendarID) ([]calendar.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, calendar_id, name, weekday, hour_from, hour_to, day_period, week_type, date_from, date_to, resource_id
		FROM attendances
		WHERE calendar_id = ?
		ORDER BY weekday, hour_from, id
	`, calendarID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var attendances []calendar.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, err
		}
		attendances = append(attendances, a)
	}
	return attendances, rows.Err()
}

func scanAttendance(rows *sql.Rows) (calendar.Attendance, error) {
	var (
		a                          calendar.Attendance
		weekday                    int
		dayPeriod, weekType        string
		dateFrom, dateTo, resource sql.NullString
	)
	err := rows.Scan(&a.ID, &a.CalendarID, &a.Name, &weekday, &a.HourFrom, &a.HourTo,
		&dayPeriod, &weekType, &dateFrom, &dateTo, &resource)
	if err != nil {
		return a, fmt.Errorf("failed to scan attendance: %w", err)
	}
	a.Weekday = calendar.Weekday(weekday)
	a.DayPeriod = calendar.DayPeriod(dayPeriod)
	a.WeekType = calendar.WeekType(weekType)
	a.ResourceID = calendar.ResourceID(resource.String)
	if a.DateFrom, err = parseNullDate(dateFrom); err != nil {
		return a, err
	}
	if a.DateTo, err = parseNullDate(dateTo); err != nil {
		return a, err
	}
	return a, nil
}

// DeleteAttendance removes one attendance.
func (s *Store) DeleteAttendance(ctx context.Context, id calendar.AttendanceID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleted(s.db.ExecContext(ctx, "DELETE FROM attendances WHERE id = ?", id))
}

// =============================================================================
// LEAVES
// =============================================================================

// SaveLeave inserts or updates a leave exception.
func (s *Store) SaveLeave(ctx context.Context, l calendar.LeaveException) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	timeType := l.TimeType
	if timeType == "" {
		timeType = calendar.TimeTypeLeave
	}
	query := `
		INSERT INTO leaves (id, calendar_id, resource_id, name, start_at, end_at, time_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			calendar_id = excluded.calendar_id,
			resource_id = excluded.resource_id,
			name = excluded.name,
			start_at = excluded.start_at,
			end_at = excluded.end_at,
			time_type = excluded.time_type
	`
	_, err := s.db.ExecContext(ctx, query,
		l.ID, nullString(string(l.CalendarID)), nullString(string(l.ResourceID)), l.Name,
		formatInstant(l.Start), formatInstant(l.End), string(timeType),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save leave %s: %w", l.ID, err)
	}
	return nil
}

// GetLeave retrieves a leave by ID. Returns (nil, nil) when missing.
func (s *Store) GetLeave(ctx context.Context, id calendar.LeaveID) (*calendar.LeaveException, error) {
	leaves, err := s.queryLeaves(ctx, "SELECT "+leaveColumns+" FROM leaves WHERE id = ?", id)
	if err != nil || len(leaves) == 0 {
		return nil, err
	}
	return &leaves[0], nil
}

// GetLeaves returns leaves of the calendar (plus calendar-less ones) for the
// resource (plus global ones) touching [from, to], ordered by start.
func (s *Store) GetLeaves(ctx context.Context, calendarID calendar.CalendarID, resourceID calendar.ResourceID, from, to time.Time) ([]calendar.LeaveException, error) {
	query := `
		SELECT ` + leaveColumns + `
		FROM leaves
		WHERE (calendar_id = ? OR calendar_id IS NULL)
		  AND (resource_id IS NULL OR resource_id = ?)
		  AND start_at <= ?
		  AND end_at >= ?
		ORDER BY start_at, id
	`
	return s.queryLeaves(ctx, query, calendarID, nullString(string(resourceID)), formatInstant(to), formatInstant(from))
}

// LeaveFilter narrows ListLeaves. Empty fields match everything.
type LeaveFilter struct {
	CalendarID calendar.CalendarID
	ResourceID calendar.ResourceID
}

// ListLeaves returns stored leaves ordered by start.
func (s *Store) ListLeaves(ctx context.Context, f LeaveFilter) ([]calendar.LeaveException, error) {
	query := `
		SELECT ` + leaveColumns + `
		FROM leaves
		WHERE (? = '' OR calendar_id = ?)
		  AND (? = '' OR resource_id = ?)
		ORDER BY start_at, id
	`
	return s.queryLeaves(ctx, query, f.CalendarID, f.CalendarID, f.ResourceID, f.ResourceID)
}

// DeleteLeave removes one leave.
func (s *Store) DeleteLeave(ctx context.Context, id calendar.LeaveID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return deleted(s.db.ExecContext(ctx, "DELETE FROM leaves WHERE id = ?", id))
}

const leaveColumns = "id, calendar_id, resource_id, name, start_at, end_at, time_type"

func (s *Store) queryLeaves(ctx context.Context, query string, args ...any) ([]calendar.LeaveException, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var leaves []calendar.LeaveException
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		leaves = append(leaves, l)
	}
	return leaves, rows.Err()
}

func scanLeave(rows *sql.Rows) (calendar.LeaveException, error) {
	var (
		l                calendar.LeaveException
		cal, resource    sql.NullString
		start, end, kind string
	)
	if err := rows.Scan(&l.ID, &cal, &resource, &l.Name, &start, &end, &kind); err != nil {
		return l, fmt.Errorf("failed to scan leave: %w", err)
	}
	l.CalendarID = calendar.CalendarID(cal.String)
	l.ResourceID = calendar.ResourceID(resource.String)
	l.TimeType = calendar.TimeType(kind)

	var err error
	if l.Start, err = time.Parse(time.RFC3339Nano, start); err != nil {
		return l, fmt.Errorf("leave %s start: %w", l.ID, err)
	}
	if l.End, err = time.Parse(time.RFC3339Nano, end); err != nil {
		return l, fmt.Errorf("leave %s end: %w", l.ID, err)
	}
	return l, nil
}

// =============================================================================
// RESOURCES
// =============================================================================

// SaveResource inserts or updates a resource.
func (s *Store) SaveResource(ctx context.Context, r calendar.Resource) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	kind := r.Kind
	if kind == "" {
		kind = calendar.KindHuman
	}
	query := `
		INSERT INTO resources (id, name, kind, timezone, calendar_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			kind = excluded.kind,
			timezone = excluded.timezone,
			calendar_id = excluded.calendar_id
	`
	_, err := s.db.ExecContext(ctx, query,
		r.ID, r.Name, string(kind), r.Timezone, nullString(string(r.CalendarID)),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to save resource %s: %w", r.ID, err)
	}
	return nil
}

// GetResource retrieves a resource by ID. Returns (nil, nil) when missing.
func (s *Store) GetResource(ctx context.Context, id calendar.ResourceID) (*calendar.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		r    calendar.Resource
		kind string
		cal  sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT id, name, kind, timezone, calendar_id FROM resources WHERE id = ?",
		id,
	).Scan(&r.ID, &r.Name, &kind, &r.Timezone, &cal)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	r.Kind = calendar.ResourceKind(kind)
	r.CalendarID = calendar.CalendarID(cal.String)
	return &r, nil
}

// ListResources returns all resources ordered by name.
func (s *Store) ListResources(ctx context.Context) ([]calendar.Resource, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		"SELECT id, name, kind, timezone, calendar_id FROM resources ORDER BY name, id",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var resources []calendar.Resource
	for rows.Next() {
		var (
			r    calendar.Resource
			kind string
			cal  sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Name, &kind, &r.Timezone, &cal); err != nil {
			return nil, err
		}
		r.Kind = calendar.ResourceKind(kind)
		r.CalendarID = calendar.CalendarID(cal.String)
		resources = append(resources, r)
	}
	return resources, rows.Err()
}

// DeleteResource removes a resource and its personal leaves.
func (s *Store) DeleteResource(ctx context.Context, id calendar.ResourceID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer sqlTx.Rollback()

	if _, err := sqlTx.ExecContext(ctx, "DELETE FROM leaves WHERE resource_id = ?", id); err != nil {
		return false, err
	}
	ok, err := deleted(sqlTx.ExecContext(ctx, "DELETE FROM resources WHERE id = ?", id))
	if err != nil {
		return false, err
	}
	return ok, sqlTx.Commit()
}

// =============================================================================
// RESET
// =============================================================================

// Reset deletes every record. Used when loading demo scenarios.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, table := range []string{"leaves", "attendances", "resources", "calendars"} {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to reset %s: %w", table, err)
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func formatInstant(t time.Time) string {
	return t.UTC().Format(instantLayout)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullDate(d *generic.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func parseNullDate(s sql.NullString) (*generic.Date, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	d, err := generic.ParseDate(s.String)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func deleted(res sql.Result, err error) (bool, error) {
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// IsConstraintError reports whether err comes from a violated constraint,
// typically an attendance or leave pointing to a missing calendar.
func IsConstraintError(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint
}
