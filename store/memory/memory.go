// Package memory provides an in-memory calendar.Store.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/workcalendar/calendar"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Memory struct {
	mu          sync.RWMutex
	calendars   map[calendar.CalendarID]calendar.Calendar
	attendances map[calendar.CalendarID][]calendar.Attendance
	resources   map[calendar.ResourceID]calendar.Resource
	leaves      []calendar.LeaveException // ordered by Start
}

// Compile-time check that Memory implements calendar.Store
var _ calendar.Store = (*Memory)(nil)

func New() *Memory {
	return &Memory{
		calendars:   make(map[calendar.CalendarID]calendar.Calendar),
		attendances: make(map[calendar.CalendarID][]calendar.Attendance),
		resources:   make(map[calendar.ResourceID]calendar.Resource),
	}
}

// =============================================================================
// WRITES
// =============================================================================

// PutCalendar stores cal and replaces its attendance set.
func (m *Memory) PutCalendar(cal calendar.Calendar, attendances ...calendar.Attendance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calendars[cal.ID] = cal
	owned := make([]calendar.Attendance, len(attendances))
	for i, a := range attendances {
		a.CalendarID = cal.ID
		owned[i] = a
	}
	m.attendances[cal.ID] = owned
}

// AddAttendance appends one attendance to its calendar.
func (m *Memory) AddAttendance(a calendar.Attendance) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attendances[a.CalendarID] = append(m.attendances[a.CalendarID], a)
}

func (m *Memory) PutResource(r calendar.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[r.ID] = r
}

// PutLeave inserts or replaces a leave, keeping leaves ordered by start.
func (m *Memory) PutLeave(l calendar.LeaveException) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLeaveLocked(l.ID)

	i := sort.Search(len(m.leaves), func(i int) bool {
		return m.leaves[i].Start.After(l.Start)
	})
	m.leaves = append(m.leaves, calendar.LeaveException{})
	copy(m.leaves[i+1:], m.leaves[i:])
	m.leaves[i] = l
}

func (m *Memory) DeleteLeave(id calendar.LeaveID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deleteLeaveLocked(id)
}

func (m *Memory) deleteLeaveLocked(id calendar.LeaveID) bool {
	for i, l := range m.leaves {
		if l.ID == id {
			m.leaves = append(m.leaves[:i], m.leaves[i+1:]...)
			return true
		}
	}
	return false
}

// DeleteCalendar removes the calendar with its attendances and leaves.
// Resources keep their (now dangling) reference.
func (m *Memory) DeleteCalendar(id calendar.CalendarID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.calendars[id]; !ok {
		return false
	}
	delete(m.calendars, id)
	delete(m.attendances, id)
	kept := m.leaves[:0]
	for _, l := range m.leaves {
		if l.CalendarID != id {
			kept = append(kept, l)
		}
	}
	m.leaves = kept
	return true
}

// =============================================================================
// calendar.Store
// =============================================================================

func (m *Memory) GetResource(_ context.Context, id calendar.ResourceID) (*calendar.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.resources[id]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Memory) GetCalendar(_ context.Context, id calendar.CalendarID) (*calendar.Calendar, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.calendars[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *Memory) GetAttendances(_ context.Context, calendarID calendar.CalendarID) ([]calendar.Attendance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]calendar.Attendance, len(m.attendances[calendarID]))
	copy(result, m.attendances[calendarID])
	return result, nil
}

func (m *Memory) GetLeaves(_ context.Context, calendarID calendar.CalendarID, resourceID calendar.ResourceID, from, to time.Time) ([]calendar.LeaveException, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var result []calendar.LeaveException
	for _, l := range m.leaves {
		// Ordered by start: nothing later can touch the range.
		if l.Start.After(to) {
			break
		}
		if l.End.Before(from) || !l.AppliesTo(calendarID, resourceID) {
			continue
		}
		result = append(result, l)
	}
	return result, nil
}
