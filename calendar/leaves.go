package calendar

import (
	"fmt"
	"sort"

	"github.com/warp/workcalendar/generic"
)

// =============================================================================
// LEAVE INTERVALS
// =============================================================================

// DefaultLeaveTypes are the time types that remove working time when a query
// does not say otherwise.
var DefaultLeaveTypes = []TimeType{TimeTypeLeave}

// SelectLeaves keeps the leaves relevant to resource on calendarID whose
// time type is one of types. Every kept leave is validated: a malformed
// record fails the whole query rather than being skipped.
func SelectLeaves(leaves []LeaveException, calendarID CalendarID, resource ResourceID, types []TimeType) ([]LeaveException, error) {
	if len(types) == 0 {
		types = DefaultLeaveTypes
	}
	var out []LeaveException
	for _, l := range leaves {
		if !l.AppliesTo(calendarID, resource) || !hasTimeType(types, l.TimeType) {
			continue
		}
		if err := ValidateLeave(l); err != nil {
			return nil, fmt.Errorf("leave %s: %w", l.ID, err)
		}
		out = append(out, l)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start) })
	return out, nil
}

// LeaveIntervals turns leaves into a normalized set clipped to w. Zero-length
// leaves vanish here.
func LeaveIntervals(leaves []LeaveException, w generic.Window) generic.Intervals {
	items := make([]generic.Interval, 0, len(leaves))
	for _, l := range leaves {
		items = append(items, l.Interval())
	}
	return generic.Clip(generic.NewIntervals(items...), w)
}

func hasTimeType(types []TimeType, t TimeType) bool {
	if t == "" {
		t = TimeTypeLeave
	}
	for _, candidate := range types {
		if candidate == t {
			return true
		}
	}
	return false
}
