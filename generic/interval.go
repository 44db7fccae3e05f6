/*
interval.go - Ordered sets of half-open time intervals

PURPOSE:
  Every working-time question reduces to set algebra on time ranges:
  attendances minus leaves, leaves intersected with attendances, work time
  clipped to a query window. Intervals is the normalized representation those
  operations work on.

NORMAL FORM:
  An Intervals value is always:
  - sorted ascending by Start
  - made of non-empty items (Start < End)
  - disjoint AND non-touching: [8h, 12h) and [12h, 16h) coalesce into [8h, 16h)

  Zero-length or inverted items are dropped on normalization. They contribute
  no duration and are never an error.

ATTRIBUTION:
  Each Interval carries Refs, the identifiers of the records it came from
  (attendance IDs, leave IDs). Union merges refs of coalesced items.
  Intersect and Subtract keep the refs of the LEFT operand, so
  "leaves ∩ attendances" still points back at the leaves.

INSTANTS:
  Comparisons use time.Time.Before/After, i.e. absolute instants. Locations
  attached to the inputs are irrelevant to the result; callers convert to a
  wall clock only when reporting.

SEE ALSO:
  - window.go: Window, the [start, end) query range
  - calendar/engine.go: Builds attendance and leave sets
*/
package generic

import (
	"sort"
	"time"
)

// =============================================================================
// INTERVAL
// =============================================================================

// Interval is a half-open range [Start, End).
type Interval struct {
	Start time.Time
	End   time.Time
	Refs  []string
}

func NewInterval(start, end time.Time, refs ...string) Interval {
	return Interval{Start: start, End: end, Refs: refs}
}

func (iv Interval) IsEmpty() bool  { return !iv.Start.Before(iv.End) }
func (iv Interval) Hours() Amount  { return HoursOf(iv.Duration()) }
func (iv Interval) Window() Window { return Window{Start: iv.Start, End: iv.End} }

func (iv Interval) Duration() time.Duration {
	if iv.IsEmpty() {
		return 0
	}
	return iv.End.Sub(iv.Start)
}

// Contains reports whether t lies in [Start, End).
func (iv Interval) Contains(t time.Time) bool {
	return !t.Before(iv.Start) && t.Before(iv.End)
}

// In returns a copy expressed in loc. The instants are unchanged.
func (iv Interval) In(loc *time.Location) Interval {
	return Interval{Start: iv.Start.In(loc), End: iv.End.In(loc), Refs: iv.Refs}
}

// =============================================================================
// INTERVALS - Normalized set
// =============================================================================

type Intervals []Interval

// NewIntervals normalizes items into a sorted set of disjoint, non-touching,
// non-empty intervals.
func NewIntervals(items ...Interval) Intervals {
	kept := make([]Interval, 0, len(items))
	for _, it := range items {
		if !it.IsEmpty() {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return Intervals{}
	}

	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Start.Before(kept[j].Start)
	})

	result := make(Intervals, 0, len(kept))
	current := Interval{Start: kept[0].Start, End: kept[0].End, Refs: mergeRefs(nil, kept[0].Refs)}
	for _, it := range kept[1:] {
		// Touching items (it.Start == current.End) coalesce.
		if !it.Start.After(current.End) {
			if it.End.After(current.End) {
				current.End = it.End
			}
			current.Refs = mergeRefs(current.Refs, it.Refs)
			continue
		}
		result = append(result, current)
		current = Interval{Start: it.Start, End: it.End, Refs: mergeRefs(nil, it.Refs)}
	}
	return append(result, current)
}

// Union merges a and b. Inputs need not be normalized.
func Union(a, b Intervals) Intervals {
	all := make([]Interval, 0, len(a)+len(b))
	all = append(all, a...)
	all = append(all, b...)
	return NewIntervals(all...)
}

// Intersect returns the time covered by both a and b, attributed to a.
// Only strictly positive overlaps are kept.
func Intersect(a, b Intervals) Intervals {
	a, b = NewIntervals(a...), NewIntervals(b...)
	result := Intervals{}
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		lo := latest(a[i].Start, b[j].Start)
		hi := earliest(a[i].End, b[j].End)
		if lo.Before(hi) {
			result = append(result, Interval{Start: lo, End: hi, Refs: a[i].Refs})
		}
		if a[i].End.Before(b[j].End) {
			i++
		} else {
			j++
		}
	}
	return result
}

// Subtract removes from a every instant covered by b. An interval of a that
// strictly contains an interval of b is split in two.
func Subtract(a, b Intervals) Intervals {
	a, b = NewIntervals(a...), NewIntervals(b...)
	result := Intervals{}
	j := 0
	for _, x := range a {
		// b is sorted and disjoint, so ends are sorted too.
		for j < len(b) && !b[j].End.After(x.Start) {
			j++
		}
		cursor := x.Start
		for k := j; k < len(b) && b[k].Start.Before(x.End); k++ {
			if b[k].Start.After(cursor) {
				result = append(result, Interval{Start: cursor, End: b[k].Start, Refs: x.Refs})
			}
			if b[k].End.After(cursor) {
				cursor = b[k].End
			}
			if !cursor.Before(x.End) {
				break
			}
		}
		if cursor.Before(x.End) {
			result = append(result, Interval{Start: cursor, End: x.End, Refs: x.Refs})
		}
	}
	return result
}

// Clip restricts a to w.
func Clip(a Intervals, w Window) Intervals {
	return Intersect(a, Intervals{{Start: w.Start, End: w.End}})
}

// Complement returns the gaps of a inside w.
func Complement(a Intervals, w Window) Intervals {
	return Subtract(Intervals{{Start: w.Start, End: w.End}}, a)
}

// =============================================================================
// AGGREGATES
// =============================================================================

func (s Intervals) Duration() time.Duration {
	var total time.Duration
	for _, iv := range s {
		total += iv.Duration()
	}
	return total
}

func (s Intervals) Hours() Amount { return HoursOf(s.Duration()) }

func (s Intervals) IsEmpty() bool { return len(s) == 0 }

// Contains reports whether t falls inside one of the intervals.
func (s Intervals) Contains(t time.Time) bool {
	i := sort.Search(len(s), func(i int) bool { return s[i].End.After(t) })
	return i < len(s) && s[i].Contains(t)
}

// Equal compares boundaries only; refs and locations are ignored.
func (s Intervals) Equal(other Intervals) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if !s[i].Start.Equal(other[i].Start) || !s[i].End.Equal(other[i].End) {
			return false
		}
	}
	return true
}

// UTC returns the set with every boundary expressed in UTC.
func (s Intervals) UTC() Intervals {
	out := make(Intervals, len(s))
	for i, iv := range s {
		out[i] = iv.In(time.UTC)
	}
	return out
}

// SplitByDay cuts every interval at local midnights of loc and groups the
// pieces by their local date.
func (s Intervals) SplitByDay(loc *time.Location) []DayIntervals {
	var out []DayIntervals
	for _, iv := range s {
		start := iv.Start.In(loc)
		for start.Before(iv.End) {
			day := DateOf(start)
			next := day.Next().Midnight(loc)
			end := earliest(next, iv.End.In(loc))
			piece := Interval{Start: start, End: end, Refs: iv.Refs}
			if n := len(out); n > 0 && out[n-1].Date == day {
				out[n-1].Intervals = append(out[n-1].Intervals, piece)
			} else {
				out = append(out, DayIntervals{Date: day, Intervals: Intervals{piece}})
			}
			start = end
		}
	}
	return out
}

// DayIntervals are the pieces of a set falling on one local date.
type DayIntervals struct {
	Date      Date
	Intervals Intervals
}

// =============================================================================
// HELPERS
// =============================================================================

func mergeRefs(into, from []string) []string {
	for _, r := range from {
		found := false
		for _, existing := range into {
			if existing == r {
				found = true
				break
			}
		}
		if !found {
			into = append(into, r)
		}
	}
	return into
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func earliest(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
