/*
Package generic provides the domain-agnostic primitives of the working-time engine.

PURPOSE:
  This package contains the building blocks every calendar computation is made
  of: sets of half-open time intervals, query windows, civil dates, timezone
  loading and decimal quantities of hours and days. Nothing in here knows what
  an attendance or a leave is; the calendar package assembles these pieces.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 36 hours, 4.5 days)
  - Unit: hours or days

DESIGN PRINCIPLES:
  1. Absolute instants: interval arithmetic never looks at wall clocks
  2. Precision: Uses decimal.Decimal so hour sums do not drift
  3. Immutability: every operation returns a new value

USAGE:
  hours := generic.NewAmount(36, generic.UnitHours)
  days := hours.Div(decimal.NewFromInt(8)).Round(3)

SEE ALSO:
  - interval.go: Interval set algebra
  - window.go: Query windows
  - zone.go: Timezone loading and civil dates
*/
package generic

import (
	"time"

	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit (always time-based for this system)
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const (
	UnitDays  Unit = "days"
	UnitHours Unit = "hours"
)

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

// HoursOf converts a duration into an exact decimal number of hours.
func HoursOf(d time.Duration) Amount {
	return Amount{
		Value: decimal.NewFromInt(int64(d)).Div(decimal.NewFromInt(int64(time.Hour))),
		Unit:  UnitHours,
	}
}

func (a Amount) Zero() Amount                 { return Amount{Value: decimal.Zero, Unit: a.Unit} }
func (a Amount) Add(b Amount) Amount          { return Amount{Value: a.Value.Add(b.Value), Unit: a.Unit} }
func (a Amount) Sub(b Amount) Amount          { return Amount{Value: a.Value.Sub(b.Value), Unit: a.Unit} }
func (a Amount) Round(places int32) Amount    { return Amount{Value: a.Value.Round(places), Unit: a.Unit} }
func (a Amount) IsZero() bool                 { return a.Value.IsZero() }
func (a Amount) IsPositive() bool             { return a.Value.IsPositive() }
func (a Amount) Float64() float64             { return a.Value.InexactFloat64() }

// Div divides by s. Division by zero yields zero rather than panicking.
func (a Amount) Div(s decimal.Decimal) Amount {
	if s.IsZero() {
		return a.Zero()
	}
	return Amount{Value: a.Value.Div(s), Unit: a.Unit}
}

// As relabels the amount with another unit without changing its value.
func (a Amount) As(unit Unit) Amount { return Amount{Value: a.Value, Unit: unit} }

func (a Amount) String() string { return a.Value.String() + " " + string(a.Unit) }
