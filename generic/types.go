/*
Package generic provides the shared building blocks of the engine.

PURPOSE:
  Domain-agnostic types used by both the leave and the sales packages:
  decimal quantities, day-granularity dates, inclusive periods and the
  document lifecycle every record goes through.

KEY CONCEPTS IN THIS FILE (types.go):
  - Amount: A quantity with a unit (e.g., 5 days)
  - DocStatus: Draft -> Submitted -> Cancelled lifecycle of a record

DESIGN PRINCIPLES:
  1. Precision: Uses decimal.Decimal to avoid floating-point errors
  2. Type Safety: Units travel with values
  3. Explicit lifecycle: Only submitted records affect balances and reports

USAGE:
  days := generic.NewAmount(15, generic.UnitDays)

SEE ALSO:
  - time.go: TimePoint and holiday calendar
  - period.go: Inclusive date ranges
  - errors.go: Sentinel errors
*/
package generic

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// AMOUNT - Quantity with unit
// =============================================================================

type Amount struct {
	Value decimal.Decimal
	Unit  Unit
}

type Unit string

const UnitDays Unit = "days"

func NewAmount(value float64, unit Unit) Amount {
	return Amount{Value: decimal.NewFromFloat(value), Unit: unit}
}

func (a Amount) IsZero() bool { return a.Value.IsZero() }

// =============================================================================
// DOC STATUS - Lifecycle of a persisted record
// =============================================================================

// DocStatus mirrors the three states a business record moves through.
// Only submitted records count towards balances, overlaps and reports.
type DocStatus int

const (
	DocDraft     DocStatus = 0
	DocSubmitted DocStatus = 1
	DocCancelled DocStatus = 2
)

func (s DocStatus) String() string {
	switch s {
	case DocDraft:
		return "draft"
	case DocSubmitted:
		return "submitted"
	case DocCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

func (s DocStatus) IsSubmitted() bool { return s == DocSubmitted }
