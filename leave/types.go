// Package leave implements leave allocation accounting: validation of
// allocation records, carry-forward of unused days, the leave ledger and
// expiry of allocations whose window has closed.
package leave

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/erp-engine/generic"
)

// =============================================================================
// EMPLOYEE
// =============================================================================

type Employee struct {
	ID        string
	Name      string
	Company   string
	CreatedAt time.Time
}

// =============================================================================
// LEAVE TYPE - Rules for a category of leave
// =============================================================================

// LeaveType carries the per-category limits. A zero decimal limit means
// "no limit".
type LeaveType struct {
	Name string

	IsCarryForward bool

	// Cap on what one allocation may carry over from the previous one.
	MaximumCarryForwardedLeaves decimal.Decimal

	// Cap on the total (new + carried) of a single allocation.
	MaxLeavesAllowed decimal.Decimal

	// Carried days expire this many days after the allocation starts.
	ExpireCarryForwardedLeavesAfterDays int

	IsLWP          bool // leave without pay, never allocated
	IsEarnedLeave  bool
	IsCompensatory bool
	AllowNegative  bool
	IncludeHoliday bool
}

func (lt LeaveType) hasMaxLeaves() bool {
	return lt.MaxLeavesAllowed.IsPositive()
}

func (lt LeaveType) hasCarryForwardCap() bool {
	return lt.MaximumCarryForwardedLeaves.IsPositive()
}

// =============================================================================
// ALLOCATION - Leave days granted for a window
// =============================================================================

type Allocation struct {
	Name         string
	Employee     string
	EmployeeName string
	LeaveType    string
	FromDate     generic.TimePoint
	ToDate       generic.TimePoint

	NewLeavesAllocated decimal.Decimal
	CarryForward       bool

	// Computed during validation.
	UnusedLeaves         decimal.Decimal
	TotalLeavesAllocated decimal.Decimal

	// Days the next allocation carried forward out of this one.
	CarryForwardedLeavesCount decimal.Decimal

	Expired   bool
	DocStatus generic.DocStatus
}

// Period returns the allocation window.
func (a Allocation) Period() generic.Period {
	return generic.Period{Start: a.FromDate, End: a.ToDate}
}

// =============================================================================
// APPLICATION - Request to take leave
// =============================================================================

type ApplicationStatus string

const (
	ApplicationOpen      ApplicationStatus = "Open"
	ApplicationApproved  ApplicationStatus = "Approved"
	ApplicationRejected  ApplicationStatus = "Rejected"
	ApplicationCancelled ApplicationStatus = "Cancelled"
)

type Application struct {
	Name           string
	Employee       string
	LeaveType      string
	Company        string
	FromDate       generic.TimePoint
	ToDate         generic.TimePoint
	TotalLeaveDays decimal.Decimal
	Status         ApplicationStatus
	DocStatus      generic.DocStatus
}

func (a Application) Period() generic.Period {
	return generic.Period{Start: a.FromDate, End: a.ToDate}
}

// =============================================================================
// LEDGER ENTRY - Signed movement of leave days
// =============================================================================

type TransactionType string

const (
	TxLeaveAllocation  TransactionType = "Leave Allocation"
	TxLeaveApplication TransactionType = "Leave Application"
)

// LedgerEntry is one movement of leave days over a window. Allocations
// write positive entries, applications and expiries negative ones.
type LedgerEntry struct {
	ID              string
	Employee        string
	LeaveType       string
	TransactionType TransactionType
	TransactionName string
	Leaves          decimal.Decimal
	FromDate        generic.TimePoint
	ToDate          generic.TimePoint
	IsCarryForward  bool
	IsExpired       bool
	CreatedAt       time.Time
}

func (e LedgerEntry) Period() generic.Period {
	return generic.Period{Start: e.FromDate, End: e.ToDate}
}
