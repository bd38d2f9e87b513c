/*
allocation.go - Leave allocation validation and lifecycle

PURPOSE:
  An allocation grants an employee leave days of one type for a window.
  This file holds the rules every allocation must satisfy and the
  draft -> submitted -> cancelled lifecycle that writes and removes its
  ledger entries.

VALIDATION ORDER:
  1. Period:      to date strictly after from date
  2. Overlap:     no other submitted allocation of the same employee/type
                  shares a day with this window
  3. Back-dated:  no submitted carry-forward allocation starts after this one
  4. Totals:      unused = carried days (capped), total = unused + new,
                  total capped at the leave type maximum
  5. Over-period: total cannot exceed days in the window
  6. LWP:         leave without pay is never allocated
  7. Max allowed: new leaves cannot exceed the leave type maximum

LIFECYCLE:
  Submit:            validate, persist, write ledger entries, expire the
                     previous allocation when carrying forward
  UpdateAfterSubmit: change new leaves, guard against approved applications,
                     write the difference to the ledger
  Cancel:            delete the allocation's ledger entries

SEE ALSO:
  - ledger.go: entry construction, unused leaves and expiry
  - application.go: approved leave days used by UpdateAfterSubmit
*/
package leave

import (
	"context"

	"github.com/shopspring/decimal"
	"github.com/warp/erp-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks a against the allocation rules and fills its computed
// fields (UnusedLeaves, TotalLeavesAllocated, EmployeeName).
func (s *Service) Validate(ctx context.Context, a *Allocation) error {
	return s.validate(ctx, s.store, a)
}

func (s *Service) validate(ctx context.Context, st Store, a *Allocation) error {
	if err := validatePeriod(a); err != nil {
		return err
	}

	emp, err := s.employee(ctx, st, a.Employee)
	if err != nil {
		return err
	}
	lt, err := s.leaveType(ctx, st, a.LeaveType)
	if err != nil {
		return err
	}

	allocations, err := st.ListAllocations(ctx, a.Employee, a.LeaveType)
	if err != nil {
		return err
	}

	if err := validateOverlap(a, allocations); err != nil {
		return err
	}
	if err := validateBackDated(a, allocations); err != nil {
		return err
	}
	if err := s.setTotalLeavesAllocated(ctx, st, a, lt, allocations); err != nil {
		return err
	}
	if err := validateTotalLeavesAllocated(a); err != nil {
		return err
	}
	if lt.IsLWP {
		return validationErrorf(ErrLeaveWithoutPay,
			"Leave Type %s cannot be allocated since it is leave without pay", lt.Name)
	}
	if lt.hasMaxLeaves() && a.NewLeavesAllocated.GreaterThan(lt.MaxLeavesAllowed) {
		return validationErrorf(ErrMaxAllowed,
			"Total allocated leaves are more than maximum allocation allowed for %s leave type",
			lt.Name)
	}

	if a.EmployeeName == "" {
		a.EmployeeName = emp.Name
	}
	return nil
}

func validatePeriod(a *Allocation) error {
	if err := a.Period().Validate(); err != nil {
		return &ValidationError{Kind: err, Message: "To date cannot be before from date"}
	}
	return nil
}

func validateOverlap(a *Allocation, existing []Allocation) error {
	for _, other := range existing {
		if other.Name == a.Name || !other.DocStatus.IsSubmitted() {
			continue
		}
		if other.Period().Overlaps(a.Period()) {
			return &ValidationError{
				Kind: ErrOverlap,
				Message: "Employee " + a.Employee + " already allocated for " + a.LeaveType +
					" for period " + other.Period().String(),
				Ref: other.Name,
			}
		}
	}
	return nil
}

func validateBackDated(a *Allocation, existing []Allocation) error {
	for _, other := range existing {
		if other.Name == a.Name || !other.DocStatus.IsSubmitted() || !other.CarryForward {
			continue
		}
		if other.FromDate.After(a.ToDate) {
			return &ValidationError{
				Kind: ErrBackDated,
				Message: "Leave cannot be allocated before " + other.FromDate.String() +
					", as leave balance has already been carry-forwarded in the future leave allocation record",
				Ref: other.Name,
			}
		}
	}
	return nil
}

func (s *Service) setTotalLeavesAllocated(ctx context.Context, st Store, a *Allocation, lt LeaveType, existing []Allocation) error {
	unused, err := s.carryForwardedLeaves(ctx, st, a.Employee, lt, a.FromDate, a.CarryForward, existing)
	if err != nil {
		return err
	}

	a.UnusedLeaves = unused
	a.TotalLeavesAllocated = unused.Add(a.NewLeavesAllocated)

	if lt.hasMaxLeaves() && a.TotalLeavesAllocated.GreaterThan(lt.MaxLeavesAllowed) {
		a.TotalLeavesAllocated = lt.MaxLeavesAllowed
		a.UnusedLeaves = decimal.Max(lt.MaxLeavesAllowed.Sub(a.NewLeavesAllocated), decimal.Zero)
	}

	if a.TotalLeavesAllocated.IsZero() && !lt.IsEarnedLeave && !lt.IsCompensatory {
		return validationErrorf(ErrTotalMandatory,
			"Total leaves allocated is mandatory for Leave Type %s", lt.Name)
	}
	return nil
}

func validateTotalLeavesAllocated(a *Allocation) error {
	days := decimal.NewFromInt(int64(a.Period().DaysInclusive()))
	if days.LessThan(a.TotalLeavesAllocated) {
		return validationErrorf(ErrOverAllocation, "Total allocated leaves are more than days in the period")
	}
	return nil
}

// =============================================================================
// CARRY FORWARD
// =============================================================================

// CarryForwardedLeaves returns the days an allocation starting on date may
// carry over from the employee's previous allocation of the leave type.
func (s *Service) CarryForwardedLeaves(ctx context.Context, employee, leaveType string, date generic.TimePoint, carryForward bool) (decimal.Decimal, error) {
	lt, err := s.leaveType(ctx, s.store, leaveType)
	if err != nil {
		return decimal.Zero, err
	}
	allocations, err := s.store.ListAllocations(ctx, employee, leaveType)
	if err != nil {
		return decimal.Zero, err
	}
	return s.carryForwardedLeaves(ctx, s.store, employee, lt, date, carryForward, allocations)
}

func (s *Service) carryForwardedLeaves(ctx context.Context, st Store, employee string, lt LeaveType, date generic.TimePoint, carryForward bool, existing []Allocation) (decimal.Decimal, error) {
	if !carryForward {
		return decimal.Zero, nil
	}
	prev := previousAllocation(existing, date)
	if prev == nil {
		return decimal.Zero, nil
	}
	if !lt.IsCarryForward {
		return decimal.Zero, validationErrorf(ErrNotCarryForward,
			"Leave Type %s cannot be carry-forwarded", lt.Name)
	}

	unused, err := s.unusedLeaves(ctx, st, employee, lt.Name, prev.Period())
	if err != nil {
		return decimal.Zero, err
	}
	if !unused.IsPositive() {
		return decimal.Zero, nil
	}
	if lt.hasCarryForwardCap() && unused.GreaterThan(lt.MaximumCarryForwardedLeaves) {
		unused = lt.MaximumCarryForwardedLeaves
	}
	return unused, nil
}

// previousAllocation is the latest submitted allocation that ended before date.
func previousAllocation(existing []Allocation, date generic.TimePoint) *Allocation {
	var prev *Allocation
	for i := range existing {
		a := existing[i]
		if !a.DocStatus.IsSubmitted() || !a.ToDate.Before(date) {
			continue
		}
		if prev == nil || a.ToDate.After(prev.ToDate) {
			prev = &existing[i]
		}
	}
	return prev
}

// =============================================================================
// LIFECYCLE
// =============================================================================

// Save validates and stores a. A draft stays a draft; an allocation saved
// with DocSubmitted goes through the full submit path.
func (s *Service) Save(ctx context.Context, a *Allocation) error {
	if a.Name == "" {
		a.Name = newName("HR-LAL")
	}
	switch a.DocStatus {
	case generic.DocSubmitted:
		a.DocStatus = generic.DocDraft
		return s.Submit(ctx, a)
	case generic.DocDraft:
	default:
		return &generic.DocStatusError{Kind: "leave allocation", Name: a.Name, Current: a.DocStatus, Operation: "save"}
	}

	return s.store.WithTx(ctx, func(st Store) error {
		if err := s.ensureDraft(ctx, st, a.Name, "save"); err != nil {
			return err
		}
		if err := s.validate(ctx, st, a); err != nil {
			return err
		}
		return st.SaveAllocation(ctx, *a)
	})
}

// Submit validates a draft allocation, persists it as submitted and writes
// its ledger entries.
func (s *Service) Submit(ctx context.Context, a *Allocation) error {
	if a.Name == "" {
		a.Name = newName("HR-LAL")
	}
	if a.DocStatus != generic.DocDraft {
		return &generic.DocStatusError{Kind: "leave allocation", Name: a.Name, Current: a.DocStatus, Operation: "submit"}
	}

	err := s.store.WithTx(ctx, func(st Store) error {
		if err := s.ensureDraft(ctx, st, a.Name, "submit"); err != nil {
			return err
		}
		if err := s.validate(ctx, st, a); err != nil {
			return err
		}
		lt, err := s.leaveType(ctx, st, a.LeaveType)
		if err != nil {
			return err
		}

		submitted := *a
		submitted.DocStatus = generic.DocSubmitted
		if err := st.SaveAllocation(ctx, submitted); err != nil {
			return err
		}
		if err := st.AppendLedgerEntries(ctx, s.allocationLedgerEntries(submitted, lt)); err != nil {
			return err
		}

		if submitted.CarryForward {
			existing, err := st.ListAllocations(ctx, a.Employee, a.LeaveType)
			if err != nil {
				return err
			}
			if prev := previousAllocation(existing, a.FromDate); prev != nil {
				prev.CarryForwardedLeavesCount = submitted.UnusedLeaves
				if _, err := s.expireAllocation(ctx, st, *prev); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	a.DocStatus = generic.DocSubmitted
	s.log.Info("leave allocation submitted",
		zap.String("allocation", a.Name),
		zap.String("employee", a.Employee),
		zap.String("leave_type", a.LeaveType),
		zap.String("new_leaves", a.NewLeavesAllocated.String()),
		zap.String("unused_leaves", a.UnusedLeaves.String()),
		zap.String("total", a.TotalLeavesAllocated.String()))
	return nil
}

func (s *Service) ensureDraft(ctx context.Context, st Store, name, op string) error {
	stored, err := st.GetAllocation(ctx, name)
	if err != nil {
		return err
	}
	if stored != nil && stored.DocStatus != generic.DocDraft {
		return &generic.DocStatusError{Kind: "leave allocation", Name: name, Current: stored.DocStatus, Operation: op}
	}
	return nil
}

// UpdateAfterSubmit changes the new leaves of a submitted allocation. The
// difference against what the ledger already holds is written as a new
// entry; totals below already approved leave days are rejected.
func (s *Service) UpdateAfterSubmit(ctx context.Context, name string, newLeaves decimal.Decimal) (*Allocation, error) {
	var updated Allocation
	err := s.store.WithTx(ctx, func(st Store) error {
		a, err := s.allocation(ctx, st, name)
		if err != nil {
			return err
		}
		if !a.DocStatus.IsSubmitted() {
			return &generic.DocStatusError{Kind: "leave allocation", Name: name, Current: a.DocStatus, Operation: "update"}
		}
		updated = a
		if a.NewLeavesAllocated.Equal(newLeaves) {
			return nil
		}

		lt, err := s.leaveType(ctx, st, a.LeaveType)
		if err != nil {
			return err
		}

		a.NewLeavesAllocated = newLeaves
		a.TotalLeavesAllocated = a.UnusedLeaves.Add(newLeaves)
		if err := validateTotalLeavesAllocated(&a); err != nil {
			return err
		}
		if err := s.validateAgainstApplications(ctx, st, a, lt); err != nil {
			return err
		}

		existing, err := existingLeaveCount(ctx, st, a.Name)
		if err != nil {
			return err
		}
		if delta := newLeaves.Sub(existing); !delta.IsZero() {
			entry := s.newAllocationEntry(a, delta, a.FromDate, a.ToDate, false)
			if err := st.AppendLedgerEntries(ctx, []LedgerEntry{entry}); err != nil {
				return err
			}
		}

		updated = a
		return st.SaveAllocation(ctx, a)
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// existingLeaveCount sums the non-carried, non-expired entries an
// allocation has written so far.
func existingLeaveCount(ctx context.Context, st Store, name string) (decimal.Decimal, error) {
	entries, err := st.LedgerEntries(ctx, LedgerFilter{TransactionType: TxLeaveAllocation, TransactionName: name})
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, e := range entries {
		if !e.IsCarryForward && !e.IsExpired {
			sum = sum.Add(e.Leaves)
		}
	}
	return sum, nil
}

func (s *Service) validateAgainstApplications(ctx context.Context, st Store, a Allocation, lt LeaveType) error {
	taken, err := s.approvedLeavesForPeriod(ctx, st, a.Employee, lt, a.Period())
	if err != nil {
		return err
	}
	if !taken.GreaterThan(a.TotalLeavesAllocated) {
		return nil
	}
	if lt.AllowNegative {
		s.log.Warn("allocation below approved leaves, negative balance allowed",
			zap.String("allocation", a.Name),
			zap.String("total", a.TotalLeavesAllocated.String()),
			zap.String("approved", taken.String()))
		return nil
	}
	return validationErrorf(ErrLessAllocation,
		"Total allocated leaves %s cannot be less than already approved leaves %s for the period",
		a.TotalLeavesAllocated, taken)
}

// Cancel removes a submitted allocation's ledger entries and marks it
// cancelled.
func (s *Service) Cancel(ctx context.Context, name string) (*Allocation, error) {
	var cancelled Allocation
	err := s.store.WithTx(ctx, func(st Store) error {
		a, err := s.allocation(ctx, st, name)
		if err != nil {
			return err
		}
		if !a.DocStatus.IsSubmitted() {
			return &generic.DocStatusError{Kind: "leave allocation", Name: name, Current: a.DocStatus, Operation: "cancel"}
		}

		if err := st.DeleteLedgerEntries(ctx, TxLeaveAllocation, name); err != nil {
			return err
		}
		a.DocStatus = generic.DocCancelled
		if err := st.SaveAllocation(ctx, a); err != nil {
			return err
		}

		if a.CarryForward {
			existing, err := st.ListAllocations(ctx, a.Employee, a.LeaveType)
			if err != nil {
				return err
			}
			if prev := previousAllocation(existing, a.FromDate); prev != nil {
				prev.CarryForwardedLeavesCount = decimal.Zero
				if err := st.SaveAllocation(ctx, *prev); err != nil {
					return err
				}
			}
		}
		cancelled = a
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("leave allocation cancelled", zap.String("allocation", name))
	return &cancelled, nil
}
