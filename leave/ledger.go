/*
ledger.go - Leave ledger: entry creation, balances and expiry

PURPOSE:
  Every allocation and approved application is mirrored as signed entries
  in the leave ledger. Balances are never stored; they are sums over the
  entries that fall inside an allocation window.

ENTRY KINDS:
  Allocation, new leaves:    +new      [from, to]
  Allocation, carried:       +unused   [from, from+expiryDays-1] (capped at to)
  Allocation, changed:       +/-delta  [from, to]
  Application (approved):    -days     [app from, app to]
  Expiry:                    -remaining, is_expired, dated at the expiring entry's to date

UNUSED LEAVES:
  Sum over entries inside the window, skipping expiries of new leaves but
  keeping expiries of carried leaves. Expiring the previous allocation when
  carrying forward must not shrink what can be carried.

EXPIRY:
  ProcessExpiredAllocations walks allocation entries whose window ended
  before today and writes one expiry per (allocation, carried?) pair.
  Running it twice creates nothing the second time.
*/
package leave

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/erp-engine/generic"
	"go.uber.org/zap"
)

// =============================================================================
// ENTRY CONSTRUCTION
// =============================================================================

func (s *Service) newAllocationEntry(a Allocation, leaves decimal.Decimal, from, to generic.TimePoint, carryForward bool) LedgerEntry {
	return LedgerEntry{
		ID:              uuid.NewString(),
		Employee:        a.Employee,
		LeaveType:       a.LeaveType,
		TransactionType: TxLeaveAllocation,
		TransactionName: a.Name,
		Leaves:          leaves,
		FromDate:        from,
		ToDate:          to,
		IsCarryForward:  carryForward,
		CreatedAt:       s.now().UTC(),
	}
}

// allocationLedgerEntries builds the entries written when an allocation is
// submitted: an optional carried entry followed by the new leaves entry.
func (s *Service) allocationLedgerEntries(a Allocation, lt LeaveType) []LedgerEntry {
	var entries []LedgerEntry
	if a.UnusedLeaves.IsPositive() {
		end := a.ToDate
		if lt.ExpireCarryForwardedLeavesAfterDays > 0 {
			end = generic.MinTimePoint(a.FromDate.AddDays(lt.ExpireCarryForwardedLeavesAfterDays-1), a.ToDate)
		}
		entries = append(entries, s.newAllocationEntry(a, a.UnusedLeaves, a.FromDate, end, true))
	}
	entries = append(entries, s.newAllocationEntry(a, a.NewLeavesAllocated, a.FromDate, a.ToDate, false))
	return entries
}

// =============================================================================
// SUMS
// =============================================================================

// UnusedLeaves returns leaves left in [from, to] for the employee and type.
func (s *Service) UnusedLeaves(ctx context.Context, employee, leaveType string, from, to generic.TimePoint) (decimal.Decimal, error) {
	return s.unusedLeaves(ctx, s.store, employee, leaveType, generic.NewPeriod(from, to))
}

func (s *Service) unusedLeaves(ctx context.Context, st Store, employee, leaveType string, window generic.Period) (decimal.Decimal, error) {
	entries, err := st.LedgerEntries(ctx, LedgerFilter{Employee: employee, LeaveType: leaveType})
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, e := range entries {
		if !window.Covers(e.Period()) {
			continue
		}
		if e.IsExpired && !e.IsCarryForward {
			continue
		}
		sum = sum.Add(e.Leaves)
	}
	return sum, nil
}

// remainingLeaves sums every entry inside the allocation window.
func (s *Service) remainingLeaves(ctx context.Context, st Store, a Allocation) (decimal.Decimal, error) {
	entries, err := st.LedgerEntries(ctx, LedgerFilter{Employee: a.Employee, LeaveType: a.LeaveType})
	if err != nil {
		return decimal.Zero, err
	}
	window := a.Period()
	sum := decimal.Zero
	for _, e := range entries {
		if window.Covers(e.Period()) {
			sum = sum.Add(e.Leaves)
		}
	}
	return sum, nil
}

// leavesTaken is the (negative) sum of application entries inside window.
// Applications straddling the window boundary count only their days inside it.
func (s *Service) leavesTaken(ctx context.Context, st Store, employee string, lt LeaveType, window generic.Period) (decimal.Decimal, error) {
	entries, err := st.LedgerEntries(ctx, LedgerFilter{
		Employee:        employee,
		LeaveType:       lt.Name,
		TransactionType: TxLeaveApplication,
	})
	if err != nil {
		return decimal.Zero, err
	}

	var company string
	sum := decimal.Zero
	for _, e := range entries {
		if window.Covers(e.Period()) {
			sum = sum.Add(e.Leaves)
			continue
		}
		inter, ok := window.Intersect(e.Period())
		if !ok {
			continue
		}
		if company == "" {
			if emp, err := st.GetEmployee(ctx, employee); err == nil && emp != nil {
				company = emp.Company
			}
		}
		sum = sum.Sub(s.leaveDays(company, lt, inter))
	}
	return sum, nil
}

// Balance returns the leaves available on date from the submitted
// allocation whose window contains it. No covering allocation means zero.
func (s *Service) Balance(ctx context.Context, employee, leaveType string, date generic.TimePoint) (generic.Amount, error) {
	allocations, err := s.store.ListAllocations(ctx, employee, leaveType)
	if err != nil {
		return generic.Amount{}, err
	}
	for _, a := range allocations {
		if !a.DocStatus.IsSubmitted() || !a.Period().Contains(date) {
			continue
		}
		unused, err := s.unusedLeaves(ctx, s.store, employee, leaveType, a.Period())
		if err != nil {
			return generic.Amount{}, err
		}
		return generic.Amount{Value: unused, Unit: generic.UnitDays}, nil
	}
	return generic.NewAmount(0, generic.UnitDays), nil
}

// LedgerEntries lists ledger entries matching filter.
func (s *Service) LedgerEntries(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error) {
	return s.store.LedgerEntries(ctx, filter)
}

// =============================================================================
// EXPIRY
// =============================================================================

// expireAllocation writes an expiry for whatever is left in the allocation
// window and flags the allocation expired.
func (s *Service) expireAllocation(ctx context.Context, st Store, a Allocation) (bool, error) {
	remaining, err := s.remainingLeaves(ctx, st, a)
	if err != nil {
		return false, err
	}

	created := false
	if remaining.IsPositive() {
		entry := s.newAllocationEntry(a, remaining.Neg(), a.ToDate, a.ToDate, false)
		entry.IsExpired = true
		if err := st.AppendLedgerEntries(ctx, []LedgerEntry{entry}); err != nil {
			return false, err
		}
		created = true
	}

	a.Expired = true
	if err := st.SaveAllocation(ctx, a); err != nil {
		return false, err
	}
	return created, nil
}

// expireCarriedForward expires what is left of a carried entry after the
// leaves taken inside its window.
func (s *Service) expireCarriedForward(ctx context.Context, st Store, e LedgerEntry, lt LeaveType) (bool, error) {
	taken, err := s.leavesTaken(ctx, st, e.Employee, lt, e.Period())
	if err != nil {
		return false, err
	}
	leaves := e.Leaves.Add(taken)
	if !leaves.IsPositive() {
		return false, nil
	}

	expiry := e
	expiry.ID = uuid.NewString()
	expiry.Leaves = leaves.Neg()
	expiry.FromDate = e.ToDate
	expiry.IsExpired = true
	expiry.CreatedAt = s.now().UTC()
	if err := st.AppendLedgerEntries(ctx, []LedgerEntry{expiry}); err != nil {
		return false, err
	}
	return true, nil
}

type expiryKey struct {
	TransactionName string
	CarryForward    bool
}

// ProcessExpiredAllocations expires allocation entries whose window closed
// before today. Returns the number of expiry entries written.
func (s *Service) ProcessExpiredAllocations(ctx context.Context) (int, error) {
	today := s.today()
	created := 0

	err := s.store.WithTx(ctx, func(st Store) error {
		entries, err := st.LedgerEntries(ctx, LedgerFilter{TransactionType: TxLeaveAllocation})
		if err != nil {
			return err
		}

		byTx := make(map[string][]LedgerEntry)
		for _, e := range entries {
			byTx[e.TransactionName] = append(byTx[e.TransactionName], e)
		}

		types := make(map[string]LeaveType)
		done := make(map[expiryKey]bool)

		for _, e := range entries {
			if e.IsExpired || !e.ToDate.Before(today) {
				continue
			}
			key := expiryKey{TransactionName: e.TransactionName, CarryForward: e.IsCarryForward}
			if done[key] {
				continue
			}

			lt, ok := types[e.LeaveType]
			if !ok {
				lt, err = s.leaveType(ctx, st, e.LeaveType)
				if err != nil {
					return err
				}
				types[e.LeaveType] = lt
			}
			done[key] = true

			// Without a carried-leave expiry period the carried entry shares
			// the allocation window and expires together with new leaves.
			if e.IsCarryForward && lt.ExpireCarryForwardedLeavesAfterDays <= 0 {
				continue
			}
			if alreadyExpired(e, byTx[e.TransactionName]) {
				continue
			}

			var wrote bool
			if e.IsCarryForward {
				wrote, err = s.expireCarriedForward(ctx, st, e, lt)
			} else {
				var a Allocation
				a, err = s.allocation(ctx, st, e.TransactionName)
				if errors.Is(err, generic.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				wrote, err = s.expireAllocation(ctx, st, a)
			}
			if err != nil {
				return err
			}
			if wrote {
				created++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("processed expired allocations",
		zap.String("today", today.String()),
		zap.Int("expiry_entries", created))
	return created, nil
}

// alreadyExpired reports whether a sibling expiry of the same kind exists.
func alreadyExpired(e LedgerEntry, siblings []LedgerEntry) bool {
	for _, o := range siblings {
		if o.ID != e.ID && o.IsExpired && o.IsCarryForward == e.IsCarryForward {
			return true
		}
	}
	return false
}
