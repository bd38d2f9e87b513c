package leave_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/erp-engine/generic"
	"github.com/warp/erp-engine/leave"
	"github.com/warp/erp-engine/store/memory"
)

var today = time.Date(2025, time.June, 15, 10, 0, 0, 0, time.UTC)

type fixture struct {
	ctx   context.Context
	svc   *leave.Service
	store *memory.Store
}

func newFixture(t *testing.T, opts ...leave.Option) *fixture {
	t.Helper()
	store := memory.New()
	ctx := context.Background()

	require.NoError(t, store.SaveEmployee(ctx, leave.Employee{ID: "EMP-1", Name: "Jane Doe", Company: "Acme"}))
	for _, lt := range []leave.LeaveType{
		{Name: "Privilege Leave", IsCarryForward: true, MaximumCarryForwardedLeaves: decimal.NewFromInt(10)},
		{Name: "Capped Leave", IsCarryForward: true, MaximumCarryForwardedLeaves: decimal.NewFromInt(10), MaxLeavesAllowed: decimal.NewFromInt(20)},
		{Name: "Earned Leave", IsCarryForward: true, ExpireCarryForwardedLeavesAfterDays: 90},
		{Name: "Casual Leave"},
		{Name: "Leave Without Pay", IsLWP: true},
		{Name: "Flexible Leave", AllowNegative: true},
	} {
		require.NoError(t, store.SaveLeaveType(ctx, lt))
	}

	opts = append([]leave.Option{leave.WithClock(func() time.Time { return today })}, opts...)
	return &fixture{ctx: ctx, svc: leave.NewService(store, opts...), store: store}
}

func days(n int64) decimal.Decimal { return decimal.NewFromInt(n) }

func (f *fixture) submit(t *testing.T, leaveType, from, to string, leaves int64, carryForward bool) *leave.Allocation {
	t.Helper()
	a := &leave.Allocation{
		Employee:           "EMP-1",
		LeaveType:          leaveType,
		FromDate:           generic.MustParseDate(from),
		ToDate:             generic.MustParseDate(to),
		NewLeavesAllocated: days(leaves),
		CarryForward:       carryForward,
	}
	require.NoError(t, f.svc.Submit(f.ctx, a))
	return a
}

func (f *fixture) apply(t *testing.T, leaveType, from, to string) *leave.Application {
	t.Helper()
	app := &leave.Application{
		Employee:  "EMP-1",
		LeaveType: leaveType,
		FromDate:  generic.MustParseDate(from),
		ToDate:    generic.MustParseDate(to),
		Status:    leave.ApplicationApproved,
	}
	require.NoError(t, f.svc.SaveApplication(f.ctx, app))
	require.NoError(t, f.svc.SubmitApplication(f.ctx, app))
	return app
}

func (f *fixture) ledger(t *testing.T, filter leave.LedgerFilter) []leave.LedgerEntry {
	t.Helper()
	entries, err := f.svc.LedgerEntries(f.ctx, filter)
	require.NoError(t, err)
	return entries
}

// =============================================================================
// VALIDATION
// =============================================================================

func TestValidate_Rules(t *testing.T) {
	tests := []struct {
		name      string
		leaveType string
		from, to  string
		leaves    int64
		want      error
	}{
		{"to before from", "Casual Leave", "2025-12-31", "2025-01-01", 5, generic.ErrInvalidPeriod},
		{"more than days in period", "Casual Leave", "2025-01-01", "2025-01-10", 11, leave.ErrOverAllocation},
		{"leave without pay", "Leave Without Pay", "2025-01-01", "2025-12-31", 5, leave.ErrLeaveWithoutPay},
		{"above leave type maximum", "Capped Leave", "2025-01-01", "2025-12-31", 25, leave.ErrMaxAllowed},
		{"nothing allocated", "Casual Leave", "2025-01-01", "2025-12-31", 0, leave.ErrTotalMandatory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			a := &leave.Allocation{
				Employee:           "EMP-1",
				LeaveType:          tt.leaveType,
				FromDate:           generic.MustParseDate(tt.from),
				ToDate:             generic.MustParseDate(tt.to),
				NewLeavesAllocated: days(tt.leaves),
			}

			err := f.svc.Validate(f.ctx, a)

			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
			assert.True(t, leave.IsValidation(err))
		})
	}
}

func TestValidate_FillsComputedFields(t *testing.T) {
	f := newFixture(t)
	a := &leave.Allocation{
		Employee:           "EMP-1",
		LeaveType:          "Casual Leave",
		FromDate:           generic.MustParseDate("2025-01-01"),
		ToDate:             generic.MustParseDate("2025-12-31"),
		NewLeavesAllocated: days(12),
	}

	require.NoError(t, f.svc.Validate(f.ctx, a))

	assert.Equal(t, "Jane Doe", a.EmployeeName)
	assert.True(t, a.UnusedLeaves.IsZero())
	assert.True(t, a.TotalLeavesAllocated.Equal(days(12)))
}

func TestValidate_UnknownEmployeeAndLeaveType(t *testing.T) {
	f := newFixture(t)

	err := f.svc.Validate(f.ctx, &leave.Allocation{
		Employee: "EMP-X", LeaveType: "Casual Leave",
		FromDate: generic.MustParseDate("2025-01-01"), ToDate: generic.MustParseDate("2025-12-31"),
		NewLeavesAllocated: days(1),
	})
	assert.True(t, generic.IsNotFound(err))

	err = f.svc.Validate(f.ctx, &leave.Allocation{
		Employee: "EMP-1", LeaveType: "Sabbatical",
		FromDate: generic.MustParseDate("2025-01-01"), ToDate: generic.MustParseDate("2025-12-31"),
		NewLeavesAllocated: days(1),
	})
	assert.True(t, generic.IsNotFound(err))
}

func TestSubmit_Overlap(t *testing.T) {
	// GIVEN: A submitted allocation for 2025
	f := newFixture(t)
	first := f.submit(t, "Casual Leave", "2025-01-01", "2025-12-31", 10, false)

	// WHEN: Another allocation shares a day with it
	err := f.svc.Submit(f.ctx, &leave.Allocation{
		Employee:           "EMP-1",
		LeaveType:          "Casual Leave",
		FromDate:           generic.MustParseDate("2025-12-31"),
		ToDate:             generic.MustParseDate("2026-06-30"),
		NewLeavesAllocated: days(5),
	})

	// THEN: It is rejected with a reference to the existing record
	require.ErrorIs(t, err, leave.ErrOverlap)
	var ve *leave.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, first.Name, ve.Ref)
}

func TestSubmit_DraftsDoNotOverlap(t *testing.T) {
	f := newFixture(t)
	draft := &leave.Allocation{
		Employee:           "EMP-1",
		LeaveType:          "Casual Leave",
		FromDate:           generic.MustParseDate("2025-01-01"),
		ToDate:             generic.MustParseDate("2025-12-31"),
		NewLeavesAllocated: days(10),
	}
	require.NoError(t, f.svc.Save(f.ctx, draft))

	f.submit(t, "Casual Leave", "2025-01-01", "2025-12-31", 10, false)
}

func TestSubmit_BackDated(t *testing.T) {
	// GIVEN: A 2025 allocation that carried forward from 2024
	f := newFixture(t)
	f.submit(t, "Privilege Leave", "2024-01-01", "2024-12-31", 5, false)
	f.submit(t, "Privilege Leave", "2025-01-01", "2025-12-31", 5, true)

	// WHEN: Allocating for 2023
	err := f.svc.Submit(f.ctx, &leave.Allocation{
		Employee:           "EMP-1",
		LeaveType:          "Privilege Leave",
		FromDate:           generic.MustParseDate("2023-01-01"),
		ToDate:             generic.MustParseDate("2023-12-31"),
		NewLeavesAllocated: days(5),
	})

	// THEN: The balance already moved forward, so it is refused
	assert.ErrorIs(t, err, leave.ErrBackDated)
}

func TestSubmit_AlreadySubmittedConflicts(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "Casual Leave", "2025-01-01", "2025-12-31", 10, false)

	err := f.svc.Submit(f.ctx, a)

	assert.True(t, generic.IsConflict(err))
	assert.ErrorIs(t, err, generic.ErrInvalidDocStatus)
}

// =============================================================================
// CARRY FORWARD
// =============================================================================

func TestCarryForward_CappedByLeaveType(t *testing.T) {
	// GIVEN: 15 unused days last year, carry-forward capped at 10
	f := newFixture(t)
	prev := f.submit(t, "Privilege Leave", "2024-01-01", "2024-12-31", 15, false)

	preview, err := f.svc.CarryForwardedLeaves(f.ctx, "EMP-1", "Privilege Leave", generic.MustParseDate("2025-01-01"), true)
	require.NoError(t, err)
	assert.True(t, preview.Equal(days(10)), preview.String())

	// WHEN: This year's allocation carries forward
	cur := f.submit(t, "Privilege Leave", "2025-01-01", "2025-12-31", 10, true)

	// THEN: 10 days are carried
	assert.True(t, cur.UnusedLeaves.Equal(days(10)))
	assert.True(t, cur.TotalLeavesAllocated.Equal(days(20)))

	// AND: The previous allocation expired and records what was carried
	stored, err := f.svc.GetAllocation(f.ctx, prev.Name)
	require.NoError(t, err)
	assert.True(t, stored.Expired)
	assert.True(t, stored.CarryForwardedLeavesCount.Equal(days(10)))

	entries := f.ledger(t, leave.LedgerFilter{TransactionName: prev.Name})
	require.Len(t, entries, 2)
	assert.True(t, entries[1].IsExpired)
	assert.True(t, entries[1].Leaves.Equal(days(-15)))
}

func TestCarryForward_CappedByMaxLeavesAllowed(t *testing.T) {
	// GIVEN: 10 carried days and 15 new days against a maximum of 20
	f := newFixture(t)
	f.submit(t, "Capped Leave", "2024-01-01", "2024-12-31", 12, false)

	// WHEN: Carrying forward
	cur := f.submit(t, "Capped Leave", "2025-01-01", "2025-12-31", 15, true)

	// THEN: The total is the maximum and only 5 days are carried
	assert.True(t, cur.TotalLeavesAllocated.Equal(days(20)))
	assert.True(t, cur.UnusedLeaves.Equal(days(5)))
}

func TestCarryForward_NotAllowedForLeaveType(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "Casual Leave", "2024-01-01", "2024-12-31", 5, false)

	_, err := f.svc.CarryForwardedLeaves(f.ctx, "EMP-1", "Casual Leave", generic.MustParseDate("2025-01-01"), true)

	assert.ErrorIs(t, err, leave.ErrNotCarryForward)
}

func TestCarryForward_UsesLeavesTaken(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "Privilege Leave", "2024-01-01", "2024-12-31", 8, false)
	f.apply(t, "Privilege Leave", "2024-05-06", "2024-05-08")

	got, err := f.svc.CarryForwardedLeaves(f.ctx, "EMP-1", "Privilege Leave", generic.MustParseDate("2025-01-01"), true)

	require.NoError(t, err)
	assert.True(t, got.Equal(days(5)), got.String())
}

func TestCarryForward_Disabled(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "Privilege Leave", "2024-01-01", "2024-12-31", 8, false)

	got, err := f.svc.CarryForwardedLeaves(f.ctx, "EMP-1", "Privilege Leave", generic.MustParseDate("2025-01-01"), false)

	require.NoError(t, err)
	assert.True(t, got.IsZero())
}

// =============================================================================
// LIFECYCLE
// =============================================================================

func TestSubmit_WritesLedgerEntries(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "Casual Leave", "2025-01-01", "2025-12-31", 12, false)

	entries := f.ledger(t, leave.LedgerFilter{TransactionType: leave.TxLeaveAllocation, TransactionName: a.Name})

	require.Len(t, entries, 1)
	assert.True(t, entries[0].Leaves.Equal(days(12)))
	assert.False(t, entries[0].IsCarryForward)
	assert.Equal(t, "2025-01-01", entries[0].FromDate.String())
	assert.Equal(t, "2025-12-31", entries[0].ToDate.String())
}

func TestSubmit_CarriedEntryWindow(t *testing.T) {
	f := newFixture(t)
	f.submit(t, "Earned Leave", "2024-01-01", "2024-12-31", 6, false)
	cur := f.submit(t, "Earned Leave", "2025-01-01", "2025-12-31", 10, true)

	entries := f.ledger(t, leave.LedgerFilter{TransactionName: cur.Name})

	require.Len(t, entries, 2)
	var carried leave.LedgerEntry
	for _, e := range entries {
		if e.IsCarryForward {
			carried = e
		}
	}
	assert.True(t, carried.Leaves.Equal(days(6)))
	assert.Equal(t, "2025-03-31", carried.ToDate.String())
}

func TestUpdateAfterSubmit(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "Casual Leave", "2025-01-01", "2025-12-31", 10, false)

	// Add
	updated, err := f.svc.UpdateAfterSubmit(f.ctx, a.Name, days(14))
	require.NoError(t, err)
	assert.True(t, updated.TotalLeavesAllocated.Equal(days(14)))

	// Subtract
	_, err = f.svc.UpdateAfterSubmit(f.ctx, a.Name, days(8))
	require.NoError(t, err)

	entries := f.ledger(t, leave.LedgerFilter{TransactionName: a.Name})
	require.Len(t, entries, 3)
	assert.True(t, entries[1].Leaves.Equal(days(4)))
	assert.True(t, entries[2].Leaves.Equal(days(-6)))

	bal, err := f.svc.Balance(f.ctx, "EMP-1", "Casual Leave", generic.MustParseDate("2025-03-01"))
	require.NoError(t, err)
	assert.True(t, bal.Value.Equal(days(8)))
}

func TestUpdateAfterSubmit_BelowApprovedLeaves(t *testing.T) {
	// GIVEN: 10 days allocated, 5 approved
	f := newFixture(t)
	a := f.submit(t, "Casual Leave", "2025-01-01", "2025-12-31", 10, false)
	f.apply(t, "Casual Leave", "2025-03-03", "2025-03-07")

	// WHEN: Reducing the allocation to 3
	_, err := f.svc.UpdateAfterSubmit(f.ctx, a.Name, days(3))

	// THEN: It is refused and nothing is written
	assert.ErrorIs(t, err, leave.ErrLessAllocation)
	assert.Len(t, f.ledger(t, leave.LedgerFilter{TransactionName: a.Name}), 1)
}

func TestUpdateAfterSubmit_AllowNegative(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "Flexible Leave", "2025-01-01", "2025-12-31", 10, false)
	f.apply(t, "Flexible Leave", "2025-03-03", "2025-03-07")

	updated, err := f.svc.UpdateAfterSubmit(f.ctx, a.Name, days(3))

	require.NoError(t, err)
	assert.True(t, updated.NewLeavesAllocated.Equal(days(3)))
}

func TestUpdateAfterSubmit_OverPeriod(t *testing.T) {
	f := newFixture(t)
	a := f.submit(t, "Casual Leave", "2025-01-01", "2025-01-31", 10, false)

	_, err := f.svc.UpdateAfterSubmit(f.ctx, a.Name, days(40))

	assert.ErrorIs(t, err, leave.ErrOverAllocation)
}

func TestUpdateAfterSubmit_DraftConflicts(t *testing.T) {
	f := newFixture(t)
	a := &leave.Allocation{
		Employee: "EMP-1", LeaveType: "Casual Leave",
		FromDate: generic.MustParseDate("2025-01-01"), ToDate: generic.MustParseDate("2025-12-31"),
		NewLeavesAllocated: days(10),
	}
	require.NoError(t, f.svc.Save(f.ctx, a))

	_, err := f.svc.UpdateAfterSubmit(f.ctx, a.Name, days(12))

	assert.True(t, generic.IsConflict(err))
}

func TestCancel_RemovesEntriesAndResetsPrevious(t *testing.T) {
	// GIVEN: A carry-forward allocation
	f := newFixture(t)
	prev := f.submit(t, "Privilege Leave", "2024-01-01", "2024-12-31", 6, false)
	cur := f.submit(t, "Privilege Leave", "2025-01-01", "2025-12-31", 10, true)

	// WHEN: Cancelling it
	cancelled, err := f.svc.Cancel(f.ctx, cur.Name)
	require.NoError(t, err)

	// THEN: Its entries are gone and the previous count is reset
	assert.Equal(t, generic.DocCancelled, cancelled.DocStatus)
	assert.Empty(t, f.ledger(t, leave.LedgerFilter{TransactionName: cur.Name}))

	stored, err := f.svc.GetAllocation(f.ctx, prev.Name)
	require.NoError(t, err)
	assert.True(t, stored.CarryForwardedLeavesCount.IsZero())

	// AND: Cancelling twice conflicts
	_, err = f.svc.Cancel(f.ctx, cur.Name)
	assert.True(t, generic.IsConflict(err))
}

func TestCancel_Unknown(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Cancel(f.ctx, "HR-LAL-MISSING")

	assert.ErrorIs(t, err, generic.ErrNotFound)
}
