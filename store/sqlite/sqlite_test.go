package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/erp-engine/generic"
	"github.com/warp/erp-engine/leave"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

// =============================================================================
// LEAVE RECORDS
// =============================================================================

func TestLeaveRecords_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	created := time.Date(2025, time.January, 2, 9, 30, 0, 0, time.UTC)
	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "EMP-1", Name: "Jane Doe", Company: "Acme", CreatedAt: created}))
	require.NoError(t, s.SaveLeaveType(ctx, leave.LeaveType{
		Name:                                "Privilege Leave",
		IsCarryForward:                      true,
		MaximumCarryForwardedLeaves:         decimal.RequireFromString("7.5"),
		ExpireCarryForwardedLeavesAfterDays: 90,
		AllowNegative:                       true,
	}))
	require.NoError(t, s.SaveAllocation(ctx, leave.Allocation{
		Name:                 "HR-LAL-1",
		Employee:             "EMP-1",
		EmployeeName:         "Jane Doe",
		LeaveType:            "Privilege Leave",
		FromDate:             generic.MustParseDate("2025-01-01"),
		ToDate:               generic.MustParseDate("2025-12-31"),
		NewLeavesAllocated:   decimal.RequireFromString("12.5"),
		CarryForward:         true,
		UnusedLeaves:         decimal.NewFromInt(3),
		TotalLeavesAllocated: decimal.RequireFromString("15.5"),
		DocStatus:            generic.DocSubmitted,
	}))

	emp, err := s.GetEmployee(ctx, "EMP-1")
	require.NoError(t, err)
	require.NotNil(t, emp)
	assert.Equal(t, "Acme", emp.Company)
	assert.True(t, emp.CreatedAt.Equal(created))

	lt, err := s.GetLeaveType(ctx, "Privilege Leave")
	require.NoError(t, err)
	require.NotNil(t, lt)
	assert.True(t, lt.IsCarryForward)
	assert.True(t, lt.AllowNegative)
	assert.Equal(t, 90, lt.ExpireCarryForwardedLeavesAfterDays)
	assert.True(t, lt.MaximumCarryForwardedLeaves.Equal(decimal.RequireFromString("7.5")))

	a, err := s.GetAllocation(ctx, "HR-LAL-1")
	require.NoError(t, err)
	require.NotNil(t, a)
	assert.Equal(t, "2025-12-31", a.ToDate.String())
	assert.True(t, a.TotalLeavesAllocated.Equal(decimal.RequireFromString("15.5")))
	assert.True(t, a.CarryForward)
	assert.Equal(t, generic.DocSubmitted, a.DocStatus)

	missing, err := s.GetAllocation(ctx, "HR-LAL-2")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestLedger_OrderFilterDelete(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	mk := func(id, tx string, txType leave.TransactionType, from string, leaves int64) leave.LedgerEntry {
		return leave.LedgerEntry{
			ID: id, Employee: "EMP-1", LeaveType: "Casual Leave",
			TransactionType: txType, TransactionName: tx,
			Leaves:   decimal.NewFromInt(leaves),
			FromDate: generic.MustParseDate(from), ToDate: generic.MustParseDate("2025-12-31"),
		}
	}
	require.NoError(t, s.AppendLedgerEntries(ctx, []leave.LedgerEntry{
		mk("e2", "HR-LAP-1", leave.TxLeaveApplication, "2025-03-01", -2),
		mk("e1", "HR-LAL-1", leave.TxLeaveAllocation, "2025-01-01", 10),
		mk("e3", "HR-LAL-1", leave.TxLeaveAllocation, "2025-01-01", 4),
	}))

	all, err := s.LedgerEntries(ctx, leave.LedgerFilter{Employee: "EMP-1"})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"e1", "e3", "e2"}, []string{all[0].ID, all[1].ID, all[2].ID})
	assert.Equal(t, leave.TxLeaveApplication, all[2].TransactionType)
	assert.True(t, all[2].Leaves.Equal(decimal.NewFromInt(-2)))

	// Duplicate IDs conflict
	err = s.AppendLedgerEntries(ctx, []leave.LedgerEntry{mk("e1", "HR-LAL-1", leave.TxLeaveAllocation, "2025-01-01", 1)})
	assert.True(t, generic.IsConflict(err))

	require.NoError(t, s.DeleteLedgerEntries(ctx, leave.TxLeaveAllocation, "HR-LAL-1"))
	left, err := s.LedgerEntries(ctx, leave.LedgerFilter{})
	require.NoError(t, err)
	require.Len(t, left, 1)
	assert.Equal(t, "e2", left[0].ID)
}

func TestWithTx_RollsBack(t *testing.T) {
	// GIVEN: A transaction that writes an allocation and then fails
	ctx := context.Background()
	s := newTestStore(t)
	boom := errors.New("boom")

	err := s.WithTx(ctx, func(st leave.Store) error {
		err := st.SaveAllocation(ctx, leave.Allocation{
			Name: "HR-LAL-1", Employee: "EMP-1", LeaveType: "Casual Leave",
			FromDate: generic.MustParseDate("2025-01-01"), ToDate: generic.MustParseDate("2025-12-31"),
		})
		if err != nil {
			return err
		}
		// Nested calls join the outer transaction
		return st.WithTx(ctx, func(inner leave.Store) error {
			a, err := inner.GetAllocation(ctx, "HR-LAL-1")
			require.NoError(t, err)
			require.NotNil(t, a)
			return boom
		})
	})

	// THEN: Nothing was written
	assert.ErrorIs(t, err, boom)
	a, err := s.GetAllocation(ctx, "HR-LAL-1")
	require.NoError(t, err)
	assert.Nil(t, a)
}

func TestReset_ClearsEverything(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	require.NoError(t, s.SaveEmployee(ctx, leave.Employee{ID: "EMP-1", Name: "Jane"}))
	require.NoError(t, s.SaveHoliday(ctx, generic.Holiday{ID: "h1", Date: generic.MustParseDate("2025-12-25"), Name: "Christmas Day"}))

	require.NoError(t, s.Reset(ctx))

	emps, err := s.ListEmployees(ctx)
	require.NoError(t, err)
	assert.Empty(t, emps)
	assert.False(t, s.IsHoliday("Acme", generic.MustParseDate("2025-12-25")))
}

// =============================================================================
// HOLIDAYS
// =============================================================================

func TestHolidays_CacheFollowsWrites(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)
	xmas := generic.MustParseDate("2025-12-25")

	require.NoError(t, s.SaveHoliday(ctx, generic.Holiday{ID: "h1", CompanyID: "Acme", Date: xmas, Name: "Christmas Day", Recurring: true}))
	require.NoError(t, s.SaveHoliday(ctx, generic.Holiday{ID: "h2", Date: generic.MustParseDate("2025-01-01"), Name: "New Year"}))

	assert.True(t, s.IsHoliday("Acme", xmas))
	assert.True(t, s.IsHoliday("Acme", generic.MustParseDate("2026-12-25")))
	assert.False(t, s.IsHoliday("Other", xmas))
	assert.True(t, s.IsHoliday("Other", generic.MustParseDate("2025-01-01")))
	assert.Len(t, s.GetHolidays("Acme", 2026), 1)

	stored, err := s.GetAllHolidays(ctx, "Acme")
	require.NoError(t, err)
	assert.Len(t, stored, 2)

	require.NoError(t, s.DeleteHoliday(ctx, "h1"))
	assert.False(t, s.IsHoliday("Acme", xmas))
}

// =============================================================================
// DRIVER ERRORS
// =============================================================================

func TestGetEmployee_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, name, company, created_at FROM employees").
		WithArgs("EMP-X").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "company", "created_at"}))

	emp, err := Open(db).GetEmployee(context.Background(), "EMP-X")

	require.NoError(t, err)
	assert.Nil(t, emp)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetCompany_QueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name, default_currency FROM companies").
		WithArgs("Acme").
		WillReturnError(errors.New("database is locked"))

	c, err := Open(db).GetCompany(context.Background(), "Acme")

	assert.Nil(t, c)
	assert.ErrorContains(t, err, "failed to get company")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_CommitFailure(t *testing.T) {
	// GIVEN: A driver that refuses to commit
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM leave_ledger_entries").
		WithArgs(string(leave.TxLeaveAllocation), "HR-LAL-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit().WillReturnError(errors.New("disk I/O error"))

	// WHEN: Running a unit of work
	err = Open(db).WithTx(context.Background(), func(st leave.Store) error {
		return st.DeleteLedgerEntries(context.Background(), leave.TxLeaveAllocation, "HR-LAL-1")
	})

	// THEN: The failure surfaces as a failed transaction
	assert.ErrorIs(t, err, generic.ErrTransactionFailed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTx_RollbackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO leave_ledger_entries").
		WillReturnError(errors.New("constraint failed"))
	mock.ExpectRollback()

	err = Open(db).WithTx(context.Background(), func(st leave.Store) error {
		return st.AppendLedgerEntries(context.Background(), []leave.LedgerEntry{{ID: "e1"}})
	})

	assert.ErrorContains(t, err, "failed to append ledger entry")
	assert.NoError(t, mock.ExpectationsWereMet())
}
