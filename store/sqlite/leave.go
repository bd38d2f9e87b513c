package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/warp/erp-engine/generic"
	"github.com/warp/erp-engine/leave"
)

var (
	_ leave.Store = (*Store)(nil)
	_ leave.Store = (*txStore)(nil)
)

// =============================================================================
// LEAVE STORE (leave.Store interface)
// =============================================================================

func (s *Store) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().GetEmployee(ctx, id)
}

func (s *Store) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().SaveEmployee(ctx, emp)
}

func (s *Store) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().ListEmployees(ctx)
}

func (s *Store) GetLeaveType(ctx context.Context, name string) (*leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().GetLeaveType(ctx, name)
}

func (s *Store) SaveLeaveType(ctx context.Context, lt leave.LeaveType) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().SaveLeaveType(ctx, lt)
}

func (s *Store) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().ListLeaveTypes(ctx)
}

func (s *Store) GetAllocation(ctx context.Context, name string) (*leave.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().GetAllocation(ctx, name)
}

func (s *Store) SaveAllocation(ctx context.Context, a leave.Allocation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().SaveAllocation(ctx, a)
}

func (s *Store) ListAllocations(ctx context.Context, employee, leaveType string) ([]leave.Allocation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().ListAllocations(ctx, employee, leaveType)
}

func (s *Store) GetApplication(ctx context.Context, name string) (*leave.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().GetApplication(ctx, name)
}

func (s *Store) SaveApplication(ctx context.Context, app leave.Application) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().SaveApplication(ctx, app)
}

func (s *Store) ListApplications(ctx context.Context, employee, leaveType string) ([]leave.Application, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().ListApplications(ctx, employee, leaveType)
}

// AppendLedgerEntries adds entries atomically.
func (s *Store) AppendLedgerEntries(ctx context.Context, entries []leave.LedgerEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.withSQLTx(ctx, func(c conn) error {
		return c.AppendLedgerEntries(ctx, entries)
	})
}

func (s *Store) DeleteLedgerEntries(ctx context.Context, txType leave.TransactionType, txName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn().DeleteLedgerEntries(ctx, txType, txName)
}

func (s *Store) LedgerEntries(ctx context.Context, filter leave.LedgerFilter) ([]leave.LedgerEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn().LedgerEntries(ctx, filter)
}

// =============================================================================
// TRANSACTIONAL STORE
// =============================================================================

// WithTx executes a function within a database transaction.
func (s *Store) WithTx(ctx context.Context, fn func(store leave.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withSQLTx(ctx, func(c conn) error {
		return fn(&txStore{conn: c})
	})
}

type txStore struct {
	conn
}

// WithTx inside a transaction joins the outer one.
func (ts *txStore) WithTx(_ context.Context, fn func(store leave.Store) error) error {
	return fn(ts)
}

// =============================================================================
// QUERIES
// =============================================================================

func (c conn) GetEmployee(ctx context.Context, id string) (*leave.Employee, error) {
	var (
		emp       leave.Employee
		createdAt string
	)
	err := c.q.QueryRowContext(ctx,
		"SELECT id, name, company, created_at FROM employees WHERE id = ?", id,
	).Scan(&emp.ID, &emp.Name, &emp.Company, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	return &emp, nil
}

func (c conn) SaveEmployee(ctx context.Context, emp leave.Employee) error {
	createdAt := emp.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	query := `
		INSERT INTO employees (id, name, company, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			company = excluded.company
	`
	_, err := c.q.ExecContext(ctx, query, emp.ID, emp.Name, emp.Company, createdAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to save employee: %w", err)
	}
	return nil
}

func (c conn) ListEmployees(ctx context.Context) ([]leave.Employee, error) {
	rows, err := c.q.QueryContext(ctx, "SELECT id, name, company, created_at FROM employees ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	defer rows.Close()

	var employees []leave.Employee
	for rows.Next() {
		var (
			emp       leave.Employee
			createdAt string
		)
		if err := rows.Scan(&emp.ID, &emp.Name, &emp.Company, &createdAt); err != nil {
			return nil, err
		}
		emp.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		employees = append(employees, emp)
	}
	return employees, rows.Err()
}

const leaveTypeColumns = `name, is_carry_forward, maximum_carry_forwarded_leaves, max_leaves_allowed,
	expire_carry_forwarded_leaves_after_days, is_lwp, is_earned_leave, is_compensatory,
	allow_negative, include_holiday`

func scanLeaveType(row interface{ Scan(...any) error }) (leave.LeaveType, error) {
	var (
		lt                  leave.LeaveType
		maxCarry, maxLeaves string
	)
	err := row.Scan(&lt.Name, &lt.IsCarryForward, &maxCarry, &maxLeaves,
		&lt.ExpireCarryForwardedLeavesAfterDays, &lt.IsLWP, &lt.IsEarnedLeave, &lt.IsCompensatory,
		&lt.AllowNegative, &lt.IncludeHoliday)
	if err != nil {
		return lt, err
	}
	lt.MaximumCarryForwardedLeaves = parseDecimal(maxCarry)
	lt.MaxLeavesAllowed = parseDecimal(maxLeaves)
	return lt, nil
}

func (c conn) GetLeaveType(ctx context.Context, name string) (*leave.LeaveType, error) {
	row := c.q.QueryRowContext(ctx, "SELECT "+leaveTypeColumns+" FROM leave_types WHERE name = ?", name)
	lt, err := scanLeaveType(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leave type: %w", err)
	}
	return &lt, nil
}

func (c conn) SaveLeaveType(ctx context.Context, lt leave.LeaveType) error {
	query := `
		INSERT INTO leave_types (` + leaveTypeColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			is_carry_forward = excluded.is_carry_forward,
			maximum_carry_forwarded_leaves = excluded.maximum_carry_forwarded_leaves,
			max_leaves_allowed = excluded.max_leaves_allowed,
			expire_carry_forwarded_leaves_after_days = excluded.expire_carry_forwarded_leaves_after_days,
			is_lwp = excluded.is_lwp,
			is_earned_leave = excluded.is_earned_leave,
			is_compensatory = excluded.is_compensatory,
			allow_negative = excluded.allow_negative,
			include_holiday = excluded.include_holiday
	`
	_, err := c.q.ExecContext(ctx, query,
		lt.Name, lt.IsCarryForward, lt.MaximumCarryForwardedLeaves.String(), lt.MaxLeavesAllowed.String(),
		lt.ExpireCarryForwardedLeavesAfterDays, lt.IsLWP, lt.IsEarnedLeave, lt.IsCompensatory,
		lt.AllowNegative, lt.IncludeHoliday,
	)
	if err != nil {
		return fmt.Errorf("failed to save leave type: %w", err)
	}
	return nil
}

func (c conn) ListLeaveTypes(ctx context.Context) ([]leave.LeaveType, error) {
	rows, err := c.q.QueryContext(ctx, "SELECT "+leaveTypeColumns+" FROM leave_types ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list leave types: %w", err)
	}
	defer rows.Close()

	var types []leave.LeaveType
	for rows.Next() {
		lt, err := scanLeaveType(rows)
		if err != nil {
			return nil, err
		}
		types = append(types, lt)
	}
	return types, rows.Err()
}

const allocationColumns = `name, employee, employee_name, leave_type, from_date, to_date,
	new_leaves_allocated, carry_forward, unused_leaves, total_leaves_allocated,
	carry_forwarded_leaves_count, expired, docstatus`

func scanAllocation(row interface{ Scan(...any) error }) (leave.Allocation, error) {
	var (
		a                                 leave.Allocation
		from, to                          string
		newLeaves, unused, total, carried string
		docStatus                         int
	)
	err := row.Scan(&a.Name, &a.Employee, &a.EmployeeName, &a.LeaveType, &from, &to,
		&newLeaves, &a.CarryForward, &unused, &total, &carried, &a.Expired, &docStatus)
	if err != nil {
		return a, err
	}
	a.FromDate = parseDate(from)
	a.ToDate = parseDate(to)
	a.NewLeavesAllocated = parseDecimal(newLeaves)
	a.UnusedLeaves = parseDecimal(unused)
	a.TotalLeavesAllocated = parseDecimal(total)
	a.CarryForwardedLeavesCount = parseDecimal(carried)
	a.DocStatus = generic.DocStatus(docStatus)
	return a, nil
}

func (c conn) GetAllocation(ctx context.Context, name string) (*leave.Allocation, error) {
	row := c.q.QueryRowContext(ctx, "SELECT "+allocationColumns+" FROM leave_allocations WHERE name = ?", name)
	a, err := scanAllocation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get allocation: %w", err)
	}
	return &a, nil
}

func (c conn) SaveAllocation(ctx context.Context, a leave.Allocation) error {
	query := `
		INSERT INTO leave_allocations (` + allocationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			employee = excluded.employee,
			employee_name = excluded.employee_name,
			leave_type = excluded.leave_type,
			from_date = excluded.from_date,
			to_date = excluded.to_date,
			new_leaves_allocated = excluded.new_leaves_allocated,
			carry_forward = excluded.carry_forward,
			unused_leaves = excluded.unused_leaves,
			total_leaves_allocated = excluded.total_leaves_allocated,
			carry_forwarded_leaves_count = excluded.carry_forwarded_leaves_count,
			expired = excluded.expired,
			docstatus = excluded.docstatus
	`
	_, err := c.q.ExecContext(ctx, query,
		a.Name, a.Employee, a.EmployeeName, a.LeaveType, formatDate(a.FromDate), formatDate(a.ToDate),
		a.NewLeavesAllocated.String(), a.CarryForward, a.UnusedLeaves.String(), a.TotalLeavesAllocated.String(),
		a.CarryForwardedLeavesCount.String(), a.Expired, int(a.DocStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to save allocation: %w", err)
	}
	return nil
}

func (c conn) ListAllocations(ctx context.Context, employee, leaveType string) ([]leave.Allocation, error) {
	where, args := employeeTypeFilter(employee, leaveType)
	rows, err := c.q.QueryContext(ctx,
		"SELECT "+allocationColumns+" FROM leave_allocations"+where+" ORDER BY from_date ASC, name ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list allocations: %w", err)
	}
	defer rows.Close()

	var allocations []leave.Allocation
	for rows.Next() {
		a, err := scanAllocation(rows)
		if err != nil {
			return nil, err
		}
		allocations = append(allocations, a)
	}
	return allocations, rows.Err()
}

const applicationColumns = `name, employee, leave_type, company, from_date, to_date,
	total_leave_days, status, docstatus`

func scanApplication(row interface{ Scan(...any) error }) (leave.Application, error) {
	var (
		app             leave.Application
		from, to, total string
		status          string
		docStatus       int
	)
	err := row.Scan(&app.Name, &app.Employee, &app.LeaveType, &app.Company, &from, &to,
		&total, &status, &docStatus)
	if err != nil {
		return app, err
	}
	app.FromDate = parseDate(from)
	app.ToDate = parseDate(to)
	app.TotalLeaveDays = parseDecimal(total)
	app.Status = leave.ApplicationStatus(status)
	app.DocStatus = generic.DocStatus(docStatus)
	return app, nil
}

func (c conn) GetApplication(ctx context.Context, name string) (*leave.Application, error) {
	row := c.q.QueryRowContext(ctx, "SELECT "+applicationColumns+" FROM leave_applications WHERE name = ?", name)
	app, err := scanApplication(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get application: %w", err)
	}
	return &app, nil
}

func (c conn) SaveApplication(ctx context.Context, app leave.Application) error {
	query := `
		INSERT INTO leave_applications (` + applicationColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			employee = excluded.employee,
			leave_type = excluded.leave_type,
			company = excluded.company,
			from_date = excluded.from_date,
			to_date = excluded.to_date,
			total_leave_days = excluded.total_leave_days,
			status = excluded.status,
			docstatus = excluded.docstatus
	`
	_, err := c.q.ExecContext(ctx, query,
		app.Name, app.Employee, app.LeaveType, app.Company, formatDate(app.FromDate), formatDate(app.ToDate),
		app.TotalLeaveDays.String(), string(app.Status), int(app.DocStatus),
	)
	if err != nil {
		return fmt.Errorf("failed to save application: %w", err)
	}
	return nil
}

func (c conn) ListApplications(ctx context.Context, employee, leaveType string) ([]leave.Application, error) {
	where, args := employeeTypeFilter(employee, leaveType)
	rows, err := c.q.QueryContext(ctx,
		"SELECT "+applicationColumns+" FROM leave_applications"+where+" ORDER BY from_date ASC, name ASC", args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications: %w", err)
	}
	defer rows.Close()

	var apps []leave.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		apps = append(apps, app)
	}
	return apps, rows.Err()
}

// =============================================================================
// LEDGER
// =============================================================================

func (c conn) AppendLedgerEntries(ctx context.Context, entries []leave.LedgerEntry) error {
	query := `
		INSERT INTO leave_ledger_entries
		(id, employee, leave_type, transaction_type, transaction_name, leaves,
		 from_date, to_date, is_carry_forward, is_expired, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`
	for _, e := range entries {
		createdAt := e.CreatedAt
		if createdAt.IsZero() {
			createdAt = time.Now()
		}
		_, err := c.q.ExecContext(ctx, query,
			e.ID, e.Employee, e.LeaveType, string(e.TransactionType), e.TransactionName, e.Leaves.String(),
			formatDate(e.FromDate), formatDate(e.ToDate), e.IsCarryForward, e.IsExpired,
			createdAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			if isUniqueConstraintError(err) {
				return fmt.Errorf("%w: ledger entry %s", generic.ErrDuplicate, e.ID)
			}
			return fmt.Errorf("failed to append ledger entry: %w", err)
		}
	}
	return nil
}

func (c conn) DeleteLedgerEntries(ctx context.Context, txType leave.TransactionType, txName string) error {
	_, err := c.q.ExecContext(ctx,
		"DELETE FROM leave_ledger_entries WHERE transaction_type = ? AND transaction_name = ?",
		string(txType), txName)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entries: %w", err)
	}
	return nil
}

func (c conn) LedgerEntries(ctx context.Context, filter leave.LedgerFilter) ([]leave.LedgerEntry, error) {
	var (
		conds []string
		args  []any
	)
	if filter.Employee != "" {
		conds = append(conds, "employee = ?")
		args = append(args, filter.Employee)
	}
	if filter.LeaveType != "" {
		conds = append(conds, "leave_type = ?")
		args = append(args, filter.LeaveType)
	}
	if filter.TransactionType != "" {
		conds = append(conds, "transaction_type = ?")
		args = append(args, string(filter.TransactionType))
	}
	if filter.TransactionName != "" {
		conds = append(conds, "transaction_name = ?")
		args = append(args, filter.TransactionName)
	}

	query := `
		SELECT id, employee, leave_type, transaction_type, transaction_name, leaves,
		       from_date, to_date, is_carry_forward, is_expired, created_at
		FROM leave_ledger_entries`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY from_date ASC, seq ASC"

	rows, err := c.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []leave.LedgerEntry
	for rows.Next() {
		var (
			e                   leave.LedgerEntry
			txType, leaves      string
			from, to, createdAt string
		)
		err := rows.Scan(&e.ID, &e.Employee, &e.LeaveType, &txType, &e.TransactionName, &leaves,
			&from, &to, &e.IsCarryForward, &e.IsExpired, &createdAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		e.TransactionType = leave.TransactionType(txType)
		e.Leaves = parseDecimal(leaves)
		e.FromDate = parseDate(from)
		e.ToDate = parseDate(to)
		e.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func employeeTypeFilter(employee, leaveType string) (string, []any) {
	var (
		conds []string
		args  []any
	)
	if employee != "" {
		conds = append(conds, "employee = ?")
		args = append(args, employee)
	}
	if leaveType != "" {
		conds = append(conds, "leave_type = ?")
		args = append(args, leaveType)
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}
