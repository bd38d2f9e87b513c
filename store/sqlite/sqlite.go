/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Persists leave records, the leave ledger, holidays and sales documents.
  In production, the same patterns apply to PostgreSQL - only minor SQL
  dialect differences.

INTERFACES IMPLEMENTED:
  leave.Store:             Employees, leave types, allocations, applications, ledger
  sales.Store:             Companies, sales orders, sales invoices, report queries
  generic.HolidayCalendar: Company and global holidays

KEY TABLES:
  leave_ledger_entries:  Signed leave movements per allocation/application
  leave_allocations:     Allocation documents with docstatus
  payment_schedules:     Installments of a sales order (child of sales_orders)
  sales_invoice_items:   Invoice lines pointing at sales order items

STORAGE FORMATS:
  Dates are TEXT "YYYY-MM-DD" so range filters compare as strings.
  Decimals are TEXT to keep exact values.

CONCURRENCY:
  Uses sync.RWMutex for thread-safety. WithTx holds the write lock for the
  whole unit of work; the transactional view never locks again. Holidays
  are served from an in-process copy so leave day counting inside a
  transaction never touches the pool.

USAGE:
  store, err := sqlite.New("./data/erp.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  svc := leave.NewService(store, leave.WithHolidays(store))

MIGRATION:
  Schema is auto-migrated on New(). Open() wraps an existing *sql.DB
  without migrating.
*/
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"github.com/warp/erp-engine/generic"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex

	hmu      sync.RWMutex
	holidays generic.StaticHolidayCalendar
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// Every pooled connection to :memory: would be a separate database.
	if dbPath == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	store := Open(db)
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	if err := store.loadHolidays(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load holidays: %w", err)
	}

	return store, nil
}

// Open wraps an already opened database. The schema is assumed to exist.
func Open(db *sql.DB) *Store {
	return &Store{db: db}
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	-- Employees
	CREATE TABLE IF NOT EXISTS employees (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		company TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL
	);

	-- Leave types
	CREATE TABLE IF NOT EXISTS leave_types (
		name TEXT PRIMARY KEY,
		is_carry_forward BOOLEAN NOT NULL DEFAULT FALSE,
		maximum_carry_forwarded_leaves TEXT NOT NULL DEFAULT '0',
		max_leaves_allowed TEXT NOT NULL DEFAULT '0',
		expire_carry_forwarded_leaves_after_days INTEGER NOT NULL DEFAULT 0,
		is_lwp BOOLEAN NOT NULL DEFAULT FALSE,
		is_earned_leave BOOLEAN NOT NULL DEFAULT FALSE,
		is_compensatory BOOLEAN NOT NULL DEFAULT FALSE,
		allow_negative BOOLEAN NOT NULL DEFAULT FALSE,
		include_holiday BOOLEAN NOT NULL DEFAULT FALSE
	);

	-- Leave allocations
	CREATE TABLE IF NOT EXISTS leave_allocations (
		name TEXT PRIMARY KEY,
		employee TEXT NOT NULL,
		employee_name TEXT NOT NULL DEFAULT '',
		leave_type TEXT NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		new_leaves_allocated TEXT NOT NULL,
		carry_forward BOOLEAN NOT NULL DEFAULT FALSE,
		unused_leaves TEXT NOT NULL DEFAULT '0',
		total_leaves_allocated TEXT NOT NULL DEFAULT '0',
		carry_forwarded_leaves_count TEXT NOT NULL DEFAULT '0',
		expired BOOLEAN NOT NULL DEFAULT FALSE,
		docstatus INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_allocations_employee_type
		ON leave_allocations(employee, leave_type, from_date);

	-- Leave applications
	CREATE TABLE IF NOT EXISTS leave_applications (
		name TEXT PRIMARY KEY,
		employee TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		company TEXT NOT NULL DEFAULT '',
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		total_leave_days TEXT NOT NULL DEFAULT '0',
		status TEXT NOT NULL DEFAULT 'Open',
		docstatus INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_applications_employee_type
		ON leave_applications(employee, leave_type, from_date);

	-- Leave ledger
	CREATE TABLE IF NOT EXISTS leave_ledger_entries (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		employee TEXT NOT NULL,
		leave_type TEXT NOT NULL,
		transaction_type TEXT NOT NULL,
		transaction_name TEXT NOT NULL,
		leaves TEXT NOT NULL,
		from_date TEXT NOT NULL,
		to_date TEXT NOT NULL,
		is_carry_forward BOOLEAN NOT NULL DEFAULT FALSE,
		is_expired BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_ledger_employee_type
		ON leave_ledger_entries(employee, leave_type, from_date);
	CREATE INDEX IF NOT EXISTS idx_ledger_transaction
		ON leave_ledger_entries(transaction_type, transaction_name);

	-- Holidays (company-specific and global)
	CREATE TABLE IF NOT EXISTS holidays (
		id TEXT PRIMARY KEY,
		company_id TEXT NOT NULL DEFAULT '',
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		recurring BOOLEAN DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_holidays_company_date
		ON holidays(company_id, date);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_holidays_unique
		ON holidays(company_id, date, name);

	-- Companies
	CREATE TABLE IF NOT EXISTS companies (
		name TEXT PRIMARY KEY,
		default_currency TEXT NOT NULL DEFAULT ''
	);

	-- Sales orders
	CREATE TABLE IF NOT EXISTS sales_orders (
		name TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		customer TEXT NOT NULL DEFAULT '',
		transaction_date TEXT NOT NULL,
		payment_terms_template TEXT,
		docstatus INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sales_orders_company_date
		ON sales_orders(company, transaction_date);

	CREATE TABLE IF NOT EXISTS sales_order_items (
		name TEXT PRIMARY KEY,
		parent TEXT NOT NULL,
		idx INTEGER NOT NULL,
		item_code TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_sales_order_items_parent
		ON sales_order_items(parent);

	CREATE TABLE IF NOT EXISTS payment_schedules (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		parent TEXT NOT NULL,
		idx INTEGER NOT NULL,
		payment_term TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		due_date TEXT NOT NULL,
		invoice_portion TEXT NOT NULL DEFAULT '0',
		base_payment_amount TEXT NOT NULL DEFAULT '0',
		paid_amount TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_payment_schedules_parent
		ON payment_schedules(parent, due_date);

	-- Sales invoices
	CREATE TABLE IF NOT EXISTS sales_invoices (
		name TEXT PRIMARY KEY,
		company TEXT NOT NULL,
		customer TEXT NOT NULL DEFAULT '',
		posting_date TEXT NOT NULL,
		base_grand_total TEXT NOT NULL DEFAULT '0',
		docstatus INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sales_invoice_items (
		name TEXT PRIMARY KEY,
		parent TEXT NOT NULL,
		idx INTEGER NOT NULL,
		sales_order TEXT NOT NULL DEFAULT '',
		so_detail TEXT NOT NULL DEFAULT '',
		amount TEXT NOT NULL DEFAULT '0'
	);

	CREATE INDEX IF NOT EXISTS idx_sales_invoice_items_parent
		ON sales_invoice_items(parent);
	CREATE INDEX IF NOT EXISTS idx_sales_invoice_items_sales_order
		ON sales_invoice_items(sales_order);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// QUERIER - shared by the pool and by open transactions
// =============================================================================

type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// conn runs queries without locking. Store locks around it; txStore runs
// it under the lock WithTx already holds.
type conn struct {
	q querier
}

func (s *Store) conn() conn {
	return conn{q: s.db}
}

// withSQLTx runs fn inside a database transaction. Callers hold s.mu.
func (s *Store) withSQLTx(ctx context.Context, fn func(c conn) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(conn{q: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("%w: %v", generic.ErrTransactionFailed, err)
	}
	return nil
}

// Reset clears all data (for testing/demo).
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tables := []string{
		"leave_ledger_entries", "leave_applications", "leave_allocations",
		"leave_types", "employees", "holidays", "companies",
		"payment_schedules", "sales_order_items", "sales_orders",
		"sales_invoice_items", "sales_invoices",
	}
	err := s.withSQLTx(ctx, func(c conn) error {
		for _, t := range tables {
			if _, err := c.q.ExecContext(ctx, "DELETE FROM "+t); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.hmu.Lock()
	s.holidays.Holidays = nil
	s.hmu.Unlock()
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func formatDate(tp generic.TimePoint) string {
	if tp.IsZero() {
		return ""
	}
	return tp.String()
}

func parseDate(s string) generic.TimePoint {
	if s == "" {
		return generic.TimePoint{}
	}
	tp, err := generic.ParseDate(s)
	if err != nil {
		return generic.TimePoint{}
	}
	return tp
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// placeholders returns "?, ?, ?" with n markers and the values as args.
func placeholders(values []string) (string, []any) {
	marks := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		marks[i] = "?"
		args[i] = v
	}
	return strings.Join(marks, ", "), args
}

func isUniqueConstraintError(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "duplicate key"))
}
