/*
store.go - Persistence contract for leave records

PURPOSE:
  Defines the interface between the leave services and the database.
  Different implementations can use SQLite or in-memory storage.

KEY OPERATIONS:
  Records:        employees, leave types, allocations, applications (upsert)
  Ledger:         append entries, delete a transaction's entries, query
  Transactions:   WithTx runs a unit of work atomically

LEDGER MUTABILITY:
  Unlike an append-only balance log, the leave ledger mirrors its source
  documents: cancelling an allocation or application deletes the entries
  it created. Expiry and after-submit changes are new entries.

LOOKUPS:
  Get* methods return (nil, nil) when the record does not exist.

IMPLEMENTATIONS:
  - store/sqlite: SQLite
  - store/memory: In-memory for testing
*/
package leave

import "context"

// Store handles persistence of leave records and ledger entries.
type Store interface {
	GetEmployee(ctx context.Context, id string) (*Employee, error)
	SaveEmployee(ctx context.Context, emp Employee) error
	ListEmployees(ctx context.Context) ([]Employee, error)

	GetLeaveType(ctx context.Context, name string) (*LeaveType, error)
	SaveLeaveType(ctx context.Context, lt LeaveType) error
	ListLeaveTypes(ctx context.Context) ([]LeaveType, error)

	GetAllocation(ctx context.Context, name string) (*Allocation, error)
	SaveAllocation(ctx context.Context, a Allocation) error
	// ListAllocations returns allocations of every status ordered by
	// from date. Empty filters match everything.
	ListAllocations(ctx context.Context, employee, leaveType string) ([]Allocation, error)

	GetApplication(ctx context.Context, name string) (*Application, error)
	SaveApplication(ctx context.Context, app Application) error
	ListApplications(ctx context.Context, employee, leaveType string) ([]Application, error)

	AppendLedgerEntries(ctx context.Context, entries []LedgerEntry) error
	DeleteLedgerEntries(ctx context.Context, txType TransactionType, txName string) error
	LedgerEntries(ctx context.Context, filter LedgerFilter) ([]LedgerEntry, error)

	// WithTx executes fn within a transaction.
	// If fn returns error, transaction is rolled back.
	WithTx(ctx context.Context, fn func(Store) error) error
}

// LedgerFilter selects ledger entries. Empty fields match everything.
type LedgerFilter struct {
	Employee        string
	LeaveType       string
	TransactionType TransactionType
	TransactionName string
}

func (f LedgerFilter) Match(e LedgerEntry) bool {
	if f.Employee != "" && e.Employee != f.Employee {
		return false
	}
	if f.LeaveType != "" && e.LeaveType != f.LeaveType {
		return false
	}
	if f.TransactionType != "" && e.TransactionType != f.TransactionType {
		return false
	}
	if f.TransactionName != "" && e.TransactionName != f.TransactionName {
		return false
	}
	return true
}
