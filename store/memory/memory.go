// Package memory provides an in-memory leave.Store for tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/warp/erp-engine/leave"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dev)
// =============================================================================

type Store struct {
	mu sync.RWMutex
	state
}

// state holds the records. Its methods never lock; Store locks around them
// and the transactional view runs them under the lock held by WithTx.
type state struct {
	employees    map[string]leave.Employee
	leaveTypes   map[string]leave.LeaveType
	allocations  map[string]leave.Allocation
	applications map[string]leave.Application
	ledger       []leave.LedgerEntry
}

func New() *Store {
	return &Store{state: newState()}
}

func newState() state {
	return state{
		employees:    make(map[string]leave.Employee),
		leaveTypes:   make(map[string]leave.LeaveType),
		allocations:  make(map[string]leave.Allocation),
		applications: make(map[string]leave.Application),
	}
}

var (
	_ leave.Store = (*Store)(nil)
	_ leave.Store = (*txView)(nil)
)

func (m *Store) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getEmployee(id), nil
}

func (m *Store) SaveEmployee(_ context.Context, emp leave.Employee) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.employees[emp.ID] = emp
	return nil
}

func (m *Store) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listEmployees(), nil
}

func (m *Store) GetLeaveType(_ context.Context, name string) (*leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getLeaveType(name), nil
}

func (m *Store) SaveLeaveType(_ context.Context, lt leave.LeaveType) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leaveTypes[lt.Name] = lt
	return nil
}

func (m *Store) ListLeaveTypes(_ context.Context) ([]leave.LeaveType, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listLeaveTypes(), nil
}

func (m *Store) GetAllocation(_ context.Context, name string) (*leave.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getAllocation(name), nil
}

func (m *Store) SaveAllocation(_ context.Context, a leave.Allocation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.allocations[a.Name] = a
	return nil
}

func (m *Store) ListAllocations(_ context.Context, employee, leaveType string) ([]leave.Allocation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listAllocations(employee, leaveType), nil
}

func (m *Store) GetApplication(_ context.Context, name string) (*leave.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.getApplication(name), nil
}

func (m *Store) SaveApplication(_ context.Context, app leave.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applications[app.Name] = app
	return nil
}

func (m *Store) ListApplications(_ context.Context, employee, leaveType string) ([]leave.Application, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listApplications(employee, leaveType), nil
}

// AppendLedgerEntries adds entries atomically.
func (m *Store) AppendLedgerEntries(_ context.Context, entries []leave.LedgerEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLocked(entries)
	return nil
}

func (m *Store) DeleteLedgerEntries(_ context.Context, txType leave.TransactionType, txName string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleteLocked(txType, txName)
	return nil
}

func (m *Store) LedgerEntries(_ context.Context, filter leave.LedgerFilter) ([]leave.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.ledgerEntries(filter), nil
}

// =============================================================================
// TRANSACTIONS
// =============================================================================

// WithTx executes fn within a transaction.
// For memory store, this is simulated with a snapshot + rollback on error.
func (m *Store) WithTx(_ context.Context, fn func(leave.Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	snapshot := m.snapshot()
	if err := fn(&txView{parent: m}); err != nil {
		m.state = snapshot
		return err
	}
	return nil
}

func (m *Store) snapshot() state {
	s := newState()
	for k, v := range m.employees {
		s.employees[k] = v
	}
	for k, v := range m.leaveTypes {
		s.leaveTypes[k] = v
	}
	for k, v := range m.allocations {
		s.allocations[k] = v
	}
	for k, v := range m.applications {
		s.applications[k] = v
	}
	s.ledger = append([]leave.LedgerEntry(nil), m.ledger...)
	return s
}

type txView struct {
	parent *Store
}

func (tv *txView) GetEmployee(_ context.Context, id string) (*leave.Employee, error) {
	return tv.parent.getEmployee(id), nil
}

func (tv *txView) SaveEmployee(_ context.Context, emp leave.Employee) error {
	tv.parent.employees[emp.ID] = emp
	return nil
}

func (tv *txView) ListEmployees(_ context.Context) ([]leave.Employee, error) {
	return tv.parent.listEmployees(), nil
}

func (tv *txView) GetLeaveType(_ context.Context, name string) (*leave.LeaveType, error) {
	return tv.parent.getLeaveType(name), nil
}

func (tv *txView) SaveLeaveType(_ context.Context, lt leave.LeaveType) error {
	tv.parent.leaveTypes[lt.Name] = lt
	return nil
}

func (tv *txView) ListLeaveTypes(_ context.Context) ([]leave.LeaveType, error) {
	return tv.parent.listLeaveTypes(), nil
}

func (tv *txView) GetAllocation(_ context.Context, name string) (*leave.Allocation, error) {
	return tv.parent.getAllocation(name), nil
}

func (tv *txView) SaveAllocation(_ context.Context, a leave.Allocation) error {
	tv.parent.allocations[a.Name] = a
	return nil
}

func (tv *txView) ListAllocations(_ context.Context, employee, leaveType string) ([]leave.Allocation, error) {
	return tv.parent.listAllocations(employee, leaveType), nil
}

func (tv *txView) GetApplication(_ context.Context, name string) (*leave.Application, error) {
	return tv.parent.getApplication(name), nil
}

func (tv *txView) SaveApplication(_ context.Context, app leave.Application) error {
	tv.parent.applications[app.Name] = app
	return nil
}

func (tv *txView) ListApplications(_ context.Context, employee, leaveType string) ([]leave.Application, error) {
	return tv.parent.listApplications(employee, leaveType), nil
}

func (tv *txView) AppendLedgerEntries(_ context.Context, entries []leave.LedgerEntry) error {
	tv.parent.appendLocked(entries)
	return nil
}

func (tv *txView) DeleteLedgerEntries(_ context.Context, txType leave.TransactionType, txName string) error {
	tv.parent.deleteLocked(txType, txName)
	return nil
}

func (tv *txView) LedgerEntries(_ context.Context, filter leave.LedgerFilter) ([]leave.LedgerEntry, error) {
	return tv.parent.ledgerEntries(filter), nil
}

// WithTx inside a transaction joins the outer one.
func (tv *txView) WithTx(_ context.Context, fn func(leave.Store) error) error {
	return fn(tv)
}

// =============================================================================
// LOCK-FREE HELPERS
// =============================================================================

func (s *state) getEmployee(id string) *leave.Employee {
	emp, ok := s.employees[id]
	if !ok {
		return nil
	}
	return &emp
}

func (s *state) listEmployees() []leave.Employee {
	out := make([]leave.Employee, 0, len(s.employees))
	for _, emp := range s.employees {
		out = append(out, emp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *state) getLeaveType(name string) *leave.LeaveType {
	lt, ok := s.leaveTypes[name]
	if !ok {
		return nil
	}
	return &lt
}

func (s *state) listLeaveTypes() []leave.LeaveType {
	out := make([]leave.LeaveType, 0, len(s.leaveTypes))
	for _, lt := range s.leaveTypes {
		out = append(out, lt)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *state) getAllocation(name string) *leave.Allocation {
	a, ok := s.allocations[name]
	if !ok {
		return nil
	}
	return &a
}

func (s *state) listAllocations(employee, leaveType string) []leave.Allocation {
	var out []leave.Allocation
	for _, a := range s.allocations {
		if employee != "" && a.Employee != employee {
			continue
		}
		if leaveType != "" && a.LeaveType != leaveType {
			continue
		}
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FromDate.Equal(out[j].FromDate) {
			return out[i].FromDate.Before(out[j].FromDate)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *state) getApplication(name string) *leave.Application {
	app, ok := s.applications[name]
	if !ok {
		return nil
	}
	return &app
}

func (s *state) listApplications(employee, leaveType string) []leave.Application {
	var out []leave.Application
	for _, app := range s.applications {
		if employee != "" && app.Employee != employee {
			continue
		}
		if leaveType != "" && app.LeaveType != leaveType {
			continue
		}
		out = append(out, app)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].FromDate.Equal(out[j].FromDate) {
			return out[i].FromDate.Before(out[j].FromDate)
		}
		return out[i].Name < out[j].Name
	})
	return out
}

// appendLocked keeps the ledger ordered by from date, insertion order on ties.
func (s *state) appendLocked(entries []leave.LedgerEntry) {
	for _, e := range entries {
		i := sort.Search(len(s.ledger), func(i int) bool {
			return s.ledger[i].FromDate.After(e.FromDate)
		})
		s.ledger = append(s.ledger, leave.LedgerEntry{})
		copy(s.ledger[i+1:], s.ledger[i:])
		s.ledger[i] = e
	}
}

func (s *state) deleteLocked(txType leave.TransactionType, txName string) {
	kept := s.ledger[:0]
	for _, e := range s.ledger {
		if e.TransactionType == txType && e.TransactionName == txName {
			continue
		}
		kept = append(kept, e)
	}
	s.ledger = kept
}

func (s *state) ledgerEntries(filter leave.LedgerFilter) []leave.LedgerEntry {
	var out []leave.LedgerEntry
	for _, e := range s.ledger {
		if filter.Match(e) {
			out = append(out, e)
		}
	}
	return out
}
