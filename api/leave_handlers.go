package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/warp/erp-engine/generic"
	"github.com/warp/erp-engine/leave"
)

// =============================================================================
// EMPLOYEE HANDLERS
// =============================================================================

// ListEmployees returns all employees.
func (h *Handler) ListEmployees(w http.ResponseWriter, r *http.Request) {
	employees, err := h.Leave.Store().ListEmployees(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list employees", err)
		return
	}

	dtos := make([]EmployeeDTO, len(employees))
	for i, e := range employees {
		dtos[i] = toEmployeeDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// GetEmployee returns a single employee.
func (h *Handler) GetEmployee(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	emp, err := h.Leave.Store().GetEmployee(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get employee", err)
		return
	}
	if emp == nil {
		writeError(w, http.StatusNotFound, "Employee not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toEmployeeDTO(*emp))
}

// CreateEmployee creates or replaces an employee.
func (h *Handler) CreateEmployee(w http.ResponseWriter, r *http.Request) {
	var req CreateEmployeeRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid employee", err)
		return
	}

	emp := leave.Employee{
		ID:        req.ID,
		Name:      req.Name,
		Company:   req.Company,
		CreatedAt: time.Now().UTC(),
	}
	if err := h.Leave.Store().SaveEmployee(r.Context(), emp); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create employee", err)
		return
	}
	writeJSON(w, http.StatusCreated, toEmployeeDTO(emp))
}

// GetLeaveBalance returns the leaves available on a date.
// GET /api/employees/{id}/leave-balance?leave_type=&date=
func (h *Handler) GetLeaveBalance(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	leaveType := r.URL.Query().Get("leave_type")
	if leaveType == "" {
		writeError(w, http.StatusBadRequest, "leave_type is required", nil)
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if date.IsZero() {
		date = generic.Today()
	}

	balance, err := h.Leave.Balance(r.Context(), id, leaveType, date)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, BalanceDTO{
		Employee:  id,
		LeaveType: leaveType,
		Date:      date,
		Balance:   balance.Value,
		Unit:      string(balance.Unit),
	})
}

// =============================================================================
// LEAVE TYPE HANDLERS
// =============================================================================

func (h *Handler) ListLeaveTypes(w http.ResponseWriter, r *http.Request) {
	types, err := h.Leave.Store().ListLeaveTypes(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list leave types", err)
		return
	}

	dtos := make([]LeaveTypeDTO, len(types))
	for i, lt := range types {
		dtos[i] = toLeaveTypeDTO(lt)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetLeaveType(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	lt, err := h.Leave.Store().GetLeaveType(r.Context(), name)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get leave type", err)
		return
	}
	if lt == nil {
		writeError(w, http.StatusNotFound, "Leave type not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toLeaveTypeDTO(*lt))
}

// SaveLeaveType creates or replaces a leave type.
func (h *Handler) SaveLeaveType(w http.ResponseWriter, r *http.Request) {
	var req LeaveTypeDTO
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid leave type", err)
		return
	}
	if req.MaxLeavesAllowed.IsNegative() || req.MaximumCarryForwardedLeaves.IsNegative() {
		writeError(w, http.StatusBadRequest, "Leave limits cannot be negative", nil)
		return
	}

	if err := h.Leave.Store().SaveLeaveType(r.Context(), req.toLeaveType()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save leave type", err)
		return
	}
	writeJSON(w, http.StatusCreated, req)
}

// =============================================================================
// ALLOCATION HANDLERS
// =============================================================================

// ListAllocations lists allocations, optionally filtered.
// GET /api/leave-allocations?employee=&leave_type=
func (h *Handler) ListAllocations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	allocations, err := h.Leave.Store().ListAllocations(r.Context(), q.Get("employee"), q.Get("leave_type"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list allocations", err)
		return
	}

	dtos := make([]AllocationDTO, len(allocations))
	for i, a := range allocations {
		dtos[i] = toAllocationDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetAllocation(w http.ResponseWriter, r *http.Request) {
	a, err := h.Leave.GetAllocation(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to get allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(*a))
}

// CreateAllocation validates and stores a draft, or submits it straight
// away when the request asks for it.
// POST /api/leave-allocations
func (h *Handler) CreateAllocation(w http.ResponseWriter, r *http.Request) {
	var req CreateAllocationRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid allocation", err)
		return
	}

	a := req.toAllocation()
	if err := h.Leave.Save(r.Context(), &a); err != nil {
		h.writeServiceError(w, r, "Failed to save allocation", err)
		return
	}
	writeJSON(w, http.StatusCreated, toAllocationDTO(a))
}

// SubmitAllocation submits a stored draft.
// POST /api/leave-allocations/{name}/submit
func (h *Handler) SubmitAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	a, err := h.Leave.GetAllocation(ctx, chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to get allocation", err)
		return
	}
	if err := h.Leave.Submit(ctx, a); err != nil {
		h.writeServiceError(w, r, "Failed to submit allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(*a))
}

// UpdateAllocation changes the new leaves of an allocation. Drafts are
// re-validated; submitted allocations get a ledger delta.
// PUT /api/leave-allocations/{name}
func (h *Handler) UpdateAllocation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	name := chi.URLParam(r, "name")

	var req UpdateAllocationRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid allocation update", err)
		return
	}

	a, err := h.Leave.GetAllocation(ctx, name)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get allocation", err)
		return
	}

	if a.DocStatus == generic.DocDraft {
		a.NewLeavesAllocated = req.NewLeavesAllocated
		if err := h.Leave.Save(ctx, a); err != nil {
			h.writeServiceError(w, r, "Failed to update allocation", err)
			return
		}
		writeJSON(w, http.StatusOK, toAllocationDTO(*a))
		return
	}

	updated, err := h.Leave.UpdateAfterSubmit(ctx, name, req.NewLeavesAllocated)
	if err != nil {
		h.writeServiceError(w, r, "Failed to update allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(*updated))
}

// CancelAllocation cancels a submitted allocation.
// POST /api/leave-allocations/{name}/cancel
func (h *Handler) CancelAllocation(w http.ResponseWriter, r *http.Request) {
	a, err := h.Leave.Cancel(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to cancel allocation", err)
		return
	}
	writeJSON(w, http.StatusOK, toAllocationDTO(*a))
}

// GetCarryForwardedLeaves previews what a new allocation starting on date
// would carry over.
// GET /api/leave-allocations/carry-forwarded-leaves?employee=&leave_type=&date=&carry_forward=
func (h *Handler) GetCarryForwardedLeaves(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	employee, leaveType := q.Get("employee"), q.Get("leave_type")
	if employee == "" || leaveType == "" {
		writeError(w, http.StatusBadRequest, "employee and leave_type are required", nil)
		return
	}
	date, err := queryDate(r, "date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid date", err)
		return
	}
	if date.IsZero() {
		date = generic.Today()
	}
	carryForward := true
	if v := q.Get("carry_forward"); v != "" {
		if carryForward, err = strconv.ParseBool(v); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid carry_forward", err)
			return
		}
	}

	leaves, err := h.Leave.CarryForwardedLeaves(r.Context(), employee, leaveType, date, carryForward)
	if err != nil {
		h.writeServiceError(w, r, "Failed to compute carry forwarded leaves", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"employee":               employee,
		"leave_type":             leaveType,
		"date":                   date,
		"carry_forwarded_leaves": leaves,
	})
}

// =============================================================================
// APPLICATION HANDLERS
// =============================================================================

// ListApplications lists applications, optionally filtered.
// GET /api/leave-applications?employee=&leave_type=
func (h *Handler) ListApplications(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	apps, err := h.Leave.Store().ListApplications(r.Context(), q.Get("employee"), q.Get("leave_type"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list applications", err)
		return
	}

	dtos := make([]ApplicationDTO, len(apps))
	for i, a := range apps {
		dtos[i] = toApplicationDTO(a)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.Leave.Store().GetApplication(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get application", err)
		return
	}
	if app == nil {
		writeError(w, http.StatusNotFound, "Leave application not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// CreateApplication stores a draft application and optionally submits it.
// POST /api/leave-applications
func (h *Handler) CreateApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req CreateApplicationRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid leave application", err)
		return
	}

	app := req.toApplication()
	if err := h.Leave.SaveApplication(ctx, &app); err != nil {
		h.writeServiceError(w, r, "Failed to save leave application", err)
		return
	}
	if req.Submit {
		if err := h.Leave.SubmitApplication(ctx, &app); err != nil {
			h.writeServiceError(w, r, "Failed to submit leave application", err)
			return
		}
	}
	writeJSON(w, http.StatusCreated, toApplicationDTO(app))
}

// SubmitApplication submits a stored draft, optionally setting its final
// status first.
// POST /api/leave-applications/{name}/submit
func (h *Handler) SubmitApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req SubmitApplicationRequest
	if r.ContentLength > 0 {
		if err := h.decode(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid submit request", err)
			return
		}
	}

	app, err := h.Leave.Store().GetApplication(ctx, chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get application", err)
		return
	}
	if app == nil {
		writeError(w, http.StatusNotFound, "Leave application not found", nil)
		return
	}
	if req.Status != "" {
		app.Status = leave.ApplicationStatus(req.Status)
	}

	if err := h.Leave.SubmitApplication(ctx, app); err != nil {
		h.writeServiceError(w, r, "Failed to submit leave application", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// CancelApplication cancels a submitted application and removes its
// ledger entries.
func (h *Handler) CancelApplication(w http.ResponseWriter, r *http.Request) {
	app, err := h.Leave.CancelApplication(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		h.writeServiceError(w, r, "Failed to cancel leave application", err)
		return
	}
	writeJSON(w, http.StatusOK, toApplicationDTO(*app))
}

// =============================================================================
// LEDGER HANDLERS
// =============================================================================

// ListLedgerEntries returns ledger entries for an employee.
// GET /api/leave-ledger?employee=&leave_type=&transaction_type=&transaction_name=
func (h *Handler) ListLedgerEntries(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := leave.LedgerFilter{
		Employee:        q.Get("employee"),
		LeaveType:       q.Get("leave_type"),
		TransactionType: leave.TransactionType(q.Get("transaction_type")),
		TransactionName: q.Get("transaction_name"),
	}
	if filter.Employee == "" {
		writeError(w, http.StatusBadRequest, "employee is required", nil)
		return
	}

	entries, err := h.Leave.LedgerEntries(r.Context(), filter)
	if err != nil {
		h.writeServiceError(w, r, "Failed to get ledger entries", err)
		return
	}

	dtos := make([]LedgerEntryDTO, len(entries))
	for i, e := range entries {
		dtos[i] = toLedgerEntryDTO(e)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// ExpireAllocations runs expiry now instead of waiting for the scheduler.
// POST /api/leave-ledger/expire
func (h *Handler) ExpireAllocations(w http.ResponseWriter, r *http.Request) {
	n, err := h.Leave.ProcessExpiredAllocations(r.Context())
	if err != nil {
		h.writeServiceError(w, r, "Failed to process expired allocations", err)
		return
	}
	writeJSON(w, http.StatusOK, ExpiryResultDTO{ExpiryEntries: n})
}
