/*
scenarios.go - Demo scenario loaders for testing and demonstrations

PURPOSE:
  Provides pre-built scenarios that populate the database with realistic
  data for demos. Each scenario goes through the same services the API
  uses, so the data obeys every validation rule.

AVAILABLE SCENARIOS:
  carry-forward:   Two yearly allocations, unused leaves carried into the second
  leave-expiry:    Allocation from last year expired by the expiry run
  payment-terms:   Sales order with three installments, two invoices

HOW SCENARIOS WORK:
 1. Reset database (clear all data)
 2. Create company, employee and leave types
 3. Submit allocations / applications or sales documents
 4. Optionally run expiry

USAGE VIA API:
  POST /api/scenarios/load
  {"scenario_id": "carry-forward"}

NOTE:
  Scenarios reset the database. Only use in development/demo environments.
*/
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/erp-engine/generic"
	"github.com/warp/erp-engine/leave"
	"github.com/warp/erp-engine/sales"
	"go.uber.org/zap"
)

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "carry-forward",
		Name:        "Carry Forward",
		Description: "Yearly privilege leave with unused days carried into the next allocation",
		Category:    "leave",
	},
	{
		ID:          "leave-expiry",
		Name:        "Leave Expiry",
		Description: "Last year's casual leave expired by the expiry run",
		Category:    "leave",
	},
	{
		ID:          "payment-terms",
		Name:        "Payment Terms",
		Description: "Sales order with three installments, partly paid by two invoices",
		Category:    "sales",
	},
}

const demoCompany = "Demo Company"

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetCurrentScenario returns the currently loaded scenario, if any.
func (h *Handler) GetCurrentScenario(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	current := h.currentScenario
	h.mu.Unlock()

	for _, s := range scenarios {
		if s.ID == current {
			writeJSON(w, http.StatusOK, s)
			return
		}
	}
	writeJSON(w, http.StatusOK, nil)
}

// LoadScenario resets the database and loads a scenario.
// POST /api/scenarios/load
func (h *Handler) LoadScenario(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req LoadScenarioRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	var load func(context.Context) error
	switch req.ScenarioID {
	case "carry-forward":
		load = h.loadCarryForwardScenario
	case "leave-expiry":
		load = h.loadLeaveExpiryScenario
	case "payment-terms":
		load = h.loadPaymentTermsScenario
	default:
		writeError(w, http.StatusBadRequest, "Unknown scenario", fmt.Errorf("scenario %q", req.ScenarioID))
		return
	}

	if err := h.Store.Reset(ctx); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	if err := load(ctx); err != nil {
		h.writeServiceError(w, r, "Failed to load scenario", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = req.ScenarioID
	h.mu.Unlock()

	h.log.Info("scenario loaded", zap.String("scenario", req.ScenarioID))
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "loaded",
		"scenario": req.ScenarioID,
	})
}

// ResetDatabase clears all data.
// POST /api/scenarios/reset
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}

	h.mu.Lock()
	h.currentScenario = ""
	h.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]any{"status": "reset"})
}

// =============================================================================
// LOADERS
// =============================================================================

func (h *Handler) seedEmployee(ctx context.Context, id, name string) error {
	if err := h.Store.SaveCompany(ctx, sales.Company{Name: demoCompany, DefaultCurrency: "USD"}); err != nil {
		return err
	}
	return h.Leave.Store().SaveEmployee(ctx, leave.Employee{
		ID:        id,
		Name:      name,
		Company:   demoCompany,
		CreatedAt: time.Now().UTC(),
	})
}

// loadCarryForwardScenario: 15 days last year, 3 taken, so the 12 unused
// days are capped to 10 when this year's allocation carries them forward.
func (h *Handler) loadCarryForwardScenario(ctx context.Context) error {
	year := time.Now().Year()

	if err := h.seedEmployee(ctx, "EMP-001", "Alice Martin"); err != nil {
		return err
	}
	err := h.Leave.Store().SaveLeaveType(ctx, leave.LeaveType{
		Name:                        "Privilege Leave",
		IsCarryForward:              true,
		MaximumCarryForwardedLeaves: decimal.NewFromInt(10),
		MaxLeavesAllowed:            decimal.NewFromInt(30),
	})
	if err != nil {
		return err
	}

	last := leave.Allocation{
		Employee:           "EMP-001",
		LeaveType:          "Privilege Leave",
		FromDate:           generic.StartOfYear(year - 1),
		ToDate:             generic.EndOfYear(year - 1),
		NewLeavesAllocated: decimal.NewFromInt(15),
	}
	if err := h.Leave.Submit(ctx, &last); err != nil {
		return fmt.Errorf("last year's allocation: %w", err)
	}

	taken := leave.Application{
		Employee:  "EMP-001",
		LeaveType: "Privilege Leave",
		FromDate:  generic.NewTimePoint(year-1, time.March, 10),
		ToDate:    generic.NewTimePoint(year-1, time.March, 12),
		Status:    leave.ApplicationApproved,
	}
	if err := h.Leave.SaveApplication(ctx, &taken); err != nil {
		return err
	}
	if err := h.Leave.SubmitApplication(ctx, &taken); err != nil {
		return fmt.Errorf("leave application: %w", err)
	}

	current := leave.Allocation{
		Employee:           "EMP-001",
		LeaveType:          "Privilege Leave",
		FromDate:           generic.StartOfYear(year),
		ToDate:             generic.EndOfYear(year),
		NewLeavesAllocated: decimal.NewFromInt(15),
		CarryForward:       true,
	}
	if err := h.Leave.Submit(ctx, &current); err != nil {
		return fmt.Errorf("this year's allocation: %w", err)
	}
	return nil
}

// loadLeaveExpiryScenario leaves an allocation from last year unused and
// runs expiry over it.
func (h *Handler) loadLeaveExpiryScenario(ctx context.Context) error {
	year := time.Now().Year()

	if err := h.seedEmployee(ctx, "EMP-002", "Bruno Keller"); err != nil {
		return err
	}
	if err := h.Leave.Store().SaveLeaveType(ctx, leave.LeaveType{Name: "Casual Leave"}); err != nil {
		return err
	}

	a := leave.Allocation{
		Employee:           "EMP-002",
		LeaveType:          "Casual Leave",
		FromDate:           generic.StartOfYear(year - 1),
		ToDate:             generic.EndOfYear(year - 1),
		NewLeavesAllocated: decimal.NewFromInt(8),
	}
	if err := h.Leave.Submit(ctx, &a); err != nil {
		return err
	}

	_, err := h.Leave.ProcessExpiredAllocations(ctx)
	return err
}

// loadPaymentTermsScenario creates an order billed 30/30/40 with two
// submitted invoices covering the first installment and part of the second.
func (h *Handler) loadPaymentTermsScenario(ctx context.Context) error {
	today := generic.Today()

	if err := h.Store.SaveCompany(ctx, sales.Company{Name: demoCompany, DefaultCurrency: "USD"}); err != nil {
		return err
	}

	so := sales.SalesOrder{
		Name:                 "SO-DEMO-0001",
		Company:              demoCompany,
		Customer:             "Globex",
		TransactionDate:      today.AddDays(-20),
		PaymentTermsTemplate: "30-30-40",
		DocStatus:            generic.DocSubmitted,
		Items: []sales.SalesOrderItem{
			{Name: "SOI-DEMO-1", ItemCode: "WIDGET", Amount: decimal.NewFromInt(1000)},
		},
		PaymentSchedule: []sales.PaymentSchedule{
			{PaymentTerm: "Advance", Description: "On order", DueDate: today.AddDays(-20),
				InvoicePortion: decimal.NewFromInt(30), BasePaymentAmount: decimal.NewFromInt(300)},
			{PaymentTerm: "On Delivery", Description: "On delivery", DueDate: today.AddDays(-5),
				InvoicePortion: decimal.NewFromInt(30), BasePaymentAmount: decimal.NewFromInt(300)},
			{PaymentTerm: "Net 30", Description: "Balance", DueDate: today.AddDays(10),
				InvoicePortion: decimal.NewFromInt(40), BasePaymentAmount: decimal.NewFromInt(400)},
		},
	}
	if err := h.Store.SaveSalesOrder(ctx, so); err != nil {
		return err
	}

	invoices := []sales.SalesInvoice{
		{Name: "SINV-DEMO-0001", PostingDate: today.AddDays(-18), BaseGrandTotal: decimal.NewFromInt(300)},
		{Name: "SINV-DEMO-0002", PostingDate: today.AddDays(-4), BaseGrandTotal: decimal.NewFromInt(200)},
	}
	for _, si := range invoices {
		si.Company = demoCompany
		si.Customer = so.Customer
		si.DocStatus = generic.DocSubmitted
		si.Items = []sales.SalesInvoiceItem{
			{SalesOrder: so.Name, SODetail: "SOI-DEMO-1", Amount: si.BaseGrandTotal},
		}
		if err := h.Store.SaveSalesInvoice(ctx, si); err != nil {
			return err
		}
	}
	return nil
}
