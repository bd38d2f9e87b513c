package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/erp-engine/sales"
)

// =============================================================================
// COMPANY HANDLERS
// =============================================================================

func (h *Handler) ListCompanies(w http.ResponseWriter, r *http.Request) {
	companies, err := h.Store.ListCompanies(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list companies", err)
		return
	}
	if companies == nil {
		companies = []sales.Company{}
	}
	writeJSON(w, http.StatusOK, companies)
}

func (h *Handler) SaveCompany(w http.ResponseWriter, r *http.Request) {
	var req CompanyRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid company", err)
		return
	}

	c := sales.Company{Name: req.Name, DefaultCurrency: req.DefaultCurrency}
	if err := h.Store.SaveCompany(r.Context(), c); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save company", err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

// =============================================================================
// SALES ORDER HANDLERS
// =============================================================================

// ListSalesOrders lists orders, optionally of one company.
// GET /api/sales-orders?company=
func (h *Handler) ListSalesOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.Store.ListSalesOrders(r.Context(), r.URL.Query().Get("company"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales orders", err)
		return
	}

	dtos := make([]SalesOrderDTO, len(orders))
	for i, so := range orders {
		dtos[i] = toSalesOrderDTO(so)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetSalesOrder(w http.ResponseWriter, r *http.Request) {
	so, err := h.Store.GetSalesOrder(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get sales order", err)
		return
	}
	if so == nil {
		writeError(w, http.StatusNotFound, "Sales order not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSalesOrderDTO(*so))
}

// SaveSalesOrder creates or replaces an order with its items and payment
// schedule.
func (h *Handler) SaveSalesOrder(w http.ResponseWriter, r *http.Request) {
	var req SalesOrderDTO
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sales order", err)
		return
	}

	so := req.toSalesOrder()
	if err := h.Store.SaveSalesOrder(r.Context(), so); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save sales order", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSalesOrderDTO(so))
}

// =============================================================================
// SALES INVOICE HANDLERS
// =============================================================================

func (h *Handler) ListSalesInvoices(w http.ResponseWriter, r *http.Request) {
	invoices, err := h.Store.ListSalesInvoices(r.Context(), r.URL.Query().Get("company"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sales invoices", err)
		return
	}

	dtos := make([]SalesInvoiceDTO, len(invoices))
	for i, si := range invoices {
		dtos[i] = toSalesInvoiceDTO(si)
	}
	writeJSON(w, http.StatusOK, dtos)
}

func (h *Handler) GetSalesInvoice(w http.ResponseWriter, r *http.Request) {
	si, err := h.Store.GetSalesInvoice(r.Context(), chi.URLParam(r, "name"))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get sales invoice", err)
		return
	}
	if si == nil {
		writeError(w, http.StatusNotFound, "Sales invoice not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toSalesInvoiceDTO(*si))
}

func (h *Handler) SaveSalesInvoice(w http.ResponseWriter, r *http.Request) {
	var req SalesInvoiceDTO
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid sales invoice", err)
		return
	}

	si := req.toSalesInvoice()
	if err := h.Store.SaveSalesInvoice(r.Context(), si); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to save sales invoice", err)
		return
	}
	writeJSON(w, http.StatusCreated, toSalesInvoiceDTO(si))
}

// =============================================================================
// REPORTS
// =============================================================================

// PaymentTermsStatus runs the payment terms status report.
// GET /api/reports/payment-terms-status?company=&period_start_date=&period_end_date=&sales_order=
// sales_order may be repeated.
func (h *Handler) PaymentTermsStatus(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	start, err := queryDate(r, "period_start_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_start_date", err)
		return
	}
	end, err := queryDate(r, "period_end_date")
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid period_end_date", err)
		return
	}
	if !start.IsZero() && !end.IsZero() && end.Before(start) {
		writeError(w, http.StatusBadRequest, "period_end_date is before period_start_date", nil)
		return
	}

	filters := sales.Filters{
		Company:         q.Get("company"),
		PeriodStartDate: start,
		PeriodEndDate:   end,
		SalesOrders:     q["sales_order"],
	}

	result, err := h.Report.Execute(r.Context(), filters)
	if err != nil {
		h.writeServiceError(w, r, "Failed to run payment terms status report", err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
