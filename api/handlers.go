/*
handlers.go - HTTP API handlers for leave accounting and sales reporting

PURPOSE:
  Exposes the leave service and the payment terms report via REST API.
  Handles HTTP request/response, JSON serialization, and delegates to
  domain logic.

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Leave:  leave.Service (allocations, applications, ledger, expiry)
  - Store:  sales documents, holidays and reset
  - Report: sales.Report

REQUEST FLOW:
  1. Decode and validate the body (validator tags on the *Request types)
  2. Call domain logic
  3. Serialize response
  4. Map errors to status codes

ERROR HANDLING:
  Errors are returned as JSON {"error", "details"} with status:
  - 400: Validation errors, invalid input
  - 404: Record not found
  - 409: Document status conflicts, duplicates
  - 500: Internal errors

FILES:
  - leave_handlers.go: employees, leave types, allocations, applications, ledger
  - sales_handlers.go: companies, orders, invoices, report
  - scenarios.go:      demo data loaders
*/
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/warp/erp-engine/generic"
	"github.com/warp/erp-engine/leave"
	"github.com/warp/erp-engine/logger"
	"github.com/warp/erp-engine/sales"
	"go.uber.org/zap"
)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Store is what the handlers need beyond the leave service.
type Store interface {
	sales.Store

	SaveHoliday(ctx context.Context, h generic.Holiday) error
	DeleteHoliday(ctx context.Context, id string) error
	GetAllHolidays(ctx context.Context, companyID string) ([]generic.Holiday, error)

	// Reset clears every table. Used by demo scenarios.
	Reset(ctx context.Context) error
}

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Leave  *leave.Service
	Store  Store
	Report *sales.Report

	validate *validator.Validate
	log      *zap.Logger

	mu              sync.Mutex
	currentScenario string
}

// NewHandler creates a new handler.
func NewHandler(svc *leave.Service, store Store, report *sales.Report, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{
		Leave:    svc,
		Store:    store,
		Report:   report,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		log:      log.Named("api"),
	}
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case leave.IsValidation(err):
		return http.StatusBadRequest
	case generic.IsNotFound(err):
		return http.StatusNotFound
	case generic.IsConflict(err):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err with the status its kind maps to. Internal
// errors are logged with the request-scoped logger.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.FromContext(r.Context()).Error(message, zap.Error(err))
	}
	writeError(w, status, message, err)
}

// decode reads the JSON body into dst and runs the validator on it.
func (h *Handler) decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	if err := h.validate.Struct(dst); err != nil {
		return err
	}
	return nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, key string) (generic.TimePoint, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return generic.TimePoint{}, nil
	}
	tp, err := generic.ParseDate(v)
	if err != nil {
		return generic.TimePoint{}, fmt.Errorf("invalid %s (use YYYY-MM-DD): %w", key, err)
	}
	return tp, nil
}

// =============================================================================
// HOLIDAY ENDPOINTS
// =============================================================================

// ListHolidays returns the holidays of a company plus the global ones.
// GET /api/holidays?company_id=
func (h *Handler) ListHolidays(w http.ResponseWriter, r *http.Request) {
	companyID := r.URL.Query().Get("company_id")

	holidays, err := h.Store.GetAllHolidays(r.Context(), companyID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to get holidays", err)
		return
	}

	dtos := make([]HolidayDTO, 0, len(holidays))
	for _, hol := range holidays {
		dtos = append(dtos, HolidayDTO{
			ID:        hol.ID,
			CompanyID: hol.CompanyID,
			Date:      hol.Date.String(),
			Name:      hol.Name,
			Recurring: hol.Recurring,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{"holidays": dtos})
}

// CreateHoliday creates a new holiday.
// POST /api/holidays
func (h *Handler) CreateHoliday(w http.ResponseWriter, r *http.Request) {
	var req CreateHolidayRequest
	if err := h.decode(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid holiday", err)
		return
	}

	holiday := generic.Holiday{
		ID:        "holiday-" + uuid.NewString(),
		CompanyID: req.CompanyID,
		Date:      generic.MustParseDate(req.Date),
		Name:      req.Name,
		Recurring: req.Recurring,
	}

	if err := h.Store.SaveHoliday(r.Context(), holiday); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status":  "created",
		"holiday": holiday.ID,
	})
}

// DeleteHoliday deletes a holiday.
// DELETE /api/holidays/{id}
func (h *Handler) DeleteHoliday(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.Store.DeleteHoliday(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete holiday", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"status": "deleted"})
}

// AddDefaultHolidays adds fixed-date public holidays for the current year.
// POST /api/holidays/defaults
func (h *Handler) AddDefaultHolidays(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		CompanyID string `json:"company_id"`
	}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body", err)
			return
		}
	}

	defaults := []struct {
		month time.Month
		day   int
		name  string
	}{
		{time.January, 1, "New Year's Day"},
		{time.May, 1, "Labour Day"},
		{time.December, 25, "Christmas Day"},
		{time.December, 26, "Boxing Day"},
	}

	year := time.Now().Year()
	for _, d := range defaults {
		holiday := generic.Holiday{
			ID:        fmt.Sprintf("holiday-%s-%02d%02d", req.CompanyID, d.month, d.day),
			CompanyID: req.CompanyID,
			Date:      generic.NewTimePoint(year, d.month, d.day),
			Name:      d.name,
			Recurring: true,
		}
		if err := h.Store.SaveHoliday(ctx, holiday); err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to create holiday", err)
			return
		}
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"status": "created",
		"count":  len(defaults),
	})
}
