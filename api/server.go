/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:     Unique ID per request for tracing
  2. RequestLogger: zap request logging, level by status
  3. Recoverer:     Panic recovery (500 instead of crash)
  4. CORS:          Cross-origin requests, origins from config

ROUTE GROUPS:
  /api/employees/*           Employees and their leave balance
  /api/leave-types/*         Leave type rules
  /api/leave-allocations/*   Allocation lifecycle
  /api/leave-applications/*  Application lifecycle
  /api/leave-ledger/*        Ledger queries and expiry
  /api/holidays/*            Holiday calendar
  /api/companies, /api/sales-orders, /api/sales-invoices
  /api/reports/*             Payment terms status report
  /api/scenarios/*           Demo data (dev only)

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler and shared helpers
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"
)

// RouterOptions configures the middleware around the routes.
type RouterOptions struct {
	CORSOrigins []string
	Logger      *zap.Logger
}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, opts RouterOptions) *chi.Mux {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173", "http://localhost:8080"}
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log.Named("http")))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	}))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/employees", func(r chi.Router) {
			r.Get("/", h.ListEmployees)
			r.Post("/", h.CreateEmployee)
			r.Get("/{id}", h.GetEmployee)
			r.Get("/{id}/leave-balance", h.GetLeaveBalance)
		})

		r.Route("/leave-types", func(r chi.Router) {
			r.Get("/", h.ListLeaveTypes)
			r.Post("/", h.SaveLeaveType)
			r.Get("/{name}", h.GetLeaveType)
		})

		r.Route("/leave-allocations", func(r chi.Router) {
			r.Get("/", h.ListAllocations)
			r.Post("/", h.CreateAllocation)
			r.Get("/carry-forwarded-leaves", h.GetCarryForwardedLeaves)
			r.Get("/{name}", h.GetAllocation)
			r.Put("/{name}", h.UpdateAllocation)
			r.Post("/{name}/submit", h.SubmitAllocation)
			r.Post("/{name}/cancel", h.CancelAllocation)
		})

		r.Route("/leave-applications", func(r chi.Router) {
			r.Get("/", h.ListApplications)
			r.Post("/", h.CreateApplication)
			r.Get("/{name}", h.GetApplication)
			r.Post("/{name}/submit", h.SubmitApplication)
			r.Post("/{name}/cancel", h.CancelApplication)
		})

		r.Route("/leave-ledger", func(r chi.Router) {
			r.Get("/", h.ListLedgerEntries)
			r.Post("/expire", h.ExpireAllocations)
		})

		r.Route("/holidays", func(r chi.Router) {
			r.Get("/", h.ListHolidays)
			r.Post("/", h.CreateHoliday)
			r.Post("/defaults", h.AddDefaultHolidays)
			r.Delete("/{id}", h.DeleteHoliday)
		})

		r.Route("/companies", func(r chi.Router) {
			r.Get("/", h.ListCompanies)
			r.Post("/", h.SaveCompany)
		})

		r.Route("/sales-orders", func(r chi.Router) {
			r.Get("/", h.ListSalesOrders)
			r.Post("/", h.SaveSalesOrder)
			r.Get("/{name}", h.GetSalesOrder)
		})

		r.Route("/sales-invoices", func(r chi.Router) {
			r.Get("/", h.ListSalesInvoices)
			r.Post("/", h.SaveSalesInvoice)
			r.Get("/{name}", h.GetSalesInvoice)
		})

		r.Get("/reports/payment-terms-status", h.PaymentTermsStatus)

		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
			r.Post("/reset", h.ResetDatabase)
		})
	})

	return r
}
