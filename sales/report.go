package sales

import (
	"context"
	"fmt"
	"time"

	"github.com/warp/erp-engine/generic"
	"go.uber.org/zap"
)

// Store reads (and, for the HTTP layer, writes) sales documents.
type Store interface {
	GetCompany(ctx context.Context, name string) (*Company, error)
	SaveCompany(ctx context.Context, c Company) error
	ListCompanies(ctx context.Context) ([]Company, error)

	GetSalesOrder(ctx context.Context, name string) (*SalesOrder, error)
	SaveSalesOrder(ctx context.Context, so SalesOrder) error
	ListSalesOrders(ctx context.Context, company string) ([]SalesOrder, error)

	GetSalesInvoice(ctx context.Context, name string) (*SalesInvoice, error)
	SaveSalesInvoice(ctx context.Context, si SalesInvoice) error
	ListSalesInvoices(ctx context.Context, company string) ([]SalesInvoice, error)

	// PaymentTermRows returns one row per payment schedule line of the
	// submitted orders with a payment terms template matching cond,
	// ordered by order name, transaction date and due date. Status is
	// Overdue when the due date is before today, Unpaid otherwise.
	PaymentTermRows(ctx context.Context, cond Conditions, today generic.TimePoint) ([]PaymentTermRow, error)

	// InvoicesForOrders returns one balance per submitted invoice billing
	// any of orders, ordered by posting date then invoice name.
	InvoicesForOrders(ctx context.Context, orders []string) ([]InvoiceBalance, error)
}

// Result is what the rendering layer needs to draw the report.
type Result struct {
	Columns []Column         `json:"columns"`
	Data    []PaymentTermRow `json:"data"`
	Message []string         `json:"message"`
	Chart   *Chart           `json:"chart"`
}

// Report builds the payment terms status report.
type Report struct {
	store          Store
	defaultCompany string
	lang           string
	now            func() time.Time
	log            *zap.Logger
}

type ReportOption func(*Report)

// WithDefaultCompany sets the company used when the filters name none.
func WithDefaultCompany(name string) ReportOption {
	return func(r *Report) { r.defaultCompany = name }
}

// WithLanguage sets the language of column labels.
func WithLanguage(lang string) ReportOption {
	return func(r *Report) { r.lang = lang }
}

func WithClock(now func() time.Time) ReportOption {
	return func(r *Report) {
		if now != nil {
			r.now = now
		}
	}
}

func WithLogger(l *zap.Logger) ReportOption {
	return func(r *Report) {
		if l != nil {
			r.log = l
		}
	}
}

func NewReport(store Store, opts ...ReportOption) *Report {
	r := &Report{
		store: store,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log = r.log.Named("sales_report")
	return r
}

// Execute runs the report for filters.
func (r *Report) Execute(ctx context.Context, f Filters) (*Result, error) {
	today := generic.FromTime(r.now())
	cond := BuildConditions(f, r.defaultCompany, today)

	rows, err := r.store.PaymentTermRows(ctx, cond, today)
	if err != nil {
		return nil, fmt.Errorf("load payment term rows: %w", err)
	}

	var invoices []InvoiceBalance
	if len(rows) > 0 {
		invoices, err = r.store.InvoicesForOrders(ctx, orderNames(rows))
		if err != nil {
			return nil, fmt.Errorf("load invoices: %w", err)
		}
	}

	currency, err := r.currency(ctx, cond.Company)
	if err != nil {
		return nil, err
	}
	SetPaymentTermsStatuses(rows, invoices, currency)

	chart := PrepareChart(rows)
	if chart != nil {
		p := printer(r.lang)
		for i := range chart.Data.Datasets {
			chart.Data.Datasets[i].Name = translate(p, chart.Data.Datasets[i].Name)
		}
	}

	if rows == nil {
		rows = []PaymentTermRow{}
	}
	r.log.Debug("payment terms status report",
		zap.String("company", cond.Company),
		zap.String("from", cond.StartDate.String()),
		zap.String("to", cond.EndDate.String()),
		zap.Int("rows", len(rows)),
		zap.Int("invoices", len(invoices)))

	return &Result{
		Columns: Columns(r.lang),
		Data:    rows,
		Message: []string{},
		Chart:   chart,
	}, nil
}

// currency is looked up once per run. An unknown company reports no currency.
func (r *Report) currency(ctx context.Context, company string) (string, error) {
	if company == "" {
		return "", nil
	}
	c, err := r.store.GetCompany(ctx, company)
	if err != nil {
		return "", fmt.Errorf("load company %s: %w", company, err)
	}
	if c == nil {
		return "", nil
	}
	return c.DefaultCurrency, nil
}

func orderNames(rows []PaymentTermRow) []string {
	seen := make(map[string]bool)
	var names []string
	for _, r := range rows {
		if !seen[r.Name] {
			seen[r.Name] = true
			names = append(names, r.Name)
		}
	}
	return names
}
