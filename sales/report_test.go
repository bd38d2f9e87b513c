package sales

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/erp-engine/generic"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func termRow(order, term, amount string) PaymentTermRow {
	return PaymentTermRow{
		Name:              order,
		PaymentTerm:       term,
		Status:            StatusUnpaid,
		BasePaymentAmount: dec(amount),
		PaidAmount:        decimal.Zero,
	}
}

// =============================================================================
// FIFO MATCHING
// =============================================================================

func TestSetPaymentTermsStatuses(t *testing.T) {
	tests := []struct {
		name         string
		rows         []PaymentTermRow
		invoices     []InvoiceBalance
		wantStatus   []Status
		wantPaid     []string
		wantInvoices []string
	}{
		{
			name:         "one invoice covers the first term and part of the second",
			rows:         []PaymentTermRow{termRow("SO-1", "A", "500"), termRow("SO-1", "B", "500")},
			invoices:     []InvoiceBalance{{SalesOrder: "SO-1", Invoice: "SINV-1", InvoiceAmount: dec("700")}},
			wantStatus:   []Status{StatusCompleted, StatusPartlyPaid},
			wantPaid:     []string{"500", "200"},
			wantInvoices: []string{"SINV-1", "SINV-1"},
		},
		{
			name: "a term collects several invoices",
			rows: []PaymentTermRow{termRow("SO-1", "A", "500")},
			invoices: []InvoiceBalance{
				{SalesOrder: "SO-1", Invoice: "SINV-1", InvoiceAmount: dec("200")},
				{SalesOrder: "SO-1", Invoice: "SINV-2", InvoiceAmount: dec("300")},
			},
			wantStatus:   []Status{StatusCompleted},
			wantPaid:     []string{"500"},
			wantInvoices: []string{"SINV-1,SINV-2"},
		},
		{
			name:         "invoices of other orders are ignored",
			rows:         []PaymentTermRow{termRow("SO-1", "A", "500")},
			invoices:     []InvoiceBalance{{SalesOrder: "SO-2", Invoice: "SINV-9", InvoiceAmount: dec("900")}},
			wantStatus:   []Status{StatusUnpaid},
			wantPaid:     []string{"0"},
			wantInvoices: []string{""},
		},
		{
			name: "exhausted invoices are skipped",
			rows: []PaymentTermRow{termRow("SO-1", "A", "300"), termRow("SO-1", "B", "300")},
			invoices: []InvoiceBalance{
				{SalesOrder: "SO-1", Invoice: "SINV-1", InvoiceAmount: dec("300")},
				{SalesOrder: "SO-1", Invoice: "SINV-2", InvoiceAmount: dec("100")},
			},
			wantStatus:   []Status{StatusCompleted, StatusPartlyPaid},
			wantPaid:     []string{"300", "100"},
			wantInvoices: []string{"SINV-1", "SINV-2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			SetPaymentTermsStatuses(tt.rows, tt.invoices, "EUR")

			for i, row := range tt.rows {
				assert.Equal(t, tt.wantStatus[i], row.Status, "row %d", i)
				assert.True(t, row.PaidAmount.Equal(dec(tt.wantPaid[i])), "row %d paid %s", i, row.PaidAmount)
				assert.Equal(t, tt.wantInvoices[i], row.Invoices, "row %d", i)
				assert.Equal(t, "EUR", row.Currency)
			}
		})
	}
}

func TestSetPaymentTermsStatuses_KeepsOverdueWhenUnmatched(t *testing.T) {
	rows := []PaymentTermRow{termRow("SO-1", "A", "500")}
	rows[0].Status = StatusOverdue

	SetPaymentTermsStatuses(rows, nil, "")

	assert.Equal(t, StatusOverdue, rows[0].Status)
}

// =============================================================================
// CONDITIONS
// =============================================================================

func TestBuildConditions_Defaults(t *testing.T) {
	today := generic.MustParseDate("2025-03-31")

	c := BuildConditions(Filters{}, "Acme", today)

	assert.Equal(t, "Acme", c.Company)
	assert.Equal(t, "2025-03-31", c.EndDate.String())
	assert.Equal(t, "2025-02-28", c.StartDate.String())
	assert.NotNil(t, c.SalesOrders)
	assert.Empty(t, c.SalesOrders)
}

func TestBuildConditions_KeepsFilters(t *testing.T) {
	f := Filters{
		Company:         "Globex",
		PeriodStartDate: generic.MustParseDate("2025-01-01"),
		PeriodEndDate:   generic.MustParseDate("2025-01-31"),
		SalesOrders:     []string{"SO-1"},
	}

	c := BuildConditions(f, "Acme", generic.MustParseDate("2025-06-15"))

	assert.Equal(t, "Globex", c.Company)
	assert.Equal(t, "[2025-01-01, 2025-01-31]", c.Period().String())
	assert.Equal(t, []string{"SO-1"}, c.SalesOrders)
}

func TestBuildConditions_StartFollowsGivenEnd(t *testing.T) {
	f := Filters{PeriodEndDate: generic.MustParseDate("2025-01-31")}

	c := BuildConditions(f, "", generic.MustParseDate("2025-06-15"))

	assert.Equal(t, "2024-12-31", c.StartDate.String())
}

// =============================================================================
// CHART & COLUMNS
// =============================================================================

func TestPrepareChart(t *testing.T) {
	rows := []PaymentTermRow{termRow("SO-1", "A", "500"), termRow("SO-1", "B", "500")}
	rows[0].PaidAmount = dec("500")

	chart := PrepareChart(rows)

	require.NotNil(t, chart)
	assert.Equal(t, "bar", chart.Type)
	assert.Equal(t, []string{"A", "B"}, chart.Data.Labels)
	require.Len(t, chart.Data.Datasets, 2)
	assert.Equal(t, "Payment Amount", chart.Data.Datasets[0].Name)
	assert.True(t, chart.Data.Datasets[1].Values[0].Equal(dec("500")))
	assert.True(t, chart.Data.Datasets[1].Values[1].IsZero())
}

func TestPrepareChart_OnlyForOneOrder(t *testing.T) {
	assert.Nil(t, PrepareChart(nil))
	assert.Nil(t, PrepareChart([]PaymentTermRow{termRow("SO-1", "A", "1"), termRow("SO-2", "A", "1")}))
}

func TestColumns(t *testing.T) {
	en := Columns("en")
	de := Columns("de-CH")
	fallback := Columns("ja")

	require.Len(t, en, 11)
	assert.Equal(t, "Sales Order", en[0].Label)
	assert.Equal(t, "Kundenauftrag", de[0].Label)
	assert.Equal(t, "name", de[0].Fieldname)
	assert.Equal(t, "Sales Order", fallback[0].Label)
	assert.True(t, en[len(en)-1].Hidden)
}

// =============================================================================
// EXECUTE
// =============================================================================

type fakeStore struct {
	Store
	company  *Company
	rows     []PaymentTermRow
	invoices []InvoiceBalance
	rowsErr  error

	gotCond   Conditions
	gotToday  generic.TimePoint
	gotOrders []string
}

func (f *fakeStore) GetCompany(context.Context, string) (*Company, error) { return f.company, nil }

func (f *fakeStore) PaymentTermRows(_ context.Context, cond Conditions, today generic.TimePoint) ([]PaymentTermRow, error) {
	f.gotCond, f.gotToday = cond, today
	return f.rows, f.rowsErr
}

func (f *fakeStore) InvoicesForOrders(_ context.Context, orders []string) ([]InvoiceBalance, error) {
	f.gotOrders = orders
	return f.invoices, nil
}

func fixedClock() time.Time { return time.Date(2025, time.June, 15, 8, 0, 0, 0, time.UTC) }

func TestReport_Execute(t *testing.T) {
	// GIVEN: Two terms of one order and one invoice
	store := &fakeStore{
		company:  &Company{Name: "Acme", DefaultCurrency: "EUR"},
		rows:     []PaymentTermRow{termRow("SO-1", "A", "500"), termRow("SO-1", "B", "500")},
		invoices: []InvoiceBalance{{SalesOrder: "SO-1", Invoice: "SINV-1", InvoiceAmount: dec("700")}},
	}
	r := NewReport(store, WithDefaultCompany("Acme"), WithLanguage("fr"), WithClock(fixedClock))

	// WHEN: Running without filters
	res, err := r.Execute(context.Background(), Filters{})
	require.NoError(t, err)

	// THEN: Defaults were resolved against the clock
	assert.Equal(t, "Acme", store.gotCond.Company)
	assert.Equal(t, "2025-06-15", store.gotToday.String())
	assert.Equal(t, "2025-05-15", store.gotCond.StartDate.String())
	assert.Equal(t, []string{"SO-1"}, store.gotOrders)

	// AND: Rows are matched and labelled
	require.Len(t, res.Data, 2)
	assert.Equal(t, StatusCompleted, res.Data[0].Status)
	assert.Equal(t, StatusPartlyPaid, res.Data[1].Status)
	assert.Equal(t, "EUR", res.Data[0].Currency)
	assert.Equal(t, "Commande client", res.Columns[0].Label)
	require.NotNil(t, res.Chart)
	assert.Equal(t, "Montant du paiement", res.Chart.Data.Datasets[0].Name)
	assert.NotNil(t, res.Message)
}

func TestReport_ExecuteEmpty(t *testing.T) {
	store := &fakeStore{}
	r := NewReport(store, WithClock(fixedClock))

	res, err := r.Execute(context.Background(), Filters{Company: "Nobody"})

	require.NoError(t, err)
	assert.NotNil(t, res.Data)
	assert.Empty(t, res.Data)
	assert.Nil(t, res.Chart)
	assert.Nil(t, store.gotOrders)
}

func TestReport_ExecuteStoreError(t *testing.T) {
	store := &fakeStore{rowsErr: errors.New("database is locked")}
	r := NewReport(store, WithClock(fixedClock))

	_, err := r.Execute(context.Background(), Filters{})

	assert.ErrorContains(t, err, "load payment term rows")
}
