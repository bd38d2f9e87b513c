/*
Package sales holds sales orders, their payment schedules and invoices, and
the payment terms status report built from them.

REPORT FLOW:
  Filters -> Conditions -> payment term rows (one per schedule line)
          -> invoices of those orders
          -> FIFO matching of invoice amounts onto rows
          -> columns, rows, chart

The report only reads. Orders and invoices are written through the store
by the HTTP layer so the report has something to read.
*/
package sales

import (
	"github.com/shopspring/decimal"
	"github.com/warp/erp-engine/generic"
)

// =============================================================================
// DOCUMENTS
// =============================================================================

type Company struct {
	Name            string `json:"name"`
	DefaultCurrency string `json:"default_currency"`
}

type SalesOrder struct {
	Name                 string
	Company              string
	Customer             string
	TransactionDate      generic.TimePoint
	PaymentTermsTemplate string // empty when the order has no payment terms
	DocStatus            generic.DocStatus
	Items                []SalesOrderItem
	PaymentSchedule      []PaymentSchedule
}

type SalesOrderItem struct {
	Name     string
	ItemCode string
	Amount   decimal.Decimal
}

// PaymentSchedule is one installment of an order's payment terms.
type PaymentSchedule struct {
	PaymentTerm       string
	Description       string
	DueDate           generic.TimePoint
	InvoicePortion    decimal.Decimal // percent
	BasePaymentAmount decimal.Decimal
	PaidAmount        decimal.Decimal
}

type SalesInvoice struct {
	Name           string
	Company        string
	Customer       string
	PostingDate    generic.TimePoint
	BaseGrandTotal decimal.Decimal
	DocStatus      generic.DocStatus
	Items          []SalesInvoiceItem
}

// SalesInvoiceItem links an invoice line back to the order line it bills.
type SalesInvoiceItem struct {
	Name       string
	SalesOrder string
	SODetail   string // SalesOrderItem.Name
	Amount     decimal.Decimal
}

// =============================================================================
// REPORT ROWS
// =============================================================================

type Status string

const (
	StatusOverdue    Status = "Overdue"
	StatusUnpaid     Status = "Unpaid"
	StatusPartlyPaid Status = "Partly Paid"
	StatusCompleted  Status = "Completed"
)

// PaymentTermRow is one payment schedule line of a submitted order.
type PaymentTermRow struct {
	Name              string            `json:"name"`
	Submitted         generic.TimePoint `json:"submitted"`
	Status            Status            `json:"status"`
	PaymentTerm       string            `json:"payment_term"`
	Description       string            `json:"description"`
	DueDate           generic.TimePoint `json:"due_date"`
	InvoicePortion    decimal.Decimal   `json:"invoice_portion"`
	BasePaymentAmount decimal.Decimal   `json:"base_payment_amount"`
	PaidAmount        decimal.Decimal   `json:"paid_amount"`
	Invoices          string            `json:"invoices"`
	Currency          string            `json:"currency"`
}

// InvoiceBalance is a submitted invoice billing a sales order. InvoiceAmount
// shrinks as it is matched onto payment term rows.
type InvoiceBalance struct {
	SalesOrder    string          `json:"sales_order"`
	Invoice       string          `json:"invoice"`
	InvoiceAmount decimal.Decimal `json:"invoice_amount"`
}
