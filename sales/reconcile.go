package sales

import (
	"strings"

	"github.com/shopspring/decimal"
)

// =============================================================================
// FIFO MATCHING
// =============================================================================

// SetPaymentTermsStatuses matches invoice amounts onto payment term rows in
// row order. Each row takes from the invoices of its own order, oldest
// first, until its payment amount is covered:
//
//	covered by one invoice      -> Completed, that invoice keeps the remainder
//	invoice runs out first      -> Partly Paid, move on to the next invoice
//
// Invoice balances are shared across rows, so a later term only sees what
// earlier terms left behind. Rows and invoices are updated in place.
func SetPaymentTermsStatuses(rows []PaymentTermRow, invoices []InvoiceBalance, currency string) {
	for i := range rows {
		row := &rows[i]
		row.Currency = currency

		var matched []string
		for j := range invoices {
			inv := &invoices[j]
			if inv.SalesOrder != row.Name || !inv.InvoiceAmount.IsPositive() {
				continue
			}
			outstanding := row.BasePaymentAmount.Sub(row.PaidAmount)
			if !outstanding.IsPositive() {
				continue
			}

			matched = append(matched, inv.Invoice)
			if inv.InvoiceAmount.GreaterThanOrEqual(outstanding) {
				inv.InvoiceAmount = inv.InvoiceAmount.Sub(outstanding)
				row.PaidAmount = row.PaidAmount.Add(outstanding)
				row.Status = StatusCompleted
				break
			}
			row.PaidAmount = row.PaidAmount.Add(inv.InvoiceAmount)
			inv.InvoiceAmount = decimal.Zero
			row.Status = StatusPartlyPaid
		}
		row.Invoices = strings.Join(matched, ",")
	}
}
