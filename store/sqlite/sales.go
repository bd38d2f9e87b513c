package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/warp/erp-engine/generic"
	"github.com/warp/erp-engine/sales"
)

var _ sales.Store = (*Store)(nil)

// =============================================================================
// COMPANIES
// =============================================================================

func (s *Store) GetCompany(ctx context.Context, name string) (*sales.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var c sales.Company
	err := s.db.QueryRowContext(ctx,
		"SELECT name, default_currency FROM companies WHERE name = ?", name,
	).Scan(&c.Name, &c.DefaultCurrency)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return &c, nil
}

func (s *Store) SaveCompany(ctx context.Context, c sales.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO companies (name, default_currency) VALUES (?, ?)
		ON CONFLICT(name) DO UPDATE SET default_currency = excluded.default_currency
	`, c.Name, c.DefaultCurrency)
	if err != nil {
		return fmt.Errorf("failed to save company: %w", err)
	}
	return nil
}

func (s *Store) ListCompanies(ctx context.Context) ([]sales.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, "SELECT name, default_currency FROM companies ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	defer rows.Close()

	var companies []sales.Company
	for rows.Next() {
		var c sales.Company
		if err := rows.Scan(&c.Name, &c.DefaultCurrency); err != nil {
			return nil, err
		}
		companies = append(companies, c)
	}
	return companies, rows.Err()
}

// =============================================================================
// SALES ORDERS
// =============================================================================

// SaveSalesOrder replaces the order and its child rows atomically.
func (s *Store) SaveSalesOrder(ctx context.Context, so sales.SalesOrder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withSQLTx(ctx, func(c conn) error {
		_, err := c.q.ExecContext(ctx, `
			INSERT INTO sales_orders (name, company, customer, transaction_date, payment_terms_template, docstatus)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				company = excluded.company,
				customer = excluded.customer,
				transaction_date = excluded.transaction_date,
				payment_terms_template = excluded.payment_terms_template,
				docstatus = excluded.docstatus
		`, so.Name, so.Company, so.Customer, formatDate(so.TransactionDate),
			nullString(so.PaymentTermsTemplate), int(so.DocStatus))
		if err != nil {
			return fmt.Errorf("failed to save sales order: %w", err)
		}

		for _, table := range []string{"sales_order_items", "payment_schedules"} {
			if _, err := c.q.ExecContext(ctx, "DELETE FROM "+table+" WHERE parent = ?", so.Name); err != nil {
				return fmt.Errorf("failed to clear %s: %w", table, err)
			}
		}

		for i, item := range so.Items {
			name := item.Name
			if name == "" {
				name = fmt.Sprintf("%s-%d", so.Name, i+1)
			}
			_, err := c.q.ExecContext(ctx,
				"INSERT INTO sales_order_items (name, parent, idx, item_code, amount) VALUES (?, ?, ?, ?, ?)",
				name, so.Name, i+1, item.ItemCode, item.Amount.String())
			if err != nil {
				return fmt.Errorf("failed to save sales order item: %w", err)
			}
		}

		for i, ps := range so.PaymentSchedule {
			_, err := c.q.ExecContext(ctx, `
				INSERT INTO payment_schedules
				(parent, idx, payment_term, description, due_date, invoice_portion, base_payment_amount, paid_amount)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			`, so.Name, i+1, ps.PaymentTerm, ps.Description, formatDate(ps.DueDate),
				ps.InvoicePortion.String(), ps.BasePaymentAmount.String(), ps.PaidAmount.String())
			if err != nil {
				return fmt.Errorf("failed to save payment schedule: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) GetSalesOrder(ctx context.Context, name string) (*sales.SalesOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	orders, err := s.querySalesOrders(ctx, "WHERE name = ?", name)
	if err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

// ListSalesOrders lists orders of company, or of every company when empty.
func (s *Store) ListSalesOrders(ctx context.Context, company string) ([]sales.SalesOrder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if company == "" {
		return s.querySalesOrders(ctx, "")
	}
	return s.querySalesOrders(ctx, "WHERE company = ?", company)
}

func (s *Store) querySalesOrders(ctx context.Context, where string, args ...any) ([]sales.SalesOrder, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, company, customer, transaction_date, payment_terms_template, docstatus
		FROM sales_orders `+where+` ORDER BY transaction_date ASC, name ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales orders: %w", err)
	}

	var orders []sales.SalesOrder
	for rows.Next() {
		var (
			so        sales.SalesOrder
			date      string
			template  sql.NullString
			docStatus int
		)
		if err := rows.Scan(&so.Name, &so.Company, &so.Customer, &date, &template, &docStatus); err != nil {
			rows.Close()
			return nil, err
		}
		so.TransactionDate = parseDate(date)
		so.PaymentTermsTemplate = template.String
		so.DocStatus = generic.DocStatus(docStatus)
		orders = append(orders, so)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range orders {
		if err := s.loadSalesOrderChildren(ctx, &orders[i]); err != nil {
			return nil, err
		}
	}
	return orders, nil
}

func (s *Store) loadSalesOrderChildren(ctx context.Context, so *sales.SalesOrder) error {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, item_code, amount FROM sales_order_items WHERE parent = ? ORDER BY idx", so.Name)
	if err != nil {
		return fmt.Errorf("failed to query sales order items: %w", err)
	}
	for rows.Next() {
		var (
			item   sales.SalesOrderItem
			amount string
		)
		if err := rows.Scan(&item.Name, &item.ItemCode, &amount); err != nil {
			rows.Close()
			return err
		}
		item.Amount = parseDecimal(amount)
		so.Items = append(so.Items, item)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = s.db.QueryContext(ctx, `
		SELECT payment_term, description, due_date, invoice_portion, base_payment_amount, paid_amount
		FROM payment_schedules WHERE parent = ? ORDER BY idx`, so.Name)
	if err != nil {
		return fmt.Errorf("failed to query payment schedules: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ps                         sales.PaymentSchedule
			due, portion, amount, paid string
		)
		if err := rows.Scan(&ps.PaymentTerm, &ps.Description, &due, &portion, &amount, &paid); err != nil {
			return err
		}
		ps.DueDate = parseDate(due)
		ps.InvoicePortion = parseDecimal(portion)
		ps.BasePaymentAmount = parseDecimal(amount)
		ps.PaidAmount = parseDecimal(paid)
		so.PaymentSchedule = append(so.PaymentSchedule, ps)
	}
	return rows.Err()
}

// =============================================================================
// SALES INVOICES
// =============================================================================

// SaveSalesInvoice replaces the invoice and its items atomically.
func (s *Store) SaveSalesInvoice(ctx context.Context, si sales.SalesInvoice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.withSQLTx(ctx, func(c conn) error {
		_, err := c.q.ExecContext(ctx, `
			INSERT INTO sales_invoices (name, company, customer, posting_date, base_grand_total, docstatus)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(name) DO UPDATE SET
				company = excluded.company,
				customer = excluded.customer,
				posting_date = excluded.posting_date,
				base_grand_total = excluded.base_grand_total,
				docstatus = excluded.docstatus
		`, si.Name, si.Company, si.Customer, formatDate(si.PostingDate), si.BaseGrandTotal.String(), int(si.DocStatus))
		if err != nil {
			return fmt.Errorf("failed to save sales invoice: %w", err)
		}

		if _, err := c.q.ExecContext(ctx, "DELETE FROM sales_invoice_items WHERE parent = ?", si.Name); err != nil {
			return fmt.Errorf("failed to clear sales invoice items: %w", err)
		}
		for i, item := range si.Items {
			name := item.Name
			if name == "" {
				name = fmt.Sprintf("%s-%d", si.Name, i+1)
			}
			_, err := c.q.ExecContext(ctx, `
				INSERT INTO sales_invoice_items (name, parent, idx, sales_order, so_detail, amount)
				VALUES (?, ?, ?, ?, ?, ?)
			`, name, si.Name, i+1, item.SalesOrder, item.SODetail, item.Amount.String())
			if err != nil {
				return fmt.Errorf("failed to save sales invoice item: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) GetSalesInvoice(ctx context.Context, name string) (*sales.SalesInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	invoices, err := s.querySalesInvoices(ctx, "WHERE name = ?", name)
	if err != nil {
		return nil, err
	}
	if len(invoices) == 0 {
		return nil, nil
	}
	return &invoices[0], nil
}

func (s *Store) ListSalesInvoices(ctx context.Context, company string) ([]sales.SalesInvoice, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if company == "" {
		return s.querySalesInvoices(ctx, "")
	}
	return s.querySalesInvoices(ctx, "WHERE company = ?", company)
}

func (s *Store) querySalesInvoices(ctx context.Context, where string, args ...any) ([]sales.SalesInvoice, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, company, customer, posting_date, base_grand_total, docstatus
		FROM sales_invoices `+where+` ORDER BY posting_date ASC, name ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales invoices: %w", err)
	}

	var invoices []sales.SalesInvoice
	for rows.Next() {
		var (
			si          sales.SalesInvoice
			date, total string
			docStatus   int
		)
		if err := rows.Scan(&si.Name, &si.Company, &si.Customer, &date, &total, &docStatus); err != nil {
			rows.Close()
			return nil, err
		}
		si.PostingDate = parseDate(date)
		si.BaseGrandTotal = parseDecimal(total)
		si.DocStatus = generic.DocStatus(docStatus)
		invoices = append(invoices, si)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range invoices {
		items, err := s.querySalesInvoiceItems(ctx, invoices[i].Name)
		if err != nil {
			return nil, err
		}
		invoices[i].Items = items
	}
	return invoices, nil
}

func (s *Store) querySalesInvoiceItems(ctx context.Context, parent string) ([]sales.SalesInvoiceItem, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name, sales_order, so_detail, amount FROM sales_invoice_items WHERE parent = ? ORDER BY idx", parent)
	if err != nil {
		return nil, fmt.Errorf("failed to query sales invoice items: %w", err)
	}
	defer rows.Close()

	var items []sales.SalesInvoiceItem
	for rows.Next() {
		var (
			item   sales.SalesInvoiceItem
			amount string
		)
		if err := rows.Scan(&item.Name, &item.SalesOrder, &item.SODetail, &amount); err != nil {
			return nil, err
		}
		item.Amount = parseDecimal(amount)
		items = append(items, item)
	}
	return items, rows.Err()
}

// =============================================================================
// REPORT QUERIES
// =============================================================================

// PaymentTermRows lists the payment schedule lines of submitted orders with
// payment terms inside the conditions' window.
func (s *Store) PaymentTermRows(ctx context.Context, cond sales.Conditions, today generic.TimePoint) ([]sales.PaymentTermRow, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT so.name, so.transaction_date,
		       CASE WHEN ps.due_date < ? THEN 'Overdue' ELSE 'Unpaid' END AS status,
		       ps.payment_term, ps.description, ps.due_date, ps.invoice_portion,
		       ps.base_payment_amount, ps.paid_amount
		FROM sales_orders so
		JOIN payment_schedules ps ON ps.parent = so.name
		WHERE so.docstatus = 1
		  AND so.payment_terms_template IS NOT NULL AND so.payment_terms_template != ''
		  AND so.company = ?
		  AND so.transaction_date BETWEEN ? AND ?`
	args := []any{formatDate(today), cond.Company, formatDate(cond.StartDate), formatDate(cond.EndDate)}

	if len(cond.SalesOrders) > 0 {
		marks, names := placeholders(cond.SalesOrders)
		query += " AND so.name IN (" + marks + ")"
		args = append(args, names...)
	}
	query += " ORDER BY so.name, so.transaction_date, ps.due_date"

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payment terms: %w", err)
	}
	defer rows.Close()

	var result []sales.PaymentTermRow
	for rows.Next() {
		var (
			r                      sales.PaymentTermRow
			submitted, status, due string
			portion, amount, paid  string
		)
		err := rows.Scan(&r.Name, &submitted, &status, &r.PaymentTerm, &r.Description, &due,
			&portion, &amount, &paid)
		if err != nil {
			return nil, fmt.Errorf("failed to scan payment term: %w", err)
		}
		r.Submitted = parseDate(submitted)
		r.Status = sales.Status(status)
		r.DueDate = parseDate(due)
		r.InvoicePortion = parseDecimal(portion)
		r.BasePaymentAmount = parseDecimal(amount)
		r.PaidAmount = parseDecimal(paid)
		result = append(result, r)
	}
	return result, rows.Err()
}

// InvoicesForOrders returns one row per submitted invoice billing orders.
func (s *Store) InvoicesForOrders(ctx context.Context, orders []string) ([]sales.InvoiceBalance, error) {
	if len(orders) == 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	marks, args := placeholders(orders)
	query := `
		SELECT MIN(sii.sales_order), sii.parent, si.base_grand_total
		FROM sales_invoice_items sii
		JOIN sales_invoices si ON si.name = sii.parent
		JOIN sales_order_items soi ON soi.name = sii.so_detail
		WHERE sii.sales_order IN (` + marks + `) AND si.docstatus = 1
		GROUP BY sii.parent
		ORDER BY MIN(si.posting_date), sii.parent`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query invoices: %w", err)
	}
	defer rows.Close()

	var result []sales.InvoiceBalance
	for rows.Next() {
		var (
			inv    sales.InvoiceBalance
			amount string
		)
		if err := rows.Scan(&inv.SalesOrder, &inv.Invoice, &amount); err != nil {
			return nil, fmt.Errorf("failed to scan invoice: %w", err)
		}
		inv.InvoiceAmount = parseDecimal(amount)
		result = append(result, inv)
	}
	return result, rows.Err()
}
