package sales

import "github.com/shopspring/decimal"

type Chart struct {
	Type string    `json:"type"`
	Data ChartData `json:"data"`
}

type ChartData struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

type Dataset struct {
	Name   string            `json:"name"`
	Values []decimal.Decimal `json:"values"`
}

// PrepareChart draws payment against paid amount per term. Rows spanning
// more than one order (or none) get no chart.
func PrepareChart(rows []PaymentTermRow) *Chart {
	orders := make(map[string]struct{})
	for _, r := range rows {
		orders[r.Name] = struct{}{}
	}
	if len(orders) != 1 {
		return nil
	}

	chart := &Chart{Type: "bar"}
	payment := Dataset{Name: "Payment Amount"}
	paid := Dataset{Name: "Paid Amount"}
	for _, r := range rows {
		chart.Data.Labels = append(chart.Data.Labels, r.PaymentTerm)
		payment.Values = append(payment.Values, r.BasePaymentAmount)
		paid.Values = append(paid.Values, r.PaidAmount)
	}
	chart.Data.Datasets = []Dataset{payment, paid}
	return chart
}
