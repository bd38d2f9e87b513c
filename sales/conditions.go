package sales

import (
	"github.com/warp/erp-engine/generic"
)

// Filters are the user supplied report filters. Every field is optional.
type Filters struct {
	Company         string            `json:"company"`
	PeriodStartDate generic.TimePoint `json:"period_start_date"`
	PeriodEndDate   generic.TimePoint `json:"period_end_date"`
	SalesOrders     []string          `json:"sales_order"`
}

// Conditions are Filters with every default resolved.
type Conditions struct {
	Company     string
	StartDate   generic.TimePoint
	EndDate     generic.TimePoint
	SalesOrders []string
}

// Period returns the transaction date window.
func (c Conditions) Period() generic.Period {
	return generic.NewPeriod(c.StartDate, c.EndDate)
}

// BuildConditions fills missing filters: the default company, today as the
// end date and one month before the end as the start date.
func BuildConditions(f Filters, defaultCompany string, today generic.TimePoint) Conditions {
	c := Conditions{
		Company:     f.Company,
		EndDate:     f.PeriodEndDate,
		StartDate:   f.PeriodStartDate,
		SalesOrders: f.SalesOrders,
	}
	if c.Company == "" {
		c.Company = defaultCompany
	}
	if c.EndDate.IsZero() {
		c.EndDate = today
	}
	if c.StartDate.IsZero() {
		c.StartDate = c.EndDate.AddMonths(-1)
	}
	if c.SalesOrders == nil {
		c.SalesOrders = []string{}
	}
	return c
}
