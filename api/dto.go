/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the leave and sales domain models from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

TYPES:
  Employee:     EmployeeDTO, CreateEmployeeRequest
  Leave type:   LeaveTypeDTO
  Allocation:   AllocationDTO, CreateAllocationRequest, UpdateAllocationRequest
  Application:  ApplicationDTO, CreateApplicationRequest, SubmitApplicationRequest
  Ledger:       LedgerEntryDTO, BalanceDTO, ExpiryResultDTO
  Holidays:     HolidayDTO, CreateHolidayRequest
  Sales:        SalesOrderDTO, SalesInvoiceDTO (+ line types)
  Scenarios:    ScenarioDTO, LoadScenarioRequest

VALIDATION:
  Request types carry go-playground/validator tags. Handlers call
  h.decode(), which decodes the body and runs the validator. Dates travel
  as YYYY-MM-DD strings.

SEE ALSO:
  - handlers.go: decode, writeJSON, writeError
  - leave/types.go, sales/types.go: Domain types
*/
package api

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/warp/erp-engine/generic"
	"github.com/warp/erp-engine/leave"
	"github.com/warp/erp-engine/sales"
)

// =============================================================================
// EMPLOYEES
// =============================================================================

type EmployeeDTO struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Company   string `json:"company"`
	CreatedAt string `json:"created_at,omitempty"`
}

type CreateEmployeeRequest struct {
	ID      string `json:"id" validate:"required"`
	Name    string `json:"name" validate:"required"`
	Company string `json:"company"`
}

func toEmployeeDTO(e leave.Employee) EmployeeDTO {
	dto := EmployeeDTO{ID: e.ID, Name: e.Name, Company: e.Company}
	if !e.CreatedAt.IsZero() {
		dto.CreatedAt = e.CreatedAt.Format(time.RFC3339)
	}
	return dto
}

// =============================================================================
// LEAVE TYPES
// =============================================================================

// LeaveTypeDTO is used both ways: leave types have no computed fields.
type LeaveTypeDTO struct {
	Name                                string          `json:"name" validate:"required"`
	IsCarryForward                      bool            `json:"is_carry_forward"`
	MaximumCarryForwardedLeaves         decimal.Decimal `json:"maximum_carry_forwarded_leaves"`
	MaxLeavesAllowed                    decimal.Decimal `json:"max_leaves_allowed"`
	ExpireCarryForwardedLeavesAfterDays int             `json:"expire_carry_forwarded_leaves_after_days" validate:"gte=0"`
	IsLWP                               bool            `json:"is_lwp"`
	IsEarnedLeave                       bool            `json:"is_earned_leave"`
	IsCompensatory                      bool            `json:"is_compensatory"`
	AllowNegative                       bool            `json:"allow_negative"`
	IncludeHoliday                      bool            `json:"include_holiday"`
}

func toLeaveTypeDTO(lt leave.LeaveType) LeaveTypeDTO {
	return LeaveTypeDTO{
		Name:                                lt.Name,
		IsCarryForward:                      lt.IsCarryForward,
		MaximumCarryForwardedLeaves:         lt.MaximumCarryForwardedLeaves,
		MaxLeavesAllowed:                    lt.MaxLeavesAllowed,
		ExpireCarryForwardedLeavesAfterDays: lt.ExpireCarryForwardedLeavesAfterDays,
		IsLWP:                               lt.IsLWP,
		IsEarnedLeave:                       lt.IsEarnedLeave,
		IsCompensatory:                      lt.IsCompensatory,
		AllowNegative:                       lt.AllowNegative,
		IncludeHoliday:                      lt.IncludeHoliday,
	}
}

func (d LeaveTypeDTO) toLeaveType() leave.LeaveType {
	return leave.LeaveType{
		Name:                                d.Name,
		IsCarryForward:                      d.IsCarryForward,
		MaximumCarryForwardedLeaves:         d.MaximumCarryForwardedLeaves,
		MaxLeavesAllowed:                    d.MaxLeavesAllowed,
		ExpireCarryForwardedLeavesAfterDays: d.ExpireCarryForwardedLeavesAfterDays,
		IsLWP:                               d.IsLWP,
		IsEarnedLeave:                       d.IsEarnedLeave,
		IsCompensatory:                      d.IsCompensatory,
		AllowNegative:                       d.AllowNegative,
		IncludeHoliday:                      d.IncludeHoliday,
	}
}

// =============================================================================
// ALLOCATIONS
// =============================================================================

type AllocationDTO struct {
	Name                      string            `json:"name"`
	Employee                  string            `json:"employee"`
	EmployeeName              string            `json:"employee_name"`
	LeaveType                 string            `json:"leave_type"`
	FromDate                  generic.TimePoint `json:"from_date"`
	ToDate                    generic.TimePoint `json:"to_date"`
	NewLeavesAllocated        decimal.Decimal   `json:"new_leaves_allocated"`
	CarryForward              bool              `json:"carry_forward"`
	UnusedLeaves              decimal.Decimal   `json:"unused_leaves"`
	TotalLeavesAllocated      decimal.Decimal   `json:"total_leaves_allocated"`
	CarryForwardedLeavesCount decimal.Decimal   `json:"carry_forwarded_leaves_count"`
	Expired                   bool              `json:"expired"`
	DocStatus                 int               `json:"docstatus"`
	Status                    string            `json:"status"`
}

// CreateAllocationRequest creates a draft, or a submitted allocation when
// Submit is set.
type CreateAllocationRequest struct {
	Name               string          `json:"name"`
	Employee           string          `json:"employee" validate:"required"`
	LeaveType          string          `json:"leave_type" validate:"required"`
	FromDate           string          `json:"from_date" validate:"required,datetime=2006-01-02"`
	ToDate             string          `json:"to_date" validate:"required,datetime=2006-01-02"`
	NewLeavesAllocated decimal.Decimal `json:"new_leaves_allocated"`
	CarryForward       bool            `json:"carry_forward"`
	Submit             bool            `json:"submit"`
}

type UpdateAllocationRequest struct {
	NewLeavesAllocated decimal.Decimal `json:"new_leaves_allocated"`
}

func toAllocationDTO(a leave.Allocation) AllocationDTO {
	return AllocationDTO{
		Name:                      a.Name,
		Employee:                  a.Employee,
		EmployeeName:              a.EmployeeName,
		LeaveType:                 a.LeaveType,
		FromDate:                  a.FromDate,
		ToDate:                    a.ToDate,
		NewLeavesAllocated:        a.NewLeavesAllocated,
		CarryForward:              a.CarryForward,
		UnusedLeaves:              a.UnusedLeaves,
		TotalLeavesAllocated:      a.TotalLeavesAllocated,
		CarryForwardedLeavesCount: a.CarryForwardedLeavesCount,
		Expired:                   a.Expired,
		DocStatus:                 int(a.DocStatus),
		Status:                    a.DocStatus.String(),
	}
}

func (req CreateAllocationRequest) toAllocation() leave.Allocation {
	a := leave.Allocation{
		Name:               req.Name,
		Employee:           req.Employee,
		LeaveType:          req.LeaveType,
		FromDate:           generic.MustParseDate(req.FromDate),
		ToDate:             generic.MustParseDate(req.ToDate),
		NewLeavesAllocated: req.NewLeavesAllocated,
		CarryForward:       req.CarryForward,
		DocStatus:          generic.DocDraft,
	}
	if req.Submit {
		a.DocStatus = generic.DocSubmitted
	}
	return a
}

// =============================================================================
// APPLICATIONS
// =============================================================================

type ApplicationDTO struct {
	Name           string            `json:"name"`
	Employee       string            `json:"employee"`
	LeaveType      string            `json:"leave_type"`
	Company        string            `json:"company"`
	FromDate       generic.TimePoint `json:"from_date"`
	ToDate         generic.TimePoint `json:"to_date"`
	TotalLeaveDays decimal.Decimal   `json:"total_leave_days"`
	Status         string            `json:"status"`
	DocStatus      int               `json:"docstatus"`
}

type CreateApplicationRequest struct {
	Name      string `json:"name"`
	Employee  string `json:"employee" validate:"required"`
	LeaveType string `json:"leave_type" validate:"required"`
	Company   string `json:"company"`
	FromDate  string `json:"from_date" validate:"required,datetime=2006-01-02"`
	ToDate    string `json:"to_date" validate:"required,datetime=2006-01-02"`
	Status    string `json:"status" validate:"omitempty,oneof=Open Approved Rejected"`
	Submit    bool   `json:"submit"`
}

// SubmitApplicationRequest optionally sets the final status before submit.
type SubmitApplicationRequest struct {
	Status string `json:"status" validate:"omitempty,oneof=Approved Rejected"`
}

func toApplicationDTO(a leave.Application) ApplicationDTO {
	return ApplicationDTO{
		Name:           a.Name,
		Employee:       a.Employee,
		LeaveType:      a.LeaveType,
		Company:        a.Company,
		FromDate:       a.FromDate,
		ToDate:         a.ToDate,
		TotalLeaveDays: a.TotalLeaveDays,
		Status:         string(a.Status),
		DocStatus:      int(a.DocStatus),
	}
}

func (req CreateApplicationRequest) toApplication() leave.Application {
	return leave.Application{
		Name:      req.Name,
		Employee:  req.Employee,
		LeaveType: req.LeaveType,
		Company:   req.Company,
		FromDate:  generic.MustParseDate(req.FromDate),
		ToDate:    generic.MustParseDate(req.ToDate),
		Status:    leave.ApplicationStatus(req.Status),
		DocStatus: generic.DocDraft,
	}
}

// =============================================================================
// LEDGER
// =============================================================================

type LedgerEntryDTO struct {
	ID              string            `json:"id"`
	Employee        string            `json:"employee"`
	LeaveType       string            `json:"leave_type"`
	TransactionType string            `json:"transaction_type"`
	TransactionName string            `json:"transaction_name"`
	Leaves          decimal.Decimal   `json:"leaves"`
	FromDate        generic.TimePoint `json:"from_date"`
	ToDate          generic.TimePoint `json:"to_date"`
	IsCarryForward  bool              `json:"is_carry_forward"`
	IsExpired       bool              `json:"is_expired"`
}

func toLedgerEntryDTO(e leave.LedgerEntry) LedgerEntryDTO {
	return LedgerEntryDTO{
		ID:              e.ID,
		Employee:        e.Employee,
		LeaveType:       e.LeaveType,
		TransactionType: string(e.TransactionType),
		TransactionName: e.TransactionName,
		Leaves:          e.Leaves,
		FromDate:        e.FromDate,
		ToDate:          e.ToDate,
		IsCarryForward:  e.IsCarryForward,
		IsExpired:       e.IsExpired,
	}
}

type BalanceDTO struct {
	Employee  string            `json:"employee"`
	LeaveType string            `json:"leave_type"`
	Date      generic.TimePoint `json:"date"`
	Balance   decimal.Decimal   `json:"balance"`
	Unit      string            `json:"unit"`
}

type ExpiryResultDTO struct {
	ExpiryEntries int `json:"expiry_entries"`
}

// =============================================================================
// HOLIDAYS
// =============================================================================

type HolidayDTO struct {
	ID        string `json:"id"`
	CompanyID string `json:"company_id"`
	Date      string `json:"date"`
	Name      string `json:"name"`
	Recurring bool   `json:"recurring"`
}

type CreateHolidayRequest struct {
	CompanyID string `json:"company_id"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Name      string `json:"name" validate:"required"`
	Recurring bool   `json:"recurring"`
}

// =============================================================================
// SALES DOCUMENTS
// =============================================================================

type CompanyRequest struct {
	Name            string `json:"name" validate:"required"`
	DefaultCurrency string `json:"default_currency" validate:"omitempty,len=3"`
}

type SalesOrderItemDTO struct {
	Name     string          `json:"name"`
	ItemCode string          `json:"item_code"`
	Amount   decimal.Decimal `json:"amount"`
}

type PaymentScheduleDTO struct {
	PaymentTerm       string          `json:"payment_term" validate:"required"`
	Description       string          `json:"description"`
	DueDate           string          `json:"due_date" validate:"required,datetime=2006-01-02"`
	InvoicePortion    decimal.Decimal `json:"invoice_portion"`
	BasePaymentAmount decimal.Decimal `json:"base_payment_amount"`
	PaidAmount        decimal.Decimal `json:"paid_amount"`
}

type SalesOrderDTO struct {
	Name                 string               `json:"name" validate:"required"`
	Company              string               `json:"company" validate:"required"`
	Customer             string               `json:"customer"`
	TransactionDate      string               `json:"transaction_date" validate:"required,datetime=2006-01-02"`
	PaymentTermsTemplate string               `json:"payment_terms_template"`
	DocStatus            int                  `json:"docstatus" validate:"gte=0,lte=2"`
	Items                []SalesOrderItemDTO  `json:"items" validate:"dive"`
	PaymentSchedule      []PaymentScheduleDTO `json:"payment_schedule" validate:"dive"`
}

type SalesInvoiceItemDTO struct {
	Name       string          `json:"name"`
	SalesOrder string          `json:"sales_order"`
	SODetail   string          `json:"so_detail"`
	Amount     decimal.Decimal `json:"amount"`
}

type SalesInvoiceDTO struct {
	Name           string                `json:"name" validate:"required"`
	Company        string                `json:"company" validate:"required"`
	Customer       string                `json:"customer"`
	PostingDate    string                `json:"posting_date" validate:"required,datetime=2006-01-02"`
	BaseGrandTotal decimal.Decimal       `json:"base_grand_total"`
	DocStatus      int                   `json:"docstatus" validate:"gte=0,lte=2"`
	Items          []SalesInvoiceItemDTO `json:"items" validate:"dive"`
}

func toSalesOrderDTO(so sales.SalesOrder) SalesOrderDTO {
	dto := SalesOrderDTO{
		Name:                 so.Name,
		Company:              so.Company,
		Customer:             so.Customer,
		TransactionDate:      so.TransactionDate.String(),
		PaymentTermsTemplate: so.PaymentTermsTemplate,
		DocStatus:            int(so.DocStatus),
		Items:                make([]SalesOrderItemDTO, 0, len(so.Items)),
		PaymentSchedule:      make([]PaymentScheduleDTO, 0, len(so.PaymentSchedule)),
	}
	for _, item := range so.Items {
		dto.Items = append(dto.Items, SalesOrderItemDTO(item))
	}
	for _, ps := range so.PaymentSchedule {
		dto.PaymentSchedule = append(dto.PaymentSchedule, PaymentScheduleDTO{
			PaymentTerm:       ps.PaymentTerm,
			Description:       ps.Description,
			DueDate:           ps.DueDate.String(),
			InvoicePortion:    ps.InvoicePortion,
			BasePaymentAmount: ps.BasePaymentAmount,
			PaidAmount:        ps.PaidAmount,
		})
	}
	return dto
}

func (d SalesOrderDTO) toSalesOrder() sales.SalesOrder {
	so := sales.SalesOrder{
		Name:                 d.Name,
		Company:              d.Company,
		Customer:             d.Customer,
		TransactionDate:      generic.MustParseDate(d.TransactionDate),
		PaymentTermsTemplate: d.PaymentTermsTemplate,
		DocStatus:            generic.DocStatus(d.DocStatus),
	}
	for _, item := range d.Items {
		so.Items = append(so.Items, sales.SalesOrderItem(item))
	}
	for _, ps := range d.PaymentSchedule {
		so.PaymentSchedule = append(so.PaymentSchedule, sales.PaymentSchedule{
			PaymentTerm:       ps.PaymentTerm,
			Description:       ps.Description,
			DueDate:           generic.MustParseDate(ps.DueDate),
			InvoicePortion:    ps.InvoicePortion,
			BasePaymentAmount: ps.BasePaymentAmount,
			PaidAmount:        ps.PaidAmount,
		})
	}
	return so
}

func toSalesInvoiceDTO(si sales.SalesInvoice) SalesInvoiceDTO {
	dto := SalesInvoiceDTO{
		Name:           si.Name,
		Company:        si.Company,
		Customer:       si.Customer,
		PostingDate:    si.PostingDate.String(),
		BaseGrandTotal: si.BaseGrandTotal,
		DocStatus:      int(si.DocStatus),
		Items:          make([]SalesInvoiceItemDTO, 0, len(si.Items)),
	}
	for _, item := range si.Items {
		dto.Items = append(dto.Items, SalesInvoiceItemDTO(item))
	}
	return dto
}

func (d SalesInvoiceDTO) toSalesInvoice() sales.SalesInvoice {
	si := sales.SalesInvoice{
		Name:           d.Name,
		Company:        d.Company,
		Customer:       d.Customer,
		PostingDate:    generic.MustParseDate(d.PostingDate),
		BaseGrandTotal: d.BaseGrandTotal,
		DocStatus:      generic.DocStatus(d.DocStatus),
	}
	for _, item := range d.Items {
		si.Items = append(si.Items, sales.SalesInvoiceItem(item))
	}
	return si
}

// =============================================================================
// SCENARIOS
// =============================================================================

type ScenarioDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type LoadScenarioRequest struct {
	ScenarioID string `json:"scenario_id" validate:"required"`
}
