/*
application.go - Leave applications

PURPOSE:
  Applications consume allocated leave. Only the parts the allocation
  rules depend on live here: counting leave days, writing the negative
  ledger entry of an approved application, and summing approved days
  inside an allocation window.

DAY COUNTING:
  Every calendar day in [from, to] counts, except company holidays when
  the leave type does not include holidays.
*/
package leave

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/warp/erp-engine/generic"
	"go.uber.org/zap"
)

func (s *Service) leaveDays(company string, lt LeaveType, p generic.Period) decimal.Decimal {
	if lt.IncludeHoliday {
		return decimal.NewFromInt(int64(p.DaysInclusive()))
	}
	n := 0
	for _, d := range p.Days() {
		if !s.holidays.IsHoliday(company, d) {
			n++
		}
	}
	return decimal.NewFromInt(int64(n))
}

// TotalLeaveDays counts the leave days an application spans.
func (s *Service) TotalLeaveDays(ctx context.Context, app Application) (decimal.Decimal, error) {
	if app.ToDate.Before(app.FromDate) {
		return decimal.Zero, &ValidationError{Kind: generic.ErrInvalidPeriod, Message: "To date cannot be before from date"}
	}
	lt, err := s.leaveType(ctx, s.store, app.LeaveType)
	if err != nil {
		return decimal.Zero, err
	}
	company, err := s.applicationCompany(ctx, s.store, app)
	if err != nil {
		return decimal.Zero, err
	}
	return s.leaveDays(company, lt, app.Period()), nil
}

func (s *Service) applicationCompany(ctx context.Context, st Store, app Application) (string, error) {
	if app.Company != "" {
		return app.Company, nil
	}
	emp, err := s.employee(ctx, st, app.Employee)
	if err != nil {
		return "", err
	}
	return emp.Company, nil
}

// SaveApplication stores a draft application with its day count filled in.
func (s *Service) SaveApplication(ctx context.Context, app *Application) error {
	if app.Name == "" {
		app.Name = newName("HR-LAP")
	}
	if app.Status == "" {
		app.Status = ApplicationOpen
	}
	if app.DocStatus != generic.DocDraft {
		return &generic.DocStatusError{Kind: "leave application", Name: app.Name, Current: app.DocStatus, Operation: "save"}
	}

	return s.store.WithTx(ctx, func(st Store) error {
		if err := s.prepareApplication(ctx, st, app); err != nil {
			return err
		}
		return st.SaveApplication(ctx, *app)
	})
}

func (s *Service) prepareApplication(ctx context.Context, st Store, app *Application) error {
	if app.ToDate.Before(app.FromDate) {
		return &ValidationError{Kind: generic.ErrInvalidPeriod, Message: "To date cannot be before from date"}
	}
	if _, err := s.employee(ctx, st, app.Employee); err != nil {
		return err
	}
	lt, err := s.leaveType(ctx, st, app.LeaveType)
	if err != nil {
		return err
	}
	company, err := s.applicationCompany(ctx, st, *app)
	if err != nil {
		return err
	}
	app.Company = company
	app.TotalLeaveDays = s.leaveDays(company, lt, app.Period())
	if app.TotalLeaveDays.IsZero() {
		return validationErrorf(ErrNoLeaveDays,
			"The day(s) on which you are applying for leave are holidays. You need not apply for leave.")
	}
	return nil
}

// SubmitApplication submits an Approved or Rejected application. Approved
// applications write their days to the ledger as a negative entry.
func (s *Service) SubmitApplication(ctx context.Context, app *Application) error {
	if app.Name == "" {
		app.Name = newName("HR-LAP")
	}
	if app.DocStatus != generic.DocDraft {
		return &generic.DocStatusError{Kind: "leave application", Name: app.Name, Current: app.DocStatus, Operation: "submit"}
	}
	if app.Status != ApplicationApproved && app.Status != ApplicationRejected {
		return validationErrorf(ErrApplicationStatus,
			"Only Leave Applications with status 'Approved' and 'Rejected' can be submitted")
	}

	err := s.store.WithTx(ctx, func(st Store) error {
		if stored, err := st.GetApplication(ctx, app.Name); err != nil {
			return err
		} else if stored != nil && stored.DocStatus != generic.DocDraft {
			return &generic.DocStatusError{Kind: "leave application", Name: app.Name, Current: stored.DocStatus, Operation: "submit"}
		}
		if err := s.prepareApplication(ctx, st, app); err != nil {
			return err
		}

		submitted := *app
		submitted.DocStatus = generic.DocSubmitted
		if submitted.Status == ApplicationApproved {
			lt, err := s.leaveType(ctx, st, app.LeaveType)
			if err != nil {
				return err
			}
			if err := s.checkApplicationBalance(ctx, st, submitted, lt); err != nil {
				return err
			}
			entry := LedgerEntry{
				ID:              uuid.NewString(),
				Employee:        submitted.Employee,
				LeaveType:       submitted.LeaveType,
				TransactionType: TxLeaveApplication,
				TransactionName: submitted.Name,
				Leaves:          submitted.TotalLeaveDays.Neg(),
				FromDate:        submitted.FromDate,
				ToDate:          submitted.ToDate,
				CreatedAt:       s.now().UTC(),
			}
			if err := st.AppendLedgerEntries(ctx, []LedgerEntry{entry}); err != nil {
				return err
			}
		}
		return st.SaveApplication(ctx, submitted)
	})
	if err != nil {
		return err
	}

	app.DocStatus = generic.DocSubmitted
	s.log.Info("leave application submitted",
		zap.String("application", app.Name),
		zap.String("employee", app.Employee),
		zap.String("status", string(app.Status)),
		zap.String("days", app.TotalLeaveDays.String()))
	return nil
}

func (s *Service) checkApplicationBalance(ctx context.Context, st Store, app Application, lt LeaveType) error {
	if lt.IsLWP {
		return nil
	}
	allocations, err := st.ListAllocations(ctx, app.Employee, app.LeaveType)
	if err != nil {
		return err
	}
	var covering *Allocation
	for i := range allocations {
		a := allocations[i]
		if a.DocStatus.IsSubmitted() && a.Period().Contains(app.FromDate) {
			covering = &allocations[i]
			break
		}
	}
	if covering == nil {
		return validationErrorf(ErrNoAllocation,
			"No leave record found for employee %s for %s on %s", app.Employee, app.LeaveType, app.FromDate)
	}
	if lt.AllowNegative {
		return nil
	}

	balance, err := s.unusedLeaves(ctx, st, app.Employee, app.LeaveType, covering.Period())
	if err != nil {
		return err
	}
	if balance.LessThan(app.TotalLeaveDays) {
		return validationErrorf(ErrInsufficientBalance,
			"There is not enough leave balance for Leave Type %s: %s available, %s requested",
			app.LeaveType, balance, app.TotalLeaveDays)
	}
	return nil
}

// CancelApplication deletes a submitted application's ledger entries.
func (s *Service) CancelApplication(ctx context.Context, name string) (*Application, error) {
	var cancelled Application
	err := s.store.WithTx(ctx, func(st Store) error {
		app, err := st.GetApplication(ctx, name)
		if err != nil {
			return err
		}
		if app == nil {
			return &generic.NotFoundError{Kind: "leave application", Name: name}
		}
		if !app.DocStatus.IsSubmitted() {
			return &generic.DocStatusError{Kind: "leave application", Name: name, Current: app.DocStatus, Operation: "cancel"}
		}
		if err := st.DeleteLedgerEntries(ctx, TxLeaveApplication, name); err != nil {
			return err
		}
		app.DocStatus = generic.DocCancelled
		app.Status = ApplicationCancelled
		cancelled = *app
		return st.SaveApplication(ctx, *app)
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("leave application cancelled", zap.String("application", name))
	return &cancelled, nil
}

// ApprovedLeavesForPeriod sums approved, submitted application days that
// fall inside [from, to].
func (s *Service) ApprovedLeavesForPeriod(ctx context.Context, employee, leaveType string, from, to generic.TimePoint) (decimal.Decimal, error) {
	lt, err := s.leaveType(ctx, s.store, leaveType)
	if err != nil {
		return decimal.Zero, err
	}
	return s.approvedLeavesForPeriod(ctx, s.store, employee, lt, generic.NewPeriod(from, to))
}

func (s *Service) approvedLeavesForPeriod(ctx context.Context, st Store, employee string, lt LeaveType, window generic.Period) (decimal.Decimal, error) {
	apps, err := st.ListApplications(ctx, employee, lt.Name)
	if err != nil {
		return decimal.Zero, err
	}
	sum := decimal.Zero
	for _, app := range apps {
		if app.Status != ApplicationApproved || !app.DocStatus.IsSubmitted() {
			continue
		}
		if window.Covers(app.Period()) {
			sum = sum.Add(app.TotalLeaveDays)
			continue
		}
		inter, ok := window.Intersect(app.Period())
		if !ok {
			continue
		}
		sum = sum.Add(s.leaveDays(app.Company, lt, inter))
	}
	return sum, nil
}
