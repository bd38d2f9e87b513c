package leave

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/warp/erp-engine/generic"
	"go.uber.org/zap"
)

// Service runs the leave rules against a Store. It is stateless apart
// from its collaborators and safe for concurrent use when the Store is.
type Service struct {
	store    Store
	holidays generic.HolidayCalendar
	now      func() time.Time
	log      *zap.Logger
}

type Option func(*Service)

// WithHolidays sets the calendar used to count leave days.
func WithHolidays(c generic.HolidayCalendar) Option {
	return func(s *Service) {
		if c != nil {
			s.holidays = c
		}
	}
}

// WithClock overrides "today" for expiry processing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func WithLogger(l *zap.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.log = l
		}
	}
}

func NewService(store Store, opts ...Option) *Service {
	s := &Service{
		store:    store,
		holidays: &generic.DefaultHolidayCalendar{},
		now:      time.Now,
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.Named("leave")
	return s
}

// Store exposes the underlying store for read-only listing endpoints.
func (s *Service) Store() Store {
	return s.store
}

func (s *Service) today() generic.TimePoint {
	return generic.FromTime(s.now())
}

// =============================================================================
// LOOKUPS
// =============================================================================

func (s *Service) leaveType(ctx context.Context, st Store, name string) (LeaveType, error) {
	lt, err := st.GetLeaveType(ctx, name)
	if err != nil {
		return LeaveType{}, err
	}
	if lt == nil {
		return LeaveType{}, &generic.NotFoundError{Kind: "leave type", Name: name}
	}
	return *lt, nil
}

func (s *Service) employee(ctx context.Context, st Store, id string) (Employee, error) {
	emp, err := st.GetEmployee(ctx, id)
	if err != nil {
		return Employee{}, err
	}
	if emp == nil {
		return Employee{}, &generic.NotFoundError{Kind: "employee", Name: id}
	}
	return *emp, nil
}

func (s *Service) allocation(ctx context.Context, st Store, name string) (Allocation, error) {
	a, err := st.GetAllocation(ctx, name)
	if err != nil {
		return Allocation{}, err
	}
	if a == nil {
		return Allocation{}, &generic.NotFoundError{Kind: "leave allocation", Name: name}
	}
	return *a, nil
}

// GetAllocation returns a stored allocation or a NotFoundError.
func (s *Service) GetAllocation(ctx context.Context, name string) (*Allocation, error) {
	a, err := s.allocation(ctx, s.store, name)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func newName(prefix string) string {
	return prefix + "-" + strings.ToUpper(uuid.NewString()[:8])
}
