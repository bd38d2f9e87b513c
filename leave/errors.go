package leave

import (
	"errors"
	"fmt"

	"github.com/warp/erp-engine/generic"
)

// ErrValidation is the common parent of every rule violation in this
// package. Callers that only need "was the record rejected" check this one.
var ErrValidation = errors.New("validation error")

// Rule-specific sentinels. Every ValidationError unwraps to ErrValidation
// and to exactly one of these.
var (
	ErrOverlap             = errors.New("overlapping leave allocation")
	ErrOverAllocation      = errors.New("allocated leaves exceed days in period")
	ErrBackDated           = errors.New("back dated leave allocation")
	ErrLessAllocation      = errors.New("allocation below approved leaves")
	ErrNotCarryForward     = errors.New("leave type cannot be carry forwarded")
	ErrLeaveWithoutPay     = errors.New("leave without pay cannot be allocated")
	ErrTotalMandatory      = errors.New("total leaves allocated is mandatory")
	ErrMaxAllowed          = errors.New("allocation exceeds maximum allowed for leave type")
	ErrInsufficientBalance = errors.New("insufficient leave balance")
	ErrNoAllocation        = errors.New("no leave allocation found")
	ErrApplicationStatus   = errors.New("invalid leave application status")
	ErrNoLeaveDays         = errors.New("leave application has no working days")
)

// ValidationError is a rejected business rule with a human readable message.
type ValidationError struct {
	Kind    error
	Message string
	Ref     string // conflicting record, when there is one
}

func (e *ValidationError) Error() string {
	if e.Ref != "" {
		return fmt.Sprintf("%s (reference: %s)", e.Message, e.Ref)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() []error {
	return []error{ErrValidation, e.Kind}
}

func validationErrorf(kind error, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a rule violation from this package or
// a malformed period.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, generic.ErrInvalidPeriod)
}
