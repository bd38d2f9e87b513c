/*
errors.go - Centralized error types shared by the domain packages

PURPOSE:
  Sentinel errors for conditions that are not specific to one domain.
  Domain packages wrap these with additional context.

ERROR CATEGORIES:
  1. Input errors - malformed periods, bad document status transitions
  2. Lookup errors - missing records
  3. Store errors - database-level failures

USAGE:
  if errors.Is(err, generic.ErrNotFound) {
      // 404
  }
*/
package generic

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period is malformed (end not after start).
	ErrInvalidPeriod = errors.New("invalid period: to date cannot be before from date")

	// ErrNotFound is returned when a referenced record doesn't exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidDocStatus is returned when an operation is not allowed in the
	// record's current lifecycle state (e.g., cancelling a draft).
	ErrInvalidDocStatus = errors.New("invalid document status for operation")

	// ErrDuplicate is returned when a record with the same name already exists.
	ErrDuplicate = errors.New("duplicate record")

	// ErrTransactionFailed is returned when a store transaction cannot be committed.
	ErrTransactionFailed = errors.New("transaction failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError names the missing record.
type NotFoundError struct {
	Kind string // e.g., "leave allocation", "sales order"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// DocStatusError describes a rejected lifecycle transition.
type DocStatusError struct {
	Kind      string
	Name      string
	Current   DocStatus
	Operation string
}

func (e *DocStatusError) Error() string {
	return fmt.Sprintf("cannot %s %s %q: document is %s", e.Operation, e.Kind, e.Name, e.Current)
}

func (e *DocStatusError) Unwrap() error {
	return ErrInvalidDocStatus
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsConflict returns true if the error is a lifecycle or uniqueness conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrInvalidDocStatus) || errors.Is(err, ErrDuplicate)
}
