package ledger

import (
	"errors"
	"fmt"

	"bookkeeper/pkg/services"
)

// Error kinds returned by the engine
var (
	// ErrNotFound is returned when a referenced account or invoice does not
	// exist. It is fatal to the call that referenced it.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput is returned for malformed currency codes, negative
	// quantities or inverted date ranges, before any aggregation runs.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDataInconsistency marks stored records that contradict the account
	// declaration. These are logged and still summed, never returned.
	ErrDataInconsistency = errors.New("data inconsistency")
)

// LedgerError wraps an error kind with the failing operation and context.
type LedgerError struct {
	// Op is the operation that failed (e.g., "Resolve", "Aggregate").
	Op string

	// Err is the underlying error, usually one of the kinds above.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *LedgerError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("ledger: %s failed: %s: %v", e.Op, e.Details, e.Err)
	}
	return fmt.Sprintf("ledger: %s failed: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *LedgerError) Unwrap() error {
	return e.Err
}

// NewLedgerError creates a LedgerError.
func NewLedgerError(op string, err error, details string) *LedgerError {
	return &LedgerError{
		Op:      op,
		Err:     err,
		Details: details,
	}
}

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for field '%s': %s (value: %v)", e.Field, e.Message, e.Value)
}

// Is makes every ValidationError match ErrInvalidInput.
func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// storeError maps store errors onto engine error kinds.
func storeError(op string, err error, details string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, services.ErrRecordNotFound) {
		return &LedgerError{Op: op, Err: fmt.Errorf("%w: %w", ErrNotFound, err), Details: details}
	}
	return fmt.Errorf("%s: %s: %w", op, details, err)
}
