package vesting

import (
	"errors"
	"fmt"

	"github.com/xraph/vesting/asset"
	"github.com/xraph/vesting/types"
)

// Sentinel errors for common failure scenarios.
var (
	// Validation errors
	ErrInvalidConfig = types.ErrInvalidConfig

	// State errors
	ErrAlreadyStarted = types.ErrAlreadyStarted
	ErrNotStarted     = types.ErrNotStarted
	ErrNotOpen        = errors.New("vesting: engine not open")

	// Authorization errors
	ErrUnauthorized = errors.New("vesting: unauthorized")

	// Lookup errors
	ErrAlreadyExists    = types.ErrAlreadyExists
	ErrScheduleNotFound = types.ErrScheduleNotFound
	ErrReserveNotFound  = types.ErrReserveNotFound
	ErrClaimNotFound    = types.ErrClaimNotFound
	ErrIndexOutOfRange  = errors.New("vesting: index out of range")

	// Asset errors
	ErrTransferFailed = errors.New("vesting: asset transfer failed")

	// Rehydration errors
	ErrScheduleMismatch = errors.New("vesting: stored schedule differs from configuration")
)

// ValidationError represents a validation failure with details.
type ValidationError = types.ValidationError

// MultiError represents multiple errors that occurred.
type MultiError struct {
	Errors []error
}

func (e MultiError) Error() string {
	if len(e.Errors) == 0 {
		return "vesting: no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("vesting: %d errors occurred", len(e.Errors))
}

// Unwrap exposes every collected error to errors.Is and errors.As.
func (e MultiError) Unwrap() []error { return e.Errors }

// Add adds an error to the multi-error.
func (e *MultiError) Add(err error) {
	if err != nil {
		e.Errors = append(e.Errors, err)
	}
}

// HasErrors returns true if there are any errors.
func (e MultiError) HasErrors() bool {
	return len(e.Errors) > 0
}

// First returns the first error or nil.
func (e MultiError) First() error {
	if len(e.Errors) > 0 {
		return e.Errors[0]
	}
	return nil
}

// ErrorOrNil returns e if it holds any error, nil otherwise.
func (e MultiError) ErrorOrNil() error {
	if !e.HasErrors() {
		return nil
	}
	return e
}

// IsNotFound returns true if the error is a not found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrScheduleNotFound) ||
		errors.Is(err, ErrReserveNotFound) ||
		errors.Is(err, ErrClaimNotFound) ||
		errors.Is(err, ErrIndexOutOfRange)
}

// IsStateError returns true if the operation is not allowed in the current
// lifecycle state of the schedule.
func IsStateError(err error) bool {
	return errors.Is(err, ErrAlreadyStarted) ||
		errors.Is(err, ErrNotStarted) ||
		errors.Is(err, ErrNotOpen)
}

// IsRetryable returns true if the error is temporary and the operation can be
// retried unchanged once the underlying condition is resolved.
func IsRetryable(err error) bool {
	return errors.Is(err, asset.ErrInsufficientBalance) ||
		errors.Is(err, asset.ErrInsufficientAllowance) ||
		errors.Is(err, ErrTransferFailed)
}
