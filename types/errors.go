package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared by the engine and the store backends. The root
// package re-exports each of them.
var (
	ErrInvalidConfig    = errors.New("vesting: invalid config")
	ErrAlreadyStarted   = errors.New("vesting: already started")
	ErrNotStarted       = errors.New("vesting: not started")
	ErrAlreadyExists    = errors.New("vesting: already exists")
	ErrScheduleNotFound = errors.New("vesting: schedule not found")
	ErrReserveNotFound  = errors.New("vesting: reserve not found")
	ErrClaimNotFound    = errors.New("vesting: claim not found")
)

// ValidationError names the parameter that failed validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("vesting: validation failed for %s: %s", e.Field, e.Message)
}

// Unwrap makes errors.Is(err, ErrInvalidConfig) hold.
func (e ValidationError) Unwrap() error { return ErrInvalidConfig }

// Invalid returns a ValidationError for field.
func Invalid(field, format string, args ...any) error {
	return ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}
