package service

import (
	"errors"
	"fmt"
)

// Sentinel errors for lifecycle and ledger failures. Handlers map these to
// HTTP status codes with errors.Is.
var (
	ErrPermission            = errors.New("permission denied")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrInsufficientBudget    = errors.New("insufficient budget")
	ErrBudgetAlreadyConsumed = errors.New("budget already consumed for request")
	ErrNoBudgetPeriod        = errors.New("no active budget period for unit")
	ErrRequestLocked         = errors.New("request can no longer be modified")
)

// ValidationError rejects a mutation before any write happens
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func validationf(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is (or wraps) a ValidationError
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
