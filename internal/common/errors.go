package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Error taxonomy for the extraction engine. Handlers map these onto HTTP
// statuses; everything else is treated as internal.
var (
	ErrValidation        = errors.New("validation failed")
	ErrNotFound          = errors.New("session not found")
	ErrForbidden         = errors.New("session owned by another user")
	ErrProviderExhausted = errors.New("all extraction models failed")
	ErrDuplicateInvoice  = errors.New("invoice already registered")
	ErrPersistence       = errors.New("invoice persistence failed")
)

// NewAppError builds an AppError with the given code, message and cause.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
