package core

import (
	"errors"
	"fmt"
)

// AppError carries a stable code alongside a human message.
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

var (
	ErrFormatUnsupported = errors.New("unsupported image format")
	ErrEmptyInput        = errors.New("empty input")
	ErrJobNotFound       = errors.New("job not found")
	ErrNotPending        = errors.New("job is not pending")
	ErrNotProcessed      = errors.New("job is not processed")
	ErrInvalidInput      = errors.New("invalid input")
	ErrNoPreview         = errors.New("no embedded JPEG preview")
)

// NewAppError builds an AppError.
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// WrapError prefixes err with message, keeping it matchable.
func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
