// internal/core/errors.go
package core

import (
	"errors"
	"fmt"
)

// Error represents a structured error with code and optional cause.
type Error struct {
	Code    string
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As support.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches by code so wrapped copies compare equal to their base error.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// WrapError creates a new error with the same code but with a cause.
func WrapError(base *Error, cause error) *Error {
	return &Error{
		Code:    base.Code,
		Message: base.Message,
		Cause:   cause,
	}
}

// Predefined errors
var (
	// Input errors
	ErrLengthMismatch   = &Error{Code: "LENGTH_MISMATCH", Message: "price and exposure series differ in length"}
	ErrNonPositivePrice = &Error{Code: "NON_POSITIVE_PRICE", Message: "price must be positive and finite"}
	ErrNonMonotonicTime = &Error{Code: "NON_MONOTONIC_TIME", Message: "timestamps must be strictly increasing"}
	ErrExposureRange    = &Error{Code: "EXPOSURE_RANGE", Message: "exposure must be within [0,1]"}

	// Data errors
	ErrNoData        = &Error{Code: "NO_DATA", Message: "no data available"}
	ErrMalformedData = &Error{Code: "MALFORMED_DATA", Message: "malformed data"}

	// Config errors
	ErrConfigInvalid = &Error{Code: "CONFIG_INVALID", Message: "configuration invalid"}
	ErrConfigMissing = &Error{Code: "CONFIG_MISSING", Message: "required configuration missing"}

	// Archive errors
	ErrArchiveFailed = &Error{Code: "ARCHIVE_FAILED", Message: "archiving snapshot failed"}

	// LLM errors
	ErrLLMFailed = &Error{Code: "LLM_FAILED", Message: "LLM request failed"}
)

// IsInputError reports whether err is one of the malformed-input errors.
func IsInputError(err error) bool {
	for _, base := range []*Error{ErrLengthMismatch, ErrNonPositivePrice, ErrNonMonotonicTime, ErrExposureRange} {
		if errors.Is(err, base) {
			return true
		}
	}
	return false
}
