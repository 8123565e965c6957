// Package errors provides typed errors for the signal pipeline.
//
// Error codes are grouped by failure class:
//   - Validation errors (100-199, 400-499): bad parameters or configuration, raised before any computation
//   - Data quality errors (200-299): missing columns, non-finite inputs, insufficient history
//   - Computation errors (300-399): numerically undefined results not otherwise special-cased
//   - Simulation errors (600-699): the backtest state machine reached an inconsistent state
//   - Callback errors (800-899): lifecycle callback failures
//
// Usage:
//
//	err := errors.Newf(errors.ErrCodeInvalidPeriod, "period must be >= 2, got %d", period)
//	if errors.IsValidation(err) { ... }
package errors

import (
	"errors"
	"fmt"
	"time"
)

// Error represents a structured error with an error code and message.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// New creates a new Error with the given code and message.
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   nil,
	}
}

// Newf creates a new Error with the given code and formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   nil,
	}
}

// Wrap wraps an existing error with a new Error containing the given code and message.
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// Wrapf wraps an existing error with a new Error containing the given code and formatted message.
func Wrapf(code ErrorCode, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Error renders as "[code kind] message: cause".
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%d %s] %s: %v", e.Code, e.Code.Kind(), e.Message, e.Cause)
	}

	return fmt.Sprintf("[%d %s] %s", e.Code, e.Code.Kind(), e.Message)
}

// Kind returns the failure class of the error's code.
func (e *Error) Kind() Kind {
	return e.Code.Kind()
}

// Unwrap returns the underlying error cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether any error in err's chain matches target.
// This is a convenience wrapper around the standard errors.Is function.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
// This is a convenience wrapper around the standard errors.As function.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// GetCode extracts the ErrorCode from an error if it's an *Error type.
// Returns ErrCodeUnknown if the error is not an *Error type.
func GetCode(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}

	return ErrCodeUnknown
}

// HasCode checks if an error has a specific ErrorCode.
func HasCode(err error, code ErrorCode) bool {
	return GetCode(err) == code
}

// InsufficientDataError is returned when a series is shorter than an indicator's lookback.
type InsufficientDataError struct {
	Required int    // Minimum data points required
	Actual   int    // Actual data points available
	Symbol   string // Optional: symbol context
	Message  string // Human-readable message
}

// NewInsufficientDataError creates a new InsufficientDataError.
func NewInsufficientDataError(required, actual int, symbol, message string) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  message,
	}
}

// NewInsufficientDataErrorf creates a new InsufficientDataError with a formatted message.
func NewInsufficientDataErrorf(required, actual int, symbol, format string, args ...any) *InsufficientDataError {
	return &InsufficientDataError{
		Required: required,
		Actual:   actual,
		Symbol:   symbol,
		Message:  fmt.Sprintf(format, args...),
	}
}

// Error implements the error interface.
func (e *InsufficientDataError) Error() string {
	return e.Message
}

// IsInsufficientDataError checks if an error is an InsufficientDataError.
// It uses errors.As to check the error chain.
func IsInsufficientDataError(err error) bool {
	var insufficientErr *InsufficientDataError

	return errors.As(err, &insufficientErr)
}

// ComputationError reports a numerically undefined value at a specific date and column.
type ComputationError struct {
	Column  string
	Date    time.Time
	Message string
}

// NewComputationError creates a new ComputationError.
func NewComputationError(column string, date time.Time, message string) *ComputationError {
	return &ComputationError{
		Column:  column,
		Date:    date,
		Message: message,
	}
}

// Error implements the error interface.
func (e *ComputationError) Error() string {
	return fmt.Sprintf("[%d] %s at %s (%s): %s", ErrCodeNonFiniteResult, e.Column, e.Date.Format("2006-01-02"), KindComputation, e.Message)
}

// Code returns the error code carried by every ComputationError.
func (e *ComputationError) Code() ErrorCode {
	return ErrCodeNonFiniteResult
}
