// Package errors provides custom error types for domain-specific errors.
package errors

import (
	"errors"
	"fmt"
)

// Standard sentinel errors
var (
	ErrWACCInfeasible    = errors.New("wacc does not exceed terminal growth")
	ErrNonPositiveFCF    = errors.New("free cash flow is negative or unavailable")
	ErrNonPositiveShares = errors.New("shares outstanding unavailable")
	ErrUnexpectedFault   = errors.New("unexpected computation fault")
	ErrTickerNotFound    = errors.New("ticker not found")
	ErrRateLimited       = errors.New("rate limited")
	ErrUpstreamEmpty     = errors.New("upstream returned an empty response")
	ErrConnectionFailed  = errors.New("connection failed")
	ErrTimeout           = errors.New("operation timed out")
	ErrConfigInvalid     = errors.New("invalid configuration")
	ErrDataNotFound      = errors.New("data not found")
	ErrCacheMiss         = errors.New("cache miss")
	ErrInputValidation   = errors.New("input validation failed")
)

// ModelError is a valuation model failure. Stage names the step that failed.
type ModelError struct {
	Model string
	Stage string
	Err   error
}

func (e *ModelError) Error() string {
	return fmt.Sprintf("%s model error [%s]: %v", e.Model, e.Stage, e.Err)
}

func (e *ModelError) Unwrap() error {
	return e.Err
}

// NewModelError creates a new ModelError.
func NewModelError(model, stage string, err error) *ModelError {
	return &ModelError{
		Model: model,
		Stage: stage,
		Err:   err,
	}
}

// FromPanic converts a recovered panic value into a ModelError wrapping
// ErrUnexpectedFault.
func FromPanic(model, stage string, recovered interface{}) *ModelError {
	return &ModelError{
		Model: model,
		Stage: stage,
		Err:   fmt.Errorf("%w: %v", ErrUnexpectedFault, recovered),
	}
}

// ProviderError represents an error from a market data provider.
type ProviderError struct {
	Provider string
	Status   int
	Message  string
	Err      error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("provider error [%s %d]: %s: %v", e.Provider, e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("provider error [%s %d]: %s", e.Provider, e.Status, e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a new ProviderError.
func NewProviderError(provider string, status int, message string, err error) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Status:   status,
		Message:  message,
		Err:      err,
	}
}

// ValidationError represents a validation error.
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error: %s (%v): %s", e.Field, e.Value, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInputValidation
}

// NewValidationError creates a new ValidationError.
func NewValidationError(field string, value interface{}, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// DataError represents a data-related error.
type DataError struct {
	DataType string
	Ticker   string
	Message  string
	Err      error
}

func (e *DataError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("data error [%s] %s: %s: %v", e.DataType, e.Ticker, e.Message, e.Err)
	}
	return fmt.Sprintf("data error [%s] %s: %s", e.DataType, e.Ticker, e.Message)
}

func (e *DataError) Unwrap() error {
	return e.Err
}

// NewDataError creates a new DataError.
func NewDataError(dataType, ticker, message string, err error) *DataError {
	return &DataError{
		DataType: dataType,
		Ticker:   ticker,
		Message:  message,
		Err:      err,
	}
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Wrapf wraps an error with formatted context.
func Wrapf(err error, format string, args ...interface{}) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), err)
}
