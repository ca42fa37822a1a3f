package shared

import (
	"errors"
	"fmt"
	"strings"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "Resource was modified by another process")
	ErrInvalidState        = NewDomainError("INVALID_STATE", "Operation not allowed in current state")
)

// IsConflict reports whether err is the optimistic-concurrency conflict.
// Callers that see a conflict must re-read the aggregate before retrying;
// nothing has been applied.
func IsConflict(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == ErrConcurrencyConflict.Code
	}
	return false
}

// FieldError describes a single offending field in a validation failure
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError rejects bad input before any mutation. It carries one entry
// per offending field so callers can correct and resubmit.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

// Error implements the error interface
func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return "validation failed"
	}
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Field, f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add appends a field error and returns the receiver for chaining
func (e *ValidationError) Add(field, message string) *ValidationError {
	e.Fields = append(e.Fields, FieldError{Field: field, Message: message})
	return e
}

// HasErrors reports whether any field failed validation
func (e *ValidationError) HasErrors() bool {
	return len(e.Fields) > 0
}

// NewValidationError creates an empty validation error to be filled via Add
func NewValidationError() *ValidationError {
	return &ValidationError{}
}

// IsValidation reports whether err is a validation failure
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ComputationError marks an unexpected calculation failure for a single item.
// Batch entry points convert it into a failed result item and keep processing
// the remaining items.
type ComputationError struct {
	Reason string
}

// Error implements the error interface
func (e *ComputationError) Error() string {
	return e.Reason
}

// NewComputationError creates a computation error with a formatted reason
func NewComputationError(format string, args ...any) *ComputationError {
	return &ComputationError{Reason: fmt.Sprintf(format, args...)}
}

// IsComputation reports whether err is a computation failure
func IsComputation(err error) bool {
	var ce *ComputationError
	return errors.As(err, &ce)
}
