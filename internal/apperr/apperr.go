// Package apperr defines the typed error outcomes surfaced by the
// prescription core. The transport layer maps each kind to a distinct
// client-visible status; nothing in the core may downgrade a safety
// block into one of the softer kinds.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports a caller input or precondition violation.
// The caller can recover by retrying with corrected input.
type ValidationError struct {
	Field     string
	Message   string
	Operation string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] validation failed on %q: %s", e.Operation, e.Field, e.Message)
}

// NewValidation builds a ValidationError for the given operation.
func NewValidation(operation, field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message, Operation: operation}
}

// SafetyBlockError is raised when an approval is attempted against a
// blocking safety result, or when upstream AI content is flagged unsafe.
type SafetyBlockError struct {
	Reason string
}

func (e *SafetyBlockError) Error() string {
	if e.Reason == "" {
		return "content blocked by safety filters"
	}
	return e.Reason
}

// NewSafetyBlock builds a SafetyBlockError with the given reason.
func NewSafetyBlock(reason string) *SafetyBlockError {
	return &SafetyBlockError{Reason: reason}
}

// ResourceNotFoundError reports an absent prescription, receipt, or
// other keyed resource.
type ResourceNotFoundError struct {
	Resource string
	ID       string
}

func (e *ResourceNotFoundError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("%s not found", e.Resource)
	}
	return fmt.Sprintf("%s %q not found", e.Resource, e.ID)
}

// NewNotFound builds a ResourceNotFoundError.
func NewNotFound(resource, id string) *ResourceNotFoundError {
	return &ResourceNotFoundError{Resource: resource, ID: id}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsSafetyBlock reports whether err is (or wraps) a SafetyBlockError.
func IsSafetyBlock(err error) bool {
	var target *SafetyBlockError
	return errors.As(err, &target)
}

// IsNotFound reports whether err is (or wraps) a ResourceNotFoundError.
func IsNotFound(err error) bool {
	var target *ResourceNotFoundError
	return errors.As(err, &target)
}
