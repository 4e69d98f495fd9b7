// Package errors provides shared error types for the Bento client and tools.
package errors

import (
	"errors"
	"fmt"
)

// NotFoundError indicates a Bento record does not exist.
type NotFoundError struct {
	Resource   string // "subscriber", "sequence", "workflow", "email_template"
	Identifier string // id, email, or searched name
}

func (e *NotFoundError) Error() string {
	if e.Resource != "" {
		return fmt.Sprintf("%s not found in Bento: %s", e.Resource, e.Identifier)
	}
	return fmt.Sprintf("not found in Bento: %s", e.Identifier)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, identifier string) *NotFoundError {
	return &NotFoundError{
		Resource:   resource,
		Identifier: identifier,
	}
}

// ValidationError indicates invalid tool arguments.
type ValidationError struct {
	Field   string // field name that failed validation
	Value   string // the invalid value (may be empty for sensitive data)
	Message string // human-readable error message
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s=%q: %s", e.Field, e.Value, e.Message)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NewValidationError creates a ValidationError.
func NewValidationError(field, value, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Value:   value,
		Message: message,
	}
}

// APIError is a non-success response from the Bento API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("Bento API error %d", e.StatusCode)
	}
	return fmt.Sprintf("Bento API error %d: %s", e.StatusCode, e.Message)
}

// Unauthorized reports whether the API rejected the configured keys.
func (e *APIError) Unauthorized() bool {
	return e.StatusCode == 401 || e.StatusCode == 403
}

// IsNotFound returns true if err is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var target *NotFoundError
	return errors.As(err, &target)
}

// IsValidation returns true if err is or wraps a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsAPIError returns true if err is or wraps an APIError.
func IsAPIError(err error) bool {
	var target *APIError
	return errors.As(err, &target)
}
