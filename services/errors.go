package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound     ErrorType = "not_found"
	ErrorTypeValidation   ErrorType = "validation"
	ErrorTypeUnauthorized ErrorType = "unauthorized"
	ErrorTypeRateLimit    ErrorType = "rate_limit"
	ErrorTypeUnavailable  ErrorType = "unavailable"
	ErrorTypeInternal     ErrorType = "internal"
	ErrorTypeExternal     ErrorType = "external"
)

// DomainError represents a structured error with additional context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Details map[string]interface{}
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap implements errors.Unwrap
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is implements errors.Is
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Type == t.Type
}

// WithDetail adds a detail to the error
func (e *DomainError) WithDetail(key string, value interface{}) *DomainError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// NewDomainError creates a new domain error
func NewDomainError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Details: make(map[string]interface{}),
	}
}

// Domain error variables

var (
	// Not Found Errors
	ErrServiceNotFound = NewDomainError(ErrorTypeNotFound, "service not found", nil)

	// Validation Errors
	ErrInvalidInput = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrEmptyImage   = NewDomainError(ErrorTypeValidation, "image data cannot be empty", nil)

	// Authorization Errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)
	ErrTokenExpired = NewDomainError(ErrorTypeUnauthorized, "authentication token expired", nil)

	// Rate Limit Errors
	ErrRateLimitExceeded = NewDomainError(ErrorTypeRateLimit, "rate limit exceeded", nil)

	// Availability Errors
	ErrServiceUnavailable = NewDomainError(ErrorTypeUnavailable, "service temporarily unavailable", nil)

	// External Errors
	ErrProviderFailure = NewDomainError(ErrorTypeExternal, "provider request failed", nil)

	// Internal Errors
	ErrInternal = NewDomainError(ErrorTypeInternal, "internal error", nil)
	ErrDatabase = NewDomainError(ErrorTypeInternal, "database error", nil)
)

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidation checks if an error is a validation error
func IsValidation(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == ErrorTypeValidation
	}
	return false
}

// IsUnauthorized checks if an error is an authorization error
func IsUnauthorized(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == ErrorTypeUnauthorized
	}
	return false
}

// IsRateLimit checks if an error is a rate limit error
func IsRateLimit(err error) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type == ErrorTypeRateLimit
	}
	return false
}

// WrapError wraps an error with a domain error type and message
func WrapError(errType ErrorType, message string, err error) *DomainError {
	return NewDomainError(errType, message, err)
}
