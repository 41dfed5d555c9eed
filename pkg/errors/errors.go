// Package errors provides typed errors for the application
package errors

import stderrors "errors"

// ErrorType represents the type of error
type ErrorType int

const (
	ErrorTypeValidation ErrorType = iota
	ErrorTypeNotFound
	ErrorTypePolicy
	ErrorTypeUnsupported
	ErrorTypeTimeout
	ErrorTypeInternal
)

// baseError is the base implementation for all error types
type baseError struct {
	msg string
}

func (e *baseError) Error() string {
	return e.msg
}

// ValidationError represents malformed or unsupported user input
type ValidationError struct {
	baseError
}

// NewValidationError creates a new ValidationError
func NewValidationError(msg string) *ValidationError {
	return &ValidationError{baseError{msg: msg}}
}

// NotFoundError represents a missing resource
type NotFoundError struct {
	baseError
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(msg string) *NotFoundError {
	return &NotFoundError{baseError{msg: msg}}
}

// PolicyError represents a request rejected by a configured limit
type PolicyError struct {
	baseError
}

// NewPolicyError creates a new PolicyError
func NewPolicyError(msg string) *PolicyError {
	return &PolicyError{baseError{msg: msg}}
}

// UnsupportedError represents an expected platform limitation
type UnsupportedError struct {
	baseError
}

// NewUnsupportedError creates a new UnsupportedError
func NewUnsupportedError(msg string) *UnsupportedError {
	return &UnsupportedError{baseError{msg: msg}}
}

// TimeoutError represents an operation that ran out of time
type TimeoutError struct {
	baseError
}

// NewTimeoutError creates a new TimeoutError
func NewTimeoutError(msg string) *TimeoutError {
	return &TimeoutError{baseError{msg: msg}}
}

// InternalError represents an unexpected failure
type InternalError struct {
	baseError
}

// NewInternalError creates a new InternalError
func NewInternalError(msg string) *InternalError {
	return &InternalError{baseError{msg: msg}}
}

// IsValidationError checks if error chain contains a ValidationError
func IsValidationError(err error) bool {
	var target *ValidationError
	return stderrors.As(err, &target)
}

// IsNotFoundError checks if error chain contains a NotFoundError
func IsNotFoundError(err error) bool {
	var target *NotFoundError
	return stderrors.As(err, &target)
}

// IsPolicyError checks if error chain contains a PolicyError
func IsPolicyError(err error) bool {
	var target *PolicyError
	return stderrors.As(err, &target)
}

// IsUnsupportedError checks if error chain contains an UnsupportedError
func IsUnsupportedError(err error) bool {
	var target *UnsupportedError
	return stderrors.As(err, &target)
}

// IsTimeoutError checks if error chain contains a TimeoutError
func IsTimeoutError(err error) bool {
	var target *TimeoutError
	return stderrors.As(err, &target)
}

// TypeOf reports the ErrorType of err, defaulting to ErrorTypeInternal.
// When a chain holds several typed errors the first matching case wins.
func TypeOf(err error) ErrorType {
	switch {
	case IsValidationError(err):
		return ErrorTypeValidation
	case IsUnsupportedError(err):
		return ErrorTypeUnsupported
	case IsPolicyError(err):
		return ErrorTypePolicy
	case IsNotFoundError(err):
		return ErrorTypeNotFound
	case IsTimeoutError(err):
		return ErrorTypeTimeout
	default:
		return ErrorTypeInternal
	}
}
