package types

import (
	"errors"
	"fmt"
)

// ErrorType represents different categories of errors
type ErrorType string

const (
	ErrorTypeValidation     ErrorType = "validation"
	ErrorTypeAuthorization  ErrorType = "authorization"
	ErrorTypeAuthentication ErrorType = "authentication"
	ErrorTypeNotFound       ErrorType = "not_found"
	ErrorTypeConflict       ErrorType = "conflict"
	ErrorTypeInternal       ErrorType = "internal"
)

// Common error codes
const (
	ErrCodeInvalidInput         = "INVALID_INPUT"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeAuthenticationFailed = "AUTHENTICATION_FAILED"
	ErrCodeNotFound             = "NOT_FOUND"
	ErrCodeSlotUnavailable      = "SLOT_UNAVAILABLE"
	ErrCodeInvalidTransition    = "INVALID_TRANSITION"
	ErrCodeInternalError        = "INTERNAL_ERROR"
)

// ClinicError represents a structured error raised by the clinic services
type ClinicError struct {
	Type    ErrorType              `json:"type"`
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
	Cause   error                  `json:"-"`
}

// Error implements the error interface
func (e *ClinicError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error
func (e *ClinicError) Unwrap() error {
	return e.Cause
}

// NewValidationError creates a new validation error
func NewValidationError(code, message string, details map[string]interface{}) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeValidation,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewAuthorizationError creates a new authorization error
func NewAuthorizationError(code, message string) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeAuthorization,
		Code:    code,
		Message: message,
	}
}

// NewAuthenticationError creates a new authentication error
func NewAuthenticationError(code, message string, cause error) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeAuthentication,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// NewNotFoundError creates a new not found error
func NewNotFoundError(code, message string) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeNotFound,
		Code:    code,
		Message: message,
	}
}

// NewConflictError creates a new conflict error
func NewConflictError(code, message string, details map[string]interface{}) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeConflict,
		Code:    code,
		Message: message,
		Details: details,
	}
}

// NewInternalError creates a new internal error
func NewInternalError(code, message string, cause error) *ClinicError {
	return &ClinicError{
		Type:    ErrorTypeInternal,
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// ErrorTypeOf returns the ErrorType of the first ClinicError in err's chain,
// or ErrorTypeInternal when there is none.
func ErrorTypeOf(err error) ErrorType {
	var ce *ClinicError
	if errors.As(err, &ce) {
		return ce.Type
	}
	return ErrorTypeInternal
}

func isType(err error, t ErrorType) bool {
	var ce *ClinicError
	return errors.As(err, &ce) && ce.Type == t
}

// IsConflict reports whether err is a slot or uniqueness conflict
func IsConflict(err error) bool { return isType(err, ErrorTypeConflict) }

// IsNotFound reports whether err refers to a missing record
func IsNotFound(err error) bool { return isType(err, ErrorTypeNotFound) }

// IsValidation reports whether err is an input or transition validation failure
func IsValidation(err error) bool { return isType(err, ErrorTypeValidation) }

// IsAuthorization reports whether err is a failed role check
func IsAuthorization(err error) bool { return isType(err, ErrorTypeAuthorization) }
