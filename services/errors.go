package services

import (
	"errors"
	"fmt"
)

// ErrorType represents the type/category of error
type ErrorType string

const (
	ErrorTypeNotFound          ErrorType = "not_found"
	ErrorTypeValidation        ErrorType = "validation"
	ErrorTypeUnauthorized      ErrorType = "unauthorized"
	ErrorTypeForbidden         ErrorType = "forbidden"
	ErrorTypeInvalidTransition ErrorType = "invalid_transition"
	ErrorTypeQuota             ErrorType = "quota"
	ErrorTypeFrozen            ErrorType = "frozen"
	ErrorTypeConflict          ErrorType = "conflict"
	ErrorTypeEvaluation        ErrorType = "evaluation"
	ErrorTypeInternal          ErrorType = "internal"
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
	// Not Found Errors. Visibility failures are deliberately reported as
	// not-found so private policies cannot be probed for existence.
	ErrPolicyNotFound    = NewDomainError(ErrorTypeNotFound, "policy not found", nil)
	ErrVersionNotFound   = NewDomainError(ErrorTypeNotFound, "policy version not found", nil)
	ErrUserNotFound      = NewDomainError(ErrorTypeNotFound, "user not found", nil)
	ErrExecutionNotFound = NewDomainError(ErrorTypeNotFound, "execution not found", nil)

	// Validation Errors
	ErrInvalidInput        = NewDomainError(ErrorTypeValidation, "invalid input", nil)
	ErrCommentRequired     = NewDomainError(ErrorTypeValidation, "a comment is required when rejecting a version", nil)
	ErrEmptySource         = NewDomainError(ErrorTypeValidation, "policy source cannot be empty", nil)
	ErrNoExecutableVersion = NewDomainError(ErrorTypeValidation, "policy has no approved default version", nil)

	// Authorization Errors
	ErrUnauthorized = NewDomainError(ErrorTypeUnauthorized, "unauthorized", nil)
	ErrInvalidToken = NewDomainError(ErrorTypeUnauthorized, "invalid authentication token", nil)

	// Permission Errors
	ErrForbidden         = NewDomainError(ErrorTypeForbidden, "access forbidden", nil)
	ErrExecuteNotAllowed = NewDomainError(ErrorTypeForbidden, "caller may not execute this policy", nil)

	// State Machine Errors
	ErrInvalidTransition = NewDomainError(ErrorTypeInvalidTransition, "invalid version state transition", nil)
	ErrSelfApproval      = NewDomainError(ErrorTypeInvalidTransition, "a version cannot be approved by its author", nil)
	ErrDefaultImmutable  = NewDomainError(ErrorTypeInvalidTransition, "the default version cannot be deprecated or archived", nil)
	ErrAlreadyDefault    = NewDomainError(ErrorTypeInvalidTransition, "version is already the default", nil)

	// Business-Policy Denials
	ErrQuotaExceeded = NewDomainError(ErrorTypeQuota, "execution quota exceeded for the current period", nil)
	ErrPolicyFrozen  = NewDomainError(ErrorTypeFrozen, "policy is frozen by the owner's plan limit", nil)

	// Conflict Errors
	ErrPromotionConflict = NewDomainError(ErrorTypeConflict, "concurrent default promotion detected", nil)
	ErrConcurrentUpdate  = NewDomainError(ErrorTypeConflict, "concurrent update detected", nil)

	// Evaluation Errors
	ErrEvaluationFailed  = NewDomainError(ErrorTypeEvaluation, "policy evaluation failed", nil)
	ErrEvaluationTimeout = NewDomainError(ErrorTypeEvaluation, "policy evaluation timed out", nil)

	// Internal Errors
	ErrInternal      = NewDomainError(ErrorTypeInternal, "internal server error", nil)
	ErrDatabaseError = NewDomainError(ErrorTypeInternal, "database error", nil)
)

// Error type checking helper functions

// IsNotFoundError checks if an error is a not found error
func IsNotFoundError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeNotFound
	}
	return false
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeValidation
	}
	return false
}

// IsUnauthorizedError checks if an error is an unauthorized error
func IsUnauthorizedError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeUnauthorized
	}
	return false
}

// IsForbiddenError checks if an error is a forbidden error
func IsForbiddenError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeForbidden
	}
	return false
}

// IsInvalidTransitionError checks if an error is a state machine violation
func IsInvalidTransitionError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInvalidTransition
	}
	return false
}

// IsQuotaError checks if an error is a quota denial
func IsQuotaError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeQuota
	}
	return false
}

// IsFrozenError checks if an error is a freeze denial
func IsFrozenError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeFrozen
	}
	return false
}

// IsConflictError checks if an error is a conflict error
func IsConflictError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeConflict
	}
	return false
}

// IsEvaluationError checks if an error is an evaluator failure
func IsEvaluationError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeEvaluation
	}
	return false
}

// IsInternalError checks if an error is an internal error
func IsInternalError(err error) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type == ErrorTypeInternal
	}
	return false
}

// GetErrorType returns the ErrorType of a domain error, or empty string if not a domain error
func GetErrorType(err error) ErrorType {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Type
	}
	return ""
}

// GetErrorDetails returns the details map of a domain error, or nil if not a domain error
func GetErrorDetails(err error) map[string]interface{} {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Details
	}
	return nil
}

// WrapError wraps an error with additional context
func WrapError(errType ErrorType, message string, err error) error {
	return NewDomainError(errType, message, err)
}

// WrapInternal wraps an error as an internal error
func WrapInternal(message string, err error) error {
	return NewDomainError(ErrorTypeInternal, message, err)
}

// WrapEvaluation wraps an error as an evaluator failure
func WrapEvaluation(message string, err error) error {
	return NewDomainError(ErrorTypeEvaluation, message, err)
}
