// Package shared contains common domain types, errors and events
// that are used across all domain packages. This package has zero external dependencies.
package shared

import (
	"errors"
	"fmt"
)

// Base domain errors that can be used for error checking with errors.Is().
var (
	// Entity errors
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")

	// Validation errors
	ErrValidation = errors.New("validation error")

	// Ledger errors
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrNotUnlocked       = errors.New("item not unlocked")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// Collaborator errors
	ErrServiceUnavailable = errors.New("service unavailable")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "user", "shop", "calendar"
	Op      string // Operation that failed, e.g., "Purchase", "Equip"
	Kind    error  // Base error type for errors.Is() checking
	Message string // Human-readable message
	Err     error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s.%s: %s: %v", e.Domain, e.Op, e.Message, e.Err)
	}
	return fmt.Sprintf("%s.%s: %s", e.Domain, e.Op, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap().
func (e *DomainError) Unwrap() error {
	if e.Err != nil {
		return e.Err
	}
	return e.Kind
}

// Is implements errors.Is() matching.
func (e *DomainError) Is(target error) bool {
	if e.Kind != nil && errors.Is(e.Kind, target) {
		return true
	}
	if e.Err != nil && errors.Is(e.Err, target) {
		return true
	}
	return false
}

// NewDomainError creates a new domain error.
func NewDomainError(domain, op string, kind error, message string) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
	}
}

// WrapError wraps an existing error with domain context.
func WrapError(domain, op string, kind error, message string, err error) *DomainError {
	return &DomainError{
		Domain:  domain,
		Op:      op,
		Kind:    kind,
		Message: message,
		Err:     err,
	}
}

// Validationf builds a validation error for the given domain operation.
func Validationf(domain, op, format string, args ...any) *DomainError {
	return NewDomainError(domain, op, ErrValidation, fmt.Sprintf(format, args...))
}

// Unavailable wraps a collaborator failure.
func Unavailable(domain, op string, err error) *DomainError {
	return WrapError(domain, op, ErrServiceUnavailable, "store unavailable", err)
}

// User domain errors
var (
	ErrUserNotFound      = NewDomainError("user", "Find", ErrNotFound, "user not found")
	ErrUserAlreadyExists = NewDomainError("user", "Create", ErrAlreadyExists, "username already taken")
	ErrBadCredentials    = NewDomainError("user", "Authenticate", ErrUnauthorized, "invalid username or password")
	ErrInvalidCategory   = NewDomainError("user", "Validate", ErrValidation, "unknown cosmetic category")
)

// Task and study log errors
var (
	ErrTaskNotFound     = NewDomainError("task", "Find", ErrNotFound, "task not found")
	ErrStudyLogNotFound = NewDomainError("studylog", "Find", ErrNotFound, "study log not found")
)

// Session errors
var (
	ErrSessionNotFound = NewDomainError("session", "Find", ErrNotFound, "session not found")
	ErrTimerRunning    = NewDomainError("session", "StartTimer", ErrValidation, "timer already running")
	ErrTimerIdle       = NewDomainError("session", "StopTimer", ErrValidation, "timer is not running")
)

// IsNotFound checks if the error is a "not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsAlreadyExists checks if the error is an "already exists" error.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidation checks if the error is a validation error.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsInsufficientFunds checks if a purchase was rejected for lack of coins.
func IsInsufficientFunds(err error) bool {
	return errors.Is(err, ErrInsufficientFunds)
}

// IsUnavailable checks if the error came from a failing collaborator.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable)
}
