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
	ErrInvalidInput        = errors.New("invalid input")
	ErrInvalidID           = errors.New("invalid ID")
	ErrEmptyValue          = errors.New("value cannot be empty")
	ErrValueOutOfRange     = errors.New("value out of range")
	ErrInsufficientAnswers = errors.New("insufficient answers")

	// State errors
	ErrInvalidTransition = errors.New("invalid state transition")

	// Authorization errors
	ErrUnauthorized = errors.New("unauthorized")

	// Concurrency errors
	ErrConcurrentModification = errors.New("concurrent modification detected")
	ErrLockNotAcquired        = errors.New("lock not acquired")

	// External service errors
	ErrServiceUnavailable = errors.New("service unavailable")
	ErrTimeout            = errors.New("operation timeout")
)

// DomainError represents a domain-specific error with context.
type DomainError struct {
	Domain  string // e.g., "swap", "skill", "notification"
	Op      string // Operation that failed, e.g., "Accept", "Score"
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

// Skill domain errors
var (
	ErrSkillNotFound        = NewDomainError("skill", "Find", ErrNotFound, "skill listing not found")
	ErrSkillMissingCategory = NewDomainError("skill", "Validate", ErrInvalidInput, "skill category is required")
	ErrSkillMissingTitle    = NewDomainError("skill", "Validate", ErrInvalidInput, "skill title is required")
	ErrInvalidSkillLevel    = NewDomainError("skill", "Validate", ErrInvalidInput, "invalid skill level")
	ErrInvalidDirection     = NewDomainError("skill", "Validate", ErrInvalidInput, "invalid skill direction")
	ErrNoAnswers            = NewDomainError("skill", "Assess", ErrInsufficientAnswers, "at least one answer is required")
	ErrAnswerScoreRange     = NewDomainError("skill", "Assess", ErrInvalidInput, "answer score must be between 0 and 100")
	ErrNotSkillOwner        = NewDomainError("skill", "Edit", ErrUnauthorized, "only the owner can modify a skill listing")
)

// Matching domain errors
var (
	ErrInvalidDemand   = NewDomainError("matching", "Evaluate", ErrInvalidInput, "invalid market demand")
	ErrNegativeHours   = NewDomainError("matching", "Evaluate", ErrInvalidInput, "time commitment cannot be negative")
	ErrInvalidAffinity = NewDomainError("matching", "Configure", ErrInvalidInput, "affinity must be between 0 and 1")
)

// Swap domain errors
var (
	ErrSwapRequestNotFound  = NewDomainError("swap", "Find", ErrNotFound, "swap request not found")
	ErrSwapRequestExists    = NewDomainError("swap", "Create", ErrAlreadyExists, "a pending swap request for these skills already exists")
	ErrSelfSwap             = NewDomainError("swap", "Create", ErrInvalidInput, "cannot send a swap request to self")
	ErrSwapNotPending       = NewDomainError("swap", "Transition", ErrInvalidTransition, "swap request is not pending")
	ErrNotSwapRecipient     = NewDomainError("swap", "Respond", ErrUnauthorized, "only the recipient can accept or decline")
	ErrNotSwapSender        = NewDomainError("swap", "Cancel", ErrUnauthorized, "only the sender can cancel")
	ErrNotSwapParticipant   = NewDomainError("swap", "Read", ErrUnauthorized, "only participants can read a swap request")
	ErrOfferedSkillMismatch = NewDomainError("swap", "Create", ErrInvalidInput, "offered skill must be an Offered listing of the sender")
	ErrRequestedSkillOwner  = NewDomainError("swap", "Create", ErrInvalidInput, "requested skill must be an Offered listing of the recipient")
	ErrConversationNotFound = NewDomainError("swap", "FindConversation", ErrNotFound, "conversation not found")
)

// Notification domain errors
var (
	ErrNotificationNotFound = NewDomainError("notification", "Find", ErrNotFound, "notification not found")
	ErrInvalidNotification  = NewDomainError("notification", "Validate", ErrInvalidInput, "invalid notification")
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
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrInvalidID) ||
		errors.Is(err, ErrEmptyValue) ||
		errors.Is(err, ErrValueOutOfRange)
}

// IsUnauthorized checks if the actor was not permitted to perform the operation.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// IsInvalidTransition checks if a state transition was attempted from a wrong state.
func IsInvalidTransition(err error) bool {
	return errors.Is(err, ErrInvalidTransition)
}

// IsInsufficientAnswers checks if an assessment was submitted without answers.
func IsInsufficientAnswers(err error) bool {
	return errors.Is(err, ErrInsufficientAnswers)
}

// IsRetryable checks if the operation can be retried.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrServiceUnavailable) ||
		errors.Is(err, ErrTimeout) ||
		errors.Is(err, ErrConcurrentModification) ||
		errors.Is(err, ErrLockNotAcquired)
}
