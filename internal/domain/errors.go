package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAttemptConflict is returned when an attempt write would break the chain invariants
	// (gap in attempt numbers, second pending row, or a row after success)
	ErrAttemptConflict = errors.New("delivery attempt conflicts with chain state")

	// ErrAttemptNotPending is returned when completing an attempt that is not pending
	ErrAttemptNotPending = errors.New("delivery attempt is not pending")

	// ErrEngineStopped is returned when work is submitted after shutdown began
	ErrEngineStopped = errors.New("delivery engine is stopped")
)

// ValidationError reports malformed input. It is rejected before persistence and never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// NewValidationError creates a ValidationError for a field
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// NotFoundError reports an unknown subscription or webhook id
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError
func NewNotFoundError(resource string, id any) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: fmt.Sprint(id)}
}

// DeliveryError describes a failed delivery attempt: a network error, a timeout or a non-2xx response.
// It is recorded on the delivery log and handed to the retry scheduler, never returned to API callers.
type DeliveryError struct {
	// StatusCode is nil for network level failures
	StatusCode *int
	Timeout    bool
	Err        error
}

func (e *DeliveryError) Error() string {
	switch {
	case e.StatusCode != nil:
		return fmt.Sprintf("HTTP %d", *e.StatusCode)
	case e.Timeout:
		return fmt.Sprintf("request timed out: %v", e.Err)
	case e.Err != nil:
		return e.Err.Error()
	default:
		return "delivery failed"
	}
}

func (e *DeliveryError) Unwrap() error {
	return e.Err
}

// ExhaustionError marks a chain that used every allowed attempt without success
type ExhaustionError struct {
	WebhookID string
	Attempts  int
}

func (e *ExhaustionError) Error() string {
	return fmt.Sprintf("webhook %s exhausted after %d attempts", e.WebhookID, e.Attempts)
}

// IsValidationError reports whether err is or wraps a ValidationError
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFoundError reports whether err is or wraps a NotFoundError
func IsNotFoundError(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
