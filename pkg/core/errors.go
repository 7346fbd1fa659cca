package core

import (
	"fmt"
)

// Error is the canonical error carried across the session runtime.
type Error struct {
	Type    ErrorType `json:"type"`
	Message string    `json:"message"`
	Param   string    `json:"param,omitempty"`
	Code    string    `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s: %s (code: %s)", e.Type, e.Message, e.Code)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// ErrorType categorizes errors.
type ErrorType string

const (
	// ErrTransport: the remote session is unreachable or rejected the
	// connection. Surfaced as a system-role turn; the session stays
	// usable for retry.
	ErrTransport ErrorType = "transport_error"

	// ErrConfigRejected: a malformed tool schema or instruction was
	// refused. The last-known-good configuration remains active.
	ErrConfigRejected ErrorType = "configuration_rejected"

	// ErrPersistence: a backend write failed. In-memory state is
	// authoritative and retained; never blocks further interaction.
	ErrPersistence ErrorType = "persistence_failure"

	// ErrValidation: duplicate tool name, malformed field, or similar.
	// Rejected synchronously with no partial state mutation.
	ErrValidation ErrorType = "validation_failure"
)

// NewTransportError creates a transport error.
func NewTransportError(message string) *Error {
	return &Error{
		Type:    ErrTransport,
		Message: message,
	}
}

// NewConfigRejectedError creates a configuration-rejected error.
func NewConfigRejectedError(message string) *Error {
	return &Error{
		Type:    ErrConfigRejected,
		Message: message,
	}
}

// NewPersistenceError creates a persistence-failure error.
func NewPersistenceError(op string, underlying error) *Error {
	return &Error{
		Type:    ErrPersistence,
		Message: fmt.Sprintf("%s: %v", op, underlying),
		Code:    op,
	}
}

// NewValidationError creates a validation error.
func NewValidationError(message string) *Error {
	return &Error{
		Type:    ErrValidation,
		Message: message,
	}
}

// NewValidationErrorWithParam creates a validation error naming the
// offending field.
func NewValidationErrorWithParam(message, param string) *Error {
	return &Error{
		Type:    ErrValidation,
		Message: message,
		Param:   param,
	}
}

// IsRetryable returns true if the failed operation may be retried as-is.
func (e *Error) IsRetryable() bool {
	switch e.Type {
	case ErrTransport, ErrPersistence:
		return true
	default:
		return false
	}
}
