// Package errors provides the standardized error taxonomy for lead intake.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	// Client errors: never followed by an upstream call.
	ErrCodeValidationFailed ErrorCode = "VALIDATION_FAILED"
	ErrCodeInvalidPayload   ErrorCode = "INVALID_PAYLOAD"
	ErrCodeUnauthorized     ErrorCode = "UNAUTHORIZED"

	// Server configuration.
	ErrCodeConfigurationMissing ErrorCode = "CONFIGURATION_MISSING"

	// Upstream CRM.
	ErrCodeContactConflict ErrorCode = "CONTACT_CONFLICT"
	ErrCodeUpstreamError   ErrorCode = "UPSTREAM_ERROR"

	// Best-effort side effects. Logged, never surfaced.
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeFailureLogWriteFailed  ErrorCode = "FAILURE_LOG_WRITE_FAILED"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause so callers can use errors.As on
// transport-specific error types.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata returns the error with key set in its metadata.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. Error Constructors
// ==========================

// NewValidationError reports missing or malformed submission fields.
func NewValidationError(message string, fields []string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Details:   fmt.Sprintf("fields: %v", fields),
		Retryable: false,
		Metadata:  map[string]interface{}{"fields": fields},
		Timestamp: time.Now().UTC(),
	}
}

// NewInvalidPayloadError reports a body that could not be decoded.
func NewInvalidPayloadError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidPayload,
		Message:   "Invalid request body",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUnauthorizedError reports a missing or wrong admin token.
func NewUnauthorizedError() *StandardError {
	return &StandardError{
		Code:      ErrCodeUnauthorized,
		Message:   "Unauthorized",
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationError reports a required setting that is absent.
func NewConfigurationError(setting string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationMissing,
		Message:   "Server configuration error",
		Details:   fmt.Sprintf("missing setting: %s", setting),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewContactConflictError reports that the CRM already holds the contact.
func NewContactConflictError(email string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeContactConflict,
		Message:   "Contact already exists",
		Details:   err.Error(),
		Retryable: false,
		Metadata:  map[string]interface{}{"email": email},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewUpstreamError reports any other failure of a CRM call.
func NewUpstreamError(operation string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeUpstreamError,
		Message:   "Upstream request failed",
		Details:   fmt.Sprintf("operation: %s, error: %s", operation, err.Error()),
		Retryable: true,
		Metadata:  map[string]interface{}{"operation": operation},
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationSendFailedError reports a transactional email or SMS failure.
func NewNotificationSendFailedError(template string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("template: %s, error: %s", template, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewFailureLogWriteError reports that a delivery failure could not be recorded.
func NewFailureLogWriteError(backend string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeFailureLogWriteFailed,
		Message:   "Failed to record delivery failure",
		Details:   fmt.Sprintf("backend: %s, error: %s", backend, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Helpers
// ==========================

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	if err == nil {
		return nil
	}
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// IsCode reports whether err is a StandardError carrying code.
func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code == code
	}
	return false
}

// HTTPStatus maps an error to the response status returned to the client.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	switch Normalize(err).Code {
	case ErrCodeValidationFailed, ErrCodeInvalidPayload:
		return http.StatusBadRequest
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// GetErrorCategory groups codes for metrics labels.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeValidationFailed, ErrCodeInvalidPayload, ErrCodeUnauthorized:
		return "client"
	case ErrCodeConfigurationMissing:
		return "configuration"
	case ErrCodeContactConflict, ErrCodeUpstreamError:
		return "upstream"
	case ErrCodeNotificationSendFailed, ErrCodeFailureLogWriteFailed:
		return "side_effect"
	default:
		return "internal"
	}
}
