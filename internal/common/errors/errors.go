// Package errors provides standardized error handling for the Borrowing Hub client.
package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeTransportFailure ErrorCode = "TRANSPORT_FAILURE"
	ErrCodeRequestTimeout   ErrorCode = "REQUEST_TIMEOUT"

	ErrCodeAuthenticationFailed ErrorCode = "AUTHENTICATION_FAILED"
	ErrCodeTokenExpired         ErrorCode = "TOKEN_EXPIRED"

	ErrCodeNotificationNotFound ErrorCode = "NOTIFICATION_NOT_FOUND"

	ErrCodeResponseDecodeFailed ErrorCode = "RESPONSE_DECODE_FAILED"
	ErrCodeResponseInvalid      ErrorCode = "RESPONSE_INVALID"

	ErrCodeCacheFailure ErrorCode = "CACHE_FAILURE"

	ErrCodeServerError ErrorCode = "SERVER_ERROR"
)

// ClientError represents a structured client-observable error.
type ClientError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("ClientError[%s]: %s", e.Code, e.Message)
}

// NewTransportError creates a retryable network/transport error.
func NewTransportError(err error) *ClientError {
	return &ClientError{
		Code:      ErrCodeTransportFailure,
		Message:   "Request never reached the server or no response arrived",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewRequestTimeoutError creates a retryable timeout error.
func NewRequestTimeoutError(operation string) *ClientError {
	return &ClientError{
		Code:      ErrCodeRequestTimeout,
		Message:   "Request exceeded its timeout",
		Details:   fmt.Sprintf("operation: %s", operation),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewAuthenticationError creates a non-retryable authentication error.
func NewAuthenticationError(details string) *ClientError {
	return &ClientError{
		Code:      ErrCodeAuthenticationFailed,
		Message:   "Authentication failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTokenExpiredError creates a non-retryable expired-session error.
func NewTokenExpiredError(details string) *ClientError {
	return &ClientError{
		Code:      ErrCodeTokenExpired,
		Message:   "Session token expired or missing",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewNotificationNotFoundError creates a non-retryable not-found error.
func NewNotificationNotFoundError(notificationID string) *ClientError {
	return &ClientError{
		Code:      ErrCodeNotificationNotFound,
		Message:   "Notification not found on the server",
		Details:   fmt.Sprintf("notificationId: %s", notificationID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResponseDecodeError creates a non-retryable decode error.
func NewResponseDecodeError(err error) *ClientError {
	return &ClientError{
		Code:      ErrCodeResponseDecodeFailed,
		Message:   "Server response could not be decoded",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewResponseInvalidError creates a non-retryable schema validation error.
func NewResponseInvalidError(details string) *ClientError {
	return &ClientError{
		Code:      ErrCodeResponseInvalid,
		Message:   "Server response failed schema validation",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewCacheError creates a retryable snapshot cache error.
func NewCacheError(err error) *ClientError {
	return &ClientError{
		Code:      ErrCodeCacheFailure,
		Message:   "Snapshot cache operation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}

// NewServerError creates a retryable server-side error from a status code.
func NewServerError(statusCode int, body string) *ClientError {
	return &ClientError{
		Code:      ErrCodeServerError,
		Message:   fmt.Sprintf("Server returned status %d", statusCode),
		Details:   body,
		Retryable: statusCode >= 500,
		Timestamp: time.Now().UTC(),
	}
}

// CodeOf extracts the ErrorCode from err, or empty when err is not a ClientError.
func CodeOf(err error) ErrorCode {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsRetryable reports whether err is a retryable ClientError.
func IsRetryable(err error) bool {
	var ce *ClientError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return false
}

// IsNotFound reports whether err is a not-found ClientError.
func IsNotFound(err error) bool {
	return CodeOf(err) == ErrCodeNotificationNotFound
}

// IsAuthFailure reports whether err is an authentication ClientError.
func IsAuthFailure(err error) bool {
	code := CodeOf(err)
	return code == ErrCodeAuthenticationFailed || code == ErrCodeTokenExpired
}
