package llm

import (
	"context"
	"errors"
	"time"
)

// Error represents a provider-neutral client error.
type Error struct {
	Type       ErrorType
	Message    string
	StatusCode int
	Retryable  bool
	RetryAfter *time.Duration
	Data       any   // Optional provider payload attached to the failure
	Cause      error // Original underlying error
}

// ErrorType represents the category of error.
type ErrorType string

const (
	ErrorTypeValidation  ErrorType = "validation"
	ErrorTypeTransport   ErrorType = "transport"
	ErrorTypeRateLimit   ErrorType = "rate_limit"
	ErrorTypeStreamParse ErrorType = "stream_parse"
	ErrorTypeCancelled   ErrorType = "cancelled"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeUnknown     ErrorType = "unknown"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return string(e.Type) + ": " + e.Message + ": " + e.Cause.Error()
	}
	return string(e.Type) + ": " + e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewValidationError creates an error for malformed caller input. Validation
// errors are never retried.
func NewValidationError(message string, cause error) *Error {
	return &Error{
		Type:    ErrorTypeValidation,
		Message: message,
		Cause:   cause,
	}
}

// NewTransportError creates an error for a network or HTTP-level failure.
// Statuses in [400,500) other than 429 are fatal; everything else is
// retryable.
func NewTransportError(statusCode int, message string, cause error) *Error {
	typ := ErrorTypeTransport
	if statusCode == 429 {
		typ = ErrorTypeRateLimit
	}
	return &Error{
		Type:       typ,
		Message:    message,
		StatusCode: statusCode,
		Retryable:  !IsFatalStatus(statusCode),
		Cause:      cause,
	}
}

// NewStreamParseError creates a non-fatal error for a malformed stream
// fragment. The decoder skips the fragment rather than failing the sequence.
func NewStreamParseError(message string, cause error) *Error {
	return &Error{
		Type:      ErrorTypeStreamParse,
		Message:   message,
		Retryable: false,
		Cause:     cause,
	}
}

// NewCancellationError creates an error for an operation interrupted by its
// cancellation token. Cancellation errors are never retried.
func NewCancellationError(cause error) *Error {
	return &Error{
		Type:    ErrorTypeCancelled,
		Message: "operation cancelled",
		Cause:   cause,
	}
}

// NewTimeoutError creates an error for a per-call deadline expiry.
func NewTimeoutError(cause error) *Error {
	return &Error{
		Type:      ErrorTypeTimeout,
		Message:   "deadline exceeded",
		Retryable: true,
		Cause:     cause,
	}
}

// FromContext converts a done context into the matching typed error:
// timeout for a deadline expiry, cancellation otherwise.
func FromContext(ctx context.Context) *Error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return NewTimeoutError(ctx.Err())
	}
	return NewCancellationError(ctx.Err())
}

// IsFatalStatus reports whether an HTTP-like status should never be retried:
// client errors other than 429.
func IsFatalStatus(statusCode int) bool {
	return statusCode >= 400 && statusCode < 500 && statusCode != 429
}

// IsRetryable reports whether an error may be retried. Unclassified errors
// (network failures without a typed wrapper) are considered retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var cerr *Error
	if errors.As(err, &cerr) {
		switch cerr.Type {
		case ErrorTypeValidation, ErrorTypeCancelled, ErrorTypeStreamParse:
			return false
		}
		if cerr.StatusCode != 0 {
			return !IsFatalStatus(cerr.StatusCode)
		}
		return cerr.Retryable
	}
	return true
}

// IsCancellation checks if an error is a cancellation error.
func IsCancellation(err error) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Type == ErrorTypeCancelled
	}
	return false
}

// IsRateLimitError checks if an error is a rate limit error.
func IsRateLimitError(err error) bool {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.Type == ErrorTypeRateLimit
	}
	return false
}

// ExtractRetryAfter extracts the retry-after hint from an error, if present.
func ExtractRetryAfter(err error) *time.Duration {
	var cerr *Error
	if errors.As(err, &cerr) {
		return cerr.RetryAfter
	}
	return nil
}
