// Package errors provides error classification for the client SDK.
// This enables different retry policies based on error recoverability and
// lets each component scope its failures to one taxonomy kind.
package errors

import (
	"context"
	stderrors "errors"
	"fmt"
)

// Failure kinds. Components wrap one of these so callers can branch with errors.Is.
var (
	// ErrAuthRequired: the remote service needs a signed-in session. Redirect, no banner.
	ErrAuthRequired = stderrors.New("authentication required")
	// ErrCollectionUnavailable: a collection could not be fetched.
	ErrCollectionUnavailable = stderrors.New("collection unavailable")
	// ErrMalformedPayload: the remote service answered with an unexpected shape.
	ErrMalformedPayload = stderrors.New("malformed payload")
	// ErrMutationRejected: a set or clear call failed after its retries.
	ErrMutationRejected = stderrors.New("mutation rejected")
	// ErrPreferenceLoadFailed: hydration failed; preferences degrade to empty.
	ErrPreferenceLoadFailed = stderrors.New("preference load failed")
)

// ErrorCategory determines how errors should be handled by retry logic.
type ErrorCategory int

const (
	// Recoverable errors should be retried with exponential backoff.
	// Examples: 500 Internal Server Error, network timeouts, connection failures.
	Recoverable ErrorCategory = iota

	// Irrecoverable errors should fail immediately without retry.
	// Examples: 401 Unauthorized, 403 Forbidden, 400 Bad Request.
	Irrecoverable
)

// String returns a human-readable representation of the error category.
func (c ErrorCategory) String() string {
	switch c {
	case Recoverable:
		return "Recoverable"
	case Irrecoverable:
		return "Irrecoverable"
	default:
		return fmt.Sprintf("Unknown(%d)", int(c))
	}
}

// ClassifiedError wraps an error with categorization metadata for retry policies.
type ClassifiedError struct {
	Category   ErrorCategory
	StatusCode int    // HTTP status code (0 for non-HTTP errors)
	Body       string // Response body for debugging
	Underlying error  // The original error
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("[%s] HTTP %d: %v", e.Category, e.StatusCode, e.Underlying)
	}
	return fmt.Sprintf("[%s] %v", e.Category, e.Underlying)
}

// Unwrap returns the underlying error for error chain compatibility.
func (e *ClassifiedError) Unwrap() error {
	return e.Underlying
}

// IsIrrecoverable returns true if the error should not be retried.
// Context cancellation and missing authentication never heal by retrying.
func IsIrrecoverable(err error) bool {
	if err == nil {
		return false
	}
	if stderrors.Is(err, context.Canceled) || stderrors.Is(err, ErrAuthRequired) || stderrors.Is(err, ErrMalformedPayload) {
		return true
	}
	var classified *ClassifiedError
	if stderrors.As(err, &classified) {
		return classified.Category == Irrecoverable
	}
	return false
}
