package errors

import (
	"fmt"
	"net/http"
)

// ClassifyHTTPError determines whether an HTTP error should be retried.
//   - 401 and redirects to the login page mean the session is missing
//   - 4xx client errors (except 408 and 429) are irrecoverable
//   - 5xx server errors are recoverable
func ClassifyHTTPError(statusCode int, body string, underlyingErr error) *ClassifiedError {
	return &ClassifiedError{
		Category:   getHTTPErrorCategory(statusCode),
		StatusCode: statusCode,
		Body:       body,
		Underlying: underlyingErr,
	}
}

// getHTTPErrorCategory maps HTTP status codes to error categories.
func getHTTPErrorCategory(statusCode int) ErrorCategory {
	switch {
	case statusCode >= 300 && statusCode < 400:
		// Session-protected endpoints redirect anonymous callers to the login page.
		return Irrecoverable
	case statusCode >= 400 && statusCode < 500:
		switch statusCode {
		case http.StatusRequestTimeout, http.StatusTooManyRequests:
			return Recoverable
		default:
			return Irrecoverable
		}
	case statusCode >= 500 && statusCode < 600:
		return Recoverable
	default:
		// Unexpected status codes - be conservative and retry
		return Recoverable
	}
}

// NewHTTPError creates a classified error for HTTP failures.
// Unauthorized responses and redirects wrap ErrAuthRequired.
func NewHTTPError(statusCode int, body string, operation string) *ClassifiedError {
	var underlyingErr error
	if statusCode == http.StatusUnauthorized || (statusCode >= 300 && statusCode < 400) {
		underlyingErr = fmt.Errorf("%s failed: HTTP %d: %w", operation, statusCode, ErrAuthRequired)
	} else {
		underlyingErr = fmt.Errorf("%s failed: HTTP %d", operation, statusCode)
	}
	return ClassifyHTTPError(statusCode, body, underlyingErr)
}

// NewNetworkError creates a classified error for network-level failures.
// Network errors are always recoverable as they may be transient.
func NewNetworkError(operation string, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:   Recoverable,
		StatusCode: 0, // No HTTP status for network errors
		Body:       "",
		Underlying: fmt.Errorf("%s network error: %w", operation, err),
	}
}

// NewMalformedError reports a response body that could not be used.
func NewMalformedError(operation string, err error) *ClassifiedError {
	return &ClassifiedError{
		Category:   Irrecoverable,
		Underlying: fmt.Errorf("%s: %w: %v", operation, ErrMalformedPayload, err),
	}
}
