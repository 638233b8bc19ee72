package errors

import (
	"errors"
	"fmt"
)

// ErrorType classifies the failure modes of the two retrieval strategies
type ErrorType string

const (
	// ErrorTypeAPIUnavailable means the REST API probe or a fetch failed;
	// recovered by falling back to the browser strategy
	ErrorTypeAPIUnavailable ErrorType = "api_unavailable"
	// ErrorTypeUnknownUser means the author username matched no visible user;
	// never recovered, always surfaced to the caller
	ErrorTypeUnknownUser ErrorType = "unknown_user"
	// ErrorTypeSignIn means both browser sign-in attempts were exhausted
	ErrorTypeSignIn ErrorType = "sign_in"
	// ErrorTypeNavigation means the posts list page was unreachable or
	// structurally unexpected
	ErrorTypeNavigation ErrorType = "navigation"
	// ErrorTypeTimeout means a browser wait ran past its deadline
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeNetwork means the HTTP transport itself failed
	ErrorTypeNetwork ErrorType = "network"
	ErrorTypeUnknown ErrorType = "unknown"
)

// Error is a typed retrieval error. Code carries the HTTP status where one
// exists, 0 otherwise.
type Error struct {
	Type    ErrorType
	Message string
	Code    int
}

func (e *Error) Error() string {
	if e.Code > 0 {
		return fmt.Sprintf("%s error (status %d): %s", e.Type, e.Code, e.Message)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// New creates a typed error without an HTTP status
func New(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// APIUnavailable marks a probe or fetch failure on the REST path
func APIUnavailable(message string, code int) *Error {
	return &Error{Type: ErrorTypeAPIUnavailable, Message: message, Code: code}
}

// UnknownUser marks an author username that resolved to no visible user
func UnknownUser(username string) *Error {
	return &Error{Type: ErrorTypeUnknownUser, Message: fmt.Sprintf("unknown username %q", username)}
}

// SignInFailed marks exhaustion of all sign-in attempts
func SignInFailed(message string) *Error {
	return &Error{Type: ErrorTypeSignIn, Message: message}
}

// NavigationFailed marks an unreachable or structurally unexpected admin page
func NavigationFailed(message string) *Error {
	return &Error{Type: ErrorTypeNavigation, Message: message}
}

// Timeout marks a browser wait that ran past its deadline
func Timeout(message string) *Error {
	return &Error{Type: ErrorTypeTimeout, Message: message}
}

// TypeOf returns the ErrorType of err, or ErrorTypeUnknown for untyped errors
func TypeOf(err error) ErrorType {
	var e *Error
	if errors.As(err, &e) {
		return e.Type
	}
	return ErrorTypeUnknown
}

// IsUnknownUser reports whether err is an unknown-user error
func IsUnknownUser(err error) bool {
	return TypeOf(err) == ErrorTypeUnknownUser
}

// IsTimeout reports whether err is a browser wait timeout
func IsTimeout(err error) bool {
	return TypeOf(err) == ErrorTypeTimeout
}

// IsSignInFailed reports whether err marks exhausted sign-in attempts
func IsSignInFailed(err error) bool {
	return TypeOf(err) == ErrorTypeSignIn
}

// IsNavigationFailed reports whether err marks a failed admin navigation
func IsNavigationFailed(err error) bool {
	return TypeOf(err) == ErrorTypeNavigation
}

// IsRetryable checks if an error type should be retried
func IsRetryable(t ErrorType) bool {
	switch t {
	case ErrorTypeNetwork, ErrorTypeTimeout:
		return true
	default:
		return false
	}
}

// IsRetryableStatusCode checks if an HTTP status code indicates a retryable error
func IsRetryableStatusCode(statusCode int) bool {
	switch statusCode {
	case 0: // Network error
		return true
	case 429: // Too Many Requests
		return true
	case 500, 502, 503, 504:
		return true
	case 401, 403, 404: // Client errors that won't change
		return false
	default:
		return statusCode >= 500
	}
}
