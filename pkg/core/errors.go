package core

import (
	"context"
	"errors"
	"fmt"
)

// ExecutionError represents a structured error with a kind and details
type ExecutionError struct {
	Kind    ErrorKind
	Code    string                 // Machine-readable code: element_not_found, click_intercepted, etc.
	Message string                 // Human-readable message
	Details map[string]interface{} // Additional context
	Cause   error                  // Underlying error
}

// Error implements the error interface
func (e *ExecutionError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

// Unwrap returns the underlying error for errors.Is/As support
func (e *ExecutionError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is an ExecutionError with the same kind and code.
// Copies made with WithCause/WithMessage still match their sentinel.
func (e *ExecutionError) Is(target error) bool {
	t, ok := target.(*ExecutionError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// WithCause returns a copy of the error with the given cause
func (e *ExecutionError) WithCause(cause error) *ExecutionError {
	return &ExecutionError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// WithMessage returns a copy of the error with a custom message
func (e *ExecutionError) WithMessage(msg string) *ExecutionError {
	return &ExecutionError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: msg,
		Details: e.Details,
		Cause:   e.Cause,
	}
}

// WithMessagef is WithMessage with formatting.
func (e *ExecutionError) WithMessagef(format string, args ...interface{}) *ExecutionError {
	return e.WithMessage(fmt.Sprintf(format, args...))
}

// WithDetails returns a copy of the error with additional details
func (e *ExecutionError) WithDetails(details map[string]interface{}) *ExecutionError {
	merged := make(map[string]interface{})
	for k, v := range e.Details {
		merged[k] = v
	}
	for k, v := range details {
		merged[k] = v
	}
	return &ExecutionError{
		Kind:    e.Kind,
		Code:    e.Code,
		Message: e.Message,
		Details: merged,
		Cause:   e.Cause,
	}
}

// Predefined errors (W3C WebDriver error codes where one exists)
var (
	// Element resolution
	ErrElementNotFound = &ExecutionError{
		Kind:    KindNotFound,
		Code:    "no_such_element",
		Message: "element not found",
	}
	ErrStaleElement = &ExecutionError{
		Kind:    KindStale,
		Code:    "stale_element_reference",
		Message: "element is no longer attached to the document",
	}

	// Interaction
	ErrNotInteractable = &ExecutionError{
		Kind:    KindNotInteractable,
		Code:    "element_not_interactable",
		Message: "element is not visible or not enabled",
	}
	ErrClickIntercepted = &ExecutionError{
		Kind:    KindIntercepted,
		Code:    "element_click_intercepted",
		Message: "click would be received by another element",
	}
	ErrActionFailed = &ExecutionError{
		Kind:    KindActionFailed,
		Code:    "action_failed",
		Message: "action failed after all fallbacks",
	}

	// Timeouts
	ErrWaitTimeout = &ExecutionError{
		Kind:    KindTimeout,
		Code:    "wait_timeout",
		Message: "wait condition timed out",
	}

	// Data
	ErrDataSourceMissing = &ExecutionError{
		Kind:    KindDataSourceMissing,
		Code:    "data_source_missing",
		Message: "data source or sheet not found",
	}

	// Unsupported features of the application under test
	ErrUnsupported = &ExecutionError{
		Kind:    KindUnsupported,
		Code:    "unsupported_operation",
		Message: "operation is not supported",
	}

	// Caller errors
	ErrInvalidArgument = &ExecutionError{
		Kind:    KindInvalidArgument,
		Code:    "invalid_argument",
		Message: "invalid argument",
	}

	// Driver / transport
	ErrSession = &ExecutionError{
		Kind:    KindSession,
		Code:    "session_error",
		Message: "browser session error",
	}

	// Scenario checks
	ErrAssertion = &ExecutionError{
		Kind:    KindAssertion,
		Code:    "assertion_failed",
		Message: "assertion failed",
	}
)

// NewExecutionError creates a new ExecutionError with the given parameters
func NewExecutionError(kind ErrorKind, code, message string) *ExecutionError {
	return &ExecutionError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// KindOf classifies err. Unknown errors are treated as session failures.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	var ee *ExecutionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	return KindSession
}

// IsKind reports whether err classifies as kind.
func IsKind(err error, kind ErrorKind) bool {
	return KindOf(err) == kind
}
