package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestExecutionError_Error(t *testing.T) {
	err := &ExecutionError{
		Kind:    KindAssertion,
		Code:    "test_error",
		Message: "test message",
	}

	if got := err.Error(); got != "test message" {
		t.Errorf("Error() = %q, want %q", got, "test message")
	}
}

func TestExecutionError_ErrorWithCause(t *testing.T) {
	err := ErrSession.WithCause(errors.New("connection refused"))

	got := err.Error()
	if !strings.Contains(got, "browser session error") {
		t.Errorf("Error() = %q, should contain the message", got)
	}
	if !strings.Contains(got, "connection refused") {
		t.Errorf("Error() = %q, should contain the cause", got)
	}
}

func TestExecutionError_Unwrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := &ExecutionError{Message: "wrapper", Cause: cause}

	if got := err.Unwrap(); got != cause {
		t.Errorf("Unwrap() = %v, want %v", got, cause)
	}
	if !errors.Is(err, cause) {
		t.Error("errors.Is should reach the cause")
	}
}

func TestExecutionError_WithCause(t *testing.T) {
	cause := errors.New("custom cause")
	newErr := ErrElementNotFound.WithCause(cause)

	if newErr.Cause != cause {
		t.Error("WithCause() did not set cause")
	}
	if newErr.Code != ErrElementNotFound.Code {
		t.Error("WithCause() changed code")
	}
	if ErrElementNotFound.Cause != nil {
		t.Error("WithCause() modified the sentinel")
	}
}

func TestExecutionError_WithMessagef(t *testing.T) {
	newErr := ErrWaitTimeout.WithMessagef("visible(%s) after %s", "login button", "10s")

	if newErr.Message != "visible(login button) after 10s" {
		t.Errorf("Message = %q", newErr.Message)
	}
	if ErrWaitTimeout.Message != "wait condition timed out" {
		t.Error("WithMessagef() modified the sentinel")
	}
	if !errors.Is(newErr, ErrWaitTimeout) {
		t.Error("copy should still match its sentinel")
	}
}

func TestExecutionError_WithDetails(t *testing.T) {
	base := ErrElementNotFound.WithDetails(map[string]interface{}{"locator": "cart"})
	merged := base.WithDetails(map[string]interface{}{"strategies": 3})

	if merged.Details["locator"] != "cart" || merged.Details["strategies"] != 3 {
		t.Errorf("Details = %v", merged.Details)
	}
	if _, ok := base.Details["strategies"]; ok {
		t.Error("WithDetails() modified the receiver")
	}
	if ErrElementNotFound.Details != nil {
		t.Error("WithDetails() modified the sentinel")
	}
}

func TestPredefinedErrors(t *testing.T) {
	tests := []struct {
		err  *ExecutionError
		kind ErrorKind
		code string
	}{
		{ErrElementNotFound, KindNotFound, "no_such_element"},
		{ErrStaleElement, KindStale, "stale_element_reference"},
		{ErrNotInteractable, KindNotInteractable, "element_not_interactable"},
		{ErrClickIntercepted, KindIntercepted, "element_click_intercepted"},
		{ErrActionFailed, KindActionFailed, "action_failed"},
		{ErrWaitTimeout, KindTimeout, "wait_timeout"},
		{ErrDataSourceMissing, KindDataSourceMissing, "data_source_missing"},
		{ErrUnsupported, KindUnsupported, "unsupported_operation"},
		{ErrInvalidArgument, KindInvalidArgument, "invalid_argument"},
		{ErrSession, KindSession, "session_error"},
		{ErrAssertion, KindAssertion, "assertion_failed"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			if tt.err.Kind != tt.kind {
				t.Errorf("Kind = %v, want %v", tt.err.Kind, tt.kind)
			}
			if tt.err.Code != tt.code {
				t.Errorf("Code = %q, want %q", tt.err.Code, tt.code)
			}
			if tt.err.Message == "" {
				t.Error("Message should not be empty")
			}
		})
	}
}

func TestNewExecutionError(t *testing.T) {
	err := NewExecutionError(KindInvalidArgument, "bad_transition", "cannot pay from cart")

	if err.Kind != KindInvalidArgument || err.Code != "bad_transition" || err.Message != "cannot pay from cart" {
		t.Errorf("unexpected error %+v", err)
	}
}

func TestExecutionError_ErrorsIs(t *testing.T) {
	wrapped := fmt.Errorf("cart page: %w", ErrElementNotFound.WithMessage("delete link"))

	if !errors.Is(wrapped, ErrElementNotFound) {
		t.Error("wrapped copy should match ErrElementNotFound")
	}
	if errors.Is(wrapped, ErrStaleElement) {
		t.Error("wrapped copy should not match ErrStaleElement")
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorKind
	}{
		{"nil", nil, KindNone},
		{"sentinel", ErrClickIntercepted, KindIntercepted},
		{"wrapped", fmt.Errorf("op: %w", ErrUnsupported), KindUnsupported},
		{"deadline", context.DeadlineExceeded, KindTimeout},
		{"wrapped deadline", fmt.Errorf("navigate: %w", context.DeadlineExceeded), KindTimeout},
		{"plain", errors.New("boom"), KindSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindOf(tt.err); got != tt.want {
				t.Errorf("KindOf() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsKind(t *testing.T) {
	if !IsKind(ErrStaleElement.WithCause(errors.New("detached")), KindStale) {
		t.Error("IsKind() should match stale")
	}
	if IsKind(nil, KindStale) {
		t.Error("IsKind(nil) should be false")
	}
}
