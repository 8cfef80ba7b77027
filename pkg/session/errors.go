package session

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

// WebDriverError is an error payload returned by a W3C endpoint.
type WebDriverError struct {
	Code    string // W3C error code: "no such element", "stale element reference"...
	Message string
	Status  int // HTTP status
}

func (e *WebDriverError) Error() string {
	if e.Message == "" {
		return e.Code
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// w3cKinds maps W3C error codes onto the core taxonomy.
var w3cKinds = map[string]*core.ExecutionError{
	"no such element":           core.ErrElementNotFound,
	"stale element reference":   core.ErrStaleElement,
	"element click intercepted": core.ErrClickIntercepted,
	"element not interactable":  core.ErrNotInteractable,
	"invalid element state":     core.ErrNotInteractable,
	"timeout":                   core.ErrWaitTimeout,
	"script timeout":            core.ErrWaitTimeout,
	"invalid selector":          core.ErrInvalidArgument,
	"invalid argument":          core.ErrInvalidArgument,
	"no such window":            core.ErrSession,
	"invalid session id":        core.ErrSession,
	"unsupported operation":     core.ErrUnsupported,
}

// Classify converts a driver or transport error into a core.ExecutionError.
// Errors already classified pass through unchanged.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var ee *core.ExecutionError
	if errors.As(err, &ee) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return core.ErrWaitTimeout.WithCause(err)
	}
	if errors.Is(err, context.Canceled) {
		return core.ErrSession.WithMessage("session call cancelled").WithCause(err)
	}

	var wd *WebDriverError
	if errors.As(err, &wd) {
		if sentinel, ok := w3cKinds[wd.Code]; ok {
			return sentinel.WithCause(err)
		}
		return core.ErrSession.WithCause(err)
	}

	// chromedp reports some failures as plain strings
	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "could not find node"), strings.Contains(msg, "no node"):
		return core.ErrStaleElement.WithCause(err)
	case strings.Contains(msg, "deadline exceeded"):
		return core.ErrWaitTimeout.WithCause(err)
	}
	return core.ErrSession.WithCause(err)
}

// hitTestError converts a Chrome hit-test state into the matching error.
func hitTestError(state, by string) error {
	switch state {
	case "stale":
		return core.ErrStaleElement
	case "hidden":
		return core.ErrNotInteractable.WithMessage("element has no visible area")
	case "disabled":
		return core.ErrNotInteractable.WithMessage("element is disabled")
	case "intercepted":
		return core.ErrClickIntercepted.WithMessagef("click would be received by <%s>", by)
	default:
		return core.ErrSession.WithMessagef("unexpected hit-test state %q", state)
	}
}
