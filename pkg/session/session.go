// Package session defines the browser capability set page objects drive,
// with a local Chrome implementation and a remote W3C WebDriver one.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/config"
	"github.com/devicelab-dev/shopflow/pkg/core"
	"go.uber.org/zap"
)

// By names a query strategy. Values match the W3C locator strategies
// where one exists.
type By string

// Query strategies
const (
	ByID              By = "id"
	ByName            By = "name"
	ByXPath           By = "xpath"
	ByCSS             By = "css selector"
	ByClassName       By = "class name"
	ByLinkText        By = "link text"
	ByPartialLinkText By = "partial link text"
	ByTagName         By = "tag name"
)

// Query is a single element lookup.
type Query struct {
	By    By
	Value string
}

func (q Query) String() string {
	return fmt.Sprintf("%s=%s", q.By, q.Value)
}

// Element is a handle to a DOM element in the current document.
// Handles go stale when the document is replaced.
type Element struct {
	ID string
}

// Session is one browser session. It is owned by a single scenario and is
// not safe for concurrent use.
type Session interface {
	// Navigation
	Navigate(ctx context.Context, url string) error
	Refresh(ctx context.Context) error
	CurrentURL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)

	// Elements. FindElements returns an empty slice, not an error, when
	// nothing matches. A nil scope searches the whole document.
	FindElements(ctx context.Context, q Query, scope *Element) ([]Element, error)
	Click(ctx context.Context, el Element) error
	Clear(ctx context.Context, el Element) error
	SendKeys(ctx context.Context, el Element, text string) error
	Text(ctx context.Context, el Element) (string, error)
	Attribute(ctx context.Context, el Element, name string) (string, error)
	Displayed(ctx context.Context, el Element) (bool, error)
	Enabled(ctx context.Context, el Element) (bool, error)
	Rect(ctx context.Context, el Element) (core.Bounds, error)

	// Scripts. ExecuteScript runs a function body with JSON arguments
	// available as `arguments`. CallOnElement applies a function
	// expression with `this` bound to the element.
	ExecuteScript(ctx context.Context, body string, args ...interface{}) (interface{}, error)
	CallOnElement(ctx context.Context, el Element, fn string, args ...interface{}) (interface{}, error)

	// Capture
	Screenshot(ctx context.Context) ([]byte, error)
	PageSource(ctx context.Context) (string, error)

	// Windows
	WindowHandles(ctx context.Context) ([]string, error)
	CurrentWindow(ctx context.Context) (string, error)
	SwitchToWindow(ctx context.Context, handle string) error
	CloseWindow(ctx context.Context) error
	MaximizeWindow(ctx context.Context) error

	Info() core.BrowserInfo
	Close() error
}

// Factory opens a new session. The executor calls it once per attempt.
type Factory func(ctx context.Context) (Session, error)

// Options configures a session.
type Options struct {
	Browser  config.BrowserConfig
	PageLoad time.Duration
	Logger   *zap.Logger
}

// NewFactory returns a Factory for the configured browser: a remote W3C
// session when a remote URL is set, otherwise a local Chrome.
func NewFactory(opts Options) (Factory, error) {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.PageLoad <= 0 {
		opts.PageLoad = 30 * time.Second
	}
	name := strings.ToLower(opts.Browser.Name)

	if opts.Browser.RemoteURL != "" {
		return func(ctx context.Context) (Session, error) {
			return NewRemote(ctx, opts)
		}, nil
	}

	switch name {
	case "", "chrome", "chromium", "edge":
		return func(ctx context.Context) (Session, error) {
			return NewChrome(ctx, opts)
		}, nil
	default:
		return nil, core.ErrInvalidArgument.WithMessagef("browser %q needs browser.remote_url (a W3C WebDriver endpoint)", name)
	}
}
