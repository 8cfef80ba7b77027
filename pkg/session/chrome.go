package session

import (
	"context"
	"encoding/json"
	"fmt"
	"runtime"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/browser"
	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Chrome is a Session backed by a local Chrome/Chromium process driven
// over the DevTools protocol.
type Chrome struct {
	opts   Options
	logger *zap.Logger

	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc

	mu      sync.Mutex
	tabs    map[string]tab // handle -> attached context
	current string
	info    core.BrowserInfo
}

type tab struct {
	ctx    context.Context
	cancel context.CancelFunc
}

// evalResult is the envelope every wrapped script returns.
type evalResult struct {
	Value   json.RawMessage `json:"value"`
	Stale   bool            `json:"stale"`
	Refs    []string        `json:"refs"`
	Error   string          `json:"error"`
	Message string          `json:"message"`
}

// NewChrome launches a browser and opens its first tab.
func NewChrome(ctx context.Context, opts Options) (*Chrome, error) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	id := uuid.NewString()
	logger = logger.With(zap.String("session", id))

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	c := &Chrome{
		opts:          opts,
		logger:        logger,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		tabs:          make(map[string]tab),
		info: core.BrowserInfo{
			Name:     orName(opts.Browser.Name),
			Headless: opts.Browser.Headless,
			Width:    opts.Browser.WindowWidth,
			Height:   opts.Browser.WindowHeight,
		},
	}

	// The first Run starts the browser process.
	startCtx, cancel := context.WithTimeout(browserCtx, opts.PageLoad)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()
	if err := chromedp.Run(startCtx, chromedp.Navigate("about:blank")); err != nil {
		c.Close()
		return nil, core.ErrSession.WithMessage("browser failed to start").WithCause(err)
	}

	handle := string(chromedp.FromContext(browserCtx).Target.TargetID)
	c.tabs[handle] = tab{ctx: browserCtx, cancel: browserCancel}
	c.current = handle

	_ = chromedp.Run(browserCtx, chromedp.ActionFunc(func(ctx context.Context) error {
		_, product, _, ua, _, err := browser.GetVersion().Do(ctx)
		if err != nil {
			return err
		}
		c.info.Version = product
		c.info.UserAgent = ua
		return nil
	}))

	logger.Info("chrome session started", zap.String("version", c.info.Version), zap.Bool("headless", opts.Browser.Headless))
	return c, nil
}

func orName(name string) string {
	if name == "" {
		return "chrome"
	}
	return name
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	var out []chromedp.ExecAllocatorOption
	for _, opt := range chromedp.DefaultExecAllocatorOptions {
		out = append(out, opt)
	}
	// DefaultExecAllocatorOptions is headless; undo that for headed runs.
	out = append(out,
		chromedp.Flag("headless", opts.Browser.Headless),
		chromedp.Flag("disable-notifications", true),
		chromedp.Flag("disable-popup-blocking", true),
		chromedp.Flag("disable-extensions", true),
	)
	if opts.Browser.WindowWidth > 0 && opts.Browser.WindowHeight > 0 {
		out = append(out, chromedp.WindowSize(opts.Browser.WindowWidth, opts.Browser.WindowHeight))
	}
	if opts.Browser.ExecPath != "" {
		out = append(out, chromedp.ExecPath(opts.Browser.ExecPath))
	}
	for _, arg := range opts.Browser.Args {
		parts := strings.SplitN(arg, "=", 2)
		name := strings.TrimPrefix(parts[0], "--")
		if len(parts) == 2 {
			out = append(out, chromedp.Flag(name, parts[1]))
		} else {
			out = append(out, chromedp.Flag(name, true))
		}
	}
	if runtime.GOOS == "linux" {
		out = append(out,
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
		)
	}
	return out
}

// run executes actions on the current tab, bounded by ctx.
func (c *Chrome) run(ctx context.Context, actions ...chromedp.Action) error {
	c.mu.Lock()
	t, ok := c.tabs[c.current]
	c.mu.Unlock()
	if !ok {
		return core.ErrSession.WithMessage("no current window")
	}

	runCtx, cancel := context.WithCancel(t.ctx)
	defer cancel()
	if dl, ok := ctx.Deadline(); ok {
		var cancelDl context.CancelFunc
		runCtx, cancelDl = context.WithDeadline(runCtx, dl)
		defer cancelDl()
	}
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return Classify(chromedp.Run(runCtx, actions...))
}

// eval runs expr and decodes the returned envelope.
func (c *Chrome) eval(ctx context.Context, expr string) (*evalResult, error) {
	var raw []byte
	if err := c.run(ctx, chromedp.Evaluate(expr, &raw)); err != nil {
		return nil, err
	}
	var res evalResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, core.ErrSession.WithMessage("unexpected script result").WithCause(err)
	}
	return &res, nil
}

func jsonArgs(args []interface{}) (string, error) {
	if args == nil {
		args = []interface{}{}
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", core.ErrInvalidArgument.WithMessage("script arguments are not JSON encodable").WithCause(err)
	}
	return string(b), nil
}

// Navigate loads url in the current tab, bounded by the page-load timeout.
func (c *Chrome) Navigate(ctx context.Context, url string) error {
	navCtx, cancel := context.WithTimeout(ctx, c.opts.PageLoad)
	defer cancel()
	c.logger.Debug("navigate", zap.String("url", url))
	return c.run(navCtx, chromedp.Navigate(url))
}

func (c *Chrome) Refresh(ctx context.Context) error {
	navCtx, cancel := context.WithTimeout(ctx, c.opts.PageLoad)
	defer cancel()
	return c.run(navCtx, chromedp.Reload())
}

func (c *Chrome) CurrentURL(ctx context.Context) (string, error) {
	var u string
	err := c.run(ctx, chromedp.Location(&u))
	return u, err
}

func (c *Chrome) Title(ctx context.Context) (string, error) {
	var t string
	err := c.run(ctx, chromedp.Title(&t))
	return t, err
}

// FindElements tags every match with a per-document ref and returns the refs.
func (c *Chrome) FindElements(ctx context.Context, q Query, scope *Element) ([]Element, error) {
	scopeRef := ""
	if scope != nil {
		scopeRef = scope.ID
	}
	args, err := jsonArgs([]interface{}{string(q.By), q.Value, scopeRef})
	if err != nil {
		return nil, err
	}
	res, err := c.eval(ctx, fmt.Sprintf("(%s).apply(null, %s)", scriptFind, args))
	if err != nil {
		return nil, err
	}
	if res.Stale {
		return nil, core.ErrStaleElement.WithMessage("search scope is no longer attached")
	}
	if res.Error != "" {
		return nil, Classify(&WebDriverError{Code: res.Error, Message: res.Message})
	}
	out := make([]Element, 0, len(res.Refs))
	for _, r := range res.Refs {
		out = append(out, Element{ID: r})
	}
	return out, nil
}

// CallOnElement applies fn with `this` bound to el.
func (c *Chrome) CallOnElement(ctx context.Context, el Element, fn string, args ...interface{}) (interface{}, error) {
	raw, err := c.callRaw(ctx, el, fn, args...)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &v); err != nil {
			return nil, core.ErrSession.WithCause(err)
		}
	}
	return v, nil
}

func (c *Chrome) callRaw(ctx context.Context, el Element, fn string, args ...interface{}) (json.RawMessage, error) {
	ref, err := json.Marshal(el.ID)
	if err != nil {
		return nil, core.ErrInvalidArgument.WithCause(err)
	}
	a, err := jsonArgs(args)
	if err != nil {
		return nil, err
	}
	expr := fmt.Sprintf(`(function(ref, args) {
  var el = document.querySelector('[%s="' + ref + '"]');
  if (!el) { return {stale: true}; }
  var v = (%s).apply(el, args);
  return {value: v === undefined ? null : v};
})(%s, %s)`, refAttr, fn, ref, a)

	res, err := c.eval(ctx, expr)
	if err != nil {
		return nil, err
	}
	if res.Stale {
		return nil, core.ErrStaleElement.WithMessagef("element %s is no longer attached", el.ID)
	}
	return res.Value, nil
}

func (c *Chrome) callInto(ctx context.Context, el Element, fn string, dst interface{}, args ...interface{}) error {
	raw, err := c.callRaw(ctx, el, fn, args...)
	if err != nil {
		return err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return core.ErrSession.WithCause(err)
	}
	return nil
}

// Click hit-tests the element and dispatches a real mouse click at its center.
func (c *Chrome) Click(ctx context.Context, el Element) error {
	var hit struct {
		State string  `json:"state"`
		By    string  `json:"by"`
		X     float64 `json:"x"`
		Y     float64 `json:"y"`
	}
	if err := c.callInto(ctx, el, scriptHitTest, &hit); err != nil {
		return err
	}
	if hit.State != "ok" {
		return hitTestError(hit.State, hit.By)
	}
	return c.run(ctx, chromedp.MouseClickXY(hit.X, hit.Y))
}

func (c *Chrome) Clear(ctx context.Context, el Element) error {
	_, err := c.callRaw(ctx, el, scriptClear)
	return err
}

// SendKeys focuses the element and types text as key events.
func (c *Chrome) SendKeys(ctx context.Context, el Element, text string) error {
	var focused bool
	if err := c.callInto(ctx, el, scriptFocus, &focused); err != nil {
		return err
	}
	if !focused {
		return core.ErrNotInteractable.WithMessage("element cannot receive focus")
	}
	return c.run(ctx, chromedp.KeyEvent(text))
}

func (c *Chrome) Text(ctx context.Context, el Element) (string, error) {
	var s string
	err := c.callInto(ctx, el, scriptText, &s)
	return s, err
}

func (c *Chrome) Attribute(ctx context.Context, el Element, name string) (string, error) {
	var s string
	err := c.callInto(ctx, el, scriptAttribute, &s, name)
	return s, err
}

func (c *Chrome) Displayed(ctx context.Context, el Element) (bool, error) {
	var b bool
	err := c.callInto(ctx, el, scriptDisplayed, &b)
	return b, err
}

func (c *Chrome) Enabled(ctx context.Context, el Element) (bool, error) {
	var b bool
	err := c.callInto(ctx, el, scriptEnabled, &b)
	return b, err
}

func (c *Chrome) Rect(ctx context.Context, el Element) (core.Bounds, error) {
	var r struct {
		X, Y, Width, Height float64
	}
	if err := c.callInto(ctx, el, scriptRect, &r); err != nil {
		return core.Bounds{}, err
	}
	return core.Bounds{X: int(r.X), Y: int(r.Y), Width: int(r.Width), Height: int(r.Height)}, nil
}

// ExecuteScript runs body as a function with args bound to `arguments`.
func (c *Chrome) ExecuteScript(ctx context.Context, body string, args ...interface{}) (interface{}, error) {
	a, err := jsonArgs(args)
	if err != nil {
		return nil, err
	}
	expr := fmt.Sprintf(`(function(args) {
  var v = (function() {
%s
  }).apply(null, args);
  return {value: v === undefined ? null : v};
})(%s)`, body, a)

	res, err := c.eval(ctx, expr)
	if err != nil {
		return nil, err
	}
	var v interface{}
	if len(res.Value) > 0 {
		if err := json.Unmarshal(res.Value, &v); err != nil {
			return nil, core.ErrSession.WithCause(err)
		}
	}
	return v, nil
}

func (c *Chrome) Screenshot(ctx context.Context) ([]byte, error) {
	var buf []byte
	err := c.run(ctx, chromedp.CaptureScreenshot(&buf))
	return buf, err
}

func (c *Chrome) PageSource(ctx context.Context) (string, error) {
	var html string
	err := c.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// WindowHandles lists page targets. Handles are DevTools target IDs.
func (c *Chrome) WindowHandles(ctx context.Context) ([]string, error) {
	runCtx, cancel := context.WithCancel(c.browserCtx)
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	infos, err := chromedp.Targets(runCtx)
	if err != nil {
		return nil, Classify(err)
	}
	var handles []string
	for _, info := range infos {
		if info.Type == "page" {
			handles = append(handles, string(info.TargetID))
		}
	}
	return handles, nil
}

func (c *Chrome) CurrentWindow(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current, nil
}

// SwitchToWindow attaches to the target the first time it is selected.
func (c *Chrome) SwitchToWindow(ctx context.Context, handle string) error {
	c.mu.Lock()
	t, ok := c.tabs[handle]
	if !ok {
		tctx, cancel := chromedp.NewContext(c.browserCtx, chromedp.WithTargetID(target.ID(handle)))
		t = tab{ctx: tctx, cancel: cancel}
		c.tabs[handle] = t
	}
	c.current = handle
	c.mu.Unlock()

	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return target.ActivateTarget(target.ID(handle)).Do(ctx)
	}))
}

// CloseWindow closes the current tab. The caller must switch to another
// handle before further calls.
func (c *Chrome) CloseWindow(ctx context.Context) error {
	c.mu.Lock()
	handle := c.current
	t, ok := c.tabs[handle]
	c.mu.Unlock()
	if !ok {
		return core.ErrSession.WithMessage("no current window")
	}

	err := c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		return page.Close().Do(ctx)
	}))

	c.mu.Lock()
	delete(c.tabs, handle)
	c.current = ""
	c.mu.Unlock()
	if t.ctx != c.browserCtx {
		t.cancel()
	}
	return err
}

func (c *Chrome) MaximizeWindow(ctx context.Context) error {
	return c.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		id, _, err := browser.GetWindowForTarget().Do(ctx)
		if err != nil {
			return err
		}
		return browser.SetWindowBounds(id, &browser.Bounds{WindowState: browser.WindowStateMaximized}).Do(ctx)
	}))
}

func (c *Chrome) Info() core.BrowserInfo {
	return c.info
}

// Close shuts down every tab and the browser process.
func (c *Chrome) Close() error {
	c.mu.Lock()
	tabs := c.tabs
	c.tabs = map[string]tab{}
	c.mu.Unlock()

	for _, t := range tabs {
		if t.ctx != c.browserCtx {
			t.cancel()
		}
	}
	if c.browserCancel != nil {
		c.browserCancel()
	}
	if c.allocCancel != nil {
		c.allocCancel()
	}
	c.logger.Debug("chrome session closed")
	return nil
}

var _ Session = (*Chrome)(nil)
