// Package action performs element interactions with the click fallback
// chain used against pages covered by ads and sticky overlays.
package action

import (
	"context"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"go.uber.org/zap"
)

// Executor performs Click, Type and Select on resolved elements.
type Executor struct {
	sess     session.Session
	logger   *zap.Logger
	overlays []string
}

// Option configures an Executor.
type Option func(*Executor)

// WithOverlays sets CSS selectors removed from the page before the
// scroll-and-retry click.
func WithOverlays(selectors []string) Option {
	return func(e *Executor) {
		e.overlays = selectors
	}
}

// WithLogger sets the executor logger.
func WithLogger(l *zap.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// NewExecutor creates an executor bound to one session.
func NewExecutor(sess session.Session, opts ...Option) *Executor {
	e := &Executor{sess: sess, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Session returns the session the executor acts on.
func (e *Executor) Session() session.Session {
	return e.sess
}

// Click clicks el. An intercepted or not-interactable click is retried
// once after removing overlays and scrolling el to the viewport center,
// then forced with a script click. Any other failure returns at once.
func (e *Executor) Click(ctx context.Context, el session.Element) core.ActionResult {
	start := time.Now()
	res := core.ActionResult{Strategy: core.StrategyDirect, Attempts: 1}

	err := e.sess.Click(ctx, el)
	if err == nil {
		return succeeded(res, start)
	}
	if !recoverable(err) {
		return failed(res, err, start)
	}
	e.logger.Debug("direct click failed, retrying after scroll",
		zap.String("element", el.ID), zap.Error(err))

	res.Strategy = core.StrategyScrollRetry
	res.Attempts++
	e.removeOverlays(ctx)
	if serr := e.ScrollIntoView(ctx, el); serr != nil && !recoverable(serr) {
		return failed(res, serr, start)
	}
	err = e.sess.Click(ctx, el)
	if err == nil {
		return succeeded(res, start)
	}
	if !recoverable(err) {
		return failed(res, err, start)
	}
	e.logger.Debug("click still blocked, forcing script click",
		zap.String("element", el.ID), zap.Error(err))

	res.Strategy = core.StrategyScriptClick
	res.Attempts++
	if _, err = e.sess.CallOnElement(ctx, el, session.ScriptJSClick); err == nil {
		return succeeded(res, start)
	}
	e.logger.Warn("click fallback chain exhausted", zap.String("element", el.ID), zap.Error(err))
	return failed(res, core.ErrActionFailed.WithMessagef("click on %s failed after %d attempts", el.ID, res.Attempts).WithCause(err), start)
}

// Type clears el and sends text.
func (e *Executor) Type(ctx context.Context, el session.Element, text string) core.ActionResult {
	start := time.Now()
	res := core.ActionResult{Strategy: core.StrategyDirect, Attempts: 1}
	if err := e.sess.Clear(ctx, el); err != nil {
		return failed(res, err, start)
	}
	if err := e.sess.SendKeys(ctx, el, text); err != nil {
		return failed(res, err, start)
	}
	return succeeded(res, start)
}

// Select picks the option of a <select> whose value or visible text
// equals choice.
func (e *Executor) Select(ctx context.Context, el session.Element, choice string) core.ActionResult {
	start := time.Now()
	res := core.ActionResult{Strategy: core.StrategyDirect, Attempts: 1}
	v, err := e.sess.CallOnElement(ctx, el, session.ScriptSelectOption, choice)
	if err != nil {
		return failed(res, err, start)
	}
	if s, _ := v.(string); s != "ok" {
		return failed(res, core.ErrElementNotFound.WithMessagef("option %q not offered by %s", choice, el.ID), start)
	}
	return succeeded(res, start)
}

// ScrollIntoView centers el in the viewport.
func (e *Executor) ScrollIntoView(ctx context.Context, el session.Element) error {
	_, err := e.sess.CallOnElement(ctx, el, session.ScriptScrollIntoView)
	return err
}

// RemoveOverlays deletes configured overlay elements and returns how many
// were removed.
func (e *Executor) RemoveOverlays(ctx context.Context) (int, error) {
	if len(e.overlays) == 0 {
		return 0, nil
	}
	v, err := e.sess.ExecuteScript(ctx, session.ScriptRemoveOverlays, e.overlays)
	if err != nil {
		return 0, err
	}
	n, _ := v.(float64)
	return int(n), nil
}

func (e *Executor) removeOverlays(ctx context.Context) {
	n, err := e.RemoveOverlays(ctx)
	if err != nil {
		e.logger.Debug("overlay removal failed", zap.Error(err))
		return
	}
	if n > 0 {
		e.logger.Debug("removed overlays", zap.Int("count", n))
	}
}

func recoverable(err error) bool {
	switch core.KindOf(err) {
	case core.KindIntercepted, core.KindNotInteractable:
		return true
	}
	return false
}

func succeeded(res core.ActionResult, start time.Time) core.ActionResult {
	res.Succeeded = true
	res.Duration = time.Since(start)
	return res
}

func failed(res core.ActionResult, err error, start time.Time) core.ActionResult {
	res.Err = err
	res.Kind = core.KindOf(err)
	res.Duration = time.Since(start)
	return res
}
