package scenario

import (
	"context"
	"fmt"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/dataprovider"
	"github.com/devicelab-dev/shopflow/pkg/pages"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/wait"
	"go.uber.org/zap"
)

// T is the per-attempt context handed to a scenario. It owns the step log
// and exposes the page objects bound to the attempt's session. A T is used
// by one goroutine.
type T struct {
	ctx    context.Context
	env    pages.Env
	Pages  *pages.Set
	log    *zap.Logger
	params map[string]string
	row    *dataprovider.Row

	steps       []core.StepResult
	attachments []core.Attachment
	failed      bool
	skipped     bool

	onStep func(core.StepResult)
	now    func() time.Time
}

// Option configures a T.
type Option func(*T)

// WithRow binds the data row of a data-driven job.
func WithRow(row dataprovider.Row) Option {
	return func(t *T) { t.row = &row }
}

// WithParams sets scenario parameters. Later options override earlier ones
// key by key.
func WithParams(params map[string]string) Option {
	return func(t *T) {
		for k, v := range params {
			t.params[k] = v
		}
	}
}

// OnStep registers a callback invoked for every reported step.
func OnStep(fn func(core.StepResult)) Option {
	return func(t *T) { t.onStep = fn }
}

// NewT creates the context for one attempt.
func NewT(ctx context.Context, env pages.Env, opts ...Option) *T {
	log := env.Logger
	if log == nil {
		log = zap.NewNop()
	}
	t := &T{
		ctx:    ctx,
		env:    env,
		Pages:  pages.NewSet(env),
		log:    log,
		params: map[string]string{},
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Context returns the attempt's context.
func (t *T) Context() context.Context { return t.ctx }

// Session returns the attempt's browser session.
func (t *T) Session() session.Session { return t.env.Session }

// Env returns the page environment, for building extra page objects.
func (t *T) Env() pages.Env { return t.env }

// Param returns a parameter, or "" when unset.
func (t *T) Param(key string) string { return t.params[key] }

// Row returns the data row of a data-driven job.
func (t *T) Row() (dataprovider.Row, bool) {
	if t.row == nil {
		return dataprovider.Row{}, false
	}
	return *t.row, true
}

func (t *T) report(level core.Level, msg string) {
	t.record(core.StepResult{Level: level, Message: msg})
}

func (t *T) record(step core.StepResult) {
	step.Index = len(t.steps)
	step.Time = t.now()
	t.steps = append(t.steps, step)
	t.log.Debug("step", zap.String("level", string(step.Level)), zap.String("message", step.Message))
	if t.onStep != nil {
		t.onStep(step)
	}
}

// Step reports the start of a numbered step.
func (t *T) Step(n int, title string) {
	t.report(core.LevelInfo, fmt.Sprintf("Step %d: %s", n, title))
}

// Info reports an informational line.
func (t *T) Info(format string, args ...interface{}) {
	t.report(core.LevelInfo, fmt.Sprintf(format, args...))
}

// Pass reports a passed check.
func (t *T) Pass(format string, args ...interface{}) {
	t.report(core.LevelPass, fmt.Sprintf(format, args...))
}

// Warn reports a non-fatal problem.
func (t *T) Warn(format string, args ...interface{}) {
	t.report(core.LevelWarning, fmt.Sprintf(format, args...))
}

// Fail reports a failed check. The scenario keeps running.
func (t *T) Fail(format string, args ...interface{}) {
	t.failed = true
	t.report(core.LevelFail, fmt.Sprintf(format, args...))
}

// Skip marks the attempt as skipped. The scenario should return nil after.
func (t *T) Skip(format string, args ...interface{}) {
	t.skipped = true
	t.report(core.LevelSkip, fmt.Sprintf(format, args...))
}

// Check reports pass or fail and returns ok.
func (t *T) Check(ok bool, pass, fail string) bool {
	if ok {
		t.Pass("%s", pass)
	} else {
		t.Fail("%s", fail)
	}
	return ok
}

// Require reports a failed check and returns an assertion error when ok is
// false. Scenarios return the error to stop.
func (t *T) Require(ok bool, format string, args ...interface{}) error {
	if ok {
		return nil
	}
	msg := fmt.Sprintf(format, args...)
	t.Fail("%s", msg)
	return core.ErrAssertion.WithMessage(msg)
}

// Screenshot captures the current page. Capture errors are reported as a
// warning and never fail the scenario.
func (t *T) Screenshot(name string) {
	data, err := t.env.Session.Screenshot(t.ctx)
	if err != nil {
		t.Warn("screenshot %s failed: %v", name, err)
		return
	}
	file := fmt.Sprintf("step-%03d-%s.png", len(t.steps), name)
	t.attachments = append(t.attachments, core.NewScreenshotAttachment(file, data))
	t.record(core.StepResult{Level: core.LevelInfo, Message: "Screenshot: " + name, Screenshot: file})
}

// WaitForURL blocks until the current URL contains any of subs within the
// default wait.
func (t *T) WaitForURL(subs ...string) (string, error) {
	return wait.Until(t.ctx, t.policy(t.env.Waits.Default), wait.URLContains(t.env.Session, subs...))
}

// WaitFor polls check until it reports true within the default wait.
func (t *T) WaitFor(check func(ctx context.Context) (bool, error)) error {
	_, err := wait.Until(t.ctx, t.policy(t.env.Waits.Default), wait.Func(check))
	return err
}

func (t *T) policy(timeout time.Duration) wait.Policy {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	poll := t.env.Waits.Poll
	if poll <= 0 {
		poll = wait.DefaultPoll
	}
	return wait.New(timeout).WithPoll(min(poll, timeout))
}

// Steps returns the reported steps.
func (t *T) Steps() []core.StepResult { return t.steps }

// Attachments returns captured artifacts.
func (t *T) Attachments() []core.Attachment { return t.attachments }

// Failed reports whether any check failed.
func (t *T) Failed() bool { return t.failed }

// Skipped reports whether the scenario skipped itself.
func (t *T) Skipped() bool { return t.skipped }
