package executor

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"runtime/debug"
	"time"

	"go.uber.org/zap"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/pages"
	"github.com/devicelab-dev/shopflow/pkg/report"
	"github.com/devicelab-dev/shopflow/pkg/scenario"
	"github.com/devicelab-dev/shopflow/pkg/session"
)

// artifactTimeout bounds failure capture, which also runs after ctx is
// cancelled.
const artifactTimeout = 15 * time.Second

// jobRunner executes one job with its retries.
type jobRunner struct {
	runner *Runner
	job    Job
	idx    int
	total  int
	writer *report.ScenarioWriter
	index  *report.IndexWriter
	log    *zap.Logger
}

// attemptResult is the outcome of a single attempt.
type attemptResult struct {
	status      core.StepStatus
	err         error
	steps       []core.StepResult
	attachments []core.Attachment
	start       time.Time
	duration    time.Duration
}

func (jr *jobRunner) result() core.ScenarioResult {
	return core.ScenarioResult{
		ScenarioID:  jr.job.Scenario.ID,
		Name:        jr.job.Scenario.Name,
		CaseID:      jr.job.CaseID(),
		Tags:        jr.job.Scenario.Tags,
		MaxAttempts: jr.runner.config.Retries + 1,
	}
}

// skip reports a job that never started.
func (jr *jobRunner) skip(reason string) core.ScenarioResult {
	res := jr.result()
	res.Status = core.StatusSkipped
	res.StartTime = time.Now()
	res.Error = reason

	jr.writer.Start(0)
	jr.writer.Step(core.StepResult{Level: core.LevelSkip, Message: reason, Time: res.StartTime})
	jr.writer.End(report.StatusSkipped, nil, false)
	jr.notifyEnd(res)
	return res
}

// run executes the job, retrying a failed attempt up to the configured
// number of times regardless of the failure kind.
func (jr *jobRunner) run(ctx context.Context) core.ScenarioResult {
	cfg := jr.runner.config
	if cfg.OnScenarioStart != nil {
		cfg.OnScenarioStart(jr.idx, jr.total, jr.job.Label())
	}

	res := jr.result()
	res.StartTime = time.Now()
	maxAttempts := cfg.Retries + 1

	var last attemptResult
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if attempt > 1 {
			jr.log.Info("retrying", zap.Int("attempt", attempt), zap.String("previous", errString(last.err)))
		}
		last = jr.attempt(ctx, attempt)
		res.Attempt = attempt

		retry := !last.status.IsSuccess() && last.status != core.StatusSkipped &&
			attempt < maxAttempts && ctx.Err() == nil
		if attempt > 1 || retry {
			id := jr.writer.Detail().ID
			dataFile := filepath.Join("scenarios", id+".json")
			if retry {
				dataFile = jr.writer.Archive()
			}
			jr.index.RecordAttempt(id, attempt, report.StatusOf(last.status),
				last.duration.Milliseconds(), errString(last.err), dataFile)
		}
		if !retry {
			break
		}
		res.RetryErrors = append(res.RetryErrors, errString(last.err))
	}

	res.Status = last.status
	res.Steps = last.steps
	res.Attachments = last.attachments
	res.Duration = time.Since(res.StartTime)
	res.Flaky = res.Attempt > 1 && last.status.IsSuccess()
	if last.err != nil {
		res.Error = last.err.Error()
		res.Kind = core.KindOf(last.err)
	}
	res.ComputeSummary()

	if res.Flaky {
		jr.log.Warn("passed after retry", zap.Int("attempts", res.Attempt))
	}
	jr.notifyEnd(res)
	return res
}

func (jr *jobRunner) notifyEnd(res core.ScenarioResult) {
	if fn := jr.runner.config.OnScenarioEnd; fn != nil {
		fn(res)
	}
}

// attempt runs the scenario once on a fresh session.
func (jr *jobRunner) attempt(ctx context.Context, attempt int) attemptResult {
	cfg := jr.runner.config
	out := attemptResult{start: time.Now()}
	jr.writer.Start(attempt)
	label := jr.job.Label()

	onStep := func(s core.StepResult) {
		jr.writer.Step(s)
		if cfg.OnStep != nil {
			cfg.OnStep(label, s)
		}
	}

	sess, err := jr.runner.factory(ctx)
	if err != nil {
		out.err = fmt.Errorf("open session: %w", err)
		out.status = core.StatusErrored
		out.steps = []core.StepResult{{Level: core.LevelFail, Message: out.err.Error(), Time: time.Now()}}
		onStep(out.steps[0])
		out.duration = time.Since(out.start)
		jr.writer.End(report.StatusFailed, out.err, false)
		return out
	}
	defer func() {
		if err := sess.Close(); err != nil {
			jr.log.Debug("session close failed", zap.Error(err))
		}
	}()

	env := pages.EnvFromConfig(sess, cfg.Config, jr.log.Named("pages"))
	opts := []scenario.Option{scenario.WithParams(jr.job.Params), scenario.OnStep(onStep)}
	if jr.job.Row != nil {
		opts = append(opts, scenario.WithRow(*jr.job.Row))
	}
	t := scenario.NewT(ctx, env, opts...)

	out.err = runBody(jr.job.Scenario.Run, t)
	if out.err != nil {
		var pe *panicError
		if errors.As(out.err, &pe) {
			jr.log.Error("scenario panicked", zap.Any("value", pe.value), zap.ByteString("stack", pe.stack))
		}
		// A returned error that was not reported through T still shows in
		// the step log.
		if !t.Failed() {
			t.Fail("%v", out.err)
		}
	}

	sr := core.ScenarioResult{Steps: t.Steps()}
	if out.err != nil {
		sr.Error = out.err.Error()
		sr.Kind = core.KindOf(out.err)
	}
	out.status = sr.AggregateStatus()
	if out.status == core.StatusFailed && out.err == nil {
		out.err = core.ErrAssertion.WithMessage(firstFailure(t.Steps()))
	}

	for _, a := range t.Attachments() {
		rel, err := jr.writer.SaveAttachment(a)
		if err != nil {
			jr.log.Warn("save attachment failed", zap.String("file", a.Path), zap.Error(err))
			continue
		}
		a.Path, a.Body = rel, nil
		out.attachments = append(out.attachments, a)
	}
	if cfg.Artifacts.ShouldCapture(out.status) {
		out.attachments = append(out.attachments, jr.captureArtifacts(ctx, sess, attempt)...)
	}

	out.steps = jr.writer.Detail().StepResults()
	out.duration = time.Since(out.start)
	flaky := attempt > 1 && out.status.IsSuccess()
	jr.writer.End(report.StatusOf(out.status), out.err, flaky)
	if err := jr.writer.Err(); err != nil {
		jr.log.Warn("report write failed", zap.Error(err))
	}
	return out
}

// captureArtifacts saves a screenshot, the page source and its snapshot
// summary. Capture failures are logged and never change the outcome.
func (jr *jobRunner) captureArtifacts(ctx context.Context, sess session.Session, attempt int) []core.Attachment {
	cfg := jr.runner.config.Artifacts
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), artifactTimeout)
	defer cancel()

	var (
		artifacts report.Artifacts
		saved     []core.Attachment
		summary   string
	)
	save := func(a core.Attachment) string {
		rel, err := jr.writer.SaveAttachment(a)
		if err != nil {
			jr.log.Warn("save artifact failed", zap.String("name", a.Name), zap.Error(err))
			return ""
		}
		saved = append(saved, core.Attachment{Name: a.Name, ContentType: a.ContentType, Path: rel})
		return rel
	}

	if cfg.Screenshot {
		if data, err := sess.Screenshot(cctx); err != nil {
			jr.log.Warn("failure screenshot failed", zap.Error(err))
		} else {
			artifacts.Screenshot = save(core.NewScreenshotAttachment(fmt.Sprintf("attempt-%d-screenshot.png", attempt), data))
		}
	}

	snap, html, err := session.Capture(cctx, sess)
	if err != nil {
		jr.log.Warn("page snapshot failed", zap.Error(err))
	}
	if snap != nil {
		summary = snap.Summary()
	}
	if cfg.PageSource && html != "" {
		artifacts.PageSource = save(core.NewPageSourceAttachment(fmt.Sprintf("attempt-%d-page.html", attempt), html))
	}

	jr.writer.SetFailureArtifacts(artifacts, summary)
	return saved
}

// panicError is a recovered scenario panic.
type panicError struct {
	value interface{}
	stack []byte
}

func (p *panicError) Error() string {
	return fmt.Sprintf("scenario panicked: %v", p.value)
}

// runBody calls fn and turns a panic into an error.
func runBody(fn scenario.Func, t *scenario.T) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = &panicError{value: p, stack: debug.Stack()}
		}
	}()
	return fn(t)
}

func firstFailure(steps []core.StepResult) string {
	for _, s := range steps {
		if s.Level == core.LevelFail {
			return s.Message
		}
	}
	return "check failed"
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
