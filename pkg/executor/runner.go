// Package executor orchestrates scenario execution, connecting browser
// sessions to reports.
package executor

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/devicelab-dev/shopflow/pkg/config"
	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/dataprovider"
	"github.com/devicelab-dev/shopflow/pkg/report"
	"github.com/devicelab-dev/shopflow/pkg/session"
)

// RunnerConfig configures the test runner.
type RunnerConfig struct {
	OutputDir       string              // Report output directory
	Suite           string              // Suite name for the report
	RunID           string              // Generated when empty
	Parallel        int                 // Max concurrent jobs (<= 1 = sequential)
	Retries         int                 // Re-executions of a failed job, capped at config.MaxRetries
	StartsPerSecond float64             // Throttle on job starts (0 = unlimited)
	Artifacts       core.ArtifactConfig // When to capture failure artifacts
	Config          *config.Config      // Site, waits and overlays for page objects

	// Browser info for reports
	Browser       core.BrowserInfo
	RunnerVersion string

	// Results receives PASS/FAIL for data-driven jobs; nil disables write-back.
	Results *dataprovider.ResultWriter

	Logger *zap.Logger

	// Live progress callbacks. They may be called from several goroutines.
	OnScenarioStart func(idx, total int, label string)
	OnStep          func(label string, step core.StepResult)
	OnScenarioEnd   func(result core.ScenarioResult)
}

// ArtifactsFromConfig maps the artifacts section of the configuration.
func ArtifactsFromConfig(cfg config.ArtifactsConfig) core.ArtifactConfig {
	return core.ArtifactConfig{
		CaptureOnFailure: true,
		CaptureOnSuccess: cfg.OnSuccess,
		Screenshot:       cfg.Screenshot,
		PageSource:       cfg.PageSource,
	}
}

// Runner executes jobs. Every attempt gets its own session from the
// factory, so parallel jobs never share a browser.
type Runner struct {
	config  RunnerConfig
	factory session.Factory
	log     *zap.Logger
}

// New creates a new Runner.
func New(factory session.Factory, cfg RunnerConfig) *Runner {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Config == nil {
		cfg.Config = config.Defaults()
	}
	if cfg.Parallel < 1 {
		cfg.Parallel = 1
	}
	cfg.Retries = max(0, min(cfg.Retries, config.MaxRetries))
	return &Runner{
		config:  cfg,
		factory: factory,
		log:     log.Named("executor"),
	}
}

// Run executes all jobs, writes the report and returns the suite result.
// Jobs not started because ctx was cancelled are reported as skipped.
func (r *Runner) Run(ctx context.Context, jobs []Job) (*core.SuiteResult, error) {
	runID := r.config.RunID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := r.log.With(zap.String("run", runID))

	planned := make([]report.Planned, len(jobs))
	for i, j := range jobs {
		planned[i] = j.planned()
	}
	index, details := report.BuildSkeleton(planned, report.BuilderConfig{
		RunID:         runID,
		Suite:         r.config.Suite,
		Browser:       r.config.Browser,
		Site:          r.config.Config.Site.HomeURL,
		RunnerVersion: r.config.RunnerVersion,
		Parallel:      r.config.Parallel,
		Retries:       r.config.Retries,
	})
	if err := report.WriteSkeleton(r.config.OutputDir, index, details); err != nil {
		return nil, err
	}

	indexWriter := report.NewIndexWriter(r.config.OutputDir, index, report.WithLogger(log))
	defer indexWriter.Close()

	indexWriter.Start()
	startTime := time.Now()
	log.Info("run started", zap.Int("jobs", len(jobs)), zap.Int("parallel", r.config.Parallel))

	var limiter *rate.Limiter
	if r.config.StartsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(r.config.StartsPerSecond), 1)
	}

	results := make([]core.ScenarioResult, len(jobs))
	var g errgroup.Group
	g.SetLimit(r.config.Parallel)
	for i := range jobs {
		jr := &jobRunner{
			runner: r,
			job:    jobs[i],
			idx:    i,
			total:  len(jobs),
			writer: report.NewScenarioWriter(&details[i], r.config.OutputDir, indexWriter),
			index:  indexWriter,
			log:    log.With(zap.String("scenario", jobs[i].Label())),
		}
		if ctx.Err() != nil {
			results[i] = jr.skip("run cancelled")
			continue
		}
		g.Go(func() error {
			if limiter != nil {
				if err := limiter.Wait(ctx); err != nil {
					results[i] = jr.skip("run cancelled")
					return nil
				}
			}
			results[i] = jr.run(ctx)
			return nil
		})
	}
	_ = g.Wait()

	indexWriter.End()

	suite := &core.SuiteResult{
		Name:      r.config.Suite,
		RunID:     runID,
		StartTime: startTime,
		Duration:  time.Since(startTime),
		Scenarios: results,
	}
	suite.ComputeSummary()
	log.Info("run finished",
		zap.Int("passed", suite.Passed),
		zap.Int("failed", suite.Failed),
		zap.Int("skipped", suite.Skipped),
		zap.Duration("duration", suite.Duration))

	r.writeBack(jobs, results)
	return suite, nil
}

// writeBack records PASS/FAIL for every data-driven job that ran on a real
// row. Failures are logged; they never fail the run.
func (r *Runner) writeBack(jobs []Job, results []core.ScenarioResult) {
	if r.config.Results == nil {
		return
	}
	bySheet := map[string][]dataprovider.Outcome{}
	var order []string
	for i, j := range jobs {
		if j.Row == nil || j.Row.Default() || results[i].Status == core.StatusSkipped {
			continue
		}
		if _, ok := bySheet[j.Sheet]; !ok {
			order = append(order, j.Sheet)
		}
		bySheet[j.Sheet] = append(bySheet[j.Sheet], dataprovider.Outcome{
			CaseID: j.CaseID(),
			Result: dataprovider.ResultFor(results[i].Status),
		})
	}
	for _, sheet := range order {
		if err := r.config.Results.WriteAll(sheet, bySheet[sheet]); err != nil {
			r.log.Warn("result write-back failed", zap.String("sheet", sheet), zap.Error(err))
		}
	}
}
