package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/devicelab-dev/shopflow/pkg/config"
	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/dataprovider"
	"github.com/devicelab-dev/shopflow/pkg/executor"
	"github.com/devicelab-dev/shopflow/pkg/jsengine"
	"github.com/devicelab-dev/shopflow/pkg/logger"
	"github.com/devicelab-dev/shopflow/pkg/report"
	"github.com/devicelab-dev/shopflow/pkg/scenario"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/suite"
)

var runCommand = &cli.Command{
	Name:      "run",
	Usage:     "Run a suite against the storefront",
	ArgsUsage: "[suite.yaml]",
	Description: `Run the scenarios selected by a suite descriptor. Without a descriptor
every registered scenario runs.

Reports are generated in the output directory:
  - Default: <home>/reports/<timestamp>/
  - With --output: <output>/<timestamp>/
  - With --output and --flatten: <output>/ (no timestamp subfolder)

Examples:
  shopflow run
  shopflow run suites/regression.yaml
  shopflow run --include-tags smoke --parallel 2
  shopflow run --data testdata/TestData.xlsx --write-results`,
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:    "suite",
			Aliases: []string{"s"},
			Usage:   "Suite descriptor (YAML)",
		},
		&cli.StringSliceFlag{
			Name:  "include-tags",
			Usage: "Only run scenarios with these tags",
		},
		&cli.StringSliceFlag{
			Name:  "exclude-tags",
			Usage: "Skip scenarios with these tags",
		},
		&cli.IntFlag{
			Name:  "parallel",
			Usage: "Run up to N scenarios at once, each in its own browser (scenarios sharing an account are not coordinated)",
		},
		&cli.IntFlag{
			Name:  "retries",
			Usage: fmt.Sprintf("Re-run a failed scenario up to N times (max %d)", config.MaxRetries),
		},
		&cli.StringFlag{
			Name:  "data",
			Usage: "Test data workbook (.xlsx)",
		},
		&cli.BoolFlag{
			Name:  "write-results",
			Usage: "Write PASS/FAIL into the workbook's Result column",
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Output directory for reports",
		},
		&cli.BoolFlag{
			Name:  "flatten",
			Usage: "Don't create timestamp subfolder (requires --output)",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Also write allure-results into the output directory",
		},
	},
	Action: runSuite,
}

// RunConfig holds everything a run needs after flag parsing.
type RunConfig struct {
	Config    *config.Config
	Suite     *suite.Descriptor
	OutputDir string
	Allure    bool

	Registry *scenario.Registry // nil uses the built-in catalog
	Factory  session.Factory    // nil opens the configured browser
	Out      io.Writer          // Console output; defaults to stdout
}

func runSuite(c *cli.Context) error {
	if c.NArg() > 1 {
		return fmt.Errorf("at most one suite file is accepted, got %d", c.NArg())
	}
	suitePath := c.String("suite")
	if suitePath == "" {
		suitePath = c.Args().First()
	}

	desc := suite.Default()
	if suitePath != "" {
		var err error
		if desc, err = suite.ParseFile(suitePath); err != nil {
			return err
		}
	}
	desc.IncludeTags = append(desc.IncludeTags, c.StringSlice("include-tags")...)
	desc.ExcludeTags = append(desc.ExcludeTags, c.StringSlice("exclude-tags")...)

	cfg, err := loadConfig(c)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	desc.Apply(cfg)
	if c.IsSet("parallel") {
		cfg.Suite.Parallel = c.Int("parallel")
	}
	if c.IsSet("retries") {
		cfg.Suite.Retries = c.Int("retries")
	}
	if c.IsSet("data") {
		cfg.Data.Workbook = c.String("data")
	}
	if c.IsSet("write-results") {
		cfg.Data.WriteResults = c.Bool("write-results")
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	outputDir, err := resolveOutputDir(c.String("output"), c.Bool("flatten"))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return executeRun(ctx, &RunConfig{
		Config:    cfg,
		Suite:     desc,
		OutputDir: outputDir,
		Allure:    c.Bool("allure"),
	})
}

// resolveOutputDir determines the output directory based on flags.
// - No --output: <home>/reports/<timestamp>/
// - --output given: <output>/<timestamp>/
// - --output + --flatten: <output>/ (error if --output not given)
func resolveOutputDir(output string, flatten bool) (string, error) {
	if flatten && output == "" {
		return "", fmt.Errorf("--flatten requires --output to be specified")
	}

	baseDir := output
	if baseDir == "" {
		baseDir = config.GetReportsDir()
	}

	if flatten {
		return filepath.Clean(baseDir), nil
	}

	timestamp := time.Now().Format("2006-01-02_15-04-05")
	return filepath.Join(baseDir, timestamp), nil
}

func executeRun(ctx context.Context, rc *RunConfig) error {
	cfg := rc.Config
	out := rc.Out
	if out == nil {
		out = os.Stdout
	}

	// 1. Create output directory
	if err := os.MkdirAll(rc.OutputDir, 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	// 2. Initialize logging
	if err := logger.Init(logger.Options{
		Level:      cfg.Log.Level,
		File:       filepath.Join(rc.OutputDir, "shopflow.log"),
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Console:    cfg.Log.Console,
		Name:       "shopflow",
	}); err != nil {
		fmt.Fprintf(out, "Warning: Failed to initialize logger: %v\n", err)
	}
	defer logger.Close()

	log := logger.L()
	log.Info("run requested",
		zap.String("suite", rc.Suite.Name),
		zap.String("output", rc.OutputDir),
		zap.String("browser", cfg.Browser.Name),
		zap.Bool("headless", cfg.Browser.Headless),
		zap.String("remote", cfg.Browser.RemoteURL))
	for _, w := range cfg.Warnings {
		log.Warn(w)
		fmt.Fprintf(out, "  %s⚠%s %s\n", color(colorYellow), color(colorReset), w)
	}

	// 3. Resolve the suite into jobs
	reg := rc.Registry
	if reg == nil {
		reg = scenario.Default()
	}
	selections, err := rc.Suite.Resolve(reg)
	if err != nil {
		log.Error("suite resolution failed", zap.Error(err))
		return err
	}
	runID := uuid.NewString()
	if err := suite.ExpandParams(selections, jsengine.New(jsengine.WithRunID(runID))); err != nil {
		log.Error("param expansion failed", zap.Error(err))
		return err
	}
	workbook := config.ResolvePath(cfg.Data.Workbook)
	jobs, err := executor.Plan(selections, dataprovider.New(workbook, logger.Named("dataprovider")), log)
	if err != nil {
		log.Error("planning failed", zap.Error(err))
		return err
	}
	if len(jobs) == 0 {
		return errors.New("no scenarios selected")
	}

	// 4. Browser sessions
	factory := rc.Factory
	if factory == nil {
		factory, err = session.NewFactory(session.Options{
			Browser:  cfg.Browser,
			PageLoad: cfg.Waits.PageLoad,
			Logger:   logger.Named("session"),
		})
		if err != nil {
			return err
		}
	}

	var results *dataprovider.ResultWriter
	if cfg.Data.WriteResults {
		results = dataprovider.NewResultWriter(workbook, logger.Named("dataprovider"))
	}

	// 5. Execute
	printBanner(out)
	con := newConsole(out, cfg.Suite.Parallel > 1)
	runner := executor.New(factory, executor.RunnerConfig{
		OutputDir:       rc.OutputDir,
		Suite:           rc.Suite.Name,
		RunID:           runID,
		Parallel:        cfg.Suite.Parallel,
		Retries:         cfg.Suite.Retries,
		StartsPerSecond: cfg.Suite.StartsPerSecond,
		Artifacts:       executor.ArtifactsFromConfig(cfg.Artifacts),
		Config:          cfg,
		Browser:         browserInfo(cfg.Browser),
		RunnerVersion:   Version,
		Results:         results,
		Logger:          log,
		OnScenarioStart: con.scenarioStart,
		OnStep:          con.step,
		OnScenarioEnd:   con.scenarioEnd,
	})
	result, err := runner.Run(ctx, jobs)
	if err != nil {
		log.Error("run failed", zap.Error(err))
		return err
	}

	// 6. Summary and reports
	printSummary(out, result)

	htmlPath := filepath.Join(rc.OutputDir, "report.html")
	fmt.Fprintln(out, "  Reports:")
	if err := report.GenerateHTML(rc.OutputDir, report.HTMLConfig{OutputPath: htmlPath}); err != nil {
		fmt.Fprintf(out, "  %s⚠%s Warning: failed to generate HTML report: %v\n", color(colorYellow), color(colorReset), err)
	} else {
		fmt.Fprintf(out, "    HTML:   %s\n", htmlPath)
	}
	fmt.Fprintf(out, "    JSON:   %s\n", filepath.Join(rc.OutputDir, "report.json"))
	fmt.Fprintf(out, "    Log:    %s\n", filepath.Join(rc.OutputDir, "shopflow.log"))
	if rc.Allure {
		if err := report.GenerateAllure(rc.OutputDir, log); err != nil {
			fmt.Fprintf(out, "  %s⚠%s Warning: failed to write allure results: %v\n", color(colorYellow), color(colorReset), err)
		} else {
			fmt.Fprintf(out, "    Allure: %s\n", filepath.Join(rc.OutputDir, "allure-results"))
		}
	}
	fmt.Fprintln(out)

	if ctx.Err() != nil {
		return cli.Exit("run interrupted", 130)
	}
	// Exit with code 1 if any scenario failed (summary already printed)
	if !result.Success() {
		return cli.Exit("", 1)
	}
	return nil
}

func browserInfo(b config.BrowserConfig) core.BrowserInfo {
	return core.BrowserInfo{
		Name:     b.Name,
		Headless: b.Headless,
		Remote:   b.RemoteURL != "",
		Width:    b.WindowWidth,
		Height:   b.WindowHeight,
	}
}

func printBanner(w io.Writer) {
	title := fmt.Sprintf("  shopflow %s", Version)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "╔"+strings.Repeat("═", 62)+"╗")
	fmt.Fprintf(w, "║%-62s║\n", title)
	fmt.Fprintf(w, "║%-62s║\n", "  Storefront UI regression suite")
	fmt.Fprintln(w, "╚"+strings.Repeat("═", 62)+"╝")
}
