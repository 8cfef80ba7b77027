package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/devicelab-dev/shopflow/pkg/report"
)

var reportCommand = &cli.Command{
	Name:      "report",
	Usage:     "Render or follow a report directory",
	ArgsUsage: "<report-dir>",
	Description: `Regenerate report.html from the JSON report of a run. With --follow the
command prints job updates of a run in progress until it finishes.

Examples:
  shopflow report reports/2026-01-02_10-00-00
  shopflow report reports/2026-01-02_10-00-00 --embed --allure
  shopflow report reports/2026-01-02_10-00-00 --follow
  shopflow report reports/2026-01-02_10-00-00 --recover`,
	Flags: []cli.Flag{
		&cli.BoolFlag{
			Name:  "embed",
			Usage: "Embed screenshots in report.html",
		},
		&cli.BoolFlag{
			Name:  "allure",
			Usage: "Write allure-results next to report.json",
		},
		&cli.BoolFlag{
			Name:  "follow",
			Usage: "Print updates until the run finishes",
		},
		&cli.DurationFlag{
			Name:  "interval",
			Usage: "Poll interval for --follow",
			Value: time.Second,
		},
		&cli.BoolFlag{
			Name:  "recover",
			Usage: "Close out jobs left running by an interrupted run",
		},
	},
	Action: func(c *cli.Context) error {
		if c.NArg() != 1 {
			return fmt.Errorf("exactly one report directory is required")
		}
		dir := c.Args().First()

		if c.Bool("follow") {
			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()
			if err := followReport(ctx, os.Stdout, dir, c.Duration("interval")); err != nil {
				return err
			}
		}
		return renderReport(os.Stdout, dir, reportOptions{
			Embed:   c.Bool("embed"),
			Allure:  c.Bool("allure"),
			Recover: c.Bool("recover"),
		})
	},
}

type reportOptions struct {
	Embed   bool
	Allure  bool
	Recover bool
}

func renderReport(w io.Writer, dir string, opts reportOptions) error {
	if opts.Recover {
		if err := report.Recover(dir); err != nil {
			return fmt.Errorf("recover report: %w", err)
		}
	}

	htmlPath := filepath.Join(dir, "report.html")
	if err := report.GenerateHTML(dir, report.HTMLConfig{OutputPath: htmlPath, EmbedAssets: opts.Embed}); err != nil {
		return err
	}
	fmt.Fprintf(w, "HTML:   %s\n", htmlPath)

	if opts.Allure {
		if err := report.GenerateAllure(dir, zap.NewNop()); err != nil {
			return err
		}
		fmt.Fprintf(w, "Allure: %s\n", filepath.Join(dir, "allure-results"))
	}
	return nil
}

// followReport polls the index and prints every job whose entry changed,
// until the run reaches a terminal status or ctx is done.
func followReport(ctx context.Context, w io.Writer, dir string, interval time.Duration) error {
	if interval <= 0 {
		interval = time.Second
	}
	consumer := report.NewConsumer(dir)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		changed, index, err := consumer.Poll()
		if err != nil {
			return err
		}
		if len(changed) > 0 {
			printChanges(w, index, changed)
		}
		if index.Status.IsTerminal() {
			s := index.Summary
			fmt.Fprintf(w, "run %s: %d passed, %d failed, %d skipped\n", index.Status, s.Passed, s.Failed, s.Skipped)
			return nil
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func printChanges(w io.Writer, index *report.Index, changed []string) {
	ids := make(map[string]bool, len(changed))
	for _, id := range changed {
		ids[id] = true
	}
	for _, e := range index.Scenarios {
		if !ids[e.ID] {
			continue
		}
		line := fmt.Sprintf("%-10s %-30s %s", e.Status, e.Label(), e.Name)
		if e.Error != nil {
			line += " - " + *e.Error
		}
		fmt.Fprintln(w, line)
	}
}
