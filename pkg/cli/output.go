package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorGreen  = "\033[32m"
	colorRed    = "\033[31m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorGray   = "\033[90m"
)

// colorsEnabled determines if ANSI colors should be used
var colorsEnabled = true

func init() {
	// Respect NO_COLOR environment variable
	if os.Getenv("NO_COLOR") != "" {
		colorsEnabled = false
		return
	}
	// Check if stdout is a terminal
	if fileInfo, err := os.Stdout.Stat(); err == nil {
		if (fileInfo.Mode() & os.ModeCharDevice) == 0 {
			colorsEnabled = false
		}
	}
}

// color returns the color code if colors are enabled, empty string otherwise
func color(c string) string {
	if colorsEnabled {
		return c
	}
	return ""
}

// console prints live progress. Callbacks arrive from several goroutines
// when scenarios run in parallel; each line is then prefixed with its job.
type console struct {
	mu       sync.Mutex
	w        io.Writer
	prefixed bool
}

func newConsole(w io.Writer, parallel bool) *console {
	return &console{w: w, prefixed: parallel}
}

func (c *console) scenarioStart(idx, total int, label string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintf(c.w, "\n  %s[%d/%d]%s %s%s%s\n",
		color(colorCyan), idx+1, total, color(colorReset),
		color(colorBold), label, color(colorReset))
	if !c.prefixed {
		fmt.Fprintln(c.w, strings.Repeat("─", 60))
	}
}

func (c *console) step(label string, s core.StepResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	prefix := "    "
	if c.prefixed {
		prefix = fmt.Sprintf("    %s%s%s ", color(colorGray), label, color(colorReset))
	}
	symbol, symbolColor := levelSymbol(s.Level)
	fmt.Fprintf(c.w, "%s%s%s%s %s\n", prefix, color(symbolColor), symbol, color(colorReset), s.Message)
	if s.Screenshot != "" {
		fmt.Fprintf(c.w, "%s  %s╰─%s %s\n", prefix, color(colorGray), color(colorReset), s.Screenshot)
	}
}

func levelSymbol(l core.Level) (string, string) {
	switch l {
	case core.LevelPass:
		return "✓", colorGreen
	case core.LevelFail:
		return "✗", colorRed
	case core.LevelWarning:
		return "⚠", colorYellow
	case core.LevelSkip:
		return "-", colorCyan
	default:
		return "•", colorGray
	}
}

func (c *console) scenarioEnd(r core.ScenarioResult) {
	c.mu.Lock()
	defer c.mu.Unlock()

	label := resultLabel(r)
	dur := formatDuration(r.Duration)
	switch {
	case r.Status == core.StatusSkipped:
		fmt.Fprintf(c.w, "%s- %s%s %s%s%s\n",
			color(colorCyan), color(colorReset), label, color(colorGray), r.Error, color(colorReset))
	case r.Status.IsSuccess():
		flaky := ""
		if r.Flaky {
			flaky = fmt.Sprintf(" %s(flaky, attempt %d)%s", color(colorYellow), r.Attempt, color(colorReset))
		}
		fmt.Fprintf(c.w, "%s✓ %s%s %s%s%s%s\n",
			color(colorGreen), color(colorReset), label, color(colorGray), dur, color(colorReset), flaky)
	default:
		fmt.Fprintf(c.w, "%s✗ %s%s %s%s%s\n",
			color(colorRed), color(colorReset), label, color(colorGray), dur, color(colorReset))
		if r.Error != "" {
			fmt.Fprintf(c.w, "  %s╰─%s %s\n", color(colorGray), color(colorReset), r.Error)
		}
	}
}

func resultLabel(r core.ScenarioResult) string {
	if r.CaseID != "" {
		return r.ScenarioID + " [" + r.CaseID + "]"
	}
	return r.ScenarioID
}

func printSummary(w io.Writer, result *core.SuiteResult) {
	checks, failedChecks := 0, 0
	for _, sr := range result.Scenarios {
		checks += sr.PassedChecks
		failedChecks += sr.FailedChecks
	}

	fmt.Fprintln(w)
	if checks > 0 {
		fmt.Fprintf(w, "  %s%d checks passing%s (%s)\n", color(colorGreen), checks, color(colorReset), formatDuration(result.Duration))
	}
	if failedChecks > 0 {
		fmt.Fprintf(w, "  %s%d checks failing%s\n", color(colorRed), failedChecks, color(colorReset))
	}
	fmt.Fprintln(w)

	tableWidth := 92
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  %-42s %7s %7s %6s %6s %8s %10s\n", "Scenario", "Status", "Steps", "Pass", "Fail", "Attempts", "Duration")
	fmt.Fprintln(w, strings.Repeat("─", tableWidth))

	for _, sr := range result.Scenarios {
		var status, statusColor string
		switch {
		case sr.Status == core.StatusSkipped:
			status, statusColor = "- SKIP", color(colorCyan)
		case sr.Status.IsSuccess() && sr.Flaky:
			status, statusColor = "~ FLAKY", color(colorYellow)
		case sr.Status.IsSuccess():
			status, statusColor = "✓ PASS", color(colorGreen)
		default:
			status, statusColor = "✗ FAIL", color(colorRed)
		}

		// Truncate name if too long
		name := resultLabel(sr)
		if len(name) > 42 {
			name = name[:39] + "..."
		}

		fmt.Fprintf(w, "  %-42s %s%7s%s %7d %6d %6d %8d %10s\n",
			name, statusColor, status, color(colorReset),
			len(sr.Steps), sr.PassedChecks, sr.FailedChecks, sr.Attempt,
			formatDuration(sr.Duration))
	}

	fmt.Fprintln(w, strings.Repeat("─", tableWidth))
	statusStr := fmt.Sprintf("%d/%d", result.Passed, result.Total)
	statusColor := color(colorGreen)
	if result.Failed > 0 {
		statusColor = color(colorRed)
	}
	fmt.Fprintf(w, "  %s%-42s%s %s%7s%s %7s %6d %6d %8s %10s\n",
		color(colorBold), "TOTAL", color(colorReset),
		statusColor, statusStr, color(colorReset),
		"", checks, failedChecks, "",
		formatDuration(result.Duration))
	fmt.Fprintln(w, strings.Repeat("═", tableWidth))
	fmt.Fprintf(w, "  Total: %d  Passed: %d  Failed: %d  Skipped: %d  Flaky: %d\n",
		result.Total, result.Passed, result.Failed, result.Skipped, result.Flaky)
	fmt.Fprintln(w)
}

// formatDuration shows milliseconds below one second, seconds below one
// minute, and minutes with seconds otherwise.
func formatDuration(d time.Duration) string {
	ms := d.Milliseconds()
	if ms < 1000 {
		return fmt.Sprintf("%dms", ms)
	}
	if ms < 60000 {
		return fmt.Sprintf("%.1fs", float64(ms)/1000)
	}
	mins := ms / 60000
	secs := (ms % 60000) / 1000
	return fmt.Sprintf("%dm %ds", mins, secs)
}
