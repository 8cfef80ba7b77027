// Package report provides JSON-based test reporting with real-time updates.
//
// Architecture:
//   - report.json: Main index file (small, frequently updated, mutex-protected)
//   - scenarios/scenario-NNN.json: Per-job detail files (one writer each)
//   - assets/scenario-NNN/: Per-job artifacts (screenshots, page sources)
//
// The index is the single source of truth for status and change tracking.
// Consumers poll report.json and only fetch changed details.
package report

import (
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

// Version is the report schema version.
const Version = "1.0.0"

// Status represents the execution status.
type Status string

// Status values.
const (
	StatusPending Status = "pending"
	StatusRunning Status = "running"
	StatusPassed  Status = "passed"
	StatusFailed  Status = "failed"
	StatusSkipped Status = "skipped"
)

// IsTerminal returns true if the status is a final state.
func (s Status) IsTerminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusSkipped
}

// StatusOf folds a scenario status into the report's five states.
func StatusOf(s core.StepStatus) Status {
	switch s {
	case core.StatusPassed, core.StatusWarned:
		return StatusPassed
	case core.StatusFailed, core.StatusErrored:
		return StatusFailed
	case core.StatusSkipped:
		return StatusSkipped
	case core.StatusRunning:
		return StatusRunning
	default:
		return StatusPending
	}
}

// Index is the main report file. It holds just enough per job for
// polling and change detection.
type Index struct {
	Version     string           `json:"version"`
	RunID       string           `json:"runId"`
	Suite       string           `json:"suite"`
	UpdateSeq   uint64           `json:"updateSeq"`
	Status      Status           `json:"status"`
	StartTime   time.Time        `json:"startTime"`
	EndTime     *time.Time       `json:"endTime,omitempty"`
	LastUpdated time.Time        `json:"lastUpdated"`
	Browser     core.BrowserInfo `json:"browser"`
	Site        string           `json:"site"`
	Runner      RunnerInfo       `json:"runner"`
	Summary     Summary          `json:"summary"`
	Scenarios   []ScenarioEntry  `json:"scenarios"`
}

// RunnerInfo identifies the binary that produced the report.
type RunnerInfo struct {
	Version  string `json:"version"`
	Parallel int    `json:"parallel"`
	Retries  int    `json:"retries"`
}

// Summary contains aggregated counts.
type Summary struct {
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Running int `json:"running"`
	Pending int `json:"pending"`
	Flaky   int `json:"flaky"`
}

// ScenarioEntry is the index entry for one job.
type ScenarioEntry struct {
	Index          int            `json:"index"`            // Planned position
	ID             string         `json:"id"`               // scenario-000
	ScenarioID     string         `json:"scenarioId"`       // CART-03
	Name           string         `json:"name"`             // Display name
	CaseID         string         `json:"caseId,omitempty"` // Data row of a data-driven job
	Tags           []string       `json:"tags,omitempty"`
	DataFile       string         `json:"dataFile"`  // Path to the detail JSON
	AssetsDir      string         `json:"assetsDir"` // Path to the assets directory
	Status         Status         `json:"status"`
	UpdateSeq      uint64         `json:"updateSeq"`
	StartTime      *time.Time     `json:"startTime,omitempty"`
	EndTime        *time.Time     `json:"endTime,omitempty"`
	Duration       *int64         `json:"duration,omitempty"` // milliseconds
	LastUpdated    *time.Time     `json:"lastUpdated,omitempty"`
	Steps          StepSummary    `json:"steps"`
	Attempts       int            `json:"attempts"`
	AttemptHistory []AttemptEntry `json:"attemptHistory,omitempty"`
	Flaky          bool           `json:"flaky,omitempty"`
	Error          *string        `json:"error,omitempty"`
}

// Label is the display label of a job: the scenario id, plus the case id
// for data-driven jobs.
func (e ScenarioEntry) Label() string {
	if e.CaseID != "" {
		return e.ScenarioID + " [" + e.CaseID + "]"
	}
	return e.ScenarioID
}

// StepSummary counts reported lines by level.
type StepSummary struct {
	Total    int `json:"total"`
	Passed   int `json:"passed"`
	Failed   int `json:"failed"`
	Warnings int `json:"warnings"`
}

// AttemptEntry tracks one finished attempt of a retried job.
type AttemptEntry struct {
	Attempt  int    `json:"attempt"`
	DataFile string `json:"dataFile"`
	Status   Status `json:"status"`
	Duration int64  `json:"duration"` // milliseconds
	Error    string `json:"error,omitempty"`
}

// ScenarioDetail contains the full record of one job.
type ScenarioDetail struct {
	ID         string            `json:"id"`
	ScenarioID string            `json:"scenarioId"`
	Name       string            `json:"name"`
	Objective  string            `json:"objective,omitempty"`
	CaseID     string            `json:"caseId,omitempty"`
	Sheet      string            `json:"sheet,omitempty"`
	Params     map[string]string `json:"params,omitempty"`
	Tags       []string          `json:"tags,omitempty"`
	Status     Status            `json:"status"`
	Attempt    int               `json:"attempt"`
	StartTime  time.Time         `json:"startTime"`
	EndTime    *time.Time        `json:"endTime,omitempty"`
	Duration   *int64            `json:"duration,omitempty"` // milliseconds
	Steps      []Step            `json:"steps"`
	Error      *Error            `json:"error,omitempty"`
	Snapshot   string            `json:"snapshot,omitempty"` // Page summary captured on failure
	Artifacts  Artifacts         `json:"artifacts"`
}

// StepResults returns the steps with screenshot paths relative to the
// report directory.
func (d *ScenarioDetail) StepResults() []core.StepResult {
	out := make([]core.StepResult, len(d.Steps))
	for i, s := range d.Steps {
		out[i] = core.StepResult{Index: s.Index, Level: s.Level, Message: s.Message, Time: s.Time, Screenshot: s.Screenshot}
	}
	return out
}

// Step is one reported line.
type Step struct {
	Index      int        `json:"index"`
	Level      core.Level `json:"level"`
	Message    string     `json:"message"`
	Time       time.Time  `json:"time"`
	Screenshot string     `json:"screenshot,omitempty"`
}

// Error contains error details.
type Error struct {
	Type    string `json:"type"` // assertion, timeout, not_found, ...
	Message string `json:"message"`
}

// Artifacts holds job-level artifact paths, relative to the report
// directory. Never inline data.
type Artifacts struct {
	Screenshot string `json:"screenshot,omitempty"`
	PageSource string `json:"pageSource,omitempty"`
}

// ScenarioUpdate contains the fields to update in the index for a job.
type ScenarioUpdate struct {
	Status    Status
	StartTime *time.Time
	EndTime   *time.Time
	Duration  *int64
	Steps     StepSummary
	Flaky     bool
	Error     *string
}
