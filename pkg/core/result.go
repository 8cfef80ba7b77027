package core

import (
	"time"
)

// StepResult is one reported line of a scenario: a level and a message,
// optionally pointing at a screenshot.
type StepResult struct {
	Index      int       `json:"index"`
	Level      Level     `json:"level"`
	Message    string    `json:"message"`
	Time       time.Time `json:"time"`
	Screenshot string    `json:"screenshot,omitempty"` // Path relative to the report directory
}

// ScenarioResult captures the complete outcome of executing one scenario job
type ScenarioResult struct {
	// Identity
	ScenarioID string   `json:"scenarioId"`       // CART-03, LOGIN-03...
	Name       string   `json:"name"`             // Display name
	CaseID     string   `json:"caseId,omitempty"` // Data row case id for data-driven jobs
	Tags       []string `json:"tags,omitempty"`

	// Status
	Status StepStatus `json:"status"`
	Kind   ErrorKind  `json:"errorKind,omitempty"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Output
	Steps []StepResult `json:"steps"`
	Error string       `json:"error,omitempty"`

	// Retry tracking
	Attempt     int      `json:"attempt"`               // Final attempt (1-based)
	MaxAttempts int      `json:"maxAttempts"`           // Configured retries + 1
	RetryErrors []string `json:"retryErrors,omitempty"` // Errors from previous attempts
	Flaky       bool     `json:"flaky,omitempty"`       // True if passed after retry

	Attachments []Attachment `json:"attachments,omitempty"`

	// Summary (computed)
	PassedChecks int `json:"passedChecks"`
	FailedChecks int `json:"failedChecks"`
	Warnings     int `json:"warnings"`
}

// ComputeSummary counts check outcomes from the Steps slice
func (r *ScenarioResult) ComputeSummary() {
	r.PassedChecks = 0
	r.FailedChecks = 0
	r.Warnings = 0

	for _, step := range r.Steps {
		switch step.Level {
		case LevelPass:
			r.PassedChecks++
		case LevelFail:
			r.FailedChecks++
		case LevelWarning:
			r.Warnings++
		}
	}
}

// AggregateStatus determines the scenario status from its steps and error.
// Rules:
// - An error or any failed step → StatusFailed (StatusErrored for non-assertion kinds)
// - A skip step → StatusSkipped
// - Warnings only → StatusWarned
// - Otherwise → StatusPassed
func (r *ScenarioResult) AggregateStatus() StepStatus {
	if r.Error != "" {
		if r.Kind == KindAssertion || r.Kind == KindNone {
			return StatusFailed
		}
		return StatusErrored
	}
	warned := false
	for _, step := range r.Steps {
		switch step.Level {
		case LevelFail:
			return StatusFailed
		case LevelSkip:
			return StatusSkipped
		case LevelWarning:
			warned = true
		}
	}
	if warned {
		return StatusWarned
	}
	return StatusPassed
}

// SuiteResult captures the complete outcome of a suite run
type SuiteResult struct {
	// Identity
	Name  string `json:"name"`
	RunID string `json:"runId"`

	// Timing
	StartTime time.Time     `json:"startTime"`
	Duration  time.Duration `json:"duration"`

	// Results
	Scenarios []ScenarioResult `json:"scenarios"`

	// Summary
	Total   int `json:"total"`
	Passed  int `json:"passed"`
	Failed  int `json:"failed"`
	Skipped int `json:"skipped"`
	Flaky   int `json:"flaky,omitempty"`
}

// ComputeSummary calculates scenario counts from the Scenarios slice
func (s *SuiteResult) ComputeSummary() {
	s.Total = len(s.Scenarios)
	s.Passed = 0
	s.Failed = 0
	s.Skipped = 0
	s.Flaky = 0

	for _, sc := range s.Scenarios {
		switch sc.Status {
		case StatusPassed, StatusWarned:
			s.Passed++
		case StatusFailed, StatusErrored:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
		if sc.Flaky {
			s.Flaky++
		}
	}
}

// Success returns true if no scenario failed and at least one ran
func (s *SuiteResult) Success() bool {
	ran := 0
	for _, sc := range s.Scenarios {
		switch sc.Status {
		case StatusFailed, StatusErrored:
			return false
		case StatusPassed, StatusWarned:
			ran++
		}
	}
	return ran > 0
}
