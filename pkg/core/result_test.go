package core

import (
	"testing"
	"time"
)

func TestScenarioResult_ComputeSummary(t *testing.T) {
	r := &ScenarioResult{
		ScenarioID: "CART-03",
		Steps: []StepResult{
			{Index: 0, Level: LevelInfo},
			{Index: 1, Level: LevelPass},
			{Index: 2, Level: LevelPass},
			{Index: 3, Level: LevelFail},
			{Index: 4, Level: LevelWarning},
		},
	}

	r.ComputeSummary()

	if r.PassedChecks != 2 {
		t.Errorf("PassedChecks = %d, want 2", r.PassedChecks)
	}
	if r.FailedChecks != 1 {
		t.Errorf("FailedChecks = %d, want 1", r.FailedChecks)
	}
	if r.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", r.Warnings)
	}
}

func TestScenarioResult_ComputeSummary_Resets(t *testing.T) {
	r := &ScenarioResult{PassedChecks: 5, FailedChecks: 2}
	r.ComputeSummary()

	if r.PassedChecks != 0 || r.FailedChecks != 0 {
		t.Errorf("summary not reset: %+v", r)
	}
}

func TestScenarioResult_AggregateStatus(t *testing.T) {
	tests := []struct {
		name   string
		result ScenarioResult
		want   StepStatus
	}{
		{"all pass", ScenarioResult{Steps: []StepResult{{Level: LevelInfo}, {Level: LevelPass}}}, StatusPassed},
		{"no steps", ScenarioResult{}, StatusPassed},
		{"warning", ScenarioResult{Steps: []StepResult{{Level: LevelPass}, {Level: LevelWarning}}}, StatusWarned},
		{"failed step", ScenarioResult{Steps: []StepResult{{Level: LevelWarning}, {Level: LevelFail}}}, StatusFailed},
		{"skip", ScenarioResult{Steps: []StepResult{{Level: LevelInfo}, {Level: LevelSkip}}}, StatusSkipped},
		{"assertion error", ScenarioResult{Error: "total mismatch", Kind: KindAssertion}, StatusFailed},
		{"timeout error", ScenarioResult{Error: "wait timed out", Kind: KindTimeout}, StatusErrored},
		{"unclassified error", ScenarioResult{Error: "x"}, StatusFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.AggregateStatus(); got != tt.want {
				t.Errorf("AggregateStatus() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestSuiteResult_ComputeSummary(t *testing.T) {
	suite := &SuiteResult{
		Name:      "regression",
		StartTime: time.Now(),
		Scenarios: []ScenarioResult{
			{ScenarioID: "CART-01", Status: StatusPassed},
			{ScenarioID: "CART-02", Status: StatusWarned},
			{ScenarioID: "CART-03", Status: StatusFailed},
			{ScenarioID: "CART-04", Status: StatusErrored},
			{ScenarioID: "CART-05", Status: StatusSkipped},
			{ScenarioID: "CART-06", Status: StatusPassed, Flaky: true},
		},
	}

	suite.ComputeSummary()

	if suite.Total != 6 {
		t.Errorf("Total = %d, want 6", suite.Total)
	}
	if suite.Passed != 3 {
		t.Errorf("Passed = %d, want 3", suite.Passed)
	}
	if suite.Failed != 2 {
		t.Errorf("Failed = %d, want 2", suite.Failed)
	}
	if suite.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", suite.Skipped)
	}
	if suite.Flaky != 1 {
		t.Errorf("Flaky = %d, want 1", suite.Flaky)
	}
}

func TestSuiteResult_Success(t *testing.T) {
	tests := []struct {
		name      string
		scenarios []ScenarioResult
		want      bool
	}{
		{"all passed", []ScenarioResult{{Status: StatusPassed}, {Status: StatusWarned}}, true},
		{"one failed", []ScenarioResult{{Status: StatusPassed}, {Status: StatusFailed}}, false},
		{"one errored", []ScenarioResult{{Status: StatusErrored}}, false},
		{"only skipped", []ScenarioResult{{Status: StatusSkipped}}, false},
		{"empty", nil, false},
		{"passed and skipped", []ScenarioResult{{Status: StatusPassed}, {Status: StatusSkipped}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &SuiteResult{Scenarios: tt.scenarios}
			if got := s.Success(); got != tt.want {
				t.Errorf("Success() = %v, want %v", got, tt.want)
			}
		})
	}
}
