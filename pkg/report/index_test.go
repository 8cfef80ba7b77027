package report

import (
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestIndexWriterTerminalFlushesImmediately(t *testing.T) {
	dir, index, _ := newReport(t)
	w := NewIndexWriter(dir, index, WithoutHTML())
	defer w.Close()

	w.Start()
	now := time.Now()
	w.UpdateScenario("scenario-000", &ScenarioUpdate{Status: StatusRunning, StartTime: &now})
	w.UpdateScenario("scenario-000", &ScenarioUpdate{Status: StatusPassed, Duration: ptr(int64(42))})

	got, err := ReadIndex(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	e := got.Scenarios[0]
	if e.Status != StatusPassed {
		t.Errorf("Status = %q, want passed", e.Status)
	}
	if e.StartTime == nil {
		t.Error("StartTime lost when merging pending updates")
	}
	if e.Duration == nil || *e.Duration != 42 {
		t.Errorf("Duration = %v, want 42", e.Duration)
	}
	if got.Summary.Passed != 1 || got.Summary.Pending != 1 {
		t.Errorf("Summary = %+v", got.Summary)
	}
	if got.Status != StatusRunning {
		t.Errorf("run Status = %q, want running", got.Status)
	}
}

func TestIndexWriterDebouncesProgress(t *testing.T) {
	dir, index, _ := newReport(t)
	w := NewIndexWriter(dir, index, WithoutHTML())
	defer w.Close()

	w.UpdateScenario("scenario-001", &ScenarioUpdate{Status: StatusRunning, Steps: StepSummary{Total: 1}})

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		got, err := ReadIndex(filepath.Join(dir, "report.json"))
		if err == nil && got.Scenarios[1].Status == StatusRunning {
			if got.Scenarios[1].Steps.Total != 1 {
				t.Errorf("Steps = %+v", got.Scenarios[1].Steps)
			}
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("progress update never flushed")
}

func TestIndexWriterEnd(t *testing.T) {
	dir, index, _ := newReport(t)
	w := NewIndexWriter(dir, index, WithoutHTML())

	w.UpdateScenario("scenario-000", &ScenarioUpdate{Status: StatusPassed})
	w.UpdateScenario("scenario-001", &ScenarioUpdate{Status: StatusFailed, Flaky: false, Error: ptr("boom")})
	w.End()
	w.Close()
	w.Close()

	got, err := ReadIndex(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if got.Status != StatusFailed {
		t.Errorf("Status = %q, want failed", got.Status)
	}
	if got.EndTime == nil {
		t.Error("EndTime not set")
	}
	if got.Scenarios[1].Error == nil || *got.Scenarios[1].Error != "boom" {
		t.Errorf("Error = %v", got.Scenarios[1].Error)
	}
}

func TestIndexWriterRecordAttempt(t *testing.T) {
	dir, index, _ := newReport(t)
	w := NewIndexWriter(dir, index, WithoutHTML())

	w.RecordAttempt("scenario-000", 1, StatusFailed, 1200, "timeout", "scenarios/scenario-000-attempt-1.json")
	w.RecordAttempt("missing", 1, StatusFailed, 0, "", "")
	w.Close()

	snap := w.Snapshot()
	e := snap.Scenarios[0]
	if e.Attempts != 1 || len(e.AttemptHistory) != 1 {
		t.Fatalf("entry = %+v", e)
	}
	if e.AttemptHistory[0].Error != "timeout" {
		t.Errorf("history = %+v", e.AttemptHistory[0])
	}

	got, err := ReadIndex(filepath.Join(dir, "report.json"))
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(got.Scenarios[0].AttemptHistory) != 1 {
		t.Errorf("attempt history not written: %+v", got.Scenarios[0])
	}
}

func TestIndexWriterSnapshotIsCopy(t *testing.T) {
	dir, index, _ := newReport(t)
	w := NewIndexWriter(dir, index, WithoutHTML())
	defer w.Close()

	snap := w.Snapshot()
	snap.Scenarios[0].Status = StatusFailed

	if w.Snapshot().Scenarios[0].Status != StatusPending {
		t.Error("Snapshot shares scenario slice with the writer")
	}
}

func TestRunStatus(t *testing.T) {
	tests := []struct {
		name     string
		statuses []Status
		want     Status
	}{
		{"all passed", []Status{StatusPassed, StatusSkipped}, StatusPassed},
		{"one failed", []Status{StatusPassed, StatusFailed}, StatusFailed},
		{"still running", []Status{StatusFailed, StatusRunning}, StatusRunning},
		{"pending", []Status{StatusPending}, StatusRunning},
		{"empty", nil, StatusPassed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := make([]ScenarioEntry, len(tt.statuses))
			for i, s := range tt.statuses {
				entries[i].Status = s
			}
			if got := runStatus(entries); got != tt.want {
				t.Errorf("runStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}
