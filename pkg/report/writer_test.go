package report

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

func TestScenarioWriterLifecycle(t *testing.T) {
	dir, index, details := newReport(t)
	iw := NewIndexWriter(dir, index, WithoutHTML())
	defer iw.Close()

	w := NewScenarioWriter(&details[0], dir, iw)
	w.Start(1)
	w.Step(core.StepResult{Level: core.LevelInfo, Message: "Open home", Time: at(1)})
	w.Step(core.StepResult{Level: core.LevelPass, Message: "Products page shown", Time: at(2)})
	w.Step(core.StepResult{Level: core.LevelWarning, Message: "Ad overlay", Time: at(3)})
	w.End(StatusPassed, nil, false)

	if err := w.Err(); err != nil {
		t.Fatalf("Err() = %v", err)
	}

	d, err := ReadScenario(filepath.Join(dir, "scenarios", "scenario-000.json"))
	if err != nil {
		t.Fatalf("ReadScenario: %v", err)
	}
	if d.Status != StatusPassed || d.Attempt != 1 || len(d.Steps) != 3 {
		t.Errorf("detail = %+v", d)
	}
	if d.Steps[2].Index != 2 || d.Steps[2].Level != core.LevelWarning {
		t.Errorf("step = %+v", d.Steps[2])
	}
	if d.Duration == nil || d.EndTime == nil {
		t.Error("timing not recorded")
	}

	e := iw.Snapshot().Scenarios[0]
	want := StepSummary{Total: 3, Passed: 1, Warnings: 1}
	if e.Steps != want {
		t.Errorf("Steps = %+v, want %+v", e.Steps, want)
	}
	if e.Status != StatusPassed {
		t.Errorf("Status = %q", e.Status)
	}
}

func TestScenarioWriterEndWithError(t *testing.T) {
	dir, index, details := newReport(t)
	iw := NewIndexWriter(dir, index, WithoutHTML())
	defer iw.Close()

	w := NewScenarioWriter(&details[1], dir, iw)
	w.Start(1)
	w.Step(core.StepResult{Level: core.LevelFail, Message: "Login rejected"})
	w.End(StatusFailed, core.ErrAssertion.WithMessage("login rejected"), false)

	d := w.Detail()
	if d.Error == nil || d.Error.Type != "assertion" {
		t.Fatalf("Error = %+v", d.Error)
	}
	e := iw.Snapshot().Scenarios[1]
	if e.Error == nil || *e.Error != d.Error.Message {
		t.Errorf("index error = %v, want %q", e.Error, d.Error.Message)
	}
}

func TestScenarioWriterSaveAttachment(t *testing.T) {
	dir, index, details := newReport(t)
	iw := NewIndexWriter(dir, index, WithoutHTML())
	defer iw.Close()

	w := NewScenarioWriter(&details[0], dir, iw)
	w.Start(1)
	w.Step(core.StepResult{Level: core.LevelInfo, Message: "Screenshot: cart", Screenshot: "step-001-cart.png"})

	rel, err := w.SaveAttachment(core.Attachment{Name: "cart", Path: "step-001-cart.png", Body: []byte{1, 2, 3}})
	if err != nil {
		t.Fatalf("SaveAttachment: %v", err)
	}
	if want := filepath.Join("assets", "scenario-000", "step-001-cart.png"); rel != want {
		t.Errorf("rel = %q, want %q", rel, want)
	}
	if _, err := os.Stat(filepath.Join(dir, rel)); err != nil {
		t.Errorf("asset not written: %v", err)
	}
	if got := w.Detail().Steps[0].Screenshot; got != rel {
		t.Errorf("step screenshot = %q, want %q", got, rel)
	}

	if _, err := w.SaveAttachment(core.Attachment{Path: "empty.png"}); err == nil {
		t.Error("expected error for empty attachment")
	}
}

func TestScenarioWriterArchiveAndRestart(t *testing.T) {
	dir, index, details := newReport(t)
	iw := NewIndexWriter(dir, index, WithoutHTML())
	defer iw.Close()

	w := NewScenarioWriter(&details[0], dir, iw)
	w.Start(1)
	w.Step(core.StepResult{Level: core.LevelFail, Message: "first try"})
	w.SetFailureArtifacts(Artifacts{Screenshot: "assets/scenario-000/failure.png"}, "title: Cart")
	w.End(StatusFailed, core.ErrWaitTimeout, false)

	archived := w.Archive()
	if archived != filepath.Join("scenarios", "scenario-000-attempt-1.json") {
		t.Errorf("Archive() = %q", archived)
	}
	old, err := ReadScenario(filepath.Join(dir, archived))
	if err != nil {
		t.Fatalf("ReadScenario: %v", err)
	}
	if len(old.Steps) != 1 || old.Snapshot != "title: Cart" {
		t.Errorf("archived = %+v", old)
	}

	w.Start(2)
	d := w.Detail()
	if d.Attempt != 2 || len(d.Steps) != 0 || d.Error != nil || d.Snapshot != "" || d.Artifacts.Screenshot != "" {
		t.Errorf("restart did not reset detail: %+v", d)
	}
}
