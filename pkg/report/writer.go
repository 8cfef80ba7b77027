package report

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

// ScenarioWriter writes updates for a single job.
// Each job goroutine has its own ScenarioWriter - no locking needed.
type ScenarioWriter struct {
	detail    *ScenarioDetail
	outputDir string
	path      string
	assetsDir string
	index     *IndexWriter
	err       error // First write error, reported by Err
}

// NewScenarioWriter creates a writer for detail.
func NewScenarioWriter(detail *ScenarioDetail, outputDir string, index *IndexWriter) *ScenarioWriter {
	w := &ScenarioWriter{
		detail:    detail,
		outputDir: outputDir,
		path:      filepath.Join(outputDir, "scenarios", detail.ID+".json"),
		assetsDir: filepath.Join(outputDir, "assets", detail.ID),
		index:     index,
	}
	w.keep(ensureDir(w.assetsDir))
	return w
}

// Start marks an attempt as started. Steps of a previous attempt are
// discarded; Archive them first to keep them.
func (w *ScenarioWriter) Start(attempt int) {
	now := time.Now()
	w.detail.Attempt = attempt
	w.detail.Status = StatusRunning
	w.detail.StartTime = now
	w.detail.EndTime = nil
	w.detail.Duration = nil
	w.detail.Steps = []Step{}
	w.detail.Error = nil
	w.detail.Snapshot = ""
	w.detail.Artifacts = Artifacts{}

	w.flush()
	w.index.UpdateScenario(w.detail.ID, &ScenarioUpdate{
		Status:    StatusRunning,
		StartTime: &now,
	})
}

// Step appends a reported line.
func (w *ScenarioWriter) Step(s core.StepResult) {
	w.detail.Steps = append(w.detail.Steps, Step{
		Index:      len(w.detail.Steps),
		Level:      s.Level,
		Message:    s.Message,
		Time:       s.Time,
		Screenshot: s.Screenshot,
	})
	w.flush()
	w.index.UpdateScenario(w.detail.ID, &ScenarioUpdate{
		Status: StatusRunning,
		Steps:  w.stepSummary(),
	})
}

// SaveAttachment writes an in-memory attachment into the job's assets
// directory and returns its path relative to the report directory.
func (w *ScenarioWriter) SaveAttachment(a core.Attachment) (string, error) {
	if len(a.Body) == 0 {
		return "", fmt.Errorf("attachment %s is empty", a.Path)
	}
	name := filepath.Base(a.Path)
	if err := os.WriteFile(filepath.Join(w.assetsDir, name), a.Body, 0o644); err != nil {
		return "", err
	}
	rel := filepath.Join("assets", w.detail.ID, name)
	for i := range w.detail.Steps {
		if w.detail.Steps[i].Screenshot == a.Path {
			w.detail.Steps[i].Screenshot = rel
		}
	}
	return rel, nil
}

// SetFailureArtifacts records the failure screenshot, page source and
// page summary.
func (w *ScenarioWriter) SetFailureArtifacts(artifacts Artifacts, snapshot string) {
	w.detail.Artifacts = artifacts
	w.detail.Snapshot = snapshot
	w.flush()
}

// Archive copies the current attempt to its own file and returns the path
// relative to the report directory.
func (w *ScenarioWriter) Archive() string {
	name := fmt.Sprintf("%s-attempt-%d.json", w.detail.ID, w.detail.Attempt)
	w.keep(atomicWriteJSON(filepath.Join(w.outputDir, "scenarios", name), w.detail))
	return filepath.Join("scenarios", name)
}

// End marks the attempt as complete.
func (w *ScenarioWriter) End(status Status, cause error, flaky bool) {
	now := time.Now()
	duration := now.Sub(w.detail.StartTime).Milliseconds()
	w.detail.Status = status
	w.detail.EndTime = &now
	w.detail.Duration = &duration

	var errMsg *string
	if cause != nil {
		msg := cause.Error()
		errMsg = &msg
		w.detail.Error = &Error{Type: core.KindOf(cause).String(), Message: msg}
	}
	w.flush()

	w.index.UpdateScenario(w.detail.ID, &ScenarioUpdate{
		Status:   status,
		EndTime:  &now,
		Duration: &duration,
		Steps:    w.stepSummary(),
		Flaky:    flaky,
		Error:    errMsg,
	})
}

// Detail returns the current detail (for reading).
func (w *ScenarioWriter) Detail() *ScenarioDetail {
	return w.detail
}

// Err returns the first file write error, if any.
func (w *ScenarioWriter) Err() error {
	return w.err
}

func (w *ScenarioWriter) keep(err error) {
	if err != nil && w.err == nil {
		w.err = err
	}
}

func (w *ScenarioWriter) flush() {
	w.keep(atomicWriteJSON(w.path, w.detail))
}

func (w *ScenarioWriter) stepSummary() StepSummary {
	return summarize(w.detail.Steps)
}
