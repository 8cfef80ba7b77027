package report

import (
	"path/filepath"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

// Consumer follows a report directory that another process is writing.
type Consumer struct {
	reportDir       string
	lastSeq         uint64
	lastScenarioSeq map[string]uint64
}

// NewConsumer creates a consumer for reportDir.
func NewConsumer(reportDir string) *Consumer {
	return &Consumer{
		reportDir:       reportDir,
		lastScenarioSeq: make(map[string]uint64),
	}
}

// Poll reads the index and returns the ids of jobs changed since the last
// poll. An unchanged index returns no ids.
func (c *Consumer) Poll() ([]string, *Index, error) {
	index, err := c.ReadIndex()
	if err != nil {
		return nil, nil, err
	}
	if index.UpdateSeq == c.lastSeq {
		return nil, index, nil
	}
	c.lastSeq = index.UpdateSeq

	var changed []string
	for _, e := range index.Scenarios {
		if seq, seen := c.lastScenarioSeq[e.ID]; !seen || seq != e.UpdateSeq {
			changed = append(changed, e.ID)
			c.lastScenarioSeq[e.ID] = e.UpdateSeq
		}
	}
	return changed, index, nil
}

// ReadIndex reads the current index.
func (c *Consumer) ReadIndex() (*Index, error) {
	return ReadIndex(filepath.Join(c.reportDir, "report.json"))
}

// ReadScenario reads one job's detail file.
func (c *Consumer) ReadScenario(id string) (*ScenarioDetail, error) {
	return ReadScenario(filepath.Join(c.reportDir, "scenarios", id+".json"))
}

// Reset forgets what has been seen, so the next Poll reports everything.
func (c *Consumer) Reset() {
	c.lastSeq = 0
	c.lastScenarioSeq = make(map[string]uint64)
}

// Recover repairs the index of an interrupted run: jobs left running take
// the status their detail file shows, or fail as interrupted; jobs never
// started are skipped. A finished index is left untouched.
func Recover(reportDir string) error {
	path := filepath.Join(reportDir, "report.json")
	index, err := ReadIndex(path)
	if err != nil {
		return err
	}

	changed := false
	for i := range index.Scenarios {
		e := &index.Scenarios[i]
		if e.Status.IsTerminal() {
			continue
		}
		changed = true

		if e.Status == StatusPending {
			e.Status = StatusSkipped
			msg := "Run interrupted before start"
			e.Error = &msg
			continue
		}

		status := StatusRunning
		if d, err := ReadScenario(filepath.Join(reportDir, e.DataFile)); err == nil {
			status = inferStatus(d)
			e.Steps = summarize(d.Steps)
		}
		if status == StatusRunning {
			status = StatusFailed
			msg := "Scenario interrupted"
			e.Error = &msg
		}
		e.Status = status
	}
	if !changed {
		return nil
	}

	var s Summary
	for _, e := range index.Scenarios {
		s.Total++
		switch e.Status {
		case StatusPassed:
			s.Passed++
		case StatusFailed:
			s.Failed++
		case StatusSkipped:
			s.Skipped++
		}
		if e.Flaky {
			s.Flaky++
		}
	}
	index.Summary = s
	index.Status = runStatus(index.Scenarios)
	if index.EndTime == nil {
		now := time.Now()
		index.EndTime = &now
	}
	index.UpdateSeq++
	return atomicWriteJSON(path, index)
}

// inferStatus derives a job's status from its detail file. A detail
// without an end time is still running.
func inferStatus(d *ScenarioDetail) Status {
	if d.Status.IsTerminal() {
		return d.Status
	}
	if d.EndTime == nil {
		return StatusRunning
	}
	for _, s := range d.Steps {
		if s.Level == core.LevelFail {
			return StatusFailed
		}
	}
	if d.Error != nil {
		return StatusFailed
	}
	return StatusPassed
}

func summarize(steps []Step) StepSummary {
	s := StepSummary{Total: len(steps)}
	for _, st := range steps {
		switch st.Level {
		case core.LevelPass:
			s.Passed++
		case core.LevelFail:
			s.Failed++
		case core.LevelWarning:
			s.Warnings++
		}
	}
	return s
}
