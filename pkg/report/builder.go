package report

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

// Planned describes one job before it runs.
type Planned struct {
	ScenarioID string
	Name       string
	Objective  string
	CaseID     string
	Sheet      string
	Params     map[string]string
	Tags       []string
}

// BuilderConfig contains configuration for building the report skeleton.
type BuilderConfig struct {
	RunID         string
	Suite         string
	Browser       core.BrowserInfo
	Site          string
	RunnerVersion string
	Parallel      int
	Retries       int
}

// BuildSkeleton creates the initial report structure from the planned jobs.
// Every job starts pending.
func BuildSkeleton(jobs []Planned, cfg BuilderConfig) (*Index, []ScenarioDetail) {
	now := time.Now()

	index := &Index{
		Version:     Version,
		RunID:       cfg.RunID,
		Suite:       cfg.Suite,
		UpdateSeq:   1,
		Status:      StatusPending,
		StartTime:   now,
		LastUpdated: now,
		Browser:     cfg.Browser,
		Site:        cfg.Site,
		Runner: RunnerInfo{
			Version:  cfg.RunnerVersion,
			Parallel: cfg.Parallel,
			Retries:  cfg.Retries,
		},
		Summary: Summary{
			Total:   len(jobs),
			Pending: len(jobs),
		},
		Scenarios: make([]ScenarioEntry, len(jobs)),
	}

	details := make([]ScenarioDetail, len(jobs))
	for i, j := range jobs {
		id := fmt.Sprintf("scenario-%03d", i)
		index.Scenarios[i] = ScenarioEntry{
			Index:      i,
			ID:         id,
			ScenarioID: j.ScenarioID,
			Name:       j.Name,
			CaseID:     j.CaseID,
			Tags:       j.Tags,
			DataFile:   filepath.Join("scenarios", id+".json"),
			AssetsDir:  filepath.Join("assets", id),
			Status:     StatusPending,
		}
		details[i] = ScenarioDetail{
			ID:         id,
			ScenarioID: j.ScenarioID,
			Name:       j.Name,
			Objective:  j.Objective,
			CaseID:     j.CaseID,
			Sheet:      j.Sheet,
			Params:     redact(j.Params),
			Tags:       j.Tags,
			Status:     StatusPending,
			Steps:      []Step{},
		}
	}
	return index, details
}

// redact hides password params in the written report.
func redact(params map[string]string) map[string]string {
	if len(params) == 0 {
		return nil
	}
	out := make(map[string]string, len(params))
	for k, v := range params {
		if k == "password" && v != "" {
			v = "****"
		}
		out[k] = v
	}
	return out
}

// WriteSkeleton writes the initial skeleton to disk: report.json, every
// detail file and report.html, all pending.
func WriteSkeleton(outputDir string, index *Index, details []ScenarioDetail) error {
	if err := ensureDir(filepath.Join(outputDir, "scenarios")); err != nil {
		return fmt.Errorf("create scenarios dir: %w", err)
	}
	if err := ensureDir(filepath.Join(outputDir, "assets")); err != nil {
		return fmt.Errorf("create assets dir: %w", err)
	}

	for _, d := range details {
		path := filepath.Join(outputDir, "scenarios", d.ID+".json")
		if err := atomicWriteJSON(path, d); err != nil {
			return fmt.Errorf("write scenario %s: %w", d.ID, err)
		}
		if err := ensureDir(filepath.Join(outputDir, "assets", d.ID)); err != nil {
			return fmt.Errorf("create assets dir for %s: %w", d.ID, err)
		}
	}

	if err := atomicWriteJSON(filepath.Join(outputDir, "report.json"), index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	if err := GenerateHTML(outputDir, HTMLConfig{}); err != nil {
		return fmt.Errorf("generate html: %w", err)
	}
	return nil
}
