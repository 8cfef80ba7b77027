package report

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func ensureDir(path string) error {
	return os.MkdirAll(path, 0o755)
}

// atomicWriteJSON writes v next to path and renames it into place, so
// readers never see a partial file.
func atomicWriteJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", filepath.Base(path), err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	name := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(name)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(name)
		return err
	}
	if err := os.Rename(name, path); err != nil {
		os.Remove(name)
		return err
	}
	return nil
}

func readJSON(path string, v interface{}) error {
	data, err := os.ReadFile(path) //#nosec G304 -- report files under the output directory
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}

// ReadIndex reads a report.json file.
func ReadIndex(path string) (*Index, error) {
	var index Index
	if err := readJSON(path, &index); err != nil {
		return nil, err
	}
	return &index, nil
}

// ReadScenario reads one detail file.
func ReadScenario(path string) (*ScenarioDetail, error) {
	var d ScenarioDetail
	if err := readJSON(path, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// ReadReport reads the index and every detail file it lists. A missing
// detail file yields a stub built from its index entry.
func ReadReport(reportDir string) (*Index, []ScenarioDetail, error) {
	index, err := ReadIndex(filepath.Join(reportDir, "report.json"))
	if err != nil {
		return nil, nil, err
	}
	details := make([]ScenarioDetail, len(index.Scenarios))
	for i, e := range index.Scenarios {
		d, err := ReadScenario(filepath.Join(reportDir, e.DataFile))
		if err != nil {
			details[i] = ScenarioDetail{ID: e.ID, ScenarioID: e.ScenarioID, Name: e.Name, CaseID: e.CaseID, Status: e.Status}
			continue
		}
		details[i] = *d
	}
	return index, details, nil
}
