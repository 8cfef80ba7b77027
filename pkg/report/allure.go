package report

import (
	"encoding/json"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

// Allure result schema types.

// AllureResult represents a single test result in Allure format.
type AllureResult struct {
	UUID          string              `json:"uuid"`
	HistoryID     string              `json:"historyId"`
	FullName      string              `json:"fullName"`
	Name          string              `json:"name"`
	Description   string              `json:"description,omitempty"`
	Status        string              `json:"status"`
	Stage         string              `json:"stage"`
	Start         int64               `json:"start"`
	Stop          int64               `json:"stop"`
	Labels        []AllureLabel       `json:"labels"`
	Parameters    []AllureParameter   `json:"parameters,omitempty"`
	StatusDetails AllureStatusDetails `json:"statusDetails"`
	Steps         []AllureStep        `json:"steps"`
	Attachments   []AllureAttachment  `json:"attachments"`
}

// AllureStep represents a step within a test result.
type AllureStep struct {
	Name        string             `json:"name"`
	Status      string             `json:"status"`
	Stage       string             `json:"stage"`
	Start       int64              `json:"start"`
	Stop        int64              `json:"stop"`
	Attachments []AllureAttachment `json:"attachments"`
}

// AllureAttachment represents a file attachment.
type AllureAttachment struct {
	Name   string `json:"name"`
	Source string `json:"source"`
	Type   string `json:"type"`
}

// AllureLabel represents a label on a test result.
type AllureLabel struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureParameter is one scenario parameter.
type AllureParameter struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// AllureStatusDetails holds failure message and trace.
type AllureStatusDetails struct {
	Message string `json:"message"`
	Trace   string `json:"trace"`
	Flaky   bool   `json:"flaky,omitempty"`
}

// AllureCategory groups failures whose trace names an error kind.
type AllureCategory struct {
	Name            string   `json:"name"`
	MatchedStatuses []string `json:"matchedStatuses"`
	TraceRegex      string   `json:"traceRegex"`
}

// AllureExecutor identifies the producer of the results.
type AllureExecutor struct {
	Name       string `json:"name"`
	Type       string `json:"type"`
	BuildName  string `json:"buildName"`
	ReportName string `json:"reportName"`
}

// GenerateAllure writes Allure result files to <reportDir>/allure-results/.
func GenerateAllure(reportDir string, log *zap.Logger) error {
	if log == nil {
		log = zap.NewNop()
	}
	index, details, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}

	allureDir := filepath.Join(reportDir, "allure-results")
	if err := ensureDir(allureDir); err != nil {
		return fmt.Errorf("create allure-results dir: %w", err)
	}

	for i, entry := range index.Scenarios {
		var detail *ScenarioDetail
		if i < len(details) {
			detail = &details[i]
		}
		result := buildAllureResult(entry, detail, index)

		data, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			return fmt.Errorf("marshal allure result for %s: %w", entry.ID, err)
		}
		path := filepath.Join(allureDir, result.UUID+"-result.json")
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("write allure result %s: %w", entry.ID, err)
		}
	}
	copyAllureAttachments(reportDir, allureDir, details, log)

	if err := writeAllureCategories(allureDir); err != nil {
		return err
	}
	if err := writeAllureEnvironment(allureDir, index); err != nil {
		return err
	}
	return writeAllureExecutor(allureDir, index)
}

func buildAllureResult(entry ScenarioEntry, detail *ScenarioDetail, index *Index) AllureResult {
	var startMs, stopMs int64
	if entry.StartTime != nil {
		startMs = entry.StartTime.UnixMilli()
	}
	if entry.EndTime != nil {
		stopMs = entry.EndTime.UnixMilli()
	} else if entry.StartTime != nil && entry.Duration != nil {
		stopMs = startMs + *entry.Duration
	}

	labels := []AllureLabel{
		{Name: "suite", Value: index.Suite},
		{Name: "testClass", Value: entry.ScenarioID},
		{Name: "framework", Value: "shopflow"},
		{Name: "host", Value: index.Browser.Name},
	}
	for _, tag := range entry.Tags {
		labels = append(labels, AllureLabel{Name: "tag", Value: tag})
	}

	status := allureStatus(entry.Status, nil)
	details := AllureStatusDetails{Flaky: entry.Flaky}
	if entry.Error != nil {
		details.Message = *entry.Error
	}

	var (
		steps       = []AllureStep{}
		attachments = []AllureAttachment{}
		params      []AllureParameter
		description string
	)
	if detail != nil {
		description = detail.Objective
		status = allureStatus(entry.Status, detail.Error)
		if detail.Error != nil {
			details.Trace = "kind: " + detail.Error.Type
			if details.Message == "" {
				details.Message = detail.Error.Message
			}
		}
		steps, attachments = buildAllureSteps(detail.Steps, stopMs)
		if detail.Artifacts.Screenshot != "" {
			attachments = append(attachments, AllureAttachment{Name: "Failure screenshot", Source: allureSource(detail.Artifacts.Screenshot), Type: "image/png"})
		}
		if detail.Artifacts.PageSource != "" {
			attachments = append(attachments, AllureAttachment{Name: "Page source", Source: allureSource(detail.Artifacts.PageSource), Type: "text/html"})
		}
		for _, k := range sortedKeys(detail.Params) {
			params = append(params, AllureParameter{Name: k, Value: detail.Params[k]})
		}
	}

	return AllureResult{
		UUID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(index.RunID+"/"+entry.ID)).String(),
		HistoryID:     fnv32aHash(entry.ScenarioID + ":" + entry.CaseID),
		FullName:      entry.Label(),
		Name:          entry.Label() + " " + entry.Name,
		Description:   description,
		Status:        status,
		Stage:         "finished",
		Start:         startMs,
		Stop:          stopMs,
		Labels:        labels,
		Parameters:    params,
		StatusDetails: details,
		Steps:         steps,
		Attachments:   attachments,
	}
}

// buildAllureSteps turns reported lines into steps. A step ends when the
// next one starts; the last ends with the scenario.
func buildAllureSteps(lines []Step, stopMs int64) ([]AllureStep, []AllureAttachment) {
	steps := make([]AllureStep, 0, len(lines))
	var shots []AllureAttachment
	for i, l := range lines {
		start := l.Time.UnixMilli()
		stop := stopMs
		if i+1 < len(lines) {
			stop = lines[i+1].Time.UnixMilli()
		}
		if stop < start {
			stop = start
		}
		step := AllureStep{
			Name:        l.Message,
			Status:      levelStatus(l.Level),
			Stage:       "finished",
			Start:       start,
			Stop:        stop,
			Attachments: []AllureAttachment{},
		}
		if l.Screenshot != "" {
			a := AllureAttachment{Name: l.Message, Source: allureSource(l.Screenshot), Type: "image/png"}
			step.Attachments = append(step.Attachments, a)
			shots = append(shots, a)
		}
		steps = append(steps, step)
	}
	if shots == nil {
		shots = []AllureAttachment{}
	}
	return steps, shots
}

// allureSource flattens an asset path into a unique file name inside
// allure-results: assets/scenario-001/x.png becomes scenario-001-x.png.
func allureSource(rel string) string {
	dir := filepath.Base(filepath.Dir(rel))
	return dir + "-" + filepath.Base(rel)
}

func copyAllureAttachments(reportDir, allureDir string, details []ScenarioDetail, log *zap.Logger) {
	for _, d := range details {
		paths := []string{d.Artifacts.Screenshot, d.Artifacts.PageSource}
		for _, s := range d.Steps {
			paths = append(paths, s.Screenshot)
		}
		for _, p := range paths {
			if p == "" {
				continue
			}
			src := filepath.Join(reportDir, p)
			dst := filepath.Join(allureDir, allureSource(p))
			if err := copyFile(src, dst); err != nil && !os.IsNotExist(err) {
				log.Warn("copy attachment failed", zap.String("src", src), zap.Error(err))
			}
		}
	}
}

func copyFile(src, dst string) error {
	in, err := os.Open(src) //#nosec G304 -- asset under the report directory
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst) //#nosec G304 -- allure-results under the report directory
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// allureStatus maps a report status to Allure's. Failures that are not
// assertion failures are "broken".
func allureStatus(s Status, cause *Error) string {
	switch s {
	case StatusPassed:
		return "passed"
	case StatusFailed:
		if cause != nil && cause.Type != core.KindAssertion.String() {
			return "broken"
		}
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return "unknown"
	}
}

func levelStatus(l core.Level) string {
	switch l {
	case core.LevelFail:
		return "failed"
	case core.LevelSkip:
		return "skipped"
	default:
		return "passed"
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func fnv32aHash(s string) string {
	h := fnv.New32a()
	h.Write([]byte(s))
	return fmt.Sprintf("%08x", h.Sum32())
}

var allureCategoryKinds = []struct {
	name string
	kind core.ErrorKind
}{
	{"Element not found", core.KindNotFound},
	{"Element not interactable", core.KindNotInteractable},
	{"Click intercepted", core.KindIntercepted},
	{"Stale element", core.KindStale},
	{"Wait timed out", core.KindTimeout},
	{"Click fallback exhausted", core.KindActionFailed},
	{"Test data missing", core.KindDataSourceMissing},
	{"Unsupported feature", core.KindUnsupported},
	{"Invalid argument", core.KindInvalidArgument},
	{"Browser session", core.KindSession},
	{"Assertion failed", core.KindAssertion},
}

func writeAllureCategories(allureDir string) error {
	categories := make([]AllureCategory, 0, len(allureCategoryKinds))
	for _, c := range allureCategoryKinds {
		categories = append(categories, AllureCategory{
			Name:            c.name,
			MatchedStatuses: []string{"failed", "broken"},
			TraceRegex:      "kind: " + c.kind.String(),
		})
	}

	data, err := json.MarshalIndent(categories, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal categories: %w", err)
	}
	if err := os.WriteFile(filepath.Join(allureDir, "categories.json"), data, 0o644); err != nil {
		return fmt.Errorf("write categories.json: %w", err)
	}
	return nil
}

func writeAllureEnvironment(allureDir string, index *Index) error {
	var b strings.Builder
	b.WriteString("framework=shopflow\n")
	props := []struct{ key, value string }{
		{"browser.name", index.Browser.Name},
		{"browser.version", index.Browser.Version},
		{"site", index.Site},
		{"suite", index.Suite},
		{"runner.version", index.Runner.Version},
	}
	for _, p := range props {
		if p.value != "" {
			fmt.Fprintf(&b, "%s=%s\n", p.key, p.value)
		}
	}
	if index.Browser.Headless {
		b.WriteString("browser.headless=true\n")
	}
	if index.Browser.Remote {
		b.WriteString("browser.remote=true\n")
	}

	if err := os.WriteFile(filepath.Join(allureDir, "environment.properties"), []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write environment.properties: %w", err)
	}
	return nil
}

func writeAllureExecutor(allureDir string, index *Index) error {
	executor := AllureExecutor{
		Name:       "shopflow",
		Type:       "shopflow",
		BuildName:  index.RunID,
		ReportName: index.Suite,
	}
	data, err := json.MarshalIndent(executor, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal executor: %w", err)
	}
	if err := os.WriteFile(filepath.Join(allureDir, "executor.json"), data, 0o644); err != nil {
		return fmt.Errorf("write executor.json: %w", err)
	}
	return nil
}
