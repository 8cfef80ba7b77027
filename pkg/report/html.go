package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// HTMLConfig contains configuration for HTML report generation.
type HTMLConfig struct {
	OutputPath  string // Path to write the HTML file (default <dir>/report.html)
	EmbedAssets bool   // Embed screenshots as base64 (larger but portable)
	Title       string // Report title (default: "Shopflow Report")
}

// GenerateHTML renders report.html from the report directory.
func GenerateHTML(reportDir string, cfg HTMLConfig) error {
	index, details, err := ReadReport(reportDir)
	if err != nil {
		return fmt.Errorf("read report: %w", err)
	}
	return writeHTML(reportDir, index, details, cfg)
}

// renderIndexHTML renders from an in-memory index and the detail files.
func renderIndexHTML(reportDir string, index *Index) error {
	details := make([]ScenarioDetail, len(index.Scenarios))
	for i, e := range index.Scenarios {
		if d, err := ReadScenario(filepath.Join(reportDir, e.DataFile)); err == nil {
			details[i] = *d
		}
	}
	return writeHTML(reportDir, index, details, HTMLConfig{})
}

func writeHTML(reportDir string, index *Index, details []ScenarioDetail, cfg HTMLConfig) error {
	if cfg.Title == "" {
		cfg.Title = "Shopflow Report"
	}
	if cfg.OutputPath == "" {
		cfg.OutputPath = filepath.Join(reportDir, "report.html")
	}

	html, err := renderHTML(buildHTMLData(reportDir, index, details, cfg))
	if err != nil {
		return fmt.Errorf("render html: %w", err)
	}
	if err := os.WriteFile(cfg.OutputPath, []byte(html), 0o644); err != nil {
		return fmt.Errorf("write html: %w", err)
	}
	return nil
}

// HTMLData contains all data needed for the HTML template.
type HTMLData struct {
	Title         string
	GeneratedAt   string
	Index         *Index
	Scenarios     []ScenarioHTMLData
	TotalDuration string
	PassRate      float64
	Live          bool // Refresh while the run is in progress
}

// ScenarioHTMLData is one job formatted for HTML.
type ScenarioHTMLData struct {
	Entry       ScenarioEntry
	Detail      ScenarioDetail
	StatusClass string
	DurationStr string
	Steps       []StepHTMLData
	Screenshot  string // base64 or path
}

// StepHTMLData is one step formatted for HTML.
type StepHTMLData struct {
	Step
	Image string // base64 or path
}

func buildHTMLData(reportDir string, index *Index, details []ScenarioDetail, cfg HTMLConfig) HTMLData {
	asset := func(rel string) string {
		if rel == "" || !cfg.EmbedAssets {
			return rel
		}
		return loadAsBase64(filepath.Join(reportDir, rel))
	}

	rows := make([]ScenarioHTMLData, len(index.Scenarios))
	for i, e := range index.Scenarios {
		var d ScenarioDetail
		if i < len(details) {
			d = details[i]
		}
		steps := make([]StepHTMLData, len(d.Steps))
		for j, s := range d.Steps {
			steps[j] = StepHTMLData{Step: s, Image: asset(s.Screenshot)}
		}
		rows[i] = ScenarioHTMLData{
			Entry:       e,
			Detail:      d,
			StatusClass: string(e.Status),
			DurationStr: formatDuration(e.Duration),
			Steps:       steps,
			Screenshot:  asset(d.Artifacts.Screenshot),
		}
	}

	var passRate float64
	if index.Summary.Total > 0 {
		passRate = float64(index.Summary.Passed) / float64(index.Summary.Total) * 100
	}

	var total *int64
	if index.EndTime != nil {
		ms := index.EndTime.Sub(index.StartTime).Milliseconds()
		total = &ms
	}

	return HTMLData{
		Title:         cfg.Title,
		GeneratedAt:   time.Now().Format("2006-01-02 15:04:05"),
		Index:         index,
		Scenarios:     rows,
		TotalDuration: formatDuration(total),
		PassRate:      passRate,
		Live:          !index.Status.IsTerminal(),
	}
}

func formatDuration(ms *int64) string {
	if ms == nil {
		return "-"
	}
	d := time.Duration(*ms) * time.Millisecond
	if d < time.Second {
		return fmt.Sprintf("%dms", *ms)
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%dm %ds", int(d.Minutes()), int(d.Seconds())%60)
}

func loadAsBase64(path string) string {
	data, err := os.ReadFile(path) //#nosec G304 -- asset under the report directory
	if err != nil {
		return ""
	}
	mimeType := "image/png"
	switch strings.ToLower(filepath.Ext(path)) {
	case ".jpg", ".jpeg":
		mimeType = "image/jpeg"
	case ".html":
		mimeType = "text/html"
	}
	return fmt.Sprintf("data:%s;base64,%s", mimeType, base64.StdEncoding.EncodeToString(data))
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"url": func(s string) template.URL { return template.URL(s) }, //#nosec G203 -- report-local paths and data URIs
}).Parse(htmlTemplate))

func renderHTML(data HTMLData) (string, error) {
	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

const htmlTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="UTF-8">
<meta name="viewport" content="width=device-width, initial-scale=1.0">
{{if .Live}}<meta http-equiv="refresh" content="3">{{end}}
<title>{{.Title}}</title>
<style>
:root { --passed:#22c55e; --failed:#ef4444; --skipped:#eab308; --running:#06b6d4; --pending:#6b7280; --border:#e5e7eb; }
* { box-sizing:border-box; }
body { font-family:-apple-system,BlinkMacSystemFont,'Segoe UI',Roboto,sans-serif; margin:0; color:#111; }
header { background:#f9fafb; border-bottom:1px solid var(--border); padding:16px 24px; }
h1 { font-size:18px; margin:0 0 8px; }
.meta { color:#4b5563; font-size:13px; }
.summary { display:flex; gap:16px; margin-top:12px; }
.card { border:1px solid var(--border); border-radius:6px; padding:8px 14px; min-width:90px; }
.card b { display:block; font-size:20px; }
main { padding:16px 24px; }
details { border:1px solid var(--border); border-left:4px solid var(--pending); border-radius:4px; margin-bottom:8px; }
details.passed { border-left-color:var(--passed); }
details.failed { border-left-color:var(--failed); }
details.skipped { border-left-color:var(--skipped); }
details.running { border-left-color:var(--running); }
summary { cursor:pointer; padding:8px 12px; display:flex; gap:12px; align-items:center; }
summary .name { flex:1; }
.badge { font-size:11px; text-transform:uppercase; padding:2px 6px; border-radius:3px; background:#f3f4f6; }
.flaky { background:#fef3c7; }
.body { padding:8px 16px 12px; font-size:13px; }
.steps { list-style:none; padding:0; margin:8px 0; }
.steps li { padding:2px 0; font-family:ui-monospace,monospace; }
.lvl-pass { color:var(--passed); } .lvl-fail { color:var(--failed); } .lvl-warning { color:#b45309; } .lvl-skip { color:var(--skipped); }
.error { background:#fef2f2; border:1px solid #fecaca; padding:8px; white-space:pre-wrap; }
.snapshot { background:#f9fafb; border:1px solid var(--border); padding:8px; white-space:pre-wrap; }
img { max-width:480px; border:1px solid var(--border); margin-top:6px; }
table { border-collapse:collapse; margin-top:6px; } td, th { border:1px solid var(--border); padding:2px 8px; text-align:left; }
</style>
</head>
<body>
<header>
<h1>{{.Title}}{{with .Index.Suite}} &middot; {{.}}{{end}}</h1>
<div class="meta">Run {{.Index.RunID}} &middot; {{.Index.Browser.Name}}{{with .Index.Browser.Version}} {{.}}{{end}}{{if .Index.Browser.Headless}} (headless){{end}} &middot; {{.Index.Site}} &middot; status <b>{{.Index.Status}}</b> &middot; duration {{.TotalDuration}} &middot; generated {{.GeneratedAt}}</div>
<div class="summary">
<div class="card">Total<b>{{.Index.Summary.Total}}</b></div>
<div class="card">Passed<b style="color:var(--passed)">{{.Index.Summary.Passed}}</b></div>
<div class="card">Failed<b style="color:var(--failed)">{{.Index.Summary.Failed}}</b></div>
<div class="card">Skipped<b style="color:var(--skipped)">{{.Index.Summary.Skipped}}</b></div>
<div class="card">Flaky<b>{{.Index.Summary.Flaky}}</b></div>
<div class="card">Pass rate<b>{{printf "%.0f" .PassRate}}%</b></div>
</div>
</header>
<main>
{{range .Scenarios}}
<details class="{{.StatusClass}}"{{if eq .StatusClass "failed"}} open{{end}}>
<summary>
<span class="badge">{{.Entry.Status}}</span>
<span class="name"><b>{{.Entry.Label}}</b> {{.Entry.Name}}</span>
{{if .Entry.Flaky}}<span class="badge flaky">flaky</span>{{end}}
{{if gt .Entry.Attempts 1}}<span class="badge">{{.Entry.Attempts}} attempts</span>{{end}}
<span>{{.DurationStr}}</span>
</summary>
<div class="body">
{{with .Detail.Objective}}<p><i>{{.}}</i></p>{{end}}
{{with .Entry.Error}}<div class="error">{{.}}</div>{{end}}
<ul class="steps">
{{range .Steps}}<li class="lvl-{{.Level}}">[{{.Level}}] {{.Message}}{{with .Image}}<br><img src="{{url .}}" alt="screenshot">{{end}}</li>
{{end}}
</ul>
{{with .Screenshot}}<div>Failure screenshot<br><img src="{{url .}}" alt="failure screenshot"></div>{{end}}
{{with .Detail.Artifacts.PageSource}}<p><a href="{{url .}}">Page source</a></p>{{end}}
{{with .Detail.Snapshot}}<div class="snapshot">{{.}}</div>{{end}}
{{with .Entry.AttemptHistory}}
<table><tr><th>Attempt</th><th>Status</th><th>Duration</th><th>Error</th></tr>
{{range .}}<tr><td><a href="{{url .DataFile}}">{{.Attempt}}</a></td><td>{{.Status}}</td><td>{{.Duration}}ms</td><td>{{.Error}}</td></tr>
{{end}}</table>
{{end}}
</div>
</details>
{{end}}
</main>
</body>
</html>
`
