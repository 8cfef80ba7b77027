package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

var planned = []Planned{
	{ScenarioID: "CART-01", Name: "Products link", Objective: "Navigate to products", Tags: []string{"cart", "smoke"}},
	{ScenarioID: "LOGIN-03", Name: "Data-driven login", CaseID: "TC_LOGIN_02", Sheet: "Login",
		Params: map[string]string{"email": "a@example.com", "password": "secret"}, Tags: []string{"login"}},
}

// newReport writes a pending skeleton for the planned jobs into a temp dir.
func newReport(t *testing.T) (string, *Index, []ScenarioDetail) {
	t.Helper()
	dir := t.TempDir()
	index, details := BuildSkeleton(planned, BuilderConfig{
		RunID:   "run-1",
		Suite:   "regression",
		Browser: core.BrowserInfo{Name: "chrome", Version: "120.0", Headless: true},
		Site:    "https://automationexercise.com",
	})
	if err := WriteSkeleton(dir, index, details); err != nil {
		t.Fatalf("WriteSkeleton: %v", err)
	}
	return dir, index, details
}

func writePNG(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0o644); err != nil {
		t.Fatal(err)
	}
}

func ptr[T any](v T) *T { return &v }

func at(sec int) time.Time {
	return time.Date(2026, 1, 2, 3, 4, sec, 0, time.UTC)
}
