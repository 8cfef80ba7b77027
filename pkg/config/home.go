package config

import (
	"os"
	"path/filepath"
	"sync"
)

// EnvHome overrides the directory relative paths and reports hang off.
const EnvHome = "SHOPFLOW_HOME"

var home struct {
	once sync.Once
	dir  string
}

// GetHome returns the shopflow home. $SHOPFLOW_HOME is taken verbatim; an
// install laid out as <home>/bin/shopflow yields <home>; anything else runs
// from the working directory.
func GetHome() string {
	home.once.Do(func() { home.dir = findHome() })
	return home.dir
}

// GetReportsDir is where runs without --output write their reports.
func GetReportsDir() string {
	return filepath.Join(GetHome(), "reports")
}

// ResolvePath leaves p alone when it is empty, absolute, or present under the
// working directory. Otherwise p is taken relative to GetHome, so a suite
// referencing testdata/TestData.xlsx works from any directory.
func ResolvePath(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	if _, err := os.Stat(p); err == nil {
		return p
	}
	return filepath.Join(GetHome(), p)
}

func findHome() string {
	if dir := os.Getenv(EnvHome); dir != "" {
		return dir
	}
	if dir, ok := installRoot(); ok {
		return dir
	}
	if wd, err := os.Getwd(); err == nil {
		return wd
	}
	return "."
}

// installRoot reports the parent of the executable's bin directory.
func installRoot() (string, bool) {
	exe, err := os.Executable()
	if err != nil {
		return "", false
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	bin := filepath.Dir(exe)
	if filepath.Base(bin) != "bin" {
		return "", false
	}
	return filepath.Dir(bin), true
}

// ResetHome forgets the cached home so tests can change $SHOPFLOW_HOME.
func ResetHome() {
	home.once = sync.Once{}
	home.dir = ""
}
