// Package suite parses and resolves suite descriptors: YAML files naming
// the scenarios to run and how.
package suite

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strconv"

	"github.com/devicelab-dev/shopflow/pkg/config"
	"gopkg.in/yaml.v3"
)

// Descriptor is a parsed suite file. Pointer fields are nil when the file
// leaves the config value in place.
type Descriptor struct {
	Name         string   `yaml:"name"`
	Data         string   `yaml:"data"`
	WriteResults *bool    `yaml:"write_results"`
	Retries      *int     `yaml:"retries"`
	Parallel     *int     `yaml:"parallel"`
	IncludeTags  []string `yaml:"include_tags"`
	ExcludeTags  []string `yaml:"exclude_tags"`
	Scenarios    []Entry  `yaml:"scenarios"`

	Path string `yaml:"-"` // Source file, for error messages
}

// Entry selects scenarios by id or glob.
type Entry struct {
	ID     string            `yaml:"id"`
	Sheet  string            `yaml:"sheet"`  // Overrides the data sheet of a data-driven scenario
	Params map[string]string `yaml:"params"` // Merged over the scenario defaults
	Skip   bool              `yaml:"skip"`

	Line int `yaml:"-"`
}

// ParseError represents a descriptor error with location info.
type ParseError struct {
	Path    string
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %s", e.Path, e.Line, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

// Default selects every registered scenario.
func Default() *Descriptor {
	return &Descriptor{Name: "all", Path: "<default>", Scenarios: []Entry{{ID: "*"}}}
}

// ParseFile parses a descriptor file.
func ParseFile(path string) (*Descriptor, error) {
	data, err := os.ReadFile(path) //#nosec G304 -- path is the user-provided suite file
	if err != nil {
		return nil, fmt.Errorf("failed to read suite: %w", err)
	}
	return Parse(data, path)
}

// Parse parses descriptor content. Unknown keys are rejected.
func Parse(data []byte, path string) (*Descriptor, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, &ParseError{Path: path, Line: 1, Message: "empty suite file"}
	}

	d := &Descriptor{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(d); err != nil {
		return nil, yamlError(path, err)
	}
	d.Path = path

	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, yamlError(path, err)
	}
	if lines := entryLines(&root); len(lines) == len(d.Scenarios) {
		for i := range d.Scenarios {
			d.Scenarios[i].Line = lines[i]
		}
	}

	if err := d.Validate(); err != nil {
		return nil, err
	}
	return d, nil
}

var yamlLine = regexp.MustCompile(`line (\d+): (.*)`)

// yamlError lifts the first "line N:" of a yaml error into a ParseError.
func yamlError(path string, err error) error {
	msg := err.Error()
	var te *yaml.TypeError
	if errors.As(err, &te) && len(te.Errors) > 0 {
		msg = te.Errors[0]
	}
	if m := yamlLine.FindStringSubmatch(msg); m != nil {
		line, _ := strconv.Atoi(m[1])
		return &ParseError{Path: path, Line: line, Message: m[2]}
	}
	return &ParseError{Path: path, Message: msg}
}

// entryLines returns the line of each item of the scenarios sequence.
func entryLines(root *yaml.Node) []int {
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil
	}
	m := root.Content[0]
	if m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value != "scenarios" {
			continue
		}
		seq := m.Content[i+1]
		lines := make([]int, 0, len(seq.Content))
		for _, item := range seq.Content {
			lines = append(lines, item.Line)
		}
		return lines
	}
	return nil
}

// Validate checks values that do not depend on the scenario registry.
func (d *Descriptor) Validate() error {
	var errs []error
	if len(d.Scenarios) == 0 {
		errs = append(errs, &ParseError{Path: d.Path, Message: "no scenarios listed"})
	}
	if d.Retries != nil && (*d.Retries < 0 || *d.Retries > config.MaxRetries) {
		errs = append(errs, &ParseError{Path: d.Path, Message: fmt.Sprintf("retries must be between 0 and %d, got %d", config.MaxRetries, *d.Retries)})
	}
	if d.Parallel != nil && *d.Parallel < 1 {
		errs = append(errs, &ParseError{Path: d.Path, Message: fmt.Sprintf("parallel must be at least 1, got %d", *d.Parallel)})
	}
	for _, e := range d.Scenarios {
		if e.ID == "" {
			errs = append(errs, &ParseError{Path: d.Path, Line: e.Line, Message: "scenario entry has no id"})
		}
	}
	return errors.Join(errs...)
}

// Apply copies the descriptor's overrides onto cfg.
func (d *Descriptor) Apply(cfg *config.Config) {
	if d.Data != "" {
		cfg.Data.Workbook = d.Data
	}
	if d.WriteResults != nil {
		cfg.Data.WriteResults = *d.WriteResults
	}
	if d.Retries != nil {
		cfg.Suite.Retries = *d.Retries
	}
	if d.Parallel != nil {
		cfg.Suite.Parallel = *d.Parallel
	}
}
