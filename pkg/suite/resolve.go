package suite

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/devicelab-dev/shopflow/pkg/scenario"
)

// Selection is one scenario chosen by a descriptor, with its effective
// sheet and params.
type Selection struct {
	Scenario scenario.Scenario
	Sheet    string
	Params   map[string]string
}

// Resolve expands the descriptor's entries against reg. Scenarios keep
// the order of the first entry that selects them; skip entries remove
// scenarios wherever they appear; the tag filters apply last.
func (d *Descriptor) Resolve(reg *scenario.Registry) ([]Selection, error) {
	var errs []error
	skipped := map[string]bool{}
	for _, e := range d.Scenarios {
		if !e.Skip {
			continue
		}
		matched, err := d.match(reg, e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, s := range matched {
			skipped[s.ID] = true
		}
	}

	var out []Selection
	seen := map[string]bool{}
	for _, e := range d.Scenarios {
		if e.Skip {
			continue
		}
		matched, err := d.match(reg, e)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		for _, s := range matched {
			if seen[s.ID] || skipped[s.ID] || !ShouldInclude(s, d.IncludeTags, d.ExcludeTags) {
				continue
			}
			sel, err := d.selection(s, e)
			if err != nil {
				errs = append(errs, err)
				continue
			}
			seen[s.ID] = true
			out = append(out, sel)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func (d *Descriptor) match(reg *scenario.Registry, e Entry) ([]scenario.Scenario, error) {
	matched, err := reg.Match(e.ID)
	if err != nil {
		return nil, &ParseError{Path: d.Path, Line: e.Line, Message: err.Error()}
	}
	if len(matched) == 0 {
		return nil, &ParseError{Path: d.Path, Line: e.Line, Message: fmt.Sprintf("no scenario matches %q", e.ID)}
	}
	return matched, nil
}

func (d *Descriptor) selection(s scenario.Scenario, e Entry) (Selection, error) {
	sel := Selection{Scenario: s, Sheet: s.Sheet, Params: map[string]string{}}
	for k, v := range s.Params {
		sel.Params[k] = v
	}
	for k, v := range e.Params {
		sel.Params[k] = v
	}
	if e.Sheet != "" {
		if !s.DataDriven() {
			return Selection{}, &ParseError{Path: d.Path, Line: e.Line,
				Message: fmt.Sprintf("sheet %q given for %s, which is not data-driven", e.Sheet, s.ID)}
		}
		sel.Sheet = e.Sheet
	}
	return sel, nil
}

// ShouldInclude checks if a scenario matches tag filters. Tags compare
// case-insensitively.
func ShouldInclude(s scenario.Scenario, includeTags, excludeTags []string) bool {
	if len(includeTags) > 0 {
		hasTag := false
		for _, include := range includeTags {
			if s.HasTag(strings.TrimSpace(include)) {
				hasTag = true
				break
			}
		}
		if !hasTag {
			return false
		}
	}

	for _, exclude := range excludeTags {
		if s.HasTag(strings.TrimSpace(exclude)) {
			return false
		}
	}

	return true
}

// Expander expands ${...} expressions in a parameter value.
type Expander interface {
	ExpandVariables(text string) (string, error)
}

// ExpandParams expands every param value of every selection in place,
// in selection order and sorted key order.
func ExpandParams(selections []Selection, x Expander) error {
	var errs []error
	for i := range selections {
		keys := make([]string, 0, len(selections[i].Params))
		for k := range selections[i].Params {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			v, err := x.ExpandVariables(selections[i].Params[k])
			if err != nil {
				errs = append(errs, fmt.Errorf("%s param %s: %w", selections[i].Scenario.ID, k, err))
				continue
			}
			selections[i].Params[k] = v
		}
	}
	return errors.Join(errs...)
}
