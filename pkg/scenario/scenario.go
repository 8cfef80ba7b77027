// Package scenario defines the user journeys run against the storefront:
// the scenario type, its per-attempt context T, the registry and the
// built-in catalog.
package scenario

import (
	"path"
	"sort"
	"strings"
	"sync"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

// Func is a scenario body. Returning an error fails the attempt; failed
// checks reported through T fail it too.
type Func func(t *T) error

// Scenario is one user journey.
type Scenario struct {
	ID        string
	Name      string
	Objective string
	Tags      []string
	Sheet     string            // Data-driven: one job per row of this sheet
	Params    map[string]string // Defaults, overridable per suite entry
	Run       Func
}

// DataDriven reports whether the scenario runs once per data row.
func (s Scenario) DataDriven() bool { return s.Sheet != "" }

// HasTag reports whether the scenario carries tag (case-insensitive).
func (s Scenario) HasTag(tag string) bool {
	for _, t := range s.Tags {
		if strings.EqualFold(t, tag) {
			return true
		}
	}
	return false
}

// Registry holds scenarios by id, in registration order.
type Registry struct {
	mu    sync.RWMutex
	byID  map[string]Scenario
	order []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byID: map[string]Scenario{}}
}

// Register adds s. Ids are unique and case-sensitive.
func (r *Registry) Register(s Scenario) error {
	if s.ID == "" {
		return core.ErrInvalidArgument.WithMessage("scenario id is empty")
	}
	if s.Run == nil {
		return core.ErrInvalidArgument.WithMessagef("scenario %s has no body", s.ID)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.byID[s.ID]; dup {
		return core.ErrInvalidArgument.WithMessagef("scenario %s registered twice", s.ID)
	}
	r.byID[s.ID] = s
	r.order = append(r.order, s.ID)
	return nil
}

// MustRegister is Register that panics, for static catalogs.
func (r *Registry) MustRegister(scenarios ...Scenario) *Registry {
	for _, s := range scenarios {
		if err := r.Register(s); err != nil {
			panic(err)
		}
	}
	return r
}

// Get returns the scenario with id.
func (r *Registry) Get(id string) (Scenario, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	return s, ok
}

// All returns every scenario in registration order.
func (r *Registry) All() []Scenario {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Scenario, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	return out
}

// Match returns scenarios whose id matches pattern, in registration order.
// Patterns use path.Match syntax, so "CART-*" selects the cart group.
func (r *Registry) Match(pattern string) ([]Scenario, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, core.ErrInvalidArgument.WithMessagef("bad scenario pattern %q", pattern).WithCause(err)
	}
	var out []Scenario
	for _, s := range r.All() {
		if ok, _ := path.Match(pattern, s.ID); ok {
			out = append(out, s)
		}
	}
	return out, nil
}

// Tags returns every distinct tag, sorted.
func (r *Registry) Tags() []string {
	seen := map[string]bool{}
	for _, s := range r.All() {
		for _, t := range s.Tags {
			seen[t] = true
		}
	}
	out := make([]string, 0, len(seen))
	for t := range seen {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}
