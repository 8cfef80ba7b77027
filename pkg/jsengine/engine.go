// Package jsengine evaluates ${...} expressions in suite parameters, so a
// descriptor can build values such as a unique signup email per run.
package jsengine

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/dop251/goja"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

// Engine wraps a goja runtime with the run's builtins:
//
//	env            process environment (env.SHOP_PASSWORD)
//	run.id         run id
//	run.stamp      run start as 20060102150405
//	uniqueEmail(a) a with "+<stamp><n>" appended to the local part
//	json(s)        JSON.parse shorthand
type Engine struct {
	runtime   *goja.Runtime
	variables map[string]interface{}
	runID     string
	started   time.Time
	seq       int
	mu        sync.Mutex
}

// Option configures an Engine.
type Option func(*Engine)

// WithRunID sets run.id.
func WithRunID(id string) Option {
	return func(e *Engine) { e.runID = id }
}

// WithStart sets the run start used by run.stamp and uniqueEmail.
func WithStart(t time.Time) Option {
	return func(e *Engine) { e.started = t }
}

// New creates a new JS engine instance
func New(opts ...Option) *Engine {
	e := &Engine{
		runtime:   goja.New(),
		variables: make(map[string]interface{}),
		started:   time.Now(),
	}
	for _, opt := range opts {
		opt(e)
	}
	e.setupBuiltins()
	return e
}

func (e *Engine) setupBuiltins() {
	env := make(map[string]interface{})
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	e.runtime.Set("env", env)
	e.runtime.Set("run", map[string]interface{}{
		"id":    e.runID,
		"stamp": e.stamp(),
	})
	e.runtime.Set("json", e.jsonFunc())
	e.runtime.Set("uniqueEmail", e.uniqueEmailFunc())
}

func (e *Engine) stamp() string {
	return e.started.Format("20060102150405")
}

// jsonFunc returns the json() helper function
func (e *Engine) jsonFunc() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("json requires 1 argument"))
		}
		str := call.Arguments[0].String()
		result, err := e.runtime.RunString(fmt.Sprintf("JSON.parse(%q)", str))
		if err != nil {
			panic(e.runtime.NewTypeError(fmt.Sprintf("invalid JSON: %v", err)))
		}
		return result
	}
}

// uniqueEmailFunc tags the local part of an address. Calls within one run
// never repeat.
func (e *Engine) uniqueEmailFunc() func(call goja.FunctionCall) goja.Value {
	return func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(e.runtime.NewTypeError("uniqueEmail requires 1 argument"))
		}
		addr := call.Arguments[0].String()
		local, domain, ok := strings.Cut(addr, "@")
		if !ok || local == "" || domain == "" {
			panic(e.runtime.NewTypeError(fmt.Sprintf("uniqueEmail: %q is not an email address", addr)))
		}
		// Only called from Eval, which holds e.mu.
		e.seq++
		return e.runtime.ToValue(fmt.Sprintf("%s+%s%d@%s", local, e.stamp(), e.seq, domain))
	}
}

// SetVariable sets a variable accessible in JS as a global
func (e *Engine) SetVariable(name string, value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.variables[name] = value
	e.runtime.Set(name, value)
}

// SetVariables sets multiple variables
func (e *Engine) SetVariables(vars map[string]interface{}) {
	for k, v := range vars {
		e.SetVariable(k, v)
	}
}

// Eval evaluates a JavaScript expression and returns the result
func (e *Engine) Eval(script string) (interface{}, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	result, err := e.runtime.RunString(script)
	if err != nil {
		return nil, fmt.Errorf("JS eval error: %w", err)
	}
	return result.Export(), nil
}

// EvalString evaluates a JavaScript expression and returns string result
func (e *Engine) EvalString(script string) (string, error) {
	result, err := e.Eval(script)
	if err != nil {
		return "", err
	}
	if result == nil {
		return "", nil
	}
	return fmt.Sprintf("%v", result), nil
}

// ExpandVariables expands ${...} expressions in a string. An unmatched
// brace is left as text; an expression that fails to evaluate is an error.
func (e *Engine) ExpandVariables(text string) (string, error) {
	result := text
	start := 0

	for {
		idx := strings.Index(result[start:], "${")
		if idx == -1 {
			break
		}
		idx += start

		// Find matching }
		depth := 1
		end := idx + 2
		for end < len(result) && depth > 0 {
			switch result[end] {
			case '{':
				depth++
			case '}':
				depth--
			}
			end++
		}
		if depth != 0 {
			start = idx + 2
			continue
		}

		expr := result[idx+2 : end-1]
		value, err := e.EvalString(expr)
		if err != nil {
			return "", core.ErrInvalidArgument.WithMessagef("expression ${%s}", expr).WithCause(err)
		}

		result = result[:idx] + value + result[end:]
		start = idx + len(value)
	}

	return result, nil
}
