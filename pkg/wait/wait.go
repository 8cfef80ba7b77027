// Package wait polls readiness conditions against a browser session.
package wait

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
)

// DefaultPoll is the interval between probe attempts.
const DefaultPoll = 250 * time.Millisecond

// Policy bounds one wait: how long, how often, and which failure kinds
// mean "not ready yet" rather than "give up".
type Policy struct {
	Timeout      time.Duration
	PollInterval time.Duration
	Ignored      []core.ErrorKind
}

// New returns a policy with the default poll interval that ignores
// NotFound, Stale and NotInteractable failures.
func New(timeout time.Duration) Policy {
	return Policy{
		Timeout:      timeout,
		PollInterval: DefaultPoll,
		Ignored:      []core.ErrorKind{core.KindNotFound, core.KindStale, core.KindNotInteractable},
	}
}

// WithPoll returns a copy with a different poll interval.
func (p Policy) WithPoll(d time.Duration) Policy {
	p.PollInterval = d
	return p
}

// Ignoring returns a copy that also ignores the given kinds.
func (p Policy) Ignoring(kinds ...core.ErrorKind) Policy {
	ignored := slices.Clone(p.Ignored)
	for _, k := range kinds {
		if !slices.Contains(ignored, k) {
			ignored = append(ignored, k)
		}
	}
	p.Ignored = ignored
	return p
}

// Validate rejects non-positive durations and a poll interval longer
// than the timeout.
func (p Policy) Validate() error {
	if p.Timeout <= 0 {
		return core.ErrInvalidArgument.WithMessagef("wait timeout must be positive, got %s", p.Timeout)
	}
	if p.PollInterval <= 0 {
		return core.ErrInvalidArgument.WithMessagef("poll interval must be positive, got %s", p.PollInterval)
	}
	if p.PollInterval > p.Timeout {
		return core.ErrInvalidArgument.WithMessagef("poll interval %s exceeds timeout %s", p.PollInterval, p.Timeout)
	}
	return nil
}

func (p Policy) ignores(err error) bool {
	return slices.Contains(p.Ignored, core.KindOf(err))
}

func (p Policy) String() string {
	return fmt.Sprintf("timeout=%s poll=%s", p.Timeout, p.PollInterval)
}

// Probe checks a condition once. ok=false with a nil error means the
// condition does not hold yet.
type Probe[T any] func(ctx context.Context) (value T, ok bool, err error)

// Until polls probe until it reports ok, it fails with a kind the policy
// does not ignore, or the policy timeout elapses. The last probe runs at
// the deadline, so a wait never blocks much longer than Timeout.
func Until[T any](ctx context.Context, p Policy, probe Probe[T]) (T, error) {
	var zero T
	if err := p.Validate(); err != nil {
		return zero, err
	}

	deadline := time.Now().Add(p.Timeout)
	timer := time.NewTimer(p.PollInterval)
	timer.Stop()
	defer timer.Stop()

	var last error
	attempts := 0
	for {
		attempts++
		v, ok, err := probe(ctx)
		switch {
		case err != nil && !p.ignores(err):
			return zero, err
		case err == nil && ok:
			return v, nil
		}
		if err != nil {
			last = err
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return zero, timeoutError(p, attempts, last)
		}
		timer.Reset(min(p.PollInterval, remaining))
		select {
		case <-ctx.Done():
			return zero, ctx.Err()
		case <-timer.C:
		}
	}
}

func timeoutError(p Policy, attempts int, last error) error {
	e := core.ErrWaitTimeout.
		WithMessagef("condition not met within %s", p.Timeout).
		WithDetails(map[string]interface{}{"attempts": attempts, "poll": p.PollInterval.String()})
	if last != nil {
		return e.WithCause(last)
	}
	return e
}
