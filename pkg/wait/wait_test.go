package wait

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func counting(readyAfter int, err error) (Probe[int], *atomic.Int32) {
	var calls atomic.Int32
	return func(ctx context.Context) (int, bool, error) {
		n := int(calls.Add(1))
		if n >= readyAfter {
			return n, true, nil
		}
		return 0, false, err
	}, &calls
}

func TestUntil_ReturnsOnFirstReadyPoll(t *testing.T) {
	probe, calls := counting(3, nil)
	p := New(time.Second).WithPoll(10 * time.Millisecond)

	v, err := Until(context.Background(), p, probe)
	if err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if v != 3 || calls.Load() != 3 {
		t.Errorf("v = %d, calls = %d; want 3, 3", v, calls.Load())
	}
}

func TestUntil_IgnoredKindsKeepPolling(t *testing.T) {
	probe, calls := counting(4, core.ErrStaleElement)
	p := New(time.Second).WithPoll(5 * time.Millisecond)

	if _, err := Until(context.Background(), p, probe); err != nil {
		t.Fatalf("Until failed: %v", err)
	}
	if calls.Load() != 4 {
		t.Errorf("calls = %d, want 4", calls.Load())
	}
}

func TestUntil_NonIgnoredKindAbortsImmediately(t *testing.T) {
	probe, calls := counting(10, core.ErrSession)
	p := New(time.Second).WithPoll(5 * time.Millisecond)

	start := time.Now()
	_, err := Until(context.Background(), p, probe)
	if !errors.Is(err, core.ErrSession) {
		t.Fatalf("err = %v, want ErrSession", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Errorf("abort took %s", time.Since(start))
	}
}

func TestUntil_Ignoring(t *testing.T) {
	probe, _ := counting(2, core.ErrSession)
	p := New(time.Second).WithPoll(5 * time.Millisecond).Ignoring(core.KindSession)

	if _, err := Until(context.Background(), p, probe); err != nil {
		t.Fatalf("Until failed: %v", err)
	}
}

func TestUntil_TimeoutBounded(t *testing.T) {
	const timeout = 150 * time.Millisecond
	const poll = 40 * time.Millisecond
	probe, _ := counting(1<<30, core.ErrElementNotFound)
	p := New(timeout).WithPoll(poll)

	start := time.Now()
	_, err := Until(context.Background(), p, probe)
	elapsed := time.Since(start)

	if !core.IsKind(err, core.KindTimeout) {
		t.Fatalf("err = %v, want timeout", err)
	}
	if !errors.Is(err, core.ErrElementNotFound) {
		t.Errorf("timeout should carry the last probe error, got %v", err)
	}
	if elapsed < timeout {
		t.Errorf("returned after %s, before the %s timeout", elapsed, timeout)
	}
	if elapsed > timeout+poll+100*time.Millisecond {
		t.Errorf("blocked %s, want at most about %s", elapsed, timeout+poll)
	}
}

func TestUntil_ContextCancel(t *testing.T) {
	probe, _ := counting(1<<30, nil)
	p := New(10 * time.Second).WithPoll(10 * time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	_, err := Until(ctx, p, probe)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name string
		p    Policy
		ok   bool
	}{
		{"default", New(time.Second), true},
		{"zero timeout", New(0), false},
		{"zero poll", New(time.Second).WithPoll(0), false},
		{"poll longer than timeout", New(100 * time.Millisecond).WithPoll(time.Second), false},
		{"poll equal to timeout", New(time.Second).WithPoll(time.Second), true},
	}
	for _, tt := range tests {
		err := tt.p.Validate()
		if (err == nil) != tt.ok {
			t.Errorf("%s: Validate() = %v", tt.name, err)
		}
	}

	probe, calls := counting(1, nil)
	if _, err := Until(context.Background(), New(0), probe); !errors.Is(err, core.ErrInvalidArgument) {
		t.Errorf("Until with invalid policy: %v", err)
	}
	if calls.Load() != 0 {
		t.Error("probe ran despite an invalid policy")
	}
}

func TestPolicy_IgnoringDoesNotAlias(t *testing.T) {
	base := New(time.Second)
	extended := base.Ignoring(core.KindSession, core.KindStale)

	if len(base.Ignored) != 3 {
		t.Errorf("base mutated: %v", base.Ignored)
	}
	if len(extended.Ignored) != 4 {
		t.Errorf("extended = %v, want 4 kinds", extended.Ignored)
	}
}
