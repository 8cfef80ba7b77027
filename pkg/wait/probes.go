package wait

import (
	"context"
	"strings"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/locator"
	"github.com/devicelab-dev/shopflow/pkg/session"
)

// Present is ready when any strategy of set matches, visible or not.
func Present(r *locator.Resolver, set locator.Set, scope *session.Element) Probe[session.Element] {
	return func(ctx context.Context) (session.Element, bool, error) {
		els, err := r.Resolve(ctx, set, scope)
		if err != nil {
			return session.Element{}, false, err
		}
		if len(els) == 0 {
			return session.Element{}, false, core.ErrElementNotFound.WithMessagef("%s not present", set.Describe())
		}
		return els[0], true, nil
	}
}

// Visible is ready when a matched element is displayed.
func Visible(r *locator.Resolver, set locator.Set, scope *session.Element) Probe[session.Element] {
	return readiness(r, set, scope, false)
}

// Clickable is ready when a matched element is displayed and enabled.
func Clickable(r *locator.Resolver, set locator.Set, scope *session.Element) Probe[session.Element] {
	return readiness(r, set, scope, true)
}

func readiness(r *locator.Resolver, set locator.Set, scope *session.Element, enabled bool) Probe[session.Element] {
	return func(ctx context.Context) (session.Element, bool, error) {
		els, err := r.Resolve(ctx, set, scope)
		if err != nil {
			return session.Element{}, false, err
		}
		if len(els) == 0 {
			return session.Element{}, false, core.ErrElementNotFound.WithMessagef("%s not present", set.Describe())
		}
		sess := r.Session()
		for _, el := range els {
			shown, err := sess.Displayed(ctx, el)
			if err != nil {
				return session.Element{}, false, err
			}
			if !shown {
				continue
			}
			if enabled {
				on, err := sess.Enabled(ctx, el)
				if err != nil {
					return session.Element{}, false, err
				}
				if !on {
					continue
				}
			}
			return el, true, nil
		}
		what := "visible"
		if enabled {
			what = "clickable"
		}
		return session.Element{}, false, core.ErrNotInteractable.WithMessagef("%s present but not %s", set.Name, what)
	}
}

// Absent is ready when no matched element is displayed.
func Absent(r *locator.Resolver, set locator.Set) Probe[struct{}] {
	return func(ctx context.Context) (struct{}, bool, error) {
		els, err := r.Resolve(ctx, set, nil)
		if err != nil {
			return struct{}{}, false, err
		}
		for _, el := range els {
			shown, err := r.Session().Displayed(ctx, el)
			if err != nil {
				if core.IsKind(err, core.KindStale) {
					continue
				}
				return struct{}{}, false, err
			}
			if shown {
				return struct{}{}, false, nil
			}
		}
		return struct{}{}, true, nil
	}
}

// URLContains is ready when the current URL contains any of subs. The URL
// is returned.
func URLContains(sess session.Session, subs ...string) Probe[string] {
	return func(ctx context.Context) (string, bool, error) {
		u, err := sess.CurrentURL(ctx)
		if err != nil {
			return "", false, err
		}
		lower := strings.ToLower(u)
		for _, s := range subs {
			if strings.Contains(lower, strings.ToLower(s)) {
				return u, true, nil
			}
		}
		return u, false, nil
	}
}

// DocumentReady is ready when document.readyState is "complete".
func DocumentReady(sess session.Session) Probe[struct{}] {
	return func(ctx context.Context) (struct{}, bool, error) {
		v, err := sess.ExecuteScript(ctx, session.ScriptDocumentReady)
		if err != nil {
			return struct{}{}, false, err
		}
		state, _ := v.(string)
		return struct{}{}, state == "complete", nil
	}
}

// Hit is the outcome of FirstVisible.
type Hit struct {
	Index   int
	Element session.Element
}

// FirstVisible checks sets in order on every poll and reports the first
// one with a displayed element. Earlier sets win over later ones within
// the same poll.
func FirstVisible(r *locator.Resolver, sets ...locator.Set) Probe[Hit] {
	return func(ctx context.Context) (Hit, bool, error) {
		for i, set := range sets {
			el, ok, err := Visible(r, set, nil)(ctx)
			if err != nil {
				switch core.KindOf(err) {
				case core.KindNotFound, core.KindNotInteractable, core.KindStale:
					continue
				}
				return Hit{}, false, err
			}
			if ok {
				return Hit{Index: i, Element: el}, true, nil
			}
		}
		return Hit{Index: -1}, false, nil
	}
}

// Func adapts a plain predicate into a probe.
func Func(check func(ctx context.Context) (bool, error)) Probe[struct{}] {
	return func(ctx context.Context) (struct{}, bool, error) {
		ok, err := check(ctx)
		return struct{}{}, ok, err
	}
}
