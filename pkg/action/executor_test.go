package action

import (
	"context"
	"errors"
	"testing"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
)

func clickable(s *mock.Session) (*mock.Node, session.Element) {
	n := s.Add(&mock.Node{Visible: true, Enabled: true})
	return n, session.Element{ID: n.ID}
}

func TestClick_Direct(t *testing.T) {
	s := mock.New()
	_, el := clickable(s)

	res := NewExecutor(s).Click(context.Background(), el)
	if !res.Succeeded || res.Strategy != core.StrategyDirect || res.Attempts != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.Error() != nil {
		t.Errorf("Error() = %v", res.Error())
	}
	if s.Calls("JSClick") != 0 || s.Scrolled[el.ID] != 0 {
		t.Error("direct success should not touch the fallback chain")
	}
}

func TestClick_ScrollRetryAfterIntercept(t *testing.T) {
	s := mock.New()
	_, el := clickable(s)
	s.QueueClickErrors(el.ID, core.ErrClickIntercepted)

	exec := NewExecutor(s, WithOverlays([]string{`iframe[id^="aswift"]`}))
	res := exec.Click(context.Background(), el)

	if !res.Succeeded || res.Strategy != core.StrategyScrollRetry || res.Attempts != 2 {
		t.Errorf("result = %+v", res)
	}
	if s.Scrolled[el.ID] != 1 {
		t.Errorf("scrolled %d times, want 1", s.Scrolled[el.ID])
	}
	if len(s.Scripts) != 1 || s.Scripts[0] != session.ScriptRemoveOverlays {
		t.Errorf("scripts = %v, want overlay removal", s.Scripts)
	}
}

func TestClick_NoOverlayScriptWithoutSelectors(t *testing.T) {
	s := mock.New()
	_, el := clickable(s)
	s.QueueClickErrors(el.ID, core.ErrClickIntercepted)

	NewExecutor(s).Click(context.Background(), el)
	if len(s.Scripts) != 0 {
		t.Errorf("scripts = %v, want none", s.Scripts)
	}
}

func TestClick_ScriptClickLastResort(t *testing.T) {
	s := mock.New()
	n, el := clickable(s)
	clicks := 0
	n.OnClick = func(*mock.Session) { clicks++ }
	s.QueueClickErrors(el.ID, core.ErrClickIntercepted, core.ErrNotInteractable)

	res := NewExecutor(s).Click(context.Background(), el)
	if !res.Succeeded || res.Strategy != core.StrategyScriptClick || res.Attempts != 3 {
		t.Errorf("result = %+v", res)
	}
	if s.Calls("JSClick:"+el.ID) != 1 || clicks != 1 {
		t.Errorf("JSClick = %d, clicks = %d; want 1, 1", s.Calls("JSClick:"+el.ID), clicks)
	}
	if s.Calls("Click:"+el.ID) != 2 {
		t.Errorf("direct clicks = %d, want 2", s.Calls("Click:"+el.ID))
	}
}

func TestClick_ChainExhausted(t *testing.T) {
	s := mock.New()
	_, el := clickable(s)
	s.QueueClickErrors(el.ID, core.ErrClickIntercepted, core.ErrClickIntercepted)
	s.OnCall = func(_ *mock.Session, _ *mock.Node, fn string, _ []interface{}) (interface{}, error) {
		if fn == session.ScriptJSClick {
			return nil, core.ErrSession.WithMessage("javascript error")
		}
		return nil, nil
	}

	res := NewExecutor(s).Click(context.Background(), el)
	if res.Succeeded || res.Kind != core.KindActionFailed || res.Attempts != 3 {
		t.Errorf("result = %+v", res)
	}
	if !errors.Is(res.Error(), core.ErrActionFailed) || !errors.Is(res.Error(), core.ErrSession) {
		t.Errorf("Error() = %v, want ActionFailed wrapping the script failure", res.Error())
	}
}

func TestClick_OtherKindsPropagateImmediately(t *testing.T) {
	s := mock.New()
	_, el := clickable(s)
	s.Detach(el.ID)

	res := NewExecutor(s).Click(context.Background(), el)
	if res.Succeeded || res.Kind != core.KindStale || res.Attempts != 1 {
		t.Errorf("result = %+v", res)
	}
	if s.Calls("CallOnElement") != 0 {
		t.Error("stale element should not enter the fallback chain")
	}
}

func TestType(t *testing.T) {
	s := mock.New()
	n, el := clickable(s)
	n.Value = "old"

	res := NewExecutor(s).Type(context.Background(), el, "john.doe@example.com")
	if !res.Succeeded {
		t.Fatalf("Type failed: %v", res.Err)
	}
	if n.Value != "john.doe@example.com" {
		t.Errorf("value = %q", n.Value)
	}
}

func TestType_NoFallback(t *testing.T) {
	s := mock.New()
	n, el := clickable(s)
	n.Visible = false

	res := NewExecutor(s).Type(context.Background(), el, "x")
	if res.Succeeded || res.Kind != core.KindNotInteractable || res.Attempts != 1 {
		t.Errorf("result = %+v", res)
	}
	if s.Scrolled[el.ID] != 0 {
		t.Error("Type must not scroll-retry")
	}
}

func TestSelect(t *testing.T) {
	s := mock.New()
	n := s.Add(&mock.Node{Visible: true, Enabled: true, Options: []string{"India", "Canada"}})
	el := session.Element{ID: n.ID}
	exec := NewExecutor(s)

	if res := exec.Select(context.Background(), el, "Canada"); !res.Succeeded || n.Value != "Canada" {
		t.Errorf("Select(Canada) = %+v, value %q", res, n.Value)
	}
	res := exec.Select(context.Background(), el, "Atlantis")
	if res.Succeeded || res.Kind != core.KindNotFound {
		t.Errorf("Select(Atlantis) = %+v", res)
	}
}

func TestRemoveOverlays(t *testing.T) {
	s := mock.New()
	var got []interface{}
	s.OnScript = func(_ *mock.Session, body string, args []interface{}) (interface{}, error) {
		got = args
		return float64(2), nil
	}
	selectors := []string{"iframe.ad"}

	n, err := NewExecutor(s, WithOverlays(selectors)).RemoveOverlays(context.Background())
	if err != nil || n != 2 {
		t.Errorf("RemoveOverlays = %d, %v", n, err)
	}
	if len(got) != 1 {
		t.Fatalf("args = %v", got)
	}
	if sel, ok := got[0].([]string); !ok || sel[0] != "iframe.ad" {
		t.Errorf("selector arg = %#v", got[0])
	}
}
