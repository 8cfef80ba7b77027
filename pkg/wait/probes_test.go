package wait

import (
	"context"
	"testing"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/locator"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
)

var fast = New(200 * time.Millisecond).WithPoll(5 * time.Millisecond)

func TestPresentVisibleClickable(t *testing.T) {
	s := mock.New()
	n := s.Add(&mock.Node{Visible: false, Enabled: false})
	s.Register(session.ByID, "cartModal", n.ID)
	r := locator.NewResolver(s, nil)
	set := locator.Of("cart modal", locator.ID("cartModal"))
	ctx := context.Background()

	if _, err := Until(ctx, fast, Present(r, set, nil)); err != nil {
		t.Errorf("Present: %v", err)
	}
	if _, err := Until(ctx, fast, Visible(r, set, nil)); !core.IsKind(err, core.KindTimeout) {
		t.Errorf("Visible on hidden node: %v, want timeout", err)
	}

	n.Visible = true
	if _, err := Until(ctx, fast, Visible(r, set, nil)); err != nil {
		t.Errorf("Visible: %v", err)
	}
	if _, err := Until(ctx, fast, Clickable(r, set, nil)); !core.IsKind(err, core.KindTimeout) {
		t.Errorf("Clickable on disabled node: %v, want timeout", err)
	}

	n.Enabled = true
	el, err := Until(ctx, fast, Clickable(r, set, nil))
	if err != nil || el.ID != n.ID {
		t.Errorf("Clickable = %v, %v", el, err)
	}
}

func TestVisible_BecomesReady(t *testing.T) {
	s := mock.New()
	r := locator.NewResolver(s, nil)
	set := locator.Of("error", locator.XPath("//p[contains(text(),'incorrect')]"))

	time.AfterFunc(20*time.Millisecond, func() {
		s.Visible(session.ByXPath, "//p[contains(text(),'incorrect')]", "Your email or password is incorrect!")
	})
	p := New(time.Second).WithPoll(5 * time.Millisecond)
	if _, err := Until(context.Background(), p, Visible(r, set, nil)); err != nil {
		t.Errorf("Visible: %v", err)
	}
}

func TestAbsent(t *testing.T) {
	s := mock.New()
	n := s.Visible(session.ByID, "cartModal", "")
	r := locator.NewResolver(s, nil)
	set := locator.Of("cart modal", locator.ID("cartModal"))

	if _, err := Until(context.Background(), fast, Absent(r, set)); !core.IsKind(err, core.KindTimeout) {
		t.Errorf("Absent with visible node: %v", err)
	}
	s.Detach(n.ID)
	if _, err := Until(context.Background(), fast, Absent(r, set)); err != nil {
		t.Errorf("Absent after detach: %v", err)
	}
}

func TestURLContains(t *testing.T) {
	s := mock.New()
	s.URL = "https://automationexercise.com/payment_done/500"

	u, err := Until(context.Background(), fast, URLContains(s, "confirmation", "PAYMENT_DONE"))
	if err != nil || u != s.URL {
		t.Errorf("URLContains = %q, %v", u, err)
	}

	s.URL = "https://automationexercise.com/payment"
	if _, err := Until(context.Background(), fast, URLContains(s, "success")); !core.IsKind(err, core.KindTimeout) {
		t.Errorf("URLContains mismatch: %v", err)
	}
}

func TestDocumentReady(t *testing.T) {
	s := mock.New()
	if _, err := Until(context.Background(), fast, DocumentReady(s)); err != nil {
		t.Errorf("DocumentReady: %v", err)
	}

	s.OnScript = func(*mock.Session, string, []interface{}) (interface{}, error) { return "loading", nil }
	if _, err := Until(context.Background(), fast, DocumentReady(s)); !core.IsKind(err, core.KindTimeout) {
		t.Errorf("DocumentReady while loading: %v", err)
	}
}

func TestFirstVisible_PriorityOrder(t *testing.T) {
	s := mock.New()
	s.Visible(session.ByXPath, "//p[contains(text(),'Congratulations')]", "Congratulations!")
	heading := s.Visible(session.ByXPath, "//h2[contains(text(),'Order Placed!')]", "Order Placed!")
	r := locator.NewResolver(s, nil)

	hit, err := Until(context.Background(), fast, FirstVisible(r,
		locator.Of("heading", locator.XPath("//h2[contains(text(),'Order Placed!')]")),
		locator.Of("text", locator.XPath("//p[contains(text(),'Congratulations')]")),
	))
	if err != nil {
		t.Fatalf("FirstVisible: %v", err)
	}
	if hit.Index != 0 || hit.Element.ID != heading.ID {
		t.Errorf("hit = %+v, want heading", hit)
	}
}

func TestFirstVisible_SessionErrorAborts(t *testing.T) {
	s := mock.New()
	s.FindError = core.ErrSession
	r := locator.NewResolver(s, nil)

	_, err := Until(context.Background(), fast, FirstVisible(r, locator.Of("x", locator.ID("x"))))
	if !core.IsKind(err, core.KindSession) {
		t.Errorf("err = %v, want session error", err)
	}
}
