package pages

import (
	"context"
	"testing"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsOrderPlaced_Signals(t *testing.T) {
	tests := []struct {
		name   string
		render func(s *mock.Session)
		want   bool
	}{
		{"heading", func(s *mock.Session) {
			s.Visible(session.ByXPath, `//h2[contains(text(),'Order Placed!')]`, "Order Placed!")
		}, true},
		{"alternate text", func(s *mock.Session) {
			s.Visible(session.ByXPath, `//p[contains(text(),'Congratulations') or contains(text(),'order has been placed')]`, "Your order has been placed")
		}, true},
		{"url heuristic", func(s *mock.Session) {
			s.URL = "https://automationexercise.com/payment_done/0"
		}, true},
		{"hidden heading only", func(s *mock.Session) {
			n := s.Visible(session.ByXPath, `//h2[contains(text(),'Order Placed!')]`, "Order Placed!")
			n.Visible = false
			s.URL = "https://automationexercise.com/payment"
		}, false},
		{"nothing", func(s *mock.Session) {}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := mock.New()
			tt.render(s)
			assert.Equal(t, tt.want, NewCheckout(testEnv(s)).IsOrderPlaced(context.Background()))
		})
	}
}

func TestIsOrderPlaced_SessionFailureIsFalse(t *testing.T) {
	s := mock.New()
	s.FindError = core.ErrSession

	assert.False(t, NewCheckout(testEnv(s)).IsOrderPlaced(context.Background()))
}

func TestPlaceOrder_NavigatesWhenClickCannotLand(t *testing.T) {
	s := mock.New()
	btn := s.Visible(session.ByXPath, `//a[contains(text(),'Place Order')]`, "Place Order")
	s.QueueClickErrors(btn.ID, core.ErrClickIntercepted, core.ErrClickIntercepted)
	s.OnCall = func(_ *mock.Session, _ *mock.Node, fn string, _ []interface{}) (interface{}, error) {
		if fn == session.ScriptJSClick {
			return nil, core.ErrClickIntercepted
		}
		return nil, nil
	}
	env := testEnv(s)

	require.NoError(t, NewCheckout(env).PlaceOrder(context.Background()))
	assert.Equal(t, env.Site.PaymentURL, s.URL)
}

func TestPlaceOrder_ScriptClickFallback(t *testing.T) {
	s := mock.New()
	btn := s.Visible(session.ByXPath, `//a[contains(text(),'Place Order')]`, "Place Order")
	s.QueueClickErrors(btn.ID, core.ErrClickIntercepted, core.ErrClickIntercepted)

	require.NoError(t, NewCheckout(testEnv(s)).PlaceOrder(context.Background()))
	assert.Equal(t, 1, s.Calls("JSClick:"+btn.ID))
	assert.Equal(t, "", s.URL, "no navigation when the script click lands")
}

func TestPlaceOrder_SessionErrorPropagates(t *testing.T) {
	s := mock.New()
	s.FindError = core.ErrSession

	err := NewCheckout(testEnv(s)).PlaceOrder(context.Background())
	assert.True(t, core.IsKind(err, core.KindSession), "err = %v", err)
	assert.Equal(t, 0, s.Calls("Navigate"))
}

func TestFillPaymentDetails_MissingField(t *testing.T) {
	s := mock.New()
	s.Visible(session.ByName, "name_on_card", "")

	err := NewCheckout(testEnv(s)).FillPaymentDetails(context.Background(), TestCard)
	var op *OpError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, "card number", op.Target)
}

func TestCheckoutFormsDisplayed(t *testing.T) {
	s := mock.New()
	checkout := NewCheckout(testEnv(s))
	ctx := context.Background()

	assert.False(t, checkout.IsAddressFormDisplayed(ctx))
	assert.False(t, checkout.IsPaymentFormDisplayed(ctx))
	assert.Equal(t, "", checkout.OrderConfirmationText(ctx))

	s.Visible(session.ByName, "message", "")
	s.Visible(session.ByName, "name_on_card", "")
	assert.True(t, checkout.IsAddressFormDisplayed(ctx))
	assert.True(t, checkout.IsPaymentFormDisplayed(ctx))
}
