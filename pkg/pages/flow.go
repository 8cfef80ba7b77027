package pages

import (
	"context"
	"fmt"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/wait"
	"go.uber.org/zap"
)

// Stage is a step of the checkout flow.
type Stage int

// Checkout stages
const (
	StageCart Stage = iota
	StageAddress
	StageLoginPrompt
	StagePayment
	StageConfirmed
)

func (s Stage) String() string {
	switch s {
	case StageCart:
		return "cart"
	case StageAddress:
		return "address"
	case StageLoginPrompt:
		return "login-prompt"
	case StagePayment:
		return "payment"
	case StageConfirmed:
		return "confirmed"
	default:
		return "unknown"
	}
}

// TransitionError reports an operation invoked from the wrong stage.
type TransitionError struct {
	Op   string
	From Stage
	Want Stage
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s requires stage %s, flow is at %s", e.Op, e.Want, e.From)
}

// Unwrap classifies transition errors as invalid arguments.
func (e *TransitionError) Unwrap() error {
	return core.ErrInvalidArgument
}

// CheckoutFlow drives Cart -> Address (or LoginPrompt) -> Payment ->
// Confirmed. Each transition is only legal from its source stage.
type CheckoutFlow struct {
	cart     *Cart
	checkout *Checkout
	stage    Stage
	log      *zap.Logger
}

// NewCheckoutFlow starts a flow at the cart stage.
func NewCheckoutFlow(cart *Cart, checkout *Checkout) *CheckoutFlow {
	return &CheckoutFlow{cart: cart, checkout: checkout, stage: StageCart, log: checkout.log.Named("flow")}
}

// Stage returns the current stage.
func (f *CheckoutFlow) Stage() Stage {
	return f.stage
}

func (f *CheckoutFlow) require(op string, want Stage) error {
	if f.stage != want {
		return &TransitionError{Op: op, From: f.stage, Want: want}
	}
	return nil
}

func (f *CheckoutFlow) advance(to Stage) {
	f.log.Info("checkout stage", zap.Stringer("from", f.stage), zap.Stringer("to", to))
	f.stage = to
}

// ProceedToCheckout leaves the cart. A logged-in session reaches the
// address review; a guest gets the login prompt modal.
func (f *CheckoutFlow) ProceedToCheckout(ctx context.Context) (Stage, error) {
	if err := f.require("ProceedToCheckout", StageCart); err != nil {
		return f.stage, err
	}
	if err := f.cart.ProceedToCheckout(ctx); err != nil {
		return f.stage, err
	}
	hit, err := wait.Until(ctx, f.cart.policy(f.cart.waits.Default),
		wait.FirstVisible(f.cart.res, checkoutComment, cartModal))
	if err != nil {
		return f.stage, opError("ProceedToCheckout", "address form or login prompt", err)
	}
	if hit.Index == 0 {
		f.advance(StageAddress)
	} else {
		f.advance(StageLoginPrompt)
	}
	return f.stage, nil
}

// AddComment types the order comment on the address review.
func (f *CheckoutFlow) AddComment(ctx context.Context, comment string) error {
	if err := f.require("AddComment", StageAddress); err != nil {
		return err
	}
	return f.checkout.AddComment(ctx, comment)
}

// PlaceOrder moves from the address review to the payment form.
func (f *CheckoutFlow) PlaceOrder(ctx context.Context) error {
	if err := f.require("PlaceOrder", StageAddress); err != nil {
		return err
	}
	if err := f.checkout.PlaceOrder(ctx); err != nil {
		return err
	}
	if _, err := f.checkout.visible(ctx, checkoutNameOnCard, f.checkout.waits.Default); err != nil {
		return opError("PlaceOrder", checkoutNameOnCard.Name, err)
	}
	f.advance(StagePayment)
	return nil
}

// FillPaymentDetails types the card on the payment form.
func (f *CheckoutFlow) FillPaymentDetails(ctx context.Context, card Card) error {
	if err := f.require("FillPaymentDetails", StagePayment); err != nil {
		return err
	}
	return f.checkout.FillPaymentDetails(ctx, card)
}

// PayAndConfirm submits payment.
func (f *CheckoutFlow) PayAndConfirm(ctx context.Context) error {
	if err := f.require("PayAndConfirm", StagePayment); err != nil {
		return err
	}
	if err := f.checkout.PayAndConfirm(ctx); err != nil {
		return err
	}
	f.advance(StageConfirmed)
	return nil
}

// IsOrderPlaced runs the confirmation check. It is false before payment.
func (f *CheckoutFlow) IsOrderPlaced(ctx context.Context) bool {
	if f.stage != StageConfirmed {
		f.log.Warn("order placement checked before payment", zap.Stringer("stage", f.stage))
		return false
	}
	return f.checkout.IsOrderPlaced(ctx)
}
