package pages

import (
	"context"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/locator"
	"github.com/devicelab-dev/shopflow/pkg/wait"
	"go.uber.org/zap"
)

var (
	checkoutComment    = locator.Of("order comment", locator.Name("message"))
	checkoutPlaceOrder = locator.Of("place order button", locator.XPath(`//a[contains(text(),'Place Order')]`), locator.XPath(`//a[@href='/payment']`))
	checkoutNameOnCard = locator.Of("name on card", locator.Name("name_on_card"))
	checkoutCardNumber = locator.Of("card number", locator.Name("card_number"))
	checkoutCVC        = locator.Of("cvc", locator.Name("cvc"))
	checkoutExpMonth   = locator.Of("expiry month", locator.Name("expiry_month"))
	checkoutExpYear    = locator.Of("expiry year", locator.Name("expiry_year"))
	checkoutPay        = locator.Of("pay and confirm button", locator.ID("submit"))
	checkoutHeading    = locator.Of("order placed heading", locator.XPath(`//h2[contains(text(),'Order Placed!')]`), locator.XPath(`//h2[@data-qa='order-placed']`))
	checkoutAltText    = locator.Of("order success text", locator.XPath(`//p[contains(text(),'Congratulations') or contains(text(),'order has been placed')]`))
	checkoutConfirmTxt = locator.Of("order confirmation text", locator.XPath(`//p[contains(text(),'Congratulations')]`))
	checkoutContinue   = locator.Of("continue button", locator.XPath(`//a[contains(text(),'Continue')]`), locator.XPath(`//a[@data-qa='continue-button']`))
)

// confirmationURLMarkers are URL fragments of the order-placed page.
var confirmationURLMarkers = []string{"payment_done", "success", "confirmation"}

// Card is a payment card.
type Card struct {
	NameOnCard  string
	Number      string
	CVC         string
	ExpiryMonth string
	ExpiryYear  string
}

// TestCard is accepted by the demo payment form.
var TestCard = Card{
	NameOnCard:  "John Doe",
	Number:      "4532015112830366",
	CVC:         "123",
	ExpiryMonth: "12",
	ExpiryYear:  "2028",
}

// Checkout covers the address review, payment and confirmation screens.
type Checkout struct {
	base
}

// NewCheckout creates the checkout page object. It does not navigate.
func NewCheckout(env Env) *Checkout {
	return &Checkout{base: newBase(env, "checkout")}
}

// Open loads the checkout page.
func (p *Checkout) Open(ctx context.Context) error {
	return opError("OpenCheckout", p.site.CheckoutURL, p.open(ctx, p.site.CheckoutURL))
}

// AddComment types a comment for the order.
func (p *Checkout) AddComment(ctx context.Context, comment string) error {
	return opError("AddComment", checkoutComment.Name, p.typeInto(ctx, checkoutComment, comment, p.waits.Default))
}

// PlaceOrder clicks Place Order. The executor already removes ad iframes
// and retries; if the click still cannot be delivered the payment page is
// opened directly.
func (p *Checkout) PlaceOrder(ctx context.Context) error {
	err := p.click(ctx, checkoutPlaceOrder, p.waits.Default)
	if err == nil {
		return nil
	}
	switch core.KindOf(err) {
	case core.KindActionFailed, core.KindTimeout, core.KindNotFound, core.KindNotInteractable, core.KindIntercepted:
	default:
		return opError("PlaceOrder", checkoutPlaceOrder.Name, err)
	}
	p.log.Warn("place order not clickable, navigating to payment page",
		zap.String("url", p.site.PaymentURL), zap.Error(err))
	if nerr := p.sess.Navigate(ctx, p.site.PaymentURL); nerr != nil {
		return opError("PlaceOrder", checkoutPlaceOrder.Name, nerr)
	}
	return nil
}

// FillPaymentDetails types every card field. Only the last four digits of
// the card number are logged.
func (p *Checkout) FillPaymentDetails(ctx context.Context, card Card) error {
	p.log.Info("filling payment details", zap.String("card", maskCard(card.Number)))
	fields := []struct {
		set   locator.Set
		value string
	}{
		{checkoutNameOnCard, card.NameOnCard},
		{checkoutCardNumber, card.Number},
		{checkoutCVC, card.CVC},
		{checkoutExpMonth, card.ExpiryMonth},
		{checkoutExpYear, card.ExpiryYear},
	}
	for _, f := range fields {
		if err := p.typeInto(ctx, f.set, f.value, p.waits.Default); err != nil {
			return opError("FillPaymentDetails", f.set.Name, err)
		}
	}
	return nil
}

// PayAndConfirm scrolls to and clicks Pay and Confirm Order.
func (p *Checkout) PayAndConfirm(ctx context.Context) error {
	el, err := wait.Until(ctx, p.policy(p.waits.Default), wait.Present(p.res, checkoutPay, nil))
	if err != nil {
		return opError("PayAndConfirm", checkoutPay.Name, err)
	}
	if err := p.act.ScrollIntoView(ctx, el); err != nil {
		return opError("PayAndConfirm", checkoutPay.Name, err)
	}
	return opError("PayAndConfirm", checkoutPay.Name, p.click(ctx, checkoutPay, p.waits.Default))
}

// IsOrderPlaced polls for up to the long wait. Each poll checks the
// confirmation heading, then the success text, then the URL; the first
// positive signal wins.
func (p *Checkout) IsOrderPlaced(ctx context.Context) bool {
	return orDefault(p.log, "IsOrderPlaced", false)(p.orderPlaced(ctx))
}

func (p *Checkout) orderPlaced(ctx context.Context) (bool, error) {
	signals := wait.FirstVisible(p.res, checkoutHeading, checkoutAltText)
	byURL := wait.URLContains(p.sess, confirmationURLMarkers...)

	var probe wait.Probe[string] = func(ctx context.Context) (string, bool, error) {
		hit, ok, err := signals(ctx)
		if err != nil {
			return "", false, err
		}
		if ok {
			if hit.Index == 0 {
				return "heading", true, nil
			}
			return "success text", true, nil
		}
		u, ok, err := byURL(ctx)
		if err != nil || !ok {
			return "", false, err
		}
		return "url " + u, true, nil
	}
	signal, err := wait.Until(ctx, p.policy(p.waits.Long), probe)
	if err != nil {
		if core.IsKind(err, core.KindTimeout) {
			p.log.Error("could not confirm order placement, no success indicators found")
			return false, nil
		}
		return false, err
	}
	p.log.Info("order placement confirmed", zap.String("signal", signal))
	return true, nil
}

// OrderConfirmationText returns the confirmation paragraph, or "".
func (p *Checkout) OrderConfirmationText(ctx context.Context) string {
	return orDefault(p.log, "OrderConfirmationText", "")(p.text(ctx, checkoutConfirmTxt, nil))
}

// ClickContinue leaves the confirmation page.
func (p *Checkout) ClickContinue(ctx context.Context) error {
	return opError("ClickContinue", checkoutContinue.Name, p.click(ctx, checkoutContinue, p.waits.Default))
}

// IsAddressFormDisplayed waits for the comment box of the review step.
func (p *Checkout) IsAddressFormDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsAddressFormDisplayed", false)(p.shownWithin(ctx, checkoutComment, p.waits.Default))
}

// IsPaymentFormDisplayed waits for the name-on-card input.
func (p *Checkout) IsPaymentFormDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsPaymentFormDisplayed", false)(p.shownWithin(ctx, checkoutNameOnCard, p.waits.Default))
}
