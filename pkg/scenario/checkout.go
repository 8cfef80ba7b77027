package scenario

import (
	"context"
	"strconv"

	"github.com/devicelab-dev/shopflow/pkg/pages"
	"github.com/devicelab-dev/shopflow/pkg/session"
)

func checkoutScenarios() []Scenario {
	return []Scenario{
		{
			ID:        "CHECKOUT-01",
			Name:      "Checkout with comment",
			Objective: "Log in, add a product, proceed to checkout and add an order comment",
			Tags:      []string{"checkout"},
			Params:    withComment(credentials(), "Please deliver between 9 AM to 5 PM"),
			Run:       checkout01,
		},
		{
			ID:        "CHECKOUT-02",
			Name:      "Place order",
			Objective: "Add a comment and place the order to reach the payment form",
			Tags:      []string{"checkout"},
			Params:    withComment(credentials(), "Test order comment"),
			Run:       checkout02,
		},
		{
			ID:        "CHECKOUT-03",
			Name:      "Fill payment details",
			Objective: "Reach the payment form and fill in the card details",
			Tags:      []string{"checkout", "payment"},
			Params:    withComment(credentials(), "Test order comment"),
			Run:       checkout03,
		},
		{
			ID:        "CHECKOUT-04",
			Name:      "Complete order",
			Objective: "Complete an order end to end and verify the confirmation",
			Tags:      []string{"checkout", "payment", "e2e"},
			Params:    withComment(credentials(), "Complete end-to-end test order"),
			Run:       checkout04,
		},
		{
			ID:        "CHECKOUT-05",
			Name:      "Cart shared across tabs",
			Objective: "Verify cart contents stay consistent across two tabs and checkout still works",
			Tags:      []string{"checkout", "cart", "multi-window"},
			Params:    withProducts(credentials(), "1", "2"),
			Run:       checkout05,
		},
	}
}

func withComment(params map[string]string, comment string) map[string]string {
	params["comment"] = comment
	params["product"] = "1"
	return params
}

func withProducts(params map[string]string, first, second string) map[string]string {
	params["product"] = first
	params["second_product"] = second
	return params
}

// toAddressReview logs in, fills the cart and leaves it for the address
// review. The flow is returned at StageAddress.
func toAddressReview(t *T) (*pages.CheckoutFlow, error) {
	ctx := t.Context()
	id := productParam(t, "product", 1)

	if err := login(t, 1); err != nil {
		return nil, err
	}
	if err := addAndViewCart(t, 2, id); err != nil {
		return nil, err
	}

	t.Step(3, "Proceeding to checkout")
	flow := t.Pages.NewCheckoutFlow()
	stage, err := flow.ProceedToCheckout(ctx)
	if err != nil {
		return nil, err
	}
	if stage == pages.StageLoginPrompt {
		return nil, t.Require(false, "checkout asked for login; the session is not signed in")
	}
	t.Pass("Address review displayed")
	return flow, nil
}

func toPayment(t *T) (*pages.CheckoutFlow, error) {
	ctx := t.Context()
	flow, err := toAddressReview(t)
	if err != nil {
		return nil, err
	}

	t.Step(4, "Adding order comment")
	if err := flow.AddComment(ctx, t.Param("comment")); err != nil {
		return nil, err
	}
	t.Info("Comment added: %s", t.Param("comment"))

	t.Step(5, "Placing the order")
	if err := flow.PlaceOrder(ctx); err != nil {
		return nil, err
	}
	if err := t.Require(t.Pages.Checkout.IsPaymentFormDisplayed(ctx), "payment form should be displayed after placing the order"); err != nil {
		return nil, err
	}
	t.Pass("Payment form displayed")
	return flow, nil
}

func checkout01(t *T) error {
	flow, err := toAddressReview(t)
	if err != nil {
		return err
	}

	t.Step(4, "Adding order comment")
	if err := flow.AddComment(t.Context(), t.Param("comment")); err != nil {
		return err
	}
	t.Pass("Comment added: %s", t.Param("comment"))
	return nil
}

func checkout02(t *T) error {
	_, err := toPayment(t)
	return err
}

func checkout03(t *T) error {
	flow, err := toPayment(t)
	if err != nil {
		return err
	}

	t.Step(6, "Filling payment details")
	if err := flow.FillPaymentDetails(t.Context(), pages.TestCard); err != nil {
		return err
	}
	t.Pass("Payment details filled for %s", pages.TestCard.NameOnCard)
	return nil
}

func checkout04(t *T) error {
	ctx := t.Context()
	flow, err := toPayment(t)
	if err != nil {
		return err
	}

	t.Step(6, "Filling payment details")
	if err := flow.FillPaymentDetails(ctx, pages.TestCard); err != nil {
		return err
	}

	t.Step(7, "Paying and confirming the order")
	if err := flow.PayAndConfirm(ctx); err != nil {
		return err
	}

	t.Step(8, "Verifying order confirmation")
	if err := t.Require(flow.IsOrderPlaced(ctx), "order confirmation not displayed"); err != nil {
		return err
	}
	if text := t.Pages.Checkout.OrderConfirmationText(ctx); text != "" {
		t.Pass("Order placed: %s", text)
	} else {
		t.Pass("Order placed")
	}
	t.Screenshot("order-placed")
	return nil
}

func checkout05(t *T) error {
	ctx := t.Context()
	sess := t.Session()
	cart := t.Pages.Cart
	first := strconv.Itoa(productParam(t, "product", 1))
	second := productParam(t, "second_product", 2)

	if err := login(t, 1); err != nil {
		return err
	}
	if err := addAndViewCart(t, 2, productParam(t, "product", 1)); err != nil {
		return err
	}
	if err := t.Require(cart.IsItemInCart(ctx, first), "product %s should be in the cart", first); err != nil {
		return err
	}

	t.Step(3, "Opening the products page in a second tab")
	original, err := sess.CurrentWindow(ctx)
	if err != nil {
		return err
	}
	if _, err := sess.ExecuteScript(ctx, session.ScriptOpenWindow, t.Env().Site.ProductsURL); err != nil {
		return err
	}
	var tab string
	err = t.WaitFor(func(ctx context.Context) (bool, error) {
		handles, err := sess.WindowHandles(ctx)
		if err != nil {
			return false, err
		}
		for _, h := range handles {
			if h != original {
				tab = h
				return true, nil
			}
		}
		return false, nil
	})
	if err != nil {
		return t.Require(false, "second tab did not open: %v", err)
	}
	if err := sess.SwitchToWindow(ctx, tab); err != nil {
		return err
	}
	t.Info("Switched to tab %s", tab)

	if err := addAndViewCart(t, 4, second); err != nil {
		return err
	}
	if err := bothInCart(t, first, strconv.Itoa(second)); err != nil {
		return err
	}

	t.Step(5, "Returning to the first tab")
	if err := sess.SwitchToWindow(ctx, original); err != nil {
		return err
	}
	if err := sess.Refresh(ctx); err != nil {
		return err
	}
	if _, err := t.WaitForURL("view_cart"); err != nil {
		return err
	}
	if err := bothInCart(t, first, strconv.Itoa(second)); err != nil {
		return err
	}

	t.Step(6, "Proceeding to checkout from the first tab")
	flow := t.Pages.NewCheckoutFlow()
	stage, err := flow.ProceedToCheckout(ctx)
	if err != nil {
		return err
	}
	if err := t.Require(stage == pages.StageAddress && t.Pages.Checkout.IsAddressFormDisplayed(ctx),
		"address review should be displayed, flow reached %s", stage); err != nil {
		return err
	}
	t.Pass("Checkout works after updating the cart from another tab")

	t.Step(7, "Closing the second tab")
	if err := sess.SwitchToWindow(ctx, tab); err != nil {
		return err
	}
	if err := sess.CloseWindow(ctx); err != nil {
		return err
	}
	if err := sess.SwitchToWindow(ctx, original); err != nil {
		return err
	}
	if _, err := t.WaitForURL("checkout"); err != nil {
		return err
	}
	t.Pass("Second tab closed, first tab still on checkout")
	return nil
}

func bothInCart(t *T, first, second string) error {
	ctx := t.Context()
	a := t.Pages.Cart.IsItemInCart(ctx, first)
	b := t.Pages.Cart.IsItemInCart(ctx, second)
	t.Info("Cart contents: product %s %s, product %s %s", first, mark(a), second, mark(b))
	return t.Require(a && b, "cart should hold products %s and %s", first, second)
}
