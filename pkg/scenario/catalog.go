package scenario

import (
	"strconv"
	"strings"
	"sync"
)

// Default checkout credentials, overridable with the email and password
// params.
const (
	DefaultEmail    = "john.doe+test1@example.com"
	DefaultPassword = "Passw0rd!"
)

var (
	defaultOnce sync.Once
	defaultReg  *Registry
)

// Default returns the built-in catalog.
func Default() *Registry {
	defaultOnce.Do(func() {
		defaultReg = NewRegistry().MustRegister(Catalog()...)
	})
	return defaultReg
}

// Catalog returns the built-in scenarios in run order.
func Catalog() []Scenario {
	var all []Scenario
	all = append(all, registrationScenarios()...)
	all = append(all, loginScenarios()...)
	all = append(all, cartScenarios()...)
	all = append(all, checkoutScenarios()...)
	return all
}

func credentials() map[string]string {
	return map[string]string{"email": DefaultEmail, "password": DefaultPassword}
}

// productParam reads an integer product id param, falling back to def.
func productParam(t *T, key string, def int) int {
	if v := strings.TrimSpace(t.Param(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		t.Warn("param %s=%q is not a product id, using %d", key, v, def)
	}
	return def
}

// login opens the login page and signs in with the email and password
// params.
func login(t *T, step int) error {
	ctx := t.Context()
	t.Step(step, "Logging in as an existing user")
	t.Info("Credentials: email=%s, password=****", t.Param("email"))
	if err := t.Pages.Login.Open(ctx); err != nil {
		return err
	}
	if err := t.Pages.Login.PerformLogin(ctx, t.Param("email"), t.Param("password")); err != nil {
		return err
	}
	if t.Pages.Login.IsErrorTextDisplayed(ctx) {
		return t.Require(false, "login rejected for %s", t.Param("email"))
	}
	t.Info("Login completed")
	return nil
}

// addAndViewCart adds product id from the catalog and opens the cart
// through the confirmation modal.
func addAndViewCart(t *T, step, id int) error {
	ctx := t.Context()
	t.Step(step, "Adding product #"+strconv.Itoa(id)+" and opening the cart")
	if err := t.Pages.Products.Open(ctx); err != nil {
		return err
	}
	if err := t.Pages.Products.AddProductToCart(ctx, id); err != nil {
		return err
	}
	t.Info("Product #%d added to cart", id)
	if err := t.Pages.Products.ClickViewCart(ctx); err != nil {
		return err
	}
	if _, err := t.WaitForURL("view_cart"); err != nil {
		return err
	}
	t.Info("Cart page opened")
	return nil
}
