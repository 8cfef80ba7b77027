package pages

import (
	"context"
	"strings"

	"github.com/devicelab-dev/shopflow/pkg/locator"
	"github.com/devicelab-dev/shopflow/pkg/wait"
)

var (
	homeSignupLogin  = locator.Of("signup/login link", locator.XPath(`//a[@href="/login"]`))
	homeProducts     = locator.Of("products link", locator.LinkText("Products"), locator.XPath(`//a[@href="/products"]`))
	homeCart         = locator.Of("cart link", locator.XPath(`//a[@href="/view_cart"]`))
	homeLogout       = locator.Of("logout link", locator.XPath(`//a[contains(text(),'Logout')]`), locator.XPath(`//a[@href="/logout"]`))
	homeDelete       = locator.Of("delete account link", locator.XPath(`//a[@href='/delete_account']`))
	homeLoggedInAs   = locator.Of("logged in banner", locator.XPath(`//a[contains(.,'Logged in as')]`))
	homeDeletedTitle = locator.Of("account deleted heading", locator.XPath(`//h2[@data-qa='account-deleted']`), locator.XPath(`//b[contains(text(),'Account Deleted!')]`))
)

// Home is the storefront landing page and its header navigation.
type Home struct {
	base
}

// NewHome creates the home page object.
func NewHome(env Env) *Home {
	return &Home{base: newBase(env, "home")}
}

// Open loads the home page.
func (p *Home) Open(ctx context.Context) error {
	return opError("OpenHome", p.site.HomeURL, p.open(ctx, p.site.HomeURL))
}

// ClickSignupLogin follows the header Signup / Login link and waits for
// the login URL.
func (p *Home) ClickSignupLogin(ctx context.Context) error {
	if err := p.click(ctx, homeSignupLogin, p.waits.Default); err != nil {
		return opError("ClickSignupLogin", homeSignupLogin.Name, err)
	}
	_, err := wait.Until(ctx, p.policy(p.waits.Default), wait.URLContains(p.sess, "/login"))
	return opError("ClickSignupLogin", "login page", err)
}

// ClickProducts follows the header Products link.
func (p *Home) ClickProducts(ctx context.Context) error {
	return opError("ClickProducts", homeProducts.Name, p.click(ctx, homeProducts, p.waits.Default))
}

// ClickCart follows the header Cart link.
func (p *Home) ClickCart(ctx context.Context) error {
	return opError("ClickCart", homeCart.Name, p.click(ctx, homeCart, p.waits.Default))
}

// Logout follows the header Logout link.
func (p *Home) Logout(ctx context.Context) error {
	return opError("Logout", homeLogout.Name, p.click(ctx, homeLogout, p.waits.Default))
}

// DeleteAccount follows the header Delete Account link and waits for the
// confirmation heading.
func (p *Home) DeleteAccount(ctx context.Context) error {
	if err := p.click(ctx, homeDelete, p.waits.Default); err != nil {
		return opError("DeleteAccount", homeDelete.Name, err)
	}
	_, err := p.visible(ctx, homeDeletedTitle, p.waits.Default)
	return opError("DeleteAccount", homeDeletedTitle.Name, err)
}

// IsSignupLoginDisplayed reports whether the Signup / Login link is shown.
func (p *Home) IsSignupLoginDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsSignupLoginDisplayed", false)(p.displayed(ctx, homeSignupLogin))
}

// IsLoggedIn waits briefly for the "Logged in as" banner.
func (p *Home) IsLoggedIn(ctx context.Context) bool {
	return orDefault(p.log, "IsLoggedIn", false)(p.shownWithin(ctx, homeLoggedInAs, p.waits.Short))
}

// LoggedInUser returns the name in the "Logged in as" banner, or "".
func (p *Home) LoggedInUser(ctx context.Context) string {
	return orDefault(p.log, "LoggedInUser", "")(p.loggedInUser(ctx))
}

func (p *Home) loggedInUser(ctx context.Context) (string, error) {
	s, err := p.text(ctx, homeLoggedInAs, nil)
	if err != nil {
		return "", err
	}
	_, name, _ := strings.Cut(s, "Logged in as")
	return strings.TrimSpace(name), nil
}

// IsAccountDeleted reports whether the Account Deleted! heading is shown.
func (p *Home) IsAccountDeleted(ctx context.Context) bool {
	return orDefault(p.log, "IsAccountDeleted", false)(p.displayed(ctx, homeDeletedTitle))
}
