package pages

import (
	"context"

	"github.com/devicelab-dev/shopflow/pkg/locator"
	"go.uber.org/zap"
)

var (
	loginEmail    = locator.Of("login email", locator.XPath(`//input[@data-qa='login-email']`))
	loginPassword = locator.Of("login password", locator.XPath(`//input[@data-qa='login-password']`))
	loginButton   = locator.Of("login button",
		locator.Relative(locator.Tag("button"), locator.Below, loginPassword),
		locator.XPath(`//button[@data-qa='login-button']`),
	)
	loginError = locator.Of("login error", locator.XPath(`//p[contains(text(),'Your email or password is incorrect!')]`))
)

// Login is the returning-customer half of the /login page.
type Login struct {
	base
}

// NewLogin creates the login page object. It does not navigate.
func NewLogin(env Env) *Login {
	return &Login{base: newBase(env, "login")}
}

// Open loads the login page.
func (p *Login) Open(ctx context.Context) error {
	return opError("OpenLogin", p.site.LoginURL, p.open(ctx, p.site.LoginURL))
}

// EnterEmail types the login email.
func (p *Login) EnterEmail(ctx context.Context, email string) error {
	p.log.Info("entering login email", zap.String("email", email))
	return opError("EnterLoginEmail", loginEmail.Name, p.typeInto(ctx, loginEmail, email, p.waits.Default))
}

// EnterPassword types the login password. The value is never logged.
func (p *Login) EnterPassword(ctx context.Context, password string) error {
	p.log.Info("entering login password")
	return opError("EnterLoginPassword", loginPassword.Name, p.typeInto(ctx, loginPassword, password, p.waits.Default))
}

// ClickLogin clicks the button below the password field.
func (p *Login) ClickLogin(ctx context.Context) error {
	return opError("ClickLogin", loginButton.Name, p.click(ctx, loginButton, p.waits.Default))
}

// PerformLogin enters both credentials and submits.
func (p *Login) PerformLogin(ctx context.Context, email, password string) error {
	p.log.Info("performing login", zap.String("email", email))
	if err := p.EnterEmail(ctx, email); err != nil {
		return err
	}
	if err := p.EnterPassword(ctx, password); err != nil {
		return err
	}
	return p.ClickLogin(ctx)
}

// IsErrorTextDisplayed waits briefly for the invalid-credentials banner.
func (p *Login) IsErrorTextDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsErrorTextDisplayed", false)(p.shownWithin(ctx, loginError, p.waits.Short))
}

// IsEmailInputDisplayed reports whether the email input is shown.
func (p *Login) IsEmailInputDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsEmailInputDisplayed", false)(p.displayed(ctx, loginEmail))
}

// IsPasswordInputDisplayed reports whether the password input is shown.
func (p *Login) IsPasswordInputDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsPasswordInputDisplayed", false)(p.displayed(ctx, loginPassword))
}

// IsLoginButtonDisplayed reports whether the login button is shown.
func (p *Login) IsLoginButtonDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsLoginButtonDisplayed", false)(p.displayed(ctx, loginButton))
}
