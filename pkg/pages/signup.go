package pages

import (
	"context"
	"strconv"
	"strings"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/locator"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"go.uber.org/zap"
)

var (
	signupName         = locator.Of("signup name", locator.Name("name"), locator.XPath(`//input[@data-qa="signup-name"]`))
	signupEmail        = locator.Of("signup email", locator.XPath(`//input[@data-qa="signup-email"]`))
	signupButton       = locator.Of("signup button", locator.XPath(`//button[@data-qa="signup-button"]`))
	signupEmailExists  = locator.Of("email exists error", locator.XPath(`//p[contains(text(),'Email Address already exist!')]`))
	signupTitleMr      = locator.Of("title Mr", locator.ID("id_gender1"))
	signupTitleMrs     = locator.Of("title Mrs", locator.ID("id_gender2"))
	signupPassword     = locator.Of("account password", locator.ID("password"))
	signupDays         = locator.Of("birth day", locator.ID("days"))
	signupMonths       = locator.Of("birth month", locator.ID("months"))
	signupYears        = locator.Of("birth year", locator.ID("years"))
	signupFirstName    = locator.Of("first name", locator.ID("first_name"))
	signupLastName     = locator.Of("last name", locator.ID("last_name"))
	signupCompany      = locator.Of("company", locator.ID("company"))
	signupAddress1     = locator.Of("address 1", locator.ID("address1"))
	signupAddress2     = locator.Of("address 2", locator.ID("address2"))
	signupCountry      = locator.Of("country", locator.ID("country"))
	signupState        = locator.Of("state", locator.ID("state"))
	signupCity         = locator.Of("city", locator.ID("city"))
	signupZipcode      = locator.Of("zipcode", locator.ID("zipcode"))
	signupMobile       = locator.Of("mobile number", locator.ID("mobile_number"))
	signupCreate       = locator.Of("create account button", locator.XPath(`//button[@data-qa='create-account']`))
	signupCreated      = locator.Of("account created heading", locator.XPath(`//h2[@data-qa='account-created']`))
	signupContinue     = locator.Of("continue button", locator.XPath(`//a[@data-qa='continue-button']`), locator.LinkText("Continue"))
	signupAccountTitle = locator.Of("account information heading", locator.XPath(`//b[contains(text(),'Enter Account Information')]`), locator.ID("password"))
)

// AccountDetails is the second signup step.
type AccountDetails struct {
	Title       string // Mr or Mrs; anything else is left unselected
	Password    string
	DateOfBirth string // DD-MM-YYYY
	FirstName   string
	LastName    string
	Company     string
	Address1    string
	Address2    string
	Country     string
	State       string
	City        string
	Zipcode     string
	Mobile      string
}

// Signup is the new-user half of /login plus the account form at /signup.
type Signup struct {
	base
}

// NewSignup creates the signup page object. It does not navigate.
func NewSignup(env Env) *Signup {
	return &Signup{base: newBase(env, "signup")}
}

// Open loads the signup entry page.
func (p *Signup) Open(ctx context.Context) error {
	return opError("OpenSignup", p.site.SignupURL, p.open(ctx, p.site.SignupURL))
}

// EnterName types the new user's name.
func (p *Signup) EnterName(ctx context.Context, name string) error {
	return opError("EnterSignupName", signupName.Name, p.typeInto(ctx, signupName, name, p.waits.Default))
}

// EnterEmail types the new user's email.
func (p *Signup) EnterEmail(ctx context.Context, email string) error {
	return opError("EnterSignupEmail", signupEmail.Name, p.typeInto(ctx, signupEmail, email, p.waits.Default))
}

// ClickSignup submits the name/email gate.
func (p *Signup) ClickSignup(ctx context.Context) error {
	return opError("ClickSignup", signupButton.Name, p.click(ctx, signupButton, p.waits.Default))
}

// IsNameInputDisplayed reports whether the name input is shown.
func (p *Signup) IsNameInputDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsNameInputDisplayed", false)(p.displayed(ctx, signupName))
}

// IsEmailInputDisplayed reports whether the email input is shown.
func (p *Signup) IsEmailInputDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsEmailInputDisplayed", false)(p.displayed(ctx, signupEmail))
}

// IsSignupButtonDisplayed reports whether the Signup button is shown.
func (p *Signup) IsSignupButtonDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsSignupButtonDisplayed", false)(p.displayed(ctx, signupButton))
}

// IsSignupButtonEnabled reports whether the Signup button is enabled.
func (p *Signup) IsSignupButtonEnabled(ctx context.Context) bool {
	return orDefault(p.log, "IsSignupButtonEnabled", false)(p.enabled(ctx, signupButton))
}

func (p *Signup) enabled(ctx context.Context, set locator.Set) (bool, error) {
	els, err := p.res.Resolve(ctx, set, nil)
	if err != nil || len(els) == 0 {
		return false, err
	}
	return p.sess.Enabled(ctx, els[0])
}

// ValidationMessage returns the browser's constraint-validation message
// for the name input, else for the email input, else "".
func (p *Signup) ValidationMessage(ctx context.Context) string {
	for _, set := range []locator.Set{signupName, signupEmail} {
		msg := orDefault(p.log, "ValidationMessage", "")(p.validation(ctx, set))
		if msg != "" {
			return msg
		}
	}
	return ""
}

func (p *Signup) validation(ctx context.Context, set locator.Set) (string, error) {
	v, err := p.property(ctx, set, session.ScriptValidationMessage)
	if err != nil {
		return "", err
	}
	s, _ := v.(string)
	return s, nil
}

// IsEmailExistsErrorDisplayed waits briefly for "Email Address already
// exist!".
func (p *Signup) IsEmailExistsErrorDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsEmailExistsErrorDisplayed", false)(p.shownWithin(ctx, signupEmailExists, p.waits.Short))
}

// IsAccountFormDisplayed waits for the account information form.
func (p *Signup) IsAccountFormDisplayed(ctx context.Context) bool {
	return orDefault(p.log, "IsAccountFormDisplayed", false)(p.shownWithin(ctx, signupAccountTitle, p.waits.Default))
}

// SelectTitle checks the Mr or Mrs radio. Other values are rejected.
func (p *Signup) SelectTitle(ctx context.Context, title string) error {
	var set locator.Set
	switch strings.ToLower(strings.TrimSpace(title)) {
	case "mr":
		set = signupTitleMr
	case "mrs":
		set = signupTitleMrs
	default:
		return opError("SelectTitle", title, core.ErrInvalidArgument.WithMessagef("unknown title %q", title))
	}
	return opError("SelectTitle", set.Name, p.click(ctx, set, p.waits.Default))
}

// IsTitleSelected reports whether the radio for title is checked.
func (p *Signup) IsTitleSelected(ctx context.Context, title string) bool {
	set := signupTitleMr
	if strings.EqualFold(title, "mrs") {
		set = signupTitleMrs
	}
	return orDefault(p.log, "IsTitleSelected", false)(p.checked(ctx, set))
}

func (p *Signup) checked(ctx context.Context, set locator.Set) (bool, error) {
	v, err := p.property(ctx, set, session.ScriptChecked)
	if err != nil {
		return false, err
	}
	b, _ := v.(bool)
	return b, nil
}

// EnterPassword types the account password. The value is never logged.
func (p *Signup) EnterPassword(ctx context.Context, password string) error {
	return opError("EnterPassword", signupPassword.Name, p.typeInto(ctx, signupPassword, password, p.waits.Default))
}

// SelectDateOfBirth picks day, month and year. Leading zeros are dropped
// to match the option values; month may also be a month name.
func (p *Signup) SelectDateOfBirth(ctx context.Context, day, month, year string) error {
	fields := []struct {
		set   locator.Set
		value string
	}{
		{signupDays, trimZeros(day)},
		{signupMonths, trimZeros(month)},
		{signupYears, strings.TrimSpace(year)},
	}
	for _, f := range fields {
		if err := p.selectIn(ctx, f.set, f.value, p.waits.Default); err != nil {
			return opError("SelectDateOfBirth", f.set.Name, err)
		}
	}
	return nil
}

// SetDateOfBirth parses DD-MM-YYYY and selects it.
func (p *Signup) SetDateOfBirth(ctx context.Context, dob string) error {
	day, month, year, err := ParseDateOfBirth(dob)
	if err != nil {
		return opError("SetDateOfBirth", dob, err)
	}
	return p.SelectDateOfBirth(ctx, day, month, year)
}

// ParseDateOfBirth splits DD-MM-YYYY into its parts.
func ParseDateOfBirth(dob string) (day, month, year string, err error) {
	parts := strings.Split(strings.TrimSpace(dob), "-")
	if len(parts) != 3 {
		return "", "", "", core.ErrInvalidArgument.WithMessagef("date of birth %q is not DD-MM-YYYY", dob)
	}
	if _, err := strconv.Atoi(parts[0]); err != nil {
		return "", "", "", core.ErrInvalidArgument.WithMessagef("date of birth %q has a non-numeric day", dob)
	}
	if _, err := strconv.Atoi(parts[2]); err != nil {
		return "", "", "", core.ErrInvalidArgument.WithMessagef("date of birth %q has a non-numeric year", dob)
	}
	return parts[0], parts[1], parts[2], nil
}

func trimZeros(s string) string {
	s = strings.TrimSpace(s)
	if n, err := strconv.Atoi(s); err == nil {
		return strconv.Itoa(n)
	}
	return s
}

// EnterFirstName types the first name.
func (p *Signup) EnterFirstName(ctx context.Context, v string) error {
	return p.field(ctx, "EnterFirstName", signupFirstName, v)
}

// EnterLastName types the last name.
func (p *Signup) EnterLastName(ctx context.Context, v string) error {
	return p.field(ctx, "EnterLastName", signupLastName, v)
}

// EnterCompany types the company name.
func (p *Signup) EnterCompany(ctx context.Context, v string) error {
	return p.field(ctx, "EnterCompany", signupCompany, v)
}

// EnterAddress1 types the first address line.
func (p *Signup) EnterAddress1(ctx context.Context, v string) error {
	return p.field(ctx, "EnterAddress1", signupAddress1, v)
}

// EnterAddress2 types the second address line.
func (p *Signup) EnterAddress2(ctx context.Context, v string) error {
	return p.field(ctx, "EnterAddress2", signupAddress2, v)
}

// SelectCountry picks the country option.
func (p *Signup) SelectCountry(ctx context.Context, country string) error {
	return opError("SelectCountry", country, p.selectIn(ctx, signupCountry, country, p.waits.Default))
}

// EnterState types the state.
func (p *Signup) EnterState(ctx context.Context, v string) error {
	return p.field(ctx, "EnterState", signupState, v)
}

// EnterCity types the city.
func (p *Signup) EnterCity(ctx context.Context, v string) error {
	return p.field(ctx, "EnterCity", signupCity, v)
}

// EnterZipcode types the zipcode.
func (p *Signup) EnterZipcode(ctx context.Context, v string) error {
	return p.field(ctx, "EnterZipcode", signupZipcode, v)
}

// EnterMobileNumber types the mobile number.
func (p *Signup) EnterMobileNumber(ctx context.Context, v string) error {
	return p.field(ctx, "EnterMobileNumber", signupMobile, v)
}

func (p *Signup) field(ctx context.Context, op string, set locator.Set, v string) error {
	return opError(op, set.Name, p.typeInto(ctx, set, v, p.waits.Default))
}

// FillAccountForm completes the account information and address form.
// An unknown title is logged and skipped.
func (p *Signup) FillAccountForm(ctx context.Context, d AccountDetails) error {
	if err := p.SelectTitle(ctx, d.Title); err != nil {
		if !core.IsKind(err, core.KindInvalidArgument) {
			return err
		}
		p.log.Warn("title not selected", zap.String("title", d.Title))
	}
	if err := p.EnterPassword(ctx, d.Password); err != nil {
		return err
	}
	if d.DateOfBirth != "" {
		if err := p.SetDateOfBirth(ctx, d.DateOfBirth); err != nil {
			return err
		}
	}
	steps := []func(context.Context, string) error{
		p.EnterFirstName, p.EnterLastName, p.EnterCompany, p.EnterAddress1, p.EnterAddress2,
	}
	values := []string{d.FirstName, d.LastName, d.Company, d.Address1, d.Address2}
	for i, step := range steps {
		if err := step(ctx, values[i]); err != nil {
			return err
		}
	}
	if d.Country != "" {
		if err := p.SelectCountry(ctx, d.Country); err != nil {
			return err
		}
	}
	steps = []func(context.Context, string) error{p.EnterState, p.EnterCity, p.EnterZipcode, p.EnterMobileNumber}
	values = []string{d.State, d.City, d.Zipcode, d.Mobile}
	for i, step := range steps {
		if err := step(ctx, values[i]); err != nil {
			return err
		}
	}
	return nil
}

// ClickCreateAccount submits the account form.
func (p *Signup) ClickCreateAccount(ctx context.Context) error {
	return opError("ClickCreateAccount", signupCreate.Name, p.click(ctx, signupCreate, p.waits.Default))
}

// IsAccountCreated waits for the Account Created! heading.
func (p *Signup) IsAccountCreated(ctx context.Context) bool {
	return orDefault(p.log, "IsAccountCreated", false)(p.shownWithin(ctx, signupCreated, p.waits.Default))
}

// ClickContinue leaves the account-created page.
func (p *Signup) ClickContinue(ctx context.Context) error {
	return opError("ClickContinue", signupContinue.Name, p.click(ctx, signupContinue, p.waits.Default))
}
