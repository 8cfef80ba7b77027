package scenario

import (
	"github.com/devicelab-dev/shopflow/pkg/dataprovider"
	"github.com/devicelab-dev/shopflow/pkg/pages"
)

func registrationScenarios() []Scenario {
	return []Scenario{
		{
			ID:        "REG-01",
			Name:      "Navigate to Signup/Login page",
			Objective: "Verify user can navigate from home page to signup/login page",
			Tags:      []string{"registration", "smoke"},
			Run:       reg01,
		},
		{
			ID:        "REG-02",
			Name:      "Signup form elements",
			Objective: "Verify all signup form elements are displayed correctly",
			Tags:      []string{"registration", "smoke"},
			Run:       reg02,
		},
		{
			ID:        "REG-03",
			Name:      "Register a new account",
			Objective: "Fill the complete registration form from the data sheet and create the account",
			Tags:      []string{"registration", "data"},
			Sheet:     dataprovider.SheetRegistrations,
			Params:    map[string]string{"delete_account": "false"},
			Run:       reg03,
		},
	}
}

func reg01(t *T) error {
	ctx := t.Context()

	t.Step(1, "Opening Home Page")
	if err := t.Pages.Home.Open(ctx); err != nil {
		return err
	}

	t.Step(2, "Clicking on Signup/Login link")
	if err := t.Pages.Home.ClickSignupLogin(ctx); err != nil {
		return err
	}

	t.Step(3, "Verifying navigation to Signup/Login page")
	return t.Require(t.Pages.Signup.IsNameInputDisplayed(ctx), "signup form not displayed after navigation")
}

func reg02(t *T) error {
	ctx := t.Context()
	sp := t.Pages.Signup

	t.Step(1, "Opening Signup Page")
	if err := sp.Open(ctx); err != nil {
		return err
	}

	t.Step(2, "Verifying signup form elements")
	passed := 0
	checks := []struct {
		name string
		ok   bool
	}{
		{"Name input field", sp.IsNameInputDisplayed(ctx)},
		{"Email input field", sp.IsEmailInputDisplayed(ctx)},
		{"Signup button", sp.IsSignupButtonDisplayed(ctx)},
	}
	for _, c := range checks {
		if t.Check(c.ok, c.name+" is displayed", c.name+" is NOT displayed") {
			passed++
		}
	}
	t.Info("Total elements verified: %d, Passed: %d", len(checks), passed)
	return nil
}

func reg03(t *T) error {
	ctx := t.Context()
	row, ok := t.Row()
	if !ok {
		return t.Require(false, "REG-03 needs a %s row", dataprovider.SheetRegistrations)
	}
	reg := row.AsRegistration()
	if row.Default() {
		t.Warn("Data source missing; running with the default row")
	}
	sp := t.Pages.Signup

	t.Step(1, "Opening Signup Page")
	if err := sp.Open(ctx); err != nil {
		return err
	}

	t.Step(2, "Entering name and email")
	t.Info("Filling signup form with Name: %s, Email: %s", reg.Name, reg.Email)
	if err := sp.EnterName(ctx, reg.Name); err != nil {
		return err
	}
	if err := sp.EnterEmail(ctx, reg.Email); err != nil {
		return err
	}
	if err := sp.ClickSignup(ctx); err != nil {
		return err
	}

	expect := dataprovider.Classify(reg.ExpectedResult)

	if msg := sp.ValidationMessage(ctx); msg != "" {
		if expect == dataprovider.ExpectFailure {
			t.Pass("Validation message displayed as expected: %s", msg)
			return nil
		}
		return t.Require(false, "validation message displayed: %s", msg)
	}
	t.Info("No validation message displayed, proceeding with signup")

	if sp.IsEmailExistsErrorDisplayed(ctx) {
		if expect == dataprovider.ExpectFailure {
			t.Pass("Email Address already exist! shown as expected")
			return nil
		}
		return t.Require(false, "signup failed: Email Address already exist!")
	}

	t.Step(3, "Filling account information")
	if reg.Title != "Mr" && reg.Title != "Mrs" {
		t.Warn("Invalid title provided: %q", reg.Title)
	}
	details := pages.AccountDetails{
		Title:       reg.Title,
		Password:    reg.Password,
		DateOfBirth: reg.DateOfBirth,
		FirstName:   reg.FirstName,
		LastName:    reg.LastName,
		Company:     reg.Company,
		Address1:    reg.Address1,
		Address2:    reg.Address2,
		Country:     reg.Country,
		State:       reg.State,
		City:        reg.City,
		Zipcode:     reg.Zipcode,
		Mobile:      reg.Mobile,
	}
	if err := sp.FillAccountForm(ctx, details); err != nil {
		return err
	}

	t.Step(4, "Submitting the signup form")
	if err := sp.ClickCreateAccount(ctx); err != nil {
		return err
	}

	t.Step(5, "Verifying expected result: "+reg.ExpectedResult)
	created := sp.IsAccountCreated(ctx)
	switch expect {
	case dataprovider.ExpectSuccess:
		if err := t.Require(created, "account was not created for %s", reg.Email); err != nil {
			return err
		}
		t.Pass("Account created for %s", reg.Email)
	case dataprovider.ExpectFailure:
		if err := t.Require(!created, "account was created for %s but failure was expected", reg.Email); err != nil {
			return err
		}
		t.Pass("Account not created, as expected")
	default:
		t.Info("Account created: %t", created)
	}

	if created && t.Param("delete_account") == "true" {
		t.Step(6, "Deleting the new account")
		if err := sp.ClickContinue(ctx); err != nil {
			return err
		}
		if err := t.Pages.Home.DeleteAccount(ctx); err != nil {
			return err
		}
		t.Pass("Account deleted")
	}
	return nil
}
