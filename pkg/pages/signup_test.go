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

func TestParseDateOfBirth(t *testing.T) {
	tests := []struct {
		in               string
		day, month, year string
		wantErr          bool
	}{
		{in: "05-03-1990", day: "05", month: "03", year: "1990"},
		{in: "1-January-2000", day: "1", month: "January", year: "2000"},
		{in: "05/03/1990", wantErr: true},
		{in: "xx-03-1990", wantErr: true},
		{in: "05-03-", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		d, m, y, err := ParseDateOfBirth(tt.in)
		if tt.wantErr {
			assert.Truef(t, core.IsKind(err, core.KindInvalidArgument), "%q: err = %v", tt.in, err)
			continue
		}
		require.NoErrorf(t, err, "%q", tt.in)
		assert.Equal(t, []string{tt.day, tt.month, tt.year}, []string{d, m, y})
	}
}

func TestTrimZeros(t *testing.T) {
	assert.Equal(t, "5", trimZeros("05"))
	assert.Equal(t, "12", trimZeros(" 12 "))
	assert.Equal(t, "March", trimZeros("March"))
}

// accountForm renders the /signup account information form.
func accountForm(s *mock.Session) map[string]*mock.Node {
	nodes := map[string]*mock.Node{}
	for _, id := range []string{"password", "first_name", "last_name", "company", "address1", "address2", "state", "city", "zipcode", "mobile_number"} {
		nodes[id] = s.Visible(session.ByID, id, "")
	}
	for id, opts := range map[string][]string{
		"days":    {"1", "2", "5", "31"},
		"months":  {"1", "3", "12"},
		"years":   {"1990", "2000"},
		"country": {"India", "United States", "Canada"},
	} {
		n := s.Visible(session.ByID, id, "")
		n.Options = opts
		nodes[id] = n
	}
	for _, id := range []string{"id_gender1", "id_gender2"} {
		n := s.Visible(session.ByID, id, "")
		n.Attrs["type"] = "radio"
		nodes[id] = n
	}
	return nodes
}

func TestFillAccountForm(t *testing.T) {
	s := mock.New()
	nodes := accountForm(s)
	signup := NewSignup(testEnv(s))

	err := signup.FillAccountForm(context.Background(), AccountDetails{
		Title:       "Mrs",
		Password:    "P@ss1234",
		DateOfBirth: "05-03-1990",
		FirstName:   "Priya",
		LastName:    "Sharma",
		Company:     "Acme",
		Address1:    "1 Main St",
		Address2:    "Flat 2",
		Country:     "India",
		State:       "KA",
		City:        "Bengaluru",
		Zipcode:     "560001",
		Mobile:      "9999999999",
	})
	require.NoError(t, err)

	assert.True(t, nodes["id_gender2"].Checked)
	assert.True(t, signup.IsTitleSelected(context.Background(), "Mrs"))
	assert.False(t, signup.IsTitleSelected(context.Background(), "Mr"))
	assert.Equal(t, "5", nodes["days"].Value)
	assert.Equal(t, "3", nodes["months"].Value)
	assert.Equal(t, "1990", nodes["years"].Value)
	assert.Equal(t, "India", nodes["country"].Value)
	assert.Equal(t, "Bengaluru", nodes["city"].Value)
	assert.Equal(t, "9999999999", nodes["mobile_number"].Value)
}

func TestFillAccountForm_UnknownTitleIsSkipped(t *testing.T) {
	s := mock.New()
	nodes := accountForm(s)

	err := NewSignup(testEnv(s)).FillAccountForm(context.Background(), AccountDetails{Title: "Dr", Password: "pwd", Country: "Canada"})
	require.NoError(t, err)
	assert.False(t, nodes["id_gender1"].Checked)
	assert.False(t, nodes["id_gender2"].Checked)
	assert.Equal(t, "Canada", nodes["country"].Value)
}

func TestFillAccountForm_UnknownCountry(t *testing.T) {
	s := mock.New()
	accountForm(s)

	err := NewSignup(testEnv(s)).FillAccountForm(context.Background(), AccountDetails{Title: "Mr", Country: "Atlantis"})
	var op *OpError
	require.ErrorAs(t, err, &op)
	assert.Equal(t, "SelectCountry", op.Op)
	assert.Equal(t, core.KindNotFound, op.Kind())
}

func TestSignupGate(t *testing.T) {
	s := mock.New()
	name := s.Visible(session.ByName, "name", "")
	email := s.Visible(session.ByXPath, `//input[@data-qa="signup-email"]`, "")
	button := s.Visible(session.ByXPath, `//button[@data-qa="signup-button"]`, "Signup")
	button.OnClick = func(s *mock.Session) {
		s.Visible(session.ByXPath, `//p[contains(text(),'Email Address already exist!')]`, "Email Address already exist!")
	}
	signup := NewSignup(testEnv(s))
	ctx := context.Background()

	assert.True(t, signup.IsNameInputDisplayed(ctx))
	assert.True(t, signup.IsEmailInputDisplayed(ctx))
	assert.True(t, signup.IsSignupButtonDisplayed(ctx))
	assert.True(t, signup.IsSignupButtonEnabled(ctx))

	require.NoError(t, signup.EnterName(ctx, "John"))
	require.NoError(t, signup.EnterEmail(ctx, "john.doe+test1@example.com"))
	require.NoError(t, signup.ClickSignup(ctx))

	assert.Equal(t, "John", name.Value)
	assert.Equal(t, "john.doe+test1@example.com", email.Value)
	assert.True(t, signup.IsEmailExistsErrorDisplayed(ctx))
}

func TestValidationMessage(t *testing.T) {
	s := mock.New()
	s.Visible(session.ByName, "name", "")
	email := s.Visible(session.ByXPath, `//input[@data-qa="signup-email"]`, "")
	signup := NewSignup(testEnv(s))

	assert.Equal(t, "", signup.ValidationMessage(context.Background()))

	email.Validation = "Please include an '@' in the email address."
	assert.Equal(t, "Please include an '@' in the email address.", signup.ValidationMessage(context.Background()))
}

func TestAccountCreated(t *testing.T) {
	s := mock.New()
	create := s.Visible(session.ByXPath, `//button[@data-qa='create-account']`, "Create Account")
	create.OnClick = func(s *mock.Session) {
		s.Visible(session.ByXPath, `//h2[@data-qa='account-created']`, "Account Created!")
		s.Visible(session.ByXPath, `//a[@data-qa='continue-button']`, "Continue")
	}
	signup := NewSignup(testEnv(s))
	ctx := context.Background()

	assert.False(t, signup.IsAccountCreated(ctx))
	require.NoError(t, signup.ClickCreateAccount(ctx))
	assert.True(t, signup.IsAccountCreated(ctx))
	require.NoError(t, signup.ClickContinue(ctx))
}
