package pages

import (
	"context"
	"testing"

	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHome_LoggedInBanner(t *testing.T) {
	s := mock.New()
	home := NewHome(testEnv(s))
	ctx := context.Background()

	assert.False(t, home.IsLoggedIn(ctx))
	assert.Equal(t, "", home.LoggedInUser(ctx))

	s.Visible(session.ByXPath, `//a[contains(.,'Logged in as')]`, " Logged in as John Doe")
	assert.True(t, home.IsLoggedIn(ctx))
	assert.Equal(t, "John Doe", home.LoggedInUser(ctx))
}

func TestHome_ClickSignupLogin(t *testing.T) {
	s := mock.New()
	link := s.Visible(session.ByXPath, `//a[@href="/login"]`, "Signup / Login")
	link.OnClick = func(s *mock.Session) { s.URL = "https://automationexercise.com/login" }

	require.NoError(t, NewHome(testEnv(s)).ClickSignupLogin(context.Background()))
	assert.True(t, NewHome(testEnv(s)).IsSignupLoginDisplayed(context.Background()))
}

func TestHome_DeleteAccount(t *testing.T) {
	s := mock.New()
	link := s.Visible(session.ByXPath, `//a[@href='/delete_account']`, "Delete Account")
	link.OnClick = func(s *mock.Session) {
		s.Visible(session.ByXPath, `//h2[@data-qa='account-deleted']`, "Account Deleted!")
	}
	home := NewHome(testEnv(s))

	require.NoError(t, home.DeleteAccount(context.Background()))
	assert.True(t, home.IsAccountDeleted(context.Background()))
}

func TestHome_NavigationLinks(t *testing.T) {
	s := mock.New()
	products := s.Visible(session.ByLinkText, "Products", "Products")
	cart := s.Visible(session.ByXPath, `//a[@href="/view_cart"]`, "Cart")
	logout := s.Visible(session.ByXPath, `//a[contains(text(),'Logout')]`, "Logout")
	home := NewHome(testEnv(s))
	ctx := context.Background()

	require.NoError(t, home.ClickProducts(ctx))
	require.NoError(t, home.ClickCart(ctx))
	require.NoError(t, home.Logout(ctx))
	for _, n := range []*mock.Node{products, cart, logout} {
		assert.Equal(t, 1, s.Calls("Click:"+n.ID))
	}
}
