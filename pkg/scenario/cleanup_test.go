package scenario

import (
	"context"
	"testing"

	"github.com/devicelab-dev/shopflow/pkg/config"
	"github.com/devicelab-dev/shopflow/pkg/pages"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCleanup(t *testing.T) {
	s := mock.New()
	email, _, button := loginForm(s)
	button.OnClick = func(s *mock.Session) {
		if email.Value == "gone@x.com" {
			showLoginError(s)
			return
		}
		del := s.Visible(session.ByXPath, `//a[@href='/delete_account']`, "Delete Account")
		del.OnClick = func(s *mock.Session) {
			s.Visible(session.ByXPath, `//h2[@data-qa='account-deleted']`, "ACCOUNT DELETED!")
		}
	}

	users := []config.Credentials{
		{Email: "live@x.com", Password: "pw"},
		{Email: "gone@x.com", Password: "pw"},
	}
	got := Cleanup(context.Background(), pages.NewSet(testEnv(s)), users, nil)

	require.Len(t, got, 2)
	assert.Equal(t, CleanupOutcome{Email: "live@x.com", Status: CleanupDeleted, Detail: "account deleted"}, got[0])
	assert.Equal(t, CleanupSkipped, got[1].Status)
}

func TestCleanup_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := Cleanup(ctx, pages.NewSet(testEnv(mock.New())), []config.Credentials{{Email: "a@x.com"}}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, CleanupFailed, got[0].Status)
}

func TestCleanup_DeleteFails(t *testing.T) {
	s := mock.New()
	loginForm(s)

	got := Cleanup(context.Background(), pages.NewSet(testEnv(s)), []config.Credentials{{Email: "a@x.com", Password: "pw"}}, nil)
	require.Len(t, got, 1)
	assert.Equal(t, CleanupFailed, got[0].Status)
	assert.NotEmpty(t, got[0].Detail)
}
