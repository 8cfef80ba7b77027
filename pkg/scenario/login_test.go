package scenario

import (
	"testing"

	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/dataprovider"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loginRow(expected string) dataprovider.Row {
	return dataprovider.NewRow(dataprovider.SheetLogin, 2, []string{"TC_LOGIN", "john@x.com", "secret", expected})
}

func TestLogin03_ExpectedFailureSeesBanner(t *testing.T) {
	s := mock.New()
	email, _, button := loginForm(s)
	button.OnClick = showLoginError

	st := newT(s, WithRow(loginRow("Fail")))
	require.NoError(t, login03(st))
	assert.False(t, st.Failed())
	assert.Equal(t, "john@x.com", email.Value)
}

func TestLogin03_ExpectedSuccessRejected(t *testing.T) {
	s := mock.New()
	_, _, button := loginForm(s)
	button.OnClick = showLoginError

	st := newT(s, WithRow(loginRow("Pass")))
	err := login03(st)
	assert.ErrorIs(t, err, core.ErrAssertion)
	assert.True(t, st.Failed())
}

func TestLogin03_ExpectedSuccess(t *testing.T) {
	s := mock.New()
	_, _, button := loginForm(s)
	button.OnClick = showLoggedIn

	st := newT(s, WithRow(loginRow("success")))
	require.NoError(t, login03(st))
	assert.False(t, st.Failed())
}

func TestLogin03_UnknownExpectationPassesEitherWay(t *testing.T) {
	s := mock.New()
	loginForm(s)

	st := newT(s, WithRow(loginRow("")))
	require.NoError(t, login03(st))
	assert.False(t, st.Failed())
}

func TestLogin03_NeedsRow(t *testing.T) {
	st := newT(mock.New())
	assert.ErrorIs(t, login03(st), core.ErrAssertion)
}

func TestLogin02_MissingElements(t *testing.T) {
	st := newT(mock.New())
	err := login02(st)
	assert.ErrorIs(t, err, core.ErrAssertion)
}
