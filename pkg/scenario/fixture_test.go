package scenario

import (
	"context"
	"time"

	"github.com/devicelab-dev/shopflow/pkg/config"
	"github.com/devicelab-dev/shopflow/pkg/core"
	"github.com/devicelab-dev/shopflow/pkg/pages"
	"github.com/devicelab-dev/shopflow/pkg/session"
	"github.com/devicelab-dev/shopflow/pkg/session/mock"
)

func testEnv(s *mock.Session) pages.Env {
	return pages.Env{
		Session: s,
		Site:    config.Defaults().Site,
		Waits: config.WaitConfig{
			Default:   200 * time.Millisecond,
			Short:     50 * time.Millisecond,
			Long:      200 * time.Millisecond,
			AddToCart: 200 * time.Millisecond,
			Poll:      5 * time.Millisecond,
			PageLoad:  200 * time.Millisecond,
		},
	}
}

func newT(s *mock.Session, opts ...Option) *T {
	return NewT(context.Background(), testEnv(s), opts...)
}

// loginForm renders the login inputs with the submit button below the
// password field.
func loginForm(s *mock.Session) (email, password, button *mock.Node) {
	email = s.Add(&mock.Node{Visible: true, Enabled: true, Bounds: core.Bounds{X: 100, Y: 100, Width: 300, Height: 30}})
	s.Register(session.ByXPath, `//input[@data-qa='login-email']`, email.ID)
	password = s.Add(&mock.Node{Visible: true, Enabled: true, Bounds: core.Bounds{X: 100, Y: 150, Width: 300, Height: 30}})
	s.Register(session.ByXPath, `//input[@data-qa='login-password']`, password.ID)
	button = s.Add(&mock.Node{Visible: true, Enabled: true, Bounds: core.Bounds{X: 100, Y: 200, Width: 80, Height: 30}})
	s.Register(session.ByTagName, "button", button.ID)
	return email, password, button
}

func showLoginError(s *mock.Session) {
	s.Visible(session.ByXPath, `//p[contains(text(),'Your email or password is incorrect!')]`, "Your email or password is incorrect!")
}

func showLoggedIn(s *mock.Session) {
	s.Visible(session.ByXPath, `//a[contains(.,'Logged in as')]`, "Logged in as John")
}
