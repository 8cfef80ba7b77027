package scenario

import (
	"context"

	"github.com/devicelab-dev/shopflow/pkg/config"
	"github.com/devicelab-dev/shopflow/pkg/pages"
	"go.uber.org/zap"
)

// CleanupStatus is the outcome of deleting one test account.
type CleanupStatus string

// Cleanup outcomes
const (
	CleanupDeleted CleanupStatus = "deleted"
	CleanupSkipped CleanupStatus = "skipped" // Login rejected: no such account
	CleanupFailed  CleanupStatus = "failed"
)

// CleanupOutcome reports what happened to one account.
type CleanupOutcome struct {
	Email  string
	Status CleanupStatus
	Detail string
}

// Cleanup deletes the given test accounts one after another through the UI.
// An account whose login is rejected is skipped. A cancelled ctx marks the
// remaining accounts failed.
func Cleanup(ctx context.Context, set *pages.Set, users []config.Credentials, log *zap.Logger) []CleanupOutcome {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("cleanup")
	out := make([]CleanupOutcome, 0, len(users))
	for _, u := range users {
		o := cleanupOne(ctx, set, u)
		log.Info("account cleanup",
			zap.String("email", u.Email),
			zap.String("status", string(o.Status)),
			zap.String("detail", o.Detail))
		out = append(out, o)
	}
	return out
}

func cleanupOne(ctx context.Context, set *pages.Set, u config.Credentials) CleanupOutcome {
	failed := func(err error) CleanupOutcome {
		return CleanupOutcome{Email: u.Email, Status: CleanupFailed, Detail: err.Error()}
	}
	if err := ctx.Err(); err != nil {
		return failed(err)
	}
	if err := set.Login.Open(ctx); err != nil {
		return failed(err)
	}
	if err := set.Login.PerformLogin(ctx, u.Email, u.Password); err != nil {
		return failed(err)
	}
	if set.Login.IsErrorTextDisplayed(ctx) {
		return CleanupOutcome{Email: u.Email, Status: CleanupSkipped, Detail: "login rejected"}
	}
	if err := set.Home.DeleteAccount(ctx); err != nil {
		// Leave the session signed out for the next account.
		_ = set.Home.Logout(ctx)
		return failed(err)
	}
	return CleanupOutcome{Email: u.Email, Status: CleanupDeleted, Detail: "account deleted"}
}
