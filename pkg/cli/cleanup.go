package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/devicelab-dev/shopflow/pkg/config"
	"github.com/devicelab-dev/shopflow/pkg/logger"
	"github.com/devicelab-dev/shopflow/pkg/pages"
	"github.com/devicelab-dev/shopflow/pkg/scenario"
	"github.com/devicelab-dev/shopflow/pkg/session"
)

var cleanupCommand = &cli.Command{
	Name:  "cleanup",
	Usage: "Delete test accounts left behind by registration scenarios",
	Description: `Log in as each configured user and delete the account. Users whose login
is rejected are skipped.

Accounts come from cleanup.users in config.yaml unless --user is given.

Examples:
  shopflow cleanup
  shopflow cleanup --user someone@example.com:secret`,
	Flags: []cli.Flag{
		&cli.StringSliceFlag{
			Name:  "user",
			Usage: "Account to delete as email:password (repeatable)",
		},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if c.IsSet("user") {
			users, err := parseUsers(c.StringSlice("user"))
			if err != nil {
				return err
			}
			cfg.Cleanup.Users = users
		}

		if err := logger.Init(logger.Options{Level: cfg.Log.Level, Console: cfg.Log.Console, Name: "shopflow"}); err != nil {
			return err
		}
		defer logger.Close()

		factory, err := session.NewFactory(session.Options{
			Browser:  cfg.Browser,
			PageLoad: cfg.Waits.PageLoad,
			Logger:   logger.Named("session"),
		})
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return executeCleanup(ctx, cfg, factory, os.Stdout)
	},
}

func parseUsers(values []string) ([]config.Credentials, error) {
	users := make([]config.Credentials, 0, len(values))
	for _, v := range values {
		email, password, ok := strings.Cut(v, ":")
		if !ok || strings.TrimSpace(email) == "" {
			return nil, fmt.Errorf("invalid --user %q, expected email:password", v)
		}
		users = append(users, config.Credentials{Email: strings.TrimSpace(email), Password: password})
	}
	return users, nil
}

func executeCleanup(ctx context.Context, cfg *config.Config, factory session.Factory, w io.Writer) error {
	if len(cfg.Cleanup.Users) == 0 {
		fmt.Fprintln(w, "No accounts configured for cleanup.")
		return nil
	}

	log := logger.L()
	sess, err := factory(ctx)
	if err != nil {
		return fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Debug("session close failed", zap.Error(err))
		}
	}()

	set := pages.NewSet(pages.EnvFromConfig(sess, cfg, logger.Named("pages")))
	outcomes := scenario.Cleanup(ctx, set, cfg.Cleanup.Users, log)
	if printCleanup(w, outcomes) > 0 {
		return cli.Exit("", 1)
	}
	return nil
}

// printCleanup prints one row per account and returns the failure count.
func printCleanup(w io.Writer, outcomes []scenario.CleanupOutcome) int {
	failed := 0
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  %-40s %-8s %s\n", "Account", "Status", "Detail")
	fmt.Fprintln(w, strings.Repeat("─", 80))
	for _, o := range outcomes {
		statusColor := colorGreen
		switch o.Status {
		case scenario.CleanupSkipped:
			statusColor = colorCyan
		case scenario.CleanupFailed:
			statusColor = colorRed
			failed++
		}
		fmt.Fprintf(w, "  %-40s %s%-8s%s %s\n", o.Email, color(statusColor), o.Status, color(colorReset), o.Detail)
	}
	fmt.Fprintln(w, strings.Repeat("─", 80))
	fmt.Fprintf(w, "  %d account(s), %d failed\n\n", len(outcomes), failed)
	return failed
}
