// Package cli provides the command-line interface for shopflow.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
	"github.com/urfave/cli/v2"

	"github.com/devicelab-dev/shopflow/pkg/config"
)

// Version is set at build time.
var Version = "dev"

// GlobalFlags are available to all commands.
var GlobalFlags = []cli.Flag{
	&cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to config.yaml (default: ./config.yaml when present)",
		EnvVars: []string{"SHOPFLOW_CONFIG"},
	},
	&cli.StringFlag{
		Name:  "env-file",
		Usage: "Load environment variables from this file (default: ./.env when present)",
	},
	&cli.StringFlag{
		Name:    "browser",
		Aliases: []string{"b"},
		Usage:   "Browser to run (chrome, chromium, edge, firefox)",
		EnvVars: []string{config.EnvBrowser},
	},
	&cli.BoolFlag{
		Name:  "headless",
		Usage: "Run the browser without a window",
	},
	&cli.StringFlag{
		Name:    "remote-url",
		Usage:   "W3C WebDriver endpoint (Selenium Grid, geckodriver); empty launches a local browser",
		EnvVars: []string{"SHOPFLOW_REMOTE_URL"},
	},
	&cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level (debug, info, warn, error)",
	},
	&cli.BoolFlag{
		Name:    "verbose",
		Aliases: []string{"v"},
		Usage:   "Also log to the console",
		EnvVars: []string{"SHOPFLOW_VERBOSE"},
	},
	&cli.BoolFlag{
		Name:  "no-ansi",
		Usage: "Disable ANSI colors",
	},
}

// NewApp builds the application.
func NewApp() *cli.App {
	return &cli.App{
		Name:    "shopflow",
		Usage:   "UI regression suite for the automationexercise.com storefront",
		Version: Version,
		Description: `Shopflow drives a browser through registration, login, cart and checkout
scenarios, reporting each step and writing data-driven results back to the
test workbook.

Examples:
  shopflow run
  shopflow run --suite suites/smoke.yaml --parallel 2
  shopflow --browser firefox --remote-url http://localhost:4444 run
  shopflow list --tags
  shopflow report reports/2026-01-02_10-00-00 --allure`,
		Flags: GlobalFlags,
		Before: func(c *cli.Context) error {
			if c.Bool("no-ansi") {
				colorsEnabled = false
			}
			return nil
		},
		Commands: []*cli.Command{
			runCommand,
			cleanupCommand,
			listCommand,
			reportCommand,
		},
	}
}

// Execute runs the CLI.
func Execute() {
	if err := NewApp().Run(os.Args); err != nil {
		if _, ok := err.(cli.ExitCoder); ok {
			cli.HandleExitCoder(err)
			return
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig layers defaults, the config file, .env, the environment and
// the global flags.
func loadConfig(c *cli.Context) (*config.Config, error) {
	envFile := c.String("env-file")
	if err := config.LoadEnvFile(envFile, envFile != ""); err != nil {
		return nil, err
	}

	path := c.String("config")
	if path == "" {
		path = config.FindFile(".")
	}
	v, err := config.Open(path)
	if err != nil {
		return nil, err
	}
	applyFlags(c, v)
	return config.Decode(v)
}

func applyFlags(c *cli.Context, v *viper.Viper) {
	if c.IsSet("browser") {
		v.Set("browser.name", c.String("browser"))
	}
	if c.IsSet("headless") {
		v.Set("browser.headless", c.Bool("headless"))
	}
	if c.IsSet("remote-url") {
		v.Set("browser.remote_url", c.String("remote-url"))
	}
	if c.IsSet("log-level") {
		v.Set("log.level", c.String("log-level"))
	}
	if c.Bool("verbose") {
		v.Set("log.console", true)
	}
}
