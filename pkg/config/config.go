// Package config handles layered configuration for shopflow.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override (SHOPFLOW_WAITS_DEFAULT...).
const EnvPrefix = "SHOPFLOW"

// EnvBrowser selects the browser without the nested key form.
const EnvBrowser = "SHOPFLOW_BROWSER"

// Config represents the workspace configuration (config.yaml).
type Config struct {
	Browser   BrowserConfig   `mapstructure:"browser" yaml:"browser"`
	Site      SiteConfig      `mapstructure:"site" yaml:"site"`
	Waits     WaitConfig      `mapstructure:"waits" yaml:"waits"`
	Suite     SuiteConfig     `mapstructure:"suite" yaml:"suite"`
	Data      DataConfig      `mapstructure:"data" yaml:"data"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Artifacts ArtifactsConfig `mapstructure:"artifacts" yaml:"artifacts"`
	Overlays  []string        `mapstructure:"overlays" yaml:"overlays"` // CSS selectors removed before a scroll-retry click
	Cleanup   CleanupConfig   `mapstructure:"cleanup" yaml:"cleanup"`

	// Warnings collected while validating (clamped values etc.)
	Warnings []string `mapstructure:"-" yaml:"-"`
}

// BrowserConfig selects and shapes the browser session.
type BrowserConfig struct {
	Name         string   `mapstructure:"name" yaml:"name"` // chrome, chromium, edge, firefox
	Headless     bool     `mapstructure:"headless" yaml:"headless"`
	RemoteURL    string   `mapstructure:"remote_url" yaml:"remote_url"` // W3C endpoint; empty launches a local browser
	WindowWidth  int      `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight int      `mapstructure:"window_height" yaml:"window_height"`
	Args         []string `mapstructure:"args" yaml:"args"`
	ExecPath     string   `mapstructure:"exec_path" yaml:"exec_path"`
}

// SiteConfig holds the application URLs.
type SiteConfig struct {
	HomeURL     string `mapstructure:"home_url" yaml:"home_url"`
	LoginURL    string `mapstructure:"login_url" yaml:"login_url"`
	SignupURL   string `mapstructure:"signup_url" yaml:"signup_url"`
	ProductsURL string `mapstructure:"products_url" yaml:"products_url"`
	CartURL     string `mapstructure:"cart_url" yaml:"cart_url"`
	CheckoutURL string `mapstructure:"checkout_url" yaml:"checkout_url"`
	PaymentURL  string `mapstructure:"payment_url" yaml:"payment_url"`
}

// WaitConfig holds the wait windows used by page objects.
type WaitConfig struct {
	Default   time.Duration `mapstructure:"default" yaml:"default"`
	Short     time.Duration `mapstructure:"short" yaml:"short"`
	Long      time.Duration `mapstructure:"long" yaml:"long"`
	AddToCart time.Duration `mapstructure:"add_to_cart" yaml:"add_to_cart"`
	Poll      time.Duration `mapstructure:"poll" yaml:"poll"`
	PageLoad  time.Duration `mapstructure:"page_load" yaml:"page_load"`
}

// SuiteConfig controls execution.
type SuiteConfig struct {
	Retries         int     `mapstructure:"retries" yaml:"retries"`
	Parallel        int     `mapstructure:"parallel" yaml:"parallel"`
	StartsPerSecond float64 `mapstructure:"starts_per_second" yaml:"starts_per_second"` // 0 = unlimited
}

// DataConfig points at the test data workbook.
type DataConfig struct {
	Workbook     string `mapstructure:"workbook" yaml:"workbook"`
	WriteResults bool   `mapstructure:"write_results" yaml:"write_results"`
}

// LogConfig controls pkg/logger.
type LogConfig struct {
	Level      string `mapstructure:"level" yaml:"level"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	Console    bool   `mapstructure:"console" yaml:"console"`
}

// ArtifactsConfig controls failure artifacts.
type ArtifactsConfig struct {
	Screenshot bool `mapstructure:"screenshot" yaml:"screenshot"`
	PageSource bool `mapstructure:"page_source" yaml:"page_source"`
	OnSuccess  bool `mapstructure:"on_success" yaml:"on_success"`
}

// CleanupConfig lists accounts removed by `shopflow cleanup`.
type CleanupConfig struct {
	Users []Credentials `mapstructure:"users" yaml:"users"`
}

// Credentials is an email/password pair.
type Credentials struct {
	Email    string `mapstructure:"email" yaml:"email"`
	Password string `mapstructure:"password" yaml:"password"`
}

// MaxRetries is the upper bound on suite-level re-executions.
const MaxRetries = 2

var knownBrowsers = map[string]bool{
	"chrome":   true,
	"chromium": true,
	"edge":     true,
	"firefox":  true,
}

// SetDefaults registers the built-in defaults on v.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("browser.name", "chrome")
	v.SetDefault("browser.headless", false)
	v.SetDefault("browser.remote_url", "")
	v.SetDefault("browser.window_width", 1920)
	v.SetDefault("browser.window_height", 1080)
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.exec_path", "")

	base := "https://automationexercise.com"
	v.SetDefault("site.home_url", base+"/")
	v.SetDefault("site.login_url", base+"/login")
	v.SetDefault("site.signup_url", base+"/signup")
	v.SetDefault("site.products_url", base+"/products")
	v.SetDefault("site.cart_url", base+"/view_cart")
	v.SetDefault("site.checkout_url", base+"/checkout")
	v.SetDefault("site.payment_url", base+"/payment")

	v.SetDefault("waits.default", "10s")
	v.SetDefault("waits.short", "5s")
	v.SetDefault("waits.long", "20s")
	v.SetDefault("waits.add_to_cart", "15s")
	v.SetDefault("waits.poll", "250ms")
	v.SetDefault("waits.page_load", "30s")

	v.SetDefault("suite.retries", MaxRetries)
	v.SetDefault("suite.parallel", 1)
	v.SetDefault("suite.starts_per_second", 0)

	v.SetDefault("data.workbook", "testdata/TestData.xlsx")
	v.SetDefault("data.write_results", false)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.console", false)

	v.SetDefault("artifacts.screenshot", true)
	v.SetDefault("artifacts.page_source", true)
	v.SetDefault("artifacts.on_success", false)

	v.SetDefault("overlays", []string{`iframe[id^="aswift"]`, `iframe[title="Advertisement"]`})
	v.SetDefault("cleanup.users", defaultCleanupUsers())
}

func defaultCleanupUsers() []map[string]interface{} {
	pairs := [][2]string{
		{"john.doe+test1@example.com", "Passw0rd!"},
		{"priya.sharma@example.co.in", "P@ss1234"},
		{"longname.user@example.com", "LongPass123!"},
		{"notitleuser@example.com", "pwd"},
		{"unicode.user@example.com", "Un1c0de!"},
		{"sql.injection@example.com", "P@ssword1"},
		{"test.user+signup@example.com", "Complex#1234"},
		{"john.doe+test1@example.com", "AnotherPass1!"},
	}
	users := make([]map[string]interface{}, 0, len(pairs))
	for _, p := range pairs {
		users = append(users, map[string]interface{}{"email": p[0], "password": p[1]})
	}
	return users
}

// New returns a viper instance with defaults and environment binding applied.
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindEnv(v)
	return v
}

// bindEnv binds every leaf key to SHOPFLOW_<SECTION>_<KEY>. AutomaticEnv is
// not used: SHOPFLOW_BROWSER would then shadow the whole browser section.
func bindEnv(v *viper.Viper) {
	for _, key := range v.AllKeys() {
		switch key {
		case "browser.name":
			// SHOPFLOW_BROWSER wins over SHOPFLOW_BROWSER_NAME when both are set.
			_ = v.BindEnv(key, EnvBrowser, EnvPrefix+"_BROWSER_NAME")
		case "cleanup.users":
			// structured list; config file or --user only
		default:
			_ = v.BindEnv(key)
		}
	}
}

// Defaults returns the built-in configuration without reading files or the environment.
func Defaults() *Config {
	v := viper.New()
	SetDefaults(v)
	cfg, err := decode(v)
	if err != nil {
		panic(fmt.Sprintf("failed to decode default config: %v", err))
	}
	return cfg
}

// Load loads configuration from a file, layered over defaults and the environment.
// An empty path loads defaults and the environment only.
func Load(path string) (*Config, error) {
	v, err := Open(path)
	if err != nil {
		return nil, err
	}
	return finish(v)
}

// Open returns a viper instance with defaults, the environment and the
// config file at path. Callers layer flags on top and call Decode.
func Open(path string) (*viper.Viper, error) {
	v := New()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}
	return v, nil
}

// LoadFromDir looks for config.yaml or config.yml in the directory.
// No config file yields defaults plus the environment.
func LoadFromDir(dir string) (*Config, error) {
	return Load(FindFile(dir))
}

// FindFile returns config.yaml or config.yml in dir, or "" when neither exists.
func FindFile(dir string) string {
	for _, name := range []string{"config.yaml", "config.yml"} {
		p := filepath.Join(dir, name)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// LoadEnvFile loads a .env file into the process environment. Variables
// already set are not overridden. A missing default file is not an error.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !required && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("load env file %s: %w", path, err)
	}
	return nil
}

// Decode unmarshals and validates an already populated viper instance.
// The CLI uses it after binding flags.
func Decode(v *viper.Viper) (*Config, error) {
	return finish(v)
}

func finish(v *viper.Viper) (*Config, error) {
	cfg, err := decode(v)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func decode(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Browser.Name = strings.ToLower(strings.TrimSpace(cfg.Browser.Name))
	return &cfg, nil
}

// Validate checks the configuration for sane values. Retries above the
// maximum are clamped and recorded in Warnings.
func (c *Config) Validate() error {
	if c.Browser.Name == "" {
		c.Browser.Name = "chrome"
	}
	if !knownBrowsers[c.Browser.Name] {
		return fmt.Errorf("browser.name %q is not supported", c.Browser.Name)
	}

	urls := map[string]string{
		"site.home_url":     c.Site.HomeURL,
		"site.login_url":    c.Site.LoginURL,
		"site.signup_url":   c.Site.SignupURL,
		"site.products_url": c.Site.ProductsURL,
		"site.cart_url":     c.Site.CartURL,
		"site.checkout_url": c.Site.CheckoutURL,
		"site.payment_url":  c.Site.PaymentURL,
	}
	for key, u := range urls {
		if strings.TrimSpace(u) == "" {
			return fmt.Errorf("%s must not be empty", key)
		}
	}

	if c.Waits.Default <= 0 || c.Waits.Poll <= 0 {
		return fmt.Errorf("waits.default and waits.poll must be positive durations")
	}
	if c.Waits.Poll > c.Waits.Default {
		return fmt.Errorf("waits.poll (%s) must not exceed waits.default (%s)", c.Waits.Poll, c.Waits.Default)
	}

	if c.Suite.Retries < 0 {
		c.Suite.Retries = 0
	}
	if c.Suite.Retries > MaxRetries {
		c.Warnings = append(c.Warnings, fmt.Sprintf("suite.retries %d clamped to %d", c.Suite.Retries, MaxRetries))
		c.Suite.Retries = MaxRetries
	}
	if c.Suite.Parallel <= 0 {
		c.Suite.Parallel = 1
	}
	if c.Suite.StartsPerSecond < 0 {
		return fmt.Errorf("suite.starts_per_second must not be negative")
	}
	return nil
}
