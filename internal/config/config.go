// File: internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// ErrMissingBaseURL is returned when no target URL has been configured. It is
// fatal: nothing is navigated until the target is known.
var ErrMissingBaseURL = errors.New("target.base_url is not set (set BASEURL in .env or FORMPROBE_TARGET_BASE_URL)")

// Supported browser drivers.
const (
	DriverPlaywright = "playwright"
	DriverChromedp   = "chromedp"
	DriverStatic     = "static"
)

// Supported defect report formats.
const (
	ReportSARIF = "sarif"
	ReportJSON  = "json"
	ReportJUnit = "junit"
)

// Config holds the entire application configuration.
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Target   TargetConfig   `mapstructure:"target" yaml:"target"`
	Browser  BrowserConfig  `mapstructure:"browser" yaml:"browser"`
	Resolver ResolverConfig `mapstructure:"resolver" yaml:"resolver"`
	Report   ReportConfig   `mapstructure:"report" yaml:"report"`
	Suite    SuiteConfig    `mapstructure:"suite" yaml:"suite"`
}

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// TargetConfig points the suite at the page under test.
type TargetConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"`
}

// BrowserConfig holds settings for the browser pages the steps drive.
type BrowserConfig struct {
	Driver   string   `mapstructure:"driver" yaml:"driver"`
	Headless bool     `mapstructure:"headless" yaml:"headless"`
	Args     []string `mapstructure:"args" yaml:"args"`
	// Pages is the number of pre-opened pages every step is replayed on.
	Pages             int           `mapstructure:"pages" yaml:"pages"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
	ActionTimeout     time.Duration `mapstructure:"action_timeout" yaml:"action_timeout"`
	ActionsPerSecond  float64       `mapstructure:"actions_per_second" yaml:"actions_per_second"`
	InstallPlaywright bool          `mapstructure:"install_playwright" yaml:"install_playwright"`
	IgnoreTLSErrors   bool          `mapstructure:"ignore_tls_errors" yaml:"ignore_tls_errors"`
	StaticUserAgent   string        `mapstructure:"static_user_agent" yaml:"static_user_agent"`
}

// ResolverConfig tunes the field resolution chain.
type ResolverConfig struct {
	// AttemptTimeout bounds how long each strategy waits for its match to become visible.
	AttemptTimeout time.Duration `mapstructure:"attempt_timeout" yaml:"attempt_timeout"`
}

// ReportConfig controls where known-defect reports are written.
type ReportConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Output string `mapstructure:"output" yaml:"output"`
}

// SuiteConfig configures the godog run.
type SuiteConfig struct {
	Paths  []string `mapstructure:"paths" yaml:"paths"`
	Tags   string   `mapstructure:"tags" yaml:"tags"`
	Format string   `mapstructure:"format" yaml:"format"`
	Strict bool     `mapstructure:"strict" yaml:"strict"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "formprobe")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 20)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")

	// -- Browser --
	v.SetDefault("browser.driver", DriverPlaywright)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.pages", 1)
	v.SetDefault("browser.navigation_timeout", "30s")
	v.SetDefault("browser.action_timeout", "5s")
	v.SetDefault("browser.actions_per_second", 0)
	v.SetDefault("browser.install_playwright", false)
	v.SetDefault("browser.static_user_agent", "formprobe/static")

	// -- Resolver --
	v.SetDefault("resolver.attempt_timeout", "800ms")

	// -- Report --
	v.SetDefault("report.format", ReportSARIF)
	v.SetDefault("report.output", "")

	// -- Suite --
	v.SetDefault("suite.paths", []string{"features"})
	v.SetDefault("suite.format", "pretty")
	v.SetDefault("suite.strict", true)
}

// BindEnv wires the environment variables that do not follow the FORMPROBE_
// prefix convention.
func BindEnv(v *viper.Viper) {
	// BASEURL is the variable name used by existing .env files.
	_ = v.BindEnv("target.base_url", "FORMPROBE_TARGET_BASE_URL", "BASEURL")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	BindEnv(v)

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Browser.Driver = strings.ToLower(strings.TrimSpace(cfg.Browser.Driver))
	cfg.Target.BaseURL = strings.TrimSpace(cfg.Target.BaseURL)
	cfg.Report.Format = strings.ToLower(strings.TrimSpace(cfg.Report.Format))

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.Target.Validate(); err != nil {
		return err
	}
	switch c.Browser.Driver {
	case DriverPlaywright, DriverChromedp, DriverStatic:
	default:
		return fmt.Errorf("browser.driver %q is not supported (use %s, %s or %s)",
			c.Browser.Driver, DriverPlaywright, DriverChromedp, DriverStatic)
	}
	switch c.Report.Format {
	case ReportSARIF, ReportJSON, ReportJUnit:
	default:
		return fmt.Errorf("report.format %q is not supported (use %s, %s or %s)",
			c.Report.Format, ReportSARIF, ReportJSON, ReportJUnit)
	}
	if c.Browser.Pages <= 0 {
		return fmt.Errorf("browser.pages must be a positive integer")
	}
	if c.Browser.ActionsPerSecond < 0 {
		return fmt.Errorf("browser.actions_per_second must not be negative")
	}
	if c.Resolver.AttemptTimeout <= 0 {
		return fmt.Errorf("resolver.attempt_timeout must be a positive duration")
	}
	return nil
}

// Validate checks that a usable base URL is present.
func (t TargetConfig) Validate() error {
	if t.BaseURL == "" {
		return ErrMissingBaseURL
	}
	u, err := url.Parse(t.BaseURL)
	if err != nil {
		return fmt.Errorf("target.base_url %q is not a valid URL: %w", t.BaseURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("target.base_url %q must use http or https", t.BaseURL)
	}
	return nil
}
