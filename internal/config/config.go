// Package config provides configuration loading and validation for the audit engine.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/jonathan/a11y-audit/internal/logging"
)

// EnvPrefix is prepended to every environment variable read by Load.
const EnvPrefix = "A11Y_"

// Default values.
const (
	DefaultPort              = 8080
	DefaultLogLevel          = "info"
	DefaultLogFormat         = logging.FormatConsole
	DefaultNavigationTimeout = 30 * time.Second
	DefaultHydrationDelay    = 2 * time.Second
	DefaultKeySettleDelay    = 50 * time.Millisecond
	DefaultFetchTimeout      = 30 * time.Second
	DefaultMaxConcurrency    = 4
)

// Config holds every tunable of the audit engine, the HTTP server and the CLI.
// Zero values mean "unset" and are filled by MergeWithDefaults.
type Config struct {
	// Server
	Port int

	// Logging
	LogLevel  string
	LogFormat string

	// Browser
	Headless   bool
	NoSandbox  bool
	ChromePath string // Explicit browser binary; empty uses chromedp's lookup
	UserAgent  string // Overrides the browser's user agent when set

	// Timing
	NavigationTimeout time.Duration // Bound on load + network idle
	HydrationDelay    time.Duration // Grace period after network idle
	KeySettleDelay    time.Duration // Wait after each synthetic key press
	FetchTimeout      time.Duration // Bound on the document re-fetch
	AuditTimeout      time.Duration // Whole-audit bound, 0 = none

	// Batch
	MaxConcurrency int
}

// Defaults returns the configuration used when nothing else is set.
func Defaults() Config {
	return Config{
		Port:              DefaultPort,
		LogLevel:          DefaultLogLevel,
		LogFormat:         DefaultLogFormat,
		Headless:          true,
		NoSandbox:         true,
		NavigationTimeout: DefaultNavigationTimeout,
		HydrationDelay:    DefaultHydrationDelay,
		KeySettleDelay:    DefaultKeySettleDelay,
		FetchTimeout:      DefaultFetchTimeout,
		MaxConcurrency:    DefaultMaxConcurrency,
	}
}

// Load builds a Config from A11Y_* environment variables layered over Defaults.
func Load() (*Config, error) {
	return FromLookup(os.LookupEnv)
}

// LoadFile reads a dotenv-style file and builds a Config from its A11Y_* entries,
// falling back to the process environment for keys the file does not set.
func LoadFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("config path is empty")
	}
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return FromLookup(func(key string) (string, bool) {
		if v, ok := values[key]; ok {
			return v, true
		}
		return os.LookupEnv(key)
	})
}

// FromLookup builds a Config using lookup to resolve variables.
func FromLookup(lookup func(string) (string, bool)) (*Config, error) {
	cfg := Defaults()
	p := parser{lookup: lookup}

	p.int("PORT", &cfg.Port)
	p.string("LOG_LEVEL", &cfg.LogLevel)
	p.string("LOG_FORMAT", &cfg.LogFormat)
	p.bool("HEADLESS", &cfg.Headless)
	p.bool("NO_SANDBOX", &cfg.NoSandbox)
	p.string("CHROME_PATH", &cfg.ChromePath)
	p.string("USER_AGENT", &cfg.UserAgent)
	p.duration("NAVIGATION_TIMEOUT", &cfg.NavigationTimeout)
	p.duration("HYDRATION_DELAY", &cfg.HydrationDelay)
	p.duration("KEY_SETTLE_DELAY", &cfg.KeySettleDelay)
	p.duration("FETCH_TIMEOUT", &cfg.FetchTimeout)
	p.duration("AUDIT_TIMEOUT", &cfg.AuditTimeout)
	p.int("MAX_CONCURRENCY", &cfg.MaxConcurrency)

	if p.err != nil {
		return nil, p.err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks that the configuration has valid values.
func (c *Config) Validate() error {
	if c.Port < 0 || c.Port > 65535 {
		return fmt.Errorf("config error: port must be between 0 and 65535, got %d", c.Port)
	}
	if c.LogLevel != "" {
		if _, err := logging.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("config error: %w", err)
		}
	}
	switch strings.ToLower(c.LogFormat) {
	case "", logging.FormatJSON, logging.FormatConsole:
	default:
		return fmt.Errorf("config error: log format must be %s or %s, got %q", logging.FormatJSON, logging.FormatConsole, c.LogFormat)
	}

	durations := map[string]time.Duration{
		"navigation_timeout": c.NavigationTimeout,
		"hydration_delay":    c.HydrationDelay,
		"key_settle_delay":   c.KeySettleDelay,
		"fetch_timeout":      c.FetchTimeout,
		"audit_timeout":      c.AuditTimeout,
	}
	for name, d := range durations {
		if d < 0 {
			return fmt.Errorf("config error: '%s' must be non-negative", name)
		}
	}

	if c.MaxConcurrency < 0 {
		return fmt.Errorf("config error: 'max_concurrency' must be non-negative")
	}
	return nil
}

// MergeWithDefaults returns a new Config with zero-valued fields filled from defaults.
// This is used to apply CLI flag values over environment values.
func (c *Config) MergeWithDefaults(defaults Config) Config {
	result := *c

	if result.Port == 0 {
		result.Port = defaults.Port
	}
	if result.LogLevel == "" {
		result.LogLevel = defaults.LogLevel
	}
	if result.LogFormat == "" {
		result.LogFormat = defaults.LogFormat
	}
	if result.ChromePath == "" {
		result.ChromePath = defaults.ChromePath
	}
	if result.UserAgent == "" {
		result.UserAgent = defaults.UserAgent
	}
	if result.NavigationTimeout == 0 {
		result.NavigationTimeout = defaults.NavigationTimeout
	}
	if result.FetchTimeout == 0 {
		result.FetchTimeout = defaults.FetchTimeout
	}
	if result.AuditTimeout == 0 {
		result.AuditTimeout = defaults.AuditTimeout
	}
	if result.MaxConcurrency == 0 {
		result.MaxConcurrency = defaults.MaxConcurrency
	}

	// HydrationDelay and KeySettleDelay are not merged: zero disables the wait.
	// Load and FromLookup already start from Defaults, so an unset value is never zero.

	// Bool fields: cannot distinguish unset from false, so we don't merge
	// (CLI flags should always win for bools)

	return result
}

// parser reads prefixed variables and keeps the first error.
type parser struct {
	lookup func(string) (string, bool)
	err    error
}

func (p *parser) get(name string) (string, bool) {
	if p.err != nil {
		return "", false
	}
	v, ok := p.lookup(EnvPrefix + name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (p *parser) string(name string, dst *string) {
	if v, ok := p.get(name); ok {
		*dst = v
	}
}

func (p *parser) int(name string, dst *int) {
	v, ok := p.get(name)
	if !ok {
		return
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s%s: %v", EnvPrefix, name, err)
		return
	}
	*dst = n
}

func (p *parser) bool(name string, dst *bool) {
	v, ok := p.get(name)
	if !ok {
		return
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s%s: %v", EnvPrefix, name, err)
		return
	}
	*dst = b
}

func (p *parser) duration(name string, dst *time.Duration) {
	v, ok := p.get(name)
	if !ok {
		return
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.err = fmt.Errorf("invalid %s%s: %v", EnvPrefix, name, err)
		return
	}
	*dst = d
}
