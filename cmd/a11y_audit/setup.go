package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jonathan/a11y-audit/internal/audit"
	"github.com/jonathan/a11y-audit/internal/browser"
	"github.com/jonathan/a11y-audit/internal/checks"
	"github.com/jonathan/a11y-audit/internal/config"
	"github.com/jonathan/a11y-audit/internal/logging"
)

var (
	configPath        string
	logLevel          string
	logFormat         string
	chromePath        string
	headful           bool
	navigationTimeout time.Duration
	hydrationDelay    time.Duration
	auditTimeout      time.Duration
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to a dotenv file with A11Y_* settings")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (env A11Y_LOG_LEVEL)")
	flags.StringVar(&logFormat, "log-format", "", "Log format: console or json (env A11Y_LOG_FORMAT)")
	flags.StringVar(&chromePath, "chrome-path", "", "Chrome/Chromium binary (env A11Y_CHROME_PATH)")
	flags.BoolVar(&headful, "headful", false, "Show the browser window")
	flags.DurationVar(&navigationTimeout, "navigation-timeout", 0, "Bound on page load and network idle (env A11Y_NAVIGATION_TIMEOUT)")
	flags.DurationVar(&hydrationDelay, "hydration-delay", 0, "Wait after network idle before checks run (env A11Y_HYDRATION_DELAY)")
	flags.DurationVar(&auditTimeout, "timeout", 0, "Bound on a whole audit, 0 for none (env A11Y_AUDIT_TIMEOUT)")
}

// loadConfig layers explicitly set flags over the config file or environment.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return nil, err
	}

	// Flags are applied after the merge so an explicit zero such as
	// --hydration-delay 0 is kept.
	merged := cfg.MergeWithDefaults(config.Defaults())
	flags := cmd.Flags()
	if flags.Changed("log-level") {
		merged.LogLevel = logLevel
	}
	if flags.Changed("log-format") {
		merged.LogFormat = logFormat
	}
	if flags.Changed("chrome-path") {
		merged.ChromePath = chromePath
	}
	if flags.Changed("headful") {
		merged.Headless = !headful
	}
	if flags.Changed("navigation-timeout") {
		merged.NavigationTimeout = navigationTimeout
	}
	if flags.Changed("hydration-delay") {
		merged.HydrationDelay = hydrationDelay
	}
	if flags.Changed("timeout") {
		merged.AuditTimeout = auditTimeout
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}
	return &merged, nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger, nil
}

func newAuditor(cfg *config.Config, logger *zap.Logger) *audit.Auditor {
	launcher := browser.NewLauncher(browser.Options{
		Headless:          cfg.Headless,
		NoSandbox:         cfg.NoSandbox,
		ExecPath:          cfg.ChromePath,
		UserAgent:         cfg.UserAgent,
		NavigationTimeout: cfg.NavigationTimeout,
		HydrationDelay:    cfg.HydrationDelay,
		FetchTimeout:      cfg.FetchTimeout,
	}, logger)

	return audit.New(audit.Chrome(launcher),
		audit.WithSuite(checks.NewSuite(cfg.KeySettleDelay)),
		audit.WithLogger(logger),
		audit.WithTimeout(cfg.AuditTimeout),
		audit.WithConcurrency(cfg.MaxConcurrency),
	)
}
