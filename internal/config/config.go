package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

// Config holds application configuration values
type Config struct {
	// Logging
	LogLevel string
	JSONLog  bool

	// Store DSN: a file path or sqlite:// URL, or postgres://
	Store string

	// Fetching
	Mode       string
	Headless   bool
	ChromePath string
	Timeout    time.Duration
	UserAgent  string
	Proxy      string
	ProxyFile  string
	Pace       time.Duration
	PaceBurst  int
	Retries    int

	// Outputs
	MetricsFile string
	DumpDir     string
}

// Default returns a Config with every default applied
func Default() *Config {
	return &Config{
		LogLevel:  DefaultLogLevel,
		JSONLog:   DefaultJSONLog,
		Store:     DefaultStore,
		Mode:      DefaultMode,
		Headless:  DefaultHeadless,
		Timeout:   DefaultTimeout,
		UserAgent: DefaultUserAgent,
		Pace:      DefaultPace,
		PaceBurst: DefaultPaceBurst,
		Retries:   DefaultRetries,
	}
}

// Load builds a Config from defaults, then environment variables, then the
// flags set on cmd. cmd may be nil.
func Load(cmd *cobra.Command) (*Config, error) {
	cfg := Default()

	if err := applyEnv(cfg); err != nil {
		return nil, fmt.Errorf("invalid environment: %w", err)
	}

	if cmd != nil {
		if err := applyFlags(cfg, cmd); err != nil {
			return nil, fmt.Errorf("invalid flags: %w", err)
		}
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv(EnvStore); v != "" {
		cfg.Store = v
	}
	if v := os.Getenv(EnvMode); v != "" {
		cfg.Mode = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		cfg.Proxy = v
	}
	if v := os.Getenv(EnvProxyFile); v != "" {
		cfg.ProxyFile = v
	}
	if v := os.Getenv(EnvChromePath); v != "" {
		cfg.ChromePath = v
	}
	if v := os.Getenv(EnvUserAgent); v != "" {
		cfg.UserAgent = v
	}
	if v := os.Getenv(EnvMetrics); v != "" {
		cfg.MetricsFile = v
	}
	if v := os.Getenv(EnvPace); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvPace, err)
		}
		cfg.Pace = d
	}
	return nil
}

func applyFlags(cfg *Config, cmd *cobra.Command) error {
	flags := cmd.Flags()
	changed := func(name string) (string, bool) {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			return "", false
		}
		return f.Value.String(), true
	}

	for name, dst := range map[string]*string{
		"store":        &cfg.Store,
		"mode":         &cfg.Mode,
		"proxy":        &cfg.Proxy,
		"proxy-file":   &cfg.ProxyFile,
		"user-agent":   &cfg.UserAgent,
		"chrome-path":  &cfg.ChromePath,
		"metrics-file": &cfg.MetricsFile,
		"dump-dir":     &cfg.DumpDir,
	} {
		if s, ok := changed(name); ok {
			*dst = s
		}
	}

	for name, dst := range map[string]*time.Duration{
		"timeout": &cfg.Timeout,
		"pace":    &cfg.Pace,
	} {
		if s, ok := changed(name); ok {
			d, err := time.ParseDuration(s)
			if err != nil {
				return fmt.Errorf("--%s: %w", name, err)
			}
			*dst = d
		}
	}

	if s, ok := changed("retries"); ok {
		n, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("--retries: %w", err)
		}
		cfg.Retries = n
	}
	if s, ok := changed("headful"); ok && s == "true" {
		cfg.Headless = false
	}
	if s, ok := changed("json"); ok && s == "true" {
		cfg.JSONLog = true
	}
	if s, ok := changed("quiet"); ok && s == "true" {
		cfg.LogLevel = "error"
	}
	if s, ok := changed("verbose"); ok && s == "true" {
		cfg.LogLevel = "debug"
	}
	return nil
}
