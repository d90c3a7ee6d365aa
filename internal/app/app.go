// Package app provides the core application initialization and lifecycle management.
package app

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/law-makers/labscrape/internal/config"
	"github.com/law-makers/labscrape/internal/engine"
	"github.com/law-makers/labscrape/internal/engine/dynamic"
	"github.com/law-makers/labscrape/internal/engine/static"
	"github.com/law-makers/labscrape/internal/metrics"
	"github.com/law-makers/labscrape/internal/proxy"
	"github.com/law-makers/labscrape/internal/ratelimit"
	"github.com/law-makers/labscrape/internal/retry"
	"github.com/law-makers/labscrape/internal/store"
	"github.com/law-makers/labscrape/internal/store/postgres"
	"github.com/law-makers/labscrape/internal/store/sqlite"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Application holds all application dependencies and manages their lifecycle.
//
// It is created once per command and closed when the command returns. The
// store is opened eagerly; a browser is only started by NewFetcher.
type Application struct {
	Config  *config.Config
	Logger  *zerolog.Logger
	Store   store.Store
	Limiter ratelimit.RateLimiter
	Proxies *proxy.Pool
	Metrics *metrics.Metrics

	startTime time.Time
}

// SetupLogger configures the global zerolog logger from cfg and returns it
func SetupLogger(cfg *config.Config, w io.Writer) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil || cfg.LogLevel == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if w == nil {
		w = os.Stderr
	}
	if !cfg.JSONLog {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(w).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}

// New creates and initializes a new Application with all dependencies.
//
// It performs the following initialization steps:
//   - Configures logging based on the provided config
//   - Opens the store named by cfg.Store
//   - Loads the proxy rotation file, if any
//   - Creates the pacing limiter and the metrics registry
//
// If any step fails, an error is returned and no resources are held.
func New(ctx context.Context, cfg *config.Config) (*Application, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	logger := SetupLogger(cfg, os.Stderr)
	logger.Debug().
		Str("level", cfg.LogLevel).
		Bool("json", cfg.JSONLog).
		Msg("Logger initialized")

	var proxies *proxy.Pool
	if cfg.ProxyFile != "" {
		p, err := proxy.LoadFile(cfg.ProxyFile)
		if err != nil {
			return nil, err
		}
		if p.Len() == 0 {
			return nil, fmt.Errorf("proxy file %s lists no proxies", cfg.ProxyFile)
		}
		proxies = p
		logger.Debug().Int("proxies", p.Len()).Str("file", cfg.ProxyFile).Msg("Proxy rotation enabled")
	}

	st, err := OpenStore(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}
	logger.Debug().Str("store", st.Backend()).Msg("Store opened")

	limiter := ratelimit.NewDomainLimiter(cfg.Pace, cfg.PaceBurst)
	logger.Debug().
		Dur("pace", cfg.Pace).
		Int("burst", cfg.PaceBurst).
		Msg("Rate limiter initialized")

	return &Application{
		Config:    cfg,
		Logger:    &logger,
		Store:     st,
		Limiter:   limiter,
		Proxies:   proxies,
		Metrics:   metrics.New(),
		startTime: time.Now(),
	}, nil
}

// OpenStore opens the store named by dsn. postgres:// and postgresql:// URLs
// select PostgreSQL; anything else is a SQLite path, optionally prefixed with
// sqlite://.
func OpenStore(ctx context.Context, dsn string) (store.Store, error) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgres.Open(ctx, dsn)
	case strings.HasPrefix(dsn, "sqlite://"):
		return sqlite.Open(strings.TrimPrefix(dsn, "sqlite://"))
	case dsn == "":
		return nil, fmt.Errorf("store DSN is empty")
	default:
		return sqlite.Open(dsn)
	}
}

// Retry returns the retry policy for page fetches
func (a *Application) Retry() retry.Config {
	cfg := retry.DefaultConfig()
	cfg.MaxAttempts = a.Config.Retries
	return cfg
}

// NewFetcher starts the page fetcher for the configured mode. The caller
// must Close it.
func (a *Application) NewFetcher(ctx context.Context) (engine.Fetcher, error) {
	switch a.Config.Mode {
	case config.ModeStatic:
		return static.New(static.Options{
			Timeout:   a.Config.Timeout,
			UserAgent: a.Config.UserAgent,
			Proxy:     a.Config.Proxy,
			Pool:      a.Proxies,
			Limiter:   a.Limiter,
		}), nil
	default:
		a.Logger.Debug().Msg("Starting browser session")
		s, err := dynamic.NewSession(dynamic.SessionOptions{
			Headless:   a.Config.Headless,
			UserAgent:  a.Config.UserAgent,
			Proxy:      proxy.ProxyURL(a.Config.Proxy),
			ChromePath: a.Config.ChromePath,
			Timeout:    a.Config.Timeout,
			Limiter:    a.Limiter,
		})
		if err != nil {
			return nil, err
		}
		return s, nil
	}
}

// Close writes the metrics textfile, if configured, and closes the store.
// Errors are logged and the first one is returned.
func (a *Application) Close(ctx context.Context) error {
	var first error

	if a.Config.MetricsFile != "" {
		if err := a.Metrics.WriteTextfile(a.Config.MetricsFile); err != nil {
			a.Logger.Warn().Err(err).Str("path", a.Config.MetricsFile).Msg("Failed to write metrics")
			first = err
		}
	}

	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			a.Logger.Warn().Err(err).Msg("Error closing store")
			if first == nil {
				first = err
			}
		}
	}

	a.Logger.Debug().Dur("uptime", a.Uptime()).Msg("Application shutdown complete")
	return first
}

// Uptime returns how long the application has been running.
func (a *Application) Uptime() time.Duration {
	return time.Since(a.startTime)
}
