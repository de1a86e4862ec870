package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Load reads the first env file found among envFiles, searching upward from
// the working directory, then processes the environment into an App and
// validates it. Variables already set in the environment win over the file.
func Load(envFiles ...string) (*App, error) {
	logger := slog.Default()
	if path, ok := findEnvFile(envFiles); ok {
		if err := godotenv.Load(path); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
		logger.Info("Loaded environment file", "path", path)
	} else {
		logger.Debug("No environment file found, using process environment", "candidates", envFiles)
	}

	var cfg App
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.Info("App config loaded",
		"env", cfg.Env,
		"db_driver", cfg.DB.Driver,
		"db", redactURL(cfg.DB.Url),
		"event_bus", cfg.EventBus.Driver,
		"redis", redactURL(cfg.Redis.URL),
		"ledger_max_retries", cfg.Ledger.MaxRetries,
		"stats_cache_ttl", cfg.Stats.CacheTTL,
		"stats_rounds", len(cfg.Stats.Rounds),
	)
	return &cfg, nil
}

// Validate checks the settings envconfig cannot express.
func (a *App) Validate() error {
	var errs []error
	switch strings.ToLower(a.DB.Driver) {
	case "postgres", "sqlite", "memory":
	default:
		errs = append(errs, fmt.Errorf("DATABASE_DRIVER: unknown driver %q", a.DB.Driver))
	}
	switch strings.ToLower(a.EventBus.Driver) {
	case "memory":
	case "kafka":
		if len(a.EventBus.Brokers) == 0 {
			errs = append(errs, errors.New("EVENT_BUS_BROKERS: required for the kafka driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("EVENT_BUS_DRIVER: unknown driver %q", a.EventBus.Driver))
	}
	if id := a.Auth.BootstrapAdminID; id != "" {
		if _, err := uuid.Parse(id); err != nil {
			errs = append(errs, fmt.Errorf("AUTH_BOOTSTRAP_ADMIN_ID: %w", err))
		}
	}
	if a.Ledger.RetryInitialInterval <= 0 || a.Ledger.RetryMaxElapsed < a.Ledger.RetryInitialInterval {
		errs = append(errs, errors.New("LEDGER_RETRY_MAX_ELAPSED must be at least LEDGER_RETRY_INITIAL_INTERVAL"))
	}
	if a.Stats.CacheTTL < 0 {
		errs = append(errs, errors.New("STATS_CACHE_TTL must not be negative"))
	}
	var prev time.Time
	for i, s := range a.Stats.Rounds {
		at, err := time.Parse(time.RFC3339, strings.TrimSpace(s))
		if err != nil {
			errs = append(errs, fmt.Errorf("STATS_ROUNDS[%d]: %w", i, err))
			continue
		}
		if !prev.IsZero() && !at.After(prev) {
			errs = append(errs, fmt.Errorf("STATS_ROUNDS[%d]: rounds must be in increasing order", i))
		}
		prev = at
	}
	return errors.Join(errs...)
}

// findEnvFile returns the first of names found in the working directory or
// one of its parents, so tests in nested packages share the repo's env file.
func findEnvFile(names []string) (string, bool) {
	dir, err := os.Getwd()
	if err != nil {
		return "", false
	}
	for _, name := range names {
		for d := dir; ; {
			candidate := filepath.Join(d, name)
			if _, err := os.Stat(candidate); err == nil {
				return candidate, true
			}
			parent := filepath.Dir(d)
			if parent == d {
				break
			}
			d = parent
		}
	}
	return "", false
}

// redactURL hides credentials in a connection URL for logging.
func redactURL(raw string) string {
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "****"
	}
	return u.Redacted()
}
