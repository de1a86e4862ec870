package initializer

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/paddock/infra"
	infra_cache "github.com/amirasaad/paddock/infra/cache"
	infra_eventbus "github.com/amirasaad/paddock/infra/eventbus"
	infra_repository "github.com/amirasaad/paddock/infra/repository"
	"github.com/amirasaad/paddock/infra/repository/memory"
	"github.com/amirasaad/paddock/pkg/app"
	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/service/stats"
)

// InitializeDependencies initializes all the application dependencies
func InitializeDependencies(cfg *config.App) (
	deps *app.Deps,
	err error,
) {
	deps = &app.Deps{}
	logger := setupLogger(cfg.Log)
	deps.Logger = logger
	defer func() {
		if err != nil {
			_ = deps.Close()
		}
	}()

	if err = setupStorage(deps, cfg, logger); err != nil {
		return nil, err
	}
	if err = setupEventBus(deps, cfg, logger); err != nil {
		return nil, err
	}
	if err = setupCache(deps, cfg, logger); err != nil {
		return nil, err
	}

	calendar, err := stats.NewStaticCalendar(cfg.Stats.Rounds)
	if err != nil {
		return nil, fmt.Errorf("failed to parse round calendar: %w", err)
	}
	deps.Calendar = calendar
	return deps, nil
}

func setupStorage(deps *app.Deps, cfg *config.App, logger *slog.Logger) error {
	if strings.EqualFold(cfg.DB.Driver, infra.DriverMemory) {
		logger.Warn("Using in-memory storage; data is lost on exit")
		deps.Uow = memory.New()
		return nil
	}
	db, err := infra.NewDBConnection(cfg.DB, cfg.Env, logger)
	if err != nil {
		logger.Error("Failed to initialize database", "error", err)
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	deps.Closers = append(deps.Closers, sqlDB)
	deps.Uow = infra_repository.NewUoW(db)
	return nil
}

func setupEventBus(deps *app.Deps, cfg *config.App, logger *slog.Logger) error {
	switch strings.ToLower(cfg.EventBus.Driver) {
	case "kafka":
		bus, err := infra_eventbus.NewWithKafka(cfg.EventBus, logger)
		if err != nil {
			return fmt.Errorf("failed to create Kafka event bus: %w", err)
		}
		deps.Closers = append(deps.Closers, bus)
		deps.EventBus = bus
	case "", "memory":
		deps.EventBus = infra_eventbus.NewWithMemory(logger)
	default:
		return fmt.Errorf("unknown event bus driver %q", cfg.EventBus.Driver)
	}
	return nil
}

func setupCache(deps *app.Deps, cfg *config.App, logger *slog.Logger) error {
	if cfg.Redis.URL != "" {
		c, err := infra_cache.NewRedisCache(context.Background(), cfg.Redis, logger)
		if err != nil {
			return fmt.Errorf("failed to create Redis cache: %w", err)
		}
		deps.Closers = append(deps.Closers, c)
		deps.Cache = c
		return nil
	}
	c := infra_cache.NewMemoryCache()
	deps.Closers = append(deps.Closers, c)
	deps.Cache = c
	return nil
}
