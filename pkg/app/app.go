// Package app assembles the services of the ledger from their dependencies
// and subscribes them to the event bus.
package app

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/amirasaad/paddock/pkg/cache"
	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/eventbus"
	"github.com/amirasaad/paddock/pkg/repository"
	"github.com/amirasaad/paddock/pkg/service/account"
	"github.com/amirasaad/paddock/pkg/service/auth"
	"github.com/amirasaad/paddock/pkg/service/ledger"
	"github.com/amirasaad/paddock/pkg/service/privilege"
	"github.com/amirasaad/paddock/pkg/service/stats"
	"github.com/google/uuid"
)

// Deps contains the infrastructure the services are built on.
type Deps struct {
	Uow      repository.UnitOfWork
	EventBus eventbus.Bus
	Cache    cache.Cache
	Calendar stats.RoundCalendar
	Logger   *slog.Logger
	// Closers are released in reverse order by Close.
	Closers []io.Closer
}

// Close releases the connections held by the dependencies.
func (d *Deps) Close() error {
	var errs []error
	for i := len(d.Closers) - 1; i >= 0; i-- {
		if err := d.Closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

type App struct {
	Deps             *Deps
	Config           *config.App
	AuthService      *auth.Service
	AccountService   *account.Service
	LedgerService    *ledger.Service
	StatsService     *stats.Service
	PrivilegeService *privilege.Service
}

func New(deps *Deps, cfg *config.App) *App {
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.AuthService = auth.NewWithJWT(deps.Uow, cfg.Auth.Jwt, deps.Logger)
	app.AccountService = account.New(deps.Uow, deps.Logger)
	app.LedgerService = ledger.New(deps.Uow, deps.EventBus, cfg.Ledger, deps.Logger)
	app.StatsService = stats.New(deps.Uow, deps.Cache, deps.Calendar, cfg.Stats.CacheTTL, deps.Logger)
	app.PrivilegeService = privilege.New(deps.Uow, deps.EventBus, deps.Logger)
	app.setupEventBus()
	return app
}

// setupEventBus subscribes every service to the events it reacts to. Account
// provisioning registers before cache invalidation so a new account is
// visible by the time its league's stats are recomputed.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}
	a.AccountService.RegisterHandlers(bus)
	a.StatsService.RegisterHandlers(bus)
	a.PrivilegeService.RegisterHandlers(bus)
}

// BootstrapAdmin makes the configured user an administrator if the platform
// has none yet.
func (a *App) BootstrapAdmin(ctx context.Context) error {
	raw := a.Config.Auth.BootstrapAdminID
	if raw == "" {
		return nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return err
	}
	_, err = a.PrivilegeService.Bootstrap(ctx, id, a.Config.Auth.BootstrapAdminName)
	return err
}
