//go:build integration

package testutils

import (
	"context"
	"time"

	infra_eventbus "github.com/amirasaad/paddock/infra/eventbus"
	"github.com/amirasaad/paddock/infra/initializer"
	"github.com/amirasaad/paddock/pkg/app"
	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/webapi"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// E2ETestSuite provides a test suite with a real Postgres database using Testcontainers
type E2ETestSuite struct {
	suite.Suite
	pgContainer *tcpostgres.PostgresContainer
	deps        *app.Deps
	*TestApp
}

// startPostgresContainer starts a Postgres container using Testcontainers
func (s *E2ETestSuite) startPostgresContainer(ctx context.Context) (*tcpostgres.PostgresContainer, error) {
	return tcpostgres.Run(
		ctx,
		"postgres:15-alpine",
		tcpostgres.WithDatabase("paddock"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second),
		),
	)
}

// SetupSuite initializes the test suite with a real Postgres database. The
// schema is created by the embedded migrations.
func (s *E2ETestSuite) SetupSuite() {
	ctx := context.Background()

	pg, err := s.startPostgresContainer(ctx)
	s.Require().NoError(err)
	s.pgContainer = pg

	dsn, err := pg.ConnectionString(ctx, "sslmode=disable")
	s.Require().NoError(err)

	cfg := TestConfig()
	cfg.DB = &config.DB{
		Driver:          "postgres",
		Url:             dsn,
		MaxOpenConns:    20,
		MaxIdleConns:    5,
		ConnMaxLifetime: time.Minute,
		AutoMigrate:     true,
	}
	cfg.Ledger.MaxRetries = 10

	s.deps, err = initializer.InitializeDependencies(cfg)
	s.Require().NoError(err)

	a := app.New(s.deps, cfg)
	bus, ok := s.deps.EventBus.(*infra_eventbus.MemoryEventBus)
	s.Require().True(ok)
	s.TestApp = &TestApp{App: a, Fiber: webapi.SetupApp(a), Bus: bus, Uow: s.deps.Uow}
}

// TearDownSuite cleans up the test suite resources
func (s *E2ETestSuite) TearDownSuite() {
	if s.deps != nil {
		_ = s.deps.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(context.Background())
	}
}
