// Package testutils wires the HTTP API over in-memory storage for handler
// tests.
package testutils

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	infra_cache "github.com/amirasaad/paddock/infra/cache"
	infra_eventbus "github.com/amirasaad/paddock/infra/eventbus"
	"github.com/amirasaad/paddock/infra/repository/memory"
	"github.com/amirasaad/paddock/pkg/app"
	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/domain/events"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/repository"
	"github.com/amirasaad/paddock/webapi"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// TestConfig returns a configuration suitable for handler tests.
func TestConfig() *config.App {
	return &config.App{
		Env:       "test",
		Server:    &config.Server{Scheme: "http", Host: "localhost", Port: 0},
		Log:       &config.Log{Format: "text"},
		DB:        &config.DB{Driver: "memory"},
		Auth:      &config.Auth{Jwt: &config.Jwt{Secret: "test-secret", Expiry: time.Hour, Issuer: "paddock-test"}},
		Redis:     &config.Redis{},
		RateLimit: &config.RateLimit{MaxRequests: 10000, Window: time.Minute},
		EventBus:  &config.EventBus{Driver: "memory"},
		Ledger:    &config.Ledger{MaxRetries: 3, RetryInitialInterval: time.Millisecond, RetryMaxElapsed: time.Second},
		Stats:     &config.Stats{CacheTTL: time.Minute},
	}
}

// TestApp is the HTTP API backed by in-memory storage and a synchronous bus.
type TestApp struct {
	App   *app.App
	Fiber *fiber.App
	Bus   *infra_eventbus.MemoryEventBus
	Uow   repository.UnitOfWork
}

// NewTestApp builds a TestApp. Options may adjust the configuration before
// the services are created.
func NewTestApp(t testing.TB, opts ...func(*config.App)) *TestApp {
	t.Helper()
	cfg := TestConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uow := memory.New()
	bus := infra_eventbus.NewWithMemory(logger)
	c := infra_cache.NewMemoryCache()
	deps := &app.Deps{
		Uow:      uow,
		EventBus: bus,
		Cache:    c,
		Logger:   logger,
		Closers:  []io.Closer{c},
	}
	t.Cleanup(func() { _ = deps.Close() })

	a := app.New(deps, cfg)
	return &TestApp{App: a, Fiber: webapi.SetupApp(a), Bus: bus, Uow: uow}
}

// Token signs a session token for userID.
func (ta *TestApp) Token(t testing.TB, userID uuid.UUID, username string, directors map[uuid.UUID]uuid.UUID) string {
	t.Helper()
	token, err := ta.App.AuthService.GenerateToken(userID, username, directors)
	require.NoError(t, err)
	return token
}

// Admin bootstraps an administrator and returns its id and token.
func (ta *TestApp) Admin(t testing.TB) (uuid.UUID, string) {
	t.Helper()
	id := uuid.New()
	_, err := ta.App.PrivilegeService.Bootstrap(context.Background(), id, "race-director")
	require.NoError(t, err)
	return id, ta.Token(t, id, "race-director", nil)
}

// Staff registers a STAFF user holding perms and returns its id and token.
func (ta *TestApp) Staff(t testing.TB, admin uuid.UUID, perms ...string) (uuid.UUID, string) {
	t.Helper()
	ctx := context.Background()
	id := uuid.New()
	u, err := ta.App.PrivilegeService.Register(ctx, id, "steward")
	require.NoError(t, err)
	actor := user.Actor{UserID: admin, Role: user.RoleAdmin}
	version, err := ta.App.PrivilegeService.UpdateRole(ctx, actor, id, user.RoleStaff, u.Version)
	require.NoError(t, err)
	if len(perms) > 0 {
		_, err = ta.App.PrivilegeService.UpdatePermissions(ctx, actor, id, perms, version)
		require.NoError(t, err)
	}
	return id, ta.Token(t, id, "steward", nil)
}

// League is a seeded league with its system account and two teams.
type League struct {
	ID      uuid.UUID
	System  *account.Account
	TeamAID uuid.UUID
	TeamA   *account.Account
	TeamBID uuid.UUID
	TeamB   *account.Account
}

// SeedLeague publishes the events that open a league with two teams.
func (ta *TestApp) SeedLeague(t testing.TB, name string) *League {
	t.Helper()
	ctx := context.Background()
	l := &League{ID: uuid.New(), TeamAID: uuid.New(), TeamBID: uuid.New()}
	require.NoError(t, ta.Bus.Emit(ctx, events.LeagueCreated{LeagueID: l.ID, LeagueName: name}))
	require.NoError(t, ta.Bus.Emit(ctx, events.TeamCreated{LeagueID: l.ID, TeamID: l.TeamAID, TeamName: "Alpine"}))
	require.NoError(t, ta.Bus.Emit(ctx, events.TeamCreated{LeagueID: l.ID, TeamID: l.TeamBID, TeamName: "Williams"}))

	var err error
	svc := ta.App.AccountService
	l.System, err = svc.GetSystemAccount(ctx, l.ID)
	require.NoError(t, err)
	l.TeamA, err = svc.GetOrCreateForOwner(ctx, l.ID, account.OwnerTeam, l.TeamAID, "Alpine")
	require.NoError(t, err)
	l.TeamB, err = svc.GetOrCreateForOwner(ctx, l.ID, account.OwnerTeam, l.TeamBID, "Williams")
	require.NoError(t, err)
	return l
}

// Balance reads an account's current balance.
func (ta *TestApp) Balance(t testing.TB, id uuid.UUID) int64 {
	t.Helper()
	a, err := ta.App.AccountService.Get(context.Background(), id)
	require.NoError(t, err)
	return a.Balance
}

// MakeRequest is a helper for making HTTP requests in tests. body may be a
// string or any value encodable as JSON. headers are key/value pairs.
func (ta *TestApp) MakeRequest(t testing.TB, method, path string, body any, token string, headers ...string) *http.Response {
	t.Helper()
	return Do(t, ta.Fiber, method, path, body, token, headers...)
}

// Do sends a request through app without a network listener.
func Do(t testing.TB, app *fiber.App, method, path string, body any, token string, headers ...string) *http.Response {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

// Envelope is the decoded shape of both success and problem responses.
type Envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Title   string          `json:"title"`
	Detail  string          `json:"detail"`
	Error   string          `json:"error"`
}

// Decode reads the response body into an Envelope.
func Decode(t testing.TB, resp *http.Response) Envelope {
	t.Helper()
	defer func() { _ = resp.Body.Close() }()
	var env Envelope
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	return env
}

// DecodeData reads the data field of a success envelope into T.
func DecodeData[T any](t testing.TB, resp *http.Response) T {
	t.Helper()
	env := Decode(t, resp)
	var out T
	require.NoError(t, json.Unmarshal(env.Data, &out), "status %d: %s", env.Status, env.Detail)
	return out
}
