package auth_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/amirasaad/paddock/infra/repository/memory"
	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/service/auth"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var jwtCfg = &config.Jwt{Secret: "test-secret", Expiry: time.Hour, Issuer: "paddock"}

func parse(t *testing.T, signed string) *jwt.Token {
	t.Helper()
	token, err := jwt.Parse(signed, func(*jwt.Token) (any, error) { return []byte(jwtCfg.Secret), nil })
	require.NoError(t, err)
	return token
}

func TestResolveActor_FromPrivilegeRecord(t *testing.T) {
	t.Parallel()
	uow := memory.New()
	svc := auth.NewWithJWT(uow, jwtCfg, slog.Default())
	ctx := context.Background()

	id := uuid.New()
	u := user.NewUserFromData(id, "stewie", user.RoleStaff, []string{user.PermFinanceManage}, 3, time.Now(), time.Now())
	repo, err := uow.UserRepository()
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, u))

	league, team := uuid.New(), uuid.New()
	signed, err := svc.GenerateToken(id, "stewie", map[uuid.UUID]uuid.UUID{league: team})
	require.NoError(t, err)

	actor, err := svc.ResolveActor(ctx, parse(t, signed))
	require.NoError(t, err)
	assert.Equal(t, id, actor.UserID)
	assert.Equal(t, user.RoleStaff, actor.Role)
	assert.True(t, actor.CanManageFinance())
	got, ok := actor.DirectedTeam(league)
	assert.True(t, ok)
	assert.Equal(t, team, got)
}

func TestResolveActor_UnknownUserActsAsUser(t *testing.T) {
	t.Parallel()
	svc := auth.NewWithJWT(memory.New(), jwtCfg, slog.Default())

	signed, err := svc.GenerateToken(uuid.New(), "guest", nil)
	require.NoError(t, err)
	actor, err := svc.ResolveActor(context.Background(), parse(t, signed))
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, actor.Role)
	assert.Empty(t, actor.Directors)
}

func TestResolveActor_BadClaims(t *testing.T) {
	t.Parallel()
	svc := auth.NewWithJWT(memory.New(), jwtCfg, slog.Default())

	tests := map[string]jwt.MapClaims{
		"missing user":   {"username": "x"},
		"bad user":       {"user_id": "nope"},
		"bad directors":  {"user_id": uuid.NewString(), "directors": []any{"x"}},
		"bad league key": {"user_id": uuid.NewString(), "directors": map[string]any{"x": uuid.NewString()}},
	}
	for name, claims := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ResolveActor(context.Background(), jwt.NewWithClaims(jwt.SigningMethodHS256, claims))
			assert.ErrorIs(t, err, domain.ErrUnauthorized)
		})
	}

	_, err := svc.ResolveActor(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnauthorized)
}
