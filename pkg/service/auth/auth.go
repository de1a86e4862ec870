// Package auth turns verified session tokens into actors.
//
// Tokens are issued by the platform's session service and signed with a shared
// HS256 secret. Role and permissions are never trusted from the token: they are
// read from the privilege record so that a role change takes effect on the
// next request. Team directorships come from the token's "directors" claim.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/amirasaad/paddock/pkg/config"
	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/repository"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ClaimUserID    = "user_id"
	ClaimUsername  = "username"
	ClaimDirectors = "directors"
)

// Service resolves actors from JWTs.
type Service struct {
	uow    repository.UnitOfWork
	cfg    *config.Jwt
	logger *slog.Logger
}

// NewWithJWT creates an auth Service for HS256 tokens.
func NewWithJWT(
	uow repository.UnitOfWork,
	cfg *config.Jwt,
	logger *slog.Logger,
) *Service {
	return &Service{uow: uow, cfg: cfg, logger: logger.With("service", "auth")}
}

// GetCurrentUserID extracts the user id claim.
func (s *Service) GetCurrentUserID(token *jwt.Token) (uuid.UUID, error) {
	claims, err := mapClaims(token)
	if err != nil {
		return uuid.Nil, err
	}
	raw, ok := claims[ClaimUserID].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("%w: user_id claim missing", domain.ErrUnauthorized)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: user_id claim is not a uuid", domain.ErrUnauthorized)
	}
	return id, nil
}

// ResolveActor builds the actor for a verified token. Users without a
// privilege record act at the USER role.
func (s *Service) ResolveActor(ctx context.Context, token *jwt.Token) (user.Actor, error) {
	log := s.logger.With("context", "ResolveActor")
	userID, err := s.GetCurrentUserID(token)
	if err != nil {
		log.Warn("Rejected token", "error", err)
		return user.Actor{}, err
	}
	claims, _ := mapClaims(token)
	username, _ := claims[ClaimUsername].(string)
	directors, err := parseDirectors(claims[ClaimDirectors])
	if err != nil {
		log.Warn("Rejected token", "user_id", userID, "error", err)
		return user.Actor{}, err
	}

	actor := user.Actor{
		UserID:    userID,
		Username:  username,
		Role:      user.RoleUser,
		Directors: directors,
	}
	repo, err := s.uow.UserRepository()
	if err != nil {
		return user.Actor{}, err
	}
	u, err := repo.Get(ctx, userID)
	switch {
	case errors.Is(err, domain.ErrNotFound):
		log.Debug("No privilege record, acting as USER", "user_id", userID)
	case err != nil:
		return user.Actor{}, err
	default:
		actor.Role = u.Role
		actor.Permissions = u.Permissions
		if actor.Username == "" {
			actor.Username = u.Username
		}
	}
	return actor, nil
}

// GenerateToken signs a session token. Used by the CLI and tests; production
// tokens come from the session service.
func (s *Service) GenerateToken(userID uuid.UUID, username string, directors map[uuid.UUID]uuid.UUID) (string, error) {
	log := s.logger.With("user_id", userID)
	dirs := make(map[string]string, len(directors))
	for league, team := range directors {
		dirs[league.String()] = team.String()
	}
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		ClaimUserID:    userID.String(),
		ClaimUsername:  username,
		ClaimDirectors: dirs,
		"iss":          s.cfg.Issuer,
		"iat":          now.Unix(),
		"exp":          now.Add(s.cfg.Expiry).Unix(),
	})
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		log.Error("GenerateToken failed", "error", err)
		return "", err
	}
	log.Debug("GenerateToken successful")
	return signed, nil
}

func mapClaims(token *jwt.Token) (jwt.MapClaims, error) {
	if token == nil {
		return nil, fmt.Errorf("%w: missing token", domain.ErrUnauthorized)
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("%w: unexpected claims type", domain.ErrUnauthorized)
	}
	return claims, nil
}

// parseDirectors reads {"<league id>": "<team id>"}.
func parseDirectors(raw any) (map[uuid.UUID]uuid.UUID, error) {
	out := make(map[uuid.UUID]uuid.UUID)
	if raw == nil {
		return out, nil
	}
	m, ok := raw.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: directors claim must be an object", domain.ErrUnauthorized)
	}
	for k, v := range m {
		league, err := uuid.Parse(k)
		if err != nil {
			return nil, fmt.Errorf("%w: directors claim has invalid league id", domain.ErrUnauthorized)
		}
		s, _ := v.(string)
		team, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("%w: directors claim has invalid team id", domain.ErrUnauthorized)
		}
		out[league] = team
	}
	return out, nil
}
