// Package privilege changes user roles and staff permissions under optimistic
// concurrency control, and guarantees the platform keeps an administrator.
package privilege

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/events"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/eventbus"
	"github.com/amirasaad/paddock/pkg/repository"
	"github.com/google/uuid"
)

// Service is the privilege mutator.
type Service struct {
	uow    repository.UnitOfWork
	bus    eventbus.Bus
	logger *slog.Logger
}

// New creates a new privilege Service.
func New(
	uow repository.UnitOfWork,
	bus eventbus.Bus,
	logger *slog.Logger,
) *Service {
	return &Service{
		uow:    uow,
		bus:    bus,
		logger: logger.With("service", "privilege"),
	}
}

func requireAdmin(actor user.Actor) error {
	if !actor.IsAdmin() {
		return fmt.Errorf("%w: administrator role required", domain.ErrForbidden)
	}
	return nil
}

// UpdateRole sets the target's role if expectedVersion is current and returns
// the resulting version. Demoting the only administrator fails with
// domain.ErrLastAdmin whatever the version. Setting the current role is a
// no-op that returns the unchanged version.
func (s *Service) UpdateRole(
	ctx context.Context,
	actor user.Actor,
	targetID uuid.UUID,
	newRole user.Role,
	expectedVersion int64,
) (version int64, err error) {
	logger := s.logger.With("actor_id", actor.UserID, "target_id", targetID, "role", newRole)
	if err = requireAdmin(actor); err != nil {
		logger.Warn("Role change refused", "error", err)
		return 0, err
	}
	if !newRole.Valid() {
		return 0, user.ErrInvalidRole
	}

	var (
		changed bool
		oldRole user.Role
	)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		// Admin rows first, then the target: every role change takes locks
		// in the same order.
		admins, err := users.LockAdmins(ctx)
		if err != nil {
			return err
		}
		target, err := users.GetForUpdate(ctx, targetID)
		if err != nil {
			return err
		}
		if target.IsAdmin() && newRole != user.RoleAdmin && len(admins) <= 1 {
			return domain.ErrLastAdmin
		}
		if err := target.CheckVersion(expectedVersion); err != nil {
			return err
		}

		oldRole = target.Role
		changed, err = target.ChangeRole(newRole)
		if err != nil {
			return err
		}
		version = target.Version
		if !changed {
			return nil
		}
		if err := users.UpdatePrivileges(ctx, target, expectedVersion); err != nil {
			return err
		}
		history, err := uow.HistoryRepository()
		if err != nil {
			return err
		}
		return history.Append(ctx, user.NewRoleChange(actor.UserID, targetID, oldRole, newRole))
	})
	if err != nil {
		logger.Warn("Role change failed", "expected_version", expectedVersion, "error", err)
		return 0, err
	}
	if !changed {
		logger.Debug("Role unchanged", "version", version)
		return version, nil
	}

	logger.Info("Role changed", "from", oldRole, "version", version)
	s.publish(ctx, events.RoleChanged{
		UserID:     targetID,
		ChangerID:  actor.UserID,
		OldRole:    string(oldRole),
		NewRole:    string(newRole),
		NewVersion: version,
	}, logger)
	return version, nil
}

// UpdatePermissions replaces a STAFF user's permission set if expectedVersion
// is current and returns the resulting version.
func (s *Service) UpdatePermissions(
	ctx context.Context,
	actor user.Actor,
	targetID uuid.UUID,
	permissions []string,
	expectedVersion int64,
) (version int64, err error) {
	logger := s.logger.With("actor_id", actor.UserID, "target_id", targetID)
	if err = requireAdmin(actor); err != nil {
		logger.Warn("Permission change refused", "error", err)
		return 0, err
	}
	if _, err = user.NormalizePermissions(permissions); err != nil {
		return 0, err
	}

	var (
		changed  bool
		old, now []string
	)
	err = s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		target, err := users.GetForUpdate(ctx, targetID)
		if err != nil {
			return err
		}
		if err := target.CheckVersion(expectedVersion); err != nil {
			return err
		}
		old = append([]string(nil), target.Permissions...)
		changed, err = target.ChangePermissions(permissions)
		if err != nil {
			return err
		}
		version = target.Version
		now = target.Permissions
		if !changed {
			return nil
		}
		if err := users.UpdatePrivileges(ctx, target, expectedVersion); err != nil {
			return err
		}
		history, err := uow.HistoryRepository()
		if err != nil {
			return err
		}
		return history.Append(ctx, user.NewPermissionChange(actor.UserID, targetID, old, now))
	})
	if err != nil {
		logger.Warn("Permission change failed", "expected_version", expectedVersion, "error", err)
		return 0, err
	}
	if !changed {
		logger.Debug("Permissions unchanged", "version", version)
		return version, nil
	}

	logger.Info("Permissions changed", "permissions", strings.Join(now, ","), "version", version)
	s.publish(ctx, events.PermissionsChanged{
		UserID:         targetID,
		ChangerID:      actor.UserID,
		OldPermissions: old,
		NewPermissions: now,
		NewVersion:     version,
	}, logger)
	return version, nil
}

// History returns the privilege changes applied to target, oldest first.
func (s *Service) History(ctx context.Context, actor user.Actor, targetID uuid.UUID) ([]*user.ChangeRecord, error) {
	if err := requireAdmin(actor); err != nil {
		return nil, err
	}
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	if _, err := users.Get(ctx, targetID); err != nil {
		return nil, err
	}
	history, err := s.uow.HistoryRepository()
	if err != nil {
		return nil, err
	}
	return history.ListByTarget(ctx, targetID)
}

// Get returns a user's privilege record.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	return users.Get(ctx, id)
}

// Register records a newly registered platform user at the USER role. It is
// a no-op for a user that already has a record.
func (s *Service) Register(ctx context.Context, id uuid.UUID, username string) (*user.User, error) {
	u, err := user.NewUser(id, username)
	if err != nil {
		return nil, err
	}
	users, err := s.uow.UserRepository()
	if err != nil {
		return nil, err
	}
	err = users.Create(ctx, u)
	if errors.Is(err, domain.ErrAlreadyExists) {
		return users.Get(ctx, id)
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("User registered", "user_id", id)
	return u, nil
}

// Bootstrap makes id an administrator when the platform has none. It is how
// the first administrator comes to exist.
func (s *Service) Bootstrap(ctx context.Context, id uuid.UUID, username string) (*user.User, error) {
	var out *user.User
	err := s.uow.Do(ctx, func(uow repository.UnitOfWork) error {
		users, err := uow.UserRepository()
		if err != nil {
			return err
		}
		admins, err := users.LockAdmins(ctx)
		if err != nil {
			return err
		}
		if len(admins) > 0 {
			s.logger.Debug("Administrator already present, skipping bootstrap", "admins", len(admins))
			return nil
		}
		target, err := users.GetForUpdate(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			target, err = user.NewUser(id, username)
			if err != nil {
				return err
			}
			if _, err := target.ChangeRole(user.RoleAdmin); err != nil {
				return err
			}
			out = target
			return users.Create(ctx, target)
		}
		if err != nil {
			return err
		}
		expected := target.Version
		if _, err := target.ChangeRole(user.RoleAdmin); err != nil {
			return err
		}
		out = target
		return users.UpdatePrivileges(ctx, target, expected)
	})
	if err != nil {
		return nil, err
	}
	if out != nil {
		s.logger.Info("Bootstrapped administrator", "user_id", id)
	}
	return out, nil
}

func (s *Service) publish(ctx context.Context, evt events.Event, logger *slog.Logger) {
	if s.bus == nil {
		return
	}
	if err := s.bus.Emit(ctx, evt); err != nil {
		logger.Error("Failed to publish privilege event", "type", evt.Type(), "error", err)
	}
}
