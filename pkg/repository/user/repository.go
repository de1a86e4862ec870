package user

import (
	"context"

	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/google/uuid"
)

// Repository persists user privilege records.
type Repository interface {
	Create(ctx context.Context, u *user.User) error
	Get(ctx context.Context, id uuid.UUID) (*user.User, error)
	// GetForUpdate reads the user and holds an exclusive lock on it until
	// the surrounding unit of work ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error)
	// LockAdmins locks every ADMIN row in id order and returns their ids.
	LockAdmins(ctx context.Context) ([]uuid.UUID, error)
	// UpdatePrivileges writes role, permissions and version of u only if the
	// stored version still equals expectedVersion; otherwise it fails with
	// domain.ErrVersionConflict.
	UpdatePrivileges(ctx context.Context, u *user.User, expectedVersion int64) error
	CountByRole(ctx context.Context, role user.Role) (int64, error)
}
