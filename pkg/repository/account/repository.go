package account

import (
	"context"

	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/google/uuid"
)

// Repository persists league accounts.
type Repository interface {
	// Create inserts a new account. A second account for the same
	// (league, owner type, owner id) fails with domain.ErrAlreadyExists.
	Create(ctx context.Context, a *account.Account) error
	Get(ctx context.Context, id uuid.UUID) (*account.Account, error)
	// GetForUpdate reads the account and holds an exclusive lock on it until
	// the surrounding unit of work ends.
	GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error)
	GetByOwner(ctx context.Context, leagueID uuid.UUID, ownerType account.OwnerType, ownerID uuid.UUID) (*account.Account, error)
	ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*account.Account, error)
	UpdateBalance(ctx context.Context, id uuid.UUID, balance int64) error
	// UpdateOwnerName renames every account held by the owner across leagues.
	UpdateOwnerName(ctx context.Context, ownerType account.OwnerType, ownerID uuid.UUID, name string) error
}
