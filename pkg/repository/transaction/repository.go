package transaction

import (
	"context"

	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/google/uuid"
)

// Repository is the append-only transaction log. There is no
// update or delete.
type Repository interface {
	// Create appends a transaction. A repeated (league, idempotency key) fails
	// with domain.ErrAlreadyExists.
	Create(ctx context.Context, tx *account.Transaction) error
	Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, leagueID uuid.UUID, key string) (*account.Transaction, error)
	// ListByAccount returns transactions touching the account, newest first,
	// and the total count. A non-positive limit returns everything.
	ListByAccount(ctx context.Context, accountID uuid.UUID, offset, limit int) ([]*account.Transaction, int64, error)
	// ListByLeague returns the league log oldest first.
	ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*account.Transaction, error)
	SumByCategory(ctx context.Context, leagueID uuid.UUID) (map[account.Category]int64, error)
}
