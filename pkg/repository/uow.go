package repository

import (
	"context"

	"github.com/amirasaad/paddock/pkg/repository/account"
	"github.com/amirasaad/paddock/pkg/repository/history"
	"github.com/amirasaad/paddock/pkg/repository/transaction"
	"github.com/amirasaad/paddock/pkg/repository/user"
)

// UnitOfWork defines the contract for transactional work and type-safe repository access.
//
// Repositories obtained from the uow passed to Do share its transaction: row
// locks taken through them are held, and writes become visible, only when fn
// returns nil and the unit commits. Repositories obtained outside Do run each
// call on its own.
type UnitOfWork interface {
	// Do executes the given function within a transaction boundary.
	// If the function returns an error, the transaction is rolled back.
	Do(ctx context.Context, fn func(uow UnitOfWork) error) error

	AccountRepository() (account.Repository, error)
	TransactionRepository() (transaction.Repository, error)
	UserRepository() (user.Repository, error)
	HistoryRepository() (history.Repository, error)
}
