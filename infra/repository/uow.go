package repository

import (
	"context"

	"github.com/amirasaad/paddock/pkg/repository"
	accountrepo "github.com/amirasaad/paddock/pkg/repository/account"
	historyrepo "github.com/amirasaad/paddock/pkg/repository/history"
	txrepo "github.com/amirasaad/paddock/pkg/repository/transaction"
	userrepo "github.com/amirasaad/paddock/pkg/repository/user"
	"gorm.io/gorm"
)

// UoW provides transaction boundary and repository access in one abstraction.
// Repositories handed out inside Do share the transaction's session.
type UoW struct {
	db *gorm.DB
	tx *gorm.DB
}

// NewUoW creates a new UoW for the given *gorm.DB.
func NewUoW(db *gorm.DB) *UoW {
	return &UoW{db: db}
}

// Do runs the given function in a transaction boundary, providing a UoW with repository access.
// Nested calls join the outer transaction.
func (u *UoW) Do(ctx context.Context, fn func(uow repository.UnitOfWork) error) error {
	if u.tx != nil {
		return fn(u)
	}
	err := u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&UoW{db: u.db, tx: tx})
	})
	return MapGormErrorToDomain(err)
}

func (u *UoW) session() *gorm.DB {
	if u.tx != nil {
		return u.tx
	}
	return u.db
}

func (u *UoW) AccountRepository() (accountrepo.Repository, error) {
	return NewAccountRepository(u.session()), nil
}

func (u *UoW) TransactionRepository() (txrepo.Repository, error) {
	return NewTransactionRepository(u.session()), nil
}

func (u *UoW) UserRepository() (userrepo.Repository, error) {
	return NewUserRepository(u.session()), nil
}

func (u *UoW) HistoryRepository() (historyrepo.Repository, error) {
	return NewHistoryRepository(u.session()), nil
}
