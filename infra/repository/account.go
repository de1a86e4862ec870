package repository

import (
	"context"
	"time"

	"github.com/amirasaad/paddock/pkg/domain/account"
	accountrepo "github.com/amirasaad/paddock/pkg/repository/account"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates an account repository on db.
func NewAccountRepository(db *gorm.DB) accountrepo.Repository {
	return &accountRepository{db: db}
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	m := mapAccountToModel(a)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, account.ErrAccountNotFound)
	}
	return mapModelToAccount(&m), nil
}

func (r *accountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&m, "id = ?", id).Error
	if err != nil {
		return nil, notFoundAs(err, account.ErrAccountNotFound)
	}
	return mapModelToAccount(&m), nil
}

func (r *accountRepository) GetByOwner(
	ctx context.Context,
	leagueID uuid.UUID,
	ownerType account.OwnerType,
	ownerID uuid.UUID,
) (*account.Account, error) {
	var m Account
	err := r.db.WithContext(ctx).
		Where("league_id = ? AND owner_type = ? AND owner_id = ?", leagueID, string(ownerType), ownerID).
		First(&m).Error
	if err != nil {
		return nil, notFoundAs(err, account.ErrAccountNotFound)
	}
	return mapModelToAccount(&m), nil
}

func (r *accountRepository) ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*account.Account, error) {
	var ms []Account
	err := r.db.WithContext(ctx).
		Where("league_id = ?", leagueID).
		Order("created_at ASC, id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	out := make([]*account.Account, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToAccount(&ms[i]))
	}
	return out, nil
}

func (r *accountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	res := r.db.WithContext(ctx).
		Model(&Account{}).
		Where("id = ?", id).
		Updates(map[string]any{"balance": balance, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return MapGormErrorToDomain(res.Error)
	}
	if res.RowsAffected == 0 {
		return account.ErrAccountNotFound
	}
	return nil
}

func (r *accountRepository) UpdateOwnerName(
	ctx context.Context,
	ownerType account.OwnerType,
	ownerID uuid.UUID,
	name string,
) error {
	return WrapError(func() error {
		return r.db.WithContext(ctx).
			Model(&Account{}).
			Where("owner_type = ? AND owner_id = ?", string(ownerType), ownerID).
			Updates(map[string]any{"owner_name": name, "updated_at": time.Now().UTC()}).Error
	})
}

func mapAccountToModel(a *account.Account) Account {
	return Account{
		ID:        a.ID,
		LeagueID:  a.LeagueID,
		OwnerType: string(a.OwnerType),
		OwnerID:   a.OwnerID,
		OwnerName: a.OwnerName,
		Balance:   a.Balance,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

func mapModelToAccount(m *Account) *account.Account {
	return &account.Account{
		ID:        m.ID,
		LeagueID:  m.LeagueID,
		OwnerType: account.OwnerType(m.OwnerType),
		OwnerID:   m.OwnerID,
		OwnerName: m.OwnerName,
		Balance:   m.Balance,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}
