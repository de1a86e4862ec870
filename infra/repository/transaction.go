package repository

import (
	"context"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	txrepo "github.com/amirasaad/paddock/pkg/repository/transaction"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type transactionRepository struct {
	db *gorm.DB
}

// NewTransactionRepository creates a transaction repository on db.
func NewTransactionRepository(db *gorm.DB) txrepo.Repository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) Create(ctx context.Context, tx *account.Transaction) error {
	m := mapTransactionToModel(tx)
	return WrapError(func() error {
		return r.db.WithContext(ctx).Create(&m).Error
	})
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	var m Transaction
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, notFoundAs(err, domain.ErrNotFound)
	}
	return mapModelToTransaction(&m), nil
}

func (r *transactionRepository) GetByIdempotencyKey(
	ctx context.Context,
	leagueID uuid.UUID,
	key string,
) (*account.Transaction, error) {
	var m Transaction
	err := r.db.WithContext(ctx).
		Where("league_id = ? AND idempotency_key = ?", leagueID, key).
		First(&m).Error
	if err != nil {
		return nil, notFoundAs(err, domain.ErrNotFound)
	}
	return mapModelToTransaction(&m), nil
}

func (r *transactionRepository) ListByAccount(
	ctx context.Context,
	accountID uuid.UUID,
	offset, limit int,
) ([]*account.Transaction, int64, error) {
	touching := func() *gorm.DB {
		return r.db.WithContext(ctx).
			Model(&Transaction{}).
			Where("from_account_id = ? OR to_account_id = ?", accountID, accountID)
	}

	var total int64
	if err := touching().Count(&total).Error; err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}

	q := touching().Order("created_at DESC, id DESC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	var ms []Transaction
	if err := q.Find(&ms).Error; err != nil {
		return nil, 0, MapGormErrorToDomain(err)
	}
	return mapModelsToTransactions(ms), total, nil
}

func (r *transactionRepository) ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*account.Transaction, error) {
	var ms []Transaction
	err := r.db.WithContext(ctx).
		Where("league_id = ?", leagueID).
		Order("created_at ASC, id ASC").
		Find(&ms).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	return mapModelsToTransactions(ms), nil
}

func (r *transactionRepository) SumByCategory(ctx context.Context, leagueID uuid.UUID) (map[account.Category]int64, error) {
	var rows []struct {
		Category string
		Total    int64
	}
	err := r.db.WithContext(ctx).
		Model(&Transaction{}).
		Select("category, COALESCE(SUM(amount), 0) AS total").
		Where("league_id = ?", leagueID).
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, MapGormErrorToDomain(err)
	}
	totals := make(map[account.Category]int64, len(rows))
	for _, row := range rows {
		totals[account.Category(row.Category)] = row.Total
	}
	return totals, nil
}

func mapTransactionToModel(tx *account.Transaction) Transaction {
	m := Transaction{
		ID:            tx.ID,
		LeagueID:      tx.LeagueID,
		FromAccountID: tx.FromAccountID,
		ToAccountID:   tx.ToAccountID,
		Amount:        tx.Amount,
		Category:      string(tx.Category),
		Description:   tx.Description,
		Issuance:      tx.Issuance,
		ActorID:       tx.ActorID,
		CreatedAt:     tx.CreatedAt,
	}
	if tx.IdempotencyKey != "" {
		key := tx.IdempotencyKey
		m.IdempotencyKey = &key
	}
	return m
}

func mapModelToTransaction(m *Transaction) *account.Transaction {
	var key string
	if m.IdempotencyKey != nil {
		key = *m.IdempotencyKey
	}
	return account.NewTransactionFromData(account.TransactionParams{
		LeagueID:       m.LeagueID,
		FromAccountID:  m.FromAccountID,
		ToAccountID:    m.ToAccountID,
		Amount:         m.Amount,
		Category:       account.Category(m.Category),
		Description:    m.Description,
		Issuance:       m.Issuance,
		ActorID:        m.ActorID,
		IdempotencyKey: key,
	}, m.ID, m.CreatedAt)
}

func mapModelsToTransactions(ms []Transaction) []*account.Transaction {
	out := make([]*account.Transaction, 0, len(ms))
	for i := range ms {
		out = append(out, mapModelToTransaction(&ms[i]))
	}
	return out
}
