package memory

import (
	"context"
	"slices"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/google/uuid"
)

type transactionRepository struct {
	u *UoW
}

// all returns committed transactions followed by the unit's staged ones, in
// insertion order.
func (r *transactionRepository) all() []account.Transaction {
	r.u.store.mu.RLock()
	out := slices.Clone(r.u.store.transactions)
	r.u.store.mu.RUnlock()
	if r.u.tx != nil {
		out = append(out, r.u.tx.txs...)
	}
	return out
}

func (r *transactionRepository) Create(ctx context.Context, tx *account.Transaction) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if tx.IdempotencyKey != "" {
		if _, err := r.GetByIdempotencyKey(ctx, tx.LeagueID, tx.IdempotencyKey); err == nil {
			return domain.ErrAlreadyExists
		}
	}
	return r.u.write(func(t *unit) error {
		t.txs = append(t.txs, *tx)
		t.ops = append(t.ops, op{kind: opAppendTx, tx: *tx})
		return nil
	})
}

func (r *transactionRepository) Get(ctx context.Context, id uuid.UUID) (*account.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, tx := range r.all() {
		if tx.ID == id {
			return &tx, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *transactionRepository) GetByIdempotencyKey(
	ctx context.Context,
	leagueID uuid.UUID,
	key string,
) (*account.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	for _, tx := range r.all() {
		if tx.LeagueID == leagueID && tx.IdempotencyKey == key {
			return &tx, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *transactionRepository) ListByAccount(
	ctx context.Context,
	accountID uuid.UUID,
	offset, limit int,
) ([]*account.Transaction, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}
	var matched []*account.Transaction
	all := r.all()
	for i := len(all) - 1; i >= 0; i-- {
		tx := all[i]
		if tx.FromAccountID == accountID || tx.ToAccountID == accountID {
			matched = append(matched, &tx)
		}
	}
	total := int64(len(matched))
	if offset < 0 {
		offset = 0
	}
	if offset >= len(matched) {
		return []*account.Transaction{}, total, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, total, nil
}

func (r *transactionRepository) ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*account.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := []*account.Transaction{}
	for _, tx := range r.all() {
		tx := tx
		if tx.LeagueID == leagueID {
			out = append(out, &tx)
		}
	}
	return out, nil
}

func (r *transactionRepository) SumByCategory(ctx context.Context, leagueID uuid.UUID) (map[account.Category]int64, error) {
	txs, err := r.ListByLeague(ctx, leagueID)
	if err != nil {
		return nil, err
	}
	totals := make(map[account.Category]int64)
	for _, tx := range txs {
		totals[tx.Category] += tx.Amount
	}
	return totals, nil
}
