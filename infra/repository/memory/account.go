package memory

import (
	"context"
	"sort"
	"time"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/google/uuid"
)

type accountRepository struct {
	u *UoW
}

func accountLockKey(id uuid.UUID) string { return "account:" + id.String() }

// lookup returns the unit's view of an account, falling back to committed state.
func (r *accountRepository) lookup(id uuid.UUID) (account.Account, bool) {
	if r.u.tx != nil {
		if a, ok := r.u.tx.accounts[id]; ok {
			return a, true
		}
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	a, ok := r.u.store.accounts[id]
	return a, ok
}

func (r *accountRepository) Create(ctx context.Context, a *account.Account) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := r.GetByOwner(ctx, a.LeagueID, a.OwnerType, a.OwnerID); err == nil {
		return domain.ErrAlreadyExists
	}
	if _, exists := r.lookup(a.ID); exists {
		return domain.ErrAlreadyExists
	}
	return r.u.write(func(t *unit) error {
		t.accounts[a.ID] = *a
		t.ops = append(t.ops, op{kind: opCreateAccount, account: *a})
		return nil
	})
}

func (r *accountRepository) Get(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	a, ok := r.lookup(id)
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return &a, nil
}

func (r *accountRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	if err := r.u.lock(ctx, accountLockKey(id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *accountRepository) GetByOwner(
	ctx context.Context,
	leagueID uuid.UUID,
	ownerType account.OwnerType,
	ownerID uuid.UUID,
) (*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	key := ownerKey{league: leagueID, ownerType: ownerType, owner: ownerID}
	if r.u.tx != nil {
		for _, a := range r.u.tx.accounts {
			if ownerKeyOf(a) == key {
				return &a, nil
			}
		}
	}
	r.u.store.mu.RLock()
	id, ok := r.u.store.owners[key]
	r.u.store.mu.RUnlock()
	if !ok {
		return nil, account.ErrAccountNotFound
	}
	return r.Get(ctx, id)
}

func (r *accountRepository) ListByLeague(ctx context.Context, leagueID uuid.UUID) ([]*account.Account, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	byID := make(map[uuid.UUID]account.Account)
	r.u.store.mu.RLock()
	for id, a := range r.u.store.accounts {
		if a.LeagueID == leagueID {
			byID[id] = a
		}
	}
	r.u.store.mu.RUnlock()
	if r.u.tx != nil {
		for id, a := range r.u.tx.accounts {
			if a.LeagueID == leagueID {
				byID[id] = a
			}
		}
	}

	out := make([]*account.Account, 0, len(byID))
	for _, a := range byID {
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out, nil
}

func (r *accountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	a, ok := r.lookup(id)
	if !ok {
		return account.ErrAccountNotFound
	}
	now := time.Now().UTC()
	return r.u.write(func(t *unit) error {
		a.Balance = balance
		a.UpdatedAt = now
		t.accounts[id] = a
		t.ops = append(t.ops, op{kind: opSetBalance, id: id, balance: balance, account: a})
		return nil
	})
}

func (r *accountRepository) UpdateOwnerName(
	ctx context.Context,
	ownerType account.OwnerType,
	ownerID uuid.UUID,
	name string,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.u.write(func(t *unit) error {
		for id, a := range t.accounts {
			if a.OwnerType == ownerType && a.OwnerID == ownerID {
				a.OwnerName = name
				t.accounts[id] = a
			}
		}
		t.ops = append(t.ops, op{kind: opRename, ownerType: ownerType, id: ownerID, name: name})
		return nil
	})
}
