package memory

import (
	"context"
	"slices"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/google/uuid"
)

const adminsLockKey = "users:admins"

func userLockKey(id uuid.UUID) string { return "user:" + id.String() }

type userRepository struct {
	u *UoW
}

func (r *userRepository) lookup(id uuid.UUID) (user.User, bool) {
	if r.u.tx != nil {
		if usr, ok := r.u.tx.users[id]; ok {
			return usr, true
		}
	}
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	usr, ok := r.u.store.users[id]
	return usr, ok
}

func clone(usr user.User) *user.User {
	usr.Permissions = slices.Clone(usr.Permissions)
	return &usr
}

func (r *userRepository) Create(ctx context.Context, usr *user.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, exists := r.lookup(usr.ID); exists {
		return domain.ErrAlreadyExists
	}
	return r.u.write(func(t *unit) error {
		t.users[usr.ID] = *clone(*usr)
		t.ops = append(t.ops, op{kind: opCreateUser, user: *clone(*usr)})
		return nil
	})
}

func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	usr, ok := r.lookup(id)
	if !ok {
		return nil, user.ErrUserNotFound
	}
	return clone(usr), nil
}

func (r *userRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*user.User, error) {
	if err := r.u.lock(ctx, userLockKey(id)); err != nil {
		return nil, err
	}
	return r.Get(ctx, id)
}

func (r *userRepository) LockAdmins(ctx context.Context) ([]uuid.UUID, error) {
	if err := r.u.lock(ctx, adminsLockKey); err != nil {
		return nil, err
	}
	return r.adminIDs(), nil
}

func (r *userRepository) adminIDs() []uuid.UUID {
	roles := make(map[uuid.UUID]user.Role)
	r.u.store.mu.RLock()
	for id, usr := range r.u.store.users {
		roles[id] = usr.Role
	}
	r.u.store.mu.RUnlock()
	if r.u.tx != nil {
		for id, usr := range r.u.tx.users {
			roles[id] = usr.Role
		}
	}
	ids := []uuid.UUID{}
	for id, role := range roles {
		if role == user.RoleAdmin {
			ids = append(ids, id)
		}
	}
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return compareUUID(a, b) })
	return ids
}

func (r *userRepository) UpdatePrivileges(ctx context.Context, usr *user.User, expectedVersion int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cur, ok := r.lookup(usr.ID)
	if !ok {
		return user.ErrUserNotFound
	}
	if cur.Version != expectedVersion {
		return domain.ErrVersionConflict
	}
	return r.u.write(func(t *unit) error {
		t.users[usr.ID] = *clone(*usr)
		t.ops = append(t.ops, op{kind: opUpdateUser, user: *clone(*usr), expected: expectedVersion})
		return nil
	})
}

func (r *userRepository) CountByRole(ctx context.Context, role user.Role) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if role == user.RoleAdmin {
		return int64(len(r.adminIDs())), nil
	}
	var n int64
	r.u.store.mu.RLock()
	defer r.u.store.mu.RUnlock()
	for _, usr := range r.u.store.users {
		if usr.Role == role {
			n++
		}
	}
	return n, nil
}

type historyRepository struct {
	u *UoW
}

func (r *historyRepository) Append(ctx context.Context, rec *user.ChangeRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return r.u.write(func(t *unit) error {
		t.history = append(t.history, *rec)
		t.ops = append(t.ops, op{kind: opAppendHistory, record: *rec})
		return nil
	})
}

func (r *historyRepository) ListByTarget(ctx context.Context, targetID uuid.UUID) ([]*user.ChangeRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.u.store.mu.RLock()
	records := slices.Clone(r.u.store.history)
	r.u.store.mu.RUnlock()
	if r.u.tx != nil {
		records = append(records, r.u.tx.history...)
	}
	out := []*user.ChangeRecord{}
	for _, rec := range records {
		rec := rec
		if rec.TargetID == targetID {
			out = append(out, &rec)
		}
	}
	return out, nil
}
