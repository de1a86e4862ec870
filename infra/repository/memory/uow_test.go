package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAccount(t *testing.T, leagueID uuid.UUID, name string) *account.Account {
	t.Helper()
	a, err := account.New().WithLeagueID(leagueID).WithOwner(account.OwnerTeam, uuid.New(), name).Build()
	require.NoError(t, err)
	return a
}

func TestUoW_RollbackDiscardsStagedWrites(t *testing.T) {
	ctx := context.Background()
	uow := New()
	a := newAccount(t, uuid.New(), "Sauber")
	boom := errors.New("boom")

	err := uow.Do(ctx, func(u repository.UnitOfWork) error {
		repo, _ := u.AccountRepository()
		require.NoError(t, repo.Create(ctx, a))

		// the unit sees its own write
		got, err := repo.Get(ctx, a.ID)
		require.NoError(t, err)
		assert.Equal(t, "Sauber", got.OwnerName)

		// committed state does not
		outside, _ := uow.AccountRepository()
		_, err = outside.Get(ctx, a.ID)
		assert.ErrorIs(t, err, account.ErrAccountNotFound)
		return boom
	})
	require.ErrorIs(t, err, boom)

	repo, _ := uow.AccountRepository()
	_, err = repo.Get(ctx, a.ID)
	assert.ErrorIs(t, err, account.ErrAccountNotFound)
}

func TestUoW_CommitAppliesAllWrites(t *testing.T) {
	ctx := context.Background()
	uow := New()
	leagueID := uuid.New()
	a := newAccount(t, leagueID, "Ferrari")
	b := newAccount(t, leagueID, "Mercedes")

	err := uow.Do(ctx, func(u repository.UnitOfWork) error {
		repo, _ := u.AccountRepository()
		if err := repo.Create(ctx, a); err != nil {
			return err
		}
		if err := repo.Create(ctx, b); err != nil {
			return err
		}
		if err := repo.UpdateBalance(ctx, a.ID, -300); err != nil {
			return err
		}
		return repo.UpdateBalance(ctx, b.ID, 300)
	})
	require.NoError(t, err)

	repo, _ := uow.AccountRepository()
	list, err := repo.ListByLeague(ctx, leagueID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	var total int64
	for _, acc := range list {
		total += acc.Balance
	}
	assert.Zero(t, total)
}

func TestUoW_GetForUpdateBlocksOtherUnits(t *testing.T) {
	ctx := context.Background()
	uow := New()
	a := newAccount(t, uuid.New(), "McLaren")
	repo, _ := uow.AccountRepository()
	require.NoError(t, repo.Create(ctx, a))

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- uow.Do(ctx, func(u repository.UnitOfWork) error {
			r, _ := u.AccountRepository()
			if _, err := r.GetForUpdate(ctx, a.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return r.UpdateBalance(ctx, a.ID, 42)
		})
	}()
	<-locked

	waitCtx, cancel := context.WithTimeout(ctx, 50*time.Millisecond)
	defer cancel()
	err := uow.Do(waitCtx, func(u repository.UnitOfWork) error {
		r, _ := u.AccountRepository()
		_, err := r.GetForUpdate(waitCtx, a.ID)
		return err
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	close(release)
	require.NoError(t, <-done)

	err = uow.Do(ctx, func(u repository.UnitOfWork) error {
		r, _ := u.AccountRepository()
		got, err := r.GetForUpdate(ctx, a.ID)
		if err != nil {
			return err
		}
		assert.Equal(t, int64(42), got.Balance)
		return nil
	})
	require.NoError(t, err)
}

func TestUoW_CommitRejectsConflicts(t *testing.T) {
	ctx := context.Background()
	uow := New()
	leagueID := uuid.New()
	ownerID := uuid.New()

	build := func() *account.Account {
		a, err := account.New().WithLeagueID(leagueID).WithOwner(account.OwnerParticipant, ownerID, "Max").Build()
		require.NoError(t, err)
		return a
	}

	first := make(chan struct{})
	err := uow.Do(ctx, func(u repository.UnitOfWork) error {
		r, _ := u.AccountRepository()
		if err := r.Create(ctx, build()); err != nil {
			return err
		}
		go func() {
			defer close(first)
			other, _ := uow.AccountRepository()
			assert.NoError(t, other.Create(ctx, build()))
		}()
		<-first
		return nil
	})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	repo, _ := uow.AccountRepository()
	list, err := repo.ListByLeague(ctx, leagueID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestUserRepository_Privileges(t *testing.T) {
	ctx := context.Background()
	uow := New()
	users, _ := uow.UserRepository()
	history, _ := uow.HistoryRepository()

	u, err := user.NewUser(uuid.New(), "stewards")
	require.NoError(t, err)
	require.NoError(t, users.Create(ctx, u))
	assert.ErrorIs(t, users.Create(ctx, u), domain.ErrAlreadyExists)

	_, err = u.ChangeRole(user.RoleAdmin)
	require.NoError(t, err)
	require.NoError(t, users.UpdatePrivileges(ctx, u, 1))
	assert.ErrorIs(t, users.UpdatePrivileges(ctx, u, 1), domain.ErrVersionConflict)

	admins, err := users.LockAdmins(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{u.ID}, admins)

	n, err := users.CountByRole(ctx, user.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, history.Append(ctx, user.NewRoleChange(u.ID, u.ID, user.RoleUser, user.RoleAdmin)))
	recs, err := history.ListByTarget(ctx, u.ID)
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "ADMIN", recs[0].NewValue)
}
