package account_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/amirasaad/paddock/infra/eventbus"
	"github.com/amirasaad/paddock/infra/repository/memory"
	"github.com/amirasaad/paddock/internal/fixtures/mocks"
	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/account"
	"github.com/amirasaad/paddock/pkg/domain/events"
	accountsvc "github.com/amirasaad/paddock/pkg/service/account"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newService() (*accountsvc.Service, *memory.UoW) {
	uow := memory.New()
	return accountsvc.New(uow, slog.Default()), uow
}

// openLeague creates the system account that opens a league.
func openLeague(t *testing.T, svc *accountsvc.Service) uuid.UUID {
	t.Helper()
	league := uuid.New()
	_, err := svc.CreateSystemAccount(context.Background(), league, "")
	require.NoError(t, err)
	return league
}

func TestCreateSystemAccount(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	ctx := context.Background()
	league := uuid.New()

	sys, err := svc.CreateSystemAccount(ctx, league, "Sunday Cup")
	require.NoError(t, err)
	assert.True(t, sys.IsSystem())
	assert.Equal(t, league, sys.OwnerID)
	assert.Equal(t, "FIA (Sunday Cup)", sys.OwnerName)
	assert.Zero(t, sys.Balance)

	again, err := svc.CreateSystemAccount(ctx, league, "Sunday Cup")
	require.NoError(t, err)
	assert.Equal(t, sys.ID, again.ID)

	got, err := svc.GetSystemAccount(ctx, league)
	require.NoError(t, err)
	assert.Equal(t, sys.ID, got.ID)
}

func TestGetSystemAccount_UnknownLeague(t *testing.T) {
	t.Parallel()
	svc, _ := newService()

	_, err := svc.GetSystemAccount(context.Background(), uuid.New())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetOrCreateForOwner(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	ctx := context.Background()
	league, team := openLeague(t, svc), uuid.New()

	a, err := svc.GetOrCreateForOwner(ctx, league, account.OwnerTeam, team, "Red Arrows")
	require.NoError(t, err)
	assert.Equal(t, account.OwnerTeam, a.OwnerType)
	assert.Zero(t, a.Balance)

	b, err := svc.GetOrCreateForOwner(ctx, league, account.OwnerTeam, team, "Red Arrows")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)

	// Same owner in another league gets its own account.
	c, err := svc.GetOrCreateForOwner(ctx, openLeague(t, svc), account.OwnerTeam, team, "Red Arrows")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, c.ID)
}

func TestGetOrCreateForOwner_UnknownLeague(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	ctx := context.Background()
	league := uuid.New()

	for _, ownerType := range []account.OwnerType{account.OwnerTeam, account.OwnerParticipant} {
		a, err := svc.GetOrCreateForOwner(ctx, league, ownerType, uuid.New(), "Ghost")
		require.ErrorIs(t, err, account.ErrLeagueNotFound)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Nil(t, a)
	}

	list, err := svc.List(ctx, league)
	require.NoError(t, err)
	assert.Empty(t, list)
	_, err = svc.GetSystemAccount(ctx, league)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetOrCreateForOwner_NoSystemAccountNeverCreates(t *testing.T) {
	t.Parallel()
	uow := mocks.NewMockUnitOfWork(t)
	repo := mocks.NewMockAccountRepository(t)
	league, team := uuid.New(), uuid.New()
	uow.On("AccountRepository").Return(repo, nil)
	uow.PassThrough()
	repo.On("GetByOwner", mock.Anything, league, account.OwnerTeam, team).Return(nil, account.ErrAccountNotFound).Once()
	repo.On("GetByOwner", mock.Anything, league, account.OwnerSystem, league).Return(nil, account.ErrAccountNotFound).Once()

	svc := accountsvc.New(uow, slog.Default())
	_, err := svc.GetOrCreateForOwner(context.Background(), league, account.OwnerTeam, team, "x")
	require.ErrorIs(t, err, account.ErrLeagueNotFound)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestGetOrCreateForOwner_RejectsSystem(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	league := uuid.New()

	_, err := svc.GetOrCreateForOwner(context.Background(), league, account.OwnerSystem, league, "FIA")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetOrCreateForOwner_InvalidOwner(t *testing.T) {
	t.Parallel()
	svc, _ := newService()

	_, err := svc.GetOrCreateForOwner(context.Background(), uuid.New(), account.OwnerType("sponsor"), uuid.New(), "x")
	assert.ErrorIs(t, err, account.ErrInvalidOwnerType)

	_, err = svc.GetOrCreateForOwner(context.Background(), uuid.Nil, account.OwnerTeam, uuid.New(), "x")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestGetOrCreateForOwner_Concurrent(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	ctx := context.Background()
	league, driver := openLeague(t, svc), uuid.New()

	const n = 20
	ids := make([]uuid.UUID, n)
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			a, err := svc.GetOrCreateForOwner(ctx, league, account.OwnerParticipant, driver, "Lando")
			errs[i] = err
			if a != nil {
				ids[i] = a.ID
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, ids[0], ids[i])
	}
	list, err := svc.List(ctx, league)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

func TestList_Ordering(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	ctx := context.Background()
	league := openLeague(t, svc)

	_, err := svc.GetOrCreateForOwner(ctx, league, account.OwnerParticipant, uuid.New(), "zed")
	require.NoError(t, err)
	_, err = svc.GetOrCreateForOwner(ctx, league, account.OwnerTeam, uuid.New(), "Williams")
	require.NoError(t, err)
	_, err = svc.GetOrCreateForOwner(ctx, league, account.OwnerParticipant, uuid.New(), "Alex")
	require.NoError(t, err)
	_, err = svc.GetOrCreateForOwner(ctx, league, account.OwnerTeam, uuid.New(), "alpine")
	require.NoError(t, err)

	list, err := svc.List(ctx, league)
	require.NoError(t, err)
	names := make([]string, 0, len(list))
	for _, a := range list {
		names = append(names, a.OwnerName)
	}
	assert.Equal(t, []string{"FIA", "alpine", "Williams", "Alex", "zed"}, names)

	empty, err := svc.List(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestRenameOwner(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	ctx := context.Background()
	team := uuid.New()
	l1, l2 := openLeague(t, svc), openLeague(t, svc)

	a1, err := svc.GetOrCreateForOwner(ctx, l1, account.OwnerTeam, team, "Old")
	require.NoError(t, err)
	a2, err := svc.GetOrCreateForOwner(ctx, l2, account.OwnerTeam, team, "Old")
	require.NoError(t, err)

	require.NoError(t, svc.RenameOwner(ctx, account.OwnerTeam, team, "  New  "))

	for _, id := range []uuid.UUID{a1.ID, a2.ID} {
		got, err := svc.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "New", got.OwnerName)
	}

	assert.ErrorIs(t, svc.RenameOwner(ctx, account.OwnerType("x"), team, "y"), account.ErrInvalidOwnerType)
}

func TestGetOrCreateForOwner_RepositoryError(t *testing.T) {
	t.Parallel()
	uow := mocks.NewMockUnitOfWork(t)
	repo := mocks.NewMockAccountRepository(t)
	uow.On("AccountRepository").Return(repo, nil)
	uow.PassThrough()
	repo.On("GetByOwner", mock.Anything, mock.Anything, account.OwnerTeam, mock.Anything).
		Return(nil, errors.New("db down"))

	svc := accountsvc.New(uow, slog.Default())
	a, err := svc.GetOrCreateForOwner(context.Background(), uuid.New(), account.OwnerTeam, uuid.New(), "x")
	require.Error(t, err)
	assert.Nil(t, a)
	assert.Contains(t, err.Error(), "db down")
}

func TestGetOrCreateForOwner_LostRace(t *testing.T) {
	t.Parallel()
	uow := mocks.NewMockUnitOfWork(t)
	repo := mocks.NewMockAccountRepository(t)
	league, team := uuid.New(), uuid.New()
	winner, err := account.New().WithLeagueID(league).WithOwner(account.OwnerTeam, team, "x").Build()
	require.NoError(t, err)

	uow.On("AccountRepository").Return(repo, nil)
	uow.On("Do", mock.Anything, mock.Anything).Return(domain.ErrAlreadyExists).Once()
	repo.On("GetByOwner", mock.Anything, league, account.OwnerTeam, team).Return(winner, nil).Once()

	svc := accountsvc.New(uow, slog.Default())
	got, err := svc.GetOrCreateForOwner(context.Background(), league, account.OwnerTeam, team, "x")
	require.NoError(t, err)
	assert.Equal(t, winner.ID, got.ID)
}

func TestRegisterHandlers(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	bus := eventbus.NewWithMemory(slog.Default())
	svc.RegisterHandlers(bus)
	ctx := context.Background()
	league, team, driver := uuid.New(), uuid.New(), uuid.New()

	require.NoError(t, bus.Emit(ctx, events.LeagueCreated{LeagueID: league, LeagueName: "GT3"}))
	require.NoError(t, bus.Emit(ctx, &events.TeamCreated{LeagueID: league, TeamID: team, TeamName: "Ferrari"}))
	require.NoError(t, bus.Emit(ctx, events.ParticipantApproved{LeagueID: league, ParticipantID: driver, Name: "Max"}))
	require.NoError(t, bus.Emit(ctx, events.OwnerRenamed{OwnerType: "team", OwnerID: team, Name: "Scuderia"}))

	list, err := svc.List(ctx, league)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, account.OwnerSystem, list[0].OwnerType)
	assert.Equal(t, "Scuderia", list[1].OwnerName)
	assert.Equal(t, "Max", list[2].OwnerName)
}

func TestRegisterHandlers_LeagueCreatedDeliveredLate(t *testing.T) {
	t.Parallel()
	svc, _ := newService()
	bus := eventbus.NewWithMemory(slog.Default())
	svc.RegisterHandlers(bus)
	ctx := context.Background()
	league, team := uuid.New(), uuid.New()

	require.NoError(t, bus.Emit(ctx, events.TeamCreated{LeagueID: league, TeamID: team, TeamName: "Ferrari"}))
	sys, err := svc.GetSystemAccount(ctx, league)
	require.NoError(t, err)
	assert.Equal(t, account.DefaultSystemName, sys.OwnerName)

	require.NoError(t, bus.Emit(ctx, events.LeagueCreated{LeagueID: league, LeagueName: "GT3"}))
	list, err := svc.List(ctx, league)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, sys.ID, list[0].ID)
	assert.Equal(t, "FIA (GT3)", list[0].OwnerName)
	assert.Equal(t, "Ferrari", list[1].OwnerName)
}
