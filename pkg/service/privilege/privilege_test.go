package privilege_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/amirasaad/paddock/infra/eventbus"
	"github.com/amirasaad/paddock/infra/repository/memory"
	"github.com/amirasaad/paddock/internal/fixtures/mocks"
	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/events"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/amirasaad/paddock/pkg/service/privilege"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	ctx   context.Context
	bus   *eventbus.MemoryEventBus
	svc   *privilege.Service
	admin user.Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		ctx: context.Background(),
		bus: eventbus.NewWithMemory(slog.Default()),
	}
	f.svc = privilege.New(memory.New(), f.bus, slog.Default())
	id := uuid.New()
	u, err := f.svc.Bootstrap(f.ctx, id, "root")
	require.NoError(t, err)
	require.NotNil(t, u)
	f.admin = user.Actor{UserID: id, Role: user.RoleAdmin}
	return f
}

func (f *fixture) register(t *testing.T, name string) *user.User {
	t.Helper()
	u, err := f.svc.Register(f.ctx, uuid.New(), name)
	require.NoError(t, err)
	return u
}

func TestBootstrap_OnlyOnce(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	again, err := f.svc.Bootstrap(f.ctx, uuid.New(), "second")
	require.NoError(t, err)
	assert.Nil(t, again)

	root, err := f.svc.Get(f.ctx, f.admin.UserID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleAdmin, root.Role)
}

func TestBootstrap_PromotesExistingUser(t *testing.T) {
	t.Parallel()
	svc := privilege.New(memory.New(), nil, slog.Default())
	ctx := context.Background()
	u, err := svc.Register(ctx, uuid.New(), "founder")
	require.NoError(t, err)

	promoted, err := svc.Bootstrap(ctx, u.ID, "founder")
	require.NoError(t, err)
	require.NotNil(t, promoted)
	assert.Equal(t, user.RoleAdmin, promoted.Role)
	assert.Equal(t, int64(2), promoted.Version)
}

func TestUpdateRole(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	target := f.register(t, "marshal")

	v, err := f.svc.UpdateRole(f.ctx, f.admin, target.ID, user.RoleStaff, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(2), v)

	got, err := f.svc.Get(f.ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleStaff, got.Role)
	assert.Equal(t, int64(2), got.Version)

	history, err := f.svc.History(f.ctx, f.admin, target.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, user.ChangeRole, history[0].ChangeType)
	assert.Equal(t, "USER", history[0].OldValue)
	assert.Equal(t, "STAFF", history[0].NewValue)
	assert.Equal(t, f.admin.UserID, history[0].ChangerID)

	published := f.bus.Published()
	require.Len(t, published, 1)
	evt, ok := published[0].(events.RoleChanged)
	require.True(t, ok)
	assert.Equal(t, int64(2), evt.NewVersion)
}

func TestUpdateRole_StaleVersion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	target := f.register(t, "steward")

	_, err := f.svc.UpdateRole(f.ctx, f.admin, target.ID, user.RoleStaff, 1)
	require.NoError(t, err)

	_, err = f.svc.UpdateRole(f.ctx, f.admin, target.ID, user.RoleAdmin, 1)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	got, err := f.svc.Get(f.ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, user.RoleStaff, got.Role)
}

func TestUpdateRole_NoOp(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	target := f.register(t, "fan")

	v, err := f.svc.UpdateRole(f.ctx, f.admin, target.ID, user.RoleUser, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	history, err := f.svc.History(f.ctx, f.admin, target.ID)
	require.NoError(t, err)
	assert.Empty(t, history)
	assert.Empty(t, f.bus.Published())

	_, err = f.svc.UpdateRole(f.ctx, f.admin, target.ID, user.RoleUser, 7)
	require.ErrorIs(t, err, domain.ErrVersionConflict)
}

func TestUpdateRole_LastAdmin(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	// Wrong version still reports the last-admin rule.
	_, err := f.svc.UpdateRole(f.ctx, f.admin, f.admin.UserID, user.RoleUser, 42)
	require.ErrorIs(t, err, domain.ErrLastAdmin)

	root, err := f.svc.Get(f.ctx, f.admin.UserID)
	require.NoError(t, err)
	_, err = f.svc.UpdateRole(f.ctx, f.admin, f.admin.UserID, user.RoleStaff, root.Version)
	require.ErrorIs(t, err, domain.ErrLastAdmin)

	// Keeping the role is fine even for the last administrator.
	_, err = f.svc.UpdateRole(f.ctx, f.admin, f.admin.UserID, user.RoleAdmin, root.Version)
	require.NoError(t, err)
}

func TestUpdateRole_ConcurrentDemotions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	second := f.register(t, "co-admin")
	_, err := f.svc.UpdateRole(f.ctx, f.admin, second.ID, user.RoleAdmin, 1)
	require.NoError(t, err)
	root, err := f.svc.Get(f.ctx, f.admin.UserID)
	require.NoError(t, err)

	targets := map[uuid.UUID]int64{f.admin.UserID: root.Version, second.ID: 2}
	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs []error
	for id, v := range targets {
		wg.Add(1)
		go func(id uuid.UUID, v int64) {
			defer wg.Done()
			_, err := f.svc.UpdateRole(f.ctx, f.admin, id, user.RoleUser, v)
			mu.Lock()
			errs = append(errs, err)
			mu.Unlock()
		}(id, v)
	}
	wg.Wait()

	var ok, lastAdmin int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrLastAdmin):
			lastAdmin++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, lastAdmin)

	admins := 0
	for id := range targets {
		u, err := f.svc.Get(f.ctx, id)
		require.NoError(t, err)
		if u.IsAdmin() {
			admins++
		}
	}
	assert.Equal(t, 1, admins)
}

func TestUpdateRole_ConcurrentSameVersion(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	target := f.register(t, "race")

	const n = 8
	var wg sync.WaitGroup
	results := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			role := user.RoleStaff
			if i%2 == 0 {
				role = user.RoleAdmin
			}
			_, results[i] = f.svc.UpdateRole(f.ctx, f.admin, target.ID, role, 1)
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range results {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrVersionConflict)
	}
	assert.Equal(t, 1, succeeded)

	got, err := f.svc.Get(f.ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.Version)
}

func TestUpdateRole_Forbidden(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	target := f.register(t, "x")
	staff := user.Actor{UserID: uuid.New(), Role: user.RoleStaff, Permissions: user.Permissions}

	_, err := f.svc.UpdateRole(f.ctx, staff, target.ID, user.RoleAdmin, 1)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.UpdatePermissions(f.ctx, staff, target.ID, nil, 1)
	require.ErrorIs(t, err, domain.ErrForbidden)
	_, err = f.svc.History(f.ctx, staff, target.ID)
	require.ErrorIs(t, err, domain.ErrForbidden)
}

func TestUpdateRole_Invalid(t *testing.T) {
	t.Parallel()
	f := newFixture(t)

	_, err := f.svc.UpdateRole(f.ctx, f.admin, uuid.New(), user.Role("OWNER"), 1)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	_, err = f.svc.UpdateRole(f.ctx, f.admin, uuid.New(), user.RoleStaff, 1)
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdatePermissions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	target := f.register(t, "editor")

	_, err := f.svc.UpdatePermissions(f.ctx, f.admin, target.ID, []string{user.PermNewsManage}, 1)
	require.ErrorIs(t, err, user.ErrPermissionsRequireStaff)

	v, err := f.svc.UpdateRole(f.ctx, f.admin, target.ID, user.RoleStaff, 1)
	require.NoError(t, err)

	v, err = f.svc.UpdatePermissions(f.ctx, f.admin, target.ID, []string{"news.manage", "finance.manage", "news.manage"}, v)
	require.NoError(t, err)
	assert.Equal(t, int64(3), v)

	got, err := f.svc.Get(f.ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"finance.manage", "news.manage"}, got.Permissions)

	same, err := f.svc.UpdatePermissions(f.ctx, f.admin, target.ID, []string{"finance.manage", "news.manage"}, v)
	require.NoError(t, err)
	assert.Equal(t, v, same)

	_, err = f.svc.UpdatePermissions(f.ctx, f.admin, target.ID, []string{"root.all"}, v)
	require.ErrorIs(t, err, user.ErrInvalidPermission)

	_, err = f.svc.UpdatePermissions(f.ctx, f.admin, target.ID, []string{}, v-1)
	require.ErrorIs(t, err, domain.ErrVersionConflict)

	history, err := f.svc.History(f.ctx, f.admin, target.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, user.ChangePermission, history[1].ChangeType)
	assert.Equal(t, "finance.manage,news.manage", history[1].NewValue)

	// Demotion to USER clears permissions.
	v, err = f.svc.UpdateRole(f.ctx, f.admin, target.ID, user.RoleUser, v)
	require.NoError(t, err)
	got, err = f.svc.Get(f.ctx, target.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Permissions)
	assert.Equal(t, v, got.Version)
}

func TestHistory_UnknownTarget(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	_, err := f.svc.History(f.ctx, f.admin, uuid.New())
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRegisterHandlers(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	f.svc.RegisterHandlers(f.bus)
	id := uuid.New()

	require.NoError(t, f.bus.Emit(f.ctx, events.UserRegistered{UserID: id, Username: "newbie"}))
	require.NoError(t, f.bus.Emit(f.ctx, events.UserRegistered{UserID: id, Username: "newbie"}))

	got, err := f.svc.Get(f.ctx, id)
	require.NoError(t, err)
	assert.Equal(t, user.RoleUser, got.Role)
	assert.Equal(t, int64(1), got.Version)
}

func TestUpdateRole_RepositoryErrorRollsBack(t *testing.T) {
	t.Parallel()
	uow := mocks.NewMockUnitOfWork(t)
	users := mocks.NewMockUserRepository(t)
	target := user.NewUserFromData(uuid.New(), "t", user.RoleUser, nil, 1, domainTime(), domainTime())

	uow.On("UserRepository").Return(users, nil)
	uow.PassThrough()
	users.On("LockAdmins", mock.Anything).Return([]uuid.UUID{uuid.New()}, nil)
	users.On("GetForUpdate", mock.Anything, target.ID).Return(target, nil)
	users.On("UpdatePrivileges", mock.Anything, mock.Anything, int64(1)).Return(domain.ErrVersionConflict)

	svc := privilege.New(uow, nil, slog.Default())
	_, err := svc.UpdateRole(context.Background(), user.Actor{UserID: uuid.New(), Role: user.RoleAdmin}, target.ID, user.RoleStaff, 1)
	require.ErrorIs(t, err, domain.ErrVersionConflict)
	uow.AssertNotCalled(t, "HistoryRepository")
}

func domainTime() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
