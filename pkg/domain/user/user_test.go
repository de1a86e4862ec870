package user_test

import (
	"testing"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(t *testing.T) *user.User {
	t.Helper()
	u, err := user.NewUser(uuid.New(), " lewis ")
	require.NoError(t, err)
	return u
}

func TestNewUser(t *testing.T) {
	t.Parallel()
	u := newUser(t)
	assert.Equal(t, "lewis", u.Username)
	assert.Equal(t, user.RoleUser, u.Role)
	assert.Equal(t, int64(1), u.Version)
	assert.Empty(t, u.Permissions)

	_, err := user.NewUser(uuid.Nil, "nobody")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestParseRole(t *testing.T) {
	t.Parallel()
	r, err := user.ParseRole(" staff")
	require.NoError(t, err)
	assert.Equal(t, user.RoleStaff, r)

	_, err = user.ParseRole("OWNER")
	assert.ErrorIs(t, err, user.ErrInvalidRole)
}

func TestChangeRole(t *testing.T) {
	t.Parallel()

	t.Run("bumps version", func(t *testing.T) {
		u := newUser(t)
		changed, err := u.ChangeRole(user.RoleStaff)
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, int64(2), u.Version)
	})

	t.Run("no-op keeps version", func(t *testing.T) {
		u := newUser(t)
		changed, err := u.ChangeRole(user.RoleUser)
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, int64(1), u.Version)
	})

	t.Run("leaving staff clears permissions", func(t *testing.T) {
		u := newUser(t)
		_, err := u.ChangeRole(user.RoleStaff)
		require.NoError(t, err)
		_, err = u.ChangePermissions([]string{user.PermShopManage})
		require.NoError(t, err)

		_, err = u.ChangeRole(user.RoleAdmin)
		require.NoError(t, err)
		assert.Empty(t, u.Permissions)
		assert.Equal(t, int64(4), u.Version)
		assert.True(t, u.IsAdmin())
	})

	t.Run("invalid role", func(t *testing.T) {
		u := newUser(t)
		_, err := u.ChangeRole("OWNER")
		assert.ErrorIs(t, err, user.ErrInvalidRole)
		assert.Equal(t, int64(1), u.Version)
	})
}

func TestChangePermissions(t *testing.T) {
	t.Parallel()

	t.Run("requires staff", func(t *testing.T) {
		u := newUser(t)
		_, err := u.ChangePermissions([]string{user.PermNewsManage})
		assert.ErrorIs(t, err, user.ErrPermissionsRequireStaff)
	})

	t.Run("normalizes and detects no-op", func(t *testing.T) {
		u := newUser(t)
		_, err := u.ChangeRole(user.RoleStaff)
		require.NoError(t, err)

		changed, err := u.ChangePermissions([]string{" News.Manage", user.PermFinanceManage, user.PermNewsManage})
		require.NoError(t, err)
		assert.True(t, changed)
		assert.Equal(t, []string{user.PermFinanceManage, user.PermNewsManage}, u.Permissions)
		assert.Equal(t, int64(3), u.Version)

		changed, err = u.ChangePermissions([]string{user.PermNewsManage, user.PermFinanceManage})
		require.NoError(t, err)
		assert.False(t, changed)
		assert.Equal(t, int64(3), u.Version)
	})

	t.Run("unknown permission", func(t *testing.T) {
		u := newUser(t)
		_, err := u.ChangeRole(user.RoleStaff)
		require.NoError(t, err)
		_, err = u.ChangePermissions([]string{"pitlane.manage"})
		assert.ErrorIs(t, err, user.ErrInvalidPermission)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Empty(t, u.Permissions)
	})
}

func TestCheckVersion(t *testing.T) {
	t.Parallel()
	u := newUser(t)
	assert.NoError(t, u.CheckVersion(1))
	assert.ErrorIs(t, u.CheckVersion(2), domain.ErrVersionConflict)
}

func TestActor(t *testing.T) {
	t.Parallel()
	leagueID, teamID := uuid.New(), uuid.New()

	staff := user.Actor{
		UserID:      uuid.New(),
		Role:        user.RoleStaff,
		Permissions: []string{user.PermFinanceManage},
		Directors:   map[uuid.UUID]uuid.UUID{leagueID: teamID},
	}
	assert.True(t, staff.CanManageFinance())
	assert.False(t, staff.IsAdmin())

	director := staff.AsDirector()
	assert.False(t, director.CanManageFinance())
	got, ok := director.DirectedTeam(leagueID)
	assert.True(t, ok)
	assert.Equal(t, teamID, got)

	_, ok = director.DirectedTeam(uuid.New())
	assert.False(t, ok)

	// permissions only count for STAFF
	demoted := user.Actor{Role: user.RoleUser, Permissions: []string{user.PermFinanceManage}}
	assert.False(t, demoted.Has(user.PermFinanceManage))

	admin := user.Actor{Role: user.RoleAdmin}
	assert.True(t, admin.CanManageFinance())
}

func TestChangeRecords(t *testing.T) {
	t.Parallel()
	changer, target := uuid.New(), uuid.New()

	role := user.NewRoleChange(changer, target, user.RoleUser, user.RoleStaff)
	assert.Equal(t, user.ChangeRole, role.ChangeType)
	assert.Equal(t, "USER", role.OldValue)
	assert.Equal(t, "STAFF", role.NewValue)

	perms := user.NewPermissionChange(changer, target, []string{}, []string{user.PermFinanceManage, user.PermUsersView})
	assert.Equal(t, user.ChangePermission, perms.ChangeType)
	assert.Empty(t, perms.OldValue)
	assert.Equal(t, "finance.manage,users.view", perms.NewValue)
	assert.NotEqual(t, role.ID, perms.ID)
}
