package user

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/amirasaad/paddock/pkg/domain"
	"github.com/google/uuid"
)

var (
	// ErrUserNotFound is returned when a user cannot be found in the
	// repository.
	ErrUserNotFound = fmt.Errorf("user %w", domain.ErrNotFound)
	// ErrInvalidRole is returned for a role outside USER, STAFF and ADMIN.
	ErrInvalidRole = fmt.Errorf("%w: unknown role", domain.ErrInvalidInput)
	// ErrInvalidPermission is returned for a permission outside the catalog.
	ErrInvalidPermission = fmt.Errorf("%w: unknown permission", domain.ErrInvalidInput)
	// ErrPermissionsRequireStaff is returned when permissions are set on a non-staff user.
	ErrPermissionsRequireStaff = fmt.Errorf("%w: permissions apply to STAFF only", domain.ErrInvalidInput)
)

// Role is the coarse authority level of a user.
type Role string

const (
	RoleUser  Role = "USER"
	RoleStaff Role = "STAFF"
	RoleAdmin Role = "ADMIN"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleUser, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// ParseRole parses a case-insensitive role name.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

// Permission catalog for STAFF users.
const (
	PermLeaguesManage      = "leagues.manage"
	PermFinanceManage      = "finance.manage"
	PermNewsManage         = "news.manage"
	PermShopManage         = "shop.manage"
	PermMatchesManage      = "matches.manage"
	PermParticipantsManage = "participants.manage"
	PermUsersView          = "users.view"
)

// Permissions lists the catalog.
var Permissions = []string{
	PermLeaguesManage,
	PermFinanceManage,
	PermNewsManage,
	PermShopManage,
	PermMatchesManage,
	PermParticipantsManage,
	PermUsersView,
}

// NormalizePermissions validates perms against the catalog and returns them
// trimmed, de-duplicated and sorted.
func NormalizePermissions(perms []string) ([]string, error) {
	out := make([]string, 0, len(perms))
	for _, p := range perms {
		p = strings.ToLower(strings.TrimSpace(p))
		if !slices.Contains(Permissions, p) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidPermission, p)
		}
		if !slices.Contains(out, p) {
			out = append(out, p)
		}
	}
	slices.Sort(out)
	return out, nil
}

// User is the privilege record of a platform user. Identity and credentials
// live with the session issuer; this record only carries authority.
type User struct {
	ID          uuid.UUID
	Username    string
	Role        Role
	Permissions []string
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// NewUser creates a USER-level record at version 1.
func NewUser(id uuid.UUID, username string) (*User, error) {
	if id == uuid.Nil {
		return nil, fmt.Errorf("%w: user id is required", domain.ErrInvalidInput)
	}
	now := time.Now().UTC()
	return &User{
		ID:          id,
		Username:    strings.TrimSpace(username),
		Role:        RoleUser,
		Permissions: []string{},
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewUserFromData creates a User from raw data (used for DB hydration).
func NewUserFromData(
	id uuid.UUID,
	username string,
	role Role,
	permissions []string,
	version int64,
	created, updated time.Time,
) *User {
	if permissions == nil {
		permissions = []string{}
	}
	return &User{
		ID:          id,
		Username:    username,
		Role:        role,
		Permissions: permissions,
		Version:     version,
		CreatedAt:   created,
		UpdatedAt:   updated,
	}
}

// IsAdmin reports whether the user holds the ADMIN role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// CheckVersion fails with domain.ErrVersionConflict when expected is stale.
func (u *User) CheckVersion(expected int64) error {
	if u.Version != expected {
		return fmt.Errorf("%w: expected version %d, current %d", domain.ErrVersionConflict, expected, u.Version)
	}
	return nil
}

// ChangeRole sets the role and bumps the version. Leaving STAFF clears
// permissions. It reports false, and changes nothing, when the role is unchanged.
func (u *User) ChangeRole(role Role) (bool, error) {
	if !role.Valid() {
		return false, ErrInvalidRole
	}
	if u.Role == role {
		return false, nil
	}
	u.Role = role
	if role != RoleStaff {
		u.Permissions = []string{}
	}
	u.touch()
	return true, nil
}

// ChangePermissions replaces the permission set of a STAFF user. It reports
// false, and changes nothing, when the normalized set is unchanged.
func (u *User) ChangePermissions(perms []string) (bool, error) {
	if u.Role != RoleStaff {
		return false, ErrPermissionsRequireStaff
	}
	normalized, err := NormalizePermissions(perms)
	if err != nil {
		return false, err
	}
	current, _ := NormalizePermissions(u.Permissions)
	if slices.Equal(current, normalized) {
		return false, nil
	}
	u.Permissions = normalized
	u.touch()
	return true, nil
}

func (u *User) touch() {
	u.Version++
	u.UpdatedAt = time.Now().UTC()
}
