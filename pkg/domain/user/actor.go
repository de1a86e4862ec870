package user

import (
	"slices"

	"github.com/google/uuid"
)

// Actor is the authenticated identity an operation is performed on behalf of.
// Directors maps a league id to the team the actor directs in that league.
type Actor struct {
	UserID      uuid.UUID
	Username    string
	Role        Role
	Permissions []string
	Directors   map[uuid.UUID]uuid.UUID
}

// IsAdmin reports whether the actor holds administrative capability.
func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// Has reports whether a STAFF actor was granted permission.
func (a Actor) Has(permission string) bool {
	return a.Role == RoleStaff && slices.Contains(a.Permissions, permission)
}

// CanManageFinance reports whether the actor may move currency between any
// accounts of any league.
func (a Actor) CanManageFinance() bool {
	return a.IsAdmin() || a.Has(PermFinanceManage)
}

// DirectedTeam returns the team the actor directs in leagueID.
func (a Actor) DirectedTeam(leagueID uuid.UUID) (uuid.UUID, bool) {
	teamID, ok := a.Directors[leagueID]
	return teamID, ok && teamID != uuid.Nil
}

// AsDirector returns a copy of the actor stripped of role-based authority, so
// only its team directorships apply.
func (a Actor) AsDirector() Actor {
	return Actor{
		UserID:    a.UserID,
		Username:  a.Username,
		Role:      RoleUser,
		Directors: a.Directors,
	}
}
