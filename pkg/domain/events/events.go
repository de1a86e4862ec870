package events

import (
	"time"

	"github.com/google/uuid"
)

// Event is anything that can travel on the event bus.
type Event interface {
	Type() string
}

// LeagueCreated is published when a league is founded.
type LeagueCreated struct {
	LeagueID   uuid.UUID `json:"league_id"`
	LeagueName string    `json:"league_name"`
}

// TeamCreated is published when a team joins a league.
type TeamCreated struct {
	LeagueID uuid.UUID `json:"league_id"`
	TeamID   uuid.UUID `json:"team_id"`
	TeamName string    `json:"team_name"`
}

// ParticipantApproved is published when a driver's league application is accepted.
type ParticipantApproved struct {
	LeagueID      uuid.UUID `json:"league_id"`
	ParticipantID uuid.UUID `json:"participant_id"`
	Name          string    `json:"name"`
}

// OwnerRenamed is published when a team or participant changes its display name.
type OwnerRenamed struct {
	OwnerType string    `json:"owner_type"`
	OwnerID   uuid.UUID `json:"owner_id"`
	Name      string    `json:"name"`
}

// UserRegistered is published by the session issuer when a new user signs up.
type UserRegistered struct {
	UserID   uuid.UUID `json:"user_id"`
	Username string    `json:"username"`
}

// TransactionCreated is emitted after a transfer commits.
type TransactionCreated struct {
	TransactionID uuid.UUID `json:"transaction_id"`
	LeagueID      uuid.UUID `json:"league_id"`
	FromAccountID uuid.UUID `json:"from_account_id"`
	ToAccountID   uuid.UUID `json:"to_account_id"`
	Amount        int64     `json:"amount"`
	Category      string    `json:"category"`
	Issuance      bool      `json:"issuance"`
	ActorID       uuid.UUID `json:"actor_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// RoleChanged is emitted after a user's role changes.
type RoleChanged struct {
	UserID     uuid.UUID `json:"user_id"`
	ChangerID  uuid.UUID `json:"changer_id"`
	OldRole    string    `json:"old_role"`
	NewRole    string    `json:"new_role"`
	NewVersion int64     `json:"new_version"`
}

// PermissionsChanged is emitted after a staff member's permissions change.
type PermissionsChanged struct {
	UserID         uuid.UUID `json:"user_id"`
	ChangerID      uuid.UUID `json:"changer_id"`
	OldPermissions []string  `json:"old_permissions"`
	NewPermissions []string  `json:"new_permissions"`
	NewVersion     int64     `json:"new_version"`
}

func (e LeagueCreated) Type() string       { return EventTypeLeagueCreated.String() }
func (e TeamCreated) Type() string         { return EventTypeTeamCreated.String() }
func (e ParticipantApproved) Type() string { return EventTypeParticipantApproved.String() }
func (e OwnerRenamed) Type() string        { return EventTypeOwnerRenamed.String() }
func (e UserRegistered) Type() string      { return EventTypeUserRegistered.String() }
func (e TransactionCreated) Type() string  { return EventTypeTransactionCreated.String() }
func (e RoleChanged) Type() string         { return EventTypeRoleChanged.String() }
func (e PermissionsChanged) Type() string  { return EventTypePermissionsChanged.String() }
