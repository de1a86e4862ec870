package events

// EventType represents the type of an event in the system.
type EventType string

// Event type constants
const (
	// Inbound events published by league management collaborators
	EventTypeLeagueCreated       EventType = "league.created"
	EventTypeTeamCreated         EventType = "team.created"
	EventTypeParticipantApproved EventType = "participant.approved"
	EventTypeOwnerRenamed        EventType = "owner.renamed"
	EventTypeUserRegistered      EventType = "user.registered"

	// Ledger events
	EventTypeTransactionCreated EventType = "transaction.created"

	// Privilege events
	EventTypeRoleChanged        EventType = "user.role_changed"
	EventTypePermissionsChanged EventType = "user.permissions_changed"
)

// String returns the string representation of the event type.
func (et EventType) String() string {
	return string(et)
}
