package events

// EventTypes maps a wire event type to a constructor, used when decoding
// events from an external bus.
var EventTypes = map[string]func() Event{
	EventTypeLeagueCreated.String():       func() Event { return &LeagueCreated{} },
	EventTypeTeamCreated.String():         func() Event { return &TeamCreated{} },
	EventTypeParticipantApproved.String(): func() Event { return &ParticipantApproved{} },
	EventTypeOwnerRenamed.String():        func() Event { return &OwnerRenamed{} },
	EventTypeUserRegistered.String():      func() Event { return &UserRegistered{} },
	EventTypeTransactionCreated.String():  func() Event { return &TransactionCreated{} },
	EventTypeRoleChanged.String():         func() Event { return &RoleChanged{} },
	EventTypePermissionsChanged.String():  func() Event { return &PermissionsChanged{} },
}
