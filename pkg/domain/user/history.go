package user

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChangeType tells which privilege attribute a ChangeRecord describes.
type ChangeType string

const (
	ChangeRole       ChangeType = "ROLE"
	ChangePermission ChangeType = "PERMISSION"
)

// ChangeRecord is an immutable entry in a user's privilege history.
type ChangeRecord struct {
	ID         uuid.UUID
	ChangeType ChangeType
	OldValue   string
	NewValue   string
	ChangerID  uuid.UUID
	TargetID   uuid.UUID
	CreatedAt  time.Time
}

// NewRoleChange records a role transition.
func NewRoleChange(changer, target uuid.UUID, from, to Role) *ChangeRecord {
	return newChangeRecord(ChangeRole, string(from), string(to), changer, target)
}

// NewPermissionChange records a permission set transition. Sets are stored
// comma separated.
func NewPermissionChange(changer, target uuid.UUID, from, to []string) *ChangeRecord {
	return newChangeRecord(ChangePermission, strings.Join(from, ","), strings.Join(to, ","), changer, target)
}

func newChangeRecord(t ChangeType, oldValue, newValue string, changer, target uuid.UUID) *ChangeRecord {
	return &ChangeRecord{
		ID:         uuid.New(),
		ChangeType: t,
		OldValue:   oldValue,
		NewValue:   newValue,
		ChangerID:  changer,
		TargetID:   target,
		CreatedAt:  time.Now().UTC(),
	}
}
