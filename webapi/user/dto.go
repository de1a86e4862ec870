package user

import (
	"time"

	"github.com/amirasaad/paddock/pkg/domain/user"
)

// UpdateRoleRequest represents the request body for changing a user's role.
// Version is the optimistic concurrency token the caller last read.
type UpdateRoleRequest struct {
	Role    string `json:"role" validate:"required,max=16"`
	Version int64  `json:"version" validate:"required,min=1"`
}

// UpdatePermissionsRequest represents the request body for replacing a STAFF
// user's permission set.
type UpdatePermissionsRequest struct {
	Permissions []string `json:"permissions" validate:"max=32,dive,max=64"`
	Version     int64    `json:"version" validate:"required,min=1"`
}

// PrivilegeChangeDTO is returned after a role or permission change.
type PrivilegeChangeDTO struct {
	Message    string `json:"message"`
	NewVersion int64  `json:"new_version"`
}

// ChangeRecordDTO is one entry of a user's privilege history.
type ChangeRecordDTO struct {
	ID         string `json:"id"`
	ChangeType string `json:"change_type"`
	OldValue   string `json:"old_value"`
	NewValue   string `json:"new_value"`
	ChangerID  string `json:"changer_id"`
	TargetID   string `json:"target_id"`
	CreatedAt  string `json:"created_at"`
}

func toChangeRecords(records []*user.ChangeRecord) []*ChangeRecordDTO {
	out := make([]*ChangeRecordDTO, 0, len(records))
	for _, r := range records {
		out = append(out, &ChangeRecordDTO{
			ID:         r.ID.String(),
			ChangeType: string(r.ChangeType),
			OldValue:   r.OldValue,
			NewValue:   r.NewValue,
			ChangerID:  r.ChangerID.String(),
			TargetID:   r.TargetID.String(),
			CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}
