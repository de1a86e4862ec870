package history

import (
	"context"

	"github.com/amirasaad/paddock/pkg/domain/user"
	"github.com/google/uuid"
)

// Repository is the append-only privilege change log.
type Repository interface {
	Append(ctx context.Context, rec *user.ChangeRecord) error
	// ListByTarget returns the history of a user oldest first.
	ListByTarget(ctx context.Context, targetID uuid.UUID) ([]*user.ChangeRecord, error)
}
