package memory

import (
	"bytes"

	"github.com/google/uuid"
)

// compareUUID orders ids bytewise, the same order Postgres uses for uuid columns.
func compareUUID(a, b uuid.UUID) int {
	return bytes.Compare(a[:], b[:])
}
