package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// Revision is one successfully written preferences record.
type Revision struct {
	ID            string
	CreatedAt     time.Time
	Record        string // JSON object as persisted
	NeedsRespring bool
}
