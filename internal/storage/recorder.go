package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Recorder appends every written preferences record to the history and
// keeps at most Keep revisions.
type Recorder struct {
	Store *Store
	Keep  int
	Now   func() time.Time
}

func (r *Recorder) RecordRevision(ctx context.Context, record map[string]any, needsRespring bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding revision: %w", err)
	}
	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	rev := Revision{
		ID:            uuid.NewString(),
		CreatedAt:     now(),
		Record:        string(data),
		NeedsRespring: needsRespring,
	}
	if err := r.Store.SaveRevision(rev); err != nil {
		return fmt.Errorf("saving revision: %w", err)
	}
	if _, err := r.Store.PruneRevisions(r.Keep); err != nil {
		return fmt.Errorf("pruning revisions: %w", err)
	}
	return nil
}

// DecodeRecord parses a revision's JSON record.
func (r Revision) DecodeRecord() (map[string]any, error) {
	var record map[string]any
	if err := json.Unmarshal([]byte(r.Record), &record); err != nil {
		return nil, fmt.Errorf("parsing revision %s: %w", r.ID, err)
	}
	return record, nil
}
