package prefs

import (
	"context"
	"errors"
)

// ErrNoRecord is returned by a Backend when nothing has been persisted yet.
var ErrNoRecord = errors.New("no persisted preferences")

// Backend abstracts platform-specific preference storage.
// macOS uses the user defaults domain (via the `defaults` CLI), other
// platforms keep a JSON file in the XDG config directory.
type Backend interface {
	Load(ctx context.Context) (map[string]any, error)
	Save(ctx context.Context, record map[string]any) error
}

// Recorder receives every record that was written successfully.
// Implemented by storage.Recorder.
type Recorder interface {
	RecordRevision(ctx context.Context, record map[string]any, needsRespring bool) error
}
