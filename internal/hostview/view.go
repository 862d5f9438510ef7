// Package hostview provides cached, read-only access to the persisted
// preferences as the host process sees them.
package hostview

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/springjumps/springjumps/internal/prefs"
	"github.com/springjumps/springjumps/internal/shortcut"
)

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// View reads the persisted record through a backend and caches the decoded
// snapshot for a fixed TTL.
type View struct {
	backend prefs.Backend
	clock   Clock
	ttl     time.Duration
	logger  *slog.Logger

	mu       sync.RWMutex
	cached   *prefs.Snapshot
	cachedAt time.Time
}

// New creates a View with a 5-second cache TTL.
func New(b prefs.Backend) *View {
	return NewWithClock(b, realClock{}, 5*time.Second)
}

// NewWithClock creates a View with a custom clock (for testing).
func NewWithClock(b prefs.Backend, clock Clock, ttl time.Duration) *View {
	return &View{
		backend: b,
		clock:   clock,
		ttl:     ttl,
		logger:  slog.Default(),
	}
}

// Get returns the persisted preferences. A missing record yields the defaults.
func (v *View) Get(ctx context.Context) (prefs.Snapshot, error) {
	v.mu.RLock()
	if v.fresh() {
		s := copySnapshot(*v.cached)
		v.mu.RUnlock()
		return s, nil
	}
	v.mu.RUnlock()

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.fresh() {
		return copySnapshot(*v.cached), nil
	}

	record, err := v.backend.Load(ctx)
	switch {
	case errors.Is(err, prefs.ErrNoRecord):
		record = nil
	case err != nil:
		return prefs.Snapshot{}, fmt.Errorf("loading persisted preferences: %w", err)
	}

	s := prefs.Parse(record, v.logger)
	v.cached = &s
	v.cachedAt = v.clock.Now()
	return copySnapshot(s), nil
}

// Invalidate drops the cached snapshot so the next Get reloads it.
func (v *View) Invalidate() {
	v.mu.Lock()
	v.cached = nil
	v.mu.Unlock()
}

// caller must hold v.mu
func (v *View) fresh() bool {
	return v.cached != nil && v.clock.Now().Before(v.cachedAt.Add(v.ttl))
}

func copySnapshot(s prefs.Snapshot) prefs.Snapshot {
	s.Shortcuts = shortcut.Clone(s.Shortcuts)
	return s
}
