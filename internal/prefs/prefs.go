package prefs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/springjumps/springjumps/internal/shortcut"
)

var (
	// ErrIndexOutOfRange is returned for a shortcut index outside [0, count).
	ErrIndexOutOfRange = errors.New("shortcut index out of range")
	// ErrDuplicateName is returned when a shortcut name is already taken.
	ErrDuplicateName = errors.New("duplicate shortcut name")
	// ErrUnknownShortcut is returned when no shortcut has the given name.
	ErrUnknownShortcut = errors.New("unknown shortcut")
	// ErrUnknownKey is returned by SetToggle for a key that is not a toggle.
	ErrUnknownKey = errors.New("unknown preference key")
)

// Snapshot is the full preference state at one point in time.
type Snapshot struct {
	FirstRun        bool
	ShowPageTitles  bool
	JumpDockEnabled bool
	Shortcuts       []shortcut.Entry
}

// Defaults returns the built-in preference values.
func Defaults() Snapshot {
	return Snapshot{
		FirstRun:        true,
		ShowPageTitles:  true,
		JumpDockEnabled: false,
		Shortcuts:       []shortcut.Entry{},
	}
}

func (s Snapshot) clone() Snapshot {
	s.Shortcuts = shortcut.Clone(s.Shortcuts)
	return s
}

// Record returns the persisted form of s.
func (s Snapshot) Record() map[string]any {
	record := make(map[string]any, len(toggles)+1)
	for _, t := range toggles {
		record[t.key] = t.extract(s)
	}
	list := make([]any, 0, len(s.Shortcuts))
	for _, e := range s.Shortcuts {
		list = append(list, e.Record())
	}
	record[KeyShortcuts] = list
	return record
}

// Change describes one field that differs from the baseline.
type Change struct {
	Key      string `json:"key"`
	Old      string `json:"old"`
	New      string `json:"new"`
	Respring bool   `json:"respring"`
}

// Diff lists the fields that differ between base and cur.
func Diff(base, cur Snapshot) []Change {
	var changes []Change
	for _, t := range toggles {
		if o, n := t.extract(base), t.extract(cur); o != n {
			changes = append(changes, Change{
				Key:      t.key,
				Old:      fmt.Sprint(o),
				New:      fmt.Sprint(n),
				Respring: t.respring,
			})
		}
	}
	if !shortcut.Equal(base.Shortcuts, cur.Shortcuts) {
		changes = append(changes, Change{
			Key:      KeyShortcuts,
			Old:      FormatShortcuts(base.Shortcuts),
			New:      FormatShortcuts(cur.Shortcuts),
			Respring: shortcutsRespring,
		})
	}
	return changes
}

// FormatShortcuts renders entries as "Page 1 (on), Page 2 (off)".
func FormatShortcuts(entries []shortcut.Entry) string {
	if len(entries) == 0 {
		return "(none)"
	}
	parts := make([]string, len(entries))
	for i, e := range entries {
		state := "off"
		if e.Enabled {
			state = "on"
		}
		parts[i] = fmt.Sprintf("%s (%s)", e.Name, state)
	}
	return strings.Join(parts, ", ")
}

// Store owns the current preferences and the baseline they are compared
// against. It is safe for concurrent use.
type Store struct {
	backend  Backend
	recorder Recorder
	logger   *slog.Logger

	mu       sync.Mutex
	cur      Snapshot
	baseline Snapshot
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder registers r to receive every successfully written record.
func WithRecorder(r Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithLogger sets the logger used for load warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Open registers defaults and overlays whatever b has persisted. Backend
// failures are logged and leave the defaults in place.
func Open(ctx context.Context, b Backend, opts ...Option) *Store {
	s := &Store{backend: b, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	s.RegisterDefaults()
	if err := s.Read(ctx); err != nil {
		s.logger.Warn("could not read preferences, using defaults", "error", err)
	}
	return s
}

var (
	sharedOnce    sync.Once
	shared        *Store
	sharedBackend = func() Backend { return NewPlatformBackend("") }
)

// Shared returns the process-wide Store over the platform backend, opening
// it on first use.
func Shared(ctx context.Context) *Store {
	sharedOnce.Do(func() {
		shared = Open(ctx, sharedBackend())
	})
	return shared
}

// RegisterDefaults resets the state and the baseline to the built-in
// defaults. It does not touch the backend.
func (s *Store) RegisterDefaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = Defaults()
	s.baseline = Defaults()
}

// Read replaces the state with the persisted record overlaid onto the
// defaults and makes the result the new baseline. Missing or malformed
// fields keep their defaults; unsaved changes are discarded. Only backend
// failures are returned, and they leave the store untouched. ErrNoRecord
// is not an error.
func (s *Store) Read(ctx context.Context) error {
	record, err := s.backend.Load(ctx)
	if err != nil && !errors.Is(err, ErrNoRecord) {
		return fmt.Errorf("loading preferences: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = overlay(Defaults(), record, s.logger)
	s.baseline = s.cur.clone()
	return nil
}

// Apply replaces the current state with record using the same rules as
// Read. The baseline is kept, so the result reports as modified.
func (s *Store) Apply(record map[string]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur = overlay(s.cur, record, s.logger)
}

// Reset restores the built-in defaults without saving. FirstRun is kept,
// since Write clears it anyway.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	d := Defaults()
	d.FirstRun = s.cur.FirstRun
	s.cur = d
}

// Write persists the current state with firstRun cleared. On success the
// written state becomes the baseline; on failure nothing changes.
func (s *Store) Write(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := s.cur.clone()
	next.FirstRun = false
	respring := needsRespring(s.baseline, next)
	record := next.Record()

	if err := s.backend.Save(ctx, record); err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	s.cur = next
	s.baseline = next.clone()

	if s.recorder != nil {
		if err := s.recorder.RecordRevision(ctx, record, respring); err != nil {
			s.logger.Warn("could not record revision", "error", err)
		}
	}
	return nil
}

// Record returns the persisted form of the current state without writing it.
func (s *Store) Record() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.Record()
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.clone()
}

// Baseline returns a copy of the state the store compares against.
func (s *Store) Baseline() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.baseline.clone()
}

// IsModified reports whether the state differs from the baseline.
func (s *Store) IsModified() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(Diff(s.baseline, s.cur)) > 0
}

// NeedsRespring reports whether any change needs SpringBoard restarted.
func (s *Store) NeedsRespring() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return needsRespring(s.baseline, s.cur)
}

func needsRespring(base, cur Snapshot) bool {
	for _, c := range Diff(base, cur) {
		if c.Respring {
			return true
		}
	}
	return false
}

// Changes lists the fields that differ from the baseline.
func (s *Store) Changes() []Change {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Diff(s.baseline, s.cur)
}

// FirstRun reports whether the preferences have never been saved.
func (s *Store) FirstRun() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.FirstRun
}

// SetFirstRun sets the first-run flag. Write always persists it as false.
func (s *Store) SetFirstRun(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.FirstRun = v
}

// ShowPageTitles reports whether page titles are shown.
func (s *Store) ShowPageTitles() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.ShowPageTitles
}

// SetShowPageTitles shows or hides page titles.
func (s *Store) SetShowPageTitles(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.ShowPageTitles = v
}

// JumpDockEnabled reports whether the jump dock is enabled.
func (s *Store) JumpDockEnabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cur.JumpDockEnabled
}

// SetJumpDockEnabled turns the jump dock on or off. Changing it needs a respring.
func (s *Store) SetJumpDockEnabled(v bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cur.JumpDockEnabled = v
}

// SetToggle sets a boolean preference by its record key.
func (s *Store) SetToggle(key string, v bool) error {
	t, ok := lookupToggle(key)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownKey, key)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	t.apply(&s.cur, v)
	return nil
}

// Shortcuts returns the shortcut list in display order.
func (s *Store) Shortcuts() []shortcut.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return shortcut.Clone(s.cur.Shortcuts)
}

// Shortcut returns the i-th shortcut in display order.
func (s *Store) Shortcut(i int) (shortcut.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.cur.Shortcuts) {
		return shortcut.Entry{}, fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, i, len(s.cur.Shortcuts))
	}
	return s.cur.Shortcuts[i], nil
}

// AddShortcut appends an enabled shortcut named name.
func (s *Store) AddShortcut(name string) (shortcut.Entry, error) {
	e := shortcut.New(name)
	if err := e.Validate(); err != nil {
		return shortcut.Entry{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if shortcut.Find(s.cur.Shortcuts, name) >= 0 {
		return shortcut.Entry{}, fmt.Errorf("%w: %q", ErrDuplicateName, name)
	}
	s.cur.Shortcuts = append(s.cur.Shortcuts, e)
	return e, nil
}

// RemoveShortcut deletes the shortcut named name.
func (s *Store) RemoveShortcut(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(name)
	if err != nil {
		return err
	}
	list := shortcut.Clone(s.cur.Shortcuts)
	s.cur.Shortcuts = append(list[:i], list[i+1:]...)
	return nil
}

// SetShortcutEnabled switches the shortcut named name on or off.
func (s *Store) SetShortcutEnabled(name string, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(name)
	if err != nil {
		return err
	}
	s.cur.Shortcuts[i].Enabled = enabled
	return nil
}

// RenameShortcut renames a shortcut in place, keeping its position and
// enabled flag.
func (s *Store) RenameShortcut(oldName, newName string) error {
	if err := (shortcut.Entry{Name: newName}).Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i, err := s.indexOf(oldName)
	if err != nil {
		return err
	}
	if oldName == newName {
		return nil
	}
	if shortcut.Find(s.cur.Shortcuts, newName) >= 0 {
		return fmt.Errorf("%w: %q", ErrDuplicateName, newName)
	}
	s.cur.Shortcuts[i].Name = newName
	return nil
}

// MoveShortcut moves the entry at from so that it ends up at index to.
func (s *Store) MoveShortcut(from, to int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.cur.Shortcuts)
	if from < 0 || from >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, from, n)
	}
	if to < 0 || to >= n {
		return fmt.Errorf("%w: %d not in [0, %d)", ErrIndexOutOfRange, to, n)
	}
	list := shortcut.Clone(s.cur.Shortcuts)
	e := list[from]
	list = append(list[:from], list[from+1:]...)
	list = append(list[:to], append([]shortcut.Entry{e}, list[to:]...)...)
	s.cur.Shortcuts = list
	return nil
}

// indexOf must be called with s.mu held.
func (s *Store) indexOf(name string) (int, error) {
	i := shortcut.Find(s.cur.Shortcuts, name)
	if i < 0 {
		return 0, fmt.Errorf("%w: %q", ErrUnknownShortcut, name)
	}
	return i, nil
}
