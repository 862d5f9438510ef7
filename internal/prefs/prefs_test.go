package prefs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/springjumps/springjumps/internal/shortcut"
)

// --- Fake backend ---

type fakeBackend struct {
	mu      sync.Mutex
	record  map[string]any
	loadErr error
	saveErr error
	saves   int
}

func (f *fakeBackend) Load(ctx context.Context) (map[string]any, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	if f.record == nil {
		return nil, ErrNoRecord
	}
	return f.record, nil
}

func (f *fakeBackend) Save(ctx context.Context, record map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.record = record
	f.saves++
	return nil
}

// --- Fake recorder ---

type fakeRecorder struct {
	records  []map[string]any
	respring []bool
	err      error
}

func (r *fakeRecorder) RecordRevision(ctx context.Context, record map[string]any, needsRespring bool) error {
	r.records = append(r.records, record)
	r.respring = append(r.respring, needsRespring)
	return r.err
}

var ctx = context.Background()

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTest(t *testing.T, b Backend, opts ...Option) *Store {
	t.Helper()
	return Open(ctx, b, append([]Option{WithLogger(quietLogger())}, opts...)...)
}

// --- Tests ---

func TestOpen_NoRecordUsesDefaults(t *testing.T) {
	s := openTest(t, &fakeBackend{})

	snap := s.Snapshot()
	if !snap.FirstRun || !snap.ShowPageTitles || snap.JumpDockEnabled {
		t.Errorf("unexpected defaults: %+v", snap)
	}
	if len(snap.Shortcuts) != 0 {
		t.Errorf("expected no shortcuts, got %v", snap.Shortcuts)
	}
	if s.IsModified() {
		t.Error("fresh store should not be modified")
	}
}

func TestRead_OverlaysOntoDefaults(t *testing.T) {
	s := openTest(t, &fakeBackend{record: map[string]any{KeyShowPageTitles: false}})

	if s.ShowPageTitles() {
		t.Error("showPageTitles should be false from disk")
	}
	if s.JumpDockEnabled() {
		t.Error("jumpDockEnabled should keep its default")
	}
	if len(s.Shortcuts()) != 0 {
		t.Error("shortcuts should keep their default")
	}
	if s.IsModified() {
		t.Error("state read from disk is the baseline")
	}
}

func TestRead_MalformedFieldsKeepDefaults(t *testing.T) {
	b := &fakeBackend{record: map[string]any{
		KeyShowPageTitles: "sometimes",
		KeyEnableJumpDock: true,
		KeyShortcuts: []any{
			map[string]any{"name": "Page 1", "enabled": true},
			map[string]any{"enabled": false},
		},
	}}
	s := openTest(t, b)

	if !s.ShowPageTitles() {
		t.Error("malformed showPageTitles should keep default true")
	}
	if !s.JumpDockEnabled() {
		t.Error("well-formed enableJumpDock should be applied")
	}
	if len(s.Shortcuts()) != 0 {
		t.Errorf("a malformed entry should drop the whole list, got %v", s.Shortcuts())
	}
}

func TestRead_DuplicateShortcutsRejected(t *testing.T) {
	b := &fakeBackend{record: map[string]any{
		KeyShortcuts: []any{
			map[string]any{"name": "A", "enabled": true},
			map[string]any{"name": "A", "enabled": false},
		},
	}}
	s := openTest(t, b)
	if len(s.Shortcuts()) != 0 {
		t.Errorf("duplicate names should keep default list, got %v", s.Shortcuts())
	}
}

func TestOpen_LoadErrorKeepsDefaults(t *testing.T) {
	s := openTest(t, &fakeBackend{loadErr: errors.New("disk on fire")})
	if !s.FirstRun() {
		t.Error("expected defaults after load failure")
	}
}

func TestRead_DiscardsUnsavedChanges(t *testing.T) {
	b := &fakeBackend{record: map[string]any{KeyEnableJumpDock: true}}
	s := openTest(t, b)
	s.SetShowPageTitles(false)
	if _, err := s.AddShortcut("Page 1"); err != nil {
		t.Fatal(err)
	}

	if err := s.Read(ctx); err != nil {
		t.Fatalf("Read: %v", err)
	}
	if !s.ShowPageTitles() {
		t.Error("unsaved showPageTitles survived Read")
	}
	if len(s.Shortcuts()) != 0 {
		t.Errorf("unsaved shortcuts survived Read: %v", s.Shortcuts())
	}
	if !s.JumpDockEnabled() {
		t.Error("persisted enableJumpDock lost")
	}
	if s.IsModified() {
		t.Errorf("IsModified after Read, changes: %v", s.Changes())
	}
}

func TestRead_NoRecordResetsToDefaults(t *testing.T) {
	b := &fakeBackend{}
	s := openTest(t, b)
	s.SetJumpDockEnabled(true)

	if err := s.Read(ctx); err != nil {
		t.Fatal(err)
	}
	if s.JumpDockEnabled() || s.IsModified() {
		t.Errorf("expected clean defaults, got %+v modified=%v", s.Snapshot(), s.IsModified())
	}
}

func TestRead_BackendErrorKeepsState(t *testing.T) {
	b := &fakeBackend{}
	s := openTest(t, b)
	s.SetShowPageTitles(false)
	b.loadErr = errors.New("permission denied")

	if err := s.Read(ctx); err == nil {
		t.Fatal("expected error from Read")
	}
	if s.ShowPageTitles() || !s.IsModified() {
		t.Error("failed Read must not touch the state")
	}
}

func TestReset_KeepsFirstRun(t *testing.T) {
	b := &fakeBackend{}
	s := openTest(t, b)
	s.SetJumpDockEnabled(true)
	if err := s.Write(ctx); err != nil {
		t.Fatal(err)
	}

	s.Reset()
	changes := s.Changes()
	if len(changes) != 1 || changes[0].Key != KeyEnableJumpDock {
		t.Errorf("Changes after Reset = %+v, want only enableJumpDock", changes)
	}
	if s.FirstRun() {
		t.Error("Reset must not bring back firstRun")
	}

	clean := openTest(t, &fakeBackend{})
	if err := clean.Write(ctx); err != nil {
		t.Fatal(err)
	}
	clean.Reset()
	if clean.IsModified() {
		t.Errorf("Reset on saved defaults reported changes: %+v", clean.Changes())
	}
}

func TestBaseline_TracksLastWrite(t *testing.T) {
	s := openTest(t, &fakeBackend{})
	s.SetShowPageTitles(false)
	if !s.Baseline().ShowPageTitles {
		t.Error("baseline changed before Write")
	}
	if err := s.Write(ctx); err != nil {
		t.Fatal(err)
	}
	if base := s.Baseline(); base.ShowPageTitles || base.FirstRun {
		t.Errorf("baseline after Write = %+v", base)
	}
}

func TestRegisterDefaults_NotModified(t *testing.T) {
	s := openTest(t, &fakeBackend{record: map[string]any{KeyEnableJumpDock: true}})
	s.SetShowPageTitles(false)
	if _, err := s.AddShortcut("Page 1"); err != nil {
		t.Fatal(err)
	}

	s.RegisterDefaults()

	if s.IsModified() {
		t.Error("IsModified should be false after RegisterDefaults")
	}
	if s.JumpDockEnabled() {
		t.Error("RegisterDefaults should reset enableJumpDock")
	}
}

func TestMutation_ModifiedUntilWrite(t *testing.T) {
	mutations := map[string]func(s *Store){
		"firstRun":       func(s *Store) { s.SetFirstRun(false) },
		"showPageTitles": func(s *Store) { s.SetShowPageTitles(false) },
		"jumpDock":       func(s *Store) { s.SetJumpDockEnabled(true) },
		"addShortcut":    func(s *Store) { s.AddShortcut("Page 3") },
	}
	for name, mutate := range mutations {
		t.Run(name, func(t *testing.T) {
			s := openTest(t, &fakeBackend{})
			mutate(s)
			if !s.IsModified() {
				t.Fatal("expected modified after mutation")
			}
			if err := s.Write(ctx); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if s.IsModified() {
				t.Error("expected not modified after write")
			}
		})
	}
}

func TestMutation_RevertIsNotModified(t *testing.T) {
	s := openTest(t, &fakeBackend{})
	s.SetJumpDockEnabled(true)
	s.SetJumpDockEnabled(false)
	if s.IsModified() {
		t.Error("state equal to baseline should not be modified")
	}
}

func TestWrite_ClearsFirstRunAndPersists(t *testing.T) {
	b := &fakeBackend{}
	s := openTest(t, b)
	s.AddShortcut("Page 1")
	s.AddShortcut("Page 2")
	s.SetShortcutEnabled("Page 2", false)

	if err := s.Write(ctx); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if s.FirstRun() {
		t.Error("FirstRun should be false after a successful write")
	}
	if b.record[KeyFirstRun] != false {
		t.Errorf("persisted firstRun = %v, want false", b.record[KeyFirstRun])
	}

	reopened := openTest(t, b)
	want := []shortcut.Entry{{Name: "Page 1", Enabled: true}, {Name: "Page 2", Enabled: false}}
	if got := reopened.Shortcuts(); !shortcut.Equal(got, want) {
		t.Errorf("reloaded shortcuts = %v, want %v", got, want)
	}
	if reopened.FirstRun() {
		t.Error("reloaded FirstRun should be false")
	}
}

func TestWrite_FailureKeepsModified(t *testing.T) {
	b := &fakeBackend{saveErr: errors.New("read-only filesystem")}
	rec := &fakeRecorder{}
	s := openTest(t, b, WithRecorder(rec))
	s.SetJumpDockEnabled(true)

	err := s.Write(ctx)
	if err == nil {
		t.Fatal("expected write error")
	}
	if !errors.Is(err, b.saveErr) {
		t.Errorf("error %v should wrap backend error", err)
	}
	if !s.IsModified() {
		t.Error("failed write must not clear modified state")
	}
	if !s.FirstRun() {
		t.Error("failed write must not clear firstRun")
	}
	if len(rec.records) != 0 {
		t.Error("recorder should not see failed writes")
	}
}

func TestWrite_Recorder(t *testing.T) {
	rec := &fakeRecorder{err: errors.New("history full")}
	s := openTest(t, &fakeBackend{}, WithRecorder(rec))
	s.SetShowPageTitles(false)
	if err := s.Write(ctx); err != nil {
		t.Fatalf("recorder failure should not fail Write: %v", err)
	}
	s.SetJumpDockEnabled(true)
	if err := s.Write(ctx); err != nil {
		t.Fatal(err)
	}

	if len(rec.records) != 2 {
		t.Fatalf("expected 2 recorded revisions, got %d", len(rec.records))
	}
	if rec.respring[0] {
		t.Error("page titles alone should not need a respring")
	}
	if !rec.respring[1] {
		t.Error("jump dock change should need a respring")
	}
}

func TestNeedsRespring(t *testing.T) {
	s := openTest(t, &fakeBackend{})
	s.SetShowPageTitles(false)
	if s.NeedsRespring() {
		t.Error("toggling showPageTitles alone should not need a respring")
	}
	s.SetJumpDockEnabled(true)
	if !s.NeedsRespring() {
		t.Error("enabling the jump dock should need a respring")
	}

	s.RegisterDefaults()
	s.AddShortcut("Page 1")
	if !s.NeedsRespring() {
		t.Error("shortcut changes should need a respring")
	}
}

func TestChanges(t *testing.T) {
	s := openTest(t, &fakeBackend{})
	s.SetShowPageTitles(false)
	s.AddShortcut("Dock")

	changes := s.Changes()
	if len(changes) != 2 {
		t.Fatalf("expected 2 changes, got %+v", changes)
	}
	if changes[0].Key != KeyShowPageTitles || changes[0].Old != "true" || changes[0].New != "false" || changes[0].Respring {
		t.Errorf("unexpected toggle change: %+v", changes[0])
	}
	if changes[1].Key != KeyShortcuts || changes[1].New != "Dock (on)" || !changes[1].Respring {
		t.Errorf("unexpected shortcut change: %+v", changes[1])
	}
}

func TestShortcut_BoundsChecked(t *testing.T) {
	s := openTest(t, &fakeBackend{})
	for _, name := range []string{"Page 1", "Page 2", "Page 3"} {
		if _, err := s.AddShortcut(name); err != nil {
			t.Fatal(err)
		}
	}

	for i, want := range []string{"Page 1", "Page 2", "Page 3"} {
		e, err := s.Shortcut(i)
		if err != nil {
			t.Fatalf("Shortcut(%d): %v", i, err)
		}
		if e.Name != want {
			t.Errorf("Shortcut(%d) = %q, want %q", i, e.Name, want)
		}
	}
	for _, i := range []int{-1, 3, 100} {
		if _, err := s.Shortcut(i); !errors.Is(err, ErrIndexOutOfRange) {
			t.Errorf("Shortcut(%d) error = %v, want ErrIndexOutOfRange", i, err)
		}
	}
}

func TestShortcutMutators(t *testing.T) {
	s := openTest(t, &fakeBackend{})
	s.AddShortcut("A")
	s.AddShortcut("B")
	s.AddShortcut("C")

	if _, err := s.AddShortcut("B"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("AddShortcut duplicate error = %v", err)
	}
	if _, err := s.AddShortcut(""); !errors.Is(err, shortcut.ErrEmptyName) {
		t.Errorf("AddShortcut empty error = %v", err)
	}
	if err := s.RemoveShortcut("Z"); !errors.Is(err, ErrUnknownShortcut) {
		t.Errorf("RemoveShortcut unknown error = %v", err)
	}
	if err := s.RenameShortcut("A", "C"); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("RenameShortcut duplicate error = %v", err)
	}

	if err := s.MoveShortcut(0, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.RenameShortcut("B", "Bee"); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveShortcut("C"); err != nil {
		t.Fatal(err)
	}
	if err := s.MoveShortcut(0, 5); !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("MoveShortcut error = %v", err)
	}

	want := []shortcut.Entry{{Name: "Bee", Enabled: true}, {Name: "A", Enabled: true}}
	if got := s.Shortcuts(); !shortcut.Equal(got, want) {
		t.Errorf("shortcuts = %v, want %v", got, want)
	}
}

func TestShortcuts_ReturnsCopy(t *testing.T) {
	s := openTest(t, &fakeBackend{})
	s.AddShortcut("A")
	list := s.Shortcuts()
	list[0].Enabled = false
	if e, _ := s.Shortcut(0); !e.Enabled {
		t.Error("mutating the returned slice changed the store")
	}
}

func TestSetToggle(t *testing.T) {
	s := openTest(t, &fakeBackend{})
	if err := s.SetToggle(KeyEnableJumpDock, true); err != nil {
		t.Fatal(err)
	}
	if !s.JumpDockEnabled() {
		t.Error("SetToggle did not apply")
	}
	if err := s.SetToggle(KeyShortcuts, true); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("SetToggle(shortcuts) error = %v", err)
	}
}

func TestApply_KeepsBaseline(t *testing.T) {
	s := openTest(t, &fakeBackend{})
	s.Apply(map[string]any{
		KeyEnableJumpDock: true,
		KeyShortcuts:      []map[string]any{{"name": "X", "enabled": false}},
	})
	if !s.JumpDockEnabled() || len(s.Shortcuts()) != 1 {
		t.Errorf("Apply did not take effect: %+v", s.Snapshot())
	}
	if !s.IsModified() {
		t.Error("applied record should show as modified")
	}
}

func TestRecord_Shape(t *testing.T) {
	s := openTest(t, &fakeBackend{})
	s.AddShortcut("Page 1")
	rec := s.Record()

	for _, k := range []string{KeyFirstRun, KeyShowPageTitles, KeyEnableJumpDock} {
		if _, ok := rec[k].(bool); !ok {
			t.Errorf("record[%q] = %#v, want bool", k, rec[k])
		}
	}
	list, ok := rec[KeyShortcuts].([]any)
	if !ok || len(list) != 1 {
		t.Fatalf("record shortcuts = %#v", rec[KeyShortcuts])
	}
	if !s.IsModified() {
		t.Error("Record must not write")
	}
}

func TestShared_OpensOnce(t *testing.T) {
	b := &fakeBackend{record: map[string]any{KeyShowPageTitles: false}}
	sharedBackend = func() Backend { return b }

	first := Shared(ctx)
	second := Shared(ctx)
	if first != second {
		t.Error("Shared returned different instances")
	}
	if first.ShowPageTitles() {
		t.Error("Shared store did not read its backend")
	}
}

func TestRespringKeys(t *testing.T) {
	keys := RespringKeys()
	want := map[string]bool{KeyEnableJumpDock: true, KeyShortcuts: true}
	if len(keys) != len(want) {
		t.Fatalf("RespringKeys = %v", keys)
	}
	for _, k := range keys {
		if !want[k] {
			t.Errorf("unexpected respring key %q", k)
		}
	}
}
