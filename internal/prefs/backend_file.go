package prefs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alexflint/go-filemutex"
)

// FileBackend stores the record as a JSON object. A sibling ".lock" file
// serializes access with the host process reading the same file.
type FileBackend struct {
	path string
}

// NewFileBackend returns a backend that persists to path.
func NewFileBackend(path string) *FileBackend {
	return &FileBackend{path: path}
}

// Path returns the file the backend reads and writes.
func (b *FileBackend) Path() string {
	return b.path
}

func (b *FileBackend) lock() (*filemutex.FileMutex, error) {
	if err := os.MkdirAll(filepath.Dir(b.path), 0o755); err != nil {
		return nil, fmt.Errorf("creating preferences dir: %w", err)
	}
	m, err := filemutex.New(b.path + ".lock")
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}
	return m, nil
}

func (b *FileBackend) Load(ctx context.Context) (map[string]any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(b.path); errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoRecord
	}

	m, err := b.lock()
	if err != nil {
		return nil, err
	}
	defer m.Close()
	if err := m.RLock(); err != nil {
		return nil, fmt.Errorf("locking %s: %w", b.path, err)
	}
	defer m.RUnlock()

	data, err := os.ReadFile(b.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNoRecord
		}
		return nil, fmt.Errorf("reading %s: %w", b.path, err)
	}

	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", b.path, err)
	}
	if record == nil {
		return nil, ErrNoRecord
	}
	return record, nil
}

func (b *FileBackend) Save(ctx context.Context, record map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}

	m, err := b.lock()
	if err != nil {
		return err
	}
	defer m.Close()
	if err := m.Lock(); err != nil {
		return fmt.Errorf("locking %s: %w", b.path, err)
	}
	defer m.Unlock()

	// Readers must never see a half-written file.
	tmp, err := os.CreateTemp(filepath.Dir(b.path), "."+filepath.Base(b.path)+".*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, b.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", b.path, err)
	}
	return nil
}
