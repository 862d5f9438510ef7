//go:build darwin

package prefs

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultsDomain is the user defaults domain the host process reads.
const DefaultsDomain = "com.springjumps.prefs"

type defaultsBackend struct {
	domain string
}

// NewPlatformBackend returns the user defaults backend, or a file backend
// when path is set.
func NewPlatformBackend(path string) Backend {
	if path != "" {
		return NewFileBackend(path)
	}
	return &defaultsBackend{domain: DefaultsDomain}
}

func run(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w, output: %s", name, strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
	}
	return out, nil
}

func (b *defaultsBackend) Load(ctx context.Context) (map[string]any, error) {
	plist, err := run(ctx, nil, "defaults", "export", b.domain, "-")
	if err != nil {
		return nil, err
	}
	js, err := run(ctx, plist, "plutil", "-convert", "json", "-o", "-", "-")
	if err != nil {
		return nil, err
	}

	var record map[string]any
	if err := json.Unmarshal(js, &record); err != nil {
		return nil, fmt.Errorf("parsing defaults domain %s: %w", b.domain, err)
	}
	if len(record) == 0 {
		return nil, ErrNoRecord
	}
	return record, nil
}

func (b *defaultsBackend) Save(ctx context.Context, record map[string]any) error {
	js, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("encoding preferences: %w", err)
	}
	plist, err := run(ctx, js, "plutil", "-convert", "xml1", "-o", "-", "-")
	if err != nil {
		return err
	}
	_, err = run(ctx, plist, "defaults", "import", b.domain, "-")
	return err
}
