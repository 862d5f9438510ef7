package prefs

import (
	"fmt"
	"log/slog"

	"github.com/springjumps/springjumps/internal/shortcut"
)

// overlay copies every well-formed field of record onto base. Malformed
// fields are logged and skipped; the shortcut list is taken whole or not at all.
func overlay(base Snapshot, record map[string]any, logger *slog.Logger) Snapshot {
	out := base.clone()
	for _, t := range toggles {
		raw, ok := record[t.key]
		if !ok {
			continue
		}
		v, err := shortcut.ParseBool(raw)
		if err != nil {
			logger.Warn("ignoring malformed preference, keeping default", "key", t.key, "error", err)
			continue
		}
		t.apply(&out, v)
	}

	if raw, ok := record[KeyShortcuts]; ok {
		entries, err := DecodeShortcuts(raw)
		if err != nil {
			logger.Warn("ignoring malformed preference, keeping default", "key", KeyShortcuts, "error", err)
		} else {
			out.Shortcuts = entries
		}
	}
	return out
}

// Parse decodes a persisted record the way the host process does: every
// missing or malformed field keeps its default.
func Parse(record map[string]any, logger *slog.Logger) Snapshot {
	if logger == nil {
		logger = slog.Default()
	}
	return overlay(Defaults(), record, logger)
}

// DecodeShortcuts decodes an ordered list of shortcut records. It fails on
// the first malformed or duplicate entry.
func DecodeShortcuts(raw any) ([]shortcut.Entry, error) {
	var items []map[string]any
	switch list := raw.(type) {
	case []any:
		for i, item := range list {
			m, ok := item.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("entry %d: %w: %T", i, shortcut.ErrWrongType, item)
			}
			items = append(items, m)
		}
	case []map[string]any:
		items = list
	case nil:
	default:
		return nil, fmt.Errorf("%w: %T", shortcut.ErrWrongType, raw)
	}

	entries := make([]shortcut.Entry, 0, len(items))
	for i, m := range items {
		e, err := shortcut.Decode(m)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		if shortcut.Find(entries, e.Name) >= 0 {
			return nil, fmt.Errorf("entry %d: %w: %q", i, ErrDuplicateName, e.Name)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
