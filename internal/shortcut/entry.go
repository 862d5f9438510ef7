package shortcut

import (
	"errors"
	"fmt"
	"strings"
)

// Record keys for a persisted shortcut.
const (
	KeyName    = "name"
	KeyEnabled = "enabled"
)

var (
	// ErrMissingField is returned when a record lacks a required key.
	ErrMissingField = errors.New("missing field")
	// ErrWrongType is returned when a record value has an unusable type.
	ErrWrongType = errors.New("wrong type")
	// ErrEmptyName is returned for a shortcut without a name.
	ErrEmptyName = errors.New("shortcut name is empty")
)

// Entry is one named shortcut that can be switched on or off.
// Name identifies the entry within an ordered list.
type Entry struct {
	Name    string
	Enabled bool
}

// New returns an enabled shortcut with the given name.
func New(name string) Entry {
	return Entry{Name: name, Enabled: true}
}

// Validate reports whether e can be persisted.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return ErrEmptyName
	}
	return nil
}

// Record returns the persisted form of e.
func (e Entry) Record() map[string]any {
	return map[string]any{
		KeyName:    e.Name,
		KeyEnabled: e.Enabled,
	}
}

// Decode builds an Entry from a persisted record. Both fields are required.
func Decode(record map[string]any) (Entry, error) {
	rawName, ok := record[KeyName]
	if !ok {
		return Entry{}, fmt.Errorf("%s: %w", KeyName, ErrMissingField)
	}
	name, ok := rawName.(string)
	if !ok {
		return Entry{}, fmt.Errorf("%s: %w: %T", KeyName, ErrWrongType, rawName)
	}

	rawEnabled, ok := record[KeyEnabled]
	if !ok {
		return Entry{}, fmt.Errorf("%s: %w", KeyEnabled, ErrMissingField)
	}
	enabled, err := ParseBool(rawEnabled)
	if err != nil {
		return Entry{}, fmt.Errorf("%s: %w", KeyEnabled, err)
	}

	e := Entry{Name: name, Enabled: enabled}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// ParseBool accepts a JSON bool, or the 0/1 and YES/NO forms that
// `defaults` and older plist files produce.
func ParseBool(v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case float64:
		if val == 0 || val == 1 {
			return val == 1, nil
		}
	case int:
		if val == 0 || val == 1 {
			return val == 1, nil
		}
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true", "yes", "1":
			return true, nil
		case "false", "no", "0":
			return false, nil
		}
	}
	return false, fmt.Errorf("%w: %v (%T)", ErrWrongType, v, v)
}

// Find returns the position of the entry named name, or -1.
func Find(entries []Entry, name string) int {
	for i, e := range entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

// Clone returns a copy of entries that never aliases the input.
func Clone(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}

// Equal reports whether a and b hold the same entries in the same order.
func Equal(a, b []Entry) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
