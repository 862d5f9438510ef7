//go:build !darwin

package prefs

import (
	"os"
	"path/filepath"
)

// NewPlatformBackend returns a JSON file backend at path, or at
// $XDG_CONFIG_HOME/springjumps/preferences.json when path is empty.
func NewPlatformBackend(path string) Backend {
	if path == "" {
		path = DefaultFilePath()
	}
	return NewFileBackend(path)
}

// DefaultFilePath is where preferences live when no path is configured.
func DefaultFilePath() string {
	dir := os.Getenv("XDG_CONFIG_HOME")
	if dir == "" {
		if home, err := os.UserHomeDir(); err == nil {
			dir = filepath.Join(home, ".config")
		} else {
			dir = "."
		}
	}
	return filepath.Join(dir, "springjumps", "preferences.json")
}
