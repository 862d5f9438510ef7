package prefs

// Record keys. The host process reads these, so they must stay stable.
const (
	KeyFirstRun       = "firstRun"
	KeyShowPageTitles = "showPageTitles"
	KeyEnableJumpDock = "enableJumpDock"
	KeyShortcuts      = "shortcuts"
)

type toggleSpec struct {
	key      string
	respring bool
	apply    func(s *Snapshot, v bool)
	extract  func(s Snapshot) bool
}

var toggles = []toggleSpec{
	{
		key:     KeyFirstRun,
		apply:   func(s *Snapshot, v bool) { s.FirstRun = v },
		extract: func(s Snapshot) bool { return s.FirstRun },
	},
	{
		key:     KeyShowPageTitles,
		apply:   func(s *Snapshot, v bool) { s.ShowPageTitles = v },
		extract: func(s Snapshot) bool { return s.ShowPageTitles },
	},
	{
		key: KeyEnableJumpDock, respring: true,
		apply:   func(s *Snapshot, v bool) { s.JumpDockEnabled = v },
		extract: func(s Snapshot) bool { return s.JumpDockEnabled },
	},
}

// shortcutsRespring marks the shortcut list as SpringBoard-visible: icons are
// installed at respring time.
const shortcutsRespring = true

func lookupToggle(key string) (toggleSpec, bool) {
	for _, t := range toggles {
		if t.key == key {
			return t, true
		}
	}
	return toggleSpec{}, false
}

// ToggleKeys returns the record keys accepted by SetToggle.
func ToggleKeys() []string {
	keys := make([]string, 0, len(toggles))
	for _, t := range toggles {
		keys = append(keys, t.key)
	}
	return keys
}

// RespringKeys returns the record keys whose changes need a respring.
func RespringKeys() []string {
	var keys []string
	for _, t := range toggles {
		if t.respring {
			keys = append(keys, t.key)
		}
	}
	if shortcutsRespring {
		keys = append(keys, KeyShortcuts)
	}
	return keys
}
