package config

import "fmt"

// Config holds settings of the springjumps tool itself, not the tweak's
// preferences.
type Config struct {
	Log     LogConfig
	Prefs   PrefsConfig
	Storage StorageConfig
	History HistoryConfig
	Server  ServerConfig
}

type LogConfig struct {
	Level string
}

type PrefsConfig struct {
	// Path of a JSON preferences file. Empty selects the platform backend.
	Path string
}

type StorageConfig struct {
	DataDir string
}

type HistoryConfig struct {
	Keep int
}

type ServerConfig struct {
	Port  int
	// Token is the bearer token for `serve`. Empty generates one per run.
	Token string
}

func defaults() Config {
	return Config{
		Log:     LogConfig{Level: "info"},
		Storage: StorageConfig{DataDir: defaultDataDir()},
		History: HistoryConfig{Keep: 50},
		Server:  ServerConfig{Port: 4080},
	}
}

// Load returns the defaults with SPRINGJUMPS_* environment variables
// applied on top.
func Load() (Config, error) {
	cfg := defaults()
	applyEnvOverrides(&cfg)
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.Server.Port < 1 || cfg.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port %d out of range", cfg.Server.Port)
	}
	if cfg.History.Keep < 0 {
		return fmt.Errorf("invalid config: history.keep must not be negative")
	}
	if cfg.Storage.DataDir == "" {
		return fmt.Errorf("missing required config: storage.data_dir")
	}
	return nil
}
