package config

import (
	"log/slog"
	"os"
	"strconv"
)

type keyType int

const (
	kString keyType = iota
	kInt
)

type keySpec struct {
	key     string
	typ     keyType
	env     string
	secret  bool
	apply   func(cfg *Config, v any)
	extract func(cfg Config) any
}

var specs = []keySpec{
	{
		key: "log.level", typ: kString, env: "SPRINGJUMPS_LOG_LEVEL",
		apply:   func(cfg *Config, v any) { cfg.Log.Level = v.(string) },
		extract: func(cfg Config) any { return cfg.Log.Level },
	},
	{
		key: "prefs.path", typ: kString, env: "SPRINGJUMPS_PREFS_PATH",
		apply:   func(cfg *Config, v any) { cfg.Prefs.Path = v.(string) },
		extract: func(cfg Config) any { return cfg.Prefs.Path },
	},
	{
		key: "storage.data_dir", typ: kString, env: "SPRINGJUMPS_STORAGE_DATA_DIR",
		apply:   func(cfg *Config, v any) { cfg.Storage.DataDir = v.(string) },
		extract: func(cfg Config) any { return cfg.Storage.DataDir },
	},
	{
		key: "history.keep", typ: kInt, env: "SPRINGJUMPS_HISTORY_KEEP",
		apply:   func(cfg *Config, v any) { cfg.History.Keep = v.(int) },
		extract: func(cfg Config) any { return cfg.History.Keep },
	},
	{
		key: "server.port", typ: kInt, env: "SPRINGJUMPS_SERVER_PORT",
		apply:   func(cfg *Config, v any) { cfg.Server.Port = v.(int) },
		extract: func(cfg Config) any { return cfg.Server.Port },
	},
	{
		key: "server.token", typ: kString, env: "SPRINGJUMPS_SERVER_TOKEN",
		secret:  true,
		apply:   func(cfg *Config, v any) { cfg.Server.Token = v.(string) },
		extract: func(cfg Config) any { return cfg.Server.Token },
	},
}

func applyEnvOverrides(cfg *Config) {
	for _, s := range specs {
		if s.env == "" {
			continue
		}
		raw := os.Getenv(s.env)
		if raw == "" {
			continue
		}
		switch s.typ {
		case kString:
			s.apply(cfg, raw)
		case kInt:
			if i, err := strconv.Atoi(raw); err == nil {
				s.apply(cfg, i)
			} else {
				slog.Warn("could not parse integer from env var, using default value", "env", s.env, "value", raw, "error", err)
			}
		}
	}
}
