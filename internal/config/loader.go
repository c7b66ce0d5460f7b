package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies ARBCORE_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known ARBCORE_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject connection details at deploy time without touching
// the TOML file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Redis.Addr, "ARBCORE_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "ARBCORE_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "ARBCORE_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "ARBCORE_REDIS_TLS_ENABLED")

	setStr(&cfg.Metrics.ListenAddr, "ARBCORE_METRICS_LISTEN_ADDR")
	setBool(&cfg.Metrics.Enabled, "ARBCORE_METRICS_ENABLED")

	setInt(&cfg.Engine.BatchSize, "ARBCORE_ENGINE_BATCH_SIZE")
	setInt(&cfg.Engine.Workers, "ARBCORE_ENGINE_WORKERS")

	setStr(&cfg.LogLevel, "ARBCORE_LOG_LEVEL")
}

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
