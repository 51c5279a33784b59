package config

import (
	"encoding/json"
	"os"

	"github.com/avolkov/lockbox/internal/flagx"
	"github.com/avolkov/lockbox/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON
// unmarshalling. It uses timex.Duration for interval fields, which allows
// parsing both string values such as "60m" and integer nanoseconds.
//
// This struct is an intermediate DTO used only for reading JSON
// configuration files. After unmarshalling, its fields are copied into the
// runtime Config struct which uses time.Duration.
type JsonConfig struct {
	DatabaseDriver   string         `json:"database_driver"`
	DatabaseDSN      string         `json:"database_dsn"`
	SessionDir       string         `json:"session_dir"`
	SessionTTL       timex.Duration `json:"session_ttl"`
	MaxLoginAttempts int            `json:"max_login_attempts"`
	LockoutDuration  timex.Duration `json:"lockout_duration"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance. The file path is taken from the -c or -config flags;
// if neither is set, no JSON file is loaded. An unreadable or invalid
// file panics, since running with a half-applied config is worse than not
// starting.
func parseJson(config *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	config.DatabaseDriver = c.DatabaseDriver
	config.DatabaseDSN = c.DatabaseDSN
	config.SessionDir = c.SessionDir
	config.SessionTTL = c.SessionTTL.Duration
	config.MaxLoginAttempts = c.MaxLoginAttempts
	config.LockoutDuration = c.LockoutDuration.Duration
}
