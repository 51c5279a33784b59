// Package config handles configuration for the vault,
// including defaults, JSON overlay, and command-line flags.
package config

import "time"

// Config holds runtime settings for the lockbox vault.
//
// Fields:
//   - DatabaseDriver: "sqlite" or "postgres".
//   - DatabaseDSN: DSN for the chosen driver.
//   - SessionDir: directory holding per-user session record files.
//   - SessionTTL: default lifetime of interactive session tokens.
//   - MaxLoginAttempts: consecutive failed logins before lockout.
//   - LockoutDuration: how long a locked account rejects all attempts.
type Config struct {
	DatabaseDriver   string
	DatabaseDSN      string
	SessionDir       string
	SessionTTL       time.Duration
	MaxLoginAttempts int
	LockoutDuration  time.Duration
}

// LoadDefaults populates Config with sensible local-use defaults.
func (c *Config) LoadDefaults() {
	c.DatabaseDriver = "sqlite"
	c.DatabaseDSN = "file:lockbox.db"
	c.SessionDir = "sessions"
	c.SessionTTL = 60 * time.Minute
	c.MaxLoginAttempts = 3
	c.LockoutDuration = 24 * time.Hour
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from an optional JSON file and finally from command-line flags.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
