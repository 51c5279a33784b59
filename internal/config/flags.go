package config

import (
	"flag"
	"os"
	"time"

	"github.com/avolkov/lockbox/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-r string   database driver ("sqlite" or "postgres")
//	-d string   database DSN
//	-s string   session record directory
//	-t int      session TTL, minutes
//	-m int      max consecutive failed logins before lockout
//	-l int      lockout duration, hours
//
// The function first filters os.Args to only the flags it recognizes using
// flagx.FilterArgs, avoiding collisions with other components.
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-r", "-d", "-s", "-t", "-m", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.DatabaseDriver, "r", config.DatabaseDriver, "database driver")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SessionDir, "s", config.SessionDir, "session record directory")

	sessionTTL := fs.Int("t", int(config.SessionTTL.Minutes()), "session TTL (in minutes)")
	fs.IntVar(&config.MaxLoginAttempts, "m", config.MaxLoginAttempts, "max failed logins before lockout")
	lockout := fs.Int("l", int(config.LockoutDuration.Hours()), "lockout duration (in hours)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.SessionTTL = time.Duration(*sessionTTL) * time.Minute
	config.LockoutDuration = time.Duration(*lockout) * time.Hour
}
