// Package config loads the runtime settings of the engz command.
//
// Sources, later ones winning:
//
//  1. built-in defaults (LoadDefaults)
//  2. a JSON file given with -c or -config
//  3. ENGZ_* environment variables, with a .env file filling the gaps
//  4. command-line flags
//
// Durations in the JSON file are strings such as "5m" or integer
// nanoseconds:
//
//	{
//	  "api_base_url": "https://api.engz.io.vn",
//	  "database_path": "engz.db",
//	  "sync_interval": "5m"
//	}
package config

import (
	"os"
	"time"

	"github.com/khanhkom/engz/internal/api"
	"github.com/khanhkom/engz/internal/flagx"
	"github.com/khanhkom/engz/internal/logging"
)

// DotEnvFile is read from the working directory when present.
const DotEnvFile = ".env"

type Config struct {
	APIBaseURL          string
	APIKey              string
	HTTPTimeout         time.Duration
	DatabasePath        string
	StoragePollInterval time.Duration
	SyncInterval        time.Duration
	DaemonAddr          string
	LogLevel            string
	LogFormat           string

	// VaultPassphrase enables encryption of the auth state at rest.
	VaultPassphrase string

	BackupBucket    string
	BackupRegion    string
	BackupEndpoint  string
	BackupAccessKey string
	BackupSecretKey string
}

func (c *Config) LoadDefaults() {
	c.APIBaseURL = api.DefaultBaseURL
	c.HTTPTimeout = 30 * time.Second
	c.DatabasePath = "engz.db"
	c.StoragePollInterval = time.Second
	c.SyncInterval = 5 * time.Minute
	c.DaemonAddr = "127.0.0.1:50551"
	c.LogLevel = "info"
	c.LogFormat = logging.FormatText
	c.BackupRegion = "us-east-1"
}

// BackupEnabled reports whether a backup bucket is configured.
func (c *Config) BackupEnabled() bool {
	return c.BackupBucket != ""
}

// LoadConfig builds a Config from args (usually os.Args[1:]) and the
// environment. It also returns the arguments left after the flags, which
// name the command to run.
func LoadConfig(args []string) (*Config, []string, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJSON(cfg, flagx.ConfigPath(args)); err != nil {
		return nil, nil, err
	}
	if err := parseEnv(cfg, DotEnvFile, os.LookupEnv); err != nil {
		return nil, nil, err
	}
	rest, err := parseFlags(cfg, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, rest, nil
}
