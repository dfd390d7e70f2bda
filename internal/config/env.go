package config

import (
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/joho/godotenv"
)

// parseEnv overlays ENGZ_* variables. Values from dotEnvPath apply only to
// variables that lookup does not find.
func parseEnv(cfg *Config, dotEnvPath string, lookup func(string) (string, bool)) error {
	fileVars := map[string]string{}
	if dotEnvPath != "" {
		vars, err := godotenv.Read(dotEnvPath)
		switch {
		case err == nil:
			fileVars = vars
		case errors.Is(err, fs.ErrNotExist):
		default:
			return fmt.Errorf("read %s: %w", dotEnvPath, err)
		}
	}

	get := func(key string) (string, bool) {
		if v, ok := lookup(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	strs := map[string]*string{
		"ENGZ_API_URL":           &cfg.APIBaseURL,
		"ENGZ_API_KEY":           &cfg.APIKey,
		"ENGZ_DB":                &cfg.DatabasePath,
		"ENGZ_DAEMON_ADDR":       &cfg.DaemonAddr,
		"ENGZ_LOG_LEVEL":         &cfg.LogLevel,
		"ENGZ_LOG_FORMAT":        &cfg.LogFormat,
		"ENGZ_VAULT_PASSPHRASE":  &cfg.VaultPassphrase,
		"ENGZ_BACKUP_BUCKET":     &cfg.BackupBucket,
		"ENGZ_BACKUP_REGION":     &cfg.BackupRegion,
		"ENGZ_BACKUP_ENDPOINT":   &cfg.BackupEndpoint,
		"ENGZ_BACKUP_ACCESS_KEY": &cfg.BackupAccessKey,
		"ENGZ_BACKUP_SECRET_KEY": &cfg.BackupSecretKey,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	durations := map[string]*time.Duration{
		"ENGZ_HTTP_TIMEOUT":  &cfg.HTTPTimeout,
		"ENGZ_POLL_INTERVAL": &cfg.StoragePollInterval,
		"ENGZ_SYNC_INTERVAL": &cfg.SyncInterval,
	}
	for key, dst := range durations {
		v, ok := get(key)
		if !ok {
			continue
		}
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		*dst = d
	}
	return nil
}
