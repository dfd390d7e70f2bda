package config

import (
	"fmt"
	"os"

	"github.com/khanhkom/engz/internal/timex"
	"github.com/segmentio/encoding/json"
)

// jsonConfig is the file form of Config. Absent fields leave the current
// value alone.
type jsonConfig struct {
	APIBaseURL          *string         `json:"api_base_url"`
	APIKey              *string         `json:"api_key"`
	HTTPTimeout         *timex.Duration `json:"http_timeout"`
	DatabasePath        *string         `json:"database_path"`
	StoragePollInterval *timex.Duration `json:"storage_poll_interval"`
	SyncInterval        *timex.Duration `json:"sync_interval"`
	DaemonAddr          *string         `json:"daemon_addr"`
	LogLevel            *string         `json:"log_level"`
	LogFormat           *string         `json:"log_format"`
	BackupBucket        *string         `json:"backup_bucket"`
	BackupRegion        *string         `json:"backup_region"`
	BackupEndpoint      *string         `json:"backup_endpoint"`
}

func parseJSON(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var jc jsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&cfg.APIBaseURL, jc.APIBaseURL)
	setString(&cfg.APIKey, jc.APIKey)
	setString(&cfg.DatabasePath, jc.DatabasePath)
	setString(&cfg.DaemonAddr, jc.DaemonAddr)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.BackupBucket, jc.BackupBucket)
	setString(&cfg.BackupRegion, jc.BackupRegion)
	setString(&cfg.BackupEndpoint, jc.BackupEndpoint)
	if jc.HTTPTimeout != nil {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.StoragePollInterval != nil {
		cfg.StoragePollInterval = jc.StoragePollInterval.Duration
	}
	if jc.SyncInterval != nil {
		cfg.SyncInterval = jc.SyncInterval.Duration
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
