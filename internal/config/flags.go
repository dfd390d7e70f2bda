package config

import (
	"flag"
	"io"
)

// parseFlags applies the command-line flags and returns the remaining
// arguments. -c and -config are accepted here too so they do not stop
// parsing; their value was already used by parseJSON.
func parseFlags(cfg *Config, args []string) ([]string, error) {
	fs := flag.NewFlagSet("engz", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var configPath string
	fs.StringVar(&configPath, "c", "", "path to config file (short)")
	fs.StringVar(&configPath, "config", "", "path to config file")

	fs.StringVar(&cfg.APIBaseURL, "api-url", cfg.APIBaseURL, "EngZ API base URL")
	fs.StringVar(&cfg.APIKey, "api-key", cfg.APIKey, "EngZ API key")
	fs.DurationVar(&cfg.HTTPTimeout, "http-timeout", cfg.HTTPTimeout, "HTTP request timeout")
	fs.StringVar(&cfg.DatabasePath, "db", cfg.DatabasePath, "path to the local database")
	fs.DurationVar(&cfg.StoragePollInterval, "poll-interval", cfg.StoragePollInterval, "storage change poll interval")
	fs.DurationVar(&cfg.SyncInterval, "sync-interval", cfg.SyncInterval, "daemon sync interval")
	fs.StringVar(&cfg.DaemonAddr, "addr", cfg.DaemonAddr, "daemon gRPC address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level: debug, info, warn, error")
	fs.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, "log format: text, json, zap")
	fs.StringVar(&cfg.BackupBucket, "backup-bucket", cfg.BackupBucket, "S3 bucket for notebook backups")
	fs.StringVar(&cfg.BackupRegion, "backup-region", cfg.BackupRegion, "S3 region")
	fs.StringVar(&cfg.BackupEndpoint, "backup-endpoint", cfg.BackupEndpoint, "S3 compatible endpoint")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}
