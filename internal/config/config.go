// Package config handles loading and validation of accredit.yaml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/accredit/internal/alert"
	"github.com/dwsmith1983/accredit/internal/extract"
	"github.com/dwsmith1983/accredit/internal/reconstruct"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// FileName is the configuration file looked up by Load.
const FileName = "accredit.yaml"

// Defaults applied after environment overrides.
const (
	DefaultAddr           = ":3000"
	DefaultMaxRequestBody = 32 << 20
	DefaultSQLitePath     = "accredit.db"
)

// Load reads accredit.yaml from dir, applies ACCREDIT_* environment
// overrides and defaults, then validates the result.
func Load(dir string) (*types.ProjectConfig, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg types.ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return finish(&cfg)
}

// FromEnv builds a configuration from ACCREDIT_* environment variables alone.
func FromEnv() (*types.ProjectConfig, error) {
	return finish(&types.ProjectConfig{})
}

func finish(cfg *types.ProjectConfig) (*types.ProjectConfig, error) {
	ensureSections(cfg)
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment: %w", err)
	}
	applyDefaults(cfg)
	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

// ensureSections allocates absent sections so environment variables can
// populate them.
func ensureSections(cfg *types.ProjectConfig) {
	if cfg.SQLite == nil {
		cfg.SQLite = &types.SQLiteConfig{}
	}
	if cfg.Postgres == nil {
		cfg.Postgres = &types.PostgresConfig{}
	}
	if cfg.DynamoDB == nil {
		cfg.DynamoDB = &types.DynamoDBConfig{}
	}
	if cfg.Redis == nil {
		cfg.Redis = &types.RedisConfig{}
	}
	if cfg.Server == nil {
		cfg.Server = &types.ServerConfig{}
	}
	if cfg.Ingest == nil {
		cfg.Ingest = &types.IngestConfig{}
	}
	if cfg.Listing == nil {
		cfg.Listing = &types.ListingConfig{}
	}
	if cfg.Breaker == nil {
		cfg.Breaker = &types.BreakerConfig{}
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = &types.TelemetryConfig{}
	}
	if cfg.Notify == nil {
		cfg.Notify = &types.NotifyConfig{}
	}
	if cfg.Archive == nil {
		cfg.Archive = &types.ArchiveConfig{}
	}
	if cfg.Watchdog == nil {
		cfg.Watchdog = &types.WatchdogConfig{}
	}
}

func applyDefaults(cfg *types.ProjectConfig) {
	usesSQLite := cfg.Provider == "sqlite" || (cfg.Archive.Enabled && cfg.Archive.Provider == "sqlite")
	if usesSQLite && cfg.SQLite.Path == "" {
		cfg.SQLite.Path = DefaultSQLitePath
	}
	if cfg.Server.Addr == "" {
		cfg.Server.Addr = DefaultAddr
	}
	if cfg.Server.MaxRequestBody == 0 {
		cfg.Server.MaxRequestBody = DefaultMaxRequestBody
	}
	if cfg.Ingest.StudentIDLength == 0 {
		cfg.Ingest.StudentIDLength = extract.DefaultStudentIDLength
	}
	if cfg.Ingest.Policy == "" {
		cfg.Ingest.Policy = types.PolicyBestEffort
	}
	if cfg.Listing.FlattenPolicy == "" {
		cfg.Listing.FlattenPolicy = types.FlattenDrop
	}
	if cfg.Listing.DefaultPageSize == 0 {
		cfg.Listing.DefaultPageSize = reconstruct.DefaultPageSize
	}
	if cfg.Listing.MaxPageSize == 0 {
		cfg.Listing.MaxPageSize = reconstruct.MaxPageSize
	}
}

func validate(cfg *types.ProjectConfig) error {
	if cfg.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if err := validateProvider(cfg, cfg.Provider); err != nil {
		return err
	}

	if cfg.Ingest.StudentIDLength < 1 {
		return fmt.Errorf("ingest.studentIdLength must be positive")
	}
	switch cfg.Ingest.Policy {
	case types.PolicyBestEffort, types.PolicyCompensate:
	default:
		return fmt.Errorf("ingest.policy must be %q or %q", types.PolicyBestEffort, types.PolicyCompensate)
	}

	switch cfg.Listing.FlattenPolicy {
	case types.FlattenDrop, types.FlattenSurface:
	default:
		return fmt.Errorf("listing.flattenPolicy must be %q or %q", types.FlattenDrop, types.FlattenSurface)
	}
	if cfg.Listing.DefaultPageSize < 1 || cfg.Listing.MaxPageSize < 1 {
		return fmt.Errorf("listing page sizes must be positive")
	}
	if cfg.Listing.DefaultPageSize > cfg.Listing.MaxPageSize {
		return fmt.Errorf("listing.defaultPageSize exceeds listing.maxPageSize")
	}

	if cfg.Server.MaxRequestBody < 0 {
		return fmt.Errorf("server.maxRequestBody must not be negative")
	}
	if _, err := BreakerCooldown(cfg.Breaker); err != nil {
		return err
	}
	if cfg.Breaker.FailThreshold < 0 {
		return fmt.Errorf("breaker.failThreshold must not be negative")
	}
	if err := validateArchive(cfg); err != nil {
		return err
	}
	if _, _, err := WatchdogTimings(cfg.Watchdog); err != nil {
		return err
	}
	return validateAlerts(cfg.Alerts)
}

// validateProvider checks that the section backing name carries what the
// provider needs to connect.
func validateProvider(cfg *types.ProjectConfig, name string) error {
	switch name {
	case "memory", "sqlite":
	case "postgres":
		if cfg.Postgres.DSN == "" {
			return fmt.Errorf("postgres.dsn is required")
		}
	case "redis":
		if cfg.Redis.Addr == "" {
			return fmt.Errorf("redis.addr is required")
		}
	case "dynamodb":
		if cfg.DynamoDB.TableName == "" {
			return fmt.Errorf("dynamodb.tableName is required")
		}
	default:
		return fmt.Errorf("unsupported provider: %s", name)
	}
	return nil
}

func validateArchive(cfg *types.ProjectConfig) error {
	ac := cfg.Archive
	if !ac.Enabled {
		return nil
	}
	switch ac.Provider {
	case "":
		return fmt.Errorf("archive.provider is required when archiving is enabled")
	case "memory":
		return fmt.Errorf("archive.provider must be durable")
	case cfg.Provider:
		return fmt.Errorf("archive.provider must differ from provider")
	}
	if err := validateProvider(cfg, ac.Provider); err != nil {
		return fmt.Errorf("archive: %w", err)
	}
	if _, err := ArchiveInterval(ac); err != nil {
		return err
	}
	return nil
}

func validateAlerts(alerts []types.AlertConfig) error {
	for i, a := range alerts {
		switch a.Type {
		case types.AlertConsole:
		case types.AlertWebhook:
			if a.URL == "" {
				return fmt.Errorf("alerts[%d]: url is required for webhook", i)
			}
		case types.AlertFile:
			if a.Path == "" {
				return fmt.Errorf("alerts[%d]: path is required for file", i)
			}
		case types.AlertS3:
			if a.BucketName == "" {
				return fmt.Errorf("alerts[%d]: bucketName is required for s3", i)
			}
		default:
			return fmt.Errorf("alerts[%d]: unsupported type %q", i, a.Type)
		}
		if !alert.ValidLevel(a.MinLevel) {
			return fmt.Errorf("alerts[%d]: unsupported minLevel %q", i, a.MinLevel)
		}
	}
	return nil
}

// WatchdogTimings parses the watchdog interval and grace period. Empty
// values yield zero, which the watchdog replaces with its own defaults.
func WatchdogTimings(wc *types.WatchdogConfig) (interval, grace time.Duration, err error) {
	if wc == nil {
		return 0, 0, nil
	}
	if interval, err = positiveDuration("watchdog.interval", wc.Interval); err != nil {
		return 0, 0, err
	}
	if grace, err = positiveDuration("watchdog.grace", wc.Grace); err != nil {
		return 0, 0, err
	}
	return interval, grace, nil
}

func positiveDuration(name, v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}

// ArchiveInterval parses the archive interval. An empty value yields zero,
// which the archiver replaces with its own default.
func ArchiveInterval(ac *types.ArchiveConfig) (time.Duration, error) {
	if ac == nil {
		return 0, nil
	}
	return positiveDuration("archive.interval", ac.Interval)
}

// BreakerCooldown parses the breaker cooldown. An empty value yields zero,
// which callers treat as the breaker default.
func BreakerCooldown(bc *types.BreakerConfig) (time.Duration, error) {
	if bc == nil || bc.Cooldown == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(bc.Cooldown)
	if err != nil {
		return 0, fmt.Errorf("breaker.cooldown: %w", err)
	}
	if d < 0 {
		return 0, errors.New("breaker.cooldown must not be negative")
	}
	return d, nil
}
