// Package commands implements the CLI subcommands for the accredit binary.
package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"gopkg.in/yaml.v3"

	"github.com/dwsmith1983/accredit/internal/alert"
	"github.com/dwsmith1983/accredit/internal/archiver"
	"github.com/dwsmith1983/accredit/internal/config"
	"github.com/dwsmith1983/accredit/internal/extract"
	"github.com/dwsmith1983/accredit/internal/ingest"
	"github.com/dwsmith1983/accredit/internal/metrics"
	"github.com/dwsmith1983/accredit/internal/notify"
	"github.com/dwsmith1983/accredit/internal/projection"
	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/internal/provider/breaker"
	ddbprov "github.com/dwsmith1983/accredit/internal/provider/dynamodb"
	"github.com/dwsmith1983/accredit/internal/provider/memory"
	pgprov "github.com/dwsmith1983/accredit/internal/provider/postgres"
	"github.com/dwsmith1983/accredit/internal/provider/redis"
	"github.com/dwsmith1983/accredit/internal/provider/sqlite"
	"github.com/dwsmith1983/accredit/internal/reconstruct"
	"github.com/dwsmith1983/accredit/internal/telemetry"
	"github.com/dwsmith1983/accredit/internal/watchdog"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// newProvider creates the configured storage provider, wrapped in circuit
// breakers when enabled.
func newProvider(ctx context.Context, cfg *types.ProjectConfig, logger *slog.Logger) (provider.Provider, error) {
	var (
		prov provider.Provider
		err  error
	)
	switch cfg.Provider {
	case "memory":
		prov = memory.New()
	case "sqlite":
		if cfg.SQLite == nil {
			return nil, fmt.Errorf("sqlite config is required when provider is sqlite")
		}
		prov, err = sqlite.Open(cfg.SQLite.Path)
	case "postgres":
		var pg *pgprov.PostgresProvider
		pg, err = pgprov.New(ctx, cfg.Postgres)
		if err == nil {
			if err = pg.Migrate(ctx); err != nil {
				_ = pg.Stop(ctx)
			}
		}
		prov = pg
	case "redis":
		if cfg.Redis == nil {
			return nil, fmt.Errorf("redis config is required when provider is redis")
		}
		prov = redis.New(cfg.Redis)
	case "dynamodb":
		if cfg.DynamoDB == nil {
			return nil, fmt.Errorf("dynamodb config is required when provider is dynamodb")
		}
		var ddb *ddbprov.DynamoDBProvider
		ddb, err = ddbprov.New(cfg.DynamoDB)
		if err == nil {
			ddb.SetLogger(logger)
		}
		prov = ddb
	default:
		return nil, fmt.Errorf("unsupported provider: %s", cfg.Provider)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Breaker != nil && cfg.Breaker.Enabled {
		cooldown, err := config.BreakerCooldown(cfg.Breaker)
		if err != nil {
			return nil, err
		}
		prov = breaker.Wrap(prov, breaker.Config{
			FailThreshold: cfg.Breaker.FailThreshold,
			Cooldown:      cooldown,
		}, logger)
	}
	return prov, nil
}

// app is the wired pipeline shared by every subcommand.
type app struct {
	cfg      *types.ProjectConfig
	prov     provider.Provider
	set      *projection.Set
	orch     *ingest.Orchestrator
	flat     *reconstruct.Flattener
	alerts   *alert.Dispatcher
	shutdown telemetry.ShutdownFunc
}

// newApp connects the configured provider and builds the pipeline on top of it.
func newApp(ctx context.Context, cfg *types.ProjectConfig, logger *slog.Logger) (*app, error) {
	shutdown, err := telemetry.Setup(ctx, cfg.Telemetry)
	if err != nil {
		return nil, fmt.Errorf("setting up telemetry: %w", err)
	}

	prov, err := newProvider(ctx, cfg, logger)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("creating provider: %w", err)
	}
	if err := prov.Start(ctx); err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("connecting to provider: %w", err)
	}

	rec := metrics.Default()
	set := projection.NewSet(prov, cfg.Ingest.StudentIDLength)
	opts := []ingest.Option{
		ingest.WithPolicy(cfg.Ingest.Policy),
		ingest.WithExtractor(extract.New(cfg.Ingest.StudentIDLength)),
		ingest.WithLogger(logger),
		ingest.WithMetrics(rec),
	}
	if cfg.Notify != nil && cfg.Notify.EventBusName != "" {
		pub, err := notify.New(ctx, cfg.Notify.EventBusName, notify.WithSource(cfg.Notify.Source))
		if err != nil {
			_ = prov.Stop(ctx)
			_ = shutdown(ctx)
			return nil, fmt.Errorf("creating notifier: %w", err)
		}
		opts = append(opts, ingest.WithNotifier(pub))
	}
	var alerts *alert.Dispatcher
	if len(cfg.Alerts) > 0 {
		alerts, err = alert.NewDispatcher(ctx, cfg.Alerts, logger)
		if err != nil {
			_ = prov.Stop(ctx)
			_ = shutdown(ctx)
			return nil, fmt.Errorf("creating alert sinks: %w", err)
		}
		opts = append(opts, ingest.WithNotifier(alerts))
	}

	flat := reconstruct.New(set, cfg.Listing.FlattenPolicy)
	flat.SetLogger(logger)
	flat.SetMetrics(rec)
	flat.SetPageSizes(cfg.Listing.DefaultPageSize, cfg.Listing.MaxPageSize)

	return &app{
		cfg:      cfg,
		prov:     prov,
		set:      set,
		orch:     ingest.New(set, opts...),
		flat:     flat,
		alerts:   alerts,
		shutdown: shutdown,
	}, nil
}

// Close stops the provider and flushes telemetry.
func (a *app) Close(ctx context.Context) {
	_ = a.prov.Stop(ctx)
	_ = a.shutdown(ctx)
}

// newArchiver connects the archive provider named in cfg.Archive and returns
// an archiver copying from a.prov into it. It returns nil, nil when archiving
// is disabled. Stopping the archiver does not close the destination; the
// returned provider must be stopped by the caller.
func (a *app) newArchiver(ctx context.Context, logger *slog.Logger) (*archiver.Archiver, provider.Provider, error) {
	ac := a.cfg.Archive
	if ac == nil || !ac.Enabled {
		return nil, nil, nil
	}
	interval, err := config.ArchiveInterval(ac)
	if err != nil {
		return nil, nil, err
	}

	destCfg := *a.cfg
	destCfg.Provider = ac.Provider
	destCfg.Breaker = nil
	dest, err := newProvider(ctx, &destCfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("creating archive provider: %w", err)
	}
	if err := dest.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("connecting to archive provider: %w", err)
	}
	return archiver.New(a.prov, dest, interval, logger), dest, nil
}

// newWatchdog returns a watchdog over the app's reconstructor, or nil when
// disabled. Without alert sinks, stale observations are only logged.
func (a *app) newWatchdog(logger *slog.Logger) (*watchdog.Watchdog, error) {
	wc := a.cfg.Watchdog
	if wc == nil || !wc.Enabled {
		return nil, nil
	}
	interval, grace, err := config.WatchdogTimings(wc)
	if err != nil {
		return nil, err
	}
	alertFn := func(_ context.Context, al types.Alert) {
		logger.Warn(al.Message, "observation", al.ObservationID, "category", al.Category)
	}
	if a.alerts != nil {
		alertFn = a.alerts.Dispatch
	}
	return watchdog.New(a.flat, alertFn, logger, interval, grace), nil
}

// resolveSecrets reads secret-backed settings from AWS Secrets Manager.
func resolveSecrets(ctx context.Context, cfg *types.ProjectConfig) error {
	if cfg.Server == nil || cfg.Server.APIKeySecretID == "" {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return fmt.Errorf("loading AWS config: %w", err)
	}
	return config.ResolveSecrets(ctx, cfg, secretsmanager.NewFromConfig(awsCfg))
}

// loadContext reads an observation context from a YAML file.
func loadContext(path string) (types.ObservationContext, error) {
	var obs types.ObservationContext
	data, err := os.ReadFile(path)
	if err != nil {
		return obs, fmt.Errorf("reading context: %w", err)
	}
	if err := yaml.Unmarshal(data, &obs); err != nil {
		return obs, fmt.Errorf("parsing context %s: %w", path, err)
	}
	return obs, nil
}
