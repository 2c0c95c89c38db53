package lambda

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/caarlos0/env/v11"

	"github.com/dwsmith1983/accredit/internal/alert"
	"github.com/dwsmith1983/accredit/internal/extract"
	"github.com/dwsmith1983/accredit/internal/ingest"
	"github.com/dwsmith1983/accredit/internal/notify"
	"github.com/dwsmith1983/accredit/internal/projection"
	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/internal/provider/dynamodb"
	"github.com/dwsmith1983/accredit/internal/reconstruct"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// LoadConfig parses and validates the function environment.
func LoadConfig() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return cfg, fmt.Errorf("reading environment: %w", err)
	}
	switch cfg.IngestPolicy {
	case types.PolicyBestEffort, types.PolicyCompensate:
	default:
		return cfg, fmt.Errorf("INGEST_POLICY must be %q or %q, got %q",
			types.PolicyBestEffort, types.PolicyCompensate, cfg.IngestPolicy)
	}
	switch cfg.FlattenPolicy {
	case types.FlattenDrop, types.FlattenSurface:
	default:
		return cfg, fmt.Errorf("FLATTEN_POLICY must be %q or %q, got %q",
			types.FlattenDrop, types.FlattenSurface, cfg.FlattenPolicy)
	}
	if cfg.StudentIDLength <= 0 {
		return cfg, fmt.Errorf("STUDENT_ID_LENGTH must be positive, got %d", cfg.StudentIDLength)
	}
	if cfg.WatchdogGrace <= 0 {
		return cfg, fmt.Errorf("WATCHDOG_GRACE must be positive, got %s", cfg.WatchdogGrace)
	}
	return cfg, nil
}

// Init creates shared dependencies from environment variables.
// Reads: TABLE_NAME, AWS_REGION, STUDENT_ID_LENGTH, INGEST_POLICY,
// FLATTEN_POLICY, EVENT_BUS_NAME, ALERT_BUCKET, ALERT_PREFIX, WATCHDOG_GRACE
func Init(ctx context.Context) (*Deps, error) {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}

	prov, err := dynamodb.New(&types.DynamoDBConfig{
		TableName: cfg.TableName,
		Region:    cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("creating DynamoDB provider: %w", err)
	}
	prov.SetLogger(logger)

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var notifier ingest.Notifier
	if cfg.EventBusName != "" {
		pub, err := notify.New(ctx, cfg.EventBusName)
		if err != nil {
			return nil, fmt.Errorf("creating event publisher: %w", err)
		}
		notifier = pub
	}

	s3Client := s3.NewFromConfig(awsCfg)
	d := NewDeps(cfg, prov, s3Client, notifier, logger)
	if cfg.AlertBucket != "" {
		sink, err := alert.NewS3Sink(ctx, cfg.AlertBucket, cfg.AlertPrefix, alert.WithS3Client(s3Client))
		if err != nil {
			return nil, fmt.Errorf("creating alert sink: %w", err)
		}
		d.Alerts.Add(sink, "")
	}
	return d, nil
}

// NewDeps wires the pipeline over prov. notifier may be nil. The returned
// alert dispatcher starts without sinks and is already registered as an
// ingestion notifier.
func NewDeps(cfg Config, prov provider.Provider, s3api S3API, notifier ingest.Notifier, logger *slog.Logger) *Deps {
	set := projection.NewSet(prov, cfg.StudentIDLength)
	alerts := alert.New(logger)
	opts := []ingest.Option{
		ingest.WithPolicy(cfg.IngestPolicy),
		ingest.WithExtractor(extract.New(cfg.StudentIDLength)),
		ingest.WithLogger(logger),
		ingest.WithNotifier(alerts),
	}
	if notifier != nil {
		opts = append(opts, ingest.WithNotifier(notifier))
	}

	flat := reconstruct.New(set, cfg.FlattenPolicy)
	flat.SetLogger(logger)

	return &Deps{
		Provider:     prov,
		Projections:  set,
		Orchestrator: ingest.New(set, opts...),
		Flattener:    flat,
		Alerts:       alerts,
		S3:           s3api,
		Logger:       logger,
		Grace:        cfg.WatchdogGrace,
	}
}
