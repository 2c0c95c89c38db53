// Package lambda provides shared types and initialization for Lambda handlers.
package lambda

import (
	"context"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/dwsmith1983/accredit/internal/alert"
	"github.com/dwsmith1983/accredit/internal/ingest"
	"github.com/dwsmith1983/accredit/internal/projection"
	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/internal/reconstruct"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// S3API is the subset of the S3 client used to read uploaded spreadsheets.
type S3API interface {
	GetObject(ctx context.Context, input *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Config is read from the function environment.
type Config struct {
	TableName       string              `env:"TABLE_NAME,notEmpty"`
	Region          string              `env:"AWS_REGION,notEmpty"`
	StudentIDLength int                 `env:"STUDENT_ID_LENGTH" envDefault:"8"`
	IngestPolicy    types.IngestPolicy  `env:"INGEST_POLICY" envDefault:"best-effort"`
	FlattenPolicy   types.FlattenPolicy `env:"FLATTEN_POLICY" envDefault:"drop"`
	EventBusName    string              `env:"EVENT_BUS_NAME"`
	AlertBucket     string              `env:"ALERT_BUCKET"`
	AlertPrefix     string              `env:"ALERT_PREFIX" envDefault:"alerts"`
	WatchdogGrace   time.Duration       `env:"WATCHDOG_GRACE" envDefault:"30m"`
}

// Deps holds shared dependencies for Lambda handlers.
type Deps struct {
	Provider     provider.Provider
	Projections  *projection.Set
	Orchestrator *ingest.Orchestrator
	Flattener    *reconstruct.Flattener
	Alerts       *alert.Dispatcher
	S3           S3API
	Logger       *slog.Logger
	Grace        time.Duration
}
