// Package metrics records pipeline counters as OpenTelemetry instruments.
package metrics

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/dwsmith1983/accredit/pkg/types"
)

// MeterName is the instrumentation scope of every accredit instrument.
const MeterName = "github.com/dwsmith1983/accredit"

// Recorder holds the instruments. The zero value is not usable; use New or Default.
type Recorder struct {
	rowsExtracted       metric.Int64Counter
	rowsSkipped         metric.Int64Counter
	projectionsWritten  metric.Int64Counter
	projectionsRejected metric.Int64Counter
	rowsCompensated     metric.Int64Counter
	identifiersDropped  metric.Int64Counter
	ingestDuration      metric.Float64Histogram
}

// New creates the instruments on mp.
func New(mp metric.MeterProvider) (*Recorder, error) {
	m := mp.Meter(MeterName)
	r := &Recorder{}
	var err error
	if r.rowsExtracted, err = m.Int64Counter("accredit.rows.extracted",
		metric.WithDescription("Student rows accepted by the extractor")); err != nil {
		return nil, fmt.Errorf("rows.extracted: %w", err)
	}
	if r.rowsSkipped, err = m.Int64Counter("accredit.rows.skipped",
		metric.WithDescription("Spreadsheet rows skipped with a diagnostic")); err != nil {
		return nil, fmt.Errorf("rows.skipped: %w", err)
	}
	if r.projectionsWritten, err = m.Int64Counter("accredit.projections.written"); err != nil {
		return nil, fmt.Errorf("projections.written: %w", err)
	}
	if r.projectionsRejected, err = m.Int64Counter("accredit.projections.rejected"); err != nil {
		return nil, fmt.Errorf("projections.rejected: %w", err)
	}
	if r.rowsCompensated, err = m.Int64Counter("accredit.rows.compensated"); err != nil {
		return nil, fmt.Errorf("rows.compensated: %w", err)
	}
	if r.identifiersDropped, err = m.Int64Counter("accredit.identifiers.dropped",
		metric.WithDescription("Identifiers omitted from a listing for a missing projection")); err != nil {
		return nil, fmt.Errorf("identifiers.dropped: %w", err)
	}
	if r.ingestDuration, err = m.Float64Histogram("accredit.ingest.duration",
		metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("ingest.duration: %w", err)
	}
	return r, nil
}

var (
	defaultOnce sync.Once
	defaultRec  *Recorder
)

// Default returns a Recorder bound to the global meter provider. Instruments
// created before telemetry.Setup forward to the installed provider.
func Default() *Recorder {
	defaultOnce.Do(func() {
		r, err := New(otel.GetMeterProvider())
		if err != nil {
			otel.Handle(err)
			r, _ = New(noop.NewMeterProvider())
		}
		defaultRec = r
	})
	return defaultRec
}

func kindAttr(kind types.ProjectionKind) metric.MeasurementOption {
	return metric.WithAttributes(attribute.String("kind", string(kind)))
}

// RowsExtracted counts accepted rows and skipped rows of one upload.
func (r *Recorder) RowsExtracted(ctx context.Context, accepted, skipped int) {
	r.rowsExtracted.Add(ctx, int64(accepted))
	r.rowsSkipped.Add(ctx, int64(skipped))
}

// ProjectionWritten counts one stored projection.
func (r *Recorder) ProjectionWritten(ctx context.Context, kind types.ProjectionKind) {
	r.projectionsWritten.Add(ctx, 1, kindAttr(kind))
}

// ProjectionRejected counts one failed projection insert. reason is
// "validation" or "storage".
func (r *Recorder) ProjectionRejected(ctx context.Context, kind types.ProjectionKind, reason string) {
	r.projectionsRejected.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", string(kind)),
		attribute.String("reason", reason),
	))
}

// RowCompensated counts one row rolled back under the compensate policy.
func (r *Recorder) RowCompensated(ctx context.Context) {
	r.rowsCompensated.Add(ctx, 1)
}

// IdentifiersDropped counts identifiers a listing could not fully join.
func (r *Recorder) IdentifiersDropped(ctx context.Context, n int) {
	if n > 0 {
		r.identifiersDropped.Add(ctx, int64(n))
	}
}

// IngestDuration records the wall time of one ingestion.
func (r *Recorder) IngestDuration(ctx context.Context, d time.Duration, policy types.IngestPolicy) {
	r.ingestDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("policy", string(policy))))
}
