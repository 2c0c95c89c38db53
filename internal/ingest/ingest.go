// Package ingest fans extracted student scores out into the six projection
// stores.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dwsmith1983/accredit/internal/achievement"
	"github.com/dwsmith1983/accredit/internal/cohort"
	"github.com/dwsmith1983/accredit/internal/extract"
	"github.com/dwsmith1983/accredit/internal/ident"
	"github.com/dwsmith1983/accredit/internal/metrics"
	"github.com/dwsmith1983/accredit/internal/projection"
	"github.com/dwsmith1983/accredit/internal/telemetry"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// ErrFile marks upload failures that happen before any row is ingested:
// unsupported formats, unreadable workbooks and sheets without valid rows.
var ErrFile = errors.New("upload rejected")

// IsRequestError reports whether err is a cohort or achievement error that
// aborted an ingestion before anything was written.
func IsRequestError(err error) bool {
	return errors.Is(err, cohort.ErrProgramTermRange) ||
		errors.Is(err, cohort.ErrInvalidTerm) ||
		errors.Is(err, achievement.ErrZeroMaximum)
}

// Notifier is told about every finished ingestion.
type Notifier interface {
	IngestionCompleted(ctx context.Context, report types.IngestReport) error
}

// Orchestrator writes one observation per student row.
type Orchestrator struct {
	set       *projection.Set
	extractor *extract.Extractor
	ids       *ident.Issuer
	policy    types.IngestPolicy
	logger    *slog.Logger
	metrics   *metrics.Recorder
	tracer    trace.Tracer
	notifiers []Notifier
	now       func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithPolicy selects what happens to partially written rows.
func WithPolicy(p types.IngestPolicy) Option {
	return func(o *Orchestrator) {
		if p != "" {
			o.policy = p
		}
	}
}

// WithIssuer shares an identifier authority between orchestrators.
func WithIssuer(ids *ident.Issuer) Option {
	return func(o *Orchestrator) { o.ids = ids }
}

// WithExtractor sets the spreadsheet extractor used by IngestFile.
func WithExtractor(e *extract.Extractor) Option {
	return func(o *Orchestrator) { o.extractor = e }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithMetrics sets the metric recorder.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *Orchestrator) { o.metrics = r }
}

// WithNotifier publishes a completion event after each ingestion. It may be
// given more than once; notifiers are called in order.
func WithNotifier(n Notifier) Option {
	return func(o *Orchestrator) { o.notifiers = append(o.notifiers, n) }
}

// New creates an Orchestrator writing through set.
func New(set *projection.Set, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		set:     set,
		policy:  types.PolicyBestEffort,
		logger:  slog.Default(),
		metrics: metrics.Default(),
		tracer:  telemetry.Tracer(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.ids == nil {
		o.ids = ident.New()
	}
	if o.extractor == nil {
		o.extractor = extract.New(0)
	}
	return o
}

// IngestFile extracts student scores from an uploaded spreadsheet and ingests
// them. Extraction failures are wrapped with ErrFile; skipped rows are listed
// in the report.
func (o *Orchestrator) IngestFile(ctx context.Context, name string, r io.Reader, obs types.ObservationContext) (types.IngestReport, error) {
	res, err := o.extractor.Extract(name, r)
	if err != nil {
		report := types.IngestReport{
			BatchID:    uuid.NewString(),
			Policy:     o.policy,
			Rows:       []types.RowOutcome{},
			Skipped:    skipped(res.Skipped),
			StartedAt:  o.now().UTC(),
			FinishedAt: o.now().UTC(),
			Message:    "upload rejected",
			Error:      err.Error(),
		}
		o.logger.Warn("upload rejected", "file", name, "error", err)
		return report, fmt.Errorf("%w: %w", ErrFile, err)
	}
	o.metrics.RowsExtracted(ctx, len(res.Scores), len(res.Skipped))
	o.logger.Info("extracted upload", "file", name, "rows", len(res.Scores), "skipped", len(res.Skipped))

	report, err := o.Ingest(ctx, obs, res.Scores)
	report.Skipped = skipped(res.Skipped)
	return report, err
}

func skipped(errs []extract.RowError) []types.SkippedRow {
	if len(errs) == 0 {
		return nil
	}
	out := make([]types.SkippedRow, 0, len(errs))
	for _, e := range errs {
		out = append(out, types.SkippedRow{Line: e.Line, Reason: e.Reason})
	}
	return out
}

// Policy returns the configured ingest policy.
func (o *Orchestrator) Policy() types.IngestPolicy { return o.policy }

// Ingest resolves the cohort, computes each row's achievement level and writes
// the six projections for every score. Errors from the cohort resolver or the
// achievement calculator abort the request before anything is written; store
// and validation failures are recorded per projection in the report.
func (o *Orchestrator) Ingest(ctx context.Context, obs types.ObservationContext, scores []types.StudentScore) (types.IngestReport, error) {
	ctx, span := o.tracer.Start(ctx, "ingest",
		trace.WithAttributes(
			attribute.String("course", obs.Course),
			attribute.Int("term", obs.Term),
			attribute.Int("rows", len(scores)),
		))
	defer span.End()

	report := types.IngestReport{
		BatchID:   uuid.NewString(),
		Policy:    o.policy,
		Rows:      make([]types.RowOutcome, 0, len(scores)),
		StartedAt: o.now().UTC(),
	}
	span.SetAttributes(attribute.String("batch", report.BatchID))
	log := o.logger.With("batch", report.BatchID)

	fail := func(err error) (types.IngestReport, error) {
		report.FinishedAt = o.now().UTC()
		report.Error = err.Error()
		report.Message = "ingestion aborted"
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return report, err
	}

	entry, err := cohort.Resolve(obs.ProgramTerm, obs.Term)
	if err != nil {
		return fail(fmt.Errorf("resolving cohort: %w", err))
	}
	if _, err := achievement.Level(0, obs.QuestionMax); err != nil {
		return fail(fmt.Errorf("computing achievement: %w", err))
	}

	for _, s := range scores {
		if err := ctx.Err(); err != nil {
			log.Warn("ingestion cancelled", "written", len(report.Rows), "remaining", len(scores)-len(report.Rows))
			return fail(err)
		}

		level, err := achievement.Level(s.Score, obs.QuestionMax)
		if err != nil {
			return fail(fmt.Errorf("computing achievement for %s: %w", s.StudentID, err))
		}
		id, err := o.ids.Next()
		if err != nil {
			return fail(fmt.Errorf("issuing identifier: %w", err))
		}

		out := o.writeRow(ctx, log, id, obs, row{
			studentID:   s.StudentID,
			score:       s.Score,
			cohort:      entry,
			achievement: level,
		})
		report.Rows = append(report.Rows, out)
	}

	report.FinishedAt = o.now().UTC()
	complete := report.CompleteRows()
	report.Success = complete == len(report.Rows)
	switch {
	case len(report.Rows) == 0:
		report.Message = "no rows to ingest"
	case report.Success:
		report.Message = fmt.Sprintf("ingested %d rows", complete)
	default:
		report.Message = fmt.Sprintf("ingested %d of %d rows completely", complete, len(report.Rows))
		span.SetStatus(codes.Error, report.Message)
	}
	o.metrics.IngestDuration(ctx, report.FinishedAt.Sub(report.StartedAt), o.policy)
	log.Info("ingestion finished", "rows", len(report.Rows), "complete", complete, "policy", o.policy)

	for _, n := range o.notifiers {
		if err := n.IngestionCompleted(ctx, report); err != nil {
			log.Warn("ingestion notification failed", "error", err)
		}
	}
	return report, nil
}

// writeRow performs the six inserts for one identifier in fixed order. A
// failure never stops the remaining inserts.
func (o *Orchestrator) writeRow(ctx context.Context, log *slog.Logger, id string, obs types.ObservationContext, r row) types.RowOutcome {
	out := types.RowOutcome{
		ID:          id,
		StudentID:   r.studentID,
		Cohort:      r.cohort,
		Achievement: r.achievement,
		Projections: make([]types.ProjectionOutcome, 0, len(types.ProjectionKinds)),
	}

	inserts := []struct {
		kind types.ProjectionKind
		do   func() error
	}{
		{types.KindProcess, func() error { _, err := o.set.Process.Insert(ctx, id, processRecord(obs)); return err }},
		{types.KindFaculty, func() error { _, err := o.set.Faculty.Insert(ctx, id, facultyMetric(obs, r)); return err }},
		{types.KindProgram, func() error { _, err := o.set.Program.Insert(ctx, id, programMetric(obs, r)); return err }},
		{types.KindValidity, func() error { _, err := o.set.Validity.Insert(ctx, id, validityRecord(obs, r)); return err }},
		{types.KindAccreditation, func() error {
			_, err := o.set.Accreditation.Insert(ctx, id, accreditationRow(obs, r))
			return err
		}},
		{types.KindAnnual, func() error { _, err := o.set.Annual.Insert(ctx, id, annualRow(obs, r)); return err }},
	}

	for _, ins := range inserts {
		po := types.ProjectionOutcome{Kind: ins.kind, OK: true}
		if err := ins.do(); err != nil {
			po.OK = false
			var vf *projection.ValidationFailure
			if errors.As(err, &vf) {
				po.Errors = vf.Fields
				po.Error = "validation failed"
				o.metrics.ProjectionRejected(ctx, ins.kind, "validation")
			} else {
				po.Error = err.Error()
				o.metrics.ProjectionRejected(ctx, ins.kind, "storage")
			}
			log.Warn("projection rejected", "id", id, "kind", ins.kind, "error", err)
		} else {
			o.metrics.ProjectionWritten(ctx, ins.kind)
		}
		out.Projections = append(out.Projections, po)
	}

	out.Complete = len(out.Failed()) == 0
	if !out.Complete && o.policy == types.PolicyCompensate {
		out.Compensated = o.compensate(ctx, log, id, out.Projections)
	}
	return out
}

// compensate deletes the projections that were written for id, newest first.
// It reports whether every delete succeeded.
func (o *Orchestrator) compensate(ctx context.Context, log *slog.Logger, id string, done []types.ProjectionOutcome) bool {
	clean := true
	for i := len(done) - 1; i >= 0; i-- {
		if !done[i].OK {
			continue
		}
		admin, err := o.set.Admin(done[i].Kind)
		if err == nil {
			err = admin.Delete(context.WithoutCancel(ctx), id)
		}
		if err != nil {
			clean = false
			log.Error("compensating delete failed", "id", id, "kind", done[i].Kind, "error", err)
		}
	}
	if clean {
		o.metrics.RowCompensated(ctx)
		log.Info("row compensated", "id", id)
	}
	return clean
}
