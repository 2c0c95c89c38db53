// Package reconstruct joins the six projections back into one flattened row
// per observation identifier.
package reconstruct

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/dwsmith1983/accredit/internal/metrics"
	"github.com/dwsmith1983/accredit/internal/projection"
	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/internal/telemetry"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// DefaultConcurrency bounds how many identifiers are joined at once.
const DefaultConcurrency = 8

// Result is the join outcome for one identifier.
type Result struct {
	ID       string                 `json:"id"`
	Row      types.FlatRow          `json:"row,omitempty"`
	Complete bool                   `json:"complete"`
	Present  []types.ProjectionKind `json:"present,omitempty"`
	Missing  []types.ProjectionKind `json:"missing,omitempty"`
}

// Flattener reads every projection through a projection.Set.
type Flattener struct {
	set         *projection.Set
	policy      types.FlattenPolicy
	concurrency int
	defaultSize int
	maxSize     int
	logger      *slog.Logger
	metrics     *metrics.Recorder
	tracer      trace.Tracer
}

// New creates a Flattener. An empty policy selects FlattenDrop.
func New(set *projection.Set, policy types.FlattenPolicy) *Flattener {
	if policy == "" {
		policy = types.FlattenDrop
	}
	return &Flattener{
		set:         set,
		policy:      policy,
		concurrency: DefaultConcurrency,
		defaultSize: DefaultPageSize,
		maxSize:     MaxPageSize,
		logger:      slog.Default(),
		metrics:     metrics.Default(),
		tracer:      telemetry.Tracer(),
	}
}

// SetLogger sets the logger.
func (f *Flattener) SetLogger(l *slog.Logger) { f.logger = l }

// SetMetrics sets the metric recorder.
func (f *Flattener) SetMetrics(r *metrics.Recorder) { f.metrics = r }

// SetPageSizes overrides the default and maximum page sizes used by List.
func (f *Flattener) SetPageSizes(defaultSize, maxSize int) {
	if defaultSize > 0 {
		f.defaultSize = defaultSize
	}
	if maxSize > 0 {
		f.maxSize = maxSize
	}
}

// Policy returns the configured flatten policy.
func (f *Flattener) Policy() types.FlattenPolicy { return f.policy }

// Flatten joins every identifier in the process store, newest first. Under
// FlattenDrop identifiers missing any projection are omitted; under
// FlattenSurface they are returned with Complete false.
func (f *Flattener) Flatten(ctx context.Context) ([]Result, error) {
	ctx, span := f.tracer.Start(ctx, "flatten", trace.WithAttributes(attribute.String("policy", string(f.policy))))
	defer span.End()

	ids, err := f.set.Process.IDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing identifiers: %w", err)
	}
	results, err := f.join(ctx, ids)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	out := results[:0]
	dropped := 0
	for _, r := range results {
		if !r.Complete && f.policy == types.FlattenDrop {
			dropped++
			f.logger.Debug("dropping partial observation", "id", r.ID, "missing", r.Missing)
			continue
		}
		out = append(out, r)
	}
	f.metrics.IdentifiersDropped(ctx, dropped)
	span.SetAttributes(attribute.Int("rows", len(out)), attribute.Int("dropped", dropped))
	return out, nil
}

// List flattens every observation and returns one sorted page of complete
// rows.
func (f *Flattener) List(ctx context.Context, q QueryParams) (types.Page, error) {
	results, err := f.Flatten(ctx)
	if err != nil {
		return types.Page{}, err
	}
	return paginate(Rows(results), q.Normalize(f.defaultSize, f.maxSize)), nil
}

// Incomplete returns every identifier found in any store that lacks at least
// one projection, newest first. It finds partial rows even when the process
// record is the one missing.
func (f *Flattener) Incomplete(ctx context.Context) ([]types.PartialObservation, error) {
	seen := make(map[string]struct{})
	for _, a := range f.set.All() {
		ids, err := a.IDs(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing identifiers: %w", err)
		}
		for _, id := range ids {
			seen[id] = struct{}{}
		}
	}
	ids := make([]string, 0, len(seen))
	for id := range seen {
		ids = append(ids, id)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))

	results, err := f.join(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := []types.PartialObservation{}
	for _, r := range results {
		if !r.Complete {
			out = append(out, types.PartialObservation{ID: r.ID, Present: r.Present, Missing: r.Missing})
		}
	}
	return out, nil
}

// Rows extracts the flattened rows of complete results.
func Rows(results []Result) []types.FlatRow {
	rows := make([]types.FlatRow, 0, len(results))
	for _, r := range results {
		if r.Complete {
			rows = append(rows, r.Row)
		}
	}
	return rows
}

// join fetches the projections of every id, preserving the order of ids.
func (f *Flattener) join(ctx context.Context, ids []string) ([]Result, error) {
	results := make([]Result, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for i, id := range ids {
		g.Go(func() error {
			r, err := f.one(gctx, id)
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// one fetches the six projections of id concurrently and merges them.
func (f *Flattener) one(ctx context.Context, id string) (Result, error) {
	admins := f.set.All()
	rows := make([]types.FlatRow, len(admins))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range admins {
		g.Go(func() error {
			row, err := a.Row(gctx, id)
			if provider.IsNotFound(err) {
				return nil
			}
			if err != nil {
				return fmt.Errorf("reading %s %s: %w", a.Kind(), id, err)
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{ID: id}
	merged := types.FlatRow{}
	for i, row := range rows {
		kind := admins[i].Kind()
		if row == nil {
			res.Missing = append(res.Missing, kind)
			continue
		}
		res.Present = append(res.Present, kind)
		for k, v := range row {
			merged[k] = v
		}
	}
	res.Complete = len(res.Missing) == 0
	if res.Complete {
		res.Row = merged
	}
	return res, nil
}
