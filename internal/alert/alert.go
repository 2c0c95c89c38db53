// Package alert routes operator alerts to console, file, webhook and S3 sinks.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dwsmith1983/accredit/pkg/types"
)

// Sink is an alert destination.
type Sink interface {
	Send(ctx context.Context, alert types.Alert) error
	Name() string
}

type route struct {
	sink Sink
	min  types.AlertLevel
}

// Dispatcher routes alerts to configured sinks.
type Dispatcher struct {
	routes []route
	logger *slog.Logger
	now    func() time.Time
}

// New creates a dispatcher with no sinks. Sinks are added with Add.
func New(logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{logger: logger, now: time.Now}
}

// NewDispatcher creates a dispatcher from alert configs.
func NewDispatcher(ctx context.Context, configs []types.AlertConfig, logger *slog.Logger) (*Dispatcher, error) {
	d := New(logger)
	for _, cfg := range configs {
		sink, err := newSink(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("creating %s sink: %w", cfg.Type, err)
		}
		d.Add(sink, cfg.MinLevel)
	}
	return d, nil
}

// Add registers sink for alerts at or above min. An empty min accepts every level.
func (d *Dispatcher) Add(sink Sink, min types.AlertLevel) {
	d.routes = append(d.routes, route{sink: sink, min: min})
}

// Len returns the number of registered sinks.
func (d *Dispatcher) Len() int { return len(d.routes) }

// Dispatch sends an alert to every sink whose minimum level it meets. Sink
// failures are logged and never stop the remaining sinks.
func (d *Dispatcher) Dispatch(ctx context.Context, alert types.Alert) {
	if alert.Timestamp.IsZero() {
		alert.Timestamp = d.now()
	}
	for _, r := range d.routes {
		if severity(alert.Level) < severity(r.min) {
			continue
		}
		if err := r.sink.Send(ctx, alert); err != nil {
			d.logger.Error("alert delivery failed", "sink", r.sink.Name(), "level", alert.Level, "error", err)
		}
	}
}

// IngestionCompleted raises one alert per ingestion: info when every row was
// written completely, warning otherwise.
func (d *Dispatcher) IngestionCompleted(ctx context.Context, report types.IngestReport) error {
	level := types.AlertLevelInfo
	if !report.Success {
		level = types.AlertLevelWarning
	}
	compensated := 0
	failed := map[string]int{}
	for _, r := range report.Rows {
		if r.Compensated {
			compensated++
		}
		for _, k := range r.Failed() {
			failed[string(k)]++
		}
	}
	details := map[string]any{
		"rows":        len(report.Rows),
		"complete":    report.CompleteRows(),
		"compensated": compensated,
		"skipped":     len(report.Skipped),
		"policy":      report.Policy,
	}
	if len(failed) > 0 {
		details["failed_projections"] = failed
	}
	d.Dispatch(ctx, types.Alert{
		Level:     level,
		Category:  types.AlertCategoryIngestion,
		BatchID:   report.BatchID,
		Message:   report.Message,
		Details:   details,
		Timestamp: report.FinishedAt,
	})
	return nil
}

func severity(l types.AlertLevel) int {
	switch l {
	case types.AlertLevelError:
		return 2
	case types.AlertLevelWarning:
		return 1
	default:
		return 0
	}
}

// ValidLevel reports whether l is empty or a known alert level.
func ValidLevel(l types.AlertLevel) bool {
	switch l {
	case "", types.AlertLevelInfo, types.AlertLevelWarning, types.AlertLevelError:
		return true
	}
	return false
}

func newSink(ctx context.Context, cfg types.AlertConfig) (Sink, error) {
	switch cfg.Type {
	case types.AlertConsole:
		return NewConsoleSink(), nil
	case types.AlertWebhook:
		if cfg.URL == "" {
			return nil, fmt.Errorf("webhook URL required")
		}
		return NewWebhookSink(cfg.URL), nil
	case types.AlertFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("file path required")
		}
		return NewFileSink(cfg.Path)
	case types.AlertS3:
		return NewS3Sink(ctx, cfg.BucketName, cfg.Prefix)
	default:
		return nil, fmt.Errorf("unknown alert type %q", cfg.Type)
	}
}
