// Package watchdog detects observations that stayed incomplete past a grace
// period. An ingestion that crashed between inserts, or a best-effort row
// whose failed projections were never repaired, leaves an identifier in some
// stores but not all; nothing else reports it once the upload response is gone.
package watchdog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dwsmith1983/accredit/internal/ident"
	"github.com/dwsmith1983/accredit/pkg/types"
)

const (
	defaultInterval = 5 * time.Minute
	defaultGrace    = 30 * time.Minute
)

// IncompleteSource lists observations missing at least one projection.
type IncompleteSource interface {
	Incomplete(ctx context.Context) ([]types.PartialObservation, error)
}

// StaleObservation is a partial observation older than the grace period.
type StaleObservation struct {
	ID       string
	IssuedAt time.Time
	Age      time.Duration
	Missing  []types.ProjectionKind
}

// CheckOptions configures a single watchdog scan pass.
type CheckOptions struct {
	Source  IncompleteSource
	AlertFn func(context.Context, types.Alert)
	Logger  *slog.Logger
	Now     time.Time     // injectable for testing
	Grace   time.Duration // defaults to 30m if zero
	// Alerted, when set, suppresses repeat alerts. It returns true the first
	// time it sees an id.
	Alerted func(id string) bool
}

// CheckIncomplete returns every partial observation whose identifier was
// issued at least Grace ago and raises a warning alert for each one not
// already alerted. The issue time comes from the identifier itself.
func CheckIncomplete(ctx context.Context, opts CheckOptions) []StaleObservation {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}
	grace := opts.Grace
	if grace <= 0 {
		grace = defaultGrace
	}

	partial, err := opts.Source.Incomplete(ctx)
	if err != nil {
		opts.Logger.Error("watchdog: failed to list incomplete observations", "error", err)
		return nil
	}

	var stale []StaleObservation
	for _, p := range partial {
		if ctx.Err() != nil {
			return stale
		}
		issued, err := ident.Time(p.ID)
		if err != nil {
			opts.Logger.Warn("watchdog: unreadable observation id", "id", p.ID, "error", err)
			continue
		}
		age := opts.Now.Sub(issued)
		if age < grace {
			continue
		}
		s := StaleObservation{ID: p.ID, IssuedAt: issued, Age: age, Missing: p.Missing}
		stale = append(stale, s)

		if opts.Alerted != nil && !opts.Alerted(p.ID) {
			continue
		}
		if opts.AlertFn != nil {
			opts.AlertFn(ctx, staleAlert(s, p.Present, opts.Now))
		}
	}
	return stale
}

func staleAlert(s StaleObservation, present []types.ProjectionKind, now time.Time) types.Alert {
	return types.Alert{
		Level:         types.AlertLevelWarning,
		Category:      types.AlertCategoryIncomplete,
		ObservationID: s.ID,
		Message: fmt.Sprintf("observation incomplete for %s, missing %s",
			s.Age.Truncate(time.Second), joinKinds(s.Missing)),
		Details: map[string]any{
			"issued_at": s.IssuedAt,
			"present":   present,
			"missing":   s.Missing,
		},
		Timestamp: now,
	}
}

func joinKinds(kinds []types.ProjectionKind) string {
	parts := make([]string, len(kinds))
	for i, k := range kinds {
		parts[i] = string(k)
	}
	return strings.Join(parts, ", ")
}

// Watchdog runs CheckIncomplete on a regular interval, alerting once per
// observation for as long as the process lives.
type Watchdog struct {
	source   IncompleteSource
	alertFn  func(context.Context, types.Alert)
	logger   *slog.Logger
	interval time.Duration
	grace    time.Duration
	now      func() time.Time

	mu      sync.Mutex
	alerted map[string]struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new Watchdog.
func New(source IncompleteSource, alertFn func(context.Context, types.Alert), logger *slog.Logger, interval, grace time.Duration) *Watchdog {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watchdog{
		source:   source,
		alertFn:  alertFn,
		logger:   logger,
		interval: interval,
		grace:    grace,
		now:      time.Now,
		alerted:  make(map[string]struct{}),
	}
}

// Start begins the watchdog polling loop.
func (w *Watchdog) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)
	w.logger.Info("watchdog started", "interval", w.interval)
}

// Stop signals the watchdog to stop and waits for it to finish.
func (w *Watchdog) Stop(_ context.Context) {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	w.logger.Info("watchdog stopped")
}

func (w *Watchdog) loop(ctx context.Context) {
	defer w.wg.Done()
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately on start.
	w.Scan(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Scan(ctx)
		}
	}
}

// Scan performs one pass and forgets observations that are no longer stale,
// so the alerted set only holds current offenders.
func (w *Watchdog) Scan(ctx context.Context) []StaleObservation {
	stale := CheckIncomplete(ctx, CheckOptions{
		Source:  w.source,
		AlertFn: w.alertFn,
		Logger:  w.logger,
		Now:     w.now(),
		Grace:   w.grace,
		Alerted: w.firstAlert,
	})
	if ctx.Err() != nil {
		return stale
	}

	current := make(map[string]struct{}, len(stale))
	for _, s := range stale {
		current[s.ID] = struct{}{}
	}
	w.mu.Lock()
	for id := range w.alerted {
		if _, ok := current[id]; !ok {
			delete(w.alerted, id)
		}
	}
	w.mu.Unlock()
	return stale
}

func (w *Watchdog) firstAlert(id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, ok := w.alerted[id]; ok {
		return false
	}
	w.alerted[id] = struct{}{}
	return true
}
