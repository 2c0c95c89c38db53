// Package archiver provides a background process that copies complete
// observations from the operational provider to a durable archive provider.
package archiver

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

const defaultInterval = 5 * time.Minute

// Archiver periodically copies observations whose six projections are all
// present in the source into the destination. Partial rows are left alone
// until they complete or are compensated away.
type Archiver struct {
	source   provider.Provider
	dest     provider.Provider
	interval time.Duration
	logger   *slog.Logger
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// New creates a new Archiver.
func New(source, dest provider.Provider, interval time.Duration, logger *slog.Logger) *Archiver {
	if interval <= 0 {
		interval = defaultInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Archiver{
		source:   source,
		dest:     dest,
		interval: interval,
		logger:   logger,
	}
}

// Start begins the archiver background loop.
func (a *Archiver) Start(ctx context.Context) {
	ctx, a.cancel = context.WithCancel(ctx)
	a.wg.Add(1)
	go a.loop(ctx)
	a.logger.Info("archiver started", "interval", a.interval)
}

// Stop signals the archiver to stop and waits for it to finish.
func (a *Archiver) Stop(_ context.Context) {
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()
	a.logger.Info("archiver stopped")
}

func (a *Archiver) loop(ctx context.Context) {
	defer a.wg.Done()
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	// Run once immediately on start
	a.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			a.tick(ctx)
		}
	}
}

func (a *Archiver) tick(ctx context.Context) {
	n, err := a.RunOnce(ctx)
	if err != nil {
		a.logger.Error("archiver: pass failed", "archived", n, "error", err)
		return
	}
	if n > 0 {
		a.logger.Info("archiver: pass complete", "archived", n)
	}
}

// RunOnce archives every complete observation not yet in the destination and
// returns how many were copied.
func (a *Archiver) RunOnce(ctx context.Context) (int, error) {
	complete, err := a.completeIDs(ctx)
	if err != nil {
		return 0, err
	}
	archived, err := a.dest.Process().ListIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("listing archived ids: %w", err)
	}
	done := make(map[string]struct{}, len(archived))
	for _, id := range archived {
		done[id] = struct{}{}
	}

	n := 0
	for _, id := range complete {
		if ctx.Err() != nil {
			return n, ctx.Err()
		}
		if _, ok := done[id]; ok {
			continue
		}
		if err := a.archive(ctx, id); err != nil {
			a.logger.Error("archiver: copy failed", "id", id, "error", err)
			continue
		}
		n++
	}
	return n, nil
}

// completeIDs returns source identifiers present in all six stores, in the
// order of the process store.
func (a *Archiver) completeIDs(ctx context.Context) ([]string, error) {
	lists := []func(context.Context) ([]string, error){
		a.source.Process().ListIDs,
		a.source.Faculty().ListIDs,
		a.source.Program().ListIDs,
		a.source.Validity().ListIDs,
		a.source.Accreditation().ListIDs,
		a.source.Annual().ListIDs,
	}
	counts := make(map[string]int)
	var order []string
	for i, list := range lists {
		ids, err := list(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s ids: %w", types.ProjectionKinds[i], err)
		}
		if i == 0 {
			order = ids
		}
		for _, id := range ids {
			counts[id]++
		}
	}
	out := make([]string, 0, len(order))
	for _, id := range order {
		if counts[id] == len(lists) {
			out = append(out, id)
		}
	}
	return out, nil
}

// archive copies one observation. The process record goes last so a
// partially copied observation is retried on the next pass.
func (a *Archiver) archive(ctx context.Context, id string) error {
	steps := []func() error{
		func() error { return copyRecord(ctx, a.source.Faculty(), a.dest.Faculty(), id) },
		func() error { return copyRecord(ctx, a.source.Program(), a.dest.Program(), id) },
		func() error { return copyRecord(ctx, a.source.Validity(), a.dest.Validity(), id) },
		func() error { return copyRecord(ctx, a.source.Accreditation(), a.dest.Accreditation(), id) },
		func() error { return copyRecord(ctx, a.source.Annual(), a.dest.Annual(), id) },
		func() error { return copyRecord(ctx, a.source.Process(), a.dest.Process(), id) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func copyRecord[T any](ctx context.Context, src, dst provider.Store[T], id string) error {
	rec, err := src.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := dst.Insert(ctx, id, rec); err != nil && !provider.IsAlreadyExists(err) {
		return err
	}
	return nil
}
