// Package breaker decorates a Provider with one circuit breaker per
// projection store.
package breaker

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// Config holds circuit breaker settings.
type Config struct {
	FailThreshold int           // consecutive failures before opening (default 5)
	Cooldown      time.Duration // how long to stay open before half-open (default 30s)
}

// DefaultConfig returns the default config.
func DefaultConfig() Config {
	return Config{FailThreshold: 5, Cooldown: 30 * time.Second}
}

// Compile-time interface satisfaction check.
var _ provider.Provider = (*Provider)(nil)

// Provider wraps every store of an underlying provider. Lifecycle calls pass
// straight through.
type Provider struct {
	inner provider.Provider

	process       provider.Store[types.ProcessRecord]
	faculty       provider.Store[types.FacultyMetric]
	program       provider.Store[types.ProgramMetric]
	validity      provider.Store[types.ValidityRecord]
	accreditation provider.Store[types.AccreditationReportRow]
	annual        provider.Store[types.AnnualReportRow]
}

// Wrap returns p with breakers around each projection store.
func Wrap(p provider.Provider, cfg Config, logger *slog.Logger) *Provider {
	if cfg.FailThreshold <= 0 {
		cfg.FailThreshold = 5
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 30 * time.Second
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Provider{
		inner:         p,
		process:       wrapStore(p.Process(), types.KindProcess, cfg, logger),
		faculty:       wrapStore(p.Faculty(), types.KindFaculty, cfg, logger),
		program:       wrapStore(p.Program(), types.KindProgram, cfg, logger),
		validity:      wrapStore(p.Validity(), types.KindValidity, cfg, logger),
		accreditation: wrapStore(p.Accreditation(), types.KindAccreditation, cfg, logger),
		annual:        wrapStore(p.Annual(), types.KindAnnual, cfg, logger),
	}
}

func (p *Provider) Process() provider.Store[types.ProcessRecord]   { return p.process }
func (p *Provider) Faculty() provider.Store[types.FacultyMetric]   { return p.faculty }
func (p *Provider) Program() provider.Store[types.ProgramMetric]   { return p.program }
func (p *Provider) Validity() provider.Store[types.ValidityRecord] { return p.validity }
func (p *Provider) Accreditation() provider.Store[types.AccreditationReportRow] {
	return p.accreditation
}
func (p *Provider) Annual() provider.Store[types.AnnualReportRow] { return p.annual }

func (p *Provider) Start(ctx context.Context) error { return p.inner.Start(ctx) }
func (p *Provider) Stop(ctx context.Context) error  { return p.inner.Stop(ctx) }
func (p *Provider) Ping(ctx context.Context) error  { return p.inner.Ping(ctx) }

// IsOpen reports whether err came from a tripped breaker.
func IsOpen(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

// successful treats record-level outcomes as healthy backend responses.
func successful(err error) bool {
	return err == nil ||
		provider.IsNotFound(err) ||
		provider.IsAlreadyExists(err) ||
		errors.Is(err, context.Canceled)
}

type store[T any] struct {
	inner provider.Store[T]
	cb    *gobreaker.CircuitBreaker
}

func wrapStore[T any](s provider.Store[T], kind types.ProjectionKind, cfg Config, logger *slog.Logger) *store[T] {
	threshold := uint32(cfg.FailThreshold)
	return &store[T]{
		inner: s,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    string(kind),
			Timeout: cfg.Cooldown,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= threshold
			},
			IsSuccessful: successful,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("store circuit breaker state change",
					"kind", name, "from", from.String(), "to", to.String())
			},
		}),
	}
}

func (s *store[T]) Insert(ctx context.Context, id string, rec T) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Insert(ctx, id, rec)
	})
	return err
}

func (s *store[T]) Get(ctx context.Context, id string) (T, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.Get(ctx, id)
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

func (s *store[T]) Put(ctx context.Context, id string, rec T) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Put(ctx, id, rec)
	})
	return err
}

func (s *store[T]) Delete(ctx context.Context, id string) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		return nil, s.inner.Delete(ctx, id)
	})
	return err
}

func (s *store[T]) ListIDs(ctx context.Context) ([]string, error) {
	out, err := s.cb.Execute(func() (interface{}, error) {
		return s.inner.ListIDs(ctx)
	})
	if err != nil {
		return nil, err
	}
	return out.([]string), nil
}
