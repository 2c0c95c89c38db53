// Package memory implements the Provider interface with in-process maps.
// Data does not survive a restart.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// Compile-time interface satisfaction check.
var _ provider.Provider = (*MemoryProvider)(nil)

// MemoryProvider keeps one map per projection.
type MemoryProvider struct {
	process       *store[types.ProcessRecord]
	faculty       *store[types.FacultyMetric]
	program       *store[types.ProgramMetric]
	validity      *store[types.ValidityRecord]
	accreditation *store[types.AccreditationReportRow]
	annual        *store[types.AnnualReportRow]
}

// New creates an empty MemoryProvider.
func New() *MemoryProvider {
	return &MemoryProvider{
		process:       newStore[types.ProcessRecord](),
		faculty:       newStore[types.FacultyMetric](),
		program:       newStore[types.ProgramMetric](),
		validity:      newStore[types.ValidityRecord](),
		accreditation: newStore[types.AccreditationReportRow](),
		annual:        newStore[types.AnnualReportRow](),
	}
}

func (p *MemoryProvider) Process() provider.Store[types.ProcessRecord]   { return p.process }
func (p *MemoryProvider) Faculty() provider.Store[types.FacultyMetric]   { return p.faculty }
func (p *MemoryProvider) Program() provider.Store[types.ProgramMetric]   { return p.program }
func (p *MemoryProvider) Validity() provider.Store[types.ValidityRecord] { return p.validity }
func (p *MemoryProvider) Accreditation() provider.Store[types.AccreditationReportRow] {
	return p.accreditation
}
func (p *MemoryProvider) Annual() provider.Store[types.AnnualReportRow] { return p.annual }

func (p *MemoryProvider) Start(_ context.Context) error { return nil }
func (p *MemoryProvider) Stop(_ context.Context) error  { return nil }
func (p *MemoryProvider) Ping(_ context.Context) error  { return nil }

type store[T any] struct {
	mu   sync.RWMutex
	rows map[string]T
}

func newStore[T any]() *store[T] {
	return &store[T]{rows: make(map[string]T)}
}

func (s *store[T]) Insert(_ context.Context, id string, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; ok {
		return provider.ErrAlreadyExists
	}
	s.rows[id] = rec
	return nil
}

func (s *store[T]) Get(_ context.Context, id string) (T, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.rows[id]
	if !ok {
		var zero T
		return zero, provider.ErrNotFound
	}
	return rec, nil
}

func (s *store[T]) Put(_ context.Context, id string, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return provider.ErrNotFound
	}
	s.rows[id] = rec
	return nil
}

func (s *store[T]) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rows[id]; !ok {
		return provider.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *store[T]) ListIDs(_ context.Context) ([]string, error) {
	s.mu.RLock()
	ids := make([]string, 0, len(s.rows))
	for id := range s.rows {
		ids = append(ids, id)
	}
	s.mu.RUnlock()
	sort.Sort(sort.Reverse(sort.StringSlice(ids)))
	return ids, nil
}
