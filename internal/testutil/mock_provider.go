// Package testutil provides shared test utilities for accredit.
package testutil

import (
	"context"
	"sync"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/internal/provider/memory"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// Compile-time interface satisfaction check.
var _ provider.Provider = (*MockProvider)(nil)

// Op names a store operation that can be made to fail.
type Op string

// Op values.
const (
	OpInsert Op = "insert"
	OpGet    Op = "get"
	OpPut    Op = "put"
	OpDelete Op = "delete"
	OpList   Op = "list"
)

// MockProvider is an in-memory Provider with per-store failure injection and
// call counting.
type MockProvider struct {
	inner *memory.MemoryProvider

	mu      sync.Mutex
	fail    map[types.ProjectionKind]map[Op]error
	calls   map[types.ProjectionKind]map[Op]int
	pingErr error
}

// NewMockProvider creates a new in-memory mock provider.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		inner: memory.New(),
		fail:  make(map[types.ProjectionKind]map[Op]error),
		calls: make(map[types.ProjectionKind]map[Op]int),
	}
}

// Fail makes every op on kind return err until Reset. A nil err clears it.
func (m *MockProvider) Fail(kind types.ProjectionKind, op Op, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail[kind] == nil {
		m.fail[kind] = make(map[Op]error)
	}
	if err == nil {
		delete(m.fail[kind], op)
		return
	}
	m.fail[kind][op] = err
}

// FailPing makes Ping return err.
func (m *MockProvider) FailPing(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pingErr = err
}

// Reset clears every injected failure and call count.
func (m *MockProvider) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = make(map[types.ProjectionKind]map[Op]error)
	m.calls = make(map[types.ProjectionKind]map[Op]int)
	m.pingErr = nil
}

// Calls returns how many times op was invoked on kind, failed calls included.
func (m *MockProvider) Calls(kind types.ProjectionKind, op Op) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[kind][op]
}

func (m *MockProvider) record(kind types.ProjectionKind, op Op) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.calls[kind] == nil {
		m.calls[kind] = make(map[Op]int)
	}
	m.calls[kind][op]++
	return m.fail[kind][op]
}

func (m *MockProvider) Process() provider.Store[types.ProcessRecord] {
	return &mockStore[types.ProcessRecord]{m: m, kind: types.KindProcess, inner: m.inner.Process()}
}

func (m *MockProvider) Faculty() provider.Store[types.FacultyMetric] {
	return &mockStore[types.FacultyMetric]{m: m, kind: types.KindFaculty, inner: m.inner.Faculty()}
}

func (m *MockProvider) Program() provider.Store[types.ProgramMetric] {
	return &mockStore[types.ProgramMetric]{m: m, kind: types.KindProgram, inner: m.inner.Program()}
}

func (m *MockProvider) Validity() provider.Store[types.ValidityRecord] {
	return &mockStore[types.ValidityRecord]{m: m, kind: types.KindValidity, inner: m.inner.Validity()}
}

func (m *MockProvider) Accreditation() provider.Store[types.AccreditationReportRow] {
	return &mockStore[types.AccreditationReportRow]{m: m, kind: types.KindAccreditation, inner: m.inner.Accreditation()}
}

func (m *MockProvider) Annual() provider.Store[types.AnnualReportRow] {
	return &mockStore[types.AnnualReportRow]{m: m, kind: types.KindAnnual, inner: m.inner.Annual()}
}

func (m *MockProvider) Start(_ context.Context) error { return nil }
func (m *MockProvider) Stop(_ context.Context) error  { return nil }

func (m *MockProvider) Ping(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.pingErr
}

type mockStore[T any] struct {
	m     *MockProvider
	kind  types.ProjectionKind
	inner provider.Store[T]
}

func (s *mockStore[T]) Insert(ctx context.Context, id string, rec T) error {
	if err := s.m.record(s.kind, OpInsert); err != nil {
		return err
	}
	return s.inner.Insert(ctx, id, rec)
}

func (s *mockStore[T]) Get(ctx context.Context, id string) (T, error) {
	if err := s.m.record(s.kind, OpGet); err != nil {
		var zero T
		return zero, err
	}
	return s.inner.Get(ctx, id)
}

func (s *mockStore[T]) Put(ctx context.Context, id string, rec T) error {
	if err := s.m.record(s.kind, OpPut); err != nil {
		return err
	}
	return s.inner.Put(ctx, id, rec)
}

func (s *mockStore[T]) Delete(ctx context.Context, id string) error {
	if err := s.m.record(s.kind, OpDelete); err != nil {
		return err
	}
	return s.inner.Delete(ctx, id)
}

func (s *mockStore[T]) ListIDs(ctx context.Context) ([]string, error) {
	if err := s.m.record(s.kind, OpList); err != nil {
		return nil, err
	}
	return s.inner.ListIDs(ctx)
}
