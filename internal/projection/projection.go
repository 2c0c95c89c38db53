// Package projection validates and persists the six per-observation
// projections on top of a storage provider.
package projection

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// ValidationFailure holds every rule violation found in one projection.
type ValidationFailure struct {
	Kind   types.ProjectionKind
	Fields map[string]string // field -> reason
}

func (e *ValidationFailure) Error() string {
	names := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		names = append(names, f)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, f := range names {
		parts = append(parts, f+": "+e.Fields[f])
	}
	return fmt.Sprintf("invalid %s record: %s", e.Kind, strings.Join(parts, "; "))
}

// Adapter validates records of one projection kind before handing them to
// the underlying store.
type Adapter[T any] struct {
	kind   types.ProjectionKind
	store  provider.Store[T]
	fields []string
	rules  map[string]rule
}

// NewAdapter builds an adapter for kind over store. Field names are taken from
// the record's JSON encoding.
func NewAdapter[T any](kind types.ProjectionKind, store provider.Store[T], studentIDLength int) *Adapter[T] {
	var zero T
	m, err := toMap(zero)
	if err != nil {
		panic(fmt.Sprintf("projection %s: %v", kind, err))
	}
	fields := make([]string, 0, len(m))
	for f := range m {
		if f != "id" {
			fields = append(fields, f)
		}
	}
	sort.Strings(fields)
	return &Adapter[T]{
		kind:   kind,
		store:  store,
		fields: fields,
		rules:  fieldRules(studentIDLength),
	}
}

// Kind returns the projection kind.
func (a *Adapter[T]) Kind() types.ProjectionKind { return a.kind }

// Fields returns the projection's field names, excluding id, sorted.
func (a *Adapter[T]) Fields() []string { return a.fields }

// Insert stamps rec with id, validates it and stores it.
func (a *Adapter[T]) Insert(ctx context.Context, id string, rec T) (T, error) {
	var zero T
	m, err := toMap(rec)
	if err != nil {
		return zero, err
	}
	m["id"] = id
	if err := a.validate(id, m); err != nil {
		return zero, err
	}
	out, err := fromMap[T](m)
	if err != nil {
		return zero, err
	}
	if err := a.store.Insert(ctx, id, out); err != nil {
		return zero, fmt.Errorf("%s: %w", a.kind, err)
	}
	return out, nil
}

// Get returns the stored record or provider.ErrNotFound.
func (a *Adapter[T]) Get(ctx context.Context, id string) (T, error) {
	rec, err := a.store.Get(ctx, id)
	if err != nil {
		return rec, fmt.Errorf("%s: %w", a.kind, err)
	}
	return rec, nil
}

// Update applies a partial change. Unknown keys and id are rejected.
func (a *Adapter[T]) Update(ctx context.Context, id string, patch map[string]any) (T, error) {
	var zero T
	cur, err := a.Get(ctx, id)
	if err != nil {
		return zero, err
	}
	m, err := toMap(cur)
	if err != nil {
		return zero, err
	}
	patch, err = normalize(patch)
	if err != nil {
		return zero, &ValidationFailure{Kind: a.kind, Fields: map[string]string{"patch": err.Error()}}
	}

	violations := make(map[string]string)
	for k, v := range patch {
		switch {
		case k == "id":
			violations[k] = "cannot be changed"
		case !a.has(k):
			violations[k] = "unknown field"
		default:
			m[k] = v
		}
	}
	if len(violations) > 0 {
		return zero, &ValidationFailure{Kind: a.kind, Fields: violations}
	}
	if err := a.validate(id, m); err != nil {
		return zero, err
	}

	out, err := fromMap[T](m)
	if err != nil {
		return zero, err
	}
	if err := a.store.Put(ctx, id, out); err != nil {
		return zero, fmt.Errorf("%s: %w", a.kind, err)
	}
	return out, nil
}

// Delete removes the record or returns provider.ErrNotFound.
func (a *Adapter[T]) Delete(ctx context.Context, id string) error {
	if err := a.store.Delete(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", a.kind, err)
	}
	return nil
}

// IDs lists stored identifiers, newest first.
func (a *Adapter[T]) IDs(ctx context.Context) ([]string, error) {
	ids, err := a.store.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", a.kind, err)
	}
	return ids, nil
}

// Row returns the stored record in map form.
func (a *Adapter[T]) Row(ctx context.Context, id string) (types.FlatRow, error) {
	rec, err := a.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return toMap(rec)
}

// Patch is Update returning map form.
func (a *Adapter[T]) Patch(ctx context.Context, id string, patch map[string]any) (types.FlatRow, error) {
	rec, err := a.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	return toMap(rec)
}

// Validate checks rec against the projection's rules without storing it.
func (a *Adapter[T]) Validate(id string, rec T) error {
	m, err := toMap(rec)
	if err != nil {
		return err
	}
	m["id"] = id
	return a.validate(id, m)
}

func (a *Adapter[T]) has(field string) bool {
	i := sort.SearchStrings(a.fields, field)
	return i < len(a.fields) && a.fields[i] == field
}

func (a *Adapter[T]) validate(id string, m map[string]any) error {
	violations := make(map[string]string)
	if id == "" {
		violations["id"] = "is required"
	}
	for _, f := range a.fields {
		check := a.rules[f]
		if check == nil {
			continue
		}
		v, ok := m[f]
		if !ok || v == nil {
			violations[f] = "is required"
			continue
		}
		if reason := check(v); reason != "" {
			violations[f] = reason
		}
	}
	if len(violations) > 0 {
		return &ValidationFailure{Kind: a.kind, Fields: violations}
	}
	return nil
}

func toMap(v any) (types.FlatRow, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding record: %w", err)
	}
	var m types.FlatRow
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("decoding record: %w", err)
	}
	return m, nil
}

func fromMap[T any](m map[string]any) (T, error) {
	var out T
	data, err := json.Marshal(m)
	if err != nil {
		return out, fmt.Errorf("encoding record: %w", err)
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, fmt.Errorf("decoding record: %w", err)
	}
	return out, nil
}

// normalize gives patch values the same dynamic types a JSON body would have.
func normalize(patch map[string]any) (map[string]any, error) {
	data, err := json.Marshal(patch)
	if err != nil {
		return nil, fmt.Errorf("encoding patch: %w", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decoding patch: %w", err)
	}
	return out, nil
}
