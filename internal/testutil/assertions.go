package testutil

import (
	"context"
	"testing"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// Present returns the projection kinds stored for id, in ingestion order.
func Present(t *testing.T, prov provider.Provider, id string) []types.ProjectionKind {
	t.Helper()
	ctx := context.Background()
	probes := []struct {
		kind types.ProjectionKind
		get  func() error
	}{
		{types.KindProcess, func() error { _, err := prov.Process().Get(ctx, id); return err }},
		{types.KindFaculty, func() error { _, err := prov.Faculty().Get(ctx, id); return err }},
		{types.KindProgram, func() error { _, err := prov.Program().Get(ctx, id); return err }},
		{types.KindValidity, func() error { _, err := prov.Validity().Get(ctx, id); return err }},
		{types.KindAccreditation, func() error { _, err := prov.Accreditation().Get(ctx, id); return err }},
		{types.KindAnnual, func() error { _, err := prov.Annual().Get(ctx, id); return err }},
	}
	var out []types.ProjectionKind
	for _, p := range probes {
		err := p.get()
		switch {
		case err == nil:
			out = append(out, p.kind)
		case provider.IsNotFound(err):
		default:
			t.Fatalf("probing %s %s: %v", p.kind, id, err)
		}
	}
	return out
}

// AssertComplete fails the test unless all six projections exist for id.
func AssertComplete(t *testing.T, prov provider.Provider, id string) {
	t.Helper()
	if got := Present(t, prov, id); len(got) != len(types.ProjectionKinds) {
		t.Errorf("observation %s: want all projections, have %v", id, got)
	}
}

// AssertNoOrphans fails the test if any projection exists for id.
func AssertNoOrphans(t *testing.T, prov provider.Provider, id string) {
	t.Helper()
	if got := Present(t, prov, id); len(got) != 0 {
		t.Errorf("observation %s: want no projections, have %v", id, got)
	}
}
