package projection

import (
	"context"
	"fmt"

	"github.com/dwsmith1983/accredit/internal/extract"
	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// Admin is the kind-agnostic view of an adapter used by administrative
// endpoints and the reconstructor.
type Admin interface {
	Kind() types.ProjectionKind
	Row(ctx context.Context, id string) (types.FlatRow, error)
	Patch(ctx context.Context, id string, patch map[string]any) (types.FlatRow, error)
	Delete(ctx context.Context, id string) error
	IDs(ctx context.Context) ([]string, error)
}

// Set bundles the six adapters over one provider.
type Set struct {
	Process       *Adapter[types.ProcessRecord]
	Faculty       *Adapter[types.FacultyMetric]
	Program       *Adapter[types.ProgramMetric]
	Validity      *Adapter[types.ValidityRecord]
	Accreditation *Adapter[types.AccreditationReportRow]
	Annual        *Adapter[types.AnnualReportRow]
}

// NewSet wraps every store of prov. studentIDLength <= 0 selects the
// extractor default.
func NewSet(prov provider.Provider, studentIDLength int) *Set {
	if studentIDLength <= 0 {
		studentIDLength = extract.DefaultStudentIDLength
	}
	return &Set{
		Process:       NewAdapter(types.KindProcess, prov.Process(), studentIDLength),
		Faculty:       NewAdapter(types.KindFaculty, prov.Faculty(), studentIDLength),
		Program:       NewAdapter(types.KindProgram, prov.Program(), studentIDLength),
		Validity:      NewAdapter(types.KindValidity, prov.Validity(), studentIDLength),
		Accreditation: NewAdapter(types.KindAccreditation, prov.Accreditation(), studentIDLength),
		Annual:        NewAdapter(types.KindAnnual, prov.Annual(), studentIDLength),
	}
}

// Admin returns the adapter for kind.
func (s *Set) Admin(kind types.ProjectionKind) (Admin, error) {
	switch kind {
	case types.KindProcess:
		return s.Process, nil
	case types.KindFaculty:
		return s.Faculty, nil
	case types.KindProgram:
		return s.Program, nil
	case types.KindValidity:
		return s.Validity, nil
	case types.KindAccreditation:
		return s.Accreditation, nil
	case types.KindAnnual:
		return s.Annual, nil
	}
	return nil, fmt.Errorf("unknown projection kind %q", kind)
}

// All returns the six adapters in ingestion order.
func (s *Set) All() []Admin {
	return []Admin{s.Process, s.Faculty, s.Program, s.Validity, s.Accreditation, s.Annual}
}
