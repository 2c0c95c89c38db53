// Package provider defines the storage backend interface for the six
// outcome-assessment projections.
package provider

import (
	"context"
	"errors"

	"github.com/dwsmith1983/accredit/pkg/types"
)

var (
	// ErrNotFound is returned when no record exists for an identifier.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists is returned when inserting an identifier that is already stored.
	ErrAlreadyExists = errors.New("record already exists")
)

// Store persists one projection keyed by observation identifier.
type Store[T any] interface {
	// Insert stores rec under id. Returns ErrAlreadyExists if id is taken.
	Insert(ctx context.Context, id string, rec T) error
	// Get returns the record for id or ErrNotFound.
	Get(ctx context.Context, id string) (T, error)
	// Put replaces the record for id. Returns ErrNotFound if id is absent.
	Put(ctx context.Context, id string, rec T) error
	// Delete removes the record for id or returns ErrNotFound.
	Delete(ctx context.Context, id string) error
	// ListIDs returns every stored identifier in descending order.
	ListIDs(ctx context.Context) ([]string, error)
}

// Provider is the storage backend interface. Each backend exposes one Store
// per projection; the stores are independent and share no transaction.
type Provider interface {
	Process() Store[types.ProcessRecord]
	Faculty() Store[types.FacultyMetric]
	Program() Store[types.ProgramMetric]
	Validity() Store[types.ValidityRecord]
	Accreditation() Store[types.AccreditationReportRow]
	Annual() Store[types.AnnualReportRow]

	// Lifecycle
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Ping(ctx context.Context) error
}

// IsNotFound reports whether err is or wraps ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

// IsAlreadyExists reports whether err is or wraps ErrAlreadyExists.
func IsAlreadyExists(err error) bool { return errors.Is(err, ErrAlreadyExists) }
