package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/pkg/types"
)

// Compile-time interface satisfaction check.
var _ provider.Provider = (*PostgresProvider)(nil)

// PostgresProvider is a Postgres-backed projection store.
type PostgresProvider struct {
	pool          *pgxpool.Pool
	process       *table[types.ProcessRecord]
	faculty       *table[types.FacultyMetric]
	program       *table[types.ProgramMetric]
	validity      *table[types.ValidityRecord]
	accreditation *table[types.AccreditationReportRow]
	annual        *table[types.AnnualReportRow]
}

// New creates a PostgresProvider and verifies the connection.
func New(ctx context.Context, cfg *types.PostgresConfig) (*PostgresProvider, error) {
	if cfg == nil || cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres ping: %w", err)
	}
	return &PostgresProvider{
		pool:          pool,
		process:       &table[types.ProcessRecord]{pool: pool, name: "process_records"},
		faculty:       &table[types.FacultyMetric]{pool: pool, name: "faculty_metrics"},
		program:       &table[types.ProgramMetric]{pool: pool, name: "program_metrics"},
		validity:      &table[types.ValidityRecord]{pool: pool, name: "validity_records"},
		accreditation: &table[types.AccreditationReportRow]{pool: pool, name: "accreditation_report_rows"},
		annual:        &table[types.AnnualReportRow]{pool: pool, name: "annual_report_rows"},
	}, nil
}

// Migrate runs the schema DDL to create tables and indexes.
func (p *PostgresProvider) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("postgres migrate: %w", err)
	}
	return nil
}

func (p *PostgresProvider) Process() provider.Store[types.ProcessRecord]   { return p.process }
func (p *PostgresProvider) Faculty() provider.Store[types.FacultyMetric]   { return p.faculty }
func (p *PostgresProvider) Program() provider.Store[types.ProgramMetric]   { return p.program }
func (p *PostgresProvider) Validity() provider.Store[types.ValidityRecord] { return p.validity }
func (p *PostgresProvider) Accreditation() provider.Store[types.AccreditationReportRow] {
	return p.accreditation
}
func (p *PostgresProvider) Annual() provider.Store[types.AnnualReportRow] { return p.annual }

// Start applies the schema.
func (p *PostgresProvider) Start(ctx context.Context) error {
	return p.Migrate(ctx)
}

// Stop closes the connection pool.
func (p *PostgresProvider) Stop(_ context.Context) error {
	p.pool.Close()
	return nil
}

// Ping checks connectivity to the database.
func (p *PostgresProvider) Ping(ctx context.Context) error {
	if err := p.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres ping failed: %w", err)
	}
	return nil
}
