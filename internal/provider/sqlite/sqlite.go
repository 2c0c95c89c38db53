// Package sqlite implements the Provider interface on an embedded SQLite
// database, one table per projection.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dwsmith1983/accredit/internal/provider"
	"github.com/dwsmith1983/accredit/internal/provider/sqlite/migrations"
	"github.com/dwsmith1983/accredit/pkg/types"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

// Compile-time interface satisfaction check.
var _ provider.Provider = (*SQLiteProvider)(nil)

// SQLiteProvider stores each projection as JSON documents in its own table.
type SQLiteProvider struct {
	db            *sql.DB
	process       *table[types.ProcessRecord]
	faculty       *table[types.FacultyMetric]
	program       *table[types.ProgramMetric]
	validity      *table[types.ValidityRecord]
	accreditation *table[types.AccreditationReportRow]
	annual        *table[types.AnnualReportRow]
}

// Open opens the database at path and applies embedded migrations.
func Open(path string) (*SQLiteProvider, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), db, migrations.FS); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteProvider{
		db:            db,
		process:       &table[types.ProcessRecord]{db: db, name: "process_records"},
		faculty:       &table[types.FacultyMetric]{db: db, name: "faculty_metrics"},
		program:       &table[types.ProgramMetric]{db: db, name: "program_metrics"},
		validity:      &table[types.ValidityRecord]{db: db, name: "validity_records"},
		accreditation: &table[types.AccreditationReportRow]{db: db, name: "accreditation_report_rows"},
		annual:        &table[types.AnnualReportRow]{db: db, name: "annual_report_rows"},
	}, nil
}

func (p *SQLiteProvider) Process() provider.Store[types.ProcessRecord]   { return p.process }
func (p *SQLiteProvider) Faculty() provider.Store[types.FacultyMetric]   { return p.faculty }
func (p *SQLiteProvider) Program() provider.Store[types.ProgramMetric]   { return p.program }
func (p *SQLiteProvider) Validity() provider.Store[types.ValidityRecord] { return p.validity }
func (p *SQLiteProvider) Accreditation() provider.Store[types.AccreditationReportRow] {
	return p.accreditation
}
func (p *SQLiteProvider) Annual() provider.Store[types.AnnualReportRow] { return p.annual }

// Start verifies the database handle.
func (p *SQLiteProvider) Start(ctx context.Context) error {
	return p.Ping(ctx)
}

// Stop closes the database handle.
func (p *SQLiteProvider) Stop(_ context.Context) error {
	if p == nil || p.db == nil {
		return nil
	}
	return p.db.Close()
}

// Ping checks the database handle.
func (p *SQLiteProvider) Ping(ctx context.Context) error {
	if err := p.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite ping failed: %w", err)
	}
	return nil
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr *msqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return strings.Contains(strings.ToLower(err.Error()), "unique constraint failed")
}
