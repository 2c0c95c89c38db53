package migrations

import "embed"

// FS contains embedded SQLite migrations for the projection tables.
//
//go:embed *.sql
var FS embed.FS
