package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dwsmith1983/accredit/internal/provider/providertest"
)

func openTempProvider(t *testing.T) *SQLiteProvider {
	t.Helper()
	prov, err := Open(filepath.Join(t.TempDir(), "accredit.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = prov.Stop(context.Background()) })
	return prov
}

func TestOpenRequiresPath(t *testing.T) {
	_, err := Open("  ")
	assert.Error(t, err)
}

func TestConformance(t *testing.T) {
	providertest.RunAll(t, openTempProvider(t))
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "accredit.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Stop(context.Background()))

	second, err := Open(path)
	require.NoError(t, err)
	defer func() { _ = second.Stop(context.Background()) }()

	var n int
	require.NoError(t, second.db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n))
	assert.Equal(t, 1, n)
}

func TestUpSection(t *testing.T) {
	got := upSection("-- +migrate Up\nCREATE TABLE a (x);\n-- +migrate Down\nDROP TABLE a;\n")
	assert.Equal(t, "\nCREATE TABLE a (x);\n", got)
	assert.Equal(t, "SELECT 1;", upSection("SELECT 1;"))
}
