package database

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSQLiteDSNDefaultsToSharedMemory(t *testing.T) {
	for _, path := range []string{"", "  ", ":memory:", ":MEMORY:"} {
		dsn, err := sqliteDSN(path)
		require.NoError(t, err)
		require.Equal(t, "file::memory:?cache=shared&_foreign_keys=1", dsn)
	}
}

func TestSQLiteDSNOnDiskEnablesWAL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "planvera.db")

	dsn, err := sqliteDSN(path)
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(dsn, "file:"))
	require.Contains(t, dsn, "_foreign_keys=1")
	require.Contains(t, dsn, "_journal_mode=WAL")
	require.Contains(t, dsn, "_busy_timeout=5000")

	// The parent directory is created so first boot does not need a manual
	// mkdir.
	require.DirExists(t, filepath.Dir(path))
}
