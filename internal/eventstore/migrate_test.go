package eventstore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/repopulse/repopulse/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrateSyncRuns_NoneBackend(t *testing.T) {
	err := MigrateSyncRuns(schema.NoneBackend, "", -1)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "migrations are not supported for NoneBackend")
}

func TestMigrateSyncRuns_SQLite(t *testing.T) {
	// Create a temporary database file for testing
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "test_migration.db")

	// Run migration to latest version (should go to version 2)
	err := MigrateSyncRuns(schema.SQLiteBackend, dbPath, -1)
	require.NoError(t, err)

	// Verify migration was successful by checking the database file exists
	_, err = os.Stat(dbPath)
	assert.NoError(t, err)

	// Run migration again (should be a no-op)
	err = MigrateSyncRuns(schema.SQLiteBackend, dbPath, -1)
	assert.NoError(t, err)

	// Run migration to a specific version (version 2)
	err = MigrateSyncRuns(schema.SQLiteBackend, dbPath, 2)
	assert.NoError(t, err)

	// Step back to version 1 (drops the repo stats table only)
	err = MigrateSyncRuns(schema.SQLiteBackend, dbPath, 1)
	assert.NoError(t, err)

	// Rollback to version 0
	err = MigrateSyncRuns(schema.SQLiteBackend, dbPath, 0)
	assert.NoError(t, err)

	// Migrate back up to version 1
	err = MigrateSyncRuns(schema.SQLiteBackend, dbPath, 1)
	assert.NoError(t, err)
}

func TestMigrateSyncRuns_SQLiteInMemory(t *testing.T) {
	// Test with in-memory database
	err := MigrateSyncRuns(schema.SQLiteBackend, ":memory:", -1)
	require.NoError(t, err)
}
