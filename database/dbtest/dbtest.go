// Package dbtest opens throwaway SQLite databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"stocksim/config"
	"stocksim/database"
)

// Open returns a migrated database living in the test's temp dir.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.Open(config.DatabaseConfig{
		Driver:     config.DriverSQLite,
		SQLitePath: filepath.Join(t.TempDir(), "finance.db"),
	}, zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() { _ = database.Close(db) })
	return db
}

// Store is Open wrapped in a ledger store.
func Store(t *testing.T) *database.Store {
	t.Helper()
	return database.NewStore(Open(t))
}
