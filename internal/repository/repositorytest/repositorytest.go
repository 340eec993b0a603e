// Package repositorytest opens migrated SQLite stores for tests.
package repositorytest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aryan0dhankhar/issuedesk/internal/repository"
	"github.com/aryan0dhankhar/issuedesk/pkg/database"
)

// DSN returns a SQLite DSN for a fresh database file under dir.
func DSN(dir string) string {
	return filepath.Join(dir, "issuedesk.db") +
		"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// NewDB opens a migrated SQLite database that is closed when the test ends.
func NewDB(t testing.TB) *sql.DB {
	t.Helper()

	dsn := DSN(t.TempDir())
	require.NoError(t, database.Migrate(database.DriverSQLite, dsn, nil))

	pool, err := database.NewConnectionPool(context.Background(), &database.Config{
		Driver:       database.DriverSQLite,
		URL:          dsn,
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = pool.Close() })

	return pool.GetDB()
}

// NewStore returns a store over a fresh migrated database.
func NewStore(t testing.TB) (*repository.SQLStore, *sql.DB) {
	t.Helper()
	db := NewDB(t)
	return repository.NewSQLStore(db, nil), db
}
