package database

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // registers postgres:// for golang-migrate
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"   // registers sqlite:// for golang-migrate
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations
var migrationsFS embed.FS

// Migrations returns the embedded migration files for driver.
func Migrations(driver string) (fs.FS, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
		return fs.Sub(migrationsFS, "migrations/"+driver)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// Migrate applies every pending up migration. golang-migrate opens its own
// connection from dsn so the application pool is never closed by it.
func Migrate(driver, dsn string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}

	files, err := Migrations(driver)
	if err != nil {
		return err
	}

	src, err := iofs.New(files, ".")
	if err != nil {
		return fmt.Errorf("failed to load migrations: %w", err)
	}

	databaseURL := dsn
	if driver == DriverSQLite {
		databaseURL = "sqlite://" + dsn
	}

	m, err := migrate.NewWithSourceInstance("iofs", src, databaseURL)
	if err != nil {
		return fmt.Errorf("failed to initialize migrations: %w", err)
	}
	defer func() {
		if srcErr, dbErr := m.Close(); srcErr != nil || dbErr != nil {
			logger.Warn("error closing migrations", slog.Any("source_error", srcErr), slog.Any("database_error", dbErr))
		}
	}()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("no new migrations to apply", slog.String("driver", driver))
			return nil
		}
		return fmt.Errorf("migrations up failed: %w", err)
	}

	logger.Info("migrations applied successfully", slog.String("driver", driver))
	return nil
}
