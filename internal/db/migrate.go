package db

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	msqlite "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"

	"Presenca/internal/config"
)

//go:embed migrations/postgres/*.sql migrations/sqlite/*.sql
var migrationsFS embed.FS

// Migrate применяет все ещё не выполненные миграции своего диалекта
func (d *DB) Migrate(log *zap.Logger) error {
	var (
		dir    string
		driver database.Driver
		err    error
	)
	switch d.Driver {
	case config.DriverPostgres:
		dir = "migrations/postgres"
		driver, err = postgres.WithInstance(d.DB, &postgres.Config{})
	case config.DriverSQLite:
		dir = "migrations/sqlite"
		driver, err = msqlite.WithInstance(d.DB, &msqlite.Config{})
	default:
		return fmt.Errorf("migrate: unknown driver %q", d.Driver)
	}
	if err != nil {
		return fmt.Errorf("migrate: driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, dir)
	if err != nil {
		return fmt.Errorf("migrate: load migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, d.Driver, driver)
	if err != nil {
		return fmt.Errorf("migrate: init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate: up: %w", err)
	}

	version, dirty, _ := m.Version()
	if dirty {
		log.Warn("db migrations are dirty", zap.Uint("version", version))
	} else {
		log.Info("db migrations applied", zap.Uint("version", version))
	}
	return nil
}
