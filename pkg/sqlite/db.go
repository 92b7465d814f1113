// Package sqlite provides the report-history store for previously
// computed SecurityReports, keyed by file hash.
package sqlite

import (
	"embed"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	sqlite3migrate "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// openDB opens the sqlite3 database at path and applies every pending
// migration under migrations/.
func openDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite3", path+"?_journal=WAL&_fk=true")
	if err != nil {
		return nil, fmt.Errorf("sqlite: connecting to %s: %w", path, err)
	}

	if err := migrateUp(db, path); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

func migrateUp(db *sqlx.DB, path string) error {
	source, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return fmt.Errorf("sqlite: reading embedded migrations: %w", err)
	}

	driver, err := sqlite3migrate.WithInstance(db.DB, &sqlite3migrate.Config{})
	if err != nil {
		return fmt.Errorf("sqlite: building migration driver for %s: %w", path, err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "sqlite3", driver)
	if err != nil {
		return fmt.Errorf("sqlite: building migrator for %s: %w", path, err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("sqlite: applying migrations to %s: %w", path, err)
	}
	return nil
}
