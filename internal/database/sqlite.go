package database

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// MemoryDSN opens a private in-memory database; used by tests.
const MemoryDSN = ":memory:"

// FileDSN is the connection string template for an on-disk database.
const FileDSN = "file:%s?mode=rwc&_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"

// NewSQLite opens the local SQLite file at path and applies pending migrations.
func NewSQLite(ctx context.Context, path string, log zerolog.Logger) (*sql.DB, error) {
	dsn := path
	if path != MemoryDSN {
		dsn = fmt.Sprintf(FileDSN, path)
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single writer; also keeps an in-memory database on one connection.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	m, err := NewMigrator(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		db.Close()
		return nil, fmt.Errorf("migrate sqlite: %w", err)
	}

	version, _, _ := m.Version()
	log.Info().
		Str("path", path).
		Uint("schema_version", version).
		Msg("SQLite ready")

	return db, nil
}

// NewMigrator binds the embedded migrations to db. Closing the returned
// migrator closes db as well.
func NewMigrator(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrations: %w", err)
	}
	return m, nil
}
