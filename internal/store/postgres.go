// Package store provides PostgreSQL-backed persistence for chat sessions,
// participants, and the append-only message log. It is the single source of
// truth; every other component reads and writes through it.
package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file" // file:// migration source
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // postgres driver
	"go.uber.org/zap"
)

// Store manages chat persistence in PostgreSQL.
type Store struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// New wraps an existing database handle.
func New(db *sqlx.DB, logger *zap.Logger) *Store {
	return &Store{db: db, logger: logger}
}

// Open connects to PostgreSQL and verifies the connection.
func Open(url string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("store: connect: %w", err)
	}
	logger.Info("connected to postgres")
	return db, nil
}

// Migrate applies pending schema migrations from sourceURL (file://...).
func Migrate(db *sqlx.DB, sourceURL string, logger *zap.Logger) error {
	driver, err := postgres.WithInstance(db.DB, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("store: migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "workcity_chat", driver)
	if err != nil {
		return fmt.Errorf("store: migrate init: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("store: migrate up: %w", err)
	}

	logger.Info("schema migrations applied")
	return nil
}

// DB exposes the underlying handle for components that need their own
// transactions (the assignment engine).
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
