package storage

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	// Blank import registers the sqlite3 driver.
	_ "github.com/mattn/go-sqlite3"
	"golang.org/x/exp/slog"

	"mincadmin/internal/infrastructure/migration"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

type SQLiteStore struct {
	db  *sql.DB
	log *slog.Logger
}

// NewSQLiteStore opens path and brings its schema up to date.
func NewSQLiteStore(path string, log *slog.Logger) (*SQLiteStore, error) {
	if err := migration.NewMigration(migrationsFS, "migrations", migration.SQLiteURL(path), nil).Up(); err != nil {
		return nil, fmt.Errorf("migrate local store: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open local store: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open local store: %w", err)
	}

	return &SQLiteStore{
		db:  db,
		log: log.With(slog.String("component", "sqlite_store")),
	}, nil
}

func (s *SQLiteStore) Get(ctx context.Context, scope Scope, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM kv WHERE scope = ? AND key = ?`, scope, key,
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get %s/%s: %w", scope, key, err)
	}
	return value, nil
}

func (s *SQLiteStore) Set(ctx context.Context, scope Scope, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv (scope, key, value, updated_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(scope, key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, scope, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set %s/%s: %w", scope, key, err)
	}
	s.log.Debug("stored value", slog.String("scope", string(scope)), slog.String("key", key))
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, scope Scope, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ? AND key = ?`, scope, key); err != nil {
		return fmt.Errorf("delete %s/%s: %w", scope, key, err)
	}
	return nil
}

func (s *SQLiteStore) ClearScope(ctx context.Context, scope Scope) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM kv WHERE scope = ?`, scope); err != nil {
		return fmt.Errorf("clear %s: %w", scope, err)
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Open returns the SQLite store, or a MemoryStore if the file is unusable.
func Open(path string, log *slog.Logger) Store {
	st, err := NewSQLiteStore(path, log)
	if err != nil {
		log.Warn("local store unavailable, falling back to memory", slog.Any("error", err))
		return NewMemoryStore()
	}
	return st
}
