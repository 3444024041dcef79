// Package migration applies the embedded schema of the local store.
package migration

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	// Blank import registers the sqlite3 database driver for migrations.
	_ "github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// Migrator is the subset of migrate.Migrate in use.
type Migrator interface {
	Up() error
	Close() (error, error)
}

// MigrationEngine builds a Migrator; tests swap it to avoid touching disk.
type MigrationEngine func(src fs.FS, dir, databaseURL string) (Migrator, error)

type Migration struct {
	src         fs.FS
	dir         string
	databaseURL string
	engine      MigrationEngine
}

func NewMigration(src fs.FS, dir, databaseURL string, engine MigrationEngine) *Migration {
	if engine == nil {
		engine = DefaultEngine
	}
	return &Migration{
		src:         src,
		dir:         dir,
		databaseURL: databaseURL,
		engine:      engine,
	}
}

// DefaultEngine reads migrations from an embedded filesystem.
func DefaultEngine(src fs.FS, dir, databaseURL string) (Migrator, error) {
	d, err := iofs.New(src, dir)
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	return migrate.NewWithSourceInstance("iofs", d, databaseURL)
}

// SQLiteURL is the migrate database URL of a SQLite file.
func SQLiteURL(path string) string {
	return "sqlite3://" + path
}

// Up applies pending migrations. An up-to-date schema is not an error.
func (mg *Migration) Up() (err error) {
	m, err := mg.engine(mg.src, mg.dir, mg.databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		serr, dberr := m.Close()
		if serr != nil {
			err = errors.Join(err, fmt.Errorf("migration source: %w", serr))
		}
		if dberr != nil {
			err = errors.Join(err, fmt.Errorf("migration database: %w", dberr))
		}
	}()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration up: %w", err)
	}
	return nil
}
