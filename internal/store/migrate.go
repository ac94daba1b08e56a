package store

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"github.com/matheus3301/chatwire/internal/store/migrations"
)

// ErrDirtySchema means a previous migration stopped halfway and needs a
// manual fix before the profile can be used.
var ErrDirtySchema = errors.New("session db schema is dirty")

// MigrateResult reports the schema version before and after Migrate.
type MigrateResult struct {
	From    uint
	Version uint
	Changed bool
}

// Migrate brings the schema up to the embedded migrations.
func (db *DB) Migrate() (MigrateResult, error) {
	src, err := iofs.New(migrations.FS, ".")
	if err != nil {
		return MigrateResult{}, fmt.Errorf("migration source: %w", err)
	}
	driver, err := sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	if err != nil {
		return MigrateResult{}, fmt.Errorf("migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		return MigrateResult{}, fmt.Errorf("migration instance: %w", err)
	}

	from, dirty, err := version(m)
	if err != nil {
		return MigrateResult{}, err
	}
	if dirty {
		return MigrateResult{From: from}, fmt.Errorf("%w at version %d", ErrDirtySchema, from)
	}

	res := MigrateResult{From: from, Changed: true}
	if err := m.Up(); errors.Is(err, migrate.ErrNoChange) {
		res.Changed = false
	} else if err != nil {
		return res, fmt.Errorf("migration up: %w", err)
	}

	res.Version, _, err = version(m)
	return res, err
}

// version treats a fresh database as version 0.
func version(m *migrate.Migrate) (uint, bool, error) {
	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("migration version: %w", err)
	}
	return v, dirty, nil
}
