package migrations

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed files/*.sql
var migrationFiles embed.FS

// ErrNoSchema is returned by Check for a database that was never migrated.
var ErrNoSchema = errors.New("database has no schema version")

// Version is the schema version of a database next to the newest version
// shipped in this binary.
type Version struct {
	Current uint // 0 if the database was never migrated
	Latest  uint
	Dirty   bool
}

// Pending is the number of migrations Up would apply.
func (v Version) Pending() uint {
	if v.Current >= v.Latest {
		return 0
	}
	return v.Latest - v.Current
}

// ReadVersion reports where db stands against the embedded migrations.
func ReadVersion(db *sql.DB) (Version, error) {
	latest, err := latestVersion()
	if err != nil {
		return Version{}, fmt.Errorf("reading embedded migrations: %w", err)
	}

	m, err := newMigrate(db)
	if err != nil {
		return Version{}, err
	}
	// m is not closed: closing it would close db, which the caller owns.

	current, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return Version{Latest: latest}, nil
	}
	if err != nil {
		return Version{}, fmt.Errorf("reading database version: %w", err)
	}
	return Version{Current: current, Latest: latest, Dirty: dirty}, nil
}

// Check returns nil if db is clean and at the latest version.
func Check(db *sql.DB) error {
	v, err := ReadVersion(db)
	if err != nil {
		return err
	}

	switch {
	case v.Current == 0:
		return ErrNoSchema
	case v.Dirty:
		return fmt.Errorf("database is dirty at version %d, a previous migration failed", v.Current)
	case v.Current < v.Latest:
		return fmt.Errorf("database is at version %d, %d migration(s) behind %d", v.Current, v.Pending(), v.Latest)
	case v.Current > v.Latest:
		return fmt.Errorf("database version %d is newer than this binary (%d)", v.Current, v.Latest)
	}
	return nil
}

// Up applies every pending migration. A database that is already current is
// left alone.
func Up(db *sql.DB) error {
	m, err := newMigrate(db)
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating up: %w", err)
	}
	return nil
}

func newMigrate(db *sql.DB) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return nil, fmt.Errorf("opening embedded migrations: %w", err)
	}

	driver, err := sqlite3.WithInstance(db, &sqlite3.Config{})
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating sqlite3 migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite3", driver)
	if err != nil {
		src.Close()
		return nil, fmt.Errorf("creating migrate instance: %w", err)
	}
	return m, nil
}

func latestVersion() (uint, error) {
	src, err := iofs.New(migrationFiles, "files")
	if err != nil {
		return 0, err
	}
	defer src.Close()
	return lastVersion(src)
}

// lastVersion walks src from its first migration to its last.
func lastVersion(src source.Driver) (uint, error) {
	v, err := src.First()
	if err != nil {
		return 0, err
	}
	for {
		next, err := src.Next(v)
		if err != nil {
			return v, nil
		}
		v = next
	}
}
