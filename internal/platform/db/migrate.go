package db

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/odyssey-erp/backoffice/migrations"
)

// SchemaStatus describes the migration state of a database.
type SchemaStatus struct {
	Current uint
	Latest  uint
	Dirty   bool
}

// UpToDate reports whether the database is at the latest embedded version and clean.
func (s SchemaStatus) UpToDate() bool {
	return !s.Dirty && s.Current == s.Latest
}

// Migrate applies all pending embedded migrations.
func Migrate(dsn string) (SchemaStatus, error) {
	m, closeFn, err := newMigrator(dsn)
	if err != nil {
		return SchemaStatus{}, err
	}
	defer closeFn()

	status, err := readStatus(m)
	if err != nil {
		return status, err
	}
	if status.Dirty {
		return status, fmt.Errorf("platform/db: migrations are dirty at version %d", status.Current)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return status, fmt.Errorf("platform/db: apply migrations: %w", err)
	}
	return readStatus(m)
}

// CheckSchema refuses a database that is behind the embedded migrations or dirty.
func CheckSchema(dsn string) (SchemaStatus, error) {
	m, closeFn, err := newMigrator(dsn)
	if err != nil {
		return SchemaStatus{}, err
	}
	defer closeFn()

	status, err := readStatus(m)
	if err != nil {
		return status, err
	}
	if status.Dirty {
		return status, fmt.Errorf("platform/db: migrations are dirty at version %d", status.Current)
	}
	if status.Current < status.Latest {
		return status, fmt.Errorf("platform/db: schema version %d is behind %d, run migrations", status.Current, status.Latest)
	}
	return status, nil
}

// LatestVersion returns the highest embedded migration version.
func LatestVersion() (uint, error) {
	entries, err := fs.ReadDir(migrations.FS, ".")
	if err != nil {
		return 0, fmt.Errorf("platform/db: list migrations: %w", err)
	}
	var latest uint
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".up.sql") {
			continue
		}
		version, ok := parseVersion(name)
		if !ok {
			return 0, fmt.Errorf("platform/db: invalid migration filename %s", name)
		}
		if version > latest {
			latest = version
		}
	}
	if latest == 0 {
		return 0, errors.New("platform/db: no embedded migrations found")
	}
	return latest, nil
}

func parseVersion(name string) (uint, bool) {
	prefix, _, ok := strings.Cut(name, "_")
	if !ok {
		return 0, false
	}
	v, err := strconv.ParseUint(prefix, 10, 64)
	if err != nil || v == 0 {
		return 0, false
	}
	return uint(v), true
}

func newMigrator(dsn string) (*migrate.Migrate, func(), error) {
	sqlDB, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("platform/db: open: %w", err)
	}
	source, err := iofs.New(migrations.FS, ".")
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("platform/db: migration source: %w", err)
	}
	driver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("platform/db: migration driver: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "pgx5", driver)
	if err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("platform/db: migrator: %w", err)
	}
	return m, func() {
		_, _ = m.Close()
	}, nil
}

func readStatus(m *migrate.Migrate) (SchemaStatus, error) {
	latest, err := LatestVersion()
	if err != nil {
		return SchemaStatus{}, err
	}
	status := SchemaStatus{Latest: latest}
	version, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return status, nil
	}
	if err != nil {
		return status, fmt.Errorf("platform/db: read migration version: %w", err)
	}
	status.Current = version
	status.Dirty = dirty
	return status, nil
}
