package sqlite

import (
	"errors"
	"fmt"

	"github.com/aussiebroadwan/pocketbook/internal/auth/store/drivers/sqlite/migrations"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

// ApplyMigrations brings the schema up to date using the embedded
// migrations.
func (s *Store) ApplyMigrations() error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: migrate up: %w", err)
	}
	return nil
}

// MigrationVersion reports the applied schema version.
func (s *Store) MigrationVersion() (version uint, dirty bool, err error) {
	m, err := s.migrator()
	if err != nil {
		return 0, false, err
	}
	version, dirty, err = m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return version, dirty, err
}

// RollbackMigrations reverts every migration. It is used by the migrate
// command and tests; the service never calls it.
func (s *Store) RollbackMigrations() error {
	m, err := s.migrator()
	if err != nil {
		return err
	}
	if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("sqlite: migrate down: %w", err)
	}
	return nil
}

func (s *Store) migrator() (*migrate.Migrate, error) {
	driver, err := sqlite.WithInstance(s.db.DB, &sqlite.Config{})
	if err != nil {
		return nil, fmt.Errorf("sqlite: migrate driver: %w", err)
	}
	src, err := iofs.New(migrations.Migrations, ".")
	if err != nil {
		return nil, fmt.Errorf("sqlite: migrate source: %w", err)
	}
	return migrate.NewWithInstance("iofs", src, "sqlite", driver)
}
