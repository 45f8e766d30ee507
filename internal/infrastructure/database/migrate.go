package database

import (
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratep "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
)

// Migrate applies every pending migration found in dir.
func Migrate(db *sqlx.DB, dir string, log *zap.Logger) error {
	migrator, err := newMigrator(db, dir)
	if err != nil {
		return err
	}

	switch v, dirty, err := migrator.Version(); {
	case err == nil:
		log.Info("database version", zap.Uint("version", v), zap.Bool("dirty", dirty))
	case errors.Is(err, migrate.ErrNilVersion):
		log.Info("database version: nil")
	default:
		return fmt.Errorf("failed to get version: %w", err)
	}

	switch err := migrator.Up(); {
	case err == nil:
		log.Info("database was migrated")
	case errors.Is(err, migrate.ErrNoChange):
		log.Info("database is up-to-date")
	default:
		return fmt.Errorf("failed to migrate db: %w", err)
	}
	return nil
}

// MigrateSteps moves the schema n steps up (n > 0) or down (n < 0).
func MigrateSteps(db *sqlx.DB, dir string, n int) error {
	migrator, err := newMigrator(db, dir)
	if err != nil {
		return err
	}
	if err := migrator.Steps(n); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to migrate %d steps: %w", n, err)
	}
	return nil
}

func newMigrator(db *sqlx.DB, dir string) (*migrate.Migrate, error) {
	driver, err := migratep.WithInstance(db.DB, &migratep.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to create database migrate driver: %w", err)
	}

	migrator, err := migrate.NewWithDatabaseInstance(fmt.Sprintf("file://%s", dir), "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return migrator, nil
}
