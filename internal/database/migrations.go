package database

import (
	"database/sql"
	"fmt"
	"io/fs"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func useMigrations(migrationsFS fs.FS) error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}
	return nil
}

// RunMigrations executes all pending migrations found at the root of migrationsFS
func RunMigrations(db *sql.DB, migrationsFS fs.FS, logger *zap.Logger) error {
	if err := useMigrations(migrationsFS); err != nil {
		return err
	}

	logger.Info("Checking for pending migrations...")

	if err := goose.Up(db, "."); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	version, err := goose.GetDBVersion(db)
	if err != nil {
		return fmt.Errorf("failed to read migration version: %w", err)
	}

	logger.Info("Migrations completed successfully", zap.Int64("version", version))
	return nil
}

// GetMigrationStatus prints the applied state of every migration
func GetMigrationStatus(db *sql.DB, migrationsFS fs.FS) error {
	if err := useMigrations(migrationsFS); err != nil {
		return err
	}

	return goose.Status(db, ".")
}
