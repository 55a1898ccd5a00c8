package database

import (
	"context"
	"database/sql"
	"fmt"

	"cleat-store/migrations"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
)

func newMigrator(db *sql.DB) (*goose.Provider, error) {
	p, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	if err != nil {
		return nil, fmt.Errorf("failed to load migrations: %w", err)
	}
	return p, nil
}

// RunMigrations applies every pending migration, logging each one
func RunMigrations(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	p, err := newMigrator(db)
	if err != nil {
		return err
	}

	results, err := p.Up(ctx)
	for _, r := range results {
		logger.Info("Applied migration",
			zap.Int64("version", r.Source.Version),
			zap.String("file", r.Source.Path),
			zap.Duration("took", r.Duration),
		)
	}
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if len(results) == 0 {
		logger.Debug("Schema is up to date")
	}
	return nil
}

// RollbackMigration reverts the most recent migration
func RollbackMigration(ctx context.Context, db *sql.DB, logger *zap.Logger) error {
	p, err := newMigrator(db)
	if err != nil {
		return err
	}

	r, err := p.Down(ctx)
	if err != nil {
		return fmt.Errorf("failed to roll back migration: %w", err)
	}

	logger.Info("Rolled back migration", zap.Int64("version", r.Source.Version), zap.String("file", r.Source.Path))
	return nil
}

// MigrationStatus is one line of `storectl migrate status`
type MigrationStatus struct {
	Version int64
	File    string
	Applied bool
	At      string
}

// GetMigrationStatus reports every known migration, oldest first
func GetMigrationStatus(ctx context.Context, db *sql.DB) ([]MigrationStatus, error) {
	p, err := newMigrator(db)
	if err != nil {
		return nil, err
	}

	statuses, err := p.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration status: %w", err)
	}

	out := make([]MigrationStatus, 0, len(statuses))
	for _, s := range statuses {
		st := MigrationStatus{Version: s.Source.Version, File: s.Source.Path}
		if s.State == goose.StateApplied {
			st.Applied = true
			st.At = s.AppliedAt.UTC().Format("2006-01-02 15:04:05")
		}
		out = append(out, st)
	}
	return out, nil
}
