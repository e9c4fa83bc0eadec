package database

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrate applies the host schema (the settings key-value table). The login
// attempt store itself is created by install and dropped by uninstall.
func Migrate(ctx context.Context, db *sql.DB, dialect string, logger *slog.Logger) error {
	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("set migration dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	return nil
}

// Migrate runs Migrate over a database/sql handle borrowed from the pool
func (db *DB) Migrate(ctx context.Context) error {
	sqlDB := stdlib.OpenDBFromPool(db.Pool)
	defer sqlDB.Close()

	return Migrate(ctx, sqlDB, "postgres", db.logger)
}

func (db *SQLiteDB) Migrate(ctx context.Context) error {
	return Migrate(ctx, db.SQL, "sqlite3", db.logger)
}
