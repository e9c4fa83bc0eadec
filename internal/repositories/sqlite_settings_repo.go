package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/BradenHooton/loginlog/internal/database"
	"github.com/BradenHooton/loginlog/internal/models"
)

// SQLiteSettingsRepository is the key-value settings store for the embedded database
type SQLiteSettingsRepository struct {
	db *database.SQLiteDB
}

func NewSQLiteSettingsRepository(db *database.SQLiteDB) *SQLiteSettingsRepository {
	return &SQLiteSettingsRepository{db: db}
}

func (r *SQLiteSettingsRepository) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := r.db.SQL.QueryRowContext(ctx, `SELECT value FROM settings WHERE name = ?`, name).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrNotFound
	}
	if err != nil {
		return "", database.MapSQLiteError(err)
	}
	return value, nil
}

func (r *SQLiteSettingsRepository) SetAll(ctx context.Context, values map[string]string) error {
	query := `
		INSERT INTO settings (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for name, value := range values {
			if _, err := tx.ExecContext(ctx, query, name, value); err != nil {
				return fmt.Errorf("failed to store setting %s: %w", name, database.MapSQLiteError(err))
			}
		}
		return nil
	})
}

func (r *SQLiteSettingsRepository) AddAll(ctx context.Context, values map[string]string) error {
	query := `
		INSERT INTO settings (name, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO NOTHING
	`
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for name, value := range values {
			if _, err := tx.ExecContext(ctx, query, name, value); err != nil {
				return fmt.Errorf("failed to add setting %s: %w", name, database.MapSQLiteError(err))
			}
		}
		return nil
	})
}

func (r *SQLiteSettingsRepository) Delete(ctx context.Context, names ...string) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, name := range names {
			if _, err := tx.ExecContext(ctx, `DELETE FROM settings WHERE name = ?`, name); err != nil {
				return fmt.Errorf("failed to delete setting %s: %w", name, database.MapSQLiteError(err))
			}
		}
		return nil
	})
}
