package repositories

import (
	"context"
	"fmt"

	"github.com/BradenHooton/loginlog/internal/database"
	"github.com/jackc/pgx/v5"
)

// SettingsRepository is the host key-value settings store
type SettingsRepository struct {
	db *database.DB
}

// NewSettingsRepository creates a new SettingsRepository
func NewSettingsRepository(db *database.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

// Get returns the value stored under name, or models.ErrNotFound
func (r *SettingsRepository) Get(ctx context.Context, name string) (string, error) {
	var value string
	err := r.db.Pool.QueryRow(ctx, `SELECT value FROM settings WHERE name = $1`, name).Scan(&value)
	if err != nil {
		return "", database.MapPostgresError(err)
	}
	return value, nil
}

// SetAll upserts every value in a single transaction
func (r *SettingsRepository) SetAll(ctx context.Context, values map[string]string) error {
	query := `
		INSERT INTO settings (name, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for name, value := range values {
			if _, err := tx.Exec(ctx, query, name, value); err != nil {
				return fmt.Errorf("failed to store setting %s: %w", name, database.MapPostgresError(err))
			}
		}
		return nil
	})
}

// AddAll stores the values whose names are not present yet, leaving
// existing values untouched
func (r *SettingsRepository) AddAll(ctx context.Context, values map[string]string) error {
	query := `
		INSERT INTO settings (name, value, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (name) DO NOTHING
	`
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for name, value := range values {
			if _, err := tx.Exec(ctx, query, name, value); err != nil {
				return fmt.Errorf("failed to add setting %s: %w", name, database.MapPostgresError(err))
			}
		}
		return nil
	})
}

// Delete removes the named settings; missing names are ignored
func (r *SettingsRepository) Delete(ctx context.Context, names ...string) error {
	if len(names) == 0 {
		return nil
	}
	if _, err := r.db.Pool.Exec(ctx, `DELETE FROM settings WHERE name = ANY($1)`, names); err != nil {
		return fmt.Errorf("failed to delete settings: %w", database.MapPostgresError(err))
	}
	return nil
}
