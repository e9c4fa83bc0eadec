package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/loginlog/internal/database"
	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/jackc/pgx/v5"
)

var postgresAttemptSchema = []string{
	`CREATE TABLE IF NOT EXISTS login_attempts (
		id         BIGSERIAL PRIMARY KEY,
		event_id   UUID NOT NULL UNIQUE,
		username   VARCHAR(60) NOT NULL,
		status     VARCHAR(20) NOT NULL CHECK (status IN ('success', 'failed')),
		ip_address VARCHAR(100) NOT NULL,
		user_agent TEXT NOT NULL,
		"time"     TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_login_attempts_time ON login_attempts ("time" DESC, id DESC)`,
}

// LoginAttemptRepository handles database operations for login attempts
type LoginAttemptRepository struct {
	db *database.DB
}

// NewLoginAttemptRepository creates a new LoginAttemptRepository
func NewLoginAttemptRepository(db *database.DB) *LoginAttemptRepository {
	return &LoginAttemptRepository{db: db}
}

// CreateStore creates the login_attempts table and its index if missing
func (r *LoginAttemptRepository) CreateStore(ctx context.Context) error {
	return r.db.WithTransaction(ctx, func(tx pgx.Tx) error {
		for _, stmt := range postgresAttemptSchema {
			if _, err := tx.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create login attempt store: %w", err)
			}
		}
		return nil
	})
}

// DropStore removes the login_attempts table and every record in it
func (r *LoginAttemptRepository) DropStore(ctx context.Context) error {
	if _, err := r.db.Pool.Exec(ctx, `DROP TABLE IF EXISTS login_attempts`); err != nil {
		return fmt.Errorf("failed to drop login attempt store: %w", err)
	}
	return nil
}

// Insert records a login attempt and sets its ID. Replaying an event ID
// returns the ID of the existing row without inserting a second one.
func (r *LoginAttemptRepository) Insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error) {
	query := `
		INSERT INTO login_attempts (event_id, username, status, ip_address, user_agent, "time")
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.db.Pool.QueryRow(ctx, query,
		attempt.EventID,
		attempt.Username,
		string(attempt.Status),
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.Time,
	).Scan(&id)

	if errors.Is(err, pgx.ErrNoRows) {
		err = r.db.Pool.QueryRow(ctx,
			`SELECT id FROM login_attempts WHERE event_id = $1`, attempt.EventID,
		).Scan(&id)
	}
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	attempt.ID = id
	return id, nil
}

// ListRecent returns up to limit attempts, newest first
func (r *LoginAttemptRepository) ListRecent(ctx context.Context, limit int) ([]*models.LoginAttempt, error) {
	query := `
		SELECT id, event_id, username, status, ip_address, user_agent, "time"
		FROM login_attempts
		ORDER BY "time" DESC, id DESC
		LIMIT $1
	`

	rows, err := r.db.Pool.Query(ctx, query, limit)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return scanPostgresAttempts(rows, limit)
}

// ListRecentSince is ListRecent restricted to attempts at or after since
func (r *LoginAttemptRepository) ListRecentSince(ctx context.Context, since time.Time, limit int) ([]*models.LoginAttempt, error) {
	query := `
		SELECT id, event_id, username, status, ip_address, user_agent, "time"
		FROM login_attempts
		WHERE "time" >= $1
		ORDER BY "time" DESC, id DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, since, limit)
	if err != nil {
		return nil, database.MapPostgresError(err)
	}
	return scanPostgresAttempts(rows, limit)
}

func scanPostgresAttempts(rows pgx.Rows, limit int) ([]*models.LoginAttempt, error) {
	defer rows.Close()

	attempts := make([]*models.LoginAttempt, 0, limit)
	for rows.Next() {
		var a models.LoginAttempt
		var status string
		if err := rows.Scan(&a.ID, &a.EventID, &a.Username, &status, &a.IPAddress, &a.UserAgent, &a.Time); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		a.Status = models.AttemptStatus(status)
		a.Time = a.Time.UTC()
		attempts = append(attempts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, database.MapPostgresError(err)
	}

	return attempts, nil
}

// DeleteBatchOlderThan removes at most limit attempts with time strictly
// before cutoff, oldest ids first
func (r *LoginAttemptRepository) DeleteBatchOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	query := `
		DELETE FROM login_attempts
		WHERE id IN (
			SELECT id FROM login_attempts
			WHERE "time" < $1
			ORDER BY id
			LIMIT $2
		)
	`

	result, err := r.db.Pool.Exec(ctx, query, cutoff, limit)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}

	return result.RowsAffected(), nil
}

// Count returns the number of stored attempts
func (r *LoginAttemptRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.Pool.QueryRow(ctx, `SELECT COUNT(*) FROM login_attempts`).Scan(&count)
	if err != nil {
		return 0, database.MapPostgresError(err)
	}
	return count, nil
}
