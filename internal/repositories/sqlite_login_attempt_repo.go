package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BradenHooton/loginlog/internal/database"
	"github.com/BradenHooton/loginlog/internal/models"
)

// Times are stored as Unix microseconds so ordering and cutoff comparisons
// are plain integer comparisons.
var sqliteAttemptSchema = []string{
	`CREATE TABLE IF NOT EXISTS login_attempts (
		id         INTEGER PRIMARY KEY AUTOINCREMENT,
		event_id   TEXT NOT NULL UNIQUE,
		username   TEXT NOT NULL,
		status     TEXT NOT NULL CHECK (status IN ('success', 'failed')),
		ip_address TEXT NOT NULL,
		user_agent TEXT NOT NULL,
		"time"     INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_login_attempts_time ON login_attempts ("time" DESC, id DESC)`,
}

// SQLiteLoginAttemptRepository stores login attempts in the embedded database
type SQLiteLoginAttemptRepository struct {
	db *database.SQLiteDB
}

// NewSQLiteLoginAttemptRepository creates a new SQLiteLoginAttemptRepository
func NewSQLiteLoginAttemptRepository(db *database.SQLiteDB) *SQLiteLoginAttemptRepository {
	return &SQLiteLoginAttemptRepository{db: db}
}

func (r *SQLiteLoginAttemptRepository) CreateStore(ctx context.Context) error {
	return r.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		for _, stmt := range sqliteAttemptSchema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to create login attempt store: %w", err)
			}
		}
		return nil
	})
}

func (r *SQLiteLoginAttemptRepository) DropStore(ctx context.Context) error {
	if _, err := r.db.SQL.ExecContext(ctx, `DROP TABLE IF EXISTS login_attempts`); err != nil {
		return fmt.Errorf("failed to drop login attempt store: %w", err)
	}
	return nil
}

func (r *SQLiteLoginAttemptRepository) Insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error) {
	query := `
		INSERT INTO login_attempts (event_id, username, status, ip_address, user_agent, "time")
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (event_id) DO NOTHING
		RETURNING id
	`

	var id int64
	err := r.db.SQL.QueryRowContext(ctx, query,
		attempt.EventID.String(),
		attempt.Username,
		string(attempt.Status),
		attempt.IPAddress,
		attempt.UserAgent,
		attempt.Time.UnixMicro(),
	).Scan(&id)

	if errors.Is(err, sql.ErrNoRows) {
		err = r.db.SQL.QueryRowContext(ctx,
			`SELECT id FROM login_attempts WHERE event_id = ?`, attempt.EventID.String(),
		).Scan(&id)
	}
	if err != nil {
		return 0, database.MapSQLiteError(err)
	}

	attempt.ID = id
	return id, nil
}

func (r *SQLiteLoginAttemptRepository) ListRecent(ctx context.Context, limit int) ([]*models.LoginAttempt, error) {
	query := `
		SELECT id, event_id, username, status, ip_address, user_agent, "time"
		FROM login_attempts
		ORDER BY "time" DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.SQL.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}
	return scanSQLiteAttempts(rows, limit)
}

func (r *SQLiteLoginAttemptRepository) ListRecentSince(ctx context.Context, since time.Time, limit int) ([]*models.LoginAttempt, error) {
	query := `
		SELECT id, event_id, username, status, ip_address, user_agent, "time"
		FROM login_attempts
		WHERE "time" >= ?
		ORDER BY "time" DESC, id DESC
		LIMIT ?
	`

	rows, err := r.db.SQL.QueryContext(ctx, query, since.UnixMicro(), limit)
	if err != nil {
		return nil, database.MapSQLiteError(err)
	}
	return scanSQLiteAttempts(rows, limit)
}

func scanSQLiteAttempts(rows *sql.Rows, limit int) ([]*models.LoginAttempt, error) {
	defer rows.Close()

	attempts := make([]*models.LoginAttempt, 0, limit)
	for rows.Next() {
		var a models.LoginAttempt
		var status string
		var micros int64
		if err := rows.Scan(&a.ID, &a.EventID, &a.Username, &status, &a.IPAddress, &a.UserAgent, &micros); err != nil {
			return nil, fmt.Errorf("failed to scan login attempt: %w", err)
		}
		a.Status = models.AttemptStatus(status)
		a.Time = time.UnixMicro(micros).UTC()
		attempts = append(attempts, &a)
	}

	if err := rows.Err(); err != nil {
		return nil, database.MapSQLiteError(err)
	}

	return attempts, nil
}

func (r *SQLiteLoginAttemptRepository) DeleteBatchOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error) {
	query := `
		DELETE FROM login_attempts
		WHERE id IN (
			SELECT id FROM login_attempts
			WHERE "time" < ?
			ORDER BY id
			LIMIT ?
		)
	`

	result, err := r.db.SQL.ExecContext(ctx, query, cutoff.UnixMicro(), limit)
	if err != nil {
		return 0, database.MapSQLiteError(err)
	}

	return result.RowsAffected()
}

func (r *SQLiteLoginAttemptRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.SQL.QueryRowContext(ctx, `SELECT COUNT(*) FROM login_attempts`).Scan(&count)
	if err != nil {
		return 0, database.MapSQLiteError(err)
	}
	return count, nil
}
