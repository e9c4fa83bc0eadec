package repositories

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/BradenHooton/loginlog/internal/database"
	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// newTestSQLite opens a migrated in-memory database with the attempt store installed
func newTestSQLite(t *testing.T) *database.SQLiteDB {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	db, err := database.OpenSQLite(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.Migrate(context.Background()))
	require.NoError(t, NewSQLiteLoginAttemptRepository(db).CreateStore(context.Background()))

	return db
}

func newAttempt(username string, status models.AttemptStatus, at time.Time) *models.LoginAttempt {
	return &models.LoginAttempt{
		EventID:   uuid.New(),
		Username:  username,
		Status:    status,
		IPAddress: "203.0.113.7",
		UserAgent: "Mozilla/5.0",
		Time:      at.UTC().Truncate(time.Microsecond),
	}
}
