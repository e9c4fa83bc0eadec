package services

import (
	"context"
	"time"

	"github.com/BradenHooton/loginlog/internal/models"
)

// AttemptRepository is the record store for login attempts
type AttemptRepository interface {
	Insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]*models.LoginAttempt, error)
	ListRecentSince(ctx context.Context, since time.Time, limit int) ([]*models.LoginAttempt, error)
	DeleteBatchOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
}

// AttemptStore creates and drops the record store
type AttemptStore interface {
	CreateStore(ctx context.Context) error
	DropStore(ctx context.Context) error
}

// SettingsStore is the host key-value settings store. Get returns
// models.ErrNotFound for a missing key.
type SettingsStore interface {
	Get(ctx context.Context, name string) (string, error)
	SetAll(ctx context.Context, values map[string]string) error
	AddAll(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, names ...string) error
}
