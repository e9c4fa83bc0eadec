package repositories

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/BradenHooton/loginlog/internal/config"
	"github.com/BradenHooton/loginlog/internal/database"
	"github.com/BradenHooton/loginlog/internal/models"
)

// AttemptStore is implemented by both login attempt repositories
type AttemptStore interface {
	CreateStore(ctx context.Context) error
	DropStore(ctx context.Context) error
	Insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error)
	ListRecent(ctx context.Context, limit int) ([]*models.LoginAttempt, error)
	ListRecentSince(ctx context.Context, since time.Time, limit int) ([]*models.LoginAttempt, error)
	DeleteBatchOlderThan(ctx context.Context, cutoff time.Time, limit int) (int64, error)
	Count(ctx context.Context) (int64, error)
}

// SettingsStore is implemented by both settings repositories
type SettingsStore interface {
	Get(ctx context.Context, name string) (string, error)
	SetAll(ctx context.Context, values map[string]string) error
	AddAll(ctx context.Context, values map[string]string) error
	Delete(ctx context.Context, names ...string) error
}

// Store bundles the repositories of the configured driver
type Store struct {
	Driver   string
	Attempts AttemptStore
	Settings SettingsStore

	healthCheck func(ctx context.Context) error
	migrate     func(ctx context.Context) error
	close       func()
}

// Open connects to the database selected by cfg.Driver
func Open(cfg *config.DatabaseConfig, logger *slog.Logger) (*Store, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err := database.NewConnection(cfg, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver:      config.DriverPostgres,
			Attempts:    NewLoginAttemptRepository(db),
			Settings:    NewSettingsRepository(db),
			healthCheck: db.HealthCheck,
			migrate:     db.Migrate,
			close:       db.Close,
		}, nil
	case config.DriverSQLite:
		db, err := database.OpenSQLite(cfg.SQLitePath, logger)
		if err != nil {
			return nil, err
		}
		return &Store{
			Driver:      config.DriverSQLite,
			Attempts:    NewSQLiteLoginAttemptRepository(db),
			Settings:    NewSQLiteSettingsRepository(db),
			healthCheck: db.HealthCheck,
			migrate:     db.Migrate,
			close:       db.Close,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// HealthCheck pings the database
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.healthCheck(ctx)
}

// Migrate applies the settings table migrations
func (s *Store) Migrate(ctx context.Context) error {
	return s.migrate(ctx)
}

func (s *Store) Close() {
	s.close()
}
