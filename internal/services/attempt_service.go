package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/loginlog/internal/models"
)

const (
	DefaultListLimit = 10
	MaxListLimit     = 100
)

// AttemptService serves the administrator view of recent attempts
type AttemptService struct {
	repo        AttemptRepository
	settings    *SettingsService
	sweeper     *SweeperService
	sweepOnList bool
	timeout     time.Duration
	logger      *slog.Logger
}

// NewAttemptService creates a new AttemptService. When sweepOnList is set,
// expired attempts are purged before every listing.
func NewAttemptService(repo AttemptRepository, settings *SettingsService, sweeper *SweeperService, sweepOnList bool, timeout time.Duration, logger *slog.Logger) *AttemptService {
	return &AttemptService{
		repo:        repo,
		settings:    settings,
		sweeper:     sweeper,
		sweepOnList: sweepOnList,
		timeout:     timeout,
		logger:      logger,
	}
}

// ListRecent returns the newest attempts first, ties broken by id. With
// sweeping on list, expired attempts are purged first and a failed sweep is
// logged while the listing proceeds. Without it, expired attempts are
// filtered out of the query until the scheduled sweep removes them.
func (s *AttemptService) ListRecent(ctx context.Context, limit int) ([]*models.LoginAttempt, error) {
	if limit < 1 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	var since time.Time
	if settings, ok := s.loadSettings(ctx); ok {
		if s.sweepOnList {
			if _, err := s.sweeper.Sweep(ctx, settings); err != nil {
				s.logger.ErrorContext(ctx, "retention sweep before listing failed", slog.Any("error", err))
			}
		} else if settings.Enabled {
			since = s.sweeper.Cutoff(settings)
		}
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	var attempts []*models.LoginAttempt
	var err error
	if since.IsZero() {
		attempts, err = s.repo.ListRecent(ctx, limit)
	} else {
		attempts, err = s.repo.ListRecentSince(ctx, since, limit)
	}
	if err != nil {
		return nil, &StorageError{Op: "list login attempts", Err: err}
	}
	return attempts, nil
}

func (s *AttemptService) loadSettings(ctx context.Context) (models.RetentionSettings, bool) {
	settings, err := s.settings.Load(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to load retention settings before listing", slog.Any("error", err))
		return models.RetentionSettings{}, false
	}
	return settings, true
}
