package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/loginlog/internal/metrics"
	"github.com/BradenHooton/loginlog/internal/models"
	pkglogger "github.com/BradenHooton/loginlog/pkg/logger"
)

// SweeperConfig controls how expired attempts are removed
type SweeperConfig struct {
	BatchSize int
	Location  *time.Location
	Timeout   time.Duration
}

// SweeperService deletes attempts older than the configured retention window
type SweeperService struct {
	repo    AttemptRepository
	cfg     SweeperConfig
	audit   *pkglogger.AuditLogger
	logger  *slog.Logger
	metrics *metrics.Registry
	now     func() time.Time
}

// NewSweeperService creates a new SweeperService
func NewSweeperService(repo AttemptRepository, cfg SweeperConfig, audit *pkglogger.AuditLogger, logger *slog.Logger) *SweeperService {
	if cfg.BatchSize < 1 {
		cfg.BatchSize = 1000
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &SweeperService{
		repo:    repo,
		cfg:     cfg,
		audit:   audit,
		logger:  logger,
		metrics: metrics.Get(),
		now:     time.Now,
	}
}

// Cutoff returns the instant before which attempts are expired. Days are
// calendar days in the configured location.
func (s *SweeperService) Cutoff(settings models.RetentionSettings) time.Time {
	days := settings.RetainDays
	if days < 1 {
		days = models.DefaultRetainDays
	}
	return s.now().In(s.cfg.Location).AddDate(0, 0, -days)
}

// Sweep deletes every attempt with a time strictly before the cutoff and
// returns how many were removed. It does nothing when retention is disabled.
func (s *SweeperService) Sweep(ctx context.Context, settings models.RetentionSettings) (int64, error) {
	if !settings.Enabled {
		s.metrics.RecordSweep(false, 0, 0, nil)
		return 0, nil
	}

	start := time.Now()
	cutoff := s.Cutoff(settings)

	var total int64
	for {
		n, err := s.deleteBatch(ctx, cutoff)
		total += n
		if err != nil {
			s.metrics.RecordSweep(true, total, time.Since(start).Seconds(), err)
			s.audit.LogRetentionSweep(ctx, cutoff, total, err)
			return total, &StorageError{Op: "delete expired login attempts", Err: err}
		}
		if n < int64(s.cfg.BatchSize) {
			break
		}
	}

	s.metrics.RecordSweep(true, total, time.Since(start).Seconds(), nil)
	if total > 0 {
		s.audit.LogRetentionSweep(ctx, cutoff, total, nil)
	} else {
		s.logger.DebugContext(ctx, "retention sweep found nothing to delete", slog.Time("cutoff", cutoff))
	}

	return total, nil
}

func (s *SweeperService) deleteBatch(ctx context.Context, cutoff time.Time) (int64, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	return s.repo.DeleteBatchOlderThan(ctx, cutoff, s.cfg.BatchSize)
}
