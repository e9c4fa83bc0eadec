package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/BradenHooton/loginlog/internal/database"
	"github.com/BradenHooton/loginlog/internal/metrics"
	"github.com/BradenHooton/loginlog/internal/models"
	pkglogger "github.com/BradenHooton/loginlog/pkg/logger"
	"github.com/BradenHooton/loginlog/pkg/sanitize"
	"github.com/google/uuid"
)

// RecorderConfig bounds each insert and controls retries of transient failures
type RecorderConfig struct {
	Timeout      time.Duration
	MaxRetries   int
	RetryBackoff time.Duration
}

// RecorderService turns authentication outcomes into stored attempt records
type RecorderService struct {
	repo    AttemptRepository
	cfg     RecorderConfig
	audit   *pkglogger.AuditLogger
	logger  *slog.Logger
	metrics *metrics.Registry

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// NewRecorderService creates a new RecorderService
func NewRecorderService(repo AttemptRepository, cfg RecorderConfig, audit *pkglogger.AuditLogger, logger *slog.Logger) *RecorderService {
	return &RecorderService{
		repo:    repo,
		cfg:     cfg,
		audit:   audit,
		logger:  logger,
		metrics: metrics.Get(),
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// OnLoginSuccess records a successful login
func (s *RecorderService) OnLoginSuccess(ctx context.Context, username, ipAddress, userAgent string) (int64, error) {
	return s.Record(ctx, username, models.AttemptStatusSuccess, ipAddress, userAgent)
}

// OnLoginFailure records a failed login. A nil username means none was entered.
func (s *RecorderService) OnLoginFailure(ctx context.Context, username *string, ipAddress, userAgent string) (int64, error) {
	name := ""
	if username != nil {
		name = *username
	}
	return s.Record(ctx, name, models.AttemptStatusFailed, ipAddress, userAgent)
}

// Record stores one attempt stamped with the server clock
func (s *RecorderService) Record(ctx context.Context, username string, status models.AttemptStatus, ipAddress, userAgent string) (int64, error) {
	return s.RecordEvent(ctx, models.AttemptEvent{
		Username:  username,
		Status:    status,
		IPAddress: ipAddress,
		UserAgent: userAgent,
	})
}

// RecordEvent stores one attempt. Replaying an event ID returns the ID of
// the original record without storing a second one.
func (s *RecorderService) RecordEvent(ctx context.Context, event models.AttemptEvent) (int64, error) {
	if !event.Status.Valid() {
		return 0, &ValidationError{Field: "status", Message: "status must be success or failed"}
	}

	attempt := &models.LoginAttempt{
		EventID:   event.EventID,
		Username:  sanitize.Username(event.Username),
		Status:    event.Status,
		IPAddress: sanitize.Text(event.IPAddress, sanitize.MaxIPAddressLength),
		UserAgent: sanitize.Text(event.UserAgent, 0),
		Time:      s.now().UTC().Truncate(time.Microsecond),
	}
	if attempt.EventID == uuid.Nil {
		attempt.EventID = uuid.New()
	}
	if attempt.Username == "" {
		attempt.Username = models.NoUsernameEntered
	}

	id, err := s.insert(ctx, attempt)
	s.metrics.RecordAttempt(string(attempt.Status), err)
	if err != nil {
		s.logger.ErrorContext(ctx, "failed to record login attempt",
			slog.String("event_id", attempt.EventID.String()),
			slog.String("status", string(attempt.Status)),
			slog.Any("error", err),
		)
		return 0, &StorageError{Op: "insert login attempt", Err: err}
	}

	s.audit.LogLoginAttempt(ctx, id, attempt.Username, string(attempt.Status), attempt.IPAddress)
	return id, nil
}

// insert retries transient failures with exponential backoff. Every try
// carries the same event ID, so a commit the caller never saw is not duplicated.
func (s *RecorderService) insert(ctx context.Context, attempt *models.LoginAttempt) (int64, error) {
	backoff := s.cfg.RetryBackoff
	for try := 0; ; try++ {
		id, err := s.insertOnce(ctx, attempt)
		if err == nil {
			return id, nil
		}
		if try >= s.cfg.MaxRetries || ctx.Err() != nil || !database.IsTransient(err) {
			return 0, err
		}

		s.metrics.RecordRetries.Inc()
		s.logger.WarnContext(ctx, "transient error recording login attempt, retrying",
			slog.Int("try", try+1),
			slog.Duration("backoff", backoff),
			slog.Any("error", err),
		)

		if sleepErr := s.sleep(ctx, backoff); sleepErr != nil {
			return 0, err
		}
		backoff *= 2
	}
}

func (s *RecorderService) insertOnce(ctx context.Context, attempt *models.LoginAttempt) (int64, error) {
	if s.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.Timeout)
		defer cancel()
	}
	return s.repo.Insert(ctx, attempt)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
