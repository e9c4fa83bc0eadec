package background

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/robfig/cron/v3"
)

// SettingsLoader reads the stored retention settings
type SettingsLoader interface {
	Load(ctx context.Context) (models.RetentionSettings, error)
}

// Sweeper deletes expired login attempts
type Sweeper interface {
	Sweep(ctx context.Context, settings models.RetentionSettings) (int64, error)
}

// RetentionScheduler runs the retention sweep on a cron schedule, in
// addition to the sweep that precedes every listing
type RetentionScheduler struct {
	settings SettingsLoader
	sweeper  Sweeper
	logger   *slog.Logger
	timeout  time.Duration
	cron     *cron.Cron

	mu     sync.Mutex
	ctx    context.Context
	cancel context.CancelFunc
}

// NewRetentionScheduler creates a scheduler for the given cron spec, e.g.
// "@hourly" or "*/15 * * * *", evaluated in loc
func NewRetentionScheduler(
	settings SettingsLoader,
	sweeper Sweeper,
	schedule string,
	loc *time.Location,
	timeout time.Duration,
	logger *slog.Logger,
) (*RetentionScheduler, error) {
	if loc == nil {
		loc = time.UTC
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	rs := &RetentionScheduler{
		settings: settings,
		sweeper:  sweeper,
		logger:   logger,
		timeout:  timeout,
	}
	rs.cron = cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cronLogger{logger})),
	)

	if _, err := rs.cron.AddFunc(schedule, rs.run); err != nil {
		return nil, fmt.Errorf("invalid retention schedule %q: %w", schedule, err)
	}
	return rs, nil
}

// Start runs one sweep immediately and then hands over to the cron schedule.
// Scheduled sweeps stop when ctx is cancelled or Stop is called.
func (rs *RetentionScheduler) Start(ctx context.Context) {
	rs.mu.Lock()
	rs.ctx, rs.cancel = context.WithCancel(ctx)
	rs.mu.Unlock()

	rs.RunOnce(rs.ctx)
	rs.cron.Start()
	rs.logger.Info("retention scheduler started", slog.Time("next_run", rs.nextRun()))
}

// Stop halts the schedule and waits for a running sweep to finish
func (rs *RetentionScheduler) Stop() {
	done := rs.cron.Stop()

	rs.mu.Lock()
	if rs.cancel != nil {
		rs.cancel()
	}
	rs.mu.Unlock()

	<-done.Done()
	rs.logger.Info("retention scheduler stopped")
}

// RunOnce loads the current settings and sweeps once. Errors are logged.
func (rs *RetentionScheduler) RunOnce(ctx context.Context) {
	sweepCtx, cancel := context.WithTimeout(ctx, rs.timeout)
	defer cancel()

	settings, err := rs.settings.Load(sweepCtx)
	if err != nil {
		rs.logger.Error("failed to load retention settings for scheduled sweep", slog.Any("error", err))
		return
	}
	if !settings.Enabled {
		rs.logger.Debug("retention disabled, scheduled sweep skipped")
		return
	}

	deleted, err := rs.sweeper.Sweep(sweepCtx, settings)
	if err != nil {
		rs.logger.Error("scheduled retention sweep failed", slog.Any("error", err))
		return
	}

	if deleted > 0 {
		rs.logger.Info("scheduled retention sweep completed",
			slog.Int64("rows_deleted", deleted),
			slog.Int("retain_days", settings.RetainDays),
		)
	}
}

func (rs *RetentionScheduler) run() {
	rs.mu.Lock()
	ctx := rs.ctx
	rs.mu.Unlock()
	if ctx == nil {
		ctx = context.Background()
	}
	if ctx.Err() != nil {
		return
	}
	rs.RunOnce(ctx)
}

func (rs *RetentionScheduler) nextRun() time.Time {
	entries := rs.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// cronLogger adapts slog to the cron.Logger interface
type cronLogger struct {
	logger *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
