package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/BradenHooton/loginlog/internal/models"
	pkglogger "github.com/BradenHooton/loginlog/pkg/logger"
)

// SettingsInput is the raw retention form as submitted by an administrator
type SettingsInput struct {
	Enabled    string
	RetainDays string
}

// SettingsService loads, validates and stores the retention settings
type SettingsService struct {
	store   SettingsStore
	audit   *pkglogger.AuditLogger
	logger  *slog.Logger
	timeout time.Duration
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(store SettingsStore, audit *pkglogger.AuditLogger, logger *slog.Logger, timeout time.Duration) *SettingsService {
	return &SettingsService{
		store:   store,
		audit:   audit,
		logger:  logger,
		timeout: timeout,
	}
}

// Load reads the stored settings. Missing or unparsable values fall back
// to the defaults.
func (s *SettingsService) Load(ctx context.Context) (models.RetentionSettings, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	settings := models.DefaultRetentionSettings()

	enabled, err := s.store.Get(ctx, models.SettingDeleteAfterDaysSwitch)
	switch {
	case err == nil:
		settings.Enabled = ParseSwitch(enabled)
	case !errors.Is(err, models.ErrNotFound):
		return models.DefaultRetentionSettings(), &StorageError{Op: "load retention settings", Err: err}
	}

	days, err := s.store.Get(ctx, models.SettingDeleteAfterDaysDays)
	switch {
	case err == nil:
		if n, err := ValidateRetainDays(days, models.DefaultRetainDays); err == nil {
			settings.RetainDays = n
		} else {
			s.logger.WarnContext(ctx, "ignoring invalid stored retention days", slog.String("value", days))
		}
	case !errors.Is(err, models.ErrNotFound):
		return models.DefaultRetentionSettings(), &StorageError{Op: "load retention settings", Err: err}
	}

	return settings, nil
}

// Update validates input and stores both settings atomically. On a
// validation error nothing is written and the stored settings are returned.
func (s *SettingsService) Update(ctx context.Context, actor string, input SettingsInput) (models.RetentionSettings, error) {
	current, err := s.Load(ctx)
	if err != nil {
		return current, err
	}

	days, err := ValidateRetainDays(input.RetainDays, current.RetainDays)
	if err != nil {
		return current, err
	}

	updated := models.RetentionSettings{
		Enabled:    ParseSwitch(input.Enabled),
		RetainDays: days,
	}

	writeCtx, cancel := s.withTimeout(ctx)
	defer cancel()

	if err := s.store.SetAll(writeCtx, settingsValues(updated)); err != nil {
		return current, &StorageError{Op: "store retention settings", Err: err}
	}

	s.audit.LogSettingsChange(ctx, actor, updated.Enabled, updated.RetainDays)
	return updated, nil
}

// ValidateRetainDays accepts a decimal integer of at least 1. On rejection
// it returns previous along with a *ValidationError.
func ValidateRetainDays(input string, previous int) (int, error) {
	value := strings.TrimSpace(input)

	if value == "" {
		return previous, &ValidationError{Field: "retain_days", Message: "Number of days is required."}
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return previous, &ValidationError{Field: "retain_days", Message: "Number of days must be a whole number."}
		}
	}

	days, err := strconv.Atoi(value)
	if err != nil {
		return previous, &ValidationError{Field: "retain_days", Message: "Number of days is too large."}
	}
	if days < 1 {
		return previous, &ValidationError{Field: "retain_days", Message: "Number of days must be at least 1."}
	}

	return days, nil
}

// ParseSwitch normalizes a checkbox or toggle value. Unknown values are off.
func ParseSwitch(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "1", "true", "on", "yes", "y", "t":
		return true
	}
	return false
}

func settingsValues(settings models.RetentionSettings) map[string]string {
	enabled := "0"
	if settings.Enabled {
		enabled = "1"
	}
	return map[string]string{
		models.SettingDeleteAfterDaysSwitch: enabled,
		models.SettingDeleteAfterDaysDays:   fmt.Sprintf("%d", settings.RetainDays),
	}
}

func (s *SettingsService) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout > 0 {
		return context.WithTimeout(ctx, s.timeout)
	}
	return ctx, func() {}
}
