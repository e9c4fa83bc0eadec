package services

import (
	"context"
	"log/slog"

	"github.com/BradenHooton/loginlog/internal/models"
	pkglogger "github.com/BradenHooton/loginlog/pkg/logger"
)

// ProvisioningService installs and uninstalls the attempt store and its settings
type ProvisioningService struct {
	store    AttemptStore
	settings SettingsStore
	audit    *pkglogger.AuditLogger
	logger   *slog.Logger
}

// NewProvisioningService creates a new ProvisioningService
func NewProvisioningService(store AttemptStore, settings SettingsStore, audit *pkglogger.AuditLogger, logger *slog.Logger) *ProvisioningService {
	return &ProvisioningService{
		store:    store,
		settings: settings,
		audit:    audit,
		logger:   logger,
	}
}

// Install creates the attempt store and writes default settings for any
// key not yet present. Running it again changes nothing.
func (s *ProvisioningService) Install(ctx context.Context) error {
	if err := s.store.CreateStore(ctx); err != nil {
		return &StorageError{Op: "create login attempt store", Err: err}
	}

	if err := s.settings.AddAll(ctx, settingsValues(models.DefaultRetentionSettings())); err != nil {
		return &StorageError{Op: "write default retention settings", Err: err}
	}

	s.audit.LogProvisioning(ctx, "install")
	return nil
}

// Uninstall drops the attempt store with every record in it and removes
// the retention settings.
func (s *ProvisioningService) Uninstall(ctx context.Context) error {
	if err := s.store.DropStore(ctx); err != nil {
		return &StorageError{Op: "drop login attempt store", Err: err}
	}

	if err := s.settings.Delete(ctx, models.SettingDeleteAfterDaysSwitch, models.SettingDeleteAfterDaysDays); err != nil {
		return &StorageError{Op: "delete retention settings", Err: err}
	}

	s.audit.LogProvisioning(ctx, "uninstall")
	return nil
}
