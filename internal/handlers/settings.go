package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/BradenHooton/loginlog/internal/auth"
	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/BradenHooton/loginlog/internal/services"
	pkghttp "github.com/BradenHooton/loginlog/pkg/http"
)

// RetentionSettingsService loads and updates the retention settings
type RetentionSettingsService interface {
	Load(ctx context.Context) (models.RetentionSettings, error)
	Update(ctx context.Context, actor string, input services.SettingsInput) (models.RetentionSettings, error)
}

// SettingsHandler serves the retention settings form
type SettingsHandler struct {
	service RetentionSettingsService
	logger  *slog.Logger
}

// NewSettingsHandler creates a new SettingsHandler
func NewSettingsHandler(service RetentionSettingsService, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{
		service: service,
		logger:  logger,
	}
}

// formValue holds a form field as text. JSON booleans become "1" or "0",
// numbers keep their literal text, so validation sees what was sent.
type formValue string

func (v *formValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*v = ""
	case bytes.Equal(data, []byte("true")):
		*v = "1"
	case bytes.Equal(data, []byte("false")):
		*v = "0"
	case len(data) > 0 && data[0] == '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = formValue(s)
	case len(data) > 0 && (data[0] == '-' || (data[0] >= '0' && data[0] <= '9')):
		*v = formValue(data)
	default:
		return fmt.Errorf("expected a string, number or boolean")
	}
	return nil
}

// UpdateRetentionRequest is the retention settings form
type UpdateRetentionRequest struct {
	Enabled    formValue `json:"enabled"`
	RetainDays formValue `json:"retain_days"`
}

// Get handles GET /admin/settings/retention
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.Load(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to load retention settings", slog.Any("error", err))
		pkghttp.WriteStorageUnavailable(w, "retention settings are unavailable")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, settings)
}

// Update handles PUT /admin/settings/retention
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateRetentionRequest
	if err := pkghttp.DecodeJSON(w, r, &req, pkghttp.DefaultMaxBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	actor := "unknown"
	if claims := auth.GetClaimsFromContext(r); claims != nil && claims.Subject != "" {
		actor = claims.Subject
	}

	settings, err := h.service.Update(r.Context(), actor, services.SettingsInput{
		Enabled:    string(req.Enabled),
		RetainDays: string(req.RetainDays),
	})
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			pkghttp.WriteValidationError(w, verr.Field, verr.Message)
			return
		}
		h.logger.ErrorContext(r.Context(), "failed to update retention settings", slog.Any("error", err))
		pkghttp.WriteStorageUnavailable(w, "retention settings could not be saved")
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, settings)
}
