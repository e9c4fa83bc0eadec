package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/BradenHooton/loginlog/internal/services"
	pkghttp "github.com/BradenHooton/loginlog/pkg/http"
	"github.com/google/uuid"
)

// Recorder stores login attempts reported by the authentication host
type Recorder interface {
	RecordEvent(ctx context.Context, event models.AttemptEvent) (int64, error)
}

// EventHandler receives login outcome events
type EventHandler struct {
	recorder Recorder
	ipConfig *pkghttp.IPConfig
	logger   *slog.Logger
}

// NewEventHandler creates a new EventHandler
func NewEventHandler(recorder Recorder, ipConfig *pkghttp.IPConfig, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		recorder: recorder,
		ipConfig: ipConfig,
		logger:   logger,
	}
}

// maxEventBodyBytes is well above any real login event. Field lengths are
// not validated: the recorder truncates username and IP, and an oversized
// value must never keep an attempt out of the trail.
const maxEventBodyBytes = 1 << 20

// LoginEventRequest is a login outcome. When ip_address or user_agent are
// omitted, the values of the reporting request are used.
type LoginEventRequest struct {
	EventID   string  `json:"event_id" validate:"omitempty,uuid"`
	Username  *string `json:"username"`
	IPAddress string  `json:"ip_address"`
	UserAgent string  `json:"user_agent"`
}

// RecordedResponse carries the id of the stored attempt
type RecordedResponse struct {
	ID int64 `json:"id"`
}

// LoginSuccess handles POST /events/login-success
func (h *EventHandler) LoginSuccess(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, models.AttemptStatusSuccess)
}

// LoginFailure handles POST /events/login-failure
func (h *EventHandler) LoginFailure(w http.ResponseWriter, r *http.Request) {
	h.record(w, r, models.AttemptStatusFailed)
}

func (h *EventHandler) record(w http.ResponseWriter, r *http.Request, status models.AttemptStatus) {
	var req LoginEventRequest
	if err := pkghttp.DecodeJSON(w, r, &req, maxEventBodyBytes); err != nil {
		pkghttp.WriteBadRequest(w, err.Error())
		return
	}

	if err := ValidateRequest(&req); err != nil {
		writeFieldError(w, err)
		return
	}

	if status == models.AttemptStatusSuccess && (req.Username == nil || strings.TrimSpace(*req.Username) == "") {
		pkghttp.WriteValidationError(w, "username", "a successful login must name the user")
		return
	}

	event := models.AttemptEvent{
		Status:    status,
		IPAddress: req.IPAddress,
		UserAgent: req.UserAgent,
	}
	if req.Username != nil {
		event.Username = *req.Username
	}
	if req.EventID != "" {
		event.EventID = uuid.MustParse(req.EventID)
	}
	if event.IPAddress == "" {
		event.IPAddress = pkghttp.ExtractClientIP(r, h.ipConfig)
	}
	if event.UserAgent == "" {
		event.UserAgent = r.UserAgent()
	}

	id, err := h.recorder.RecordEvent(r.Context(), event)
	if err != nil {
		var verr *services.ValidationError
		if errors.As(err, &verr) {
			pkghttp.WriteValidationError(w, verr.Field, verr.Message)
			return
		}
		h.logger.WarnContext(r.Context(), "login event not recorded",
			slog.String("status", string(status)),
			slog.Any("error", err),
		)
		pkghttp.WriteStorageUnavailable(w, "login attempt could not be recorded")
		return
	}

	pkghttp.WriteJSON(w, http.StatusCreated, RecordedResponse{ID: id})
}

// writeFieldError reports a request validation failure
func writeFieldError(w http.ResponseWriter, err error) {
	var fe *FieldError
	if errors.As(err, &fe) {
		pkghttp.WriteValidationError(w, fe.Field, fe.Message)
		return
	}
	pkghttp.WriteBadRequest(w, err.Error())
}
