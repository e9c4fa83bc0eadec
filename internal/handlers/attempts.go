package handlers

import (
	"context"
	"embed"
	"html/template"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/BradenHooton/loginlog/internal/services"
	pkghttp "github.com/BradenHooton/loginlog/pkg/http"
)

//go:embed templates/attempts.html
var templatesFS embed.FS

var attemptsView = template.Must(template.ParseFS(templatesFS, "templates/attempts.html"))

// AttemptLister returns the most recent login attempts
type AttemptLister interface {
	ListRecent(ctx context.Context, limit int) ([]*models.LoginAttempt, error)
}

// AttemptHandler serves the administrator view of recorded attempts
type AttemptHandler struct {
	service AttemptLister
	logger  *slog.Logger
}

// NewAttemptHandler creates a new AttemptHandler
func NewAttemptHandler(service AttemptLister, logger *slog.Logger) *AttemptHandler {
	return &AttemptHandler{
		service: service,
		logger:  logger,
	}
}

// AttemptResponse represents a login attempt in the HTTP response
type AttemptResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Status    string `json:"status"`
	IPAddress string `json:"ip_address"`
	UserAgent string `json:"user_agent"`
	Time      string `json:"time"`
}

// ListAttemptsResponse represents a list of attempts, newest first
type ListAttemptsResponse struct {
	Attempts []*AttemptResponse `json:"attempts"`
	Count    int                `json:"count"`
}

func attemptModelToResponse(a *models.LoginAttempt) *AttemptResponse {
	return &AttemptResponse{
		ID:        a.ID,
		Username:  a.Username,
		Status:    string(a.Status),
		IPAddress: a.IPAddress,
		UserAgent: a.UserAgent,
		Time:      a.Time.UTC().Format(time.RFC3339Nano),
	}
}

// List handles GET /admin/login-attempts
func (h *AttemptHandler) List(w http.ResponseWriter, r *http.Request) {
	attempts, ok := h.load(w, r)
	if !ok {
		return
	}

	resp := ListAttemptsResponse{
		Attempts: make([]*AttemptResponse, 0, len(attempts)),
		Count:    len(attempts),
	}
	for _, a := range attempts {
		resp.Attempts = append(resp.Attempts, attemptModelToResponse(a))
	}

	pkghttp.WriteJSON(w, http.StatusOK, resp)
}

// View handles GET /admin/login-attempts/view. Every cell is escaped by
// html/template.
func (h *AttemptHandler) View(w http.ResponseWriter, r *http.Request) {
	attempts, ok := h.load(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := attemptsView.Execute(w, struct{ Attempts []*models.LoginAttempt }{attempts}); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to render attempts view", slog.Any("error", err))
	}
}

func (h *AttemptHandler) load(w http.ResponseWriter, r *http.Request) ([]*models.LoginAttempt, bool) {
	attempts, err := h.service.ListRecent(r.Context(), parseLimit(r.URL.Query().Get("limit")))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to list login attempts", slog.Any("error", err))
		pkghttp.WriteStorageUnavailable(w, "login attempts are unavailable")
		return nil, false
	}
	return attempts, true
}

// parseLimit accepts 1..MaxListLimit; anything else gives the default
func parseLimit(raw string) int {
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 || limit > services.MaxListLimit {
		return services.DefaultListLimit
	}
	return limit
}
