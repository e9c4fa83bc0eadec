package handlers

import (
	"context"
	"log/slog"
	"net/http"

	pkghttp "github.com/BradenHooton/loginlog/pkg/http"
)

// HealthChecker pings the backing store
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler reports whether storage is reachable
type HealthHandler struct {
	checker HealthChecker
	driver  string
	logger  *slog.Logger
}

// NewHealthHandler creates a new HealthHandler
func NewHealthHandler(checker HealthChecker, driver string, logger *slog.Logger) *HealthHandler {
	return &HealthHandler{
		checker: checker,
		driver:  driver,
		logger:  logger,
	}
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Driver   string `json:"driver"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.checker.HealthCheck(r.Context()); err != nil {
		h.logger.WarnContext(r.Context(), "health check failed", slog.Any("error", err))
		pkghttp.WriteJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "degraded",
			Database: "unreachable",
			Driver:   h.driver,
		})
		return
	}

	pkghttp.WriteJSON(w, http.StatusOK, HealthResponse{
		Status:   "ok",
		Database: "connected",
		Driver:   h.driver,
	})
}
