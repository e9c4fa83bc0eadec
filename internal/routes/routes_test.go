package routes

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/BradenHooton/loginlog/internal/auth"
	"github.com/BradenHooton/loginlog/internal/handlers"
	"github.com/BradenHooton/loginlog/internal/middleware"
	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/BradenHooton/loginlog/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRecorder struct{ calls int }

func (s *stubRecorder) RecordEvent(ctx context.Context, event models.AttemptEvent) (int64, error) {
	s.calls++
	return int64(s.calls), nil
}

type stubLister struct{}

func (stubLister) ListRecent(ctx context.Context, limit int) ([]*models.LoginAttempt, error) {
	return []*models.LoginAttempt{}, nil
}

type stubSettings struct{}

func (stubSettings) Load(ctx context.Context) (models.RetentionSettings, error) {
	return models.DefaultRetentionSettings(), nil
}

func (stubSettings) Update(ctx context.Context, actor string, input services.SettingsInput) (models.RetentionSettings, error) {
	return models.DefaultRetentionSettings(), nil
}

type stubHealth struct{}

func (stubHealth) HealthCheck(ctx context.Context) error { return nil }

func setupRouter(t *testing.T, perMinute int) (http.Handler, *auth.TokenManager, *stubRecorder) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tm := auth.NewTokenManager("routes-test-secret-0123456789abcdef", time.Hour)
	recorder := &stubRecorder{}

	router := chi.NewRouter()
	RegisterRoutes(router, Handlers{
		Events:   handlers.NewEventHandler(recorder, nil, logger),
		Attempts: handlers.NewAttemptHandler(stubLister{}, logger),
		Settings: handlers.NewSettingsHandler(stubSettings{}, logger),
		Health:   handlers.NewHealthHandler(stubHealth{}, "sqlite", logger),
		Metrics: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte("# metrics"))
		}),
	}, tm, AdminConfig{
		RateLimit: middleware.RateLimitConfig{RequestsPerMinute: perMinute},
		CORS:      middleware.DefaultCORSConfig([]string{"http://localhost:3000"}),
	})
	return router, tm, recorder
}

func token(t *testing.T, tm *auth.TokenManager, tokenType string) string {
	t.Helper()
	tok, err := tm.GenerateToken(tokenType, "routes-test")
	require.NoError(t, err)
	return "Bearer " + tok
}

func TestRoutes_PublicEndpoints(t *testing.T) {
	router, _, _ := setupRouter(t, 60)

	for _, path := range []string{"/health", "/metrics"} {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, w.Code, path)
	}
}

func TestRoutes_TokenTypes(t *testing.T) {
	router, tm, recorder := setupRouter(t, 60)
	admin := token(t, tm, models.TokenTypeAdmin)
	collector := token(t, tm, models.TokenTypeCollector)

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		auth   string
		want   int
	}{
		{"event without token", http.MethodPost, "/events/login-failure", `{}`, "", http.StatusUnauthorized},
		{"event with admin token", http.MethodPost, "/events/login-failure", `{}`, admin, http.StatusForbidden},
		{"event with collector token", http.MethodPost, "/events/login-failure", `{}`, collector, http.StatusCreated},
		{"success event", http.MethodPost, "/events/login-success", `{"username":"alice"}`, collector, http.StatusCreated},
		{"list without token", http.MethodGet, "/admin/login-attempts", "", "", http.StatusUnauthorized},
		{"list with collector token", http.MethodGet, "/admin/login-attempts", "", collector, http.StatusForbidden},
		{"list with admin token", http.MethodGet, "/admin/login-attempts", "", admin, http.StatusOK},
		{"view with admin token", http.MethodGet, "/admin/login-attempts/view", "", admin, http.StatusOK},
		{"settings get", http.MethodGet, "/admin/settings/retention", "", admin, http.StatusOK},
		{"settings put", http.MethodPut, "/admin/settings/retention", `{"enabled":true,"retain_days":"7"}`, admin, http.StatusOK},
		{"settings wrong method", http.MethodPost, "/admin/settings/retention", `{}`, admin, http.StatusMethodNotAllowed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			if tt.auth != "" {
				req.Header.Set("Authorization", tt.auth)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}

	assert.Equal(t, 2, recorder.calls)
}

func TestRoutes_AdminRateLimited(t *testing.T) {
	router, tm, _ := setupRouter(t, 2)
	admin := token(t, tm, models.TokenTypeAdmin)

	var codes []int
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/admin/login-attempts", nil)
		req.Header.Set("Authorization", admin)
		req.RemoteAddr = "192.0.2.10:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestRoutes_EventsNotRateLimited(t *testing.T) {
	router, tm, recorder := setupRouter(t, 1)
	collector := token(t, tm, models.TokenTypeCollector)

	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodPost, "/events/login-failure", strings.NewReader(`{}`))
		req.Header.Set("Authorization", collector)
		req.RemoteAddr = "192.0.2.10:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	assert.Equal(t, 5, recorder.calls)
}

func TestRoutes_AdminCORSPreflight(t *testing.T) {
	router, _, _ := setupRouter(t, 60)

	req := httptest.NewRequest(http.MethodOptions, "/admin/settings/retention", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPut)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
