package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BradenHooton/loginlog/internal/auth"
	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/BradenHooton/loginlog/internal/services"
	pkghttp "github.com/BradenHooton/loginlog/pkg/http"
	"github.com/stretchr/testify/assert"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// NewTestRequest creates an HTTP request with JSON body for testing
func NewTestRequest(t *testing.T, method, url string, body interface{}) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}
	req := httptest.NewRequest(method, url, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

// WithAdminContext adds admin token claims to the request context
func WithAdminContext(req *http.Request, subject string) *http.Request {
	claims := &models.TokenClaims{Type: models.TokenTypeAdmin}
	claims.Subject = subject
	return req.WithContext(auth.WithClaims(req.Context(), claims))
}

// AssertJSONResponse checks that response has correct status and decodes JSON body
func AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, target interface{}) {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	if target != nil {
		err := json.Unmarshal(w.Body.Bytes(), target)
		assert.NoError(t, err, "Failed to decode response JSON")
	}
}

// AssertErrorResponse checks that response is a valid error response
func AssertErrorResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedError string) pkghttp.ErrorResponse {
	assert.Equal(t, expectedStatus, w.Code, "Response status mismatch")

	var resp pkghttp.ErrorResponse
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	assert.NoError(t, err, "Failed to decode error response")
	assert.Equal(t, expectedError, resp.Error, "Error code mismatch")
	assert.NotEmpty(t, resp.Message, "Error message should not be empty")
	return resp
}

func containsAll(s string, parts ...string) bool {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return false
		}
	}
	return true
}

// MockRecorder implements Recorder for testing
type MockRecorder struct {
	RecordEventFunc func(ctx context.Context, event models.AttemptEvent) (int64, error)
}

func (m *MockRecorder) RecordEvent(ctx context.Context, event models.AttemptEvent) (int64, error) {
	if m.RecordEventFunc == nil {
		return 1, nil
	}
	return m.RecordEventFunc(ctx, event)
}

// MockAttemptLister implements AttemptLister for testing
type MockAttemptLister struct {
	ListRecentFunc func(ctx context.Context, limit int) ([]*models.LoginAttempt, error)
}

func (m *MockAttemptLister) ListRecent(ctx context.Context, limit int) ([]*models.LoginAttempt, error) {
	if m.ListRecentFunc == nil {
		return []*models.LoginAttempt{}, nil
	}
	return m.ListRecentFunc(ctx, limit)
}

// MockSettingsService implements RetentionSettingsService for testing
type MockSettingsService struct {
	LoadFunc   func(ctx context.Context) (models.RetentionSettings, error)
	UpdateFunc func(ctx context.Context, actor string, input services.SettingsInput) (models.RetentionSettings, error)
}

func (m *MockSettingsService) Load(ctx context.Context) (models.RetentionSettings, error) {
	if m.LoadFunc == nil {
		return models.DefaultRetentionSettings(), nil
	}
	return m.LoadFunc(ctx)
}

func (m *MockSettingsService) Update(ctx context.Context, actor string, input services.SettingsInput) (models.RetentionSettings, error) {
	if m.UpdateFunc == nil {
		return models.DefaultRetentionSettings(), nil
	}
	return m.UpdateFunc(ctx, actor, input)
}

// MockHealthChecker implements HealthChecker for testing
type MockHealthChecker struct {
	Err error
}

func (m *MockHealthChecker) HealthCheck(ctx context.Context) error {
	return m.Err
}
