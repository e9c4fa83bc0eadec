package http_test

import (
	"net/http/httptest"
	"strings"
	"testing"

	pkghttp "github.com/BradenHooton/loginlog/pkg/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractClientIP_DirectConnection_IgnoresHeaders(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "203.0.113.10:54321"
	req.Header.Set("X-Forwarded-For", "1.2.3.4, 5.6.7.8")
	req.Header.Set("X-Real-IP", "192.168.1.1")

	cfg, _ := pkghttp.NewIPConfig([]string{"10.0.0.0/8", "127.0.0.1/32"})

	assert.Equal(t, "203.0.113.10", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_TrustedProxy_UsesXForwardedFor(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "10.0.0.5:54321"
	req.Header.Set("X-Forwarded-For", "not-an-ip, 203.0.113.42, 10.0.0.5")

	cfg, _ := pkghttp.NewIPConfig([]string{"10.0.0.0/8"})

	assert.Equal(t, "203.0.113.42", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_TrustedProxy_FallsBackToXRealIP(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "[::1]:8080"
	req.Header.Set("X-Real-IP", "2001:db8::7")

	cfg, _ := pkghttp.NewIPConfig([]string{"::1/128"})

	assert.Equal(t, "2001:db8::7", pkghttp.ExtractClientIP(req, cfg))
}

func TestExtractClientIP_NoConfig_DefaultsSecurely(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "127.0.0.1:1234"
	req.Header.Set("X-Forwarded-For", "8.8.8.8")

	assert.Equal(t, "127.0.0.1", pkghttp.ExtractClientIP(req, nil))
}

func TestNewIPConfig_ReportsInvalidRanges(t *testing.T) {
	cfg, invalid := pkghttp.NewIPConfig([]string{"10.0.0.0/8", "nonsense", "300.0.0.0/8"})

	require.NotNil(t, cfg)
	assert.Equal(t, []string{"nonsense", "300.0.0.0/8"}, invalid)
}

func TestExtractClientIP_RemoteAddrWithoutPort(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "198.51.100.9"

	assert.Equal(t, "198.51.100.9", pkghttp.ExtractClientIP(req, nil))
}

func TestDecodeJSON(t *testing.T) {
	type body struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		payload string
		max     int64
		wantErr string
	}{
		{"valid", `{"name":"alice"}`, 0, ""},
		{"empty", ``, 0, "must not be empty"},
		{"unknown field", `{"name":"a","role":"admin"}`, 0, "invalid request body"},
		{"two objects", `{"name":"a"}{"name":"b"}`, 0, "single JSON object"},
		{"too large", `{"name":"` + strings.Repeat("x", 100) + `"}`, 32, "must not exceed 32 bytes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/", strings.NewReader(tt.payload))
			w := httptest.NewRecorder()

			var dst body
			err := pkghttp.DecodeJSON(w, req, &dst, tt.max)
			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "alice", dst.Name)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
