package middleware

import (
	"net/http"
	"time"

	pkghttp "github.com/BradenHooton/loginlog/pkg/http"
	"github.com/go-chi/httprate"
)

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int
	IPConfig          *pkghttp.IPConfig
}

// DefaultAdminRateLimit returns the default limit for the admin surface
func DefaultAdminRateLimit() RateLimitConfig {
	return RateLimitConfig{RequestsPerMinute: 60}
}

// RateLimitByIP limits requests per client IP. Forwarding headers count only
// when they come from a trusted proxy.
func RateLimitByIP(config RateLimitConfig) func(next http.Handler) http.Handler {
	limit := config.RequestsPerMinute
	if limit < 1 {
		limit = DefaultAdminRateLimit().RequestsPerMinute
	}

	return httprate.Limit(
		limit,
		time.Minute,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return pkghttp.ExtractClientIP(r, config.IPConfig), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			pkghttp.WriteTooManyRequests(w, "rate limit exceeded, try again later")
		}),
	)
}
