package routes

import (
	"net/http"

	"github.com/BradenHooton/loginlog/internal/auth"
	"github.com/BradenHooton/loginlog/internal/handlers"
	"github.com/BradenHooton/loginlog/internal/middleware"
	"github.com/BradenHooton/loginlog/internal/models"
	"github.com/go-chi/chi/v5"
)

// Handlers groups the HTTP handlers served by the router
type Handlers struct {
	Events   *handlers.EventHandler
	Attempts *handlers.AttemptHandler
	Settings *handlers.SettingsHandler
	Health   *handlers.HealthHandler
	Metrics  http.Handler
}

// AdminConfig holds the protections applied to the admin surface
type AdminConfig struct {
	RateLimit middleware.RateLimitConfig
	CORS      *middleware.CORSConfig
}

// RegisterRoutes registers all application routes
func RegisterRoutes(
	router chi.Router,
	h Handlers,
	tokenManager *auth.TokenManager,
	admin AdminConfig,
) {
	// Public routes - no authentication required
	router.Get("/health", h.Health.Health)
	if h.Metrics != nil {
		router.Handle("/metrics", h.Metrics)
	}

	// Event intake from the authentication host. Never rate limited: every
	// attempt must be recorded.
	router.Route("/events", func(r chi.Router) {
		r.Use(auth.AuthMiddleware(tokenManager, models.TokenTypeCollector))
		r.Post("/login-success", h.Events.LoginSuccess)
		r.Post("/login-failure", h.Events.LoginFailure)
	})

	// Admin-only routes
	router.Route("/admin", func(r chi.Router) {
		if admin.CORS != nil {
			r.Use(middleware.CORS(admin.CORS))
		}
		r.Use(middleware.RateLimitByIP(admin.RateLimit))
		r.Use(auth.AuthMiddleware(tokenManager, models.TokenTypeAdmin))

		r.Get("/login-attempts", h.Attempts.List)
		r.Get("/login-attempts/view", h.Attempts.View)
		r.Get("/settings/retention", h.Settings.Get)
		r.Put("/settings/retention", h.Settings.Update)
	})
}
