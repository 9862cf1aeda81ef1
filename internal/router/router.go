package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/lribeiro-dev/go-auth-api/internal/api/auth"
)

// Config contains dependencies needed for the router setup
type Config struct {
	AuthHandler            *auth.AuthHandler
	AuthenticateMiddleware func(http.Handler) http.Handler
}

// SetupRouter initializes and configures the main application router.
// Server-wide middleware (logger, requestID, recoverer) are expected to be
// applied before mounting this router in main.go.
func SetupRouter(cfg *Config) chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173", "http://localhost:3000"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Route("/api", func(r chi.Router) {
		// Public auth routes
		r.Group(func(r chi.Router) {
			r.Post("/auth/register", cfg.AuthHandler.Register)
			r.Post("/auth/login", cfg.AuthHandler.Login)
			r.Get("/auth/health", cfg.AuthHandler.Health)
		})

		// Protected routes
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthenticateMiddleware)
			r.Get("/auth/me", cfg.AuthHandler.Me)
		})
	})

	return r
}
