package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/poc-rear/wotd-api/app"
	"github.com/poc-rear/wotd-api/internal/observability"
	"github.com/poc-rear/wotd-api/utils"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	// Cookie auth needs credentialed CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Route("/health", func(r chi.Router) {
		r.Get("/liveness", deps.HealthHandler.HandleLiveness)
		r.Get("/readiness", deps.HealthHandler.HandleReadiness)
	})

	r.Get("/.well-known/jwks.json", deps.AuthHandler.HandleJWKS)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", deps.AuthHandler.HandleLogin)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Get("/", deps.AuthHandler.HandleMe)
			r.Get("/logout", deps.AuthHandler.HandleLogout)
		})
	})

	r.Route("/api", func(r chi.Router) {
		// Registration is the only public API route
		r.Post("/users", deps.UserHandler.HandleCreate)

		r.Group(func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)

			r.Get("/users/{username}", deps.UserHandler.HandleGet)

			r.Route("/words", func(r chi.Router) {
				r.Get("/", deps.WordHandler.HandleList)
				r.Post("/", deps.WordHandler.HandleCreate)
				r.Get("/{word}", deps.WordHandler.HandleGet)
			})

			r.Route("/wotd", func(r chi.Router) {
				r.Get("/", deps.WordHandler.HandleCurrent)
				r.Post("/", deps.WordHandler.HandleSuggest)
				r.Put("/", deps.WordHandler.HandleAdvance)
			})
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
