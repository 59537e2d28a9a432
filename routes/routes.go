package routes

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/visionassist/ai-gateway/app"
	"github.com/visionassist/ai-gateway/handlers"
	"github.com/visionassist/ai-gateway/middleware"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	var db *sql.DB
	if deps.DB != nil {
		db = deps.DB.DB
	}
	healthHandler := handlers.NewHealthHandler(db, deps.Logger)
	describeHandler := handlers.NewDescribeHandler(deps.Vision, deps.Config.Server.MaxImageBytes, deps.Logger)
	breakerHandler := handlers.NewBreakerHandler(deps.Registry, deps.Logger)

	// Health check endpoints
	r.Get("/health", healthHandler.HandleHealth)
	r.Get("/health/ready", healthHandler.HandleReadiness)

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		if deps.RateLimiter != nil {
			r.Use(deps.RateLimiter.Limit)
		}
		if deps.Config.Auth.Enabled {
			r.Use(deps.AuthMiddleware.RequireAuth)
		}

		r.Post("/describe", describeHandler.HandleDescribe)

		// Breaker state is operational surface
		r.Route("/breakers", func(r chi.Router) {
			if deps.Config.Auth.Enabled {
				r.Use(deps.AuthMiddleware.RequireRole("operator"))
			}
			r.Get("/", breakerHandler.HandleStates)
			r.Get("/{service}", breakerHandler.HandleState)
			r.Post("/{service}/reset", breakerHandler.HandleReset)
		})
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"endpoint not found"}`))
	})

	return r
}
