package routes

import (
	"net/http"
	"time"

	"github.com/clearrule/policy-control-plane/app"
	"github.com/clearrule/policy-control-plane/handlers"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoints
	r.Get("/healthz", handlers.HealthCheck(deps))
	r.Get("/readyz", handlers.ReadinessCheck(deps))

	versionHandler := handlers.NewVersionHandler(deps.VersionService, deps.Logger)
	executionHandler := handlers.NewExecutionHandler(deps.ExecutionService, deps.Logger)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Policy execution and reads
		r.Route("/policies", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/{id}/execute", executionHandler.HandleExecute)
			r.Get("/{id}/versions", versionHandler.HandleListVersions)
		})

		// Version lifecycle
		r.Route("/versions", func(r chi.Router) {
			r.Use(deps.AuthMiddleware.RequireAuth)
			r.Post("/", versionHandler.HandleCreateDraft)
			r.Post("/{id}/submit", versionHandler.HandleSubmit)
			r.Post("/{id}/approve", versionHandler.HandleApprove)
			r.Post("/{id}/reject", versionHandler.HandleReject)
			r.Post("/{id}/promote", versionHandler.HandlePromote)
			r.Post("/{id}/deprecate", versionHandler.HandleDeprecate)
			r.Post("/{id}/archive", versionHandler.HandleArchive)
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
