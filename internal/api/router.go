/**
 * @description
 * This file sets up the HTTP router for the retention-service using the
 * go-chi/chi router. It defines the API routes, applies middleware for
 * logging, recovery, timeouts, and CORS, and maps the routes to their
 * corresponding handler functions.
 */
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new Chi router and registers the retention-service routes.
func NewRouter(h *Handler) *chi.Mux {
	r := chi.NewRouter()

	// Setup middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any major browsers
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Retention service is healthy"))
	})

	// Direct redemption endpoint used by the widget
	r.Post("/claim-offer", h.handleClaimOffer)

	// Retention flow state machine
	r.Route("/flows", func(r chi.Router) {
		r.Post("/", h.handleStartFlow)
		r.Get("/{flowID}", h.handleGetFlow)
		r.Post("/{flowID}/reason", h.handleSelectReason)
		r.Post("/{flowID}/claim", h.handleClaimFlow)
	})

	// Admin console
	r.Route("/admin", func(r chi.Router) {
		r.Get("/dashboard", h.handleGetDashboard)
		r.Put("/config", h.handleUpdateConfig)
	})

	return r
}
