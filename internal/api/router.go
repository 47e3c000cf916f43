package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// buildRouter creates the HTTP router with all routes and middleware.
func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(s.requestIDMiddleware)
	r.Use(s.loggingMiddleware)
	r.Use(s.recoveryMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/site", s.handleGetSite)

		r.Route("/devices", func(r chi.Router) {
			r.Get("/", s.handleListDevices)
			r.Post("/", s.handleCreateDevice)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.handleGetDevice)
				r.Delete("/", s.handleDeleteDevice)
				r.Get("/recordings", s.handleListRecordings)
				r.Get("/files", s.handleListFiles)
			})
		})

		r.Post("/poll", s.handlePollNow)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"devices": s.registry.Count(),
	})
}

// handlePollNow requests an immediate collection cycle.
func (s *Server) handlePollNow(w http.ResponseWriter, _ *http.Request) {
	if s.poller == nil {
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "collector not running")
		return
	}
	s.poller.PollNow()
	writeJSON(w, http.StatusAccepted, map[string]any{"status": "scheduled"})
}
