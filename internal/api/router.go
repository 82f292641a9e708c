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
	r.Use(s.corsMiddleware)
	r.Use(s.bodySizeLimitMiddleware)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/metrics", s.handleMetrics)

		// Show data
		r.Route("/cuelists", func(r chi.Router) {
			r.Get("/", s.handleListCueLists)

			r.Route("/{list}", func(r chi.Router) {
				r.Get("/", s.handleGetCueList)
				r.Put("/", s.handlePutCueList)
				r.Delete("/", s.handleDeleteCueList)

				r.Route("/cues/{cue}", func(r chi.Router) {
					r.Get("/", s.handleGetCue)
					r.Put("/", s.handlePutCue)
					r.Delete("/", s.handleDeleteCue)
					r.Post("/go", s.handleGo)
				})
			})
		})

		// Playback
		r.Route("/running", func(r chi.Router) {
			r.Get("/", s.handleListRunning)
			r.Delete("/", s.handleReleaseAll)
			r.Delete("/{cue}", s.handleReleaseCue)
		})
		r.Get("/universe", s.handleGetUniverse)
		r.Get("/policy", s.handleGetPolicy)
		r.Put("/policy", s.handlePutPolicy)

		r.Get("/journal", s.handleListJournal)

		r.Get("/ws", s.handleWebSocket)
	})

	return r
}

// handleHealth returns the server health status.
func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"ticks":   s.engine.TickCount(),
	})
}
