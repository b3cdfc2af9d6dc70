package routers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"drawboard/internal/api"
	"drawboard/internal/metrics"
)

// New assembles the service routes around an already-wired coordinator.
// staticDir, when non-empty, serves the drawing client's assets from disk.
func New(h *api.Handlers, staticDir string) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
	}))
	r.Use(metrics.Middleware("drawboard"))

	r.Get("/api/v1/healthz", h.Health)
	r.Get("/api/v1/rooms/{room}", h.RoomStatus)

	r.Get("/ws", h.BoardWS)

	r.Handle("/metrics", metrics.Handler())

	if staticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(staticDir)))
	}

	return r
}
