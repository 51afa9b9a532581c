package web

import (
	"io/fs"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// NewRouter wires the handler into a chi router
func NewRouter(h *Handler, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Get("/", h.Index)
	r.Post("/", h.Submit)
	r.Delete("/delete_message/{id}", h.DeleteMessage)
	r.Get("/health", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Post("/classify", h.Classify)
		r.Get("/history", h.History)
	})

	static, err := fs.Sub(staticFS, "static")
	if err == nil {
		r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	}

	return r
}
