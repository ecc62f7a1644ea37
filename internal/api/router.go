package api

import (
	"github.com/go-chi/chi/v5"

	"github.com/marcus-grant/depo/internal/ingest"
	"github.com/marcus-grant/depo/internal/selector"
)

// RouterConfig carries the HTTP-facing knobs.
type RouterConfig struct {
	AuthEnabled  bool
	Token        string
	MaxBodyBytes int64
}

// NewRouter creates a chi router with all depo routes mounted. Uploads
// sit behind the (optional) bearer token; reads are public since codes
// are the access capability.
func NewRouter(orch *ingest.Orchestrator, sel *selector.Selector, cfg RouterConfig) chi.Router {
	h := NewHandler(orch, sel, cfg.MaxBodyBytes)

	r := chi.NewRouter()

	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))
		r.Post("/upload", h.Upload)
		r.Post("/", h.Upload)
	})

	r.Get("/{code}", h.Raw)
	r.Get("/{code}/info", h.Info)

	return r
}
