package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/yoloinfinity55/sparkpelican/internal/postservice"
	"github.com/yoloinfinity55/sparkpelican/internal/storage"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// gen may be nil when generation is not configured.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *postservice.Service, gen PostGenerator, store storage.Provider, notifier GenerationNotifier, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, gen, store, notifier)
	ih := NewImageHandler(store.Root())

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	// Generation.
	r.Post("/generate", h.Generate)

	// Front-matter tooling.
	r.Post("/validate", h.Validate)
	r.Get("/titles/issues", h.TitleIssues)
	r.Post("/titles/fix", h.FixTitles)

	// Posts.
	r.Get("/posts", h.ListPosts)
	r.Get("/posts/*", h.GetPost)
	r.Delete("/posts/*", h.DeletePost)

	// Search.
	r.Get("/search", h.Search)

	// Images upload (auth-protected).
	r.Post("/images", ih.Upload)

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
