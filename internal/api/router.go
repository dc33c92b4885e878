package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mindra/internal/noteservice"
	"github.com/starford/mindra/internal/session"
)

// NewRouter creates a chi router with all API routes mounted.
// authEnabled controls whether Bearer token auth is enforced.
// sessions, if non-nil, enables the rendering session endpoints.
// sseHandler, if non-nil, is mounted at GET /events inside the auth group.
func NewRouter(svc *noteservice.Service, sessions *session.Manager, authEnabled bool, token string, sseHandler http.Handler) chi.Router {
	h := NewHandler(svc, sessions)

	r := chi.NewRouter()
	r.Use(AuthMiddleware(authEnabled, token))

	r.Group(func(r chi.Router) {
		r.Use(Compress)

		// Notes CRUD.
		r.Get("/notes", h.ListNotes)
		r.Post("/notes", h.CreateNote)
		r.Delete("/notes", h.DeleteAllNotes)
		r.Get("/notes/{id}", h.GetNote)
		r.Put("/notes/{id}", h.UpdateNote)
		r.Delete("/notes/{id}", h.DeleteNote)
		r.Get("/notes/{id}/links", h.NoteLinks)
		r.Get("/notes/{id}/html", h.NoteHTML)

		r.Get("/search", h.Search)
		r.Post("/highlight", h.Highlight)
		r.Get("/graph", h.Graph)

		if sessions != nil {
			r.Post("/sessions", h.CreateSession)
			r.Get("/sessions", h.ListSessions)
			r.Get("/sessions/{id}", h.GetSession)
			r.Delete("/sessions/{id}", h.DeleteSession)
			r.Post("/sessions/{id}/events", h.SessionEvents)
			r.Post("/sessions/{id}/resize", h.ResizeSession)
			r.Post("/sessions/{id}/reset", h.ResetSession)
			r.Post("/sessions/{id}/refresh", h.RefreshSession)
		}
	})

	// PNG is already compressed.
	if sessions != nil {
		r.Get("/sessions/{id}/frame.png", h.SessionFrame)
	}

	// SSE endpoint (protected by same auth middleware).
	if sseHandler != nil {
		r.Get("/events", sseHandler.ServeHTTP)
	}

	return r
}
