package api

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/starford/mindra/internal/models"
	"github.com/starford/mindra/internal/noteservice"
	"github.com/starford/mindra/internal/parser"
	"github.com/starford/mindra/internal/session"
)

// Handler holds API route handlers.
type Handler struct {
	svc      *noteservice.Service
	sessions *session.Manager
}

// NewHandler creates a new Handler. sessions may be nil when the rendering
// endpoints are not mounted.
func NewHandler(svc *noteservice.Service, sessions *session.Manager) *Handler {
	return &Handler{svc: svc, sessions: sessions}
}

// noteID parses the {id} URL parameter, writing a 400 when it is not a
// positive integer.
func noteID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid note id"))
		return 0, false
	}
	return id, true
}

func writeNote(w http.ResponseWriter, status int, n models.Note) {
	d := noteDetail(n)
	w.Header().Set("ETag", quoteETag(d.ETag))
	writeJSON(w, status, d)
}

// ListNotes handles GET /api/notes.
//
//	@Summary		List notes newest first, optionally filtered by category
//	@Tags			notes
//	@Produce		json
//	@Param			category	query		string	false	"Filter by category"
//	@Success		200			{object}	NoteListResponse
//	@Security		BearerAuth
//	@Router			/notes [get]
func (h *Handler) ListNotes(w http.ResponseWriter, r *http.Request) {
	var (
		notes []models.Note
		err   error
	)
	if category := strings.TrimSpace(r.URL.Query().Get("category")); category != "" {
		notes, err = h.svc.ListByCategory(r.Context(), category)
	} else {
		notes, err = h.svc.List(r.Context())
	}
	if err != nil {
		writeError(w, "list notes", err)
		return
	}
	items := make([]NoteListItem, 0, len(notes))
	for _, n := range notes {
		items = append(items, noteListItem(n))
	}
	writeJSON(w, http.StatusOK, NoteListResponse{Notes: items, Total: len(items)})
}

// GetNote handles GET /api/notes/{id}.
//
//	@Summary		Get a single note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	NoteDetail
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [get]
func (h *Handler) GetNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "get note", err, slog.Int64("id", id))
		return
	}
	writeNote(w, http.StatusOK, n)
}

// CreateNote handles POST /api/notes.
//
//	@Summary		Create a new note
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		NoteRequest	true	"Note to create"
//	@Success		201		{object}	NoteDetail
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes [post]
func (h *Handler) CreateNote(w http.ResponseWriter, r *http.Request) {
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.svc.Create(r.Context(), req.input())
	if err != nil {
		writeError(w, "create note", err, slog.String("title", req.Title))
		return
	}
	writeNote(w, http.StatusCreated, n)
}

// UpdateNote handles PUT /api/notes/{id}.
//
//	@Summary		Update a note with optimistic concurrency
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			id			path		int			true	"Note id"
//	@Param			If-Match	header		string		false	"ETag from a previous read"
//	@Param			body		body		NoteRequest	true	"Updated fields"
//	@Success		200			{object}	NoteDetail
//	@Failure		400			{object}	errResponse
//	@Failure		404			{object}	errResponse
//	@Failure		409			{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [put]
func (h *Handler) UpdateNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	var req NoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	// Strip surrounding quotes if present (standard ETag format).
	ifMatch := strings.Trim(r.Header.Get("If-Match"), `"`)

	n, err := h.svc.Update(r.Context(), id, req.input(), ifMatch)
	if err != nil {
		writeError(w, "update note", err, slog.Int64("id", id))
		return
	}
	writeNote(w, http.StatusOK, n)
}

// DeleteNote handles DELETE /api/notes/{id}.
//
//	@Summary		Delete a note
//	@Tags			notes
//	@Param			id	path	int	true	"Note id"
//	@Success		204	"Note deleted"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id} [delete]
func (h *Handler) DeleteNote(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		writeError(w, "delete note", err, slog.Int64("id", id))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteAllNotes handles DELETE /api/notes.
//
//	@Summary		Delete every note
//	@Tags			notes
//	@Produce		json
//	@Success		200	{object}	DeleteAllResponse
//	@Security		BearerAuth
//	@Router			/notes [delete]
func (h *Handler) DeleteAllNotes(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.DeleteAll(r.Context())
	if err != nil {
		writeError(w, "delete all notes", err)
		return
	}
	writeJSON(w, http.StatusOK, DeleteAllResponse{Deleted: n})
}

// NoteLinks handles GET /api/notes/{id}/links.
//
//	@Summary		Resolved outgoing links and backlinks of a note
//	@Tags			notes
//	@Produce		json
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{object}	LinksResponse
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/links [get]
func (h *Handler) NoteLinks(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	report, err := h.svc.Links(r.Context(), id)
	if err != nil {
		writeError(w, "note links", err, slog.Int64("id", id))
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// NoteHTML handles GET /api/notes/{id}/html.
//
//	@Summary		Render a note body to HTML
//	@Tags			notes
//	@Produce		html
//	@Param			id	path		int	true	"Note id"
//	@Success		200	{string}	string
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/notes/{id}/html [get]
func (h *Handler) NoteHTML(w http.ResponseWriter, r *http.Request) {
	id, ok := noteID(w, r)
	if !ok {
		return
	}
	n, err := h.svc.Get(r.Context(), id)
	if err != nil {
		writeError(w, "note html", err, slog.Int64("id", id))
		return
	}
	html, err := parser.RenderHTML(n.Content)
	if err != nil {
		writeError(w, "note html", err, slog.Int64("id", id))
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("ETag", quoteETag(noteservice.ETag(n)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(html))
}

// Search handles GET /api/search.
//
//	@Summary		Full-text search across notes
//	@Tags			search
//	@Produce		json
//	@Param			q		query		string	true	"Search query"
//	@Param			limit	query		int		false	"Max results"
//	@Success		200		{object}	SearchResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/search [get]
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	results, err := h.svc.Search(r.Context(), q, limit)
	if err != nil {
		writeError(w, "search", err, slog.String("query", q))
		return
	}
	if results == nil {
		results = []SearchResult{}
	}
	writeJSON(w, http.StatusOK, SearchResponse{Results: results})
}

// Highlight handles POST /api/highlight.
//
//	@Summary		Locate [[link]] markers in editor text
//	@Tags			notes
//	@Accept			json
//	@Produce		json
//	@Param			body	body		HighlightRequest	true	"Text to scan"
//	@Success		200		{object}	HighlightResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/highlight [post]
func (h *Handler) Highlight(w http.ResponseWriter, r *http.Request) {
	var req HighlightRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, HighlightResponse{
		Spans: parser.Highlight(req.Content),
		Links: parser.Links(req.Content),
	})
}
