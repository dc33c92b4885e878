package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
)

func sessionID(r *http.Request) string { return chi.URLParam(r, "id") }

// CreateSession handles POST /api/sessions.
//
//	@Summary		Start a rendering session for a surface
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			body	body		SizeRequest	true	"Surface size"
//	@Success		201		{object}	SessionInfo
//	@Failure		400		{object}	errResponse
//	@Failure		409		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions [post]
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req SizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	info, err := h.sessions.Create(r.Context(), req.Width, req.Height)
	if err != nil {
		writeError(w, "create session", err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// ListSessions handles GET /api/sessions.
//
//	@Summary		List live sessions
//	@Tags			sessions
//	@Produce		json
//	@Success		200	{object}	SessionListResponse
//	@Security		BearerAuth
//	@Router			/sessions [get]
func (h *Handler) ListSessions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, SessionListResponse{Sessions: h.sessions.List()})
}

// GetSession handles GET /api/sessions/{id}.
//
//	@Summary		Get session state
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	SessionInfo
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [get]
func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.sessions.Get(sessionID(r))
	if err != nil {
		writeError(w, "get session", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// DeleteSession handles DELETE /api/sessions/{id}.
//
//	@Summary		Close a session
//	@Tags			sessions
//	@Param			id	path	string	true	"Session id"
//	@Success		204	"Session closed"
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id} [delete]
func (h *Handler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(sessionID(r)); err != nil {
		writeError(w, "delete session", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SessionEvents handles POST /api/sessions/{id}/events.
//
//	@Summary		Feed pointer events to a session
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string			true	"Session id"
//	@Param			body	body		EventsRequest	true	"Events in order"
//	@Success		200		{object}	EventsResponse
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/events [post]
func (h *Handler) SessionEvents(w http.ResponseWriter, r *http.Request) {
	var req EventsRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if len(req.Events) > maxEventsPerBatch {
		writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("at most %d events per batch", maxEventsPerBatch)))
		return
	}
	for i, ev := range req.Events {
		if !ev.Kind.Valid() {
			writeJSON(w, http.StatusBadRequest, errorBody(fmt.Sprintf("event %d: unknown kind %q", i, ev.Kind)))
			return
		}
	}
	fx, info, err := h.sessions.Events(sessionID(r), req.Events)
	if err != nil {
		writeError(w, "session events", err)
		return
	}
	writeJSON(w, http.StatusOK, EventsResponse{Effects: fx, Session: info})
}

// ResizeSession handles POST /api/sessions/{id}/resize.
//
//	@Summary		Change the surface size of a session
//	@Tags			sessions
//	@Accept			json
//	@Produce		json
//	@Param			id		path		string		true	"Session id"
//	@Param			body	body		SizeRequest	true	"Surface size"
//	@Success		200		{object}	SessionInfo
//	@Failure		400		{object}	errResponse
//	@Failure		404		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/resize [post]
func (h *Handler) ResizeSession(w http.ResponseWriter, r *http.Request) {
	var req SizeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	info, err := h.sessions.Resize(sessionID(r), req.Width, req.Height)
	if err != nil {
		writeError(w, "resize session", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// ResetSession handles POST /api/sessions/{id}/reset.
//
//	@Summary		Re-centre a session at scale 1
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	SessionInfo
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/reset [post]
func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.sessions.ResetView(sessionID(r))
	if err != nil {
		writeError(w, "reset session", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// RefreshSession handles POST /api/sessions/{id}/refresh.
//
//	@Summary		Reload the note snapshot of a session
//	@Tags			sessions
//	@Produce		json
//	@Param			id	path		string	true	"Session id"
//	@Success		200	{object}	SessionInfo
//	@Failure		404	{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/refresh [post]
func (h *Handler) RefreshSession(w http.ResponseWriter, r *http.Request) {
	info, err := h.sessions.Refresh(r.Context(), sessionID(r))
	if err != nil {
		writeError(w, "refresh session", err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// SessionFrame handles GET /api/sessions/{id}/frame.png.
//
//	@Summary		Current frame of a session as PNG
//	@Tags			sessions
//	@Produce		png
//	@Param			id				path	string	true	"Session id"
//	@Param			If-None-Match	header	string	false	"ETag of a cached frame"
//	@Success		200				"PNG image"
//	@Success		304				"Frame unchanged"
//	@Failure		404				{object}	errResponse
//	@Security		BearerAuth
//	@Router			/sessions/{id}/frame.png [get]
func (h *Handler) SessionFrame(w http.ResponseWriter, r *http.Request) {
	id := sessionID(r)
	data, etag, err := h.sessions.Frame(id)
	if err != nil {
		writeError(w, "session frame", err, slog.String("session", id))
		return
	}
	tag := quoteETag(etag)
	w.Header().Set("ETag", tag)
	w.Header().Set("Cache-Control", "no-cache")
	if r.Header.Get("If-None-Match") == tag {
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
