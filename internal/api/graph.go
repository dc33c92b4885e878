package api

import (
	"net/http"
	"strconv"

	"github.com/starford/mindra/internal/graph"
)

// Graph handles GET /api/graph.
//
//	@Summary		Lay out the note graph without a session
//	@Tags			graph
//	@Produce		json
//	@Param			seed	query		int	false	"Jitter seed for a reproducible layout"
//	@Success		200		{object}	GraphResponse
//	@Failure		400		{object}	errResponse
//	@Security		BearerAuth
//	@Router			/graph [get]
func (h *Handler) Graph(w http.ResponseWriter, r *http.Request) {
	var rnd graph.Rand
	if s := r.URL.Query().Get("seed"); s != "" {
		seed, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorBody("seed must be a non-negative integer"))
			return
		}
		rnd = graph.NewRand(seed)
	}

	notes, err := h.svc.ListAll(r.Context())
	if err != nil {
		writeError(w, "graph", err)
		return
	}

	positions := graph.Layout(notes, rnd)
	titles := graph.BuildTitleIndex(notes)
	edges := graph.ResolveEdges(notes, titles, len(positions))

	resp := GraphResponse{
		Nodes:    make([]GraphNode, 0, len(positions)),
		Links:    make([]GraphLink, 0, len(edges)),
		Dangling: graph.Dangling(graph.BuildLinkIndex(notes), titles),
	}
	for _, p := range positions {
		resp.Nodes = append(resp.Nodes, GraphNode{
			ID:       p.Note.ID,
			Title:    p.Note.Title,
			Category: p.Note.Category,
			X:        p.X,
			Y:        p.Y,
		})
	}
	for _, e := range edges {
		resp.Links = append(resp.Links, GraphLink{
			Source: notes[e.From].ID,
			Target: notes[e.To].ID,
			Label:  e.Label,
		})
	}
	if resp.Dangling == nil {
		resp.Dangling = []string{}
	}
	writeJSON(w, http.StatusOK, resp)
}
