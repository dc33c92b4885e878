package api

import (
	"time"

	"github.com/starford/mindra/internal/graph"
	"github.com/starford/mindra/internal/models"
	"github.com/starford/mindra/internal/noteservice"
	"github.com/starford/mindra/internal/parser"
	"github.com/starford/mindra/internal/session"
	"github.com/starford/mindra/internal/store"
)

const (
	maxBodyBytes      = 10 << 20
	maxEventsPerBatch = 1024
)

// NoteRequest is the request body for creating or updating a note.
type NoteRequest struct {
	Title    string `json:"title" example:"Hello" validate:"required"`
	Category string `json:"category" example:"ideas" validate:"required"`
	Content  string `json:"content" example:"See [[World]]" validate:"required"`
}

func (r NoteRequest) input() noteservice.Input {
	return noteservice.Input{Title: r.Title, Category: r.Category, Content: r.Content}
}

// NoteDetail is a note plus its current ETag.
type NoteDetail struct {
	ID         int64     `json:"id" example:"1" validate:"required"`
	Title      string    `json:"title" example:"Hello" validate:"required"`
	Category   string    `json:"category" example:"ideas" validate:"required"`
	Content    string    `json:"content" validate:"required"`
	Links      []string  `json:"links" validate:"required"`
	CreatedAt  time.Time `json:"created_at" validate:"required"`
	SourcePath string    `json:"source_path,omitempty" example:"ideas/hello.md"`
	ETag       string    `json:"etag" validate:"required"`
}

func noteDetail(n models.Note) NoteDetail {
	links := n.Links
	if links == nil {
		links = []string{}
	}
	return NoteDetail{
		ID:         n.ID,
		Title:      n.Title,
		Category:   n.Category,
		Content:    n.Content,
		Links:      links,
		CreatedAt:  n.CreatedAt,
		SourcePath: n.SourcePath,
		ETag:       noteservice.ETag(n),
	}
}

// NoteListItem is a lightweight item in a list response.
type NoteListItem struct {
	ID        int64     `json:"id" example:"1" validate:"required"`
	Title     string    `json:"title" example:"Hello" validate:"required"`
	Category  string    `json:"category" example:"ideas" validate:"required"`
	Preview   string    `json:"preview" example:"See [[World]]" validate:"required"`
	Links     []string  `json:"links" validate:"required"`
	CreatedAt time.Time `json:"created_at" validate:"required"`
}

// previewLen matches the list card preview length.
const previewLen = 100

func noteListItem(n models.Note) NoteListItem {
	links := n.Links
	if links == nil {
		links = []string{}
	}
	return NoteListItem{
		ID:        n.ID,
		Title:     n.Title,
		Category:  n.Category,
		Preview:   n.Preview(previewLen),
		Links:     links,
		CreatedAt: n.CreatedAt,
	}
}

// NoteListResponse wraps note listings.
type NoteListResponse struct {
	Notes []NoteListItem `json:"notes" validate:"required"`
	Total int            `json:"total" example:"42" validate:"required"`
}

// DeleteAllResponse reports how many notes were removed.
type DeleteAllResponse struct {
	Deleted int64 `json:"deleted" example:"3" validate:"required"`
}

// SearchResult is a single search hit in the API response.
type SearchResult = store.SearchResult

// SearchResponse wraps search results.
type SearchResponse struct {
	Results []SearchResult `json:"results" validate:"required"`
}

// LinksResponse is the link report of one note.
type LinksResponse = noteservice.LinkReport

// HighlightRequest carries editor text to scan for [[links]].
type HighlightRequest struct {
	Content string `json:"content" example:"See [[World]]"`
}

// HighlightResponse lists styled spans and the distinct link labels.
type HighlightResponse struct {
	Spans []parser.Span `json:"spans" validate:"required"`
	Links []string      `json:"links" validate:"required"`
}

// GraphNode is a node in the knowledge graph.
type GraphNode struct {
	ID       int64   `json:"id" example:"1" validate:"required"`
	Title    string  `json:"title" example:"Hello" validate:"required"`
	Category string  `json:"category" example:"ideas" validate:"required"`
	X        float64 `json:"x" validate:"required"`
	Y        float64 `json:"y" validate:"required"`
}

// GraphLink is an edge in the knowledge graph.
type GraphLink struct {
	Source int64  `json:"source" example:"1" validate:"required"`
	Target int64  `json:"target" example:"2" validate:"required"`
	Label  string `json:"label" example:"World" validate:"required"`
}

// GraphResponse wraps the knowledge graph.
type GraphResponse struct {
	Nodes    []GraphNode `json:"nodes" validate:"required"`
	Links    []GraphLink `json:"links" validate:"required"`
	Dangling []string    `json:"dangling" validate:"required"`
}

// SizeRequest is a surface size in pixels.
type SizeRequest struct {
	Width  int `json:"width" example:"1080" validate:"required"`
	Height int `json:"height" example:"1920" validate:"required"`
}

// SessionInfo is the state of one rendering session.
type SessionInfo = session.Info

// SessionListResponse wraps the live sessions.
type SessionListResponse struct {
	Sessions []SessionInfo `json:"sessions" validate:"required"`
}

// EventsRequest is a batch of pointer events applied in order.
type EventsRequest struct {
	Events []graph.Event `json:"events" validate:"required"`
}

// EventsResponse reports per-event effects and the resulting session state.
type EventsResponse struct {
	Effects []graph.Effects `json:"effects" validate:"required"`
	Session SessionInfo     `json:"session" validate:"required"`
}
