// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes mindra tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/mindra/internal/apperr"
	"github.com/starford/mindra/internal/canvas"
	"github.com/starford/mindra/internal/graph"
	"github.com/starford/mindra/internal/models"
	"github.com/starford/mindra/internal/noteservice"
)

const (
	formatURI         = "mindra://note-format"
	defaultRenderSide = 1024
	maxRenderSide     = 4096
)

// RenderOptions styles the images produced by render_graph. A zero
// FontSize uses canvas.DefaultFontSize.
type RenderOptions struct {
	FontSize float64
	Engine   graph.Options
}

// Server wraps the MCP server with mindra tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *noteservice.Service
	render RenderOptions
}

// New creates a new MCP server with all mindra tools registered.
func New(svc *noteservice.Service, render RenderOptions) *Server {
	s := &Server{svc: svc, render: render}

	s.mcp = server.NewMCPServer(
		"Mindra",
		"1.0.0",
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("list_notes",
		mcp.WithDescription("List notes newest first, optionally only one category."),
		mcp.WithString("category", mcp.Description("Optional category to list (empty for all)")),
	), s.listNotes)

	s.mcp.AddTool(mcp.NewTool("read_note",
		mcp.WithDescription("Read one note with its content, links and etag."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.readNote)

	s.mcp.AddTool(mcp.NewTool("create_note",
		mcp.WithDescription("Create a note. Link other notes with [[Exact title]]. "+
			"Read the contract first via the get_note_contract tool or the "+formatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title, 1-200 characters")),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category, 1-100 characters")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body")),
	), s.createNote)

	s.mcp.AddTool(mcp.NewTool("update_note",
		mcp.WithDescription("Replace the title, category and content of a note. "+
			"Pass the etag from read_note to reject the update if the note changed meanwhile."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
		mcp.WithString("title", mcp.Required(), mcp.Description("Note title, 1-200 characters")),
		mcp.WithString("category", mcp.Required(), mcp.Description("Category, 1-100 characters")),
		mcp.WithString("content", mcp.Required(), mcp.Description("Note body")),
		mcp.WithString("etag", mcp.Description("Optional etag for optimistic concurrency")),
	), s.updateNote)

	s.mcp.AddTool(mcp.NewTool("delete_note",
		mcp.WithDescription("Delete a note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.deleteNote)

	s.mcp.AddTool(mcp.NewTool("get_links",
		mcp.WithDescription("Resolved outgoing links (with dangling labels) and backlinks of a note."),
		mcp.WithNumber("id", mcp.Required(), mcp.Description("Note id")),
	), s.getLinks)

	s.mcp.AddTool(mcp.NewTool("search_notes",
		mcp.WithDescription("Full-text search through note titles, categories and content."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
	), s.searchNotes)

	s.mcp.AddTool(mcp.NewTool("render_graph",
		mcp.WithDescription("Render the note graph as a PNG image."),
		mcp.WithNumber("width", mcp.Description("Image width in pixels (default 1024)")),
		mcp.WithNumber("height", mcp.Description("Image height in pixels (default 1024)")),
		mcp.WithNumber("seed", mcp.Description("Layout seed for a reproducible image")),
	), s.renderGraph)

	s.mcp.AddTool(mcp.NewTool("get_note_contract",
		mcp.WithDescription("Returns the mindra note format contract. "+
			"Call this before creating or updating notes to ensure correct structure."),
	), s.getNoteContract)

	// Resource: note format contract.
	s.mcp.AddResource(
		mcp.NewResource(formatURI, "Note Format Contract",
			mcp.WithResourceDescription("Fields, limits and link syntax of mindra notes."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readNoteFormatResource,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

type noteSummary struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

type noteView struct {
	models.Note
	ETag string `json:"etag"`
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

// errorResult turns service errors into tool errors the model can act on.
func errorResult(err error, id int64) *mcp.CallToolResult {
	switch {
	case errors.Is(err, apperr.ErrNotFound):
		return mcp.NewToolResultError(fmt.Sprintf("not found: %d", id))
	case errors.Is(err, apperr.ErrConflict):
		return mcp.NewToolResultError(fmt.Sprintf("note %d changed since it was read; read it again", id))
	default:
		return mcp.NewToolResultError(err.Error())
	}
}

func requireID(req mcp.CallToolRequest) (int64, error) {
	id, err := req.RequireInt("id")
	if err != nil {
		return 0, err
	}
	if id <= 0 {
		return 0, fmt.Errorf("id must be positive, got %d", id)
	}
	return int64(id), nil
}

func requireInput(req mcp.CallToolRequest) (noteservice.Input, error) {
	var in noteservice.Input
	var err error
	if in.Title, err = req.RequireString("title"); err != nil {
		return in, err
	}
	if in.Category, err = req.RequireString("category"); err != nil {
		return in, err
	}
	if in.Content, err = req.RequireString("content"); err != nil {
		return in, err
	}
	return in, nil
}

func (s *Server) listNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var (
		notes []models.Note
		err   error
	)
	if c, cErr := req.RequireString("category"); cErr == nil && c != "" {
		notes, err = s.svc.ListByCategory(ctx, c)
	} else {
		notes, err = s.svc.List(ctx)
	}
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out := make([]noteSummary, 0, len(notes))
	for _, n := range notes {
		out = append(out, noteSummary{ID: n.ID, Title: n.Title, Category: n.Category})
	}
	return jsonResult(out), nil
}

func (s *Server) readNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Get(ctx, id)
	if err != nil {
		return errorResult(err, id), nil
	}
	return jsonResult(noteView{Note: n, ETag: noteservice.ETag(n)}), nil
}

func (s *Server) createNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := requireInput(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	n, err := s.svc.Create(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("created: %d", n.ID)), nil
}

func (s *Server) updateNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	in, err := requireInput(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	etag := ""
	if v, eErr := req.RequireString("etag"); eErr == nil {
		etag = v
	}
	if _, err := s.svc.Update(ctx, id, in, etag); err != nil {
		return errorResult(err, id), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("updated: %d", id)), nil
}

func (s *Server) deleteNote(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := s.svc.Delete(ctx, id); err != nil {
		return errorResult(err, id), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("deleted: %d", id)), nil
}

func (s *Server) getLinks(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireID(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	report, err := s.svc.Links(ctx, id)
	if err != nil {
		return errorResult(err, id), nil
	}
	return jsonResult(report), nil
}

func (s *Server) searchNotes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	results, err := s.svc.Search(ctx, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) renderGraph(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	w, h := defaultRenderSide, defaultRenderSide
	if v, err := req.RequireInt("width"); err == nil {
		w = v
	}
	if v, err := req.RequireInt("height"); err == nil {
		h = v
	}
	if w <= 0 || h <= 0 || w > maxRenderSide || h > maxRenderSide {
		return mcp.NewToolResultError(fmt.Sprintf("image size %dx%d outside 1..%d", w, h, maxRenderSide)), nil
	}
	opts := s.render.Engine
	if seed, err := req.RequireInt("seed"); err == nil && seed >= 0 {
		opts.Rand = graph.NewRand(uint64(seed))
	}

	notes, err := s.svc.ListAll(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	fontSize := s.render.FontSize
	if fontSize <= 0 {
		fontSize = canvas.DefaultFontSize
	}
	data, err := canvas.Snapshot(notes, w, h, fontSize, opts)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultImage(
		fmt.Sprintf("%d notes, %dx%d", len(notes), w, h),
		base64.StdEncoding.EncodeToString(data),
		"image/png",
	), nil
}

func (s *Server) getNoteContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(NoteFormatContract), nil
}

func (s *Server) readNoteFormatResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      formatURI,
			MIMEType: "text/markdown",
			Text:     NoteFormatContract,
		},
	}, nil
}
