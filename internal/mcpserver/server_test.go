package mcpserver

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/starford/mindra/internal/graph"
	"github.com/starford/mindra/internal/noteservice"
	"github.com/starford/mindra/internal/testutil"
)

func testServer(t *testing.T) (*Server, *noteservice.Service) {
	t.Helper()
	svc := noteservice.New(testutil.TestDB(t))
	return New(svc, RenderOptions{}), svc
}

func callTool(t *testing.T, srv *Server, name string, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	ctx := context.Background()
	req := mcp.CallToolRequest{}
	req.Method = "tools/call"
	req.Params.Name = name
	req.Params.Arguments = args

	// mcp-go has no direct "call tool" test helper, so dispatch to the
	// handler functions.
	var result *mcp.CallToolResult
	var err error

	switch name {
	case "list_notes":
		result, err = srv.listNotes(ctx, req)
	case "read_note":
		result, err = srv.readNote(ctx, req)
	case "create_note":
		result, err = srv.createNote(ctx, req)
	case "update_note":
		result, err = srv.updateNote(ctx, req)
	case "delete_note":
		result, err = srv.deleteNote(ctx, req)
	case "get_links":
		result, err = srv.getLinks(ctx, req)
	case "search_notes":
		result, err = srv.searchNotes(ctx, req)
	case "render_graph":
		result, err = srv.renderGraph(ctx, req)
	case "get_note_contract":
		result, err = srv.getNoteContract(ctx, req)
	default:
		t.Fatalf("unknown tool: %s", name)
	}

	if err != nil {
		t.Fatalf("tool %s error: %v", name, err)
	}
	return result
}

func resultText(r *mcp.CallToolResult) string {
	if len(r.Content) > 0 {
		if tc, ok := r.Content[0].(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

func create(t *testing.T, srv *Server, title, category, content string) {
	t.Helper()
	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title": title, "category": category, "content": content,
	})
	if r.IsError {
		t.Fatalf("create %q: %s", title, resultText(r))
	}
}

func TestCreateAndReadNote(t *testing.T) {
	srv, _ := testServer(t)

	r := callTool(t, srv, "create_note", map[string]interface{}{
		"title":    "Test",
		"category": "work",
		"content":  "Hello [[World]]",
	})
	if text := resultText(r); text != "created: 1" {
		t.Errorf("create result = %q", text)
	}

	r = callTool(t, srv, "read_note", map[string]interface{}{"id": float64(1)})
	var got noteView
	if err := json.Unmarshal([]byte(resultText(r)), &got); err != nil {
		t.Fatalf("read result %q: %v", resultText(r), err)
	}
	if got.Title != "Test" || got.Content != "Hello [[World]]" || got.ETag == "" {
		t.Errorf("read = %+v", got)
	}
	if len(got.Links) != 1 || got.Links[0] != "World" {
		t.Errorf("links = %v", got.Links)
	}
}

func TestCreateNote_Invalid(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "create_note", map[string]interface{}{"title": "x", "category": "c"})
	if !r.IsError {
		t.Error("expected error for missing content")
	}
	r = callTool(t, srv, "create_note", map[string]interface{}{"title": "   ", "category": "c", "content": "x"})
	if !r.IsError {
		t.Error("expected error for blank title")
	}
}

func TestListNotes(t *testing.T) {
	srv, _ := testServer(t)
	create(t, srv, "A", "work", "a")
	create(t, srv, "B", "home", "b")

	var all []noteSummary
	_ = json.Unmarshal([]byte(resultText(callTool(t, srv, "list_notes", map[string]interface{}{}))), &all)
	if len(all) != 2 {
		t.Errorf("list = %+v", all)
	}

	var work []noteSummary
	_ = json.Unmarshal([]byte(resultText(callTool(t, srv, "list_notes", map[string]interface{}{"category": "work"}))), &work)
	if len(work) != 1 || work[0].Title != "A" {
		t.Errorf("work = %+v", work)
	}
}

func TestReadNoteMissing(t *testing.T) {
	srv, _ := testServer(t)
	r := callTool(t, srv, "read_note", map[string]interface{}{"id": float64(42)})
	if !r.IsError || resultText(r) != "not found: 42" {
		t.Errorf("result = %+v", r)
	}
	r = callTool(t, srv, "read_note", map[string]interface{}{})
	if !r.IsError {
		t.Error("expected error for missing id")
	}
}

func TestUpdateNote_ETag(t *testing.T) {
	srv, svc := testServer(t)
	create(t, srv, "A", "c", "v1")
	n, _ := svc.Get(context.Background(), 1)
	stale := noteservice.ETag(n)

	args := map[string]interface{}{"id": float64(1), "title": "A", "category": "c", "content": "v2", "etag": stale}
	if r := callTool(t, srv, "update_note", args); r.IsError {
		t.Fatalf("update: %s", resultText(r))
	}
	args["content"] = "v3"
	r := callTool(t, srv, "update_note", args)
	if !r.IsError || !strings.Contains(resultText(r), "changed since") {
		t.Errorf("stale update = %q", resultText(r))
	}
}

func TestDeleteNote(t *testing.T) {
	srv, _ := testServer(t)
	create(t, srv, "A", "c", "x")
	if r := callTool(t, srv, "delete_note", map[string]interface{}{"id": float64(1)}); resultText(r) != "deleted: 1" {
		t.Errorf("delete = %q", resultText(r))
	}
	if r := callTool(t, srv, "delete_note", map[string]interface{}{"id": float64(1)}); !r.IsError {
		t.Error("second delete should fail")
	}
}

func TestGetLinks(t *testing.T) {
	srv, _ := testServer(t)
	create(t, srv, "a", "c", "links to [[b]] and [[nowhere]]")
	create(t, srv, "b", "c", "links to [[a]]")

	r := callTool(t, srv, "get_links", map[string]interface{}{"id": float64(1)})
	var report noteservice.LinkReport
	if err := json.Unmarshal([]byte(resultText(r)), &report); err != nil {
		t.Fatal(err)
	}
	if len(report.Outgoing) != 2 || report.Outgoing[0].Target != 2 || !report.Outgoing[1].Dangling {
		t.Errorf("outgoing = %+v", report.Outgoing)
	}
	if len(report.Incoming) != 1 || report.Incoming[0] != 2 {
		t.Errorf("incoming = %v", report.Incoming)
	}
}

func TestSearchNotes(t *testing.T) {
	srv, _ := testServer(t)
	create(t, srv, "Needle", "c", "find the zebra")
	create(t, srv, "Hay", "c", "nothing")

	r := callTool(t, srv, "search_notes", map[string]interface{}{"query": "zebra"})
	if !strings.Contains(resultText(r), `"Needle"`) || strings.Contains(resultText(r), `"Hay"`) {
		t.Errorf("search = %s", resultText(r))
	}
}

func TestRenderGraph(t *testing.T) {
	srv, _ := testServer(t)
	create(t, srv, "A", "c", "[[B]]")
	create(t, srv, "B", "c", "b")

	r := callTool(t, srv, "render_graph", map[string]interface{}{"width": float64(120), "height": float64(80), "seed": float64(3)})
	if r.IsError {
		t.Fatalf("render: %s", resultText(r))
	}
	var img *mcp.ImageContent
	for _, c := range r.Content {
		if ic, ok := c.(mcp.ImageContent); ok {
			img = &ic
		}
	}
	if img == nil || img.MIMEType != "image/png" {
		t.Fatalf("content = %+v", r.Content)
	}
	data, err := base64.StdEncoding.DecodeString(img.Data)
	if err != nil || !strings.HasPrefix(string(data), "\x89PNG") {
		t.Errorf("image data not a PNG: %v", err)
	}

	r = callTool(t, srv, "render_graph", map[string]interface{}{"width": float64(99999)})
	if !r.IsError {
		t.Error("expected error for oversized image")
	}
}

func TestRenderGraph_UsesConfiguredTheme(t *testing.T) {
	svc := noteservice.New(testutil.TestDB(t))
	theme := graph.DefaultTheme
	theme.Background = color.RGBA{R: 255, A: 255}
	srv := New(svc, RenderOptions{FontSize: 12, Engine: graph.Options{Theme: theme}})
	create(t, srv, "A", "c", "[[B]]")
	create(t, srv, "B", "c", "b")

	r := callTool(t, srv, "render_graph", map[string]interface{}{"width": float64(400), "height": float64(300), "seed": float64(1)})
	if r.IsError {
		t.Fatalf("render: %s", resultText(r))
	}
	var data []byte
	for _, c := range r.Content {
		if ic, ok := c.(mcp.ImageContent); ok {
			data, _ = base64.StdEncoding.DecodeString(ic.Data)
		}
	}
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	cr, cg, cb, _ := img.At(399, 299).RGBA()
	if cr>>8 != 255 || cg>>8 != 0 || cb>>8 != 0 {
		t.Errorf("corner = (%d,%d,%d), want the configured red background", cr>>8, cg>>8, cb>>8)
	}
}

func TestNoteContract(t *testing.T) {
	srv, _ := testServer(t)
	text := resultText(callTool(t, srv, "get_note_contract", nil))
	if !strings.Contains(text, "[[Other title]]") {
		t.Error("contract does not describe links")
	}
	res, err := srv.readNoteFormatResource(context.Background(), mcp.ReadResourceRequest{})
	if err != nil || len(res) != 1 {
		t.Fatalf("resource = %v, %v", res, err)
	}
	if tc, ok := res[0].(mcp.TextResourceContents); !ok || tc.URI != formatURI {
		t.Errorf("resource = %+v", res[0])
	}
}
