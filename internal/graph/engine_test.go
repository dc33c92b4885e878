package graph

import (
	"testing"

	"github.com/starford/mindra/internal/models"
)

func newTestEngine(t *testing.T) (*Engine, *fakeHost) {
	t.Helper()
	h := &fakeHost{}
	e := NewEngine(h, Options{Rand: fixedRand(0.5)})
	e.Resize(1000, 800)
	return e, h
}

func abc() []models.Note {
	return []models.Note{
		note(1, "A", "[[B]]"),
		note(2, "B", ""),
		note(3, "C", "[[B]]"),
	}
}

// screenOf returns the screen position of node i.
func screenOf(e *Engine, i int) Point {
	return e.Viewport().ToScreen(e.Positions()[i].Point)
}

func TestEngine_BeforeSnapshot(t *testing.T) {
	e := NewEngine(nil, Options{})
	if _, ok := e.HitTest(Point{}); ok {
		t.Error("hit before snapshot")
	}
	c := &recordCanvas{}
	e.Render(c)
	if len(c.ops) != 1 {
		t.Errorf("ops = %v, want clear only", c.ops)
	}
	fx := e.HandleEvent(Event{Kind: EventDown, Time: at(0)})
	if fx.Select != -1 || fx.Activate != -1 {
		t.Errorf("effects = %+v", fx)
	}
}

func TestEngine_FirstResizeCentres(t *testing.T) {
	e, _ := newTestEngine(t)
	v := e.Viewport()
	if v.TranslateX != 500 || v.TranslateY != 400 || v.Scale != 1 {
		t.Errorf("viewport = %+v", v)
	}
	e.Resize(0, 0)
	if e.Viewport() != v {
		t.Error("empty resize must be ignored")
	}
}

func TestEngine_SetNotesBuildsGraph(t *testing.T) {
	e, h := newTestEngine(t)
	before := h.redraws
	e.SetNotes(abc())
	if len(e.Positions()) != 3 {
		t.Fatalf("positions = %d", len(e.Positions()))
	}
	if got := e.Links()["B"]; len(got) != 2 || got[0] != 0 || got[1] != 2 {
		t.Errorf("links[B] = %v", got)
	}
	if len(e.Edges()) != 2 {
		t.Errorf("edges = %v", e.Edges())
	}
	if h.redraws <= before {
		t.Error("SetNotes should request a redraw")
	}
}

func TestEngine_DoubleTapScenario(t *testing.T) {
	e, h := newTestEngine(t)
	e.SetNotes(abc())
	p := screenOf(e, 1)

	e.HandleEvent(Event{Kind: EventDown, X: p.X, Y: p.Y, Time: at(0)})
	e.HandleEvent(Event{Kind: EventUp, X: p.X, Y: p.Y, Time: at(50)})
	if e.Selected() != 1 {
		t.Fatalf("selected = %d, want 1", e.Selected())
	}
	e.HandleEvent(Event{Kind: EventDown, X: p.X, Y: p.Y, Time: at(200)})
	if len(h.activated) != 1 || h.activated[0].Title != "B" {
		t.Errorf("activated = %v, want [B]", h.activated)
	}
	if e.Selected() != 1 {
		t.Errorf("selected = %d after double tap, want unchanged 1", e.Selected())
	}
}

func TestEngine_DoubleTapKeepsSelectionOnOtherNode(t *testing.T) {
	e, h := newTestEngine(t)
	e.SetNotes(abc())
	a, b := screenOf(e, 0), screenOf(e, 1)

	e.HandleEvent(Event{Kind: EventDown, X: a.X, Y: a.Y, Time: at(0)})
	e.HandleEvent(Event{Kind: EventUp, Time: at(10)})
	e.HandleEvent(Event{Kind: EventDown, X: b.X, Y: b.Y, Time: at(100)})
	if len(h.activated) != 1 || h.activated[0].Title != "B" {
		t.Errorf("activated = %v, want the newly hit node", h.activated)
	}
	if e.Selected() != 0 {
		t.Errorf("selected = %d, want 0", e.Selected())
	}
}

func TestEngine_SlowTapsNoActivation(t *testing.T) {
	e, h := newTestEngine(t)
	e.SetNotes(abc())
	p := screenOf(e, 2)
	e.HandleEvent(Event{Kind: EventDown, X: p.X, Y: p.Y, Time: at(0)})
	e.HandleEvent(Event{Kind: EventUp, Time: at(20)})
	e.HandleEvent(Event{Kind: EventDown, X: p.X, Y: p.Y, Time: at(500)})
	if len(h.activated) != 0 {
		t.Errorf("activated = %v, want none", h.activated)
	}
	if e.Selected() != 2 {
		t.Errorf("selected = %d, want 2", e.Selected())
	}
}

func TestEngine_DragScenario(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetNotes(abc())
	before := e.Viewport()

	// Far corner: nothing there.
	e.HandleEvent(Event{Kind: EventDown, X: 5, Y: 5, Time: at(0)})
	e.HandleEvent(Event{Kind: EventMove, X: 15, Y: 10, Time: at(10)})
	e.HandleEvent(Event{Kind: EventMove, X: 12, Y: 10, Time: at(20)})
	e.HandleEvent(Event{Kind: EventUp, X: 12, Y: 10, Time: at(30)})

	after := e.Viewport()
	if after.TranslateX-before.TranslateX != 7 || after.TranslateY-before.TranslateY != 5 {
		t.Errorf("pan = (%v,%v), want (7,5)", after.TranslateX-before.TranslateX, after.TranslateY-before.TranslateY)
	}
	if after.Scale != before.Scale {
		t.Errorf("scale changed: %v -> %v", before.Scale, after.Scale)
	}
	if e.Selected() != -1 {
		t.Errorf("selected = %d, want none", e.Selected())
	}
}

func TestEngine_PinchZoomClamped(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetNotes(abc())
	e.HandleEvent(Event{Kind: EventPinchStart, X: 100, Y: 100, Time: at(0)})
	for i := 0; i < 10; i++ {
		e.HandleEvent(Event{Kind: EventPinchUpdate, X: 100, Y: 100, Scale: 3, Time: at(i + 1)})
	}
	v := e.Viewport()
	if v.Scale != MaxScale {
		t.Errorf("scale = %v, want %v", v.Scale, MaxScale)
	}
	if v.TranslateX != 500 || v.TranslateY != 400 {
		t.Errorf("translate moved to (%v,%v) with origin-anchored zoom", v.TranslateX, v.TranslateY)
	}
}

func TestEngine_ZoomAboutFocusOption(t *testing.T) {
	e := NewEngine(nil, Options{ZoomAboutFocus: true, Rand: fixedRand(0.5)})
	e.Resize(1000, 800)
	e.SetNotes(abc())
	focus := Point{700, 300}
	before := e.Viewport().ToGraph(focus)
	e.HandleEvent(Event{Kind: EventPinchStart, X: focus.X, Y: focus.Y, Time: at(0)})
	e.HandleEvent(Event{Kind: EventPinchUpdate, X: focus.X, Y: focus.Y, Scale: 2, Time: at(1)})
	after := e.Viewport().ToGraph(focus)
	if !approx(before.X, after.X) || !approx(before.Y, after.Y) {
		t.Errorf("focus drifted %v -> %v", before, after)
	}
}

func TestEngine_SetNotesClearsSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetNotes(abc())
	p := screenOf(e, 2)
	e.HandleEvent(Event{Kind: EventDown, X: p.X, Y: p.Y, Time: at(0)})
	e.HandleEvent(Event{Kind: EventUp, Time: at(10)})
	if e.Selected() != 2 {
		t.Fatalf("selected = %d", e.Selected())
	}
	e.HandleEvent(Event{Kind: EventDown, X: 5, Y: 5, Time: at(20)})
	e.HandleEvent(Event{Kind: EventMove, X: 25, Y: 5, Time: at(30)})
	e.HandleEvent(Event{Kind: EventUp, Time: at(40)})
	view := e.Viewport()

	replacement := []models.Note{
		note(10, "X", "[[Z]]"),
		note(11, "Y", "[[X]]"),
		note(12, "Z", ""),
	}
	e.SetNotes(replacement)

	if e.Selected() != -1 {
		t.Errorf("selected = %d after SetNotes, want -1", e.Selected())
	}
	if e.Viewport() != view {
		t.Errorf("viewport reset by SetNotes: %+v vs %+v", e.Viewport(), view)
	}
	if _, ok := e.Links()["B"]; ok {
		t.Error("old link index survived SetNotes")
	}
	edges := e.Edges()
	if len(edges) != 2 || edges[0] != (Edge{From: 0, To: 2, Label: "Z"}) || edges[1] != (Edge{From: 1, To: 0, Label: "X"}) {
		t.Errorf("edges = %v", edges)
	}
	if e.Positions()[1].Note.Title != "Y" {
		t.Error("positions not regenerated for new snapshot")
	}
}

func TestEngine_SetNotesCopiesSnapshot(t *testing.T) {
	e, _ := newTestEngine(t)
	notes := abc()
	e.SetNotes(notes)
	notes[0].Title = "mutated"
	if e.Notes()[0].Title != "A" {
		t.Error("engine shares the caller's slice")
	}
}

func TestEngine_ResizeRecentres(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetNotes(abc())
	e.HandleEvent(Event{Kind: EventPinchStart, Time: at(0)})
	e.HandleEvent(Event{Kind: EventPinchUpdate, Scale: 2, Time: at(1)})
	e.HandleEvent(Event{Kind: EventPinchEnd, Time: at(2)})
	e.Resize(400, 600)
	v := e.Viewport()
	if v.TranslateX != 200 || v.TranslateY != 300 || v.Scale != 2 {
		t.Errorf("viewport = %+v, want centred at scale 2", v)
	}
	e.ResetView()
	if e.Viewport().Scale != 1 {
		t.Errorf("ResetView scale = %v", e.Viewport().Scale)
	}
}

func TestEngine_RenderUsesSelection(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetNotes(abc())
	p := screenOf(e, 0)
	e.HandleEvent(Event{Kind: EventDown, X: p.X, Y: p.Y, Time: at(0)})

	c := &recordCanvas{}
	e.Render(c)
	circles := c.named("circle")
	if len(circles) != 3 {
		t.Fatalf("circles = %d", len(circles))
	}
	if circles[0].color != DefaultTheme.SelectedNode {
		t.Error("selected node not drawn with accent colour")
	}
	if n := c.count("line"); n != 2 {
		t.Errorf("lines = %d, want 2", n)
	}
}

func TestEngine_Dangling(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetNotes([]models.Note{note(1, "A", "[[b]] [[Missing]]"), note(2, "B", "")})
	got := e.Dangling()
	if len(got) != 2 {
		t.Errorf("dangling = %v, want [Missing b] (case-sensitive)", got)
	}
}
