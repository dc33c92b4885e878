package graph

import (
	"time"

	"github.com/starford/mindra/internal/models"
)

// Host is the embedding surface's capability set.
type Host interface {
	// RequestRedraw asks the surface to call Engine.Render soon.
	RequestRedraw()
	// NodeActivated is raised on double tap.
	NodeActivated(note models.Note)
}

// Options tunes an Engine.
type Options struct {
	DoubleTap time.Duration
	// ZoomAboutFocus keeps the pinch focal point fixed instead of scaling
	// about the screen position of the graph origin.
	ZoomAboutFocus bool
	Theme          Theme
	// Rand seeds layout jitter; nil uses a clock-seeded source per layout.
	Rand Rand
}

// Engine owns the graph state for one drawing surface.
type Engine struct {
	host Host
	opts Options

	notes     []models.Note
	links     LinkIndex
	titles    TitleIndex
	edges     []Edge
	positions []NodePosition
	laidOut   bool

	viewport Viewport
	measured bool
	width    float64
	height   float64

	selected int
	gestures *Gestures
}

// NewEngine returns an engine with no snapshot. host may be nil.
func NewEngine(host Host, opts Options) *Engine {
	if opts.Theme.Background == nil {
		opts.Theme = DefaultTheme
	}
	return &Engine{
		host:     host,
		opts:     opts,
		links:    LinkIndex{},
		titles:   TitleIndex{},
		viewport: NewViewport(),
		selected: -1,
		gestures: NewGestures(opts.DoubleTap),
	}
}

// SetNotes replaces the snapshot. Link index, edges and layout are rebuilt from
// scratch and the selection is cleared; the viewport is kept.
func (e *Engine) SetNotes(notes []models.Note) {
	e.notes = append([]models.Note(nil), notes...)
	e.links = BuildLinkIndex(e.notes)
	e.titles = BuildTitleIndex(e.notes)
	e.selected = -1
	e.relayout()
	e.redraw()
}

// Resize records the surface size. The first non-empty size centres the
// graph origin at scale 1; later sizes re-centre and keep the scale.
func (e *Engine) Resize(w, h float64) {
	if w <= 0 || h <= 0 {
		return
	}
	e.width, e.height = w, h
	if !e.measured {
		e.viewport.Center(w, h)
		e.measured = true
	} else {
		e.viewport.TranslateX = w / 2
		e.viewport.TranslateY = h / 2
	}
	if !e.laidOut {
		e.relayout()
	}
	e.redraw()
}

// ResetView re-centres at scale 1 using the last measured size.
func (e *Engine) ResetView() {
	e.viewport.Center(e.width, e.height)
	e.redraw()
}

// Relayout regenerates positions for the current snapshot.
func (e *Engine) Relayout() {
	e.relayout()
	e.redraw()
}

func (e *Engine) relayout() {
	e.positions = Layout(e.notes, e.opts.Rand)
	e.edges = ResolveEdges(e.notes, e.titles, len(e.positions))
	e.laidOut = true
}

// HandleEvent feeds one input primitive through the gesture interpreter and
// applies its effects.
func (e *Engine) HandleEvent(ev Event) Effects {
	fx := e.gestures.Handle(ev, engineControls{e})

	if fx.Select >= 0 && fx.Select < len(e.positions) {
		e.selected = fx.Select
	}
	if fx.Activate >= 0 && fx.Activate < len(e.positions) && e.host != nil {
		e.host.NodeActivated(e.positions[fx.Activate].Note)
	}
	if fx.Redraw {
		e.redraw()
	}
	return fx
}

// Render draws the current frame.
func (e *Engine) Render(c Canvas) {
	Render(c, e.Scene(), e.opts.Theme)
}

// Scene snapshots what Render would draw.
func (e *Engine) Scene() Scene {
	return Scene{
		Positions: e.positions,
		Edges:     e.edges,
		Viewport:  e.viewport,
		Selected:  e.Selected(),
	}
}

// HitTest resolves a screen point to a snapshot index.
func (e *Engine) HitTest(screen Point) (int, bool) {
	return HitTest(screen, e.positions, e.viewport, NodeRadius)
}

// Selected returns the selected index, or -1.
func (e *Engine) Selected() int {
	if e.selected >= len(e.positions) {
		e.selected = -1
	}
	return e.selected
}

// SelectedNote returns the selected note, if any.
func (e *Engine) SelectedNote() (models.Note, bool) {
	i := e.Selected()
	if i < 0 {
		return models.Note{}, false
	}
	return e.positions[i].Note, true
}

// Notes returns the current snapshot.
func (e *Engine) Notes() []models.Note { return e.notes }

// Positions returns the current layout.
func (e *Engine) Positions() []NodePosition { return e.positions }

// Edges returns the resolved edges of the current layout.
func (e *Engine) Edges() []Edge { return e.edges }

// Links returns the link index of the current snapshot.
func (e *Engine) Links() LinkIndex { return e.links }

// Dangling returns labels that match no title in the current snapshot.
func (e *Engine) Dangling() []string { return Dangling(e.links, e.titles) }

// Viewport returns the current transform.
func (e *Engine) Viewport() Viewport { return e.viewport }

// GestureState exposes the interpreter mode.
func (e *Engine) GestureState() GestureState { return e.gestures.State() }

func (e *Engine) redraw() {
	if e.host != nil {
		e.host.RequestRedraw()
	}
}

// engineControls adapts the engine to the interpreter without exporting the
// mutation methods on Engine itself.
type engineControls struct{ e *Engine }

func (c engineControls) HitTest(p Point) (int, bool) { return c.e.HitTest(p) }

func (c engineControls) Pan(dx, dy float64) { c.e.viewport.Pan(dx, dy) }

func (c engineControls) Zoom(factor float64, focus Point) {
	if c.e.opts.ZoomAboutFocus {
		c.e.viewport.ZoomAt(factor, focus)
		return
	}
	c.e.viewport.Zoom(factor)
}
