package graph

import "testing"

// stubControls hits node 0 inside the square [0,100)² and records pan/zoom.
type stubControls struct {
	dx, dy float64
	pans   int
	zooms  []float64
}

func (s *stubControls) HitTest(p Point) (int, bool) {
	if p.X >= 0 && p.X < 100 && p.Y >= 0 && p.Y < 100 {
		return 0, true
	}
	return -1, false
}

func (s *stubControls) Pan(dx, dy float64) {
	s.dx += dx
	s.dy += dy
	s.pans++
}

func (s *stubControls) Zoom(f float64, _ Point) { s.zooms = append(s.zooms, f) }

func TestGestures_TapSelects(t *testing.T) {
	g := NewGestures(0)
	c := &stubControls{}
	fx := g.Handle(Event{Kind: EventDown, X: 10, Y: 10, Time: at(0)}, c)
	if fx.Select != 0 || fx.Activate != -1 || !fx.Redraw {
		t.Errorf("effects = %+v, want select 0 with redraw", fx)
	}
	if g.State() != StatePending {
		t.Errorf("state = %v, want pending", g.State())
	}
	g.Handle(Event{Kind: EventUp, X: 10, Y: 10, Time: at(50)}, c)
	if g.State() != StateIdle {
		t.Errorf("state = %v, want idle", g.State())
	}
}

func TestGestures_DoubleTapActivates(t *testing.T) {
	g := NewGestures(DefaultDoubleTap)
	c := &stubControls{}
	g.Handle(Event{Kind: EventDown, X: 10, Y: 10, Time: at(0)}, c)
	g.Handle(Event{Kind: EventUp, Time: at(40)}, c)
	fx := g.Handle(Event{Kind: EventDown, X: 12, Y: 11, Time: at(200)}, c)
	if fx.Activate != 0 || fx.Select != -1 || fx.Redraw {
		t.Errorf("effects = %+v, want activation only", fx)
	}
}

func TestGestures_SlowTapsBothSelect(t *testing.T) {
	g := NewGestures(DefaultDoubleTap)
	c := &stubControls{}
	for _, ms := range []int{0, 500} {
		fx := g.Handle(Event{Kind: EventDown, X: 10, Y: 10, Time: at(ms)}, c)
		if fx.Select != 0 || fx.Activate != -1 {
			t.Errorf("down at %dms: effects = %+v, want select", ms, fx)
		}
		g.Handle(Event{Kind: EventUp, Time: at(ms + 20)}, c)
	}
}

func TestGestures_ThresholdIsExclusive(t *testing.T) {
	g := NewGestures(DefaultDoubleTap)
	c := &stubControls{}
	g.Handle(Event{Kind: EventDown, X: 1, Y: 1, Time: at(0)}, c)
	fx := g.Handle(Event{Kind: EventDown, X: 1, Y: 1, Time: at(300)}, c)
	if fx.Activate != -1 {
		t.Errorf("exactly 300ms apart should not activate: %+v", fx)
	}
}

func TestGestures_EarlierDownIsNotDoubleTap(t *testing.T) {
	g := NewGestures(DefaultDoubleTap)
	c := &stubControls{}
	g.Handle(Event{Kind: EventDown, X: 1, Y: 1, Time: at(10000)}, c)
	g.Handle(Event{Kind: EventUp, Time: at(10010)}, c)
	fx := g.Handle(Event{Kind: EventDown, X: 1, Y: 1, Time: at(0)}, c)
	if fx.Activate != -1 || fx.Select != 0 {
		t.Errorf("down 10s before the last one: effects = %+v, want select", fx)
	}
}

func TestGestures_MissDoesNotResetClickTime(t *testing.T) {
	g := NewGestures(DefaultDoubleTap)
	c := &stubControls{}
	g.Handle(Event{Kind: EventDown, X: 1, Y: 1, Time: at(0)}, c)
	g.Handle(Event{Kind: EventUp, Time: at(10)}, c)
	g.Handle(Event{Kind: EventDown, X: 500, Y: 500, Time: at(100)}, c)
	g.Handle(Event{Kind: EventUp, Time: at(110)}, c)
	fx := g.Handle(Event{Kind: EventDown, X: 1, Y: 1, Time: at(250)}, c)
	if fx.Activate != 0 {
		t.Errorf("effects = %+v, want activation", fx)
	}
}

func TestGestures_DragPansCumulatively(t *testing.T) {
	g := NewGestures(0)
	c := &stubControls{}
	g.Handle(Event{Kind: EventDown, X: 200, Y: 200, Time: at(0)}, c)
	if g.State() != StateDragging {
		t.Fatalf("state = %v, want dragging", g.State())
	}
	fx := g.Handle(Event{Kind: EventMove, X: 210, Y: 205, Time: at(10)}, c)
	if !fx.Redraw {
		t.Error("move while dragging should redraw")
	}
	g.Handle(Event{Kind: EventMove, X: 207, Y: 205, Time: at(20)}, c)
	if c.dx != 7 || c.dy != 5 {
		t.Errorf("pan = (%v,%v), want (7,5)", c.dx, c.dy)
	}
	g.Handle(Event{Kind: EventUp, Time: at(30)}, c)
	g.Handle(Event{Kind: EventMove, X: 300, Y: 300, Time: at(40)}, c)
	if c.pans != 2 {
		t.Errorf("pans = %d, want 2 (no pan after up)", c.pans)
	}
}

func TestGestures_MoveWithoutDownIgnored(t *testing.T) {
	g := NewGestures(0)
	c := &stubControls{}
	fx := g.Handle(Event{Kind: EventMove, X: 5, Y: 5, Time: at(0)}, c)
	if fx.Redraw || c.pans != 0 {
		t.Errorf("stray move had effects %+v", fx)
	}
	g.Handle(Event{Kind: EventDown, X: 10, Y: 10, Time: at(0)}, c)
	g.Handle(Event{Kind: EventMove, X: 50, Y: 50, Time: at(5)}, c)
	if c.pans != 0 {
		t.Error("move after a node hit should not pan")
	}
}

func TestGestures_PinchSuppressesPointerEvents(t *testing.T) {
	g := NewGestures(0)
	c := &stubControls{}
	g.Handle(Event{Kind: EventDown, X: 200, Y: 200, Time: at(0)}, c)
	g.Handle(Event{Kind: EventPinchStart, X: 200, Y: 200, Time: at(5)}, c)
	g.Handle(Event{Kind: EventMove, X: 260, Y: 260, Time: at(10)}, c)
	fx := g.Handle(Event{Kind: EventDown, X: 10, Y: 10, Time: at(15)}, c)
	if fx.Select != -1 || c.pans != 0 {
		t.Errorf("pointer events leaked through pinch: %+v pans=%d", fx, c.pans)
	}
	fx = g.Handle(Event{Kind: EventPinchUpdate, Scale: 1.5, Time: at(20)}, c)
	if !fx.Redraw || len(c.zooms) != 1 || c.zooms[0] != 1.5 {
		t.Errorf("pinch update: effects %+v zooms %v", fx, c.zooms)
	}
	g.Handle(Event{Kind: EventPinchEnd, Time: at(30)}, c)
	g.Handle(Event{Kind: EventMove, X: 300, Y: 300, Time: at(40)}, c)
	if c.pans != 0 {
		t.Error("drag must not resume after pinch without a new down")
	}
}

func TestGestures_PinchUpdateWithoutStartIgnored(t *testing.T) {
	g := NewGestures(0)
	c := &stubControls{}
	if fx := g.Handle(Event{Kind: EventPinchUpdate, Scale: 2, Time: at(0)}, c); fx.Redraw || len(c.zooms) != 0 {
		t.Errorf("stray pinch update had effects %+v", fx)
	}
}

func TestGestures_CancelResetsEverything(t *testing.T) {
	g := NewGestures(0)
	c := &stubControls{}
	g.Handle(Event{Kind: EventDown, X: 200, Y: 200, Time: at(0)}, c)
	g.Handle(Event{Kind: EventCancel, Time: at(5)}, c)
	g.Handle(Event{Kind: EventMove, X: 250, Y: 250, Time: at(10)}, c)
	if c.pans != 0 {
		t.Error("move after cancel should not pan")
	}

	g.Handle(Event{Kind: EventPinchStart, Time: at(20)}, c)
	g.Handle(Event{Kind: EventCancel, Time: at(25)}, c)
	if g.State() != StateIdle {
		t.Errorf("state = %v, want idle", g.State())
	}
	if fx := g.Handle(Event{Kind: EventDown, X: 10, Y: 10, Time: at(1000)}, c); fx.Select != 0 {
		t.Errorf("down after cancel: %+v, want select", fx)
	}
}

func TestEventKind_Valid(t *testing.T) {
	if !EventPinchUpdate.Valid() || !EventDown.Valid() {
		t.Error("known kinds reported invalid")
	}
	if EventKind("hover").Valid() || EventKind("").Valid() {
		t.Error("unknown kinds reported valid")
	}
}
