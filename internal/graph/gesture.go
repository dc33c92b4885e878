package graph

import "time"

// DefaultDoubleTap is the longest gap between two hit-downs that still counts
// as a double tap.
const DefaultDoubleTap = 300 * time.Millisecond

// EventKind enumerates the pointer primitives the interpreter understands.
type EventKind string

const (
	EventDown        EventKind = "down"
	EventMove        EventKind = "move"
	EventUp          EventKind = "up"
	EventCancel      EventKind = "cancel"
	EventPinchStart  EventKind = "pinch_start"
	EventPinchUpdate EventKind = "pinch_update"
	EventPinchEnd    EventKind = "pinch_end"
)

// Valid reports whether k is one of the known primitives.
func (k EventKind) Valid() bool {
	switch k {
	case EventDown, EventMove, EventUp, EventCancel, EventPinchStart, EventPinchUpdate, EventPinchEnd:
		return true
	}
	return false
}

// Event is one raw input primitive in screen space. Scale is the pinch
// scale delta since the previous update and is only read for
// EventPinchUpdate; X/Y carry the pinch focal point for pinch events.
type Event struct {
	Kind  EventKind `json:"kind"`
	X     float64   `json:"x"`
	Y     float64   `json:"y"`
	Scale float64   `json:"scale,omitempty"`
	Time  time.Time `json:"time"`
}

// Point returns the event position.
func (e Event) Point() Point { return Point{X: e.X, Y: e.Y} }

// Controls is what the interpreter may act on.
type Controls interface {
	HitTest(screen Point) (int, bool)
	Pan(dx, dy float64)
	Zoom(factor float64, focus Point)
}

// Effects reports what one event changed. Select and Activate hold -1 when
// unset.
type Effects struct {
	Redraw   bool `json:"redraw"`
	Select   int  `json:"select"`
	Activate int  `json:"activate"`
}

func noEffects() Effects { return Effects{Select: -1, Activate: -1} }

// GestureState is the interpreter's current mode.
type GestureState int

const (
	StateIdle GestureState = iota
	StatePending
	StateDragging
	StatePinching
)

func (s GestureState) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateDragging:
		return "dragging"
	case StatePinching:
		return "pinching"
	default:
		return "idle"
	}
}

// Gestures classifies a pointer stream into tap-select, double-tap-activate,
// drag-pan and pinch-zoom. The zero value is not ready; use NewGestures.
type Gestures struct {
	doubleTap time.Duration

	state     GestureState
	last      Point
	lastClick time.Time
	hasClick  bool
}

// NewGestures returns an idle interpreter. A non-positive doubleTap selects
// DefaultDoubleTap.
func NewGestures(doubleTap time.Duration) *Gestures {
	if doubleTap <= 0 {
		doubleTap = DefaultDoubleTap
	}
	return &Gestures{doubleTap: doubleTap}
}

// State returns the current mode.
func (g *Gestures) State() GestureState { return g.state }

// Reset drops every piece of in-flight gesture state, including the double
// tap memory.
func (g *Gestures) Reset() {
	g.state = StateIdle
	g.last = Point{}
	g.lastClick = time.Time{}
	g.hasClick = false
}

// Handle advances the state machine by one event. Out-of-sequence events are
// ignored.
func (g *Gestures) Handle(ev Event, c Controls) Effects {
	fx := noEffects()

	switch ev.Kind {
	case EventCancel:
		g.state = StateIdle
		return fx
	case EventPinchStart:
		g.state = StatePinching
		return fx
	case EventPinchUpdate:
		if g.state != StatePinching || ev.Scale <= 0 {
			return fx
		}
		c.Zoom(ev.Scale, ev.Point())
		fx.Redraw = true
		return fx
	case EventPinchEnd:
		if g.state == StatePinching {
			g.state = StateIdle
		}
		return fx
	}

	if g.state == StatePinching {
		return fx
	}

	switch ev.Kind {
	case EventDown:
		g.last = ev.Point()
		idx, hit := c.HitTest(ev.Point())
		if !hit {
			g.state = StateDragging
			return fx
		}
		g.state = StatePending
		// A down stamped before the previous one never pairs with it.
		if elapsed := ev.Time.Sub(g.lastClick); g.hasClick && elapsed >= 0 && elapsed < g.doubleTap {
			fx.Activate = idx
		} else {
			fx.Select = idx
			fx.Redraw = true
		}
		g.lastClick = ev.Time
		g.hasClick = true

	case EventMove:
		if g.state != StateDragging {
			return fx
		}
		p := ev.Point()
		c.Pan(p.X-g.last.X, p.Y-g.last.Y)
		g.last = p
		fx.Redraw = true

	case EventUp:
		g.state = StateIdle
	}
	return fx
}
