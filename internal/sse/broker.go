// Package sse implements a Server-Sent Events broker for real-time updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/starford/mindra/internal/models"
)

// Event represents an SSE event to broadcast.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Event types emitted by the broker.
const (
	TypeNoteCreated   = "note.created"
	TypeNoteUpdated   = "note.updated"
	TypeNoteDeleted   = "note.deleted"
	TypeGraphUpdated  = "graph.updated"
	TypeSessionRedraw = "session.redraw"
	TypeNodeActivated = "node.activated"
	TypeSessionClosed = "session.closed"
)

const (
	defaultGraphMin    = 2 * time.Second
	defaultRedrawMin   = 50 * time.Millisecond
	clientBufferSize   = 64
	requestChannelSize = 256
)

type noteEventReq struct {
	kind string
	id   int64
}

type sessionReq struct {
	kind string
	id   string
	note models.Note
}

// NoteRef is the payload of node.activated.
type NoteRef struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

// Broker manages SSE client connections and broadcasts events.
//
// Concurrency model: a single internal event loop (goroutine) owns mutable state
// (clients, throttle timestamps and pending flushes). Public methods communicate
// with this loop through channels, so no mutexes are required.
//
// graph.updated and session.redraw are throttled with a trailing flush: the
// first event in a window goes out immediately, later ones collapse into one
// event at the end of the window.
type Broker struct {
	graphMin  time.Duration
	redrawMin time.Duration

	subscribeCh   chan chan []byte
	unsubscribeCh chan chan []byte
	publishCh     chan Event
	noteEventCh   chan noteEventReq
	sessionCh     chan sessionReq
	countReqCh    chan chan int

	stopCh  chan struct{}
	stopped chan struct{}
	closed  atomic.Bool
}

// NewBroker creates a new SSE broker. graphThrottle bounds graph.updated,
// redrawThrottle bounds session.redraw per session.
func NewBroker(graphThrottle, redrawThrottle time.Duration) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = defaultGraphMin
	}
	if redrawThrottle <= 0 {
		redrawThrottle = defaultRedrawMin
	}

	b := &Broker{
		graphMin:      graphThrottle,
		redrawMin:     redrawThrottle,
		subscribeCh:   make(chan chan []byte),
		unsubscribeCh: make(chan chan []byte),
		publishCh:     make(chan Event, requestChannelSize),
		noteEventCh:   make(chan noteEventReq, requestChannelSize),
		sessionCh:     make(chan sessionReq, requestChannelSize),
		countReqCh:    make(chan chan int),
		stopCh:        make(chan struct{}),
		stopped:       make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.stopped)

	clients := make(map[chan []byte]struct{})

	var (
		lastGraph    time.Time
		graphPending bool
		graphTimer   <-chan time.Time

		lastRedraw    = make(map[string]time.Time)
		redrawPending = make(map[string]struct{})
		redrawTimer   <-chan time.Time
	)

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip to avoid blocking broker loop.
			}
		}
	}

	graphUpdated := func() {
		now := time.Now()
		if now.Sub(lastGraph) >= b.graphMin {
			lastGraph = now
			broadcast(Event{Type: TypeGraphUpdated, Data: map[string]string{}})
			return
		}
		graphPending = true
		if graphTimer == nil {
			graphTimer = time.After(b.graphMin - now.Sub(lastGraph))
		}
	}

	redraw := func(id string) {
		now := time.Now()
		if now.Sub(lastRedraw[id]) >= b.redrawMin {
			lastRedraw[id] = now
			broadcast(Event{Type: TypeSessionRedraw, Data: map[string]string{"session": id}})
			return
		}
		redrawPending[id] = struct{}{}
		if redrawTimer == nil {
			redrawTimer = time.After(b.redrawMin)
		}
	}

	for {
		select {
		case <-b.stopCh:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subscribeCh:
			clients[ch] = struct{}{}

		case ch := <-b.unsubscribeCh:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.publishCh:
			broadcast(event)

		case req := <-b.noteEventCh:
			data := map[string]int64{"id": req.id}
			switch req.kind {
			case "created":
				broadcast(Event{Type: TypeNoteCreated, Data: data})
			case "updated":
				broadcast(Event{Type: TypeNoteUpdated, Data: data})
			case "deleted":
				broadcast(Event{Type: TypeNoteDeleted, Data: data})
			}
			graphUpdated()

		case req := <-b.sessionCh:
			switch req.kind {
			case "redraw":
				redraw(req.id)
			case "activated":
				broadcast(Event{Type: TypeNodeActivated, Data: map[string]interface{}{
					"session": req.id,
					"note":    NoteRef{ID: req.note.ID, Title: req.note.Title, Category: req.note.Category},
				}})
			case "closed":
				delete(lastRedraw, req.id)
				delete(redrawPending, req.id)
				broadcast(Event{Type: TypeSessionClosed, Data: map[string]string{"session": req.id}})
			}

		case <-graphTimer:
			graphTimer = nil
			if graphPending {
				graphPending = false
				lastGraph = time.Now()
				broadcast(Event{Type: TypeGraphUpdated, Data: map[string]string{}})
			}

		case <-redrawTimer:
			redrawTimer = nil
			now := time.Now()
			for id := range redrawPending {
				lastRedraw[id] = now
				broadcast(Event{Type: TypeSessionRedraw, Data: map[string]string{"session": id}})
			}
			clear(redrawPending)

		case resp := <-b.countReqCh:
			resp <- len(clients)
		}
	}
}

// Close gracefully stops broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.closed.CompareAndSwap(false, true) {
		close(b.stopCh)
	}
	<-b.stopped
}

// Subscribe adds a new client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, clientBufferSize)
	if b.closed.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subscribeCh <- ch:
	case <-b.stopped:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.closed.Load() {
		return
	}
	select {
	case b.unsubscribeCh <- ch:
	case <-b.stopped:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.closed.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.countReqCh <- resp:
	case <-b.stopped:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.stopped:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.closed.Load() {
		return
	}
	select {
	case b.publishCh <- event:
	case <-b.stopped:
	}
}

// PublishNoteEvent publishes a note change and a throttled graph.updated
// event. kind is created, updated, deleted or cleared; cleared only touches
// the graph.
func (b *Broker) PublishNoteEvent(kind string, id int64) {
	if b.closed.Load() {
		return
	}
	select {
	case b.noteEventCh <- noteEventReq{kind: kind, id: id}:
	case <-b.stopped:
	}
}

func (b *Broker) session(req sessionReq) {
	if b.closed.Load() {
		return
	}
	select {
	case b.sessionCh <- req:
	case <-b.stopped:
	}
}

// SessionRedraw announces that session id has a new frame.
func (b *Broker) SessionRedraw(id string) { b.session(sessionReq{kind: "redraw", id: id}) }

// NodeActivated announces a double tap on note in session id.
func (b *Broker) NodeActivated(id string, note models.Note) {
	b.session(sessionReq{kind: "activated", id: id, note: note})
}

// SessionClosed announces the end of session id.
func (b *Broker) SessionClosed(id string) { b.session(sessionReq{kind: "closed", id: id}) }

// ServeHTTP is the SSE endpoint handler (GET /api/events).
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
