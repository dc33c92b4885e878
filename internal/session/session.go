// Package session hosts one graph engine per connected client. A client
// creates a session with its surface size, streams pointer events to it and
// fetches rendered PNG frames.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/starford/mindra/internal/apperr"
	"github.com/starford/mindra/internal/canvas"
	"github.com/starford/mindra/internal/checksum"
	"github.com/starford/mindra/internal/graph"
	"github.com/starford/mindra/internal/models"
)

// MaxSide bounds the surface width and height in pixels.
const MaxSide = 4096

// Source provides note snapshots.
type Source interface {
	ListAll(ctx context.Context) ([]models.Note, error)
}

// Notifier receives engine callbacks. Implementations must not block.
type Notifier interface {
	SessionRedraw(id string)
	NodeActivated(id string, note models.Note)
	SessionClosed(id string)
}

// Options configures a Manager.
type Options struct {
	// TTL removes sessions idle for longer; zero disables the sweep.
	TTL      time.Duration
	FontSize float64
	Engine   graph.Options
	// MaxSessions caps concurrent sessions; zero means unlimited.
	MaxSessions int
}

// Info is the externally visible state of a session.
type Info struct {
	ID       string         `json:"id"`
	Width    int            `json:"width"`
	Height   int            `json:"height"`
	Viewport graph.Viewport `json:"viewport"`
	Selected int            `json:"selected"`
	Gesture  string         `json:"gesture"`
	Nodes    int            `json:"nodes"`
	Edges    int            `json:"edges"`
	Dangling []string       `json:"dangling"`
	LastUsed time.Time      `json:"last_used"`
}

// Session is one engine plus its cached frame. All access goes through mu.
type Session struct {
	id string

	mu       sync.Mutex
	engine   *graph.Engine
	width    int
	height   int
	lastUsed time.Time
	frame    []byte
	etag     string
	dirty    bool
}

// host adapts engine callbacks to the session and the notifier. notify is
// attached once the session is registered and only touched under s.mu.
type host struct {
	s      *Session
	notify Notifier
}

// RequestRedraw runs with s.mu held.
func (h *host) RequestRedraw() {
	h.s.dirty = true
	if h.notify != nil {
		h.notify.SessionRedraw(h.s.id)
	}
}

func (h *host) NodeActivated(n models.Note) {
	if h.notify != nil {
		h.notify.NodeActivated(h.s.id, n)
	}
}

func (s *Session) info() Info {
	sel := s.engine.Selected()
	return Info{
		ID:       s.id,
		Width:    s.width,
		Height:   s.height,
		Viewport: s.engine.Viewport(),
		Selected: sel,
		Gesture:  s.engine.GestureState().String(),
		Nodes:    len(s.engine.Positions()),
		Edges:    len(s.engine.Edges()),
		Dangling: nonNil(s.engine.Dangling()),
		LastUsed: s.lastUsed,
	}
}

// Manager owns every live session.
type Manager struct {
	src    Source
	notify Notifier
	opts   Options
	logger *slog.Logger
	now    func() time.Time

	// refreshMu orders snapshot loads with their pushes so an older
	// snapshot never replaces a newer one.
	refreshMu sync.Mutex

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager returns an empty manager. notify may be nil.
func NewManager(src Source, notify Notifier, opts Options, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		src:      src,
		notify:   notify,
		opts:     opts,
		logger:   logger,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func validSize(w, h int) error {
	if w <= 0 || h <= 0 || w > MaxSide || h > MaxSide {
		return fmt.Errorf("%w: surface size %dx%d outside 1..%d", apperr.ErrInvalid, w, h, MaxSide)
	}
	return nil
}

// Create starts a session for a w×h surface loaded with the current notes.
func (m *Manager) Create(ctx context.Context, w, h int) (Info, error) {
	if err := validSize(w, h); err != nil {
		return Info{}, err
	}
	if m.full() {
		return Info{}, m.limitErr()
	}

	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	notes, err := m.src.ListAll(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("session: load notes: %w", err)
	}

	s := &Session{id: uuid.NewString(), width: w, height: h, lastUsed: m.now(), dirty: true}
	hst := &host{s: s}
	s.engine = graph.NewEngine(hst, m.opts.Engine)

	s.mu.Lock()
	s.engine.Resize(float64(w), float64(h))
	s.engine.SetNotes(notes)
	info := s.info()
	s.mu.Unlock()

	m.mu.Lock()
	if m.opts.MaxSessions > 0 && len(m.sessions) >= m.opts.MaxSessions {
		m.mu.Unlock()
		return Info{}, m.limitErr()
	}
	m.sessions[s.id] = s
	m.mu.Unlock()

	s.mu.Lock()
	hst.notify = m.notify
	s.mu.Unlock()

	m.logger.Debug("session: created", slog.String("id", s.id), slog.Int("notes", len(notes)))
	return info, nil
}

func (m *Manager) full() bool {
	if m.opts.MaxSessions <= 0 {
		return false
	}
	return m.Len() >= m.opts.MaxSessions
}

func (m *Manager) limitErr() error {
	return fmt.Errorf("%w: session limit %d reached", apperr.ErrConflict, m.opts.MaxSessions)
}

func (m *Manager) get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	return s, nil
}

// with runs fn on session id under its lock and marks it used.
func (m *Manager) with(id string, fn func(s *Session) error) error {
	s, err := m.get(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastUsed = m.now()
	return fn(s)
}

// Get returns the state of session id.
func (m *Manager) Get(id string) (Info, error) {
	var info Info
	err := m.with(id, func(s *Session) error {
		info = s.info()
		return nil
	})
	return info, err
}

// List returns every live session.
func (m *Manager) List() []Info {
	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	out := make([]Info, 0, len(all))
	for _, s := range all {
		s.mu.Lock()
		out = append(out, s.info())
		s.mu.Unlock()
	}
	return out
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Events feeds evs to the engine in order. Events without a timestamp are
// stamped with the current time.
func (m *Manager) Events(id string, evs []graph.Event) ([]graph.Effects, Info, error) {
	var (
		out  []graph.Effects
		info Info
	)
	err := m.with(id, func(s *Session) error {
		out = make([]graph.Effects, 0, len(evs))
		for _, ev := range evs {
			if ev.Time.IsZero() {
				ev.Time = m.now()
			}
			out = append(out, s.engine.HandleEvent(ev))
		}
		info = s.info()
		return nil
	})
	return out, info, err
}

// Resize updates the surface size of session id.
func (m *Manager) Resize(id string, w, h int) (Info, error) {
	if err := validSize(w, h); err != nil {
		return Info{}, err
	}
	var info Info
	err := m.with(id, func(s *Session) error {
		s.width, s.height = w, h
		s.engine.Resize(float64(w), float64(h))
		s.dirty = true
		info = s.info()
		return nil
	})
	return info, err
}

// ResetView re-centres session id at scale 1.
func (m *Manager) ResetView(id string) (Info, error) {
	var info Info
	err := m.with(id, func(s *Session) error {
		s.engine.ResetView()
		info = s.info()
		return nil
	})
	return info, err
}

// Refresh reloads the notes of session id.
func (m *Manager) Refresh(ctx context.Context, id string) (Info, error) {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	notes, err := m.src.ListAll(ctx)
	if err != nil {
		return Info{}, fmt.Errorf("session: load notes: %w", err)
	}
	var info Info
	err = m.with(id, func(s *Session) error {
		s.engine.SetNotes(notes)
		info = s.info()
		return nil
	})
	return info, err
}

// RefreshAll reloads every session from one snapshot. It does not count as
// use for the idle sweep.
func (m *Manager) RefreshAll(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	m.mu.RLock()
	empty := len(m.sessions) == 0
	m.mu.RUnlock()
	if empty {
		return nil
	}
	notes, err := m.src.ListAll(ctx)
	if err != nil {
		return fmt.Errorf("session: load notes: %w", err)
	}

	m.mu.RLock()
	all := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		all = append(all, s)
	}
	m.mu.RUnlock()

	for _, s := range all {
		s.mu.Lock()
		s.engine.SetNotes(notes)
		s.mu.Unlock()
	}
	return nil
}

// Frame returns the PNG for the current state of session id and its ETag.
// The image is re-rendered only after something requested a redraw.
func (m *Manager) Frame(id string) ([]byte, string, error) {
	var (
		data []byte
		etag string
	)
	err := m.with(id, func(s *Session) error {
		if s.dirty || s.frame == nil {
			p, err := canvas.New(s.width, s.height, m.opts.FontSize)
			if err != nil {
				return err
			}
			s.engine.Render(p)
			frame, err := p.Bytes()
			if err != nil {
				return err
			}
			s.frame, s.etag, s.dirty = frame, checksum.Sum(frame), false
		}
		data, etag = s.frame, s.etag
		return nil
	})
	return data, etag, err
}

// Delete closes session id.
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	_, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s: %w", id, apperr.ErrNotFound)
	}
	if m.notify != nil {
		m.notify.SessionClosed(id)
	}
	return nil
}

// Sweep closes sessions idle longer than the TTL and returns how many.
func (m *Manager) Sweep() int {
	if m.opts.TTL <= 0 {
		return 0
	}
	cutoff := m.now().Add(-m.opts.TTL)

	m.mu.RLock()
	var stale []string
	for id, s := range m.sessions {
		s.mu.Lock()
		if s.lastUsed.Before(cutoff) {
			stale = append(stale, id)
		}
		s.mu.Unlock()
	}
	m.mu.RUnlock()

	n := 0
	for _, id := range stale {
		if m.Delete(id) == nil {
			n++
			m.logger.Debug("session: expired", slog.String("id", id))
		}
	}
	return n
}

// Run sweeps idle sessions until ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	if m.opts.TTL <= 0 {
		<-ctx.Done()
		return nil
	}
	interval := m.opts.TTL / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	m.logger.Info("session sweeper: started", slog.Duration("ttl", m.opts.TTL))
	for {
		select {
		case <-ctx.Done():
			m.logger.Info("session sweeper: stopped")
			return nil
		case <-ticker.C:
			if n := m.Sweep(); n > 0 {
				m.logger.Info("session sweeper: expired sessions", slog.Int("count", n))
			}
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
