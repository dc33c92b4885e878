// Package noteservice validates note input and coordinates the store with
// change listeners.
package noteservice

import (
	"context"
	"fmt"
	"strings"
	"sync"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/mindra/internal/apperr"
	"github.com/starford/mindra/internal/checksum"
	"github.com/starford/mindra/internal/graph"
	"github.com/starford/mindra/internal/models"
	"github.com/starford/mindra/internal/store"
)

// ChangeKind names a note mutation.
type ChangeKind string

const (
	Created ChangeKind = "created"
	Updated ChangeKind = "updated"
	Deleted ChangeKind = "deleted"
	// Cleared reports that every note was removed; the id is zero.
	Cleared ChangeKind = "cleared"
)

// Listener is called after a successful mutation.
type Listener func(kind ChangeKind, id int64)

// Input is the editable part of a note.
type Input struct {
	Title    string `json:"title"`
	Category string `json:"category"`
	Content  string `json:"content"`
}

func (in Input) normalized() Input {
	return Input{
		Title:    strings.TrimSpace(in.Title),
		Category: strings.TrimSpace(in.Category),
		Content:  strings.TrimSpace(in.Content),
	}
}

// Validate checks that every field is present after trimming.
func (in Input) Validate() error {
	n := in.normalized()
	return validation.ValidateStruct(&n,
		validation.Field(&n.Title, validation.Required, validation.RuneLength(1, 200)),
		validation.Field(&n.Category, validation.Required, validation.RuneLength(1, 100)),
		validation.Field(&n.Content, validation.Required),
	)
}

// LinkReport describes the connections of one note.
type LinkReport struct {
	Outgoing []models.Link `json:"outgoing"`
	Incoming []int64       `json:"incoming"`
}

// Service is the note use-case layer shared by the HTTP API, the MCP server
// and the vault importer.
type Service struct {
	store store.NoteStore

	mu        sync.RWMutex
	listeners []Listener
}

// New creates a service on top of st.
func New(st store.NoteStore) *Service {
	return &Service{store: st}
}

// OnChange registers l for every later mutation.
func (s *Service) OnChange(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Notify fans a change out to the listeners. The vault importer calls it for
// changes it makes through the store directly.
func (s *Service) Notify(kind ChangeKind, id int64) {
	s.mu.RLock()
	ls := append([]Listener(nil), s.listeners...)
	s.mu.RUnlock()
	for _, l := range ls {
		l(kind, id)
	}
}

// List returns every note, newest first.
func (s *Service) List(ctx context.Context) ([]models.Note, error) {
	return s.store.ListAll(ctx)
}

// ListAll satisfies the session snapshot source.
func (s *Service) ListAll(ctx context.Context) ([]models.Note, error) {
	return s.store.ListAll(ctx)
}

// ListByCategory returns one category, newest first.
func (s *Service) ListByCategory(ctx context.Context, category string) ([]models.Note, error) {
	return s.store.ListByCategory(ctx, category)
}

// Get returns one note.
func (s *Service) Get(ctx context.Context, id int64) (models.Note, error) {
	return s.store.Get(ctx, id)
}

// Search delegates to the store.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]store.SearchResult, error) {
	return s.store.Search(ctx, query, limit)
}

// Create validates in and stores a new note.
func (s *Service) Create(ctx context.Context, in Input) (models.Note, error) {
	if err := in.Validate(); err != nil {
		return models.Note{}, invalid(err)
	}
	in = in.normalized()
	n, err := s.store.Insert(ctx, models.Note{Title: in.Title, Category: in.Category, Content: in.Content})
	if err != nil {
		return models.Note{}, err
	}
	s.Notify(Created, n.ID)
	return n, nil
}

// Update replaces the editable fields of note id. A non-empty ifMatch must
// equal the current ETag of the note.
func (s *Service) Update(ctx context.Context, id int64, in Input, ifMatch string) (models.Note, error) {
	if err := in.Validate(); err != nil {
		return models.Note{}, invalid(err)
	}
	current, err := s.store.Get(ctx, id)
	if err != nil {
		return models.Note{}, err
	}
	if ifMatch != "" && ifMatch != ETag(current) {
		return models.Note{}, apperr.ErrConflict
	}
	in = in.normalized()
	current.Title, current.Category, current.Content = in.Title, in.Category, in.Content
	n, err := s.store.Update(ctx, current)
	if err != nil {
		return models.Note{}, err
	}
	s.Notify(Updated, n.ID)
	return n, nil
}

// Delete removes note id.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.Notify(Deleted, id)
	return nil
}

// DeleteAll removes every note.
func (s *Service) DeleteAll(ctx context.Context) (int64, error) {
	n, err := s.store.DeleteAll(ctx)
	if err != nil {
		return 0, err
	}
	s.Notify(Cleared, 0)
	return n, nil
}

// Links resolves the outgoing labels of note id against the titles of all
// notes and lists the notes that link to it. Matching is literal, the same
// as the graph view.
func (s *Service) Links(ctx context.Context, id int64) (LinkReport, error) {
	target, err := s.store.Get(ctx, id)
	if err != nil {
		return LinkReport{}, err
	}
	notes, err := s.store.ListAll(ctx)
	if err != nil {
		return LinkReport{}, err
	}
	titles := graph.BuildTitleIndex(notes)
	links := graph.BuildLinkIndex(notes)

	report := LinkReport{Outgoing: []models.Link{}, Incoming: []int64{}}
	for _, label := range target.Links {
		if len(titles[label]) == 0 {
			report.Outgoing = append(report.Outgoing, models.Link{Label: label, Source: id, Dangling: true})
			continue
		}
		for _, j := range titles[label] {
			if notes[j].ID != id {
				report.Outgoing = append(report.Outgoing, models.Link{Label: label, Source: id, Target: notes[j].ID})
			}
		}
	}
	for _, i := range links[target.Title] {
		if notes[i].ID != id {
			report.Incoming = append(report.Incoming, notes[i].ID)
		}
	}
	return report, nil
}

// ETag fingerprints the editable fields of n.
func ETag(n models.Note) string {
	return checksum.Sum([]byte(n.Title + "\x00" + n.Category + "\x00" + n.Content))
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", apperr.ErrInvalid, err)
}
