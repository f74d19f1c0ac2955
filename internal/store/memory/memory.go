// Package memory implements the in-process storage backend. It is the
// reference implementation for the contract: true case-insensitive
// substring search and exact ordering, with no persistence across process
// restarts. The conformance harness judges the other backends' native
// dialects against it.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/erizov/notevault/internal/note"
)

// Store holds notes in a process-local map guarded by a RWMutex.
type Store struct {
	mu    sync.RWMutex
	notes map[string]entry
	seq   uint64

	now func() time.Time // overridden in tests
}

// entry pairs a note with its insertion sequence. The sequence breaks ties
// between notes created within the same clock tick so ordering stays exact.
type entry struct {
	note note.Note
	seq  uint64
}

var _ note.Store = (*Store)(nil)

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		notes: make(map[string]entry),
		now:   time.Now,
	}
}

// Name identifies the backend.
func (s *Store) Name() string { return "memory" }

// Add stores a new note under a fresh UUID key.
func (s *Store) Add(ctx context.Context, title, content string, dueAt *time.Time) (string, error) {
	if err := note.ValidateNew(title, content); err != nil {
		return "", err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.NewString()
	s.seq++
	n := note.Note{
		ID:        id,
		Title:     title,
		Content:   content,
		CreatedAt: s.now(),
	}
	if dueAt != nil {
		due := *dueAt
		n.DueAt = &due
	}
	s.notes[id] = entry{note: n, seq: s.seq}
	return id, nil
}

// Get returns a copy of the stored note, or nil if it does not exist.
// Every string is a well-formed key for this backend, so ErrInvalidID
// never occurs here.
func (s *Store) Get(ctx context.Context, id string) (*note.Note, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.notes[id]
	if !ok {
		return nil, nil
	}
	n := cloneNote(e.note)
	return &n, nil
}

// Update applies the supplied fields to an existing note.
func (s *Store) Update(ctx context.Context, id string, fields note.Update) (bool, error) {
	if fields.Empty() {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.notes[id]
	if !ok {
		return false, nil
	}

	if fields.Title != nil {
		e.note.Title = *fields.Title
	}
	if fields.Content != nil {
		e.note.Content = *fields.Content
	}
	if fields.DueAt != nil {
		due := *fields.DueAt
		e.note.DueAt = &due
	}
	s.notes[id] = e
	return true, nil
}

// Delete removes the note, reporting whether it existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.notes[id]; !ok {
		return false, nil
	}
	delete(s.notes, id)
	return true, nil
}

// Search returns notes whose title or content contains query
// case-insensitively, newest first, capped at limit.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]note.Note, error) {
	q := strings.ToLower(query)

	s.mu.RLock()
	matched := make([]entry, 0)
	for _, e := range s.notes {
		if strings.Contains(strings.ToLower(e.note.Title), q) ||
			strings.Contains(strings.ToLower(e.note.Content), q) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sortNewestFirst(matched)
	return collect(matched, limit), nil
}

// Recent returns the limit most recently created notes, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]note.Note, error) {
	s.mu.RLock()
	all := make([]entry, 0, len(s.notes))
	for _, e := range s.notes {
		all = append(all, e)
	}
	s.mu.RUnlock()

	sortNewestFirst(all)
	return collect(all, limit), nil
}

// UpcomingReminders returns notes due within [now, now+hours], soonest
// first.
func (s *Store) UpcomingReminders(ctx context.Context, hours int) ([]note.Note, error) {
	now := s.now()
	until := now.Add(time.Duration(hours) * time.Hour)

	s.mu.RLock()
	due := make([]entry, 0)
	for _, e := range s.notes {
		d := e.note.DueAt
		if d == nil {
			continue
		}
		if !d.Before(now) && !d.After(until) {
			due = append(due, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(due, func(i, j int) bool {
		di, dj := *due[i].note.DueAt, *due[j].note.DueAt
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return due[i].seq < due[j].seq
	})
	return collect(due, len(due)), nil
}

// Stats summarizes the store's contents.
func (s *Store) Stats(ctx context.Context) (note.Stats, error) {
	weekAgo := s.now().Add(-note.RecentWindow)

	s.mu.RLock()
	defer s.mu.RUnlock()

	st := note.Stats{Total: len(s.notes)}
	for _, e := range s.notes {
		if e.note.HasReminder() {
			st.WithReminder++
		} else {
			st.WithoutReminder++
		}
		if !e.note.CreatedAt.Before(weekAgo) {
			st.RecentCount++
		}
	}
	return st, nil
}

// Truncate removes every note.
func (s *Store) Truncate(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.notes = make(map[string]entry)
	return nil
}

// Close is a no-op: there is no underlying connection.
func (s *Store) Close() error { return nil }

func sortNewestFirst(entries []entry) {
	sort.Slice(entries, func(i, j int) bool {
		ci, cj := entries[i].note.CreatedAt, entries[j].note.CreatedAt
		if !ci.Equal(cj) {
			return ci.After(cj)
		}
		return entries[i].seq > entries[j].seq
	})
}

func collect(entries []entry, limit int) []note.Note {
	if limit < 0 {
		limit = 0
	}
	if limit > len(entries) {
		limit = len(entries)
	}
	out := make([]note.Note, 0, limit)
	for _, e := range entries[:limit] {
		out = append(out, cloneNote(e.note))
	}
	return out
}

// cloneNote copies a note so callers can never alias stored state.
func cloneNote(n note.Note) note.Note {
	if n.DueAt != nil {
		due := *n.DueAt
		n.DueAt = &due
	}
	return n
}
