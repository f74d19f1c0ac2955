// Package cassandra implements the wide-column storage backend on gocql.
//
// The engine has no substring predicate for scalar text columns, so Search
// reads the whole table and filters in the adapter; Stats likewise scans
// for its per-row sub-counts. Both are O(N) per call with weaker
// consistency than the other backends, and are only acceptable at small
// scale. The cost is kept explicit rather than papered over with a
// full-text index, which would change the engine footprint this backend
// is meant to have.
package cassandra

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gocql/gocql"

	"github.com/erizov/notevault/internal/note"
)

// Config carries the cluster connection parameters.
type Config struct {
	Hosts    []string
	Port     int
	Keyspace string
	Username string
	Password string
}

// Store maps notes onto a single-partition-per-row table keyed by a
// generated UUID. The gocql session pools connections internally and is
// safe for concurrent callers.
type Store struct {
	session *gocql.Session
}

const noteColumns = "id, title, content, due_at, created_at"

var _ note.Store = (*Store)(nil)

// Open connects to the cluster, ensures the keyspace, table, and
// secondary indexes, and returns a session scoped to the keyspace.
func Open(cfg Config) (*Store, error) {
	admin, err := newCluster(cfg, "").CreateSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", note.ErrUnavailable, err)
	}
	if err := ensureSchema(admin, cfg.Keyspace); err != nil {
		admin.Close()
		return nil, fmt.Errorf("%w: ensure schema: %v", note.ErrUnavailable, err)
	}
	admin.Close()

	session, err := newCluster(cfg, cfg.Keyspace).CreateSession()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", note.ErrUnavailable, err)
	}
	return &Store{session: session}, nil
}

func newCluster(cfg Config, keyspace string) *gocql.ClusterConfig {
	cluster := gocql.NewCluster(cfg.Hosts...)
	if cfg.Port != 0 {
		cluster.Port = cfg.Port
	}
	if keyspace != "" {
		cluster.Keyspace = keyspace
	}
	if cfg.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: cfg.Username,
			Password: cfg.Password,
		}
	}
	return cluster
}

func ensureSchema(session *gocql.Session, keyspace string) error {
	stmts := []string{
		fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
			WITH REPLICATION = {'class': 'SimpleStrategy', 'replication_factor': 1}`, keyspace),
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s.notes (
			id uuid PRIMARY KEY,
			title text,
			content text,
			due_at timestamp,
			created_at timestamp
		)`, keyspace),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS notes_title_idx ON %s.notes (title)`, keyspace),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS notes_created_at_idx ON %s.notes (created_at)`, keyspace),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS notes_due_at_idx ON %s.notes (due_at)`, keyspace),
	}
	for _, stmt := range stmts {
		if err := session.Query(stmt).Exec(); err != nil {
			return err
		}
	}
	return nil
}

// Name identifies the backend.
func (s *Store) Name() string { return "cassandra" }

// Add inserts a row under a fresh UUID key.
func (s *Store) Add(ctx context.Context, title, content string, dueAt *time.Time) (string, error) {
	if err := note.ValidateNew(title, content); err != nil {
		return "", err
	}

	id, err := gocql.RandomUUID()
	if err != nil {
		return "", fmt.Errorf("%w: generate id: %v", note.ErrQueryFailed, err)
	}

	err = s.session.Query(
		`INSERT INTO notes (id, title, content, due_at, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, title, content, dueAt, time.Now().UTC(),
	).WithContext(ctx).Exec()
	if err != nil {
		return "", fmt.Errorf("%w: insert note: %v", note.ErrQueryFailed, err)
	}
	return id.String(), nil
}

// Get returns the note with the given id, or nil if no row exists.
func (s *Store) Get(ctx context.Context, id string) (*note.Note, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}

	var (
		title, content   string
		dueAt, createdAt time.Time
	)
	err = s.session.Query(
		`SELECT title, content, due_at, created_at FROM notes WHERE id = ?`, key,
	).WithContext(ctx).Scan(&title, &content, &dueAt, &createdAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get note: %v", note.ErrQueryFailed, err)
	}

	n := buildNote(key, title, content, dueAt, createdAt)
	return &n, nil
}

// Update applies the supplied fields. CQL UPDATE is an upsert, so the row
// is read first; an absent id reports false instead of creating a ghost
// row.
func (s *Store) Update(ctx context.Context, id string, fields note.Update) (bool, error) {
	if fields.Empty() {
		return false, nil
	}
	key, err := parseID(id)
	if err != nil {
		return false, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if fields.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *fields.Title)
	}
	if fields.Content != nil {
		sets = append(sets, "content = ?")
		args = append(args, *fields.Content)
	}
	if fields.DueAt != nil {
		sets = append(sets, "due_at = ?")
		args = append(args, fields.DueAt.UTC())
	}
	args = append(args, key)

	err = s.session.Query(
		fmt.Sprintf("UPDATE notes SET %s WHERE id = ?", strings.Join(sets, ", ")), args...,
	).WithContext(ctx).Exec()
	if err != nil {
		return false, fmt.Errorf("%w: update note: %v", note.ErrQueryFailed, err)
	}
	return true, nil
}

// Delete removes the row. The engine does not report whether one existed,
// so existence is checked first to keep the contract's boolean honest.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	key, err := parseID(id)
	if err != nil {
		return false, err
	}

	existing, err := s.Get(ctx, id)
	if err != nil {
		return false, err
	}
	if existing == nil {
		return false, nil
	}

	err = s.session.Query(`DELETE FROM notes WHERE id = ?`, key).WithContext(ctx).Exec()
	if err != nil {
		return false, fmt.Errorf("%w: delete note: %v", note.ErrQueryFailed, err)
	}
	return true, nil
}

// Search scans the whole table and filters for a case-insensitive
// substring match. O(N) per call; see the package comment.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]note.Note, error) {
	all, err := s.scanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: search notes: %v", note.ErrQueryFailed, err)
	}

	q := strings.ToLower(query)
	matched := make([]note.Note, 0)
	for _, n := range all {
		if strings.Contains(strings.ToLower(n.Title), q) ||
			strings.Contains(strings.ToLower(n.Content), q) {
			matched = append(matched, n)
		}
	}

	sortNewestFirst(matched)
	return capped(matched, limit), nil
}

// Recent scans and orders client-side: rows live in separate partitions,
// so the engine cannot order them by created_at itself.
func (s *Store) Recent(ctx context.Context, limit int) ([]note.Note, error) {
	all, err := s.scanAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: recent notes: %v", note.ErrQueryFailed, err)
	}
	sortNewestFirst(all)
	return capped(all, limit), nil
}

// UpcomingReminders filters server-side on the due_at range; ALLOW
// FILTERING makes the unrestricted-index scan explicit.
func (s *Store) UpcomingReminders(ctx context.Context, hours int) ([]note.Note, error) {
	now := time.Now().UTC()
	until := now.Add(time.Duration(hours) * time.Hour)

	iter := s.session.Query(
		`SELECT `+noteColumns+` FROM notes WHERE due_at >= ? AND due_at <= ? ALLOW FILTERING`,
		now, until,
	).WithContext(ctx).Iter()
	due, err := collectRows(iter)
	if err != nil {
		return nil, fmt.Errorf("%w: upcoming reminders: %v", note.ErrQueryFailed, err)
	}

	sort.Slice(due, func(i, j int) bool { return due[i].DueAt.Before(*due[j].DueAt) })
	return due, nil
}

// Stats counts the table server-side and computes the sub-counts from a
// full scan; CQL cannot filter on a null timestamp.
func (s *Store) Stats(ctx context.Context) (note.Stats, error) {
	var total int
	err := s.session.Query(`SELECT COUNT(*) FROM notes`).WithContext(ctx).Scan(&total)
	if err != nil {
		return note.Stats{}, fmt.Errorf("%w: stats: %v", note.ErrQueryFailed, err)
	}

	all, err := s.scanAll(ctx)
	if err != nil {
		return note.Stats{}, fmt.Errorf("%w: stats: %v", note.ErrQueryFailed, err)
	}

	weekAgo := time.Now().UTC().Add(-note.RecentWindow)
	st := note.Stats{Total: total}
	for _, n := range all {
		if n.HasReminder() {
			st.WithReminder++
		} else {
			st.WithoutReminder++
		}
		if !n.CreatedAt.Before(weekAgo) {
			st.RecentCount++
		}
	}
	return st, nil
}

// Truncate wipes the table.
func (s *Store) Truncate(ctx context.Context) error {
	if err := s.session.Query(`TRUNCATE notes`).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("%w: truncate notes: %v", note.ErrQueryFailed, err)
	}
	return nil
}

// Close shuts the session down.
func (s *Store) Close() error {
	s.session.Close()
	return nil
}

func (s *Store) scanAll(ctx context.Context) ([]note.Note, error) {
	iter := s.session.Query(`SELECT ` + noteColumns + ` FROM notes`).WithContext(ctx).Iter()
	return collectRows(iter)
}

func collectRows(iter *gocql.Iter) ([]note.Note, error) {
	var (
		id               gocql.UUID
		title, content   string
		dueAt, createdAt time.Time
	)
	notes := make([]note.Note, 0)
	for iter.Scan(&id, &title, &content, &dueAt, &createdAt) {
		notes = append(notes, buildNote(id, title, content, dueAt, createdAt))
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return notes, nil
}

// buildNote translates a row; a zero due_at timestamp is the engine's
// rendering of a null column.
func buildNote(id gocql.UUID, title, content string, dueAt, createdAt time.Time) note.Note {
	n := note.Note{
		ID:        id.String(),
		Title:     title,
		Content:   content,
		CreatedAt: createdAt,
	}
	if !dueAt.IsZero() {
		due := dueAt
		n.DueAt = &due
	}
	return n
}

func parseID(id string) (gocql.UUID, error) {
	key, err := gocql.ParseUUID(id)
	if err != nil {
		return gocql.UUID{}, fmt.Errorf("%w: %q is not a UUID", note.ErrInvalidID, id)
	}
	return key, nil
}

func sortNewestFirst(notes []note.Note) {
	sort.Slice(notes, func(i, j int) bool {
		return notes[i].CreatedAt.After(notes[j].CreatedAt)
	})
}

func capped(notes []note.Note, limit int) []note.Note {
	if limit < 0 {
		limit = 0
	}
	if limit > len(notes) {
		limit = len(notes)
	}
	return notes[:limit]
}
