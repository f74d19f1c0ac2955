// Package neo4j implements the graph storage backend. Each note is a
// singly-labeled Note node; ids are generated UUID strings carried as a
// uniqueness-constrained property.
package neo4j

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	neo4jdrv "github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/google/uuid"

	"github.com/erizov/notevault/internal/note"
)

// Store maps the contract onto Cypher statements. Each call opens one
// session, runs one statement, and closes the session before returning;
// the driver is safe for concurrent use.
type Store struct {
	driver neo4jdrv.DriverWithContext
}

const returnClause = `RETURN n.id AS id, n.title AS title, n.content AS content,
       n.due_at AS due_at, n.created_at AS created_at`

var _ note.Store = (*Store)(nil)

// Open connects to the server, verifies connectivity, and ensures the id
// uniqueness constraint and the created_at/due_at indexes.
func Open(ctx context.Context, uri, user, password string) (*Store, error) {
	driver, err := neo4jdrv.NewDriverWithContext(uri, neo4jdrv.BasicAuth(user, password, ""))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", note.ErrUnavailable, err)
	}

	if err := driver.VerifyConnectivity(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("%w: verify connectivity: %v", note.ErrUnavailable, err)
	}

	s := &Store{driver: driver}
	if err := s.ensureSchema(ctx); err != nil {
		_ = driver.Close(ctx)
		return nil, fmt.Errorf("%w: ensure schema: %v", note.ErrUnavailable, err)
	}
	return s, nil
}

func (s *Store) ensureSchema(ctx context.Context) error {
	stmts := []string{
		`CREATE CONSTRAINT note_id_unique IF NOT EXISTS FOR (n:Note) REQUIRE n.id IS UNIQUE`,
		`CREATE INDEX note_created_at IF NOT EXISTS FOR (n:Note) ON (n.created_at)`,
		`CREATE INDEX note_due_at IF NOT EXISTS FOR (n:Note) ON (n.due_at)`,
	}
	for _, stmt := range stmts {
		if _, err := s.run(ctx, stmt, nil); err != nil {
			return err
		}
	}
	return nil
}

// Name identifies the backend.
func (s *Store) Name() string { return "neo4j" }

// Add creates a Note node under a fresh UUID.
func (s *Store) Add(ctx context.Context, title, content string, dueAt *time.Time) (string, error) {
	if err := note.ValidateNew(title, content); err != nil {
		return "", err
	}

	id := uuid.NewString()
	params := map[string]any{
		"id":         id,
		"title":      title,
		"content":    content,
		"created_at": time.Now().UTC(),
	}
	// A null property is simply absent in the graph, which is exactly
	// what "no reminder" means here.
	if dueAt != nil {
		params["due_at"] = dueAt.UTC()
	} else {
		params["due_at"] = nil
	}

	_, err := s.run(ctx, `
		CREATE (n:Note {
			id: $id, title: $title, content: $content,
			due_at: $due_at, created_at: $created_at
		})`, params)
	if err != nil {
		return "", err
	}
	return id, nil
}

// Get returns the note with the given id, or nil if no node matches.
// Every string is a well-formed id for this backend.
func (s *Store) Get(ctx context.Context, id string) (*note.Note, error) {
	records, err := s.run(ctx,
		`MATCH (n:Note {id: $id}) `+returnClause,
		map[string]any{"id": id})
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	n, err := recordToNote(records[0])
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// Update sets only the supplied properties via a dynamically built SET
// clause.
func (s *Store) Update(ctx context.Context, id string, fields note.Update) (bool, error) {
	if fields.Empty() {
		return false, nil
	}

	sets := make([]string, 0, 3)
	params := map[string]any{"id": id}
	if fields.Title != nil {
		sets = append(sets, "n.title = $title")
		params["title"] = *fields.Title
	}
	if fields.Content != nil {
		sets = append(sets, "n.content = $content")
		params["content"] = *fields.Content
	}
	if fields.DueAt != nil {
		sets = append(sets, "n.due_at = $due_at")
		params["due_at"] = fields.DueAt.UTC()
	}

	records, err := s.run(ctx, fmt.Sprintf(
		`MATCH (n:Note {id: $id}) SET %s RETURN n.id AS id`,
		strings.Join(sets, ", ")), params)
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// Delete removes the matched node; no match reports false, not an error.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	records, err := s.run(ctx, `
		MATCH (n:Note {id: $id})
		WITH n, n.id AS id
		DELETE n
		RETURN id`, map[string]any{"id": id})
	if err != nil {
		return false, err
	}
	return len(records) > 0, nil
}

// Search matches both properties with a case-insensitive regex in
// Cypher's pattern syntax.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]note.Note, error) {
	// A negative LIMIT is a Cypher error; cap it here like the other
	// backends
	if limit <= 0 {
		return []note.Note{}, nil
	}

	pattern := "(?i).*" + regexp.QuoteMeta(query) + ".*"
	records, err := s.run(ctx, `
		MATCH (n:Note)
		WHERE n.title =~ $pattern OR n.content =~ $pattern
		`+returnClause+`
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $limit`,
		map[string]any{"pattern": pattern, "limit": limit})
	if err != nil {
		return nil, err
	}
	return recordsToNotes(records)
}

// Recent returns the limit most recently created notes.
func (s *Store) Recent(ctx context.Context, limit int) ([]note.Note, error) {
	if limit <= 0 {
		return []note.Note{}, nil
	}

	records, err := s.run(ctx, `
		MATCH (n:Note)
		`+returnClause+`
		ORDER BY n.created_at DESC, n.id DESC
		LIMIT $limit`,
		map[string]any{"limit": limit})
	if err != nil {
		return nil, err
	}
	return recordsToNotes(records)
}

// UpcomingReminders returns notes due within [now, now+hours], soonest
// first.
func (s *Store) UpcomingReminders(ctx context.Context, hours int) ([]note.Note, error) {
	now := time.Now().UTC()
	records, err := s.run(ctx, `
		MATCH (n:Note)
		WHERE n.due_at IS NOT NULL AND n.due_at >= $now AND n.due_at <= $until
		`+returnClause+`
		ORDER BY n.due_at ASC`,
		map[string]any{"now": now, "until": now.Add(time.Duration(hours) * time.Hour)})
	if err != nil {
		return nil, err
	}
	return recordsToNotes(records)
}

// Stats aggregates in a single pass; count(n.due_at) skips null
// properties, which gives the reminder split directly.
func (s *Store) Stats(ctx context.Context) (note.Stats, error) {
	records, err := s.run(ctx, `
		MATCH (n:Note)
		RETURN count(n) AS total,
		       count(n.due_at) AS with_reminder,
		       sum(CASE WHEN n.created_at >= $week_ago THEN 1 ELSE 0 END) AS recent`,
		map[string]any{"week_ago": time.Now().UTC().Add(-note.RecentWindow)})
	if err != nil {
		return note.Stats{}, err
	}
	if len(records) == 0 {
		return note.Stats{}, nil
	}

	total := intValue(records[0], "total")
	with := intValue(records[0], "with_reminder")
	return note.Stats{
		Total:           total,
		WithReminder:    with,
		WithoutReminder: total - with,
		RecentCount:     intValue(records[0], "recent"),
	}, nil
}

// Truncate removes every Note node.
func (s *Store) Truncate(ctx context.Context) error {
	_, err := s.run(ctx, `MATCH (n:Note) DETACH DELETE n`, nil)
	return err
}

// Close closes the driver.
func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.driver.Close(ctx)
}

// run executes one statement in a fresh session and collects the result
// eagerly so the session never outlives the call.
func (s *Store) run(ctx context.Context, cypher string, params map[string]any) ([]*neo4jdrv.Record, error) {
	session := s.driver.NewSession(ctx, neo4jdrv.SessionConfig{})
	defer func() { _ = session.Close(ctx) }()

	result, err := session.Run(ctx, cypher, params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", note.ErrQueryFailed, err)
	}
	records, err := result.Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", note.ErrQueryFailed, err)
	}
	return records, nil
}

func recordToNote(rec *neo4jdrv.Record) (note.Note, error) {
	n := note.Note{
		ID:      stringValue(rec, "id"),
		Title:   stringValue(rec, "title"),
		Content: stringValue(rec, "content"),
	}

	if v, ok := rec.Get("created_at"); ok {
		if t, ok := v.(time.Time); ok {
			n.CreatedAt = t
		}
	}
	if v, ok := rec.Get("due_at"); ok && v != nil {
		if t, ok := v.(time.Time); ok {
			n.DueAt = &t
		}
	}
	if n.ID == "" {
		return n, fmt.Errorf("%w: node missing id property", note.ErrQueryFailed)
	}
	return n, nil
}

func recordsToNotes(records []*neo4jdrv.Record) ([]note.Note, error) {
	notes := make([]note.Note, 0, len(records))
	for _, rec := range records {
		n, err := recordToNote(rec)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	return notes, nil
}

func stringValue(rec *neo4jdrv.Record, key string) string {
	if v, ok := rec.Get(key); ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func intValue(rec *neo4jdrv.Record, key string) int {
	if v, ok := rec.Get(key); ok {
		if n, ok := v.(int64); ok {
			return int(n)
		}
	}
	return 0
}
