// Package postgres implements the relational storage backend on a pgx
// connection pool. Ids are the table's auto-assigned integers, exposed as
// decimal strings at the contract boundary.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/erizov/notevault/internal/note"
)

const schema = `
CREATE TABLE IF NOT EXISTS notes (
	id         BIGSERIAL PRIMARY KEY,
	title      TEXT NOT NULL,
	content    TEXT NOT NULL,
	due_at     TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

const noteColumns = "id, title, content, due_at, created_at"

// Store maps the contract onto the notes table. Every call borrows a
// connection from the pool and releases it before returning; the pool is
// safe for concurrent callers.
type Store struct {
	pool *pgxpool.Pool
}

var _ note.Store = (*Store)(nil)

// Open connects to the database, verifies the connection, and ensures the
// notes table exists.
func Open(ctx context.Context, connString string) (*Store, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", note.ErrUnavailable, err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: ping: %v", note.ErrUnavailable, err)
	}

	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("%w: create schema: %v", note.ErrUnavailable, err)
	}

	return &Store{pool: pool}, nil
}

// Name identifies the backend.
func (s *Store) Name() string { return "postgres" }

// Add inserts a note and returns the engine-assigned id.
func (s *Store) Add(ctx context.Context, title, content string, dueAt *time.Time) (string, error) {
	if err := note.ValidateNew(title, content); err != nil {
		return "", err
	}

	var id int64
	err := s.pool.QueryRow(ctx,
		`INSERT INTO notes (title, content, due_at) VALUES ($1, $2, $3) RETURNING id`,
		title, content, dueAt,
	).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%w: insert note: %v", note.ErrQueryFailed, err)
	}
	return strconv.FormatInt(id, 10), nil
}

// Get returns the note with the given id, or nil if it does not exist.
func (s *Store) Get(ctx context.Context, id string) (*note.Note, error) {
	key, err := parseID(id)
	if err != nil {
		return nil, err
	}

	row := s.pool.QueryRow(ctx,
		`SELECT `+noteColumns+` FROM notes WHERE id = $1`, key)
	n, err := scanNote(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: get note: %v", note.ErrQueryFailed, err)
	}
	return n, nil
}

// Update applies the supplied fields through a dynamically built SET
// clause.
func (s *Store) Update(ctx context.Context, id string, fields note.Update) (bool, error) {
	if fields.Empty() {
		return false, nil
	}
	key, err := parseID(id)
	if err != nil {
		return false, err
	}

	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if fields.Title != nil {
		args = append(args, *fields.Title)
		sets = append(sets, fmt.Sprintf("title = $%d", len(args)))
	}
	if fields.Content != nil {
		args = append(args, *fields.Content)
		sets = append(sets, fmt.Sprintf("content = $%d", len(args)))
	}
	if fields.DueAt != nil {
		args = append(args, *fields.DueAt)
		sets = append(sets, fmt.Sprintf("due_at = $%d", len(args)))
	}
	args = append(args, key)

	tag, err := s.pool.Exec(ctx,
		fmt.Sprintf("UPDATE notes SET %s WHERE id = $%d", strings.Join(sets, ", "), len(args)),
		args...)
	if err != nil {
		return false, fmt.Errorf("%w: update note: %v", note.ErrQueryFailed, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Delete removes the note, reporting whether a row existed.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	key, err := parseID(id)
	if err != nil {
		return false, err
	}

	tag, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE id = $1`, key)
	if err != nil {
		return false, fmt.Errorf("%w: delete note: %v", note.ErrQueryFailed, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Search matches both text columns with a two-sided ILIKE pattern.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]note.Note, error) {
	// A negative limit is a server-side error; cap it here like the
	// other backends
	if limit <= 0 {
		return []note.Note{}, nil
	}

	pattern := "%" + escapeLike(query) + "%"
	rows, err := s.pool.Query(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE title ILIKE $1 OR content ILIKE $1
		 ORDER BY created_at DESC, id DESC
		 LIMIT $2`,
		pattern, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: search notes: %v", note.ErrQueryFailed, err)
	}
	return scanNotes(rows)
}

// Recent returns the limit most recently created notes.
func (s *Store) Recent(ctx context.Context, limit int) ([]note.Note, error) {
	if limit <= 0 {
		return []note.Note{}, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+noteColumns+` FROM notes
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%w: recent notes: %v", note.ErrQueryFailed, err)
	}
	return scanNotes(rows)
}

// UpcomingReminders returns notes due within [now, now+hours].
func (s *Store) UpcomingReminders(ctx context.Context, hours int) ([]note.Note, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+noteColumns+` FROM notes
		 WHERE due_at IS NOT NULL
		   AND due_at >= now()
		   AND due_at <= now() + $1 * INTERVAL '1 hour'
		 ORDER BY due_at ASC`, hours)
	if err != nil {
		return nil, fmt.Errorf("%w: upcoming reminders: %v", note.ErrQueryFailed, err)
	}
	return scanNotes(rows)
}

// Stats runs a single conditional-aggregation query over the table.
func (s *Store) Stats(ctx context.Context) (note.Stats, error) {
	var st note.Stats
	err := s.pool.QueryRow(ctx,
		`SELECT COUNT(*),
		        COUNT(*) FILTER (WHERE due_at IS NOT NULL),
		        COUNT(*) FILTER (WHERE due_at IS NULL),
		        COUNT(*) FILTER (WHERE created_at >= now() - INTERVAL '7 days')
		 FROM notes`,
	).Scan(&st.Total, &st.WithReminder, &st.WithoutReminder, &st.RecentCount)
	if err != nil {
		return note.Stats{}, fmt.Errorf("%w: stats: %v", note.ErrQueryFailed, err)
	}
	return st, nil
}

// Truncate wipes the table and resets the id sequence.
func (s *Store) Truncate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, `TRUNCATE notes RESTART IDENTITY`); err != nil {
		return fmt.Errorf("%w: truncate notes: %v", note.ErrQueryFailed, err)
	}
	return nil
}

// Close closes the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func parseID(id string) (int64, error) {
	key, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer id", note.ErrInvalidID, id)
	}
	return key, nil
}

// escapeLike neutralizes LIKE metacharacters so user input only ever
// matches literally.
func escapeLike(q string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(q)
}

func scanNote(row pgx.Row) (*note.Note, error) {
	var (
		id    int64
		n     note.Note
		dueAt *time.Time
	)
	if err := row.Scan(&id, &n.Title, &n.Content, &dueAt, &n.CreatedAt); err != nil {
		return nil, err
	}
	n.ID = strconv.FormatInt(id, 10)
	n.DueAt = dueAt
	return &n, nil
}

func scanNotes(rows pgx.Rows) ([]note.Note, error) {
	defer rows.Close()

	notes := make([]note.Note, 0)
	for rows.Next() {
		n, err := scanNote(rows)
		if err != nil {
			return nil, fmt.Errorf("%w: scan note: %v", note.ErrQueryFailed, err)
		}
		notes = append(notes, *n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: read rows: %v", note.ErrQueryFailed, err)
	}
	return notes, nil
}
