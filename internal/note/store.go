package note

import (
	"context"
	"time"
)

// Store is the storage contract. All six backends implement it with the
// same observable semantics; only the physical id format and the native
// search dialect differ. A Store must tolerate concurrent calls from
// multiple goroutines: implementations are stateless apart from a pooled
// connection, or guard their state with a lock. Absence of a record is
// reported through nil pointers and false booleans, never through an error.
type Store interface {
	// Add stores a new note and returns its assigned id. The backend
	// assigns created_at at insertion time; dueAt is optional. An empty
	// title or content fails with ErrValidation.
	Add(ctx context.Context, title, content string, dueAt *time.Time) (string, error)

	// Get returns the note with the given id, or nil if no such note
	// exists. A malformed id fails with ErrInvalidID.
	Get(ctx context.Context, id string) (*Note, error)

	// Update applies the supplied fields to an existing note and reports
	// whether a note was modified. It returns false when no fields are
	// supplied or the id does not exist. ID and created_at are immutable.
	Update(ctx context.Context, id string, fields Update) (bool, error)

	// Delete removes the note with the given id, reporting whether a note
	// actually existed. Deleting an absent id is not an error.
	Delete(ctx context.Context, id string) (bool, error)

	// Search returns up to limit notes whose title or content matches
	// query case-insensitively (substring, or the backend's closest
	// native equivalent), newest first.
	Search(ctx context.Context, query string, limit int) ([]Note, error)

	// Recent returns the limit most recently created notes, newest first.
	Recent(ctx context.Context, limit int) ([]Note, error)

	// UpcomingReminders returns notes whose due time falls within
	// [now, now+hours], soonest first. Notes without a due time are
	// excluded.
	UpcomingReminders(ctx context.Context, hours int) ([]Note, error)

	// Stats summarizes the backend's contents as of the call.
	Stats(ctx context.Context) (Stats, error)

	// Truncate removes every note. The conformance harness uses it to
	// reset state between runs.
	Truncate(ctx context.Context) error

	// Name identifies the backend ("postgres", "memory", ...).
	Name() string

	// Close releases the underlying connection or session state.
	Close() error
}
