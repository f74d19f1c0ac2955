// Package note defines the note record, the storage contract every backend
// implements, and the error taxonomy shared across adapters.
package note

import (
	"fmt"
	"time"
)

// Note is a stored note. ID is an opaque handle whose physical format
// depends on the active backend (decimal integer for postgres, ObjectID hex
// for mongo, UUID elsewhere); it is only meaningful within the backend
// instance that issued it.
type Note struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Content   string     `json:"content"`
	DueAt     *time.Time `json:"due_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// HasReminder reports whether the note carries a due time.
func (n Note) HasReminder() bool { return n.DueAt != nil }

// Update carries the fields of a partial update. A nil field is left
// untouched. DueAt can be set but not cleared.
type Update struct {
	Title   *string
	Content *string
	DueAt   *time.Time
}

// Empty reports whether the update carries no fields at all.
func (u Update) Empty() bool {
	return u.Title == nil && u.Content == nil && u.DueAt == nil
}

// Stats summarizes a backend's contents at the time of the call.
type Stats struct {
	Total           int `json:"total"`
	WithReminder    int `json:"with_reminder"`
	WithoutReminder int `json:"without_reminder"`
	RecentCount     int `json:"recent_count"`
}

// RecentWindow is the trailing window counted by Stats.RecentCount.
const RecentWindow = 7 * 24 * time.Hour

// ValidateNew checks the fields of a note about to be created.
func ValidateNew(title, content string) error {
	if title == "" {
		return fmt.Errorf("%w: title must not be empty", ErrValidation)
	}
	if content == "" {
		return fmt.Errorf("%w: content must not be empty", ErrValidation)
	}
	return nil
}
