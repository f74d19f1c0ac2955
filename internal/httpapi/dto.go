// Package httpapi provides the HTTP surface over the storage contract: the
// note resource the remote-proxy backend speaks to, plus the monitoring
// endpoints. It consumes the contract and adds nothing to it.
package httpapi

import (
	"time"

	"github.com/erizov/notevault/internal/note"
)

// CreateNoteRequest represents a note creation request
type CreateNoteRequest struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	DueAt   *time.Time `json:"due_at,omitempty"`
}

// CreateNoteResponse carries the id assigned by the backend
type CreateNoteResponse struct {
	ID string `json:"id"`
}

// UpdateNoteRequest represents a partial update; omitted fields are left
// untouched
type UpdateNoteRequest struct {
	Title   *string    `json:"title,omitempty"`
	Content *string    `json:"content,omitempty"`
	DueAt   *time.Time `json:"due_at,omitempty"`
}

// UpdateNoteResponse reports whether a note was modified
type UpdateNoteResponse struct {
	Updated bool `json:"updated"`
}

// DeleteNoteResponse reports whether a note existed
type DeleteNoteResponse struct {
	Deleted bool `json:"deleted"`
}

// NotesResponse wraps a note listing
type NotesResponse struct {
	Notes []note.Note `json:"notes"`
	Count int         `json:"count"`
}

// HealthResponse represents the monitoring surface: liveness, the active
// backend name, and the total note count
type HealthResponse struct {
	Status  string `json:"status"`
	Backend string `json:"backend"`
	Total   int    `json:"total"`
}

// ErrorResponse represents API error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Machine-readable error codes carried in ErrorResponse.Code. The remote
// adapter maps them back into the contract's error taxonomy.
const (
	CodeValidation  = "validation"
	CodeInvalidID   = "invalid_id"
	CodeNotFound    = "not_found"
	CodeUnavailable = "unavailable"
	CodeQueryFailed = "query_failed"
)
