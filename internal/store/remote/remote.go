// Package remote implements the remote-proxy backend: every contract call
// is delegated to a notevault API over a shared HTTP client. Transport
// failures (refused connections, timeouts, non-2xx statuses) are mapped
// into the contract's error taxonomy instead of leaking as raw transport
// errors.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/erizov/notevault/internal/note"
)

// Store talks to the remote note resource. The http.Client reuses
// connections across calls and is safe for concurrent use.
type Store struct {
	baseURL string
	client  *http.Client
}

type createRequest struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	DueAt   *time.Time `json:"due_at,omitempty"`
}

type createResponse struct {
	ID string `json:"id"`
}

type updateRequest struct {
	Title   *string    `json:"title,omitempty"`
	Content *string    `json:"content,omitempty"`
	DueAt   *time.Time `json:"due_at,omitempty"`
}

type notesResponse struct {
	Notes []note.Note `json:"notes"`
	Count int         `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

var _ note.Store = (*Store)(nil)

// Open checks that the remote endpoint is reachable and returns the
// adapter. A failed health check is fatal.
func Open(ctx context.Context, baseURL string) (*Store, error) {
	s := &Store{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: 10 * time.Second},
	}
	if err := s.healthCheck(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) healthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/health", nil)
	if err != nil {
		return fmt.Errorf("%w: health check: %v", note.ErrUnavailable, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: health check: %v", note.ErrUnavailable, err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: health check returned %s", note.ErrUnavailable, resp.Status)
	}
	return nil
}

// Name identifies the backend.
func (s *Store) Name() string { return "remote" }

// Add creates the note remotely and returns the id the remote backend
// assigned.
func (s *Store) Add(ctx context.Context, title, content string, dueAt *time.Time) (string, error) {
	resp, err := s.do(ctx, http.MethodPost, "/notes", createRequest{
		Title:   title,
		Content: content,
		DueAt:   dueAt,
	})
	if err != nil {
		return "", err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusCreated {
		return "", s.mapError(resp)
	}
	var out createResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("%w: decode create response: %v", note.ErrQueryFailed, err)
	}
	return out.ID, nil
}

// Get fetches a note; a 404 is the contract's "absent", not an error.
func (s *Store) Get(ctx context.Context, id string) (*note.Note, error) {
	resp, err := s.do(ctx, http.MethodGet, "/notes/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		var n note.Note
		if err := json.NewDecoder(resp.Body).Decode(&n); err != nil {
			return nil, fmt.Errorf("%w: decode note: %v", note.ErrQueryFailed, err)
		}
		return &n, nil
	case http.StatusNotFound:
		return nil, nil
	default:
		return nil, s.mapError(resp)
	}
}

// Update sends only the supplied fields; an empty update never leaves the
// process.
func (s *Store) Update(ctx context.Context, id string, fields note.Update) (bool, error) {
	if fields.Empty() {
		return false, nil
	}

	resp, err := s.do(ctx, http.MethodPut, "/notes/"+url.PathEscape(id), updateRequest{
		Title:   fields.Title,
		Content: fields.Content,
		DueAt:   fields.DueAt,
	})
	if err != nil {
		return false, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, s.mapError(resp)
	}
}

// Delete removes the note remotely; a 404 reports false.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	resp, err := s.do(ctx, http.MethodDelete, "/notes/"+url.PathEscape(id), nil)
	if err != nil {
		return false, err
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, s.mapError(resp)
	}
}

// Search delegates to the remote search endpoint. A non-positive limit
// never leaves the process; the server rejects negative limits.
func (s *Store) Search(ctx context.Context, query string, limit int) ([]note.Note, error) {
	if limit <= 0 {
		return []note.Note{}, nil
	}
	path := "/notes/search?q=" + url.QueryEscape(query) + "&limit=" + strconv.Itoa(limit)
	return s.list(ctx, path)
}

// Recent delegates to the remote listing endpoint.
func (s *Store) Recent(ctx context.Context, limit int) ([]note.Note, error) {
	if limit <= 0 {
		return []note.Note{}, nil
	}
	return s.list(ctx, "/notes?limit="+strconv.Itoa(limit))
}

// UpcomingReminders delegates to the remote reminders endpoint.
func (s *Store) UpcomingReminders(ctx context.Context, hours int) ([]note.Note, error) {
	return s.list(ctx, "/notes/reminders?hours="+strconv.Itoa(hours))
}

// Stats fetches the remote statistics.
func (s *Store) Stats(ctx context.Context) (note.Stats, error) {
	resp, err := s.do(ctx, http.MethodGet, "/stats", nil)
	if err != nil {
		return note.Stats{}, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return note.Stats{}, s.mapError(resp)
	}
	var st note.Stats
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		return note.Stats{}, fmt.Errorf("%w: decode stats: %v", note.ErrQueryFailed, err)
	}
	return st, nil
}

// Truncate wipes the remote store.
func (s *Store) Truncate(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodDelete, "/notes", nil)
	if err != nil {
		return err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusNoContent {
		return s.mapError(resp)
	}
	return nil
}

// Close drops idle connections; the remote endpoint owns its own state.
func (s *Store) Close() error {
	s.client.CloseIdleConnections()
	return nil
}

func (s *Store) list(ctx context.Context, path string) ([]note.Note, error) {
	resp, err := s.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, s.mapError(resp)
	}
	var out notesResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("%w: decode notes: %v", note.ErrQueryFailed, err)
	}
	return out.Notes, nil
}

func (s *Store) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("%w: encode request: %v", note.ErrQueryFailed, err)
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", note.ErrQueryFailed, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", note.ErrUnavailable, err)
	}
	return resp, nil
}

// mapError translates a non-success response into the contract's error
// taxonomy using the machine-readable code when present.
func (s *Store) mapError(resp *http.Response) error {
	var body errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 4096)).Decode(&body)

	msg := body.Error
	if msg == "" {
		msg = resp.Status
	}

	switch body.Code {
	case "validation":
		return fmt.Errorf("%w: %s", note.ErrValidation, msg)
	case "invalid_id":
		return fmt.Errorf("%w: %s", note.ErrInvalidID, msg)
	case "unavailable":
		return fmt.Errorf("%w: %s", note.ErrUnavailable, msg)
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("%w: remote returned %s: %s", note.ErrQueryFailed, resp.Status, msg)
	}
	return fmt.Errorf("%w: unexpected status %s: %s", note.ErrQueryFailed, resp.Status, msg)
}

// drain discards any unread body so the connection can be reused.
func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}
