package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erizov/notevault/internal/libs/obs"
	"github.com/erizov/notevault/internal/note"
	"github.com/erizov/notevault/internal/store/memory"
)

func setupTestRouter(t *testing.T) (http.Handler, note.Store) {
	t.Helper()
	obs.InitLogger("error")
	s := memory.New()
	t.Cleanup(func() { s.Close() })
	h := NewHandler(s, obs.Logger("httpapi-test"))
	return Router(h), s
}

func doJSON(t *testing.T, router http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, dst interface{}) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func createNote(t *testing.T, router http.Handler, title, content string, dueAt *time.Time) string {
	t.Helper()
	rec := doJSON(t, router, http.MethodPost, "/notes", CreateNoteRequest{
		Title:   title,
		Content: content,
		DueAt:   dueAt,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create: status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp CreateNoteResponse
	decodeBody(t, rec, &resp)
	if resp.ID == "" {
		t.Fatal("create returned empty id")
	}
	return resp.ID
}

func TestHealth(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/health", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200", rec.Code)
	}
	var resp HealthResponse
	decodeBody(t, rec, &resp)
	if resp.Status != "healthy" {
		t.Errorf("status = %q, want healthy", resp.Status)
	}
	if resp.Backend != "memory" {
		t.Errorf("backend = %q, want memory", resp.Backend)
	}
}

func TestCreateAndGet(t *testing.T) {
	router, _ := setupTestRouter(t)

	due := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	id := createNote(t, router, "Groceries", "milk and eggs", &due)

	rec := doJSON(t, router, http.MethodGet, "/notes/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: status %d, body %s", rec.Code, rec.Body.String())
	}
	var n note.Note
	decodeBody(t, rec, &n)
	if n.Title != "Groceries" || n.Content != "milk and eggs" {
		t.Errorf("got %q/%q", n.Title, n.Content)
	}
	if n.DueAt == nil || !n.DueAt.Equal(due) {
		t.Errorf("due_at = %v, want %v", n.DueAt, due)
	}
}

func TestCreateValidation(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/notes", CreateNoteRequest{Title: "", Content: "x"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != CodeValidation {
		t.Errorf("code = %q, want %q", resp.Code, CodeValidation)
	}
}

func TestCreateMalformedJSON(t *testing.T) {
	router, _ := setupTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/notes", bytes.NewBufferString("{nope"))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestGetNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/notes/no-such-id", nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Code != CodeNotFound {
		t.Errorf("code = %q, want %q", resp.Code, CodeNotFound)
	}
}

func TestUpdate(t *testing.T) {
	router, _ := setupTestRouter(t)
	id := createNote(t, router, "Old", "body", nil)

	title := "New"
	rec := doJSON(t, router, http.MethodPut, "/notes/"+id, UpdateNoteRequest{Title: &title})
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}
	var resp UpdateNoteResponse
	decodeBody(t, rec, &resp)
	if !resp.Updated {
		t.Error("updated = false")
	}

	rec = doJSON(t, router, http.MethodGet, "/notes/"+id, nil)
	var n note.Note
	decodeBody(t, rec, &n)
	if n.Title != "New" || n.Content != "body" {
		t.Errorf("after update: %q/%q", n.Title, n.Content)
	}
}

func TestUpdateNoFields(t *testing.T) {
	router, _ := setupTestRouter(t)
	id := createNote(t, router, "Keep", "body", nil)

	rec := doJSON(t, router, http.MethodPut, "/notes/"+id, UpdateNoteRequest{})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestUpdateNotFound(t *testing.T) {
	router, _ := setupTestRouter(t)

	title := "nope"
	rec := doJSON(t, router, http.MethodPut, "/notes/missing", UpdateNoteRequest{Title: &title})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
}

func TestDelete(t *testing.T) {
	router, _ := setupTestRouter(t)
	id := createNote(t, router, "Temp", "body", nil)

	rec := doJSON(t, router, http.MethodDelete, "/notes/"+id, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, body %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodDelete, "/notes/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("second delete: status %d, want 404", rec.Code)
	}
}

func TestList(t *testing.T) {
	router, _ := setupTestRouter(t)
	createNote(t, router, "First", "a", nil)
	time.Sleep(5 * time.Millisecond)
	createNote(t, router, "Second", "b", nil)

	rec := doJSON(t, router, http.MethodGet, "/notes?limit=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp NotesResponse
	decodeBody(t, rec, &resp)
	if resp.Count != 1 || len(resp.Notes) != 1 {
		t.Fatalf("count = %d, notes = %d, want 1", resp.Count, len(resp.Notes))
	}
	if resp.Notes[0].Title != "Second" {
		t.Errorf("newest first: got %q", resp.Notes[0].Title)
	}
}

func TestListBadLimit(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/notes?limit=potato", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestSearch(t *testing.T) {
	router, _ := setupTestRouter(t)
	createNote(t, router, "Shopping list", "milk", nil)
	createNote(t, router, "Work", "standup at ten", nil)

	rec := doJSON(t, router, http.MethodGet, "/notes/search?q=shopping", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp NotesResponse
	decodeBody(t, rec, &resp)
	if resp.Count != 1 {
		t.Fatalf("count = %d, want 1", resp.Count)
	}
	if resp.Notes[0].Title != "Shopping list" {
		t.Errorf("got %q", resp.Notes[0].Title)
	}
}

func TestSearchMissingQuery(t *testing.T) {
	router, _ := setupTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/notes/search", nil)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status %d, want 400", rec.Code)
	}
}

func TestReminders(t *testing.T) {
	router, _ := setupTestRouter(t)

	soon := time.Now().Add(30 * time.Minute)
	later := time.Now().Add(48 * time.Hour)
	createNote(t, router, "Soon", "x", &soon)
	createNote(t, router, "Later", "y", &later)

	rec := doJSON(t, router, http.MethodGet, "/notes/reminders?hours=1", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var resp NotesResponse
	decodeBody(t, rec, &resp)
	if resp.Count != 1 || resp.Notes[0].Title != "Soon" {
		t.Fatalf("1h window: %+v", resp.Notes)
	}
}

func TestStats(t *testing.T) {
	router, _ := setupTestRouter(t)

	due := time.Now().Add(time.Hour)
	createNote(t, router, "With", "x", &due)
	createNote(t, router, "Without", "y", nil)

	rec := doJSON(t, router, http.MethodGet, "/stats", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d", rec.Code)
	}
	var st note.Stats
	decodeBody(t, rec, &st)
	if st.Total != 2 || st.WithReminder != 1 || st.WithoutReminder != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestTruncate(t *testing.T) {
	router, _ := setupTestRouter(t)
	for i := 0; i < 3; i++ {
		createNote(t, router, fmt.Sprintf("Note %d", i), "body", nil)
	}

	rec := doJSON(t, router, http.MethodDelete, "/notes", nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status %d, want 204", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/notes", nil)
	var resp NotesResponse
	decodeBody(t, rec, &resp)
	if resp.Count != 0 {
		t.Errorf("count after truncate = %d, want 0", resp.Count)
	}
}
