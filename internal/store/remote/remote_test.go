package remote

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/erizov/notevault/internal/httpapi"
	"github.com/erizov/notevault/internal/libs/obs"
	"github.com/erizov/notevault/internal/note"
	"github.com/erizov/notevault/internal/store/memory"
)

// setupRemote stands up a real API server backed by the in-memory store
// and opens the proxy against it.
func setupRemote(t *testing.T) *Store {
	t.Helper()
	obs.InitLogger("error")

	mem := memory.New()
	srv := httptest.NewServer(httpapi.Router(httpapi.NewHandler(mem, obs.Logger("remote-test"))))
	t.Cleanup(func() {
		srv.Close()
		mem.Close()
	})

	s, err := Open(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("open remote store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestOpenUnreachable(t *testing.T) {
	srv := httptest.NewServer(nil)
	srv.Close()

	_, err := Open(context.Background(), srv.URL)
	if !errors.Is(err, note.ErrUnavailable) {
		t.Fatalf("want ErrUnavailable, got %v", err)
	}
}

func TestAddAndGet(t *testing.T) {
	s := setupRemote(t)
	ctx := context.Background()

	due := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
	id, err := s.Add(ctx, "Remote note", "over the wire", &due)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if id == "" {
		t.Fatal("empty id")
	}

	n, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n == nil {
		t.Fatal("note not found")
	}
	if n.Title != "Remote note" || n.Content != "over the wire" {
		t.Errorf("got %q/%q", n.Title, n.Content)
	}
	if n.DueAt == nil || !n.DueAt.Equal(due) {
		t.Errorf("due_at = %v, want %v", n.DueAt, due)
	}
}

func TestAddValidation(t *testing.T) {
	s := setupRemote(t)

	_, err := s.Add(context.Background(), "", "content", nil)
	if !errors.Is(err, note.ErrValidation) {
		t.Fatalf("want ErrValidation, got %v", err)
	}
}

func TestGetAbsent(t *testing.T) {
	s := setupRemote(t)

	n, err := s.Get(context.Background(), "no-such-id")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n != nil {
		t.Fatalf("want nil for absent id, got %+v", n)
	}
}

func TestUpdate(t *testing.T) {
	s := setupRemote(t)
	ctx := context.Background()

	id, err := s.Add(ctx, "Old", "body", nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	// Empty updates must not produce a request
	ok, err := s.Update(ctx, id, note.Update{})
	if err != nil || ok {
		t.Fatalf("empty update: ok=%v err=%v", ok, err)
	}

	title := "New"
	ok, err = s.Update(ctx, id, note.Update{Title: &title})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if !ok {
		t.Fatal("update reported false for existing note")
	}

	n, err := s.Get(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if n.Title != "New" || n.Content != "body" {
		t.Errorf("after update: %q/%q", n.Title, n.Content)
	}

	ok, err = s.Update(ctx, "missing", note.Update{Title: &title})
	if err != nil {
		t.Fatalf("update absent: %v", err)
	}
	if ok {
		t.Error("update of absent id reported true")
	}
}

func TestDeleteIdempotence(t *testing.T) {
	s := setupRemote(t)
	ctx := context.Background()

	id, err := s.Add(ctx, "Temp", "body", nil)
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	existed, err := s.Delete(ctx, id)
	if err != nil || !existed {
		t.Fatalf("first delete: existed=%v err=%v", existed, err)
	}
	existed, err = s.Delete(ctx, id)
	if err != nil {
		t.Fatalf("second delete: %v", err)
	}
	if existed {
		t.Error("second delete reported true")
	}
}

func TestSearchAndRecent(t *testing.T) {
	s := setupRemote(t)
	ctx := context.Background()

	if _, err := s.Add(ctx, "Alpha", "first", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	time.Sleep(5 * time.Millisecond)
	if _, err := s.Add(ctx, "Beta", "second alpha mention", nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	found, err := s.Search(ctx, "alpha", 10)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(found) != 2 {
		t.Fatalf("search: want 2 matches, got %d", len(found))
	}

	recent, err := s.Recent(ctx, 1)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(recent) != 1 || recent[0].Title != "Beta" {
		t.Fatalf("recent: %+v", recent)
	}

	// Zero and negative limits cap locally; the server would reject a
	// negative limit as a validation error
	for _, limit := range []int{0, -1} {
		found, err = s.Search(ctx, "alpha", limit)
		if err != nil {
			t.Fatalf("search with limit %d: %v", limit, err)
		}
		if len(found) != 0 {
			t.Errorf("search limit %d: want 0 results, got %d", limit, len(found))
		}
		recent, err = s.Recent(ctx, limit)
		if err != nil {
			t.Fatalf("recent with limit %d: %v", limit, err)
		}
		if len(recent) != 0 {
			t.Errorf("recent limit %d: want 0 results, got %d", limit, len(recent))
		}
	}
}

func TestRemindersAndStats(t *testing.T) {
	s := setupRemote(t)
	ctx := context.Background()

	soon := time.Now().Add(30 * time.Minute)
	if _, err := s.Add(ctx, "Soon", "x", &soon); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := s.Add(ctx, "Never", "y", nil); err != nil {
		t.Fatalf("add: %v", err)
	}

	due, err := s.UpcomingReminders(ctx, 1)
	if err != nil {
		t.Fatalf("reminders: %v", err)
	}
	if len(due) != 1 || due[0].Title != "Soon" {
		t.Fatalf("reminders: %+v", due)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 2 || st.WithReminder != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestTruncate(t *testing.T) {
	s := setupRemote(t)
	ctx := context.Background()

	if _, err := s.Add(ctx, "Gone soon", "x", nil); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := s.Truncate(ctx); err != nil {
		t.Fatalf("truncate: %v", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	if st.Total != 0 {
		t.Errorf("total after truncate = %d", st.Total)
	}
}

func TestName(t *testing.T) {
	s := setupRemote(t)
	if s.Name() != "remote" {
		t.Errorf("name = %q", s.Name())
	}
}
