package harness

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erizov/notevault/internal/note"
)

// scenario is one backend-agnostic conformance check. Each runs against a
// freshly truncated store and asserts contract-level outcomes only: no
// physical id formats, no engine-specific behavior.
type scenario struct {
	name string
	run  func(ctx context.Context, s note.Store) error
}

var scenarios = []scenario{
	{"create and read back", scenarioCreateRead},
	{"input validation", scenarioValidation},
	{"delete idempotence", scenarioDelete},
	{"partial update", scenarioUpdate},
	{"substring search", scenarioSearch},
	{"reminder window", scenarioReminders},
	{"statistics", scenarioStats},
}

// settle spaces out inserts whose relative order a scenario asserts on;
// several engines store created_at at millisecond resolution.
func settle() { time.Sleep(10 * time.Millisecond) }

func scenarioCreateRead(ctx context.Context, s note.Store) error {
	id, err := s.Add(ctx, "A", "B", nil)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if id == "" {
		return errors.New("add returned an empty id")
	}

	n, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if n == nil {
		return errors.New("created note not found")
	}
	if n.Title != "A" || n.Content != "B" {
		return fmt.Errorf("got title=%q content=%q, want A/B", n.Title, n.Content)
	}
	if n.DueAt != nil {
		return fmt.Errorf("due time fabricated: %v", n.DueAt)
	}
	if n.CreatedAt.IsZero() {
		return errors.New("created_at not assigned")
	}

	// Reading again with no mutation in between must agree
	again, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("second get: %w", err)
	}
	if again == nil || again.Title != n.Title || again.Content != n.Content {
		return errors.New("repeated get returned a different note")
	}
	return nil
}

func scenarioValidation(ctx context.Context, s note.Store) error {
	if _, err := s.Add(ctx, "", "content", nil); !errors.Is(err, note.ErrValidation) {
		return fmt.Errorf("empty title: want ErrValidation, got %v", err)
	}
	if _, err := s.Add(ctx, "title", "", nil); !errors.Is(err, note.ErrValidation) {
		return fmt.Errorf("empty content: want ErrValidation, got %v", err)
	}
	return nil
}

func scenarioDelete(ctx context.Context, s note.Store) error {
	id, err := s.Add(ctx, "ForDelete", "Content", nil)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	existed, err := s.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	if !existed {
		return errors.New("first delete reported false")
	}

	existed, err = s.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("second delete: %w", err)
	}
	if existed {
		return errors.New("second delete reported true")
	}

	n, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get after delete: %w", err)
	}
	if n != nil {
		return errors.New("deleted note still readable")
	}
	return nil
}

func scenarioUpdate(ctx context.Context, s note.Store) error {
	id, err := s.Add(ctx, "Old title", "Old content", nil)
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	ok, err := s.Update(ctx, id, note.Update{})
	if err != nil {
		return fmt.Errorf("empty update: %w", err)
	}
	if ok {
		return errors.New("empty update reported true")
	}

	title := "New title"
	ok, err = s.Update(ctx, id, note.Update{Title: &title})
	if err != nil {
		return fmt.Errorf("update: %w", err)
	}
	if !ok {
		return errors.New("update of existing note reported false")
	}

	n, err := s.Get(ctx, id)
	if err != nil {
		return fmt.Errorf("get: %w", err)
	}
	if n.Title != "New title" {
		return fmt.Errorf("title not updated: %q", n.Title)
	}
	if n.Content != "Old content" {
		return fmt.Errorf("content changed by title-only update: %q", n.Content)
	}

	// A deleted id is well-formed for its backend but absent
	if _, err := s.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	ok, err = s.Update(ctx, id, note.Update{Title: &title})
	if err != nil {
		return fmt.Errorf("update absent: %w", err)
	}
	if ok {
		return errors.New("update of absent id reported true")
	}
	return nil
}

func scenarioSearch(ctx context.Context, s note.Store) error {
	if _, err := s.Add(ctx, "Foo", "Bar", nil); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	settle()
	if _, err := s.Add(ctx, "Baz", "Qux", nil); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	settle()
	if _, err := s.Add(ctx, "Another foo note", "body", nil); err != nil {
		return fmt.Errorf("add: %w", err)
	}

	results, err := s.Search(ctx, "Foo", 10)
	if err != nil {
		return fmt.Errorf("search: %w", err)
	}
	if len(results) != 2 {
		return fmt.Errorf("search Foo: want 2 matches, got %d", len(results))
	}
	for _, n := range results {
		if n.Title == "Baz" {
			return errors.New("search returned a non-matching note")
		}
	}
	// Newest first
	if results[0].Title != "Another foo note" {
		return fmt.Errorf("search not ordered newest first: %q", results[0].Title)
	}

	results, err = s.Search(ctx, "foo", 1)
	if err != nil {
		return fmt.Errorf("search with limit: %w", err)
	}
	if len(results) != 1 {
		return fmt.Errorf("limit not honored: got %d results", len(results))
	}

	results, err = s.Search(ctx, "no such text", 10)
	if err != nil {
		return fmt.Errorf("search miss: %w", err)
	}
	if len(results) != 0 {
		return fmt.Errorf("want no matches, got %d", len(results))
	}

	// A zero or negative limit caps to nothing on every engine; zero in
	// particular must never mean "unbounded"
	for _, limit := range []int{0, -5} {
		results, err = s.Search(ctx, "foo", limit)
		if err != nil {
			return fmt.Errorf("search with limit %d: %w", limit, err)
		}
		if len(results) != 0 {
			return fmt.Errorf("search limit %d: want 0 results, got %d", limit, len(results))
		}
		results, err = s.Recent(ctx, limit)
		if err != nil {
			return fmt.Errorf("recent with limit %d: %w", limit, err)
		}
		if len(results) != 0 {
			return fmt.Errorf("recent limit %d: want 0 results, got %d", limit, len(results))
		}
	}
	return nil
}

func scenarioReminders(ctx context.Context, s note.Store) error {
	soon := time.Now().Add(30 * time.Minute)
	later := time.Now().Add(2 * time.Hour)

	if _, err := s.Add(ctx, "Soon", "due shortly", &soon); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if _, err := s.Add(ctx, "Later", "due in two hours", &later); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if _, err := s.Add(ctx, "Never", "no reminder", nil); err != nil {
		return fmt.Errorf("add: %w", err)
	}

	due, err := s.UpcomingReminders(ctx, 1)
	if err != nil {
		return fmt.Errorf("reminders: %w", err)
	}
	if len(due) != 1 || due[0].Title != "Soon" {
		return fmt.Errorf("1h window: want only Soon, got %d notes", len(due))
	}

	due, err = s.UpcomingReminders(ctx, 3)
	if err != nil {
		return fmt.Errorf("reminders: %w", err)
	}
	if len(due) != 2 {
		return fmt.Errorf("3h window: want 2 notes, got %d", len(due))
	}
	if due[0].Title != "Soon" || due[1].Title != "Later" {
		return errors.New("reminders not in ascending due order")
	}
	return nil
}

func scenarioStats(ctx context.Context, s note.Store) error {
	due := time.Now().Add(30 * time.Minute)
	if _, err := s.Add(ctx, "With", "reminder", &due); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	if _, err := s.Add(ctx, "Without", "reminder", nil); err != nil {
		return fmt.Errorf("add: %w", err)
	}

	st, err := s.Stats(ctx)
	if err != nil {
		return fmt.Errorf("stats: %w", err)
	}
	if st.Total != 2 {
		return fmt.Errorf("total: want 2, got %d", st.Total)
	}
	if st.WithReminder != 1 || st.WithoutReminder != 1 {
		return fmt.Errorf("reminder split: want 1/1, got %d/%d", st.WithReminder, st.WithoutReminder)
	}
	if st.RecentCount != 2 {
		return fmt.Errorf("recent count: want 2, got %d", st.RecentCount)
	}
	return nil
}
