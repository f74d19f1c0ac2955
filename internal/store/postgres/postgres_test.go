package postgres

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/erizov/notevault/internal/harness"
	"github.com/erizov/notevault/internal/libs/obs"
	"github.com/erizov/notevault/internal/note"
)

// openTestStore connects to the Postgres given by TEST_DATABASE_URL and
// skips when none is configured, so the suite stays green without a
// database.
func openTestStore(t *testing.T) *Store {
	t.Helper()
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	obs.InitLogger("error")

	s, err := Open(context.Background(), url)
	if err != nil {
		t.Fatalf("open postgres: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestConformance(t *testing.T) {
	s := openTestStore(t)

	r := harness.New(obs.Logger("postgres-test"), 50)
	results := r.Run(context.Background(), []note.Store{s})
	if !results[0].OK() {
		t.Fatalf("conformance failed: err=%v failures=%v",
			results[0].Err, results[0].Failures)
	}
}

func TestInvalidID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Ids are numeric here; a uuid-shaped id is malformed, not absent
	_, err := s.Get(ctx, "not-a-number")
	if !errors.Is(err, note.ErrInvalidID) {
		t.Errorf("get: want ErrInvalidID, got %v", err)
	}
	_, err = s.Delete(ctx, "not-a-number")
	if !errors.Is(err, note.ErrInvalidID) {
		t.Errorf("delete: want ErrInvalidID, got %v", err)
	}
}
