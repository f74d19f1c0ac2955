package cassandra

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/erizov/notevault/internal/harness"
	"github.com/erizov/notevault/internal/libs/obs"
	"github.com/erizov/notevault/internal/note"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	hosts := os.Getenv("TEST_CASSANDRA_HOSTS")
	if hosts == "" {
		t.Skip("TEST_CASSANDRA_HOSTS not set")
	}
	obs.InitLogger("error")

	s, err := Open(Config{
		Hosts:    strings.Split(hosts, ","),
		Port:     9042,
		Keyspace: "notevault_test",
		Username: os.Getenv("TEST_CASSANDRA_USER"),
		Password: os.Getenv("TEST_CASSANDRA_PASSWORD"),
	})
	if err != nil {
		t.Fatalf("open cassandra: %v", err)
	}
	t.Cleanup(func() {
		s.Truncate(context.Background())
		s.Close()
	})
	return s
}

func TestConformance(t *testing.T) {
	s := openTestStore(t)

	r := harness.New(obs.Logger("cassandra-test"), 50)
	results := r.Run(context.Background(), []note.Store{s})
	if !results[0].OK() {
		t.Fatalf("conformance failed: err=%v failures=%v",
			results[0].Err, results[0].Failures)
	}
}

func TestInvalidID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	// Ids are UUIDs; a numeric string is malformed
	_, err := s.Get(ctx, "42")
	if !errors.Is(err, note.ErrInvalidID) {
		t.Errorf("get: want ErrInvalidID, got %v", err)
	}
	existed, err := s.Delete(ctx, "42")
	if !errors.Is(err, note.ErrInvalidID) || existed {
		t.Errorf("delete: want ErrInvalidID, got existed=%v err=%v", existed, err)
	}
}
