package config

import (
	"os"
	"testing"
)

func TestLoad(t *testing.T) {
	// Test with default values
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Backend != BackendPostgres {
		t.Errorf("expected default Backend=postgres, got %s", cfg.Backend)
	}

	if cfg.APIPort != "8080" {
		t.Errorf("expected default APIPort=8080, got %s", cfg.APIPort)
	}

	if cfg.CassandraPort != 9042 {
		t.Errorf("expected default CassandraPort=9042, got %d", cfg.CassandraPort)
	}

	if cfg.LogLevel != "info" {
		t.Errorf("expected default LogLevel=info, got %s", cfg.LogLevel)
	}
}

func TestLoadWithEnv(t *testing.T) {
	// Test with environment variables
	_ = os.Setenv("NOTES_BACKEND", "memory")
	_ = os.Setenv("CASSANDRA_HOSTS", "cas1,cas2")
	_ = os.Setenv("LOG_LEVEL", "debug")
	defer func() {
		_ = os.Unsetenv("NOTES_BACKEND")
		_ = os.Unsetenv("CASSANDRA_HOSTS")
		_ = os.Unsetenv("LOG_LEVEL")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Backend != BackendMemory {
		t.Errorf("expected Backend=memory, got %s", cfg.Backend)
	}

	if len(cfg.CassandraHosts) != 2 || cfg.CassandraHosts[0] != "cas1" {
		t.Errorf("expected CassandraHosts=[cas1 cas2], got %v", cfg.CassandraHosts)
	}

	if cfg.LogLevel != "debug" {
		t.Errorf("expected LogLevel=debug, got %s", cfg.LogLevel)
	}
}

func TestLoadUnknownBackend(t *testing.T) {
	_ = os.Setenv("NOTES_BACKEND", "etcd")
	defer func() { _ = os.Unsetenv("NOTES_BACKEND") }()

	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown backend, got nil")
	}
}
