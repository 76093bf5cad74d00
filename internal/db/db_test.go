package db

import (
	"os"
	"testing"

	"go-moviematch/internal/history"
)

func TestOpen_UnsupportedDriver(t *testing.T) {
	if _, err := Open("mongodb", "whatever"); err == nil {
		t.Errorf("expected error for unsupported driver, got nil")
	}
}

// Dummy DSN for test (won't actually connect, just checks error path)
func TestOpen_InvalidPostgresDSN(t *testing.T) {
	if _, err := Open("postgres", "invalid-dsn-for-testing"); err == nil {
		t.Errorf("expected error for invalid DSN, got nil")
	}
}

func TestOpen_SQLiteMigrates(t *testing.T) {
	conn, err := Open("sqlite", "file::memory:?cache=shared")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !conn.Migrator().HasTable(&history.Search{}) {
		t.Errorf("expected searches table to exist after Open")
	}
}

// Only runs against a real Postgres instance when TEST_DB_DSN is set
func TestOpen_PostgresMigrates(t *testing.T) {
	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("set TEST_DB_DSN to run real DB test")
	}
	conn, err := Open("postgres", dsn)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if !conn.Migrator().HasTable(&history.Search{}) {
		t.Errorf("searches table missing")
	}
}
