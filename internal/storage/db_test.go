package storage

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
)

// TestNewRejectsBadDSN verifies a malformed DSN fails before any connection attempt.
func TestNewRejectsBadDSN(t *testing.T) {
	_, err := New(context.Background(), "postgres://u@localhost:notaport/db")
	if err == nil {
		t.Fatal("expected error for malformed dsn")
	}
	if !strings.Contains(err.Error(), "parsing dsn") {
		t.Errorf("err = %q, want parsing dsn", err)
	}
}

// TestRunMigrationsMissingDir verifies a missing migrations directory is reported.
func TestRunMigrationsMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "absent")
	_, err := RunMigrations("postgres://u@localhost:5432/db?sslmode=disable", dir)
	if err == nil {
		t.Fatal("expected error for missing migrations dir")
	}
	if !strings.Contains(err.Error(), "creating migrator") {
		t.Errorf("err = %q, want creating migrator", err)
	}
}
