package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nao1215/peermark/internal/hostgate"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) (*SettingsDB, func()) {
	t.Helper()

	tmpDir := t.TempDir()

	db, err := Open(tmpDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	cleanup := func() {
		_ = db.Close()
	}

	return db, cleanup
}

// TestOpen tests database opening and creation.
func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		dbDir := filepath.Join(tmpDir, "newdir", "subdir")

		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("unexpected path %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false fails for missing database", func(t *testing.T) {
		t.Parallel()

		_, err := Open(t.TempDir(), Options{CreateIfNotExists: false})
		if !errors.Is(err, ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("reopens an existing database", func(t *testing.T) {
		t.Parallel()

		tmpDir := t.TempDir()
		ctx := context.Background()

		db, err := Open(tmpDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		if err := db.Set(ctx, "k", "v"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		_ = db.Close()

		reopened, err := Open(tmpDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer reopened.Close()

		value, ok, err := reopened.Get(ctx, "k")
		if err != nil || !ok || value != "v" {
			t.Errorf("expected persisted value, got %q ok=%v err=%v", value, ok, err)
		}
	})
}

// TestSettings tests key/value operations.
func TestSettings(t *testing.T) {
	t.Parallel()

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()
		db, cleanup := setupTestDB(t)
		defer cleanup()

		value, ok, err := db.Get(context.Background(), "absent")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if ok || value != "" {
			t.Errorf("expected missing key, got %q ok=%v", value, ok)
		}
	})

	t.Run("set overwrites", func(t *testing.T) {
		t.Parallel()
		db, cleanup := setupTestDB(t)
		defer cleanup()
		ctx := context.Background()

		if err := db.Set(ctx, "k", "first"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		if err := db.Set(ctx, "k", "second"); err != nil {
			t.Fatalf("failed to set: %v", err)
		}

		value, ok, err := db.Get(ctx, "k")
		if err != nil || !ok {
			t.Fatalf("expected key, ok=%v err=%v", ok, err)
		}
		if value != "second" {
			t.Errorf("expected 'second', got %q", value)
		}
	})

	t.Run("empty value is stored", func(t *testing.T) {
		t.Parallel()
		db, cleanup := setupTestDB(t)
		defer cleanup()
		ctx := context.Background()

		if err := db.Set(ctx, "k", ""); err != nil {
			t.Fatalf("failed to set: %v", err)
		}
		_, ok, err := db.Get(ctx, "k")
		if err != nil || !ok {
			t.Errorf("expected key to exist, ok=%v err=%v", ok, err)
		}
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		db, cleanup := setupTestDB(t)
		defer cleanup()
		ctx := context.Background()

		_ = db.Set(ctx, "k", "v")
		if err := db.Delete(ctx, "k"); err != nil {
			t.Fatalf("failed to delete: %v", err)
		}
		if err := db.Delete(ctx, "k"); err != nil {
			t.Fatalf("deleting a missing key should not fail: %v", err)
		}
		if _, ok, _ := db.Get(ctx, "k"); ok {
			t.Error("expected key to be gone")
		}
	})

	t.Run("updated at is recorded", func(t *testing.T) {
		t.Parallel()
		db, cleanup := setupTestDB(t)
		defer cleanup()
		ctx := context.Background()

		_ = db.Set(ctx, "k", "v")
		updated, ok, err := db.UpdatedAt(ctx, "k")
		if err != nil || !ok {
			t.Fatalf("expected timestamp, ok=%v err=%v", ok, err)
		}
		if updated.IsZero() {
			t.Error("expected non-zero timestamp")
		}
		if time.Since(updated) > 24*time.Hour {
			t.Errorf("timestamp looks wrong: %v", updated)
		}
	})

	t.Run("cancelled context fails write", func(t *testing.T) {
		t.Parallel()
		db, cleanup := setupTestDB(t)
		defer cleanup()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		if err := db.Set(ctx, "k", "v"); err == nil {
			t.Error("expected error for cancelled context")
		}
	})
}

// TestHostList tests the hostgate.Store adapter end to end with a Gate.
func TestHostList(t *testing.T) {
	t.Parallel()

	tmpDir := t.TempDir()
	ctx := context.Background()

	db, err := Open(tmpDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}

	gate := hostgate.New(ctx, db.HostList(DisabledHostsKey))
	gate.Disable("https://www.example.com/article", hostgate.Forever)
	gate.Disable("https://journals.plos.org", hostgate.Forever)
	gate.Disable("https://once.example.org", hostgate.Once)
	gate.Close()

	value, ok, err := db.Get(ctx, DisabledHostsKey)
	if err != nil || !ok {
		t.Fatalf("expected persisted host list, ok=%v err=%v", ok, err)
	}
	if value != "example.com_@@_journals.plos.org" {
		t.Errorf("unexpected persisted value %q", value)
	}
	_ = db.Close()

	// A new process sees the forever set only.
	db2, err := Open(tmpDir, DefaultOptions())
	if err != nil {
		t.Fatalf("failed to reopen database: %v", err)
	}
	defer db2.Close()

	restarted := hostgate.New(ctx, db2.HostList(DisabledHostsKey))
	defer restarted.Close()

	if !restarted.IsDisabled("example.com") || !restarted.IsDisabled("http://journals.plos.org/x") {
		t.Error("expected forever-disabled hosts after restart")
	}
	if restarted.IsDisabled("once.example.org") {
		t.Error("session-disabled host must not persist")
	}
}
