// ABOUTME: Tests for SQLite store implementation
// ABOUTME: Covers setup idempotence, session lookup, overwrite semantics, and directory creation

package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	if err := store.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewSQLiteStore_CreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	dbPath := filepath.Join(tmpDir, "subdir", "nested", "test.db")

	store, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	if err := store.Setup(context.Background()); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created in nested directory")
	}
}

func TestSQLiteStore_SetupIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateSession(ctx, &Session{ConversationID: "c1", ParticipantID: "p1"}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// Running setup again must not drop existing data
	if err := store.Setup(ctx); err != nil {
		t.Fatalf("second Setup failed: %v", err)
	}

	if _, err := store.GetSession(ctx, "c1", "p1"); err != nil {
		t.Errorf("session lost after second Setup: %v", err)
	}
}

func TestSQLiteStore_GetSession_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetSession(context.Background(), "missing", "nobody")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteStore_CreateAndGetSession(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	createdAt := time.Now().UTC().Truncate(time.Second)
	session := &Session{
		ConversationID: "contact-123",
		ParticipantID:  "+15551234567",
		CreatedAt:      createdAt,
	}

	if err := store.CreateSession(ctx, session); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := store.GetSession(ctx, "contact-123", "+15551234567")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}

	if got.ConversationID != session.ConversationID {
		t.Errorf("ConversationID mismatch: got %q, want %q", got.ConversationID, session.ConversationID)
	}
	if got.ParticipantID != session.ParticipantID {
		t.Errorf("ParticipantID mismatch: got %q, want %q", got.ParticipantID, session.ParticipantID)
	}
	if !got.CreatedAt.Equal(createdAt) {
		t.Errorf("CreatedAt mismatch: got %v, want %v", got.CreatedAt, createdAt)
	}
}

func TestSQLiteStore_KeyIsComposite(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.CreateSession(ctx, &Session{ConversationID: "c1", ParticipantID: "p1"}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	// Same conversation, different participant
	if _, err := store.GetSession(ctx, "c1", "p2"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other participant, got %v", err)
	}
	// Same participant, different conversation
	if _, err := store.GetSession(ctx, "c2", "p1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound for other conversation, got %v", err)
	}
}

func TestSQLiteStore_CreateSession_Overwrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	second := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	if err := store.CreateSession(ctx, &Session{ConversationID: "c1", ParticipantID: "p1", CreatedAt: first}); err != nil {
		t.Fatalf("first CreateSession failed: %v", err)
	}
	// Last write wins; no duplicate-key error
	if err := store.CreateSession(ctx, &Session{ConversationID: "c1", ParticipantID: "p1", CreatedAt: second}); err != nil {
		t.Fatalf("second CreateSession failed: %v", err)
	}

	got, err := store.GetSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if !got.CreatedAt.Equal(second) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, second)
	}

	n, err := store.CountSessions(ctx)
	if err != nil {
		t.Fatalf("CountSessions failed: %v", err)
	}
	if n != 1 {
		t.Errorf("CountSessions = %d, want 1", n)
	}
}

func TestSQLiteStore_CreateSession_DefaultsCreatedAt(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	before := time.Now().UTC().Add(-time.Second)
	if err := store.CreateSession(ctx, &Session{ConversationID: "c1", ParticipantID: "p1"}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}

	got, err := store.GetSession(ctx, "c1", "p1")
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if got.CreatedAt.Before(before.Truncate(time.Second)) {
		t.Errorf("CreatedAt = %v, expected a current timestamp", got.CreatedAt)
	}
}

func TestSQLiteStore_InMemory(t *testing.T) {
	store, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	if err := store.Setup(ctx); err != nil {
		t.Fatalf("Setup failed: %v", err)
	}
	if err := store.CreateSession(ctx, &Session{ConversationID: "c1", ParticipantID: "p1"}); err != nil {
		t.Fatalf("CreateSession failed: %v", err)
	}
	if _, err := store.GetSession(ctx, "c1", "p1"); err != nil {
		t.Errorf("GetSession failed: %v", err)
	}
}

func TestSQLiteStore_Ping(t *testing.T) {
	store := newTestStore(t)
	if err := store.Ping(context.Background()); err != nil {
		t.Errorf("Ping failed: %v", err)
	}
}
