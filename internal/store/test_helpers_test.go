package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/listsync/internal/ir"
)

// createTestStore creates a new store in a temporary directory.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestSession registers a sibling session and returns its id.
func createTestSession(t *testing.T, s *Store, id string) string {
	t.Helper()
	if err := s.WriteSession(context.Background(), Session{ID: id, Mode: "sibling"}); err != nil {
		t.Fatalf("WriteSession() failed: %v", err)
	}
	return id
}

// createTestEvent creates an applied added event.
func createTestEvent(session string, seq int64, key string, value ir.Value) Event {
	return Event{
		Session: session,
		Seq:     seq,
		Kind:    "added",
		Key:     key,
		Value:   value,
		Applied: true,
	}
}
