package utils

import (
	"testing"
	"time"
)

func newTestSessions(ttl time.Duration) *SessionManager {
	return &SessionManager{
		data: make(map[string]*PendingApplication),
		ttl:  ttl,
	}
}

func TestSessionPutGetClear(t *testing.T) {
	sm := newTestSessions(time.Minute)

	sm.Put("user1", "ram", 2, "42")

	pending, ok := sm.Get("user1")
	if !ok {
		t.Fatal("Expected pending application")
	}
	if pending.ResourceType != "ram" || pending.Amount != 2 || pending.ServerID != "42" {
		t.Errorf("Unexpected pending application: %+v", pending)
	}

	sm.Clear("user1")
	if _, ok := sm.Get("user1"); ok {
		t.Error("Expected no pending application after Clear")
	}
}

func TestSessionReplacesPrevious(t *testing.T) {
	sm := newTestSessions(time.Minute)

	sm.Put("user1", "ram", 2, "42")
	sm.Put("user1", "disk", 5, "42")

	pending, ok := sm.Get("user1")
	if !ok {
		t.Fatal("Expected pending application")
	}
	if pending.ResourceType != "disk" || pending.Amount != 5 {
		t.Errorf("Second Put did not replace first: %+v", pending)
	}
	if sm.Size() != 1 {
		t.Errorf("Expected size 1, got %d", sm.Size())
	}
}

func TestSessionExpiry(t *testing.T) {
	sm := newTestSessions(10 * time.Millisecond)

	sm.Put("user1", "cpu", 1, "7")
	time.Sleep(20 * time.Millisecond)

	if _, ok := sm.Get("user1"); ok {
		t.Error("Expected expired application to be gone")
	}
	if sm.Size() != 0 {
		t.Errorf("Expected lazy expiry to remove entry, size = %d", sm.Size())
	}
}

func TestCloseSessionsIdempotent(t *testing.T) {
	InitializeSessions(time.Minute)

	CloseSessions()
	// A second close must not block or panic
	CloseSessions()
}

func TestSessionCleanup(t *testing.T) {
	sm := newTestSessions(10 * time.Millisecond)

	sm.Put("user1", "cpu", 1, "7")
	sm.Put("user2", "ram", 3, "8")
	time.Sleep(20 * time.Millisecond)
	sm.Put("user3", "disk", 2, "9")

	sm.cleanup()

	if sm.Size() != 1 {
		t.Errorf("Expected 1 live entry after cleanup, got %d", sm.Size())
	}
	if _, ok := sm.Get("user3"); !ok {
		t.Error("Cleanup removed a live entry")
	}
}
