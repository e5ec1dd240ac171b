package utils

import (
	"log"
	"sync"
	"time"
)

// PendingApplication tracks a multi-step "apply purchased resource to a
// live server" interaction. Ephemeral by design: lost on restart, and the
// inventory is untouched until the apply succeeds.
type PendingApplication struct {
	UserID       string
	ResourceType string
	Amount       int
	ServerID     string
	CreatedAt    time.Time
	ExpiresAt    time.Time
}

// SessionManager is a keyed store for pending applications with TTL expiry
// and explicit clearing on completion.
type SessionManager struct {
	mutex         sync.RWMutex
	data          map[string]*PendingApplication
	ttl           time.Duration
	cleanupTicker *time.Ticker
	done          chan bool
}

// Global session manager
var Sessions *SessionManager

// InitializeSessions sets up the pending-application store
func InitializeSessions(ttl time.Duration) {
	Sessions = &SessionManager{
		data: make(map[string]*PendingApplication),
		ttl:  ttl,
		done: make(chan bool),
	}

	Sessions.cleanupTicker = time.NewTicker(time.Minute)
	go Sessions.cleanupRoutine()
}

// CloseSessions stops the session cleanup routine. Safe to call more
// than once; closing the channel never blocks on a goroutine that has
// already exited.
func CloseSessions() {
	if Sessions != nil && Sessions.cleanupTicker != nil {
		Sessions.cleanupTicker.Stop()
		Sessions.cleanupTicker = nil
		close(Sessions.done)
	}
}

// Put stores a pending application for an identity, replacing any previous one
func (sm *SessionManager) Put(userID, resourceType string, amount int, serverID string) *PendingApplication {
	now := time.Now()
	pending := &PendingApplication{
		UserID:       userID,
		ResourceType: resourceType,
		Amount:       amount,
		ServerID:     serverID,
		CreatedAt:    now,
		ExpiresAt:    now.Add(sm.ttl),
	}

	sm.mutex.Lock()
	sm.data[userID] = pending
	sm.mutex.Unlock()

	return pending
}

// Get retrieves the pending application for an identity, if not expired
func (sm *SessionManager) Get(userID string) (*PendingApplication, bool) {
	sm.mutex.RLock()
	pending, exists := sm.data[userID]
	sm.mutex.RUnlock()

	if !exists {
		return nil, false
	}
	if time.Now().After(pending.ExpiresAt) {
		sm.Clear(userID)
		return nil, false
	}
	return pending, true
}

// Clear removes the pending application for an identity
func (sm *SessionManager) Clear(userID string) {
	sm.mutex.Lock()
	delete(sm.data, userID)
	sm.mutex.Unlock()
}

// Size returns the number of pending applications
func (sm *SessionManager) Size() int {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	return len(sm.data)
}

func (sm *SessionManager) cleanupRoutine() {
	for {
		select {
		case <-sm.cleanupTicker.C:
			sm.cleanup()
		case <-sm.done:
			return
		}
	}
}

func (sm *SessionManager) cleanup() {
	now := time.Now()

	sm.mutex.Lock()
	expired := 0
	for userID, pending := range sm.data {
		if now.After(pending.ExpiresAt) {
			delete(sm.data, userID)
			expired++
		}
	}
	sm.mutex.Unlock()

	if expired > 0 {
		log.Printf("Cleaned up %d expired pending applications", expired)
	}
}
