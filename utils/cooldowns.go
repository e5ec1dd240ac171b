package utils

import (
	"fmt"
	"sync"
	"time"
)

// CooldownTracker gates repeated actions per identity by a minimum
// interval. Held in process memory only.
type CooldownTracker struct {
	mutex    sync.Mutex
	interval time.Duration
	last     map[string]time.Time
}

// NewCooldownTracker creates a tracker with the given minimum interval
func NewCooldownTracker(interval time.Duration) *CooldownTracker {
	return &CooldownTracker{
		interval: interval,
		last:     map[string]time.Time{},
	}
}

// Check records the action when allowed, or returns a CooldownError with
// the remaining wait.
func (ct *CooldownTracker) Check(identity string) error {
	ct.mutex.Lock()
	defer ct.mutex.Unlock()

	now := time.Now()
	if last, ok := ct.last[identity]; ok {
		next := last.Add(ct.interval)
		if now.Before(next) {
			return &CooldownError{Remaining: next.Sub(now)}
		}
	}
	ct.last[identity] = now
	return nil
}

// Reset clears the cooldown for an identity
func (ct *CooldownTracker) Reset(identity string) {
	ct.mutex.Lock()
	delete(ct.last, identity)
	ct.mutex.Unlock()
}

// Per-action trackers
var (
	GambleCooldowns = NewCooldownTracker(CoinflipCooldown)
	AfkCooldowns    = NewCooldownTracker(AfkInterval)
)

// FormatDuration formats a duration into a human-readable string
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return "Ready!"
	}

	hours := int(d.Hours())
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if hours > 24 {
		days := hours / 24
		hours = hours % 24
		return fmt.Sprintf("%dd %dh %dm", days, hours, minutes)
	} else if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, minutes)
	} else if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds)
	}
	return fmt.Sprintf("%ds", seconds)
}
