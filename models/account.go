package models

import (
	"time"
)

// Account represents one platform identity in the hosting economy. The
// identity is either a Discord snowflake or a dashboard username; both are
// plain strings and share one collection.
type Account struct {
	UserID      string
	Username    string
	Balance     float64
	RAM         int
	CPU         int
	Disk        int
	ServerSlots int
	Backups     int
	Ports       int
	ServerID    string
	HasServer   bool
	PanelUserID int64
	LastClaim   *time.Time
	ClaimStreak int
	CreatedAt   time.Time
}

// CanAfford checks if the account can cover a coin amount
func (a *Account) CanAfford(amount float64) bool {
	return a.Balance >= amount
}

// Resource returns the named inventory counter (ram, cpu, disk, slots,
// backups, ports). The second return is false for unknown keys.
func (a *Account) Resource(key string) (int, bool) {
	switch key {
	case "ram":
		return a.RAM, true
	case "cpu":
		return a.CPU, true
	case "disk":
		return a.Disk, true
	case "slots":
		return a.ServerSlots, true
	case "backups":
		return a.Backups, true
	case "ports":
		return a.Ports, true
	}
	return 0, false
}

// CanClaimDaily checks if the user can claim their daily reward
func (a *Account) CanClaimDaily() bool {
	if a.LastClaim == nil {
		return true
	}
	return time.Since(*a.LastClaim) >= 24*time.Hour
}

// TimeUntilNextClaim returns the duration until the next daily reward
func (a *Account) TimeUntilNextClaim() time.Duration {
	if a.CanClaimDaily() {
		return 0
	}
	return time.Until(a.LastClaim.Add(24 * time.Hour))
}

// StreakContinues reports whether a claim at the given time extends the
// current streak (within 48h of the previous claim) or restarts it.
func (a *Account) StreakContinues(now time.Time) bool {
	if a.LastClaim == nil {
		return false
	}
	return now.Sub(*a.LastClaim) < 48*time.Hour
}
