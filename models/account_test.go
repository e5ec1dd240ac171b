package models

import (
	"testing"
	"time"
)

func TestCanClaimDaily(t *testing.T) {
	acct := &Account{}
	if !acct.CanClaimDaily() {
		t.Error("Fresh account should be able to claim")
	}

	recent := time.Now().Add(-time.Hour)
	acct.LastClaim = &recent
	if acct.CanClaimDaily() {
		t.Error("Claim an hour ago should block the next one")
	}
	if acct.TimeUntilNextClaim() <= 0 {
		t.Error("Expected positive wait until the next claim")
	}

	old := time.Now().Add(-25 * time.Hour)
	acct.LastClaim = &old
	if !acct.CanClaimDaily() {
		t.Error("Claim 25 hours ago should allow a new one")
	}
	if acct.TimeUntilNextClaim() != 0 {
		t.Error("Expected zero wait when claimable")
	}
}

func TestStreakContinues(t *testing.T) {
	now := time.Now()
	acct := &Account{}

	if acct.StreakContinues(now) {
		t.Error("No previous claim cannot continue a streak")
	}

	within := now.Add(-40 * time.Hour)
	acct.LastClaim = &within
	if !acct.StreakContinues(now) {
		t.Error("Claim 40 hours ago should continue the streak")
	}

	lapsed := now.Add(-49 * time.Hour)
	acct.LastClaim = &lapsed
	if acct.StreakContinues(now) {
		t.Error("Claim 49 hours ago should restart the streak")
	}
}

func TestResourceLookup(t *testing.T) {
	acct := &Account{RAM: 4, CPU: 50, Disk: 20, ServerSlots: 1, Backups: 2, Ports: 3}

	tests := []struct {
		key   string
		value int
	}{
		{"ram", 4}, {"cpu", 50}, {"disk", 20},
		{"slots", 1}, {"backups", 2}, {"ports", 3},
	}
	for _, tt := range tests {
		got, ok := acct.Resource(tt.key)
		if !ok || got != tt.value {
			t.Errorf("Resource(%q) = (%d, %v), want (%d, true)", tt.key, got, ok, tt.value)
		}
	}

	if _, ok := acct.Resource("gpu"); ok {
		t.Error("Unknown resource key should return false")
	}
}

func TestRedeemCodeState(t *testing.T) {
	code := &RedeemCode{Code: "X", Coins: 10, MaxUses: 2, CurrentUses: 1, UsedBy: []string{"a"}}

	if code.Exhausted() {
		t.Error("Code with remaining uses should not be exhausted")
	}
	if !code.UsedByAccount("a") {
		t.Error("Expected UsedByAccount true for a")
	}
	if code.UsedByAccount("b") {
		t.Error("Expected UsedByAccount false for b")
	}

	code.CurrentUses = 2
	if !code.Exhausted() {
		t.Error("Code at max uses should be exhausted")
	}
}
