package utils

import "testing"

func TestTierFor(t *testing.T) {
	tests := []struct {
		balance  float64
		expected string
	}{
		{0, ""},
		{999.99, ""},
		{1000, "Coin Starter"},
		{2499, "Coin Starter"},
		{2500, "Bronze Saver"},
		{5000, "Silver Stacker"},
		{9999, "Silver Stacker"},
		{10000, "Gold Hoarder"},
		{15000, "Diamond Collector"},
		{1000000, "Diamond Collector"},
	}

	for _, tt := range tests {
		tier := TierFor(tt.balance)
		name := ""
		if tier != nil {
			name = tier.Name
		}
		if name != tt.expected {
			t.Errorf("TierFor(%.2f) = %q, want %q", tt.balance, name, tt.expected)
		}
	}
}
