package models

import "time"

// RedeemCode is a shared promotional token crediting a fixed coin reward,
// bounded by a global use count and one use per account.
type RedeemCode struct {
	Code        string
	Coins       int64
	MaxUses     int
	CurrentUses int
	UsedBy      []string
	CreatedAt   time.Time
}

// Exhausted reports whether the code has reached its global use limit
func (c *RedeemCode) Exhausted() bool {
	return c.CurrentUses >= c.MaxUses
}

// UsedByAccount reports whether the identity already redeemed this code
func (c *RedeemCode) UsedByAccount(identity string) bool {
	for _, id := range c.UsedBy {
		if id == identity {
			return true
		}
	}
	return false
}
