package utils

import (
	"log"
	"math/rand"
	"time"

	"hostcoin-go/models"
)

// OnBalanceChange is invoked after every successful balance mutation. Main
// wires it to the tier role projection; it stays nil in tests and when the
// bot runs without a Discord session.
var OnBalanceChange func(identity string, balance float64)

func notifyBalanceChange(acct *models.Account) {
	if OnBalanceChange != nil && acct != nil {
		OnBalanceChange(acct.UserID, acct.Balance)
	}
}

// winDraw is the gamble RNG, replaceable in tests
var winDraw = rand.Float64

// Credit adds coins to an account. Always succeeds if the account exists.
func Credit(identity string, amount float64, reason string) (*models.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	acct, err := AdjustBalance(identity, amount)
	if err != nil {
		return nil, err
	}
	log.Printf("Credited %.2f coins to %s (%s)", amount, identity, reason)
	notifyBalanceChange(acct)
	return acct, nil
}

// Debit removes coins from an account, failing with ErrInsufficientFunds
// rather than ever driving the balance negative.
func Debit(identity string, amount float64) (*models.Account, error) {
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}
	acct, err := AdjustBalance(identity, -amount)
	if err != nil {
		return nil, err
	}
	notifyBalanceChange(acct)
	return acct, nil
}

// Purchase debits the catalog price and credits the resource counter as
// one unit. A failed debit grants nothing.
func Purchase(identity, entryKey string) (*models.Account, CatalogEntry, error) {
	entry, ok := GetCatalogEntry(entryKey)
	if !ok {
		return nil, CatalogEntry{}, ErrUnknownResource
	}

	acct, err := ApplyPurchase(identity, entry.Price, entry.Resource, entry.Unit)
	if err != nil {
		return nil, entry, err
	}

	log.Printf("Account %s purchased %s for %.0f coins", identity, entry.Name, entry.Price)
	notifyBalanceChange(acct)
	return acct, entry, nil
}

// Redeem consumes one use of a code for this identity and credits its
// reward. Use count, used-by set and balance move together or not at all.
func Redeem(identity, code string) (int64, *models.Account, error) {
	coins, err := redeemCodeForAccount(identity, code)
	if err != nil {
		return 0, nil, err
	}

	acct, err := GetAccount(identity, "")
	if err != nil {
		return coins, nil, err
	}

	log.Printf("Account %s redeemed code %s for %d coins", identity, code, coins)
	notifyBalanceChange(acct)
	return coins, acct, nil
}

// GambleSettle wagers coins on a uniform draw. A win credits the wager, a
// loss debits it. Repeated calls are gated by the gamble cooldown.
func GambleSettle(identity string, wager float64, winChance float64) (bool, *models.Account, error) {
	if wager <= 0 {
		return false, nil, ErrInvalidAmount
	}

	acct, err := GetAccount(identity, "")
	if err != nil {
		return false, nil, err
	}
	if !acct.CanAfford(wager) {
		return false, nil, ErrInsufficientFunds
	}

	if err := GambleCooldowns.Check(identity); err != nil {
		return false, nil, err
	}

	won := winDraw() < winChance
	delta := wager
	if !won {
		delta = -wager
	}

	acct, err = AdjustBalance(identity, delta)
	if err != nil {
		// Nothing settled, so the attempt must not cost a cooldown
		GambleCooldowns.Reset(identity)
		return false, nil, err
	}

	notifyBalanceChange(acct)
	return won, acct, nil
}

// ClaimDaily credits the fixed daily reward on a 24h cooldown. Claims
// within 48h of the previous one extend the streak; later ones restart it.
func ClaimDaily(identity string) (*models.Account, error) {
	acct, err := GetAccount(identity, "")
	if err != nil {
		return nil, err
	}
	if !acct.CanClaimDaily() {
		return nil, ErrAlreadyClaimed
	}

	now := time.Now()
	streak := 1
	if acct.StreakContinues(now) {
		streak = acct.ClaimStreak + 1
	}

	acct, err = RecordDailyClaim(identity, DailyReward, streak, now)
	if err != nil {
		return nil, err
	}

	notifyBalanceChange(acct)
	return acct, nil
}

// AfkEarn credits the AFK micro-reward, throttled per identity
func AfkEarn(identity string) (*models.Account, error) {
	if _, err := GetAccount(identity, ""); err != nil {
		return nil, err
	}
	if err := AfkCooldowns.Check(identity); err != nil {
		return nil, err
	}

	acct, err := AdjustBalance(identity, AfkReward)
	if err != nil {
		return nil, err
	}

	notifyBalanceChange(acct)
	return acct, nil
}
