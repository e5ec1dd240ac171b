package utils

import (
	"errors"
	"fmt"
	"time"
)

// Ledger and registry error taxonomy. Every mutation surfaces one of these
// to the immediate caller; nothing is retried automatically.
var (
	ErrInsufficientFunds    = errors.New("insufficient coin balance")
	ErrInsufficientResource = errors.New("insufficient resource inventory")
	ErrInvalidAmount        = errors.New("amount must be positive")
	ErrCodeNotFound         = errors.New("redeem code not found")
	ErrCodeExhausted        = errors.New("redeem code exhausted")
	ErrCodeAlreadyUsed      = errors.New("redeem code already used by this account")
	ErrDuplicateCode        = errors.New("redeem code already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrUnauthorized         = errors.New("admin permission required")
	ErrBlacklisted          = errors.New("account is blacklisted")
	ErrAlreadyClaimed       = errors.New("daily reward already claimed")
	ErrUnknownResource      = errors.New("unknown resource type")
	ErrNoServer             = errors.New("no server linked to this account")
	ErrServerExists         = errors.New("account already has a server")
	ErrNotAppliable         = errors.New("resource cannot be applied to a running server")
	ErrPanelUnavailable     = errors.New("hosting panel not configured")
)

// CooldownError reports how long until a gated action becomes available.
type CooldownError struct {
	Remaining time.Duration
}

func (e *CooldownError) Error() string {
	return fmt.Sprintf("on cooldown for another %s", e.Remaining.Round(time.Second))
}

// ExternalApplyError wraps a failed hosting-panel mutation. Detail carries
// the panel response body for logs; end users only ever see a generic
// message.
type ExternalApplyError struct {
	Status int
	Detail string
}

func (e *ExternalApplyError) Error() string {
	return fmt.Sprintf("hosting panel request failed with status %d: %s", e.Status, e.Detail)
}
