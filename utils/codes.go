package utils

import (
	"context"
	"fmt"
	"time"

	"hostcoin-go/models"

	"github.com/jackc/pgx/v5"
)

var memCodes = make(map[string]*models.RedeemCode)

func createRedeemCodesTable() error {
	ctx := context.Background()
	query := `CREATE TABLE IF NOT EXISTS redeem_codes (
		code TEXT PRIMARY KEY,
		coins BIGINT NOT NULL CHECK (coins > 0),
		max_uses INTEGER NOT NULL CHECK (max_uses >= 1),
		current_uses INTEGER NOT NULL DEFAULT 0 CHECK (current_uses >= 0 AND current_uses <= max_uses),
		used_by TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := DB.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create redeem_codes table: %w", err)
	}
	return nil
}

// CreateCode registers a new redeem code
func CreateCode(code string, coins int64, maxUses int) error {
	if coins <= 0 || maxUses < 1 {
		return ErrInvalidAmount
	}

	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		if _, exists := memCodes[code]; exists {
			return ErrDuplicateCode
		}
		memCodes[code] = &models.RedeemCode{
			Code:      code,
			Coins:     coins,
			MaxUses:   maxUses,
			CreatedAt: time.Now(),
		}
		return nil
	}

	ctx := context.Background()
	tag, err := DB.Exec(ctx,
		`INSERT INTO redeem_codes (code, coins, max_uses) VALUES ($1, $2, $3)
		 ON CONFLICT (code) DO NOTHING`,
		code, coins, maxUses)
	if err != nil {
		return fmt.Errorf("failed to create redeem code: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrDuplicateCode
	}
	return nil
}

// GetCode fetches one redeem code
func GetCode(code string) (*models.RedeemCode, error) {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		c, ok := memCodes[code]
		if !ok {
			return nil, ErrCodeNotFound
		}
		cp := *c
		cp.UsedBy = append([]string(nil), c.UsedBy...)
		return &cp, nil
	}

	ctx := context.Background()
	c := &models.RedeemCode{}
	err := DB.QueryRow(ctx,
		`SELECT code, coins, max_uses, current_uses, used_by, created_at FROM redeem_codes WHERE code = $1`,
		code).Scan(&c.Code, &c.Coins, &c.MaxUses, &c.CurrentUses, &c.UsedBy, &c.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrCodeNotFound
		}
		return nil, fmt.Errorf("failed to get redeem code: %w", err)
	}
	return c, nil
}

// ListCodes returns all redeem codes, newest first
func ListCodes() ([]models.RedeemCode, error) {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		codes := make([]models.RedeemCode, 0, len(memCodes))
		for _, c := range memCodes {
			cp := *c
			cp.UsedBy = append([]string(nil), c.UsedBy...)
			codes = append(codes, cp)
		}
		return codes, nil
	}

	ctx := context.Background()
	rows, err := DB.Query(ctx,
		`SELECT code, coins, max_uses, current_uses, used_by, created_at FROM redeem_codes ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list redeem codes: %w", err)
	}
	defer rows.Close()

	var codes []models.RedeemCode
	for rows.Next() {
		var c models.RedeemCode
		if err := rows.Scan(&c.Code, &c.Coins, &c.MaxUses, &c.CurrentUses, &c.UsedBy, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan redeem code: %w", err)
		}
		codes = append(codes, c)
	}
	return codes, rows.Err()
}

// redeemCodeForAccount consumes one use of a code and credits the reward,
// all inside a single transaction. The guarded UPDATE means a failed
// precondition changes nothing; classification happens afterwards.
func redeemCodeForAccount(identity, code string) (int64, error) {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()

		acct, ok := memAccounts[identity]
		if !ok {
			return 0, ErrAccountNotFound
		}
		c, ok := memCodes[code]
		if !ok {
			return 0, ErrCodeNotFound
		}
		if c.UsedByAccount(identity) {
			return 0, ErrCodeAlreadyUsed
		}
		if c.Exhausted() {
			return 0, ErrCodeExhausted
		}
		c.CurrentUses++
		c.UsedBy = append(c.UsedBy, identity)
		acct.Balance += float64(c.Coins)
		return c.Coins, nil
	}

	ctx := context.Background()
	tx, err := DB.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin redeem transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var coins int64
	err = tx.QueryRow(ctx,
		`UPDATE redeem_codes
		 SET current_uses = current_uses + 1, used_by = array_append(used_by, $2)
		 WHERE code = $1 AND current_uses < max_uses AND NOT ($2 = ANY(used_by))
		 RETURNING coins`,
		code, identity).Scan(&coins)
	if err != nil {
		if err == pgx.ErrNoRows {
			return 0, classifyRedeemFailure(ctx, tx, identity, code)
		}
		return 0, fmt.Errorf("failed to redeem code: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = balance + $2 WHERE user_id = $1`, identity, float64(coins))
	if err != nil {
		return 0, fmt.Errorf("failed to credit redeem reward: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, ErrAccountNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit redeem transaction: %w", err)
	}
	return coins, nil
}

func classifyRedeemFailure(ctx context.Context, tx pgx.Tx, identity, code string) error {
	var maxUses, currentUses int
	var usedBy []string
	err := tx.QueryRow(ctx,
		`SELECT max_uses, current_uses, used_by FROM redeem_codes WHERE code = $1`,
		code).Scan(&maxUses, &currentUses, &usedBy)
	if err != nil {
		if err == pgx.ErrNoRows {
			return ErrCodeNotFound
		}
		return fmt.Errorf("failed to inspect redeem code: %w", err)
	}
	for _, id := range usedBy {
		if id == identity {
			return ErrCodeAlreadyUsed
		}
	}
	return ErrCodeExhausted
}
