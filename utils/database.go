package utils

import (
	"context"
	"fmt"
	"log"
	"os"
	"sort"
	"sync"
	"time"

	"hostcoin-go/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	DB            *pgxpool.Pool
	dbInitialized = false
	dbMutex       sync.RWMutex
)

// In-memory fallback store, used when DATABASE_URL is not configured. The
// bot keeps working without persistence; state is lost on restart.
var (
	memMutex    sync.Mutex
	memAccounts = make(map[string]*models.Account)
	memFlags    = make(map[string]map[string]bool)
)

// resourceColumns maps public resource keys to their accounts columns.
// Every dynamic column name in a query must come through this map.
var resourceColumns = map[string]string{
	"ram":     "ram",
	"cpu":     "cpu",
	"disk":    "disk",
	"slots":   "server_slots",
	"backups": "backups",
	"ports":   "ports",
}

// ResourceColumn resolves a resource key to its storage column
func ResourceColumn(key string) (string, bool) {
	col, ok := resourceColumns[key]
	return col, ok
}

// ResourceKeys returns the known resource keys in a stable order
func ResourceKeys() []string {
	keys := make([]string, 0, len(resourceColumns))
	for k := range resourceColumns {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

const accountColumns = `user_id, username, balance, ram, cpu, disk, server_slots, backups, ports,
	server_id, has_server, panel_user_id, last_claim, claim_streak, created_at`

// SetupDatabase initializes the database connection pool
func SetupDatabase() error {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if dbInitialized {
		return nil
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return nil
	}

	ctx := context.Background()

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to parse database URL: %w", err)
	}

	// One logical worker drives the bot; the pool mostly absorbs dashboard bursts
	config.MaxConns = 10
	config.MinConns = 2
	config.MaxConnLifetime = 45 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.ConnConfig.RuntimeParams = map[string]string{
		"application_name":  "hostcoin-bot",
		"timezone":          "UTC",
		"statement_timeout": "30s",
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return fmt.Errorf("failed to create connection pool: %w", err)
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		pool.Close()
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	conn.Release()

	DB = pool
	dbInitialized = true

	if err := createAccountsTable(); err != nil {
		return err
	}
	if err := createRedeemCodesTable(); err != nil {
		return err
	}
	if err := createModerationFlagsTable(); err != nil {
		return err
	}

	return nil
}

// CloseDatabase closes the database connection pool
func CloseDatabase() {
	dbMutex.Lock()
	defer dbMutex.Unlock()

	if DB != nil {
		DB.Close()
		DB = nil
		dbInitialized = false
	}
}

func createAccountsTable() error {
	ctx := context.Background()
	query := `CREATE TABLE IF NOT EXISTS accounts (
		user_id TEXT PRIMARY KEY,
		username TEXT NOT NULL DEFAULT '',
		balance DOUBLE PRECISION NOT NULL DEFAULT 0 CHECK (balance >= 0),
		ram INTEGER NOT NULL DEFAULT 0 CHECK (ram >= 0),
		cpu INTEGER NOT NULL DEFAULT 0 CHECK (cpu >= 0),
		disk INTEGER NOT NULL DEFAULT 0 CHECK (disk >= 0),
		server_slots INTEGER NOT NULL DEFAULT 0 CHECK (server_slots >= 0),
		backups INTEGER NOT NULL DEFAULT 0 CHECK (backups >= 0),
		ports INTEGER NOT NULL DEFAULT 0 CHECK (ports >= 0),
		server_id TEXT NOT NULL DEFAULT '',
		has_server BOOLEAN NOT NULL DEFAULT FALSE,
		panel_user_id BIGINT NOT NULL DEFAULT 0,
		last_claim TIMESTAMPTZ,
		claim_streak INTEGER NOT NULL DEFAULT 0,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_accounts_balance ON accounts(balance DESC, user_id);`
	if _, err := DB.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create accounts table: %w", err)
	}
	return nil
}

func createModerationFlagsTable() error {
	ctx := context.Background()
	query := `CREATE TABLE IF NOT EXISTS moderation_flags (
		user_id TEXT NOT NULL,
		flag TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (user_id, flag)
	);`
	if _, err := DB.Exec(ctx, query); err != nil {
		return fmt.Errorf("failed to create moderation_flags table: %w", err)
	}
	return nil
}

func scanAccount(row pgx.Row) (*models.Account, error) {
	acct := &models.Account{}
	err := row.Scan(
		&acct.UserID,
		&acct.Username,
		&acct.Balance,
		&acct.RAM,
		&acct.CPU,
		&acct.Disk,
		&acct.ServerSlots,
		&acct.Backups,
		&acct.Ports,
		&acct.ServerID,
		&acct.HasServer,
		&acct.PanelUserID,
		&acct.LastClaim,
		&acct.ClaimStreak,
		&acct.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return acct, nil
}

func copyAccount(a *models.Account) *models.Account {
	cp := *a
	if a.LastClaim != nil {
		t := *a.LastClaim
		cp.LastClaim = &t
	}
	return &cp
}

// memGetOrCreate returns the live in-memory record. Caller holds memMutex.
func memGetOrCreate(identity, username string) *models.Account {
	acct, ok := memAccounts[identity]
	if !ok {
		acct = &models.Account{
			UserID:    identity,
			Username:  username,
			Balance:   StartingBalance,
			CreatedAt: time.Now(),
		}
		memAccounts[identity] = acct
	}
	if username != "" && acct.Username == "" {
		acct.Username = username
	}
	return acct
}

func setResourceValue(a *models.Account, key string, value int) {
	switch key {
	case "ram":
		a.RAM = value
	case "cpu":
		a.CPU = value
	case "disk":
		a.Disk = value
	case "slots":
		a.ServerSlots = value
	case "backups":
		a.Backups = value
	case "ports":
		a.Ports = value
	}
}

// GetAccount retrieves an account, creating one on first touch
func GetAccount(identity, username string) (*models.Account, error) {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		return copyAccount(memGetOrCreate(identity, username)), nil
	}

	ctx := context.Background()
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	acct, err := scanAccount(DB.QueryRow(ctx, query, identity))
	if err != nil {
		if err == pgx.ErrNoRows {
			return CreateAccount(identity, username)
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return acct, nil
}

// FindAccount retrieves an account without creating one. Read-only
// surfaces use this so anonymous lookups cannot mint rows.
func FindAccount(identity string) (*models.Account, error) {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		acct, ok := memAccounts[identity]
		if !ok {
			return nil, ErrAccountNotFound
		}
		return copyAccount(acct), nil
	}

	ctx := context.Background()
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE user_id = $1`
	acct, err := scanAccount(DB.QueryRow(ctx, query, identity))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to find account: %w", err)
	}
	return acct, nil
}

// CreateAccount creates a new account record
func CreateAccount(identity, username string) (*models.Account, error) {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		return copyAccount(memGetOrCreate(identity, username)), nil
	}

	ctx := context.Background()
	query := `INSERT INTO accounts (user_id, username, balance)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET username = EXCLUDED.username
		RETURNING ` + accountColumns
	acct, err := scanAccount(DB.QueryRow(ctx, query, identity, username, StartingBalance))
	if err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}
	return acct, nil
}

func accountExists(ctx context.Context, identity string) (bool, error) {
	var exists bool
	err := DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM accounts WHERE user_id = $1)`, identity).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check account existence: %w", err)
	}
	return exists, nil
}

// AdjustBalance atomically applies a signed coin delta. The statement is
// guarded so the balance can never go negative; a rejected debit returns
// ErrInsufficientFunds and leaves the row untouched.
func AdjustBalance(identity string, delta float64) (*models.Account, error) {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		acct, ok := memAccounts[identity]
		if !ok {
			return nil, ErrAccountNotFound
		}
		if acct.Balance+delta < 0 {
			return nil, ErrInsufficientFunds
		}
		acct.Balance += delta
		return copyAccount(acct), nil
	}

	ctx := context.Background()
	query := `UPDATE accounts SET balance = balance + $2
		WHERE user_id = $1 AND balance + $2 >= 0
		RETURNING ` + accountColumns
	acct, err := scanAccount(DB.QueryRow(ctx, query, identity, delta))
	if err != nil {
		if err == pgx.ErrNoRows {
			exists, checkErr := accountExists(ctx, identity)
			if checkErr != nil {
				return nil, checkErr
			}
			if !exists {
				return nil, ErrAccountNotFound
			}
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to adjust balance: %w", err)
	}
	return acct, nil
}

// ApplyPurchase debits the price and credits the resource counter in one
// statement, so no intermediate state is ever observable.
func ApplyPurchase(identity string, price float64, resourceKey string, units int) (*models.Account, error) {
	column, ok := resourceColumns[resourceKey]
	if !ok {
		return nil, ErrUnknownResource
	}

	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		acct, ok := memAccounts[identity]
		if !ok {
			return nil, ErrAccountNotFound
		}
		if acct.Balance < price {
			return nil, ErrInsufficientFunds
		}
		acct.Balance -= price
		current, _ := acct.Resource(resourceKey)
		setResourceValue(acct, resourceKey, current+units)
		return copyAccount(acct), nil
	}

	ctx := context.Background()
	query := fmt.Sprintf(`UPDATE accounts SET balance = balance - $2, %s = %s + $3
		WHERE user_id = $1 AND balance >= $2
		RETURNING `+accountColumns, column, column)
	acct, err := scanAccount(DB.QueryRow(ctx, query, identity, price, units))
	if err != nil {
		if err == pgx.ErrNoRows {
			exists, checkErr := accountExists(ctx, identity)
			if checkErr != nil {
				return nil, checkErr
			}
			if !exists {
				return nil, ErrAccountNotFound
			}
			return nil, ErrInsufficientFunds
		}
		return nil, fmt.Errorf("failed to apply purchase: %w", err)
	}
	return acct, nil
}

// AdjustResource atomically applies a signed delta to one inventory
// counter, guarded against going negative.
func AdjustResource(identity, resourceKey string, delta int) (*models.Account, error) {
	column, ok := resourceColumns[resourceKey]
	if !ok {
		return nil, ErrUnknownResource
	}

	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		acct, ok := memAccounts[identity]
		if !ok {
			return nil, ErrAccountNotFound
		}
		current, _ := acct.Resource(resourceKey)
		if current+delta < 0 {
			return nil, ErrInsufficientResource
		}
		setResourceValue(acct, resourceKey, current+delta)
		return copyAccount(acct), nil
	}

	ctx := context.Background()
	query := fmt.Sprintf(`UPDATE accounts SET %s = %s + $2
		WHERE user_id = $1 AND %s + $2 >= 0
		RETURNING `+accountColumns, column, column, column)
	acct, err := scanAccount(DB.QueryRow(ctx, query, identity, delta))
	if err != nil {
		if err == pgx.ErrNoRows {
			exists, checkErr := accountExists(ctx, identity)
			if checkErr != nil {
				return nil, checkErr
			}
			if !exists {
				return nil, ErrAccountNotFound
			}
			return nil, ErrInsufficientResource
		}
		return nil, fmt.Errorf("failed to adjust resource: %w", err)
	}
	return acct, nil
}

// RecordDailyClaim credits the reward and stamps the claim in one write
func RecordDailyClaim(identity string, reward float64, streak int, claimedAt time.Time) (*models.Account, error) {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		acct, ok := memAccounts[identity]
		if !ok {
			return nil, ErrAccountNotFound
		}
		acct.Balance += reward
		t := claimedAt
		acct.LastClaim = &t
		acct.ClaimStreak = streak
		return copyAccount(acct), nil
	}

	ctx := context.Background()
	query := `UPDATE accounts SET balance = balance + $2, last_claim = $3, claim_streak = $4
		WHERE user_id = $1
		RETURNING ` + accountColumns
	acct, err := scanAccount(DB.QueryRow(ctx, query, identity, reward, claimedAt, streak))
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to record daily claim: %w", err)
	}
	return acct, nil
}

// SetServer links or unlinks the external server reference
func SetServer(identity, serverID string) error {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		acct, ok := memAccounts[identity]
		if !ok {
			return ErrAccountNotFound
		}
		acct.ServerID = serverID
		acct.HasServer = serverID != ""
		return nil
	}

	ctx := context.Background()
	tag, err := DB.Exec(ctx,
		`UPDATE accounts SET server_id = $2, has_server = ($2 <> '') WHERE user_id = $1`,
		identity, serverID)
	if err != nil {
		return fmt.Errorf("failed to set server: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// SetPanelUser stores the external panel user id for an account
func SetPanelUser(identity string, panelUserID int64) error {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		acct, ok := memAccounts[identity]
		if !ok {
			return ErrAccountNotFound
		}
		acct.PanelUserID = panelUserID
		return nil
	}

	ctx := context.Background()
	tag, err := DB.Exec(ctx,
		`UPDATE accounts SET panel_user_id = $2 WHERE user_id = $1`, identity, panelUserID)
	if err != nil {
		return fmt.Errorf("failed to set panel user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// DeleteAccount removes an account record. Explicit admin action only.
func DeleteAccount(identity string) error {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		if _, ok := memAccounts[identity]; !ok {
			return ErrAccountNotFound
		}
		delete(memAccounts, identity)
		return nil
	}

	ctx := context.Background()
	tag, err := DB.Exec(ctx, `DELETE FROM accounts WHERE user_id = $1`, identity)
	if err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAccountNotFound
	}
	log.Printf("Account %s deleted by admin action", identity)
	return nil
}

// LeaderboardEntry is one row of the balance leaderboard
type LeaderboardEntry struct {
	UserID   string  `json:"user_id"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}

// TopBalances returns the top accounts by balance, descending
func TopBalances(limit int) ([]LeaderboardEntry, error) {
	if DB == nil {
		memMutex.Lock()
		entries := make([]LeaderboardEntry, 0, len(memAccounts))
		for _, acct := range memAccounts {
			entries = append(entries, LeaderboardEntry{acct.UserID, acct.Username, acct.Balance})
		}
		memMutex.Unlock()
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].Balance != entries[j].Balance {
				return entries[i].Balance > entries[j].Balance
			}
			return entries[i].UserID < entries[j].UserID
		})
		if len(entries) > limit {
			entries = entries[:limit]
		}
		return entries, nil
	}

	ctx := context.Background()
	rows, err := DB.Query(ctx,
		`SELECT user_id, username, balance FROM accounts ORDER BY balance DESC, user_id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []LeaderboardEntry
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Balance); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// SetFlag grants a moderation flag (admin, blacklist) to an identity
func SetFlag(identity, flag string) error {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		if memFlags[identity] == nil {
			memFlags[identity] = make(map[string]bool)
		}
		memFlags[identity][flag] = true
		return nil
	}

	ctx := context.Background()
	_, err := DB.Exec(ctx,
		`INSERT INTO moderation_flags (user_id, flag) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		identity, flag)
	if err != nil {
		return fmt.Errorf("failed to set flag: %w", err)
	}
	return nil
}

// ClearFlag revokes a moderation flag
func ClearFlag(identity, flag string) error {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		if memFlags[identity] != nil {
			delete(memFlags[identity], flag)
		}
		return nil
	}

	ctx := context.Background()
	_, err := DB.Exec(ctx,
		`DELETE FROM moderation_flags WHERE user_id = $1 AND flag = $2`, identity, flag)
	if err != nil {
		return fmt.Errorf("failed to clear flag: %w", err)
	}
	return nil
}

// HasFlag checks a moderation flag
func HasFlag(identity, flag string) (bool, error) {
	if DB == nil {
		memMutex.Lock()
		defer memMutex.Unlock()
		return memFlags[identity][flag], nil
	}

	ctx := context.Background()
	var exists bool
	err := DB.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM moderation_flags WHERE user_id = $1 AND flag = $2)`,
		identity, flag).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check flag: %w", err)
	}
	return exists, nil
}
