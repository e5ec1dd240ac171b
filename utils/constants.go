package utils

import "time"

// General Configuration
const (
	HostClubLink = "https://discord.gg/hostcoin"
	BotColor     = 0x00b894
	ErrorColor   = 0xe74c3c
	SuccessColor = 0x2ecc71
)

// Economy
const (
	StartingBalance   = 0.0
	DailyReward       = 25.0
	DailyCooldown     = 24 * time.Hour
	DailyStreakWindow = 48 * time.Hour
	AfkReward         = 1.2
	AfkInterval       = 60 * time.Second
	CoinflipWinChance = 0.50
	CoinflipCooldown  = 30 * time.Second
)

// Panel unit conversions (inventory units -> panel limits)
const (
	MegabytesPerGB = 1024
)

// Timeouts
const (
	PanelRequestTimeout = 10 * time.Second
	ApplyTimeout        = 15 * time.Second
	SessionTTL          = 5 * time.Minute
)

// Moderation flag types (one table, parameterized by flag)
const (
	FlagAdmin     = "admin"
	FlagBlacklist = "blacklist"
)

// Tiers with balance thresholds, ordered descending; the first tier whose
// threshold <= balance wins. Role IDs are the Discord roles mirrored from
// the projection.
type Tier struct {
	Name      string
	Threshold float64
	Color     int
	RoleID    string
}

var Tiers = []Tier{
	{"Diamond Collector", 15000, 0xb9f2ff, "1104032116320373021"},
	{"Gold Hoarder", 10000, 0xffd700, "1104032114642665533"},
	{"Silver Stacker", 5000, 0xc0c0c0, "1104032112914595962"},
	{"Bronze Saver", 2500, 0xcd7f32, "1104032110955864154"},
	{"Coin Starter", 1000, 0x95a5a6, "1104032108884082719"},
}

// Emojis and Discord Elements
const (
	CoinsEmoji = "🪙"
)

// UI Messages
const (
	SessionExpiredMessage = "Your pending resource application expired. Run /apply again to start over."
	PanelDownMessage      = "The hosting panel rejected the change. Nothing was deducted, please try again later."
)
