package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"
)

// CreateBrandedEmbed creates a standard embed with the bot branding
func CreateBrandedEmbed(title, description string, color int) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title:       title,
		Description: description,
		Color:       color,
		Footer: &discordgo.MessageEmbedFooter{
			Text: "HostCoin Club",
		},
		Timestamp: time.Now().Format(time.RFC3339),
	}
}

// CreateErrorEmbed creates a red embed for a user-readable failure
func CreateErrorEmbed(message string) *discordgo.MessageEmbed {
	return CreateBrandedEmbed("❌ Something went wrong", message, ErrorColor)
}

// FormatCoins renders a coin amount, dropping the decimals when whole
func FormatCoins(amount float64) string {
	s := fmt.Sprintf("%.2f", amount)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
