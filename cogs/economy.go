package cogs

import (
	"errors"
	"fmt"
	"strings"

	"hostcoin-go/utils"

	"github.com/bwmarrin/discordgo"
)

// RegisterEconomyCommands wires the balance and coin commands
func RegisterEconomyCommands(reg *Registry) {
	reg.Register(&Command{
		Name:        "balance",
		Description: "Check your coin balance",
		Handler:     handleBalance,
	})
	reg.Register(&Command{
		Name:        "daily",
		Description: "Claim your daily coin reward",
		Handler:     handleDaily,
	})
	reg.Register(&Command{
		Name:        "coinflip",
		Description: "Wager coins on a coin flip",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "wager",
				Description: "Coins to wager",
				Required:    true,
			},
		},
		Handler: handleCoinflip,
	})
	reg.Register(&Command{
		Name:        "leaderboard",
		Description: "Top 10 coin balances",
		Handler:     handleLeaderboard,
	})
	reg.Register(&Command{
		Name:        "profile",
		Description: "View your balance, tier and resource inventory",
		Handler:     handleProfile,
	})
	reg.Register(&Command{
		Name:        "addcoins",
		Description: "Credit coins to an account",
		AdminOnly:   true,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Account to credit",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "amount",
				Description: "Coins to add",
				Required:    true,
			},
		},
		Handler: handleAddCoins,
	})
	reg.Register(&Command{
		Name:        "removecoins",
		Description: "Debit coins from an account",
		AdminOnly:   true,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Account to debit",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionNumber,
				Name:        "amount",
				Description: "Coins to remove",
				Required:    true,
			},
		},
		Handler: handleRemoveCoins,
	})
	reg.Register(&Command{
		Name:        "deleteaccount",
		Description: "Permanently delete an account record",
		AdminOnly:   true,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionUser,
				Name:        "user",
				Description: "Account to delete",
				Required:    true,
			},
		},
		Handler: handleDeleteAccount,
	})
}

func handleBalance(r Responder) error {
	acct, err := utils.GetAccount(r.AuthorID(), r.AuthorName())
	if err != nil {
		return err
	}
	embed := utils.CreateBrandedEmbed(
		"💰 Balance",
		fmt.Sprintf("You currently have **%s** %s coins", utils.FormatCoins(acct.Balance), utils.CoinsEmoji),
		utils.BotColor,
	)
	return r.ReplyEmbed(embed, false)
}

func handleDaily(r Responder) error {
	acct, err := utils.ClaimDaily(r.AuthorID())
	if errors.Is(err, utils.ErrAlreadyClaimed) {
		current, getErr := utils.GetAccount(r.AuthorID(), r.AuthorName())
		if getErr != nil {
			return getErr
		}
		embed := utils.CreateErrorEmbed(fmt.Sprintf(
			"You already claimed today's reward. Next claim in %s.",
			utils.FormatDuration(current.TimeUntilNextClaim()),
		))
		return r.ReplyEmbed(embed, true)
	}
	if err != nil {
		return err
	}

	embed := utils.CreateBrandedEmbed(
		"📅 Daily Reward",
		fmt.Sprintf("You claimed **%s** %s coins!", utils.FormatCoins(utils.DailyReward), utils.CoinsEmoji),
		utils.SuccessColor,
	)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "🔥 Streak", Value: fmt.Sprintf("%d days", acct.ClaimStreak), Inline: true},
		{Name: "💰 Balance", Value: utils.FormatCoins(acct.Balance), Inline: true},
	}
	return r.ReplyEmbed(embed, false)
}

func handleCoinflip(r Responder) error {
	if _, err := utils.GetAccount(r.AuthorID(), r.AuthorName()); err != nil {
		return err
	}

	wager, ok := r.NumberOption("wager")
	if !ok {
		return utils.ErrInvalidAmount
	}

	won, acct, err := utils.GambleSettle(r.AuthorID(), wager, utils.CoinflipWinChance)
	if err != nil {
		return err
	}

	title := "🪙 Heads! You won"
	color := utils.SuccessColor
	if !won {
		title = "🪙 Tails! You lost"
		color = utils.ErrorColor
	}
	embed := utils.CreateBrandedEmbed(
		title,
		fmt.Sprintf("Wager: **%s** coins\nNew balance: **%s** %s",
			utils.FormatCoins(wager), utils.FormatCoins(acct.Balance), utils.CoinsEmoji),
		color,
	)
	return r.ReplyEmbed(embed, false)
}

func handleLeaderboard(r Responder) error {
	entries, err := utils.TopBalances(10)
	if err != nil {
		return err
	}

	var sb strings.Builder
	for i, entry := range entries {
		name := entry.Username
		if name == "" {
			name = entry.UserID
		}
		fmt.Fprintf(&sb, "**%d.** %s: %s %s\n", i+1, name, utils.FormatCoins(entry.Balance), utils.CoinsEmoji)
	}
	if sb.Len() == 0 {
		sb.WriteString("Nobody has any coins yet.")
	}

	embed := utils.CreateBrandedEmbed("🏆 Coin Leaderboard", sb.String(), utils.BotColor)
	return r.ReplyEmbed(embed, false)
}

func handleProfile(r Responder) error {
	acct, err := utils.GetAccount(r.AuthorID(), r.AuthorName())
	if err != nil {
		return err
	}

	tierName := "None yet"
	color := utils.BotColor
	if tier := utils.TierFor(acct.Balance); tier != nil {
		tierName = tier.Name
		color = tier.Color
	}

	embed := utils.CreateBrandedEmbed(fmt.Sprintf("🎛️ %s's Profile", r.AuthorName()), "", color)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "💰 Coins", Value: utils.FormatCoins(acct.Balance), Inline: true},
		{Name: "🏅 Tier", Value: tierName, Inline: true},
		{Name: "🔥 Daily Streak", Value: fmt.Sprintf("%d", acct.ClaimStreak), Inline: true},
		{Name: "🧠 RAM", Value: fmt.Sprintf("%d GB", acct.RAM), Inline: true},
		{Name: "⚙️ CPU", Value: fmt.Sprintf("%d%%", acct.CPU), Inline: true},
		{Name: "💾 Disk", Value: fmt.Sprintf("%d GB", acct.Disk), Inline: true},
		{Name: "🗄️ Server Slots", Value: fmt.Sprintf("%d", acct.ServerSlots), Inline: true},
		{Name: "📦 Backups", Value: fmt.Sprintf("%d", acct.Backups), Inline: true},
		{Name: "🔌 Ports", Value: fmt.Sprintf("%d", acct.Ports), Inline: true},
	}
	if acct.HasServer {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name: "🖥️ Server", Value: acct.ServerID, Inline: true,
		})
	}
	return r.ReplyEmbed(embed, false)
}

func handleAddCoins(r Responder) error {
	target, ok := r.UserOption("user")
	if !ok {
		return utils.ErrAccountNotFound
	}
	amount, ok := r.NumberOption("amount")
	if !ok {
		return utils.ErrInvalidAmount
	}

	acct, err := utils.Credit(target, amount, "admin grant by "+r.AuthorID())
	if err != nil {
		return err
	}
	return r.Reply(fmt.Sprintf("Added %s coins to <@%s>. New balance: %s.",
		utils.FormatCoins(amount), target, utils.FormatCoins(acct.Balance)), true)
}

func handleRemoveCoins(r Responder) error {
	target, ok := r.UserOption("user")
	if !ok {
		return utils.ErrAccountNotFound
	}
	amount, ok := r.NumberOption("amount")
	if !ok {
		return utils.ErrInvalidAmount
	}

	acct, err := utils.Debit(target, amount)
	if err != nil {
		return err
	}
	return r.Reply(fmt.Sprintf("Removed %s coins from <@%s>. New balance: %s.",
		utils.FormatCoins(amount), target, utils.FormatCoins(acct.Balance)), true)
}

func handleDeleteAccount(r Responder) error {
	target, ok := r.UserOption("user")
	if !ok {
		return utils.ErrAccountNotFound
	}
	if err := utils.DeleteAccount(target); err != nil {
		return err
	}
	return r.Reply(fmt.Sprintf("Account <@%s> deleted.", target), true)
}
