package cogs

import (
	"fmt"
	"strings"

	"hostcoin-go/utils"

	"github.com/bwmarrin/discordgo"
)

// RegisterRedeemCommands wires the redeem-code registry commands
func RegisterRedeemCommands(reg *Registry) {
	reg.Register(&Command{
		Name:        "redeem",
		Description: "Redeem a promo code for coins",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "code",
				Description: "The code to redeem",
				Required:    true,
			},
		},
		Handler: handleRedeem,
	})
	reg.Register(&Command{
		Name:        "createcode",
		Description: "Create a redeem code",
		AdminOnly:   true,
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "code",
				Description: "Code name",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "coins",
				Description: "Coin reward per redemption",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "maxuses",
				Description: "Total number of redemptions allowed",
				Required:    true,
			},
		},
		Handler: handleCreateCode,
	})
	reg.Register(&Command{
		Name:        "listcodes",
		Description: "List all redeem codes",
		AdminOnly:   true,
		Handler:     handleListCodes,
	})
}

func handleRedeem(r Responder) error {
	if _, err := utils.GetAccount(r.AuthorID(), r.AuthorName()); err != nil {
		return err
	}

	code, ok := r.StringOption("code")
	if !ok {
		return utils.ErrCodeNotFound
	}

	coins, acct, err := utils.Redeem(r.AuthorID(), strings.TrimSpace(code))
	if err != nil {
		return err
	}

	embed := utils.CreateBrandedEmbed(
		"🎁 Code redeemed",
		fmt.Sprintf("You received **%d** %s coins!\nNew balance: **%s**",
			coins, utils.CoinsEmoji, utils.FormatCoins(acct.Balance)),
		utils.SuccessColor,
	)
	return r.ReplyEmbed(embed, false)
}

func handleCreateCode(r Responder) error {
	code, ok := r.StringOption("code")
	if !ok || strings.TrimSpace(code) == "" {
		return utils.ErrCodeNotFound
	}
	coins, _ := r.IntOption("coins")
	maxUses, _ := r.IntOption("maxuses")

	if err := utils.CreateCode(strings.TrimSpace(code), coins, int(maxUses)); err != nil {
		return err
	}
	return r.Reply(fmt.Sprintf("Code `%s` created: %d coins, %d uses.", code, coins, maxUses), true)
}

func handleListCodes(r Responder) error {
	codes, err := utils.ListCodes()
	if err != nil {
		return err
	}

	var sb strings.Builder
	for _, c := range codes {
		fmt.Fprintf(&sb, "`%s`: %d coins, %d/%d uses\n", c.Code, c.Coins, c.CurrentUses, c.MaxUses)
	}
	if sb.Len() == 0 {
		sb.WriteString("No codes exist yet.")
	}

	embed := utils.CreateBrandedEmbed("🎟️ Redeem Codes", sb.String(), utils.BotColor)
	return r.ReplyEmbed(embed, true)
}
