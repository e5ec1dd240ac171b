package cogs

import (
	"fmt"

	"hostcoin-go/utils"

	"github.com/bwmarrin/discordgo"
)

// RegisterShopCommands wires the resource shop
func RegisterShopCommands(reg *Registry) {
	choices := make([]*discordgo.ApplicationCommandOptionChoice, 0)
	for _, entry := range utils.CatalogEntries() {
		choices = append(choices, &discordgo.ApplicationCommandOptionChoice{
			Name:  entry.Name,
			Value: entry.Key,
		})
	}

	reg.Register(&Command{
		Name:        "shop",
		Description: "View the resource price list",
		Handler:     handleShop,
	})
	reg.Register(&Command{
		Name:        "buy",
		Description: "Buy a resource with coins",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "item",
				Description: "What to buy",
				Required:    true,
				Choices:     choices,
			},
		},
		Handler: handleBuy,
	})
}

func handleShop(r Responder) error {
	embed := utils.CreateBrandedEmbed("🛒 Resource Shop", "Buy resources with coins, then /apply them to your server.", utils.BotColor)
	for _, entry := range utils.CatalogEntries() {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:   entry.Name,
			Value:  fmt.Sprintf("%s %s coins\n`/buy item:%s`", utils.FormatCoins(entry.Price), utils.CoinsEmoji, entry.Key),
			Inline: true,
		})
	}
	return r.ReplyEmbed(embed, false)
}

func handleBuy(r Responder) error {
	if _, err := utils.GetAccount(r.AuthorID(), r.AuthorName()); err != nil {
		return err
	}

	key, ok := r.StringOption("item")
	if !ok {
		return utils.ErrUnknownResource
	}

	acct, entry, err := utils.Purchase(r.AuthorID(), key)
	if err != nil {
		return err
	}

	held, _ := acct.Resource(entry.Resource)
	embed := utils.CreateBrandedEmbed(
		"✅ Purchase complete",
		fmt.Sprintf("You bought **%s** for **%s** %s coins.", entry.Name, utils.FormatCoins(entry.Price), utils.CoinsEmoji),
		utils.SuccessColor,
	)
	embed.Fields = []*discordgo.MessageEmbedField{
		{Name: "Inventory", Value: fmt.Sprintf("%s: %d", entry.Resource, held), Inline: true},
		{Name: "Balance", Value: utils.FormatCoins(acct.Balance), Inline: true},
	}
	return r.ReplyEmbed(embed, false)
}
