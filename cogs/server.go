package cogs

import (
	"context"
	"fmt"

	"hostcoin-go/utils"

	"github.com/bwmarrin/discordgo"
)

// RegisterServerCommands wires server provisioning and resource application
func RegisterServerCommands(reg *Registry) {
	applyChoices := make([]*discordgo.ApplicationCommandOptionChoice, 0)
	for _, key := range utils.ResourceKeys() {
		if key == "slots" {
			continue
		}
		applyChoices = append(applyChoices, &discordgo.ApplicationCommandOptionChoice{
			Name:  key,
			Value: key,
		})
	}

	reg.Register(&Command{
		Name:        "apply",
		Description: "Start applying a purchased resource to your server",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "resource",
				Description: "Resource to apply",
				Required:    true,
				Choices:     applyChoices,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "amount",
				Description: "How many units",
				Required:    true,
			},
		},
		Handler: handleApply,
	})
	reg.Register(&Command{
		Name:        "applyconfirm",
		Description: "Confirm your pending resource application",
		Handler:     handleApplyConfirm,
	})
	reg.Register(&Command{
		Name:        "applycancel",
		Description: "Cancel your pending resource application",
		Handler:     handleApplyCancel,
	})
	reg.Register(&Command{
		Name:        "createserver",
		Description: "Create a server from your resource inventory",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        "name",
				Description: "Server name",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "ram",
				Description: "RAM in GB",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "disk",
				Description: "Disk in GB",
				Required:    true,
			},
			{
				Type:        discordgo.ApplicationCommandOptionInteger,
				Name:        "cpu",
				Description: "CPU percent",
				Required:    true,
			},
		},
		Handler: handleCreateServer,
	})
	reg.Register(&Command{
		Name:        "deleteserver",
		Description: "Delete your server and unlink it from your account",
		Handler:     handleDeleteServer,
	})
}

func handleApply(r Responder) error {
	acct, err := utils.GetAccount(r.AuthorID(), r.AuthorName())
	if err != nil {
		return err
	}
	if !acct.HasServer {
		return utils.ErrNoServer
	}

	resource, ok := r.StringOption("resource")
	if !ok {
		return utils.ErrUnknownResource
	}
	amount, ok := r.IntOption("amount")
	if !ok || amount <= 0 {
		return utils.ErrInvalidAmount
	}
	if resource == "slots" {
		return utils.ErrNotAppliable
	}
	if _, known := utils.ResourceColumn(resource); !known {
		return utils.ErrUnknownResource
	}

	held, _ := acct.Resource(resource)
	if held < int(amount) {
		return utils.ErrInsufficientResource
	}

	pending := utils.Sessions.Put(r.AuthorID(), resource, int(amount), acct.ServerID)

	embed := utils.CreateBrandedEmbed(
		"⚙️ Confirm application",
		fmt.Sprintf("Apply **%d %s** to server `%s`?\nRun `/applyconfirm` within %s, or `/applycancel` to abort.",
			pending.Amount, pending.ResourceType, pending.ServerID,
			utils.FormatDuration(utils.SessionTTL)),
		utils.BotColor,
	)
	return r.ReplyEmbed(embed, true)
}

func handleApplyConfirm(r Responder) error {
	pending, ok := utils.Sessions.Get(r.AuthorID())
	if !ok {
		return r.Reply(utils.SessionExpiredMessage, true)
	}

	ctx, cancel := context.WithTimeout(context.Background(), utils.ApplyTimeout)
	defer cancel()

	acct, err := utils.ApplyResource(ctx, r.AuthorID(), pending.ResourceType, pending.Amount, pending.ServerID)
	if err != nil {
		return err
	}
	utils.Sessions.Clear(r.AuthorID())

	held, _ := acct.Resource(pending.ResourceType)
	embed := utils.CreateBrandedEmbed(
		"✅ Resource applied",
		fmt.Sprintf("Applied **%d %s** to server `%s`.\nRemaining in inventory: **%d**",
			pending.Amount, pending.ResourceType, pending.ServerID, held),
		utils.SuccessColor,
	)
	return r.ReplyEmbed(embed, false)
}

func handleApplyCancel(r Responder) error {
	if _, ok := utils.Sessions.Get(r.AuthorID()); !ok {
		return r.Reply("You have no pending application.", true)
	}
	utils.Sessions.Clear(r.AuthorID())
	return r.Reply("Pending application cancelled. Nothing was deducted.", true)
}

func handleCreateServer(r Responder) error {
	name, ok := r.StringOption("name")
	if !ok || name == "" {
		return utils.ErrInvalidAmount
	}
	ram, _ := r.IntOption("ram")
	disk, _ := r.IntOption("disk")
	cpu, _ := r.IntOption("cpu")

	ctx, cancel := context.WithTimeout(context.Background(), utils.ApplyTimeout)
	defer cancel()

	srv, err := utils.ProvisionServer(ctx, r.AuthorID(), r.AuthorName(), name, int(ram), int(disk), int(cpu))
	if err != nil {
		return err
	}

	embed := utils.CreateBrandedEmbed(
		"🖥️ Server created",
		fmt.Sprintf("**%s** is being installed.\nRAM: %d GB, Disk: %d GB, CPU: %d%%", srv.Name, ram, disk, cpu),
		utils.SuccessColor,
	)
	return r.ReplyEmbed(embed, false)
}

func handleDeleteServer(r Responder) error {
	ctx, cancel := context.WithTimeout(context.Background(), utils.ApplyTimeout)
	defer cancel()

	if err := utils.ReleaseServer(ctx, r.AuthorID()); err != nil {
		return err
	}
	return r.Reply("Your server has been deleted. Slots and resources already applied to it are not refunded.", true)
}
