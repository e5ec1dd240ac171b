package cogs

import (
	"errors"
	"fmt"
	"log"

	"hostcoin-go/utils"

	"github.com/bwmarrin/discordgo"
)

// Responder abstracts one interaction so handlers depend only on reply and
// identity primitives, not on which transport delivered the command.
type Responder interface {
	AuthorID() string
	AuthorName() string
	GuildID() string
	StringOption(name string) (string, bool)
	IntOption(name string) (int64, bool)
	NumberOption(name string) (float64, bool)
	UserOption(name string) (string, bool)
	Reply(content string, ephemeral bool) error
	ReplyEmbed(embed *discordgo.MessageEmbed, ephemeral bool) error
}

// Command is one registered slash-command variant: a typed parameter
// schema, a capability requirement, and a handler.
type Command struct {
	Name        string
	Description string
	Options     []*discordgo.ApplicationCommandOption
	AdminOnly   bool
	Handler     func(r Responder) error
}

// Registry resolves command names to variants once at startup
type Registry struct {
	commands map[string]*Command
}

// NewRegistry creates an empty command registry
func NewRegistry() *Registry {
	return &Registry{commands: make(map[string]*Command)}
}

// Register adds a command variant; later registrations win on collision
func (reg *Registry) Register(cmd *Command) {
	if _, exists := reg.commands[cmd.Name]; exists {
		log.Printf("Duplicate command registration: %s", cmd.Name)
	}
	reg.commands[cmd.Name] = cmd
}

// RegisterAll wires every cog into the registry
func RegisterAll(reg *Registry) {
	RegisterEconomyCommands(reg)
	RegisterShopCommands(reg)
	RegisterRedeemCommands(reg)
	RegisterServerCommands(reg)
}

// Definitions returns the Discord application-command payloads
func (reg *Registry) Definitions() []*discordgo.ApplicationCommand {
	defs := make([]*discordgo.ApplicationCommand, 0, len(reg.commands))
	for _, cmd := range reg.commands {
		defs = append(defs, &discordgo.ApplicationCommand{
			Name:        cmd.Name,
			Description: cmd.Description,
			Options:     cmd.Options,
		})
	}
	return defs
}

// Execute runs a named command through the moderation and capability
// gates. Handler panics are recovered here and converted to a generic
// failure reply; a bad command must never take the process down.
func (reg *Registry) Execute(name string, r Responder) error {
	cmd, ok := reg.commands[name]
	if !ok {
		return r.Reply("Unknown command.", true)
	}

	if blacklisted, err := utils.HasFlag(r.AuthorID(), utils.FlagBlacklist); err != nil {
		log.Printf("Blacklist check failed for %s: %v", r.AuthorID(), err)
	} else if blacklisted {
		return replyError(r, utils.ErrBlacklisted)
	}

	if cmd.AdminOnly {
		isAdmin, err := utils.HasFlag(r.AuthorID(), utils.FlagAdmin)
		if err != nil {
			log.Printf("Admin check failed for %s: %v", r.AuthorID(), err)
			return r.Reply("Something went wrong. Please try again.", true)
		}
		if !isAdmin {
			return replyError(r, utils.ErrUnauthorized)
		}
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Command %s panicked: %v", name, rec)
			if err := r.Reply("An unexpected error occurred. Please try again.", true); err != nil {
				log.Printf("Failed to deliver panic reply for %s: %v", name, err)
			}
		}
	}()

	if err := cmd.Handler(r); err != nil {
		return replyError(r, err)
	}
	return nil
}

// Dispatch routes a Discord interaction through the registry
func (reg *Registry) Dispatch(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	name := i.ApplicationCommandData().Name
	if err := reg.Execute(name, newInteractionResponder(s, i)); err != nil {
		log.Printf("Failed to respond to /%s: %v", name, err)
	}
}

func replyError(r Responder, err error) error {
	return r.ReplyEmbed(utils.CreateErrorEmbed(UserMessage(err)), true)
}

// UserMessage maps a taxonomy error onto a user-readable reply. Panel
// response details stay in the logs and never reach the end user.
func UserMessage(err error) string {
	var cooldown *utils.CooldownError
	if errors.As(err, &cooldown) {
		return fmt.Sprintf("Slow down! Try again in %s.", utils.FormatDuration(cooldown.Remaining))
	}
	var applyErr *utils.ExternalApplyError
	if errors.As(err, &applyErr) {
		return utils.PanelDownMessage
	}

	switch {
	case errors.Is(err, utils.ErrInsufficientFunds):
		return "You don't have enough coins for that."
	case errors.Is(err, utils.ErrInsufficientResource):
		return "You don't have enough of that resource in your inventory."
	case errors.Is(err, utils.ErrInvalidAmount):
		return "The amount must be a positive number."
	case errors.Is(err, utils.ErrCodeNotFound):
		return "That redeem code does not exist."
	case errors.Is(err, utils.ErrCodeExhausted):
		return "That redeem code has been fully used up."
	case errors.Is(err, utils.ErrCodeAlreadyUsed):
		return "You have already redeemed that code."
	case errors.Is(err, utils.ErrDuplicateCode):
		return "A code with that name already exists."
	case errors.Is(err, utils.ErrAccountNotFound):
		return "That account does not exist yet."
	case errors.Is(err, utils.ErrUnauthorized):
		return "You need admin permission to do that."
	case errors.Is(err, utils.ErrBlacklisted):
		return "You are blacklisted from using this bot."
	case errors.Is(err, utils.ErrAlreadyClaimed):
		return "You already claimed your daily reward. Come back later!"
	case errors.Is(err, utils.ErrUnknownResource):
		return "That resource type does not exist."
	case errors.Is(err, utils.ErrNoServer):
		return "You don't have a server yet. Create one first."
	case errors.Is(err, utils.ErrServerExists):
		return "You already have a server."
	case errors.Is(err, utils.ErrNotAppliable):
		return "Server slots are used when creating a server, not applied afterwards."
	case errors.Is(err, utils.ErrPanelUnavailable):
		return "The hosting panel is not available right now."
	default:
		log.Printf("Unhandled command error: %v", err)
		return "Something went wrong. Please try again."
	}
}

// interactionResponder adapts a discordgo interaction to the Responder
// abstraction.
type interactionResponder struct {
	session *discordgo.Session
	event   *discordgo.InteractionCreate
	options map[string]*discordgo.ApplicationCommandInteractionDataOption
}

func newInteractionResponder(s *discordgo.Session, i *discordgo.InteractionCreate) *interactionResponder {
	options := make(map[string]*discordgo.ApplicationCommandInteractionDataOption)
	for _, opt := range i.ApplicationCommandData().Options {
		options[opt.Name] = opt
	}
	return &interactionResponder{session: s, event: i, options: options}
}

func (r *interactionResponder) author() *discordgo.User {
	if r.event.Member != nil {
		return r.event.Member.User
	}
	return r.event.User
}

func (r *interactionResponder) AuthorID() string {
	if u := r.author(); u != nil {
		return u.ID
	}
	return ""
}

func (r *interactionResponder) AuthorName() string {
	if u := r.author(); u != nil {
		return u.Username
	}
	return ""
}

func (r *interactionResponder) GuildID() string {
	return r.event.GuildID
}

func (r *interactionResponder) StringOption(name string) (string, bool) {
	opt, ok := r.options[name]
	if !ok {
		return "", false
	}
	return opt.StringValue(), true
}

func (r *interactionResponder) IntOption(name string) (int64, bool) {
	opt, ok := r.options[name]
	if !ok {
		return 0, false
	}
	return opt.IntValue(), true
}

func (r *interactionResponder) NumberOption(name string) (float64, bool) {
	opt, ok := r.options[name]
	if !ok {
		return 0, false
	}
	return opt.FloatValue(), true
}

func (r *interactionResponder) UserOption(name string) (string, bool) {
	opt, ok := r.options[name]
	if !ok {
		return "", false
	}
	return opt.UserValue(nil).ID, true
}

func (r *interactionResponder) Reply(content string, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Content: content}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(r.event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}

func (r *interactionResponder) ReplyEmbed(embed *discordgo.MessageEmbed, ephemeral bool) error {
	data := &discordgo.InteractionResponseData{Embeds: []*discordgo.MessageEmbed{embed}}
	if ephemeral {
		data.Flags = discordgo.MessageFlagsEphemeral
	}
	return r.session.InteractionRespond(r.event.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: data,
	})
}
