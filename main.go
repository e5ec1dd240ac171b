package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"hostcoin-go/cogs"
	"hostcoin-go/utils"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

var session *discordgo.Session
var botStatus = "starting"
var guildID string
var registry = cogs.NewRegistry()

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using process environment")
	}

	cogs.RegisterAll(registry)

	// Start the dashboard API early so health checks pass while Discord connects
	go startDashboard()

	if err := utils.SetupDatabase(); err != nil {
		log.Printf("Database setup failed: %v", err)
		log.Println("Bot will continue with the in-memory store")
	} else {
		log.Println("Database connected successfully")
		defer utils.CloseDatabase()
	}

	utils.InitializeSessions(utils.SessionTTL)
	defer utils.CloseSessions()

	utils.InitializePanel()
	if utils.Panel == nil {
		log.Println("PANEL_URL or PANEL_API_KEY not set - resource application disabled")
	}

	token := os.Getenv("BOT_TOKEN")
	if token == "" {
		log.Println("BOT_TOKEN not set - Discord bot will not connect")
		botStatus = "no_token"
		// Keep the dashboard running
		select {}
	}

	var err error
	session, err = discordgo.New("Bot " + token)
	if err != nil {
		log.Printf("Failed to create Discord session: %v", err)
		botStatus = "error"
		select {}
	}

	session.Identify.Intents = discordgo.IntentsGuilds | discordgo.IntentsGuildMembers

	session.AddHandler(onReady)
	session.AddHandler(registry.Dispatch)

	// Keep tier roles in step with balance changes from any source,
	// including the dashboard endpoints
	guildID = os.Getenv("GUILD_ID")
	utils.OnBalanceChange = func(identity string, balance float64) {
		if session == nil || guildID == "" {
			return
		}
		go func() {
			if err := utils.SyncTierRole(session, guildID, identity, balance); err != nil {
				log.Printf("Tier role sync failed for %s: %v", identity, err)
			}
		}()
	}

	if err := session.Open(); err != nil {
		log.Printf("Failed to open Discord connection: %v", err)
		botStatus = "connection_failed"
		select {}
	}
	defer session.Close()

	log.Println("Bot is now running. Press CTRL+C to exit.")
	botStatus = "running"

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-stop

	log.Println("Gracefully shutting down...")
	botStatus = "shutting_down"
}

func onReady(s *discordgo.Session, event *discordgo.Ready) {
	log.Printf("Discord bot logged in as %s (ID: %s)", event.User.Username, event.User.ID)
	botStatus = "online"

	if err := s.UpdateStatusComplex(discordgo.UpdateStatusData{
		Activities: []*discordgo.Activity{
			{
				Name: "the coin economy",
				Type: discordgo.ActivityTypeWatching,
			},
		},
		Status: "online",
	}); err != nil {
		log.Printf("Failed to update status: %v", err)
	}

	if err := registerSlashCommands(s); err != nil {
		log.Printf("Failed to register slash commands: %v", err)
	}
}

func registerSlashCommands(s *discordgo.Session) error {
	defs := registry.Definitions()
	for _, command := range defs {
		if _, err := s.ApplicationCommandCreate(s.State.User.ID, "", command); err != nil {
			return err
		}
	}
	log.Printf("Successfully registered %d slash commands", len(defs))
	return nil
}
