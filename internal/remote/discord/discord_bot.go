package discord

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// Controller is the part of the follow loop chat commands can drive.
type Controller interface {
	Summary() string
	SetAutopilot(enabled bool) error
}

type Options struct {
	Token              string
	ChannelID          string
	BotAdmins          []string
	UseWebhook         bool
	WebhookURL         string
	EnableTaskMessages bool
}

type Bot struct {
	discordSession *discordgo.Session
	channelID      string
	admins         []string
	controller     Controller
	useWebhook     bool
	webhookClient  *webhookClient
	taskMessages   bool
}

func NewBot(opts Options, controller Controller) (*Bot, error) {
	botInstance := &Bot{
		channelID:    opts.ChannelID,
		admins:       opts.BotAdmins,
		controller:   controller,
		useWebhook:   opts.UseWebhook,
		taskMessages: opts.EnableTaskMessages,
	}

	if opts.UseWebhook {
		if strings.TrimSpace(opts.WebhookURL) == "" {
			return nil, fmt.Errorf("webhook URL is required when using webhook mode")
		}
		botInstance.webhookClient = newWebhookClient(opts.WebhookURL)
		return botInstance, nil
	}

	dg, err := discordgo.New("Bot " + opts.Token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}

	botInstance.discordSession = dg

	return botInstance, nil
}

func (b *Bot) Start(ctx context.Context) error {
	if b.useWebhook {
		<-ctx.Done()
		return nil
	}

	b.discordSession.AddHandler(b.onMessageCreated)
	// MESSAGE_CONTENT intent is required to read the commands
	b.discordSession.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent
	err := b.discordSession.Open()
	if err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}

	<-ctx.Done()

	return b.discordSession.Close()
}

func (b *Bot) onMessageCreated(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author.ID == s.State.User.ID {
		return
	}
	if !slices.Contains(b.admins, m.Author.ID) {
		return
	}
	if !strings.HasPrefix(m.Content, "!") {
		return
	}

	reply := b.command(strings.Fields(m.Content)[0])
	if _, err := s.ChannelMessageSend(m.ChannelID, reply); err != nil {
		fmt.Printf("failed to reply to Discord command: %v\n", err)
	}
}
