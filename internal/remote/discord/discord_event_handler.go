package discord

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/copilot-bot/copilot/internal/event"
)

const (
	colorInfo    = 0x3498DB
	colorWarning = 0xE67E22
)

func (b *Bot) Handle(ctx context.Context, e event.Event) error {
	if !b.shouldPublish(e) {
		return nil
	}

	switch evt := e.(type) {
	case event.LeaderZoneChangedEvent:
		return b.sendEmbed(ctx, zoneChangeEmbed(evt))
	case event.TaskAbandonedEvent:
		return b.sendEmbed(ctx, abandonedEmbed(evt))
	case event.NgrokTunnelEvent:
		return b.sendEventMessage(ctx, evt.Message())
	}

	return b.sendEventMessage(ctx, fmt.Sprintf("**[%s]** %s", e.Supervisor(), e.Message()))
}

func (b *Bot) shouldPublish(e event.Event) bool {
	switch e.(type) {
	case event.ZoneLoadedEvent:
		return false
	case event.TaskAbandonedEvent:
		return b.taskMessages
	}
	return true
}

func zoneChangeEmbed(evt event.LeaderZoneChangedEvent) *discordgo.MessageEmbed {
	from := evt.From
	if from == "" {
		from = "unknown"
	}
	return &discordgo.MessageEmbed{
		Title:       fmt.Sprintf("[%s] %s changed zone", evt.Supervisor(), evt.Leader),
		Description: fmt.Sprintf("%s → %s", from, evt.To),
		Color:       colorInfo,
		Timestamp:   evt.OccurredAt().Format(time.RFC3339),
	}
}

func abandonedEmbed(evt event.TaskAbandonedEvent) *discordgo.MessageEmbed {
	return &discordgo.MessageEmbed{
		Title: fmt.Sprintf("[%s] %s task abandoned", evt.Supervisor(), evt.TaskType),
		Color: colorWarning,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Attempts", Value: fmt.Sprintf("%d", evt.Attempts), Inline: true},
			{Name: "Reason", Value: evt.Reason, Inline: true},
		},
		Timestamp: evt.OccurredAt().Format(time.RFC3339),
	}
}

func (b *Bot) sendEventMessage(ctx context.Context, message string) error {
	if b.useWebhook {
		return b.webhookClient.Send(ctx, message)
	}

	_, err := b.discordSession.ChannelMessageSend(b.channelID, message)
	return err
}

func (b *Bot) sendEmbed(ctx context.Context, embed *discordgo.MessageEmbed) error {
	if b.useWebhook {
		return b.webhookClient.SendEmbed(ctx, embed)
	}

	_, err := b.discordSession.ChannelMessageSendEmbed(b.channelID, embed)
	return err
}
