package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/copilot-bot/copilot/internal/event"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Controller is the part of the follow loop chat commands can drive.
type Controller interface {
	Summary() string
	SetAutopilot(enabled bool) error
}

type Bot struct {
	bot        *tgbotapi.BotAPI
	chatID     int64
	controller Controller
	logger     *slog.Logger
}

func (b *Bot) Start(ctx context.Context) error {
	offset, err := b.getLatestOffset()
	if err != nil {
		return err
	}

	u := tgbotapi.NewUpdate(offset)
	u.Timeout = 5
	updates := b.bot.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.bot.StopReceivingUpdates()
			for range updates {
			}
			return nil
		case update, ok := <-updates:
			if !ok {
				return nil
			}
			if update.Message != nil && update.Message.Chat != nil && update.Message.Chat.ID == b.chatID {
				b.send(command(b.controller, update.Message.Text))
			}
		}
	}
}

func (b *Bot) Handle(_ context.Context, e event.Event) error {
	text, publish := formatEvent(e)
	if !publish {
		return nil
	}
	return b.send(text)
}

func (b *Bot) send(text string) error {
	if _, err := b.bot.Send(tgbotapi.NewMessage(b.chatID, text)); err != nil {
		b.logger.Debug("Telegram message could not be sent", slog.Any("error", err))
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}

func (b *Bot) getLatestOffset() (int, error) {
	upds, err := b.bot.GetUpdates(tgbotapi.NewUpdate(-1))
	if err != nil {
		return 0, err
	}
	offset := 0
	if len(upds) > 0 {
		offset = upds[0].UpdateID + 1
	}
	return offset, nil
}

func command(c Controller, text string) string {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "status":
		return c.Summary()
	case "start", "stop":
		enabled := strings.EqualFold(strings.TrimSpace(text), "start")
		if err := c.SetAutopilot(enabled); err != nil {
			return "Could not update autopilot: " + err.Error()
		}
		if enabled {
			return "Autopilot enabled"
		}
		return "Autopilot disabled"
	}
	return "Commands: status, start, stop"
}

func formatEvent(e event.Event) (string, bool) {
	switch evt := e.(type) {
	case event.ZoneLoadedEvent, event.TaskAbandonedEvent:
		return "", false
	case event.LeaderZoneChangedEvent:
		return fmt.Sprintf("[%s] %s moved to %s", evt.Supervisor(), evt.Leader, evt.To), true
	case event.PortalTransitionEvent:
		if evt.Active {
			return fmt.Sprintf("[%s] leader jumped %.0f units away, looking for a portal", evt.Supervisor(), evt.Distance), true
		}
		return fmt.Sprintf("[%s] caught up with the leader", evt.Supervisor()), true
	case event.NgrokTunnelEvent:
		return evt.Message(), true
	}
	return fmt.Sprintf("[%s] %s", e.Supervisor(), e.Message()), true
}
