package discord

import (
	"fmt"
)

const helpText = "Available commands:\n" +
	"`!status` shows what the follower is doing\n" +
	"`!start` resumes following the leader\n" +
	"`!stop` pauses the follower, the bot stays in game\n" +
	"`!help` shows this message"

// command runs a chat command and returns the reply.
func (b *Bot) command(prefix string) string {
	switch prefix {
	case "!status":
		return b.controller.Summary()
	case "!start":
		return b.setAutopilot(true)
	case "!stop":
		return b.setAutopilot(false)
	case "!help":
		return helpText
	}
	return fmt.Sprintf("Unknown command: `%s`. Type `!help` for available commands.", prefix)
}

func (b *Bot) setAutopilot(enabled bool) string {
	if err := b.controller.SetAutopilot(enabled); err != nil {
		return fmt.Sprintf("Could not update autopilot: %s", err)
	}
	if enabled {
		return "Autopilot enabled, following the leader."
	}
	return "Autopilot disabled."
}
