package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	sloggger "github.com/copilot-bot/copilot/cmd/copilot/log"
	"github.com/copilot-bot/copilot/internal/bot"
	"github.com/copilot-bot/copilot/internal/config"
	botCtx "github.com/copilot-bot/copilot/internal/context"
	"github.com/copilot-bot/copilot/internal/event"
	"github.com/copilot-bot/copilot/internal/game"
	"github.com/copilot-bot/copilot/internal/remote/discord"
	ngrokremote "github.com/copilot-bot/copilot/internal/remote/ngrok"
	"github.com/copilot-bot/copilot/internal/remote/telegram"
	"github.com/copilot-bot/copilot/internal/server"
	"github.com/copilot-bot/copilot/internal/sim"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// ErrNoHost is returned when the follower is started standalone without the simulator: the game
// world is only available through the host integration.
var ErrNoHost = errors.New("no host world attached, enable the simulator to run standalone")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the follower",
	RunE:  runFollower,
}

// wrapWithRecover wraps a function with panic recovery logic
func wrapWithRecover(logger *slog.Logger, f func() error) func() error {
	return func() error {
		defer func() {
			if r := recover(); r != nil {
				logger.Error("panic recovered", slog.Any("panic", r), slog.String("stack", string(debug.Stack())))
				sloggger.FlushLog()
			}
		}()
		return f()
	}
}

func runFollower(cmd *cobra.Command, args []string) error {
	store := config.NewStore(configPath)
	if err := store.Load(); err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	s := store.Current()

	logger, err := sloggger.NewLogger(s.Debug.Log, s.LogSaveDirectory, "")
	if err != nil {
		return fmt.Errorf("error starting logger: %w", err)
	}
	defer sloggger.FlushAndClose()

	if !s.Simulator.Enabled {
		return ErrNoHost
	}
	world := sim.Demo(s)
	logger.Info("Running against the simulator", slog.String("zone", sim.ZoneCoast))
	input, err := followerInput(s, world)
	if err != nil {
		return err
	}
	if s.Simulator.InputWindow != 0 {
		logger.Warn("Simulated run sends its input to a real window", slog.Uint64("hwnd", s.Simulator.InputWindow))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)

	eventListener := event.NewListener(logger)
	eventListener.Register(event.LogHandler(logger))

	name := supervisorName(configPath)
	follower := bot.NewBot(botCtx.NewContext(name, logger.With(slog.String("supervisor", name)), store, world, input, eventListener))

	var srv *server.HttpServer
	if s.Server.Enabled {
		srv, err = server.New(logger, follower)
		if err != nil {
			return fmt.Errorf("error starting local server: %w", err)
		}
		g.Go(wrapWithRecover(logger, func() error {
			defer cancel()
			return srv.Listen(ctx, s.Server.Port)
		}))
	}

	var ngrokTunnel *ngrokremote.Tunnel
	if s.Ngrok.Enabled && srv != nil {
		if s.Ngrok.Authtoken == "" && os.Getenv("NGROK_AUTHTOKEN") == "" {
			logger.Warn("ngrok enabled but no authtoken set; skipping tunnel start")
		} else {
			tunnel, err := ngrokremote.Start(ctx, ngrokremote.OptionsFrom(s.Ngrok, s.Server.Port))
			if err != nil {
				logger.Error("ngrok tunnel failed to start", slog.Any("error", err))
			} else {
				logger.Info("ngrok tunnel established", slog.String("url", tunnel.URL()))
				eventListener.Send(event.NgrokTunnel(tunnel.URL()))
				ngrokTunnel = tunnel
			}
		}
	}

	if s.Discord.Enabled {
		discordBot, err := discord.NewBot(discord.Options{
			Token:              s.Discord.Token,
			ChannelID:          s.Discord.ChannelID,
			BotAdmins:          s.Discord.BotAdmins,
			UseWebhook:         s.Discord.UseWebhook,
			WebhookURL:         s.Discord.WebhookURL,
			EnableTaskMessages: s.Discord.EnableTaskMessages,
		}, follower)
		if err != nil {
			logger.Error("Discord could not been initialized", slog.Any("error", err))
		} else {
			eventListener.Register(discordBot.Handle)
			g.Go(wrapWithRecover(logger, func() error {
				return discordBot.Start(ctx)
			}))
		}
	}

	if s.Telegram.Enabled {
		telegramBot, err := telegram.NewBot(s.Telegram.Token, s.Telegram.ChatID, follower, logger)
		if err != nil {
			logger.Error("Telegram could not been initialized", slog.Any("error", err))
		} else {
			eventListener.Register(telegramBot.Handle)
			g.Go(wrapWithRecover(logger, func() error {
				return telegramBot.Start(ctx)
			}))
		}
	}

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return eventListener.Listen(ctx)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		defer cancel()
		return follower.Run(ctx)
	}))

	g.Go(wrapWithRecover(logger, func() error {
		<-ctx.Done()
		logger.Info("Copilot shutting down...")
		if ngrokTunnel != nil {
			if closeErr := ngrokTunnel.Close(); closeErr != nil {
				logger.Error("error stopping ngrok tunnel", slog.Any("error", closeErr))
			}
		}
		return nil
	}))

	if err = g.Wait(); err != nil {
		logger.Error("Error running Copilot", slog.Any("error", err))
		return err
	}
	return nil
}

// followerInput picks where key and mouse events go: the simulated world itself, or the window
// configured in the simulator settings.
func followerInput(s config.Settings, world *sim.World) (game.Input, error) {
	if s.Simulator.InputWindow == 0 {
		return world, nil
	}
	in, err := game.NewWin32Input(uintptr(s.Simulator.InputWindow))
	if err != nil {
		return nil, fmt.Errorf("error attaching input to window %#x: %w", s.Simulator.InputWindow, err)
	}
	return in, nil
}

// supervisorName names the follower after its profile directory.
func supervisorName(path string) string {
	dir := filepath.Base(filepath.Dir(path))
	if dir == "." || dir == config.DefaultConfigDir || dir == string(filepath.Separator) {
		return "copilot"
	}
	return dir
}
