package bot

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/copilot-bot/copilot/internal/config"
	botCtx "github.com/copilot-bot/copilot/internal/context"
	"github.com/copilot-bot/copilot/internal/event"
	"github.com/copilot-bot/copilot/internal/executor"
	"github.com/copilot-bot/copilot/internal/leader"
	"github.com/copilot-bot/copilot/internal/planner"
	"github.com/copilot-bot/copilot/internal/utils"
)

// Bot runs the follow loop: every tick it refreshes the game snapshot, resolves the leader,
// lets the planner mutate the queue and then lets the executor consume it, in that order.
type Bot struct {
	ctx      *botCtx.Context
	detector *leader.Detector
	planner  *planner.Planner
	executor *executor.Executor

	zone     string
	leader   leader.State
	decision planner.Decision
	ticks    uint64

	mu     sync.RWMutex
	status Status
}

func NewBot(ctx *botCtx.Context) *Bot {
	return &Bot{
		ctx:      ctx,
		detector: leader.NewDetector(ctx.Name, ctx.Logger, ctx.EventListener),
		planner:  planner.New(ctx),
		executor: executor.New(ctx),
	}
}

// Run ticks until ctx is cancelled. The tick period follows the settings, so a reload can change it.
func (b *Bot) Run(ctx context.Context) error {
	utils.SetSessionStart()
	defer utils.ResetSession()
	defer b.ctx.HID.ReleaseAll()

	interval := tickInterval(b.ctx.Settings)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	b.ctx.Logger.Info("Follower started",
		slog.String("leader", b.ctx.Settings.LeaderName),
		slog.Duration("tick", interval),
	)

	for {
		select {
		case <-ctx.Done():
			b.ctx.Logger.Info("Follower stopped", slog.Uint64("ticks", b.ticks))
			return nil
		case <-ticker.C:
			b.Tick()
			if next := tickInterval(b.ctx.Settings); next != interval {
				interval = next
				ticker.Reset(interval)
			}
		}
	}
}

// Tick runs one full update. Each stage is isolated so a panic in one of them can't stop the
// others, only a failed game data refresh skips the rest of the tick.
func (b *Bot) Tick() {
	b.safely("settings", b.ctx.RefreshSettings)
	if !b.safely("game data", b.ctx.RefreshGameData) {
		return
	}
	b.safely("zone", b.checkZone)
	b.safely("leader", func() {
		s := b.ctx.Settings
		b.leader = b.detector.Refresh(*b.ctx.Data, s.LeaderName, s.Policy.GraceBuffs)
	})

	b.decision = ""
	b.safely("planner", func() {
		b.decision = b.planner.Plan(b.leader)
	})
	b.safely("executor", func() {
		if pausesExecution(b.decision) {
			b.executor.Pause()
			return
		}
		b.executor.Tick(b.leader)
	})

	b.ticks++
	b.safely("status", b.publishStatus)
}

// checkZone rebuilds the per-zone state once the player lands in a new zone.
func (b *Bot) checkZone() {
	data := b.ctx.Data
	if data.Loading || data.Area.Name == "" || data.Area.Name == b.zone {
		return
	}

	from := b.zone
	b.zone = data.Area.Name
	loaded := b.ctx.Terrain.Load(b.ctx.World)
	removed := b.ctx.Queue.ClearPreservingTransitions()
	b.planner.Reset()

	b.ctx.Logger.Info("Zone changed",
		slog.String("from", from),
		slog.String("to", b.zone),
		slog.Bool("terrain", loaded),
		slog.Int("droppedTasks", removed),
	)
	b.ctx.EventListener.Send(event.ZoneLoaded(event.Text(b.ctx.Name, fmt.Sprintf("Entered %s", b.zone)), b.zone, loaded))
}

func (b *Bot) safely(stage string, fn func()) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			b.ctx.Logger.Error("Recovered panic in tick stage",
				slog.String("stage", stage),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			ok = false
		}
	}()
	fn()
	return true
}

// SetAutopilot toggles following and persists it when the settings are file backed.
func (b *Bot) SetAutopilot(enabled bool) error {
	if err := b.ctx.Config.Update(func(s *config.Settings) {
		s.Autopilot.Enabled = enabled
	}); err != nil {
		return fmt.Errorf("updating autopilot: %w", err)
	}
	b.ctx.Logger.Info("Autopilot toggled", slog.Bool("enabled", enabled))
	return nil
}

// ReloadConfig reads the settings file again. The new values are picked up on the next tick.
func (b *Bot) ReloadConfig() error {
	if err := b.ctx.Config.Reload(); err != nil {
		return fmt.Errorf("reloading settings: %w", err)
	}
	b.ctx.Logger.Info("Settings reloaded", slog.String("path", b.ctx.Config.Path()))
	return nil
}

// ClearQueue drops every queued task except transitions and returns how many were removed.
func (b *Bot) ClearQueue() int {
	removed := b.ctx.Queue.ClearPreservingTransitions()
	b.ctx.Logger.Info("Queue cleared on request", slog.Int("removed", removed))
	return removed
}

func pausesExecution(d planner.Decision) bool {
	switch d {
	case planner.DecisionDisabled, planner.DecisionLoading, planner.DecisionNotReady:
		return true
	}
	return false
}

func tickInterval(s config.Settings) time.Duration {
	if s.TickMs <= 0 {
		return 50 * time.Millisecond
	}
	return time.Duration(s.TickMs) * time.Millisecond
}
