package context

import (
	"log/slog"
	"sync"
	"time"

	"github.com/copilot-bot/copilot/internal/config"
	"github.com/copilot-bot/copilot/internal/event"
	"github.com/copilot-bot/copilot/internal/game"
	"github.com/copilot-bot/copilot/internal/pather"
	"github.com/copilot-bot/copilot/internal/portal"
	"github.com/copilot-bot/copilot/internal/task"
)

// Context carries everything a tick needs. It's built once at startup and handed to the planner,
// the executor and the bot loop.
type Context struct {
	Name   string
	Logger *slog.Logger
	Config *config.Store
	// Settings is the snapshot of Config taken at the start of the current tick.
	Settings      config.Settings
	World         game.World
	Data          *game.Data
	HID           *game.HID
	Queue         *task.Queue
	Terrain       *pather.Terrain
	Portals       *portal.Manager
	EventListener *event.Listener
	Shared        *SharedState
	Debug         *Debug
	Clock         func() time.Time
}

type Debug struct {
	mu           sync.RWMutex
	LastAction   string `json:"lastAction"`
	LastStep     string `json:"lastStep"`
	LastDecision string `json:"lastDecision"`
}

func NewContext(name string, logger *slog.Logger, store *config.Store, world game.World, in game.Input, listener *event.Listener) *Context {
	settings := store.Current()
	return &Context{
		Name:          name,
		Logger:        logger,
		Config:        store,
		Settings:      settings,
		World:         world,
		Data:          &game.Data{},
		HID:           game.NewHID(in),
		Queue:         task.NewQueue(logger),
		Terrain:       pather.NewTerrain(logger, settings.Dash.Terrain),
		Portals:       portal.NewManager(),
		EventListener: listener,
		Shared:        &SharedState{},
		Debug:         &Debug{},
		Clock:         time.Now,
	}
}

func (ctx *Context) Now() time.Time {
	return ctx.Clock()
}

func (ctx *Context) RefreshGameData() {
	*ctx.Data = ctx.World.GetData()
}

// RefreshSettings picks up a settings reload. It's only called between two ticks.
func (ctx *Context) RefreshSettings() {
	ctx.Settings = ctx.Config.Current()
	ctx.Terrain.SetConfig(ctx.Settings.Dash.Terrain)
}

func (ctx *Context) SetLastAction(action string) {
	ctx.Debug.mu.Lock()
	ctx.Debug.LastAction = action
	ctx.Debug.mu.Unlock()
}

func (ctx *Context) SetLastStep(step string) {
	ctx.Debug.mu.Lock()
	ctx.Debug.LastStep = step
	ctx.Debug.mu.Unlock()
}

func (ctx *Context) SetLastDecision(decision string) {
	ctx.Debug.mu.Lock()
	ctx.Debug.LastDecision = decision
	ctx.Debug.mu.Unlock()
}

// DebugSnapshot returns a copy of the debug fields, safe to serialize from another goroutine.
func (ctx *Context) DebugSnapshot() Debug {
	ctx.Debug.mu.RLock()
	defer ctx.Debug.mu.RUnlock()
	return Debug{
		LastAction:   ctx.Debug.LastAction,
		LastStep:     ctx.Debug.LastStep,
		LastDecision: ctx.Debug.LastDecision,
	}
}
