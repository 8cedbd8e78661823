package executor

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"github.com/copilot-bot/copilot/internal/context"
	"github.com/copilot-bot/copilot/internal/event"
	"github.com/copilot-bot/copilot/internal/game"
	"github.com/copilot-bot/copilot/internal/leader"
	"github.com/copilot-bot/copilot/internal/task"
	"github.com/copilot-bot/copilot/internal/utils"
)

var (
	ErrOffScreen = errors.New("target is off-screen")
	ErrLabelGone = errors.New("label is no longer visible")
	errPanic     = errors.New("recovered panic")
)

// completionFactor scales the task bounds into the distance at which a waypoint counts as reached.
const completionFactor = 1.5

type State int

const (
	Idle State = iota
	ExecutingMovement
	ExecutingDash
	ExecutingTransition
	ExecutingWaypoint
	ExecutingTeleportConfirm
	ExecutingTeleportButton
	WaitingForDelay
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case ExecutingMovement:
		return "ExecutingMovement"
	case ExecutingDash:
		return "ExecutingDash"
	case ExecutingTransition:
		return "ExecutingTransition"
	case ExecutingWaypoint:
		return "ExecutingWaypoint"
	case ExecutingTeleportConfirm:
		return "ExecutingTeleportConfirm"
	case ExecutingTeleportButton:
		return "ExecutingTeleportButton"
	case WaitingForDelay:
		return "WaitingForDelay"
	}
	return "Unknown"
}

func stateFor(t task.Type) State {
	switch t {
	case task.Movement:
		return ExecutingMovement
	case task.Dash:
		return ExecutingDash
	case task.Transition:
		return ExecutingTransition
	case task.ClaimWaypoint:
		return ExecutingWaypoint
	case task.TeleportConfirm:
		return ExecutingTeleportConfirm
	case task.TeleportButton:
		return ExecutingTeleportButton
	}
	return Idle
}

// Executor drives the head of the task queue through a small state machine. It never blocks: a
// dwell between two inputs is a WaitingForDelay state with a resume time, re-entered on a later
// tick. The task stays in the queue while it runs, so when the planner prunes it the executor
// notices on the next tick and lets go of it.
type Executor struct {
	ctx *context.Context

	current    *task.Node
	resumeAt   time.Time
	afterDelay func() error

	mu    sync.RWMutex
	state State
	// shown mirrors current for readers on other goroutines.
	shown *task.Node
}

func New(ctx *context.Context) *Executor {
	return &Executor{ctx: ctx}
}

// State returns the current state, safe to call from any goroutine.
func (e *Executor) State() State {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.state
}

// Current returns a copy of the task being executed, if any.
func (e *Executor) Current() (task.Node, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.shown == nil {
		return task.Node{}, false
	}
	return *e.shown, true
}

func (e *Executor) setState(s State) {
	e.mu.Lock()
	e.state = s
	if e.current != nil {
		cp := *e.current
		e.shown = &cp
	} else {
		e.shown = nil
	}
	e.mu.Unlock()
	e.ctx.SetLastStep(s.String())
}

// Tick advances the state machine by one step. ls is the leader as resolved this tick.
func (e *Executor) Tick(ls leader.State) {
	if e.current != nil && !e.ctx.Queue.Contains(e.current) {
		e.ctx.Logger.Debug("Current task was pruned from the queue, aborting",
			slog.String("task", e.current.Type().String()),
			slog.String("id", e.current.ID.String()),
		)
		e.abort()
	}

	if e.current != nil && e.state == WaitingForDelay {
		if e.ctx.Now().Before(e.resumeAt) {
			return
		}
		next := e.afterDelay
		e.afterDelay = nil
		e.setState(stateFor(e.current.Type()))
		e.run(next)
		return
	}

	n, found := e.ctx.Queue.First()
	if !found {
		e.idle()
		return
	}

	if n.Exhausted() {
		e.abandon(n, "attempt ceiling reached")
		return
	}

	// Every automation reads the shared last action time to self-throttle.
	now := e.ctx.Now()
	if now.Sub(e.ctx.Shared.LastAction()) < ms(e.ctx.Settings.Timing.ActionDelayMs) {
		return
	}

	e.current = n
	e.setState(stateFor(n.Type()))
	e.run(func() error { return e.attempt(n, ls) })
}

// Pause lets go of every held key and forgets the running step. Queued tasks are kept and run
// again from scratch once the executor ticks.
func (e *Executor) Pause() {
	if e.current == nil && e.state == Idle {
		return
	}
	e.ctx.HID.ReleaseAll()
	e.current = nil
	e.afterDelay = nil
	e.setState(Idle)
}

func (e *Executor) attempt(n *task.Node, ls leader.State) error {
	switch n.Type() {
	case task.Movement:
		return e.executeMovement(n, ls)
	case task.Dash:
		return e.executeDash(n)
	case task.Transition:
		return e.executeTransition(n)
	case task.ClaimWaypoint:
		return e.executeClaimWaypoint(n)
	case task.TeleportConfirm, task.TeleportButton:
		return e.executeTeleport(n)
	}
	return fmt.Errorf("unknown task type %d", n.Type())
}

// run executes one step. Errors and panics count as a failed attempt.
func (e *Executor) run(step func() error) {
	n := e.current
	err := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				e.ctx.Logger.Error("Recovered panic while executing task",
					slog.Any("panic", r),
					slog.String("stack", string(debug.Stack())),
				)
				err = fmt.Errorf("%w: %v", errPanic, r)
			}
		}()
		return step()
	}()
	if err != nil && n != nil {
		e.fail(n, err)
	}
}

func (e *Executor) executeMovement(n *task.Node, ls leader.State) error {
	if e.reached(n) {
		e.finish(n)
		return nil
	}
	if e.tryAimedDash(n, ls) {
		return nil
	}
	if e.tryTerrainDash(n) {
		return nil
	}

	screen, err := e.project(n.WorldPosition)
	if err != nil {
		return fmt.Errorf("movement waypoint: %w", err)
	}

	moveKey := e.ctx.Settings.Autopilot.MoveKey
	e.ctx.HID.MovePointer(screen)
	e.ctx.HID.KeyDown(moveKey)
	e.ctx.Shared.MarkAction(e.ctx.Now())
	e.ctx.SetLastAction("move")
	e.wait(e.ctx.Settings.Timing.MoveHoldMs, func() error {
		e.ctx.HID.KeyUp(moveKey)
		return e.settle(n)
	})
	return nil
}

// tryAimedDash dashes instead of walking when the leader is far and the cursor already points
// at it.
func (e *Executor) tryAimedDash(n *task.Node, ls leader.State) bool {
	s := e.ctx.Settings
	if !e.dashReady() || !ls.HasPosition {
		return false
	}
	if e.ctx.Data.PlayerUnit.Position.Distance(ls.Position) <= float64(s.Dash.TriggerDistance) {
		return false
	}
	leaderScreen, ok := e.ctx.World.WorldToScreen(ls.Position)
	if !ok || !e.ctx.HID.IsAimedAt(leaderScreen, e.ctx.Data.Window, s.Dash.AimToleranceDeg) {
		return false
	}

	e.ctx.Logger.Debug("Cursor aimed at the leader, dashing instead of walking",
		slog.Float64("distance", e.ctx.Data.PlayerUnit.Position.Distance(ls.Position)),
	)
	e.pressDash()
	e.wait(s.Timing.ActionDelayMs, func() error { return e.settle(n) })
	return true
}

// tryTerrainDash dashes through a nearby obstacle on the way to the waypoint.
func (e *Executor) tryTerrainDash(n *task.Node) bool {
	s := e.ctx.Settings
	if !s.Dash.TerrainCheck || !e.dashReady() {
		return false
	}
	if !e.ctx.Terrain.CanDashTo(e.ctx.Data.PlayerUnit.Position, n.WorldPosition) {
		return false
	}
	screen, err := e.project(n.WorldPosition)
	if err != nil {
		return false
	}

	e.ctx.Logger.Debug("Terrain analysis found an obstacle worth dashing through")
	e.ctx.HID.MovePointer(screen)
	e.wait(s.Timing.MouseSettleMs, func() error {
		e.pressDash()
		e.wait(s.Timing.ActionDelayMs, func() error { return e.settle(n) })
		return nil
	})
	return true
}

func (e *Executor) executeDash(n *task.Node) error {
	if !e.dashReady() {
		e.convertToMovement(n, "dash not ready")
		return nil
	}
	screen, err := e.project(n.WorldPosition)
	if err != nil {
		e.convertToMovement(n, "dash target off-screen")
		return nil
	}

	if e.ctx.HID.IsAimedAt(screen, e.ctx.Data.Window, e.ctx.Settings.Dash.AimToleranceDeg) {
		e.pressDash()
		e.finish(n)
		return nil
	}

	e.ctx.HID.MovePointer(screen)
	e.wait(e.ctx.Settings.Timing.MouseSettleMs, func() error {
		e.pressDash()
		e.finish(n)
		return nil
	})
	return nil
}

func (e *Executor) executeTransition(n *task.Node) error {
	label, found := e.ctx.Data.FindLabel(n.Label.ID)
	if !found {
		e.ctx.Logger.Debug("Dropping transition task", slog.String("label", n.Label.Text), slog.Any("reason", ErrLabelGone))
		e.finish(n)
		return nil
	}
	center := label.Rect.Center()
	if !e.ctx.Data.Window.Contains(center) {
		e.ctx.Logger.Debug("Dropping transition task", slog.String("label", label.Text), slog.Any("reason", ErrOffScreen))
		e.finish(n)
		return nil
	}

	e.ctx.HID.KeyUp(e.ctx.Settings.Autopilot.MoveKey)
	e.ctx.HID.Click(center)
	e.ctx.Shared.MarkAction(e.ctx.Now())
	e.ctx.SetLastAction("click transition")
	attempts := e.ctx.Queue.IncrementAttempts(n)
	e.ctx.Logger.Info("Clicked transition", slog.String("label", label.Text), slog.Int("attempt", attempts))
	e.wait(e.ctx.Settings.Timing.TransitionWaitMs, func() error {
		e.idle()
		return nil
	})
	return nil
}

func (e *Executor) executeClaimWaypoint(n *task.Node) error {
	screen, err := e.project(n.WorldPosition)
	if err != nil {
		return fmt.Errorf("waypoint: %w", err)
	}

	dist := e.ctx.Data.PlayerUnit.Position.Distance(n.WorldPosition)
	if dist > float64(e.ctx.Settings.Autopilot.WaypointClaimDistance) {
		e.ctx.HID.MovePointer(screen)
		e.ctx.HID.KeyUp(e.ctx.Settings.Autopilot.MoveKey)
		e.ctx.Queue.IncrementAttempts(n)
		e.wait(e.ctx.Settings.Timing.ActionDelayMs, func() error {
			e.idle()
			return nil
		})
		return nil
	}

	e.ctx.HID.Click(screen)
	e.ctx.Shared.MarkAction(e.ctx.Now())
	e.ctx.SetLastAction("claim waypoint")
	e.ctx.Logger.Info("Claimed waypoint", slog.String("zone", e.ctx.Data.Area.Name))
	e.finish(n)
	return nil
}

func (e *Executor) executeTeleport(n *task.Node) error {
	e.ctx.HID.KeyUp(e.ctx.Settings.Autopilot.MoveKey)
	e.ctx.HID.Click(n.ScreenTarget)
	e.ctx.Shared.MarkAction(e.ctx.Now())
	e.ctx.SetLastAction("click " + n.Type().String())
	e.ctx.Logger.Info("Clicked teleport", slog.String("task", n.Type().String()))
	e.finish(n)
	return nil
}

func (e *Executor) pressDash() {
	now := e.ctx.Now()
	e.ctx.HID.PressKey(e.ctx.Settings.Dash.Key)
	e.ctx.Shared.MarkDash(now)
	e.ctx.Shared.MarkAction(now)
	e.ctx.SetLastAction("dash")
}

func (e *Executor) dashReady() bool {
	s := e.ctx.Settings.Dash
	if !s.Enabled {
		return false
	}
	return e.ctx.Now().Sub(e.ctx.Shared.LastDash()) >= ms(s.CooldownMs)
}

// convertToMovement swaps a Dash for a Movement to the same position so a dash that can't be
// done doesn't block the tasks behind it.
func (e *Executor) convertToMovement(n *task.Node, reason string) {
	m := n.AsMovement(e.ctx.Settings.Autopilot.PathfindingNodeDistance)
	e.ctx.Queue.Replace(n, m)
	e.ctx.Logger.Debug("Dash converted to movement", slog.String("reason", reason))
	e.current = nil
	e.setState(Idle)
}

func (e *Executor) project(p game.Vector3) (game.Point, error) {
	screen, ok := e.ctx.World.WorldToScreen(p)
	if !ok || !e.ctx.Data.Window.Contains(screen) {
		return game.Point{}, ErrOffScreen
	}
	return screen, nil
}

func (e *Executor) reached(n *task.Node) bool {
	bounds := n.Bounds
	if bounds <= 0 {
		bounds = e.ctx.Settings.Autopilot.PathfindingNodeDistance
	}
	return e.ctx.Data.PlayerUnit.Position.Distance(n.WorldPosition) <= completionFactor*float64(bounds)
}

// settle is the completion check after a move or a dash.
func (e *Executor) settle(n *task.Node) error {
	if e.reached(n) {
		e.finish(n)
		return nil
	}
	e.retry(n)
	return nil
}

func (e *Executor) wait(milliseconds int, next func() error) {
	e.resumeAt = e.ctx.Now().Add(utils.Jitter(milliseconds))
	e.afterDelay = next
	e.setState(WaitingForDelay)
}

func (e *Executor) finish(n *task.Node) {
	e.ctx.Queue.Remove(n)
	if n.Type() == task.TeleportButton {
		e.ctx.Shared.ClearTeleportInProgress()
	}
	e.ctx.Logger.Debug("Task completed", slog.String("task", n.Type().String()), slog.String("id", n.ID.String()))
	e.current = nil
	e.afterDelay = nil
	e.setState(Idle)
}

func (e *Executor) retry(n *task.Node) {
	attempts := e.ctx.Queue.IncrementAttempts(n)
	e.ctx.Logger.Debug("Task not done yet",
		slog.String("task", n.Type().String()),
		slog.Int("attempt", attempts),
		slog.Int("max", n.Type().MaxAttempts()),
	)
	e.idle()
}

func (e *Executor) fail(n *task.Node, err error) {
	e.ctx.HID.KeyUp(e.ctx.Settings.Autopilot.MoveKey)
	attempts := e.ctx.Queue.IncrementAttempts(n)
	e.ctx.Logger.Warn("Task attempt failed",
		slog.String("task", n.Type().String()),
		slog.Int("attempt", attempts),
		slog.Any("error", err),
	)
	e.idle()
}

func (e *Executor) abandon(n *task.Node, reason string) {
	e.ctx.Queue.Remove(n)
	e.ctx.HID.KeyUp(e.ctx.Settings.Autopilot.MoveKey)
	if n.Type() == task.TeleportButton {
		e.ctx.Shared.ClearTeleportInProgress()
	}
	e.ctx.Logger.Warn("Abandoning task",
		slog.String("task", n.Type().String()),
		slog.Int("attempts", n.AttemptCount),
		slog.String("reason", reason),
	)
	e.ctx.EventListener.Send(event.TaskAbandoned(event.Text(e.ctx.Name, "Task abandoned"), n.Type().String(), n.AttemptCount, reason))
	e.idle()
}

func (e *Executor) abort() {
	e.ctx.HID.KeyUp(e.ctx.Settings.Autopilot.MoveKey)
	if e.current.Type() == task.TeleportButton {
		e.ctx.Shared.ClearTeleportInProgress()
	}
	e.idle()
}

func (e *Executor) idle() {
	e.current = nil
	e.afterDelay = nil
	if e.state != Idle {
		e.setState(Idle)
	}
}

func ms(v int) time.Duration {
	return time.Duration(v) * time.Millisecond
}
