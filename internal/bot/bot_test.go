package bot

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/copilot-bot/copilot/internal/config"
	botCtx "github.com/copilot-bot/copilot/internal/context"
	"github.com/copilot-bot/copilot/internal/event"
	"github.com/copilot-bot/copilot/internal/game"
	"github.com/copilot-bot/copilot/internal/planner"
	"github.com/copilot-bot/copilot/internal/sim"
	"github.com/copilot-bot/copilot/internal/task"
)

const (
	zoneA = "Zone A"
	zoneB = "Zone B"
)

type clock struct {
	now time.Time
}

func (c *clock) Now() time.Time { return c.now }

// brokenTerrain panics whenever the terrain layers are read.
type brokenTerrain struct {
	*sim.World
}

func (w brokenTerrain) TerrainLayers() (game.TerrainLayers, bool) {
	panic("terrain exploded")
}

type brokenData struct {
	*sim.World
}

func (w brokenData) GetData() game.Data {
	panic("memory read failed")
}

func testSettings(adjust func(*config.Settings)) config.Settings {
	s := config.Default()
	s.LeaderName = "Leader"
	s.Dash.Enabled = false
	if adjust != nil {
		adjust(&s)
	}
	return s
}

func newWorld(s config.Settings) *sim.World {
	w := sim.NewWorld(sim.Options{
		Window:       game.Rect{Right: 1920, Bottom: 1080},
		MoveKey:      s.Autopilot.MoveKey,
		DashKey:      s.Dash.Key,
		LeaderName:   s.LeaderName,
		LeaderSpeed:  25,
		PlayerSpeed:  100,
		DashRange:    400,
		LoadingTicks: 2,
	}, &sim.Zone{Name: zoneA, Level: 10}, game.Vector3{})
	w.AddZone(&sim.Zone{Name: zoneB, Level: 11})
	return w
}

func newTestBot(t *testing.T, s config.Settings, world game.World, in game.Input) (*Bot, *clock) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := botCtx.NewContext("follower", logger, config.NewStaticStore(s), world, in, event.NewListener(logger))
	c := &clock{now: time.Unix(1_700_000_000, 0)}
	ctx.Clock = c.Now
	return NewBot(ctx), c
}

func run(b *Bot, c *clock, ticks int) {
	for i := 0; i < ticks; i++ {
		c.now = c.now.Add(500 * time.Millisecond)
		b.Tick()
	}
}

func TestFollowerClosesDistance(t *testing.T) {
	s := testSettings(nil)
	w := newWorld(s)
	w.SetLeader(zoneA, game.Vector3{X: 1000})
	b, c := newTestBot(t, s, w, w)

	run(b, c, 200)

	_, player := w.Player()
	_, leaderPos := w.Leader()
	if d := player.Distance(leaderPos); d >= float64(s.Autopilot.ClearPathDistance) {
		t.Errorf("expected the follower within %d of the leader, still %.0f away", s.Autopilot.ClearPathDistance, d)
	}
	if st := b.Status(); st.Ticks != 200 || st.Zone != zoneA || !st.Leader.Visible {
		t.Errorf("unexpected status %+v", st)
	}
}

func TestFollowerTeleportsToLeaderZone(t *testing.T) {
	s := testSettings(nil)
	w := newWorld(s)
	w.SetLeader(zoneB, game.Vector3{X: 300, Y: 300})
	b, c := newTestBot(t, s, w, w)

	run(b, c, 20)

	zone, _ := w.Player()
	if zone != zoneB {
		t.Fatalf("expected the follower in %s, got %s", zoneB, zone)
	}
	if w.Clicks() < 2 {
		t.Errorf("expected the teleport and the confirm clicks, got %d", w.Clicks())
	}
	st := b.Status()
	if st.Zone != zoneB || st.Teleporting {
		t.Errorf("unexpected status after teleport %+v", st)
	}
	if b.ctx.Shared.IsTeleportInProgress() {
		t.Errorf("teleport flag left set")
	}
}

func TestZoneChangeKeepsTransitions(t *testing.T) {
	s := testSettings(func(s *config.Settings) { s.Enabled = false })
	w := newWorld(s)
	b, c := newTestBot(t, s, w, w)

	run(b, c, 1)
	b.ctx.Queue.Add(task.NewMovement(game.Vector3{X: 100}, 200))
	b.ctx.Queue.AddTransition(task.NewTransition(game.GroundLabel{ID: 7, Text: "Portal to Zone B"}))

	w.SetLeader(zoneB, game.Vector3{})
	w.OpenTeleportDialog()
	// the confirm click is never sent while disabled, travel through the dialog by hand
	w.SetCursorPosition(game.Point{X: 960, Y: 600})
	w.LeftMouseDown()
	run(b, c, 5)

	if b.zone != zoneB {
		t.Fatalf("expected the zone change to be picked up, got %q", b.zone)
	}
	nodes := b.ctx.Queue.Snapshot()
	if len(nodes) != 1 || nodes[0].Type() != task.Transition {
		t.Errorf("expected only the transition to survive the zone change, got %d tasks", len(nodes))
	}
}

func TestPanickingStageDoesNotStopTheTick(t *testing.T) {
	s := testSettings(nil)
	w := newWorld(s)
	w.SetLeader(zoneA, game.Vector3{X: 1000})
	b, c := newTestBot(t, s, brokenTerrain{w}, w)

	run(b, c, 1)

	st := b.Status()
	if st.Ticks != 1 {
		t.Fatalf("expected the tick to complete, got %d ticks", st.Ticks)
	}
	if st.LastDecision != string(planner.DecisionMovement) {
		t.Errorf("expected the planner to run after the zone stage panic, got %q", st.LastDecision)
	}
	if st.Current == nil || st.Current.Type != task.Movement.String() {
		t.Errorf("expected the executor to pick up the movement, got %+v", st.Current)
	}
}

func TestFailedGameDataSkipsTheTick(t *testing.T) {
	s := testSettings(nil)
	w := newWorld(s)
	b, c := newTestBot(t, s, brokenData{w}, w)

	run(b, c, 3)

	if b.Status().Ticks != 0 {
		t.Errorf("expected no completed tick without game data")
	}
	if b.ctx.Queue.Count() != 0 {
		t.Errorf("expected nothing planned without game data")
	}
}

func TestDisabledBotReleasesKeys(t *testing.T) {
	s := testSettings(nil)
	w := newWorld(s)
	w.SetLeader(zoneA, game.Vector3{X: 1000})
	b, c := newTestBot(t, s, w, w)

	run(b, c, 1)
	if !b.ctx.HID.IsHeld(s.Autopilot.MoveKey) {
		t.Fatalf("expected the move key held while walking")
	}

	if err := b.SetAutopilot(false); err != nil {
		t.Fatalf("SetAutopilot: %v", err)
	}
	run(b, c, 1)

	if b.ctx.HID.IsHeld(s.Autopilot.MoveKey) {
		t.Errorf("expected the move key released once disabled")
	}
	st := b.Status()
	if st.Enabled || st.Executor != "Idle" || st.LastDecision != string(planner.DecisionDisabled) {
		t.Errorf("unexpected status when disabled %+v", st)
	}
	if !strings.Contains(b.Summary(), "paused") {
		t.Errorf("expected the summary to report the pause, got %q", b.Summary())
	}
}

func TestClearQueue(t *testing.T) {
	s := testSettings(nil)
	w := newWorld(s)
	b, _ := newTestBot(t, s, w, w)

	b.ctx.Queue.Add(task.NewMovement(game.Vector3{X: 100}, 200))
	b.ctx.Queue.Add(task.NewMovement(game.Vector3{X: 300}, 200))
	b.ctx.Queue.AddTransition(task.NewTeleportConfirm(game.Point{X: 960, Y: 600}))

	if removed := b.ClearQueue(); removed != 2 {
		t.Errorf("expected 2 removed tasks, got %d", removed)
	}
	if b.ctx.Queue.Count() != 1 {
		t.Errorf("expected the teleport confirm to stay queued")
	}
}

func TestSummary(t *testing.T) {
	s := testSettings(nil)
	w := newWorld(s)
	w.SetLeader(zoneB, game.Vector3{})
	b, c := newTestBot(t, s, w, w)
	b.ctx.Config.Update(func(s *config.Settings) { s.Autopilot.Enabled = false })

	run(b, c, 1)

	got := b.Summary()
	for _, want := range []string{"follower is paused in Zone A", "Leader: Leader, in Zone B", "Executor: Idle, 0 queued"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in summary %q", want, got)
		}
	}
}

func TestTickInterval(t *testing.T) {
	if got := tickInterval(config.Settings{}); got != 50*time.Millisecond {
		t.Errorf("expected the 50ms fallback, got %s", got)
	}
	if got := tickInterval(config.Settings{TickMs: 100}); got != 100*time.Millisecond {
		t.Errorf("expected 100ms, got %s", got)
	}
}
