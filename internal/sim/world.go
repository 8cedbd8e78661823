package sim

import (
	"sync"

	"github.com/copilot-bot/copilot/internal/game"
)

const (
	// unitsPerPixel is the camera zoom, the player is always drawn at the window center.
	unitsPerPixel   = 2.0
	labelHalfWidth  = 40
	labelHalfHeight = 10
	playerName      = "Follower"
	leaderEntityID  = 1
)

var (
	teleportButton = game.Point{X: 30, Y: 300}
	confirmButton  = game.Point{X: 960, Y: 600}
)

// Exit is where a portal leads.
type Exit struct {
	Zone    string
	Arrival game.Vector3
}

type Portal struct {
	ID       uint64
	Text     string
	Position game.Vector3
	Exit     Exit
}

type Zone struct {
	Name    string
	Level   int
	Town    bool
	Hideout bool
	Portals []Portal
	Layers  *game.TerrainLayers
}

// LeaderStep is one stop of the leader route. A step in another zone makes the leader take
// the zone change instantly.
type LeaderStep struct {
	Zone     string
	Position game.Vector3
}

type Options struct {
	Window      game.Rect
	MoveKey     game.Key
	DashKey     game.Key
	LeaderName  string
	LeaderSpeed float64
	PlayerSpeed float64
	DashRange   float64
	// LoadingTicks is how many snapshots report a loading screen after a zone change.
	LoadingTicks int
}

// World is a scripted game: a leader walking a route across zones and a follower that moves
// when the bot holds the move key or presses dash. It implements both game.World and game.Input.
// Every GetData call advances the simulation by one tick.
type World struct {
	mu   sync.Mutex
	opts Options

	zones  map[string]*Zone
	zone   *Zone
	player game.Vector3

	leaderZone string
	leader     game.Vector3
	route      []LeaderStep

	cursor   game.Point
	moveHeld bool
	dialog   bool
	loading  int
	panels   map[string]bool

	clicks int
	dashes int
}

func NewWorld(opts Options, start *Zone, player game.Vector3) *World {
	w := &World{
		opts:       opts,
		zones:      map[string]*Zone{start.Name: start},
		zone:       start,
		player:     player,
		leaderZone: start.Name,
		leader:     player,
		panels:     make(map[string]bool),
	}
	return w
}

func (w *World) AddZone(z *Zone) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.zones[z.Name] = z
}

// SetLeader places the leader instantly and drops the remaining route.
func (w *World) SetLeader(zone string, pos game.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.leaderZone = zone
	w.leader = pos
	w.route = nil
}

// WalkLeader appends stops to the leader route.
func (w *World) WalkLeader(steps ...LeaderStep) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.route = append(w.route, steps...)
}

func (w *World) OpenTeleportDialog() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.dialog = true
}

func (w *World) SetPanel(name string, open bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.panels[name] = open
}

func (w *World) Player() (string, game.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.zone.Name, w.player
}

func (w *World) Leader() (string, game.Vector3) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.leaderZone, w.leader
}

func (w *World) Clicks() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.clicks
}

func (w *World) Dashes() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.dashes
}

func (w *World) GetData() game.Data {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.advance()
	data := w.snapshot()
	if w.loading > 0 {
		w.loading--
	}
	return data
}

func (w *World) WorldToScreen(p game.Vector3) (game.Point, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.project(p), true
}

func (w *World) TerrainLayers() (game.TerrainLayers, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.zone.Layers == nil {
		return game.TerrainLayers{}, false
	}
	return *w.zone.Layers, true
}

func (w *World) KeyDown(k game.Key) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if k == w.opts.MoveKey {
		w.moveHeld = true
	}
}

func (w *World) KeyUp(k game.Key) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if k == w.opts.MoveKey {
		w.moveHeld = false
	}
}

func (w *World) KeyPress(k game.Key) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if k != w.opts.DashKey {
		return
	}
	w.dashes++
	w.player = moveTowards(w.player, w.unproject(w.cursor), w.opts.DashRange)
}

func (w *World) SetCursorPosition(p game.Point) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.cursor = p
}

func (w *World) LeftMouseDown() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.clicks++

	if w.dialog && near(w.cursor, confirmButton) {
		w.dialog = false
		w.travel(w.leaderZone, w.leader)
		return
	}
	if w.leaderZone != w.zone.Name && near(w.cursor, teleportButton) {
		w.dialog = true
		return
	}
	for _, p := range w.zone.Portals {
		if labelRect(w.project(p.Position)).Contains(w.cursor) {
			w.travel(p.Exit.Zone, p.Exit.Arrival)
			return
		}
	}
}

func (w *World) LeftMouseUp() {}

func (w *World) travel(zone string, arrival game.Vector3) {
	z, found := w.zones[zone]
	if !found {
		return
	}
	w.zone = z
	w.player = arrival
	w.moveHeld = false
	w.loading = w.opts.LoadingTicks
}

func (w *World) advance() {
	if len(w.route) > 0 {
		next := w.route[0]
		if next.Zone != "" && next.Zone != w.leaderZone {
			w.leaderZone = next.Zone
			w.leader = next.Position
			w.route = w.route[1:]
		} else {
			w.leader = moveTowards(w.leader, next.Position, w.opts.LeaderSpeed)
			if w.leader.Distance(next.Position) < 1 {
				w.route = w.route[1:]
			}
		}
	}

	if w.moveHeld {
		w.player = moveTowards(w.player, w.unproject(w.cursor), w.opts.PlayerSpeed)
	}
}

func (w *World) snapshot() game.Data {
	data := game.Data{
		InGame:     true,
		Loading:    w.loading > 0,
		Foreground: true,
		Area: game.AreaInfo{
			Name:      w.zone.Name,
			Level:     w.zone.Level,
			IsTown:    w.zone.Town,
			IsHideout: w.zone.Hideout,
		},
		PlayerUnit: game.PlayerUnit{Name: playerName, Position: w.player, Alive: true},
		OpenPanels: make(map[string]bool, len(w.panels)),
		TeleportDialog: game.Dialog{
			Open:          w.dialog,
			ConfirmButton: confirmButton,
		},
		Window: w.opts.Window,
	}
	for k, v := range w.panels {
		data.OpenPanels[k] = v
	}

	member := game.PartyMember{Name: w.opts.LeaderName, ZoneName: w.leaderZone}
	if w.leaderZone == w.zone.Name {
		data.Players = []game.Entity{{
			ID:       leaderEntityID,
			Name:     w.opts.LeaderName,
			Position: w.leader,
			Valid:    true,
		}}
	} else {
		btn := teleportButton
		member.TeleportButton = &btn
	}
	data.Party = []game.PartyMember{member}

	for _, p := range w.zone.Portals {
		center := w.project(p.Position)
		data.Labels = append(data.Labels, game.GroundLabel{
			ID:       p.ID,
			Text:     p.Text,
			Position: p.Position,
			Rect:     labelRect(center),
			Visible:  w.opts.Window.Contains(center),
		})
	}

	return data
}

func (w *World) project(p game.Vector3) game.Point {
	c := w.opts.Window.Center()
	return game.Point{
		X: c.X + int((p.X-w.player.X)/unitsPerPixel),
		Y: c.Y + int((p.Y-w.player.Y)/unitsPerPixel),
	}
}

func (w *World) unproject(p game.Point) game.Vector3 {
	c := w.opts.Window.Center()
	return game.Vector3{
		X: w.player.X + float64(p.X-c.X)*unitsPerPixel,
		Y: w.player.Y + float64(p.Y-c.Y)*unitsPerPixel,
	}
}

func labelRect(center game.Point) game.Rect {
	return game.Rect{
		Left:   center.X - labelHalfWidth,
		Top:    center.Y - labelHalfHeight,
		Right:  center.X + labelHalfWidth,
		Bottom: center.Y + labelHalfHeight,
	}
}

func near(a, b game.Point) bool {
	dx, dy := a.X-b.X, a.Y-b.Y
	return dx*dx+dy*dy <= 20*20
}

func moveTowards(from, to game.Vector3, step float64) game.Vector3 {
	d := from.Distance(to)
	if d <= step || d == 0 {
		return to
	}
	return from.Add(to.Sub(from).Scale(step / d))
}
