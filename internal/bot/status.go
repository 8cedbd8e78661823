package bot

import (
	"fmt"
	"strings"
	"time"

	"github.com/copilot-bot/copilot/internal/game"
	"github.com/copilot-bot/copilot/internal/task"
)

// Status is what the HTTP server and the remote controllers show. It's a plain copy taken at
// the end of every tick.
type Status struct {
	Supervisor    string       `json:"supervisor"`
	Enabled       bool         `json:"enabled"`
	Zone          string       `json:"zone"`
	Loading       bool         `json:"loading"`
	Player        game.Vector3 `json:"player"`
	Leader        LeaderStatus `json:"leader"`
	Executor      string       `json:"executor"`
	Current       *TaskStatus  `json:"current,omitempty"`
	Queue         []TaskStatus `json:"queue"`
	Teleporting   bool         `json:"teleporting"`
	TerrainLoaded bool         `json:"terrainLoaded"`
	LastAction    string       `json:"lastAction"`
	LastStep      string       `json:"lastStep"`
	LastDecision  string       `json:"lastDecision"`
	Ticks         uint64       `json:"ticks"`
	UpdatedAt     time.Time    `json:"updatedAt"`
}

type LeaderStatus struct {
	Name     string       `json:"name"`
	Visible  bool         `json:"visible"`
	InParty  bool         `json:"inParty"`
	Position game.Vector3 `json:"position"`
	Zone     string       `json:"zone"`
	Grace    bool         `json:"grace"`
	Distance float64      `json:"distance"`
}

type TaskStatus struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Position game.Vector3 `json:"position"`
	Attempts int          `json:"attempts"`
	Label    string       `json:"label,omitempty"`
}

func taskStatus(n task.Node) TaskStatus {
	ts := TaskStatus{
		ID:       n.ID.String(),
		Type:     n.Type().String(),
		Position: n.WorldPosition,
		Attempts: n.AttemptCount,
	}
	if n.Label != nil {
		ts.Label = n.Label.Text
	}
	return ts
}

func (b *Bot) publishStatus() {
	data := b.ctx.Data
	dbg := b.ctx.DebugSnapshot()

	st := Status{
		Supervisor: b.ctx.Name,
		Enabled:    b.ctx.Settings.Enabled && b.ctx.Settings.Autopilot.Enabled,
		Zone:       data.Area.Name,
		Loading:    data.Loading,
		Player:     data.PlayerUnit.Position,
		Leader: LeaderStatus{
			Name:     b.leader.Name,
			Visible:  b.leader.IsResolved(),
			InParty:  b.leader.PartyMember != nil,
			Position: b.leader.Position,
			Zone:     b.leader.ZoneName,
			Grace:    b.leader.HasGrace,
		},
		Executor:      b.executor.State().String(),
		Teleporting:   b.ctx.Shared.IsTeleportInProgress(),
		TerrainLoaded: b.ctx.Terrain.Loaded(),
		LastAction:    dbg.LastAction,
		LastStep:      dbg.LastStep,
		LastDecision:  dbg.LastDecision,
		Ticks:         b.ticks,
		UpdatedAt:     b.ctx.Now(),
	}
	if b.leader.HasPosition {
		st.Leader.Distance = data.PlayerUnit.Position.Distance(b.leader.Position)
	}
	if cur, ok := b.executor.Current(); ok {
		ts := taskStatus(cur)
		st.Current = &ts
	}

	nodes := b.ctx.Queue.Snapshot()
	st.Queue = make([]TaskStatus, 0, len(nodes))
	for _, n := range nodes {
		st.Queue = append(st.Queue, taskStatus(n))
	}

	b.mu.Lock()
	b.status = st
	b.mu.Unlock()
}

// Status returns the state published by the last tick.
func (b *Bot) Status() Status {
	b.mu.RLock()
	defer b.mu.RUnlock()
	st := b.status
	st.Queue = append([]TaskStatus(nil), b.status.Queue...)
	return st
}

// Summary is the one message answer used by the chat controllers.
func (b *Bot) Summary() string {
	st := b.Status()

	var sb strings.Builder
	state := "following"
	if !st.Enabled {
		state = "paused"
	}
	fmt.Fprintf(&sb, "%s is %s", st.Supervisor, state)
	if st.Zone != "" {
		fmt.Fprintf(&sb, " in %s", st.Zone)
	}
	sb.WriteString("\n")

	switch {
	case st.Leader.Name == "":
		sb.WriteString("Leader: not configured\n")
	case st.Leader.Visible:
		fmt.Fprintf(&sb, "Leader: %s, %.0f away\n", st.Leader.Name, st.Leader.Distance)
	case st.Leader.Zone != "":
		fmt.Fprintf(&sb, "Leader: %s, in %s\n", st.Leader.Name, st.Leader.Zone)
	default:
		fmt.Fprintf(&sb, "Leader: %s, not found\n", st.Leader.Name)
	}

	fmt.Fprintf(&sb, "Executor: %s, %d queued", st.Executor, len(st.Queue))
	if st.Current != nil {
		fmt.Fprintf(&sb, ", running %s", st.Current.Type)
	}
	if st.LastDecision != "" {
		fmt.Fprintf(&sb, "\nLast decision: %s", st.LastDecision)
	}
	return sb.String()
}
