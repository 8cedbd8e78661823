package planner

import (
	"log/slog"
	"strings"

	"github.com/copilot-bot/copilot/internal/context"
	"github.com/copilot-bot/copilot/internal/event"
	"github.com/copilot-bot/copilot/internal/game"
	"github.com/copilot-bot/copilot/internal/leader"
	"github.com/copilot-bot/copilot/internal/portal"
	"github.com/copilot-bot/copilot/internal/task"
)

// Decision names what the planner did on a tick. It's exposed on the status page and used by
// tests, nothing branches on it.
type Decision string

const (
	DecisionTeleportPending   Decision = "teleport-pending"
	DecisionTransitionQueued  Decision = "transition-queued"
	DecisionTransitionPending Decision = "transition-pending"
	DecisionDisabled          Decision = "disabled"
	DecisionLoading           Decision = "loading"
	DecisionNotReady          Decision = "not-ready"
	DecisionTeleportConfirm   Decision = "teleport-confirm"
	DecisionTeleportButton    Decision = "teleport-button"
	DecisionPortal            Decision = "portal"
	DecisionWaitingForLeader  Decision = "waiting-for-leader"
	DecisionLeaderGrace       Decision = "leader-grace"
	DecisionClose             Decision = "close"
	DecisionCloseFollow       Decision = "close-follow"
	DecisionReplanned         Decision = "replanned"
	DecisionNoPortal          Decision = "zone-jump-no-portal"
	DecisionDash              Decision = "dash"
	DecisionMovement          Decision = "movement"
	DecisionWaypointAppended  Decision = "waypoint-appended"
	DecisionIdle              Decision = "idle"
)

// Planner decides once per tick which tasks to queue and which ones to prune. It runs after the
// leader refresh and before the executor, and it's the only writer of the portal transition flag
// and the only one setting the teleport flag.
type Planner struct {
	ctx *context.Context

	lastLeader    game.Vector3
	hasLastLeader bool
	// claimed holds the zones whose waypoint was already queued for a claim.
	claimed map[string]bool
}

func New(ctx *context.Context) *Planner {
	return &Planner{ctx: ctx, claimed: make(map[string]bool)}
}

// Reset forgets the last leader sample, used on zone change so the new zone coordinates are not
// taken for a leader jump.
func (p *Planner) Reset() {
	p.hasLastLeader = false
}

func (p *Planner) Plan(ls leader.State) Decision {
	d := p.plan(ls)
	p.ctx.SetLastDecision(string(d))
	if ls.IsResolved() {
		p.lastLeader = ls.Position
		p.hasLastLeader = true
	}
	return d
}

func (p *Planner) plan(ls leader.State) Decision {
	cfg := p.ctx.Settings
	data := p.ctx.Data
	q := p.ctx.Queue

	if p.ctx.Shared.IsTeleportInProgress() {
		return DecisionTeleportPending
	}

	if p.ctx.Portals.IsInTransition() {
		if d, handled := p.transitionSearch(ls); handled {
			return d
		}
	}

	if d, ready := p.preflight(); !ready {
		return d
	}

	if data.TeleportDialog.Open && !q.HasTransition() {
		if q.AddTransition(task.NewTeleportConfirm(data.TeleportDialog.ConfirmButton)) {
			p.ctx.Logger.Info("Teleport confirmation dialog open, queued confirm click")
		}
		return DecisionTeleportConfirm
	}

	if !ls.IsResolved() {
		if ls.IsLeaderInDifferentZone(data.Area.Name) && !q.HasTransition() {
			if d, queued := p.followToZone(ls, false); queued {
				return d
			}
		}
		return DecisionWaitingForLeader
	}

	if !cfg.Autopilot.FollowDuringGrace && ls.HasGrace {
		return DecisionLeaderGrace
	}

	return p.followLeader(ls)
}

// transitionSearch looks for any portal the leader may have taken while the transition flag is
// set. It only consumes the tick when a transition task is queued.
func (p *Planner) transitionSearch(ls leader.State) (Decision, bool) {
	cfg := p.ctx.Settings
	player := p.ctx.Data.PlayerUnit.Position

	if ls.IsResolved() && player.Distance(ls.Position) < float64(cfg.Autopilot.TransitionRecoveryDistance) {
		since := p.ctx.Portals.Since()
		if p.ctx.Portals.Recover() {
			p.ctx.Logger.Info("Back next to the leader, leaving portal transition mode",
				slog.Float64("distance", player.Distance(ls.Position)),
				slog.Duration("took", p.ctx.Now().Sub(since)),
			)
			p.ctx.EventListener.Send(event.PortalTransition(event.Text(p.ctx.Name, "Portal transition finished"), false, player.Distance(ls.Position)))
		}
		return "", false
	}

	if p.ctx.Queue.HasTransition() {
		return DecisionTransitionPending, true
	}

	label, found := p.matcher().FindBestPortal(p.portalQuery(ls, true))
	if !found {
		return "", false
	}
	if p.ctx.Queue.AddTransition(task.NewTransition(*label)) {
		p.ctx.Logger.Info("Portal found while in transition mode", slog.String("portal", label.Text))
		return DecisionTransitionQueued, true
	}
	return DecisionTransitionPending, true
}

func (p *Planner) preflight() (Decision, bool) {
	cfg := p.ctx.Settings
	data := p.ctx.Data

	switch {
	case !cfg.Enabled, !cfg.Autopilot.Enabled:
		return DecisionDisabled, false
	case data.Loading:
		if p.ctx.Queue.Count() > 0 {
			p.ctx.Logger.Debug("Zone is loading, clearing queued tasks", slog.Int("tasks", p.ctx.Queue.Count()))
			p.ctx.Queue.Clear()
		}
		return DecisionLoading, false
	case !data.InGame, !data.PlayerUnit.Alive, !data.Foreground, data.Area.Name == "":
		return DecisionNotReady, false
	case data.AnyPanelOpen(cfg.Policy.BlockingPanels):
		return DecisionNotReady, false
	}

	return "", true
}

// followToZone queues the best way into the leader zone: the party teleport button first, then
// a portal matching the zone.
func (p *Planner) followToZone(ls leader.State, force bool) (Decision, bool) {
	if button, found := ls.TeleportButton(); found {
		if p.queueTeleportButton(button) {
			return DecisionTeleportButton, true
		}
		return DecisionTransitionPending, true
	}

	label, found := p.matcher().FindBestPortal(p.portalQuery(ls, force))
	if !found {
		return "", false
	}
	if p.ctx.Queue.AddTransition(task.NewTransition(*label)) {
		p.ctx.Logger.Info("Following leader through portal", slog.String("portal", label.Text), slog.String("zone", ls.ZoneName))
	}
	return DecisionPortal, true
}

func (p *Planner) queueTeleportButton(button game.Point) bool {
	if !p.ctx.Queue.AddTransition(task.NewTeleportButton(button)) {
		return false
	}
	p.ctx.Shared.SetTeleportInProgress()
	p.ctx.Logger.Info("Leader is in another zone, queued party teleport", slog.Int("x", button.X), slog.Int("y", button.Y))
	return true
}

func (p *Planner) followLeader(ls leader.State) Decision {
	cfg := p.ctx.Settings.Autopilot
	q := p.ctx.Queue
	player := p.ctx.Data.PlayerUnit.Position
	dist := player.Distance(ls.Position)
	node := float64(cfg.PathfindingNodeDistance)

	if dist < float64(cfg.ClearPathDistance) {
		return p.followClose(ls, dist)
	}

	if q.HasTransition() {
		return DecisionTransitionPending
	}

	if p.hasLastLeader {
		jump := ls.Position.Distance(p.lastLeader)
		if jump > float64(cfg.ClearPathDistance) && jump > float64(cfg.ZoneTransitionJump) {
			return p.followJump(ls, jump)
		}
	}

	if reason, degraded := p.pathDegraded(player, ls.Position); degraded {
		removed := q.ClearPreservingTransitions()
		p.ctx.Logger.Debug("Queued path no longer leads to the leader, replanning",
			slog.String("reason", reason),
			slog.Int("removed", removed),
		)
		p.queueDirect(ls.Position, dist)
		return DecisionReplanned
	}

	if q.Count() == 0 {
		if dist > float64(cfg.MinFollowDistance) && dist < float64(cfg.MaxFollowDistance) {
			if p.queueDirect(ls.Position, dist) == task.Dash {
				return DecisionDash
			}
			return DecisionMovement
		}
		return DecisionIdle
	}

	last, found := p.lastWaypoint()
	if !found || last.Distance(ls.Position) > node/2 {
		q.Add(task.NewMovement(ls.Position, cfg.PathfindingNodeDistance))
		return DecisionWaypointAppended
	}

	return DecisionIdle
}

// followClose drops travel tasks once the leader is near and keeps a single movement straight
// to it when close follow is enabled.
func (p *Planner) followClose(ls leader.State, dist float64) Decision {
	cfg := p.ctx.Settings.Autopilot
	node := float64(cfg.PathfindingNodeDistance)
	follow := cfg.CloseFollow && dist > node

	kept := false
	p.ctx.Queue.RemoveWhere(func(n *task.Node) bool {
		switch n.Type() {
		case task.Movement:
			if follow && !kept && n.WorldPosition.Distance(ls.Position) <= node/2 {
				kept = true
				return false
			}
			return true
		case task.Transition, task.Dash:
			return true
		}
		return false
	})
	p.claimWaypoint()

	if !follow {
		return DecisionClose
	}
	if !kept {
		p.ctx.Queue.Add(task.NewMovement(ls.Position, cfg.PathfindingNodeDistance))
	}
	return DecisionCloseFollow
}

// claimWaypoint queues a click on the zone waypoint when it's visible and within reach.
func (p *Planner) claimWaypoint() {
	cfg := p.ctx.Settings.Autopilot
	data := p.ctx.Data
	if !cfg.ClaimWaypoints || p.claimed[data.Area.Name] || p.ctx.Queue.HasAny(task.ClaimWaypoint) {
		return
	}

	player := data.PlayerUnit.Position
	for _, l := range data.VisibleLabels() {
		if !strings.Contains(strings.ToLower(l.Text), "waypoint") {
			continue
		}
		if player.Distance(l.Position) > float64(cfg.ClearPathDistance) {
			continue
		}
		p.ctx.Queue.Add(task.NewClaimWaypoint(l.Position, cfg.WaypointClaimDistance))
		p.claimed[data.Area.Name] = true
		p.ctx.Logger.Info("Waypoint in reach, queued claim", slog.String("zone", data.Area.Name))
		return
	}
}

// followJump handles a leader that moved farther in one tick than anyone can walk, most likely
// through a portal or a teleport.
func (p *Planner) followJump(ls leader.State, jump float64) Decision {
	cfg := p.ctx.Settings.Autopilot
	data := p.ctx.Data
	q := p.ctx.Queue

	if p.ctx.Portals.Enter(p.ctx.Now()) {
		p.ctx.Logger.Info("Leader jumped, entering portal transition mode", slog.Float64("jump", jump))
		p.ctx.EventListener.Send(event.PortalTransition(event.Text(p.ctx.Name, "Leader jumped away, looking for a portal"), true, jump))
	}
	q.ClearPreservingTransitions()

	if data.TeleportDialog.Open {
		q.AddTransition(task.NewTeleportConfirm(data.TeleportDialog.ConfirmButton))
		return DecisionTeleportConfirm
	}
	if d, queued := p.followToZone(ls, true); queued {
		return d
	}

	if label, found := p.matcher().NearestPortalLike(data.VisibleLabels(), p.lastLeader, float64(cfg.PortalFallbackRadius)); found {
		if q.AddTransition(task.NewTransition(*label)) {
			p.ctx.Logger.Info("Using nearest portal where the leader vanished", slog.String("portal", label.Text))
		}
		return DecisionPortal
	}

	p.ctx.Logger.Debug("Leader jumped but no portal was found")
	return DecisionNoPortal
}

// pathDegraded detects a queued path that doesn't make sense anymore: the first waypoint points
// away from the leader, or the walk through the waypoints is much longer than the straight line.
func (p *Planner) pathDegraded(player, leaderPos game.Vector3) (string, bool) {
	cfg := p.ctx.Settings.Replan
	if !cfg.Enabled {
		return "", false
	}

	var first, last *task.Node
	for _, n := range p.ctx.Queue.Snapshot() {
		if !n.Type().IsPositional() {
			continue
		}
		if first == nil {
			first = &n
		}
		last = &n
	}
	if first == nil {
		return "", false
	}

	toWaypoint := first.WorldPosition.Sub(player).Normalize()
	toLeader := leaderPos.Sub(player).Normalize()
	if !toWaypoint.IsZero() && !toLeader.IsZero() && toWaypoint.Dot(toLeader) < cfg.ReversalDot {
		return "heading reversal", true
	}

	queued := p.ctx.Queue.PathLength(player)
	if queued < float64(cfg.MinPathLength) {
		return "", false
	}
	straight := player.Distance(leaderPos)
	path := queued + last.WorldPosition.Distance(leaderPos)
	if path > 0 && straight/path < cfg.MinEfficiency {
		return "circuitous path", true
	}

	return "", false
}

// queueDirect queues a dash or a movement straight to pos and returns the type it picked.
func (p *Planner) queueDirect(pos game.Vector3, dist float64) task.Type {
	cfg := p.ctx.Settings
	q := p.ctx.Queue

	if cfg.Dash.Enabled && dist > float64(cfg.Dash.TriggerDistance) &&
		!q.HasAny(task.Dash, task.Transition, task.TeleportConfirm, task.TeleportButton) {
		q.Add(task.NewDash(pos))
		return task.Dash
	}

	q.Add(task.NewMovement(pos, cfg.Autopilot.PathfindingNodeDistance))
	return task.Movement
}

func (p *Planner) lastWaypoint() (game.Vector3, bool) {
	snapshot := p.ctx.Queue.Snapshot()
	for i := len(snapshot) - 1; i >= 0; i-- {
		if snapshot[i].Type().IsPositional() {
			return snapshot[i].WorldPosition, true
		}
	}
	return game.Vector3{}, false
}

func (p *Planner) matcher() portal.Matcher {
	return portal.NewMatcher(p.ctx.Settings.Policy)
}

func (p *Planner) portalQuery(ls leader.State, force bool) portal.Query {
	data := p.ctx.Data
	return portal.Query{
		Labels:         data.VisibleLabels(),
		LeaderZone:     ls.ZoneName,
		CurrentZone:    data.Area.Name,
		IsHideout:      data.Area.IsHideout,
		AreaLevel:      data.Area.Level,
		LeaderPosition: ls.Position,
		Force:          force,
	}
}
