package leader

import (
	"log/slog"
	"strings"

	"github.com/copilot-bot/copilot/internal/event"
	"github.com/copilot-bot/copilot/internal/game"
)

// State is what the bot knows about the leader this tick. Entity is nil while the leader isn't
// streamed into the zone, PartyMember is nil while it isn't in the party roster.
type State struct {
	Name        string
	Entity      *game.Entity
	PartyMember *game.PartyMember
	// Position is the last known position, kept from previous ticks while the entity is missing.
	Position    game.Vector3
	HasPosition bool
	ZoneName    string
	HasGrace    bool
}

func (s State) IsResolved() bool {
	return s.Entity != nil
}

// IsLeaderInDifferentZone compares zone names. An unknown leader zone is never different.
func (s State) IsLeaderInDifferentZone(currentZone string) bool {
	if strings.TrimSpace(s.ZoneName) == "" {
		return false
	}
	return !strings.EqualFold(strings.TrimSpace(s.ZoneName), strings.TrimSpace(currentZone))
}

// TeleportButton returns the screen position of the party teleport icon for the leader.
func (s State) TeleportButton() (game.Point, bool) {
	if s.PartyMember == nil || s.PartyMember.TeleportButton == nil {
		return game.Point{}, false
	}
	return *s.PartyMember.TeleportButton, true
}

type Detector struct {
	supervisor string
	logger     *slog.Logger
	listener   *event.Listener
	last       State
}

func NewDetector(supervisor string, logger *slog.Logger, listener *event.Listener) *Detector {
	return &Detector{supervisor: supervisor, logger: logger, listener: listener}
}

// Refresh resolves the leader among the player entities and the party roster. A missing leader
// is not an error, the returned state just has no entity.
func (d *Detector) Refresh(data game.Data, leaderName string, graceBuffs []string) State {
	s := State{Name: leaderName}
	if strings.TrimSpace(leaderName) == "" {
		d.last = s
		return s
	}

	if d.last.Name == "" || strings.EqualFold(d.last.Name, leaderName) {
		s.Position = d.last.Position
		s.HasPosition = d.last.HasPosition
		s.ZoneName = d.last.ZoneName
	}

	if e, found := data.FindPlayer(leaderName); found {
		s.Entity = &e
		s.Position = e.Position
		s.HasPosition = true
		s.ZoneName = data.Area.Name
		s.HasGrace = game.HasBuff(e.Buffs, graceBuffs)
	}
	if m, found := data.FindPartyMember(leaderName); found {
		s.PartyMember = &m
		if m.ZoneName != "" {
			s.ZoneName = m.ZoneName
		}
	}

	d.notify(s, data.Area.Name)
	d.last = s
	return s
}

func (d *Detector) notify(s State, currentZone string) {
	if d.last.IsResolved() && !s.IsResolved() {
		d.logger.Info("Leader is not visible anymore", slog.String("leader", s.Name), slog.String("zone", s.ZoneName))
		d.listener.Send(event.LeaderLost(event.Text(d.supervisor, "Lost sight of "+s.Name), s.Name))
	}

	if d.last.ZoneName != "" && s.ZoneName != "" && !strings.EqualFold(d.last.ZoneName, s.ZoneName) {
		d.logger.Info("Leader changed zone",
			slog.String("leader", s.Name),
			slog.String("from", d.last.ZoneName),
			slog.String("to", s.ZoneName),
			slog.String("current", currentZone),
		)
		d.listener.Send(event.LeaderZoneChanged(event.Text(d.supervisor, s.Name+" entered "+s.ZoneName), s.Name, d.last.ZoneName, s.ZoneName))
	}
}
