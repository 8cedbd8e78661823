package leader

import (
	"io"
	"log/slog"
	"testing"

	"github.com/copilot-bot/copilot/internal/event"
	"github.com/copilot-bot/copilot/internal/game"
)

func newTestDetector() *Detector {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewDetector("bot", logger, event.NewListener(logger))
}

func TestRefreshResolvesLeader(t *testing.T) {
	d := newTestDetector()
	button := game.Point{X: 40, Y: 200}
	data := game.Data{
		Area: game.AreaInfo{Name: "The Coast"},
		Players: []game.Entity{
			{ID: 1, Name: "Someone", Valid: true},
			{ID: 2, Name: "EXILE", Position: game.Vector3{X: 10, Y: 20}, Valid: true, Buffs: []string{"Grace_Period"}},
		},
		Party: []game.PartyMember{{Name: "exile", ZoneName: "The Coast", TeleportButton: &button}},
	}

	s := d.Refresh(data, "Exile", []string{"grace_period"})
	if !s.IsResolved() || s.Entity.ID != 2 {
		t.Fatalf("expected leader entity to be resolved")
	}
	if s.Position != (game.Vector3{X: 10, Y: 20}) || !s.HasPosition {
		t.Errorf("unexpected leader position %v", s.Position)
	}
	if !s.HasGrace {
		t.Errorf("expected grace buff to be detected")
	}
	if got, ok := s.TeleportButton(); !ok || got != button {
		t.Errorf("expected teleport button %v, got %v", button, got)
	}
	if s.IsLeaderInDifferentZone("the coast") {
		t.Errorf("zone comparison should be case-insensitive")
	}
}

func TestRefreshToleratesMissingLeader(t *testing.T) {
	d := newTestDetector()
	d.Refresh(game.Data{
		Area:    game.AreaInfo{Name: "The Coast"},
		Players: []game.Entity{{ID: 2, Name: "Exile", Position: game.Vector3{X: 5}, Valid: true}},
	}, "Exile", nil)

	s := d.Refresh(game.Data{
		Area:  game.AreaInfo{Name: "The Coast"},
		Party: []game.PartyMember{{Name: "Exile", ZoneName: "The Mud Flats"}},
	}, "Exile", nil)

	if s.IsResolved() {
		t.Errorf("expected no entity while the leader is not streamed in")
	}
	if !s.HasPosition || s.Position.X != 5 {
		t.Errorf("expected last known position to be kept, got %v", s.Position)
	}
	if !s.IsLeaderInDifferentZone("The Coast") {
		t.Errorf("expected the party zone to be used")
	}
	if _, ok := s.TeleportButton(); ok {
		t.Errorf("expected no teleport button")
	}
}

func TestRefreshIgnoresInvalidEntities(t *testing.T) {
	d := newTestDetector()
	s := d.Refresh(game.Data{
		Players: []game.Entity{{ID: 2, Name: "Exile", Valid: false}},
	}, "Exile", nil)
	if s.IsResolved() {
		t.Errorf("stale entity handles should be ignored")
	}

	s = d.Refresh(game.Data{}, "", nil)
	if s.IsResolved() || s.HasPosition {
		t.Errorf("expected empty state without a configured leader")
	}
}

func TestUnknownZoneIsNotDifferent(t *testing.T) {
	if (State{}).IsLeaderInDifferentZone("The Coast") {
		t.Errorf("unknown leader zone should not count as a different zone")
	}
}
