package telegram

import (
	"errors"
	"testing"

	"github.com/copilot-bot/copilot/internal/event"
)

type fakeController struct {
	enabled bool
	err     error
}

func (c *fakeController) Summary() string { return "idle" }

func (c *fakeController) SetAutopilot(enabled bool) error {
	if c.err != nil {
		return c.err
	}
	c.enabled = enabled
	return nil
}

func TestFormatEvent(t *testing.T) {
	tests := []struct {
		name    string
		event   event.Event
		want    string
		publish bool
	}{
		{
			name:    "zone change",
			event:   event.LeaderZoneChanged(event.Text("follower", "Leader changed zone"), "Leader", "The Coast", "The Mud Flats"),
			want:    "[follower] Leader moved to The Mud Flats",
			publish: true,
		},
		{
			name:    "portal transition",
			event:   event.PortalTransition(event.Text("follower", "Leader jumped"), true, 1500),
			want:    "[follower] leader jumped 1500 units away, looking for a portal",
			publish: true,
		},
		{
			name:    "recovered",
			event:   event.PortalTransition(event.Text("follower", "Back"), false, 100),
			want:    "[follower] caught up with the leader",
			publish: true,
		},
		{
			name:    "leader lost",
			event:   event.LeaderLost(event.Text("follower", "Leader lost"), "Leader"),
			want:    "[follower] Leader lost",
			publish: true,
		},
		{
			name:  "zone loaded",
			event: event.ZoneLoaded(event.Text("follower", "Zone loaded"), "The Coast", true),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, publish := formatEvent(tt.event)
			if publish != tt.publish || got != tt.want {
				t.Errorf("expected (%q, %v), got (%q, %v)", tt.want, tt.publish, got, publish)
			}
		})
	}
}

func TestCommand(t *testing.T) {
	c := &fakeController{}
	if got := command(c, "Status"); got != "idle" {
		t.Errorf("unexpected reply %q", got)
	}
	if got := command(c, "start"); got != "Autopilot enabled" || !c.enabled {
		t.Errorf("expected the autopilot to be enabled, got %q", got)
	}
	if got := command(c, " stop "); got != "Autopilot disabled" || c.enabled {
		t.Errorf("expected the autopilot to be disabled, got %q", got)
	}
	c.err = errors.New("boom")
	if got := command(c, "start"); got != "Could not update autopilot: boom" {
		t.Errorf("unexpected reply %q", got)
	}
}
