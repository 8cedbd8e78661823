//go:build !windows

package cli

import (
	"testing"

	"github.com/copilot-bot/copilot/internal/config"
	"github.com/copilot-bot/copilot/internal/sim"
)

func TestFollowerInputWindowNeedsWindows(t *testing.T) {
	s := config.Default()
	s.Simulator.InputWindow = 0x10a2
	if in, err := followerInput(s, sim.Demo(s)); err == nil || in != nil {
		t.Errorf("expected an error attaching to a window outside of windows, got %v", in)
	}
}
