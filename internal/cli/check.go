package cli

import (
	"fmt"

	"github.com/copilot-bot/copilot/internal/config"
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the settings file",
	RunE:  runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	store := config.NewStore(configPath)
	if err := store.Load(); err != nil {
		return err
	}

	s := store.Current()
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s is valid\n", configPath)
	fmt.Fprintf(out, "leader: %q, autopilot: %t, dash: %t, close follow: %t\n", s.LeaderName, s.Enabled && s.Autopilot.Enabled, s.Dash.Enabled, s.Autopilot.CloseFollow)
	fmt.Fprintf(out, "follow distance: %d-%d, tick: %dms\n", s.Autopilot.MinFollowDistance, s.Autopilot.MaxFollowDistance, s.TickMs)
	if s.Simulator.Enabled {
		fmt.Fprintln(out, "running against the built-in simulator")
	}
	return nil
}
