package cli

import (
	"path/filepath"

	"github.com/copilot-bot/copilot/internal/config"
	"github.com/spf13/cobra"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:     "copilot",
	Short:   "Party follower bot",
	Long:    `Copilot follows a party leader: it walks and dashes after it and takes the same portals and teleports into the same zones.`,
	Version: config.Version,
	// Running without a subcommand starts the follower.
	RunE:         runFollower,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", filepath.Join(config.DefaultConfigDir, config.DefaultConfigFile), "Settings file")
	rootCmd.AddCommand(runCmd, checkCmd, profileCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
