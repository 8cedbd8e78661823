package cli

import (
	"fmt"
	"path/filepath"

	"github.com/copilot-bot/copilot/internal/config"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Manage settings profiles",
}

var profileCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a settings profile from the template",
	Long:  "Copies config/template into config/<name>. Point --config at the new file to use it.",
	Args:  cobra.ExactArgs(1),
	RunE:  runProfileCreate,
}

func init() {
	profileCmd.AddCommand(profileCreateCmd)
}

func runProfileCreate(cmd *cobra.Command, args []string) error {
	path, err := config.CreateProfileFromTemplate(filepath.Dir(configPath), args[0])
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Profile created, start it with: copilot --config %s\n", path)
	return nil
}
