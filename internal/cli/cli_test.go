package cli

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/copilot-bot/copilot/internal/config"
	"github.com/copilot-bot/copilot/internal/game"
	"github.com/copilot-bot/copilot/internal/sim"
	"github.com/spf13/cobra"
)

func withConfigPath(t *testing.T, path string) {
	t.Helper()
	previous := configPath
	configPath = path
	t.Cleanup(func() { configPath = previous })
}

func output(cmd *cobra.Command) *bytes.Buffer {
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	return &buf
}

func writeTemplate(t *testing.T, dir string, s config.Settings) {
	t.Helper()
	tpl := filepath.Join(dir, "template")
	if err := os.MkdirAll(tpl, 0755); err != nil {
		t.Fatalf("creating template dir: %v", err)
	}
	store := config.NewStore(filepath.Join(tpl, config.DefaultConfigFile))
	if err := store.Update(func(c *config.Settings) { *c = s }); err != nil {
		t.Fatalf("writing template settings: %v", err)
	}
}

func TestRunProfileCreate(t *testing.T) {
	t.Run("copies the template", func(t *testing.T) {
		dir := t.TempDir()
		s := config.Default()
		s.LeaderName = "Leader"
		writeTemplate(t, dir, s)
		withConfigPath(t, filepath.Join(dir, config.DefaultConfigFile))

		cmd := &cobra.Command{}
		out := output(cmd)
		if err := runProfileCreate(cmd, []string{"alt"}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		created := filepath.Join(dir, "alt", config.DefaultConfigFile)
		if _, err := os.Stat(created); err != nil {
			t.Fatalf("expected %s to exist: %v", created, err)
		}
		if !strings.Contains(out.String(), created) {
			t.Errorf("expected the new path in the output, got %q", out.String())
		}
	})

	t.Run("refuses an existing profile", func(t *testing.T) {
		dir := t.TempDir()
		writeTemplate(t, dir, config.Default())
		if err := os.MkdirAll(filepath.Join(dir, "alt"), 0755); err != nil {
			t.Fatalf("creating profile dir: %v", err)
		}
		withConfigPath(t, filepath.Join(dir, config.DefaultConfigFile))

		if err := runProfileCreate(&cobra.Command{}, []string{"alt"}); err == nil {
			t.Fatal("expected an error for an existing profile")
		}
	})
}

func TestRunCheck(t *testing.T) {
	t.Run("valid settings", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, config.DefaultConfigFile)
		store := config.NewStore(path)
		if err := store.Update(func(c *config.Settings) {
			c.LeaderName = "Leader"
			c.Simulator.Enabled = true
		}); err != nil {
			t.Fatalf("writing settings: %v", err)
		}
		withConfigPath(t, path)

		cmd := &cobra.Command{}
		out := output(cmd)
		if err := runCheck(cmd, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"is valid", `leader: "Leader"`, "follow distance: 200-2000", "simulator"} {
			if !strings.Contains(out.String(), want) {
				t.Errorf("expected %q in %q", want, out.String())
			}
		}
	})

	t.Run("missing leader", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, config.DefaultConfigFile)
		if err := os.WriteFile(path, []byte("enabled: true\nleaderName: \"\"\n"), 0644); err != nil {
			t.Fatalf("writing settings: %v", err)
		}
		withConfigPath(t, path)

		err := runCheck(&cobra.Command{}, nil)
		if !errors.Is(err, config.ErrNoLeader) {
			t.Errorf("expected ErrNoLeader, got %v", err)
		}
	})
}

func TestRunFollowerRequiresSimulator(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, config.DefaultConfigFile)
	store := config.NewStore(path)
	if err := store.Update(func(c *config.Settings) {
		c.LeaderName = "Leader"
		c.LogSaveDirectory = filepath.Join(dir, "logs")
		c.Simulator.Enabled = false
	}); err != nil {
		t.Fatalf("writing settings: %v", err)
	}
	withConfigPath(t, path)

	if err := runFollower(&cobra.Command{}, nil); !errors.Is(err, ErrNoHost) {
		t.Errorf("expected ErrNoHost, got %v", err)
	}
}

func TestFollowerInputDefaultsToTheSimulator(t *testing.T) {
	s := config.Default()
	world := sim.Demo(s)

	in, err := followerInput(s, world)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in != game.Input(world) {
		t.Errorf("expected the simulator to receive the input")
	}
}

func TestSupervisorName(t *testing.T) {
	tests := map[string]string{
		"config/copilot.yaml":     "copilot",
		"copilot.yaml":            "copilot",
		"config/alt/copilot.yaml": "alt",
	}
	for path, want := range tests {
		if got := supervisorName(filepath.FromSlash(path)); got != want {
			t.Errorf("supervisorName(%q) = %q, want %q", path, got, want)
		}
	}
}
