package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/copilot-bot/copilot/internal/game"
	cp "github.com/otiai10/copy"
	"gopkg.in/yaml.v3"
)

var (
	Version = "dev"

	ErrNoLeader = errors.New("leader name is empty")
)

const (
	DefaultConfigDir  = "config"
	DefaultConfigFile = "copilot.yaml"
	templateDir       = "template"
)

type Settings struct {
	Debug struct {
		Log bool `yaml:"log"`
	} `yaml:"debug"`
	LogSaveDirectory string `yaml:"logSaveDirectory"`

	Enabled    bool   `yaml:"enabled"`
	LeaderName string `yaml:"leaderName"`
	TickMs     int    `yaml:"tickMs"`

	Autopilot AutopilotCfg `yaml:"autopilot"`
	Dash      DashCfg      `yaml:"dash"`
	Replan    ReplanCfg    `yaml:"replan"`
	Timing    TimingCfg    `yaml:"timing"`
	Policy    PolicyCfg    `yaml:"policy"`
	Server    ServerCfg    `yaml:"server"`
	Discord   DiscordCfg   `yaml:"discord"`
	Telegram  TelegramCfg  `yaml:"telegram"`
	Ngrok     NgrokCfg     `yaml:"ngrok"`
	Simulator SimulatorCfg `yaml:"simulator"`
}

type AutopilotCfg struct {
	Enabled     bool     `yaml:"enabled"`
	MoveKey     game.Key `yaml:"moveKey"`
	CloseFollow bool     `yaml:"closeFollow"`
	// FollowDuringGrace keeps following while the leader still carries the zone-in grace buff.
	FollowDuringGrace bool `yaml:"followDuringGrace"`
	// ClaimWaypoints clicks the waypoint of every zone visited next to the leader, once per zone.
	ClaimWaypoints bool `yaml:"claimWaypoints"`

	ClearPathDistance       int `yaml:"clearPathDistance"`
	PathfindingNodeDistance int `yaml:"pathfindingNodeDistance"`
	MinFollowDistance       int `yaml:"minFollowDistance"`
	MaxFollowDistance       int `yaml:"maxFollowDistance"`
	// ZoneTransitionJump is the leader displacement in one tick treated as a zone change.
	ZoneTransitionJump int `yaml:"zoneTransitionJump"`
	// TransitionRecoveryDistance clears portal-transition mode once the bot is this close again.
	TransitionRecoveryDistance int `yaml:"transitionRecoveryDistance"`
	PortalFallbackRadius       int `yaml:"portalFallbackRadius"`
	WaypointClaimDistance      int `yaml:"waypointClaimDistance"`
}

type DashCfg struct {
	Enabled         bool     `yaml:"enabled"`
	Key             game.Key `yaml:"key"`
	TriggerDistance int      `yaml:"triggerDistance"`
	CooldownMs      int      `yaml:"cooldownMs"`
	// AimToleranceDeg is the maximum angle between cursor and leader for a same-direction dash.
	AimToleranceDeg float64    `yaml:"aimToleranceDeg"`
	TerrainCheck    bool       `yaml:"terrainCheck"`
	Terrain         TerrainCfg `yaml:"terrain"`
}

// TerrainCfg tunes the obstacle-crossing heuristic, in grid steps.
type TerrainCfg struct {
	MaxSteps          int     `yaml:"maxSteps"`
	MaxApproachSteps  int     `yaml:"maxApproachSteps"`
	MinObstacleSteps  int     `yaml:"minObstacleSteps"`
	TargetReachedDist float64 `yaml:"targetReachedDist"`
}

type ReplanCfg struct {
	Enabled bool `yaml:"enabled"`
	// ReversalDot is the dot product (of unit vectors) below which the queued path points away
	// from the leader.
	ReversalDot float64 `yaml:"reversalDot"`
	// MinEfficiency is the minimum straight-line / queued path length ratio.
	MinEfficiency float64 `yaml:"minEfficiency"`
	// MinPathLength avoids replanning short queues where the ratio is noise.
	MinPathLength int `yaml:"minPathLength"`
}

type TimingCfg struct {
	MoveHoldMs       int `yaml:"moveHoldMs"`
	ActionDelayMs    int `yaml:"actionDelayMs"`
	MouseSettleMs    int `yaml:"mouseSettleMs"`
	TransitionWaitMs int `yaml:"transitionWaitMs"`
}

// PolicyCfg holds the game vocabulary the bot matches against: portal names, buffs and panels.
type PolicyCfg struct {
	PortalTemplates []string `yaml:"portalTemplates"`
	SpecialPortals  []string `yaml:"specialPortals"`
	PortalKeywords  []string `yaml:"portalKeywords"`
	HideoutKeywords []string `yaml:"hideoutKeywords"`
	TownKeywords    []string `yaml:"townKeywords"`
	GraceBuffs      []string `yaml:"graceBuffs"`
	BlockingPanels  []string `yaml:"blockingPanels"`
	HighLevelArea   int      `yaml:"highLevelArea"`
}

type ServerCfg struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

type DiscordCfg struct {
	Enabled    bool     `yaml:"enabled"`
	Token      string   `yaml:"token"`
	ChannelID  string   `yaml:"channelId"`
	BotAdmins  []string `yaml:"botAdmins"`
	UseWebhook bool     `yaml:"useWebhook"`
	WebhookURL string   `yaml:"webhookUrl"`
	// EnableTaskMessages also publishes abandoned tasks, which can be chatty on bad maps.
	EnableTaskMessages bool `yaml:"enableTaskMessages"`
}

type TelegramCfg struct {
	Enabled bool   `yaml:"enabled"`
	ChatID  int64  `yaml:"chatId"`
	Token   string `yaml:"token"`
}

type NgrokCfg struct {
	Enabled       bool   `yaml:"enabled"`
	Authtoken     string `yaml:"authtoken"`
	Region        string `yaml:"region"`
	Domain        string `yaml:"domain"`
	BasicAuthUser string `yaml:"basicAuthUser"`
	BasicAuthPass string `yaml:"basicAuthPass"`
}

// SimulatorCfg runs the follower against the built-in scripted world instead of the game.
type SimulatorCfg struct {
	Enabled bool `yaml:"enabled"`
	// InputWindow is a window handle that receives the key and mouse events of the simulated run,
	// used to try the bindings on a real game window. Zero keeps the input inside the simulator.
	InputWindow uint64 `yaml:"inputWindow"`
}

// Store owns the settings file and hands out copies, so the bot can pick up a reload between
// two ticks without locking for a whole tick.
type Store struct {
	mu       sync.RWMutex
	path     string
	settings Settings
}

func NewStore(path string) *Store {
	return &Store{path: path, settings: Default()}
}

// NewStaticStore returns a store that is never backed by a file, useful for tests and embedding.
func NewStaticStore(s Settings) *Store {
	return &Store{settings: s}
}

func (s *Store) Path() string {
	return s.path
}

// Current returns a copy of the active settings.
func (s *Store) Current() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings.clone()
}

// Update applies fn to the active settings and persists them when the store is file backed.
func (s *Store) Update(fn func(*Settings)) error {
	s.mu.Lock()
	next := s.settings.clone()
	fn(&next)
	next.applyDefaults()
	s.settings = next
	s.mu.Unlock()

	if s.path == "" {
		return nil
	}
	return s.Save()
}

// Load reads the settings file. Missing fields keep their defaults.
func (s *Store) Load() error {
	if s.path == "" {
		return nil
	}

	r, err := os.Open(s.path)
	if err != nil {
		return fmt.Errorf("error loading %s: %w", s.path, err)
	}
	defer r.Close()

	cfg := Default()
	d := yaml.NewDecoder(r)
	if err = d.Decode(&cfg); err != nil {
		return fmt.Errorf("error reading config %s: %w", s.path, err)
	}
	cfg.applyDefaults()
	if err = cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", s.path, err)
	}

	s.mu.Lock()
	s.settings = cfg
	s.mu.Unlock()

	return nil
}

// Reload is Load under another name, kept for the reload endpoint; on error the previous
// settings stay active.
func (s *Store) Reload() error {
	return s.Load()
}

func (s *Store) Save() error {
	s.mu.RLock()
	text, err := yaml.Marshal(s.settings)
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("error parsing copilot config: %w", err)
	}

	if err = os.WriteFile(s.path, text, 0644); err != nil {
		return fmt.Errorf("error writing copilot config: %w", err)
	}

	return nil
}

// Validate reports settings the bot can't run with.
func (c Settings) Validate() error {
	if c.Enabled && strings.TrimSpace(c.LeaderName) == "" {
		return ErrNoLeader
	}
	if c.Autopilot.PathfindingNodeDistance <= 0 {
		return errors.New("pathfindingNodeDistance must be positive")
	}
	if c.Autopilot.MinFollowDistance >= c.Autopilot.MaxFollowDistance {
		return fmt.Errorf("minFollowDistance (%d) must be lower than maxFollowDistance (%d)", c.Autopilot.MinFollowDistance, c.Autopilot.MaxFollowDistance)
	}
	return nil
}

func (c Settings) clone() Settings {
	c.Policy.PortalTemplates = append([]string(nil), c.Policy.PortalTemplates...)
	c.Policy.SpecialPortals = append([]string(nil), c.Policy.SpecialPortals...)
	c.Policy.PortalKeywords = append([]string(nil), c.Policy.PortalKeywords...)
	c.Policy.HideoutKeywords = append([]string(nil), c.Policy.HideoutKeywords...)
	c.Policy.TownKeywords = append([]string(nil), c.Policy.TownKeywords...)
	c.Policy.GraceBuffs = append([]string(nil), c.Policy.GraceBuffs...)
	c.Policy.BlockingPanels = append([]string(nil), c.Policy.BlockingPanels...)
	c.Discord.BotAdmins = append([]string(nil), c.Discord.BotAdmins...)
	return c
}

// CreateProfileFromTemplate creates a new settings directory named name from the template
// directory, next to it under configDir.
func CreateProfileFromTemplate(configDir, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", errors.New("name cannot be empty")
	}

	dest := filepath.Join(configDir, name)
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		return "", errors.New("configuration with that name already exists")
	}

	if err := cp.Copy(filepath.Join(configDir, templateDir), dest); err != nil {
		return "", fmt.Errorf("error copying template: %w", err)
	}

	return filepath.Join(dest, DefaultConfigFile), nil
}
