package config

import "github.com/copilot-bot/copilot/internal/game"

var defaultPortalTemplates = []string{
	"portal to {zone}",
	"portal to the {zone}",
	"{zone} portal",
	"enter {zone}",
	"enter the {zone}",
	"go to {zone}",
	"go to the {zone}",
	"{zone} entrance",
	"{zone} gate",
}

// Default returns the settings used for every field the file doesn't set.
func Default() Settings {
	s := Settings{
		LogSaveDirectory: "logs",
		Enabled:          true,
	}

	s.Autopilot = AutopilotCfg{
		Enabled:                    true,
		MoveKey:                    'T',
		CloseFollow:                true,
		FollowDuringGrace:          true,
		ClearPathDistance:          500,
		PathfindingNodeDistance:    200,
		MinFollowDistance:          200,
		MaxFollowDistance:          2000,
		ZoneTransitionJump:         1000,
		TransitionRecoveryDistance: 500,
		PortalFallbackRadius:       200,
		WaypointClaimDistance:      150,
	}
	s.Dash = DashCfg{
		Enabled:         true,
		Key:             game.KeySpace,
		TriggerDistance: 700,
		CooldownMs:      3000,
		AimToleranceDeg: 20,
		TerrainCheck:    true,
		Terrain: TerrainCfg{
			MaxSteps:          500,
			MaxApproachSteps:  10,
			MinObstacleSteps:  5,
			TargetReachedDist: 2,
		},
	}
	s.Replan = ReplanCfg{
		Enabled:       true,
		ReversalDot:   -0.5,
		MinEfficiency: 0.8,
	}
	s.Timing = TimingCfg{
		MoveHoldMs:       60,
		ActionDelayMs:    40,
		MouseSettleMs:    30,
		TransitionWaitMs: 250,
	}
	s.Policy = PolicyCfg{
		PortalTemplates: append([]string(nil), defaultPortalTemplates...),
		SpecialPortals:  []string{"arena", "sanctum", "crucible", "trial of", "labyrinth", "boss room"},
		PortalKeywords:  []string{"portal", "waypoint", "entrance", "gate", "door", "stairs", "exit"},
		HideoutKeywords: []string{"hideout", "home"},
		TownKeywords:    []string{"town", "waypoint"},
		GraceBuffs:      []string{"grace_period"},
		BlockingPanels:  []string{"inventory", "stash", "trade", "skills", "atlas", "passives"},
		HighLevelArea:   68,
	}
	s.Server = ServerCfg{Port: 8087}
	s.Ngrok.Region = "us"
	s.TickMs = 50

	return s
}

// applyDefaults fills the fields a hand-edited file left at their zero value.
func (c *Settings) applyDefaults() {
	d := Default()

	setInt(&c.Autopilot.ClearPathDistance, d.Autopilot.ClearPathDistance)
	setInt(&c.Autopilot.PathfindingNodeDistance, d.Autopilot.PathfindingNodeDistance)
	setInt(&c.Autopilot.MaxFollowDistance, d.Autopilot.MaxFollowDistance)
	setInt(&c.Autopilot.ZoneTransitionJump, d.Autopilot.ZoneTransitionJump)
	setInt(&c.Autopilot.TransitionRecoveryDistance, d.Autopilot.TransitionRecoveryDistance)
	setInt(&c.Autopilot.PortalFallbackRadius, d.Autopilot.PortalFallbackRadius)
	setInt(&c.Autopilot.WaypointClaimDistance, d.Autopilot.WaypointClaimDistance)

	setInt(&c.Dash.CooldownMs, d.Dash.CooldownMs)
	setInt(&c.Dash.Terrain.MaxSteps, d.Dash.Terrain.MaxSteps)
	setInt(&c.Dash.Terrain.MaxApproachSteps, d.Dash.Terrain.MaxApproachSteps)
	setInt(&c.Dash.Terrain.MinObstacleSteps, d.Dash.Terrain.MinObstacleSteps)
	if c.Dash.Terrain.TargetReachedDist <= 0 {
		c.Dash.Terrain.TargetReachedDist = d.Dash.Terrain.TargetReachedDist
	}
	if c.Dash.AimToleranceDeg <= 0 {
		c.Dash.AimToleranceDeg = d.Dash.AimToleranceDeg
	}

	if c.Replan.MinEfficiency <= 0 {
		c.Replan.MinEfficiency = d.Replan.MinEfficiency
	}

	setInt(&c.Timing.MoveHoldMs, d.Timing.MoveHoldMs)
	setInt(&c.Timing.ActionDelayMs, d.Timing.ActionDelayMs)
	setInt(&c.Timing.MouseSettleMs, d.Timing.MouseSettleMs)
	setInt(&c.Timing.TransitionWaitMs, d.Timing.TransitionWaitMs)

	if c.Policy.PortalTemplates == nil {
		c.Policy.PortalTemplates = d.Policy.PortalTemplates
	}
	if c.Policy.PortalKeywords == nil {
		c.Policy.PortalKeywords = d.Policy.PortalKeywords
	}
	if c.Policy.HideoutKeywords == nil {
		c.Policy.HideoutKeywords = d.Policy.HideoutKeywords
	}
	if c.Policy.TownKeywords == nil {
		c.Policy.TownKeywords = d.Policy.TownKeywords
	}
	setInt(&c.Policy.HighLevelArea, d.Policy.HighLevelArea)

	setInt(&c.Server.Port, d.Server.Port)
	setInt(&c.TickMs, d.TickMs)
}

func setInt(v *int, def int) {
	if *v <= 0 {
		*v = def
	}
}
