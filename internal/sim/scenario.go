package sim

import (
	"github.com/copilot-bot/copilot/internal/config"
	"github.com/copilot-bot/copilot/internal/game"
)

const (
	ZoneCoast    = "The Coast"
	ZoneMudFlats = "The Mud Flats"
)

// Layers encodes a tile layout into the nibble-packed layers the host exposes.
func Layers(cols, rows int, tile func(x, y int) game.TileType) *game.TerrainLayers {
	bytesPerRow := (cols + 1) / 2
	melee := make([]byte, bytesPerRow*rows)
	ranged := make([]byte, bytesPerRow*rows)
	for y := 0; y < rows; y++ {
		for x := 0; x < cols; x++ {
			shift := uint(0)
			if x%2 == 1 {
				shift = 4
			}
			i := y*bytesPerRow + x/2
			switch tile(x, y) {
			case game.TileWalkableMelee:
				melee[i] |= 1 << shift
			case game.TileWalkableRanged:
				ranged[i] |= 1 << shift
			}
		}
	}
	return &game.TerrainLayers{
		Melee:       melee,
		Ranged:      ranged,
		NumCols:     cols,
		NumRows:     rows,
		BytesPerRow: bytesPerRow,
	}
}

// Demo builds the dry run world: the leader walks along The Coast, past a wall only a dash can
// cross, takes the portal to The Mud Flats and keeps walking there.
func Demo(s config.Settings) *World {
	coast := &Zone{
		Name:  ZoneCoast,
		Level: 10,
		Portals: []Portal{
			{ID: 100, Text: "Portal to The Mud Flats", Position: game.Vector3{X: 3000, Y: 1000}, Exit: Exit{Zone: ZoneMudFlats, Arrival: game.Vector3{X: 500, Y: 500}}},
			{ID: 101, Text: "Waypoint", Position: game.Vector3{X: 700, Y: 1200}},
		},
		Layers: Layers(400, 200, func(x, _ int) game.TileType {
			if x >= 150 && x < 157 {
				return game.TileWalkableRanged
			}
			return game.TileWalkableMelee
		}),
	}
	mudFlats := &Zone{
		Name:  ZoneMudFlats,
		Level: 11,
		Portals: []Portal{
			{ID: 200, Text: "Portal to The Coast", Position: game.Vector3{X: 400, Y: 500}, Exit: Exit{Zone: ZoneCoast, Arrival: game.Vector3{X: 2900, Y: 1000}}},
		},
		Layers: Layers(400, 200, func(int, int) game.TileType { return game.TileWalkableMelee }),
	}

	leaderName := s.LeaderName
	if leaderName == "" {
		leaderName = "Leader"
	}

	w := NewWorld(Options{
		Window:       game.Rect{Right: 1920, Bottom: 1080},
		MoveKey:      s.Autopilot.MoveKey,
		DashKey:      s.Dash.Key,
		LeaderName:   leaderName,
		LeaderSpeed:  25,
		PlayerSpeed:  40,
		DashRange:    400,
		LoadingTicks: 3,
	}, coast, game.Vector3{X: 500, Y: 1000})
	w.AddZone(mudFlats)

	w.SetLeader(ZoneCoast, game.Vector3{X: 600, Y: 1000})
	w.WalkLeader(
		LeaderStep{Position: game.Vector3{X: 1500, Y: 1000}},
		LeaderStep{Position: game.Vector3{X: 2000, Y: 1100}},
		LeaderStep{Position: game.Vector3{X: 2950, Y: 1000}},
		LeaderStep{Zone: ZoneMudFlats, Position: game.Vector3{X: 520, Y: 500}},
		LeaderStep{Position: game.Vector3{X: 1500, Y: 800}},
		LeaderStep{Position: game.Vector3{X: 2500, Y: 800}},
	)
	return w
}
