package pather

import (
	"math"

	"github.com/copilot-bot/copilot/internal/game"
)

// WorldUnitsPerTile is the size of a terrain tile in world units.
const WorldUnitsPerTile = 250.0 / 23.0

func WorldToGrid(p game.Vector3) game.Point {
	return game.Point{
		X: int(math.Floor(p.X / WorldUnitsPerTile)),
		Y: int(math.Floor(p.Y / WorldUnitsPerTile)),
	}
}
