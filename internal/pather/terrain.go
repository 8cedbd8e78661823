package pather

import (
	"log/slog"
	"math"
	"sync"

	"github.com/copilot-bot/copilot/internal/config"
	"github.com/copilot-bot/copilot/internal/game"
)

// Terrain holds the walkability grid of the current zone. It's rebuilt wholesale on every zone
// change and read-only in between.
type Terrain struct {
	mu     sync.RWMutex
	grid   *game.Grid
	cfg    config.TerrainCfg
	logger *slog.Logger
}

func NewTerrain(logger *slog.Logger, cfg config.TerrainCfg) *Terrain {
	return &Terrain{logger: logger, cfg: cfg}
}

// Load rebuilds the grid from the layers exposed by the world. On any error the terrain stays
// unloaded and every dash analysis answers false.
func (t *Terrain) Load(world game.World) bool {
	layers, found := world.TerrainLayers()
	if !found {
		t.logger.Debug("Terrain layers not available, dash terrain check disabled for this zone")
		t.Reset()
		return false
	}

	grid, err := game.BuildGridFromRawLayers(layers.Melee, layers.Ranged, layers.NumCols, layers.NumRows, layers.BytesPerRow)
	if err != nil {
		t.logger.Warn("Failed to build terrain grid", slog.Any("error", err))
		t.Reset()
		return false
	}

	t.SetGrid(grid)
	t.logger.Debug("Terrain grid loaded", slog.Int("cols", grid.Width), slog.Int("rows", grid.Height))
	return true
}

func (t *Terrain) SetGrid(g *game.Grid) {
	t.mu.Lock()
	t.grid = g
	t.mu.Unlock()
}

func (t *Terrain) Reset() {
	t.SetGrid(nil)
}

func (t *Terrain) Loaded() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.grid != nil
}

// SetConfig swaps the analysis thresholds, used when settings are reloaded.
func (t *Terrain) SetConfig(cfg config.TerrainCfg) {
	t.mu.Lock()
	t.cfg = cfg
	t.mu.Unlock()
}

func (t *Terrain) snapshot() (*game.Grid, config.TerrainCfg) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.grid, t.cfg
}

// CanDashTo runs AnalyzeForDashing between two world positions.
func (t *Terrain) CanDashTo(from, to game.Vector3) bool {
	return t.AnalyzeForDashing(WorldToGrid(from), WorldToGrid(to))
}

// AnalyzeForDashing walks a straight ray over the grid from `from` towards `to` and reports
// whether a dash would cross a nearby obstacle. This is a heuristic, not a path search: the ray
// has to reach a ranged-only band (a wall a dash can go through) within a few steps of open
// ground, and the band has to be deep enough to be worth it. Any blocked or out of grid tile on
// the way rejects the dash.
func (t *Terrain) AnalyzeForDashing(from, to game.Point) bool {
	grid, cfg := t.snapshot()
	if grid == nil {
		return false
	}

	dx := float64(to.X - from.X)
	dy := float64(to.Y - from.Y)
	length := math.Hypot(dx, dy)
	if length < cfg.TargetReachedDist {
		return false
	}
	dx, dy = dx/length, dy/length

	approach, obstacle := 0, 0
	inside := false
	for step := 0; step < cfg.MaxSteps; step++ {
		x := float64(from.X) + dx*float64(step)
		y := float64(from.Y) + dy*float64(step)
		if math.Hypot(float64(to.X)-x, float64(to.Y)-y) < cfg.TargetReachedDist {
			break
		}

		switch grid.At(int(math.Round(x)), int(math.Round(y))) {
		case game.TileBlocked, game.TileOutOfRange:
			return false
		case game.TileWalkableRanged:
			inside = true
			obstacle++
		default:
			if !inside {
				approach++
				if approach > cfg.MaxApproachSteps {
					return false
				}
			}
		}
	}

	return approach <= cfg.MaxApproachSteps && obstacle >= cfg.MinObstacleSteps
}
