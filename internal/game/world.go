package game

// World is the read-only view of the host process. The host integration layer implements it on
// top of its memory-mapped object model; the bot never probes host objects directly.
type World interface {
	// GetData returns a fresh snapshot of the game state.
	GetData() Data
	// WorldToScreen projects a world position into window coordinates. The boolean is false when
	// the projection failed (camera not ready, position behind the camera...).
	WorldToScreen(p Vector3) (Point, bool)
	// TerrainLayers returns the raw terrain bitplanes of the current zone.
	TerrainLayers() (TerrainLayers, bool)
}

// TerrainLayers are the raw nibble-packed walkability layers as stored by the game.
type TerrainLayers struct {
	Melee       []byte
	Ranged      []byte
	NumCols     int
	NumRows     int
	BytesPerRow int
}
