package game

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"
)

const (
	TileOutOfRange     TileType = 0
	TileWalkableMelee  TileType = 1
	TileWalkableRanged TileType = 2
	TileBlocked        TileType = 255
)

const gridDecodeRowsChunk = 64

type TileType uint8

var ErrLayerSize = errors.New("terrain layer size mismatch")

// Grid uses a flat 1D slice for tile data to minimize allocations.
// Access via Get(x,y), or directly via Tiles[y*Width+x].
type Grid struct {
	Width  int
	Height int
	Tiles  []TileType // flat 1D array: index = y*Width + x
}

// Get returns the tile type at (x, y). No bounds checking.
func (g *Grid) Get(x, y int) TileType {
	return g.Tiles[y*g.Width+x]
}

// Set sets the tile type at (x, y). No bounds checking.
func (g *Grid) Set(x, y int, v TileType) {
	g.Tiles[y*g.Width+x] = v
}

func (g *Grid) IsInside(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

// At returns the tile at (x, y), TileOutOfRange outside of the grid.
func (g *Grid) At(x, y int) TileType {
	if g == nil || !g.IsInside(x, y) {
		return TileOutOfRange
	}
	return g.Get(x, y)
}

func (g *Grid) IsWalkable(x, y int) bool {
	return g.At(x, y) == TileWalkableMelee
}

// NewGrid creates an empty grid where every tile is blocked.
func NewGrid(width, height int) *Grid {
	tiles := make([]TileType, width*height)
	for i := range tiles {
		tiles[i] = TileBlocked
	}
	return &Grid{Width: width, Height: height, Tiles: tiles}
}

// BuildGridFromRawLayers decodes the two nibble-packed walkability bitplanes into a Grid. Each
// byte holds two columns: the low nibble is the even column, the high nibble the odd one. A tile
// walkable in the melee layer is WalkableMelee, a tile only present in the ranged layer can be
// crossed by projectiles and dashes (WalkableRanged), anything else is Blocked.
func BuildGridFromRawLayers(melee, ranged []byte, numCols, numRows, bytesPerRow int) (*Grid, error) {
	if numCols <= 0 || numRows <= 0 {
		return nil, fmt.Errorf("%w: empty grid %dx%d", ErrLayerSize, numCols, numRows)
	}
	if bytesPerRow*2 < numCols {
		return nil, fmt.Errorf("%w: %d bytes per row can't hold %d columns", ErrLayerSize, bytesPerRow, numCols)
	}
	need := bytesPerRow * numRows
	if len(melee) < need || len(ranged) < need {
		return nil, fmt.Errorf("%w: need %d bytes, melee has %d, ranged has %d", ErrLayerSize, need, len(melee), len(ranged))
	}

	grid := NewGrid(numCols, numRows)

	// Rows are independent, decode them in chunks concurrently
	g := errgroup.Group{}
	for start := 0; start < numRows; start += gridDecodeRowsChunk {
		start := start
		end := min(start+gridDecodeRowsChunk, numRows)
		g.Go(func() error {
			for y := start; y < end; y++ {
				row := y * bytesPerRow
				for x := 0; x < numCols; x++ {
					grid.Set(x, y, decodeTile(melee[row+x/2], ranged[row+x/2], x%2 == 1))
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return grid, nil
}

func decodeTile(meleeByte, rangedByte byte, high bool) TileType {
	m, r := meleeByte&0x0F, rangedByte&0x0F
	if high {
		m, r = meleeByte>>4, rangedByte>>4
	}
	switch {
	case m != 0:
		return TileWalkableMelee
	case r != 0:
		return TileWalkableRanged
	default:
		return TileBlocked
	}
}
