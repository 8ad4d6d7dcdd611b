package tile

import (
	"fmt"
	"strconv"

	"github.com/paulmach/orb/maptile"
)

// Index identifies a tile by column, row and zoom level.
type Index struct {
	X int `json:"x"` // Tile column (west to east)
	Y int `json:"y"` // Tile row (north to south)
	Z int `json:"z"` // Zoom level
}

// NewIndex creates a new Index from zoom, x, y values
func NewIndex(z, x, y int) Index {
	return Index{X: x, Y: y, Z: z}
}

// String returns the tile index as a string in format "z{zoom}_x{x}_y{y}"
func (i Index) String() string {
	return fmt.Sprintf("z%d_x%d_y%d", i.Z, i.X, i.Y)
}

// Path returns the file name for this tile with the given extension
func (i Index) Path(extension string) string {
	return fmt.Sprintf("%s.%s", i.String(), extension)
}

// Normalize reduces X into the canonical column range [0, 2^z) of the
// slippy-map grid. Y is left untouched. Indices with a negative zoom, or a
// zoom whose column count does not fit an int, are returned unchanged.
func (i Index) Normalize() Index {
	if i.Z < 0 || i.Z >= strconv.IntSize-1 {
		return i
	}
	i.X = wrap(i.X, 1<<i.Z)
	return i
}

// Tile returns the maptile.Tile for a normalized geospatial index.
func (i Index) Tile() maptile.Tile {
	n := i.Normalize()
	return maptile.New(uint32(n.X), uint32(n.Y), maptile.Zoom(n.Z))
}

// ParseIndex parses a tile string like "z13_x4297_y2754" into an Index.
// Negative columns and rows are accepted since the identity model is unbounded.
func ParseIndex(s string) (Index, error) {
	var i Index
	var rest string
	n, _ := fmt.Sscanf(s, "z%d_x%d_y%d%s", &i.Z, &i.X, &i.Y, &rest)
	if n != 3 || i.Z < 0 {
		return Index{}, fmt.Errorf("invalid tile index format: %s", s)
	}
	return i, nil
}

// wrap maps x into [0, n) treating the column axis as a ring.
func wrap(x, n int) int {
	return ((x % n) + n) % n
}
