package tile

import (
	"math"

	"github.com/paulmach/orb"
)

// IdentityIndices returns the tiles covering a planar world bound at zoom z.
// The plane is unbounded: indices may be negative and are never wrapped.
// The projected maximum is an exclusive bound, so a tile is only included
// once the bound extends past its leading edge. Bounds that are not finite
// or lie beyond +/-2^53 tiles yield no tiles.
func IdentityIndices(b orb.Bound, z int) []Index {
	scale := Scale(z)
	lo := IdentityToTile(b.Min, scale)
	hi := IdentityToTile(b.Max, scale)

	minX, maxX := math.Floor(lo.X()), hi.X()
	minY, maxY := math.Floor(lo.Y()), hi.Y()
	if !enumerable(minX, maxX) || !enumerable(minY, maxY) {
		return nil
	}

	indices := make([]Index, 0, estimate(minX, maxX, minY, maxY))
	for x := minX; x < maxX; x++ {
		for y := minY; y < maxY; y++ {
			indices = append(indices, Index{X: int(x), Y: int(y), Z: z})
		}
	}
	return indices
}

// GeospatialIndices returns the slippy-map tiles covering a [west, south,
// east, north] bound at zoom z. Columns are wrapped into [0, 2^z) and the
// horizontal span is capped at one full world so that antimeridian crossings
// and multi-world views never produce the same tile twice. Rows are clamped
// to [0, 2^z). Negative zoom levels are raised to 0, and levels above 53
// yield no tiles.
func GeospatialIndices(b orb.Bound, z int) []Index {
	z = Geospatial.Level(z)
	scale := Scale(z)

	// west+north is the top-left tile corner, east+south the bottom-right.
	tl := GeospatialToTile(orb.Point{b.Min.Lon(), b.Max.Lat()}, scale)
	br := GeospatialToTile(orb.Point{b.Max.Lon(), b.Min.Lat()}, scale)

	minX := math.Floor(tl.X())
	maxX := math.Min(minX+scale, br.X())
	minY := math.Max(0, math.Floor(tl.Y()))
	maxY := math.Min(scale, br.Y())
	if scale > maxExactTile || !enumerable(minX, maxX) || !enumerable(minY, maxY) {
		return nil
	}
	n := int(scale)

	indices := make([]Index, 0, estimate(minX, maxX, minY, maxY))
	for x := minX; x < maxX; x++ {
		col := wrap(int(x), n)
		for y := minY; y < maxY; y++ {
			indices = append(indices, Index{X: col, Y: int(y), Z: z})
		}
	}
	return indices
}

// maxExactTile is the largest tile coordinate float64 counts past exactly.
const maxExactTile = 1 << 53

// enumerable reports whether the half-open range [lo, hi) can be walked one
// tile at a time. NaN and infinite ends are rejected.
func enumerable(lo, hi float64) bool {
	return lo >= -maxExactTile && hi <= maxExactTile
}

// estimate returns a capacity hint for a half-open tile range.
func estimate(minX, maxX, minY, maxY float64) int {
	w := math.Ceil(maxX - minX)
	h := math.Ceil(maxY - minY)
	if !(w > 0 && h > 0) || w*h > 1<<16 {
		return 0
	}
	return int(w * h)
}
