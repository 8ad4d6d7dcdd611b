package tile

import (
	"math"

	"github.com/paulmach/orb"
)

// TileSize is the edge length of a zoom 0 tile in world units.
const TileSize = 512

const (
	degToRad = math.Pi / 180.0
	radToDeg = 180.0 / math.Pi
)

// Scale returns the grid resolution 2^z. Negative zoom levels yield
// fractional scales.
func Scale(z int) float64 {
	return math.Ldexp(1, z)
}

// LngLatToWorld projects a [lng, lat] point into Web Mercator world space
// where the zoom 0 world is TileSize units wide and y increases northward.
// Latitude is not clamped; the poles map to +/-Inf.
func LngLatToWorld(p orb.Point) orb.Point {
	lambda := p.Lon() * degToRad
	phi := p.Lat() * degToRad
	x := TileSize * (lambda + math.Pi) / (2 * math.Pi)
	y := TileSize * (math.Pi + math.Log(math.Tan(math.Pi/4+phi/2))) / (2 * math.Pi)
	return orb.Point{x, y}
}

// WorldToLngLat is the inverse of LngLatToWorld.
func WorldToLngLat(p orb.Point) orb.Point {
	lambda := p.X()/TileSize*(2*math.Pi) - math.Pi
	phi := 2*math.Atan(math.Exp(p.Y()/TileSize*(2*math.Pi)-math.Pi)) - math.Pi/2
	return orb.Point{lambda * radToDeg, phi * radToDeg}
}

// IdentityToTile converts a planar world point to fractional tile coordinates.
func IdentityToTile(p orb.Point, scale float64) orb.Point {
	return orb.Point{p.X() * scale / TileSize, p.Y() * scale / TileSize}
}

// GeospatialToTile converts a [lng, lat] point to fractional slippy-map tile
// coordinates. Tile rows grow southward, hence the flip of the world y axis.
func GeospatialToTile(p orb.Point, scale float64) orb.Point {
	w := LngLatToWorld(p)
	return orb.Point{w.X() * scale / TileSize, (1 - w.Y()/TileSize) * scale}
}

// TileToWorld returns the planar world position of the tile corner (x, y).
func TileToWorld(x, y float64, z int) orb.Point {
	scale := Scale(z)
	return orb.Point{x / scale * TileSize, y / scale * TileSize}
}

// TileToLngLat returns the [lng, lat] of the slippy-map tile corner (x, y).
func TileToLngLat(x, y float64, z int) orb.Point {
	scale := Scale(z)
	lng := x/scale*360 - 180
	n := math.Pi - 2*math.Pi*y/scale
	lat := radToDeg * math.Atan(math.Sinh(n))
	return orb.Point{lng, lat}
}
