package tile

import "github.com/paulmach/orb"

// Viewport is the camera capability consumed by the resolvers. Unproject maps
// a screen point to [lng, lat] when IsGeospatial reports true, and to planar
// world [x, y] otherwise.
type Viewport interface {
	Width() float64
	Height() float64
	Zoom() float64
	IsGeospatial() bool
	Unproject(screen orb.Point) orb.Point
}

// Model selects one of the two supported coordinate models.
type Model int

const (
	// Identity is the flat Cartesian plane measured in world units.
	Identity Model = iota
	// Geospatial is the Web Mercator slippy-map scheme.
	Geospatial
)

// ModelOf returns the coordinate model of the viewport.
func ModelOf(vp Viewport) Model {
	if vp.IsGeospatial() {
		return Geospatial
	}
	return Identity
}

func (m Model) String() string {
	if m == Geospatial {
		return "geospatial"
	}
	return "identity"
}

// Level adjusts a tile level to the model. The geospatial root tile already
// covers the world, so negative levels are raised to 0; identity levels are
// unbounded.
func (m Model) Level(z int) int {
	if m == Geospatial && z < 0 {
		return 0
	}
	return z
}

// Indices enumerates the tiles covering b at zoom z.
func (m Model) Indices(b orb.Bound, z int) []Index {
	if m == Geospatial {
		return GeospatialIndices(b, z)
	}
	return IdentityIndices(b, z)
}

// Bounds maps a tile index back to its spatial extent.
func (m Model) Bounds(i Index) Bounds {
	if m == Geospatial {
		nw := TileToLngLat(float64(i.X), float64(i.Y), i.Z)
		se := TileToLngLat(float64(i.X+1), float64(i.Y+1), i.Z)
		return GeoBounds{West: nw.X(), North: nw.Y(), East: se.X(), South: se.Y()}
	}
	tl := TileToWorld(float64(i.X), float64(i.Y), i.Z)
	br := TileToWorld(float64(i.X+1), float64(i.Y+1), i.Z)
	return WorldBounds{Left: tl.X(), Top: tl.Y(), Right: br.X(), Bottom: br.Y()}
}
