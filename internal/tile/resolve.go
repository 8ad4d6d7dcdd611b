package tile

import (
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

// ZoomLimit is an optional integer bound on the tile zoom level.
type ZoomLimit struct {
	level   int
	bounded bool
}

// NoLimit leaves the zoom level unrestricted on that side.
var NoLimit = ZoomLimit{}

// Limit bounds the zoom level at the given value.
func Limit(level int) ZoomLimit {
	return ZoomLimit{level: level, bounded: true}
}

// Level returns the bound and whether it is set.
func (l ZoomLimit) Level() (int, bool) {
	return l.level, l.bounded
}

func (l ZoomLimit) String() string {
	if !l.bounded {
		return "none"
	}
	return fmt.Sprintf("%d", l.level)
}

// maxLevel bounds the magnitude of a tile level so it always fits an int.
const maxLevel = 1 << 30

// TileZoom returns the integer tile level for a continuous viewport zoom and
// reports false when the viewport is zoomed out past minZoom or the zoom is
// NaN. Fractional zooms round up so tiles are never coarser than the view.
func TileZoom(zoom float64, maxZoom, minZoom ZoomLimit) (int, bool) {
	z := math.Ceil(zoom)
	if math.IsNaN(z) {
		return 0, false
	}
	if lo, ok := minZoom.Level(); ok && z < float64(lo) {
		return 0, false
	}
	if hi, ok := maxZoom.Level(); ok && z > float64(hi) {
		z = float64(hi)
	}
	return int(math.Max(-maxLevel, math.Min(maxLevel, z))), true
}

// ResolveLevel returns the tile level ResolveIndices enumerates for the
// viewport, after the zoom limits and the coordinate model are applied.
func ResolveLevel(vp Viewport, maxZoom, minZoom ZoomLimit) (int, bool) {
	z, ok := TileZoom(vp.Zoom(), maxZoom, minZoom)
	if !ok {
		return 0, false
	}
	return ModelOf(vp).Level(z), true
}

// ResolveIndices returns every tile index visible in the viewport. When the
// viewport zoom is below minZoom no tiles are returned; above maxZoom the
// tiles of maxZoom are returned instead.
func ResolveIndices(vp Viewport, maxZoom, minZoom ZoomLimit) []Index {
	z, ok := ResolveLevel(vp, maxZoom, minZoom)
	if !ok {
		return nil
	}
	return ModelOf(vp).Indices(ViewportBound(vp), z)
}

// ResolveBounds returns the spatial extent of a tile under the viewport's
// coordinate model. The index is not validated; geospatial callers are
// expected to pass normalized indices.
func ResolveBounds(vp Viewport, i Index) Bounds {
	return ModelOf(vp).Bounds(i)
}

// Bounds is the spatial extent of a single tile.
type Bounds interface {
	// Bound returns the extent as an orb.Bound with Min <= Max.
	Bound() orb.Bound
}

// GeoBounds is the extent of a slippy-map tile in degrees.
type GeoBounds struct {
	West  float64 `json:"west"`
	North float64 `json:"north"`
	East  float64 `json:"east"`
	South float64 `json:"south"`
}

// Bound implements Bounds.
func (b GeoBounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.West, b.South}, Max: orb.Point{b.East, b.North}}
}

// WorldBounds is the extent of an identity tile in world units. Top is the
// smaller y value.
type WorldBounds struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Right  float64 `json:"right"`
	Bottom float64 `json:"bottom"`
}

// Bound implements Bounds.
func (b WorldBounds) Bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.Left, b.Top}, Max: orb.Point{b.Right, b.Bottom}}
}
