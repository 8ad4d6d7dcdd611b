// Package viewport provides camera models that satisfy tile.Viewport: a
// rotatable Web Mercator map camera and a planar orthographic camera.
package viewport

import (
	"math"

	"github.com/MeKo-Tech/tileindex/internal/tile"
	"github.com/paulmach/orb"
)

// WebMercator is a north-up (optionally rotated) map camera centred on a
// geographic point. Screen y grows downward.
type WebMercator struct {
	center  orb.Point // world coordinates of the centre at zoom 0
	zoom    float64
	width   float64
	height  float64
	scale   float64
	sin     float64
	cos     float64
	bearing float64
}

// NewWebMercator creates a map camera. Bearing is in degrees clockwise from
// north.
func NewWebMercator(lon, lat, zoom, width, height, bearing float64) *WebMercator {
	rad := bearing * math.Pi / 180
	return &WebMercator{
		center:  tile.LngLatToWorld(orb.Point{lon, lat}),
		zoom:    zoom,
		width:   width,
		height:  height,
		scale:   math.Pow(2, zoom),
		sin:     math.Sin(rad),
		cos:     math.Cos(rad),
		bearing: bearing,
	}
}

func (v *WebMercator) Width() float64     { return v.width }
func (v *WebMercator) Height() float64    { return v.height }
func (v *WebMercator) Zoom() float64      { return v.zoom }
func (v *WebMercator) IsGeospatial() bool { return true }

// Bearing returns the camera rotation in degrees.
func (v *WebMercator) Bearing() float64 { return v.bearing }

// Unproject maps a screen pixel to [lng, lat]. Longitudes past the
// antimeridian are not wrapped.
func (v *WebMercator) Unproject(p orb.Point) orb.Point {
	dx := p.X() - v.width/2
	dy := p.Y() - v.height/2

	rx := dx*v.cos - dy*v.sin
	ry := dx*v.sin + dy*v.cos

	world := orb.Point{
		v.center.X() + rx/v.scale,
		v.center.Y() - ry/v.scale,
	}
	return tile.WorldToLngLat(world)
}

// Orthographic is a planar camera looking at a target point in world units.
// Screen and world y both grow downward.
type Orthographic struct {
	target orb.Point
	zoom   float64
	width  float64
	height float64
	scale  float64
}

// NewOrthographic creates a planar camera. One screen pixel spans 2^-zoom
// world units.
func NewOrthographic(x, y, zoom, width, height float64) *Orthographic {
	return &Orthographic{
		target: orb.Point{x, y},
		zoom:   zoom,
		width:  width,
		height: height,
		scale:  math.Pow(2, zoom),
	}
}

func (v *Orthographic) Width() float64     { return v.width }
func (v *Orthographic) Height() float64    { return v.height }
func (v *Orthographic) Zoom() float64      { return v.zoom }
func (v *Orthographic) IsGeospatial() bool { return false }

// Unproject maps a screen pixel to world coordinates.
func (v *Orthographic) Unproject(p orb.Point) orb.Point {
	return orb.Point{
		v.target.X() + (p.X()-v.width/2)/v.scale,
		v.target.Y() + (p.Y()-v.height/2)/v.scale,
	}
}
