package tile

import "github.com/paulmach/orb"

// boxViewport is a 100x100 screen mapped linearly onto a spatial bound,
// screen y pointing from the bound's max y to its min y.
type boxViewport struct {
	bound orb.Bound
	zoom  float64
	geo   bool
}

func (v boxViewport) Width() float64     { return 100 }
func (v boxViewport) Height() float64    { return 100 }
func (v boxViewport) Zoom() float64      { return v.zoom }
func (v boxViewport) IsGeospatial() bool { return v.geo }

func (v boxViewport) Unproject(p orb.Point) orb.Point {
	dx := v.bound.Max.X() - v.bound.Min.X()
	dy := v.bound.Max.Y() - v.bound.Min.Y()
	return orb.Point{
		v.bound.Min.X() + p.X()/100*dx,
		v.bound.Max.Y() - p.Y()/100*dy,
	}
}

func bound(minX, minY, maxX, maxY float64) orb.Bound {
	return orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
}

// cornerViewport returns fixed points for the four screen corners.
type cornerViewport struct {
	corners map[orb.Point]orb.Point
}

func (v cornerViewport) Width() float64     { return 10 }
func (v cornerViewport) Height() float64    { return 20 }
func (v cornerViewport) Zoom() float64      { return 0 }
func (v cornerViewport) IsGeospatial() bool { return false }

func (v cornerViewport) Unproject(p orb.Point) orb.Point {
	return v.corners[p]
}
