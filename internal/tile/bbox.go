package tile

import "github.com/paulmach/orb"

// ViewportBound unprojects the four screen corners of the viewport and
// returns their axis-aligned bounding box. Unprojected corners may arrive in
// any order for rotated or flipped cameras.
func ViewportBound(vp Viewport) orb.Bound {
	w, h := vp.Width(), vp.Height()

	first := vp.Unproject(orb.Point{0, 0})
	b := orb.Bound{Min: first, Max: first}
	for _, corner := range []orb.Point{{w, 0}, {0, h}, {w, h}} {
		b = b.Extend(vp.Unproject(corner))
	}
	return b
}
