package viewport

import (
	"fmt"
	"math"
	"strings"

	"github.com/MeKo-Tech/tileindex/internal/tile"
)

const (
	ModeGeo      = "geo"
	ModeIdentity = "identity"
)

// Params describes a viewport as read from flags, config files or queries.
type Params struct {
	Mode      string  `mapstructure:"mode" json:"mode"`
	Longitude float64 `mapstructure:"lon" json:"lon"`
	Latitude  float64 `mapstructure:"lat" json:"lat"`
	X         float64 `mapstructure:"x" json:"x"`
	Y         float64 `mapstructure:"y" json:"y"`
	Zoom      float64 `mapstructure:"zoom" json:"zoom"`
	Width     float64 `mapstructure:"width" json:"width"`
	Height    float64 `mapstructure:"height" json:"height"`
	Bearing   float64 `mapstructure:"bearing" json:"bearing"`
}

// Validate checks that the parameters describe a usable viewport.
func (p Params) Validate() error {
	var errs []string

	switch strings.ToLower(p.Mode) {
	case "", ModeGeo, ModeIdentity:
	default:
		errs = append(errs, fmt.Sprintf("mode must be %q or %q, got %q", ModeGeo, ModeIdentity, p.Mode))
	}
	if !(p.Width >= 0) || !(p.Height >= 0) {
		errs = append(errs, fmt.Sprintf("width and height must be non-negative, got %gx%g", p.Width, p.Height))
	}
	for _, f := range []struct {
		name string
		v    float64
	}{
		{"lon", p.Longitude}, {"lat", p.Latitude}, {"x", p.X}, {"y", p.Y}, {"zoom", p.Zoom}, {"bearing", p.Bearing},
	} {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) {
			errs = append(errs, fmt.Sprintf("%s must be finite", f.name))
		}
	}
	if p.isGeo() && math.Abs(p.Latitude) > 90 {
		errs = append(errs, fmt.Sprintf("lat must be within [-90, 90], got %g", p.Latitude))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid viewport: %s", strings.Join(errs, "; "))
	}
	return nil
}

// Viewport builds the camera described by the parameters.
func (p Params) Viewport() (tile.Viewport, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if p.isGeo() {
		return NewWebMercator(p.Longitude, p.Latitude, p.Zoom, p.Width, p.Height, p.Bearing), nil
	}
	return NewOrthographic(p.X, p.Y, p.Zoom, p.Width, p.Height), nil
}

func (p Params) isGeo() bool {
	return !strings.EqualFold(p.Mode, ModeIdentity)
}
