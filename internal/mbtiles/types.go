// Package mbtiles provides read access to MBTiles tilesets: metadata that
// bounds the zoom range, and presence checks for resolved tile indices.
package mbtiles

import "github.com/MeKo-Tech/tileindex/internal/tile"

// Metadata contains MBTiles metadata fields.
type Metadata struct {
	Name        string // Human-readable tileset identifier
	Format      string // Tile data type (png, jpg, webp, pbf)
	Attribution string // Attribution text
	Description string // Human-readable description
	Type        string // "baselayer" or "overlay"
	Version     string // Version string
	Bounds      [4]float64
	Center      [3]float64
	MinZoom     tile.ZoomLimit
	MaxZoom     tile.ZoomLimit
}
