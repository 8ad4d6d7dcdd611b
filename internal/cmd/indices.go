package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/tileindex/internal/mbtiles"
	"github.com/MeKo-Tech/tileindex/internal/tile"
	"github.com/MeKo-Tech/tileindex/internal/viewport"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var indicesCmd = &cobra.Command{
	Use:   "indices",
	Short: "List the tiles visible in a viewport",
	Long: `List the tile indices covering a viewport.

Geospatial viewports are centred on --lon/--lat; identity viewports
(--mode identity) on --x/--y in world units. Zoom limits default to the
tileset metadata when --mbtiles is given.`,
	RunE: runIndices,
}

func init() {
	rootCmd.AddCommand(indicesCmd)

	indicesCmd.Flags().String("mode", viewport.ModeGeo, "Coordinate model: geo or identity")
	indicesCmd.Flags().Float64("lon", 0, "Centre longitude (geo mode)")
	indicesCmd.Flags().Float64("lat", 0, "Centre latitude (geo mode)")
	indicesCmd.Flags().Float64("x", 0, "Centre x in world units (identity mode)")
	indicesCmd.Flags().Float64("y", 0, "Centre y in world units (identity mode)")
	indicesCmd.Flags().Float64P("zoom", "z", 0, "Continuous viewport zoom")
	indicesCmd.Flags().Float64("width", 1024, "Viewport width in pixels")
	indicesCmd.Flags().Float64("height", 768, "Viewport height in pixels")
	indicesCmd.Flags().Float64("bearing", 0, "Map rotation in degrees clockwise (geo mode)")
	indicesCmd.Flags().String("min-zoom", "", "Minimum tile zoom (empty for unrestricted)")
	indicesCmd.Flags().String("max-zoom", "", "Maximum tile zoom (empty for unrestricted)")
	indicesCmd.Flags().String("mbtiles", "", "MBTiles tileset used for zoom limits and presence checks")
	indicesCmd.Flags().String("format", "text", "Output format: text or json")

	bindFlags(indicesCmd, []flagBinding{
		{"indices.mode", "mode"},
		{"indices.lon", "lon"},
		{"indices.lat", "lat"},
		{"indices.x", "x"},
		{"indices.y", "y"},
		{"indices.zoom", "zoom"},
		{"indices.width", "width"},
		{"indices.height", "height"},
		{"indices.bearing", "bearing"},
		{"indices.min_zoom", "min-zoom"},
		{"indices.max_zoom", "max-zoom"},
		{"indices.mbtiles", "mbtiles"},
		{"indices.format", "format"},
	})
}

func runIndices(cmd *cobra.Command, args []string) error {
	if logger == nil {
		initLogging()
	}

	params := viewport.Params{
		Mode:      viper.GetString("indices.mode"),
		Longitude: viper.GetFloat64("indices.lon"),
		Latitude:  viper.GetFloat64("indices.lat"),
		X:         viper.GetFloat64("indices.x"),
		Y:         viper.GetFloat64("indices.y"),
		Zoom:      viper.GetFloat64("indices.zoom"),
		Width:     viper.GetFloat64("indices.width"),
		Height:    viper.GetFloat64("indices.height"),
		Bearing:   viper.GetFloat64("indices.bearing"),
	}
	format := viper.GetString("indices.format")
	tilesetPath := viper.GetString("indices.mbtiles")

	vp, err := params.Viewport()
	if err != nil {
		return err
	}

	maxZoom, minZoom := tile.NoLimit, tile.NoLimit
	var tileset *mbtiles.Reader
	if tilesetPath != "" {
		tileset, err = mbtiles.OpenReader(tilesetPath)
		if err != nil {
			return fmt.Errorf("failed to open tileset: %w", err)
		}
		defer tileset.Close()

		maxZoom, minZoom, err = tileset.ZoomLimits()
		if err != nil {
			return err
		}
	}
	if v := viper.GetString("indices.max_zoom"); v != "" {
		if maxZoom, err = parseZoomLimit(v); err != nil {
			return fmt.Errorf("invalid --max-zoom: %w", err)
		}
	}
	if v := viper.GetString("indices.min_zoom"); v != "" {
		if minZoom, err = parseZoomLimit(v); err != nil {
			return fmt.Errorf("invalid --min-zoom: %w", err)
		}
	}

	indices := tile.ResolveIndices(vp, maxZoom, minZoom)

	logger.Debug("Resolved viewport",
		"model", tile.ModelOf(vp).String(),
		"zoom", vp.Zoom(),
		"min_zoom", minZoom.String(),
		"max_zoom", maxZoom.String(),
		"tiles", len(indices),
	)

	missing, err := missingTiles(tileset, vp, indices)
	if err != nil {
		return err
	}
	if missing != nil {
		logger.Info("Checked tileset", "path", tileset.Path(), "tiles", len(indices), "missing", len(missing))
	}

	return writeIndices(cmd.OutOrStdout(), format, vp, indices, missing)
}

// missingTiles marks the indices the tileset does not store. It returns nil
// when there is no tileset or the viewport is planar, since MBTiles rows are
// slippy-map tiles.
func missingTiles(tileset *mbtiles.Reader, vp tile.Viewport, indices []tile.Index) (map[tile.Index]bool, error) {
	if tileset == nil || tile.ModelOf(vp) != tile.Geospatial {
		return nil, nil
	}
	absent, err := tileset.Missing(indices)
	if err != nil {
		return nil, err
	}
	missing := make(map[tile.Index]bool, len(absent))
	for _, i := range absent {
		missing[i] = true
	}
	return missing, nil
}

type tileEntry struct {
	tile.Index
	Bounds tile.Bounds `json:"bounds"`
	Stored *bool       `json:"stored,omitempty"`
}

// writeIndices prints resolved tiles as text lines or a JSON array. missing
// is nil when no tileset was consulted.
func writeIndices(w io.Writer, format string, vp tile.Viewport, indices []tile.Index, missing map[tile.Index]bool) error {
	switch strings.ToLower(format) {
	case "json":
		entries := make([]tileEntry, 0, len(indices))
		for _, i := range indices {
			e := tileEntry{Index: i, Bounds: tile.ResolveBounds(vp, i)}
			if missing != nil {
				stored := !missing[i]
				e.Stored = &stored
			}
			entries = append(entries, e)
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text", "":
		for _, i := range indices {
			line := fmt.Sprintf("%d/%d/%d", i.Z, i.X, i.Y)
			if missing != nil && missing[i] {
				line += " missing"
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// parseZoomLimit parses a zoom bound; "none" and "inf" leave it unrestricted.
func parseZoomLimit(s string) (tile.ZoomLimit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "inf", "infinity":
		return tile.NoLimit, nil
	}
	z, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return tile.NoLimit, fmt.Errorf("zoom limit must be an integer or \"none\", got %q", s)
	}
	return tile.Limit(z), nil
}
