// Package server exposes tile index resolution over HTTP.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/tileindex/internal/mbtiles"
	"github.com/MeKo-Tech/tileindex/internal/tile"
	"github.com/MeKo-Tech/tileindex/internal/viewport"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// maxScreenSize bounds the viewport width and height accepted from queries.
const maxScreenSize = 8192

// Config configures the API.
type Config struct {
	Tileset      *mbtiles.Reader // optional; supplies default zoom limits and presence flags
	MaxTiles     int             // reject viewports resolving to more tiles; 0 disables
	CacheControl string
}

// API serves tile index and tile bounds queries.
type API struct {
	tileset      *mbtiles.Reader
	maxTiles     int
	cacheControl string
	logger       *slog.Logger
	registry     *prometheus.Registry
	metrics      *metrics
}

// NewAPI creates a new API handler set with its own metrics registry.
func NewAPI(cfg Config, logger *slog.Logger) *API {
	reg := prometheus.NewRegistry()
	return &API{
		tileset:      cfg.Tileset,
		maxTiles:     cfg.MaxTiles,
		cacheControl: cfg.CacheControl,
		logger:       logger,
		registry:     reg,
		metrics:      newMetrics(reg),
	}
}

// Handler returns the HTTP handler serving all endpoints.
func (a *API) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /indices", a.instrument("indices", a.serveIndices))
	mux.HandleFunc("GET /bounds/", a.instrument("bounds", a.serveBounds))
	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	mux.Handle("GET /metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))
	return withCORS(mux)
}

// TileResponse is a resolved tile with its spatial extent.
type TileResponse struct {
	tile.Index
	Bounds tile.Bounds `json:"bounds"`
	Stored *bool       `json:"stored,omitempty"`
}

// IndicesResponse is the body of a successful /indices request.
type IndicesResponse struct {
	Model string         `json:"model"`
	Zoom  *int           `json:"zoom"`
	Count int            `json:"count"`
	Tiles []TileResponse `json:"tiles"`
}

func (a *API) serveIndices(w http.ResponseWriter, r *http.Request) {
	params, maxZoom, minZoom, err := a.parseIndicesQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	vp, err := params.Viewport()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	model := tile.ModelOf(vp)
	resp := IndicesResponse{Model: model.String(), Tiles: []TileResponse{}}

	var indices []tile.Index
	if z, ok := tile.ResolveLevel(vp, maxZoom, minZoom); ok {
		resp.Zoom = &z
		indices = model.Indices(tile.ViewportBound(vp), z)
	}
	a.metrics.tilesResolved.WithLabelValues(model.String()).Observe(float64(len(indices)))

	if a.maxTiles > 0 && len(indices) > a.maxTiles {
		http.Error(w, fmt.Sprintf("viewport resolves to %d tiles, limit is %d", len(indices), a.maxTiles),
			http.StatusUnprocessableEntity)
		return
	}

	for _, idx := range indices {
		tr := TileResponse{Index: idx, Bounds: tile.ResolveBounds(vp, idx)}
		// MBTiles rows are slippy-map tiles; planar indices have no stored counterpart.
		if a.tileset != nil && model == tile.Geospatial {
			stored, err := a.tileset.HasTile(idx)
			if err != nil {
				a.log().Error("Failed to check tileset", "tile", idx.String(), "error", err)
				http.Error(w, "tileset lookup failed", http.StatusInternalServerError)
				return
			}
			tr.Stored = &stored
		}
		resp.Tiles = append(resp.Tiles, tr)
	}
	resp.Count = len(resp.Tiles)

	a.writeJSON(w, resp)
}

func (a *API) serveBounds(w http.ResponseWriter, r *http.Request) {
	idx, ok := parseBoundsPath(r.URL.Path)
	if !ok {
		http.NotFound(w, r)
		return
	}

	mode := r.URL.Query().Get("mode")
	// Bounds only consult the coordinate model of the viewport.
	vp, err := viewport.Params{Mode: mode}.Viewport()
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	a.writeJSON(w, tile.ResolveBounds(vp, idx))
}

// parseIndicesQuery reads viewport parameters and zoom limits. Absent zoom
// limits fall back to the tileset metadata when a tileset is configured.
func (a *API) parseIndicesQuery(q url.Values) (viewport.Params, tile.ZoomLimit, tile.ZoomLimit, error) {
	var p viewport.Params
	p.Mode = q.Get("mode")

	var errs []error
	for _, f := range []struct {
		key string
		dst *float64
	}{
		{"lon", &p.Longitude}, {"lat", &p.Latitude}, {"x", &p.X}, {"y", &p.Y},
		{"zoom", &p.Zoom}, {"width", &p.Width}, {"height", &p.Height}, {"bearing", &p.Bearing},
	} {
		v := q.Get(f.key)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid %s: %q", f.key, v))
			continue
		}
		*f.dst = parsed
	}
	if q.Get("width") == "" || q.Get("height") == "" {
		errs = append(errs, errors.New("width and height are required"))
	}
	if p.Width > maxScreenSize || p.Height > maxScreenSize {
		errs = append(errs, fmt.Errorf("width and height must not exceed %d", maxScreenSize))
	}

	maxZoom, minZoom := tile.NoLimit, tile.NoLimit
	if a.tileset != nil {
		var err error
		maxZoom, minZoom, err = a.tileset.ZoomLimits()
		if err != nil {
			a.log().Warn("Failed to read tileset zoom limits", "error", err)
		}
	}
	if v := q.Get("maxzoom"); v != "" {
		z, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid maxzoom: %q", v))
		}
		maxZoom = tile.Limit(z)
	}
	if v := q.Get("minzoom"); v != "" {
		z, err := strconv.Atoi(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid minzoom: %q", v))
		}
		minZoom = tile.Limit(z)
	}

	return p, maxZoom, minZoom, errors.Join(errs...)
}

// parseBoundsPath parses a path like /bounds/z13_x4317_y2692.
func parseBoundsPath(requestPath string) (tile.Index, bool) {
	if !strings.HasPrefix(requestPath, "/bounds/") {
		return tile.Index{}, false
	}

	idx, err := tile.ParseIndex(path.Base(requestPath))
	if err != nil {
		return tile.Index{}, false
	}
	return idx, true
}

func (a *API) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if a.cacheControl != "" {
		w.Header().Set("Cache-Control", a.cacheControl)
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		a.log().Error("Failed to write response", "error", err)
	}
}

func (a *API) log() *slog.Logger {
	if a.logger != nil {
		return a.logger
	}
	return slog.Default()
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
