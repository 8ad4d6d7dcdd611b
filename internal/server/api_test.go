package server

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/tileindex/internal/mbtiles"
	"github.com/MeKo-Tech/tileindex/internal/tile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

type indicesBody struct {
	Model string `json:"model"`
	Zoom  *int   `json:"zoom"`
	Count int    `json:"count"`
	Tiles []struct {
		X      int                `json:"x"`
		Y      int                `json:"y"`
		Z      int                `json:"z"`
		Bounds map[string]float64 `json:"bounds"`
		Stored *bool              `json:"stored"`
	} `json:"tiles"`
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestParseBoundsPath(t *testing.T) {
	t.Run("slippy tile", func(t *testing.T) {
		idx, ok := parseBoundsPath("/bounds/z13_x4317_y2692")
		if !ok {
			t.Fatalf("expected ok")
		}
		if idx.String() != "z13_x4317_y2692" {
			t.Fatalf("unexpected index: %s", idx.String())
		}
	})

	t.Run("negative identity tile", func(t *testing.T) {
		idx, ok := parseBoundsPath("/bounds/z0_x-3_y-2")
		if !ok {
			t.Fatalf("expected ok")
		}
		if idx != (tile.Index{X: -3, Y: -2, Z: 0}) {
			t.Fatalf("unexpected index: %+v", idx)
		}
	})

	t.Run("reject garbage", func(t *testing.T) {
		if _, ok := parseBoundsPath("/bounds/z5_x1"); ok {
			t.Fatalf("expected not ok")
		}
	})

	t.Run("reject other prefix", func(t *testing.T) {
		if _, ok := parseBoundsPath("/tiles/z5_x1_y2"); ok {
			t.Fatalf("expected not ok")
		}
	})
}

func TestIndices_Geospatial(t *testing.T) {
	h := NewAPI(Config{}, nil).Handler()

	rec := get(t, h, "/indices?lon=180&lat=0&zoom=2.4&width=512&height=512")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	var body indicesBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))

	assert.Equal(t, "geospatial", body.Model)
	require.NotNil(t, body.Zoom)
	assert.Equal(t, 3, *body.Zoom)
	assert.Equal(t, len(body.Tiles), body.Count)
	require.NotEmpty(t, body.Tiles)

	seen := map[[2]int]bool{}
	for _, tl := range body.Tiles {
		assert.Equal(t, 3, tl.Z)
		assert.True(t, tl.X >= 0 && tl.X < 8)
		assert.False(t, seen[[2]int{tl.X, tl.Y}], "duplicate tile %d/%d", tl.X, tl.Y)
		seen[[2]int{tl.X, tl.Y}] = true
		assert.Contains(t, tl.Bounds, "west")
		assert.Nil(t, tl.Stored)
	}
}

func TestIndices_BelowMinZoom(t *testing.T) {
	h := NewAPI(Config{}, nil).Handler()

	rec := get(t, h, "/indices?lon=0&lat=0&zoom=1.5&width=256&height=256&minzoom=3&maxzoom=10")
	require.Equal(t, http.StatusOK, rec.Code)

	var body indicesBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Nil(t, body.Zoom)
	assert.Equal(t, 0, body.Count)
	assert.NotNil(t, body.Tiles)
}

func TestIndices_Identity(t *testing.T) {
	h := NewAPI(Config{}, nil).Handler()

	rec := get(t, h, "/indices?mode=identity&x=0&y=0&zoom=0&width=1024&height=512")
	require.Equal(t, http.StatusOK, rec.Code)

	var body indicesBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "identity", body.Model)
	require.Equal(t, 4, body.Count)
	assert.Equal(t, -1, body.Tiles[0].X)
	assert.Equal(t, -1, body.Tiles[0].Y)
	assert.Equal(t, map[string]float64{"left": -512, "top": -512, "right": 0, "bottom": 0}, body.Tiles[0].Bounds)
}

func TestIndices_BadRequests(t *testing.T) {
	h := NewAPI(Config{}, nil).Handler()

	tests := []struct {
		name   string
		target string
	}{
		{"missing size", "/indices?lon=0&lat=0&zoom=1"},
		{"bad number", "/indices?lon=abc&lat=0&zoom=1&width=10&height=10"},
		{"bad mode", "/indices?mode=polar&zoom=1&width=10&height=10"},
		{"bad maxzoom", "/indices?zoom=1&width=10&height=10&maxzoom=x"},
		{"huge screen", "/indices?zoom=1&width=100000&height=10"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, h, tt.target)
			assert.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		})
	}
}

func TestIndices_MaxTiles(t *testing.T) {
	h := NewAPI(Config{MaxTiles: 2}, nil).Handler()

	rec := get(t, h, "/indices?mode=identity&zoom=0&width=1024&height=512")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Contains(t, rec.Body.String(), "limit is 2")
}

func openTileset(t *testing.T) *mbtiles.Reader {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "world.mbtiles")
	db, err := sql.Open("sqlite", dbPath)
	require.NoError(t, err)
	_, err = db.Exec(`
		CREATE TABLE metadata (name TEXT NOT NULL, value TEXT);
		CREATE TABLE tiles (zoom_level INTEGER, tile_column INTEGER, tile_row INTEGER, tile_data BLOB);
		INSERT INTO metadata VALUES ('minzoom', '0'), ('maxzoom', '1');
		INSERT INTO tiles VALUES (1, 0, 1, x'00');
	`)
	require.NoError(t, err)
	require.NoError(t, db.Close())

	reader, err := mbtiles.OpenReader(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { reader.Close() })
	return reader
}

func TestIndices_Tileset(t *testing.T) {
	reader := openTileset(t)

	h := NewAPI(Config{Tileset: reader, CacheControl: "max-age=60"}, nil).Handler()

	// zoom 5 is clamped to the tileset maxzoom
	rec := get(t, h, "/indices?lon=0&lat=0&zoom=5&width=2048&height=2048")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "max-age=60", rec.Header().Get("Cache-Control"))

	var body indicesBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Zoom)
	assert.Equal(t, 1, *body.Zoom)

	stored := 0
	for _, tl := range body.Tiles {
		require.NotNil(t, tl.Stored)
		if *tl.Stored {
			stored++
			assert.Equal(t, 0, tl.X)
			assert.Equal(t, 0, tl.Y)
		}
	}
	assert.Equal(t, 1, stored)
}

func TestIndices_TilesetIdentityHasNoStoredFlags(t *testing.T) {
	h := NewAPI(Config{Tileset: openTileset(t)}, nil).Handler()

	rec := get(t, h, "/indices?mode=identity&x=256&y=256&zoom=1&width=256&height=256")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var body indicesBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotEmpty(t, body.Tiles)
	for _, tl := range body.Tiles {
		assert.Nil(t, tl.Stored, "identity tile %d/%d/%d", tl.Z, tl.X, tl.Y)
	}
}

func TestIndices_NegativeZoomReportsResolvedLevel(t *testing.T) {
	h := NewAPI(Config{}, nil).Handler()

	rec := get(t, h, "/indices?lon=0&lat=0&zoom=-2.5&width=256&height=256")
	require.Equal(t, http.StatusOK, rec.Code)

	var body indicesBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Zoom)
	assert.Equal(t, 0, *body.Zoom)
	require.Equal(t, 1, body.Count)
	assert.Equal(t, *body.Zoom, body.Tiles[0].Z)
}

func TestIndices_HugeZoomClamped(t *testing.T) {
	h := NewAPI(Config{}, nil).Handler()

	rec := get(t, h, "/indices?lon=9.7&lat=52.3&zoom=1e19&width=256&height=256&maxzoom=10&minzoom=3")
	require.Equal(t, http.StatusOK, rec.Code)

	var body indicesBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.NotNil(t, body.Zoom)
	assert.Equal(t, 10, *body.Zoom)
	require.NotEmpty(t, body.Tiles)
	for _, tl := range body.Tiles {
		assert.Equal(t, 10, tl.Z)
	}
}

func TestBounds(t *testing.T) {
	h := NewAPI(Config{}, nil).Handler()

	rec := get(t, h, "/bounds/z1_x0_y0")
	require.Equal(t, http.StatusOK, rec.Code)
	var geo tile.GeoBounds
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &geo))
	assert.Equal(t, -180.0, geo.West)
	assert.Equal(t, 0.0, geo.East)
	assert.Equal(t, 0.0, geo.South)
	assert.InDelta(t, 85.0511, geo.North, 1e-4)

	rec = get(t, h, "/bounds/z0_x-3_y-2?mode=identity")
	require.Equal(t, http.StatusOK, rec.Code)
	var world tile.WorldBounds
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &world))
	assert.Equal(t, tile.WorldBounds{Left: -1536, Top: -1024, Right: -1024, Bottom: -512}, world)

	assert.Equal(t, http.StatusNotFound, get(t, h, "/bounds/nope").Code)
}

func TestHealthAndMetrics(t *testing.T) {
	h := NewAPI(Config{}, nil).Handler()

	rec := get(t, h, "/healthz")
	assert.Equal(t, "ok", rec.Body.String())

	get(t, h, "/indices?mode=identity&zoom=0&width=10&height=10")

	rec = get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), `tileindex_http_requests_total{endpoint="indices",status="200"} 1`), string(body))
	assert.Contains(t, string(body), "tileindex_resolver_tiles_per_viewport")
}

func TestCORSPreflight(t *testing.T) {
	h := NewAPI(Config{}, nil).Handler()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/indices", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
}
