package mbtiles

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/MeKo-Tech/tileindex/internal/tile"
	_ "modernc.org/sqlite" // SQLite driver
)

// Reader reads an MBTiles database.
type Reader struct {
	db   *sql.DB
	path string
}

// OpenReader opens an MBTiles database for reading.
func OpenReader(path string) (*Reader, error) {
	// Open in read-only mode with immutable flag
	db, err := sql.Open("sqlite", path+"?mode=ro&immutable=1")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify schema exists
	var count int
	err = db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type IN ('table', 'view') AND name='tiles'").Scan(&count)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to verify schema: %w", err)
	}
	if count == 0 {
		db.Close()
		return nil, fmt.Errorf("database does not contain tiles table")
	}

	return &Reader{
		db:   db,
		path: path,
	}, nil
}

// Path returns the database file path.
func (r *Reader) Path() string {
	return r.path
}

// HasTile reports whether the tileset stores the given XYZ tile.
// Coordinates are converted to TMS internally.
func (r *Reader) HasTile(i tile.Index) (bool, error) {
	if i.Z < 0 || i.Z > 30 {
		return false, nil
	}
	n := i.Normalize()
	tmsY := (1 << n.Z) - 1 - n.Y

	var one int
	err := r.db.QueryRow(
		"SELECT 1 FROM tiles WHERE zoom_level=? AND tile_column=? AND tile_row=? LIMIT 1",
		n.Z, n.X, tmsY,
	).Scan(&one)

	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query tile %s: %w", i, err)
	}
	return true, nil
}

// Missing returns the indices the tileset does not store, in input order.
func (r *Reader) Missing(indices []tile.Index) ([]tile.Index, error) {
	var missing []tile.Index
	for _, i := range indices {
		ok, err := r.HasTile(i)
		if err != nil {
			return nil, err
		}
		if !ok {
			missing = append(missing, i)
		}
	}
	return missing, nil
}

// ZoomLimits returns the (maxZoom, minZoom) pair declared by the tileset
// metadata, in the argument order of tile.ResolveIndices. Missing keys
// leave the corresponding side unrestricted.
func (r *Reader) ZoomLimits() (maxZoom, minZoom tile.ZoomLimit, err error) {
	meta, err := r.Metadata()
	if err != nil {
		return tile.NoLimit, tile.NoLimit, err
	}
	return meta.MaxZoom, meta.MinZoom, nil
}

// Metadata reads the name/value metadata table. Unparseable numeric values
// are left at their zero value.
func (r *Reader) Metadata() (Metadata, error) {
	rows, err := r.db.Query("SELECT name, value FROM metadata")
	if err != nil {
		return Metadata{}, fmt.Errorf("failed to query metadata: %w", err)
	}
	defer rows.Close()

	var meta Metadata
	for rows.Next() {
		var name string
		var value sql.NullString
		if err := rows.Scan(&name, &value); err != nil {
			return Metadata{}, fmt.Errorf("failed to scan metadata row: %w", err)
		}

		switch v := value.String; name {
		case "name":
			meta.Name = v
		case "format":
			meta.Format = v
		case "attribution":
			meta.Attribution = v
		case "description":
			meta.Description = v
		case "type":
			meta.Type = v
		case "version":
			meta.Version = v
		case "minzoom":
			meta.MinZoom = parseZoom(v)
		case "maxzoom":
			meta.MaxZoom = parseZoom(v)
		case "bounds":
			parseList(v, meta.Bounds[:])
		case "center":
			parseList(v, meta.Center[:])
		}
	}
	if err := rows.Err(); err != nil {
		return Metadata{}, fmt.Errorf("failed to read metadata: %w", err)
	}
	return meta, nil
}

// Close closes the database connection.
func (r *Reader) Close() error {
	if err := r.db.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}
	return nil
}

func parseZoom(v string) tile.ZoomLimit {
	z, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return tile.NoLimit
	}
	return tile.Limit(z)
}

// parseList fills dst from a comma separated list of exactly len(dst) numbers.
func parseList(v string, dst []float64) {
	parts := strings.Split(v, ",")
	if len(parts) != len(dst) {
		return
	}
	for i, part := range parts {
		if f, err := strconv.ParseFloat(strings.TrimSpace(part), 64); err == nil {
			dst[i] = f
		}
	}
}
