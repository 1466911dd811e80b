// Package store persists enriched layers to a database: tract fragments from
// the overlay engine and parcel point sets with their derived flag columns.
// Two backends exist, PostGIS for shared infrastructure and SQLite for local
// runs.
package store

import (
	"context"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/opencivic/parcelgeo/internal/config"
	"github.com/opencivic/parcelgeo/internal/layer"
)

// Store is the persistence interface for enriched layers. Saving a layer
// replaces any previously stored layer of the same name.
type Store interface {
	SavePolygonLayer(ctx context.Context, l *layer.PolygonLayer) error
	SavePointSet(ctx context.Context, ps *layer.PointSet) error

	Migrate(ctx context.Context) error
	Close() error
}

// New builds a store from config. Driver "none" returns nil: persistence is
// optional and the commands skip a nil store.
func New(ctx context.Context, cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case "none":
		return nil, nil
	case "sqlite":
		return NewSQLite(cfg.SQLitePath)
	case "postgres":
		return NewPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, eris.Errorf("store: unknown driver %q", cfg.Driver)
	}
}

// sridFromCRS extracts the numeric SRID from an "EPSG:nnnn" tag. Raw proj4
// CRS strings have no SRID; those store as 0.
func sridFromCRS(crs string) int {
	if !strings.HasPrefix(strings.ToUpper(crs), "EPSG:") {
		return 0
	}
	n, err := strconv.Atoi(crs[len("EPSG:"):])
	if err != nil {
		return 0
	}
	return n
}
