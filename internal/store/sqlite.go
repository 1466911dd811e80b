package store

import (
	"context"
	"database/sql"
	"encoding/json"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/opencivic/parcelgeo/internal/geometry"
	"github.com/opencivic/parcelgeo/internal/layer"
)

// SQLiteStore implements Store using modernc.org/sqlite. Geometry is stored
// as GeoJSON text, which keeps the local database inspectable with plain
// SQL.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL
// mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS polygon_layers (
	layer_name TEXT NOT NULL,
	feature_id TEXT NOT NULL,
	attrs      TEXT NOT NULL,
	crs        TEXT NOT NULL,
	geom       TEXT NOT NULL,
	PRIMARY KEY (layer_name, feature_id)
);

CREATE TABLE IF NOT EXISTS point_sets (
	set_name TEXT NOT NULL,
	point_id TEXT NOT NULL,
	attrs    TEXT NOT NULL,
	flags    TEXT NOT NULL,
	crs      TEXT NOT NULL,
	geom     TEXT NOT NULL,
	PRIMARY KEY (set_name, point_id)
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// SavePolygonLayer replaces the stored layer of the same name.
func (s *SQLiteStore) SavePolygonLayer(ctx context.Context, l *layer.PolygonLayer) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM polygon_layers WHERE layer_name = ?`, l.Name); err != nil {
		return eris.Wrapf(err, "sqlite: clear layer %s", l.Name)
	}

	for _, f := range l.Features {
		mp, err := geometry.ToMultiPolygon(f.Geom)
		if err != nil {
			return eris.Wrapf(err, "sqlite: layer %s feature %s", l.Name, f.ID)
		}
		geomJSON, err := geojson.Marshal(mp)
		if err != nil {
			return eris.Wrapf(err, "sqlite: encode feature %s", f.ID)
		}
		attrs, err := json.Marshal(f.Attrs)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal attrs of %s", f.ID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO polygon_layers (layer_name, feature_id, attrs, crs, geom) VALUES (?, ?, ?, ?, ?)`,
			l.Name, f.ID, string(attrs), l.CRS, string(geomJSON))
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert feature %s", f.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrapf(err, "sqlite: commit layer %s", l.Name)
	}
	zap.L().With(zap.String("component", "store.sqlite")).Info("saved polygon layer",
		zap.String("layer", l.Name), zap.Int("features", len(l.Features)))
	return nil
}

// SavePointSet replaces the stored point set of the same name.
func (s *SQLiteStore) SavePointSet(ctx context.Context, ps *layer.PointSet) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, `DELETE FROM point_sets WHERE set_name = ?`, ps.Name); err != nil {
		return eris.Wrapf(err, "sqlite: clear point set %s", ps.Name)
	}

	for i, p := range ps.Points {
		pt, err := geometry.ToPoint(p.XY)
		if err != nil {
			return eris.Wrapf(err, "sqlite: point %s", p.ID)
		}
		geomJSON, err := geojson.Marshal(pt)
		if err != nil {
			return eris.Wrapf(err, "sqlite: encode point %s", p.ID)
		}
		attrs, err := json.Marshal(p.Attrs)
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal attrs of %s", p.ID)
		}
		flags, err := json.Marshal(pointFlags(ps, i))
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal flags of %s", p.ID)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO point_sets (set_name, point_id, attrs, flags, crs, geom) VALUES (?, ?, ?, ?, ?, ?)`,
			ps.Name, p.ID, string(attrs), string(flags), ps.CRS, string(geomJSON))
		if err != nil {
			return eris.Wrapf(err, "sqlite: insert point %s", p.ID)
		}
	}

	if err := tx.Commit(); err != nil {
		return eris.Wrapf(err, "sqlite: commit point set %s", ps.Name)
	}
	zap.L().With(zap.String("component", "store.sqlite")).Info("saved point set",
		zap.String("set", ps.Name), zap.Int("points", len(ps.Points)))
	return nil
}
