package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.uber.org/zap"

	"github.com/opencivic/parcelgeo/internal/db"
	"github.com/opencivic/parcelgeo/internal/geometry"
	"github.com/opencivic/parcelgeo/internal/layer"
)

// PostgresStore implements Store on a pgx pool. Geometry is stored as EWKB,
// attributes and flags as JSONB.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}
	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS polygon_layers (
	layer_name TEXT  NOT NULL,
	feature_id TEXT  NOT NULL,
	attrs      JSONB NOT NULL,
	srid       INT   NOT NULL,
	geom       BYTEA NOT NULL,
	saved_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (layer_name, feature_id)
);

CREATE TABLE IF NOT EXISTS point_sets (
	set_name TEXT  NOT NULL,
	point_id TEXT  NOT NULL,
	attrs    JSONB NOT NULL,
	flags    JSONB NOT NULL,
	srid     INT   NOT NULL,
	geom     BYTEA NOT NULL,
	saved_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (set_name, point_id)
);

CREATE INDEX IF NOT EXISTS idx_polygon_layers_name ON polygon_layers(layer_name);
CREATE INDEX IF NOT EXISTS idx_point_sets_name ON point_sets(set_name);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// SavePolygonLayer replaces the stored layer of the same name.
func (s *PostgresStore) SavePolygonLayer(ctx context.Context, l *layer.PolygonLayer) error {
	srid := sridFromCRS(l.CRS)

	rows := make([][]any, 0, len(l.Features))
	for _, f := range l.Features {
		mp, err := geometry.ToMultiPolygon(f.Geom)
		if err != nil {
			return eris.Wrapf(err, "postgres: layer %s feature %s", l.Name, f.ID)
		}
		wkb, err := ewkb.Marshal(mp.SetSRID(srid), ewkb.NDR)
		if err != nil {
			return eris.Wrapf(err, "postgres: encode feature %s", f.ID)
		}
		attrs, err := json.Marshal(f.Attrs)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal attrs of %s", f.ID)
		}
		rows = append(rows, []any{l.Name, f.ID, attrs, srid, wkb})
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM polygon_layers WHERE layer_name = $1`, l.Name); err != nil {
		return eris.Wrapf(err, "postgres: clear layer %s", l.Name)
	}
	n, err := db.CopyFrom(ctx, s.pool, "polygon_layers",
		[]string{"layer_name", "feature_id", "attrs", "srid", "geom"}, rows)
	if err != nil {
		return eris.Wrapf(err, "postgres: save layer %s", l.Name)
	}

	zap.L().With(zap.String("component", "store.postgres")).Info("saved polygon layer",
		zap.String("layer", l.Name), zap.Int64("features", n))
	return nil
}

// SavePointSet replaces the stored point set of the same name.
func (s *PostgresStore) SavePointSet(ctx context.Context, ps *layer.PointSet) error {
	srid := sridFromCRS(ps.CRS)

	rows := make([][]any, 0, len(ps.Points))
	for i, p := range ps.Points {
		pt, err := geometry.ToPoint(p.XY)
		if err != nil {
			return eris.Wrapf(err, "postgres: point %s", p.ID)
		}
		wkb, err := ewkb.Marshal(pt.SetSRID(srid), ewkb.NDR)
		if err != nil {
			return eris.Wrapf(err, "postgres: encode point %s", p.ID)
		}
		attrs, err := json.Marshal(p.Attrs)
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal attrs of %s", p.ID)
		}
		flags, err := json.Marshal(pointFlags(ps, i))
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal flags of %s", p.ID)
		}
		rows = append(rows, []any{ps.Name, p.ID, attrs, flags, srid, wkb})
	}

	if _, err := s.pool.Exec(ctx, `DELETE FROM point_sets WHERE set_name = $1`, ps.Name); err != nil {
		return eris.Wrapf(err, "postgres: clear point set %s", ps.Name)
	}
	n, err := db.CopyFrom(ctx, s.pool, "point_sets",
		[]string{"set_name", "point_id", "attrs", "flags", "srid", "geom"}, rows)
	if err != nil {
		return eris.Wrapf(err, "postgres: save point set %s", ps.Name)
	}

	zap.L().With(zap.String("component", "store.postgres")).Info("saved point set",
		zap.String("set", ps.Name), zap.Int64("points", n))
	return nil
}

// pointFlags gathers the i-th value of every flag column.
func pointFlags(ps *layer.PointSet, i int) map[string]bool {
	out := make(map[string]bool, len(ps.Flags))
	for name, col := range ps.Flags {
		if i < len(col) {
			out[name] = col[i]
		}
	}
	return out
}
