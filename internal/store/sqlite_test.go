package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/parcelgeo/internal/config"
	"github.com/opencivic/parcelgeo/internal/layer"
)

func newTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func TestSQLiteSavePolygonLayer(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.SavePolygonLayer(ctx, testPolygonLayer()))

	var count int
	row := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM polygon_layers WHERE layer_name = ?`, "tract_fragments")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)

	var attrs, crs, geomJSON string
	row = s.db.QueryRowContext(ctx,
		`SELECT attrs, crs, geom FROM polygon_layers WHERE feature_id = ?`, "17031000100/77011")
	require.NoError(t, row.Scan(&attrs, &crs, &geomJSON))
	assert.Contains(t, attrs, "17031000100")
	assert.Equal(t, "EPSG:4326", crs)
	assert.Contains(t, geomJSON, "MultiPolygon")
}

func TestSQLiteSaveReplacesLayer(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	l := testPolygonLayer()
	require.NoError(t, s.SavePolygonLayer(ctx, l))

	// Save again with one feature renamed; old rows must be gone.
	l.Features[0].ID = "renamed"
	require.NoError(t, s.SavePolygonLayer(ctx, l))

	var count int
	row := s.db.QueryRowContext(ctx,
		`SELECT count(*) FROM polygon_layers WHERE layer_name = ?`, "tract_fragments")
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 1, count)
}

func TestSQLiteSavePointSet(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	ps := &layer.PointSet{
		Name: "parcels",
		CRS:  "EPSG:4326",
		Points: []layer.Point{
			{ID: "100", XY: geom.Point{X: -87.63, Y: 41.88}},
			{ID: "200", XY: geom.Point{X: -87.70, Y: 42.01}},
		},
		Flags: map[string][]bool{"fema_floodway": {true, false}},
	}
	require.NoError(t, s.SavePointSet(ctx, ps))

	var flags string
	row := s.db.QueryRowContext(ctx,
		`SELECT flags FROM point_sets WHERE point_id = ?`, "100")
	require.NoError(t, row.Scan(&flags))
	assert.Contains(t, flags, `"fema_floodway":true`)
}

func TestSQLiteSaveBadGeometryRollsBack(t *testing.T) {
	s := newTestSQLite(t)
	ctx := context.Background()

	l := testPolygonLayer()
	l.Features = append(l.Features, layer.Feature{ID: "broken", Geom: nil})

	require.Error(t, s.SavePolygonLayer(ctx, l))

	var count int
	row := s.db.QueryRowContext(ctx, `SELECT count(*) FROM polygon_layers`)
	require.NoError(t, row.Scan(&count))
	assert.Equal(t, 0, count, "failed save must not leave partial rows")
}

func TestNewStoreDispatch(t *testing.T) {
	ctx := context.Background()

	s, err := New(ctx, config.StoreConfig{Driver: "none"})
	require.NoError(t, err)
	assert.Nil(t, s)

	s, err = New(ctx, config.StoreConfig{
		Driver:     "sqlite",
		SQLitePath: filepath.Join(t.TempDir(), "x.db"),
	})
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.NoError(t, s.Close())

	_, err = New(ctx, config.StoreConfig{Driver: "mystery"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown driver")
}
