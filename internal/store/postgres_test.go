package store

import (
	"context"
	"testing"

	"github.com/ctessum/geom"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/parcelgeo/internal/layer"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })
	return &PostgresStore{pool: mock}, mock
}

func testPolygonLayer() *layer.PolygonLayer {
	return &layer.PolygonLayer{
		Name: "tract_fragments",
		CRS:  "EPSG:4326",
		Features: []layer.Feature{
			{
				ID: "17031000100/77011",
				Geom: geom.Polygon{{
					{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
				}},
				Attrs: layer.Attrs{"GEOID10": "17031000100"},
			},
		},
	}
}

func TestPostgresMigrate(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS polygon_layers`).
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, s.Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSavePolygonLayer(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`DELETE FROM polygon_layers WHERE layer_name = \$1`).
		WithArgs("tract_fragments").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"polygon_layers"},
		[]string{"layer_name", "feature_id", "attrs", "srid", "geom"}).
		WillReturnResult(1)

	require.NoError(t, s.SavePolygonLayer(context.Background(), testPolygonLayer()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSavePolygonLayerEncodeFailureSkipsWrites(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	l := testPolygonLayer()
	l.Features[0].Geom = nil

	err := s.SavePolygonLayer(context.Background(), l)
	require.Error(t, err)
	// Encoding fails before any SQL runs.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresSavePointSet(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	ps := &layer.PointSet{
		Name: "parcels",
		CRS:  "EPSG:4326",
		Points: []layer.Point{
			{ID: "100", XY: geom.Point{X: -87.63, Y: 41.88}, Attrs: layer.Attrs{"township": "Jefferson"}},
		},
		Flags: map[string][]bool{"ohare_noise": {true}},
	}

	mock.ExpectExec(`DELETE FROM point_sets WHERE set_name = \$1`).
		WithArgs("parcels").
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"point_sets"},
		[]string{"set_name", "point_id", "attrs", "flags", "srid", "geom"}).
		WillReturnResult(1)

	require.NoError(t, s.SavePointSet(context.Background(), ps))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSridFromCRS(t *testing.T) {
	assert.Equal(t, 4326, sridFromCRS("EPSG:4326"))
	assert.Equal(t, 3435, sridFromCRS("epsg:3435"))
	assert.Equal(t, 0, sridFromCRS("+proj=longlat +datum=WGS84"))
	assert.Equal(t, 0, sridFromCRS("EPSG:abc"))
}
