package geofile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/parcelgeo/internal/layer"
)

func square(x0, y0, x1, y1 float64) geom.Polygon {
	return geom.Polygon{{
		{X: x0, Y: y0}, {X: x1, Y: y0}, {X: x1, Y: y1}, {X: x0, Y: y1},
	}}
}

func TestPolygonLayerRoundTrip(t *testing.T) {
	l := &layer.PolygonLayer{
		Name: "tract_fragments",
		CRS:  "EPSG:4326",
		Features: []layer.Feature{
			{ID: "a/1", Geom: square(0, 0, 1, 1), Attrs: layer.Attrs{"GEOID10": "a", "town_nbhd": "1"}},
			{ID: "b/1", Geom: square(1, 0, 3, 2), Attrs: layer.Attrs{"GEOID10": "b"}},
		},
	}
	path := filepath.Join(t.TempDir(), "fragments.geo.gz")

	require.NoError(t, WritePolygonLayer(path, l))

	got, err := ReadPolygonLayer(path)
	require.NoError(t, err)
	assert.Equal(t, l.Name, got.Name)
	assert.Equal(t, l.CRS, got.CRS)
	require.Len(t, got.Features, 2)
	assert.Equal(t, "a/1", got.Features[0].ID)
	assert.Equal(t, "1", got.Features[0].Attrs["town_nbhd"])
	// Column pivoting must not invent values for the sparse attribute.
	assert.NotContains(t, got.Features[1].Attrs, "town_nbhd")
	assert.InDelta(t, 1.0, got.Features[0].Geom.Area(), 1e-9)
	assert.InDelta(t, 4.0, got.Features[1].Geom.Area(), 1e-9)
}

func TestPointSetRoundTrip(t *testing.T) {
	ps := &layer.PointSet{
		Name: "parcels",
		CRS:  "EPSG:4326",
		Points: []layer.Point{
			{ID: "100", XY: geom.Point{X: -87.63, Y: 41.88}, Attrs: layer.Attrs{"township": "Jefferson"}},
			{ID: "200", XY: geom.Point{X: -87.70, Y: 42.01}},
		},
		Flags: map[string][]bool{"ohare_noise": {true, false}},
	}
	path := filepath.Join(t.TempDir(), "parcels.geo.gz")

	require.NoError(t, WritePointSet(path, ps))

	got, err := ReadPointSet(path)
	require.NoError(t, err)
	require.Len(t, got.Points, 2)
	assert.Equal(t, -87.63, got.Points[0].XY.X)
	assert.Equal(t, 41.88, got.Points[0].XY.Y)
	assert.Equal(t, "Jefferson", got.Points[0].Attrs["township"])
	assert.Equal(t, []bool{true, false}, got.Flags["ohare_noise"])
}

func TestRoundTripKeepsEmptyAttrValues(t *testing.T) {
	// A present-but-empty attribute is not the same as an absent one; the
	// column format must preserve the distinction.
	l := &layer.PolygonLayer{
		Name: "tracts",
		CRS:  "EPSG:4326",
		Features: []layer.Feature{
			{ID: "a", Geom: square(0, 0, 1, 1), Attrs: layer.Attrs{"NAME10": ""}},
			{ID: "b", Geom: square(1, 0, 2, 1), Attrs: layer.Attrs{}},
		},
	}
	path := filepath.Join(t.TempDir(), "tracts.geo.gz")
	require.NoError(t, WritePolygonLayer(path, l))

	got, err := ReadPolygonLayer(path)
	require.NoError(t, err)
	require.Len(t, got.Features, 2)
	assert.Contains(t, got.Features[0].Attrs, "NAME10")
	assert.Equal(t, "", got.Features[0].Attrs["NAME10"])
	assert.NotContains(t, got.Features[1].Attrs, "NAME10")
}

func TestWriteFailureLeavesNothingBehind(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.geo.gz")
	l := &layer.PolygonLayer{
		Name:     "bad",
		CRS:      "EPSG:4326",
		Features: []layer.Feature{{ID: "x", Geom: nil}},
	}

	err := WritePolygonLayer(path, l)
	require.Error(t, err)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "no partial or temp file may remain")
}

func TestReadWrongKind(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pts.geo.gz")
	ps := &layer.PointSet{
		Name:   "parcels",
		CRS:    "EPSG:4326",
		Points: []layer.Point{{ID: "1", XY: geom.Point{X: 0, Y: 0}}},
		Flags:  map[string][]bool{},
	}
	require.NoError(t, WritePointSet(path, ps))

	_, err := ReadPolygonLayer(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "want polygon")
}

func TestReadMissingFile(t *testing.T) {
	_, err := ReadPointSet(filepath.Join(t.TempDir(), "absent.geo.gz"))
	require.Error(t, err)
}
