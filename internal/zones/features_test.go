package zones

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/parcelgeo/internal/layer"
)

func TestFloodFeatures(t *testing.T) {
	fema := &layer.PolygonLayer{
		Name: "fema",
		CRS:  "EPSG:4326",
		Features: []layer.Feature{
			{ID: "fh", Geom: square(0, 0, 1, 1), Attrs: layer.Attrs{"ZONE_SUBTY": ZoneSubtype500Year}},
			{ID: "fw", Geom: square(2, 0, 3, 1), Attrs: layer.Attrs{"ZONE_SUBTY": ZoneSubtypeFloodway}},
			{ID: "other", Geom: square(4, 0, 5, 1), Attrs: layer.Attrs{"ZONE_SUBTY": "AE"}},
		},
	}
	ps := points("EPSG:4326",
		geom.Point{X: 0.5, Y: 0.5}, // 500-year zone
		geom.Point{X: 2.5, Y: 0.5}, // floodway
		geom.Point{X: 4.5, Y: 0.5}, // unfiltered subtype
		geom.Point{X: 9, Y: 9},     // nowhere
	)

	out, err := FloodFeatures(ps, fema)
	require.NoError(t, err)

	flood, err := out.Flag(ColFlood500Year)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false, false}, flood)

	floodway, err := out.Flag(ColFloodway)
	require.NoError(t, err)
	assert.Equal(t, []bool{false, true, false, false}, floodway)
}

func TestInterstateProximity(t *testing.T) {
	// Everything in the same projected CRS so the buffer math is direct.
	streets := &layer.LineLayer{
		Name: "streets",
		CRS:  "EPSG:3435",
		Features: []layer.LineFeature{
			{
				ID:    "i90",
				Lines: []geom.LineString{{{X: 0, Y: 0}, {X: 10000, Y: 0}}},
				Attrs: layer.Attrs{"HWYTYPE": HighwayInterstate},
			},
			{
				ID:    "local",
				Lines: []geom.LineString{{{X: 0, Y: 50000}, {X: 10000, Y: 50000}}},
				Attrs: layer.Attrs{"HWYTYPE": "LOCAL"},
			},
		},
	}
	ps := points("EPSG:3435",
		geom.Point{X: 5000, Y: 500},   // 500 ft from I-90
		geom.Point{X: 5000, Y: 2000},  // beyond the quarter mile
		geom.Point{X: 5000, Y: 50100}, // near the local road only
	)

	out, err := InterstateProximity(ps, streets, 1320, "EPSG:3435")
	require.NoError(t, err)

	got, err := out.Flag(ColNearInterstate)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, false}, got)
}

func TestInterstateProximityNoInterstates(t *testing.T) {
	streets := &layer.LineLayer{
		Name: "streets",
		CRS:  "EPSG:3435",
		Features: []layer.LineFeature{
			{ID: "local", Lines: []geom.LineString{{{X: 0, Y: 0}, {X: 1, Y: 0}}}, Attrs: layer.Attrs{"HWYTYPE": "LOCAL"}},
		},
	}
	ps := points("EPSG:3435", geom.Point{X: 0, Y: 0})

	out, err := InterstateProximity(ps, streets, 1320, "EPSG:3435")
	require.NoError(t, err)

	got, err := out.Flag(ColNearInterstate)
	require.NoError(t, err)
	assert.Equal(t, []bool{false}, got)
}

func TestOhareNoise(t *testing.T) {
	// Contour covers the west half; hull closure pulls in the point between
	// the two tagged clusters.
	contour := &layer.PolygonLayer{
		Name: "noise",
		CRS:  "EPSG:4326",
		Features: []layer.Feature{
			{ID: "west", Geom: square(0, 0, 1, 3)},
			{ID: "east", Geom: square(3, 0, 4, 3)},
		},
	}
	ps := points("EPSG:4326",
		geom.Point{X: 0.5, Y: 0.5},  // west contour
		geom.Point{X: 0.5, Y: 2.5},  // west contour
		geom.Point{X: 3.5, Y: 0.5},  // east contour
		geom.Point{X: 3.5, Y: 2.5},  // east contour
		geom.Point{X: 2, Y: 1.5},    // in the gap, inside the hull
		geom.Point{X: 2, Y: 10},     // outside everything
	)

	out, err := OhareNoise(ps, contour)
	require.NoError(t, err)

	got, err := out.Flag(ColOhareNoise)
	require.NoError(t, err)
	assert.Equal(t, []bool{true, true, true, true, true, false}, got)
}

func TestOhareNoiseEmptyContourFails(t *testing.T) {
	ps := points("EPSG:4326", geom.Point{X: 0, Y: 0})
	empty := &layer.PolygonLayer{Name: "noise", CRS: "EPSG:4326"}

	_, err := OhareNoise(ps, empty)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no points are labeled true")
}
