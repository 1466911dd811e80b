package geometry

import (
	"testing"

	"github.com/ctessum/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvexHull(t *testing.T) {
	// Four corners plus an interior point; hull is the unit square.
	pts := []geom.Point{
		{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1},
		{X: 0.5, Y: 0.5},
	}
	hull, err := ConvexHull(pts)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hull.Area(), 1e-9)

	for _, p := range pts {
		assert.NotEqual(t, geom.Outside, p.Within(hull), "hull must cover %v", p)
	}
	assert.Equal(t, geom.Outside, geom.Point{X: 2, Y: 2}.Within(hull))
}

func TestConvexHullConcaveInput(t *testing.T) {
	// L-shaped cloud; the notch point must end up inside the hull.
	pts := []geom.Point{
		{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 1}, {X: 1, Y: 1},
		{X: 1, Y: 2}, {X: 0, Y: 2},
	}
	hull, err := ConvexHull(pts)
	require.NoError(t, err)
	assert.NotEqual(t, geom.Outside, geom.Point{X: 1.4, Y: 1.4}.Within(hull))
}

func TestConvexHullDegenerateFallsBackToBounds(t *testing.T) {
	// Two opposite corners: a segment as hull would cover nothing, so the
	// bounding rectangle stands in.
	hull, err := ConvexHull([]geom.Point{{X: 0, Y: 0}, {X: 1, Y: 1}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, hull.Area(), 1e-9)
	assert.NotEqual(t, geom.Outside, geom.Point{X: 0.5, Y: 0.5}.Within(hull))
}

func TestConvexHullCollinear(t *testing.T) {
	hull, err := ConvexHull([]geom.Point{
		{X: 0, Y: 0}, {X: 1, Y: 1}, {X: 2, Y: 2},
	})
	require.NoError(t, err)
	assert.NotEqual(t, geom.Outside, geom.Point{X: 1, Y: 1}.Within(hull))
}

func TestConvexHullEmpty(t *testing.T) {
	_, err := ConvexHull(nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zero points")
}

func TestConvexHullDuplicatePoints(t *testing.T) {
	hull, err := ConvexHull([]geom.Point{
		{X: 0, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 0},
		{X: 0.5, Y: 1}, {X: 0.5, Y: 1},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, hull.Area(), 1e-9)
}
