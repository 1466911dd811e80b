// Package zones derives boolean zone-membership columns for parcel point
// sets: FEMA flood zones, interstate proximity, and airport noise contours
// with convex-hull closure.
package zones

import (
	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/opencivic/parcelgeo/internal/geometry"
	"github.com/opencivic/parcelgeo/internal/layer"
)

// TagMembership returns a copy of ps with a boolean column marking the points
// that fall inside any polygon of the zone layer. Points on a zone edge count
// as inside. An empty zone layer yields an all-false column, not an error.
func TagMembership(ps *layer.PointSet, zones *layer.PolygonLayer, column string) (*layer.PointSet, error) {
	if ps.CRS != zones.CRS {
		return nil, eris.Errorf("zones: CRS mismatch: points %q is %q but zone layer %q is %q",
			ps.Name, ps.CRS, zones.Name, zones.CRS)
	}

	vals := make([]bool, len(ps.Points))
	if len(zones.Features) > 0 {
		ix := layer.NewIndex(zones)
		for i, p := range ps.Points {
			hits, err := ix.Containing(p.XY, ps.CRS)
			if err != nil {
				return nil, err
			}
			vals[i] = len(hits) > 0
		}
	}

	zap.L().With(zap.String("component", "zones")).Debug("tagged membership",
		zap.String("column", column),
		zap.Int("points", len(ps.Points)),
		zap.Int("inside", countTrue(vals)))
	return ps.WithFlag(column, vals)
}

// ExtendWithinHull returns a copy of ps where the named boolean column is
// additionally true for every point inside the convex hull of the
// currently-true points. A column with no true points is an error: it means
// the source zone layer never matched and the hull would be meaningless.
func ExtendWithinHull(ps *layer.PointSet, column string) (*layer.PointSet, error) {
	col, err := ps.Flag(column)
	if err != nil {
		return nil, err
	}

	var truePts []geom.Point
	for i, v := range col {
		if v {
			truePts = append(truePts, ps.Points[i].XY)
		}
	}
	if len(truePts) == 0 {
		return nil, eris.Errorf("zones: cannot extend column %q: no points are labeled true", column)
	}

	hull, err := geometry.ConvexHull(truePts)
	if err != nil {
		return nil, eris.Wrapf(err, "zones: extend column %q", column)
	}
	ix := layer.NewIndex(&layer.PolygonLayer{
		Name:     "hull",
		CRS:      ps.CRS,
		Features: []layer.Feature{{ID: "hull", Geom: hull}},
	})

	vals := make([]bool, len(col))
	copy(vals, col)
	extended := 0
	for i, v := range vals {
		if v {
			continue
		}
		hits, err := ix.Containing(ps.Points[i].XY, ps.CRS)
		if err != nil {
			return nil, err
		}
		if len(hits) > 0 {
			vals[i] = true
			extended++
		}
	}

	zap.L().With(zap.String("component", "zones")).Info("extended labels within hull",
		zap.String("column", column),
		zap.Int("seed", len(truePts)),
		zap.Int("extended", extended))
	return ps.WithFlag(column, vals)
}

// FilterZones returns a copy of the zone layer keeping only features whose
// attribute equals value.
func FilterZones(l *layer.PolygonLayer, attr, value string) *layer.PolygonLayer {
	out := &layer.PolygonLayer{Name: l.Name, CRS: l.CRS}
	for _, f := range l.Features {
		if f.Attrs[attr] == value {
			out.Features = append(out.Features, f)
		}
	}
	return out
}

func countTrue(vals []bool) int {
	n := 0
	for _, v := range vals {
		if v {
			n++
		}
	}
	return n
}
