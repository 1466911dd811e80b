package geometry

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
)

// ConvexHull returns the convex hull of pts as a polygon, via the monotone
// chain algorithm. When the input is degenerate (fewer than three distinct
// non-collinear points) the hull collapses to a segment or point, which is
// useless as a containment region; in that case the bounding rectangle of the
// points is returned instead.
func ConvexHull(pts []geom.Point) (geom.Polygon, error) {
	if len(pts) == 0 {
		return nil, eris.New("geometry: convex hull of zero points")
	}

	sorted := make([]geom.Point, len(pts))
	copy(sorted, pts)
	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Y < sorted[j].Y
	})
	sorted = dedupe(sorted)

	if len(sorted) < 3 {
		return boundingRect(pts), nil
	}

	hull := monotoneChain(sorted)
	if len(hull) < 3 {
		// All points collinear.
		return boundingRect(pts), nil
	}
	return geom.Polygon{hull}, nil
}

func dedupe(sorted []geom.Point) []geom.Point {
	out := sorted[:1]
	for _, p := range sorted[1:] {
		last := out[len(out)-1]
		if p.X != last.X || p.Y != last.Y {
			out = append(out, p)
		}
	}
	return out
}

// cross is the z component of (b-a) x (c-a); positive for a counterclockwise
// turn.
func cross(a, b, c geom.Point) float64 {
	return (b.X-a.X)*(c.Y-a.Y) - (b.Y-a.Y)*(c.X-a.X)
}

func monotoneChain(sorted []geom.Point) []geom.Point {
	var lower []geom.Point
	for _, p := range sorted {
		for len(lower) >= 2 && cross(lower[len(lower)-2], lower[len(lower)-1], p) <= 0 {
			lower = lower[:len(lower)-1]
		}
		lower = append(lower, p)
	}
	var upper []geom.Point
	for i := len(sorted) - 1; i >= 0; i-- {
		p := sorted[i]
		for len(upper) >= 2 && cross(upper[len(upper)-2], upper[len(upper)-1], p) <= 0 {
			upper = upper[:len(upper)-1]
		}
		upper = append(upper, p)
	}
	// Each chain's last point is the other chain's first.
	return append(lower[:len(lower)-1], upper[:len(upper)-1]...)
}

func boundingRect(pts []geom.Point) geom.Polygon {
	b := geom.NewBounds()
	for _, p := range pts {
		b.Extend(&geom.Bounds{Min: p, Max: p})
	}
	return geom.Polygon{{
		{X: b.Min.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Min.Y},
		{X: b.Max.X, Y: b.Max.Y},
		{X: b.Min.X, Y: b.Max.Y},
	}}
}
