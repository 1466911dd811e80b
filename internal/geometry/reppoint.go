package geometry

import (
	"sort"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
)

// RepresentativePoint returns a point guaranteed to lie inside p. The
// centroid is used when it is interior; concave or multi-part geometries fall
// back to the midpoint of the widest horizontal span through the bounding-box
// middle, nudged vertically if that scanline only grazes a vertex.
func RepresentativePoint(p geom.Polygonal) (geom.Point, error) {
	if p == nil || len(p.Polygons()) == 0 {
		return geom.Point{}, eris.New("geometry: representative point of empty geometry")
	}

	c := p.Centroid()
	if c.Within(p) == geom.Inside {
		return c, nil
	}

	b := p.Bounds()
	height := b.Max.Y - b.Min.Y
	// The middle scanline can pass exactly through vertices; try small
	// offsets until a proper span shows up.
	for _, frac := range []float64{0.5, 0.45, 0.55, 0.4, 0.6, 0.25, 0.75} {
		y := b.Min.Y + height*frac
		if pt, ok := widestSpanMidpoint(p, y); ok {
			return pt, nil
		}
	}
	return geom.Point{}, eris.New("geometry: no interior point found")
}

// widestSpanMidpoint intersects the horizontal line at y with every ring edge
// and returns the midpoint of the widest even-odd interior span.
func widestSpanMidpoint(p geom.Polygonal, y float64) (geom.Point, bool) {
	var xs []float64
	for _, poly := range p.Polygons() {
		for _, ring := range poly {
			n := len(ring)
			for i := 0; i < n; i++ {
				a, b := ring[i], ring[(i+1)%n]
				if (a.Y > y) == (b.Y > y) {
					continue
				}
				x := a.X + (y-a.Y)*(b.X-a.X)/(b.Y-a.Y)
				xs = append(xs, x)
			}
		}
	}
	if len(xs) < 2 {
		return geom.Point{}, false
	}
	sort.Float64s(xs)

	best := geom.Point{}
	bestWidth := 0.0
	for i := 0; i+1 < len(xs); i += 2 {
		width := xs[i+1] - xs[i]
		if width <= bestWidth {
			continue
		}
		mid := geom.Point{X: (xs[i] + xs[i+1]) / 2, Y: y}
		if mid.Within(p) == geom.Inside {
			best = mid
			bestWidth = width
		}
	}
	return best, bestWidth > 0
}
