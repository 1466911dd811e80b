package geometry

import (
	"math"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
)

// circleSegments controls how finely round end caps and joins are
// approximated. 16 keeps the cap radius error under half a percent.
const circleSegments = 16

// BufferLines returns the polygonal region within dist of any of the given
// polylines. Each segment contributes a rectangle, each vertex a disc, and
// the pieces are dissolved into one geometry.
func BufferLines(lines []geom.LineString, dist float64) (geom.Polygonal, error) {
	if dist <= 0 {
		return nil, eris.Errorf("geometry: buffer distance must be positive, got %v", dist)
	}
	var parts []geom.Polygonal
	for _, line := range lines {
		for i := 0; i < len(line); i++ {
			parts = append(parts, circle(line[i], dist))
			if i+1 < len(line) {
				if quad, ok := segmentQuad(line[i], line[i+1], dist); ok {
					parts = append(parts, quad)
				}
			}
		}
	}
	union := UnionAll(parts)
	if union == nil {
		return nil, eris.New("geometry: buffer of empty line set")
	}
	return union, nil
}

// segmentQuad returns the rectangle of half-width dist around segment ab.
// Zero-length segments produce no quad; their vertex discs cover them.
func segmentQuad(a, b geom.Point, dist float64) (geom.Polygon, bool) {
	dx, dy := b.X-a.X, b.Y-a.Y
	length := math.Hypot(dx, dy)
	if length == 0 {
		return nil, false
	}
	// Unit normal.
	nx, ny := -dy/length*dist, dx/length*dist
	return geom.Polygon{{
		{X: a.X - nx, Y: a.Y - ny},
		{X: b.X - nx, Y: b.Y - ny},
		{X: b.X + nx, Y: b.Y + ny},
		{X: a.X + nx, Y: a.Y + ny},
	}}, true
}

func circle(c geom.Point, r float64) geom.Polygon {
	ring := make([]geom.Point, circleSegments)
	for i := range ring {
		theta := 2 * math.Pi * float64(i) / circleSegments
		ring[i] = geom.Point{X: c.X + r*math.Cos(theta), Y: c.Y + r*math.Sin(theta)}
	}
	return geom.Polygon{ring}
}
