package geometry

import (
	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	geomenc "github.com/twpayne/go-geom"
)

// ToMultiPolygon converts a polygonal geometry to a go-geom MultiPolygon for
// encoding (GeoJSON, EWKB). Rings are closed on the way out; the in-memory
// representation leaves them open.
func ToMultiPolygon(p geom.Polygonal) (*geomenc.MultiPolygon, error) {
	if p == nil {
		return nil, eris.New("geometry: encode nil geometry")
	}
	mp := geomenc.NewMultiPolygon(geomenc.XY)
	for _, poly := range p.Polygons() {
		coords := make([][]geomenc.Coord, 0, len(poly))
		for _, ring := range poly {
			if len(ring) == 0 {
				continue
			}
			rc := make([]geomenc.Coord, 0, len(ring)+1)
			for _, pt := range ring {
				rc = append(rc, geomenc.Coord{pt.X, pt.Y})
			}
			first, last := rc[0], rc[len(rc)-1]
			if first[0] != last[0] || first[1] != last[1] {
				rc = append(rc, first)
			}
			coords = append(coords, rc)
		}
		if len(coords) == 0 {
			continue
		}
		gp := geomenc.NewPolygon(geomenc.XY)
		if _, err := gp.SetCoords(coords); err != nil {
			return nil, eris.Wrap(err, "geometry: encode polygon")
		}
		if err := mp.Push(gp); err != nil {
			return nil, eris.Wrap(err, "geometry: push polygon")
		}
	}
	return mp, nil
}

// ToPoint converts a ctessum point to a go-geom Point.
func ToPoint(pt geom.Point) (*geomenc.Point, error) {
	gp := geomenc.NewPoint(geomenc.XY)
	if _, err := gp.SetCoords(geomenc.Coord{pt.X, pt.Y}); err != nil {
		return nil, eris.Wrap(err, "geometry: encode point")
	}
	return gp, nil
}

// FromMultiPolygon converts a go-geom MultiPolygon back to the in-memory
// representation. Closing vertices are dropped.
func FromMultiPolygon(mp *geomenc.MultiPolygon) geom.MultiPolygon {
	out := make(geom.MultiPolygon, 0, mp.NumPolygons())
	for i := 0; i < mp.NumPolygons(); i++ {
		gp := mp.Polygon(i)
		poly := make(geom.Polygon, 0, gp.NumLinearRings())
		for j := 0; j < gp.NumLinearRings(); j++ {
			coords := gp.LinearRing(j).Coords()
			if len(coords) > 1 {
				first, last := coords[0], coords[len(coords)-1]
				if first[0] == last[0] && first[1] == last[1] {
					coords = coords[:len(coords)-1]
				}
			}
			ring := make([]geom.Point, len(coords))
			for k, c := range coords {
				ring[k] = geom.Point{X: c[0], Y: c[1]}
			}
			poly = append(poly, ring)
		}
		out = append(out, poly)
	}
	return out
}
