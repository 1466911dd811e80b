// Package geometry holds the shared planar-geometry utilities: unions,
// convex hulls, line buffering, representative points, and CRS reprojection.
// Everything operates on ctessum/geom types in a single projected or
// geographic coordinate space; callers are responsible for CRS agreement.
package geometry

import "github.com/ctessum/geom"

// UnionAll dissolves the given polygons into one polygonal geometry. Returns
// nil for an empty input.
func UnionAll(polys []geom.Polygonal) geom.Polygonal {
	var acc geom.Polygonal
	for _, p := range polys {
		if p == nil {
			continue
		}
		if acc == nil {
			acc = p
			continue
		}
		acc = acc.Union(p)
	}
	return acc
}
