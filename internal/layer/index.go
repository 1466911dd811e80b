package layer

import (
	"github.com/ctessum/geom"
	"github.com/ctessum/geom/index/rtree"
	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
)

// Index is an R-tree over a polygon layer. Bounding-box search narrows the
// candidate set; exact geometry predicates decide membership.
type Index struct {
	layer *PolygonLayer
	tree  *rtree.Rtree
}

type indexEntry struct {
	feat Feature
}

func (e *indexEntry) Bounds() *geom.Bounds {
	return e.feat.Geom.Bounds()
}

func (e *indexEntry) Similar(g geom.Geom, tol float64) bool {
	return e.feat.Geom.Similar(g, tol)
}

func (e *indexEntry) Transform(t proj.Transformer) (geom.Geom, error) {
	return e.feat.Geom.Transform(t)
}

func (e *indexEntry) Len() int {
	return e.feat.Geom.Len()
}

func (e *indexEntry) Points() func() geom.Point {
	return e.feat.Geom.Points()
}

// NewIndex builds an R-tree over the layer's features. Features with nil
// geometry are skipped.
func NewIndex(l *PolygonLayer) *Index {
	tree := rtree.NewTree(25, 50)
	for _, f := range l.Features {
		if f.Geom == nil {
			continue
		}
		tree.Insert(&indexEntry{feat: f})
	}
	return &Index{layer: l, tree: tree}
}

// CRS returns the coordinate reference system of the indexed layer.
func (ix *Index) CRS() string {
	return ix.layer.CRS
}

func (ix *Index) guard(queryCRS string) error {
	if queryCRS != ix.layer.CRS {
		return eris.Errorf("layer: CRS mismatch: query is %q but index %q is %q",
			queryCRS, ix.layer.Name, ix.layer.CRS)
	}
	return nil
}

// Intersecting returns the features whose geometry intersects q. The query
// CRS must match the index CRS; a mismatch is an error, never a silent
// reprojection.
func (ix *Index) Intersecting(q geom.Polygonal, queryCRS string) ([]Feature, error) {
	if err := ix.guard(queryCRS); err != nil {
		return nil, err
	}
	var out []Feature
	for _, hit := range ix.tree.SearchIntersect(q.Bounds()) {
		f := hit.(*indexEntry).feat
		isect := f.Geom.Intersection(q)
		if isect != nil && len(isect.Polygons()) > 0 {
			out = append(out, f)
			continue
		}
		// Boundary-touching pairs have an empty polygonal intersection but
		// still intersect.
		if touches(f.Geom, q) {
			out = append(out, f)
		}
	}
	return out, nil
}

// Containing returns the features whose geometry contains pt, where points on
// a polygon edge count as contained.
func (ix *Index) Containing(pt geom.Point, queryCRS string) ([]Feature, error) {
	if err := ix.guard(queryCRS); err != nil {
		return nil, err
	}
	b := &geom.Bounds{Min: pt, Max: pt}
	var out []Feature
	for _, hit := range ix.tree.SearchIntersect(b) {
		f := hit.(*indexEntry).feat
		if pt.Within(f.Geom) != geom.Outside {
			out = append(out, f)
		}
	}
	return out, nil
}

// touches reports whether any vertex of either polygon lies on or inside the
// other. It catches edge-adjacent pairs whose interiors do not overlap.
func touches(a, b geom.Polygonal) bool {
	for _, poly := range a.Polygons() {
		for _, ring := range poly {
			for _, pt := range ring {
				if pt.Within(b) != geom.Outside {
					return true
				}
			}
		}
	}
	for _, poly := range b.Polygons() {
		for _, ring := range poly {
			for _, pt := range ring {
				if pt.Within(a) != geom.Outside {
					return true
				}
			}
		}
	}
	return false
}
