// Package layer defines the in-memory data model for geographic layers and
// the spatial index used to query them. A layer pairs geometries with string
// attribute maps and a CRS tag; every spatial operation checks the tag before
// doing coordinate math.
package layer

import (
	"strconv"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
)

// Attrs holds feature attributes keyed by column name. Values are kept as
// strings the way they arrive from DBF records; typed access goes through
// Float and Int.
type Attrs map[string]string

// Clone returns an independent copy of the attribute map.
func (a Attrs) Clone() Attrs {
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// Float parses the named attribute as a float64.
func (a Attrs) Float(key string) (float64, error) {
	raw, ok := a[key]
	if !ok {
		return 0, eris.Errorf("layer: attribute %q not present", key)
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, eris.Wrapf(err, "layer: attribute %q is not numeric", key)
	}
	return f, nil
}

// Feature is one polygonal record in a layer.
type Feature struct {
	ID    string
	Geom  geom.Polygonal
	Attrs Attrs
}

// PolygonLayer is a named collection of polygonal features sharing a CRS.
type PolygonLayer struct {
	Name     string
	CRS      string
	Features []Feature
}

// Clone returns a copy of the layer with cloned attribute maps. Geometries
// are shared; no operation in this module mutates a geometry in place.
func (l *PolygonLayer) Clone() *PolygonLayer {
	out := &PolygonLayer{Name: l.Name, CRS: l.CRS, Features: make([]Feature, len(l.Features))}
	for i, f := range l.Features {
		out.Features[i] = Feature{ID: f.ID, Geom: f.Geom, Attrs: f.Attrs.Clone()}
	}
	return out
}

// LineFeature is one polyline record, typically a street centerline.
type LineFeature struct {
	ID    string
	Lines []geom.LineString
	Attrs Attrs
}

// LineLayer is a named collection of polylines sharing a CRS.
type LineLayer struct {
	Name     string
	CRS      string
	Features []LineFeature
}

// FilterAttr returns the features whose attribute equals value.
func (l *LineLayer) FilterAttr(attr, value string) []LineFeature {
	var out []LineFeature
	for _, f := range l.Features {
		if f.Attrs[attr] == value {
			out = append(out, f)
		}
	}
	return out
}

// Point is one point record, typically a parcel centroid.
type Point struct {
	ID    string
	XY    geom.Point
	Attrs Attrs
}

// PointSet is a named collection of points sharing a CRS, with named boolean
// columns stored in parallel slices.
type PointSet struct {
	Name   string
	CRS    string
	Points []Point
	Flags  map[string][]bool
}

// Clone returns an independent copy of the point set, including flag columns.
func (ps *PointSet) Clone() *PointSet {
	out := &PointSet{
		Name:   ps.Name,
		CRS:    ps.CRS,
		Points: make([]Point, len(ps.Points)),
		Flags:  make(map[string][]bool, len(ps.Flags)),
	}
	for i, p := range ps.Points {
		out.Points[i] = Point{ID: p.ID, XY: p.XY, Attrs: p.Attrs.Clone()}
	}
	for name, col := range ps.Flags {
		c := make([]bool, len(col))
		copy(c, col)
		out.Flags[name] = c
	}
	return out
}

// WithFlag returns a copy of the point set with the named boolean column set
// to vals. The input set is not modified.
func (ps *PointSet) WithFlag(name string, vals []bool) (*PointSet, error) {
	if len(vals) != len(ps.Points) {
		return nil, eris.Errorf("layer: flag %q has %d values for %d points", name, len(vals), len(ps.Points))
	}
	out := ps.Clone()
	col := make([]bool, len(vals))
	copy(col, vals)
	out.Flags[name] = col
	return out, nil
}

// Flag returns the named boolean column.
func (ps *PointSet) Flag(name string) ([]bool, error) {
	col, ok := ps.Flags[name]
	if !ok {
		return nil, eris.Errorf("layer: point set %q has no flag column %q", ps.Name, name)
	}
	return col, nil
}
