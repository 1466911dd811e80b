// Package geofile persists layers as compressed column-oriented files: one
// gzip-wrapped JSON document holding parallel columns for IDs, attributes,
// flags, and GeoJSON-encoded geometry. Writes are atomic; a failed encode
// never leaves a partial file behind.
package geofile

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	geomenc "github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/opencivic/parcelgeo/internal/geometry"
	"github.com/opencivic/parcelgeo/internal/layer"
)

const (
	kindPolygon = "polygon"
	kindPoint   = "point"
)

type document struct {
	Kind     string               `json:"kind"`
	Name     string               `json:"name"`
	CRS      string               `json:"crs"`
	IDs      []string             `json:"ids"`
	Columns  map[string][]*string `json:"columns"`
	Flags    map[string][]bool    `json:"flags,omitempty"`
	Geometry []json.RawMessage    `json:"geometry"`
}

// WritePolygonLayer writes a polygon layer to path.
func WritePolygonLayer(path string, l *layer.PolygonLayer) error {
	doc := document{
		Kind:    kindPolygon,
		Name:    l.Name,
		CRS:     l.CRS,
		IDs:     make([]string, len(l.Features)),
		Columns: map[string][]*string{},
	}
	attrRows := make([]layer.Attrs, len(l.Features))
	for i, f := range l.Features {
		doc.IDs[i] = f.ID
		attrRows[i] = f.Attrs

		mp, err := geometry.ToMultiPolygon(f.Geom)
		if err != nil {
			return eris.Wrapf(err, "geofile: feature %s", f.ID)
		}
		raw, err := geojson.Marshal(mp)
		if err != nil {
			return eris.Wrapf(err, "geofile: encode feature %s", f.ID)
		}
		doc.Geometry = append(doc.Geometry, raw)
	}
	doc.Columns = columnize(attrRows)
	return writeDoc(path, &doc)
}

// ReadPolygonLayer reads a polygon layer written by WritePolygonLayer.
func ReadPolygonLayer(path string) (*layer.PolygonLayer, error) {
	doc, err := readDoc(path, kindPolygon)
	if err != nil {
		return nil, err
	}
	out := &layer.PolygonLayer{Name: doc.Name, CRS: doc.CRS}
	for i, id := range doc.IDs {
		var g geomenc.T
		if err := geojson.Unmarshal(doc.Geometry[i], &g); err != nil {
			return nil, eris.Wrapf(err, "geofile: decode feature %s", id)
		}
		mp, ok := g.(*geomenc.MultiPolygon)
		if !ok {
			return nil, eris.Errorf("geofile: feature %s is %T, want MultiPolygon", id, g)
		}
		out.Features = append(out.Features, layer.Feature{
			ID:    id,
			Geom:  geometry.FromMultiPolygon(mp),
			Attrs: rowAttrs(doc.Columns, i),
		})
	}
	return out, nil
}

// WritePointSet writes a point set, including its flag columns.
func WritePointSet(path string, ps *layer.PointSet) error {
	doc := document{
		Kind:    kindPoint,
		Name:    ps.Name,
		CRS:     ps.CRS,
		IDs:     make([]string, len(ps.Points)),
		Columns: map[string][]*string{},
		Flags:   ps.Flags,
	}
	attrRows := make([]layer.Attrs, len(ps.Points))
	for i, p := range ps.Points {
		doc.IDs[i] = p.ID
		attrRows[i] = p.Attrs

		pt, err := geometry.ToPoint(p.XY)
		if err != nil {
			return eris.Wrapf(err, "geofile: point %s", p.ID)
		}
		raw, err := geojson.Marshal(pt)
		if err != nil {
			return eris.Wrapf(err, "geofile: encode point %s", p.ID)
		}
		doc.Geometry = append(doc.Geometry, raw)
	}
	doc.Columns = columnize(attrRows)
	return writeDoc(path, &doc)
}

// ReadPointSet reads a point set written by WritePointSet.
func ReadPointSet(path string) (*layer.PointSet, error) {
	doc, err := readDoc(path, kindPoint)
	if err != nil {
		return nil, err
	}
	out := &layer.PointSet{Name: doc.Name, CRS: doc.CRS, Flags: doc.Flags}
	if out.Flags == nil {
		out.Flags = map[string][]bool{}
	}
	for i, id := range doc.IDs {
		var g geomenc.T
		if err := geojson.Unmarshal(doc.Geometry[i], &g); err != nil {
			return nil, eris.Wrapf(err, "geofile: decode point %s", id)
		}
		pt, ok := g.(*geomenc.Point)
		if !ok {
			return nil, eris.Errorf("geofile: point %s is %T, want Point", id, g)
		}
		out.Points = append(out.Points, layer.Point{
			ID:    id,
			XY:    geom.Point{X: pt.X(), Y: pt.Y()},
			Attrs: rowAttrs(doc.Columns, i),
		})
	}
	return out, nil
}

// columnize pivots row attribute maps into dense columns. Every column spans
// every row; an attribute absent from a row is null, while a present-but-empty
// value stays an empty string so round trips keep the key.
func columnize(rows []layer.Attrs) map[string][]*string {
	keys := map[string]bool{}
	for _, row := range rows {
		for k := range row {
			keys[k] = true
		}
	}
	names := make([]string, 0, len(keys))
	for k := range keys {
		names = append(names, k)
	}
	sort.Strings(names)

	out := make(map[string][]*string, len(names))
	for _, name := range names {
		col := make([]*string, len(rows))
		for i, row := range rows {
			if v, ok := row[name]; ok {
				s := v
				col[i] = &s
			}
		}
		out[name] = col
	}
	return out
}

func rowAttrs(cols map[string][]*string, i int) layer.Attrs {
	attrs := make(layer.Attrs, len(cols))
	for name, col := range cols {
		if i < len(col) && col[i] != nil {
			attrs[name] = *col[i]
		}
	}
	return attrs
}

// writeDoc gzip-encodes the document to a temp file and renames it into
// place.
func writeDoc(path string, doc *document) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return eris.Wrap(err, "geofile: create output dir")
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*")
	if err != nil {
		return eris.Wrap(err, "geofile: create temp file")
	}
	tmpName := tmp.Name()
	fail := func(err error) error {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return err
	}

	gz := gzip.NewWriter(tmp)
	if err := json.NewEncoder(gz).Encode(doc); err != nil {
		return fail(eris.Wrap(err, "geofile: encode document"))
	}
	if err := gz.Close(); err != nil {
		return fail(eris.Wrap(err, "geofile: close gzip stream"))
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "geofile: close temp file")
	}
	if err := os.Rename(tmpName, path); err != nil {
		_ = os.Remove(tmpName)
		return eris.Wrap(err, "geofile: rename into place")
	}

	zap.L().With(zap.String("component", "geofile")).Info("wrote layer file",
		zap.String("path", path), zap.Int("features", len(doc.IDs)))
	return nil
}

func readDoc(path, wantKind string) (*document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geofile: open %s", path)
	}
	defer f.Close() //nolint:errcheck

	gz, err := gzip.NewReader(f)
	if err != nil {
		return nil, eris.Wrapf(err, "geofile: read gzip header of %s", path)
	}
	defer gz.Close() //nolint:errcheck

	var doc document
	if err := json.NewDecoder(gz).Decode(&doc); err != nil {
		return nil, eris.Wrapf(err, "geofile: decode %s", path)
	}
	if doc.Kind != wantKind {
		return nil, eris.Errorf("geofile: %s holds a %s layer, want %s", path, doc.Kind, wantKind)
	}
	if len(doc.Geometry) != len(doc.IDs) {
		return nil, eris.Errorf("geofile: %s has %d geometries for %d ids", path, len(doc.Geometry), len(doc.IDs))
	}
	return &doc, nil
}
