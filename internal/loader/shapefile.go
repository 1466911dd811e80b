package loader

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	shp "github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/opencivic/parcelgeo/internal/layer"
)

// ReadPolygonLayer extracts a zipped shapefile and decodes its polygon
// records. idAttr names the DBF field used as feature ID; an empty idAttr
// numbers features by record order.
func ReadPolygonLayer(zipPath string, src Source, idAttr string) (*layer.PolygonLayer, error) {
	reader, cleanup, err := openShapefileZip(zipPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	out := &layer.PolygonLayer{Name: src.Name, CRS: src.CRS}
	names := fieldNames(reader)
	n := 0
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok || len(poly.Points) == 0 {
			continue
		}
		attrs := readAttrs(reader, names)
		out.Features = append(out.Features, layer.Feature{
			ID:    featureID(attrs, idAttr, n),
			Geom:  polygonFromParts(poly.NumParts, poly.Parts, poly.Points),
			Attrs: attrs,
		})
		n++
	}

	zap.L().With(zap.String("component", "loader.shapefile")).Info("read polygon layer",
		zap.String("source", src.Name), zap.Int("features", len(out.Features)))
	return out, nil
}

// ReadLineLayer extracts a zipped shapefile and decodes its polyline records.
func ReadLineLayer(zipPath string, src Source, idAttr string) (*layer.LineLayer, error) {
	reader, cleanup, err := openShapefileZip(zipPath)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	out := &layer.LineLayer{Name: src.Name, CRS: src.CRS}
	names := fieldNames(reader)
	n := 0
	for reader.Next() {
		_, shape := reader.Shape()
		line, ok := shape.(*shp.PolyLine)
		if !ok || len(line.Points) == 0 {
			continue
		}
		attrs := readAttrs(reader, names)
		out.Features = append(out.Features, layer.LineFeature{
			ID:    featureID(attrs, idAttr, n),
			Lines: linesFromParts(line.NumParts, line.Parts, line.Points),
			Attrs: attrs,
		})
		n++
	}

	zap.L().With(zap.String("component", "loader.shapefile")).Info("read line layer",
		zap.String("source", src.Name), zap.Int("features", len(out.Features)))
	return out, nil
}

// openShapefileZip extracts the archive next to itself and opens the first
// .shp member. The cleanup function removes the extraction directory.
func openShapefileZip(zipPath string) (*shp.Reader, func(), error) {
	extractDir := strings.TrimSuffix(zipPath, filepath.Ext(zipPath)) + "_extracted"
	if err := os.MkdirAll(extractDir, 0o755); err != nil {
		return nil, nil, eris.Wrap(err, "loader: create extract dir")
	}
	if err := extractZIP(zipPath, extractDir); err != nil {
		return nil, nil, eris.Wrapf(err, "loader: extract %s", zipPath)
	}
	shpPath, err := findFileByExt(extractDir, ".shp")
	if err != nil {
		return nil, nil, eris.Wrapf(err, "loader: locate .shp in %s", zipPath)
	}
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, nil, eris.Wrapf(err, "loader: open shapefile %s", shpPath)
	}
	cleanup := func() {
		_ = reader.Close()
		_ = os.RemoveAll(extractDir)
	}
	return reader, cleanup, nil
}

// extractZIP extracts a ZIP archive, flattening member paths.
func extractZIP(zipPath, destDir string) error {
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		return eris.Wrap(err, "open zip")
	}
	defer r.Close() //nolint:errcheck

	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		destPath := filepath.Join(destDir, filepath.Base(f.Name))

		rc, err := f.Open()
		if err != nil {
			return eris.Wrapf(err, "open zip entry %s", f.Name)
		}
		outFile, err := os.Create(destPath)
		if err != nil {
			_ = rc.Close()
			return eris.Wrapf(err, "create %s", destPath)
		}
		if _, err := io.Copy(outFile, rc); err != nil {
			_ = outFile.Close()
			_ = rc.Close()
			return eris.Wrapf(err, "extract %s", f.Name)
		}
		_ = outFile.Close()
		_ = rc.Close()
	}
	return nil
}

// findFileByExt finds the first file with the given extension in a directory.
func findFileByExt(dir, ext string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", eris.Wrap(err, "read directory")
	}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(strings.ToLower(e.Name()), ext) {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", eris.Errorf("no %s file found in %s", ext, dir)
}

// fieldNames returns the DBF field names, trimmed of null padding.
func fieldNames(reader *shp.Reader) []string {
	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}
	return names
}

func readAttrs(reader *shp.Reader, names []string) layer.Attrs {
	attrs := make(layer.Attrs, len(names))
	for i, name := range names {
		attrs[name] = strings.TrimSpace(reader.Attribute(i))
	}
	return attrs
}

func featureID(attrs layer.Attrs, idAttr string, ordinal int) string {
	if idAttr != "" {
		if v, ok := attrs[idAttr]; ok && v != "" {
			return v
		}
	}
	return "feature_" + strconv.Itoa(ordinal)
}

// polygonFromParts converts shapefile part-indexed rings to a polygon.
func polygonFromParts(numParts int32, parts []int32, points []shp.Point) geom.Polygon {
	rings := partRanges(numParts, parts, len(points))
	poly := make(geom.Polygon, 0, len(rings))
	for _, rg := range rings {
		ring := make([]geom.Point, 0, rg[1]-rg[0])
		for i := rg[0]; i < rg[1]; i++ {
			ring = append(ring, geom.Point{X: points[i].X, Y: points[i].Y})
		}
		// Shapefile rings close explicitly; the in-memory form leaves them
		// open.
		if len(ring) > 1 && ring[0] == ring[len(ring)-1] {
			ring = ring[:len(ring)-1]
		}
		poly = append(poly, ring)
	}
	return poly
}

func linesFromParts(numParts int32, parts []int32, points []shp.Point) []geom.LineString {
	ranges := partRanges(numParts, parts, len(points))
	out := make([]geom.LineString, 0, len(ranges))
	for _, rg := range ranges {
		line := make(geom.LineString, 0, rg[1]-rg[0])
		for i := rg[0]; i < rg[1]; i++ {
			line = append(line, geom.Point{X: points[i].X, Y: points[i].Y})
		}
		out = append(out, line)
	}
	return out
}

func partRanges(numParts int32, parts []int32, total int) [][2]int {
	if numParts == 0 {
		return [][2]int{{0, total}}
	}
	out := make([][2]int, 0, numParts)
	for i := int32(0); i < numParts; i++ {
		start := int(parts[i])
		end := total
		if i+1 < numParts {
			end = int(parts[i+1])
		}
		if start < end {
			out = append(out, [2]int{start, end})
		}
	}
	return out
}
