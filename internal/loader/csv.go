package loader

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/opencivic/parcelgeo/internal/layer"
	"github.com/opencivic/parcelgeo/internal/normalize"
)

// PointCSVOptions names the columns a point extract is keyed and located by.
type PointCSVOptions struct {
	IDColumn  string
	LonColumn string
	LatColumn string
}

// DefaultPointCSV matches the Cook County parcel locations extract.
var DefaultPointCSV = PointCSVOptions{
	IDColumn:  "pin",
	LonColumn: "longitude",
	LatColumn: "latitude",
}

// ReadPointCSV decodes a CSV of point records into a point set. Rows without
// parseable coordinates are skipped and counted; they are recovered later by
// the coordinate backfill, not here.
func ReadPointCSV(r io.Reader, src Source, opts PointCSVOptions) (*layer.PointSet, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read %s header", src.Name)
	}

	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, required := range []string{opts.IDColumn, opts.LonColumn, opts.LatColumn} {
		if _, ok := col[required]; !ok {
			return nil, eris.Errorf("loader: %s has no column %q", src.Name, required)
		}
	}

	out := &layer.PointSet{Name: src.Name, CRS: src.CRS, Flags: map[string][]bool{}}
	skipped := 0
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "loader: read %s row", src.Name)
		}

		lon, lonErr := strconv.ParseFloat(row[col[opts.LonColumn]], 64)
		lat, latErr := strconv.ParseFloat(row[col[opts.LatColumn]], 64)
		if lonErr != nil || latErr != nil {
			skipped++
			continue
		}

		attrs := make(layer.Attrs, len(header))
		for name, i := range col {
			attrs[name] = row[i]
		}
		out.Points = append(out.Points, layer.Point{
			ID:    row[col[opts.IDColumn]],
			XY:    geom.Point{X: lon, Y: lat},
			Attrs: attrs,
		})
	}

	zap.L().With(zap.String("component", "loader.csv")).Info("read point csv",
		zap.String("source", src.Name),
		zap.Int("points", len(out.Points)),
		zap.Int("skipped_missing_coords", skipped))
	return out, nil
}

// ReadRecordsCSV decodes a CSV into plain records for the normalization
// engine, no coordinate requirement.
func ReadRecordsCSV(r io.Reader, name string) ([]normalize.Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read %s header", name)
	}

	var out []normalize.Record
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "loader: read %s row", name)
		}
		rec := make(normalize.Record, len(header))
		for i, colName := range header {
			if i < len(row) {
				rec[colName] = row[i]
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
