package geometry

import (
	"strings"

	"github.com/ctessum/geom"
	"github.com/ctessum/geom/proj"
	"github.com/rotisserie/eris"
)

// proj4ByEPSG covers the reference systems this pipeline actually sees:
// portal data in WGS84 and county GIS layers in Illinois State Plane East
// (US survey feet).
var proj4ByEPSG = map[string]string{
	"EPSG:4326": "+proj=longlat +datum=WGS84 +no_defs",
	"EPSG:3435": "+proj=tmerc +lat_0=36.66666666666666 +lon_0=-88.33333333333333 " +
		"+k=0.999975 +x_0=300000.0000000001 +y_0=0 +ellps=GRS80 " +
		"+towgs84=0,0,0,0,0,0,0 +units=us-ft +no_defs",
}

// resolveCRS maps a CRS tag to a proj4 definition. Raw proj4 strings pass
// through untouched.
func resolveCRS(crs string) (string, error) {
	if strings.HasPrefix(crs, "+") {
		return crs, nil
	}
	p4, ok := proj4ByEPSG[strings.ToUpper(crs)]
	if !ok {
		return "", eris.Errorf("geometry: no proj4 definition for CRS %q", crs)
	}
	return p4, nil
}

// Reproject transforms g from one CRS to another. CRS values may be EPSG tags
// known to this package or raw proj4 strings.
func Reproject(g geom.Geom, fromCRS, toCRS string) (geom.Geom, error) {
	if fromCRS == toCRS {
		return g, nil
	}
	fromP4, err := resolveCRS(fromCRS)
	if err != nil {
		return nil, err
	}
	toP4, err := resolveCRS(toCRS)
	if err != nil {
		return nil, err
	}
	src, err := proj.Parse(fromP4)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: parse source CRS %q", fromCRS)
	}
	dst, err := proj.Parse(toP4)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: parse target CRS %q", toCRS)
	}
	ct, err := src.NewTransform(dst)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: transform %q to %q", fromCRS, toCRS)
	}
	out, err := g.Transform(ct)
	if err != nil {
		return nil, eris.Wrapf(err, "geometry: reproject %q to %q", fromCRS, toCRS)
	}
	return out, nil
}

// ReprojectPolygonal is Reproject narrowed to polygonal geometries.
func ReprojectPolygonal(p geom.Polygonal, fromCRS, toCRS string) (geom.Polygonal, error) {
	g, err := Reproject(p, fromCRS, toCRS)
	if err != nil {
		return nil, err
	}
	out, ok := g.(geom.Polygonal)
	if !ok {
		return nil, eris.Errorf("geometry: reprojection produced %T, want polygonal", g)
	}
	return out, nil
}
