package zones

import (
	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"

	"github.com/opencivic/parcelgeo/internal/geometry"
	"github.com/opencivic/parcelgeo/internal/layer"
)

// FEMA FIRM zone sub-type values and highway classification used by the
// derived columns.
const (
	ZoneSubtype500Year  = "0.2 PCT ANNUAL CHANCE FLOOD HAZARD"
	ZoneSubtypeFloodway = "FLOODWAY"
	HighwayInterstate   = "INTERSTATE"
)

// Output column names.
const (
	ColFlood500Year   = "fema_flood_500_year"
	ColFloodway       = "fema_floodway"
	ColNearInterstate = "near_major_road"
	ColOhareNoise     = "ohare_noise"
)

// FloodFeatures tags parcels with the two FEMA FIRM columns: membership in
// the 500-year (0.2 percent annual chance) flood hazard area and membership
// in a regulatory floodway. The fema layer is the raw S_FLD_HAZ_AR polygon
// set; sub-type filtering happens here.
func FloodFeatures(parcels *layer.PointSet, fema *layer.PolygonLayer) (*layer.PointSet, error) {
	out, err := TagMembership(parcels, FilterZones(fema, "ZONE_SUBTY", ZoneSubtype500Year), ColFlood500Year)
	if err != nil {
		return nil, err
	}
	return TagMembership(out, FilterZones(fema, "ZONE_SUBTY", ZoneSubtypeFloodway), ColFloodway)
}

// InterstateProximity tags parcels within bufferDist of an interstate
// centerline. Buffering happens in bufferCRS (a projected system whose unit
// matches bufferDist, survey feet for Cook County GIS data); the result is
// brought back to the parcel CRS before the containment test. A street layer
// with no interstates yields an all-false column.
func InterstateProximity(parcels *layer.PointSet, streets *layer.LineLayer, bufferDist float64, bufferCRS string) (*layer.PointSet, error) {
	interstates := streets.FilterAttr("HWYTYPE", HighwayInterstate)
	if len(interstates) == 0 {
		return parcels.WithFlag(ColNearInterstate, make([]bool, len(parcels.Points)))
	}

	var lines []geom.LineString
	for _, f := range interstates {
		for _, line := range f.Lines {
			projected, err := geometry.Reproject(line, streets.CRS, bufferCRS)
			if err != nil {
				return nil, eris.Wrapf(err, "zones: reproject street %s", f.ID)
			}
			lines = append(lines, projected.(geom.LineString))
		}
	}

	buffered, err := geometry.BufferLines(lines, bufferDist)
	if err != nil {
		return nil, eris.Wrap(err, "zones: buffer interstates")
	}
	inParcelCRS, err := geometry.ReprojectPolygonal(buffered, bufferCRS, parcels.CRS)
	if err != nil {
		return nil, eris.Wrap(err, "zones: reproject interstate buffer")
	}

	zone := &layer.PolygonLayer{
		Name:     "interstate_buffer",
		CRS:      parcels.CRS,
		Features: []layer.Feature{{ID: "interstate_buffer", Geom: inParcelCRS}},
	}
	return TagMembership(parcels, zone, ColNearInterstate)
}

// OhareNoise tags parcels inside the O'Hare 65 DNL noise contour and then
// closes the contour's concavities: the modeled polygon excludes pockets that
// are acoustically indistinguishable from their surroundings, so membership
// is extended to every parcel within the convex hull of the tagged set.
func OhareNoise(parcels *layer.PointSet, contour *layer.PolygonLayer) (*layer.PointSet, error) {
	out, err := TagMembership(parcels, contour, ColOhareNoise)
	if err != nil {
		return nil, err
	}
	return ExtendWithinHull(out, ColOhareNoise)
}
