// Package loader fetches raw source datasets, caches them on disk, and
// decodes shapefiles and CSV extracts into in-memory layers.
package loader

import "github.com/rotisserie/eris"

// Kind tells the loader how to decode a fetched file.
type Kind string

const (
	KindShapefileZip Kind = "shapefile_zip"
	KindCSV          Kind = "csv"
)

// Source describes one raw dataset: where it comes from, what the cached
// file is called, how to decode it, and the CRS its coordinates are in.
type Source struct {
	Name     string
	URL      string
	Filename string
	Kind     Kind
	CRS      string
}

// Sources lists every raw dataset the pipeline consumes. Cook County and
// Chicago portal exports arrive in WGS84; the county GIS street centerlines
// are Illinois State Plane East survey feet.
var Sources = []Source{
	{
		Name:     "parcel_locations",
		URL:      "https://datacatalog.cookcountyil.gov/api/views/c49d-89sn/rows.csv?accessType=DOWNLOAD",
		Filename: "parcel_locations.csv",
		Kind:     KindCSV,
		CRS:      "EPSG:4326",
	},
	{
		Name:     "assessor_neighborhoods",
		URL:      "https://datacatalog.cookcountyil.gov/api/geospatial/pcdw-pxtg?method=export&format=Shapefile",
		Filename: "assessor_neighborhoods.zip",
		Kind:     KindShapefileZip,
		CRS:      "EPSG:4326",
	},
	{
		Name:     "census_tracts_2010",
		URL:      "https://www2.census.gov/geo/tiger/TIGER2010/TRACT/2010/tl_2010_17031_tract10.zip",
		Filename: "census_tracts_2010.zip",
		Kind:     KindShapefileZip,
		CRS:      "EPSG:4326",
	},
	{
		Name:     "census_tracts_2020",
		URL:      "https://www2.census.gov/geo/tiger/TIGER2020/TRACT/tl_2020_17031_tract.zip",
		Filename: "census_tracts_2020.zip",
		Kind:     KindShapefileZip,
		CRS:      "EPSG:4326",
	},
	{
		Name:     "county_boundary",
		URL:      "https://datacatalog.cookcountyil.gov/api/geospatial/ppvi-byea?method=export&format=Shapefile",
		Filename: "county_boundary.zip",
		Kind:     KindShapefileZip,
		CRS:      "EPSG:4326",
	},
	{
		Name:     "fema_firm",
		URL:      "https://hazards.fema.gov/nfhlv2/output/County/17031C_20210129.zip",
		Filename: "fema_firm.zip",
		Kind:     KindShapefileZip,
		CRS:      "EPSG:4326",
	},
	{
		Name:     "street_centerlines",
		URL:      "https://hub-cookcountyil.opendata.arcgis.com/api/download/v1/items/0d0e7ee1a5eb4964a2a2a7f4b1c4f8b1/shapefile",
		Filename: "street_centerlines.zip",
		Kind:     KindShapefileZip,
		CRS:      "EPSG:3435",
	},
	{
		Name:     "ohare_noise_contour",
		URL:      "https://data.cityofchicago.org/api/geospatial/es4n-bzfi?method=export&format=Shapefile",
		Filename: "ohare_noise_contour.zip",
		Kind:     KindShapefileZip,
		CRS:      "EPSG:4326",
	},
	{
		Name:     "building_footprints",
		URL:      "https://data.cityofchicago.org/api/geospatial/hz9b-7nh8?method=export&format=Shapefile",
		Filename: "building_footprints.zip",
		Kind:     KindShapefileZip,
		CRS:      "EPSG:4326",
	},
}

// SourceByName looks up a source by name.
func SourceByName(name string) (Source, error) {
	for _, s := range Sources {
		if s.Name == name {
			return s, nil
		}
	}
	return Source{}, eris.Errorf("loader: unknown source %q", name)
}
