package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const parcelCSV = `pin,latitude,longitude,township
10000001,41.88,-87.63,Jefferson
10000002,,,Jefferson
10000003,42.01,-87.70,Evanston
`

func TestReadPointCSV(t *testing.T) {
	src := Source{Name: "parcel_locations", CRS: "EPSG:4326"}
	ps, err := ReadPointCSV(strings.NewReader(parcelCSV), src, DefaultPointCSV)
	require.NoError(t, err)

	// The row with empty coordinates is skipped.
	require.Len(t, ps.Points, 2)
	assert.Equal(t, "10000001", ps.Points[0].ID)
	assert.Equal(t, -87.63, ps.Points[0].XY.X)
	assert.Equal(t, 41.88, ps.Points[0].XY.Y)
	assert.Equal(t, "Jefferson", ps.Points[0].Attrs["township"])
	assert.Equal(t, "10000003", ps.Points[1].ID)
	assert.Equal(t, "EPSG:4326", ps.CRS)
}

func TestReadPointCSVMissingColumn(t *testing.T) {
	src := Source{Name: "parcel_locations", CRS: "EPSG:4326"}
	_, err := ReadPointCSV(strings.NewReader("pin,x,y\n1,2,3\n"), src, DefaultPointCSV)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `no column "longitude"`)
}

func TestReadRecordsCSV(t *testing.T) {
	doc := "pin,sale_price,deed_type\n100,250000,W\n200,,T\n"
	recs, err := ReadRecordsCSV(strings.NewReader(doc), "sales")
	require.NoError(t, err)

	require.Len(t, recs, 2)
	assert.Equal(t, "250000", recs[0]["sale_price"])
	assert.Equal(t, "W", recs[0]["deed_type"])
	assert.Equal(t, "", recs[1]["sale_price"])
}
