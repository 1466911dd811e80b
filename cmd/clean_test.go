package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/parcelgeo/internal/normalize"
)

func TestWriteRecordsCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	records := []normalize.Record{
		{"pin": "100", "deed_type": "Warranty"},
		{"pin": "200"},
	}

	require.NoError(t, writeRecordsCSV(path, records))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "deed_type,pin\nWarranty,100\n,200\n", string(data))
}

func TestCommandsRegistered(t *testing.T) {
	names := map[string]bool{}
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"ingest", "split-tracts", "enrich", "clean"} {
		assert.True(t, names[want], "command %s must be registered", want)
	}
}
