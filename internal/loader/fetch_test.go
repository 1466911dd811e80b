package loader

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencivic/parcelgeo/internal/config"
)

func fetchConfig() config.FetchConfig {
	return config.FetchConfig{
		UserAgent:     "parcelgeo-test",
		TimeoutSecs:   5,
		RatePerSec:    1000,
		MaxConcurrent: 2,
	}
}

func TestFetchDownloadsAndCaches(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("payload"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(fetchConfig(), dir)
	src := Source{Name: "test", URL: srv.URL, Filename: "test.zip"}

	p1, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	data, err := os.ReadFile(p1)
	require.NoError(t, err)
	assert.Equal(t, "payload", string(data))

	// Second fetch is served from cache.
	p2, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
	assert.Equal(t, int32(1), hits.Load())
}

func TestFetchForceRepull(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		_, _ = w.Write([]byte("fresh"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	cfg := fetchConfig()
	cfg.ForceRepull = true
	f := NewFetcher(cfg, dir)
	src := Source{Name: "test", URL: srv.URL, Filename: "test.zip"}

	_, err := f.Fetch(context.Background(), src)
	require.NoError(t, err)
	_, err = f.Fetch(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestFetchBadStatusLeavesNoFile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(fetchConfig(), dir)
	src := Source{Name: "test", URL: srv.URL, Filename: "test.zip"}

	_, err := f.Fetch(context.Background(), src)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 404")

	_, statErr := os.Stat(filepath.Join(dir, "test.zip"))
	assert.True(t, os.IsNotExist(statErr), "failed download must not land in cache")
}

func TestFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.URL.Path))
	}))
	defer srv.Close()

	dir := t.TempDir()
	f := NewFetcher(fetchConfig(), dir)
	srcs := []Source{
		{Name: "a", URL: srv.URL + "/a", Filename: "a.zip"},
		{Name: "b", URL: srv.URL + "/b", Filename: "b.zip"},
		{Name: "c", URL: srv.URL + "/c", Filename: "c.zip"},
	}

	paths, err := f.FetchAll(context.Background(), srcs)
	require.NoError(t, err)
	require.Len(t, paths, 3)
	for _, src := range srcs {
		data, err := os.ReadFile(paths[src.Name])
		require.NoError(t, err)
		assert.Equal(t, "/"+src.Name, string(data))
	}
}

func TestSourceByName(t *testing.T) {
	src, err := SourceByName("census_tracts_2010")
	require.NoError(t, err)
	assert.Equal(t, KindShapefileZip, src.Kind)
	assert.Equal(t, "EPSG:4326", src.CRS)

	// Both tract vintages are registered.
	src, err = SourceByName("census_tracts_2020")
	require.NoError(t, err)
	assert.Equal(t, "census_tracts_2020.zip", src.Filename)
	assert.Contains(t, src.URL, "TIGER2020")

	_, err = SourceByName("nope")
	require.Error(t, err)
}
