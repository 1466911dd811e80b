package main

import (
	"context"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opencivic/parcelgeo/internal/geofile"
	"github.com/opencivic/parcelgeo/internal/layer"
	"github.com/opencivic/parcelgeo/internal/loader"
	"github.com/opencivic/parcelgeo/internal/store"
	"github.com/opencivic/parcelgeo/internal/zones"
)

var enrichCmd = &cobra.Command{
	Use:   "enrich",
	Short: "Derive flood, road-proximity, and airport-noise features for parcels",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f := loader.NewFetcher(cfg.Fetch, cfg.Storage.RawDir)

		parcels, err := loadParcels(ctx, f)
		if err != nil {
			return err
		}

		fema, err := fetchPolygonLayer(ctx, f, "fema_firm", "FLD_AR_ID")
		if err != nil {
			return err
		}
		parcels, err = zones.FloodFeatures(parcels, fema)
		if err != nil {
			return err
		}

		streetSrc, err := loader.SourceByName("street_centerlines")
		if err != nil {
			return err
		}
		streetPath, err := f.Fetch(ctx, streetSrc)
		if err != nil {
			return err
		}
		streets, err := loader.ReadLineLayer(streetPath, streetSrc, "")
		if err != nil {
			return err
		}
		parcels, err = zones.InterstateProximity(parcels, streets, cfg.Enrich.InterstateBufferFt, streets.CRS)
		if err != nil {
			return err
		}

		contour, err := fetchPolygonLayer(ctx, f, "ohare_noise_contour", "")
		if err != nil {
			return err
		}
		parcels, err = zones.OhareNoise(parcels, contour)
		if err != nil {
			return err
		}

		dest := filepath.Join(cfg.Storage.CleanDir, "parcels_enriched.geo.gz")
		if err := geofile.WritePointSet(dest, parcels); err != nil {
			return err
		}
		if err := savePointSet(ctx, parcels); err != nil {
			return err
		}

		zap.L().With(zap.String("component", "cmd.enrich")).Info("enriched parcels written",
			zap.String("path", dest), zap.Int("parcels", len(parcels.Points)))
		return nil
	},
}

func loadParcels(ctx context.Context, f *loader.Fetcher) (*layer.PointSet, error) {
	src, err := loader.SourceByName("parcel_locations")
	if err != nil {
		return nil, err
	}
	path, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close() //nolint:errcheck
	return loader.ReadPointCSV(file, src, loader.DefaultPointCSV)
}

func fetchPolygonLayer(ctx context.Context, f *loader.Fetcher, name, idAttr string) (*layer.PolygonLayer, error) {
	src, err := loader.SourceByName(name)
	if err != nil {
		return nil, err
	}
	path, err := f.Fetch(ctx, src)
	if err != nil {
		return nil, err
	}
	return loader.ReadPolygonLayer(path, src, idAttr)
}

func savePointSet(ctx context.Context, ps *layer.PointSet) error {
	st, err := store.New(ctx, cfg.Store)
	if err != nil {
		return err
	}
	if st == nil {
		return nil
	}
	defer st.Close() //nolint:errcheck

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	return st.SavePointSet(ctx, ps)
}

func init() {
	rootCmd.AddCommand(enrichCmd)
}
