package main

import (
	"context"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opencivic/parcelgeo/internal/geofile"
	"github.com/opencivic/parcelgeo/internal/layer"
	"github.com/opencivic/parcelgeo/internal/loader"
	"github.com/opencivic/parcelgeo/internal/overlay"
	"github.com/opencivic/parcelgeo/internal/store"
)

var (
	splitTractID string
	splitNbhdID  string
)

var splitTractsCmd = &cobra.Command{
	Use:   "split-tracts",
	Short: "Partition census tracts by assessor neighborhood boundaries",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		f := loader.NewFetcher(cfg.Fetch, cfg.Storage.RawDir)

		tractSrc, err := loader.SourceByName("census_tracts_2010")
		if err != nil {
			return err
		}
		tractPath, err := f.Fetch(ctx, tractSrc)
		if err != nil {
			return err
		}
		tracts, err := loader.ReadPolygonLayer(tractPath, tractSrc, splitTractID)
		if err != nil {
			return err
		}

		nbhdSrc, err := loader.SourceByName("assessor_neighborhoods")
		if err != nil {
			return err
		}
		nbhdPath, err := f.Fetch(ctx, nbhdSrc)
		if err != nil {
			return err
		}
		nbhds, err := loader.ReadPolygonLayer(nbhdPath, nbhdSrc, splitNbhdID)
		if err != nil {
			return err
		}

		opts := overlay.Options{}
		if cfg.Overlay.ExcludeMaxWater {
			opts.Exclude = overlay.MaxWaterFilter("AWATER10")
		}
		frags, err := overlay.Split(tracts, nbhds, opts)
		if err != nil {
			return err
		}
		out := overlay.ToLayer(frags, "tract_fragments", tracts.CRS)

		dest := filepath.Join(cfg.Storage.CleanDir, "tract_fragments.geo.gz")
		if err := geofile.WritePolygonLayer(dest, out); err != nil {
			return err
		}

		if err := saveLayer(ctx, out); err != nil {
			return err
		}

		zap.L().With(zap.String("component", "cmd.split_tracts")).Info("fragments written",
			zap.String("path", dest), zap.Int("fragments", len(frags)))
		return nil
	},
}

// saveLayer persists a layer to the configured store, if one is configured.
func saveLayer(ctx context.Context, l *layer.PolygonLayer) error {
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
	return st.SavePolygonLayer(ctx, l)
}

func init() {
	splitTractsCmd.Flags().StringVar(&splitTractID, "tract-id", "GEOID10", "tract layer ID attribute")
	splitTractsCmd.Flags().StringVar(&splitNbhdID, "nbhd-id", "town_nbhd", "neighborhood layer ID attribute")
	rootCmd.AddCommand(splitTractsCmd)
}
