package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opencivic/parcelgeo/internal/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "parcelgeo",
	Short: "Cook County parcel and geography enrichment pipeline",
	Long: "Fetches county and federal geospatial source data, splits census tracts by " +
		"assessor neighborhood, and derives flood, noise, and road-proximity features for parcels.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
