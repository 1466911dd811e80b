package main

import (
	"encoding/csv"
	"os"
	"sort"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/opencivic/parcelgeo/internal/loader"
	"github.com/opencivic/parcelgeo/internal/normalize"
)

var (
	cleanInput     string
	cleanOutput    string
	cleanRulesPath string
	cleanLocations string
)

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Normalize a tabular extract with the column rule table",
	Long: "Applies the built-in Cook County cleaning rules (or a YAML rule table given via " +
		"--rules) to a CSV extract. With --locations, missing coordinates and location " +
		"indicator columns are backfilled from the parcel locations extract by PIN.",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := os.Open(cleanInput)
		if err != nil {
			return eris.Wrap(err, "clean: open input")
		}
		defer in.Close() //nolint:errcheck

		records, err := loader.ReadRecordsCSV(in, cleanInput)
		if err != nil {
			return err
		}

		rules := normalize.CookCountyRules()
		if cleanRulesPath != "" {
			rf, err := os.Open(cleanRulesPath)
			if err != nil {
				return eris.Wrap(err, "clean: open rules")
			}
			defer rf.Close() //nolint:errcheck
			rules, err = normalize.LoadRules(rf)
			if err != nil {
				return err
			}
		}

		records, err = normalize.Apply(records, rules)
		if err != nil {
			return err
		}

		if cleanLocations != "" {
			lf, err := os.Open(cleanLocations)
			if err != nil {
				return eris.Wrap(err, "clean: open locations")
			}
			defer lf.Close() //nolint:errcheck
			locs, err := loader.ReadRecordsCSV(lf, cleanLocations)
			if err != nil {
				return err
			}
			records, err = normalize.Backfill(records, locs, "pin", normalize.BackfillColumns)
			if err != nil {
				return err
			}
		}

		if err := writeRecordsCSV(cleanOutput, records); err != nil {
			return err
		}
		zap.L().With(zap.String("component", "cmd.clean")).Info("cleaned extract written",
			zap.String("path", cleanOutput), zap.Int("records", len(records)))
		return nil
	},
}

// writeRecordsCSV writes records with a sorted union header. Missing values
// are empty cells.
func writeRecordsCSV(path string, records []normalize.Record) error {
	cols := map[string]bool{}
	for _, rec := range records {
		for k := range rec {
			cols[k] = true
		}
	}
	header := make([]string, 0, len(cols))
	for k := range cols {
		header = append(header, k)
	}
	sort.Strings(header)

	f, err := os.Create(path)
	if err != nil {
		return eris.Wrap(err, "clean: create output")
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return eris.Wrap(err, "clean: write header")
	}
	row := make([]string, len(header))
	for _, rec := range records {
		for i, col := range header {
			row[i] = rec[col]
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "clean: write row")
		}
	}
	w.Flush()
	return eris.Wrap(w.Error(), "clean: flush output")
}

func init() {
	cleanCmd.Flags().StringVar(&cleanInput, "input", "", "input CSV path")
	cleanCmd.Flags().StringVar(&cleanOutput, "output", "", "output CSV path")
	cleanCmd.Flags().StringVar(&cleanRulesPath, "rules", "", "YAML rule table (default: built-in Cook County rules)")
	cleanCmd.Flags().StringVar(&cleanLocations, "locations", "", "parcel locations CSV for coordinate backfill")
	_ = cleanCmd.MarkFlagRequired("input")
	_ = cleanCmd.MarkFlagRequired("output")
	rootCmd.AddCommand(cleanCmd)
}
