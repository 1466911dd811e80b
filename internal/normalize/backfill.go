package normalize

import (
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// BackfillColumns are the location columns filled from the parcel locations
// extract when the characteristics extract is missing them.
var BackfillColumns = []string{
	"latitude", "longitude", "ohare_noise", "floodplain", "near_major_road",
}

// Backfill fills empty values in dst from src, matching records on the key
// column. Only the named columns are touched, and only where dst is empty;
// present values always win. Returns copies, leaving both inputs unchanged.
func Backfill(dst, src []Record, key string, cols []string) ([]Record, error) {
	byKey := make(map[string]Record, len(src))
	for i, rec := range src {
		k, ok := rec[key]
		if !ok || k == "" {
			return nil, eris.Errorf("normalize: backfill source record %d has no %s", i, key)
		}
		byKey[k] = rec
	}

	filled := 0
	out := make([]Record, len(dst))
	for i, rec := range dst {
		clean := make(Record, len(rec))
		for k, v := range rec {
			clean[k] = v
		}
		if srcRec, ok := byKey[rec[key]]; ok {
			for _, col := range cols {
				if clean[col] == "" && srcRec[col] != "" {
					clean[col] = srcRec[col]
					filled++
				}
			}
		}
		out[i] = clean
	}

	zap.L().With(zap.String("component", "normalize")).Info("backfilled columns",
		zap.String("key", key), zap.Int("values", filled))
	return out, nil
}
