// Package overlay partitions census tracts by assessor neighborhood
// boundaries. Each output fragment is the intersection of one tract with one
// neighborhood, carrying attributes from both parents and a representative
// interior point for later spatial joins.
package overlay

import (
	"fmt"
	"maps"
	"strconv"
	"strings"

	"github.com/ctessum/geom"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/opencivic/parcelgeo/internal/geometry"
	"github.com/opencivic/parcelgeo/internal/layer"
)

// FilterFunc decides which features to exclude before overlaying. It returns
// the set of excluded feature IDs.
type FilterFunc func(*layer.PolygonLayer) (map[string]bool, error)

// MaxWaterFilter excludes every feature whose water-area attribute equals the
// layer maximum. The 2010 Cook County tract file contains a single all-water
// Lake Michigan tract with no neighborhood assignment; dropping the maximum
// removes it without hard-coding its GEOID.
func MaxWaterFilter(waterAttr string) FilterFunc {
	return func(l *layer.PolygonLayer) (map[string]bool, error) {
		if len(l.Features) == 0 {
			return nil, nil
		}
		max := 0.0
		for _, f := range l.Features {
			v, err := f.Attrs.Float(waterAttr)
			if err != nil {
				return nil, eris.Wrapf(err, "overlay: water filter on tract %s", f.ID)
			}
			if v > max {
				max = v
			}
		}
		excluded := make(map[string]bool)
		for _, f := range l.Features {
			v, _ := f.Attrs.Float(waterAttr)
			if v == max && max > 0 {
				excluded[f.ID] = true
			}
		}
		return excluded, nil
	}
}

// Options configures a split. Zero value means: no pre-filter, default
// attribute handling.
type Options struct {
	// Exclude removes features from the tract layer before overlaying.
	Exclude FilterFunc
	// ValidateAttrs are tract attributes that must agree across duplicate
	// tract records. Defaults to DefaultValidateAttrs.
	ValidateAttrs []string
	// DropAttrs are tract attributes omitted from fragment output. Defaults
	// to DefaultDropAttrs.
	DropAttrs []string
	// FloatAttrs are tract attributes re-encoded as plain floats (the census
	// internal-point columns arrive as "+41.8781..."). Defaults to
	// DefaultFloatAttrs.
	FloatAttrs []string
}

// Default attribute sets for 2010 census tract records.
var (
	DefaultValidateAttrs = []string{
		"STATEFP10", "COUNTYFP10", "TRACTCE10", "GEOID10", "NAME10",
		"NAMELSAD10", "MTFCC10", "FUNCSTAT10", "ALAND10",
		"INTPTLAT10", "INTPTLON10",
	}
	DefaultDropAttrs  = []string{"ALAND10", "AWATER10", "NAMELSAD10", "FUNCSTAT10", "MTFCC10"}
	DefaultFloatAttrs = []string{"INTPTLAT10", "INTPTLON10"}
)

// Fragment is one tract-neighborhood intersection.
type Fragment struct {
	TractID        string
	NeighborhoodID string
	Geom           geom.Polygonal
	Attrs          layer.Attrs
	RepPoint       geom.Point
}

// Split overlays tracts with neighborhoods and returns one fragment per
// intersecting pair. Both layers must share a CRS. Tract records that appear
// more than once must agree on every validated attribute; a conflict is an
// error, not a warning.
func Split(tracts, nbhds *layer.PolygonLayer, opts Options) ([]Fragment, error) {
	log := zap.L().With(zap.String("component", "overlay"))

	if tracts.CRS != nbhds.CRS {
		return nil, eris.Errorf("overlay: CRS mismatch: tracts %q is %q but neighborhoods %q is %q",
			tracts.Name, tracts.CRS, nbhds.Name, nbhds.CRS)
	}
	if len(opts.ValidateAttrs) == 0 {
		opts.ValidateAttrs = DefaultValidateAttrs
	}
	if len(opts.DropAttrs) == 0 {
		opts.DropAttrs = DefaultDropAttrs
	}
	if opts.FloatAttrs == nil {
		opts.FloatAttrs = DefaultFloatAttrs
	}

	work := tracts
	if opts.Exclude != nil {
		excluded, err := opts.Exclude(tracts)
		if err != nil {
			return nil, err
		}
		if len(excluded) > 0 {
			work = &layer.PolygonLayer{Name: tracts.Name, CRS: tracts.CRS}
			for _, f := range tracts.Features {
				if excluded[f.ID] {
					log.Info("excluding tract before overlay", zap.String("tract", f.ID))
					continue
				}
				work.Features = append(work.Features, f)
			}
		}
	}

	if err := checkDuplicateConsistency(work, opts.ValidateAttrs); err != nil {
		return nil, err
	}

	ix := layer.NewIndex(work)
	drop := make(map[string]bool, len(opts.DropAttrs))
	for _, a := range opts.DropAttrs {
		drop[a] = true
	}

	var frags []Fragment
	seenNbhds := make(map[string]layer.Attrs, len(nbhds.Features))
	for _, nb := range nbhds.Features {
		if nb.Geom == nil {
			continue
		}
		// Portal exports occasionally repeat a neighborhood record; a repeat
		// would emit every fragment twice.
		if prev, ok := seenNbhds[nb.ID]; ok && maps.Equal(prev, nb.Attrs) {
			log.Info("skipping duplicate neighborhood record", zap.String("neighborhood", nb.ID))
			continue
		}
		seenNbhds[nb.ID] = nb.Attrs
		hits, err := ix.Intersecting(nb.Geom, nbhds.CRS)
		if err != nil {
			return nil, err
		}
		for _, tract := range hits {
			isect := tract.Geom.Intersection(nb.Geom)
			if isect == nil || isect.Area() <= 0 {
				continue
			}
			attrs, err := fragmentAttrs(tract, nb, drop, opts.FloatAttrs)
			if err != nil {
				return nil, err
			}
			rep, err := geometry.RepresentativePoint(isect)
			if err != nil {
				return nil, eris.Wrapf(err, "overlay: fragment %s/%s", tract.ID, nb.ID)
			}
			frags = append(frags, Fragment{
				TractID:        tract.ID,
				NeighborhoodID: nb.ID,
				Geom:           isect,
				Attrs:          attrs,
				RepPoint:       rep,
			})
		}
	}

	log.Info("overlay complete",
		zap.Int("tracts", len(work.Features)),
		zap.Int("neighborhoods", len(nbhds.Features)),
		zap.Int("fragments", len(frags)))
	return frags, nil
}

// checkDuplicateConsistency errors when two tract records share an ID but
// disagree on a validated attribute.
func checkDuplicateConsistency(l *layer.PolygonLayer, validate []string) error {
	seen := make(map[string]layer.Attrs, len(l.Features))
	for _, f := range l.Features {
		prev, ok := seen[f.ID]
		if !ok {
			seen[f.ID] = f.Attrs
			continue
		}
		for _, attr := range validate {
			if prev[attr] != f.Attrs[attr] {
				return eris.Errorf("overlay: tract %s attribute %s is inconsistent across records (%q vs %q)",
					f.ID, attr, prev[attr], f.Attrs[attr])
			}
		}
	}
	return nil
}

// fragmentAttrs merges tract and neighborhood attributes. Neighborhood keys
// win on collision, matching a left-drop/right-keep overlay. Dropped tract
// columns are omitted and float columns re-encoded.
func fragmentAttrs(tract, nb layer.Feature, drop map[string]bool, floatAttrs []string) (layer.Attrs, error) {
	out := make(layer.Attrs, len(tract.Attrs)+len(nb.Attrs))
	for k, v := range tract.Attrs {
		if drop[k] {
			continue
		}
		out[k] = v
	}
	for _, k := range floatAttrs {
		raw, ok := out[k]
		if !ok {
			continue
		}
		f, err := strconv.ParseFloat(strings.TrimPrefix(raw, "+"), 64)
		if err != nil {
			return nil, eris.Wrapf(err, "overlay: tract %s attribute %s", tract.ID, k)
		}
		out[k] = fmt.Sprintf("%g", f)
	}
	for k, v := range nb.Attrs {
		out[k] = v
	}
	return out, nil
}

// ToLayer converts fragments to a polygon layer in the given CRS, with the
// representative point stored in rep_x/rep_y attributes.
func ToLayer(frags []Fragment, name, crs string) *layer.PolygonLayer {
	out := &layer.PolygonLayer{Name: name, CRS: crs, Features: make([]layer.Feature, len(frags))}
	for i, fr := range frags {
		attrs := fr.Attrs.Clone()
		attrs["rep_x"] = strconv.FormatFloat(fr.RepPoint.X, 'g', -1, 64)
		attrs["rep_y"] = strconv.FormatFloat(fr.RepPoint.Y, 'g', -1, 64)
		out.Features[i] = layer.Feature{
			ID:    fr.TractID + "/" + fr.NeighborhoodID,
			Geom:  fr.Geom,
			Attrs: attrs,
		}
	}
	return out
}
