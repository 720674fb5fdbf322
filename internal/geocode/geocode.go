// Package geocode enriches cleaned rows with coordinates. A Geocoder is
// anything that can resolve a free-text query; production stacks the Google
// client behind a quota guard and a persistent disk cache:
//
//	geocoder := geocode.NewCachedGeocoder(
//	    geocode.NewQuotaGeocoder(googleClient, quota),
//	    cache,
//	)
//
// A nil *Result with a nil error is an explicit "no match"; callers load
// NULLs and move on. Geocoding is always best-effort: a dataset loads fine
// with every location column empty.
package geocode

import (
	"context"
	"errors"

	"go.uber.org/zap"
)

// Result is one resolved location. Lat/Lon are always set on a hit; the
// remaining fields are present only when the provider returned them.
type Result struct {
	Lat              float64  `json:"lat"`
	Lon              float64  `json:"lon"`
	FormattedAddress string   `json:"formatted_address,omitempty"`
	PlaceID          string   `json:"place_id,omitempty"`
	Postcode         string   `json:"postcode,omitempty"`
	BBoxSouth        *float64 `json:"bbox_south,omitempty"`
	BBoxNorth        *float64 `json:"bbox_north,omitempty"`
	BBoxWest         *float64 `json:"bbox_west,omitempty"`
	BBoxEast         *float64 `json:"bbox_east,omitempty"`
}

// Geocoder resolves a free-text location query. Implementations return
// (nil, nil) for a definitive no-match.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Lookup walks a fallback chain of queries, most specific first, and returns
// the first hit. Empty queries are skipped. Provider errors on one query do
// not stop the chain, with one exception: quota exhaustion aborts
// immediately so the caller can stop geocoding for the rest of the run.
// A chain with no hits returns (nil, nil).
func Lookup(ctx context.Context, g Geocoder, queries []string, log *zap.Logger) (*Result, error) {
	for _, q := range queries {
		if q == "" {
			continue
		}
		r, err := g.Geocode(ctx, q)
		if err != nil {
			if errors.Is(err, ErrQuotaExhausted) || ctx.Err() != nil {
				return nil, err
			}
			log.Warn("geocode query failed, trying fallback",
				zap.String("query", q), zap.Error(err))
			continue
		}
		if r != nil {
			return r, nil
		}
	}
	return nil, nil
}
