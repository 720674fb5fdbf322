package pipeline

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"energyetl/internal/geocode"
	"energyetl/internal/metrics"
	"energyetl/internal/schema"
	"energyetl/internal/storage/postgres"
	"energyetl/pkg/records"
)

// Enrich geocodes every record of a cleaned fragment through the source's
// fallback query chains and attaches the location companion columns. It
// returns the number of records that resolved. Geocoding is best-effort: a
// record with no match keeps NULL companions, and quota exhaustion stops
// enrichment mid-fragment but is not fatal to the load.
func Enrich(ctx context.Context, cf *CleanFragment, queriesFn func(records.Record) []string, g geocode.Geocoder, log *zap.Logger) (int, error) {
	appendGeocodeColumns(cf)

	var hits int
	for _, rec := range cf.Records {
		result, err := geocode.Lookup(ctx, g, queriesFn(rec), log)
		if err != nil {
			metrics.RecordGeocode("quota")
			return hits, fmt.Errorf("enrich %s: %w", cf.Source, err)
		}
		if result == nil {
			metrics.RecordGeocode("miss")
			continue
		}
		metrics.RecordGeocode("hit")
		hits++
		attach(rec, result)
	}
	return hits, nil
}

// attach writes the geocode companions onto a record. A postcode already
// present from the source wins over the geocoded one.
func attach(rec records.Record, r *geocode.Result) {
	rec["lat"] = r.Lat
	rec["lon"] = r.Lon
	if r.FormattedAddress != "" {
		rec["formatted_address"] = r.FormattedAddress
	}
	if r.PlaceID != "" {
		rec["place_id"] = r.PlaceID
	}
	if r.Postcode != "" && schema.IsMissing(rec["postcode"]) {
		rec["postcode"] = r.Postcode
	}
	rec["bbox_south"] = r.BBoxSouth
	rec["bbox_north"] = r.BBoxNorth
	rec["bbox_west"] = r.BBoxWest
	rec["bbox_east"] = r.BBoxEast
}

// appendGeocodeColumns extends the fragment's column set with the companion
// columns so inserts carry them. Columns the set already has (a source
// postcode, say) keep their place and type.
func appendGeocodeColumns(cf *CleanFragment) {
	for _, col := range postgres.GeocodeColumns() {
		if !cf.Columns.Has(col.Name) {
			cf.Columns.Add(col)
		}
	}
}
