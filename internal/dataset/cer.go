package dataset

import (
	"fmt"

	"energyetl/internal/geocode"
	"energyetl/internal/schema"
	"energyetl/internal/transformer"
	"energyetl/internal/transformer/builtin"
	"energyetl/pkg/records"
)

// CER report tables, one per accreditation stage.
const (
	CERApprovedTable  = "cer_approved_power_stations"
	CERCommittedTable = "cer_committed_power_stations"
	CERProbableTable  = "cer_probable_power_stations"
)

// cerAliases collapses the header spellings the scraped report pages have
// used over time.
var cerAliases = []builtin.Coalesce{
	{Target: "fuel_source", Sources: []string{"fuel_sources", "fuel_source_s"}},
	{Target: "installed_capacity_mw", Sources: []string{"mw_capacity"}},
	{Target: "committed_date", Sources: []string{"committed_date_monthyear", "committed_date_month_year"}},
}

// CER returns the policy for one scraped report table: "approved",
// "committed", or "probable".
func CER(reportType string) (Spec, error) {
	var table string
	switch reportType {
	case "approved":
		table = CERApprovedTable
	case "committed":
		table = CERCommittedTable
	case "probable":
		table = CERProbableTable
	default:
		return Spec{}, fmt.Errorf("dataset: unknown cer report type %q", reportType)
	}

	nameColumn := "project_name"
	if reportType == "approved" {
		nameColumn = "power_station_name"
	}

	chain := make(transformer.Chain, 0, len(cerAliases)+5)
	for _, alias := range cerAliases {
		chain = append(chain, alias)
	}
	chain = append(chain,
		transformer.Func(dropUnnamed),
		builtin.MapValues{Column: "state", Fn: stateValue},
		builtin.MapValues{Column: "fuel_source", Fn: StandardizeFuelType},
		builtin.MapValues{Column: nameColumn, Fn: CleanStationName},
		builtin.Derive{Fn: splitCommittedDate},
	)

	spec := Spec{
		Table: table,
		Chain: chain,
		KindOverrides: map[string]schema.Kind{
			"installed_capacity_mw": schema.KindCapacity,
			"committed_date_year":   schema.KindInteger,
			"committed_date_month":  schema.KindInteger,
		},
		TypeOverrides: map[string]string{
			"accreditation_code": "VARCHAR(64)",
			nameColumn:           "VARCHAR(255)",
			"state":              "VARCHAR(64)",
			"postcode":           "VARCHAR(16)",
			"fuel_source":        "VARCHAR(128)",
			"committed_date":     "VARCHAR(32)",
		},
		TextLimits: map[string]int{
			"accreditation_code": 64,
			nameColumn:           255,
			"state":              64,
			"postcode":           16,
			"fuel_source":        128,
			"committed_date":     32,
		},
	}

	switch reportType {
	case "approved":
		spec.GeocodeQueries = func(r records.Record) []string {
			return geocode.CERApprovedQueries(cerPlace(r, nameColumn))
		}
	case "committed":
		spec.GeocodeQueries = func(r records.Record) []string {
			return geocode.CERCommittedQueries(cerPlace(r, nameColumn))
		}
	case "probable":
		spec.GeocodeQueries = func(r records.Record) []string {
			return geocode.CERProbableQueries(cerPlace(r, nameColumn))
		}
	}
	return spec, nil
}

func cerPlace(r records.Record, nameColumn string) geocode.CERPlace {
	return geocode.CERPlace{
		Name:       text(r[nameColumn]),
		State:      text(r["state"]),
		Postcode:   text(r["postcode"]),
		FuelSource: text(r["fuel_source"]),
	}
}

// splitCommittedDate derives integer year and month companions from the
// MMM-YYYY committed date, leaving the original label in place.
func splitCommittedDate(r records.Record) {
	raw, ok := r["committed_date"]
	if !ok {
		return
	}
	if year, month, parsed := SplitMonthYear(text(raw)); parsed {
		r["committed_date_year"] = year
		r["committed_date_month"] = month
	}
}
