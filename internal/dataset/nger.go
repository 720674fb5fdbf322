package dataset

import (
	"energyetl/internal/geocode"
	"energyetl/internal/schema"
	"energyetl/internal/transformer"
	"energyetl/internal/transformer/builtin"
	"energyetl/pkg/records"
)

// NGERTable is the unified table all reporting years land in.
const NGERTable = "nger_unified"

// ngerAliases maps canonical NGER column names to the spellings the feed has
// used across reporting years, in preference order.
var ngerAliases = []builtin.Coalesce{
	{Target: "facility_name", Sources: []string{"facilityname"}},
	{Target: "primary_fuel", Sources: []string{"primaryfuel"}},
	{Target: "reporting_entity", Sources: []string{"reportingentity"}},
	{Target: "controlling_corporation", Sources: []string{"controllingcorporation"}},
	{Target: "facility_type", Sources: []string{"type"}},
	{Target: "electricity_production_gj", Sources: []string{"electricityproductiongj"}},
	{Target: "electricity_production_mwh", Sources: []string{"electricityproductionmwh"}},
	{Target: "emission_intensity_tco2e_mwh", Sources: []string{"emissionintensitytco2emwh", "emissionintensitytmwh"}},
	{Target: "scope1_emissions_tco2e", Sources: []string{"scope1tco2e", "totalscope1emissionstco2e"}},
	{Target: "scope2_emissions_tco2e", Sources: []string{"scope2tco2e", "totalscope2emissionstco2e", "totalscope2emissionstco2e2"}},
	{Target: "total_emissions_tco2e", Sources: []string{"totalemissionstco2e"}},
	{Target: "grid_info", Sources: []string{"grid"}},
	{Target: "grid_connected", Sources: []string{"gridconnected", "gridconnected2"}},
	{Target: "important_notes", Sources: []string{"importantnotes"}},
}

// NGER returns the policy for one reporting year of the facility feed. Every
// year lands in the same unified table, tagged with the year label and its
// derived start/stop years.
func NGER(yearLabel string) Spec {
	chain := make(transformer.Chain, 0, len(ngerAliases)+6)
	for _, alias := range ngerAliases {
		chain = append(chain, alias)
	}
	chain = append(chain,
		builtin.MapValues{Column: "state", Fn: stateValue},
		builtin.MapValues{Column: "primary_fuel", Fn: StandardizeFuelType},
		builtin.MapValues{Column: "facility_name", Fn: CleanFacilityName},
		builtin.MapValues{Column: "grid_connected", Fn: ParseGridConnected},
		builtin.Constant{Column: "year_label", Value: yearLabel},
		builtin.Derive{Fn: func(r records.Record) {
			if start, stop, ok := SplitYearLabel(yearLabel); ok {
				r["start_year"] = start
				r["stop_year"] = stop
			}
		}},
	)

	return Spec{
		Table: NGERTable,
		Chain: chain,
		KindOverrides: map[string]schema.Kind{
			"start_year":                   schema.KindInteger,
			"stop_year":                    schema.KindInteger,
			"electricity_production_gj":    schema.KindFloat,
			"electricity_production_mwh":   schema.KindFloat,
			"emission_intensity_tco2e_mwh": schema.KindFloat,
			"scope1_emissions_tco2e":       schema.KindFloat,
			"scope2_emissions_tco2e":       schema.KindFloat,
			"total_emissions_tco2e":        schema.KindFloat,
		},
		TypeOverrides: map[string]string{
			"year_label":       "VARCHAR(32)",
			"facility_name":    "VARCHAR(255)",
			"state":            "VARCHAR(64)",
			"primary_fuel":     "VARCHAR(128)",
			"reporting_entity": "VARCHAR(255)",
			"facility_type":    "VARCHAR(128)",
			"grid_info":        "VARCHAR(128)",
			"grid_connected":   "BOOLEAN",
		},
		TextLimits: map[string]int{
			"year_label":       32,
			"facility_name":    255,
			"state":            64,
			"primary_fuel":     128,
			"reporting_entity": 255,
			"facility_type":    128,
			"grid_info":        128,
		},
		GeocodeQueries: func(r records.Record) []string {
			return geocode.NGERQueries(geocode.NGERPlace{
				Facility:        text(r["facility_name"]),
				State:           text(r["state"]),
				ReportingEntity: text(r["reporting_entity"]),
				Corporation:     text(r["controlling_corporation"]),
			})
		},
	}
}
