package dataset

import (
	"fmt"
	"regexp"
	"strings"

	"energyetl/internal/schema"
)

// fuelNames maps lowercase fuel spellings to their canonical form. Longer
// keys are matched before shorter ones so "black coal" is not swallowed by
// "coal".
var fuelNames = []struct {
	match string
	name  string
}{
	{"coal seam methane", "Coal Seam Gas"},
	{"coal seam gas", "Coal Seam Gas"},
	{"waste coal mine gas", "Coal Mine Gas"},
	{"coal mine gas", "Coal Mine Gas"},
	{"landfill gas", "Landfill Gas"},
	{"battery storage", "Battery Storage"},
	{"battery", "Battery Storage"},
	{"black coal", "Black Coal"},
	{"brown coal", "Brown Coal"},
	{"natural gas", "Natural Gas"},
	{"bagasse", "Bagasse"},
	{"biomass", "Biomass"},
	{"biofuel", "Biofuel"},
	{"diesel", "Diesel"},
	{"solar", "Solar"},
	{"hydro", "Hydro"},
	{"wind", "Wind"},
	{"wood", "Biomass"},
	{"coal", "Coal"},
	{"gas", "Natural Gas"},
}

// StandardizeFuelType maps free-text fuel descriptions onto a unified
// vocabulary. Unknown fuels come back title-cased rather than nil so rare
// fuels survive cleaning.
func StandardizeFuelType(v any) any {
	if schema.IsMissing(v) {
		return nil
	}
	s := strings.TrimSpace(asText(v))
	lower := strings.ToLower(s)

	for _, f := range fuelNames {
		if lower == f.match {
			return f.name
		}
	}
	for _, f := range fuelNames {
		if strings.Contains(lower, f.match) {
			return f.name
		}
	}
	return titleCase(s)
}

// stationSuffixes are redundant descriptors scraped pages append to CER
// station names, like " - Solar - QLD" or " w SGU".
var stationSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\s*-\s*(Solar|Wind|Gas|Hydro|Battery)\s*(w\s*SGU)?\s*-\s*[A-Z]{2,3}$`),
	regexp.MustCompile(`(?i)\s*-\s*(Solar|Wind|Gas|Hydro|Battery)$`),
	regexp.MustCompile(`(?i)\s*w\s*SGU\s*$`),
	regexp.MustCompile(`(?i)\s*wSGU\s*$`),
}

var (
	dashSpacing    = regexp.MustCompile(`\s*-\s*`)
	commaSpacing   = regexp.MustCompile(`\s*,\s*`)
	bracketSpacing = regexp.MustCompile(`\s*\(\s*([^)]+?)\s*\)\s*`)
	multiSpace     = regexp.MustCompile(`\s+`)
)

// summaryRows are aggregate rows that must pass through name cleaning
// untouched so downstream filters can recognize them.
var summaryRows = map[string]struct{}{
	"corporate total": {}, "facility": {}, "total": {}, "summary": {},
}

// CleanFacilityName normalizes an NGER facility name: consistent spacing
// around separators and brackets, collapsed whitespace.
func CleanFacilityName(v any) any {
	return cleanName(v, false)
}

// CleanStationName normalizes a CER station/project name, additionally
// stripping the scraped descriptor suffixes.
func CleanStationName(v any) any {
	return cleanName(v, true)
}

func cleanName(v any, station bool) any {
	if schema.IsMissing(v) {
		return nil
	}
	name := strings.TrimSpace(asText(v))
	if _, summary := summaryRows[strings.ToLower(name)]; summary {
		return name
	}

	if station {
		for _, re := range stationSuffixes {
			name = re.ReplaceAllString(name, "")
		}
	}

	name = dashSpacing.ReplaceAllString(name, " - ")
	name = commaSpacing.ReplaceAllString(name, ", ")
	name = bracketSpacing.ReplaceAllString(name, " ($1)")
	name = strings.TrimSpace(multiSpace.ReplaceAllString(name, " "))
	return name
}

var (
	gridTruthy = map[string]struct{}{
		"true": {}, "yes": {}, "1": {}, "y": {}, "t": {}, "connected": {},
		"on-grid": {}, "on grid": {}, "ongrid": {}, "on": {},
	}
	gridFalsy = map[string]struct{}{
		"false": {}, "no": {}, "0": {}, "n": {}, "f": {}, "not connected": {},
		"disconnected": {}, "off-grid": {}, "off grid": {}, "offgrid": {}, "off": {},
	}
)

// ParseGridConnected maps the NGER grid-connection vocabulary to a bool.
// Unrecognized values come back nil, not false.
func ParseGridConnected(v any) any {
	if b, ok := v.(bool); ok {
		return b
	}
	if schema.IsMissing(v) {
		return nil
	}
	s := strings.ToLower(strings.TrimSpace(asText(v)))
	if _, ok := gridTruthy[s]; ok {
		return true
	}
	if _, ok := gridFalsy[s]; ok {
		return false
	}
	return nil
}

func asText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

func titleCase(s string) string {
	words := strings.Fields(strings.ToLower(s))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
