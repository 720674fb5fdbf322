// Package dataset holds the per-source cleaning policies: which table a
// fragment lands in, how source columns map onto canonical names, which
// values get standardized, and how geocoding queries are built for its rows.
// The three sources are the NGER facility feed, the CER power-station report
// tables, and ABS spreadsheet cell-blocks.
package dataset

import "strings"

// stateAbbrevs maps every accepted spelling of an Australian state to its
// standard abbreviation: full names, ABS numeric codes, and the
// abbreviations themselves.
var stateAbbrevs = map[string]string{
	"new south wales":              "NSW",
	"victoria":                     "VIC",
	"queensland":                   "QLD",
	"south australia":              "SA",
	"western australia":            "WA",
	"tasmania":                     "TAS",
	"northern territory":           "NT",
	"australian capital territory": "ACT",

	"1": "NSW",
	"2": "VIC",
	"3": "QLD",
	"4": "SA",
	"5": "WA",
	"6": "TAS",
	"7": "NT",
	"8": "ACT",
	"9": "OT",

	"nsw": "NSW",
	"vic": "VIC",
	"qld": "QLD",
	"sa":  "SA",
	"wa":  "WA",
	"tas": "TAS",
	"nt":  "NT",
	"act": "ACT",
	"ot":  "OT",
}

// stateFullNames is the reverse mapping, for display.
var stateFullNames = map[string]string{
	"NSW": "New South Wales",
	"VIC": "Victoria",
	"QLD": "Queensland",
	"SA":  "South Australia",
	"WA":  "Western Australia",
	"TAS": "Tasmania",
	"NT":  "Northern Territory",
	"ACT": "Australian Capital Territory",
	"OT":  "Other Territories",
}

// StandardizeState maps any accepted state spelling to its abbreviation.
// Trailing ", Australia" is tolerated. Unrecognizable or placeholder input
// returns "".
func StandardizeState(raw string) string {
	s := strings.TrimSpace(raw)
	lower := strings.ToLower(s)
	switch lower {
	case "", "-", "n/a", "na", "nan", "none", "null":
		return ""
	}

	lower = strings.TrimSuffix(lower, ", australia")
	lower = strings.TrimSpace(lower)

	if abbrev, ok := stateAbbrevs[lower]; ok {
		return abbrev
	}

	// A full name embedded in extra text still identifies the state.
	for name, abbrev := range stateAbbrevs {
		if len(name) > 3 && strings.Contains(lower, name) {
			return abbrev
		}
	}
	return ""
}

// StateFullName returns the display name for a state abbreviation, or ""
// when the abbreviation is unknown.
func StateFullName(abbrev string) string {
	return stateFullNames[strings.ToUpper(strings.TrimSpace(abbrev))]
}
