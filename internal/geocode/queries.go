package geocode

import "strings"

// Query builders produce the per-dataset fallback chains, most specific
// first. Every chain ends with a broad ", Australia" query so a row with
// only a state still lands somewhere sensible. Fields holding placeholder
// tokens are treated as empty, and duplicate queries are dropped while
// preserving order.

// NGERPlace carries the location-bearing fields of an NGER facility row.
type NGERPlace struct {
	Facility        string
	State           string
	ReportingEntity string
	Corporation     string
}

// NGERQueries builds the fallback chain for an NGER facility.
func NGERQueries(p NGERPlace) []string {
	facility := cleanField(p.Facility)
	state := cleanField(p.State)
	reporting := cleanField(p.ReportingEntity)
	corp := cleanField(p.Corporation)

	var queries []string
	if facility != "" && state != "" {
		queries = append(queries, facility+", "+state+", Australia")
	}
	if facility != "" {
		queries = append(queries,
			facility+" facility, Australia",
			facility+", Australia",
		)
	}
	if reporting != "" && state != "" {
		queries = append(queries, reporting+", "+state+", Australia")
	}
	if corp != "" && state != "" {
		queries = append(queries, corp+", "+state+", Australia")
	}
	if state != "" {
		queries = append(queries, state+", Australia")
	}
	return dedupeQueries(queries)
}

// CERPlace carries the location-bearing fields of a CER power-station row.
type CERPlace struct {
	Name       string
	State      string
	Postcode   string
	FuelSource string
}

// CERApprovedQueries builds the chain for an approved power station, where
// postcodes are usually available and precise.
func CERApprovedQueries(p CERPlace) []string {
	name := cleanField(p.Name)
	state := cleanField(p.State)
	postcode := cleanField(p.Postcode)

	var queries []string
	if name != "" && state != "" {
		if postcode != "" {
			queries = append(queries,
				postcode+", "+state+", Australia",
				name+", "+postcode+", "+state+", Australia",
			)
		}
		if main := mainName(name); main != "" {
			queries = append(queries, main+", "+state+", Australia")
		}
		queries = append(queries,
			name+", "+state+", Australia",
			name+" power station, "+state+", Australia",
			state+", Australia",
		)
	}
	return dedupeQueries(queries)
}

// CERCommittedQueries builds the chain for a committed project, which often
// has no postcode and sometimes no state.
func CERCommittedQueries(p CERPlace) []string {
	return cerProjectQueries(p, func(name string) string {
		return name + " renewable energy, Australia"
	})
}

// CERProbableQueries builds the chain for a probable project, falling back
// through the fuel source when the name alone is ambiguous.
func CERProbableQueries(p CERPlace) []string {
	fuel := cleanField(p.FuelSource)
	state := cleanField(p.State)
	return cerProjectQueries(p, func(name string) string {
		if fuel == "" || state == "" {
			return ""
		}
		return name + " " + fuel + ", " + state + ", Australia"
	})
}

func cerProjectQueries(p CERPlace, last func(name string) string) []string {
	name := cleanField(p.Name)
	state := cleanField(p.State)
	if name == "" {
		return nil
	}

	var queries []string
	if main := mainName(name); main != "" {
		if state != "" {
			queries = append(queries, main+", "+state+", Australia")
		}
		queries = append(queries, main+", Australia")
	}
	if state != "" {
		queries = append(queries,
			name+", "+state+", Australia",
			state+", Australia",
		)
	}
	queries = append(queries, name+" power station, Australia")
	if q := last(name); q != "" {
		queries = append(queries, q)
	}
	return dedupeQueries(queries)
}

// mainName returns the part before the first comma of a compound name like
// "Snowy 2.0, Stage 1", or "" when the name has no comma.
func mainName(name string) string {
	i := strings.IndexByte(name, ',')
	if i < 0 {
		return ""
	}
	return strings.TrimSpace(name[:i])
}

// placeholderTokens are values that mean "unknown" in source location fields.
var placeholderTokens = map[string]struct{}{
	"": {}, "-": {}, "n/a": {}, "na": {}, "nan": {}, "none": {}, "null": {},
}

func cleanField(s string) string {
	s = strings.TrimSpace(s)
	if _, bad := placeholderTokens[strings.ToLower(s)]; bad {
		return ""
	}
	return s
}

func dedupeQueries(queries []string) []string {
	seen := make(map[string]struct{}, len(queries))
	out := queries[:0]
	for _, q := range queries {
		key := strings.ToLower(q)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, q)
	}
	return out
}
