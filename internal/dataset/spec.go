package dataset

import (
	"fmt"
	"strings"

	"energyetl/internal/schema"
	"energyetl/internal/transformer"
	"energyetl/pkg/records"
)

// Spec is one source's cleaning policy: the target table, the record
// transformations applied after name normalization, per-column type and kind
// pins, and the geocode query builder (nil when the source is not geocoded).
type Spec struct {
	Table string
	Chain transformer.Chain

	// KindOverrides pins a coercion kind for columns the sampler would
	// misread, like year columns delivered as "2023.0".
	KindOverrides map[string]schema.Kind
	// TypeOverrides pins SQL column types, mostly bounded varchars.
	TypeOverrides map[string]string
	// TextLimits bounds text values at insert time, matching the varchar
	// widths in TypeOverrides.
	TextLimits map[string]int

	// GeocodeQueries builds the fallback query chain for one cleaned record.
	GeocodeQueries func(records.Record) []string
}

// ForSource resolves a partition source tag to its policy:
//
//	nger:<year-label>          e.g. nger:2023-24
//	cer:approved|committed|probable
//	abs:<cell-block>[:<geographic-level>]
func ForSource(source string) (Spec, error) {
	parts := strings.SplitN(source, ":", 3)
	switch parts[0] {
	case "nger":
		if len(parts) < 2 || parts[1] == "" {
			return Spec{}, fmt.Errorf("dataset: nger source %q needs a year label", source)
		}
		return NGER(parts[1]), nil
	case "cer":
		if len(parts) < 2 {
			return Spec{}, fmt.Errorf("dataset: cer source %q needs a report type", source)
		}
		return CER(parts[1])
	case "abs":
		if len(parts) < 2 || parts[1] == "" {
			return Spec{}, fmt.Errorf("dataset: abs source %q needs a cell block", source)
		}
		level := ""
		if len(parts) == 3 {
			level = parts[2]
		}
		return ABS(parts[1], level), nil
	default:
		return Spec{}, fmt.Errorf("dataset: unknown source %q", source)
	}
}

// text renders a record value for query building.
func text(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// stateValue standardizes a state cell, mapping unrecognizable values to
// NULL rather than keeping source noise.
func stateValue(v any) any {
	if s := StandardizeState(text(v)); s != "" {
		return s
	}
	return nil
}

// dropUnnamed removes the placeholder columns the normalizer assigns to
// headerless scraped cells; their values are layout artifacts.
func dropUnnamed(in []records.Record) []records.Record {
	for _, rec := range in {
		for key := range rec {
			if strings.HasPrefix(key, "unnamed_column") {
				delete(rec, key)
			}
		}
	}
	return in
}
