package dataset

import (
	"strings"

	"energyetl/internal/schema"
	"energyetl/internal/transformer"
	"energyetl/internal/transformer/builtin"
)

// ABSTablePrefix namespaces the per-cell-block tables the spreadsheet
// explodes into.
const ABSTablePrefix = "abs_"

// ABS returns the policy for one spreadsheet cell-block. Each block becomes
// its own table named after the block's merged header; geographicLevel tags
// every row with the sheet's statistical-area level (e.g. "SA2"). ABS rows
// carry no addresses, so the source is never geocoded.
func ABS(block, geographicLevel string) Spec {
	chain := transformer.Chain{
		transformer.Func(dropUnnamed),
	}
	if geographicLevel != "" {
		chain = append(chain, builtin.Constant{Column: "geographic_level", Value: geographicLevel})
	}

	return Spec{
		Table: ABSTableName(block),
		Chain: chain,
		KindOverrides: map[string]schema.Kind{
			"code": schema.KindInteger,
			"year": schema.KindInteger,
		},
		TypeOverrides: map[string]string{
			"code":             "INTEGER",
			"label":            "VARCHAR(255)",
			"geographic_level": "VARCHAR(64)",
		},
		TextLimits: map[string]int{
			"label":            255,
			"geographic_level": 64,
		},
	}
}

// ABSTableName derives the table for a cell block from its merged header,
// via the same normalizer that shapes column names.
func ABSTableName(block string) string {
	name := schema.Normalize(block)
	if strings.HasPrefix(name, ABSTablePrefix) {
		return name
	}
	// Stay under the Postgres identifier limit with the prefix attached.
	const maxLen = 60 - len(ABSTablePrefix)
	if len(name) > maxLen {
		name = strings.TrimRight(name[:maxLen], "_")
	}
	return ABSTablePrefix + name
}
