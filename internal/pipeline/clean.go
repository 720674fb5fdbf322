package pipeline

import (
	"fmt"
	"sort"

	"energyetl/internal/dataset"
	"energyetl/internal/schema"
	"energyetl/internal/transformer/builtin"
	"energyetl/pkg/records"
)

// CleanFragment is a fragment after name normalization, policy transforms,
// inference and coercion. Columns fixes both the DDL layout and the insert
// column list; Records hold the coerced values keyed by final column name.
type CleanFragment struct {
	Source  string
	Table   string
	Columns *schema.ColumnSet
	Records []records.Record
}

// Clean runs one fragment through its dataset policy. Raw headers become
// normalized identifiers, the policy chain rewrites records, kinds are
// inferred from the transformed values (policy overrides win), and every cell
// is coerced to its column kind. Ragged rows are padded with NULLs; surplus
// cells are dropped.
func Clean(frag Fragment, spec dataset.Spec, inf schema.Inference) (*CleanFragment, error) {
	if len(frag.Columns) == 0 {
		return nil, fmt.Errorf("clean %s: fragment has no columns", frag.Source)
	}

	names := schema.NormalizeMany(frag.Columns)

	recs := make([]records.Record, 0, len(frag.Rows))
	for _, row := range frag.Rows {
		rec := make(records.Record, len(names))
		for i, name := range names {
			if i < len(row) {
				rec[name] = row[i]
			} else {
				rec[name] = nil
			}
		}
		recs = append(recs, rec)
	}

	recs = spec.Chain.Apply(recs)

	ordered := orderColumns(names, spec, recs)

	cols := schema.NewColumnSet(len(ordered))
	for _, name := range ordered {
		kind, pinned := spec.KindOverrides[name]
		if !pinned {
			kind = inf.Infer(columnValues(recs, name))
		}
		cols.Add(schema.Column{
			Name:    name,
			Kind:    kind,
			SQLType: spec.TypeOverrides[name],
		})
	}

	for _, rec := range recs {
		for _, col := range cols.Columns() {
			rec[col.Name] = coerceValue(rec[col.Name], col.Kind, spec.TextLimits[col.Name])
		}
	}

	return &CleanFragment{
		Source:  frag.Source,
		Table:   spec.Table,
		Columns: cols,
		Records: recs,
	}, nil
}

// Rows renders the records as position-aligned rows matching Columns order.
func (cf *CleanFragment) Rows() [][]any {
	names := cf.Columns.Names()
	rows := make([][]any, len(cf.Records))
	for i, rec := range cf.Records {
		row := make([]any, len(names))
		for j, name := range names {
			row[j] = rec[name]
		}
		rows[i] = row
	}
	return rows
}

// orderColumns fixes the final column order: the normalized input order with
// alias renames applied, followed by chain-added columns sorted by name so
// the layout is deterministic regardless of map iteration.
func orderColumns(names []string, spec dataset.Spec, recs []records.Record) []string {
	renames := make(map[string]string)
	for _, t := range spec.Chain {
		if c, ok := t.(builtin.Coalesce); ok {
			for _, src := range c.Sources {
				renames[src] = c.Target
			}
		}
	}

	present := make(map[string]struct{})
	for _, rec := range recs {
		for key := range rec {
			present[key] = struct{}{}
		}
	}

	ordered := make([]string, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if target, ok := renames[name]; ok {
			name = target
		}
		if _, dup := seen[name]; dup {
			continue
		}
		// An empty fragment still fixes its table layout from the headers.
		if _, ok := present[name]; !ok && len(recs) > 0 {
			continue
		}
		seen[name] = struct{}{}
		ordered = append(ordered, name)
	}

	var added []string
	for name := range present {
		if _, ok := seen[name]; !ok {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	return append(ordered, added...)
}

// columnValues gathers one column across all records for inference.
func columnValues(recs []records.Record, name string) []any {
	vals := make([]any, 0, len(recs))
	for _, rec := range recs {
		vals = append(vals, rec[name])
	}
	return vals
}

// coerceValue converts one cell to its column kind. Values the policy chain
// already typed (bools, derived ints, floats) pass through untouched.
func coerceValue(v any, kind schema.Kind, textLimit int) any {
	switch v.(type) {
	case nil:
		return nil
	case bool, int, int32, int64, float32, float64:
		return v
	}
	if kind == schema.KindText {
		return schema.CleanText(v, textLimit)
	}
	return schema.Coerce(v, kind)
}
