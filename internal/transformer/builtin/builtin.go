// Package builtin holds the general-purpose transformers dataset policies
// are assembled from.
package builtin

import (
	"energyetl/internal/schema"
	"energyetl/pkg/records"
)

// Coalesce fills Target from the first Source key holding a usable value and
// removes the source keys. It backs column alias groups: several source
// spellings collapse into one canonical column.
type Coalesce struct {
	Target  string
	Sources []string
}

func (t Coalesce) Apply(in []records.Record) []records.Record {
	for _, rec := range in {
		for _, src := range t.Sources {
			v, ok := rec[src]
			if !ok {
				continue
			}
			delete(rec, src)
			if _, taken := rec[t.Target]; !taken && !schema.IsMissing(v) {
				rec[t.Target] = v
			}
		}
	}
	return in
}

// MapValues applies Fn to the named column of every record that has it.
type MapValues struct {
	Column string
	Fn     func(any) any
}

func (t MapValues) Apply(in []records.Record) []records.Record {
	for _, rec := range in {
		if v, ok := rec[t.Column]; ok {
			rec[t.Column] = t.Fn(v)
		}
	}
	return in
}

// Derive mutates each record, typically adding companion columns computed
// from existing ones.
type Derive struct {
	Fn func(records.Record)
}

func (t Derive) Apply(in []records.Record) []records.Record {
	for _, rec := range in {
		t.Fn(rec)
	}
	return in
}

// Drop removes the named columns from every record.
type Drop struct {
	Columns []string
}

func (t Drop) Apply(in []records.Record) []records.Record {
	for _, rec := range in {
		for _, c := range t.Columns {
			delete(rec, c)
		}
	}
	return in
}

// Constant sets the named column to a fixed value on every record.
type Constant struct {
	Column string
	Value  any
}

func (t Constant) Apply(in []records.Record) []records.Record {
	for _, rec := range in {
		rec[t.Column] = t.Value
	}
	return in
}
