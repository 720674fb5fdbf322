// Package transformer defines the record-rewriting step applied between
// column normalization and type coercion. Dataset policies compose Chains of
// the builtin transformers to rename aliases, standardize values, and derive
// companion columns.
package transformer

import "energyetl/pkg/records"

// Transformer rewrites a batch of records.
type Transformer interface {
	Apply(in []records.Record) []records.Record
}

// Chain is an ordered list of transformers applied left to right.
type Chain []Transformer

func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}

// Func adapts a plain function to the Transformer interface.
type Func func([]records.Record) []records.Record

func (f Func) Apply(in []records.Record) []records.Record { return f(in) }
