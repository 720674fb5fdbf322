// Package records defines the loosely-typed record shape shared between
// dataset cleaners and the pipeline. A Record is one source row keyed by
// canonical column name; values are raw (string) before coercion and typed
// (int64/float64/string/nil) after.
package records

// Record is a single row of named cell values.
type Record map[string]any

// Clone returns a shallow copy of r.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Get returns the value for key, or nil when absent.
func (r Record) Get(key string) any {
	if v, ok := r[key]; ok {
		return v
	}
	return nil
}
