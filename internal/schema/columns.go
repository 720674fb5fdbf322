package schema

// Column is one typed, normalized column of a fragment.
type Column struct {
	Name string
	Kind Kind
	// SQLType overrides Kind.SQLType() when set. Dataset policies use it for
	// bounded varchars and forced integer codes.
	SQLType string
}

// Type returns the SQL type for the column.
func (c Column) Type() string {
	if c.SQLType != "" {
		return c.SQLType
	}
	return c.Kind.SQLType()
}

// ColumnSet is an insertion-ordered collection of columns. Order matters:
// it fixes both the CREATE TABLE layout and the INSERT column list, and the
// two must agree.
type ColumnSet struct {
	cols   []Column
	byName map[string]int
}

// NewColumnSet returns an empty set with room for n columns.
func NewColumnSet(n int) *ColumnSet {
	return &ColumnSet{
		cols:   make([]Column, 0, n),
		byName: make(map[string]int, n),
	}
}

// Add appends col, or replaces the existing entry of the same name in place
// (order preserved).
func (s *ColumnSet) Add(col Column) {
	if i, ok := s.byName[col.Name]; ok {
		s.cols[i] = col
		return
	}
	s.byName[col.Name] = len(s.cols)
	s.cols = append(s.cols, col)
}

// Get returns the column with the given name.
func (s *ColumnSet) Get(name string) (Column, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Column{}, false
	}
	return s.cols[i], true
}

// Has reports whether name is in the set.
func (s *ColumnSet) Has(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// Names returns the column names in insertion order.
func (s *ColumnSet) Names() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Name
	}
	return out
}

// Columns returns the columns in insertion order.
func (s *ColumnSet) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Kinds returns the column kinds in insertion order.
func (s *ColumnSet) Kinds() []Kind {
	out := make([]Kind, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Kind
	}
	return out
}

// Len returns the number of columns.
func (s *ColumnSet) Len() int {
	return len(s.cols)
}
