package ddl

// ColumnDef is one column of a managed table. Default is emitted as a raw
// SQL expression; callers own its correctness.
type ColumnDef struct {
	Name    string
	SQLType string
	NotNull bool
	Default string
}

// TableDef names a table and its ordered dynamic columns. The surrogate
// primary key is not listed here; BuildCreateTable adds it.
type TableDef struct {
	Name    string
	Columns []ColumnDef
}
