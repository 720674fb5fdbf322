// Package ddl renders the small set of Postgres DDL statements the loader
// needs: idempotent CREATE TABLE, additive ALTER TABLE, and spatial index
// creation. Identifiers are always double-quoted; every statement carries
// IF NOT EXISTS so concurrent partitions can race on the same table safely.
package ddl

import (
	"fmt"
	"strings"
)

// SurrogateKey is the synthetic primary key column prepended to every
// managed table.
const SurrogateKey = "id"

// BuildCreateTable renders CREATE TABLE IF NOT EXISTS for t. The surrogate
// "id BIGSERIAL PRIMARY KEY" column always comes first; the caller's columns
// follow in the order given.
func BuildCreateTable(t TableDef) (string, error) {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: table %s needs at least one column", name)
	}

	cols := make([]string, 0, len(t.Columns)+1)
	cols = append(cols, QuoteIdent(SurrogateKey)+" BIGSERIAL PRIMARY KEY")

	for _, c := range t.Columns {
		def, err := renderColumn(name, c)
		if err != nil {
			return "", err
		}
		cols = append(cols, def)
	}

	return fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (\n  %s\n)",
		QuoteIdent(name),
		strings.Join(cols, ",\n  "),
	), nil
}

// BuildAddColumn renders the additive ALTER TABLE statement for one column.
func BuildAddColumn(table string, c ColumnDef) (string, error) {
	def, err := renderColumn(table, c)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"ALTER TABLE %s ADD COLUMN IF NOT EXISTS %s",
		QuoteIdent(table), def,
	), nil
}

// BuildGiSTIndex renders an idempotent spatial index statement. The index
// name is derived from the table and column so repeat runs hit the same one.
func BuildGiSTIndex(table, column string) string {
	idx := fmt.Sprintf("idx_%s_%s", table, column)
	return fmt.Sprintf(
		"CREATE INDEX IF NOT EXISTS %s ON %s USING GIST (%s)",
		QuoteIdent(idx), QuoteIdent(table), QuoteIdent(column),
	)
}

// QuoteIdent double-quotes a Postgres identifier, escaping embedded quotes.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func renderColumn(table string, c ColumnDef) (string, error) {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return "", fmt.Errorf("ddl: column with empty name in table %s", table)
	}
	typ := strings.TrimSpace(c.SQLType)
	if typ == "" {
		return "", fmt.Errorf("ddl: column %s missing SQL type", name)
	}

	var sb strings.Builder
	sb.WriteString(QuoteIdent(name))
	sb.WriteByte(' ')
	sb.WriteString(typ)
	if c.NotNull {
		sb.WriteString(" NOT NULL")
	}
	if def := strings.TrimSpace(c.Default); def != "" {
		sb.WriteString(" DEFAULT ")
		sb.WriteString(def)
	}
	return sb.String(), nil
}
