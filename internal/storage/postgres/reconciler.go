// Package postgres owns the relational side of a load: additive schema
// reconciliation, transactional batch inserts, and PostGIS geometry
// maintenance. All statements go through small Execer/Beginner seams so the
// package is testable without a server; production hands in *pgx.Conn
// handles from the pool.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"

	"energyetl/internal/ddl"
	"energyetl/internal/schema"
)

// Execer is the statement-execution surface. *pgx.Conn and pgx.Tx satisfy it.
type Execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// geocodeColumns are the companion columns added to a table the first time a
// fragment carries geocoding results for it.
var geocodeColumns = []schema.Column{
	{Name: "lat", SQLType: "NUMERIC"},
	{Name: "lon", SQLType: "NUMERIC"},
	{Name: "formatted_address", SQLType: "VARCHAR(255)"},
	{Name: "place_id", SQLType: "VARCHAR(255)"},
	{Name: "postcode", SQLType: "VARCHAR(16)"},
	{Name: "bbox_south", SQLType: "NUMERIC"},
	{Name: "bbox_north", SQLType: "NUMERIC"},
	{Name: "bbox_west", SQLType: "NUMERIC"},
	{Name: "bbox_east", SQLType: "NUMERIC"},
}

// GeocodeColumns returns the geocode companion columns in DDL order.
func GeocodeColumns() []schema.Column {
	out := make([]schema.Column, len(geocodeColumns))
	copy(out, geocodeColumns)
	return out
}

// GeocodeColumnNames returns the geocode companion column names in DDL order.
func GeocodeColumnNames() []string {
	out := make([]string, len(geocodeColumns))
	for i, c := range geocodeColumns {
		out[i] = c.Name
	}
	return out
}

// Reconciler keeps live tables in sync with incoming fragments. All
// reconciliation is additive: new columns are added, existing columns are
// never retyped or dropped, so concurrent partitions can reconcile the same
// table without coordination.
type Reconciler struct {
	db  Execer
	log *zap.Logger

	mu          sync.Mutex
	geocodeDone map[string]bool
}

func NewReconciler(db Execer, log *zap.Logger) *Reconciler {
	return &Reconciler{
		db:          db,
		log:         log,
		geocodeDone: make(map[string]bool),
	}
}

// EnsureTable creates the table if it does not exist, with the surrogate id
// key first and cols following in the given order.
func (r *Reconciler) EnsureTable(ctx context.Context, table string, cols []schema.Column) error {
	def := ddl.TableDef{Name: table}
	for _, c := range cols {
		def.Columns = append(def.Columns, ddl.ColumnDef{Name: c.Name, SQLType: c.Type()})
	}
	sql, err := ddl.BuildCreateTable(def)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, sql); err != nil {
		if isDuplicateObject(err) {
			return nil
		}
		return fmt.Errorf("ensure table %s: %w", table, err)
	}
	r.log.Debug("table ensured", zap.String("table", table), zap.Int("columns", len(cols)))
	return nil
}

// EnsureColumns adds any of cols the table is missing. Losing a creation
// race to another partition is fine: duplicate-column and duplicate-table
// errors are treated as success.
func (r *Reconciler) EnsureColumns(ctx context.Context, table string, cols []schema.Column) error {
	for _, c := range cols {
		sql, err := ddl.BuildAddColumn(table, ddl.ColumnDef{Name: c.Name, SQLType: c.Type()})
		if err != nil {
			return err
		}
		if _, err := r.db.Exec(ctx, sql); err != nil {
			if isDuplicateObject(err) {
				continue
			}
			return fmt.Errorf("ensure column %s.%s: %w", table, c.Name, err)
		}
	}
	return nil
}

// EnsureGeocodeColumns lazily adds the geocode companion columns, once per
// table per process.
func (r *Reconciler) EnsureGeocodeColumns(ctx context.Context, table string) error {
	r.mu.Lock()
	done := r.geocodeDone[table]
	r.mu.Unlock()
	if done {
		return nil
	}

	if err := r.EnsureColumns(ctx, table, geocodeColumns); err != nil {
		return err
	}

	r.mu.Lock()
	r.geocodeDone[table] = true
	r.mu.Unlock()
	r.log.Info("geocode columns ensured", zap.String("table", table))
	return nil
}

// isDuplicateObject matches the SQLSTATEs raised when two partitions race on
// the same CREATE or ADD COLUMN: 42701 duplicate_column, 42P07
// duplicate_table.
func isDuplicateObject(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "42701" || pgErr.Code == "42P07"
}
