package postgres

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// fakeDB records executed statements and lets tests inject failures by SQL
// substring. It stands in for a *pgx.Conn behind the Execer/Beginner seams.
type fakeDB struct {
	mu    sync.Mutex
	execs []execCall
	txs   []*fakeTx

	failOn   string
	failWith error
}

type execCall struct {
	sql  string
	args []any
}

func (db *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.execs = append(db.execs, execCall{sql: sql, args: args})
	if db.failOn != "" && strings.Contains(sql, db.failOn) {
		return pgconn.CommandTag{}, db.failWith
	}
	return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", countRows(sql))), nil
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	tx := &fakeTx{db: db}
	db.mu.Lock()
	db.txs = append(db.txs, tx)
	db.mu.Unlock()
	return tx, nil
}

func (db *fakeDB) statements() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]string, len(db.execs))
	for i, c := range db.execs {
		out[i] = c.sql
	}
	return out
}

// countRows derives an affected-row count from a rendered multi-row INSERT
// so RowsAffected sums correctly in loader tests.
func countRows(sql string) int {
	if !strings.HasPrefix(sql, "INSERT INTO") {
		return 0
	}
	return strings.Count(sql, "(") - 1 // one for the column list
}

// fakeTx funnels Exec through the parent fakeDB and tracks outcome. Only the
// methods the loader touches are implemented.
type fakeTx struct {
	db         *fakeDB
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *fakeTx) Commit(context.Context) error {
	t.committed = true
	return nil
}

func (t *fakeTx) Rollback(context.Context) error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

func (t *fakeTx) Begin(context.Context) (pgx.Tx, error) { panic("not implemented") }
func (t *fakeTx) Conn() *pgx.Conn                       { panic("not implemented") }
func (t *fakeTx) LargeObjects() pgx.LargeObjects        { panic("not implemented") }
func (t *fakeTx) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults {
	panic("not implemented")
}
func (t *fakeTx) CopyFrom(context.Context, pgx.Identifier, []string, pgx.CopyFromSource) (int64, error) {
	panic("not implemented")
}
func (t *fakeTx) Prepare(context.Context, string, string) (*pgconn.StatementDescription, error) {
	panic("not implemented")
}
func (t *fakeTx) Query(context.Context, string, ...any) (pgx.Rows, error) {
	panic("not implemented")
}
func (t *fakeTx) QueryRow(context.Context, string, ...any) pgx.Row {
	panic("not implemented")
}
