package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"energyetl/internal/storage/postgres"
)

// fakeDB records executed statements behind the Execer/Beginner seams, the
// same stand-in shape the storage tests use.
type fakeDB struct {
	mu    sync.Mutex
	execs []string

	failOn   string
	failWith error
}

func (db *fakeDB) Exec(_ context.Context, sql string, _ ...any) (pgconn.CommandTag, error) {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.execs = append(db.execs, sql)
	if db.failOn != "" && strings.Contains(sql, db.failOn) {
		return pgconn.CommandTag{}, db.failWith
	}
	return pgconn.NewCommandTag(fmt.Sprintf("INSERT 0 %d", countRows(sql))), nil
}

func (db *fakeDB) Begin(context.Context) (pgx.Tx, error) {
	return &fakeTx{db: db}, nil
}

func (db *fakeDB) statements() []string {
	db.mu.Lock()
	defer db.mu.Unlock()
	out := make([]string, len(db.execs))
	copy(out, db.execs)
	return out
}

// countRows derives an affected-row count from a rendered multi-row INSERT.
func countRows(sql string) int {
	if !strings.HasPrefix(sql, "INSERT INTO") {
		return 0
	}
	return strings.Count(sql, "(") - 1 // one for the column list
}

type fakeTx struct {
	db *fakeDB
}

func (t *fakeTx) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return t.db.Exec(ctx, sql, args...)
}

func (t *fakeTx) Commit(context.Context) error   { return nil }
func (t *fakeTx) Rollback(context.Context) error { return nil }

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

// fakePool hands out one shared fakeDB and counts checkouts.
type fakePool struct {
	db *fakeDB

	mu          sync.Mutex
	acquired    int
	released    int
	failAcquire bool
}

func (p *fakePool) Acquire(context.Context) (postgres.Beginner, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failAcquire {
		return nil, errors.New("pool exhausted")
	}
	p.acquired++
	return p.db, nil
}

func (p *fakePool) Release(postgres.Beginner) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.released++
}
