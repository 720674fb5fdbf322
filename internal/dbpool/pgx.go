package dbpool

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// PgxFactory returns a connection factory dialing dsn with pgx.
// *pgx.Conn satisfies Conn directly.
func PgxFactory(dsn string) func(context.Context) (*pgx.Conn, error) {
	return func(ctx context.Context) (*pgx.Conn, error) {
		conn, err := pgx.Connect(ctx, dsn)
		if err != nil {
			return nil, fmt.Errorf("dbpool: connect: %w", err)
		}
		return conn, nil
	}
}

// EnsurePostGIS enables the postgis extension once at startup. Requires a
// role allowed to CREATE EXTENSION; on managed databases where the extension
// is preinstalled this is a no-op.
func EnsurePostGIS(ctx context.Context, p *Pool[*pgx.Conn]) error {
	conn, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	defer p.Release(ctx, conn)

	if _, err := conn.Exec(ctx, "CREATE EXTENSION IF NOT EXISTS postgis"); err != nil {
		return fmt.Errorf("dbpool: enable postgis: %w", err)
	}
	return nil
}
