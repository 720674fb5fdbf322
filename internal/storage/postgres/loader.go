package postgres

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"energyetl/internal/ddl"
)

const (
	// DefaultBatchSize is used when the configured batch size is zero.
	DefaultBatchSize = 5000
	minBatchSize     = 1000
	maxBatchSize     = 10000

	// maxStatementParams keeps each INSERT under the Postgres extended
	// protocol limit of 65535 bind parameters.
	maxStatementParams = 65000
)

// Beginner opens transactions on top of statement execution. *pgx.Conn
// satisfies it.
type Beginner interface {
	Execer
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Loader writes coerced fragments with chunked multi-row INSERTs. One
// fragment is one transaction: a failed chunk rolls back every row of the
// fragment, so reruns never see partial loads.
type Loader struct {
	db        Beginner
	batchSize int
	log       *zap.Logger
}

// NewLoader clamps batchSize into [1000, 10000]; zero selects the default.
func NewLoader(db Beginner, batchSize int, log *zap.Logger) *Loader {
	switch {
	case batchSize == 0:
		batchSize = DefaultBatchSize
	case batchSize < minBatchSize:
		batchSize = minBatchSize
	case batchSize > maxBatchSize:
		batchSize = maxBatchSize
	}
	return &Loader{db: db, batchSize: batchSize, log: log}
}

// BatchSize returns the effective rows-per-statement chunk size.
func (l *Loader) BatchSize() int { return l.batchSize }

// Load inserts rows into table under a single transaction and returns the
// number of rows written. Rows must be position-aligned with columns.
func (l *Loader) Load(ctx context.Context, table string, columns []string, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if len(columns) == 0 {
		return 0, fmt.Errorf("load %s: no columns", table)
	}

	chunkRows := l.batchSize
	if perRow := len(columns); chunkRows*perRow > maxStatementParams {
		chunkRows = maxStatementParams / perRow
	}

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("load %s: begin: %w", table, err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var total int64
	for start := 0; start < len(rows); start += chunkRows {
		end := start + chunkRows
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]

		sql, args, err := buildInsert(table, columns, chunk)
		if err != nil {
			return 0, fmt.Errorf("load %s: %w", table, err)
		}
		tag, err := tx.Exec(ctx, sql, args...)
		if err != nil {
			return 0, fmt.Errorf("load %s: rows %d..%d: %w", table, start, end-1, err)
		}
		total += tag.RowsAffected()
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("load %s: commit: %w", table, err)
	}

	l.log.Info("fragment loaded",
		zap.String("table", table),
		zap.String("rows", humanize.Comma(total)),
		zap.Int("columns", len(columns)),
	)
	return total, nil
}

// buildInsert renders one multi-row INSERT and its flattened arguments.
func buildInsert(table string, columns []string, rows [][]any) (string, []any, error) {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = ddl.QuoteIdent(c)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO ")
	sb.WriteString(ddl.QuoteIdent(table))
	sb.WriteString(" (")
	sb.WriteString(strings.Join(quoted, ", "))
	sb.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(columns))
	param := 1
	for i, row := range rows {
		if len(row) != len(columns) {
			return "", nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(columns))
		}
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteByte('(')
		for j, v := range row {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(param))
			param++
			args = append(args, v)
		}
		sb.WriteByte(')')
	}
	return sb.String(), args, nil
}
