package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"energyetl/internal/dataset"
	"energyetl/internal/geocode"
	"energyetl/internal/metrics"
	"energyetl/internal/schema"
	"energyetl/internal/storage/postgres"
)

const (
	// DefaultWorkers is the partition concurrency when none is configured.
	DefaultWorkers = 4
	maxWorkers     = 15
)

// DB is the connection source the runner draws per-fragment handles from.
// The pool satisfies it with *pgx.Conn handles.
type DB interface {
	Acquire(ctx context.Context) (postgres.Beginner, error)
	Release(conn postgres.Beginner)
}

// Runner drives a full load: each fragment is cleaned, optionally geocoded,
// reconciled against the live schema, and bulk-inserted, with fragments
// processed concurrently on a bounded worker group. Fragments fail
// independently; a bad partition is reported in the summary, not propagated.
type Runner struct {
	DB        DB
	Geocoder  geocode.Geocoder // nil disables enrichment
	Workers   int
	BatchSize int
	Inference schema.Inference
	Log       *zap.Logger

	// quotaSpent flips once the geocoder's daily quota runs out; remaining
	// fragments load without enrichment.
	quotaSpent atomic.Bool

	mu           sync.Mutex
	geocodeReady map[string]bool
}

// Result is the outcome of one fragment.
type Result struct {
	Source   string
	Table    string
	Rows     int64
	Geocoded int
	Err      error
}

// Summary is the outcome of a whole run.
type Summary struct {
	RunID      string
	Started    time.Time
	Elapsed    time.Duration
	Results    []Result
	RowsLoaded int64
	Failed     int
}

// Run processes every fragment and always returns a summary; partial success
// is the normal mode. The context cancels in-flight fragments but results
// gathered so far are still reported.
func (r *Runner) Run(ctx context.Context, fragments []Fragment) Summary {
	workers := r.Workers
	switch {
	case workers <= 0:
		workers = DefaultWorkers
	case workers > maxWorkers:
		workers = maxWorkers
	}

	summary := Summary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
		Results: make([]Result, len(fragments)),
	}
	log := r.Log.With(zap.String("run_id", summary.RunID))
	log.Info("run started",
		zap.Int("fragments", len(fragments)),
		zap.Int("workers", workers),
	)

	var g errgroup.Group
	g.SetLimit(workers)
	for i, frag := range fragments {
		i, frag := i, frag
		g.Go(func() error {
			summary.Results[i] = r.runFragment(ctx, frag, log)
			return nil
		})
	}
	_ = g.Wait()

	for _, res := range summary.Results {
		summary.RowsLoaded += res.Rows
		if res.Err != nil {
			summary.Failed++
		}
	}
	summary.Elapsed = time.Since(summary.Started)

	log.Info("run finished",
		zap.Int64("rows_loaded", summary.RowsLoaded),
		zap.Int("fragments", len(fragments)),
		zap.Int("failed", summary.Failed),
		zap.Duration("elapsed", summary.Elapsed),
	)
	return summary
}

func (r *Runner) runFragment(ctx context.Context, frag Fragment, log *zap.Logger) Result {
	res := Result{Source: frag.Source}
	log = log.With(zap.String("source", frag.Source))

	spec, err := dataset.ForSource(frag.Source)
	if err != nil {
		res.Err = err
		log.Error("unknown source", zap.Error(err))
		return res
	}
	res.Table = spec.Table

	started := time.Now()
	cf, err := Clean(frag, spec, r.Inference)
	metrics.RecordStage(frag.Source, "clean", err, time.Since(started))
	if err != nil {
		res.Err = err
		log.Error("clean failed", zap.Error(err))
		return res
	}
	metrics.RecordRows(frag.Source, "cleaned", int64(len(cf.Records)))

	enriching := spec.GeocodeQueries != nil && r.Geocoder != nil && !r.quotaSpent.Load()
	if enriching {
		started = time.Now()
		hits, err := Enrich(ctx, cf, spec.GeocodeQueries, r.Geocoder, log)
		metrics.RecordStage(frag.Source, "geocode", err, time.Since(started))
		res.Geocoded = hits
		metrics.RecordRows(frag.Source, "geocoded", int64(hits))
		if err != nil {
			if errors.Is(err, geocode.ErrQuotaExhausted) {
				r.quotaSpent.Store(true)
				log.Warn("geocode quota exhausted, loading without further enrichment",
					zap.Int("geocoded", hits))
			} else {
				res.Err = err
				log.Error("geocode failed", zap.Error(err))
				return res
			}
		}
	}

	conn, err := r.DB.Acquire(ctx)
	if err != nil {
		res.Err = fmt.Errorf("acquire connection: %w", err)
		log.Error("no connection", zap.Error(err))
		return res
	}
	defer r.DB.Release(conn)

	reconciler := postgres.NewReconciler(conn, log)
	started = time.Now()
	err = reconciler.EnsureTable(ctx, cf.Table, cf.Columns.Columns())
	if err == nil {
		err = reconciler.EnsureColumns(ctx, cf.Table, cf.Columns.Columns())
	}
	if err == nil && enriching {
		err = r.ensureGeocodeColumns(ctx, reconciler, cf.Table)
	}
	metrics.RecordStage(frag.Source, "reconcile", err, time.Since(started))
	if err != nil {
		res.Err = err
		log.Error("schema reconciliation failed", zap.Error(err))
		return res
	}

	loader := postgres.NewLoader(conn, r.BatchSize, log)
	started = time.Now()
	rows, err := loader.Load(ctx, cf.Table, cf.Columns.Names(), cf.Rows())
	metrics.RecordStage(frag.Source, "load", err, time.Since(started))
	if err != nil {
		res.Err = err
		log.Error("load failed", zap.Error(err))
		return res
	}
	res.Rows = rows
	metrics.RecordRows(frag.Source, "loaded", rows)
	return res
}

// ensureGeocodeColumns gates the companion-column DDL to once per table per
// run, across workers.
func (r *Runner) ensureGeocodeColumns(ctx context.Context, rec *postgres.Reconciler, table string) error {
	r.mu.Lock()
	if r.geocodeReady == nil {
		r.geocodeReady = make(map[string]bool)
	}
	done := r.geocodeReady[table]
	r.mu.Unlock()
	if done {
		return nil
	}

	if err := rec.EnsureGeocodeColumns(ctx, table); err != nil {
		return err
	}

	r.mu.Lock()
	r.geocodeReady[table] = true
	r.mu.Unlock()
	return nil
}
