// Package main wires a full load run: read pre-fetched fragments, clean and
// geocode them, reconcile the live schema, bulk-insert, then backfill PostGIS
// geometry. The CLI layer stays thin; all behavior lives in internal packages.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"energyetl/internal/config"
	"energyetl/internal/dbpool"
	"energyetl/internal/geocode"
	"energyetl/internal/logging"
	"energyetl/internal/metrics"
	"energyetl/internal/metrics/prompush"
	"energyetl/internal/pipeline"
	"energyetl/internal/storage/postgres"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "etl:", err)
		os.Exit(1)
	}
}

func run() error {
	var (
		configPath   = flag.String("config", "", "path to YAML config (environment still applies)")
		fragmentsDir = flag.String("fragments", "", "override fragments directory")
		joinTable    = flag.String("join-table", "", "create a proximity join table with this name")
		joinLeft     = flag.String("join-left", "", "left table of the proximity join")
		joinRight    = flag.String("join-right", "", "right table of the proximity join")
		joinMeters   = flag.Float64("join-meters", 10000, "proximity join distance in meters")
	)
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	if *fragmentsDir != "" {
		cfg.FragmentsDir = *fragmentsDir
	}

	issues := config.Validate(cfg)
	for _, issue := range issues {
		fmt.Fprintln(os.Stderr, "etl:", issue)
	}
	if config.HasErrors(issues) {
		return fmt.Errorf("configuration has errors")
	}

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if cfg.Metrics.GatewayURL != "" {
		backend, err := prompush.NewBackend(cfg.Metrics.Job, cfg.Metrics.GatewayURL)
		if err != nil {
			return err
		}
		metrics.SetBackend(backend)
		defer func() {
			if err := metrics.Flush(); err != nil {
				log.Warn("metrics push failed", zap.Error(err))
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fragments, err := pipeline.ReadFragmentDir(cfg.FragmentsDir)
	if err != nil {
		return err
	}
	if len(fragments) == 0 {
		return fmt.Errorf("no fragments in %s", cfg.FragmentsDir)
	}

	pool, err := dbpool.New(ctx, dbpool.PgxFactory(cfg.DSN), dbpool.Options{
		MinConns: cfg.Pool.MinConns,
		MaxConns: cfg.Pool.MaxConns,
	})
	if err != nil {
		return err
	}
	defer pool.Shutdown(context.Background())

	if err := dbpool.EnsurePostGIS(ctx, pool); err != nil {
		return err
	}

	geocoder, flushCache, err := buildGeocoder(cfg.Geocode, log)
	if err != nil {
		return err
	}
	defer flushCache()

	runner := &pipeline.Runner{
		DB:        poolDB{pool: pool},
		Geocoder:  geocoder,
		Workers:   cfg.Runtime.Workers,
		BatchSize: cfg.Runtime.BatchSize,
		Inference: cfg.Inference.Heuristics(),
		Log:       log,
	}
	summary := runner.Run(ctx, fragments)

	if err := backfillGeometry(ctx, pool, summary, log); err != nil {
		return err
	}
	if *joinTable != "" {
		if *joinLeft == "" || *joinRight == "" {
			return fmt.Errorf("join-table requires join-left and join-right")
		}
		if err := withConn(ctx, pool, func(conn *pgx.Conn) error {
			return postgres.CreateProximityJoin(ctx, conn, *joinTable, *joinLeft, *joinRight, *joinMeters, log)
		}); err != nil {
			return err
		}
	}

	if summary.Failed == len(fragments) {
		return fmt.Errorf("all %d fragments failed", len(fragments))
	}
	return nil
}

// buildGeocoder assembles the geocoder stack: Google behind a quota guard
// behind the disk cache, so cache hits never spend quota. A missing API key
// disables enrichment.
func buildGeocoder(cfg config.GeocodeConfig, log *zap.Logger) (geocode.Geocoder, func(), error) {
	if cfg.APIKey == "" {
		log.Info("geocoding disabled, no API key")
		return nil, func() {}, nil
	}

	cache, err := geocode.OpenCache(cfg.CachePath, log)
	if err != nil {
		return nil, nil, err
	}

	google := geocode.NewGoogleClient(geocode.GoogleConfig{
		APIKey:   cfg.APIKey,
		Region:   cfg.Region,
		Language: cfg.Language,
	}, log)
	quota := geocode.NewQuota(cfg.RequestsPerSecond, cfg.DailyLimit, clockwork.NewRealClock())
	geocoder := geocode.NewCachedGeocoder(geocode.NewQuotaGeocoder(google, quota), cache)

	flush := func() {
		if err := cache.Flush(); err != nil {
			log.Warn("geocode cache flush failed", zap.Error(err))
		}
	}
	return geocoder, flush, nil
}

// backfillGeometry builds PostGIS point and bbox geometry on every table that
// received geocoded rows this run.
func backfillGeometry(ctx context.Context, pool *dbpool.Pool[*pgx.Conn], summary pipeline.Summary, log *zap.Logger) error {
	done := make(map[string]bool)
	for _, res := range summary.Results {
		if res.Err != nil || res.Geocoded == 0 || done[res.Table] {
			continue
		}
		done[res.Table] = true
		if err := withConn(ctx, pool, func(conn *pgx.Conn) error {
			return postgres.BackfillGeometry(ctx, conn, res.Table, log)
		}); err != nil {
			return err
		}
	}
	return nil
}

func withConn(ctx context.Context, pool *dbpool.Pool[*pgx.Conn], fn func(*pgx.Conn) error) error {
	conn, err := pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer pool.Release(ctx, conn)
	return fn(conn)
}

// poolDB adapts the typed pool to the runner's connection source.
type poolDB struct {
	pool *dbpool.Pool[*pgx.Conn]
}

func (p poolDB) Acquire(ctx context.Context) (postgres.Beginner, error) {
	return p.pool.Acquire(ctx)
}

func (p poolDB) Release(conn postgres.Beginner) {
	if c, ok := conn.(*pgx.Conn); ok {
		p.pool.Release(context.Background(), c)
	}
}
