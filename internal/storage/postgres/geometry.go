package postgres

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"energyetl/internal/ddl"
)

// BackfillGeometry derives spatial columns from the flat geocode columns
// after a fragment commits: a Point from lat/lon and a Polygon envelope from
// the bbox edges, both SRID 4326 with GiST indexes. Every statement is
// idempotent, so repeat runs only touch rows still missing geometry.
func BackfillGeometry(ctx context.Context, db Execer, table string, log *zap.Logger) error {
	t := ddl.QuoteIdent(table)

	steps := []struct {
		desc string
		sql  string
	}{
		{
			"add point column",
			fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS "geom" geometry(Point, 4326)`, t),
		},
		{
			"backfill points",
			fmt.Sprintf(`UPDATE %s SET "geom" = ST_SetSRID(ST_MakePoint("lon", "lat"), 4326)
WHERE "geom" IS NULL AND "lat" IS NOT NULL AND "lon" IS NOT NULL`, t),
		},
		{
			"index points",
			ddl.BuildGiSTIndex(table, "geom"),
		},
		{
			"add bbox column",
			fmt.Sprintf(`ALTER TABLE %s ADD COLUMN IF NOT EXISTS "geom_bbox" geometry(Polygon, 4326)`, t),
		},
		{
			"backfill bboxes",
			fmt.Sprintf(`UPDATE %s SET "geom_bbox" = ST_MakeEnvelope("bbox_west", "bbox_south", "bbox_east", "bbox_north", 4326)
WHERE "geom_bbox" IS NULL
  AND "bbox_west" IS NOT NULL AND "bbox_south" IS NOT NULL
  AND "bbox_east" IS NOT NULL AND "bbox_north" IS NOT NULL`, t),
		},
		{
			"index bboxes",
			ddl.BuildGiSTIndex(table, "geom_bbox"),
		},
	}

	for _, step := range steps {
		if _, err := db.Exec(ctx, step.sql); err != nil {
			return fmt.Errorf("backfill geometry %s: %s: %w", table, step.desc, err)
		}
	}
	log.Debug("geometry backfilled", zap.String("table", table))
	return nil
}

// CreateProximityJoin materializes a join table pairing rows of left and
// right whose points lie within the given distance in meters, with the
// geographic distance carried along. Geometry must already be backfilled on
// both sides.
func CreateProximityJoin(ctx context.Context, db Execer, name, left, right string, meters float64, log *zap.Logger) error {
	sql := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s AS
SELECT a."id" AS %s, b."id" AS %s,
       ST_Distance(a."geom"::geography, b."geom"::geography) AS distance_m
FROM %s a
JOIN %s b ON ST_DWithin(a."geom"::geography, b."geom"::geography, %g)
WHERE a."geom" IS NOT NULL AND b."geom" IS NOT NULL`,
		ddl.QuoteIdent(name),
		ddl.QuoteIdent(left+"_id"), ddl.QuoteIdent(right+"_id"),
		ddl.QuoteIdent(left), ddl.QuoteIdent(right), meters,
	)

	if _, err := db.Exec(ctx, sql); err != nil {
		return fmt.Errorf("proximity join %s: %w", name, err)
	}
	log.Info("proximity join created",
		zap.String("table", name),
		zap.String("left", left),
		zap.String("right", right),
		zap.Float64("meters", meters),
	)
	return nil
}
