package dataset

import (
	"context"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pkg/errors"
)

const (
	segmentsQuery = `
		SELECT
			segment_id, from_intersection, to_intersection,
			length_km, lanes, speed_limit_kmh, is_one_way,
			zone_id, road_type, road_name, closed
		FROM corridor_segments`

	intersectionsQuery = `
		SELECT
			intersection_id, latitude, longitude,
			has_signal, cycle_time_sec, green_time_sec,
			road_name, zone_id
		FROM intersections`

	odQuery = `
		SELECT
			origin_intersection, destination_intersection,
			vehicles_per_hour, vehicle_type
		FROM od_matrix`
)

// LoadPostgres reads the three input tables from PostgreSQL.
func LoadPostgres(ctx context.Context, dsn string) (*Tables, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, errors.Wrap(err, "connect to postgres")
	}
	defer db.Close()

	tables := &Tables{}
	if err := db.SelectContext(ctx, &tables.Segments, segmentsQuery); err != nil {
		return nil, errors.Wrap(err, "query corridor_segments")
	}
	if err := db.SelectContext(ctx, &tables.Intersections, intersectionsQuery); err != nil {
		return nil, errors.Wrap(err, "query intersections")
	}
	if err := db.SelectContext(ctx, &tables.Demand, odQuery); err != nil {
		return nil, errors.Wrap(err, "query od_matrix")
	}

	log.Infof("loaded postgres tables: %d segments, %d intersections, %d OD entries",
		len(tables.Segments), len(tables.Intersections), len(tables.Demand))
	return tables, nil
}
