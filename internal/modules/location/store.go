// README: Location store backed by Redis GEO (last known position) and Postgres snapshots.
package location

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"ridecore/internal/types"
)

const vehicleGeoKey = "location:vehicles"

type Store struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func NewStore(db *pgxpool.Pool, redis *redis.Client) *Store {
	return &Store{db: db, redis: redis}
}

func (s *Store) SetGeo(ctx context.Context, id types.ID, pos types.Point) error {
	return s.redis.GeoAdd(ctx, vehicleGeoKey, &redis.GeoLocation{
		Name:      string(id),
		Longitude: pos.Lng,
		Latitude:  pos.Lat,
	}).Err()
}

func (s *Store) SearchGeo(ctx context.Context, pos types.Point, radiusKm float64) ([]Nearby, error) {
	results, err := s.redis.GeoSearchLocation(ctx, vehicleGeoKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  pos.Lng,
			Latitude:   pos.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
		WithDist:  true,
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("geo search: %w", err)
	}
	out := make([]Nearby, len(results))
	for i, r := range results {
		out[i] = Nearby{
			VehicleID:  types.ID(r.Name),
			Position:   types.Point{Lat: r.Latitude, Lng: r.Longitude},
			DistanceKm: r.Dist,
		}
	}
	return out, nil
}

func (s *Store) AppendSnapshot(ctx context.Context, snap Snapshot) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicle_positions (vehicle_id, latitude, longitude, recorded_at)
		VALUES ($1, $2, $3, $4)`,
		string(snap.VehicleID),
		snap.Position.Lat,
		snap.Position.Lng,
		snap.RecordedAt,
	)
	return err
}

func (s *Store) ListSnapshots(ctx context.Context, vehicleID types.ID, limit int) ([]Snapshot, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, vehicle_id, latitude, longitude, recorded_at
		FROM vehicle_positions
		WHERE vehicle_id = $1
		ORDER BY recorded_at DESC, id DESC
		LIMIT $2`, string(vehicleID), limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Snapshot
	for rows.Next() {
		var snap Snapshot
		if err := rows.Scan(&snap.ID, &snap.VehicleID, &snap.Position.Lat, &snap.Position.Lng, &snap.RecordedAt); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, rows.Err()
}
