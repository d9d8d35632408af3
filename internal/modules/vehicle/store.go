// README: Vehicle store backed by PostgreSQL.
package vehicle

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"ridecore/internal/types"
)

type Store struct {
	db *pgxpool.Pool
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{db: db}
}

const selectVehicle = `
	SELECT id, brand, owner_first_name, owner_last_name,
	       latitude, longitude, price_per_km, start_price, booked
	FROM vehicles`

func (s *Store) FindAll(ctx context.Context) ([]Vehicle, error) {
	rows, err := s.db.Query(ctx, selectVehicle+` ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Vehicle
	for rows.Next() {
		v, err := scanVehicle(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (s *Store) FindOne(ctx context.Context, id types.ID) (Vehicle, bool, error) {
	v, err := scanVehicle(s.db.QueryRow(ctx, selectVehicle+` WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Vehicle{}, false, nil
	}
	if err != nil {
		return Vehicle{}, false, err
	}
	return v, true, nil
}

// Update applies p to the stored vehicle. It returns ErrNotFound when id does
// not exist and ErrConflict when the patch guard does not hold.
func (s *Store) Update(ctx context.Context, id types.ID, p Patch) error {
	var lat, lng *float64
	if p.Position != nil {
		lat, lng = &p.Position.Lat, &p.Position.Lng
	}
	tag, err := s.db.Exec(ctx, `
		UPDATE vehicles
		SET latitude = COALESCE($2, latitude),
		    longitude = COALESCE($3, longitude),
		    booked = COALESCE($4, booked),
		    updated_at = NOW()
		WHERE id = $1 AND ($5::boolean IS NULL OR booked = $5)`,
		string(id), lat, lng, p.Booked, p.IfBooked,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	if p.IfBooked == nil {
		return ErrNotFound
	}
	_, found, err := s.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	return ErrConflict
}

// Insert adds a vehicle. Fleet onboarding lives outside this service; Insert
// exists for seeding and tests.
func (s *Store) Insert(ctx context.Context, v Vehicle) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO vehicles (
			id, brand, owner_first_name, owner_last_name,
			latitude, longitude, price_per_km, start_price, booked
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		string(v.ID), v.Brand, v.OwnerFirstName, v.OwnerLastName,
		v.Position.Lat, v.Position.Lng, v.PricePerKm, v.StartPrice, v.Booked,
	)
	return err
}

func scanVehicle(row pgx.Row) (Vehicle, error) {
	var v Vehicle
	err := row.Scan(
		&v.ID, &v.Brand, &v.OwnerFirstName, &v.OwnerLastName,
		&v.Position.Lat, &v.Position.Lng, &v.PricePerKm, &v.StartPrice, &v.Booked,
	)
	return v, err
}
