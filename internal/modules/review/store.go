// README: Review store backed by PostgreSQL.
package review

import (
	"context"
	"database/sql"
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

const selectReview = `
	SELECT id, email, vehicle_id, ride_date, price, completed, rating, comment
	FROM reviews`

func (s *Store) FindAllForUser(ctx context.Context, email string) ([]Review, error) {
	return s.query(ctx, selectReview+` WHERE email = $1 ORDER BY ride_date DESC, id`, email)
}

func (s *Store) FindAllForVehicle(ctx context.Context, vehicleID types.ID) ([]Review, error) {
	return s.query(ctx, selectReview+` WHERE vehicle_id = $1 ORDER BY ride_date DESC, id`, string(vehicleID))
}

func (s *Store) FindOne(ctx context.Context, id types.ID) (Review, bool, error) {
	r, err := scanReview(s.db.QueryRow(ctx, selectReview+` WHERE id = $1`, string(id)))
	if errors.Is(err, pgx.ErrNoRows) {
		return Review{}, false, nil
	}
	if err != nil {
		return Review{}, false, err
	}
	return r, true, nil
}

// Insert stores a new review. Only pending stubs are expected here, but a
// completed review is persisted as given.
func (s *Store) Insert(ctx context.Context, r Review) error {
	var rating sql.NullFloat64
	var comment sql.NullString
	c, completed := r.Rated()
	if completed {
		rating = sql.NullFloat64{Float64: c.Rating, Valid: true}
		comment = sql.NullString{String: c.Comment, Valid: true}
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO reviews (id, email, vehicle_id, ride_date, price, completed, rating, comment)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		string(r.ID), r.Email, string(r.VehicleID), r.RideDate, r.Price, completed, rating, comment,
	)
	return err
}

// Complete turns a pending review owned by email into a completed one. It
// returns ErrNotFound when no such review exists for email and
// ErrAlreadyCompleted when it was rated before.
func (s *Store) Complete(ctx context.Context, id types.ID, email string, c Completed) error {
	tag, err := s.db.Exec(ctx, `
		UPDATE reviews
		SET completed = TRUE, rating = $3, comment = $4
		WHERE id = $1 AND email = $2 AND completed = FALSE`,
		string(id), email, c.Rating, c.Comment,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	existing, found, err := s.FindOne(ctx, id)
	if err != nil {
		return err
	}
	if !found || existing.Email != email {
		return ErrNotFound
	}
	return ErrAlreadyCompleted
}

func (s *Store) query(ctx context.Context, q string, args ...any) ([]Review, error) {
	rows, err := s.db.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Review
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func scanReview(row pgx.Row) (Review, error) {
	var r Review
	var completed bool
	var rating sql.NullFloat64
	var comment sql.NullString
	err := row.Scan(&r.ID, &r.Email, &r.VehicleID, &r.RideDate, &r.Price, &completed, &rating, &comment)
	if err != nil {
		return Review{}, err
	}
	r.Outcome = outcomeFromColumns(completed, rating, comment)
	return r, nil
}

// outcomeFromColumns rebuilds the variant. A completed row without a rating
// cannot exist under the table's CHECK constraint; it is read as pending.
func outcomeFromColumns(completed bool, rating sql.NullFloat64, comment sql.NullString) Outcome {
	if !completed || !rating.Valid {
		return Pending{}
	}
	return Completed{Rating: rating.Float64, Comment: comment.String}
}
