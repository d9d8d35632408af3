// README: Review record with a pending/completed outcome variant.
package review

import (
	"encoding/json"
	"errors"
	"time"

	"ridecore/internal/modules/vehicle"
	"ridecore/internal/types"
)

var (
	ErrNotFound         = errors.New("review not found")
	ErrAlreadyCompleted = errors.New("review already completed")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrBadRequest       = errors.New("bad request")
)

const (
	MinRating = 1
	MaxRating = 5
)

// Outcome is either Pending or Completed.
type Outcome interface {
	isOutcome()
}

// Pending is a review stub created when a ride finishes, before the rider
// has rated it.
type Pending struct{}

// Completed carries the rider's rating and optional comment.
type Completed struct {
	Rating  float64
	Comment string
}

func (Pending) isOutcome()   {}
func (Completed) isOutcome() {}

type Review struct {
	ID        types.ID
	Email     string
	VehicleID types.ID
	RideDate  time.Time
	Price     float64
	Outcome   Outcome
}

// Rated returns the rating payload if the rider has submitted one.
func (r Review) Rated() (Completed, bool) {
	c, ok := r.Outcome.(Completed)
	return c, ok
}

type reviewJSON struct {
	ID        types.ID  `json:"id"`
	Email     string    `json:"email"`
	VehicleID types.ID  `json:"vehicle_id"`
	RideDate  time.Time `json:"ride_date"`
	Price     float64   `json:"price"`
	Completed bool      `json:"completed"`
	Rating    *float64  `json:"rating,omitempty"`
	Comment   *string   `json:"comment,omitempty"`
}

func (r Review) MarshalJSON() ([]byte, error) {
	out := reviewJSON{
		ID:        r.ID,
		Email:     r.Email,
		VehicleID: r.VehicleID,
		RideDate:  r.RideDate,
		Price:     r.Price,
	}
	if c, ok := r.Rated(); ok {
		out.Completed = true
		out.Rating = &c.Rating
		out.Comment = &c.Comment
	}
	return json.Marshal(out)
}

// UserReview is a review joined with a snapshot of its vehicle. Vehicle is
// nil when the vehicle no longer resolves.
type UserReview struct {
	Review  Review           `json:"review"`
	Vehicle *vehicle.Vehicle `json:"vehicle"`
}

// AverageRating is the mean rating over completed reviews, or 0 when none
// of them has been rated.
func AverageRating(reviews []Review) float64 {
	var sum float64
	var n int
	for _, r := range reviews {
		if c, ok := r.Rated(); ok {
			sum += c.Rating
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
