// README: Review service owns the pending -> completed review lifecycle.
package review

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"ridecore/internal/idgen"
	"ridecore/internal/modules/vehicle"
	"ridecore/internal/types"
)

type Storage interface {
	FindAllForUser(ctx context.Context, email string) ([]Review, error)
	FindAllForVehicle(ctx context.Context, vehicleID types.ID) ([]Review, error)
	FindOne(ctx context.Context, id types.ID) (Review, bool, error)
	Insert(ctx context.Context, r Review) error
	Complete(ctx context.Context, id types.ID, email string, c Completed) error
}

// VehicleLookup resolves the vehicle snapshot attached to a user's reviews.
type VehicleLookup interface {
	GetVehicle(ctx context.Context, id types.ID) (vehicle.Vehicle, bool, error)
}

type Service struct {
	store    Storage
	ids      idgen.Generator
	vehicles VehicleLookup
	now      func() time.Time
}

func NewService(store Storage, ids idgen.Generator, vehicles VehicleLookup) *Service {
	if ids == nil {
		ids = idgen.UUID{}
	}
	return &Service{store: store, ids: ids, vehicles: vehicles, now: time.Now}
}

type PendingCommand struct {
	Email     string
	VehicleID types.ID
	Price     float64
	RideDate  time.Time
}

type SubmitCommand struct {
	ReviewID types.ID
	Email    string
	Rating   float64
	Comment  string
}

// CreatePending stores the review stub for a finished ride.
func (s *Service) CreatePending(ctx context.Context, cmd PendingCommand) (Review, error) {
	if strings.TrimSpace(cmd.Email) == "" || cmd.VehicleID == "" {
		return Review{}, ErrBadRequest
	}
	rideDate := cmd.RideDate
	if rideDate.IsZero() {
		rideDate = s.now()
	}
	r := Review{
		ID:        types.ID(s.ids.Generate()),
		Email:     cmd.Email,
		VehicleID: cmd.VehicleID,
		RideDate:  rideDate.UTC(),
		Price:     cmd.Price,
		Outcome:   Pending{},
	}
	if err := s.store.Insert(ctx, r); err != nil {
		return Review{}, fmt.Errorf("insert review: %w", err)
	}
	return r, nil
}

// Submit rates a pending review. A review can be rated exactly once, and only
// by the rider it belongs to.
func (s *Service) Submit(ctx context.Context, cmd SubmitCommand) (Review, error) {
	if cmd.ReviewID == "" || strings.TrimSpace(cmd.Email) == "" {
		return Review{}, ErrBadRequest
	}
	if math.IsNaN(cmd.Rating) || cmd.Rating < MinRating || cmd.Rating > MaxRating {
		return Review{}, ErrInvalidRating
	}
	c := Completed{Rating: cmd.Rating, Comment: cmd.Comment}
	if err := s.store.Complete(ctx, cmd.ReviewID, cmd.Email, c); err != nil {
		return Review{}, err
	}
	r, ok, err := s.store.FindOne(ctx, cmd.ReviewID)
	if err != nil {
		return Review{}, fmt.Errorf("find review %s: %w", cmd.ReviewID, err)
	}
	if !ok {
		return Review{}, ErrNotFound
	}
	return r, nil
}

func (s *Service) Get(ctx context.Context, id types.ID) (Review, bool, error) {
	return s.store.FindOne(ctx, id)
}

func (s *Service) ListForVehicle(ctx context.Context, vehicleID types.ID) ([]Review, error) {
	return s.store.FindAllForVehicle(ctx, vehicleID)
}

// ListForUser returns the user's reviews, each with the vehicle as it is now.
func (s *Service) ListForUser(ctx context.Context, email string) ([]UserReview, error) {
	reviews, err := s.store.FindAllForUser(ctx, email)
	if err != nil {
		return nil, err
	}
	snapshots := make(map[types.ID]*vehicle.Vehicle)
	out := make([]UserReview, 0, len(reviews))
	for _, r := range reviews {
		v, seen := snapshots[r.VehicleID]
		if !seen && s.vehicles != nil {
			found, ok, err := s.vehicles.GetVehicle(ctx, r.VehicleID)
			if err != nil {
				return nil, fmt.Errorf("resolve vehicle %s: %w", r.VehicleID, err)
			}
			if ok {
				v = &found
			}
			snapshots[r.VehicleID] = v
		}
		out = append(out, UserReview{Review: r, Vehicle: v})
	}
	return out, nil
}
