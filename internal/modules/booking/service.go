// README: Booking service orchestrates the ride lifecycle across modules.
package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"ridecore/internal/events"
	"ridecore/internal/modules/pricing"
	"ridecore/internal/modules/review"
	"ridecore/internal/modules/vehicle"
	"ridecore/internal/types"
)

var ErrBadRequest = errors.New("bad request")

type Registry interface {
	Book(ctx context.Context, id types.ID) (vehicle.Vehicle, error)
	FinishRide(ctx context.Context, id types.ID, pos types.Point) (vehicle.Vehicle, error)
}

type Reviews interface {
	CreatePending(ctx context.Context, cmd review.PendingCommand) (review.Review, error)
}

type Tracker interface {
	Track(ctx context.Context, vehicleID types.ID, pos types.Point) error
}

type Service struct {
	registry Registry
	reviews  Reviews
	tracker  Tracker
	events   events.Publisher
	log      *zap.Logger
	now      func() time.Time

	mu sync.Mutex
	// unsettled holds rides whose vehicle was released but whose pending
	// review could not be stored, keyed by vehicle.
	unsettled map[types.ID]unsettledRide
}

type unsettledRide struct {
	email   string
	vehicle vehicle.Vehicle
	price   float64
	at      time.Time
}

func NewService(registry Registry, reviews Reviews, tracker Tracker, publisher events.Publisher, log *zap.Logger) *Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{
		registry:  registry,
		reviews:   reviews,
		tracker:   tracker,
		events:    publisher,
		log:       log,
		now:       time.Now,
		unsettled: make(map[types.ID]unsettledRide),
	}
}

type BookCommand struct {
	VehicleID types.ID
	Email     string
}

type FinishCommand struct {
	VehicleID     types.ID
	Email         string
	Position      types.Point
	DestinationKm float64
}

// Finished is the outcome of a completed ride.
type Finished struct {
	Vehicle vehicle.Vehicle `json:"vehicle"`
	Review  review.Review   `json:"review"`
	Price   float64         `json:"price"`
}

func (s *Service) Book(ctx context.Context, cmd BookCommand) (vehicle.Vehicle, error) {
	if cmd.VehicleID == "" || strings.TrimSpace(cmd.Email) == "" {
		return vehicle.Vehicle{}, ErrBadRequest
	}
	v, err := s.registry.Book(ctx, cmd.VehicleID)
	if err != nil {
		return vehicle.Vehicle{}, err
	}
	s.mu.Lock()
	delete(s.unsettled, v.ID)
	s.mu.Unlock()
	s.publish(ctx, events.Event{
		Type:       events.RideBooked,
		VehicleID:  v.ID,
		Email:      cmd.Email,
		OccurredAt: s.now().UTC(),
	})
	return v, nil
}

// Finish ends the ride on the vehicle, prices it and leaves a pending review
// for the rider. Position tracking and the event are best effort.
//
// If the review cannot be stored after the vehicle was released, the ride is
// kept as unsettled and a retry by the same rider stores the review instead of
// failing with ErrNotBooked. Booking the vehicle again discards it.
func (s *Service) Finish(ctx context.Context, cmd FinishCommand) (Finished, error) {
	if cmd.VehicleID == "" || strings.TrimSpace(cmd.Email) == "" {
		return Finished{}, ErrBadRequest
	}
	ride, err := s.release(ctx, cmd)
	if err != nil {
		return Finished{}, err
	}
	v, price, now := ride.vehicle, ride.price, ride.at

	r, err := s.reviews.CreatePending(ctx, review.PendingCommand{
		Email:     cmd.Email,
		VehicleID: v.ID,
		Price:     price,
		RideDate:  now,
	})
	if err != nil {
		s.mu.Lock()
		s.unsettled[v.ID] = ride
		s.mu.Unlock()
		s.log.Warn("pending review not stored, ride left unsettled",
			zap.String("vehicle_id", string(v.ID)),
			zap.Error(err),
		)
		return Finished{}, err
	}

	if s.tracker != nil {
		if err := s.tracker.Track(ctx, v.ID, v.Position); err != nil {
			s.log.Warn("track finished ride position", zap.String("vehicle_id", string(v.ID)), zap.Error(err))
		}
	}
	pos := v.Position
	s.publish(ctx, events.Event{
		Type:       events.RideFinished,
		VehicleID:  v.ID,
		Email:      cmd.Email,
		Price:      price,
		Position:   &pos,
		ReviewID:   r.ID,
		OccurredAt: now,
	})
	return Finished{Vehicle: v, Review: r, Price: price}, nil
}

// release finishes the ride on the registry, or claims the unsettled ride
// left by an earlier failed attempt of the same rider.
func (s *Service) release(ctx context.Context, cmd FinishCommand) (unsettledRide, error) {
	v, err := s.registry.FinishRide(ctx, cmd.VehicleID, cmd.Position)
	if err == nil {
		return unsettledRide{
			email:   cmd.Email,
			vehicle: v,
			price:   pricing.Quote(cmd.DestinationKm, v.PricePerKm, v.StartPrice),
			at:      s.now().UTC(),
		}, nil
	}
	if !errors.Is(err, vehicle.ErrNotBooked) {
		return unsettledRide{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	ride, ok := s.unsettled[cmd.VehicleID]
	if !ok || ride.email != cmd.Email {
		return unsettledRide{}, err
	}
	delete(s.unsettled, cmd.VehicleID)
	return ride, nil
}

func (s *Service) publish(ctx context.Context, e events.Event) {
	if err := s.events.Publish(ctx, e); err != nil {
		s.log.Warn("publish ride event",
			zap.String("type", string(e.Type)),
			zap.String("vehicle_id", string(e.VehicleID)),
			zap.Error(err),
		)
	}
}
