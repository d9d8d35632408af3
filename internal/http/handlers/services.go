// README: Service interfaces the HTTP handlers depend on.
package handlers

import (
	"context"

	"ridecore/internal/modules/booking"
	"ridecore/internal/modules/location"
	"ridecore/internal/modules/matching"
	"ridecore/internal/modules/review"
	"ridecore/internal/modules/vehicle"
	"ridecore/internal/types"
)

// The interfaces below are the slices of the module services each handler
// needs. The concrete services satisfy them.

type VehicleService interface {
	GetAllVehicles(ctx context.Context) ([]vehicle.Vehicle, error)
	GetVehicle(ctx context.Context, id types.ID) (vehicle.Vehicle, bool, error)
}

type FleetReloader interface {
	Reload(ctx context.Context) (int, error)
}

type BookingService interface {
	Book(ctx context.Context, cmd booking.BookCommand) (vehicle.Vehicle, error)
	Finish(ctx context.Context, cmd booking.FinishCommand) (booking.Finished, error)
}

type OfferService interface {
	FindOffers(ctx context.Context, req matching.Request) ([]matching.Offer, error)
}

type ReviewService interface {
	Get(ctx context.Context, id types.ID) (review.Review, bool, error)
	Submit(ctx context.Context, cmd review.SubmitCommand) (review.Review, error)
	ListForVehicle(ctx context.Context, vehicleID types.ID) ([]review.Review, error)
	ListForUser(ctx context.Context, email string) ([]review.UserReview, error)
}

type LocationService interface {
	Nearby(ctx context.Context, pos types.Point, radiusKm float64) ([]location.Nearby, error)
	History(ctx context.Context, vehicleID types.ID, limit int) ([]location.Snapshot, error)
}

type Distancer interface {
	DistanceKm(ctx context.Context, origin, destination types.Point) (float64, error)
}
