// README: Matching request and ranked ride offer.
package matching

import (
	"ridecore/internal/modules/review"
	"ridecore/internal/modules/vehicle"
	"ridecore/internal/types"
)

// Request asks for up to Count offers near Position for a ride of
// DestinationKm kilometres.
type Request struct {
	Position      types.Point
	DestinationKm float64
	Count         int
}

// Offer is derived per request and never persisted.
type Offer struct {
	Vehicle       vehicle.Vehicle `json:"vehicle"`
	DistanceKm    float64         `json:"distance_km"`
	Price         float64         `json:"price"`
	Reviews       []review.Review `json:"reviews"`
	AverageRating float64         `json:"average_rating"`
}

// reviewFetchLimit bounds concurrent review lookups per match.
const reviewFetchLimit = 8
