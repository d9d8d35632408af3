// README: Matching ranks unbooked vehicles by distance and prices the ride.
package matching

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"ridecore/internal/modules/location"
	"ridecore/internal/modules/pricing"
	"ridecore/internal/modules/review"
	"ridecore/internal/modules/vehicle"
	"ridecore/internal/observability"
	"ridecore/internal/types"
)

type Fleet interface {
	GetAllVehicles(ctx context.Context) ([]vehicle.Vehicle, error)
}

type ReviewLister interface {
	ListForVehicle(ctx context.Context, vehicleID types.ID) ([]review.Review, error)
}

type Service struct {
	fleet   Fleet
	reviews ReviewLister
	log     *zap.Logger
}

func NewService(fleet Fleet, reviews ReviewLister, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{fleet: fleet, reviews: reviews, log: log}
}

// FindOffers matches against the whole fleet.
func (s *Service) FindOffers(ctx context.Context, req Request) ([]Offer, error) {
	fleet, err := s.fleet.GetAllVehicles(ctx)
	if err != nil {
		return nil, err
	}
	return s.Match(ctx, req, fleet)
}

// Match returns at most req.Count offers for the unbooked candidates nearest
// to req.Position, closest first. Equal distances keep candidate order.
// A failed review lookup yields an offer with no reviews rather than an error.
func (s *Service) Match(ctx context.Context, req Request, candidates []vehicle.Vehicle) ([]Offer, error) {
	started := time.Now()
	defer func() {
		observability.MatchLatency.Observe(time.Since(started).Seconds())
	}()
	observability.MatchesTotal.Inc()

	offers := rank(req, candidates)
	if len(offers) == 0 {
		observability.OffersReturned.Observe(0)
		return []Offer{}, nil
	}

	var g errgroup.Group
	g.SetLimit(reviewFetchLimit)
	for i := range offers {
		o := &offers[i]
		g.Go(func() error {
			o.Reviews = s.vehicleReviews(ctx, o.Vehicle.ID)
			o.AverageRating = review.AverageRating(o.Reviews)
			return nil
		})
	}
	g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	observability.OffersReturned.Observe(float64(len(offers)))
	return offers, nil
}

// rank computes distance and price for the first req.Count unbooked
// candidates in distance order.
func rank(req Request, candidates []vehicle.Vehicle) []Offer {
	if req.Count <= 0 || len(candidates) == 0 {
		return nil
	}
	ranked := make([]Offer, 0, len(candidates))
	for _, v := range candidates {
		ranked = append(ranked, Offer{
			Vehicle:    v,
			DistanceKm: location.Distance(req.Position, v.Position),
		})
	}
	location.SortByDistance(ranked, func(o Offer) float64 { return o.DistanceKm })

	out := make([]Offer, 0, min(req.Count, len(ranked)))
	for _, o := range ranked {
		if len(out) == req.Count {
			break
		}
		if o.Vehicle.Booked {
			continue
		}
		o.Price = pricing.Quote(req.DestinationKm, o.Vehicle.PricePerKm, o.Vehicle.StartPrice)
		out = append(out, o)
	}
	return out
}

func (s *Service) vehicleReviews(ctx context.Context, id types.ID) []review.Review {
	if s.reviews == nil {
		return []review.Review{}
	}
	reviews, err := s.reviews.ListForVehicle(ctx, id)
	if err != nil {
		observability.ReviewLookupFailures.Inc()
		s.log.Warn("review lookup failed, offering vehicle without reviews",
			zap.String("vehicle_id", string(id)),
			zap.Error(err),
		)
		return []review.Review{}
	}
	if reviews == nil {
		return []review.Review{}
	}
	return reviews
}
